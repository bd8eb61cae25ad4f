package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

func run(ctx context.Context, app *fx.App) {
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fairmarket: start failed: %v\n", err)
		os.Exit(1)
	}

	// Block until either a signal arrives or the app shuts itself down.
	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fairmarket: shutdown failed: %v\n", err)
		os.Exit(1)
	}
}
