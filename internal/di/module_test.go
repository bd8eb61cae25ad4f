package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/sablin/fairmarket/internal/app"
	"github.com/sablin/fairmarket/internal/config"
	"github.com/sablin/fairmarket/internal/domain/repository"
	"github.com/sablin/fairmarket/internal/storage/postgres"
	"github.com/sablin/fairmarket/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:       ":0",
		DatabaseURI:      "postgres://stub",
		JWTSecret:        "secret",
		VerificationDays: 7,
		SweepInterval:    time.Millisecond,
		SweepBatchSize:   1,
		SweepWorkers:     1,
		StockRetryLimit:  1,
		BuyerFeeBps:      200,
		ShutdownTimeout:  time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	userRepo := test.NewUserRepositoryStub()
	orderRepo := &test.OrderRepositoryStub{}
	escrowRepo := &test.EscrowRepositoryStub{}
	confirmationRepo := &test.ConfirmationRepositoryStub{}
	stockRepo := test.NewStockRepositoryStub()

	var facade *app.MarketFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.UserRepository(userRepo)),
			fx.Replace(repository.OrderRepository(orderRepo)),
			fx.Replace(repository.EscrowRepository(escrowRepo)),
			fx.Replace(repository.ConfirmationRepository(confirmationRepo)),
			fx.Replace(repository.StockRepository(stockRepo)),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected market facade instance")
	}
}
