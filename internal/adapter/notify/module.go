package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/sablin/fairmarket/internal/config"
)

// Module exposes the event publisher to the fx graph. Without brokers
// configured the application runs with notifications disabled.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newPublisher(p publisherParams) Publisher {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("kafka brokers not configured, notifications disabled")
		return NopPublisher{}
	}
	return NewProducer(p.Config.KafkaBrokers, p.Config.NotifyTopic, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, pub Publisher) {
	producer, ok := pub.(*Producer)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
}
