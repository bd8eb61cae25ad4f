package di

import (
	"go.uber.org/fx"

	"github.com/sablin/fairmarket/internal/adapter/notify"
	"github.com/sablin/fairmarket/internal/app"
	"github.com/sablin/fairmarket/internal/config"
	"github.com/sablin/fairmarket/internal/logger"
	"github.com/sablin/fairmarket/internal/pkg/auth"
	"github.com/sablin/fairmarket/internal/server/http/handlers"
	"github.com/sablin/fairmarket/internal/server/http/router"
	"github.com/sablin/fairmarket/internal/storage/postgres"
	"github.com/sablin/fairmarket/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(func(pub notify.Publisher) app.EventPublisher { return pub }),
		fx.Provide(func(facade *app.MarketFacade) handlers.MarketFacade { return facade }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
