package usecase

import (
	"go.uber.org/fx"

	"github.com/sablin/fairmarket/internal/config"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	newOrderUseCase,
	NewConfirmationUseCase,
	NewEscrowUseCase,
	newStockUseCase,
)

type orderParams struct {
	fx.In

	Orders repository.OrderRepository
	Stock  repository.StockRepository
	Users  repository.UserRepository
	Config *config.Config
}

func newOrderUseCase(p orderParams) *OrderUseCase {
	return NewOrderUseCase(p.Orders, p.Stock, p.Users,
		p.Config.BuyerFeeBps, p.Config.VerificationWindow(), p.Config.StockRetryLimit)
}

func newStockUseCase(stock repository.StockRepository, cfg *config.Config) *StockUseCase {
	return NewStockUseCase(stock, cfg.StockRetryLimit)
}
