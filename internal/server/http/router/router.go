package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/server/http/handlers"
	"github.com/sablin/fairmarket/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	escrowHandler := handlers.NewEscrowHandler(facade)
	stockHandler := handlers.NewStockHandler(facade)

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Place)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/cancel", orderHandler.Cancel)
	orders.POST("/:id/receipt", orderHandler.ConfirmReceipt)
	orders.POST("/:id/problem", orderHandler.ReportProblem)
	orders.POST("/:id/confirm", middleware.RequireRoles(model.RoleSeller), orderHandler.Confirm)
	orders.POST("/:id/force-confirm", middleware.RequireRoles(model.RoleAdmin), orderHandler.ForceConfirm)
	orders.GET("/:id/pending-sellers", middleware.RequireRoles(model.RoleAdmin, model.RoleSeller), orderHandler.PendingSellers)
	orders.POST("/:id/agent", middleware.RequireRoles(model.RoleAdmin), orderHandler.AssignAgent)
	orders.POST("/:id/delivery", middleware.RequireRoles(model.RoleAgent), orderHandler.AdvanceDelivery)

	escrows := authed.Group("/escrows")
	escrows.GET("", middleware.RequireRoles(model.RoleSeller), escrowHandler.ListMine)
	escrows.POST("/:id/action", middleware.RequireRoles(model.RoleAdmin), escrowHandler.Action)

	products := authed.Group("/products")
	products.GET("/:id", stockHandler.Product)
	products.POST("/:id/stock", middleware.RequireRoles(model.RoleSeller, model.RoleAdmin), stockHandler.Adjust)
	products.POST("/stock/bulk", middleware.RequireRoles(model.RoleSeller, model.RoleAdmin), stockHandler.BulkAdjust)
	products.GET("/:id/stock/history", middleware.RequireRoles(model.RoleSeller, model.RoleAdmin), stockHandler.History)

	return engine
}
