package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
	"github.com/sablin/fairmarket/internal/server/http/dto"
)

// StockHandler manages stock ledger endpoints.
type StockHandler struct {
	facade StockFacade
}

// NewStockHandler constructs StockHandler.
func NewStockHandler(facade StockFacade) *StockHandler {
	return &StockHandler{facade: facade}
}

// Adjust handles POST /api/products/:id/stock.
func (h *StockHandler) Adjust(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	actorID := CurrentUserID(c)
	product, err := h.facade.AdjustStock(c.Request.Context(), productID, req.Delta, model.AdjustmentReason(req.Reason), &actorID, CurrentRole(c))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidQuantity), errors.Is(err, domainErrors.ErrReasonRequired):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNegativeStock):
			c.Status(http.StatusUnprocessableEntity)
		case errors.Is(err, domainErrors.ErrConcurrentModification):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toProductResponse(*product))
}

// BulkAdjust handles POST /api/products/stock/bulk.
func (h *StockHandler) BulkAdjust(c *gin.Context) {
	var req dto.BulkAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	changes := make([]repository.StockChange, 0, len(req.Items))
	for _, it := range req.Items {
		changes = append(changes, repository.StockChange{ProductID: it.ProductID, Delta: it.Delta})
	}

	actorID := CurrentUserID(c)
	adjustments, err := h.facade.BulkAdjustStock(c.Request.Context(), changes, model.AdjustmentReason(req.Reason), &actorID, CurrentRole(c))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidQuantity), errors.Is(err, domainErrors.ErrReasonRequired):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNegativeStock):
			c.Status(http.StatusUnprocessableEntity)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	resp := make([]dto.AdjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		resp = append(resp, toAdjustmentResponse(a))
	}
	c.JSON(http.StatusOK, resp)
}

// Product handles GET /api/products/:id.
func (h *StockHandler) Product(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	product, err := h.facade.ProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(*product))
}

// History handles GET /api/products/:id/stock/history.
func (h *StockHandler) History(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	adjustments, err := h.facade.StockHistory(c.Request.Context(), productID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(adjustments) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.AdjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		resp = append(resp, toAdjustmentResponse(a))
	}
	c.JSON(http.StatusOK, resp)
}

func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID,
		SellerID:      p.SellerID,
		Name:          p.Name,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
	}
}

func toAdjustmentResponse(a model.StockAdjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ProductID:   a.ProductID,
		PreviousQty: a.PreviousQty,
		NewQty:      a.NewQty,
		Delta:       a.Delta,
		Reason:      string(a.Reason),
		ActorID:     a.ActorID,
		Automated:   a.Automated,
		CreatedAt:   a.CreatedAt,
	}
}
