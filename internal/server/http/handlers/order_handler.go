package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/server/http/dto"
)

// OrderHandler manages order lifecycle endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Place handles POST /api/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	customerID := CurrentUserID(c)

	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	cart := make([]model.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		cart = append(cart, model.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.facade.PlaceOrder(c.Request.Context(), customerID, req.Address, cart)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrEmptyCart), errors.Is(err, domainErrors.ErrInvalidQuantity):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInactiveItem):
			c.Status(http.StatusUnprocessableEntity)
		case errors.Is(err, domainErrors.ErrOutOfStock), errors.Is(err, domainErrors.ErrConcurrentModification):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	customerID := CurrentUserID(c)
	orders, err := h.facade.Orders(c.Request.Context(), customerID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	order, items, err := h.facade.OrderByID(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	resp := dto.OrderDetailResponse{OrderResponse: toOrderResponse(*order)}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ProductID:      it.ProductID,
			SellerID:       it.SellerID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
			ProductName:    it.ProductName,
			ProductImage:   it.ProductImage,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	summary, err := h.facade.CancelOrder(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotOwner):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrInvalidState):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	resp := dto.RefundSummaryResponse{OrderID: summary.OrderID, TotalCents: summary.TotalCents}
	for _, line := range summary.Lines {
		resp.Lines = append(resp.Lines, dto.RefundLineResponse{SellerID: line.SellerID, AmountCents: line.AmountCents})
	}
	c.JSON(http.StatusOK, resp)
}

// Confirm handles POST /api/orders/:id/confirm.
func (h *OrderHandler) Confirm(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	confirmed, err := h.facade.ConfirmAsSeller(c.Request.Context(), orderID, CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotSellerOnOrder):
			c.Status(http.StatusForbidden)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.SellerConfirmResponse{OrderConfirmed: confirmed})
}

// ForceConfirm handles POST /api/orders/:id/force-confirm.
func (h *OrderHandler) ForceConfirm(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.ForceConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.ForceConfirm(c.Request.Context(), orderID, CurrentUserID(c), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrReasonRequired):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInvalidState):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)
}

// PendingSellers handles GET /api/orders/:id/pending-sellers.
func (h *OrderHandler) PendingSellers(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	sellers, err := h.facade.PendingSellers(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, dto.PendingSellersResponse{SellerIDs: sellers})
}

// AssignAgent handles POST /api/orders/:id/agent.
func (h *OrderHandler) AssignAgent(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.AssignAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.AssignAgent(c.Request.Context(), orderID, req.AgentID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrInvalidState):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)
}

// AdvanceDelivery handles POST /api/orders/:id/delivery.
func (h *OrderHandler) AdvanceDelivery(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.DeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.AdvanceDelivery(c.Request.Context(), orderID, CurrentUserID(c), model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotAssignedAgent):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrInvalidTransition):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// ConfirmReceipt handles POST /api/orders/:id/receipt.
func (h *OrderHandler) ConfirmReceipt(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.ConfirmReceipt(c.Request.Context(), orderID, CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotEligible):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)
}

// ReportProblem handles POST /api/orders/:id/problem.
func (h *OrderHandler) ReportProblem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.ReportProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.ReportProblem(c.Request.Context(), orderID, CurrentUserID(c), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrReasonRequired):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotEligible):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:               order.ID,
		OrderedAt:        order.OrderedAt,
		SubtotalCents:    order.SubtotalCents,
		BuyerFeeCents:    order.BuyerFeeCents,
		TotalCents:       order.TotalCents,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		Address:          order.Address,
		AgentID:          order.AgentID,
		VerifyStart:      order.VerifyStart,
		VerifyEnd:        order.VerifyEnd,
		ConfirmedReceipt: order.ConfirmedReceipt,
		ReportedProblem:  order.ReportedProblem,
	}
}
