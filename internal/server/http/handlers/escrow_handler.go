package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/server/http/dto"
)

// EscrowHandler manages escrow endpoints.
type EscrowHandler struct {
	facade EscrowFacade
}

// NewEscrowHandler constructs EscrowHandler.
func NewEscrowHandler(facade EscrowFacade) *EscrowHandler {
	return &EscrowHandler{facade: facade}
}

// ListMine handles GET /api/escrows for the authenticated seller.
func (h *EscrowHandler) ListMine(c *gin.Context) {
	escrows, err := h.facade.EscrowsBySeller(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(escrows) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.EscrowResponse, 0, len(escrows))
	for _, e := range escrows {
		resp = append(resp, toEscrowResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// Action handles POST /api/escrows/:id/action.
func (h *EscrowHandler) Action(c *gin.Context) {
	escrowID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.EscrowActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	escrow, err := h.facade.ManualEscrowAction(c.Request.Context(), escrowID, CurrentUserID(c), req.Action, req.Notes)
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

	c.JSON(http.StatusOK, toEscrowResponse(*escrow))
}

func toEscrowResponse(e model.Escrow) dto.EscrowResponse {
	return dto.EscrowResponse{
		ID:             e.ID,
		OrderID:        e.OrderID,
		SellerID:       e.SellerID,
		AmountCents:    e.AmountCents,
		Status:         string(e.Status),
		CustomerAction: string(e.CustomerAction),
		VerifyStart:    e.VerifyStart,
		VerifyEnd:      e.VerifyEnd,
		ReleasedAt:     e.ReleasedAt,
		ReleasedBy:     e.ReleasedBy,
		CreatedAt:      e.CreatedAt,
	}
}
