package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendarcade/squadgames/internal/domain"
)

// Settler runs the settlement pipeline for a game.
type Settler interface {
	Settle(ctx context.Context, game int64) (*domain.SettlementResult, error)
}

// SettlementHandler serves the operator-facing settlement trigger.
type SettlementHandler struct {
	settler Settler
}

// NewSettlementHandler creates a SettlementHandler.
func NewSettlementHandler(settler Settler) *SettlementHandler {
	return &SettlementHandler{settler: settler}
}

// Settle godoc
// POST /api/settle
// Body: {"game": <id>}
func (h *SettlementHandler) Settle(c *gin.Context) {
	var body struct {
		Game *int64 `json:"game" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "missing required game field")
		return
	}

	result, err := h.settler.Settle(c.Request.Context(), *body.Game)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			respondError(c, http.StatusConflict, "ERR_ALREADY_SETTLED", err.Error())
		case errors.Is(err, domain.ErrSettlementInProgress):
			respondError(c, http.StatusConflict, "ERR_SETTLEMENT_IN_PROGRESS", err.Error())
		case errors.Is(err, domain.ErrEmptyPot):
			respondError(c, http.StatusInternalServerError, "ERR_EMPTY_POT", err.Error())
		default:
			// Pipeline failures include the failed step and any artifacts in
			// the result so the operator can resume by hand.
			status := http.StatusInternalServerError
			payload := gin.H{
				"success": false,
				"error":   err.Error(),
			}
			if result != nil {
				payload["failed_step"] = result.FailedStep
				if result.VaultAddress != "" {
					payload["vault_address"] = result.VaultAddress
				}
			}
			c.AbortWithStatusJSON(status, payload)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vaultAddress": result.VaultAddress,
		"payoutAmount": result.PayoutAmount,
	})
}
