package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendarcade/squadgames/internal/domain"
)

// ActionJoiner builds the unsigned deposit transaction for a joining player.
type ActionJoiner interface {
	Join(ctx context.Context, account, handle string) (*domain.ActionResponse, error)
}

// ActionHandler serves the deposit action endpoint consumed by wallet clients.
// The wire contract follows the Actions convention: plain-text 400s, a JSON
// message body on 403, and the transaction payload at the top level.
type ActionHandler struct {
	actions ActionJoiner
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(actions ActionJoiner) *ActionHandler {
	return &ActionHandler{actions: actions}
}

// Join godoc
// POST /api/actions/game?x=<handle>
// Body: {"account":"<base58 address>"}
func (h *ActionHandler) Join(c *gin.Context) {
	var body struct {
		Account string `json:"account"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	handle := c.Query("x")
	if handle == "" {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	resp, err := h.actions.Join(c.Request.Context(), body.Account, handle)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAccount):
			c.String(http.StatusBadRequest, "Invalid account provided")
		case errors.Is(err, domain.ErrMissingHandle):
			c.String(http.StatusBadRequest, "Missing required parameters")
		case errors.Is(err, domain.ErrDuplicateDeposit):
			c.JSON(http.StatusForbidden, gin.H{"message": "You are already in the game!"})
		default:
			c.String(http.StatusInternalServerError, "An unknown error occured")
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}
