package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/charge-recon-backend/internal/api/dto"
	"github.com/ledgerline/charge-recon-backend/internal/application/automatch"
	"github.com/ledgerline/charge-recon-backend/internal/domain/match"
)

// MatchesHandler serves read-only match suggestions for single charges.
type MatchesHandler struct {
	engine *automatch.Engine
	logger *slog.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(engine *automatch.Engine, logger *slog.Logger) *MatchesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchesHandler{engine: engine, logger: logger}
}

// Suggest handles GET /api/v1/charges/:id/matches.
func (h *MatchesHandler) Suggest(c *gin.Context) {
	chargeID := c.Param("id")

	matches, err := h.engine.Suggest(c.Request.Context(), chargeID)
	switch {
	case errors.Is(err, automatch.ErrChargeNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("charge"))
		return
	case errors.Is(err, automatch.ErrChargeNotViable):
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	case err != nil:
		h.logger.Error("Suggesting matches failed", "charge_id", chargeID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	if matches == nil {
		matches = []match.MatchScore{}
	}
	c.JSON(http.StatusOK, dto.MatchListResponse{ChargeID: chargeID, Matches: matches})
}
