package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/charge-recon-backend/internal/api/dto"
	"github.com/ledgerline/charge-recon-backend/internal/application/automatch"
)

// AutoMatchHandler runs reconciliation on request.
type AutoMatchHandler struct {
	engine *automatch.Engine
	logger *slog.Logger
}

// NewAutoMatchHandler creates a new automatch handler.
func NewAutoMatchHandler(engine *automatch.Engine, logger *slog.Logger) *AutoMatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoMatchHandler{engine: engine, logger: logger}
}

// Run handles POST /api/v1/automatch.
func (h *AutoMatchHandler) Run(c *gin.Context) {
	var req dto.AutoMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError("owner_id is required"))
		return
	}
	if req.MaxCharges < 0 {
		c.JSON(http.StatusBadRequest, dto.ValidationError("max_charges must not be negative"))
		return
	}

	result, err := h.engine.Run(c.Request.Context(), automatch.Options{
		OwnerID:    req.OwnerID,
		DryRun:     req.DryRun,
		MaxCharges: req.MaxCharges,
	})
	if err != nil {
		h.logger.Error("Reconciliation run failed", "owner_id", req.OwnerID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.NewAutoMatchResponse(result, req.DryRun))
}
