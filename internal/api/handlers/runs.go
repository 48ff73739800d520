package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/charge-recon-backend/internal/api/dto"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

// RunsHandler serves the historical run audit trail.
type RunsHandler struct {
	repo   storage.MatchRunRepository
	logger *slog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.MatchRunRepository, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunsHandler{repo: repo, logger: logger}
}

// List handles GET /api/v1/runs.
func (h *RunsHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	runs, err := h.repo.ListMatchRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Listing runs failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if runs == nil {
		runs = []storage.MatchRun{}
	}

	c.JSON(http.StatusOK, dto.RunListResponse{Runs: runs, TotalCount: len(runs)})
}

// Get handles GET /api/v1/runs/:id.
func (h *RunsHandler) Get(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("run id must be an integer"))
		return
	}

	run, err := h.repo.GetMatchRun(c.Request.Context(), runID)
	if err != nil {
		h.logger.Error("Loading run failed", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
		return
	}

	merges, err := h.repo.ListMergeRecords(c.Request.Context(), runID)
	if err != nil {
		h.logger.Error("Loading merge records failed", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if merges == nil {
		merges = []storage.MergeRecord{}
	}

	c.JSON(http.StatusOK, dto.RunDetailResponse{Run: *run, Merges: merges})
}
