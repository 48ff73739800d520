package dto

import (
	"time"

	"github.com/ledgerline/charge-recon-backend/internal/application/automatch"
	"github.com/ledgerline/charge-recon-backend/internal/domain/match"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// AutoMatchResponse is the outcome of one reconciliation run.
type AutoMatchResponse struct {
	TotalMatches   int                      `json:"total_matches"`
	MergedCharges  []automatch.MergedCharge `json:"merged_charges"`
	SkippedCharges []string                 `json:"skipped_charges"`
	Errors         []automatch.MatchError   `json:"errors"`
	DryRun         bool                     `json:"dry_run"`
}

// NewAutoMatchResponse wraps an engine result for the wire.
func NewAutoMatchResponse(result *automatch.Result, dryRun bool) AutoMatchResponse {
	return AutoMatchResponse{
		TotalMatches:   result.TotalMatches,
		MergedCharges:  result.MergedCharges,
		SkippedCharges: result.SkippedCharges,
		Errors:         result.Errors,
		DryRun:         dryRun,
	}
}

// MatchListResponse lists suggested candidates for one charge.
type MatchListResponse struct {
	ChargeID string             `json:"charge_id"`
	Matches  []match.MatchScore `json:"matches"`
}

// RunListResponse is returned when listing reconciliation runs.
type RunListResponse struct {
	Runs       []storage.MatchRun `json:"runs"`
	TotalCount int                `json:"total_count"`
}

// RunDetailResponse is one run with its merge audit trail.
type RunDetailResponse struct {
	Run    storage.MatchRun      `json:"run"`
	Merges []storage.MergeRecord `json:"merges"`
}
