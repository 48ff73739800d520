// Package automatch runs the charge reconciliation batch: it classifies
// unmatched charges, ranks merge candidates for each, and commits the
// high-confidence unambiguous merges.
package automatch

import (
	"github.com/ledgerline/charge-recon-backend/internal/domain/score"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/config"
)

// Config tunes the merge decision. Scoring parameters are nested so the
// whole engine is configured in one place.
type Config struct {
	// ConfidenceThreshold is the minimum (rounded) overall confidence a
	// top candidate needs before a merge is attempted.
	ConfidenceThreshold float64

	// AmbiguityWindow is the raw-score gap below which a runner-up
	// counts as a near-tie; near-ties skip the charge instead of
	// guessing.
	AmbiguityWindow float64

	// MaxCandidates caps suggestion lists.
	MaxCandidates int

	// Workers bounds the parallel scoring fan-out. Scoring is pure, so
	// independent charges rank concurrently; only the commit phase is
	// serialized.
	Workers int

	Scoring score.Config
}

// DefaultConfig returns the production matching parameters.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.95,
		AmbiguityWindow:     0.02,
		MaxCandidates:       5,
		Workers:             4,
		Scoring:             score.DefaultConfig(),
	}
}

// ConfigFromSettings maps the application configuration onto engine
// parameters.
func ConfigFromSettings(m config.MatchingConfig) Config {
	return Config{
		ConfidenceThreshold: m.ConfidenceThreshold,
		AmbiguityWindow:     m.AmbiguityWindow,
		MaxCandidates:       m.MaxCandidates,
		Workers:             m.Workers,
		Scoring: score.Config{
			AmountTolerance: m.AmountTolerance,
			FeeProportion:   m.FeeProportion,
			FeeCap:          m.FeeCap,
			DateCutoffDays:  m.DateCutoffDays,
			TryBothDates:    m.FlexibleDates(),
		},
	}
}

// Options controls a single reconciliation run.
type Options struct {
	// OwnerID identifies the tenant whose charges are reconciled. It is
	// also the business id documents are resolved against.
	OwnerID string

	// DryRun scores and reports without committing any merge.
	DryRun bool

	// MaxCharges limits how many unmatched charges are considered
	// (0 = all).
	MaxCharges int
}

// MergedCharge reports one charge that was merged away, with the score
// that triggered the merge.
type MergedCharge struct {
	// ChargeID is the donor charge that no longer exists.
	ChargeID string `json:"charge_id"`

	// MergedInto is the surviving charge.
	MergedInto string `json:"merged_into"`

	ConfidenceScore float64          `json:"confidence_score"`
	Components      score.Components `json:"components"`
}

// MatchError reports a charge that could not be processed. The run
// continues past it.
type MatchError struct {
	ChargeID string `json:"charge_id"`
	Message  string `json:"message"`
}

// Result is the terminal artifact of a reconciliation run. Every charge
// considered ends up in exactly one of: merged, skipped, errored, or
// untouched below threshold (implicitly, by absence).
type Result struct {
	TotalMatches   int            `json:"total_matches"`
	MergedCharges  []MergedCharge `json:"merged_charges"`
	SkippedCharges []string       `json:"skipped_charges"`
	Errors         []MatchError   `json:"errors"`
}
