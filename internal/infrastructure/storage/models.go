package storage

import "errors"

// ErrChargeConsumed is returned by MergeCharge when the optimistic
// precondition fails: one of the charges no longer exists or is no
// longer single-sided, meaning another merge consumed it since scoring.
var ErrChargeConsumed = errors.New("charge already consumed by another merge")

// MatchRun is one reconciliation run over an owner's unmatched charges.
type MatchRun struct {
	ID                int64  `json:"id"`
	OwnerID           string `json:"owner_id"`
	StartedAt         string `json:"started_at"`
	CompletedAt       string `json:"completed_at,omitempty"`
	DryRun            bool   `json:"dry_run"`
	ChargesConsidered int    `json:"charges_considered"`
	ChargesMerged     int    `json:"charges_merged"`
	ChargesSkipped    int    `json:"charges_skipped"`
	ChargesErrored    int    `json:"charges_errored"`
	Status            string `json:"status"`
}

// MergeRecord is the audit entry for one merge decision, including the
// component scores that justified it.
type MergeRecord struct {
	ID                int64   `json:"id"`
	RunID             int64   `json:"run_id"`
	SurvivingChargeID string  `json:"surviving_charge_id"`
	DonorChargeID     string  `json:"donor_charge_id"`
	Confidence        float64 `json:"confidence"`
	AmountScore       float64 `json:"amount_score"`
	CurrencyScore     float64 `json:"currency_score"`
	BusinessScore     float64 `json:"business_score"`
	DateScore         float64 `json:"date_score"`
	DryRun            bool    `json:"dry_run"`
	CreatedAt         string  `json:"created_at,omitempty"`
}
