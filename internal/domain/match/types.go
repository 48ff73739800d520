// Package match scores candidate charge pairs. The Scorer compares one
// transaction-only charge against one document-only charge; the Ranker
// runs the Scorer across every opposite-side candidate and returns the
// best few.
package match

import (
	"context"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
	"github.com/ledgerline/charge-recon-backend/internal/domain/score"
)

// MatchScore is the scored comparison against one candidate charge.
type MatchScore struct {
	// ChargeID identifies the candidate charge.
	ChargeID string `json:"charge_id"`

	// Confidence is the overall score rounded to two decimals; this is
	// what threshold checks and users see.
	Confidence float64 `json:"confidence"`

	// RawConfidence is the unrounded weighted sum, kept for
	// deterministic tie-breaking.
	RawConfidence float64 `json:"-"`

	// Components is the per-factor breakdown, for audit and debugging
	// only; the merge decision never inspects it.
	Components score.Components `json:"components"`
}

// Candidate pairs a charge id with its classification, as reported by
// the unmatched-charge query.
type Candidate struct {
	ChargeID       string
	Classification charge.Classification
}

// RecordLoader loads the raw records of a charge. Implementations batch
// one query per charge id.
type RecordLoader interface {
	LoadTransactionsByCharge(ctx context.Context, chargeID string) ([]charge.Transaction, error)
	LoadDocumentsByCharge(ctx context.Context, chargeID string) ([]charge.Document, error)
}
