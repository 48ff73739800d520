package match

import (
	"github.com/ledgerline/charge-recon-backend/internal/domain/aggregate"
	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
	"github.com/ledgerline/charge-recon-backend/internal/domain/score"
)

// Scorer produces a MatchScore for one (transaction-charge,
// document-charge) pair. It is pure: no I/O, no shared state, safe to
// call concurrently.
type Scorer struct {
	cfg score.Config
}

// NewScorer creates a scorer with the given scoring parameters.
func NewScorer(cfg score.Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score aggregates both sides and computes the combined confidence.
// Aggregation failures propagate as *aggregate.Error; the caller is
// responsible for catching them per charge.
func (s *Scorer) Score(txs []charge.Transaction, docs []charge.Document, ownerBusinessID string) (*MatchScore, error) {
	aggTx, err := aggregate.Transactions(txs)
	if err != nil {
		return nil, err
	}
	aggDoc, err := aggregate.Documents(docs, ownerBusinessID)
	if err != nil {
		return nil, err
	}
	return s.ScoreAggregates(aggTx, aggDoc), nil
}

// ScoreAggregates scores a pre-aggregated pair. The document type picks
// which transaction date(s) to compare; for flexible types both
// candidate dates are tried and the higher overall confidence kept.
func (s *Scorer) ScoreAggregates(aggTx *aggregate.Transaction, aggDoc *aggregate.Document) *MatchScore {
	base := score.Components{
		Amount:   score.Amount(aggTx.Amount, aggDoc.Amount, s.cfg),
		Currency: score.Currency(aggTx.Currency, aggDoc.Currency),
		Business: score.Business(aggTx.BusinessID, aggDoc.BusinessID),
	}

	var best *MatchScore
	for _, txDate := range score.CandidateDates(aggDoc.Type, aggTx, s.cfg) {
		components := base
		components.Date = score.Date(txDate, aggDoc.Date, s.cfg)

		overall, raw := score.Combine(components)
		if best == nil || raw > best.RawConfidence {
			best = &MatchScore{
				ChargeID:      aggDoc.ChargeID,
				Confidence:    overall,
				RawConfidence: raw,
				Components:    components,
			}
		}
	}
	return best
}
