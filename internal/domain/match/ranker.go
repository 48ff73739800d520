package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/ledgerline/charge-recon-backend/internal/domain/aggregate"
	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// DefaultMaxCandidates caps how many suggestions a ranking returns.
const DefaultMaxCandidates = 5

// Ranker scores one unmatched charge against every unmatched charge of
// the opposite classification and returns the top candidates, ordered
// by confidence.
type Ranker struct {
	scorer *Scorer
	loader RecordLoader
	limit  int
}

// NewRanker creates a ranker. limit <= 0 falls back to
// DefaultMaxCandidates.
func NewRanker(scorer *Scorer, loader RecordLoader, limit int) *Ranker {
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	return &Ranker{scorer: scorer, loader: loader, limit: limit}
}

// Rank scores base against all opposite-side candidates and returns at
// most the configured number of results, sorted descending by
// confidence. Ties break on the unrounded score, then on candidate
// charge id, so identical input always yields identical output.
//
// The base charge is aggregated first; its aggregation failure fails
// the whole ranking. A candidate that fails aggregation is dropped
// here — it surfaces as its own error when that charge is processed.
func (r *Ranker) Rank(ctx context.Context, base Candidate, candidates []Candidate, ownerBusinessID string) ([]MatchScore, error) {
	if !base.Classification.IsCandidate() {
		return nil, fmt.Errorf("charge %s is not a reconciliation candidate (%s)", base.ChargeID, base.Classification)
	}

	var baseTx *aggregate.Transaction
	var baseDoc *aggregate.Document
	switch base.Classification {
	case charge.TransactionOnly:
		txs, err := r.loader.LoadTransactionsByCharge(ctx, base.ChargeID)
		if err != nil {
			return nil, fmt.Errorf("loading transactions for charge %s: %w", base.ChargeID, err)
		}
		if baseTx, err = aggregate.Transactions(txs); err != nil {
			return nil, err
		}
	case charge.DocumentOnly:
		docs, err := r.loader.LoadDocumentsByCharge(ctx, base.ChargeID)
		if err != nil {
			return nil, fmt.Errorf("loading documents for charge %s: %w", base.ChargeID, err)
		}
		if baseDoc, err = aggregate.Documents(docs, ownerBusinessID); err != nil {
			return nil, err
		}
	}

	opposite := base.Classification.Opposite()

	var scores []MatchScore
	for _, cand := range candidates {
		if cand.Classification != opposite || cand.ChargeID == base.ChargeID {
			continue
		}

		aggTx, aggDoc := baseTx, baseDoc
		switch cand.Classification {
		case charge.TransactionOnly:
			txs, err := r.loader.LoadTransactionsByCharge(ctx, cand.ChargeID)
			if err != nil {
				return nil, fmt.Errorf("loading transactions for charge %s: %w", cand.ChargeID, err)
			}
			if aggTx, err = aggregate.Transactions(txs); err != nil {
				continue
			}
		case charge.DocumentOnly:
			docs, err := r.loader.LoadDocumentsByCharge(ctx, cand.ChargeID)
			if err != nil {
				return nil, fmt.Errorf("loading documents for charge %s: %w", cand.ChargeID, err)
			}
			if aggDoc, err = aggregate.Documents(docs, ownerBusinessID); err != nil {
				continue
			}
		}

		ms := r.scorer.ScoreAggregates(aggTx, aggDoc)
		ms.ChargeID = cand.ChargeID
		scores = append(scores, *ms)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].RawConfidence != scores[j].RawConfidence {
			return scores[i].RawConfidence > scores[j].RawConfidence
		}
		return scores[i].ChargeID < scores[j].ChargeID
	})

	if len(scores) > r.limit {
		scores = scores[:r.limit]
	}
	return scores, nil
}
