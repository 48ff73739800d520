// Package aggregate collapses the N transactions or N documents attached
// to one charge into a single normalized summary that the confidence
// scorers can compare. Summaries are ephemeral: computed per matching
// attempt, never persisted.
package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// Transaction is the normalized summary of all transactions in one charge.
type Transaction struct {
	ChargeID    string
	Amount      decimal.Decimal // signed sum
	Currency    string          // upper-cased
	BusinessID  *string         // single counterparty, nil when unknown
	Date        time.Time       // earliest event date
	DebitDate   *time.Time      // earliest settlement date, nil when none reported
	Description string
}

// Transactions aggregates the transactions attached to one charge.
//
// A single economic event cannot legitimately mix currencies or
// counterparties; divergence signals a data error and fails aggregation
// rather than being silently summed.
func Transactions(txs []charge.Transaction) (*Transaction, error) {
	if len(txs) == 0 {
		return nil, newError("", "no transactions to aggregate")
	}

	chargeID := txs[0].ChargeID
	agg := &Transaction{
		ChargeID: chargeID,
		Amount:   decimal.Zero,
		Currency: strings.ToUpper(txs[0].Currency),
		Date:     txs[0].EventDate,
	}

	var descriptions []string
	for _, tx := range txs {
		if !strings.EqualFold(tx.Currency, agg.Currency) {
			return nil, newError(chargeID, "mixed currencies in charge: %s vs %s", agg.Currency, strings.ToUpper(tx.Currency))
		}

		if tx.BusinessID != nil {
			if agg.BusinessID != nil && *agg.BusinessID != *tx.BusinessID {
				return nil, newError(chargeID, "multiple businesses in charge: %s vs %s", *agg.BusinessID, *tx.BusinessID)
			}
			id := *tx.BusinessID
			agg.BusinessID = &id
		}

		agg.Amount = agg.Amount.Add(tx.Amount)

		// Earliest event wins: it marks when the obligation arose.
		if tx.EventDate.Before(agg.Date) {
			agg.Date = tx.EventDate
		}
		if tx.DebitDate != nil {
			if agg.DebitDate == nil || tx.DebitDate.Before(*agg.DebitDate) {
				d := *tx.DebitDate
				agg.DebitDate = &d
			}
		}

		if desc := strings.TrimSpace(tx.Description); desc != "" {
			descriptions = append(descriptions, desc)
		}
	}

	// Diagnostics only, never scored.
	agg.Description = strings.Join(descriptions, "; ")

	return agg, nil
}
