package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// Document is the normalized summary of all documents in one charge,
// resolved relative to the owning business.
type Document struct {
	ChargeID   string
	Amount     decimal.Decimal // signed: outflow negative, inflow positive
	Currency   string          // upper-cased
	BusinessID *string         // counterparty (the side that is not the owner)
	Date       time.Time       // latest document date
	Description string
	Type       charge.DocumentType

	// BusinessIsCreditor reports whether the owner is on the creditor
	// side. For heterogeneous groups it follows the highest-value
	// document, same as Type.
	BusinessIsCreditor bool
}

// Documents aggregates the documents attached to one charge.
// ownerBusinessID identifies the tenant so each document's side can be
// resolved. A document that names the owner on neither side fails
// aggregation instead of silently defaulting a direction.
func Documents(docs []charge.Document, ownerBusinessID string) (*Document, error) {
	if len(docs) == 0 {
		return nil, newError("", "no documents to aggregate")
	}

	chargeID := docs[0].ChargeID
	agg := &Document{
		ChargeID: chargeID,
		Amount:   decimal.Zero,
		Currency: strings.ToUpper(docs[0].Currency),
		Date:     docs[0].Date,
	}

	var descriptions []string
	var topValue decimal.Decimal
	for i, doc := range docs {
		if !strings.EqualFold(doc.Currency, agg.Currency) {
			return nil, newError(chargeID, "mixed currencies in charge: %s vs %s", agg.Currency, strings.ToUpper(doc.Currency))
		}

		ownerIsCreditor, counterparty, err := resolveSide(doc, ownerBusinessID)
		if err != nil {
			return nil, err
		}

		if counterparty != nil {
			if agg.BusinessID != nil && *agg.BusinessID != *counterparty {
				return nil, newError(chargeID, "multiple businesses in charge: %s vs %s", *agg.BusinessID, *counterparty)
			}
			id := *counterparty
			agg.BusinessID = &id
		}

		// Stored amounts are unsigned magnitudes; assign the sign the
		// transaction side uses so the two aggregates compare directly.
		signed := doc.Amount.Abs()
		if !ownerIsCreditor {
			signed = signed.Neg()
		}
		agg.Amount = agg.Amount.Add(signed)

		// Documents are issued at or after settlement, so the latest
		// date is the meaningful one (the opposite of the transaction
		// side's earliest-event rule).
		if doc.Date.After(agg.Date) {
			agg.Date = doc.Date
		}

		// Type and side follow the highest-value document. An
		// approximation for heterogeneous groups, but scoring only
		// needs a representative type.
		if i == 0 || doc.Amount.Abs().GreaterThan(topValue) {
			topValue = doc.Amount.Abs()
			agg.Type = doc.Type
			agg.BusinessIsCreditor = ownerIsCreditor
		}

		if desc := strings.TrimSpace(doc.Description); desc != "" {
			descriptions = append(descriptions, desc)
		}
	}

	agg.Description = strings.Join(descriptions, "; ")

	return agg, nil
}

// resolveSide determines which side of the document the owner is on and
// returns the opposing party.
func resolveSide(doc charge.Document, ownerBusinessID string) (ownerIsCreditor bool, counterparty *string, err error) {
	switch {
	case doc.CreditorID != nil && *doc.CreditorID == ownerBusinessID:
		return true, doc.DebtorID, nil
	case doc.DebtorID != nil && *doc.DebtorID == ownerBusinessID:
		return false, doc.CreditorID, nil
	default:
		return false, nil, newError(doc.ChargeID, "document %s does not involve business %s", doc.ID, ownerBusinessID)
	}
}
