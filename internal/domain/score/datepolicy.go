package score

import (
	"time"

	"github.com/ledgerline/charge-recon-backend/internal/domain/aggregate"
	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// DateAnchor names which transaction date a document type is compared
// against.
type DateAnchor int

const (
	// AnchorEvent compares against the transaction event date. Invoices
	// are dated at issuance; settlement can lag behind.
	AnchorEvent DateAnchor = iota

	// AnchorDebit compares against the debit (settlement) date when the
	// bank reported one, else the event date. A receipt means payment
	// already cleared, so settlement is the meaningful anchor.
	AnchorDebit

	// AnchorFlexible means the type gives no hint. Both dates are
	// scored and the better overall result kept (when TryBothDates is
	// set), else the event date alone.
	AnchorFlexible
)

var anchorByDocType = map[charge.DocumentType]DateAnchor{
	charge.DocTypeInvoice:        AnchorEvent,
	charge.DocTypeCreditInvoice:  AnchorEvent,
	charge.DocTypeReceipt:        AnchorDebit,
	charge.DocTypeInvoiceReceipt: AnchorDebit,
	charge.DocTypeProforma:       AnchorFlexible,
	charge.DocTypeOther:          AnchorFlexible,
	charge.DocTypeUnprocessed:    AnchorFlexible,
}

// AnchorFor returns the date anchor for a document type. Unknown types
// are treated as flexible.
func AnchorFor(t charge.DocumentType) DateAnchor {
	if anchor, ok := anchorByDocType[t]; ok {
		return anchor
	}
	return AnchorFlexible
}

// CandidateDates returns the transaction dates worth scoring against a
// document of the given type, best-guess first. More than one entry is
// returned only for flexible types with TryBothDates enabled.
func CandidateDates(docType charge.DocumentType, tx *aggregate.Transaction, cfg Config) []time.Time {
	switch AnchorFor(docType) {
	case AnchorDebit:
		if tx.DebitDate != nil {
			return []time.Time{*tx.DebitDate}
		}
		return []time.Time{tx.Date}
	case AnchorFlexible:
		if cfg.TryBothDates && tx.DebitDate != nil && !tx.DebitDate.Equal(tx.Date) {
			return []time.Time{tx.Date, *tx.DebitDate}
		}
		return []time.Time{tx.Date}
	default:
		return []time.Time{tx.Date}
	}
}
