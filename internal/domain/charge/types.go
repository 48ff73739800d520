// Package charge defines the core bookkeeping records the reconciliation
// engine operates on: bank transactions, accounting documents, and the
// charge container that owns them.
package charge

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType enumerates the accounting document kinds.
type DocumentType string

const (
	DocTypeInvoice        DocumentType = "INVOICE"
	DocTypeCreditInvoice  DocumentType = "CREDIT_INVOICE"
	DocTypeReceipt        DocumentType = "RECEIPT"
	DocTypeInvoiceReceipt DocumentType = "INVOICE_RECEIPT"
	DocTypeProforma       DocumentType = "PROFORMA"
	DocTypeOther          DocumentType = "OTHER"
	DocTypeUnprocessed    DocumentType = "UNPROCESSED"
)

// Transaction is a single bank/ledger movement attached to a charge.
// Amounts are signed: outflows negative, inflows positive.
type Transaction struct {
	ID          string
	ChargeID    string
	Amount      decimal.Decimal
	Currency    string
	BusinessID  *string // counterparty, may be unknown for legacy rows
	EventDate   time.Time
	DebitDate   *time.Time // settlement date, when the bank reported one
	Description string
}

// Document is an accounting document attached to a charge.
// The stored amount is an unsigned magnitude; direction is derived from
// which side (creditor or debtor) is the owning business.
type Document struct {
	ID          string
	ChargeID    string
	Type        DocumentType
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	CreditorID  *string
	DebtorID    *string
	Description string
}

// Charge is the economic-event container. It carries only identity and
// ownership; its transactions and documents are loaded separately.
type Charge struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
}
