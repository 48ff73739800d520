package charge

// Classification labels which sides of a charge are populated.
type Classification string

const (
	// TransactionOnly charges have bank movements but no documents yet.
	TransactionOnly Classification = "TRANSACTION_ONLY"

	// DocumentOnly charges have documents but no bank movements yet.
	DocumentOnly Classification = "DOCUMENT_ONLY"

	// Matched charges have at least one of each and are no longer
	// reconciliation candidates.
	Matched Classification = "MATCHED"

	// Empty charges have neither side. They cannot participate in
	// reconciliation at all.
	Empty Classification = "EMPTY"
)

// Classify labels a charge by its attached record counts.
func Classify(transactionCount, documentCount int) Classification {
	switch {
	case transactionCount > 0 && documentCount > 0:
		return Matched
	case transactionCount > 0:
		return TransactionOnly
	case documentCount > 0:
		return DocumentOnly
	default:
		return Empty
	}
}

// IsCandidate reports whether a charge with this classification can be
// offered to the matching engine.
func (c Classification) IsCandidate() bool {
	return c == TransactionOnly || c == DocumentOnly
}

// Opposite returns the classification a matching counterpart must have.
// Only meaningful for candidate classifications.
func (c Classification) Opposite() Classification {
	switch c {
	case TransactionOnly:
		return DocumentOnly
	case DocumentOnly:
		return TransactionOnly
	default:
		return c
	}
}
