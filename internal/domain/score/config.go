// Package score computes the per-factor confidence scores that decide
// whether a transaction-only and a document-only charge describe the
// same real-world event, and combines them into one overall confidence.
package score

// Config tunes the fuzzy scorers. Defaults mirror what the matching UI
// documents to users (e.g. "+30 tolerance for amounts over 3000").
type Config struct {
	// AmountTolerance is the flat tolerance in currency units that any
	// pair of amounts may differ by and still score high.
	AmountTolerance float64 `yaml:"amount_tolerance"`

	// FeeProportion and FeeCap model issuer fees added on top of the
	// documented amount: proportional, capped in absolute units.
	FeeProportion float64 `yaml:"fee_proportion"`
	FeeCap        float64 `yaml:"fee_cap"`

	// DateCutoffDays is the gap at which the date score reaches zero.
	// Clearing delays between document issuance and bank settlement
	// rarely exceed two months.
	DateCutoffDays int `yaml:"date_cutoff_days"`

	// TryBothDates controls scoring for flexible document types
	// (OTHER, PROFORMA, UNPROCESSED): when set, both the event date and
	// the debit date are scored and the better overall result is kept.
	TryBothDates bool `yaml:"try_both_dates"`
}

// DefaultConfig returns the production scoring parameters.
func DefaultConfig() Config {
	return Config{
		AmountTolerance: 5.0,
		FeeProportion:   0.01,
		FeeCap:          30.0,
		DateCutoffDays:  60,
		TryBothDates:    true,
	}
}
