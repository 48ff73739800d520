package score

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// unknownCurrencyScore is deliberately above zero: missing currency is
// common on legacy records and must not eliminate an otherwise strong
// match, but it is far from a confirmation either.
const unknownCurrencyScore = 0.2

// Amount scores how close two amounts are, comparing magnitudes only.
// Exact equality scores 1.0; differences inside the tolerance band
// (flat tolerance plus a capped proportional fee allowance) stay high,
// then the score decays to zero instead of cutting off hard.
func Amount(txAmount, docAmount decimal.Decimal, cfg Config) float64 {
	a, _ := txAmount.Abs().Float64()
	b, _ := docAmount.Abs().Float64()

	diff := math.Abs(a - b)
	if diff == 0 {
		return 1.0
	}

	tolerance := cfg.AmountTolerance + math.Min(cfg.FeeProportion*math.Max(a, b), cfg.FeeCap)
	if tolerance <= 0 {
		return 0.0
	}

	if diff <= tolerance {
		// Inside the band: from 1.0 down to 0.9 at the edge.
		return 1.0 - 0.1*(diff/tolerance)
	}

	// Outside the band: linear decay, hitting zero at five tolerances.
	return math.Max(0, 0.9*(1.0-(diff-tolerance)/(4*tolerance)))
}

// Currency scores currency agreement: 1.0 on a case-insensitive match,
// 0.0 on a mismatch, and a small favorable score when either side is
// unknown. Symmetric in argument order.
func Currency(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if a == "" || b == "" {
		return unknownCurrencyScore
	}
	if strings.EqualFold(a, b) {
		return 1.0
	}
	return 0.0
}

// Business scores counterparty identity. Identity is binary: no partial
// credit. Two unknown counterparties compare equal, the same way the
// legacy records did.
func Business(a, b *string) float64 {
	switch {
	case a == nil && b == nil:
		return 1.0
	case a == nil || b == nil:
		return 0.0
	case *a == *b:
		return 1.0
	default:
		return 0.0
	}
}

// Date scores the gap between two dates: 1.0 at zero days, decaying
// linearly to zero at the cutoff window. Symmetric.
func Date(a, b time.Time, cfg Config) float64 {
	if cfg.DateCutoffDays <= 0 {
		return 0.0
	}

	days := math.Abs(a.Sub(b).Hours() / 24)
	return math.Max(0, 1.0-days/float64(cfg.DateCutoffDays))
}
