package score

import "math"

// Fixed combination weights. Amount is the strongest discriminator,
// counterparty identity second; currency is a coarse gate and date the
// weakest signal because settlement lag varies widely.
const (
	weightAmount   = 0.4
	weightCurrency = 0.2
	weightBusiness = 0.3
	weightDate     = 0.1
)

// Components holds the four independent per-factor scores, each in [0,1].
// They travel with every match result for explainability.
type Components struct {
	Amount   float64 `json:"amount"`
	Currency float64 `json:"currency"`
	Business float64 `json:"business"`
	Date     float64 `json:"date"`
}

// Combine produces the overall confidence from the component scores.
// raw is the exact weighted sum, kept for deterministic tie-breaking;
// overall is raw rounded to two decimals for presentation and threshold
// comparison.
func Combine(c Components) (overall, raw float64) {
	raw = c.Amount*weightAmount +
		c.Currency*weightCurrency +
		c.Business*weightBusiness +
		c.Date*weightDate
	overall = math.Round(raw*100) / 100
	return overall, raw
}
