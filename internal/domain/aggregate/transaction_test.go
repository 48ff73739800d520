package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func makeTx(chargeID string, amount float64, currency string, businessID *string, eventDate time.Time) charge.Transaction {
	return charge.Transaction{
		ID:         "tx-" + chargeID,
		ChargeID:   chargeID,
		Amount:     decimal.NewFromFloat(amount),
		Currency:   currency,
		BusinessID: businessID,
		EventDate:  eventDate,
	}
}

func TestTransactions_SumsAndEarliestDate(t *testing.T) {
	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	jan12 := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	txs := []charge.Transaction{
		makeTx("c1", -100.50, "USD", strPtr("biz-1"), jan12),
		makeTx("c1", -49.50, "USD", nil, jan10),
	}
	txs[0].Description = "wire out"
	txs[1].Description = "fee"

	agg, err := Transactions(txs)
	require.NoError(t, err)

	assert.True(t, agg.Amount.Equal(decimal.NewFromFloat(-150.0)), "got %s", agg.Amount)
	assert.Equal(t, "USD", agg.Currency)
	require.NotNil(t, agg.BusinessID)
	assert.Equal(t, "biz-1", *agg.BusinessID)
	assert.Equal(t, jan10, agg.Date)
	assert.Nil(t, agg.DebitDate)
	assert.Equal(t, "wire out; fee", agg.Description)
}

func TestTransactions_CurrencyCaseInsensitive(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []charge.Transaction{
		makeTx("c1", 10, "USD", nil, jan),
		makeTx("c1", 20, "usd", nil, jan),
	}

	agg, err := Transactions(txs)
	require.NoError(t, err)
	assert.Equal(t, "USD", agg.Currency)
	assert.True(t, agg.Amount.Equal(decimal.NewFromInt(30)))
}

func TestTransactions_MixedCurrenciesFail(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []charge.Transaction{
		makeTx("c1", 10, "USD", nil, jan),
		makeTx("c1", 20, "EUR", nil, jan),
	}

	_, err := Transactions(txs)
	require.Error(t, err)

	var aggErr *Error
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "c1", aggErr.ChargeID)
	assert.Contains(t, aggErr.Reason, "mixed currencies")
}

func TestTransactions_MultipleBusinessesFail(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []charge.Transaction{
		makeTx("c1", 10, "USD", strPtr("biz-1"), jan),
		makeTx("c1", 20, "USD", strPtr("biz-2"), jan),
	}

	_, err := Transactions(txs)
	require.Error(t, err)

	var aggErr *Error
	require.ErrorAs(t, err, &aggErr)
	assert.Contains(t, aggErr.Reason, "multiple businesses")
}

func TestTransactions_EarliestDebitDate(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb3 := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	txs := []charge.Transaction{
		makeTx("c1", 10, "ILS", nil, jan),
		makeTx("c1", 20, "ILS", nil, jan),
	}
	txs[0].DebitDate = timePtr(feb3)
	txs[1].DebitDate = timePtr(feb1)

	agg, err := Transactions(txs)
	require.NoError(t, err)
	require.NotNil(t, agg.DebitDate)
	assert.Equal(t, feb1, *agg.DebitDate)
}

func TestTransactions_Empty(t *testing.T) {
	_, err := Transactions(nil)
	require.Error(t, err)
}
