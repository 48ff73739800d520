package automatch

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

const ownerID = "owner-biz"

func strPtr(s string) *string { return &s }

// newTxCharge creates a transaction-only charge and returns its id.
func newTxCharge(t *testing.T, repo *storage.MockRepository, amount float64, currency, businessID string, date time.Time) string {
	t.Helper()
	ctx := context.Background()
	id, err := repo.CreateCharge(ctx, ownerID)
	require.NoError(t, err)
	err = repo.AddTransaction(ctx, charge.Transaction{
		ID:         "tx-" + id,
		ChargeID:   id,
		Amount:     decimal.NewFromFloat(-amount),
		Currency:   currency,
		BusinessID: strPtr(businessID),
		EventDate:  date,
	})
	require.NoError(t, err)
	return id
}

// newDocCharge creates a document-only charge (owner as debtor) and
// returns its id.
func newDocCharge(t *testing.T, repo *storage.MockRepository, amount float64, currency, businessID string, date time.Time) string {
	t.Helper()
	ctx := context.Background()
	id, err := repo.CreateCharge(ctx, ownerID)
	require.NoError(t, err)
	err = repo.AddDocument(ctx, charge.Document{
		ID:         "doc-" + id,
		ChargeID:   id,
		Type:       charge.DocTypeInvoice,
		Amount:     decimal.NewFromFloat(amount),
		Currency:   currency,
		Date:       date,
		CreditorID: strPtr(businessID),
		DebtorID:   strPtr(ownerID),
	})
	require.NoError(t, err)
	return id
}

func TestEngine_MergesHighConfidencePair(t *testing.T) {
	repo := storage.NewMockRepository()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan16 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	txCharge := newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	docCharge := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan16)

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(context.Background(), Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalMatches)
	require.Len(t, result.MergedCharges, 1)
	assert.Equal(t, docCharge, result.MergedCharges[0].ChargeID)
	assert.Equal(t, txCharge, result.MergedCharges[0].MergedInto)
	assert.GreaterOrEqual(t, result.MergedCharges[0].ConfidenceScore, 0.95)
	assert.Empty(t, result.SkippedCharges)
	assert.Empty(t, result.Errors)

	// The donor is gone and the surviving charge is matched.
	gone, err := repo.GetCharge(context.Background(), docCharge)
	require.NoError(t, err)
	assert.Nil(t, gone)

	unmatched, err := repo.LoadUnmatchedCharges(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Empty(t, unmatched)
}

func TestEngine_SkipsNearTie(t *testing.T) {
	repo := storage.NewMockRepository()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Two indistinguishable document charges compete for one
	// transaction charge. Nothing may merge: the transaction charge is
	// a near-tie, and each document charge's only candidate is
	// contested.
	txCharge := newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	doc1 := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	doc2 := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan15)

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(context.Background(), Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalMatches)
	assert.Empty(t, result.MergedCharges)
	assert.Contains(t, result.SkippedCharges, txCharge)
	assert.Contains(t, result.SkippedCharges, doc1)
	assert.Contains(t, result.SkippedCharges, doc2)
	assert.False(t, repo.MergeChargeCalled)
}

func TestEngine_BelowThresholdUntouched(t *testing.T) {
	repo := storage.NewMockRepository()
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan)
	// Wrong counterparty: business score 0 caps confidence at 0.7.
	newDocCharge(t, repo, 1000, "ILS", "supplier-2", jan)

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(context.Background(), Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalMatches)
	assert.Empty(t, result.MergedCharges)
	assert.Empty(t, result.SkippedCharges)
	assert.Empty(t, result.Errors)
}

func TestEngine_MixedBusinessesRecordedAsError(t *testing.T) {
	repo := storage.NewMockRepository()
	ctx := context.Background()
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	badCharge := newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan)
	require.NoError(t, repo.AddTransaction(ctx, charge.Transaction{
		ID:         "tx-extra",
		ChargeID:   badCharge,
		Amount:     decimal.NewFromInt(-50),
		Currency:   "ILS",
		BusinessID: strPtr("supplier-2"),
		EventDate:  jan,
	}))
	newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan)

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(ctx, Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.Empty(t, result.MergedCharges)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, badCharge, result.Errors[0].ChargeID)
	assert.Contains(t, result.Errors[0].Message, "multiple businesses")
}

func TestEngine_MixedCurrenciesRecordedAsError(t *testing.T) {
	repo := storage.NewMockRepository()
	ctx := context.Background()
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	badCharge := newTxCharge(t, repo, 1000, "USD", "supplier-1", jan)
	require.NoError(t, repo.AddTransaction(ctx, charge.Transaction{
		ID:        "tx-extra",
		ChargeID:  badCharge,
		Amount:    decimal.NewFromInt(-50),
		Currency:  "EUR",
		EventDate: jan,
	}))

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(ctx, Options{OwnerID: ownerID})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "mixed currencies")
}

func TestEngine_DryRunCommitsNothing(t *testing.T) {
	repo := storage.NewMockRepository()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan16 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	docCharge := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan16)

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(context.Background(), Options{OwnerID: ownerID, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalMatches)
	require.Len(t, result.MergedCharges, 1)
	assert.Equal(t, docCharge, result.MergedCharges[0].ChargeID)
	assert.False(t, repo.MergeChargeCalled, "dry run must not touch the store")

	// Both charges still exist.
	unmatched, err := repo.LoadUnmatchedCharges(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, unmatched, 2)
}

func TestEngine_PersistenceErrorRecorded(t *testing.T) {
	repo := storage.NewMockRepository()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	txCharge := newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	docCharge := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	repo.MergeChargeErr = assert.AnError

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(context.Background(), Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalMatches)
	assert.Empty(t, result.MergedCharges)
	assert.Empty(t, result.SkippedCharges)
	// Neither charge was consumed, so each attempted (and failed) its
	// own merge in turn.
	require.Len(t, result.Errors, 2)
	assert.Equal(t, txCharge, result.Errors[0].ChargeID)
	assert.Equal(t, docCharge, result.Errors[1].ChargeID)
}

func TestEngine_ConsumedChargesNotReused(t *testing.T) {
	repo := storage.NewMockRepository()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Two transaction charges both point at the same single document
	// charge. The second is a clearly worse match, so the first claims
	// the document and the second finds nothing left.
	tx1 := newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	tx2 := newTxCharge(t, repo, 900, "ILS", "supplier-1", jan15)
	doc := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan15)

	engine := New(repo, DefaultConfig(), nil)
	result, err := engine.Run(context.Background(), Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalMatches)
	require.Len(t, result.MergedCharges, 1)
	assert.Equal(t, tx1, result.MergedCharges[0].MergedInto)
	assert.Equal(t, doc, result.MergedCharges[0].ChargeID)
	require.Len(t, repo.MergedPairs, 1, "the second transaction charge must not attempt a merge")

	// tx2 is left unmatched, not skipped and not errored.
	assert.NotContains(t, result.SkippedCharges, tx2)
	assert.Empty(t, result.Errors)
}

func TestEngine_RunAccounting(t *testing.T) {
	repo := storage.NewMockRepository()
	ctx := context.Background()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan16 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan16)

	engine := New(repo, DefaultConfig(), nil)
	_, err := engine.Run(ctx, Options{OwnerID: ownerID})
	require.NoError(t, err)

	assert.True(t, repo.StartRunCalled)
	assert.True(t, repo.CompleteRunCalled)
	assert.True(t, repo.SaveMergeCalled)

	run, err := repo.GetMatchRun(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, 2, run.ChargesConsidered)
	assert.Equal(t, 1, run.ChargesMerged)
}

func TestEngine_Suggest(t *testing.T) {
	repo := storage.NewMockRepository()
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	txCharge := newTxCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	best := newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan15)
	newDocCharge(t, repo, 900, "ILS", "supplier-1", jan15)
	for i := 0; i < 6; i++ {
		newDocCharge(t, repo, 1000, "ILS", "supplier-1", jan15.AddDate(0, 0, i+2))
	}

	engine := New(repo, DefaultConfig(), nil)
	matches, err := engine.Suggest(context.Background(), txCharge)
	require.NoError(t, err)

	require.LessOrEqual(t, len(matches), 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, best, matches[0].ChargeID)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}

	// Nothing was merged by suggesting.
	assert.False(t, repo.MergeChargeCalled)
}

func TestEngine_SuggestUnknownCharge(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := New(repo, DefaultConfig(), nil)

	_, err := engine.Suggest(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
