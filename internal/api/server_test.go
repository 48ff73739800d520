package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/charge-recon-backend/internal/api/dto"
	"github.com/ledgerline/charge-recon-backend/internal/application/automatch"
	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

const testOwner = "owner-biz"

func newTestServer(t *testing.T) (*Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	engine := automatch.New(repo, automatch.DefaultConfig(), nil)
	return NewServer(DefaultConfig(), repo, engine, nil), repo
}

// seedPair inserts a transaction-only and a matching document-only
// charge and returns their ids.
func seedPair(t *testing.T, repo *storage.MockRepository) (txCharge, docCharge string) {
	t.Helper()
	ctx := context.Background()
	supplier := "supplier-1"
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	txCharge, err := repo.CreateCharge(ctx, testOwner)
	require.NoError(t, err)
	require.NoError(t, repo.AddTransaction(ctx, charge.Transaction{
		ID:         "tx-1",
		ChargeID:   txCharge,
		Amount:     decimal.NewFromInt(-1000),
		Currency:   "ILS",
		BusinessID: &supplier,
		EventDate:  jan15,
	}))

	docCharge, err = repo.CreateCharge(ctx, testOwner)
	require.NoError(t, err)
	owner := testOwner
	require.NoError(t, repo.AddDocument(ctx, charge.Document{
		ID:         "doc-1",
		ChargeID:   docCharge,
		Type:       charge.DocTypeInvoice,
		Amount:     decimal.NewFromInt(1000),
		Currency:   "ILS",
		Date:       jan15.AddDate(0, 0, 1),
		CreditorID: &supplier,
		DebtorID:   &owner,
	}))
	return txCharge, docCharge
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestAutoMatchEndpoint(t *testing.T) {
	t.Run("merges matching pair", func(t *testing.T) {
		server, repo := newTestServer(t)
		txCharge, docCharge := seedPair(t, repo)

		rec := doRequest(server, http.MethodPost, "/api/v1/automatch",
			dto.AutoMatchRequest{OwnerID: testOwner})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.AutoMatchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.TotalMatches)
		require.Len(t, resp.MergedCharges, 1)
		assert.Equal(t, docCharge, resp.MergedCharges[0].ChargeID)
		assert.Equal(t, txCharge, resp.MergedCharges[0].MergedInto)
		assert.False(t, resp.DryRun)
		assert.True(t, repo.MergeChargeCalled)
	})

	t.Run("dry run does not merge", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedPair(t, repo)

		rec := doRequest(server, http.MethodPost, "/api/v1/automatch",
			dto.AutoMatchRequest{OwnerID: testOwner, DryRun: true})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.AutoMatchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.TotalMatches)
		assert.True(t, resp.DryRun)
		assert.False(t, repo.MergeChargeCalled)
	})

	t.Run("missing owner_id is a validation error", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doRequest(server, http.MethodPost, "/api/v1/automatch", map[string]any{})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
	})
}

func TestMatchesEndpoint(t *testing.T) {
	t.Run("suggests candidates", func(t *testing.T) {
		server, repo := newTestServer(t)
		txCharge, docCharge := seedPair(t, repo)

		rec := doRequest(server, http.MethodGet, "/api/v1/charges/"+txCharge+"/matches", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.MatchListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, txCharge, resp.ChargeID)
		require.Len(t, resp.Matches, 1)
		assert.Equal(t, docCharge, resp.Matches[0].ChargeID)
		assert.GreaterOrEqual(t, resp.Matches[0].Confidence, 0.95)
		assert.False(t, repo.MergeChargeCalled, "suggesting must not merge")
	})

	t.Run("unknown charge is 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doRequest(server, http.MethodGet, "/api/v1/charges/nope/matches", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("matched charge is 400", func(t *testing.T) {
		server, repo := newTestServer(t)
		ctx := context.Background()

		// A charge holding both sides is already reconciled.
		id, err := repo.CreateCharge(ctx, testOwner)
		require.NoError(t, err)
		supplier := "supplier-1"
		owner := testOwner
		require.NoError(t, repo.AddTransaction(ctx, charge.Transaction{
			ID: "tx-m", ChargeID: id, Amount: decimal.NewFromInt(-50),
			Currency: "ILS", BusinessID: &supplier,
			EventDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, repo.AddDocument(ctx, charge.Document{
			ID: "doc-m", ChargeID: id, Type: charge.DocTypeInvoice,
			Amount: decimal.NewFromInt(50), Currency: "ILS",
			Date:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			CreditorID: &supplier, DebtorID: &owner,
		}))

		rec := doRequest(server, http.MethodGet, "/api/v1/charges/"+id+"/matches", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunsEndpoints(t *testing.T) {
	server, repo := newTestServer(t)
	seedPair(t, repo)

	rec := doRequest(server, http.MethodPost, "/api/v1/automatch",
		dto.AutoMatchRequest{OwnerID: testOwner})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("list", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/v1/runs", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.RunListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.TotalCount)
		assert.Equal(t, "completed", resp.Runs[0].Status)
		assert.Equal(t, testOwner, resp.Runs[0].OwnerID)
	})

	t.Run("get with merge records", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/v1/runs/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.RunDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Run.ID)
		assert.Equal(t, 1, resp.Run.ChargesMerged)
		require.Len(t, resp.Merges, 1)
		assert.Equal(t, resp.Merges[0].RunID, int64(1))
	})

	t.Run("unknown run is 404", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/v1/runs/999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad run id is 400", func(t *testing.T) {
		rec := doRequest(server, http.MethodGet, "/api/v1/runs/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
