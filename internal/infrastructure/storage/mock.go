package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// MockRepository is an in-memory implementation of Repository for
// testing. All data lives in maps, making tests fast and isolated.
type MockRepository struct {
	mu sync.Mutex

	charges      map[string]*charge.Charge
	transactions map[string][]charge.Transaction // keyed by charge id
	documents    map[string][]charge.Document    // keyed by charge id
	runs         map[int64]*MatchRun
	mergeRecords []MergeRecord
	nextChargeID int
	nextRunID    int64

	// Hooks for test assertions
	MergeChargeCalled bool
	MergedPairs       [][2]string // {surviving, donor}
	SaveMergeCalled   bool
	StartRunCalled    bool
	CompleteRunCalled bool

	// Error injection for testing error paths
	LoadTransactionsErr error
	LoadDocumentsErr    error
	LoadUnmatchedErr    error
	MergeChargeErr      error
	StartRunErr         error
	SaveMergeErr        error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		charges:      make(map[string]*charge.Charge),
		transactions: make(map[string][]charge.Transaction),
		documents:    make(map[string][]charge.Document),
		runs:         make(map[int64]*MatchRun),
		nextChargeID: 1,
		nextRunID:    1,
	}
}

// Close is a no-op for the mock.
func (m *MockRepository) Close() error { return nil }

// CreateCharge creates a charge with a predictable sequential id so
// tests can rely on processing order.
func (m *MockRepository) CreateCharge(_ context.Context, ownerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("charge-%03d", m.nextChargeID)
	m.nextChargeID++
	m.charges[id] = &charge.Charge{ID: id, OwnerID: ownerID, CreatedAt: time.Now()}
	return id, nil
}

func (m *MockRepository) GetCharge(_ context.Context, chargeID string) (*charge.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.charges[chargeID], nil
}

func (m *MockRepository) AddTransaction(_ context.Context, tx charge.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ChargeID] = append(m.transactions[tx.ChargeID], tx)
	return nil
}

func (m *MockRepository) AddDocument(_ context.Context, doc charge.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ChargeID] = append(m.documents[doc.ChargeID], doc)
	return nil
}

func (m *MockRepository) LoadTransactionsByCharge(_ context.Context, chargeID string) ([]charge.Transaction, error) {
	if m.LoadTransactionsErr != nil {
		return nil, m.LoadTransactionsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions[chargeID], nil
}

func (m *MockRepository) LoadDocumentsByCharge(_ context.Context, chargeID string) ([]charge.Document, error) {
	if m.LoadDocumentsErr != nil {
		return nil, m.LoadDocumentsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[chargeID], nil
}

func (m *MockRepository) LoadUnmatchedCharges(_ context.Context, ownerID string) ([]UnmatchedCharge, error) {
	if m.LoadUnmatchedErr != nil {
		return nil, m.LoadUnmatchedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, c := range m.charges {
		if c.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var out []UnmatchedCharge
	for _, id := range ids {
		cls := charge.Classify(len(m.transactions[id]), len(m.documents[id]))
		if cls.IsCandidate() {
			out = append(out, UnmatchedCharge{ChargeID: id, OwnerID: ownerID, Classification: cls})
		}
	}
	return out, nil
}

func (m *MockRepository) MergeCharge(_ context.Context, survivingChargeID, donorChargeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MergeChargeCalled = true
	m.MergedPairs = append(m.MergedPairs, [2]string{survivingChargeID, donorChargeID})

	if m.MergeChargeErr != nil {
		return m.MergeChargeErr
	}

	if m.charges[survivingChargeID] == nil || m.charges[donorChargeID] == nil {
		return ErrChargeConsumed
	}

	sTx, sDoc := len(m.transactions[survivingChargeID]), len(m.documents[survivingChargeID])
	dTx, dDoc := len(m.transactions[donorChargeID]), len(m.documents[donorChargeID])
	txToDoc := sTx > 0 && sDoc == 0 && dTx == 0 && dDoc > 0
	docToTx := sTx == 0 && sDoc > 0 && dTx > 0 && dDoc == 0
	if !txToDoc && !docToTx {
		return ErrChargeConsumed
	}

	m.transactions[survivingChargeID] = append(m.transactions[survivingChargeID], m.transactions[donorChargeID]...)
	m.documents[survivingChargeID] = append(m.documents[survivingChargeID], m.documents[donorChargeID]...)
	delete(m.transactions, donorChargeID)
	delete(m.documents, donorChargeID)
	delete(m.charges, donorChargeID)
	return nil
}

func (m *MockRepository) StartMatchRun(_ context.Context, ownerID string, dryRun bool) (int64, error) {
	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextRunID
	m.nextRunID++
	m.runs[id] = &MatchRun{
		ID:        id,
		OwnerID:   ownerID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		DryRun:    dryRun,
		Status:    "running",
	}
	return id, nil
}

func (m *MockRepository) CompleteMatchRun(_ context.Context, runID int64, considered, merged, skipped, errored int) error {
	m.CompleteRunCalled = true
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("match run %d not found", runID)
	}
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.ChargesConsidered = considered
	run.ChargesMerged = merged
	run.ChargesSkipped = skipped
	run.ChargesErrored = errored
	run.Status = "completed"
	return nil
}

func (m *MockRepository) SaveMergeRecord(_ context.Context, rec *MergeRecord) error {
	m.SaveMergeCalled = true
	if m.SaveMergeErr != nil {
		return m.SaveMergeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.mergeRecords) + 1)
	m.mergeRecords = append(m.mergeRecords, *rec)
	return nil
}

func (m *MockRepository) ListMatchRuns(_ context.Context, limit int) ([]MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []MatchRun
	for id := m.nextRunID - 1; id >= 1 && (limit <= 0 || len(runs) < limit); id-- {
		if run, ok := m.runs[id]; ok {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

func (m *MockRepository) GetMatchRun(_ context.Context, runID int64) (*MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (m *MockRepository) ListMergeRecords(_ context.Context, runID int64) ([]MergeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MergeRecord
	for _, rec := range m.mergeRecords {
		if rec.RunID == runID {
			out = append(out, rec)
		}
	}
	return out, nil
}
