package storage

import (
	"context"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// Repository defines the complete storage interface. It allows swapping
// implementations (SQLite, PostgreSQL, ...) and makes testing with the
// in-memory mock straightforward.
type Repository interface {
	ChargeRepository
	MatchRunRepository
	Close() error
}

// ChargeRepository is the persistence collaborator the reconciliation
// engine depends on: batched per-charge loads, the unmatched-charge
// listing, and the merge commit.
type ChargeRepository interface {
	// CreateCharge creates an empty charge for an owner and returns its id.
	CreateCharge(ctx context.Context, ownerID string) (string, error)

	// GetCharge returns a charge by id, or nil when it does not exist.
	GetCharge(ctx context.Context, chargeID string) (*charge.Charge, error)

	// AddTransaction attaches a bank transaction to its charge.
	AddTransaction(ctx context.Context, tx charge.Transaction) error

	// AddDocument attaches an accounting document to its charge.
	AddDocument(ctx context.Context, doc charge.Document) error

	// LoadTransactionsByCharge loads all transactions of one charge in
	// a single query.
	LoadTransactionsByCharge(ctx context.Context, chargeID string) ([]charge.Transaction, error)

	// LoadDocumentsByCharge loads all documents of one charge in a
	// single query.
	LoadDocumentsByCharge(ctx context.Context, chargeID string) ([]charge.Document, error)

	// LoadUnmatchedCharges lists an owner's charges that have exactly
	// one side populated, ordered by charge id for reproducible runs.
	LoadUnmatchedCharges(ctx context.Context, ownerID string) ([]UnmatchedCharge, error)

	// MergeCharge moves the donor's transactions and documents onto the
	// surviving charge and deletes the donor, all in one transaction.
	// It re-validates that the pair still forms a (transaction-only,
	// document-only) combination and fails with ErrChargeConsumed when
	// a concurrent merge got there first. Charge-scoped caches are
	// invalidated as part of the commit.
	MergeCharge(ctx context.Context, survivingChargeID, donorChargeID string) error
}

// UnmatchedCharge pairs a charge id with its classification as computed
// from record counts at query time.
type UnmatchedCharge struct {
	ChargeID       string
	OwnerID        string
	Classification charge.Classification
}

// MatchRunRepository tracks reconciliation runs and the merges they
// committed, for the audit trail and the dashboard.
type MatchRunRepository interface {
	// StartMatchRun records the start of a run and returns the run ID.
	StartMatchRun(ctx context.Context, ownerID string, dryRun bool) (int64, error)

	// CompleteMatchRun records the completion of a run.
	CompleteMatchRun(ctx context.Context, runID int64, considered, merged, skipped, errored int) error

	// SaveMergeRecord stores one committed (or dry-run) merge with its
	// component scores.
	SaveMergeRecord(ctx context.Context, rec *MergeRecord) error

	// ListMatchRuns returns recent runs, newest first.
	ListMatchRuns(ctx context.Context, limit int) ([]MatchRun, error)

	// GetMatchRun retrieves a run by ID, or nil when it does not exist.
	GetMatchRun(ctx context.Context, runID int64) (*MatchRun, error)

	// ListMergeRecords returns the merges recorded for a run.
	ListMergeRecords(ctx context.Context, runID int64) ([]MergeRecord, error)
}
