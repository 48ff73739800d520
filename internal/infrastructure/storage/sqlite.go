package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/charge-recon-backend/internal/domain/charge"
)

// Storage provides SQLite-backed persistence for charges and match
// runs. It implements the Repository interface.
type Storage struct {
	db    *sql.DB
	cache *chargeCache
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database at dbPath and runs
// all pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, cache: newChargeCache()}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateCharge creates an empty charge for an owner and returns its id.
func (s *Storage) CreateCharge(ctx context.Context, ownerID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO charges (id, owner_id, created_at) VALUES (?, ?, ?)`,
		id, ownerID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create charge: %w", err)
	}
	return id, nil
}

// GetCharge returns a charge by id, or nil when it does not exist.
func (s *Storage) GetCharge(ctx context.Context, chargeID string) (*charge.Charge, error) {
	var c charge.Charge
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, created_at FROM charges WHERE id = ?`,
		chargeID).Scan(&c.ID, &c.OwnerID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get charge %s: %w", chargeID, err)
	}
	return &c, nil
}

// AddTransaction attaches a bank transaction to its charge.
func (s *Storage) AddTransaction(ctx context.Context, tx charge.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO transactions
	(id, charge_id, amount, currency, business_id, event_date, debit_date, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.ChargeID, tx.Amount.String(), tx.Currency, tx.BusinessID,
		tx.EventDate, tx.DebitDate, tx.Description)
	if err != nil {
		return fmt.Errorf("failed to add transaction: %w", err)
	}
	s.cache.invalidate(tx.ChargeID)
	return nil
}

// AddDocument attaches an accounting document to its charge.
func (s *Storage) AddDocument(ctx context.Context, doc charge.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO documents
	(id, charge_id, type, amount, currency, doc_date, creditor_id, debtor_id, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ChargeID, string(doc.Type), doc.Amount.String(), doc.Currency,
		doc.Date, doc.CreditorID, doc.DebtorID, doc.Description)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	s.cache.invalidate(doc.ChargeID)
	return nil
}

// LoadTransactionsByCharge loads all transactions of one charge in a
// single query, read-through cached.
func (s *Storage) LoadTransactionsByCharge(ctx context.Context, chargeID string) ([]charge.Transaction, error) {
	if txs, ok := s.cache.getTransactions(chargeID); ok {
		return txs, nil
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, charge_id, amount, currency, business_id, event_date, debit_date, description
	FROM transactions WHERE charge_id = ? ORDER BY event_date, id`, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for charge %s: %w", chargeID, err)
	}
	defer rows.Close()

	var txs []charge.Transaction
	for rows.Next() {
		var tx charge.Transaction
		var amount string
		var businessID sql.NullString
		var debitDate sql.NullTime
		if err := rows.Scan(&tx.ID, &tx.ChargeID, &amount, &tx.Currency,
			&businessID, &tx.EventDate, &debitDate, &tx.Description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount %q on transaction %s: %w", amount, tx.ID, err)
		}
		if businessID.Valid {
			tx.BusinessID = &businessID.String
		}
		if debitDate.Valid {
			d := debitDate.Time
			tx.DebitDate = &d
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.setTransactions(chargeID, txs)
	return txs, nil
}

// LoadDocumentsByCharge loads all documents of one charge in a single
// query, read-through cached.
func (s *Storage) LoadDocumentsByCharge(ctx context.Context, chargeID string) ([]charge.Document, error) {
	if docs, ok := s.cache.getDocuments(chargeID); ok {
		return docs, nil
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, charge_id, type, amount, currency, doc_date, creditor_id, debtor_id, description
	FROM documents WHERE charge_id = ? ORDER BY doc_date, id`, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents for charge %s: %w", chargeID, err)
	}
	defer rows.Close()

	var docs []charge.Document
	for rows.Next() {
		var doc charge.Document
		var docType, amount string
		var creditorID, debtorID sql.NullString
		if err := rows.Scan(&doc.ID, &doc.ChargeID, &docType, &amount, &doc.Currency,
			&doc.Date, &creditorID, &debtorID, &doc.Description); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Type = charge.DocumentType(docType)
		if doc.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount %q on document %s: %w", amount, doc.ID, err)
		}
		if creditorID.Valid {
			doc.CreditorID = &creditorID.String
		}
		if debtorID.Valid {
			doc.DebtorID = &debtorID.String
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.setDocuments(chargeID, docs)
	return docs, nil
}

// LoadUnmatchedCharges lists an owner's single-sided charges ordered by
// charge id.
func (s *Storage) LoadUnmatchedCharges(ctx context.Context, ownerID string) ([]UnmatchedCharge, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.id, c.owner_id,
	       (SELECT COUNT(*) FROM transactions t WHERE t.charge_id = c.id) AS tx_count,
	       (SELECT COUNT(*) FROM documents d WHERE d.charge_id = c.id) AS doc_count
	FROM charges c
	WHERE c.owner_id = ?
	ORDER BY c.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unmatched charges: %w", err)
	}
	defer rows.Close()

	var charges []UnmatchedCharge
	for rows.Next() {
		var uc UnmatchedCharge
		var txCount, docCount int
		if err := rows.Scan(&uc.ChargeID, &uc.OwnerID, &txCount, &docCount); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched charge: %w", err)
		}
		uc.Classification = charge.Classify(txCount, docCount)
		if uc.Classification.IsCandidate() {
			charges = append(charges, uc)
		}
	}
	return charges, rows.Err()
}

// MergeCharge reassigns the donor's records to the surviving charge and
// deletes the donor, inside one transaction. The optimistic
// re-validation guards against a concurrent merge having consumed
// either charge between scoring and commit.
func (s *Storage) MergeCharge(ctx context.Context, survivingChargeID, donorChargeID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sTx, sDoc, err := countSides(ctx, tx, survivingChargeID)
	if err != nil {
		return err
	}
	dTx, dDoc, err := countSides(ctx, tx, donorChargeID)
	if err != nil {
		return err
	}
	if sTx < 0 || dTx < 0 {
		return ErrChargeConsumed
	}

	// The pair must still be one transaction-only and one
	// document-only charge, in either orientation.
	txToDoc := sTx > 0 && sDoc == 0 && dTx == 0 && dDoc > 0
	docToTx := sTx == 0 && sDoc > 0 && dTx > 0 && dDoc == 0
	if !txToDoc && !docToTx {
		return ErrChargeConsumed
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET charge_id = ? WHERE charge_id = ?`,
		survivingChargeID, donorChargeID); err != nil {
		return fmt.Errorf("failed to reassign transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET charge_id = ? WHERE charge_id = ?`,
		survivingChargeID, donorChargeID); err != nil {
		return fmt.Errorf("failed to reassign documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM charges WHERE id = ?`, donorChargeID); err != nil {
		return fmt.Errorf("failed to delete donor charge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}

	s.cache.invalidate(survivingChargeID, donorChargeID)
	return nil
}

// countSides returns the record counts of a charge inside a merge
// transaction, or (-1, -1) when the charge no longer exists.
func countSides(ctx context.Context, tx *sql.Tx, chargeID string) (txCount, docCount int, err error) {
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM charges WHERE id = ?`, chargeID).Scan(&exists)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check charge %s: %w", chargeID, err)
	}
	if exists == 0 {
		return -1, -1, nil
	}

	err = tx.QueryRowContext(ctx, `
	SELECT (SELECT COUNT(*) FROM transactions WHERE charge_id = ?),
	       (SELECT COUNT(*) FROM documents WHERE charge_id = ?)`,
		chargeID, chargeID).Scan(&txCount, &docCount)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count records for charge %s: %w", chargeID, err)
	}
	return txCount, docCount, nil
}
