package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StartMatchRun records the start of a reconciliation run.
func (s *Storage) StartMatchRun(ctx context.Context, ownerID string, dryRun bool) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO match_runs (owner_id, started_at, dry_run, status)
	VALUES (?, ?, ?, 'running')`,
		ownerID, time.Now().UTC().Format(time.RFC3339), dryRun)
	if err != nil {
		return 0, fmt.Errorf("failed to start match run: %w", err)
	}
	return res.LastInsertId()
}

// CompleteMatchRun records completion counters for a run.
func (s *Storage) CompleteMatchRun(ctx context.Context, runID int64, considered, merged, skipped, errored int) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE match_runs
	SET completed_at = ?, charges_considered = ?, charges_merged = ?,
	    charges_skipped = ?, charges_errored = ?, status = 'completed'
	WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), considered, merged, skipped, errored, runID)
	if err != nil {
		return fmt.Errorf("failed to complete match run %d: %w", runID, err)
	}
	return nil
}

// SaveMergeRecord stores one merge with its component scores.
func (s *Storage) SaveMergeRecord(ctx context.Context, rec *MergeRecord) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO merge_records
	(run_id, surviving_charge_id, donor_charge_id, confidence,
	 amount_score, currency_score, business_score, date_score, dry_run, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.SurvivingChargeID, rec.DonorChargeID, rec.Confidence,
		rec.AmountScore, rec.CurrencyScore, rec.BusinessScore, rec.DateScore,
		rec.DryRun, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save merge record: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

// ListMatchRuns returns recent runs, newest first.
func (s *Storage) ListMatchRuns(ctx context.Context, limit int) ([]MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, owner_id, started_at, COALESCE(completed_at, ''), dry_run,
	       charges_considered, charges_merged, charges_skipped, charges_errored, status
	FROM match_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match runs: %w", err)
	}
	defer rows.Close()

	var runs []MatchRun
	for rows.Next() {
		var run MatchRun
		if err := rows.Scan(&run.ID, &run.OwnerID, &run.StartedAt, &run.CompletedAt,
			&run.DryRun, &run.ChargesConsidered, &run.ChargesMerged,
			&run.ChargesSkipped, &run.ChargesErrored, &run.Status); err != nil {
			return nil, fmt.Errorf("failed to scan match run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetMatchRun retrieves a run by ID, or nil when it does not exist.
func (s *Storage) GetMatchRun(ctx context.Context, runID int64) (*MatchRun, error) {
	var run MatchRun
	err := s.db.QueryRowContext(ctx, `
	SELECT id, owner_id, started_at, COALESCE(completed_at, ''), dry_run,
	       charges_considered, charges_merged, charges_skipped, charges_errored, status
	FROM match_runs WHERE id = ?`, runID).Scan(
		&run.ID, &run.OwnerID, &run.StartedAt, &run.CompletedAt,
		&run.DryRun, &run.ChargesConsidered, &run.ChargesMerged,
		&run.ChargesSkipped, &run.ChargesErrored, &run.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match run %d: %w", runID, err)
	}
	return &run, nil
}

// ListMergeRecords returns the merges recorded for a run.
func (s *Storage) ListMergeRecords(ctx context.Context, runID int64) ([]MergeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, run_id, surviving_charge_id, donor_charge_id, confidence,
	       amount_score, currency_score, business_score, date_score, dry_run, created_at
	FROM merge_records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merge records: %w", err)
	}
	defer rows.Close()

	var recs []MergeRecord
	for rows.Next() {
		var rec MergeRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.SurvivingChargeID, &rec.DonorChargeID,
			&rec.Confidence, &rec.AmountScore, &rec.CurrencyScore, &rec.BusinessScore,
			&rec.DateScore, &rec.DryRun, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merge record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
