package automatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ledgerline/charge-recon-backend/internal/domain/match"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

// Suggest failure modes callers branch on.
var (
	ErrChargeNotFound  = errors.New("charge not found")
	ErrChargeNotViable = errors.New("charge is not an unmatched charge")
)

// Engine orchestrates a reconciliation run: parallel candidate ranking,
// then a strictly sequential decision-and-commit phase so two merges
// can never claim the same charge.
type Engine struct {
	repo   storage.Repository
	ranker *match.Ranker
	cfg    Config
	logger *slog.Logger
}

// New creates an engine over the given repository.
func New(repo storage.Repository, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	scorer := match.NewScorer(cfg.Scoring)
	return &Engine{
		repo:   repo,
		ranker: match.NewRanker(scorer, repo, cfg.MaxCandidates),
		cfg:    cfg,
		logger: logger,
	}
}

// rankOutcome is the scoring result for one charge, produced in the
// parallel phase and consumed in the sequential phase.
type rankOutcome struct {
	candidates []match.MatchScore
	err        error
}

// Run reconciles all of an owner's unmatched charges and returns the
// fully accounted result. A single bad charge never aborts the run.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{
		MergedCharges:  make([]MergedCharge, 0),
		SkippedCharges: make([]string, 0),
		Errors:         make([]MatchError, 0),
	}

	e.logger.Debug("Starting reconciliation run",
		"owner_id", opts.OwnerID,
		"dry_run", opts.DryRun,
		"max_charges", opts.MaxCharges,
	)

	unmatched, err := e.repo.LoadUnmatchedCharges(ctx, opts.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unmatched charges: %w", err)
	}

	// Charge id ascending: arbitrary but stable, for reproducible runs.
	sort.Slice(unmatched, func(i, j int) bool {
		return unmatched[i].ChargeID < unmatched[j].ChargeID
	})
	if opts.MaxCharges > 0 && len(unmatched) > opts.MaxCharges {
		unmatched = unmatched[:opts.MaxCharges]
	}

	e.logger.Debug("Loaded unmatched charges", "count", len(unmatched))

	runID, err := e.repo.StartMatchRun(ctx, opts.OwnerID, opts.DryRun)
	if err != nil {
		e.logger.Warn("Failed to start run tracking", "error", err)
		// Continue anyway - tracking failure shouldn't block matching
	}

	candidates := make([]match.Candidate, len(unmatched))
	for i, uc := range unmatched {
		candidates[i] = match.Candidate{ChargeID: uc.ChargeID, Classification: uc.Classification}
	}

	outcomes := e.rankAll(ctx, candidates, opts.OwnerID)

	outcomeIdx := make(map[string]int, len(candidates))
	for i, c := range candidates {
		outcomeIdx[c.ChargeID] = i
	}

	// Decision-and-commit phase: single goroutine, charge id order.
	consumed := make(map[string]bool)
	for i, base := range candidates {
		if consumed[base.ChargeID] {
			continue
		}

		outcome := outcomes[i]
		if outcome.err != nil {
			e.logger.Warn("Charge failed scoring",
				"charge_id", base.ChargeID, "error", outcome.err)
			result.Errors = append(result.Errors, MatchError{
				ChargeID: base.ChargeID,
				Message:  outcome.err.Error(),
			})
			continue
		}

		// Candidates consumed by earlier merges are no longer real options.
		ranked := outcome.candidates[:0:0]
		for _, c := range outcome.candidates {
			if !consumed[c.ChargeID] {
				ranked = append(ranked, c)
			}
		}
		if len(ranked) == 0 {
			continue
		}

		top := ranked[0]
		if top.Confidence < e.cfg.ConfidenceThreshold {
			continue
		}
		if len(ranked) > 1 && top.RawConfidence-ranked[1].RawConfidence < e.cfg.AmbiguityWindow {
			e.logger.Info("Skipping ambiguous charge",
				"charge_id", base.ChargeID,
				"top_candidate", top.ChargeID,
				"top_confidence", top.Confidence,
				"runner_up", ranked[1].ChargeID,
				"runner_up_confidence", ranked[1].Confidence,
			)
			result.SkippedCharges = append(result.SkippedCharges, base.ChargeID)
			continue
		}

		// The merge must be unambiguous from the donor's side too: if
		// the donor's own ranking is a near-tie, claiming it here would
		// foreclose a contested choice.
		if e.donorContested(top.ChargeID, outcomes, outcomeIdx, consumed) {
			e.logger.Info("Skipping charge with contested candidate",
				"charge_id", base.ChargeID,
				"top_candidate", top.ChargeID,
			)
			result.SkippedCharges = append(result.SkippedCharges, base.ChargeID)
			continue
		}

		e.commitMerge(ctx, runID, base.ChargeID, top, opts, consumed, result)
	}

	if runID > 0 {
		if err := e.repo.CompleteMatchRun(ctx, runID, len(candidates),
			result.TotalMatches, len(result.SkippedCharges), len(result.Errors)); err != nil {
			e.logger.Warn("Failed to complete run tracking", "run_id", runID, "error", err)
		}
	}

	e.logger.Info("Reconciliation run finished",
		"owner_id", opts.OwnerID,
		"considered", len(candidates),
		"merged", result.TotalMatches,
		"skipped", len(result.SkippedCharges),
		"errors", len(result.Errors),
		"dry_run", opts.DryRun,
	)

	return result, nil
}

// donorContested reports whether the donor charge's own ranking is a
// near-tie between still-available candidates that already clears the
// merge threshold.
func (e *Engine) donorContested(donorID string, outcomes []rankOutcome, outcomeIdx map[string]int, consumed map[string]bool) bool {
	i, ok := outcomeIdx[donorID]
	if !ok || outcomes[i].err != nil {
		return false
	}

	var top, second *match.MatchScore
	for j := range outcomes[i].candidates {
		c := &outcomes[i].candidates[j]
		if consumed[c.ChargeID] {
			continue
		}
		if top == nil {
			top = c
		} else if second == nil {
			second = c
			break
		}
	}
	if top == nil || second == nil {
		return false
	}
	return top.Confidence >= e.cfg.ConfidenceThreshold &&
		top.RawConfidence-second.RawConfidence < e.cfg.AmbiguityWindow
}

// rankAll scores every charge against its opposite-side candidates.
// Ranking is read-only, so charges fan out across a bounded worker
// pool.
func (e *Engine) rankAll(ctx context.Context, candidates []match.Candidate, ownerID string) []rankOutcome {
	outcomes := make([]rankOutcome, len(candidates))

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, base := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, base match.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			scores, err := e.ranker.Rank(ctx, base, candidates, ownerID)
			outcomes[i] = rankOutcome{candidates: scores, err: err}
		}(i, base)
	}
	wg.Wait()

	return outcomes
}

// commitMerge performs (or, when dry-running, simulates) one merge and
// updates the result accounting. Persistence failures are recorded as
// errors; the donor charge is not counted as merged or skipped.
func (e *Engine) commitMerge(ctx context.Context, runID int64, survivingID string, top match.MatchScore, opts Options, consumed map[string]bool, result *Result) {
	if !opts.DryRun {
		if err := e.repo.MergeCharge(ctx, survivingID, top.ChargeID); err != nil {
			e.logger.Error("Merge failed",
				"surviving_charge", survivingID,
				"donor_charge", top.ChargeID,
				"error", err,
			)
			result.Errors = append(result.Errors, MatchError{
				ChargeID: survivingID,
				Message:  fmt.Sprintf("merge with %s failed: %v", top.ChargeID, err),
			})
			return
		}
	} else {
		e.logger.Info("[DRY RUN] Would merge charge",
			"surviving_charge", survivingID,
			"donor_charge", top.ChargeID,
			"confidence", top.Confidence,
		)
	}

	consumed[survivingID] = true
	consumed[top.ChargeID] = true
	result.TotalMatches++
	result.MergedCharges = append(result.MergedCharges, MergedCharge{
		ChargeID:        top.ChargeID,
		MergedInto:      survivingID,
		ConfidenceScore: top.Confidence,
		Components:      top.Components,
	})

	e.logger.Info("Merged charge",
		"surviving_charge", survivingID,
		"donor_charge", top.ChargeID,
		"confidence", top.Confidence,
		"dry_run", opts.DryRun,
	)

	if runID > 0 {
		rec := &storage.MergeRecord{
			RunID:             runID,
			SurvivingChargeID: survivingID,
			DonorChargeID:     top.ChargeID,
			Confidence:        top.Confidence,
			AmountScore:       top.Components.Amount,
			CurrencyScore:     top.Components.Currency,
			BusinessScore:     top.Components.Business,
			DateScore:         top.Components.Date,
			DryRun:            opts.DryRun,
		}
		if err := e.repo.SaveMergeRecord(ctx, rec); err != nil {
			e.logger.Warn("Failed to save merge record", "error", err)
		}
	}
}

// Suggest returns the top match candidates for one charge without
// committing anything: the read-only "suggest a match" flow.
func (e *Engine) Suggest(ctx context.Context, chargeID string) ([]match.MatchScore, error) {
	c, err := e.repo.GetCharge(ctx, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load charge %s: %w", chargeID, err)
	}
	if c == nil {
		return nil, fmt.Errorf("charge %s: %w", chargeID, ErrChargeNotFound)
	}

	unmatched, err := e.repo.LoadUnmatchedCharges(ctx, c.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unmatched charges: %w", err)
	}

	var base *match.Candidate
	candidates := make([]match.Candidate, 0, len(unmatched))
	for _, uc := range unmatched {
		cand := match.Candidate{ChargeID: uc.ChargeID, Classification: uc.Classification}
		if uc.ChargeID == chargeID {
			b := cand
			base = &b
			continue
		}
		candidates = append(candidates, cand)
	}
	if base == nil {
		return nil, fmt.Errorf("charge %s: %w", chargeID, ErrChargeNotViable)
	}

	return e.ranker.Rank(ctx, *base, candidates, c.OwnerID)
}
