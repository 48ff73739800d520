package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/config"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

func main() {
	var (
		dbPath     string
		configFile string
		limit      int
	)
	flag.StringVar(&dbPath, "db", "", "Path to database file (uses config if not specified)")
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.IntVar(&limit, "limit", 20, "Number of recent runs to report")
	flag.Parse()

	if dbPath == "" {
		cfg := config.LoadOrEnvWithPath(configFile)
		dbPath = cfg.Storage.DatabasePath
	}

	store, err := storage.NewStorage(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()

	fmt.Println("📊 RECONCILIATION AUDIT REPORT")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Printf("Database: %s\n", dbPath)
	fmt.Printf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	runs, err := store.ListMatchRuns(ctx, limit)
	if err != nil {
		log.Fatalf("Error loading runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No reconciliation runs recorded.")
		return
	}

	// Overall Statistics
	fmt.Println("📈 OVERALL STATISTICS")
	fmt.Println(strings.Repeat("-", 40))

	var considered, merged, skipped, errored int
	for _, run := range runs {
		considered += run.ChargesConsidered
		merged += run.ChargesMerged
		skipped += run.ChargesSkipped
		errored += run.ChargesErrored
	}

	mergeRate := 0.0
	if considered > 0 {
		mergeRate = float64(merged) / float64(considered) * 100
	}

	fmt.Printf("Runs Reported: %d\n", len(runs))
	fmt.Printf("Charges Considered: %d\n", considered)
	fmt.Printf("Charges Merged: %d (%.1f%%)\n", merged, mergeRate)
	fmt.Printf("Skipped as Ambiguous: %d\n", skipped)
	fmt.Printf("Errored: %d\n\n", errored)

	// Per-run breakdown
	fmt.Println("🕐 RECENT RUNS")
	fmt.Println(strings.Repeat("-", 40))
	for _, run := range runs {
		mode := ""
		if run.DryRun {
			mode = " [dry-run]"
		}
		fmt.Printf("Run #%d%s owner=%s status=%s considered=%d merged=%d skipped=%d errored=%d\n",
			run.ID, mode, run.OwnerID, run.Status,
			run.ChargesConsidered, run.ChargesMerged, run.ChargesSkipped, run.ChargesErrored)

		records, err := store.ListMergeRecords(ctx, run.ID)
		if err != nil {
			log.Printf("Error loading merge records for run %d: %v", run.ID, err)
			continue
		}
		for _, rec := range records {
			fmt.Printf("    %s -> %s confidence=%.2f (amount=%.2f currency=%.2f business=%.2f date=%.2f)\n",
				rec.DonorChargeID, rec.SurvivingChargeID, rec.Confidence,
				rec.AmountScore, rec.CurrencyScore, rec.BusinessScore, rec.DateScore)
		}
	}
}
