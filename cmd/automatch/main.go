package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ledgerline/charge-recon-backend/internal/application/automatch"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/config"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/logging"
	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		ownerID    = flag.String("owner", "", "Owner business id to reconcile (required)")
		dryRun     = flag.Bool("dry-run", true, "Preview merges without applying")
		maxCharges = flag.Int("max", 0, "Maximum charges to consider (0 = all)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	_ = godotenv.Load()

	if *ownerID == "" {
		fmt.Fprintln(os.Stderr, "usage: automatch -owner <business-id> [-dry-run=false] [-max N]")
		os.Exit(2)
	}

	cfg := loadConfig(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = slog.LevelDebug.String()
	}
	logger := logging.NewScopedLogger(cfg.Observability.Logging, "automatch")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := automatch.New(store, automatch.ConfigFromSettings(cfg.Matching), logger)

	logger.Info("Starting reconciliation",
		"owner_id", *ownerID,
		"dry_run", *dryRun,
		"max_charges", *maxCharges,
	)

	result, err := engine.Run(context.Background(), automatch.Options{
		OwnerID:    *ownerID,
		DryRun:     *dryRun,
		MaxCharges: *maxCharges,
	})
	if err != nil {
		logger.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	printResult(result, *dryRun)
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

func loadConfig(configFile string) *config.Config {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configFile, err)
			os.Exit(1)
		}
		return cfg
	}
	return config.LoadOrEnv()
}

func printResult(result *automatch.Result, dryRun bool) {
	verb := "Merged"
	if dryRun {
		verb = "Would merge"
	}

	fmt.Printf("\n%s %d charge pair(s)\n", verb, result.TotalMatches)
	for _, m := range result.MergedCharges {
		fmt.Printf("  %s -> %s (confidence %.2f)\n", m.ChargeID, m.MergedInto, m.ConfidenceScore)
	}

	if len(result.SkippedCharges) > 0 {
		fmt.Printf("\nSkipped as ambiguous:\n")
		for _, id := range result.SkippedCharges {
			fmt.Printf("  %s\n", id)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", e.ChargeID, e.Message)
		}
	}
}
