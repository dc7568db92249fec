package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lianhaeming/renoguard/internal/analysis"
	"github.com/lianhaeming/renoguard/internal/backend"
	"github.com/lianhaeming/renoguard/internal/cli"
	"github.com/lianhaeming/renoguard/internal/db"
	"github.com/lianhaeming/renoguard/internal/repository"
	"github.com/lianhaeming/renoguard/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine DB path: env var or default ~/.renoguard/renoguard.db
	dbPath := os.Getenv("RENOGUARD_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".renoguard", "renoguard.db")
	}

	// Open local cache database
	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	uow := db.NewSQLiteUnitOfWork(database)
	stateRepo := repository.NewSQLiteStateRepo(database, uow)
	acceptanceRepo := repository.NewSQLiteAcceptanceRepo(database)
	stageLogRepo := repository.NewSQLiteStageLogRepo(database)

	// Backend call logging goes to stderr when requested, and stays on for
	// non-interactive runs so cron output carries the call trace.
	var observer backend.Observer = backend.NoopObserver{}
	if os.Getenv("RENOGUARD_LOG") != "" || !isatty.IsTerminal(os.Stderr.Fd()) {
		observer = backend.NewLogObserver(os.Stderr)
	}

	backendClient := backend.NewHTTPClient(backend.LoadConfig(), observer)
	analysisClient := analysis.NewHTTPClient(analysis.LoadConfig())

	// Wire services
	scheduleSvc := service.NewScheduleService(backendClient, stateRepo, acceptanceRepo, stageLogRepo)
	acceptanceSvc := service.NewAcceptanceService(scheduleSvc, analysisClient, acceptanceRepo)

	app := &cli.App{
		Schedule:   scheduleSvc,
		Acceptance: acceptanceSvc,
	}

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
