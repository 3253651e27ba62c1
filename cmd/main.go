package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	service "github.com/okian/gradeflow/internal/app"
	"github.com/okian/gradeflow/internal/adapters/repository"
	"github.com/okian/gradeflow/internal/config"
	"github.com/okian/gradeflow/pkg/logger"
)

const dbPingTimeout = 5 * time.Second

func main() {
	dryRun := flag.Bool("dry-run", false, "Parse and reconcile without touching the database")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.DatabaseURL == "" {
		os.Stderr.WriteString("database_url is required\n")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		os.Stderr.WriteString("failed to open database: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		os.Stderr.WriteString("failed to reach database: " + err.Error() + "\n")
		os.Exit(1)
	}

	var store repository.Store = repository.NewPostgres(db)
	if *dryRun {
		loggerInstance.Info(ctx, "dry run: writes will be discarded")
		store = repository.NewDryRun(store)
	}
	svc := service.New(cfg, store, service.WithLogger(loggerInstance))

	summary, err := svc.Run(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "pipeline failed", logger.Error(err))
		os.Exit(1)
	}

	printSummary(summary)
}

// printSummary writes the run outcome and audit trail to stdout for the
// operator; structured logs cover the same ground for machines.
func printSummary(summary *service.Summary) {
	for _, batch := range summary.Batches {
		skipped := 0
		for _, n := range batch.Skipped {
			skipped += n
		}
		fmt.Printf("%s: %d rows seen, %d processed, %d skipped, %d records written in %s\n",
			batch.Type, batch.RowsSeen, batch.Processed, skipped, batch.Written,
			batch.Duration.Round(time.Millisecond))
	}
	if summary.PeerRows > 0 {
		fmt.Printf("peer feedback: %d rows written\n", summary.PeerRows)
	}
	if summary.TermRows > 0 {
		fmt.Printf("term records: %d rows written\n", summary.TermRows)
	}
	fmt.Print(summary.Audit.Report())
}
