// Signup Harness - Main Application
// Drives a real browser through the public pages, contact form and
// registration flow of the target site and records one result per scenario.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/profile"
	"github.com/nikshitha/signup-harness/result"
	"github.com/nikshitha/signup-harness/scenario"
	"github.com/nikshitha/signup-harness/schedule"
	"github.com/nikshitha/signup-harness/stealth"
	"github.com/nikshitha/signup-harness/storage"
)

const jobName = "harness"

// Application holds the long-lived components of the harness
type Application struct {
	config *config.Config
	logger *logger.Logger
	db     *storage.Database

	// runs started so far, mixed into a fixed profile seed
	runs atomic.Uint64
}

// Command line flags
var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	scheduled  = flag.Bool("schedule", false, "Keep running and start a run on the configured cron schedule")
	runNow     = flag.Bool("run-now", false, "With -schedule, run once immediately before waiting for the schedule")
	baseURL    = flag.String("base-url", "", "Override the target base URL")
	seed       = flag.Uint64("seed", 0, "Seed for synthetic profiles (0 = random)")
	history    = flag.Int("history", 0, "Print the N most recent runs and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	printBanner()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("Note: No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if *baseURL != "" {
		cfg.Target.BaseURL = *baseURL
	}
	if *seed != 0 {
		cfg.Profile.Seed = *seed
	}
	if *scheduled {
		cfg.Schedule.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputFile: cfg.Logging.OutputFile,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApplication(cfg, log)
	if err != nil {
		log.Errorf("Failed to initialize application: %v", err)
		os.Exit(1)
	}
	defer app.Close()

	if *history > 0 {
		app.showHistory(*history)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(log, cancel)

	log.WithField("target", cfg.Target.BaseURL).Info("Signup harness starting...")

	if cfg.Schedule.Enabled {
		err = app.runScheduled(ctx)
	} else {
		err = app.runSingle(ctx)
	}
	if err != nil {
		log.Errorf("Application error: %v", err)
		app.Close()
		os.Exit(1)
	}

	log.Info("Application completed successfully")
}

// NewApplication opens the run history store
func NewApplication(cfg *config.Config, log *logger.Logger) (*Application, error) {
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Application{
		config: cfg,
		logger: log,
		db:     db,
	}, nil
}

var errScenariosFailed = errors.New("one or more scenarios failed")

// runSingle performs one run bounded by the configured run timeout
func (app *Application) runSingle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, app.runTimeout())
	defer cancel()

	counts, err := app.runOnce(ctx)
	if err != nil {
		return err
	}
	if counts[string(result.StatusFailure)] > 0 {
		return errScenariosFailed
	}
	return nil
}

// runScheduled starts runs on the cron schedule until ctx is cancelled
func (app *Application) runScheduled(ctx context.Context) error {
	sched, err := schedule.New(app.config.Schedule.Timezone, app.runTimeout(), app.logger)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		_, err := app.runOnce(ctx)
		return err
	}
	if err := sched.AddJob(jobName, app.config.Schedule.Cron, job); err != nil {
		return err
	}

	if *runNow {
		if err := sched.RunNow(jobName, job); err != nil {
			app.logger.WithError(err).Warn("Immediate run failed")
		}
	}

	sched.Start()
	for _, info := range sched.ListJobs() {
		app.logger.WithField("job", info.Name).Infof("Next run at %s", info.NextRun.Format(time.RFC3339))
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// runOnce launches a browser, runs every enabled scenario and records the
// results. The browser is released on every path.
func (app *Application) runOnce(ctx context.Context) (map[string]int, error) {
	cfg := app.config

	sim := stealth.NewSimulator(&cfg.Stealth, app.logger, nil)
	b, err := browser.Launch(cfg, app.logger, sim)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	runID, err := app.db.StartRun(cfg.Target.BaseURL)
	if err != nil {
		return nil, err
	}
	log := app.logger.WithField("run_id", runID)

	seed := runSeed(cfg.Profile.Seed, app.runs.Add(1)-1)
	profiles := profile.NewGenerator(cfg.Profile, seed).UsePassword(cfg.Target.TestPassword)
	results := scenario.NewRunner(cfg, log, b, sim, profiles).Run(ctx)

	for _, r := range results {
		if err := app.db.SaveResult(runID, r); err != nil {
			log.WithError(err).Warn("Failed to save scenario result")
		}
	}

	counts := result.Tally(results)
	if err := app.db.FinishRun(runID, counts); err != nil {
		log.WithError(err).Warn("Failed to finish run")
	}
	log.RunSummary(runID, counts)
	app.showDailyStats()

	return counts, nil
}

// runSeed derives the profile seed for the n-th run (from 0). A fixed seed
// reproduces the first run exactly and still gives every later run its own
// profiles, so scheduled runs never resubmit a site name. Zero stays random.
func runSeed(base, n uint64) uint64 {
	if base == 0 {
		return 0
	}
	seed := base + n
	if seed == 0 {
		seed = 1
	}
	return seed
}

func (app *Application) runTimeout() time.Duration {
	return time.Duration(app.config.Schedule.RunTimeoutMinutes) * time.Minute
}

// showDailyStats displays today's totals
func (app *Application) showDailyStats() {
	stats, err := app.db.GetTodayStats()
	if err != nil {
		app.logger.WithError(err).Warn("Failed to get daily stats")
		return
	}

	app.logger.Info("=== Today's Runs ===")
	app.logger.Infof("  Runs: %d", stats.Runs)
	app.logger.Infof("  Success: %d", stats.Success)
	app.logger.Infof("  Failure: %d", stats.Failure)
	app.logger.Infof("  Indeterminate: %d", stats.Indeterminate)
	app.logger.Info("====================")
}

// showHistory prints the most recent runs and their scenario results
func (app *Application) showHistory(limit int) {
	runs, err := app.db.GetRecentRuns(limit)
	if err != nil {
		app.logger.WithError(err).Error("Failed to read run history")
		return
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %s  success=%d failure=%d indeterminate=%d\n",
			run.StartedAt.Format(time.RFC3339), run.ID, run.Target,
			run.Success, run.Failure, run.Indeterminate)

		results, err := app.db.GetRunResults(run.ID)
		if err != nil {
			app.logger.WithError(err).Warn("Failed to read scenario results")
			continue
		}
		for _, r := range results {
			fmt.Printf("    %-16s %-13s %s\n", r.Scenario, r.Status, r.Message)
		}
	}
}

// Close cleans up application resources
func (app *Application) Close() {
	if app.db != nil {
		app.db.Close()
		app.db = nil
	}
	app.logger.Close()
}

// setupGracefulShutdown cancels the run context on SIGINT or SIGTERM
func setupGracefulShutdown(log *logger.Logger, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Infof("Received signal: %v", sig)
		cancel()
	}()
}

// printBanner prints the application banner
func printBanner() {
	banner := `
╔══════════════════════════════════════════════════════════════════╗
║                     Signup Harness                               ║
╠══════════════════════════════════════════════════════════════════╣
║  Submits real contact messages and registrations.                ║
║  Point it at a staging or test deployment only.                  ║
╚══════════════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}
