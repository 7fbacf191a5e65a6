// Package scenario sequences the harness scenarios against one browser
// session. Each scenario is independent: a failure or panic in one is
// recorded as its result and the run moves on to the next.
package scenario

import (
	"context"
	"fmt"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/detect"
	"github.com/nikshitha/signup-harness/driver"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/profile"
	"github.com/nikshitha/signup-harness/result"
	"github.com/nikshitha/signup-harness/stealth"
)

// Scenario names as they appear in results
const (
	NameNavigation   = "navigation"
	NameLegalPages   = "legal"
	NameContactForm  = "contact"
	NameRegistration = "registration"
)

// Runner drives every scenario through a single session it does not own
type Runner struct {
	config   *config.Config
	logger   *logger.Logger
	session  browser.Session
	sim      *stealth.Simulator
	driver   *driver.Driver
	profiles *profile.Generator
}

// NewRunner creates a runner over session
func NewRunner(cfg *config.Config, log *logger.Logger, session browser.Session, sim *stealth.Simulator, profiles *profile.Generator) *Runner {
	return &Runner{
		config:   cfg,
		logger:   log.WithModule("scenario"),
		session:  session,
		sim:      sim,
		driver:   driver.New(session, sim, driver.DefaultBindings(), cfg.Timeouts, log),
		profiles: profiles,
	}
}

type step struct {
	name    string
	enabled bool
	run     func(ctx context.Context) []result.ScenarioResult
}

// Run executes the enabled scenarios in order and returns every result.
// Later scenarios run regardless of how earlier ones ended.
func (r *Runner) Run(ctx context.Context) []result.ScenarioResult {
	steps := []step{
		{NameNavigation, r.config.Scenarios.Navigation, r.Navigation},
		{NameLegalPages, r.config.Scenarios.LegalPages, r.LegalPages},
		{NameContactForm, r.config.Scenarios.ContactForm, single(r.ContactForm)},
		{NameRegistration, r.config.Scenarios.Registration, single(r.Registration)},
	}

	var results []result.ScenarioResult
	for _, s := range steps {
		if !s.enabled {
			r.logger.WithField("scenario", s.name).Debug("Scenario disabled")
			continue
		}

		r.logger.WithField("scenario", s.name).Info("Starting scenario")
		for _, res := range r.guard(ctx, s) {
			r.logger.ScenarioOutcome(res.Scenario, string(res.Status), res.Message, res.Warnings)
			results = append(results, res)
		}
	}

	return results
}

// guard runs one scenario, turning a panic into a failure result
func (r *Runner) guard(ctx context.Context, s step) (results []result.ScenarioResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.WithField("scenario", s.name).Errorf("Scenario panicked: %v", p)
			results = append(results, result.Failure(s.name, fmt.Sprintf("panic: %v", p)))
		}
	}()
	return s.run(ctx)
}

func single(fn func(ctx context.Context) result.ScenarioResult) func(ctx context.Context) []result.ScenarioResult {
	return func(ctx context.Context) []result.ScenarioResult {
		return []result.ScenarioResult{fn(ctx)}
	}
}

// navigate loads url within the browser timeout, failing with
// ErrTargetUnavailable, and lingers on the page
func (r *Runner) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, r.config.GetTimeout())
	err := r.session.Navigate(navCtx, url)
	cancel()
	if err != nil {
		return fmt.Errorf("navigate %s: %w: %v", url, result.ErrTargetUnavailable, err)
	}
	return r.sim.PageLoadDelay(ctx)
}

func (r *Runner) detector(signals detect.Signals) *detect.Detector {
	return detect.New(r.session, signals, r.config.Timeouts.PollInterval(), r.logger)
}

func (r *Runner) bannerSignals() detect.Signals {
	var s detect.Signals
	if r.config.Target.SuccessBanner != "" {
		s.SuccessBanner = browser.CSS(r.config.Target.SuccessBanner)
	}
	if r.config.Target.ErrorBanner != "" {
		s.ErrorBanner = browser.CSS(r.config.Target.ErrorBanner)
	}
	return s
}
