package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/result"
)

// Navigation loads the home page and then follows each configured menu link
// in turn, recording one result per destination
func (r *Runner) Navigation(ctx context.Context) []result.ScenarioResult {
	home := NameNavigation + ":home"
	if err := r.navigate(ctx, r.config.URL("/")); err != nil {
		return []result.ScenarioResult{result.FromError(home, err)}
	}

	results := []result.ScenarioResult{result.Success(home, r.session.URL())}
	for _, dest := range r.config.Scenarios.Destinations {
		name := NameNavigation + ":" + strings.ToLower(dest.Name)
		if err := r.follow(ctx, dest.LinkText); err != nil {
			results = append(results, result.FromError(name, err))
			continue
		}
		results = append(results, result.Success(name, r.session.URL()))
	}

	return results
}

// follow clicks the link labeled text like a user would
func (r *Runner) follow(ctx context.Context, text string) error {
	link, err := r.driver.WaitReady(ctx, browser.LinkText(text), r.config.Timeouts.WaitReady())
	if err != nil {
		return err
	}

	if err := r.sim.Click(ctx, r.session, link); err != nil {
		return fmt.Errorf("click %q: %w: %v", text, result.ErrTargetUnavailable, err)
	}

	return r.sim.PageLoadDelay(ctx)
}
