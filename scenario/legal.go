package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/result"
)

// LegalPages opens each legal document route directly and checks the body
// mentions its topic. A missing keyword only warns.
func (r *Runner) LegalPages(ctx context.Context) []result.ScenarioResult {
	results := make([]result.ScenarioResult, 0, len(r.config.Scenarios.Legal))
	for _, page := range r.config.Scenarios.Legal {
		results = append(results, r.legalPage(ctx, page))
	}
	return results
}

func (r *Runner) legalPage(ctx context.Context, page config.LegalPage) result.ScenarioResult {
	name := NameLegalPages + ":" + page.Name
	url := r.config.URL(page.Path)

	if err := r.navigate(ctx, url); err != nil {
		return result.FromError(name, err)
	}

	body, err := r.bodyText(ctx)
	if err != nil {
		return result.FromError(name, err)
	}

	if strings.Contains(strings.ToLower(body), strings.ToLower(page.Keyword)) {
		return result.Success(name, "page loaded")
	}

	return result.Success(name, "page loaded").
		WithWarnings(fmt.Sprintf("keyword %q not found on %s", page.Keyword, page.Path))
}

func (r *Runner) bodyText(ctx context.Context) (string, error) {
	body, err := r.session.Locate(ctx, browser.CSS("body"))
	if err != nil {
		return "", fmt.Errorf("body: %w: %v", result.ErrTargetUnavailable, err)
	}
	text, err := body.Text()
	if err != nil {
		return "", fmt.Errorf("body text: %w: %v", result.ErrTargetUnavailable, err)
	}
	return text, nil
}
