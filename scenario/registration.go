package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/driver"
	"github.com/nikshitha/signup-harness/result"
)

const termsField = "agreeTerms"

// dropdowns are the registration fields chosen by value rather than typed
var dropdowns = map[string]bool{
	"companyRegionCode": true,
	"userRegionCode":    true,
}

// submitScript posts the registration payload from inside the page and
// stores the outcome in window[variable]
const submitScript = `(endpoint, payload, variable) => {
	delete window[variable];
	fetch(endpoint, {
		method: 'POST',
		credentials: 'same-origin',
		headers: { 'Content-Type': 'application/json' },
		body: JSON.stringify(payload)
	})
		.then(async (response) => {
			let body;
			try {
				body = await response.json();
			} catch (e) {
				body = { message: 'non-JSON response' };
			}
			window[variable] = { ok: response.ok, status: response.status, body: body };
		})
		.catch((err) => {
			window[variable] = { ok: false, error: String((err && err.message) || err) };
		});
	return true;
}`

// Registration fills the registration form with a fresh profile, accepts the
// terms and posts the payload straight to the registration endpoint, then
// waits for the outcome
func (r *Runner) Registration(ctx context.Context) result.ScenarioResult {
	res, warnings, err := r.register(ctx)
	if err != nil {
		return result.FromError(NameRegistration, err).WithWarnings(warnings...)
	}
	return res.Named(NameRegistration).WithWarnings(warnings...)
}

func (r *Runner) register(ctx context.Context) (result.ScenarioResult, []string, error) {
	var warnings []string

	if err := r.navigate(ctx, r.config.URL(r.config.Target.RegisterPath)); err != nil {
		return result.ScenarioResult{}, nil, err
	}

	p, err := r.profiles.Generate()
	if err != nil {
		return result.ScenarioResult{}, nil, err
	}
	r.logger.WithFields(map[string]interface{}{
		"company":   p.CompanyName,
		"site_name": p.SiteName,
		"email":     p.Email,
	}).Info("Generated registration profile")

	token, ok := r.csrfToken(ctx)
	if !ok {
		warnings = append(warnings, "anti-forgery token missing; submitted without it")
	}

	fields := p.Fields()
	for _, b := range driver.RegistrationFields {
		switch {
		case b.Name == termsField:
			continue
		case dropdowns[b.Name]:
			err = r.driver.PickDropdown(ctx, b.Name, fields[b.Name])
		default:
			err = r.driver.Fill(ctx, b.Name, fields[b.Name])
		}
		if err != nil {
			return result.ScenarioResult{}, warnings, err
		}
	}
	r.logger.Info("All registration fields filled")

	if err := r.acceptTerms(ctx); err != nil {
		return result.ScenarioResult{}, warnings, err
	}

	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	if ok {
		payload[r.config.Target.CSRFField] = token
	} else {
		payload[r.config.Target.CSRFField] = nil
	}

	if _, err := r.session.Eval(ctx, submitScript, r.config.Target.RegistrationEndpoint, payload, r.config.Target.CompletionVariable); err != nil {
		return result.ScenarioResult{}, warnings, fmt.Errorf("submit registration: %w: %v", result.ErrTargetUnavailable, err)
	}
	r.logger.WithField("endpoint", r.config.Target.RegistrationEndpoint).Info("Registration submitted, waiting for response")

	signals := r.bannerSignals()
	signals.CompletionVariable = r.config.Target.CompletionVariable
	signals.SuccessKeyword = r.config.Target.SuccessKeyword

	return r.detector(signals).Await(ctx, r.config.Timeouts.Result()), warnings, nil
}

// csrfToken reads the anti-forgery token from the page's meta tag
func (r *Runner) csrfToken(ctx context.Context) (string, bool) {
	meta, err := r.session.Locate(ctx, browser.CSS(r.config.Target.CSRFMetaSelector))
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			r.logger.WithError(err).Debug("Token lookup failed")
		}
		r.logger.SecurityEvent("csrf_token_missing", "no element matches "+r.config.Target.CSRFMetaSelector)
		return "", false
	}

	token, ok, err := meta.Attribute("content")
	if err != nil || !ok || token == "" {
		r.logger.SecurityEvent("csrf_token_missing", "meta tag has no content")
		return "", false
	}

	r.logger.Debug("Extracted anti-forgery token")
	return token, true
}

// acceptTerms scrolls the terms checkbox into view and checks it, leaving
// an already checked box alone
func (r *Runner) acceptTerms(ctx context.Context) error {
	if err := r.driver.ScrollTo(ctx, termsField); err != nil {
		return err
	}
	if err := r.sim.ActionDelay(ctx); err != nil {
		return err
	}

	// keep the box clear of the sticky footer
	if err := r.session.ScrollBy(ctx, -100); err != nil {
		return fmt.Errorf("scroll: %w: %v", result.ErrTargetUnavailable, err)
	}

	checked, err := r.driver.Checked(ctx, termsField)
	if err != nil {
		return err
	}
	if checked {
		r.logger.FieldAction(termsField, "already_checked")
		return nil
	}

	if err := r.sim.ActionDelay(ctx); err != nil {
		return err
	}
	if err := r.driver.ForceClick(ctx, termsField); err != nil {
		return err
	}

	checked, err = r.driver.Checked(ctx, termsField)
	if err != nil {
		return err
	}
	r.logger.WithField("checked", checked).Info("Terms checkbox clicked")
	return nil
}
