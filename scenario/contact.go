package scenario

import (
	"context"

	"github.com/nikshitha/signup-harness/result"
)

// ContactForm fills the contact form with generated data, submits it with a
// forced click and waits for a banner
func (r *Runner) ContactForm(ctx context.Context) result.ScenarioResult {
	if err := r.navigate(ctx, r.config.URL(r.config.Target.ContactPath)); err != nil {
		return result.FromError(NameContactForm, err)
	}

	contact := r.profiles.Contact(r.config.Scenarios.ContactMaxLength)
	r.logger.WithFields(map[string]interface{}{
		"name":    contact.Name,
		"email":   contact.Email,
		"subject": contact.Subject,
	}).Info("Generated contact data")

	fields := []struct{ name, value string }{
		{"contactName", contact.Name},
		{"contactEmail", contact.Email},
		{"contactSubject", contact.Subject},
		{"contactMessage", contact.Message},
	}
	for _, f := range fields {
		if err := r.driver.Fill(ctx, f.name, f.value); err != nil {
			return result.FromError(NameContactForm, err)
		}
	}

	if err := r.driver.ScrollTo(ctx, "contactSubmitBtn"); err != nil {
		return result.FromError(NameContactForm, err)
	}
	if err := r.sim.ActionDelay(ctx); err != nil {
		return result.FromError(NameContactForm, err)
	}
	if err := r.driver.ForceClick(ctx, "contactSubmitBtn"); err != nil {
		return result.FromError(NameContactForm, err)
	}

	r.logger.Info("Contact form submitted, waiting for response")
	return r.detector(r.bannerSignals()).
		Await(ctx, r.config.Timeouts.ContactResult()).
		Named(NameContactForm)
}
