// Package detect decides the outcome of an asynchronous form submission by
// polling two signal channels: a banner element rendered into the page, and
// a page-scoped variable written by the submission's completion handler.
package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/result"
	"github.com/ysmood/gson"
)

// Signals names the channels a submission can report through. A zero
// locator or empty variable name disables that channel.
type Signals struct {
	SuccessBanner      browser.Locator
	ErrorBanner        browser.Locator
	CompletionVariable string
	SuccessKeyword     string
}

// Submission is the value the completion handler stores in the page:
// {ok, status, body: {message}} on a response, {ok: false, error} when the
// request itself failed
type Submission struct {
	OK      bool
	Status  int
	Message string
	Error   string
}

// ReadSubmission extracts a Submission through gson accessors, which work
// on both raw Eval bytes and already-parsed values
func ReadSubmission(payload gson.JSON) Submission {
	return Submission{
		OK:      payload.Get("ok").Bool(),
		Status:  payload.Get("status").Int(),
		Message: str(payload, "body.message"),
		Error:   str(payload, "error"),
	}
}

func str(j gson.JSON, path string) string {
	v, ok := j.Gets(gson.Path(path)...)
	if !ok {
		return ""
	}
	s, _ := v.Val().(string)
	return s
}

// Detector polls the session for a submission outcome
type Detector struct {
	session  browser.Session
	signals  Signals
	interval time.Duration
	logger   *logger.Logger
}

// New creates a detector polling every interval
func New(session browser.Session, signals Signals, interval time.Duration, log *logger.Logger) *Detector {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Detector{
		session:  session,
		signals:  signals,
		interval: interval,
		logger:   log.WithModule("detect"),
	}
}

// Await polls both channels until one of them reports or timeout elapses.
// The first signal observed decides the result. Without any signal the
// result is indeterminate. The returned result carries no scenario name.
func (d *Detector) Await(ctx context.Context, timeout time.Duration) result.ScenarioResult {
	var outcome *result.ScenarioResult

	err := browser.WaitUntil(ctx, timeout, d.interval, func(ctx context.Context) (bool, error) {
		if r, ok := d.pollBanners(ctx); ok {
			outcome = &r
			return true, nil
		}
		if r, ok := d.pollCompletion(ctx); ok {
			outcome = &r
			return true, nil
		}
		return false, nil
	})

	if outcome != nil {
		return *outcome
	}

	if errors.Is(err, browser.ErrWaitTimeout) {
		d.logger.WithField("timeout", timeout.String()).Warn("No submission signal observed")
		return result.Indeterminate("", fmt.Sprintf("%v within %s", result.ErrSubmissionTimeout, timeout))
	}
	return result.Indeterminate("", fmt.Sprintf("%v: %v", result.ErrSubmissionTimeout, err))
}

func (d *Detector) pollBanners(ctx context.Context) (result.ScenarioResult, bool) {
	if text, ok := d.bannerText(ctx, d.signals.SuccessBanner); ok {
		if text == "" {
			text = "success banner shown"
		}
		return result.Success("", text), true
	}
	if text, ok := d.bannerText(ctx, d.signals.ErrorBanner); ok {
		if text == "" {
			text = "error banner shown"
		}
		return result.Failure("", text), true
	}
	return result.ScenarioResult{}, false
}

// bannerText reports whether a visible element sits behind loc, and its text
func (d *Detector) bannerText(ctx context.Context, loc browser.Locator) (string, bool) {
	if loc.Value == "" {
		return "", false
	}

	el, err := d.session.Locate(ctx, loc)
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			d.logger.WithError(err).Debug("Banner lookup failed")
		}
		return "", false
	}

	if visible, err := el.Interactable(); err != nil || !visible {
		return "", false
	}

	text, err := el.Text()
	if err != nil {
		return "", true
	}
	return strings.TrimSpace(text), true
}

func (d *Detector) pollCompletion(ctx context.Context) (result.ScenarioResult, bool) {
	if d.signals.CompletionVariable == "" {
		return result.ScenarioResult{}, false
	}

	payload, err := d.session.Eval(ctx, `(name) => window[name] === undefined ? null : window[name]`, d.signals.CompletionVariable)
	if err != nil {
		d.logger.WithError(err).Debug("Completion variable read failed")
		return result.ScenarioResult{}, false
	}
	if payload.Nil() {
		return result.ScenarioResult{}, false
	}

	return d.Classify(payload), true
}

// Classify turns a completion payload into a result. The submission
// succeeded when the body's message contains the success keyword,
// compared case-insensitively.
func (d *Detector) Classify(payload gson.JSON) result.ScenarioResult {
	if _, isObject := payload.Val().(map[string]interface{}); !isObject {
		return result.Failure("", fmt.Sprintf("unreadable submission payload: %s", payload.String()))
	}

	sub := ReadSubmission(payload)
	if sub.Error != "" {
		return result.Failure("", "request failed: "+sub.Error)
	}

	msg := sub.Message
	keyword := strings.ToLower(d.signals.SuccessKeyword)
	if msg != "" && keyword != "" && strings.Contains(strings.ToLower(msg), keyword) {
		return result.Success("", msg)
	}

	if msg == "" {
		msg = fmt.Sprintf("response without message (status %d)", sub.Status)
	}
	return result.Failure("", msg)
}
