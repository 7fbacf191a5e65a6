// Package driver performs field-level page interactions: waiting for an
// element to become usable, filling text fields and picking dropdown values
// through the human interaction simulator.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/result"
	"github.com/nikshitha/signup-harness/stealth"
)

// Driver fills forms on the session's current page
type Driver struct {
	session  browser.Session
	sim      *stealth.Simulator
	bindings Bindings
	timeouts config.TimeoutConfig
	logger   *logger.Logger
}

// New creates a driver. Names without a binding resolve to the element with that id.
func New(session browser.Session, sim *stealth.Simulator, bindings Bindings, timeouts config.TimeoutConfig, log *logger.Logger) *Driver {
	return &Driver{
		session:  session,
		sim:      sim,
		bindings: bindings,
		timeouts: timeouts,
		logger:   log.WithModule("driver"),
	}
}

func (d *Driver) binding(name string) FieldBinding {
	if b, ok := d.bindings[name]; ok {
		return b
	}
	return Field(name)
}

// Fill types value into the named field. An optional field with an empty
// value is left untouched. A read-only attribute is removed before typing.
func (d *Driver) Fill(ctx context.Context, name, value string) error {
	b := d.binding(name)
	if b.Optional && value == "" {
		d.logger.FieldAction(name, "skip")
		return nil
	}

	el, err := d.WaitReady(ctx, b.Locator, d.timeouts.WaitReady())
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}

	if _, readonly, err := el.Attribute("readonly"); err == nil && readonly {
		if err := el.RemoveAttribute("readonly"); err != nil {
			return fmt.Errorf("field %s: unlock: %w: %v", name, result.ErrTargetUnavailable, err)
		}
		d.logger.FieldAction(name, "unlock")
	}

	d.logger.FieldAction(name, "fill")
	if err := d.sim.Type(ctx, el, value); err != nil {
		return fmt.Errorf("field %s: %w: %v", name, result.ErrTargetUnavailable, err)
	}
	return nil
}

// PickDropdown selects the option with value in the named dropdown
func (d *Driver) PickDropdown(ctx context.Context, name, value string) error {
	el, err := d.WaitReady(ctx, d.binding(name).Locator, d.timeouts.WaitReady())
	if err != nil {
		return fmt.Errorf("dropdown %s: %w", name, err)
	}

	d.logger.FieldAction(name, "select")
	if err := d.sim.Select(ctx, el, value); err != nil {
		return fmt.Errorf("dropdown %s: %w: %v", name, result.ErrTargetUnavailable, err)
	}
	return nil
}

// Element waits for the named field and returns it
func (d *Driver) Element(ctx context.Context, name string) (browser.Element, error) {
	el, err := d.WaitReady(ctx, d.binding(name).Locator, d.timeouts.WaitReady())
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return el, nil
}

// ForceClick clicks the named element from script, which lands even when
// another element overlays it
func (d *Driver) ForceClick(ctx context.Context, name string) error {
	el, err := d.Element(ctx, name)
	if err != nil {
		return err
	}

	d.logger.FieldAction(name, "force_click")
	if err := el.ForceClick(); err != nil {
		return fmt.Errorf("field %s: click: %w: %v", name, result.ErrTargetUnavailable, err)
	}
	return nil
}

// ScrollTo brings the named element to the middle of the viewport
func (d *Driver) ScrollTo(ctx context.Context, name string) error {
	el, err := d.Element(ctx, name)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("field %s: scroll: %w: %v", name, result.ErrTargetUnavailable, err)
	}
	return nil
}

// Checked reports whether the named checkbox is checked
func (d *Driver) Checked(ctx context.Context, name string) (bool, error) {
	el, err := d.Element(ctx, name)
	if err != nil {
		return false, err
	}
	checked, err := el.Selected()
	if err != nil {
		return false, fmt.Errorf("field %s: %w: %v", name, result.ErrTargetUnavailable, err)
	}
	return checked, nil
}

// WaitReady polls until the element behind loc is present and interactable.
// It fails with ErrTargetUnavailable once timeout elapses.
func (d *Driver) WaitReady(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	var ready browser.Element

	err := browser.WaitUntil(ctx, timeout, d.timeouts.PollInterval(), func(ctx context.Context) (bool, error) {
		el, err := d.session.Locate(ctx, loc)
		if errors.Is(err, browser.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		// the page may re-render between lookup and check
		ok, err := el.Interactable()
		if err != nil || !ok {
			return false, nil
		}
		ready = el
		return true, nil
	})

	switch {
	case err == nil:
		return ready, nil
	case errors.Is(err, browser.ErrWaitTimeout):
		d.logger.WithField("locator", loc.String()).Warn("Element not ready before timeout")
		return nil, fmt.Errorf("%s not ready after %s: %w", loc, timeout, result.ErrTargetUnavailable)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%s: %w: %v", loc, result.ErrTargetUnavailable, err)
	}
}
