package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ysmood/gson"
)

var (
	// ErrNotFound is returned by Locate when nothing on the page matches
	ErrNotFound = errors.New("element not found")

	// ErrWaitTimeout is returned by WaitUntil when the condition never held
	ErrWaitTimeout = errors.New("wait timed out")
)

// Strategy selects how a Locator resolves against the live page
type Strategy int

const (
	ByID Strategy = iota
	ByCSS
	ByLinkText
)

// Locator is a way of finding one element on the page. It holds no element
// reference and is resolved fresh on every use.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID locates an element by its id attribute
func ID(id string) Locator { return Locator{Strategy: ByID, Value: id} }

// CSS locates an element by CSS selector
func CSS(selector string) Locator { return Locator{Strategy: ByCSS, Value: selector} }

// LinkText locates an anchor by its visible text
func LinkText(text string) Locator { return Locator{Strategy: ByLinkText, Value: text} }

func (l Locator) String() string {
	switch l.Strategy {
	case ByID:
		return "#" + l.Value
	case ByLinkText:
		return fmt.Sprintf("link(%q)", l.Value)
	default:
		return l.Value
	}
}

// Element is a resolved handle on a live page element
type Element interface {
	// Click performs a native mouse click
	Click() error
	// ForceClick dispatches a click from script, bypassing overlays that would intercept the pointer
	ForceClick() error
	// Clear empties the element's value
	Clear() error
	// Input emits text as keystrokes into the element
	Input(text string) error
	// Backspace deletes the character before the caret
	Backspace() error
	// Select chooses the option with the given value
	Select(value string) error
	RemoveAttribute(name string) error
	Attribute(name string) (string, bool, error)
	Selected() (bool, error)
	Interactable() (bool, error)
	ScrollIntoView() error
	Text() (string, error)
	// Center returns the viewport coordinates of the element's center
	Center() (float64, float64, error)
}

// Session is a controllable browser tab
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Locate resolves loc once without waiting. It returns ErrNotFound when
	// nothing matches.
	Locate(ctx context.Context, loc Locator) (Element, error)
	// Eval runs a JavaScript function expression in the page and returns its value
	Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error)
	MouseTo(ctx context.Context, x, y float64) error
	ScrollBy(ctx context.Context, dy float64) error
	URL() string
	Close() error
}

// WaitUntil polls check every interval until it reports true. It returns
// ErrWaitTimeout once timeout elapses, the first error check returns, or the
// context error if ctx ends first.
func WaitUntil(ctx context.Context, timeout, interval time.Duration, check func(ctx context.Context) (bool, error)) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrWaitTimeout
		case <-ticker.C:
		}
	}
}
