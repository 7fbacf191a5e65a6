// Package browsertest provides in-memory implementations of browser.Session
// and browser.Element for exercising page logic without a real browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/ysmood/gson"
)

// Element is a scripted page element. The zero value is a visible, enabled,
// empty element.
type Element struct {
	mu sync.Mutex

	Value    string
	Content  string
	Attrs    map[string]string
	Checkbox bool
	Checked  bool
	Hidden   bool
	Disabled bool
	X, Y     float64

	// ClickErr is returned by Click and ForceClick when set
	ClickErr error

	// OnClick runs after every successful Click or ForceClick
	OnClick func()

	calls map[string]int
}

// NewElement returns an element with the given attributes
func NewElement(attrs map[string]string) *Element {
	return &Element{Attrs: attrs}
}

func (e *Element) record(name string) {
	if e.calls == nil {
		e.calls = map[string]int{}
	}
	e.calls[name]++
}

// Calls reports how many times the named method ran
func (e *Element) Calls(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[name]
}

// Interactions is the total number of mutating calls made on the element
func (e *Element) Interactions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for name, c := range e.calls {
		switch name {
		case "Click", "ForceClick", "Clear", "Input", "Backspace", "Select", "RemoveAttribute":
			n += c
		}
	}
	return n
}

// CurrentValue returns the element's value
func (e *Element) CurrentValue() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Value
}

func (e *Element) click(name string) error {
	e.mu.Lock()
	e.record(name)
	if e.ClickErr != nil {
		e.mu.Unlock()
		return e.ClickErr
	}
	if e.Checkbox {
		e.Checked = !e.Checked
	}
	hook := e.OnClick
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) Click() error      { return e.click("Click") }
func (e *Element) ForceClick() error { return e.click("ForceClick") }

func (e *Element) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Clear")
	e.Value = ""
	return nil
}

func (e *Element) Input(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Input")
	e.Value += text
	return nil
}

func (e *Element) Backspace() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Backspace")
	if r := []rune(e.Value); len(r) > 0 {
		e.Value = string(r[:len(r)-1])
	}
	return nil
}

func (e *Element) Select(value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Select")
	e.Value = value
	return nil
}

func (e *Element) RemoveAttribute(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("RemoveAttribute")
	delete(e.Attrs, name)
	return nil
}

func (e *Element) Attribute(name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) Selected() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Checked, nil
}

func (e *Element) Interactable() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Hidden && !e.Disabled, nil
}

func (e *Element) ScrollIntoView() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("ScrollIntoView")
	return nil
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Content, nil
}

func (e *Element) Center() (float64, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.X, e.Y, nil
}

// Session is an in-memory page. Elements are keyed by Locator.String().
type Session struct {
	mu sync.Mutex

	elements map[string]*Element
	visited  []string
	scrolls  []float64
	scripts  []string
	moves    int
	closed   bool

	// NavigateErr is returned by every Navigate call when set
	NavigateErr error

	// EvalFunc answers Eval calls. A nil EvalFunc evaluates to JSON null.
	EvalFunc func(js string, args ...interface{}) (gson.JSON, error)

	// OnNavigate runs after every successful Navigate
	OnNavigate func(url string)

	// Hang makes Navigate to a matching url block until ctx ends
	Hang func(url string) bool
}

// NewSession returns an empty page
func NewSession() *Session {
	return &Session{elements: map[string]*Element{}}
}

// Add places el on the page under loc
func (s *Session) Add(loc browser.Locator, el *Element) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[loc.String()] = el
	return el
}

// Remove takes the element under loc off the page
func (s *Session) Remove(loc browser.Locator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, loc.String())
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.NavigateErr != nil {
		s.mu.Unlock()
		return s.NavigateErr
	}
	s.visited = append(s.visited, url)
	hook, hang := s.OnNavigate, s.Hang
	s.mu.Unlock()

	if hang != nil && hang(url) {
		<-ctx.Done()
		return ctx.Err()
	}

	if hook != nil {
		hook(url)
	}
	return nil
}

func (s *Session) Locate(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[loc.String()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrNotFound)
	}
	return el, nil
}

func (s *Session) Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	if err := ctx.Err(); err != nil {
		return gson.JSON{}, err
	}
	s.mu.Lock()
	s.scripts = append(s.scripts, js)
	fn := s.EvalFunc
	s.mu.Unlock()

	if fn == nil {
		return gson.New(nil), nil
	}
	return fn(js, args...)
}

func (s *Session) MouseTo(ctx context.Context, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves++
	return nil
}

func (s *Session) ScrollBy(ctx context.Context, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls = append(s.scrolls, dy)
	return nil
}

func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.visited) == 0 {
		return "about:blank"
	}
	return s.visited[len(s.visited)-1]
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Visited returns every URL navigated to, in order
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

// Scripts returns every script passed to Eval, in order
func (s *Session) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Scrolls returns every ScrollBy offset, in order
func (s *Session) Scrolls() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.scrolls...)
}

// MouseMoves is the number of pointer moves issued
func (s *Session) MouseMoves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var (
	_ browser.Session = (*Session)(nil)
	_ browser.Element = (*Element)(nil)
)
