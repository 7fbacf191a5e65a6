// Package browser provides the browser session the harness drives, backed by Rod.
// It handles browser launch with anti-automation mitigations, element lookup
// and release of the browser process.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	rodstealth "github.com/go-rod/stealth"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/result"
	"github.com/ysmood/gson"
)

// Fingerprint supplies the randomized identity presented by the browser
type Fingerprint interface {
	UserAgent() string
	Viewport() (int, int)
}

// Browser wraps the Rod browser and its single page
type Browser struct {
	config   *config.Config
	logger   *logger.Logger
	print    Fingerprint
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewBrowser creates a new browser instance
func NewBrowser(cfg *config.Config, log *logger.Logger, fp Fingerprint) *Browser {
	return &Browser{
		config: cfg,
		logger: log.WithModule("browser"),
		print:  fp,
	}
}

// Launch starts a browser process with stealth settings and opens the page
// all scenarios share. Any failure is an ErrSetupFailure and leaves no
// process behind.
func Launch(cfg *config.Config, log *logger.Logger, fp Fingerprint) (*Browser, error) {
	b := NewBrowser(cfg, log, fp)
	if err := b.launch(); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: %v", result.ErrSetupFailure, err)
	}
	return b, nil
}

func (b *Browser) launch() error {
	b.logger.Info("Launching browser")

	// Ensure user data directory exists
	if b.config.Browser.UserDataDir != "" {
		absPath, err := filepath.Abs(b.config.Browser.UserDataDir)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for user data dir: %w", err)
		}
		if err := os.MkdirAll(absPath, 0755); err != nil {
			return fmt.Errorf("failed to create user data directory: %w", err)
		}
		b.config.Browser.UserDataDir = absPath
	}

	// Configure launcher with stealth options
	l := launcher.New().
		Headless(b.config.Browser.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("disable-dev-shm-usage").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-sync").
		Set("disable-translate").
		Set("disable-popup-blocking")

	if b.config.Browser.Bin != "" {
		l = l.Bin(b.config.Browser.Bin)
	}
	if b.config.Browser.UserDataDir != "" {
		l = l.UserDataDir(b.config.Browser.UserDataDir)
	}

	width, height := b.config.Browser.ViewportWidth, b.config.Browser.ViewportHeight
	if b.config.Stealth.RandomizeViewport {
		width, height = b.print.Viewport()
	}
	l = l.Set("window-size", fmt.Sprintf("%d,%d", width, height))
	b.launcher = l

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.browser = rod.New().ControlURL(controlURL)
	if b.config.Browser.SlowMotion > 0 {
		b.browser = b.browser.SlowMotion(time.Duration(b.config.Browser.SlowMotion) * time.Millisecond)
	}

	if err := b.browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	b.logger.Info("Browser launched successfully")
	return b.createPage(width, height)
}

// createPage creates the stealth page with viewport and user agent applied
func (b *Browser) createPage(width, height int) error {
	var err error
	b.page, err = rodstealth.Page(b.browser)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	err = b.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	if err != nil {
		b.logger.WithError(err).Warn("Failed to set viewport")
	}

	if b.config.Stealth.RandomUserAgent {
		userAgent := b.print.UserAgent()
		err = b.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: userAgent,
		})
		if err != nil {
			b.logger.WithError(err).Warn("Failed to set user agent")
		} else {
			b.logger.WithField("user_agent", userAgent).Debug("User agent set")
		}
	}

	if b.config.Stealth.DisableWebdriver {
		if _, err := b.page.EvalOnNewDocument(stealthScript); err != nil {
			b.logger.WithError(err).Warn("Failed to register fingerprint mask")
		}
	}

	b.logger.Info("Page created with stealth settings")
	return nil
}

// stealthScript runs before any page script on every new document
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined
	});

	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en']
	});

	Object.defineProperty(screen, 'availWidth', { get: () => screen.width });
	Object.defineProperty(screen, 'availHeight', { get: () => screen.height - 40 });
`

// Navigate navigates to a URL and waits for the load event
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.logger.BrowserAction("navigate", url)

	p := b.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", err)
	}

	return nil
}

// Locate resolves a locator without retrying
func (b *Browser) Locate(ctx context.Context, loc Locator) (Element, error) {
	p := b.page.Context(ctx).Sleeper(rod.NotFoundSleeper)

	var el *rod.Element
	var err error
	switch loc.Strategy {
	case ByID:
		el, err = p.Element(`[id="` + loc.Value + `"]`)
	case ByLinkText:
		el, err = p.ElementR("a", `^\s*`+regexp.QuoteMeta(loc.Value)+`\s*$`)
	default:
		el, err = p.Element(loc.Value)
	}

	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
		}
		return nil, err
	}

	return &rodElement{el: el}, nil
}

// Eval runs a JavaScript function expression in the page
func (b *Browser) Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := b.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// MouseTo moves the pointer to viewport coordinates in one step
func (b *Browser) MouseTo(ctx context.Context, x, y float64) error {
	return b.page.Context(ctx).Mouse.MoveLinear(proto.NewPoint(x, y), 1)
}

// ScrollBy scrolls the window vertically
func (b *Browser) ScrollBy(ctx context.Context, dy float64) error {
	_, err := b.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

// URL returns the current page URL
func (b *Browser) URL() string {
	if b.page == nil {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close closes the page and the browser and reaps the browser process.
// It is safe to call on a partially launched browser and more than once.
func (b *Browser) Close() error {
	b.logger.Info("Closing browser")

	var err error
	if b.page != nil {
		b.page.Close()
		b.page = nil
	}

	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}

	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}

	return err
}

// rodElement adapts a Rod element to Element
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) ForceClick() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

func (e *rodElement) Clear() error {
	_, err := e.el.Eval(`() => {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`)
	return err
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Backspace() error {
	return e.el.Type(input.Backspace)
}

func (e *rodElement) Select(value string) error {
	return e.el.Select([]string{`[value="` + value + `"]`}, true, rod.SelectorTypeCSSSector)
}

func (e *rodElement) RemoveAttribute(name string) error {
	_, err := e.el.Eval(`(name) => this.removeAttribute(name)`, name)
	return err
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Selected() (bool, error) {
	v, err := e.el.Property("checked")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (e *rodElement) Interactable() (bool, error) {
	visible, err := e.el.Visible()
	if err != nil || !visible {
		return false, err
	}
	disabled, err := e.el.Disabled()
	if err != nil {
		return false, err
	}
	return !disabled, nil
}

func (e *rodElement) ScrollIntoView() error {
	_, err := e.el.Eval(`() => this.scrollIntoView({ behavior: 'smooth', block: 'center' })`)
	return err
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Center() (float64, float64, error) {
	shape, err := e.el.Shape()
	if err != nil {
		return 0, 0, err
	}
	box := shape.Box()
	if box == nil {
		return 0, 0, fmt.Errorf("element has no layout box")
	}
	return box.X + box.Width/2, box.Y + box.Height/2, nil
}
var _ Session = (*Browser)(nil)
