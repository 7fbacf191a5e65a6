package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/browser/browsertest"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/driver"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/profile"
	"github.com/nikshitha/signup-harness/result"
	"github.com/nikshitha/signup-harness/stealth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = "http://harness.test"
	cfg.Stealth = config.StealthConfig{}
	cfg.Timeouts = config.TimeoutConfig{
		WaitReadyMs:     100,
		ResultMs:        200,
		ContactResultMs: 200,
		PollIntervalMs:  5,
	}
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, session browser.Session) *Runner {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	sim := stealth.NewSimulator(&cfg.Stealth, log, rand.New(rand.NewSource(1)))
	return NewRunner(cfg, log, session, sim, profile.NewGenerator(cfg.Profile, 42))
}

// registrationPage lays out every registration field plus the token meta tag
func registrationPage(session *browsertest.Session) map[string]*browsertest.Element {
	elements := map[string]*browsertest.Element{}
	for _, b := range driver.RegistrationFields {
		el := &browsertest.Element{}
		if b.Name == "agreeTerms" {
			el.Checkbox = true
		}
		elements[b.Name] = session.Add(b.Locator, el)
	}
	session.Add(browser.CSS(`meta[name="csrf-token"]`), browsertest.NewElement(map[string]string{"content": "tok-123"}))
	return elements
}

// endpoint stands in for the registration API. It answers the in-page
// submission and serves the stored outcome to completion reads.
type endpoint struct {
	mu       sync.Mutex
	response map[string]interface{}
	silent   bool
	calls    int
	url      string
	payload  map[string]interface{}
}

func (e *endpoint) install(session *browsertest.Session) {
	session.EvalFunc = func(js string, args ...interface{}) (gson.JSON, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		if strings.Contains(js, "fetch(") {
			e.calls++
			e.url = args[0].(string)
			e.payload = args[1].(map[string]interface{})
			return gson.New(true), nil
		}
		if e.calls == 0 || e.silent {
			return gson.New(nil), nil
		}
		// rod hands Eval results back as raw JSON bytes
		raw, err := json.Marshal(map[string]interface{}{"ok": true, "status": 200, "body": e.response})
		if err != nil {
			return gson.JSON{}, err
		}
		return gson.NewFrom(string(raw)), nil
	}
}

func TestRegistrationSuccess(t *testing.T) {
	cfg := testConfig()
	session := browsertest.NewSession()
	elements := registrationPage(session)
	api := &endpoint{response: map[string]interface{}{"message": "Registration successful"}}
	api.install(session)

	r := newTestRunner(t, cfg, session).Registration(context.Background())

	assert.Equal(t, result.StatusSuccess, r.Status, r.Message)
	assert.Equal(t, NameRegistration, r.Scenario)
	assert.Equal(t, "Registration successful", r.Message)
	assert.Empty(t, r.Warnings)

	assert.Equal(t, []string{"http://harness.test/register"}, session.Visited())
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "/api/register", api.url)
	assert.Equal(t, "tok-123", api.payload["_csrf"])
	assert.Equal(t, elements["siteName"].CurrentValue(), api.payload["siteName"])
	assert.Equal(t, api.payload["password"], api.payload["confirmPassword"])

	assert.NotEmpty(t, elements["companyName"].CurrentValue())
	assert.Len(t, elements["companyRegionCode"].CurrentValue(), 2)
	assert.Equal(t, 1, elements["companyRegionCode"].Calls("Select"))
	assert.Equal(t, 1, elements["agreeTerms"].Calls("ForceClick"))
	checked, _ := elements["agreeTerms"].Selected()
	assert.True(t, checked)
	assert.Contains(t, session.Scrolls(), float64(-100))
}

func TestRegistrationLeavesCheckedTermsAlone(t *testing.T) {
	session := browsertest.NewSession()
	elements := registrationPage(session)
	elements["agreeTerms"].Checked = true
	(&endpoint{response: map[string]interface{}{"message": "Registration successful"}}).install(session)

	r := newTestRunner(t, testConfig(), session).Registration(context.Background())

	assert.Equal(t, result.StatusSuccess, r.Status)
	assert.Zero(t, elements["agreeTerms"].Calls("ForceClick"))
	assert.Zero(t, elements["agreeTerms"].Calls("Click"))
	checked, _ := elements["agreeTerms"].Selected()
	assert.True(t, checked)
}

func TestRegistrationWithoutTokenWarns(t *testing.T) {
	session := browsertest.NewSession()
	registrationPage(session)
	session.Remove(browser.CSS(`meta[name="csrf-token"]`))
	api := &endpoint{response: map[string]interface{}{"message": "Registration successful"}}
	api.install(session)

	r := newTestRunner(t, testConfig(), session).Registration(context.Background())

	assert.Equal(t, result.StatusSuccess, r.Status)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "anti-forgery token missing")

	token, present := api.payload["_csrf"]
	assert.True(t, present)
	assert.Nil(t, token)
}

func TestRegistrationServerRejection(t *testing.T) {
	session := browsertest.NewSession()
	registrationPage(session)
	(&endpoint{response: map[string]interface{}{"message": "Site name already exists"}}).install(session)

	r := newTestRunner(t, testConfig(), session).Registration(context.Background())

	assert.Equal(t, result.StatusFailure, r.Status)
	assert.Equal(t, "Site name already exists", r.Message)
}

func TestRegistrationWithoutResponseIsIndeterminate(t *testing.T) {
	session := browsertest.NewSession()
	registrationPage(session)
	(&endpoint{silent: true}).install(session)

	r := newTestRunner(t, testConfig(), session).Registration(context.Background())

	assert.Equal(t, result.StatusIndeterminate, r.Status)
	assert.False(t, r.Passed())
}

func TestRegistrationMissingFieldFails(t *testing.T) {
	session := browsertest.NewSession()
	registrationPage(session)
	session.Remove(browser.ID("companyZip"))
	api := &endpoint{response: map[string]interface{}{"message": "Registration successful"}}
	api.install(session)

	r := newTestRunner(t, testConfig(), session).Registration(context.Background())

	assert.Equal(t, result.StatusFailure, r.Status)
	assert.Contains(t, r.Message, "companyZip")
	assert.Contains(t, r.Message, result.ErrTargetUnavailable.Error())
	assert.Zero(t, api.calls)
}

func TestNavigationRecordsEachDestination(t *testing.T) {
	session := browsertest.NewSession()
	links := map[string]*browsertest.Element{}
	for _, text := range []string{"Pricing", "Topics", "About"} {
		links[text] = session.Add(browser.LinkText(text), &browsertest.Element{X: 300, Y: 40})
	}

	results := newTestRunner(t, testConfig(), session).Navigation(context.Background())

	require.Len(t, results, 5)
	assert.Equal(t, "navigation:home", results[0].Scenario)
	assert.Equal(t, result.StatusSuccess, results[0].Status)
	for i, name := range []string{"pricing", "topics", "about"} {
		assert.Equal(t, "navigation:"+name, results[i+1].Scenario)
		assert.Equal(t, result.StatusSuccess, results[i+1].Status)
	}
	assert.Equal(t, "navigation:contact", results[4].Scenario)
	assert.Equal(t, result.StatusFailure, results[4].Status)

	for text, el := range links {
		assert.Equal(t, 1, el.Calls("Click"), text)
	}
	assert.Positive(t, session.MouseMoves())
}

func TestNavigationHomeUnreachable(t *testing.T) {
	session := browsertest.NewSession()
	session.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	results := newTestRunner(t, testConfig(), session).Navigation(context.Background())

	require.Len(t, results, 1)
	assert.Equal(t, result.StatusFailure, results[0].Status)
	assert.Contains(t, results[0].Message, "ERR_NAME_NOT_RESOLVED")
}

func TestLegalPagesKeywordIsSoft(t *testing.T) {
	session := browsertest.NewSession()
	session.OnNavigate = func(url string) {
		content := "Our commitment to you"
		if strings.HasSuffix(url, "/terms-of-service") {
			content = "TERMS OF SERVICE\nLast updated"
		}
		session.Add(browser.CSS("body"), &browsertest.Element{Content: content})
	}

	results := newTestRunner(t, testConfig(), session).LegalPages(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "legal:terms", results[0].Scenario)
	assert.Equal(t, result.StatusSuccess, results[0].Status)
	assert.Empty(t, results[0].Warnings)

	assert.Equal(t, "legal:privacy", results[1].Scenario)
	assert.Equal(t, result.StatusSuccess, results[1].Status)
	require.Len(t, results[1].Warnings, 1)
	assert.Contains(t, results[1].Warnings[0], "privacy")
}

func contactPage(session *browsertest.Session) map[string]*browsertest.Element {
	elements := map[string]*browsertest.Element{}
	for _, b := range driver.ContactFields {
		elements[b.Name] = session.Add(b.Locator, &browsertest.Element{})
	}
	return elements
}

func TestContactFormSuccessBanner(t *testing.T) {
	session := browsertest.NewSession()
	elements := contactPage(session)
	elements["contactSubmitBtn"].OnClick = func() {
		session.Add(browser.CSS(".alert-success"), &browsertest.Element{Content: "Message sent!"})
	}

	r := newTestRunner(t, testConfig(), session).ContactForm(context.Background())

	assert.Equal(t, result.StatusSuccess, r.Status, r.Message)
	assert.Equal(t, NameContactForm, r.Scenario)
	assert.Equal(t, "Message sent!", r.Message)
	assert.NotEmpty(t, elements["contactName"].CurrentValue())
	assert.Contains(t, elements["contactEmail"].CurrentValue(), "@")
	assert.LessOrEqual(t, len(elements["contactMessage"].CurrentValue()), 200)
	assert.Equal(t, 1, elements["contactSubmitBtn"].Calls("ScrollIntoView"))
	assert.Equal(t, 1, elements["contactSubmitBtn"].Calls("ForceClick"))
}

func TestContactFormWithoutBannerIsIndeterminate(t *testing.T) {
	session := browsertest.NewSession()
	contactPage(session)

	r := newTestRunner(t, testConfig(), session).ContactForm(context.Background())

	assert.Equal(t, result.StatusIndeterminate, r.Status)
}

func TestRunContinuesAfterFailures(t *testing.T) {
	session := browsertest.NewSession()
	session.NavigateErr = errors.New("connection refused")

	results := newTestRunner(t, testConfig(), session).Run(context.Background())

	var names []string
	for _, r := range results {
		names = append(names, r.Scenario)
		assert.Equal(t, result.StatusFailure, r.Status)
	}
	assert.Equal(t, []string{"navigation:home", "legal:terms", "legal:privacy", "contact", "registration"}, names)
}

func TestHungNavigationOnlyFailsItsOwnScenario(t *testing.T) {
	cfg := testConfig()
	cfg.Browser.Timeout = 1
	cfg.Scenarios.ContactForm = false
	cfg.Scenarios.Registration = false

	session := browsertest.NewSession()
	session.Hang = func(url string) bool { return url == "http://harness.test/" }
	session.OnNavigate = func(url string) {
		session.Add(browser.CSS("body"), &browsertest.Element{Content: "Terms of Service and Privacy Policy"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	results := newTestRunner(t, cfg, session).Run(ctx)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, results, 3)
	assert.Equal(t, "navigation:home", results[0].Scenario)
	assert.Equal(t, result.StatusFailure, results[0].Status)
	assert.Contains(t, results[0].Message, "deadline exceeded")

	for _, r := range results[1:] {
		assert.Equal(t, result.StatusSuccess, r.Status, "%s: %s", r.Scenario, r.Message)
	}
	assert.NoError(t, ctx.Err(), "the run budget must outlive one hung page")
}

func TestRunSkipsDisabledScenarios(t *testing.T) {
	cfg := testConfig()
	cfg.Scenarios.Navigation = false
	cfg.Scenarios.LegalPages = false
	cfg.Scenarios.ContactForm = false

	session := browsertest.NewSession()
	registrationPage(session)
	(&endpoint{response: map[string]interface{}{"message": "Registration successful"}}).install(session)

	results := newTestRunner(t, cfg, session).Run(context.Background())

	require.Len(t, results, 1)
	assert.Equal(t, NameRegistration, results[0].Scenario)
	assert.Equal(t, result.StatusSuccess, results[0].Status)
}

func TestGuardRecoversPanic(t *testing.T) {
	runner := newTestRunner(t, testConfig(), browsertest.NewSession())

	results := runner.guard(context.Background(), step{
		name:    "exploding",
		enabled: true,
		run: func(context.Context) []result.ScenarioResult {
			panic("nil element")
		},
	})

	require.Len(t, results, 1)
	assert.Equal(t, result.StatusFailure, results[0].Status)
	assert.Equal(t, "exploding", results[0].Scenario)
	assert.Contains(t, results[0].Message, "nil element")
}
