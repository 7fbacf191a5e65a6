package testsite

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nikshitha/signup-harness/driver"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	site := New(log)
	srv := httptest.NewServer(site)
	t.Cleanup(srv.Close)
	return site, srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postRegistration(t *testing.T, srv *httptest.Server, payload map[string]interface{}) (int, string) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out["message"]
}

func validPayload(token string) map[string]interface{} {
	return map[string]interface{}{
		"companyName":       "Acme Lantern",
		"email":             "jane.doe@acme-lantern.io",
		"password":          "mmmmmmmm",
		"confirmPassword":   "mmmmmmmm",
		"siteName":          "acmelanternx7k",
		"companyAddress":    "12 Main St",
		"companyAddress2":   "",
		"companyCity":       "Austin",
		"companyRegionCode": "TX",
		"companyZip":        "78701",
		"companyPhone":      "(512) 555-1234",
		"firstName":         "Jane",
		"lastName":          "Doe",
		"userAddress":       "9 Elm Rd",
		"userAddress2":      "Apt. 4",
		"userCity":          "Austin",
		"userRegionCode":    "TX",
		"userZip":           "78702",
		"userPhone":         "(512) 555-9876",
		"_csrf":             token,
	}
}

func TestPagesRender(t *testing.T) {
	_, srv := newTestServer(t)

	for path, want := range map[string]string{
		"/":                 "Run your club",
		"/pricing":          "Pricing",
		"/topics":           "Topics",
		"/about":            "About",
		"/terms-of-service": "Terms of Service",
		"/privacy-policy":   "Privacy Policy",
	} {
		status, body := get(t, srv, path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Contains(t, body, want, path)
	}

	status, _ := get(t, srv, "/missing")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRegisterPageCarriesEveryField(t *testing.T) {
	site, srv := newTestServer(t)

	_, body := get(t, srv, "/register")
	assert.Contains(t, body, `<meta name="csrf-token" content="`+site.Token()+`">`)
	for _, b := range driver.RegistrationFields {
		assert.Contains(t, body, `id="`+b.Name+`"`, b.Name)
	}
	assert.Contains(t, body, `<option value="CA">CA</option>`)
}

func TestContactPageCarriesEveryField(t *testing.T) {
	_, srv := newTestServer(t)

	_, body := get(t, srv, "/contact")
	for _, b := range driver.ContactFields {
		assert.Contains(t, body, `id="`+b.Name+`"`, b.Name)
	}
	assert.NotContains(t, body, "alert-success")
}

func TestContactSubmission(t *testing.T) {
	site, srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/contact", url.Values{
		"name":    {"Jane Doe"},
		"email":   {"jane@example.com"},
		"subject": {"Pricing question"},
		"message": {"Do you offer discounts for youth clubs?"},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `class="alert alert-success"`)
	assert.Equal(t, 1, site.Messages())

	resp, err = http.PostForm(srv.URL+"/contact", url.Values{"name": {"Jane"}})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), `class="alert alert-danger"`)
	assert.Equal(t, 1, site.Messages())
}

func TestRegisterAcceptsValidPayload(t *testing.T) {
	site, srv := newTestServer(t)

	status, msg := postRegistration(t, srv, validPayload(site.Token()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Registration successful", msg)
	require.Len(t, site.Registrations(), 1)
	assert.Equal(t, "acmelanternx7k", site.Registrations()[0]["siteName"])

	status, msg = postRegistration(t, srv, validPayload(site.Token()))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Site name already exists", msg)
}

func TestRegisterRejections(t *testing.T) {
	site, srv := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(p map[string]interface{})
		status int
		msg    string
	}{
		{"missing token", func(p map[string]interface{}) { p["_csrf"] = nil }, http.StatusForbidden, "Invalid CSRF token"},
		{"wrong token", func(p map[string]interface{}) { p["_csrf"] = "forged" }, http.StatusForbidden, "Invalid CSRF token"},
		{"missing zip", func(p map[string]interface{}) { delete(p, "companyZip") }, http.StatusUnprocessableEntity, "companyZip is required"},
		{"password mismatch", func(p map[string]interface{}) { p["confirmPassword"] = "nnnnnnnn" }, http.StatusUnprocessableEntity, "Passwords do not match"},
		{"bad site name", func(p map[string]interface{}) { p["siteName"] = "Acme-Lantern" }, http.StatusUnprocessableEntity, "lowercase letters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload(site.Token())
			tt.mutate(p)
			status, msg := postRegistration(t, srv, p)
			assert.Equal(t, tt.status, status)
			assert.True(t, strings.Contains(msg, tt.msg), msg)
		})
	}
	assert.Empty(t, site.Registrations())
}
