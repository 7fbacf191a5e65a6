// Package testsite serves a small stand-in for the marketing and registration
// application the harness targets. It renders the same routes, field ids and
// signals so the scenarios can be exercised against a real browser offline.
package testsite

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/profile"
)

var siteNamePattern = regexp.MustCompile(`^[a-z0-9]{1,20}$`)

// requiredFields must be non-empty in a registration payload
var requiredFields = []string{
	"companyName", "email", "password", "confirmPassword", "siteName",
	"companyAddress", "companyCity", "companyRegionCode", "companyZip", "companyPhone",
	"firstName", "lastName", "userAddress", "userCity", "userRegionCode", "userZip", "userPhone",
}

// Server is the stand-in application
type Server struct {
	router *chi.Mux
	logger *logger.Logger
	token  string

	mu            sync.Mutex
	registrations []map[string]string
	messages      int
}

// New builds the application and its routes
func New(log *logger.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: log.WithModule("testsite"),
		token:  uuid.NewString(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)

	s.router.Get("/", s.page("home"))
	s.router.Get("/pricing", s.page("pricing"))
	s.router.Get("/topics", s.page("topics"))
	s.router.Get("/about", s.page("about"))
	s.router.Get("/terms-of-service", s.page("terms"))
	s.router.Get("/privacy-policy", s.page("privacy"))
	s.router.Get("/contact", s.page("contact"))
	s.router.Post("/contact", s.handleContact)
	s.router.Get("/register", s.page("register"))
	s.router.Post("/api/register", s.handleRegister)

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Token is the anti-forgery token the registration endpoint expects
func (s *Server) Token() string {
	return s.token
}

// Registrations returns every accepted registration payload
func (s *Server) Registrations() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.registrations...)
}

// Messages is the number of accepted contact messages
func (s *Server) Messages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request served")
	})
}

type view struct {
	Page    string
	Token   string
	Regions []string
	Success string
	Error   string
}

func (s *Server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, view{Page: name})
	}
}

func (s *Server) render(w http.ResponseWriter, status int, v view) {
	v.Token = s.token
	v.Regions = profile.RegionCodes()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.Execute(w, v); err != nil {
		s.logger.WithError(err).Error("Failed to render page")
	}
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, view{Page: "contact", Error: "Could not read the form."})
		return
	}

	for _, field := range []string{"name", "email", "subject", "message"} {
		if strings.TrimSpace(r.PostForm.Get(field)) == "" {
			s.render(w, http.StatusUnprocessableEntity, view{Page: "contact", Error: "Please fill in every field."})
			return
		}
	}
	if len(r.PostForm.Get("message")) > 1000 {
		s.render(w, http.StatusUnprocessableEntity, view{Page: "contact", Error: "Your message is too long."})
		return
	}

	s.mu.Lock()
	s.messages++
	s.mu.Unlock()

	s.render(w, http.StatusOK, view{Page: "contact", Success: "Thank you! Your message has been sent."})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if token, _ := req["_csrf"].(string); token != s.token {
		s.logger.Warn("Registration rejected: bad anti-forgery token")
		writeJSON(w, http.StatusForbidden, "Invalid CSRF token")
		return
	}

	fields := make(map[string]string, len(req))
	for k, v := range req {
		if str, ok := v.(string); ok {
			fields[k] = str
		}
	}

	for _, name := range requiredFields {
		if strings.TrimSpace(fields[name]) == "" {
			writeJSON(w, http.StatusUnprocessableEntity, name+" is required")
			return
		}
	}
	if fields["password"] != fields["confirmPassword"] {
		writeJSON(w, http.StatusUnprocessableEntity, "Passwords do not match")
		return
	}
	if !siteNamePattern.MatchString(fields["siteName"]) {
		writeJSON(w, http.StatusUnprocessableEntity, "Site name may only contain lowercase letters and numbers")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.registrations {
		if existing["siteName"] == fields["siteName"] {
			writeJSON(w, http.StatusConflict, "Site name already exists")
			return
		}
	}
	s.registrations = append(s.registrations, fields)

	writeJSON(w, http.StatusOK, "Registration successful")
}

func writeJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
