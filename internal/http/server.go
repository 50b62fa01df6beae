package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SurajPadalkar17/Kids-Paradise/internal/config"
	"github.com/SurajPadalkar17/Kids-Paradise/internal/gemini"
	"github.com/SurajPadalkar17/Kids-Paradise/internal/identity"
)

// IdentityService is the identity and data collaborator surface the gateway
// depends on.
type IdentityService interface {
	Configured() bool
	CreateUser(ctx context.Context, email, password, fullName string) (identity.User, error)
	DeleteUser(ctx context.Context, userID string) error
	InsertProfile(ctx context.Context, profile identity.Profile) error
	ListProfiles(ctx context.Context, role string, limit int) ([]identity.Profile, error)
}

// ContentRelay forwards a prompt to the generative-AI collaborator.
type ContentRelay interface {
	Configured() bool
	Relay(ctx context.Context, prompt string) (gemini.RelayResult, error)
}

type Server struct {
	cfg      config.Config
	identity IdentityService
	ai       ContentRelay
}

func NewServer(cfg config.Config, identitySvc IdentityService, ai ContentRelay) *Server {
	return &Server{
		cfg:      cfg,
		identity: identitySvc,
		ai:       ai,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// CORS runs first so a disallowed origin never reaches route logic.
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	r.Use(requestLogger)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/generate-content", s.handleGenerateContent)
	r.Get("/api/students", s.handleStudentsHint)
	r.Post("/api/students", s.handleRegisterStudent)
	r.With(s.authMiddleware, s.requireAdmin).Get("/api/admin/students", s.handleListStudents)

	if s.cfg.Production {
		spa := spaHandler(s.cfg.StaticDir)
		r.NotFound(spa)
		r.Get("/", spa)
	} else {
		r.Get("/", s.handleRoot)
	}

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "kidlit-backend",
		"routes":  []string{"/api/health", "/api/generate-content", "/api/students"},
	})
}

// Generate content

type generateContentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "missing_content")
		return
	}
	if !s.ai.Configured() {
		log.Printf("generate-content: provider credential not configured")
		writeError(w, http.StatusInternalServerError, "server_configuration")
		return
	}

	result, err := s.ai.Relay(r.Context(), req.Content)
	if err != nil {
		log.Printf("generate-content: relay failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if result.Payload == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "invalid_provider_response",
			"details": string(result.Body),
		})
		return
	}
	if result.StatusCode < 200 || result.StatusCode > 299 {
		writeJSON(w, result.StatusCode, map[string]any{
			"error":   "provider_error",
			"details": result.Payload,
		})
		return
	}

	// Success: the provider payload goes back verbatim; callers extract
	// generated text from the provider's native shape.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Payload)
}

// Student registration

type registerStudentRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Grade    json.RawMessage `json:"grade"`
	Password string          `json:"password"`
}

type studentResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Grade    *int   `json:"grade"`
	Role     string `json:"role"`
}

func (s *Server) handleStudentsHint(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"hint": "POST to this same path to create a student",
	})
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	missing := missingFields(req)
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "missing_fields",
			"fields": missing,
		})
		return
	}

	// Unparseable grades are stored as null rather than rejected.
	grade := coerceGrade(req.Grade)

	user, err := s.identity.CreateUser(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeCollaboratorError(w, err)
		return
	}
	if user.ID == "" {
		log.Printf("register: collaborator reported success without an account")
		writeError(w, http.StatusInternalServerError, "user_not_returned")
		return
	}

	profile := identity.Profile{
		ID:       user.ID,
		Email:    req.Email,
		FullName: req.Name,
		Role:     "student",
		Grade:    grade,
	}
	if err := s.identity.InsertProfile(r.Context(), profile); err != nil {
		// Compensate the account creation so a failed registration does
		// not leave an orphaned account behind.
		if delErr := s.identity.DeleteUser(r.Context(), user.ID); delErr != nil {
			log.Printf("register: orphaned account %s: profile insert failed and compensation failed: %v", user.ID, delErr)
		}
		writeCollaboratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, studentResponse{
		ID:       user.ID,
		Email:    req.Email,
		FullName: req.Name,
		Grade:    grade,
		Role:     "student",
	})
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	profiles, err := s.identity.ListProfiles(r.Context(), "student", limit)
	if err != nil {
		log.Printf("list students: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]studentResponse, 0, len(profiles))
	for _, profile := range profiles {
		resp = append(resp, studentResponse{
			ID:       profile.ID,
			Email:    profile.Email,
			FullName: profile.FullName,
			Grade:    profile.Grade,
			Role:     profile.Role,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func missingFields(req registerStudentRequest) []string {
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// coerceGrade accepts a JSON number or numeric string; anything else is null.
func coerceGrade(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var number int
	if err := json.Unmarshal(raw, &number); err == nil {
		return &number
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return &parsed
		}
	}
	return nil
}

func writeCollaboratorError(w http.ResponseWriter, err error) {
	var collabErr *identity.Error
	if errors.As(err, &collabErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": collabErr.Message})
		return
	}
	if errors.Is(err, identity.ErrNotConfigured) {
		log.Printf("register: identity collaborator not configured")
		writeError(w, http.StatusInternalServerError, "server_configuration")
		return
	}
	log.Printf("register: collaborator call failed: %v", err)
	writeError(w, http.StatusInternalServerError, "server_error")
}

// Helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
