package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateUserSendsAdminPayload(t *testing.T) {
	userID := uuid.NewString()
	collaborator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/admin/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer service-key" || r.Header.Get("apikey") != "service-key" {
			t.Errorf("missing service credential headers")
		}
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.EmailConfirm {
			t.Errorf("expected email_confirm true")
		}
		if req.UserMetadata["full_name"] != "Maya Chen" {
			t.Errorf("expected full_name metadata, got %v", req.UserMetadata)
		}
		json.NewEncoder(w).Encode(User{ID: userID, Email: req.Email})
	}))
	defer collaborator.Close()

	client := NewClient(collaborator.URL, "service-key", 5*time.Second)
	user, err := client.CreateUser(context.Background(), "maya@example.com", "secret123", "Maya Chen")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID != userID || user.Email != "maya@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestCreateUserSurfacesCollaboratorMessage(t *testing.T) {
	collaborator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"msg":"A user with this email address has already been registered"}`))
	}))
	defer collaborator.Close()

	client := NewClient(collaborator.URL, "service-key", 5*time.Second)
	_, err := client.CreateUser(context.Background(), "dup@example.com", "secret123", "Dup")
	var collabErr *Error
	if !errors.As(err, &collabErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if collabErr.Message != "A user with this email address has already been registered" {
		t.Fatalf("expected collaborator message, got %q", collabErr.Message)
	}
	if collabErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", collabErr.StatusCode)
	}
}

func TestInsertProfileNullGrade(t *testing.T) {
	collaborator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/profiles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if string(raw["grade"]) != "null" {
			t.Errorf("expected explicit null grade, got %s", raw["grade"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer collaborator.Close()

	client := NewClient(collaborator.URL, "service-key", 5*time.Second)
	err := client.InsertProfile(context.Background(), Profile{
		ID:       uuid.NewString(),
		Email:    "maya@example.com",
		FullName: "Maya Chen",
		Role:     "student",
	})
	if err != nil {
		t.Fatalf("insert profile: %v", err)
	}
}

func TestListProfilesFiltersByRole(t *testing.T) {
	collaborator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("role"); got != "eq.student" {
			t.Errorf("expected role filter, got %q", got)
		}
		grade := 4
		json.NewEncoder(w).Encode([]Profile{
			{ID: uuid.NewString(), Email: "maya@example.com", FullName: "Maya Chen", Role: "student", Grade: &grade},
		})
	}))
	defer collaborator.Close()

	client := NewClient(collaborator.URL, "service-key", 5*time.Second)
	profiles, err := client.ListProfiles(context.Background(), "student", 50)
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].FullName != "Maya Chen" {
		t.Fatalf("unexpected profiles %+v", profiles)
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient("", "", time.Second)
	if _, err := client.CreateUser(context.Background(), "a@b.c", "pw", "A"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
