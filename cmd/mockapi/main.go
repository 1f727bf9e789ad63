// VoxForm mock API - local stand-in for the remote survey service.
//
// Serves the auth, survey, and AI routes the SDK talks to, with an optional
// flaky mode (MOCK_FLAKY_FAILURES=N fails the first N hits of each route
// with a 500) for watching client retries, and an artificial delay on the AI
// summary route.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/voxform/voxform-go/config"
	"github.com/voxform/voxform-go/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	srv := newMockServer()

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(srv.flaky)

	r.Post("/auth/login", srv.handleLogin)
	r.Post("/auth/register", srv.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(srv.requireAuth)
		r.Get("/surveys", srv.handleListSurveys)
		r.Post("/surveys", srv.handleCreateSurvey)
		r.Post("/surveys/{id}/responses", srv.handleCreateResponse)
		r.Post("/ai/summary", srv.handleSummary)
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Mock API listening", "port", cfg.Port, "flaky_failures", srv.flakyFailures)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

type survey struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	Responses int       `json:"responses"`
	CreatedAt time.Time `json:"created_at"`
}

type mockServer struct {
	mu            sync.Mutex
	tokens        map[string]session.UserProfile
	surveys       []survey
	flakyFailures int
	flakyHits     map[string]int
	summaryDelay  time.Duration
}

func newMockServer() *mockServer {
	s := &mockServer{
		tokens:    make(map[string]session.UserProfile),
		flakyHits: make(map[string]int),
		surveys: []survey{
			{ID: "svy_1", Title: "Customer onboarding feedback", Published: true, Responses: 42, CreatedAt: time.Now().Add(-72 * time.Hour)},
			{ID: "svy_2", Title: "Q3 pulse check", Published: false, Responses: 0, CreatedAt: time.Now().Add(-2 * time.Hour)},
		},
	}
	if n, err := strconv.Atoi(os.Getenv("MOCK_FLAKY_FAILURES")); err == nil {
		s.flakyFailures = n
	}
	if ms, err := strconv.Atoi(os.Getenv("MOCK_SUMMARY_DELAY_MS")); err == nil {
		s.summaryDelay = time.Duration(ms) * time.Millisecond
	}
	return s
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// flaky fails the first N hits of each route with a 500 so client retry
// behavior can be observed locally.
func (s *mockServer) flaky(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.flakyFailures > 0 {
			key := r.Method + " " + r.URL.Path
			s.mu.Lock()
			s.flakyHits[key]++
			hit := s.flakyHits[key]
			s.mu.Unlock()
			if hit <= s.flakyFailures {
				slog.Info("Flaky mode: failing request", "route", key, "hit", hit, "trace_id", r.Header.Get("X-Request-ID"))
				Error(w, http.StatusInternalServerError, "simulated transient failure")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *mockServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			Error(w, http.StatusUnauthorized, "token invalid or expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *mockServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.Password == "wrong" {
		Error(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	user := session.UserProfile{
		ID:    "usr_" + uuid.NewString()[:8],
		Name:  strings.Split(req.Email, "@")[0],
		Email: req.Email,
	}
	token := uuid.NewString()

	s.mu.Lock()
	s.tokens[token] = user
	s.mu.Unlock()

	slog.Info("Login", "email", req.Email)
	JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *mockServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req session.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{
		"message": "confirmation sent to " + req.Email,
	})
}

func (s *mockServer) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]survey, len(s.surveys))
	copy(out, s.surveys)
	s.mu.Unlock()
	JSON(w, http.StatusOK, out)
}

func (s *mockServer) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	sv := survey{
		ID:        "svy_" + uuid.NewString()[:8],
		Title:     req.Title,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.surveys = append(s.surveys, sv)
	s.mu.Unlock()

	JSON(w, http.StatusCreated, sv)
}

func (s *mockServer) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	found := false
	for i := range s.surveys {
		if s.surveys[i].ID == id {
			s.surveys[i].Responses++
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		Error(w, http.StatusNotFound, "survey not found")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *mockServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SurveyID string `json:"survey_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SurveyID == "" {
		Error(w, http.StatusBadRequest, "survey_id is required")
		return
	}
	if s.summaryDelay > 0 {
		time.Sleep(s.summaryDelay)
	}
	JSON(w, http.StatusOK, map[string]string{
		"survey_id": req.SurveyID,
		"summary":   "Respondents are broadly satisfied; onboarding pace is the most cited pain point.",
	})
}
