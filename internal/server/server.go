package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/post-pilot/internal/types"
)

// Runner executes one full pipeline run.
type Runner interface {
	Run(ctx context.Context) (*types.RunResult, string, error)
}

// Config holds server configuration.
type Config struct {
	Addr          string
	JWTSecret     string
	JWTExpiration time.Duration
}

// runState tracks one triggered run in memory.
type runState struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	StartedAt time.Time        `json:"started_at"`
	RunDir    string           `json:"run_dir,omitempty"`
	Error     string           `json:"error,omitempty"`
	Result    *types.RunResult `json:"result,omitempty"`
}

// Server exposes run triggering and inspection over HTTP.
type Server struct {
	httpServer *http.Server
	runner     Runner
	users      *UserService
	jwt        *JWTService

	mu   sync.Mutex
	runs map[string]*runState
}

// New creates a server around a pipeline runner and a user store.
func New(cfg Config, runner Runner, store UserStore) (*Server, error) {
	jwtService, err := NewJWTService(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return nil, err
	}

	s := &Server{
		runner: runner,
		users:  NewUserService(store),
		jwt:    jwtService,
		runs:   make(map[string]*runState),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/runs", s.requireAuth(s.handleCreateRun))
	mux.HandleFunc("GET /api/runs", s.requireAuth(s.handleListRuns))
	mux.HandleFunc("GET /api/runs/{id}", s.requireAuth(s.handleGetRun))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	log.Printf("listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateRun triggers a pipeline run in the background and returns
// immediately with its ID.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	state := &runState{
		ID:        uuid.NewString(),
		Status:    "running",
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.runs[state.ID] = state
	s.mu.Unlock()

	// Snapshot before the goroutine starts mutating the shared state.
	accepted := *state

	go func() {
		// Detached from the request context: the run outlives the
		// HTTP exchange that triggered it.
		result, runDir, err := s.runner.Run(context.Background())

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			state.Status = "failed"
			state.Error = err.Error()
			return
		}
		state.Status = "completed"
		state.RunDir = runDir
		state.Result = result
	}()

	respondJSON(w, http.StatusAccepted, &accepted)
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	// Copy under lock; background runs keep mutating the originals.
	s.mu.Lock()
	states := make([]runState, 0, len(s.runs))
	for _, state := range s.runs {
		states = append(states, *state)
	}
	s.mu.Unlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].StartedAt.After(states[j].StartedAt)
	})
	respondJSON(w, http.StatusOK, states)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	state, ok := s.runs[id]
	var copied runState
	if ok {
		copied = *state
	}
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		return
	}
	respondJSON(w, http.StatusOK, &copied)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
