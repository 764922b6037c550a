package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/lastword/game/config"
	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/service"
	"github.com/wricardo/lastword/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	limiter   *ipLimiter
	staticDir string

	rateLimit  int
	trustProxy bool
	adminToken string
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits each client address to perMinute API requests.
// Zero disables the limit.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// WithTrustedProxy takes client addresses from X-Forwarded-For. Only use it
// when every request arrives through a proxy that appends that header.
func WithTrustedProxy() Option {
	return func(s *Server) { s.trustProxy = true }
}

// WithAdminToken enables the operator endpoints (listing and deleting
// sessions, saving rule sets) for requests carrying it as a bearer token.
func WithAdminToken(token string) Option {
	return func(s *Server) { s.adminToken = token }
}

// WithStaticDir serves the browser client from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:   gameService,
		hub:       hub,
		router:    mux.NewRouter(),
		staticDir: "./static/",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rateLimit > 0 {
		s.limiter = newIPLimiter(s.rateLimit, s.trustProxy, time.Now)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(hlog.NewHandler(log.Logger))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))

	api := s.router.PathPrefix("/api").Subrouter()
	if s.limiter != nil {
		api.Use(s.limiter.middleware)
	}

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.Handle("/sessions", s.requireAdmin(s.handleListSessions)).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.Handle("/sessions/{id}", s.requireAdmin(s.handleDeleteSession)).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/exists", s.handleSessionExists).Methods("GET")

	// Dictionary
	api.HandleFunc("/words/check", s.handleCheckWord).Methods("POST")

	// Rule sets
	api.HandleFunc("/rulesets", s.handleListRuleSets).Methods("GET")
	api.Handle("/rulesets", s.requireAdmin(s.handleCreateRuleSet)).Methods("POST")
	api.HandleFunc("/rulesets/{name}", s.handleGetRuleSet).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Browser client
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses. Unexpected
// errors are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, config.ErrRuleSetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidSessionID), errors.Is(err, config.ErrInvalidRuleSet):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrTooManySessions):
		status = http.StatusServiceUnavailable
	case engine.IsUserError(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionOptions
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	session, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	total := len(sessions)

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "activity" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	// Set defaults
	if sortBy == "" {
		sortBy = "activity"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastActivity, sessions[j].LastActivity
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleSessionExists(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	exists, err := s.service.SessionExists(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"exists":     exists,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Dictionary Handlers

func (s *Server) handleCheckWord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word    string `json:"word"`
		RuleSet string `json:"rule_set,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Word == "" {
		respondError(w, http.StatusBadRequest, "Word is required")
		return
	}

	check, err := s.service.CheckWord(r.Context(), req.RuleSet, req.Word)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, check)
}

// Rule Set Handlers

func (s *Server) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	ruleSets, err := s.service.ListRuleSets(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ruleSets)
}

func (s *Server) handleGetRuleSet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rules, err := s.service.LoadRuleSet(r.Context(), name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rules)
}

func (s *Server) handleCreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string          `json:"id"`
		RuleSet *engine.RuleSet `json:"rule_set"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" || req.RuleSet == nil {
		respondError(w, http.StatusBadRequest, "Rule set id and body are required")
		return
	}

	config.ApplyDefaults(req.RuleSet, req.ID)
	if err := s.service.SaveRuleSet(r.Context(), req.ID, req.RuleSet); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Rule set saved successfully",
		"rule_set_id": req.ID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sessionID := query.Get("session")
	playerID := query.Get("player")
	if sessionID == "" || playerID == "" {
		http.Error(w, "session and player parameters required", http.StatusBadRequest)
		return
	}
	if !service.ValidIdentity(playerID) {
		http.Error(w, "malformed player id", http.StatusBadRequest)
		return
	}

	exists, err := s.service.SessionExists(r.Context(), sessionID)
	if err != nil || !exists {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID, playerID, s.service)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
