package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wricardo/lastword/game/config"
	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/service"
	"github.com/wricardo/lastword/transport/websocket"
)

const (
	testPlayer     = "6f1c1d4e-3b7a-4c2e-9f6d-2a8b5c7d9e01"
	testAdminToken = "operator-secret"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error)
	SessionExistsFunc func(ctx context.Context, sessionID string) (bool, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Dictionary and rules
	CheckWordFunc    func(ctx context.Context, ruleSet, word string) (*service.WordCheck, error)
	ListRuleSetsFunc func(ctx context.Context) ([]*service.RuleSetInfo, error)
	LoadRuleSetFunc  func(ctx context.Context, name string) (*engine.RuleSet, error)
	SaveRuleSetFunc  func(ctx context.Context, name string, rules *engine.RuleSet) error
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, opts)
	}
	return &service.SessionInfo{
		ID:        "test-session",
		RuleSet:   opts.RuleSet,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockGameService) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	if m.SessionExistsFunc != nil {
		return m.SessionExistsFunc(ctx, sessionID)
	}
	return true, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:        sessionID,
		RuleSet:   "hebrew",
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game operations are not reachable over REST.
func (m *MockGameService) Join(ctx context.Context, sessionID string, player engine.PlayerDetails) (*service.JoinResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *MockGameService) Move(ctx context.Context, sessionID, playerID string, placements []engine.TilePlacement, force bool) (*service.MoveResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *MockGameService) Swap(ctx context.Context, sessionID, playerID string, tiles []engine.Tile) (*service.SwapResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *MockGameService) Disconnect(ctx context.Context, sessionID, playerID string) error {
	return nil
}

func (m *MockGameService) Chat(ctx context.Context, sessionID, playerID, message string) error {
	return nil
}

// Dictionary and rules
func (m *MockGameService) CheckWord(ctx context.Context, ruleSet, word string) (*service.WordCheck, error) {
	if m.CheckWordFunc != nil {
		return m.CheckWordFunc(ctx, ruleSet, word)
	}
	return &service.WordCheck{Word: word, RuleSet: ruleSet, Valid: true}, nil
}

func (m *MockGameService) ListRuleSets(ctx context.Context) ([]*service.RuleSetInfo, error) {
	if m.ListRuleSetsFunc != nil {
		return m.ListRuleSetsFunc(ctx)
	}
	return []*service.RuleSetInfo{}, nil
}

func (m *MockGameService) LoadRuleSet(ctx context.Context, name string) (*engine.RuleSet, error) {
	if m.LoadRuleSetFunc != nil {
		return m.LoadRuleSetFunc(ctx, name)
	}
	return engine.DefaultRuleSet(), nil
}

func (m *MockGameService) SaveRuleSet(ctx context.Context, name string, rules *engine.RuleSet) error {
	if m.SaveRuleSetFunc != nil {
		return m.SaveRuleSetFunc(ctx, name, rules)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService, opts ...Option) *Server {
	opts = append([]Option{WithAdminToken(testAdminToken)}, opts...)
	return NewServer(mockService, websocket.NewHub(), opts...)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// adminRequest is makeRequest with the operator token.
func adminRequest(method, path string, body interface{}) *http.Request {
	req := makeRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default rules",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					if opts != (service.CreateSessionOptions{}) {
						t.Errorf("Expected zero options, got %+v", opts)
					}
					return &service.SessionInfo{
						ID:              "k7m2pq",
						RuleSet:         "hebrew",
						RequiredPlayers: 2,
						CreatedAt:       time.Now(),
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "k7m2pq" {
					t.Errorf("Expected session ID k7m2pq, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with options",
			requestBody: map[string]interface{}{"id": "friday-game", "rule_set": "english", "players": 3},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					if opts.ID != "friday-game" || opts.RuleSet != "english" || opts.Players != 3 {
						t.Errorf("Options not decoded: %+v", opts)
					}
					return &service.SessionInfo{ID: opts.ID, RuleSet: opts.RuleSet, RequiredPlayers: opts.Players}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.RuleSet != "english" || resp.RequiredPlayers != 3 {
					t.Errorf("Unexpected session: %+v", resp)
				}
			},
		},
		{
			name:           "Malformed body",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session id",
			requestBody: map[string]string{"id": "has space"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, service.ErrInvalidSessionID
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Duplicate session id",
			requestBody: map[string]string{"id": "taken"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: taken", service.ErrSessionAlreadyExists)
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "Unknown rule set",
			requestBody: map[string]string{"rule_set": "klingon"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: klingon", config.ErrRuleSetNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Server full",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, service.ErrTooManySessions
				}
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("disk on fire")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "internal error" {
					t.Errorf("Expected internal details to be hidden, got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions", tt.requestBody)

			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: base, LastActivity: base.Add(3 * time.Hour)},
			{ID: "mid", CreatedAt: base.Add(time.Hour), LastActivity: base.Add(time.Hour)},
			{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastActivity: base.Add(2 * time.Hour)},
		}
	}

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
		expectTotal int
	}{
		{"default sorts by activity, newest first", "", []string{"old", "new", "mid"}, 3},
		{"sort by creation ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"sort by creation descending", "?sort=created", []string{"new", "mid", "old"}, 3},
		{"limit", "?sort=created&limit=2", []string{"new", "mid"}, 3},
		{"limit larger than list", "?limit=10", []string{"old", "new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, adminRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.expectTotal || resp.Count != len(tt.expectedIDs) {
				t.Errorf("Expected count %d of %d, got %d of %d", len(tt.expectedIDs), tt.expectTotal, resp.Count, resp.Total)
			}
			for i, id := range tt.expectedIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %+v", i, id, resp.Sessions)
					break
				}
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Get existing session",
			sessionID:      "k7m2pq",
			expectedStatus: http.StatusOK,
		},
		{
			name:      "Session not found",
			sessionID: "missing",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "Malformed session id",
			sessionID: "a.b",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, engine.NewUserError(engine.MalformedID)
				}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/"+tt.sessionID, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code == http.StatusOK {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != tt.sessionID {
					t.Errorf("Expected session %s, got %s", tt.sessionID, resp.ID)
				}
			}
		})
	}
}

func TestSessionExists(t *testing.T) {
	mockService := &MockGameService{
		SessionExistsFunc: func(ctx context.Context, sessionID string) (bool, error) {
			return sessionID == "live", nil
		},
	}
	server := setupTestServer(mockService)

	for id, want := range map[string]bool{"live": true, "gone": false} {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/"+id+"/exists", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp struct {
			SessionID string `json:"session_id"`
			Exists    bool   `json:"exists"`
		}
		parseResponse(t, w, &resp)
		if resp.SessionID != id || resp.Exists != want {
			t.Errorf("%s: expected exists=%v, got %+v", id, want, resp)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return service.ErrSessionNotFound
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("DELETE", "/api/sessions/k7m2pq", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "k7m2pq" {
		t.Errorf("Expected k7m2pq to be deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Dictionary and rule set tests

func TestCheckWord(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectValid    bool
	}{
		{"valid word", map[string]string{"word": "שלום", "rule_set": "hebrew"}, http.StatusOK, true},
		{"invalid word", map[string]string{"word": "xyzzy"}, http.StatusOK, false},
		{"missing word", map[string]string{}, http.StatusBadRequest, false},
		{"malformed body", "nope", http.StatusBadRequest, false},
	}

	mockService := &MockGameService{
		CheckWordFunc: func(ctx context.Context, ruleSet, word string) (*service.WordCheck, error) {
			return &service.WordCheck{Word: word, RuleSet: ruleSet, Valid: word != "xyzzy"}, nil
		},
	}
	server := setupTestServer(mockService)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/words/check", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code != http.StatusOK {
				return
			}
			var resp service.WordCheck
			parseResponse(t, w, &resp)
			if resp.Valid != tt.expectValid {
				t.Errorf("Expected valid=%v, got %+v", tt.expectValid, resp)
			}
		})
	}
}

func TestListRuleSets(t *testing.T) {
	mockService := &MockGameService{
		ListRuleSetsFunc: func(ctx context.Context) ([]*service.RuleSetInfo, error) {
			return []*service.RuleSetInfo{
				{ID: "english", Language: "en", Builtin: true},
				{ID: "quick", Language: "en", BoardSize: 9},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/rulesets", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp []*service.RuleSetInfo
	parseResponse(t, w, &resp)
	if len(resp) != 2 || resp[1].BoardSize != 9 {
		t.Errorf("Unexpected rule sets: %+v", resp)
	}
}

func TestGetRuleSet(t *testing.T) {
	mockService := &MockGameService{
		LoadRuleSetFunc: func(ctx context.Context, name string) (*engine.RuleSet, error) {
			rules, ok := engine.DefaultRuleSets()[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", config.ErrRuleSetNotFound, name)
			}
			return rules, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/rulesets/english", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var rules engine.RuleSet
	parseResponse(t, w, &rules)
	if rules.Language != "en" || rules.BoardSize != engine.DefaultBoardSize {
		t.Errorf("Unexpected rule set: %s %d", rules.Language, rules.BoardSize)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/rulesets/klingon", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateRuleSet(t *testing.T) {
	var saved *engine.RuleSet
	mockService := &MockGameService{
		SaveRuleSetFunc: func(ctx context.Context, name string, rules *engine.RuleSet) error {
			if name == "broken" {
				return fmt.Errorf("%w: no tiles", config.ErrInvalidRuleSet)
			}
			saved = rules
			return nil
		},
	}
	server := setupTestServer(mockService)

	body := map[string]interface{}{
		"id":       "club",
		"rule_set": map[string]interface{}{"language": "en", "bingo_bonus": 35},
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/rulesets", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if saved == nil || saved.Name != "club" || saved.BingoBonus != 35 || len(saved.Tiles) == 0 {
		t.Errorf("Expected defaults to be filled before saving, got %+v", saved)
	}

	body["id"] = "broken"
	w = httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/rulesets", body))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/rulesets", map[string]string{"id": "empty"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a rule set, got %d", w.Code)
	}
}

func TestOperatorEndpoints(t *testing.T) {
	var deleted, saved bool
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			deleted = true
			return nil
		},
		SaveRuleSetFunc: func(ctx context.Context, name string, rules *engine.RuleSet) error {
			saved = true
			return nil
		},
	}
	ruleSet := map[string]interface{}{"id": "club", "rule_set": map[string]interface{}{"language": "en"}}

	tests := []struct {
		name           string
		token          string
		authorization  string
		expectedStatus int
	}{
		{"disabled without a token", "", "Bearer " + testAdminToken, http.StatusForbidden},
		{"missing header", testAdminToken, "", http.StatusUnauthorized},
		{"wrong token", testAdminToken, "Bearer guess", http.StatusUnauthorized},
		{"wrong scheme", testAdminToken, "Basic " + testAdminToken, http.StatusUnauthorized},
		{"empty bearer", testAdminToken, "Bearer ", http.StatusUnauthorized},
		{"valid token", testAdminToken, "bearer " + testAdminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(mockService, WithAdminToken(tt.token))
			requests := []*http.Request{
				makeRequest("GET", "/api/sessions", nil),
				makeRequest("DELETE", "/api/sessions/k7m2pq", nil),
				makeRequest("POST", "/api/rulesets", ruleSet),
			}
			for _, req := range requests {
				if tt.authorization != "" {
					req.Header.Set("Authorization", tt.authorization)
				}
				w := httptest.NewRecorder()
				server.ServeHTTP(w, req)

				want := tt.expectedStatus
				if want == http.StatusOK && req.Method == "POST" {
					want = http.StatusCreated
				}
				if w.Code != want {
					t.Errorf("%s %s: expected %d, got %d", req.Method, req.URL.Path, want, w.Code)
				}
				if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
					t.Error("Expected a WWW-Authenticate challenge")
				}
			}
		})
	}

	if !deleted || !saved {
		t.Error("Expected the authorized requests to reach the service")
	}

	// player endpoints stay open
	server := setupTestServer(&MockGameService{}, WithAdminToken(""))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/k7m2pq", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected public session summary, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(&MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/health", nil))

	var resp map[string]string
	parseResponse(t, w, &resp)
	if w.Code != http.StatusOK || resp["status"] != "healthy" {
		t.Errorf("Unexpected health response: %d %v", w.Code, resp)
	}
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(&MockGameService{}, WithRateLimit(3))

	status := func(addr string) int {
		req := makeRequest("GET", "/api/health", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		if code := status("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, code)
		}
	}
	if code := status("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the bucket is empty, got %d", code)
	}
	if code := status("10.0.0.2:5000"); code != http.StatusOK {
		t.Errorf("Other addresses have their own bucket, got %d", code)
	}

	// a client cannot reset its bucket by inventing forwarding headers
	for i := 0; i < 10; i++ {
		req := makeRequest("GET", "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:5002"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("Spoofed request %d: expected 429, got %d", i, w.Code)
		}
	}
}

func TestRateLimit_TrustedProxy(t *testing.T) {
	server := setupTestServer(&MockGameService{}, WithTrustedProxy(), WithRateLimit(1))

	status := func(forwarded string) int {
		req := makeRequest("GET", "/api/health", nil)
		req.RemoteAddr = "127.0.0.1:9000"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		return w.Code
	}

	if code := status("203.0.113.9"); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	// the proxy appends the real peer; what the client prepends is ignored
	if code := status("192.0.2.1, 203.0.113.9"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 for the same proxied client, got %d", code)
	}
	if code := status("203.0.113.10"); code != http.StatusOK {
		t.Errorf("Expected another client to have its own bucket, got %d", code)
	}
}

func TestIPLimiterForgetsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := newIPLimiter(1, false, func() time.Time { return now })

	if !limiter.allow("a") || limiter.allow("a") {
		t.Fatal("Expected a single request per minute")
	}

	now = now.Add(visitorTTL + time.Second)
	limiter.allow("b")
	if _, ok := limiter.visitors["a"]; ok {
		t.Error("Expected idle visitor to be swept")
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  string
		trustProxy bool
		expected   string
	}{
		{"peer address", "192.0.2.7:4242", "", false, "192.0.2.7"},
		{"forwarded header ignored by default", "192.0.2.7:4242", "203.0.113.9", false, "192.0.2.7"},
		{"last hop behind a proxy", "127.0.0.1:9000", "203.0.113.9, 10.0.0.1", true, "10.0.0.1"},
		{"proxy without header", "127.0.0.1:9000", "", true, "127.0.0.1"},
		{"blank last hop", "127.0.0.1:9000", "203.0.113.9, ", true, "127.0.0.1"},
		{"address without port", "192.0.2.7", "", false, "192.0.2.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientAddr(req, tt.trustProxy); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing parameters",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing player",
			queryParams:    "?session=k7m2pq",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed player",
			queryParams:    "?session=k7m2pq&player=bob",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown session",
			queryParams: "?session=invalid&player=" + testPlayer,
			setupMock: func(m *MockGameService) {
				m.SessionExistsFunc = func(ctx context.Context, sessionID string) (bool, error) {
					return false, nil
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Valid session",
			queryParams:    "?session=k7m2pq&player=" + testPlayer,
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.handleWebSocket(w, req)

			// httptest.ResponseRecorder cannot be hijacked, so a failed
			// upgrade attempt is the best a recorder can show.
			if tt.expectedStatus == http.StatusSwitchingProtocols {
				if w.Code == http.StatusInternalServerError {
					return
				}
			}

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
