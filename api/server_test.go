package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	gws "github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
	"github.com/wricardo/mcp-training/fallingblocks/game/service"
	"github.com/wricardo/mcp-training/fallingblocks/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Field Operations
	CommandFunc     func(ctx context.Context, sessionID, command string, reset bool) (*service.CommandResult, error)
	BulkCommandFunc func(ctx context.Context, sessionID string, commands []string, opts service.BulkOptions) (*service.BulkCommandResult, error)
	ResetFunc       func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Field State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	DescribeCellFunc   func(ctx context.Context, sessionID string, row, col int) (*engine.CellInfo, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "classic", CreatedAt: time.Now()}, nil
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

func (m *MockGameService) Command(ctx context.Context, sessionID, command string, reset bool) (*service.CommandResult, error) {
	if m.CommandFunc != nil {
		return m.CommandFunc(ctx, sessionID, command, reset)
	}
	return &service.CommandResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkCommand(ctx context.Context, sessionID string, commands []string, opts service.BulkOptions) (*service.BulkCommandResult, error) {
	if m.BulkCommandFunc != nil {
		return m.BulkCommandFunc(ctx, sessionID, commands, opts)
	}
	return &service.BulkCommandResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
}

func (m *MockGameService) DescribeCell(ctx context.Context, sessionID string, row, col int) (*engine.CellInfo, error) {
	if m.DescribeCellFunc != nil {
		return m.DescribeCellFunc(ctx, sessionID, row, col)
	}
	return &engine.CellInfo{Row: row, Col: col, Kind: engine.CellEmpty}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return engine.DefaultConfig(), nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
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

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		wantConfig     string
		serviceErr     error
		expectedStatus int
	}{
		{name: "default config", requestBody: nil, wantConfig: "", expectedStatus: http.StatusCreated},
		{name: "config_id", requestBody: map[string]string{"config_id": "wells"}, wantConfig: "wells", expectedStatus: http.StatusCreated},
		{name: "deprecated config_name", requestBody: map[string]string{"config_name": "wells"}, wantConfig: "wells", expectedStatus: http.StatusCreated},
		{
			name:           "unknown config",
			requestBody:    map[string]string{"config_id": "nope"},
			wantConfig:     "nope",
			serviceErr:     fmt.Errorf("%w: 'nope'. Available configs: [classic]", service.ErrConfigNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{name: "service error", serviceErr: fmt.Errorf("service error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != tt.wantConfig {
						t.Errorf("Expected config %q, got %q", tt.wantConfig, configName)
					}
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: configName}, nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.serviceErr != nil {
				if got := errorMessage(t, w); got != tt.serviceErr.Error() {
					t.Errorf("Expected error %q, got %q", tt.serviceErr.Error(), got)
				}
				return
			}
			var resp service.SessionInfo
			parseResponse(t, w, &resp)
			if resp.ID != "ab12" {
				t.Errorf("Expected session ID ab12, got %s", resp.ID)
			}
		})
	}
}

func TestCreateSession_MalformedBody(t *testing.T) {
	for _, body := range []string{"{not json", `{"config_id": 7}`, `["wells"]`} {
		t.Run(body, func(t *testing.T) {
			mockService := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					t.Errorf("CreateSession called with %q for body %s", configName, body)
					return &service.SessionInfo{ID: "ab12"}, nil
				},
			}
			server := setupTestServer(t, mockService)

			req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", w.Code)
			}
			if got := errorMessage(t, w); got != "Invalid request body" {
				t.Errorf("Unexpected error %q", got)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid command", fmt.Errorf("%w: jump", service.ErrInvalidCommand), http.StatusBadRequest},
		{"session", fmt.Errorf("%w: zz99", service.ErrSessionNotFound), http.StatusNotFound},
		{"config", fmt.Errorf("failed: %w", service.ErrConfigNotFound), http.StatusNotFound},
		{"plain text mentioning not found", errors.New("piece template not found in cache"), http.StatusInternalServerError},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
			{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
			{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
		}
	}

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{name: "default sorts by access desc", query: "", wantIDs: []string{"old", "mid", "new"}, wantTotal: 3},
		{name: "created asc", query: "?sort=created&order=asc", wantIDs: []string{"old", "mid", "new"}, wantTotal: 3},
		{name: "created desc", query: "?sort=created", wantIDs: []string{"new", "mid", "old"}, wantTotal: 3},
		{name: "limit", query: "?sort=created&limit=2", wantIDs: []string{"new", "mid"}, wantTotal: 3},
		{name: "bad limit ignored", query: "?limit=abc", wantIDs: []string{"old", "mid", "new"}, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			var ids []string
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("Expected order %v, got %v", tt.wantIDs, ids)
			}
			if resp.Count != len(tt.wantIDs) || resp.Total != tt.wantTotal {
				t.Errorf("Expected count=%d total=%d, got count=%d total=%d", len(tt.wantIDs), tt.wantTotal, resp.Count, resp.Total)
			}
		})
	}

	t.Run("service error", func(t *testing.T) {
		mockService := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		server := setupTestServer(t, mockService)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return service.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{"GET", "/api/sessions/ab12", http.StatusOK},
		{"GET", "/api/sessions/zz99", http.StatusNotFound},
		{"DELETE", "/api/sessions/ab12", http.StatusOK},
		{"DELETE", "/api/sessions/zz99", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest(tt.method, tt.path, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// Field Operation Tests

func TestCommand(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		serviceErr     error
		expectedStatus int
		wantError      string
	}{
		{name: "drop", requestBody: map[string]interface{}{"command": "drop:L"}, expectedStatus: http.StatusOK},
		{name: "with reset", requestBody: map[string]interface{}{"command": "cw", "reset": true}, expectedStatus: http.StatusOK},
		{name: "missing command", requestBody: map[string]interface{}{"direction": "up"}, expectedStatus: http.StatusBadRequest, wantError: "command is required"},
		{
			name:           "invalid command",
			requestBody:    map[string]interface{}{"command": "jump"},
			serviceErr:     fmt.Errorf("%w: unknown action \"jump\"", service.ErrInvalidCommand),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "session not found",
			requestBody:    map[string]interface{}{"command": "left"},
			serviceErr:     fmt.Errorf("%w: missing", service.ErrSessionNotFound),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReset bool
			mockService := &MockGameService{
				CommandFunc: func(ctx context.Context, sessionID, command string, reset bool) (*service.CommandResult, error) {
					gotReset = reset
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &service.CommandResult{
						Success:   true,
						GameState: &engine.GameState{Piece: "L", Anchor: engine.Position{Row: 0, Col: 3}},
						Message:   "Piece dropped",
						Step:      &service.StepInfo{Idx: 1, Command: command, Success: true},
					}, nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/command", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.wantError != "" {
				if got := errorMessage(t, w); got != tt.wantError {
					t.Errorf("Expected error %q, got %q", tt.wantError, got)
				}
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp service.CommandResult
			parseResponse(t, w, &resp)
			if !resp.Success || resp.GameState.Piece != "L" {
				t.Errorf("Unexpected result %+v", resp)
			}
			if tt.name == "with reset" && !gotReset {
				t.Error("Expected reset to be passed through")
			}
		})
	}

	t.Run("invalid body", func(t *testing.T) {
		server := setupTestServer(t, &MockGameService{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/sessions/ab12/command", strings.NewReader("{"))
		server.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestBulkCommand(t *testing.T) {
	var gotCommands []string
	var gotOpts service.BulkOptions
	mockService := &MockGameService{
		BulkCommandFunc: func(ctx context.Context, sessionID string, commands []string, opts service.BulkOptions) (*service.BulkCommandResult, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("%w: missing", service.ErrSessionNotFound)
			}
			gotCommands = commands
			gotOpts = opts
			return &service.BulkCommandResult{
				CommandsExecuted:  2,
				CommandsSucceeded: 1,
				RequestedCommands: len(commands),
				StopReasonCode:    service.StopBlocked,
				StoppedOnCommand:  2,
				GameState:         &engine.GameState{},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	body := map[string]interface{}{
		"commands":            []string{"drop:I3", "left", "left"},
		"reset":               true,
		"continue_on_blocked": true,
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/bulk-command", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(gotCommands) != 3 {
		t.Errorf("Expected 3 commands forwarded, got %v", gotCommands)
	}
	if !gotOpts.Reset || !gotOpts.ContinueOnBlocked {
		t.Errorf("Options not forwarded: %+v", gotOpts)
	}

	var resp service.BulkCommandResult
	parseResponse(t, w, &resp)
	if resp.StopReasonCode != service.StopBlocked || resp.StoppedOnCommand != 2 {
		t.Errorf("Unexpected stop info: %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/missing/bulk-command", body))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown session, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.GameState{Message: "Drop a piece to start"}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.Message != "Drop a piece to start" {
		t.Errorf("Unexpected reset response %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/zz99/reset", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		query    string
		wantOpts service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.wantOpts {
				t.Errorf("Expected options %+v, got %+v", tt.wantOpts, got)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.GameState{Width: 8, Height: 6, Board: []string{"........"}}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var state engine.GameState
	parseResponse(t, w, &state)
	if state.Width != 8 || state.Height != 6 {
		t.Errorf("Unexpected state %+v", state)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zz99/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDescribeCell(t *testing.T) {
	mockService := &MockGameService{
		DescribeCellFunc: func(ctx context.Context, sessionID string, row, col int) (*engine.CellInfo, error) {
			return &engine.CellInfo{Row: row, Col: col, Kind: engine.CellLanded, Glyph: "Z"}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/cell?row=3&col=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var cell engine.CellInfo
	parseResponse(t, w, &cell)
	if cell.Row != 3 || cell.Col != 2 || cell.Kind != engine.CellLanded {
		t.Errorf("Unexpected cell %+v", cell)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/cell?row=a", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{ConfigID: "classic", Name: "classic", Width: 8, Height: 6, Pieces: []string{"L", "I3", "I5"}},
				{Filename: "wells.yaml", ConfigID: "wells", Name: "Wells", Width: 8, Height: 6, Pieces: []string{"I3"}},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || configs[1].ConfigID != "wells" {
		t.Errorf("Unexpected configs %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, service.ErrConfigNotFound
			}
			return engine.DefaultConfig(), nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/classic", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var config engine.GameConfig
	parseResponse(t, w, &config)
	if config.Width != 8 || len(config.Pieces) != 3 {
		t.Errorf("Unexpected config %+v", config)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		saveErr        error
		expectedStatus int
		wantID         string
	}{
		{
			name:           "id derived from name",
			body:           map[string]interface{}{"name": "Tall Field", "description": "d", "width": 6, "height": 10},
			expectedStatus: http.StatusCreated,
			wantID:         "tall_field",
		},
		{
			name:           "explicit id",
			body:           map[string]interface{}{"config_id": "tall", "name": "Tall Field"},
			expectedStatus: http.StatusCreated,
			wantID:         "tall",
		},
		{
			name:           "missing name",
			body:           map[string]interface{}{"width": 6},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid config",
			body:           map[string]interface{}{"name": "Bad"},
			saveErr:        fmt.Errorf("invalid configuration: at least one piece is required"),
			expectedStatus: http.StatusBadRequest,
			wantID:         "bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var savedID string
			var saved *engine.GameConfig
			mockService := &MockGameService{
				SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
					savedID = configName
					saved = config
					return tt.saveErr
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs", tt.body))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if savedID != tt.wantID {
				t.Errorf("Expected config id %q, got %q", tt.wantID, savedID)
			}
			if tt.expectedStatus == http.StatusCreated && saved.Name != tt.body["name"] {
				t.Errorf("Expected name %v, got %q", tt.body["name"], saved.Name)
			}
		})
	}
}

func TestUnifiedSessions(t *testing.T) {
	all := []*service.SessionInfo{
		{ID: "aa11", ConfigName: "classic", GameState: &engine.GameState{Board: []string{"....", "...."}}},
		{ID: "bb22", ConfigName: "wells"},
		{ID: "cc33", ConfigName: "classic"},
	}
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return all, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			for _, s := range all {
				if s.ID == sessionID {
					return s, nil
				}
			}
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		query   string
		wantIDs []string
	}{
		{"", []string{"aa11", "bb22", "cc33"}},
		{"?configName=classic", []string{"aa11", "cc33"}},
		{"?sessionIds=bb22,%20zz99,aa11", []string{"bb22", "aa11"}},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				ConfigName string                   `json:"config_name"`
				Sessions   []map[string]interface{} `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			var ids []string
			for _, s := range resp.Sessions {
				ids = append(ids, s["session_id"].(string))
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("Expected %v, got %v", tt.wantIDs, ids)
			}
		})
	}
}

func TestGzipResponses(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			var configs []*service.ConfigInfo
			for i := 0; i < 50; i++ {
				configs = append(configs, &service.ConfigInfo{
					ConfigID:    fmt.Sprintf("config%02d", i),
					Name:        fmt.Sprintf("Config %d", i),
					Description: "A field large enough to push the response over the gzip threshold",
				})
			}
			return configs, nil
		},
	}
	server := setupTestServer(t, mockService)

	req := makeRequest("GET", "/api/configs", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}

	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to open gzip body: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("Failed to read gzip body: %v", err)
	}
	var configs []*service.ConfigInfo
	if err := json.Unmarshal(data, &configs); err != nil {
		t.Fatalf("Failed to parse decompressed body: %v", err)
	}
	if len(configs) != 50 {
		t.Errorf("Expected 50 configs, got %d", len(configs))
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
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
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)
			req = mux.SetURLVars(req, map[string]string{})

			server.handleWebSocket(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestCommandBroadcastsState(t *testing.T) {
	mockService := &MockGameService{
		CommandFunc: func(ctx context.Context, sessionID, command string, reset bool) (*service.CommandResult, error) {
			return &service.CommandResult{Success: true, GameState: &engine.GameState{Piece: "I5", Board: []string{"..X.."}}}, nil
		},
	}
	server := setupTestServer(t, mockService)
	ts := httptest.NewServer(server)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=ab12"
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for server.hub.ClientCount("ab12") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/api/sessions/ab12/command", "application/json", strings.NewReader(`{"command":"drop:I5"}`))
	if err != nil {
		t.Fatalf("command request failed: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var message websocket.Message
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}
	if message.Event != websocket.EventStateUpdate || message.GameState.Piece != "I5" {
		t.Errorf("Unexpected broadcast %+v", message)
	}
}
