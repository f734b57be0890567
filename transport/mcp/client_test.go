package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/mcp-training/fallingblocks/api"
	"github.com/wricardo/mcp-training/fallingblocks/game/config"
	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
	"github.com/wricardo/mcp-training/fallingblocks/game/service"
	"github.com/wricardo/mcp-training/fallingblocks/game/session"
)

// newTestStack serves the real REST API over in-memory sessions
func newTestStack(t *testing.T) *Client {
	t.Helper()
	configManager, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	gameService := service.NewGameService(session.NewManager(), configManager)
	ts := httptest.NewServer(api.NewServer(gameService, nil))
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

var createdRe = regexp.MustCompile(`Created session: (\w+)`)

func createSession(t *testing.T, client *Client) string {
	t.Helper()
	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("create_session failed: %v", err)
	}
	m := createdRe.FindStringSubmatch(resultText(t, result))
	if m == nil {
		t.Fatalf("No session ID in %q", resultText(t, result))
	}
	return m[1]
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session not found" {
			t.Errorf("Expected API error message, got %v", err)
		}
	})

	t.Run("plain error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "500") {
			t.Errorf("Expected status code in error, got %v", err)
		}
	})
}

func TestClient_CommandFlow(t *testing.T) {
	client := newTestStack(t)
	ctx := context.Background()
	id := createSession(t, client)

	result, err := client.handleCommand(ctx, callTool("command", map[string]interface{}{
		"session_id": id, "command": "drop:I5", "intent": "spawn the long piece",
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "✓ Command applied") || !strings.Contains(text, "I5 rot=0 at (0,2)") {
		t.Errorf("Unexpected drop result:\n%s", text)
	}

	result, _ = client.handleCommand(ctx, callTool("command", map[string]interface{}{
		"session_id": id, "command": "cw", "intent": "lay it flat",
	}))
	text = resultText(t, result)
	if !strings.Contains(text, " 2 ..XXXXX.") {
		t.Errorf("Expected horizontal I5 on row 2:\n%s", text)
	}

	result, _ = client.handleCommand(ctx, callTool("command", map[string]interface{}{
		"session_id": id, "command": "jump", "intent": "bad",
	}))
	if !result.IsError {
		t.Error("Expected tool error for an invalid command")
	}

	result, _ = client.handleDescribeCell(ctx, callTool("describe_cell", map[string]interface{}{
		"session_id": id, "row": float64(2), "col": float64(2),
	}))
	if text := resultText(t, result); !strings.Contains(text, string(engine.CellPiece)) {
		t.Errorf("Expected piece cell, got %s", text)
	}

	result, _ = client.handleDescribeCell(ctx, callTool("describe_cell", map[string]interface{}{
		"session_id": id, "row": float64(-1), "col": float64(0),
	}))
	if text := resultText(t, result); !strings.Contains(text, string(engine.CellOutOfBounds)) {
		t.Errorf("Expected out of bounds, got %s", text)
	}

	result, _ = client.handleDescribeCell(ctx, callTool("describe_cell", map[string]interface{}{"session_id": id}))
	if !result.IsError {
		t.Error("Expected error without row/col")
	}

	result, _ = client.handleCommandHistory(ctx, callTool("command_history", map[string]interface{}{
		"session_id": id, "limit": float64(10),
	}))
	text = resultText(t, result)
	if !strings.Contains(text, "drop:I5 ✓") || !strings.Contains(text, "Current Segment") {
		t.Errorf("Unexpected history:\n%s", text)
	}
}

func TestClient_BulkAndReset(t *testing.T) {
	client := newTestStack(t)
	ctx := context.Background()
	id := createSession(t, client)

	result, _ := client.handleBulkCommand(ctx, callTool("bulk_command", map[string]interface{}{
		"session_id": id,
		"commands":   []interface{}{"drop:I3", "left", "left", "left", "left", "left"},
		"intent":     "slide to the wall",
	}))
	text := resultText(t, result)
	if !strings.Contains(text, "Stopped:") || !strings.Contains(text, "["+service.StopBlocked+"]") {
		t.Errorf("Expected a blocked stop:\n%s", text)
	}

	result, _ = client.handleBulkCommand(ctx, callTool("bulk_command", map[string]interface{}{
		"session_id": id, "commands": []interface{}{}, "intent": "nothing",
	}))
	if !result.IsError {
		t.Error("Expected error for empty command list")
	}

	result, _ = client.handleReset(ctx, callTool("reset_field", map[string]interface{}{"session_id": id}))
	text = resultText(t, result)
	if !strings.Contains(text, "Piece: none") {
		t.Errorf("Expected no active piece after reset:\n%s", text)
	}

	result, _ = client.handleFieldState(ctx, callTool("field_state", map[string]interface{}{"session_id": "nope"}))
	if !result.IsError {
		t.Error("Expected error for unknown session")
	}
}

func TestClient_SessionsAndConfigs(t *testing.T) {
	client := newTestStack(t)
	ctx := context.Background()
	id := createSession(t, client)

	result, _ := client.handleListSessions(ctx, callTool("list_sessions", nil))
	if text := resultText(t, result); !strings.Contains(text, id) {
		t.Errorf("Expected %s in session list:\n%s", id, text)
	}

	result, _ = client.handleGetSession(ctx, callTool("get_session", map[string]interface{}{"session_id": id}))
	if text := resultText(t, result); !strings.Contains(text, "Session: "+id) {
		t.Errorf("Unexpected session info:\n%s", text)
	}

	result, _ = client.handleListConfigs(ctx, callTool("list_configs", nil))
	if text := resultText(t, result); !strings.Contains(text, "Pieces: L, I3, I5") {
		t.Errorf("Expected classic config listed:\n%s", text)
	}

	result, _ = client.handleCreateSession(ctx, callTool("create_session", map[string]interface{}{"config_id": "missing"}))
	if !result.IsError {
		t.Error("Expected error for unknown config")
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"FIELD:", "PIECES:", "COMMANDS:", "WALL KICKS:", "drop:<piece>"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected %q in instructions", content)
		}
	}
}

func TestClient_HandleMessage(t *testing.T) {
	client := newTestStack(t)
	ctx := context.Background()
	srv := client.GetMCPServer()

	srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`))

	resp := srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, tool := range []string{
		"create_session", "list_sessions", "get_session", "field_state", "command", "bulk_command",
		"reset_field", "command_history", "list_configs", "describe_cell", "game_instructions",
	} {
		if !strings.Contains(string(data), `"`+tool+`"`) {
			t.Errorf("tool %s not listed", tool)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	state := &engine.GameState{
		Width:    4,
		Height:   2,
		Board:    []string{".XX.", "ZZ.."},
		Piece:    "O",
		Rotation: 0,
		Anchor:   engine.Position{Row: 0, Col: 1},
		Message:  "Moved right",
	}

	got := formatGameState(state)
	want := "Field: 4x2 | Piece: O rot=0 at (0,1) | Moves: 0\n\n" +
		"   0123\n" +
		" 0 .XX.\n" +
		" 1 ZZ..\n" +
		"\nMessage: Moved right"
	if got != want {
		t.Errorf("formatGameState mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}

	if formatGameState(nil) != "No field state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatCommandResult_Refused(t *testing.T) {
	result := &service.CommandResult{
		Success:   false,
		GameState: &engine.GameState{Width: 1, Height: 1, Board: []string{"X"}},
		Step:      &service.StepInfo{Idx: 1, Command: "cw", Success: false},
		Events:    []service.GameEvent{{Type: "blocked", Message: "No room to rotate"}},
	}

	text := formatCommandResult(result)
	for _, want := range []string{"✗ Command refused", "1. cw (0,0)r0→(0,0)r0 ✗", "- blocked: No room to rotate"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
}
