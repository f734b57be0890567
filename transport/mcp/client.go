package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
	"github.com/wricardo/mcp-training/fallingblocks/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Falling Blocks",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Falling Blocks - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A session holds one rectangular field of landed cells and at most one active
piece. Drop a piece, then move it left, right, down or rotate it (cw/ccw).
Blocked moves and rotations change nothing. Rotations try wall kicks: column
offsets 0, +1, -1, +2, -2 and so on up to the piece size.

AVAILABLE TOOLS:
- create_session: Create a new field, optionally from a named config
- list_sessions / get_session: Inspect sessions
- field_state: Render the field (X = active piece)
- command: One command (drop:<piece>, left, right, down, cw, ccw) - requires intent
- bulk_command: Several commands at once - requires intent
- reset_field: Restore the configured initial field
- command_history: View past commands
- list_configs: List available field configurations
- describe_cell: What occupies one cell
- game_instructions: Full rules

NOTE: The 'intent' parameter on command tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new field session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (see list_configs). Defaults to classic.",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active field sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Field operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "field_state",
		Description: "Render the current field and active piece",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleFieldState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command",
		Description: "Apply one command: drop:<piece>, left, right, down, cw or ccw",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"command": map[string]interface{}{
					"type":        "string",
					"description": "Command, e.g. drop:L, left, cw",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "What you expect this command to do and why",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the field before the command",
				},
			},
			Required: []string{"session_id", "command", "intent"},
		},
	}, c.handleCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_command",
		Description: fmt.Sprintf("Apply up to %d commands in order, stopping at the first blocked one", engine.MaxBulkCommands),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"commands": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Commands, e.g. [\"drop:I5\", \"cw\", \"left\"]",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "What you expect these commands to do and why",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the field before the commands",
				},
				"continue_on_blocked": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep going after a blocked command",
				},
			},
			Required: []string{"session_id", "commands", "intent"},
		},
	}, c.handleBulkCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_field",
		Description: "Restore the field to its configured initial state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command_history",
		Description: "Paged history of commands applied to a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Entries per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCommandHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available field configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Rules, command syntax and rotation behaviour",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell: empty, landed, piece or out_of_bounds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "number",
					"description": "Row, 0 at the top",
				},
				"col": map[string]interface{}{
					"type":        "number",
					"description": "Column, 0 at the left",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads a numeric argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s)\n", s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleFieldState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	command, _ := args["command"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"command": command,
		"reset":   reset,
	}

	var result service.CommandResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/command"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleBulkCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	rawCommands, _ := args["commands"].([]interface{})
	reset, _ := args["reset"].(bool)
	continueOnBlocked, _ := args["continue_on_blocked"].(bool)

	commands := make([]string, 0, len(rawCommands))
	for _, raw := range rawCommands {
		if cmd, ok := raw.(string); ok {
			commands = append(commands, cmd)
		}
	}
	if len(commands) == 0 {
		return mcp.NewToolResultError("commands must be a non-empty list of strings"), nil
	}

	body := map[string]interface{}{
		"commands":            commands,
		"reset":               reset,
		"continue_on_blocked": continueOnBlocked,
	}

	var result service.BulkCommandResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-command"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkCommandResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleCommandHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// current segment from live state
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Field: %dx%d, Pieces: %s\n\n",
			config.ConfigID, config.Name, config.Description, config.Width, config.Height, strings.Join(config.Pieces, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	row, rowOK := intArg(args, "row")
	col, colOK := intArg(args, "col")
	if !rowOK || !colOK {
		return mcp.NewToolResultError("row and col are required numbers"), nil
	}

	query := url.Values{}
	query.Set("row", fmt.Sprint(row))
	query.Set("col", fmt.Sprint(col))

	var cell engine.CellInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/cell?"+query.Encode()), nil, &cell); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCell(&cell)), nil
}

const instructions = `Falling Blocks - Complete Instructions

FIELD:
A grid of W columns by H rows. Row 0 is the top, column 0 the left edge.
Landed cells keep their own glyph from the config (any character other
than '.' or space). The active piece is drawn as X. Empty cells are '.'.

PIECES:
Each piece is a square grid of S x S cells with a fixed cycle of rotation
states. Its anchor is the top-left corner of that square. Drop places a new
piece at row 0, column W/2 - S/2, in its first rotation state, replacing any
piece already active. The spawn position is not checked for overlap.

COMMANDS:
  drop:<piece>   spawn a piece (also "drop <piece>")
  left, right    shift one column
  down           shift one row
  cw, ccw        rotate clockwise / counter-clockwise
A move or rotation that would leave the field or overlap a landed cell is
refused and nothing changes. Pieces never lock; there is no line clearing,
no scoring and no game over.

WALL KICKS:
A rotation first tries the current anchor, then column offsets +1, -1, +2,
-2 ... up to the piece size. The first offset where the rotated piece fits
wins. If none fits, the rotation is refused.

TIPS:
• Use describe_cell to check a single cell before a risky move
• bulk_command stops at the first blocked command unless continue_on_blocked
• reset_field restores the configured starting layout`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No field state available"
	}

	var b strings.Builder
	piece := "none"
	if state.Piece != "" {
		piece = fmt.Sprintf("%s rot=%d at (%d,%d)", state.Piece, state.Rotation, state.Anchor.Row, state.Anchor.Col)
	}
	fmt.Fprintf(&b, "Field: %dx%d | Piece: %s | Moves: %d\n\n", state.Width, state.Height, piece, state.TotalMoves)

	// column ruler, last digit only
	b.WriteString("   ")
	for col := 0; col < state.Width; col++ {
		fmt.Fprintf(&b, "%d", col%10)
	}
	b.WriteString("\n")
	for row, line := range state.Board {
		fmt.Fprintf(&b, "%2d %s\n", row, line)
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatStep(s *service.StepInfo) string {
	status := "✗"
	if s.Success {
		status = "✓"
	}
	line := fmt.Sprintf("%d. %s (%d,%d)r%d→(%d,%d)r%d",
		s.Idx, s.Command, s.From.Row, s.From.Col, s.FromRotation, s.To.Row, s.To.Col, s.ToRotation)
	if s.Kick != 0 {
		line += fmt.Sprintf(" kick=%+d", s.Kick)
	}
	return line + " " + status + "\n"
}

func formatEvents(events []service.GameEvent) string {
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
	}
	return b.String()
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Command applied\n")
	} else {
		b.WriteString("✗ Command refused, field unchanged\n")
	}

	if result.Step != nil {
		b.WriteString("Step: " + formatStep(result.Step))
	}
	b.WriteString(formatEvents(result.Events))
	if len(result.PossibleActions) > 0 {
		fmt.Fprintf(&b, "Possible actions: %s\n", strings.Join(result.PossibleActions, ","))
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkCommandResult(sessionID string, result *service.BulkCommandResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Executed %d/%d commands (%d applied)\n",
		result.CommandsExecuted, result.RequestedCommands, result.CommandsSucceeded)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d commands\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s [%s]\n", result.StoppedReason, result.StopReasonCode)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i := range result.Steps {
			b.WriteString(formatStep(&result.Steps[i]))
		}
	}

	if events := formatEvents(result.Events); events != "" {
		b.WriteString("\n" + events)
	}
	if len(result.PossibleActions) > 0 {
		fmt.Fprintf(&b, "\nPossible actions: %s\n", strings.Join(result.PossibleActions, ","))
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatCell(cell *engine.CellInfo) string {
	var desc string
	switch cell.Kind {
	case engine.CellEmpty:
		desc = "Empty - a piece may move here"
	case engine.CellLanded:
		desc = fmt.Sprintf("Landed cell %q - blocks movement and rotation", cell.Glyph)
	case engine.CellPiece:
		desc = "Part of the active piece"
	case engine.CellOutOfBounds:
		desc = "Outside the field"
	default:
		desc = string(cell.Kind)
	}
	return fmt.Sprintf("Cell (%d,%d): %s\n%s", cell.Row, cell.Col, cell.Kind, desc)
}

func formatHistoryEntry(num int, move engine.MoveHistoryEntry) string {
	status := "✓"
	if !move.Success {
		status = "✗"
	}
	cmd := engine.Command{Action: move.Action, Piece: move.Piece}
	line := fmt.Sprintf("%d. %s %s (%d,%d)→(%d,%d)", num, cmd, status,
		move.FromAnchor.Row, move.FromAnchor.Col, move.ToAnchor.Row, move.ToAnchor.Col)
	if move.Kick != 0 {
		line += fmt.Sprintf(" kick=%+d", move.Kick)
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command History (Page %d/%d), Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for i, move := range history.Moves {
		b.WriteString(formatHistoryEntry((history.Page-1)*history.PageSize+i+1, move))
	}
	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Segment (since last reset), Commands: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no commands in current segment)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryEntry(i+1, move))
	}
	return b.String()
}
