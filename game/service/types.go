package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
)

var (
	ErrInvalidCommand  = errors.New("invalid command")
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// Stop reason codes reported by BulkCommand
const (
	StopBlocked        = "blocked"
	StopRotateBlocked  = "rotate_blocked"
	StopNoPiece        = "no_piece"
	StopUnknownPiece   = "unknown_piece"
	StopInvalidCommand = "invalid_command"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CommandResult contains the result of a single command
type CommandResult struct {
	Success         bool              `json:"success"`
	GameState       *engine.GameState `json:"game_state"`
	Message         string            `json:"message"`
	Events          []GameEvent       `json:"events,omitempty"`
	Step            *StepInfo         `json:"step,omitempty"`
	PossibleActions []string          `json:"possible_actions"`
}

// BulkOptions controls a BulkCommand call
type BulkOptions struct {
	Reset             bool `json:"reset"`
	ContinueOnBlocked bool `json:"continue_on_blocked"`
}

// BulkCommandResult contains the result of multiple commands
type BulkCommandResult struct {
	// Summary
	CommandsExecuted  int               `json:"commands_executed"`
	CommandsSucceeded int               `json:"commands_succeeded"`
	RequestedCommands int               `json:"requested_commands"`
	Success           bool              `json:"success"`
	GameState         *engine.GameState `json:"game_state"`
	Events            []GameEvent       `json:"events"`
	StoppedReason     string            `json:"stopped_reason,omitempty"`
	StopReasonCode    string            `json:"stop_reason_code,omitempty"` // blocked|rotate_blocked|no_piece|unknown_piece|invalid_command
	StoppedOnCommand  int               `json:"stopped_on_command,omitempty"`
	Truncated         bool              `json:"truncated,omitempty"`
	Limit             int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartAnchor engine.Position `json:"start_anchor"`
	EndAnchor   engine.Position `json:"end_anchor"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	Message         string   `json:"message,omitempty"`
	PossibleActions []string `json:"possible_actions"`
}

// StepInfo is a compact record for each executed command
type StepInfo struct {
	Idx          int             `json:"idx"`
	Command      string          `json:"command"`
	Piece        string          `json:"piece,omitempty"`
	From         engine.Position `json:"from"`
	To           engine.Position `json:"to"`
	FromRotation int             `json:"from_rotation"`
	ToRotation   int             `json:"to_rotation"`
	Kick         int             `json:"kick,omitempty"`
	Success      bool            `json:"success"`
}

// GameEvent represents an event that occurred while playing
type GameEvent struct {
	Type      string          `json:"type"` // "drop", "move", "rotate", "kick", "blocked", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Anchor    engine.Position `json:"anchor"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a field configuration
type ConfigInfo struct {
	Filename    string   `json:"filename"`
	ConfigID    string   `json:"config_id"` // The identifier to use for session creation
	Name        string   `json:"name"`      // Display name
	Description string   `json:"description"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Pieces      []string `json:"pieces"`
}
