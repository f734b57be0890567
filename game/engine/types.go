package engine

import "errors"

// Glyphs used by the text grid format
const (
	BackgroundGlyph = '.'
	PieceGlyph      = 'X'

	// Validation constants
	MinFieldSize    = 4
	MaxFieldSize    = 64
	MaxBulkCommands = 50
)

var (
	ErrInvalidShape = errors.New("invalid shape")
	ErrInvalidField = errors.New("invalid field")
	ErrUnknownPiece = errors.New("unknown piece")
)

// Action is a single command accepted by the engine
type Action string

const (
	ActionDrop  Action = "drop"
	ActionLeft  Action = "left"
	ActionRight Action = "right"
	ActionDown  Action = "down"
	ActionCW    Action = "cw"
	ActionCCW   Action = "ccw"
)

// AllActions lists the actions in the order they are reported to clients
var AllActions = []Action{ActionDrop, ActionLeft, ActionRight, ActionDown, ActionCW, ActionCCW}

// Position is a row/column coordinate on the field grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellKind describes what occupies a field cell
type CellKind string

const (
	CellEmpty       CellKind = "empty"
	CellLanded      CellKind = "landed"
	CellPiece       CellKind = "piece"
	CellOutOfBounds CellKind = "out_of_bounds"
)

// CellInfo describes a single field cell
type CellInfo struct {
	Row   int      `json:"row"`
	Col   int      `json:"col"`
	Kind  CellKind `json:"kind"`
	Glyph string   `json:"glyph,omitempty"`
}

// PieceConfig is one piece type of a configuration
type PieceConfig struct {
	Name   string     `json:"name" yaml:"name"`
	States [][]string `json:"states" yaml:"states"`
}

// Messages are the texts reported after each command
type Messages struct {
	Welcome       string `json:"welcome" yaml:"welcome"`
	Dropped       string `json:"dropped" yaml:"dropped"`
	Blocked       string `json:"blocked" yaml:"blocked"`
	RotateBlocked string `json:"rotate_blocked" yaml:"rotate_blocked"`
	NoPiece       string `json:"no_piece" yaml:"no_piece"`
}

// GameConfig represents a field configuration loaded from JSON or YAML
type GameConfig struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Width       int           `json:"width" yaml:"width"`
	Height      int           `json:"height" yaml:"height"`
	Layout      []string      `json:"layout,omitempty" yaml:"layout,omitempty"`
	Pieces      []PieceConfig `json:"pieces" yaml:"pieces"`
	Messages    Messages      `json:"messages" yaml:"messages"`
}

// GameState is the serializable snapshot of an engine
type GameState struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Board      []string `json:"board"`
	Landed     []string `json:"landed"`
	Piece      string   `json:"piece,omitempty"`
	Rotation   int      `json:"rotation"`
	Anchor     Position `json:"anchor"`
	LastKick   int      `json:"last_kick"`
	Message    string   `json:"message"`
	ConfigName string   `json:"config_name"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves holds the commands since the last reset; MoveHistory is cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single command in the history
type MoveHistoryEntry struct {
	Action       Action   `json:"action"`
	Piece        string   `json:"piece,omitempty"`
	FromAnchor   Position `json:"from_anchor"`
	ToAnchor     Position `json:"to_anchor"`
	FromRotation int      `json:"from_rotation"`
	ToRotation   int      `json:"to_rotation"`
	Kick         int      `json:"kick"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
