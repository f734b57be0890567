package engine

import (
	"fmt"
	"strings"
	"time"
)

// Engine provides the main interface for field operations
type Engine interface {
	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	GetField() *Field

	// Commands
	Apply(cmd Command) bool
	CanApply(cmd Command) bool
	PossibleActions() []Action

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error
	PieceNames() []string

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Cells
	DescribeCell(row, col int) CellInfo
}

// Command is one action, with the piece name for drops
type Command struct {
	Action Action `json:"action"`
	Piece  string `json:"piece,omitempty"`
}

func (c Command) String() string {
	if c.Action == ActionDrop && c.Piece != "" {
		return string(c.Action) + ":" + c.Piece
	}
	return string(c.Action)
}

var actionAliases = map[string]Action{
	"drop":       ActionDrop,
	"left":       ActionLeft,
	"right":      ActionRight,
	"down":       ActionDown,
	"cw":         ActionCW,
	"rotate":     ActionCW,
	"rotate_cw":  ActionCW,
	"ccw":        ActionCCW,
	"rotate_ccw": ActionCCW,
}

// ParseCommand parses "left", "cw" or "drop:L" (also "drop L")
func ParseCommand(text string) (Command, error) {
	text = strings.TrimSpace(text)
	name, piece, _ := strings.Cut(text, ":")
	if piece == "" {
		name, piece, _ = strings.Cut(text, " ")
	}

	action, ok := actionAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Command{}, fmt.Errorf("unknown action %q", name)
	}
	piece = strings.TrimSpace(piece)
	if action == ActionDrop && piece == "" {
		return Command{}, fmt.Errorf("drop needs a piece name, e.g. drop:L")
	}
	if action != ActionDrop && piece != "" {
		return Command{}, fmt.Errorf("action %q takes no piece", action)
	}
	return Command{Action: action, Piece: piece}, nil
}

// ParseCommands parses a list of commands, stopping at the first bad one
func ParseCommands(texts []string) ([]Command, error) {
	cmds := make([]Command, 0, len(texts))
	for i, text := range texts {
		cmd, err := ParseCommand(text)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// GameEngine implements the Engine interface
type GameEngine struct {
	config   *GameConfig
	field    *Field
	catalog  map[string]*Shape
	message  string
	lastKick int

	history      []MoveHistoryEntry
	totalMoves   int
	current      []MoveHistoryEntry
	currentMoves int
}

// NewEngine creates a new engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config}
	if err := e.init(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates a new engine with the built-in configuration
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

func (e *GameEngine) init() error {
	field, err := InitFieldFromConfig(e.config)
	if err != nil {
		return err
	}
	catalog, err := BuildCatalog(e.config)
	if err != nil {
		return err
	}

	e.field = field
	e.catalog = catalog
	e.message = e.config.Messages.Welcome
	e.lastKick = 0
	return nil
}

// GetField returns the underlying field
func (e *GameEngine) GetField() *Field {
	return e.field
}

// GetState returns a snapshot of the current state
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		Width:             e.field.Width(),
		Height:            e.field.Height(),
		Board:             e.field.Rows(),
		Landed:            splitLines(e.field.LandedSnapshot()),
		Rotation:          e.field.Rotation(),
		Anchor:            e.field.Anchor(),
		LastKick:          e.lastKick,
		Message:           e.message,
		ConfigName:        e.config.Name,
		MoveHistory:       append([]MoveHistoryEntry{}, e.history...),
		TotalMoves:        e.totalMoves,
		CurrentMoves:      append([]MoveHistoryEntry{}, e.current...),
		CurrentMovesCount: e.currentMoves,
	}
	if piece := e.field.Piece(); piece != nil {
		state.Piece = piece.Name()
	}
	return state
}

// SetState restores a snapshot (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	field, err := ParseField(strings.Join(state.Landed, "\n"))
	if err != nil {
		return fmt.Errorf("restore landed cells: %w", err)
	}
	if field.Width() != e.config.Width || field.Height() != e.config.Height {
		return fmt.Errorf("%w: snapshot is %dx%d, config is %dx%d",
			ErrInvalidField, field.Width(), field.Height(), e.config.Width, e.config.Height)
	}

	if state.Piece != "" {
		shape, ok := e.catalog[state.Piece]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPiece, state.Piece)
		}
		if err := field.Place(shape, state.Rotation, state.Anchor); err != nil {
			return fmt.Errorf("restore piece: %w", err)
		}
	}

	e.field = field
	e.message = state.Message
	e.lastKick = state.LastKick
	e.history = append([]MoveHistoryEntry{}, state.MoveHistory...)
	e.totalMoves = state.TotalMoves
	e.current = append([]MoveHistoryEntry{}, state.CurrentMoves...)
	e.currentMoves = state.CurrentMovesCount
	return nil
}

// Reset rebuilds the field from the configuration
func (e *GameEngine) Reset() *GameState {
	// Cumulative history survives; only the current segment is cleared
	if err := e.init(); err != nil {
		// config was validated when it was set
		panic(err)
	}
	e.current = []MoveHistoryEntry{}
	e.currentMoves = 0
	return e.GetState()
}

// Apply executes one command and records it in the history
func (e *GameEngine) Apply(cmd Command) bool {
	fromAnchor := e.field.Anchor()
	fromRotation := e.field.Rotation()

	kick, success := e.apply(cmd)

	e.addMoveToHistory(MoveHistoryEntry{
		Action:       cmd.Action,
		Piece:        cmd.Piece,
		FromAnchor:   fromAnchor,
		ToAnchor:     e.field.Anchor(),
		FromRotation: fromRotation,
		ToRotation:   e.field.Rotation(),
		Kick:         kick,
		Success:      success,
	})

	return success
}

func (e *GameEngine) apply(cmd Command) (int, bool) {
	msgs := e.config.Messages

	if cmd.Action == ActionDrop {
		shape, ok := e.catalog[cmd.Piece]
		if !ok {
			e.message = fmt.Sprintf("Unknown piece %q (available: %s)", cmd.Piece, strings.Join(e.PieceNames(), ", "))
			return 0, false
		}
		e.field.Drop(shape)
		e.lastKick = 0
		e.message = withDefault(msgs.Dropped, "Piece dropped")
		return 0, true
	}

	if e.field.Piece() == nil {
		e.message = withDefault(msgs.NoPiece, "No active piece, drop one first")
		return 0, false
	}

	var ok bool
	kick := 0
	switch cmd.Action {
	case ActionLeft:
		ok = e.field.MoveLeft()
	case ActionRight:
		ok = e.field.MoveRight()
	case ActionDown:
		ok = e.field.MoveDown()
	case ActionCW:
		kick, ok = e.field.rotate(1)
	case ActionCCW:
		kick, ok = e.field.rotate(-1)
	default:
		e.message = fmt.Sprintf("Unknown action %q", cmd.Action)
		return 0, false
	}

	if !ok {
		if cmd.Action == ActionCW || cmd.Action == ActionCCW {
			e.message = withDefault(msgs.RotateBlocked, "No room to rotate")
		} else {
			e.message = withDefault(msgs.Blocked, "Blocked")
		}
		return 0, false
	}

	e.lastKick = kick
	switch {
	case kick != 0:
		e.message = fmt.Sprintf("Rotated %s with kick %+d", cmd.Action, kick)
	case cmd.Action == ActionCW || cmd.Action == ActionCCW:
		e.message = fmt.Sprintf("Rotated %s", cmd.Action)
	default:
		e.message = fmt.Sprintf("Moved %s", cmd.Action)
	}
	return kick, true
}

// CanApply reports whether cmd would succeed, without changing anything
func (e *GameEngine) CanApply(cmd Command) bool {
	if cmd.Action == ActionDrop {
		_, ok := e.catalog[cmd.Piece]
		return ok
	}

	preview := e.field.Clone()
	switch cmd.Action {
	case ActionLeft:
		return preview.MoveLeft()
	case ActionRight:
		return preview.MoveRight()
	case ActionDown:
		return preview.MoveDown()
	case ActionCW:
		return preview.RotateCW()
	case ActionCCW:
		return preview.RotateCCW()
	}
	return false
}

// PossibleActions returns every non-drop action that would currently succeed
func (e *GameEngine) PossibleActions() []Action {
	var possible []Action
	for _, action := range AllActions {
		if action == ActionDrop {
			continue
		}
		if e.CanApply(Command{Action: action}) {
			possible = append(possible, action)
		}
	}
	return possible
}

// BulkApply executes commands in order, returning the outcome of each
func (e *GameEngine) BulkApply(cmds []Command) []bool {
	results := make([]bool, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, e.Apply(cmd))
	}
	return results
}

// GetConfig returns the current configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new configuration and resets the field
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	prev := e.config
	e.config = config
	if err := e.init(); err != nil {
		e.config = prev
		return err
	}
	return nil
}

// PieceNames returns the configured piece names in configuration order
func (e *GameEngine) PieceNames() []string {
	names := make([]string, 0, len(e.config.Pieces))
	for _, p := range e.config.Pieces {
		names = append(names, p.Name)
	}
	return names
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last command, or nil if none
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// DescribeCell describes a single cell of the field
func (e *GameEngine) DescribeCell(row, col int) CellInfo {
	return e.field.CellAt(row, col)
}

func (e *GameEngine) addMoveToHistory(entry MoveHistoryEntry) {
	entry.Timestamp = time.Now().Unix()
	entry.MoveNumber = e.totalMoves + 1

	e.history = append(e.history, entry)
	e.totalMoves++

	e.current = append(e.current, entry)
	e.currentMoves++
}

func withDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
