package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	// held for writing by anything that mutates a session, access time included
	mu sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new session on a fresh field
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information and touches its access time
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session), nil
}

// sessionError wraps a failed session lookup with the requested ID
func sessionError(sessionID string, err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return fmt.Errorf("session %s: %w", sessionID, err)
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Command executes a single command for a session
func (s *gameServiceImpl) Command(ctx context.Context, sessionID, command string, reset bool) (*CommandResult, error) {
	cmd, err := engine.ParseCommand(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		events = append(events, resetEvent(sess.Engine.Reset()))
	}

	step, stepEvents, _ := execute(sess.Engine, 1, cmd)
	events = append(events, stepEvents...)
	state := sess.Engine.GetState()

	result := &CommandResult{
		Success:         step.Success,
		GameState:       state,
		Message:         state.Message,
		Events:          events,
		Step:            &step,
		PossibleActions: possibleActions(sess.Engine),
	}

	// Auto-save session after command
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after command: %v", sessionID, err)
	}

	return result, nil
}

// BulkCommand executes multiple commands in sequence
func (s *gameServiceImpl) BulkCommand(ctx context.Context, sessionID string, commands []string, opts BulkOptions) (*BulkCommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkCommandResult{
		RequestedCommands: len(commands),
		Events:            make([]GameEvent, 0),
		Success:           true,
	}

	if opts.Reset {
		result.Events = append(result.Events, resetEvent(sess.Engine.Reset()))
	}
	result.StartAnchor = sess.Engine.GetField().Anchor()

	// Limit commands to prevent abuse
	if len(commands) > engine.MaxBulkCommands {
		result.Truncated = true
		result.Limit = engine.MaxBulkCommands
		commands = commands[:engine.MaxBulkCommands]
	}

	for i, text := range commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cmd, err := engine.ParseCommand(text)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("command %d invalid: %v", i+1, err)
			result.StopReasonCode = StopInvalidCommand
			result.StoppedOnCommand = i + 1
			break
		}

		step, events, code := execute(sess.Engine, i+1, cmd)
		result.CommandsExecuted++
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, events...)

		if step.Success {
			result.CommandsSucceeded++
			continue
		}

		result.Success = false
		if opts.ContinueOnBlocked && code != StopUnknownPiece {
			continue
		}
		result.StoppedReason = fmt.Sprintf("command %d blocked: %s", i+1, cmd)
		result.StopReasonCode = code
		result.StoppedOnCommand = i + 1
		break
	}

	result.GameState = sess.Engine.GetState()
	result.EndAnchor = result.GameState.Anchor
	result.Message = result.GameState.Message
	result.PossibleActions = possibleActions(sess.Engine)

	// Auto-save session after bulk commands
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after bulk commands: %v", sessionID, err)
	}

	return result, nil
}

// Reset rebuilds a session's field from its configuration
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	// Auto-save session after reset
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current field state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// DescribeCell reports what occupies one cell of a session's field
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, row, col int) (*engine.CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	info := sess.Engine.DescribeCell(row, col)
	return &info, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionError(sessionID, err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available field configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific field configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a field configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// execute applies cmd and describes the outcome. The stop code is empty on success.
func execute(e *engine.GameEngine, idx int, cmd engine.Command) (StepInfo, []GameEvent, string) {
	hadPiece := e.GetField().Piece() != nil
	success := e.Apply(cmd)
	entry := e.GetLastMove()
	state := e.GetState()

	step := StepInfo{
		Idx:          idx,
		Command:      cmd.String(),
		Piece:        cmd.Piece,
		From:         entry.FromAnchor,
		To:           entry.ToAnchor,
		FromRotation: entry.FromRotation,
		ToRotation:   entry.ToRotation,
		Kick:         entry.Kick,
		Success:      success,
	}

	now := time.Now()
	if !success {
		code := StopBlocked
		switch {
		case cmd.Action == engine.ActionDrop:
			code = StopUnknownPiece
		case !hadPiece:
			code = StopNoPiece
		case cmd.Action == engine.ActionCW || cmd.Action == engine.ActionCCW:
			code = StopRotateBlocked
		}
		return step, []GameEvent{{Type: "blocked", Message: state.Message, Timestamp: now, Anchor: state.Anchor}}, code
	}

	var events []GameEvent
	switch cmd.Action {
	case engine.ActionDrop:
		events = append(events, GameEvent{
			Type:      "drop",
			Message:   fmt.Sprintf("Dropped %s at (%d,%d)", cmd.Piece, state.Anchor.Row, state.Anchor.Col),
			Timestamp: now,
			Anchor:    state.Anchor,
		})
	case engine.ActionCW, engine.ActionCCW:
		events = append(events, GameEvent{
			Type:      "rotate",
			Message:   fmt.Sprintf("Rotated %s to state %d", cmd.Action, state.Rotation),
			Timestamp: now,
			Anchor:    state.Anchor,
		})
		if entry.Kick != 0 {
			events = append(events, GameEvent{
				Type:      "kick",
				Message:   fmt.Sprintf("Kicked %+d columns", entry.Kick),
				Timestamp: now,
				Anchor:    state.Anchor,
			})
		}
	default:
		events = append(events, GameEvent{
			Type:      "move",
			Message:   fmt.Sprintf("Moved %s to (%d,%d)", cmd.Action, state.Anchor.Row, state.Anchor.Col),
			Timestamp: now,
			Anchor:    state.Anchor,
		})
	}
	return step, events, ""
}

func resetEvent(state *engine.GameState) GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Field reset to initial state",
		Timestamp: time.Now(),
		Anchor:    state.Anchor,
	}
}

func possibleActions(e *engine.GameEngine) []string {
	actions := make([]string, 0, len(engine.AllActions))
	for _, a := range e.PossibleActions() {
		actions = append(actions, string(a))
	}
	return actions
}
