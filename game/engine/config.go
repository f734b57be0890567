package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// ValidateGameConfig validates a field configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate dimensions
	if config.Width < MinFieldSize || config.Width > MaxFieldSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinFieldSize, MaxFieldSize, config.Width)
	}
	if config.Height < MinFieldSize || config.Height > MaxFieldSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinFieldSize, MaxFieldSize, config.Height)
	}

	// Validate layout, when one is given
	if len(config.Layout) > 0 {
		if len(config.Layout) != config.Height {
			return fmt.Errorf("config validation: layout must have %d rows to match height, got %d",
				config.Height, len(config.Layout))
		}
		for i, row := range config.Layout {
			if n := len([]rune(row)); n != config.Width {
				return fmt.Errorf("config validation: row %d must have %d cells to match width, got %d",
					i+1, config.Width, n)
			}
			for _, g := range row {
				if runewidth.RuneWidth(g) != 1 {
					return fmt.Errorf("config validation: glyph %q at row %d is wider than one column", g, i+1)
				}
			}
		}
	}

	// Validate pieces
	if len(config.Pieces) == 0 {
		return fmt.Errorf("config validation: at least one piece is required")
	}
	seen := make(map[string]bool, len(config.Pieces))
	for i, p := range config.Pieces {
		if p.Name == "" {
			return fmt.Errorf("config validation: piece %d has no name", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("config validation: duplicate piece name %q", p.Name)
		}
		seen[p.Name] = true

		shape, err := shapeFromConfig(p)
		if err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		if shape.Size() > config.Width || shape.Size() > config.Height {
			return fmt.Errorf("config validation: piece %q is %dx%d, larger than the %dx%d field",
				p.Name, shape.Size(), shape.Size(), config.Width, config.Height)
		}
	}

	return nil
}

// DecodeGameConfig decodes a configuration; ext selects YAML (".yaml", ".yml") or JSON
func DecodeGameConfig(data []byte, ext string) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	}
	return &config, nil
}

// LoadGameConfig loads and validates a configuration file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(data, filepath.Ext(configPath))
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigExtensions are the file extensions recognized as configurations
var ConfigExtensions = []string{".json", ".yaml", ".yml"}

// LoadConfigByName loads a configuration from the configs directory by name,
// with or without an extension
func LoadConfigByName(name string) (*GameConfig, error) {
	if filepath.Ext(name) != "" {
		return LoadGameConfig(filepath.Join("configs", name))
	}

	for _, ext := range ConfigExtensions {
		config, err := LoadGameConfig(filepath.Join("configs", name+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return config, err
	}
	return nil, fmt.Errorf("config %q not found", name)
}

// InitFieldFromConfig builds the starting field of a configuration
func InitFieldFromConfig(config *GameConfig) (*Field, error) {
	if len(config.Layout) == 0 {
		return NewField(config.Width, config.Height)
	}
	return ParseField(strings.Join(config.Layout, "\n"))
}

// BuildCatalog parses every configured piece, keyed by name
func BuildCatalog(config *GameConfig) (map[string]*Shape, error) {
	catalog := make(map[string]*Shape, len(config.Pieces))
	for _, p := range config.Pieces {
		shape, err := shapeFromConfig(p)
		if err != nil {
			return nil, err
		}
		catalog[p.Name] = shape
	}
	return catalog, nil
}

func shapeFromConfig(p PieceConfig) (*Shape, error) {
	diagrams := make([]string, 0, len(p.States))
	for _, rows := range p.States {
		diagrams = append(diagrams, strings.Join(rows, "\n"))
	}
	return NewShape(p.Name, diagrams...)
}

// DefaultConfig returns the built-in 8x6 configuration
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Empty 8x6 field with the L, I3 and I5 pieces",
		Width:       8,
		Height:      6,
		Pieces: []PieceConfig{
			{
				Name: "L",
				States: [][]string{
					{"X..", "XXX", "..."},
					{".XX", ".X.", ".X."},
					{"...", "XXX", "..X"},
					{".X.", ".X.", "XX."},
				},
			},
			{
				Name: "I3",
				States: [][]string{
					{".X.", ".X.", ".X."},
					{"...", "XXX", "..."},
				},
			},
			{
				Name: "I5",
				States: [][]string{
					{"..X..", "..X..", "..X..", "..X..", "..X.."},
					{".....", ".....", "XXXXX", ".....", "....."},
				},
			},
		},
		Messages: Messages{
			Welcome:       "Drop a piece to start",
			Dropped:       "Piece dropped",
			Blocked:       "Blocked",
			RotateBlocked: "No room to rotate",
			NoPiece:       "No active piece, drop one first",
		},
	}
}
