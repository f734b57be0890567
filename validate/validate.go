// Command validate checks every field configuration (JSON or YAML) in a
// directory, ../configs by default. It checks:
//   - structure and required fields, through engine.ValidateGameConfig
//   - that every piece spawns without overlapping the layout
//   - which message keys are missing and fall back to defaults
//   - reachability: how deep each piece can travel from spawn using moves and turns
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "⚠ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodeGameConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid syntax: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%v", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	field, err := engine.InitFieldFromConfig(config)
	if err != nil {
		result.fail("Invalid layout: %v", err)
		return result
	}
	catalog, err := engine.BuildCatalog(config)
	if err != nil {
		result.fail("Invalid pieces: %v", err)
		return result
	}

	for _, p := range config.Pieces {
		shape := catalog[p.Name]
		spawn := engine.Position{Row: 0, Col: field.SpawnColumn(shape.Size())}
		if field.Collides(shape.StateAt(0), spawn) {
			result.fail("Piece %s overlaps the layout at spawn (0,%d)", p.Name, spawn.Col)
		}
	}

	if !result.Valid {
		return result
	}

	for _, key := range missingMessages(config.Messages) {
		result.warn("Message %q not set, default text is used", key)
	}

	for _, p := range config.Pieces {
		depth := reachableDepth(field, catalog[p.Name])
		if depth < field.Height()-1 {
			result.warn("Piece %s cannot reach the floor (deepest row %d of %d)", p.Name, depth, field.Height()-1)
		} else {
			result.info("Piece %s reaches the floor", p.Name)
		}
	}

	result.info("Name: %s", config.Name)
	result.info("Field: %dx%d", field.Width(), field.Height())
	result.info("Landed cells: %d", field.LandedCount())
	result.info("Pieces: %d", len(config.Pieces))

	return result
}

func missingMessages(m engine.Messages) []string {
	var missing []string
	for key, value := range map[string]string{
		"welcome":        m.Welcome,
		"dropped":        m.Dropped,
		"blocked":        m.Blocked,
		"rotate_blocked": m.RotateBlocked,
		"no_piece":       m.NoPiece,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

type placement struct {
	rotation int
	anchor   engine.Position
}

// reachableDepth explores every placement reachable from spawn with left,
// right, down and both turns, and returns the lowest row any occupied cell
// reaches. It returns -1 when the spawn itself is blocked.
func reachableDepth(field *engine.Field, shape *engine.Shape) int {
	start := field.Clone()
	start.Drop(shape)
	if start.Collides(shape.StateAt(0), start.Anchor()) {
		return -1
	}

	moves := []func(*engine.Field) bool{
		(*engine.Field).MoveLeft,
		(*engine.Field).MoveRight,
		(*engine.Field).MoveDown,
		(*engine.Field).RotateCW,
		(*engine.Field).RotateCCW,
	}

	visited := map[placement]bool{}
	queue := []*engine.Field{start}
	deepest := -1

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		key := placement{current.Rotation(), current.Anchor()}
		if visited[key] {
			continue
		}
		visited[key] = true

		if bottom := current.Anchor().Row + lowestRow(shape.StateAt(current.Rotation())); bottom > deepest {
			deepest = bottom
		}

		for _, move := range moves {
			next := current.Clone()
			if !move(next) {
				continue
			}
			if !visited[placement{next.Rotation(), next.Anchor()}] {
				queue = append(queue, next)
			}
		}
	}

	return deepest
}

func lowestRow(state [][]bool) int {
	for r := len(state) - 1; r >= 0; r-- {
		for _, occupied := range state[r] {
			if occupied {
				return r
			}
		}
	}
	return 0
}

// configFiles lists every JSON or YAML file in dir, sorted
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range engine.ConfigExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each configuration in the directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := configFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
