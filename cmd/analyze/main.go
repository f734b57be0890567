// Command analyze prints quick, human-readable heuristics about field
// configurations. For each file it summarizes dimensions, the landed cells of
// the starting layout and, per piece, its size, rotation states, spawn column
// and whether the piece can spawn and turn at all.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/fallingblocks/game/engine"
)

// PieceReport describes how one piece behaves on a fresh field
type PieceReport struct {
	Name        string
	Size        int
	States      int
	SpawnColumn int
	SpawnClear  bool
	CanRotate   bool
}

// Analysis is the summary of one configuration file
type Analysis struct {
	File   string
	Name   string
	Width  int
	Height int
	Landed int
	Pieces []PieceReport
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := configFiles(dir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analysis, err := analyzeConfig(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
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

func analyzeConfig(path string) (*Analysis, error) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, err
	}

	field, err := engine.InitFieldFromConfig(config)
	if err != nil {
		return nil, err
	}
	catalog, err := engine.BuildCatalog(config)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		File:   filepath.Base(path),
		Name:   config.Name,
		Width:  field.Width(),
		Height: field.Height(),
		Landed: field.LandedCount(),
	}

	for _, p := range config.Pieces {
		shape := catalog[p.Name]
		spawn := engine.Position{Row: 0, Col: field.SpawnColumn(shape.Size())}
		report := PieceReport{
			Name:        p.Name,
			Size:        shape.Size(),
			States:      shape.StateCount(),
			SpawnColumn: spawn.Col,
			SpawnClear:  !field.Collides(shape.StateAt(0), spawn),
		}
		if report.SpawnClear {
			report.CanRotate = canRotateAtSpawn(config, p.Name)
		}
		a.Pieces = append(a.Pieces, report)
	}

	return a, nil
}

// canRotateAtSpawn reports whether a clockwise turn succeeds right after the drop
func canRotateAtSpawn(config *engine.GameConfig, piece string) bool {
	e, err := engine.NewEngine(config)
	if err != nil {
		return false
	}
	if !e.Apply(engine.Command{Action: engine.ActionDrop, Piece: piece}) {
		return false
	}
	return e.CanApply(engine.Command{Action: engine.ActionCW})
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Field: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Landed cells: %d\n", a.Landed)

	var blocked []string
	for _, p := range a.Pieces {
		fmt.Fprintf(w, "  %-4s size=%d states=%d spawn_col=%d", p.Name, p.Size, p.States, p.SpawnColumn)
		switch {
		case !p.SpawnClear:
			fmt.Fprintln(w, " ⚠️  spawn blocked")
			blocked = append(blocked, p.Name)
		case p.States > 1 && !p.CanRotate:
			fmt.Fprintln(w, " ⚠️  cannot turn at spawn")
		default:
			fmt.Fprintln(w, " ✅")
		}
	}

	if len(blocked) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d pieces overlap the layout at spawn: %s\n", len(blocked), strings.Join(blocked, ", "))
	} else {
		fmt.Fprintf(w, "✅ All pieces spawn clear\n")
	}
}
