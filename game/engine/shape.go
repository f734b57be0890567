package engine

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Shape is an immutable cycle of square rotation states for one piece type.
// State 0 is the spawn orientation; each following state is one clockwise turn.
type Shape struct {
	name     string
	size     int
	states   [][][]bool
	diagrams []string
}

// NewShape parses one diagram per rotation state. Each diagram is a block of
// equal-length lines where PieceGlyph marks an occupied cell.
func NewShape(name string, diagrams ...string) (*Shape, error) {
	if len(diagrams) == 0 {
		return nil, fmt.Errorf("%w: %q has no rotation states", ErrInvalidShape, name)
	}

	s := &Shape{name: name}
	for i, diagram := range diagrams {
		rows := splitLines(diagram)
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: %q state %d is empty", ErrInvalidShape, name, i)
		}
		if i == 0 {
			s.size = len(rows)
		}
		if len(rows) != s.size {
			return nil, fmt.Errorf("%w: %q state %d has %d rows, want %d", ErrInvalidShape, name, i, len(rows), s.size)
		}

		state := make([][]bool, s.size)
		occupied := 0
		for r, row := range rows {
			glyphs := []rune(row)
			if len(glyphs) != s.size {
				return nil, fmt.Errorf("%w: %q state %d row %d has %d cells, want %d",
					ErrInvalidShape, name, i, r, len(glyphs), s.size)
			}
			state[r] = make([]bool, s.size)
			for c, g := range glyphs {
				if runewidth.RuneWidth(g) != 1 {
					return nil, fmt.Errorf("%w: %q state %d has glyph %q wider than one column", ErrInvalidShape, name, i, g)
				}
				if g == PieceGlyph {
					state[r][c] = true
					occupied++
				}
			}
		}
		if occupied == 0 {
			return nil, fmt.Errorf("%w: %q state %d has no occupied cells", ErrInvalidShape, name, i)
		}

		s.states = append(s.states, state)
		s.diagrams = append(s.diagrams, strings.Join(rows, "\n")+"\n")
	}

	return s, nil
}

// MustShape is like NewShape but panics on malformed diagrams
func MustShape(name string, diagrams ...string) *Shape {
	s, err := NewShape(name, diagrams...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the piece name
func (s *Shape) Name() string { return s.name }

// Size returns the side length of the bounding square
func (s *Shape) Size() int { return s.size }

// StateCount returns the number of rotation states
func (s *Shape) StateCount() int { return len(s.states) }

// Diagrams returns the normalized diagram text of every state
func (s *Shape) Diagrams() []string {
	out := make([]string, len(s.diagrams))
	copy(out, s.diagrams)
	return out
}

// StateAt returns a copy of the state at index, wrapped into [0, StateCount())
func (s *Shape) StateAt(index int) [][]bool {
	state := s.state(index)
	out := make([][]bool, len(state))
	for r := range state {
		out[r] = append([]bool(nil), state[r]...)
	}
	return out
}

// Normalize wraps any rotation index, including negative ones
func (s *Shape) Normalize(index int) int {
	n := len(s.states)
	return ((index % n) + n) % n
}

func (s *Shape) state(index int) [][]bool {
	return s.states[s.Normalize(index)]
}

// splitLines splits text into rows, dropping trailing empty lines
func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
