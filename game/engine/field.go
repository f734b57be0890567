package engine

import (
	"fmt"
	"strings"

	"github.com/kamstrup/intmap"
	"github.com/mattn/go-runewidth"
)

// Field is the playing field: landed cells plus at most one falling piece.
// A Field is owned by a single caller and is not safe for concurrent use.
type Field struct {
	width  int
	height int

	// landed markers keyed by row*width+col
	landed *intmap.Map[int, rune]

	piece    *Shape
	rotation int
	anchor   Position
}

// NewField creates an empty field
func NewField(width, height int) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %dx%d", ErrInvalidField, width, height)
	}
	return &Field{
		width:  width,
		height: height,
		landed: intmap.New[int, rune](width * height),
	}, nil
}

// ParseField builds a field from a text snapshot. Every glyph other than
// BackgroundGlyph or a space is a landed cell and is kept as its marker.
func ParseField(snapshot string) (*Field, error) {
	rows := splitLines(snapshot)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: snapshot is empty", ErrInvalidField)
	}

	width := len([]rune(rows[0]))
	f, err := NewField(width, len(rows))
	if err != nil {
		return nil, err
	}

	for r, row := range rows {
		glyphs := []rune(row)
		if len(glyphs) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidField, r, len(glyphs), width)
		}
		for c, g := range glyphs {
			if g == BackgroundGlyph || g == ' ' {
				continue
			}
			if runewidth.RuneWidth(g) != 1 {
				return nil, fmt.Errorf("%w: glyph %q at row %d col %d is wider than one column", ErrInvalidField, g, r, c)
			}
			f.landed.Put(f.key(r, c), g)
		}
	}

	return f, nil
}

// Width returns the number of columns
func (f *Field) Width() int { return f.width }

// Height returns the number of rows
func (f *Field) Height() int { return f.height }

// Piece returns the active shape, or nil before the first drop
func (f *Field) Piece() *Shape { return f.piece }

// Rotation returns the rotation index of the active piece
func (f *Field) Rotation() int { return f.rotation }

// Anchor returns the top-left corner of the active piece's bounding square
func (f *Field) Anchor() Position { return f.anchor }

// LandedCount returns the number of landed cells
func (f *Field) LandedCount() int { return f.landed.Len() }

// SpawnColumn returns the column where a piece of the given size is dropped
func (f *Field) SpawnColumn(size int) int {
	return f.width/2 - size/2
}

// Drop makes shape the active piece at the spawn position. The spawn
// position is not checked; a clear spawn is the caller's responsibility.
func (f *Field) Drop(shape *Shape) {
	f.piece = shape
	f.rotation = 0
	f.anchor = Position{Row: 0, Col: f.SpawnColumn(shape.Size())}
}

// Place puts shape at an exact rotation and anchor, rejecting collisions
func (f *Field) Place(shape *Shape, rotation int, anchor Position) error {
	if shape == nil {
		return fmt.Errorf("%w: no shape to place", ErrInvalidShape)
	}
	rotation = shape.Normalize(rotation)
	if f.Collides(shape.state(rotation), anchor) {
		return fmt.Errorf("%w: %s at rotation %d collides at (%d,%d)",
			ErrInvalidField, shape.Name(), rotation, anchor.Row, anchor.Col)
	}
	f.piece = shape
	f.rotation = rotation
	f.anchor = anchor
	return nil
}

// MoveLeft shifts the active piece one column left if the target is clear
func (f *Field) MoveLeft() bool { return f.shift(0, -1) }

// MoveRight shifts the active piece one column right if the target is clear
func (f *Field) MoveRight() bool { return f.shift(0, 1) }

// MoveDown shifts the active piece one row down if the target is clear.
// A blocked move does not lock the piece.
func (f *Field) MoveDown() bool { return f.shift(1, 0) }

func (f *Field) shift(dRow, dCol int) bool {
	if f.piece == nil {
		return false
	}
	candidate := Position{Row: f.anchor.Row + dRow, Col: f.anchor.Col + dCol}
	if f.Collides(f.piece.state(f.rotation), candidate) {
		return false
	}
	f.anchor = candidate
	return true
}

// Collides reports whether any occupied cell of state placed at anchor lies
// outside the field or on a landed cell
func (f *Field) Collides(state [][]bool, anchor Position) bool {
	for r, row := range state {
		for c, occupied := range row {
			if !occupied {
				continue
			}
			if f.blocked(anchor.Row+r, anchor.Col+c) {
				return true
			}
		}
	}
	return false
}

func (f *Field) blocked(row, col int) bool {
	if !f.inBounds(row, col) {
		return true
	}
	_, landed := f.landed.Get(f.key(row, col))
	return landed
}

func (f *Field) inBounds(row, col int) bool {
	return row >= 0 && row < f.height && col >= 0 && col < f.width
}

func (f *Field) key(row, col int) int {
	return row*f.width + col
}

// Clone returns a deep copy of the field. Shapes are immutable and shared.
func (f *Field) Clone() *Field {
	out := &Field{
		width:    f.width,
		height:   f.height,
		landed:   intmap.New[int, rune](f.width * f.height),
		piece:    f.piece,
		rotation: f.rotation,
		anchor:   f.anchor,
	}
	f.landed.ForEach(func(k int, v rune) bool {
		out.landed.Put(k, v)
		return true
	})
	return out
}

// CellAt describes what occupies the given cell
func (f *Field) CellAt(row, col int) CellInfo {
	info := CellInfo{Row: row, Col: col, Kind: CellEmpty}
	switch {
	case !f.inBounds(row, col):
		info.Kind = CellOutOfBounds
	case f.landedGlyph(row, col) != 0:
		info.Kind = CellLanded
		info.Glyph = string(f.landedGlyph(row, col))
	case f.pieceCovers(row, col):
		info.Kind = CellPiece
		info.Glyph = string(PieceGlyph)
	default:
		info.Glyph = string(BackgroundGlyph)
	}
	return info
}

func (f *Field) landedGlyph(row, col int) rune {
	g, _ := f.landed.Get(f.key(row, col))
	return g
}

func (f *Field) pieceCovers(row, col int) bool {
	if f.piece == nil {
		return false
	}
	r, c := row-f.anchor.Row, col-f.anchor.Col
	if r < 0 || c < 0 || r >= f.piece.Size() || c >= f.piece.Size() {
		return false
	}
	return f.piece.state(f.rotation)[r][c]
}

// Render draws the field as height newline-terminated rows. Landed markers
// take precedence over the active piece.
func (f *Field) Render() string {
	return f.render(true)
}

// LandedSnapshot draws only the landed cells, in ParseField format
func (f *Field) LandedSnapshot() string {
	return f.render(false)
}

// String implements fmt.Stringer
func (f *Field) String() string {
	return f.Render()
}

// Rows returns the rendered field split into rows
func (f *Field) Rows() []string {
	return splitLines(f.Render())
}

func (f *Field) render(withPiece bool) string {
	var b strings.Builder
	b.Grow((f.width + 1) * f.height)
	for row := 0; row < f.height; row++ {
		for col := 0; col < f.width; col++ {
			switch {
			case f.landedGlyph(row, col) != 0:
				b.WriteRune(f.landedGlyph(row, col))
			case withPiece && f.pieceCovers(row, col):
				b.WriteRune(PieceGlyph)
			default:
				b.WriteRune(BackgroundGlyph)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
