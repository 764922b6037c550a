package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MultiplierType names the kind of bonus a cell carries.
type MultiplierType string

const (
	Regular      MultiplierType = "regular"
	DoubleWord   MultiplierType = "double_word"
	DoubleLetter MultiplierType = "double_letter"
	TripleWord   MultiplierType = "triple_word"
	TripleLetter MultiplierType = "triple_letter"
	CenterTile   MultiplierType = "center"
)

// Multiplier stamps WordMultiplier and LetterMultiplier on every coordinate.
type Multiplier struct {
	Word        int        `json:"word" yaml:"word"`
	Letter      int        `json:"letter" yaml:"letter"`
	Coordinates []Position `json:"coordinates" yaml:"coordinates"`
}

// MultiplierTable maps a multiplier type to the cells that carry it.
type MultiplierTable map[MultiplierType]Multiplier

// BoardCell is one square of the board.
type BoardCell struct {
	Row              int            `json:"row"`
	Col              int            `json:"col"`
	Type             MultiplierType `json:"type"`
	WordMultiplier   int            `json:"word_multiplier"`
	LetterMultiplier int            `json:"letter_multiplier"`
	Tile             *Tile          `json:"tile,omitempty"`
}

func (c *BoardCell) disableMultiplier() {
	c.Type = Regular
	c.WordMultiplier = 1
	c.LetterMultiplier = 1
}

// BoardView is the read-only side of the board handed to code outside the
// engine.
type BoardView interface {
	Tile(row, col int) (Tile, bool)
	IsEmpty(row, col int) bool
	InBounds(row, col int) bool
	Width() int
	Height() int
	Cells() [][]BoardCell
}

// Board is a square grid. Only the engine mutates it.
type Board struct {
	size  int
	cells [][]BoardCell
}

// NewBoard allocates a size x size grid and stamps the multiplier table on it.
func NewBoard(size int, table MultiplierTable) (*Board, error) {
	if size <= 0 {
		return nil, fmt.Errorf("board size must be positive, got %d", size)
	}
	b := &Board{size: size, cells: make([][]BoardCell, size)}
	for r := range b.cells {
		b.cells[r] = make([]BoardCell, size)
		for c := range b.cells[r] {
			b.cells[r][c] = BoardCell{Row: r, Col: c, Type: Regular, WordMultiplier: 1, LetterMultiplier: 1}
		}
	}

	// stamp in a stable order so overlapping tables are deterministic
	kinds := make([]string, 0, len(table))
	for k := range table {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		m := table[MultiplierType(k)]
		for _, pos := range m.Coordinates {
			if !b.InBounds(pos.Row, pos.Col) {
				return nil, fmt.Errorf("multiplier %s at (%d,%d) is outside a %dx%d board", k, pos.Row, pos.Col, size, size)
			}
			cell := &b.cells[pos.Row][pos.Col]
			cell.Type = MultiplierType(k)
			cell.WordMultiplier = m.Word
			cell.LetterMultiplier = m.Letter
		}
	}
	return b, nil
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

func (b *Board) Tile(row, col int) (Tile, bool) {
	if !b.InBounds(row, col) || b.cells[row][col].Tile == nil {
		return Tile{}, false
	}
	return *b.cells[row][col].Tile, true
}

func (b *Board) IsEmpty(row, col int) bool {
	_, ok := b.Tile(row, col)
	return !ok
}

func (b *Board) Width() int  { return b.size }
func (b *Board) Height() int { return b.size }

// Cell returns a copy of the cell at row, col.
func (b *Board) Cell(row, col int) (BoardCell, bool) {
	if !b.InBounds(row, col) {
		return BoardCell{}, false
	}
	cell := b.cells[row][col]
	if cell.Tile != nil {
		t := *cell.Tile
		cell.Tile = &t
	}
	return cell, true
}

// Cells returns a deep copy of the grid.
func (b *Board) Cells() [][]BoardCell {
	out := make([][]BoardCell, b.size)
	for r := range b.cells {
		out[r] = make([]BoardCell, b.size)
		for c := range b.cells[r] {
			out[r][c], _ = b.Cell(r, c)
		}
	}
	return out
}

// TileCount returns the number of occupied cells.
func (b *Board) TileCount() int {
	n := 0
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c].Tile != nil {
				n++
			}
		}
	}
	return n
}

func (b *Board) cell(row, col int) *BoardCell {
	return &b.cells[row][col]
}

func (b *Board) setTile(row, col int, t Tile) {
	b.cells[row][col].Tile = &t
}

func (b *Board) clearTile(row, col int) {
	b.cells[row][col].Tile = nil
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Cells())
}
