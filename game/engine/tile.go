package engine

import (
	"fmt"
	"sync/atomic"
)

// tileSeq hands out process-wide unique tile ids.
var tileSeq atomic.Int64

// Tile is a single letter tile. Two tiles are equal only when their ids match
// as well as their letter and points.
type Tile struct {
	Letter string `json:"letter"`
	Points int    `json:"points"`
	ID     int64  `json:"id"`
}

func newTile(letter string, points int) Tile {
	return Tile{Letter: letter, Points: points, ID: tileSeq.Add(1)}
}

// Equals reports whether t and other are the same physical tile.
func (t Tile) Equals(other Tile) bool {
	return t.ID == other.ID && t.Letter == other.Letter && t.Points == other.Points
}

func (t Tile) String() string {
	return fmt.Sprintf("%s(%d)#%d", t.Letter, t.Points, t.ID)
}

// Position is a board coordinate.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// TilePlacement asks for Tile to be placed at Row, Col.
type TilePlacement struct {
	Tile Tile `json:"tile"`
	Row  int  `json:"row"`
	Col  int  `json:"col"`
}

func (p TilePlacement) Position() Position {
	return Position{Row: p.Row, Col: p.Col}
}
