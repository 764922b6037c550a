package engine

import "strings"

// Direction is the axis a word runs along.
type Direction string

const (
	Vertical   Direction = "vertical"
	Horizontal Direction = "horizontal"
)

// WordInfo is one word formed by a move.
type WordInfo struct {
	Text      string    `json:"text"`
	Start     Position  `json:"start"`
	Direction Direction `json:"direction"`
	Points    int       `json:"points"`
}

type wordKey struct {
	text  string
	start Position
	dir   Direction
}

// extractWords finds every maximal run longer than one tile that passes
// through a placed cell, vertical axis first.
func extractWords(b *Board, placed []Position) []WordInfo {
	seen := make(map[wordKey]bool)
	var words []WordInfo
	for _, pos := range placed {
		for _, dir := range []Direction{Vertical, Horizontal} {
			w, ok := runThrough(b, pos, dir)
			if !ok {
				continue
			}
			key := wordKey{text: w.Text, start: w.Start, dir: dir}
			if seen[key] {
				continue
			}
			seen[key] = true
			words = append(words, w)
		}
	}
	return words
}

func runThrough(b *Board, pos Position, dir Direction) (WordInfo, bool) {
	dr, dc := 1, 0
	if dir == Horizontal {
		dr, dc = 0, 1
	}

	start := pos
	for b.InBounds(start.Row-dr, start.Col-dc) && !b.IsEmpty(start.Row-dr, start.Col-dc) {
		start = Position{Row: start.Row - dr, Col: start.Col - dc}
	}

	var sb strings.Builder
	length, points, wordMul := 0, 0, 1
	for r, c := start.Row, start.Col; b.InBounds(r, c) && !b.IsEmpty(r, c); r, c = r+dr, c+dc {
		cell := b.cell(r, c)
		sb.WriteString(cell.Tile.Letter)
		points += cell.Tile.Points * cell.LetterMultiplier
		wordMul *= cell.WordMultiplier
		length++
	}
	if length < 2 {
		return WordInfo{}, false
	}
	return WordInfo{Text: sb.String(), Start: start, Direction: dir, Points: points * wordMul}, true
}
