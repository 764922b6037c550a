package engine

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultBoardSize            = 15
	DefaultRackSize             = 7
	DefaultBingoBonus           = 50
	DefaultMaxConsecutivePasses = 6

	MinBoardSize = 5
	MaxBoardSize = 25

	MinPlayers = 2
	MaxPlayers = 4
)

// Dictionary answers word-validity queries. Implementations must be safe for
// concurrent use and must not block on I/O.
type Dictionary interface {
	Contains(word string) bool
}

// RuleSet describes everything that varies between game variants.
type RuleSet struct {
	Name                 string          `json:"name" yaml:"name"`
	Description          string          `json:"description" yaml:"description"`
	Language             string          `json:"language" yaml:"language"`
	BoardSize            int             `json:"board_size" yaml:"board_size"`
	RackSize             int             `json:"rack_size" yaml:"rack_size"`
	BingoBonus           int             `json:"bingo_bonus" yaml:"bingo_bonus"`
	MaxConsecutivePasses int             `json:"max_consecutive_passes" yaml:"max_consecutive_passes"`
	Center               Position        `json:"center" yaml:"center"`
	Multipliers          MultiplierTable `json:"multipliers" yaml:"multipliers"`
	Tiles                []TileCount     `json:"tiles" yaml:"tiles"`
}

// TileTotal returns the number of tiles in the distribution.
func (r *RuleSet) TileTotal() int {
	n := 0
	for _, tc := range r.Tiles {
		n += tc.Count
	}
	return n
}

// ValidateRuleSet checks that a rule set can produce a playable game.
func ValidateRuleSet(r *RuleSet) error {
	if r == nil {
		return errors.New("rule set is nil")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule set name is required")
	}
	if r.BoardSize < MinBoardSize || r.BoardSize > MaxBoardSize {
		return fmt.Errorf("board size must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, r.BoardSize)
	}
	if r.RackSize <= 0 {
		return fmt.Errorf("rack size must be positive, got %d", r.RackSize)
	}
	if r.BingoBonus < 0 {
		return fmt.Errorf("bingo bonus cannot be negative, got %d", r.BingoBonus)
	}
	if r.MaxConsecutivePasses <= 0 {
		return fmt.Errorf("max consecutive passes must be positive, got %d", r.MaxConsecutivePasses)
	}
	if !inside(r.Center, r.BoardSize) {
		return fmt.Errorf("center (%d,%d) is outside the board", r.Center.Row, r.Center.Col)
	}

	seen := make(map[Position]MultiplierType)
	for kind, m := range r.Multipliers {
		if m.Word <= 0 || m.Letter <= 0 {
			return fmt.Errorf("multiplier %s must have positive word and letter factors", kind)
		}
		for _, pos := range m.Coordinates {
			if !inside(pos, r.BoardSize) {
				return fmt.Errorf("multiplier %s at (%d,%d) is outside the board", kind, pos.Row, pos.Col)
			}
			if prev, dup := seen[pos]; dup {
				return fmt.Errorf("cell (%d,%d) is listed under both %s and %s", pos.Row, pos.Col, prev, kind)
			}
			seen[pos] = kind
		}
	}

	letters := make(map[string]bool)
	for _, tc := range r.Tiles {
		if tc.Letter == "" {
			return errors.New("tile letter cannot be empty")
		}
		if letters[tc.Letter] {
			return fmt.Errorf("tile %q is listed twice", tc.Letter)
		}
		letters[tc.Letter] = true
		if tc.Count <= 0 {
			return fmt.Errorf("tile %q must have a positive count", tc.Letter)
		}
		if tc.Points < 0 {
			return fmt.Errorf("tile %q cannot have negative points", tc.Letter)
		}
	}
	if total := r.TileTotal(); total < r.RackSize*MinPlayers {
		return fmt.Errorf("distribution has %d tiles, need at least %d to fill %d racks", total, r.RackSize*MinPlayers, MinPlayers)
	}
	return nil
}

func inside(p Position, size int) bool {
	return p.Row >= 0 && p.Row < size && p.Col >= 0 && p.Col < size
}

func at(coords ...int) []Position {
	out := make([]Position, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, Position{Row: coords[i], Col: coords[i+1]})
	}
	return out
}

// StandardMultipliers returns the classic 15x15 bonus layout.
func StandardMultipliers() MultiplierTable {
	return MultiplierTable{
		DoubleWord: {Word: 2, Letter: 1, Coordinates: at(
			1, 1, 2, 2, 3, 3, 4, 4, 10, 10, 11, 11, 12, 12, 13, 13,
			1, 13, 2, 12, 3, 11, 4, 10, 10, 4, 11, 3, 12, 2, 13, 1,
		)},
		DoubleLetter: {Word: 1, Letter: 2, Coordinates: at(
			0, 3, 0, 11, 2, 6, 2, 8, 3, 0, 3, 7, 3, 14, 6, 2, 6, 6, 6, 8, 6, 12,
			7, 3, 7, 11, 8, 2, 8, 6, 8, 8, 8, 12, 11, 0, 11, 7, 11, 14,
			12, 6, 12, 8, 14, 3, 14, 11,
		)},
		TripleWord: {Word: 3, Letter: 1, Coordinates: at(
			0, 0, 0, 7, 0, 14, 7, 0, 7, 14, 14, 0, 14, 7, 14, 14,
		)},
		TripleLetter: {Word: 1, Letter: 3, Coordinates: at(
			1, 5, 1, 9, 5, 1, 5, 5, 5, 9, 5, 13, 9, 1, 9, 5, 9, 9, 9, 13, 13, 5, 13, 9,
		)},
		CenterTile: {Word: 2, Letter: 1, Coordinates: at(7, 7)},
	}
}

// HebrewTiles is the Hebrew distribution. Final letter forms share the tile
// of their base letter.
func HebrewTiles() []TileCount {
	return []TileCount{
		{"א", 9, 1}, {"ב", 2, 2}, {"ג", 3, 1}, {"ד", 3, 1}, {"ה", 2, 2}, {"ו", 4, 1},
		{"ז", 1, 1}, {"ח", 2, 3}, {"ט", 1, 2}, {"י", 4, 1}, {"כ", 3, 3}, {"ל", 4, 1},
		{"מ", 3, 2}, {"נ", 5, 1}, {"ס", 7, 1}, {"ע", 5, 1}, {"פ", 3, 2}, {"צ", 1, 4},
		{"ק", 1, 5}, {"ר", 4, 1}, {"ש", 4, 2}, {"ת", 4, 2},
	}
}

// EnglishTiles is the English distribution without blanks.
func EnglishTiles() []TileCount {
	return []TileCount{
		{"A", 9, 1}, {"B", 2, 3}, {"C", 2, 3}, {"D", 4, 2}, {"E", 12, 1}, {"F", 2, 4},
		{"G", 3, 2}, {"H", 2, 4}, {"I", 9, 1}, {"J", 1, 8}, {"K", 1, 5}, {"L", 4, 1},
		{"M", 2, 3}, {"N", 6, 1}, {"O", 8, 1}, {"P", 2, 3}, {"Q", 1, 10}, {"R", 6, 1},
		{"S", 4, 1}, {"T", 6, 1}, {"U", 4, 1}, {"V", 2, 4}, {"W", 2, 4}, {"X", 1, 8},
		{"Y", 2, 4}, {"Z", 1, 10},
	}
}

func standardRules(name, description, language string, tiles []TileCount) *RuleSet {
	return &RuleSet{
		Name:                 name,
		Description:          description,
		Language:             language,
		BoardSize:            DefaultBoardSize,
		RackSize:             DefaultRackSize,
		BingoBonus:           DefaultBingoBonus,
		MaxConsecutivePasses: DefaultMaxConsecutivePasses,
		Center:               Position{Row: 7, Col: 7},
		Multipliers:          StandardMultipliers(),
		Tiles:                tiles,
	}
}

// DefaultRuleSets returns the built-in variants keyed by name.
func DefaultRuleSets() map[string]*RuleSet {
	return map[string]*RuleSet{
		"hebrew":  standardRules("hebrew", "Standard 15x15 board with the Hebrew distribution", "he", HebrewTiles()),
		"english": standardRules("english", "Standard 15x15 board with the English distribution", "en", EnglishTiles()),
	}
}

// DefaultRuleSet returns the variant used when none is requested.
func DefaultRuleSet() *RuleSet {
	return DefaultRuleSets()["hebrew"]
}
