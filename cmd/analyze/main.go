// Command analyze prints quick, human-readable statistics about the built-in
// rule sets and the files in the rules directory (first argument, default
// "rules"). It summarizes board and rack settings, the tile distribution and
// the premium squares an opening move can reach.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/wricardo/lastword/game/config"
	"github.com/wricardo/lastword/game/engine"
)

// Analysis holds the statistics of one rule set.
type Analysis struct {
	ID          string
	Rules       *engine.RuleSet
	TileTotal   int
	PointTotal  int
	AvgPoints   float64
	Richest     engine.TileCount
	Commonest   engine.TileCount
	Refills     int
	Premium     map[engine.MultiplierType]int
	PremiumPct  float64
	OpeningBest engine.MultiplierType
}

// premiumRank orders multipliers from most to least valuable.
var premiumRank = []engine.MultiplierType{
	engine.TripleWord,
	engine.DoubleWord,
	engine.TripleLetter,
	engine.DoubleLetter,
}

func analyzeRuleSet(id string, rules *engine.RuleSet) Analysis {
	a := Analysis{
		ID:        id,
		Rules:     rules,
		TileTotal: rules.TileTotal(),
		Premium:   make(map[engine.MultiplierType]int),
	}

	a.PointTotal = lo.SumBy(rules.Tiles, func(tc engine.TileCount) int { return tc.Count * tc.Points })
	if a.TileTotal > 0 {
		a.AvgPoints = float64(a.PointTotal) / float64(a.TileTotal)
	}
	if len(rules.Tiles) > 0 {
		a.Richest = lo.MaxBy(rules.Tiles, func(x, best engine.TileCount) bool { return x.Points > best.Points })
		a.Commonest = lo.MaxBy(rules.Tiles, func(x, best engine.TileCount) bool { return x.Count > best.Count })
	}
	if rules.RackSize > 0 {
		a.Refills = a.TileTotal / rules.RackSize
	}

	premium := 0
	for kind, m := range rules.Multipliers {
		if kind == engine.CenterTile {
			continue
		}
		a.Premium[kind] = len(m.Coordinates)
		premium += len(m.Coordinates)
	}
	if cells := rules.BoardSize * rules.BoardSize; cells > 0 {
		a.PremiumPct = 100 * float64(premium) / float64(cells)
	}

	a.OpeningBest = openingReach(rules)
	return a
}

// openingReach returns the most valuable premium square an opening word
// through the center can cover with a full rack, or "" if none.
func openingReach(rules *engine.RuleSet) engine.MultiplierType {
	reach := rules.RackSize - 1
	for _, kind := range premiumRank {
		m, ok := rules.Multipliers[kind]
		if !ok {
			continue
		}
		for _, pos := range m.Coordinates {
			sameRow := pos.Row == rules.Center.Row && abs(pos.Col-rules.Center.Col) <= reach
			sameCol := pos.Col == rules.Center.Col && abs(pos.Row-rules.Center.Row) <= reach
			if sameRow || sameCol {
				return kind
			}
		}
	}
	return ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func printAnalysis(w io.Writer, a Analysis) {
	r := a.Rules
	fmt.Fprintf(w, "\n=== %s (%s) ===\n", a.ID, r.Name)
	if r.Description != "" {
		fmt.Fprintf(w, "%s\n", r.Description)
	}
	fmt.Fprintf(w, "Language: %s\n", r.Language)
	fmt.Fprintf(w, "Board: %dx%d, center (%d,%d)\n", r.BoardSize, r.BoardSize, r.Center.Row, r.Center.Col)
	fmt.Fprintf(w, "Rack: %d, bingo bonus: %d, game ends after %d passes\n", r.RackSize, r.BingoBonus, r.MaxConsecutivePasses)

	fmt.Fprintf(w, "Tiles: %d (%d letters), %d points total, %.2f per tile\n", a.TileTotal, len(r.Tiles), a.PointTotal, a.AvgPoints)
	fmt.Fprintf(w, "  Most common: %s x%d\n", a.Commonest.Letter, a.Commonest.Count)
	fmt.Fprintf(w, "  Most valuable: %s (%d pts)\n", a.Richest.Letter, a.Richest.Points)
	fmt.Fprintf(w, "  Full racks in the pool: %d\n", a.Refills)
	fmt.Fprintf(w, "  Players supported: %s\n", strings.Join(supportedTables(r), ", "))

	kinds := lo.Keys(a.Premium)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	fmt.Fprintf(w, "Premium squares: %.1f%% of the board\n", a.PremiumPct)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", kind, a.Premium[kind])
	}

	if a.OpeningBest != "" {
		fmt.Fprintf(w, "Opening move can reach: %s\n", a.OpeningBest)
	} else {
		fmt.Fprintln(w, "⚠️  Opening move reaches no premium square")
	}
}

// supportedTables lists the player counts whose opening racks the pool fills.
func supportedTables(r *engine.RuleSet) []string {
	var tables []string
	for n := engine.MinPlayers; n <= engine.MaxPlayers; n++ {
		if r.TileTotal() >= n*r.RackSize {
			tables = append(tables, fmt.Sprint(n))
		}
	}
	if len(tables) == 0 {
		return []string{"none"}
	}
	return tables
}

func run(w io.Writer, rulesDir string) error {
	manager, err := config.NewManager(rulesDir, "")
	if err != nil {
		return err
	}
	infos, err := manager.ListRuleSets()
	if err != nil {
		return err
	}

	for _, info := range infos {
		rules, err := manager.LoadRuleSet(info.ID)
		if err != nil {
			fmt.Fprintf(w, "Error loading %s: %v\n", info.ID, err)
			continue
		}
		printAnalysis(w, analyzeRuleSet(info.ID, rules))
	}
	return nil
}

func main() {
	rulesDir := "rules"
	if len(os.Args) > 1 {
		rulesDir = os.Args[1]
	}

	if err := run(os.Stdout, rulesDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
