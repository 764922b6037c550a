package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/lastword/game/engine"
)

func testRuleSet() *engine.RuleSet {
	return &engine.RuleSet{
		Name:                 "Test Rules",
		Language:             "en",
		BoardSize:            5,
		RackSize:             3,
		MaxConsecutivePasses: 4,
		Center:               engine.Position{Row: 2, Col: 2},
		Multipliers: engine.MultiplierTable{
			engine.DoubleLetter: {Word: 1, Letter: 2, Coordinates: []engine.Position{{Row: 2, Col: 0}, {Row: 0, Col: 2}}},
			engine.TripleWord:   {Word: 3, Letter: 1, Coordinates: []engine.Position{{Row: 0, Col: 0}, {Row: 4, Col: 4}}},
		},
		Tiles: []engine.TileCount{
			{Letter: "A", Count: 5, Points: 1},
			{Letter: "B", Count: 2, Points: 3},
			{Letter: "Z", Count: 1, Points: 10},
		},
	}
}

func TestAnalyzeRuleSet(t *testing.T) {
	a := analyzeRuleSet("test", testRuleSet())

	if a.TileTotal != 8 {
		t.Errorf("Expected 8 tiles, got %d", a.TileTotal)
	}
	if a.PointTotal != 21 {
		t.Errorf("Expected 21 points, got %d", a.PointTotal)
	}
	if a.AvgPoints < 2.62 || a.AvgPoints > 2.63 {
		t.Errorf("Expected 2.625 points per tile, got %f", a.AvgPoints)
	}
	if a.Richest.Letter != "Z" || a.Commonest.Letter != "A" {
		t.Errorf("Unexpected extremes: %+v %+v", a.Richest, a.Commonest)
	}
	if a.Refills != 2 {
		t.Errorf("Expected 2 full racks, got %d", a.Refills)
	}
	if a.Premium[engine.TripleWord] != 2 || a.Premium[engine.DoubleLetter] != 2 {
		t.Errorf("Unexpected premium counts: %v", a.Premium)
	}
	if a.PremiumPct != 16 {
		t.Errorf("Expected 16%% premium squares, got %f", a.PremiumPct)
	}
}

func TestOpeningReach(t *testing.T) {
	rules := testRuleSet()

	// the corners are off the center lines, the double letters are two away
	if got := openingReach(rules); got != engine.DoubleLetter {
		t.Errorf("Expected double_letter, got %q", got)
	}

	rules.RackSize = 2
	if got := openingReach(rules); got != "" {
		t.Errorf("Expected nothing in reach of a 2 tile rack, got %q", got)
	}

	rules.RackSize = 3
	rules.Multipliers[engine.TripleWord] = engine.Multiplier{Word: 3, Letter: 1, Coordinates: []engine.Position{{Row: 2, Col: 4}}}
	if got := openingReach(rules); got != engine.TripleWord {
		t.Errorf("Expected triple_word to rank first, got %q", got)
	}
}

func TestSupportedTables(t *testing.T) {
	rules := testRuleSet()
	if got := strings.Join(supportedTables(rules), ","); got != "2" {
		t.Errorf("Expected only 2 players, got %s", got)
	}

	rules.RackSize = 5
	if got := supportedTables(rules); len(got) != 1 || got[0] != "none" {
		t.Errorf("Expected none, got %v", got)
	}
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	printAnalysis(&buf, analyzeRuleSet("test", testRuleSet()))
	out := buf.String()

	for _, want := range []string{
		"=== test (Test Rules) ===",
		"Board: 5x5, center (2,2)",
		"Most valuable: Z (10 pts)",
		"  double_letter: 2\n  triple_word: 2",
		"Opening move can reach: double_letter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	content := "name: Mini\nlanguage: en\nboard_size: 5\nrack_size: 3\ncenter: {row: 2, col: 2}\n"
	if err := os.WriteFile(filepath.Join(dir, "mini.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write rule set: %v", err)
	}

	var buf bytes.Buffer
	if err := run(&buf, dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	for _, id := range []string{"=== english", "=== hebrew", "=== mini (Mini)"} {
		if !strings.Contains(out, id) {
			t.Errorf("Output missing %q", id)
		}
	}

	if err := run(&buf, filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for a missing rules directory")
	}
}
