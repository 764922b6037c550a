// Command validate provides a small CLI that validates rule set files
// (*.yaml, *.yml, *.json) in the ../rules directory, or the directory given
// as the first argument. It checks:
//   - YAML/JSON structure and unknown fields
//   - Everything the server checks when loading a rule set
//   - Tile letters: one letter each, no Hebrew final forms, no two letters
//     that are equal once normalized
//   - Whether the pool fills a rack for the largest table
//   - Whether the premium layout is symmetric
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wricardo/lastword/game/config"
	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/lexicon"
)

var fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidationResult captures the outcome of validating a single file.
// Errors make a file invalid, Warnings do not. Info is only filled for valid
// files.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// validateRuleSet loads and validates a single rule set file.
func validateRuleSet(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	name := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if !fileNamePattern.MatchString(name) {
		result.fail("File name %q cannot be used as a rule set id (letters, digits, '-' and '_' only)", name)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	rules, err := config.ParseRuleSet(data, name)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	checkLetters(rules, &result)

	if need := rules.RackSize * engine.MaxPlayers; rules.TileTotal() < need {
		result.warn("Only %d tiles: %d players need %d for their opening racks", rules.TileTotal(), engine.MaxPlayers, need)
	}
	if _, ok := lexiconLanguages[rules.Language]; !ok {
		result.warn("Language %q has no built-in distribution; the server needs a lexicon for it", rules.Language)
	}

	symmetric := symmetricLayout(rules)
	if !symmetric {
		result.warn("Premium squares are not symmetric")
	}

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", rules.Name),
			fmt.Sprintf("✓ Language: %s", rules.Language),
			fmt.Sprintf("✓ Board: %dx%d, center (%d,%d)", rules.BoardSize, rules.BoardSize, rules.Center.Row, rules.Center.Col),
			fmt.Sprintf("✓ Rack: %d, bingo bonus: %d", rules.RackSize, rules.BingoBonus),
			fmt.Sprintf("✓ Tiles: %d in %d letters", rules.TileTotal(), len(rules.Tiles)),
			fmt.Sprintf("✓ Premium squares: %d", premiumCount(rules)),
		)
		if symmetric {
			result.Info = append(result.Info, "✓ Symmetric premium layout")
		}
	}

	return result
}

var lexiconLanguages = map[string]struct{}{"he": {}, "en": {}}

// checkLetters makes sure every tile letter can match the dictionary.
func checkLetters(rules *engine.RuleSet, result *ValidationResult) {
	normalized := make(map[string]string)
	for _, tc := range rules.Tiles {
		if utf8.RuneCountInString(tc.Letter) != 1 {
			result.fail("Tile %q must be a single letter", tc.Letter)
			continue
		}
		key := lexicon.Normalize(tc.Letter)
		if prev, dup := normalized[key]; dup {
			result.fail("Tiles %q and %q are the same letter to the dictionary", prev, tc.Letter)
			continue
		}
		normalized[key] = tc.Letter

		// Hebrew final forms fold to their base letter
		if key != strings.ToLower(tc.Letter) {
			result.fail("Tile %q never matches the dictionary; list %q instead", tc.Letter, key)
		}
	}
}

// symmetricLayout reports whether every premium square has its mirror
// images across both axes and the main diagonal.
func symmetricLayout(rules *engine.RuleSet) bool {
	n := rules.BoardSize - 1
	kinds := make(map[engine.Position]engine.MultiplierType)
	for kind, m := range rules.Multipliers {
		for _, pos := range m.Coordinates {
			kinds[pos] = kind
		}
	}
	for pos, kind := range kinds {
		mirrors := []engine.Position{
			{Row: pos.Row, Col: n - pos.Col},
			{Row: n - pos.Row, Col: pos.Col},
			{Row: pos.Col, Col: pos.Row},
		}
		for _, m := range mirrors {
			if kinds[m] != kind {
				return false
			}
		}
	}
	return true
}

func premiumCount(rules *engine.RuleSet) int {
	n := 0
	for _, m := range rules.Multipliers {
		n += len(m.Coordinates)
	}
	return n
}

// ruleSetFiles lists the rule set files in dir.
func ruleSetFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main validates every rule set file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	rulesDir := "../rules"
	if len(os.Args) > 1 {
		rulesDir = os.Args[1]
	}

	files, err := ruleSetFiles(rulesDir)
	if err != nil {
		fmt.Printf("Error finding rule set files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No rule set files in %s\n", rulesDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateRuleSet(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Println("  ⚠️  " + warning)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All rule sets are valid!")
	} else {
		fmt.Println("❌ Some rule sets have errors")
		os.Exit(1)
	}
}
