// Package config provides rule set management for the word game server.
//
// The config package handles:
//   - Loading rule sets from YAML or JSON files
//   - Filling omitted fields with standard values
//   - Rule set validation
//   - Default rule set management
//   - Rule set discovery and listing
//
// Rule Set Format:
//
// A rule set file lives in the rules directory as <id>.yaml, <id>.yml or
// <id>.json. Every field is optional except the language or an explicit
// tile distribution:
//
//	name: Quick
//	language: en
//	board_size: 9
//	rack_size: 5
//	bingo_bonus: 20
//	multipliers:
//	  center: {word: 2, letter: 1, coordinates: [{row: 4, col: 4}]}
//
// Omitted sizes take the standard 15x15 / 7 tile values, an omitted center is
// the middle of the board, and a 15x15 board without multipliers gets the
// standard layout. Unknown fields are rejected.
//
// Built-in Rule Sets:
//   - hebrew: standard board, Hebrew distribution (the default)
//   - english: standard board, English distribution
//
// A file with the same id replaces a built-in.
//
// Usage:
//
//	manager, err := config.NewManager("rules", "hebrew")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadRuleSet("quick")
//	defaultRules := manager.GetDefault()
//	infos, err := manager.ListRuleSets()
package config
