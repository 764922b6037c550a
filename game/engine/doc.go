// Package engine provides the core rules of the word placement game.
//
// The engine package implements the game mechanics including:
//   - The shared board with single-use letter and word multipliers
//   - The shuffled tile pool and per-player racks
//   - Placement validation with rollback of provisional writes
//   - Word extraction and scoring
//   - Turn sequencing and end-of-game detection
//
// Core Types:
//
// GameEngine owns one Board, one TilePool and the joined players. RuleSet
// describes the board size, rack size, multiplier layout and tile
// distribution of a game. Errors that a player can correct are reported as
// *UserError values carrying an ErrorKind.
//
// Usage:
//
//	rules := engine.DefaultRuleSet()
//	game, err := engine.NewGame(rules, dict, 2)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p1, _ := game.AddPlayer(engine.PlayerDetails{ID: id1, Name: "Dana"})
//	p2, _ := game.AddPlayer(engine.PlayerDetails{ID: id2, Name: "Noa"})
//
//	summary, err := game.EndTurn(placements, false)
//	if engine.IsUserError(err) {
//		// reject the move, the board is unchanged
//	}
//
// Game Rules:
//
// The first move must place at least two tiles and cover the center cell.
// Every later move must touch a tile already on the board. All tiles of a
// move lie on one row or one column without gaps. Multipliers apply only on
// the move that first covers them. The game ends when a player empties their
// rack or after a fixed number of consecutive passes.
package engine
