// Package service provides the protocol layer between transports and the
// game engine.
//
// The service package implements:
//   - Multi-session game hosting
//   - Identity and turn-ownership checks for every request
//   - Re-resolution of client tile references to server-held tiles
//   - Broadcast of committed state to every member of a session
//   - Scheduling of deletion once a game is over
//
// Core Interfaces:
//
// GameService is the main service interface used by the REST API, the
// WebSocket hub and the MCP tools. SessionManager stores sessions and
// reclaims idle ones. ConfigManager supplies rule sets and
// DictionaryProvider supplies a dictionary per language. Notifier delivers
// events to connected players.
//
// Usage:
//
//	sessions := session.NewManager()
//	rules, _ := config.NewManager("rules", "hebrew")
//	dicts := lexicon.NewRegistry("lexica", lexicon.WithAcceptAllFallback())
//	svc := service.NewGameService(sessions, rules, dicts, service.WithNotifier(hub))
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{RuleSet: "english"})
//	joined, err := svc.Join(ctx, info.ID, engine.PlayerDetails{ID: playerID})
//	result, err := svc.Move(ctx, info.ID, playerID, placements, false)
//
// Concurrency:
//
// Each session carries its own mutex. Requests for different sessions run
// in parallel; requests for one session are applied one at a time.
package service
