// Package session provides session management for the word game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short, unambiguous session ID generation
//   - A cap on concurrently hosted sessions
//   - Idle session sweeping
//   - Delayed removal of finished games
//
// Core Types:
//
// Manager is the registry that owns every hosted game. Each entry is a
// service.Session holding one engine.GameEngine plus its activity time.
//
// Session Identifiers:
//
// Generated IDs are six characters drawn from an alphabet without easily
// confused characters. Callers may also supply their own ID. Lookups are
// case-insensitive.
//
// Concurrency:
//
// The registry lock only guards the map. The manager never takes a
// session's own lock, so request handlers holding a session lock may call
// back into the manager (for example ScheduleDeletion) without deadlock.
//
// Usage:
//
//	manager := session.NewManager(session.WithMaxSessions(100))
//
//	sess, err := manager.Create("", rules, dict, 2)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Sweep idle sessions in the background
//	go manager.Run(ctx, session.DefaultSweepInterval, session.DefaultIdleTimeout)
//
// Cleanup:
//
// Sessions idle longer than the timeout are removed by the sweep. A session
// whose game has ended is removed once, after a grace period, via
// ScheduleDeletion.
package session
