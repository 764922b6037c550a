// Package api provides the HTTP REST API and WebSocket entry point of the
// word game server.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"id", "rule_set", "players"}, all optional)
//   - GET /api/sessions - List sessions (?sort=created|activity&order=asc|desc&limit=N) [operator]
//   - GET /api/sessions/{id} - Public summary of a session
//   - GET /api/sessions/{id}/exists - Whether a session can be joined
//   - DELETE /api/sessions/{id} - Remove a session [operator]
//
// Dictionary and rules:
//   - POST /api/words/check - Look a word up ({"word", "rule_set"})
//   - GET /api/rulesets - List rule sets
//   - GET /api/rulesets/{name} - Full rule set
//   - POST /api/rulesets - Save a rule set ({"id", "rule_set"}) [operator]
//
// Other:
//   - GET /api/health
//   - GET /ws?session=ID&player=UUID - Upgrade to the game WebSocket
//   - everything else is served from the static directory
//
// Operator endpoints need "Authorization: Bearer <token>" with the token
// given to WithAdminToken (401 otherwise). Without a token they answer 403.
//
// Gameplay happens over the WebSocket only. Racks are never exposed over
// REST.
//
// Errors are returned as JSON with an HTTP status chosen from the error:
//
//	{"error": "session not found: k7m2pq"}
//
// Unknown sessions and rule sets give 404, malformed input 400, a taken
// session id 409, game rule violations 422 and a full server 503. With
// WithRateLimit every client address gets its own per-minute budget and
// receives 429 once it is spent. The address is the connection's peer unless
// WithTrustedProxy says a proxy reports it in X-Forwarded-For.
package api
