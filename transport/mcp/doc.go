// Package mcp exposes session administration of the word game server to AI
// agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and renders the JSON answer as text. Gameplay itself stays on the
// WebSocket, so agents can create and inspect sessions, look words up and
// read rule sets, but never see a player's rack.
//
// Tools:
//   - create_session, session_exists, get_session, list_sessions, delete_session
//   - check_word
//   - list_rule_sets, get_rule_set
//   - game_rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// or mounted next to the REST API with server.NewStreamableHTTPServer.
package mcp
