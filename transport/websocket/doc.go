// Package websocket provides the real-time transport for word game sessions.
//
// The websocket package implements:
//   - Session-aware WebSocket connections bound to a player identity
//   - Dispatch of client events to the game service
//   - Delivery of session events as a service.Notifier
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub tracks connections by session. Each connection runs a read
// pump, which decodes client events and calls the game service, and a write
// pump, which drains the connection's outbound queue and sends pings.
//
// Message Protocol:
//
// Every frame is a JSON envelope {"session_id", "event", "data"}.
//
// Client to server:
//   - joinGame {name}
//   - makeMove {placements: [{tile: {id}, row, col}], force}
//   - swapTiles {tiles: [{id}]}
//   - sendChatMessage {message}
//
// Server to client:
//   - initBoard: reply to joinGame with the board and the player's rack,
//     always the first session event a joining connection receives
//   - gameStarted, gameUpdate, gameOver: public game state
//   - playerUpdate: the player's own rack and score
//   - showNotification, showChatMessage
//   - moveRejected {error_kind, message, words}, generalError {message}
//
// Only tile ids are read from client placements and swaps. Letters and
// points always come from the server's copy of the rack.
//
// Usage:
//
//	hub := websocket.NewHub()
//	svc := service.NewGameService(sessions, configs, dicts, service.WithNotifier(hub))
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		q := r.URL.Query()
//		hub.ServeWS(w, r, q.Get("session"), q.Get("player"), svc)
//	})
//
// Connection Lifecycle:
//
// 1. Client connects with session and player query parameters
// 2. Connection registered with hub; it only gets replies to its own requests
// 3. Client sends joinGame; once accepted it receives initBoard, then session events
// 4. Client sends moves, all members receive updates
// 5. Disconnection notifies the rest of the session; the seat is kept
//
// Concurrency:
//
// Hub delivery never blocks. A client whose queue is full is disconnected.
package websocket
