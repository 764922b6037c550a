package service

// Events delivered to session members.
const (
	EventInitBoard    = "initBoard"
	EventGameStarted  = "gameStarted"
	EventGameUpdate   = "gameUpdate"
	EventPlayerUpdate = "playerUpdate"
	EventGameOver     = "gameOver"
	EventNotification = "showNotification"
	EventChatMessage  = "showChatMessage"
	EventMoveRejected = "moveRejected"
	EventGeneralError = "generalError"
)

// Notifier delivers events. Broadcast reaches every member of a session,
// Send reaches one player. Implementations must not block on slow clients
// and must not call back into the GameService.
type Notifier interface {
	Broadcast(sessionID, event string, data interface{})
	Send(sessionID, playerID, event string, data interface{})
}

// Admitter is implemented by notifiers that hold session events back from a
// connection until its player has joined. Admit is called before the join
// reply is sent.
type Admitter interface {
	Admit(sessionID, playerID string)
}

// MultiNotifier fans events out to several notifiers.
type MultiNotifier []Notifier

var _ Admitter = MultiNotifier(nil)

// Admit forwards to the notifiers that implement Admitter.
func (m MultiNotifier) Admit(sessionID, playerID string) {
	for _, n := range m {
		if a, ok := n.(Admitter); ok {
			a.Admit(sessionID, playerID)
		}
	}
}

func (m MultiNotifier) Broadcast(sessionID, event string, data interface{}) {
	for _, n := range m {
		n.Broadcast(sessionID, event, data)
	}
}

func (m MultiNotifier) Send(sessionID, playerID, event string, data interface{}) {
	for _, n := range m {
		n.Send(sessionID, playerID, event, data)
	}
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, string, interface{}) {}
func (nopNotifier) Send(string, string, string, interface{}) {}
