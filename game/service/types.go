package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/lastword/game/engine"
)

// Session is one hosted game. Engine calls must hold the session lock.
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	RuleSet   *engine.RuleSet
	CreatedAt time.Time

	mu              sync.Mutex
	lastActivity    atomic.Int64
	markedForDelete atomic.Bool
}

// NewSession wraps an engine in a session created at now.
func NewSession(id string, eng *engine.GameEngine, rules *engine.RuleSet, now time.Time) *Session {
	s := &Session{ID: id, Engine: eng, RuleSet: rules, CreatedAt: now}
	s.Touch(now)
	return s
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity at t.
func (s *Session) Touch(t time.Time) {
	s.lastActivity.Store(t.UnixNano())
}

func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// MarkForDelete flags the session for deletion. It returns true only for the
// first caller.
func (s *Session) MarkForDelete() bool {
	return s.markedForDelete.CompareAndSwap(false, true)
}

func (s *Session) MarkedForDelete() bool {
	return s.markedForDelete.Load()
}

// CreateSessionOptions selects how a new session is set up. Zero values pick
// the defaults.
type CreateSessionOptions struct {
	ID      string `json:"id,omitempty"`
	RuleSet string `json:"rule_set,omitempty"`
	Players int    `json:"players,omitempty"`
}

// SessionInfo is the public summary of a session. It never contains racks.
type SessionInfo struct {
	ID                 string                 `json:"id"`
	RuleSet            string                 `json:"rule_set"`
	Language           string                 `json:"language"`
	RequiredPlayers    int                    `json:"required_players"`
	Players            []engine.PlayerSummary `json:"players"`
	Phase              engine.Phase           `json:"phase"`
	CurrentPlayerIndex int                    `json:"current_player_index"`
	Scores             map[int]int            `json:"scores"`
	TilesRemaining     int                    `json:"tiles_remaining"`
	GameOver           bool                   `json:"game_over"`
	WinnerIndex        *int                   `json:"winner_index,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	LastActivity       time.Time              `json:"last_activity"`
}

// GameSnapshot is the committed public state broadcast after each change.
type GameSnapshot struct {
	Board              [][]engine.BoardCell   `json:"board"`
	CurrentPlayerIndex int                    `json:"current_player_index"`
	Players            []engine.PlayerSummary `json:"players"`
	Scores             map[int]int            `json:"scores"`
	TilesRemaining     int                    `json:"tiles_remaining"`
	GameOver           bool                   `json:"game_over"`
	Move               *engine.MoveSummary    `json:"move,omitempty"`
	Swap               *engine.SwapSummary    `json:"swap,omitempty"`
}

// JoinResult is returned to a joining player.
type JoinResult struct {
	SessionID string               `json:"session_id"`
	Player    engine.PlayerState   `json:"player"`
	Board     [][]engine.BoardCell `json:"board"`
	AllJoined bool                 `json:"all_joined"`
	Rejoined  bool                 `json:"rejoined"`
}

// MoveResult is returned to the player who moved.
type MoveResult struct {
	Move   *engine.MoveSummary `json:"move"`
	Player engine.PlayerState  `json:"player"`
	State  *GameSnapshot       `json:"state"`
}

// SwapResult is returned to the player who swapped.
type SwapResult struct {
	Swap   *engine.SwapSummary `json:"swap"`
	Player engine.PlayerState  `json:"player"`
	State  *GameSnapshot       `json:"state"`
}

// GameOverInfo is broadcast once a game ends. WinnerIndex is nil on a tie.
type GameOverInfo struct {
	WinnerIndex *int        `json:"winner_index"`
	Scores      map[int]int `json:"scores"`
}

// Notification tells the session about players coming and going.
type Notification struct {
	Kind         string `json:"kind"`
	PlayerIndex  int    `json:"player_index"`
	PlayerNumber int    `json:"player_number"`
	Name         string `json:"name"`
}

// ChatMessage is relayed to every member of a session.
type ChatMessage struct {
	PlayerIndex int       `json:"player_index"`
	Name        string    `json:"name"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sent_at"`
}

// WordCheck answers a dictionary lookup.
type WordCheck struct {
	Word    string `json:"word"`
	RuleSet string `json:"rule_set"`
	Valid   bool   `json:"is_valid"`
}

// RuleSetInfo describes an available rule set.
type RuleSetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	BoardSize   int    `json:"board_size"`
	RackSize    int    `json:"rack_size"`
	TileCount   int    `json:"tile_count"`
	Builtin     bool   `json:"builtin"`
}
