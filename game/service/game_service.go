package service

import (
	"context"

	"github.com/wricardo/lastword/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Join(ctx context.Context, sessionID string, player engine.PlayerDetails) (*JoinResult, error)
	Move(ctx context.Context, sessionID, playerID string, placements []engine.TilePlacement, force bool) (*MoveResult, error)
	Swap(ctx context.Context, sessionID, playerID string, tiles []engine.Tile) (*SwapResult, error)
	Disconnect(ctx context.Context, sessionID, playerID string) error
	Chat(ctx context.Context, sessionID, playerID, message string) error

	// Dictionary and rules
	CheckWord(ctx context.Context, ruleSet, word string) (*WordCheck, error)
	ListRuleSets(ctx context.Context) ([]*RuleSetInfo, error)
	LoadRuleSet(ctx context.Context, name string) (*engine.RuleSet, error)
	SaveRuleSet(ctx context.Context, name string, rules *engine.RuleSet) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, rules *engine.RuleSet, dict engine.Dictionary, players int) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	ScheduleDeletion(id string) bool
	Count() int
}

// ConfigManager handles rule set loading
type ConfigManager interface {
	LoadRuleSet(name string) (*engine.RuleSet, error)
	ListRuleSets() ([]*RuleSetInfo, error)
	GetDefault() *engine.RuleSet
	SaveRuleSet(name string, rules *engine.RuleSet) error
}

// DictionaryProvider returns the dictionary for a language.
type DictionaryProvider interface {
	Get(language string) (engine.Dictionary, error)
}
