package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/wricardo/lastword/game/engine"
)

// MaxChatLength is the longest chat message relayed, in runes.
const MaxChatLength = 256

// DefaultPlayers is the player count used when a create request names none.
const DefaultPlayers = 2

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions       SessionManager
	configs        ConfigManager
	dicts          DictionaryProvider
	notifier       Notifier
	now            func() time.Time
	defaultPlayers int
}

// Option customizes the game service.
type Option func(*gameServiceImpl)

// WithNotifier sets where session events are delivered.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) { s.now = now }
}

// WithDefaultPlayers sets the player count for sessions created without one.
func WithDefaultPlayers(n int) Option {
	return func(s *gameServiceImpl) { s.defaultPlayers = n }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, dicts DictionaryProvider, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:       sessions,
		configs:        configs,
		dicts:          dicts,
		notifier:       nopNotifier{},
		now:            time.Now,
		defaultPlayers: DefaultPlayers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error) {
	if opts.ID != "" && !ValidSessionID(opts.ID) {
		return nil, ErrInvalidSessionID
	}

	rules, err := s.ruleSet(opts.RuleSet)
	if err != nil {
		return nil, err
	}
	dict, err := s.dicts.Get(rules.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary for %s: %w", rules.Language, err)
	}

	players := opts.Players
	if players == 0 {
		players = s.defaultPlayers
	}

	session, err := s.sessions.Create(opts.ID, rules, dict, players)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Info().
		Str("session", session.ID).
		Str("rule_set", rules.Name).
		Int("players", players).
		Msg("session created")

	session.Lock()
	defer session.Unlock()
	return s.sessionInfo(session), nil
}

// SessionExists reports whether a session is live. Malformed ids are simply
// not found.
func (s *gameServiceImpl) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	if !ValidSessionID(sessionID) {
		return false, nil
	}
	_, err := s.sessions.Get(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if !ValidSessionID(sessionID) {
		return nil, ErrInvalidSessionID
	}
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	infos := make([]*SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		session.Lock()
		infos = append(infos, s.sessionInfo(session))
		session.Unlock()
	}
	slices.SortFunc(infos, func(a, b *SessionInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return infos, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if !ValidSessionID(sessionID) {
		return ErrInvalidSessionID
	}
	return s.sessions.Delete(sessionID)
}

// Join adds a player to a session, or reattaches a known identity. The
// player is sent the result as initBoard before any other event of the join.
func (s *gameServiceImpl) Join(ctx context.Context, sessionID string, details engine.PlayerDetails) (*JoinResult, error) {
	session, err := s.lookup(sessionID, details.ID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	eng := session.Engine
	rejoined := eng.Player(details.ID) != nil
	wasFull := eng.AllPlayersJoined()

	player, err := eng.AddPlayer(details)
	if err != nil {
		log.Debug().Err(err).Str("session", session.ID).Msg("join rejected")
		return nil, err
	}
	session.Touch(s.now())

	result := &JoinResult{
		SessionID: session.ID,
		Player:    player.State(),
		Board:     eng.Board().Cells(),
		AllJoined: eng.AllPlayersJoined(),
		Rejoined:  rejoined,
	}

	// the joining player hears about the game before anything else
	if a, ok := s.notifier.(Admitter); ok {
		a.Admit(session.ID, player.ID())
	}
	s.notifier.Send(session.ID, player.ID(), EventInitBoard, result)

	kind := "joined"
	if rejoined {
		kind = "rejoined"
	}
	s.notifier.Broadcast(session.ID, EventNotification, Notification{
		Kind:         kind,
		PlayerIndex:  player.Index(),
		PlayerNumber: player.Index() + 1,
		Name:         player.Name(),
	})

	switch {
	case !wasFull && eng.AllPlayersJoined():
		log.Info().Str("session", session.ID).Msg("game started")
		s.notifier.Broadcast(session.ID, EventGameStarted, s.snapshot(eng))
	case rejoined && eng.AllPlayersJoined():
		s.notifier.Send(session.ID, player.ID(), EventGameUpdate, s.snapshot(eng))
		if eng.IsGameOver() {
			s.notifier.Send(session.ID, player.ID(), EventGameOver, gameOverInfo(eng))
		}
	}

	log.Info().
		Str("session", session.ID).
		Int("player", player.Index()).
		Bool("rejoined", rejoined).
		Msg("player joined")
	return result, nil
}

// Move plays tiles for the current player. Only tile ids are taken from the
// caller; letters and points come from the player's rack.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, playerID string, placements []engine.TilePlacement, force bool) (*MoveResult, error) {
	session, err := s.lookup(sessionID, playerID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	eng := session.Engine
	player, err := turnOwner(eng, playerID)
	if err != nil {
		return nil, err
	}

	resolved := lo.Map(placements, func(p engine.TilePlacement, _ int) engine.TilePlacement {
		return engine.TilePlacement{Tile: resolveTile(player, p.Tile.ID), Row: p.Row, Col: p.Col}
	})

	move, err := eng.EndTurn(resolved, force)
	if err != nil {
		log.Debug().Err(err).Str("session", session.ID).Int("player", player.Index()).Msg("move rejected")
		return nil, err
	}
	session.Touch(s.now())

	snapshot := s.snapshot(eng)
	snapshot.Move = move
	s.notifier.Send(session.ID, player.ID(), EventPlayerUpdate, player.State())
	s.notifier.Broadcast(session.ID, EventGameUpdate, snapshot)
	s.finishIfOver(session)

	log.Info().
		Str("session", session.ID).
		Int("player", player.Index()).
		Int("tiles", move.TilesPlaced).
		Int("points", move.BasePoints+move.BonusPoints).
		Msg("move played")
	return &MoveResult{Move: move, Player: player.State(), State: snapshot}, nil
}

// Swap exchanges rack tiles for the current player.
func (s *gameServiceImpl) Swap(ctx context.Context, sessionID, playerID string, tiles []engine.Tile) (*SwapResult, error) {
	session, err := s.lookup(sessionID, playerID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	eng := session.Engine
	player, err := turnOwner(eng, playerID)
	if err != nil {
		return nil, err
	}

	resolved := lo.Map(tiles, func(t engine.Tile, _ int) engine.Tile {
		return resolveTile(player, t.ID)
	})

	swap, err := eng.SwapTiles(resolved)
	if err != nil {
		log.Debug().Err(err).Str("session", session.ID).Int("player", player.Index()).Msg("swap rejected")
		return nil, err
	}
	session.Touch(s.now())

	snapshot := s.snapshot(eng)
	snapshot.Swap = swap
	s.notifier.Send(session.ID, player.ID(), EventPlayerUpdate, player.State())
	s.notifier.Broadcast(session.ID, EventGameUpdate, snapshot)
	s.finishIfOver(session)

	log.Info().
		Str("session", session.ID).
		Int("player", player.Index()).
		Int("tiles", len(swap.OldTiles)).
		Msg("tiles swapped")
	return &SwapResult{Swap: swap, Player: player.State(), State: snapshot}, nil
}

// Disconnect tells the rest of the session a player left. The player keeps
// their seat and may join again.
func (s *gameServiceImpl) Disconnect(ctx context.Context, sessionID, playerID string) error {
	session, err := s.lookup(sessionID, playerID)
	if err != nil {
		return err
	}

	session.Lock()
	defer session.Unlock()

	player := session.Engine.Player(playerID)
	if player == nil {
		return nil
	}
	s.notifier.Broadcast(session.ID, EventNotification, Notification{
		Kind:         "disconnected",
		PlayerIndex:  player.Index(),
		PlayerNumber: player.Index() + 1,
		Name:         player.Name(),
	})
	log.Info().Str("session", session.ID).Int("player", player.Index()).Msg("player disconnected")
	return nil
}

// Chat relays a message from a member to the whole session. Blank messages
// are dropped and long ones truncated.
func (s *gameServiceImpl) Chat(ctx context.Context, sessionID, playerID, message string) error {
	session, err := s.lookup(sessionID, playerID)
	if err != nil {
		return err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if utf8.RuneCountInString(message) > MaxChatLength {
		message = string([]rune(message)[:MaxChatLength])
	}

	session.Lock()
	defer session.Unlock()

	player := session.Engine.Player(playerID)
	if player == nil {
		return ErrNotAMember
	}
	session.Touch(s.now())
	s.notifier.Broadcast(session.ID, EventChatMessage, ChatMessage{
		PlayerIndex: player.Index(),
		Name:        player.Name(),
		Message:     message,
		SentAt:      s.now(),
	})
	return nil
}

// CheckWord looks a word up in the dictionary of a rule set's language.
func (s *gameServiceImpl) CheckWord(ctx context.Context, ruleSet, word string) (*WordCheck, error) {
	rules, err := s.ruleSet(ruleSet)
	if err != nil {
		return nil, err
	}
	dict, err := s.dicts.Get(rules.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary for %s: %w", rules.Language, err)
	}
	return &WordCheck{
		Word:    word,
		RuleSet: rules.Name,
		Valid:   strings.TrimSpace(word) != "" && dict.Contains(word),
	}, nil
}

func (s *gameServiceImpl) ListRuleSets(ctx context.Context) ([]*RuleSetInfo, error) {
	return s.configs.ListRuleSets()
}

func (s *gameServiceImpl) LoadRuleSet(ctx context.Context, name string) (*engine.RuleSet, error) {
	return s.ruleSet(name)
}

func (s *gameServiceImpl) SaveRuleSet(ctx context.Context, name string, rules *engine.RuleSet) error {
	if err := s.configs.SaveRuleSet(name, rules); err != nil {
		return err
	}
	log.Info().Str("rule_set", name).Msg("rule set saved")
	return nil
}

// ruleSet resolves a rule set by name, falling back to the default for an
// empty name.
func (s *gameServiceImpl) ruleSet(name string) (*engine.RuleSet, error) {
	if name == "" {
		return s.configs.GetDefault(), nil
	}
	rules, err := s.configs.LoadRuleSet(name)
	if err == nil {
		return rules, nil
	}

	available, listErr := s.configs.ListRuleSets()
	if listErr == nil && len(available) > 0 {
		ids := lo.Map(available, func(info *RuleSetInfo, _ int) string { return info.ID })
		return nil, fmt.Errorf("rule set '%s' not found, available rule sets: %v: %w", name, ids, err)
	}
	return nil, fmt.Errorf("failed to load rule set %s: %w", name, err)
}

// lookup validates the ids of a game request and finds its session.
func (s *gameServiceImpl) lookup(sessionID, playerID string) (*Session, error) {
	if !ValidSessionID(sessionID) || !ValidIdentity(playerID) {
		return nil, engine.NewUserError(engine.MalformedID)
	}
	session, err := s.sessions.Get(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, engine.NewUserError(engine.SessionUnknown)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// finishIfOver announces the end of a game and schedules its session for
// deletion. Must hold the session lock.
func (s *gameServiceImpl) finishIfOver(session *Session) {
	if !session.Engine.IsGameOver() {
		return
	}
	info := gameOverInfo(session.Engine)
	s.notifier.Broadcast(session.ID, EventGameOver, info)
	if s.sessions.ScheduleDeletion(session.ID) {
		log.Info().Str("session", session.ID).Interface("scores", info.Scores).Msg("game over")
	}
}

// snapshot captures the public state of a game. Must hold the session lock.
func (s *gameServiceImpl) snapshot(eng *engine.GameEngine) *GameSnapshot {
	return &GameSnapshot{
		Board:              eng.Board().Cells(),
		CurrentPlayerIndex: eng.CurrentPlayerIndex(),
		Players:            summaries(eng),
		Scores:             eng.Points(),
		TilesRemaining:     eng.TilesRemaining(),
		GameOver:           eng.IsGameOver(),
	}
}

// sessionInfo summarizes a session. Must hold the session lock.
func (s *gameServiceImpl) sessionInfo(session *Session) *SessionInfo {
	eng := session.Engine
	info := &SessionInfo{
		ID:                 session.ID,
		RuleSet:            session.RuleSet.Name,
		Language:           session.RuleSet.Language,
		RequiredPlayers:    eng.RequiredPlayers(),
		Players:            summaries(eng),
		Phase:              eng.Phase(),
		CurrentPlayerIndex: eng.CurrentPlayerIndex(),
		Scores:             eng.Points(),
		TilesRemaining:     eng.TilesRemaining(),
		GameOver:           eng.IsGameOver(),
		CreatedAt:          session.CreatedAt,
		LastActivity:       session.LastActivity(),
	}
	if info.GameOver {
		info.WinnerIndex = winnerIndex(eng)
	}
	return info
}

func summaries(eng *engine.GameEngine) []engine.PlayerSummary {
	return lo.Map(eng.Players(), func(p *engine.Player, _ int) engine.PlayerSummary {
		return p.Summary()
	})
}

func gameOverInfo(eng *engine.GameEngine) GameOverInfo {
	return GameOverInfo{WinnerIndex: winnerIndex(eng), Scores: eng.Points()}
}

func winnerIndex(eng *engine.GameEngine) *int {
	leader := eng.LeadingPlayer()
	if leader == nil {
		return nil
	}
	idx := leader.Index()
	return &idx
}

// turnOwner returns the current player if it is the caller.
func turnOwner(eng *engine.GameEngine, playerID string) (*engine.Player, error) {
	if eng.IsGameOver() {
		return nil, engine.NewUserError(engine.GameOver)
	}
	current := eng.CurrentPlayer()
	if current == nil {
		return nil, engine.NewUserError(engine.GameNotStarted)
	}
	if current.ID() != playerID {
		return nil, engine.NewUserError(engine.NotYourTurn)
	}
	return current, nil
}

// resolveTile returns the rack tile with id. Unknown ids yield a tile the
// engine will refuse as not owned.
func resolveTile(player *engine.Player, id int64) engine.Tile {
	if t, ok := player.TileByID(id); ok {
		return t
	}
	return engine.Tile{ID: id}
}
