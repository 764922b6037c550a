package engine

import (
	"fmt"

	"github.com/samber/lo"
)

// Phase is the coarse state of a game.
type Phase string

const (
	PhaseForming    Phase = "forming"
	PhaseInProgress Phase = "in_progress"
	PhaseOver       Phase = "over"
)

// MoveSummary describes an accepted EndTurn call.
type MoveSummary struct {
	PlayerIndex int        `json:"player_index"`
	BasePoints  int        `json:"base_points"`
	Words       []WordInfo `json:"words"`
	BonusPoints int        `json:"bonus_points"`
	TilesPlaced int        `json:"tiles_placed"`
}

// SwapSummary describes an accepted SwapTiles call.
type SwapSummary struct {
	PlayerIndex int    `json:"player_index"`
	OldTiles    []Tile `json:"old_tiles"`
}

// Option customizes a GameEngine.
type Option func(*GameEngine)

// WithShuffle replaces the tile pool shuffle. Tests pass NoShuffle to get a
// deterministic draw order.
func WithShuffle(fn ShuffleFunc) Option {
	return func(e *GameEngine) {
		e.shuffle = fn
	}
}

// GameEngine runs a single game. It is not safe for concurrent use; callers
// serialize access per game.
type GameEngine struct {
	rules    *RuleSet
	dict     Dictionary
	shuffle  ShuffleFunc
	board    *Board
	pool     *TilePool
	players  []*Player
	required int

	currentPlayer     int
	firstTurnPlayed   bool
	consecutivePasses int
	over              bool
}

// NewGame creates an empty game waiting for numPlayers players.
func NewGame(rules *RuleSet, dict Dictionary, numPlayers int, opts ...Option) (*GameEngine, error) {
	if err := ValidateRuleSet(rules); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}
	if dict == nil {
		return nil, fmt.Errorf("dictionary is required")
	}
	if numPlayers < MinPlayers || numPlayers > MaxPlayers {
		return nil, fmt.Errorf("player count must be between %d and %d, got %d", MinPlayers, MaxPlayers, numPlayers)
	}
	if need := numPlayers * rules.RackSize; rules.TileTotal() < need {
		return nil, fmt.Errorf("rule set %s has %d tiles, %d players need %d", rules.Name, rules.TileTotal(), numPlayers, need)
	}

	e := &GameEngine{
		rules:    rules,
		dict:     dict,
		required: numPlayers,
	}
	for _, opt := range opts {
		opt(e)
	}

	board, err := NewBoard(rules.BoardSize, rules.Multipliers)
	if err != nil {
		return nil, err
	}
	e.board = board
	e.pool = NewTilePool(rules.Tiles, e.shuffle)
	return e, nil
}

// AddPlayer joins a participant. Joining again with a known id returns the
// existing player unchanged.
func (e *GameEngine) AddPlayer(details PlayerDetails) (*Player, error) {
	if p := e.Player(details.ID); p != nil {
		return p, nil
	}
	if e.AllPlayersJoined() {
		return nil, newUserError(SessionFull)
	}

	p, err := newPlayer(details, len(e.players), e.rules.RackSize)
	if err != nil {
		return nil, err
	}
	p.fill(e.pool)
	e.players = append(e.players, p)

	if e.AllPlayersJoined() {
		e.currentPlayer = 0
	}
	return p, nil
}

// EndTurn applies the current player's placements. An empty slice is a pass.
// On error the board is exactly as it was before the call and the current
// player does not change.
func (e *GameEngine) EndTurn(placements []TilePlacement, force bool) (*MoveSummary, error) {
	if err := e.checkPlayable(); err != nil {
		return nil, err
	}
	player := e.players[e.currentPlayer]

	for _, pl := range placements {
		if !e.board.InBounds(pl.Row, pl.Col) {
			return nil, newUserError(PlacementOutOfBounds)
		}
	}
	if !e.placementConsecutive(placements) {
		return nil, newUserError(PlacementConsecutive)
	}
	if !e.placementConnected(placements) {
		return nil, newUserError(PlacementConnected)
	}

	var written []Position
	rollback := func() {
		for _, pos := range written {
			e.board.clearTile(pos.Row, pos.Col)
		}
	}

	used := make(map[int64]bool, len(placements))
	for _, pl := range placements {
		if !e.board.IsEmpty(pl.Row, pl.Col) {
			rollback()
			return nil, newUserError(PlacementExisting)
		}
		tile, ok := player.TileByID(pl.Tile.ID)
		if !ok || used[tile.ID] {
			rollback()
			return nil, newUserError(TileNotOwned)
		}
		used[tile.ID] = true
		e.board.setTile(pl.Row, pl.Col, tile)
		written = append(written, pl.Position())
	}

	words := extractWords(e.board, written)

	if !force {
		var illegal []string
		for _, w := range words {
			if !e.dict.Contains(w.Text) {
				illegal = append(illegal, w.Text)
			}
		}
		if len(illegal) > 0 {
			rollback()
			return nil, newUserError(PlacementIllegalWord, lo.Uniq(illegal)...)
		}
	}

	if !e.firstTurnPlayed && len(placements) > 0 {
		if len(placements) == 1 {
			rollback()
			return nil, newUserError(FirstWordTooShort)
		}
		if !lo.Contains(written, e.rules.Center) {
			rollback()
			return nil, newUserError(FirstWordNotCentered)
		}
		e.firstTurnPlayed = true
	}

	summary := &MoveSummary{
		PlayerIndex: player.Index(),
		BasePoints:  lo.SumBy(words, func(w WordInfo) int { return w.Points }),
		Words:       words,
		TilesPlaced: len(placements),
	}
	if len(placements) == e.rules.RackSize {
		summary.BonusPoints = e.rules.BingoBonus
	}
	player.score += summary.BasePoints + summary.BonusPoints

	for _, pl := range placements {
		player.remove(pl.Tile.ID)
		e.board.cell(pl.Row, pl.Col).disableMultiplier()
	}
	player.fill(e.pool)

	if len(placements) == 0 {
		e.consecutivePasses++
	} else {
		e.consecutivePasses = 0
	}

	if player.RackLen() == 0 || e.consecutivePasses >= e.rules.MaxConsecutivePasses {
		e.over = true
	} else {
		e.advance()
	}
	return summary, nil
}

// SwapTiles trades tiles from the current player's rack for tiles from the
// pool. When the pool holds fewer tiles than requested only the first
// Len() requested tiles are swapped. A swap counts as a pass.
func (e *GameEngine) SwapTiles(tiles []Tile) (*SwapSummary, error) {
	if err := e.checkPlayable(); err != nil {
		return nil, err
	}
	player := e.players[e.currentPlayer]

	if len(tiles) > player.RackLen() {
		return nil, newUserError(SwapRejected)
	}
	seen := make(map[int64]bool, len(tiles))
	for _, t := range tiles {
		if !player.Has(t.ID) || seen[t.ID] {
			return nil, newUserError(TileNotOwned)
		}
		seen[t.ID] = true
	}

	n := min(len(tiles), e.pool.Len())
	old := make([]Tile, 0, n)
	for _, t := range tiles[:n] {
		canonical, _ := player.remove(t.ID)
		old = append(old, canonical)
	}
	player.fill(e.pool)
	for _, t := range old {
		e.pool.Add(t)
	}
	e.pool.Shuffle()

	e.consecutivePasses++
	summary := &SwapSummary{PlayerIndex: player.Index(), OldTiles: old}
	if e.consecutivePasses >= e.rules.MaxConsecutivePasses {
		e.over = true
	} else {
		e.advance()
	}
	return summary, nil
}

func (e *GameEngine) checkPlayable() error {
	if e.over {
		return newUserError(GameOver)
	}
	if !e.AllPlayersJoined() {
		return newUserError(GameNotStarted)
	}
	return nil
}

func (e *GameEngine) advance() {
	e.currentPlayer = (e.currentPlayer + 1) % len(e.players)
}

// placementConsecutive checks that placements share a row or a column and
// that every cell between the outermost placements is filled, either by this
// move or by an earlier one.
func (e *GameEngine) placementConsecutive(placements []TilePlacement) bool {
	if len(placements) == 0 {
		return true
	}
	rows := lo.Uniq(lo.Map(placements, func(p TilePlacement, _ int) int { return p.Row }))
	cols := lo.Uniq(lo.Map(placements, func(p TilePlacement, _ int) int { return p.Col }))

	var fixed int
	var varying []int
	horizontal := len(rows) == 1
	switch {
	case horizontal:
		fixed, varying = rows[0], cols
	case len(cols) == 1:
		fixed, varying = cols[0], rows
	default:
		return false
	}

	low, high := lo.Min(varying), lo.Max(varying)
	for i := low; i <= high; i++ {
		r, c := i, fixed
		if horizontal {
			r, c = fixed, i
		}
		if e.board.IsEmpty(r, c) && !lo.Contains(varying, i) {
			return false
		}
	}
	return true
}

// placementConnected checks that some placement touches a tile placed on an
// earlier turn. The opening move is exempt.
func (e *GameEngine) placementConnected(placements []TilePlacement) bool {
	if !e.firstTurnPlayed || len(placements) == 0 {
		return true
	}
	for _, p := range placements {
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			if !e.board.IsEmpty(p.Row+d[0], p.Col+d[1]) {
				return true
			}
		}
	}
	return false
}

// LeadingPlayer returns the player with the strictly highest score, or nil
// when the top score is shared.
func (e *GameEngine) LeadingPlayer() *Player {
	var best *Player
	tied := false
	for _, p := range e.players {
		switch {
		case best == nil || p.score > best.score:
			best, tied = p, false
		case p.score == best.score:
			tied = true
		}
	}
	if tied {
		return nil
	}
	return best
}

func (e *GameEngine) IsGameOver() bool { return e.over }

func (e *GameEngine) Phase() Phase {
	switch {
	case e.over:
		return PhaseOver
	case e.AllPlayersJoined():
		return PhaseInProgress
	default:
		return PhaseForming
	}
}

// Points returns a snapshot of scores keyed by player index.
func (e *GameEngine) Points() map[int]int {
	out := make(map[int]int, len(e.players))
	for _, p := range e.players {
		out[p.index] = p.score
	}
	return out
}

func (e *GameEngine) AllPlayersJoined() bool {
	return len(e.players) == e.required
}

// CurrentPlayer returns the player whose turn it is, or nil before the game
// has started.
func (e *GameEngine) CurrentPlayer() *Player {
	if !e.AllPlayersJoined() {
		return nil
	}
	return e.players[e.currentPlayer]
}

func (e *GameEngine) CurrentPlayerIndex() int { return e.currentPlayer }

// Player returns the player joined under id, or nil.
func (e *GameEngine) Player(id string) *Player {
	p, _ := lo.Find(e.players, func(p *Player) bool { return p.details.ID == id })
	return p
}

func (e *GameEngine) Players() []*Player {
	return append([]*Player(nil), e.players...)
}

func (e *GameEngine) RequiredPlayers() int { return e.required }

func (e *GameEngine) FirstTurnPlayed() bool { return e.firstTurnPlayed }

func (e *GameEngine) ConsecutivePasses() int { return e.consecutivePasses }

func (e *GameEngine) Board() BoardView { return e.board }

func (e *GameEngine) Rules() *RuleSet { return e.rules }

func (e *GameEngine) TilesRemaining() int { return e.pool.Len() }

// TileTotal returns the size of the full tile distribution.
func (e *GameEngine) TileTotal() int { return e.pool.Total() }

// CheckWord asks the game's dictionary about word.
func (e *GameEngine) CheckWord(word string) bool {
	return e.dict.Contains(word)
}
