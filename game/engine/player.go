package engine

import "fmt"

// PlayerType tags what kind of participant controls a player. Only humans
// are implemented.
type PlayerType string

const HumanPlayer PlayerType = "human"

// PlayerDetails is what a joining participant supplies.
type PlayerDetails struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type PlayerType `json:"type"`
}

// Player holds one participant's rack and score.
type Player struct {
	details PlayerDetails
	index   int
	maxRack int
	rack    map[int64]Tile
	order   []int64
	score   int
}

func newPlayer(details PlayerDetails, index, maxRack int) (*Player, error) {
	switch details.Type {
	case "":
		details.Type = HumanPlayer
	case HumanPlayer:
	default:
		return nil, fmt.Errorf("unsupported player type %q", details.Type)
	}
	if details.Name == "" {
		details.Name = fmt.Sprintf("Player %d", index+1)
	}
	return &Player{
		details: details,
		index:   index,
		maxRack: maxRack,
		rack:    make(map[int64]Tile, maxRack),
	}, nil
}

func (p *Player) ID() string       { return p.details.ID }
func (p *Player) Name() string     { return p.details.Name }
func (p *Player) Type() PlayerType { return p.details.Type }
func (p *Player) Index() int       { return p.index }
func (p *Player) Score() int       { return p.score }

// Automatic reports whether the player moves without a connected client.
func (p *Player) Automatic() bool {
	return p.details.Type != HumanPlayer
}

// Rack returns the held tiles in the order they were drawn.
func (p *Player) Rack() []Tile {
	out := make([]Tile, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.rack[id])
	}
	return out
}

func (p *Player) RackLen() int {
	return len(p.rack)
}

// Has reports whether the rack holds the tile with the given id.
func (p *Player) Has(id int64) bool {
	_, ok := p.rack[id]
	return ok
}

// TileByID returns the canonical tile held under id.
func (p *Player) TileByID(id int64) (Tile, bool) {
	t, ok := p.rack[id]
	return t, ok
}

func (p *Player) add(t Tile) {
	if _, ok := p.rack[t.ID]; ok {
		return
	}
	p.rack[t.ID] = t
	p.order = append(p.order, t.ID)
}

func (p *Player) remove(id int64) (Tile, bool) {
	t, ok := p.rack[id]
	if !ok {
		return Tile{}, false
	}
	delete(p.rack, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return t, true
}

// fill draws from pool until the rack is full or the pool is empty.
func (p *Player) fill(pool *TilePool) {
	for len(p.rack) < p.maxRack {
		t, ok := pool.Draw()
		if !ok {
			return
		}
		p.add(t)
	}
}

// PlayerSummary is the public view of a player. It never includes the rack.
type PlayerSummary struct {
	Index    int        `json:"index"`
	Name     string     `json:"name"`
	Type     PlayerType `json:"type"`
	Score    int        `json:"score"`
	RackSize int        `json:"rack_size"`
}

func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{
		Index:    p.index,
		Name:     p.details.Name,
		Type:     p.details.Type,
		Score:    p.score,
		RackSize: len(p.rack),
	}
}

// PlayerState is the private view sent only to the player themselves.
type PlayerState struct {
	PlayerSummary
	Rack []Tile `json:"rack"`
}

func (p *Player) State() PlayerState {
	return PlayerState{PlayerSummary: p.Summary(), Rack: p.Rack()}
}
