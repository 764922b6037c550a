package engine

import "lukechampine.com/frand"

// TileCount describes how many tiles of a letter exist and what each is worth.
type TileCount struct {
	Letter string `json:"letter" yaml:"letter"`
	Count  int    `json:"count" yaml:"count"`
	Points int    `json:"points" yaml:"points"`
}

// ShuffleFunc reorders n elements using swap, with the same contract as
// rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// NoShuffle leaves the pool in distribution order. Draws then come from the
// end of the last letter in the table.
func NoShuffle(int, func(i, j int)) {}

// TilePool is the shared reserve of undrawn tiles.
type TilePool struct {
	tiles   []Tile
	total   int
	shuffle ShuffleFunc
}

// NewTilePool expands counts into individual tiles and shuffles them. A nil
// shuffle uses a uniform Fisher-Yates shuffle backed by frand.
func NewTilePool(counts []TileCount, shuffle ShuffleFunc) *TilePool {
	if shuffle == nil {
		shuffle = frand.Shuffle
	}
	p := &TilePool{shuffle: shuffle}
	for _, tc := range counts {
		for i := 0; i < tc.Count; i++ {
			p.tiles = append(p.tiles, newTile(tc.Letter, tc.Points))
		}
	}
	p.total = len(p.tiles)
	p.Shuffle()
	return p
}

// Draw removes and returns one tile. ok is false when the pool is empty.
func (p *TilePool) Draw() (t Tile, ok bool) {
	n := len(p.tiles)
	if n == 0 {
		return Tile{}, false
	}
	t = p.tiles[n-1]
	p.tiles = p.tiles[:n-1]
	return t, true
}

// Add returns a tile to the pool. Callers shuffle after a batch of adds.
func (p *TilePool) Add(t Tile) {
	p.tiles = append(p.tiles, t)
}

// Shuffle reorders the remaining tiles.
func (p *TilePool) Shuffle() {
	p.shuffle(len(p.tiles), func(i, j int) {
		p.tiles[i], p.tiles[j] = p.tiles[j], p.tiles[i]
	})
}

// Len returns the number of tiles left in the pool.
func (p *TilePool) Len() int {
	return len(p.tiles)
}

// Total returns the size of the full distribution the pool was built from.
func (p *TilePool) Total() int {
	return p.total
}
