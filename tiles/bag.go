package tiles

import (
	"fmt"

	"lukechampine.com/frand"
)

// A Bag is the bag o'tiles. Tiles are kept in drawing order; Draw takes
// from the front. Reordering the bag is how the simulator randomizes
// future draws without touching tile counts.
type Bag struct {
	tiles MachineWord
}

// NewBag creates a bag holding a copy of the given tiles, in the given
// order.
func NewBag(tiles MachineWord) *Bag {
	return &Bag{tiles: tiles.Copy()}
}

func (b *Bag) TilesRemaining() int {
	return len(b.tiles)
}

func (b *Bag) Empty() bool {
	return len(b.tiles) == 0
}

// Peek returns a copy of the bag contents in drawing order.
func (b *Bag) Peek() MachineWord {
	return b.tiles.Copy()
}

// Draw draws n tiles from the front of the bag.
func (b *Bag) Draw(n int) (MachineWord, error) {
	if n > len(b.tiles) {
		return nil, fmt.Errorf("tried to draw %v tiles, tile bag has %v",
			n, len(b.tiles))
	}
	drawn := b.tiles[:n].Copy()
	b.tiles = b.tiles[n:]
	return drawn, nil
}

// DrawAtMost draws at most n tiles from the bag. It can draw fewer if
// there are fewer tiles than n, and even draw no tiles at all :o
func (b *Bag) DrawAtMost(n int) MachineWord {
	if n > len(b.tiles) {
		n = len(b.tiles)
	}
	drawn, _ := b.Draw(n)
	return drawn
}

// PutBack puts the tiles back in the bag, at the end of the drawing
// order.
func (b *Bag) PutBack(letters MachineWord) {
	b.tiles = append(b.tiles, letters...)
}

// RemoveLetters removes the given tiles from the bag, one instance each,
// and returns an error if it can't.
func (b *Bag) RemoveLetters(letters MachineWord) error {
	for _, ml := range letters {
		found := false
		for i, t := range b.tiles {
			if t == ml {
				b.tiles = append(b.tiles[:i], b.tiles[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("cannot remove tile %c from the bag, as it is not in the bag", ml)
		}
	}
	return nil
}

// Refill draws tiles onto the rack until the rack has rackSize tiles or
// the bag runs out.
func (b *Bag) Refill(rack *Rack, rackSize int) {
	need := rackSize - rack.NumTiles()
	if need <= 0 {
		return
	}
	for _, ml := range b.DrawAtMost(need) {
		rack.Add(ml)
	}
}

// Shuffle reorders the bag in place with a uniform permutation.
func (b *Bag) Shuffle(rng *frand.RNG) {
	rng.Shuffle(len(b.tiles), func(i, j int) {
		b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i]
	})
}

// ShuffledTiles returns a uniformly shuffled copy of the bag contents,
// leaving the bag itself untouched.
func (b *Bag) ShuffledTiles(rng *frand.RNG) MachineWord {
	c := b.tiles.Copy()
	rng.Shuffle(len(c), func(i, j int) {
		c[i], c[j] = c[j], c[i]
	})
	return c
}

// SetOrder replaces the bag's drawing order. The new order must be a
// permutation of the current contents.
func (b *Bag) SetOrder(order MachineWord) error {
	if len(order) != len(b.tiles) {
		return fmt.Errorf("drawing order has %v tiles, bag has %v",
			len(order), len(b.tiles))
	}
	have := b.tiles.Counts()
	for ml, ct := range order.Counts() {
		if have[ml] != ct {
			return fmt.Errorf("drawing order is not a permutation of the bag (tile %c)", ml)
		}
	}
	b.tiles = order.Copy()
	return nil
}

// Copy returns a deep copy of the bag.
func (b *Bag) Copy() *Bag {
	return NewBag(b.tiles)
}
