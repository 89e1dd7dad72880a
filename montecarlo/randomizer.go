package montecarlo

import (
	"encoding/binary"

	"lukechampine.com/frand"

	"github.com/alkamid/quackle/game"
)

func rngFromSeed(seed uint64) *frand.RNG {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}

// randomizeOppoRacks deals every opponent a fresh random rack drawn from
// the unseen tiles, honoring the partial opponent rack if one is set.
// The overall tile supply is conserved: old rack tiles return to the bag
// and the new racks come out of it.
func (s *Simulator) randomizeOppoRacks(pos game.Position, rng *frand.RNG) error {
	if err := pos.EnsureProperBag(); err != nil {
		return err
	}

	working := pos.UnseenBag()
	working.Shuffle(rng)

	currentID := pos.CurrentPlayer().ID()
	for _, pl := range pos.Players() {
		if pl.ID() == currentID {
			continue
		}

		rack := s.partialOppoRack.Copy()
		// The partial rack must be refilled from a bag that does not
		// contain the partial rack.
		if err := working.RemoveLetters(rack.Tiles()); err != nil {
			return err
		}
		working.Refill(&rack, pos.RackSize())

		if err := pos.SetPlayerRack(pl.ID(), rack, true); err != nil {
			return err
		}
	}

	return pos.EnsureProperBag()
}

// randomizeDrawingOrder replaces the position's future draw sequence
// with a uniformly shuffled permutation of the bag.
func (s *Simulator) randomizeDrawingOrder(pos game.Position, rng *frand.RNG) error {
	return pos.SetDrawingOrder(pos.Bag().ShuffledTiles(rng))
}
