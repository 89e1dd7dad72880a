package tiles

// A Rack is the multiset of tiles on one player's rack. The zero value
// is an empty rack.
type Rack struct {
	tiles MachineWord
}

// RackFromString creates a rack from a user-visible string.
func RackFromString(s string) Rack {
	return Rack{tiles: FromString(s)}
}

// RackFromWord creates a rack holding a copy of the given tiles.
func RackFromWord(mw MachineWord) Rack {
	return Rack{tiles: mw.Copy()}
}

// Tiles returns the tiles on this rack. The caller must not mutate the
// returned slice.
func (r Rack) Tiles() MachineWord {
	return r.tiles
}

// NumTiles returns the number of tiles on this rack.
func (r Rack) NumTiles() int {
	return len(r.tiles)
}

func (r Rack) Empty() bool {
	return len(r.tiles) == 0
}

// Add puts one more tile on the rack.
func (r *Rack) Add(ml MachineLetter) {
	r.tiles = append(r.tiles, ml)
}

// Copy returns a rack with its own tile storage.
func (r Rack) Copy() Rack {
	return Rack{tiles: r.tiles.Copy()}
}

func (r Rack) String() string {
	return r.tiles.Sorted().String()
}

// Equals compares racks as multisets.
func (r Rack) Equals(other Rack) bool {
	if len(r.tiles) != len(other.tiles) {
		return false
	}
	a := r.tiles.Sorted()
	b := other.tiles.Sorted()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
