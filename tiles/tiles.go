// Package tiles contains the tile primitives the simulator shuffles
// around: letters, racks, and the bag.
package tiles

import (
	"sort"
)

// A MachineLetter is a tile. 'A' through 'Z' are the regular tiles and
// BlankToken is the blank.
type MachineLetter byte

const BlankToken MachineLetter = '?'

// A MachineWord is a string of tiles.
type MachineWord []MachineLetter

func (mw MachineWord) String() string {
	b := make([]byte, len(mw))
	for i, ml := range mw {
		b[i] = byte(ml)
	}
	return string(b)
}

// FromString converts a user-visible string into a MachineWord.
func FromString(s string) MachineWord {
	mw := make(MachineWord, len(s))
	for i := 0; i < len(s); i++ {
		mw[i] = MachineLetter(s[i])
	}
	return mw
}

// Copy returns a deep copy of this word.
func (mw MachineWord) Copy() MachineWord {
	c := make(MachineWord, len(mw))
	copy(c, mw)
	return c
}

// Sorted returns an alphabetized copy. Display and equality helpers use
// it so that tile order never matters for multiset comparisons.
func (mw MachineWord) Sorted() MachineWord {
	c := mw.Copy()
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	return c
}

// Counts returns the multiset of letters in this word.
func (mw MachineWord) Counts() map[MachineLetter]int {
	counts := make(map[MachineLetter]int)
	for _, ml := range mw {
		counts[ml]++
	}
	return counts
}
