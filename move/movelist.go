package move

import "sort"

// A MoveList is an ordered list of moves.
type MoveList []*Move

// Contains reports whether an equal move is in the list.
func (ml MoveList) Contains(m *Move) bool {
	for _, it := range ml {
		if it.Equals(m) {
			return true
		}
	}
	return false
}

// Copy returns a shallow copy of the list (the moves are shared).
func (ml MoveList) Copy() MoveList {
	c := make(MoveList, len(ml))
	copy(c, ml)
	return c
}

// SortByEquity sorts the list by equity, highest first. The sort is
// stable so equal-equity moves keep their relative order.
func (ml MoveList) SortByEquity() {
	sort.SliceStable(ml, func(i, j int) bool {
		return ml[i].equity > ml[j].equity
	})
}

// SortByWin sorts by win estimate descending, breaking ties by equity.
func (ml MoveList) SortByWin() {
	sort.SliceStable(ml, func(i, j int) bool {
		if ml[i].win == ml[j].win {
			return ml[i].equity > ml[j].equity
		}
		return ml[i].win > ml[j].win
	})
}
