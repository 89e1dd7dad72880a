package montecarlo

import (
	"github.com/alkamid/quackle/stats"
)

// PositionStatistics aggregates one player's outcomes at one level of
// the look-ahead: the score of the play made there and whether it was a
// bingo.
type PositionStatistics struct {
	Score  stats.AveragedValue
	Bingos stats.AveragedValue
}

// A Level holds the statistics of every player taking a turn at one
// rotation of the look-ahead.
type Level struct {
	Statistics []PositionStatistics
}

// SetNumberScores grows the level to n player slots. It never shrinks.
func (l *Level) SetNumberScores(n int) {
	for len(l.Statistics) < n {
		l.Statistics = append(l.Statistics, PositionStatistics{})
	}
}

// A LevelGrid is the per-candidate statistic container: level, then
// player within level. Levels are one-indexed in the rollout protocol
// and zero-origin here.
type LevelGrid []Level

// SetNumberLevels grows the grid to n levels. It never shrinks.
func (g *LevelGrid) SetNumberLevels(n int) {
	for len(*g) < n {
		*g = append(*g, Level{})
	}
}

// Copy returns a deep copy of the grid.
func (g LevelGrid) Copy() LevelGrid {
	c := make(LevelGrid, len(g))
	for i, l := range g {
		c[i].Statistics = make([]PositionStatistics, len(l.Statistics))
		copy(c[i].Statistics, l.Statistics)
	}
	return c
}

// Merge adds every sample of other into this grid, growing it as
// needed. Merging is associative and commutative, which is what lets
// parallel rollouts land in any order.
func (g *LevelGrid) Merge(other LevelGrid) {
	g.SetNumberLevels(len(other))
	for li := range other {
		(*g)[li].SetNumberScores(len(other[li].Statistics))
		for pi := range other[li].Statistics {
			(*g)[li].Statistics[pi].Score.Merge(other[li].Statistics[pi].Score)
			(*g)[li].Statistics[pi].Bingos.Merge(other[li].Statistics[pi].Bingos)
		}
	}
}
