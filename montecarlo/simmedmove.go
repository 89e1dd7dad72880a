package montecarlo

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alkamid/quackle/move"
	"github.com/alkamid/quackle/stats"
)

// Ids are handed out from a process-wide counter so that messages can
// name their candidate across goroutines and position resets.
var simmedMoveIDCounter atomic.Int64

// A SimmedMove is one candidate under simulation: the move, whether it
// is currently included, the per-level statistics, and the three
// whole-rollout aggregates.
type SimmedMove struct {
	id                  int64
	move                *move.Move
	includeInSimulation bool

	levels     LevelGrid
	residual   stats.AveragedValue
	gameSpread stats.AveragedValue
	wins       stats.AveragedValue
}

func newSimmedMove(m *move.Move) *SimmedMove {
	return &SimmedMove{
		id:                  simmedMoveIDCounter.Add(1),
		move:                m,
		includeInSimulation: true,
	}
}

func (sm *SimmedMove) ID() int64 { return sm.id }

func (sm *SimmedMove) Move() *move.Move { return sm.move }

func (sm *SimmedMove) IncludeInSimulation() bool { return sm.includeInSimulation }

func (sm *SimmedMove) SetIncludeInSimulation(b bool) { sm.includeInSimulation = b }

// Levels returns the statistic grid. The caller must not mutate it.
func (sm *SimmedMove) Levels() LevelGrid { return sm.levels }

// GetPositionStatistics reads one slot of the grid (zero-origin).
func (sm *SimmedMove) GetPositionStatistics(level, playerIndex int) PositionStatistics {
	return sm.levels[level].Statistics[playerIndex]
}

func (sm *SimmedMove) Residual() stats.AveragedValue   { return sm.residual }
func (sm *SimmedMove) GameSpread() stats.AveragedValue { return sm.gameSpread }
func (sm *SimmedMove) Wins() stats.AveragedValue       { return sm.wins }

// Clear empties the level grid. The whole-rollout aggregates are left
// alone; the simulator's ResetNumbers clears those.
func (sm *SimmedMove) Clear() {
	sm.levels = nil
}

func (sm *SimmedMove) clearAggregates() {
	sm.residual.Clear()
	sm.gameSpread.Clear()
	sm.wins.Clear()
}

// CalculateEquity computes the simulated equity of this candidate: per
// level, the first player's mean score counts for the candidate and
// every other player's mean score counts against it; the mean residual
// is added on top. With no simulation data it falls back to the move's
// static equity.
func (sm *SimmedMove) CalculateEquity() float64 {
	if len(sm.levels) == 0 {
		return sm.move.Equity()
	}
	equity := 0.0
	for _, level := range sm.levels {
		for pi := range level.Statistics {
			if pi == 0 {
				equity += level.Statistics[pi].Score.Mean()
			} else {
				equity -= level.Statistics[pi].Score.Mean()
			}
		}
	}
	equity += sm.residual.Mean()
	return equity
}

// CalculateWinPercentage returns the simulated win percentage (0-100),
// or the move's static win estimate with no simulation data.
func (sm *SimmedMove) CalculateWinPercentage() float64 {
	if sm.wins.HasValues() {
		return sm.wins.Mean() * 100
	}
	return sm.move.Win()
}

func (sm *SimmedMove) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Simmed move %v:", sm.move.ShortDescription())
	for li, level := range sm.levels {
		fmt.Fprintf(&sb, "\nlevel %d:", li+1)
		for _, st := range level.Statistics {
			fmt.Fprintf(&sb, " [score %.2f sd %.2f, bingos %.2f]",
				st.Score.Mean(), st.Score.StandardDeviation(), st.Bingos.Mean())
		}
	}
	fmt.Fprintf(&sb, "\nBeing simmed: %v", sm.includeInSimulation)
	fmt.Fprintf(&sb, "\nResidual: %.3f Spread: %.2f Wins: %.4f",
		sm.residual.Mean(), sm.gameSpread.Mean(), sm.wins.Mean())
	return sb.String()
}

// A SimmedMoveMessage is the result of one rollout of one candidate.
// Its grid carries only that rollout's samples; incorporation merges
// them into the candidate's persistent grid.
type SimmedMoveMessage struct {
	ID         int64
	Levels     LevelGrid
	Residual   float64
	GameSpread int
	Wins       float64
	Bogowin    bool
}
