package montecarlo

import (
	"fmt"
	"strings"

	"github.com/alkamid/quackle/stats"
)

// EquityStats renders a per-candidate summary table, sorted by win
// probability, with 99% confidence intervals.
func (s *Simulator) EquityStats() string {
	var sb strings.Builder
	moves := s.Moves(false, true)
	fmt.Fprintf(&sb, "%-20s%-9s%-16s%-16s\n", "Play", "Score", "Win%", "Equity")
	for _, m := range moves {
		sm := s.SimmedMoveForMove(m)
		if sm == nil {
			continue
		}
		wins := sm.Wins()
		eq := sm.CalculateEquity()
		var eqErr float64
		for _, level := range sm.Levels() {
			for _, st := range level.Statistics {
				eqErr += st.Score.StandardError()
			}
		}
		wpStats := fmt.Sprintf("%.2f±%.2f", 100.0*wins.Mean(), 100.0*stats.Z99*wins.StandardError())
		eqStats := fmt.Sprintf("%.2f±%.2f", eq, stats.Z99*eqErr)
		fmt.Fprintf(&sb, "%-20s%-9d%-16s%-16s\n",
			m.ShortDescription(), m.Score(), wpStats, eqStats)
	}
	fmt.Fprintf(&sb, "Iterations: %d (intervals are 99%% confidence)\n", s.Iterations())
	return sb.String()
}

// ScoreDetails renders per-level, per-player score and bingo statistics
// for every candidate.
func (s *Simulator) ScoreDetails() string {
	if len(s.simmedMoves) == 0 {
		return "No simmed moves.\n"
	}
	var sb strings.Builder
	for level := 0; level < s.NumLevels(); level++ {
		for slot := 0; slot < s.NumPlayersAtLevel(level); slot++ {
			fmt.Fprintf(&sb, "**Level %d, player %d**\n%-20s%8s%8s%8s%8s\n%s\n",
				level+1, slot+1, "Play", "Mean", "Stdev", "Bingo %", "Iters",
				strings.Repeat("-", 55))
			for _, sm := range s.simmedMoves {
				levels := sm.Levels()
				if level >= len(levels) || slot >= len(levels[level].Statistics) {
					continue
				}
				st := levels[level].Statistics[slot]
				fmt.Fprintf(&sb, "%-20s%8.3f%8.3f%8.3f%8d\n",
					sm.Move().ShortDescription(),
					st.Score.Mean(), st.Score.StandardDeviation(),
					100.0*st.Bingos.Mean(), st.Score.Count())
			}
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "Iterations: %d\n", s.Iterations())
	return sb.String()
}
