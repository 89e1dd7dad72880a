package montecarlo

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestEquityStats(t *testing.T) {
	is := is.New(t)
	pos, _ := deterministicPosition()
	s := NewSimulator(constBogowin(0.3))
	s.SetPosition(pos)
	s.SetSeed(21)
	is.NoErr(s.SimulateIterations(1, 2))

	out := s.EquityStats()
	is.True(strings.Contains(out, "Play"))
	is.True(strings.Contains(out, "8D A"))
	is.True(strings.Contains(out, "30.00±0.00"))
	// (20-8) + 0.5 residual, with zero variance across iterations.
	is.True(strings.Contains(out, "12.50±0.00"))
	is.True(strings.Contains(out, "Iterations: 2"))
}

func TestScoreDetails(t *testing.T) {
	is := is.New(t)
	pos, _ := deterministicPosition()
	s := NewSimulator(constBogowin(0.3))
	s.SetPosition(pos)
	s.SetSeed(21)
	is.NoErr(s.SimulateIterations(1, 2))

	out := s.ScoreDetails()
	is.True(strings.Contains(out, "**Level 1, player 1**"))
	is.True(strings.Contains(out, "**Level 1, player 2**"))
	is.True(strings.Contains(out, "20.000"))
	is.True(strings.Contains(out, "8.000"))
	is.True(strings.Contains(out, "Iterations: 2"))
}

func TestScoreDetailsEmpty(t *testing.T) {
	is := is.New(t)
	s := NewSimulator(constBogowin(0.5))
	is.Equal(s.ScoreDetails(), "No simmed moves.\n")
}
