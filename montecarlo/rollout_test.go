package montecarlo

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/alkamid/quackle/game"
	"github.com/alkamid/quackle/move"
	"github.com/alkamid/quackle/stats"
	"github.com/alkamid/quackle/tiles"
)

type countingDispatch struct {
	allowed int
	calls   int
}

func (d *countingDispatch) ShouldAbort() bool {
	d.calls++
	return d.calls > d.allowed
}

// One candidate, zero plies, game does not end: the rollout is the
// candidate ply alone, which is both the player's final turn and the
// very final turn, so both considerations land in the residual.
func TestZeroPliesSingleCandidate(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"ABCDEFG", "HIJKLMN"}, "OPQRSTUVWX", 7)
	cand := move.NewScoringMove(30, "8D", tiles.FromString("ABC"), tiles.FromString("DEFG"), false)
	pos.SetMoves(move.MoveList{cand})
	pos.PlayerConsiderationFn = func(m *move.Move) float64 { return 3.25 }
	pos.SharedConsiderationFn = func(m *move.Move) float64 { return 1.5 }

	s := NewSimulator(constBogowin(0.25))
	s.SetPosition(pos)
	s.SetSeed(42)
	is.NoErr(s.Simulate(0))

	is.Equal(s.Iterations(), 1)
	sm := s.SimmedMoveForMove(cand)
	is.Equal(len(sm.Levels()), 1)
	is.Equal(len(sm.Levels()[0].Statistics), 1)

	slot := sm.GetPositionStatistics(0, 0)
	is.Equal(slot.Score.Count(), 1)
	is.True(stats.FuzzyEqual(slot.Score.Mean(), 30))
	is.True(stats.FuzzyEqual(slot.Bingos.Mean(), 0))

	is.True(stats.FuzzyEqual(sm.Residual().Mean(), 4.75))
	// The opponent is on turn at the horizon, so the bogowin value is
	// flipped.
	is.True(stats.FuzzyEqual(sm.Wins().Mean(), 0.75))
	is.True(stats.FuzzyEqual(sm.GameSpread().Mean(), 30))
}

// Two candidates, 2 plies, ignore-opponents: the opponent passes, and
// its slot records exactly zero score and zero bingos.
func TestIgnoreOpponentsPasses(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"ABCDEFG", "HIJKLMN"}, "OOPPQQRRSS", 7)
	c1 := move.NewScoringMove(30, "8D", tiles.FromString("ABC"), tiles.FromString("DEFG"), false)
	c2 := move.NewScoringMove(22, "8E", tiles.FromString("AB"), tiles.FromString("CDEFG"), false)
	pos.SetMoves(move.MoveList{c1, c2})

	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(11)
	s.SetIgnoreOpponents(true)
	is.NoErr(s.Simulate(2))

	for _, cand := range []*move.Move{c1, c2} {
		sm := s.SimmedMoveForMove(cand)
		is.Equal(len(sm.Levels()), 2)
		oppo := sm.GetPositionStatistics(0, 1)
		is.Equal(oppo.Score.Count(), 1)
		is.Equal(oppo.Score.Sum(), 0.0)
		is.Equal(oppo.Bingos.Sum(), 0.0)
		// Only the simming player's final turn contributes residual:
		// its level-2 best move plays one tile off a full rack.
		is.True(stats.FuzzyEqual(sm.Residual().Mean(), 3.0))
	}
}

// Game ends on the candidate itself: deadwood lands in the recorded
// score exactly once, and the outcome is terminal, not bogowin.
func TestGameEndsOnCandidate(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"AB", "CDE"}, "", 7)
	cand := move.NewScoringMove(12, "8D", tiles.FromString("AB"), nil, false)
	pos.SetMoves(move.MoveList{cand})

	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(5)
	is.NoErr(s.Simulate(2))

	sm := s.SimmedMoveForMove(cand)
	slot := sm.GetPositionStatistics(0, 0)
	// 12 for the play plus 6 deadwood, counted once.
	is.True(stats.FuzzyEqual(slot.Score.Mean(), 18))
	is.True(stats.FuzzyEqual(sm.GameSpread().Mean(), 18))
	is.True(stats.FuzzyEqual(sm.Wins().Mean(), 1))
	is.True(stats.FuzzyEqual(sm.Residual().Mean(), 0))
}

func TestGameEndsInDraw(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"AB", "CDE"}, "", 7)
	cand := move.NewScoringMove(12, "8D", tiles.FromString("AB"), nil, false)
	pos.SetMoves(move.MoveList{cand})
	pos.DeadwoodFn = func(p *game.StubPosition) (tiles.MachineWord, int) {
		return nil, -12
	}

	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(5)
	is.NoErr(s.Simulate(2))

	sm := s.SimmedMoveForMove(cand)
	is.True(stats.FuzzyEqual(sm.GameSpread().Mean(), 0))
	is.True(stats.FuzzyEqual(sm.Wins().Mean(), 0.5))
}

// deterministicPosition is fully scripted: fixed racks, empty bag, and
// a best move that does not depend on rack order, so every iteration
// observes identical values.
func deterministicPosition() (*game.StubPosition, *move.Move) {
	pos := game.NewStubPosition([]string{"ABC", "DE"}, "", 7)
	cand := move.NewScoringMove(20, "8D", tiles.FromString("A"), tiles.FromString("BC"), false)
	pos.SetMoves(move.MoveList{cand})
	pos.BestMoveFn = func(p *game.StubPosition) *move.Move {
		rack := p.CurrentPlayer().Rack().Tiles().Sorted()
		t := rack[0]
		return move.NewScoringMove(2*int(t-'A'+1), "8H", tiles.MachineWord{t}, rack[1:], false)
	}
	return pos, cand
}

// Two iterations of a deterministic game: every aggregate holds exactly
// two samples and the mean equals the per-iteration value.
func TestTwoIterationStatistics(t *testing.T) {
	is := is.New(t)
	pos, cand := deterministicPosition()
	s := NewSimulator(constBogowin(0.3))
	s.SetPosition(pos)
	s.SetSeed(99)
	is.NoErr(s.SimulateIterations(1, 2))

	is.Equal(s.Iterations(), 2)
	sm := s.SimmedMoveForMove(cand)

	self := sm.GetPositionStatistics(0, 0)
	oppo := sm.GetPositionStatistics(0, 1)
	is.Equal(self.Score.Count(), 2)
	is.Equal(oppo.Score.Count(), 2)
	is.True(stats.FuzzyEqual(self.Score.Mean(), 20))
	is.True(stats.FuzzyEqual(self.Score.StandardDeviation(), 0))
	// The opponent's sorted rack leads with D, worth 8.
	is.True(stats.FuzzyEqual(oppo.Score.Mean(), 8))

	// Candidate leave BC (+1.0), opponent leave E (-0.5).
	is.Equal(sm.Residual().Count(), 2)
	is.True(stats.FuzzyEqual(sm.Residual().Mean(), 0.5))
	is.Equal(sm.Wins().Count(), 2)
	is.True(stats.FuzzyEqual(sm.Wins().Mean(), 0.3))
	is.True(stats.FuzzyEqual(sm.GameSpread().Mean(), 12))
}

// The bogowin lookup uses spread+residual from the on-turn player's
// perspective.
func TestBogowinSpreadPerspective(t *testing.T) {
	is := is.New(t)
	pos, cand := deterministicPosition()
	s := NewSimulator(spreadBogowin{})
	s.SetPosition(pos)
	s.SetSeed(99)
	is.NoErr(s.Simulate(1))

	sm := s.SimmedMoveForMove(cand)
	// Spread 12, residual 0.5; the simming player is back on turn, so
	// the raw table value applies: 0.5 + 12/1000.
	is.True(stats.FuzzyEqual(sm.Wins().Mean(), 0.512))

	// With a trailing partial level the opponent is on turn at the
	// horizon and the flipped lookup applies.
	pos2, cand2 := deterministicPosition()
	s2 := NewSimulator(spreadBogowin{})
	s2.SetPosition(pos2)
	s2.SetSeed(99)
	is.NoErr(s2.Simulate(0))
	sm2 := s2.SimmedMoveForMove(cand2)
	// Spread 20, residual +1.0 (only the candidate's pc+sc): the
	// lookup is 1 - table(-21) = 1 - (0.5 - 21/1000).
	is.True(stats.FuzzyEqual(sm2.Wins().Mean(), 0.521))
}

// Randomizing opponent racks honors the partial rack and conserves the
// overall tile supply.
func TestRandomizeOppoRacks(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"ABCDEFG", "HIJKLMN"}, "OPQRSTUVWXYZ", 7)
	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(1)
	s.SetPartialOppoRack(tiles.RackFromString("OP"))

	target := s.Position()
	is.NoErr(s.randomizeOppoRacks(target, s.rng))

	oppoRack := target.Players()[1].Rack()
	is.Equal(oppoRack.NumTiles(), 7)
	counts := oppoRack.Tiles().Counts()
	is.True(counts['O'] >= 1)
	is.True(counts['P'] >= 1)
	is.NoErr(target.EnsureProperBag())
}

func TestRandomizeDrawingOrderKeepsContents(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"ABCDEFG", "HIJKLMN"}, "OPQRSTUVWXYZ", 7)
	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(1)

	target := s.Position()
	before := target.Bag().Peek().Sorted().String()
	is.NoErr(s.randomizeDrawingOrder(target, s.rng))
	is.Equal(target.Bag().Peek().Sorted().String(), before)
	is.NoErr(target.EnsureProperBag())
}

// A partial rack that names tiles the opponent cannot hold propagates
// the bag error.
func TestRandomizeOppoRacksImpossiblePartial(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"ABCDEFG", "HIJKLMN"}, "OPQRST", 7)
	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(1)
	// A is on the simming player's own rack, hence seen.
	s.SetPartialOppoRack(tiles.RackFromString("AA"))
	is.True(s.Simulate(0) != nil)
}

// An aborted batch reflects exactly the completed iterations.
func TestAbortSafety(t *testing.T) {
	is := is.New(t)
	pos, cand := deterministicPosition()
	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(17)
	s.SetDispatch(&countingDispatch{allowed: 3})

	is.NoErr(s.SimulateIterations(1, 10))
	is.Equal(s.Iterations(), 3)
	sm := s.SimmedMoveForMove(cand)
	is.Equal(sm.Wins().Count(), 3)
	is.Equal(sm.Residual().Count(), 3)
	is.Equal(sm.GetPositionStatistics(0, 0).Score.Count(), 3)
}

// Simulating with nothing included still counts the iteration but
// produces no samples.
func TestEmptyCandidateSet(t *testing.T) {
	is := is.New(t)
	pos, _ := deterministicPosition()
	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(2)
	s.SetIncludedMoves(move.MoveList{})

	is.NoErr(s.Simulate(1))
	is.Equal(s.Iterations(), 1)
	is.True(!s.HasSimulationResults())
}

// A candidate the rules engine rejects fails the iteration without
// recording partial aggregates for it; earlier candidates keep theirs.
func TestUpstreamFailureIsolation(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"ABCDEFG", "HIJKLMN"}, "OPQRSTUV", 7)
	good := move.NewScoringMove(10, "8D", tiles.FromString("AB"), tiles.FromString("CDEFG"), false)
	bad := move.NewScoringMove(10, "8E", tiles.FromString("ZZ"), nil, false)
	pos.SetMoves(move.MoveList{good, bad})

	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(3)
	err := s.Simulate(0)
	is.True(err != nil)

	is.Equal(s.SimmedMoveForMove(good).Wins().Count(), 1)
	is.Equal(s.SimmedMoveForMove(bad).Wins().Count(), 0)
}

// Threaded simulation of a deterministic game matches the serial
// aggregates exactly.
func TestThreadedMatchesSerial(t *testing.T) {
	is := is.New(t)
	const iters = 6

	serialPos, serialCand := deterministicPosition()
	serial := NewSimulator(constBogowin(0.3))
	serial.SetPosition(serialPos)
	serial.SetSeed(7)
	is.NoErr(serial.SimulateIterations(1, iters))

	threadedPos, threadedCand := deterministicPosition()
	threaded := NewSimulator(constBogowin(0.3))
	threaded.SetPosition(threadedPos)
	threaded.SetSeed(7)
	threaded.SetThreads(3)
	is.NoErr(threaded.SimulateThreaded(context.Background(), 1, iters))

	is.Equal(threaded.Iterations(), iters)

	a := serial.SimmedMoveForMove(serialCand)
	b := threaded.SimmedMoveForMove(threadedCand)
	for slot := 0; slot < 2; slot++ {
		sa := a.GetPositionStatistics(0, slot).Score
		sb := b.GetPositionStatistics(0, slot).Score
		is.Equal(sa.Count(), sb.Count())
		is.True(stats.FuzzyEqual(sa.Sum(), sb.Sum()))
		is.True(stats.FuzzyEqual(sa.SumOfSquares(), sb.SumOfSquares()))
	}
	is.Equal(a.Wins().Count(), b.Wins().Count())
	is.True(stats.FuzzyEqual(a.Wins().Sum(), b.Wins().Sum()))
	is.True(stats.FuzzyEqual(a.Residual().Sum(), b.Residual().Sum()))
	is.True(stats.FuzzyEqual(a.GameSpread().Sum(), b.GameSpread().Sum()))
}

func TestThreadedCancelledContext(t *testing.T) {
	is := is.New(t)
	pos, _ := deterministicPosition()
	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(4)
	s.SetThreads(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	is.NoErr(s.SimulateThreaded(ctx, 1, 100))
	is.Equal(s.Iterations(), 0)
}

// A negative ply count means "play until the game ends".
func TestUnboundedPlies(t *testing.T) {
	is := is.New(t)
	pos := game.NewStubPosition([]string{"AB", "CD"}, "", 7)
	cand := move.NewScoringMove(9, "8D", tiles.FromString("AB"), nil, false)
	pos.SetMoves(move.MoveList{cand})

	s := NewSimulator(constBogowin(0.5))
	s.SetPosition(pos)
	s.SetSeed(8)
	is.NoErr(s.Simulate(-1))

	sm := s.SimmedMoveForMove(cand)
	// The candidate empties the rack with an empty bag: terminal win.
	is.True(stats.FuzzyEqual(sm.Wins().Mean(), 1))
}
