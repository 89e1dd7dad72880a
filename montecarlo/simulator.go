// Package montecarlo implements the Monte Carlo move simulator: it
// estimates the long-run value of candidate plays by playing out many
// random multi-ply continuations and aggregating statistics.
package montecarlo

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/alkamid/quackle/config"
	"github.com/alkamid/quackle/equity"
	"github.com/alkamid/quackle/game"
	"github.com/alkamid/quackle/move"
	"github.com/alkamid/quackle/tiles"
)

// A Dispatch lets the caller abort a batch of iterations between
// rollouts.
type Dispatch interface {
	ShouldAbort() bool
}

// Simulator is the orchestrator. It owns the original position, the
// candidate list and the per-candidate statistics, and runs iterations
// either serially or across worker goroutines.
type Simulator struct {
	originalGame    game.Position
	consideredMoves move.MoveList
	simmedMoves     []*SimmedMove

	iterations atomic.Uint64
	nodeCount  atomic.Uint64

	partialOppoRack tiles.Rack
	ignoreOppos     bool
	dispatch        Dispatch
	bogowin         equity.BogowinCalculator

	rng      *frand.RNG
	baseSeed uint64
	seeded   bool
	threads  int

	// incorporateMu serializes all mutation of simmedMove aggregates.
	incorporateMu sync.Mutex

	trace   *traceWriter
	iterLog *iterationLogger
}

// NewSimulator creates a simulator consulting the given bogowin table
// for non-terminal rollout outcomes.
func NewSimulator(bogowin equity.BogowinCalculator) *Simulator {
	return &Simulator{
		bogowin: bogowin,
		rng:     frand.New(),
		threads: 1,
		trace:   &traceWriter{},
		iterLog: &iterationLogger{},
	}
}

// NewSimulatorFromConfig builds a simulator from configuration: the
// bogowin table is loaded from the configured strategy directory, and
// the worker count and trace file are applied when set.
func NewSimulatorFromConfig(cfg config.Config) (*Simulator, error) {
	winpct, err := equity.LoadWinPCT(filepath.Join(cfg.StrategyParamsPath, cfg.WinPCTFile))
	if err != nil {
		return nil, err
	}
	s := NewSimulator(winpct)
	if cfg.Threads > 0 {
		s.SetThreads(cfg.Threads)
	}
	if cfg.SimLogFile != "" {
		s.SetLogfile(cfg.SimLogFile, false)
	}
	return s, nil
}

// SetSeed makes the simulator deterministic. Worker substreams are
// derived from the same seed.
func (s *Simulator) SetSeed(seed uint64) {
	s.rng = rngFromSeed(seed)
	s.baseSeed = seed
	s.seeded = true
}

func (s *Simulator) SetThreads(threads int) {
	s.threads = threads
}

func (s *Simulator) Threads() int {
	return s.threads
}

// SetPosition installs a new position to simulate from. The simulator
// takes its own copy, rebuilds the candidate list from the position's
// moves, and resets all statistics. An open trace gets its footer so
// the log stays well-formed across positions.
func (s *Simulator) SetPosition(pos game.Position) {
	if s.HasSimulationResults() {
		s.trace.writeFooter()
	}
	s.originalGame = pos.Copy()
	s.consideredMoves = nil
	s.simmedMoves = nil
	for _, m := range s.originalGame.Moves() {
		s.simmedMoves = append(s.simmedMoves, newSimmedMove(m))
	}
	s.ResetNumbers()
}

// Position returns the simulator's own copy of the position.
func (s *Simulator) Position() game.Position {
	return s.originalGame
}

func (s *Simulator) SetPartialOppoRack(r tiles.Rack) {
	s.partialOppoRack = r
}

func (s *Simulator) PartialOppoRack() tiles.Rack {
	return s.partialOppoRack
}

// SetIgnoreOpponents makes every opponent pass instead of playing its
// static best move.
func (s *Simulator) SetIgnoreOpponents(b bool) {
	s.ignoreOppos = b
}

func (s *Simulator) IgnoreOpponents() bool {
	return s.ignoreOppos
}

func (s *Simulator) SetDispatch(d Dispatch) {
	s.dispatch = d
}

// SetLogfile points the XML trace at a file. An empty path turns
// tracing off. A file that cannot be opened is reported and tracing is
// disabled; simulation proceeds.
func (s *Simulator) SetLogfile(path string, appendToFile bool) {
	if path == "" {
		s.CloseLogfile()
		return
	}
	w, err := openTraceFile(path, appendToFile)
	if err != nil {
		log.Error().Err(err).Str("logfile", path).
			Msg("could not open simulation log; logging disabled")
		s.CloseLogfile()
		return
	}
	s.trace.setFile(w)
}

// IsLogging reports whether the XML trace currently has a sink.
func (s *Simulator) IsLogging() bool {
	return s.trace.active()
}

// CloseLogfile writes any pending trace footer and closes the file.
func (s *Simulator) CloseLogfile() {
	if err := s.trace.close(); err != nil {
		log.Error().Err(err).Msg("closing simulation log")
	}
}

// SetLogStream directs the yaml per-iteration log to w. Pass nil to
// turn it off.
func (s *Simulator) SetLogStream(w io.Writer) {
	s.iterLog = &iterationLogger{w: w}
}

// AddConsideredMove singles a move out: considered moves are always
// kept in the simulation regardless of pruning.
func (s *Simulator) AddConsideredMove(m *move.Move) {
	s.consideredMoves = append(s.consideredMoves, m)
}

func (s *Simulator) IsConsideredMove(m *move.Move) bool {
	return s.consideredMoves.Contains(m)
}

// ConsideredMoves returns the considered moves in the order they were
// added.
func (s *Simulator) ConsideredMoves() move.MoveList {
	return s.consideredMoves
}

// MakeSureConsideredMovesAreIncluded re-includes every considered move
// on top of the current pruned-and-win-sorted list.
func (s *Simulator) MakeSureConsideredMovesAreIncluded() {
	superset := s.Moves(true, true)
	for _, cm := range s.consideredMoves {
		if !superset.Contains(cm) {
			superset = append(superset, cm)
		}
	}
	s.SetIncludedMoves(superset)
}

// MoveConsideredMovesToBeginning returns list reordered so considered
// moves come first, in the order they have in list; the relative order
// of the rest is preserved.
func (s *Simulator) MoveConsideredMovesToBeginning(list move.MoveList) move.MoveList {
	promoted := lo.Filter(list, func(m *move.Move, _ int) bool {
		return s.consideredMoves.Contains(m)
	})
	rest := lo.Filter(list, func(m *move.Move, _ int) bool {
		return !s.consideredMoves.Contains(m)
	})
	return append(promoted, rest...)
}

// SetIncludedMoves marks exactly the given moves for simulation. A
// requested move with no existing SimmedMove is appended as a new
// included candidate.
func (s *Simulator) SetIncludedMoves(moves move.MoveList) {
	for _, sm := range s.simmedMoves {
		sm.SetIncludeInSimulation(false)
	}
	for _, m := range moves {
		found := false
		for _, sm := range s.simmedMoves {
			if sm.Move().Equals(m) {
				sm.SetIncludeInSimulation(true)
				found = true
				break
			}
		}
		if !found {
			s.simmedMoves = append(s.simmedMoves, newSimmedMove(m))
		}
	}
}

// PruneTo keeps at most maxNumberOfMoves included candidates, all
// within equityThreshold of the best one. A no-op when nothing is
// included.
func (s *Simulator) PruneTo(equityThreshold float64, maxNumberOfMoves int) {
	equityMoves := s.Moves(true, false)
	if len(equityMoves) == 0 {
		return
	}
	absoluteThreshold := equityMoves[0].Equity() - equityThreshold

	included := move.MoveList{}
	for i, m := range equityMoves {
		if i >= maxNumberOfMoves {
			break
		}
		if m.Equity() >= absoluteThreshold {
			included = append(included, m)
		}
	}
	s.SetIncludedMoves(included)
}

// ResetNumbers clears every candidate's statistics and zeroes the
// iteration counter. No stale samples survive a reset.
func (s *Simulator) ResetNumbers() {
	s.incorporateMu.Lock()
	defer s.incorporateMu.Unlock()
	for _, sm := range s.simmedMoves {
		sm.Clear()
		sm.clearAggregates()
	}
	s.iterations.Store(0)
	s.nodeCount.Store(0)
}

// Iterations returns the number of completed iterations since the last
// reset.
func (s *Simulator) Iterations() int {
	return int(s.iterations.Load())
}

// NodeCount returns the number of plies played since the last reset.
func (s *Simulator) NodeCount() uint64 {
	return s.nodeCount.Load()
}

// HasSimulationResults reports whether any candidate carries samples.
func (s *Simulator) HasSimulationResults() bool {
	return lo.SomeBy(s.simmedMoves, func(sm *SimmedMove) bool {
		return len(sm.Levels()) > 0
	})
}

// SimmedMoves returns the candidates in their current order.
func (s *Simulator) SimmedMoves() []*SimmedMove {
	return s.simmedMoves
}

// SimmedMoveForMove finds the candidate for a move. On a miss it
// returns the last candidate; with no candidates at all it returns
// nil, so callers must guard when the list may be empty.
func (s *Simulator) SimmedMoveForMove(m *move.Move) *SimmedMove {
	for _, sm := range s.simmedMoves {
		if sm.Move().Equals(m) {
			return sm
		}
	}
	if len(s.simmedMoves) == 0 {
		return nil
	}
	return s.simmedMoves[len(s.simmedMoves)-1]
}

// NumLevels returns the number of levels recorded for the first
// candidate, or 0 with no candidates.
func (s *Simulator) NumLevels() int {
	if len(s.simmedMoves) == 0 {
		return 0
	}
	return len(s.simmedMoves[0].Levels())
}

// NumPlayersAtLevel returns the number of player slots at the given
// zero-origin level of the first candidate.
func (s *Simulator) NumPlayersAtLevel(levelIndex int) int {
	if len(s.simmedMoves) == 0 {
		return 0
	}
	levels := s.simmedMoves[0].Levels()
	if levelIndex < 0 || levelIndex >= len(levels) {
		return 0
	}
	return len(levels[levelIndex].Statistics)
}

// Moves emits the candidates as a move list. With prune, skips
// unincluded candidates. When simulation samples exist, each entry's
// equity is overwritten with the simulated equity and its win with the
// mean win fraction (0 to 1, not a percentage), and the list sorts by
// win when byWin is set; otherwise it sorts by equity.
func (s *Simulator) Moves(prune bool, byWin bool) move.MoveList {
	useCalculatedEquity := s.HasSimulationResults()

	ret := move.MoveList{}
	for _, sm := range s.simmedMoves {
		if prune && !sm.IncludeInSimulation() {
			continue
		}
		m := sm.Move().Copy()
		if useCalculatedEquity {
			m.SetEquity(sm.CalculateEquity())
			m.SetWin(sm.Wins().Mean())
		}
		ret = append(ret, m)
	}

	if byWin && useCalculatedEquity {
		ret.SortByWin()
	} else {
		ret.SortByEquity()
	}
	return ret
}

// IncorporateMessage merges one rollout's samples into its candidate.
// Merging is serialized and commutative, so messages may arrive in any
// order.
func (s *Simulator) IncorporateMessage(msg SimmedMoveMessage) {
	s.incorporateMu.Lock()
	defer s.incorporateMu.Unlock()
	for _, sm := range s.simmedMoves {
		if sm.id != msg.ID {
			continue
		}
		sm.levels.Merge(msg.Levels)
		sm.residual.Incorporate(msg.Residual)
		sm.gameSpread.Incorporate(float64(msg.GameSpread))
		sm.wins.Incorporate(msg.Wins)
		return
	}
}

// Simulate runs one iteration of the given ply depth: randomize the
// hidden information, then roll out every included candidate once. A
// negative ply count means unbounded.
func (s *Simulator) Simulate(plies int) error {
	if s.originalGame == nil {
		return errors.New("no position to simulate")
	}
	iteration := int(s.iterations.Add(1))

	if err := s.randomizeOppoRacks(s.originalGame, s.rng); err != nil {
		return err
	}
	if err := s.randomizeDrawingOrder(s.originalGame, s.rng); err != nil {
		return err
	}

	return s.runIteration(s.originalGame, plies, iteration)
}

// runIteration rolls out every included candidate on clones of pos and
// incorporates each message as it completes.
func (s *Simulator) runIteration(pos game.Position, plies, iteration int) error {
	var tb *traceBuilder
	if s.trace.active() {
		tb = newTraceBuilder()
		tb.beginIteration(iteration)
	}
	logging := s.iterLog.active()
	logIter := LogIteration{Iteration: iteration}

	for _, sm := range s.simmedMoves {
		if !sm.IncludeInSimulation() {
			continue
		}
		var lp *LogPlay
		if logging {
			lp = &LogPlay{
				Play:  sm.Move().ShortDescription(),
				Pts:   sm.Move().Score(),
				Bingo: sm.Move().BingoPlayed(),
			}
		}
		msg, err := s.rolloutCandidate(pos, sm, plies, tb, lp)
		if err != nil {
			return err
		}
		s.IncorporateMessage(msg)
		if logging {
			logIter.Plays = append(logIter.Plays, *lp)
		}
	}

	if tb != nil {
		tb.endIteration()
		s.trace.writeIteration(tb.bytes())
	}
	if logging {
		s.iterLog.write(logIter)
	}
	return nil
}

// SimulateIterations runs up to the given number of iterations,
// consulting the dispatch between them. An abort is a clean early
// return, not an error.
func (s *Simulator) SimulateIterations(plies, iterations int) error {
	for i := 0; i < iterations; i++ {
		if s.dispatch != nil && s.dispatch.ShouldAbort() {
			return nil
		}
		if err := s.Simulate(plies); err != nil {
			return err
		}
	}
	return nil
}

// SimulateThreaded runs iterations across worker goroutines. Each
// worker randomizes and rolls out on its own clone of the original
// position, drawing from its own random substream; only message
// incorporation is shared. Context cancellation and dispatch aborts end
// the batch cleanly.
func (s *Simulator) SimulateThreaded(ctx context.Context, plies, iterations int) error {
	if s.originalGame == nil {
		return errors.New("no position to simulate")
	}
	threads := s.threads
	if threads < 1 {
		threads = 1
	}

	var next atomic.Int64
	g := errgroup.Group{}
	for t := 0; t < threads; t++ {
		var rng *frand.RNG
		if s.seeded {
			rng = rngFromSeed(s.baseSeed + uint64(t) + 1)
		} else {
			rng = frand.New()
		}
		g.Go(func() error {
			workerPos := s.originalGame.Copy()
			for {
				if ctx.Err() != nil {
					return nil
				}
				if s.dispatch != nil && s.dispatch.ShouldAbort() {
					return nil
				}
				n := next.Add(1)
				if n > int64(iterations) {
					return nil
				}
				if err := s.randomizeOppoRacks(workerPos, rng); err != nil {
					return err
				}
				if err := s.randomizeDrawingOrder(workerPos, rng); err != nil {
					return err
				}
				if err := s.runIteration(workerPos, plies, int(n)); err != nil {
					return err
				}
				s.iterations.Add(1)
			}
		})
	}
	err := g.Wait()
	log.Debug().Int("iterations", s.Iterations()).Uint64("nodes", s.nodeCount.Load()).
		Msg("sim-ended")
	return err
}
