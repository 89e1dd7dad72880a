package montecarlo

import (
	"errors"

	"github.com/alkamid/quackle/game"
	"github.com/alkamid/quackle/move"
)

// unboundedPlies stands in for "play until the game ends" when the
// caller asks for a negative ply count.
const unboundedPlies = 1000

// rolloutCandidate plays one randomized continuation of one candidate
// on a fresh clone of pos and returns the resulting message. tb and lp
// are optional observers for the XML trace and the yaml iteration log.
//
// plies counts the opponent-and-self turns after the candidate; the
// candidate's own ply is accounted for here. A rollout decomposes into
// complete levels (one turn per player) plus a trailing partial level
// of decimalTurns plies.
func (s *Simulator) rolloutCandidate(pos game.Position, sm *SimmedMove, plies int,
	tb *traceBuilder, lp *LogPlay) (SimmedMoveMessage, error) {

	g := pos.Copy()
	numberOfPlayers := len(g.Players())
	if numberOfPlayers == 0 {
		return SimmedMoveMessage{}, errors.New("position has no players")
	}
	startPlayerID := g.CurrentPlayer().ID()

	if plies < 0 {
		plies = unboundedPlies
	}
	// Specified plies don't include the candidate play.
	plies++

	decimalTurns := plies % numberOfPlayers
	levels := plies / numberOfPlayers

	msg := SimmedMoveMessage{ID: sm.ID()}
	msg.Levels.SetNumberLevels(levels + 1)
	residual := 0.0

	if tb != nil {
		tb.beginPlayahead()
	}

	for levelNumber := 1; levelNumber <= levels+1 && !g.GameOver(); levelNumber++ {
		turnsThisLevel := numberOfPlayers
		if levelNumber == levels+1 {
			turnsThisLevel = decimalTurns
		}
		if turnsThisLevel == 0 {
			continue
		}
		level := &msg.Levels[levelNumber-1]
		level.SetNumberScores(turnsThisLevel)

		for playerNumber := 1; playerNumber <= turnsThisLevel; playerNumber++ {
			if g.GameOver() {
				break
			}
			playerID := g.CurrentPlayer().ID()

			var m *move.Move
			switch {
			case levelNumber == 1 && playerID == startPlayerID:
				// The candidate's score is mutated below, so take a copy.
				m = sm.Move().Copy()
			case s.ignoreOppos && playerID != startPlayerID:
				m = move.NewPassMove(nil)
			default:
				m = g.StaticBestMove()
			}
			if m == nil {
				return msg, errors.New("rules engine returned no best move")
			}

			if tb != nil {
				tb.beginPly((levelNumber-1)*numberOfPlayers + playerNumber - 1)
				tb.rack(g.CurrentPlayer().Rack())
			}

			// Account for deadwood in this move rather than in a
			// separate end-of-game adjustment move.
			deadwoodScore := 0
			if g.DoesMoveEndGame(m) {
				_, deadwoodScore = g.Deadwood()
				m.AddToScore(deadwoodScore)
			}

			slot := &level.Statistics[playerNumber-1]
			slot.Score.Incorporate(float64(m.Score()))
			if m.BingoPlayed() {
				slot.Bingos.Incorporate(1)
			} else {
				slot.Bingos.Incorporate(0)
			}
			s.nodeCount.Add(1)

			if tb != nil {
				tb.move(m)
			}
			if lp != nil {
				lp.Plies = append(lp.Plies, LogPlay{
					Play:  m.ShortDescription(),
					Rack:  g.CurrentPlayer().Rack().String(),
					Pts:   m.Score(),
					Bingo: m.BingoPlayed(),
				})
			}

			// Record future-looking residuals.
			isFinalTurnForPlayerOfSimulation := false
			if levelNumber == levels {
				isFinalTurnForPlayerOfSimulation = playerNumber > decimalTurns
			} else if levelNumber == levels+1 {
				isFinalTurnForPlayerOfSimulation = playerNumber <= decimalTurns
			}

			isVeryFinalTurnOfSimulation :=
				(decimalTurns == 0 && levelNumber == levels && playerNumber == numberOfPlayers) ||
					(levelNumber == levels+1 && playerNumber == decimalTurns)

			if isFinalTurnForPlayerOfSimulation && !(s.ignoreOppos && playerID != startPlayerID) {
				residualAddend := g.CalculatePlayerConsideration(m)
				if tb != nil {
					tb.playerConsideration(residualAddend)
				}
				if lp != nil && len(lp.Plies) > 0 {
					lp.Plies[len(lp.Plies)-1].Leftover = residualAddend
				}

				if isVeryFinalTurnOfSimulation {
					sharedResidual := g.CalculateSharedConsideration(m)
					residualAddend += sharedResidual
					if tb != nil && sharedResidual != 0 {
						tb.sharedConsideration(sharedResidual)
					}
				}

				if playerID == startPlayerID {
					residual += residualAddend
				} else {
					residual -= residualAddend
				}
			}

			// Committing the move will account for deadwood again, so
			// avoid double counting from above.
			m.AddToScore(-deadwoodScore)
			g.SetCandidate(m)
			if err := g.CommitCandidate(!isVeryFinalTurnOfSimulation); err != nil {
				return msg, err
			}

			if tb != nil {
				tb.endPly()
			}
		}
	}

	msg.Residual = residual
	spread := g.Spread(startPlayerID)
	msg.GameSpread = spread

	if g.GameOver() {
		msg.Bogowin = false
		switch {
		case spread > 0:
			msg.Wins = 1
		case spread == 0:
			msg.Wins = 0.5
		default:
			msg.Wins = 0
		}
		if tb != nil {
			tb.gameOver(msg.Wins)
		}
	} else {
		msg.Bogowin = true
		unseen := g.Bag().TilesRemaining() + g.RackSize()
		if g.CurrentPlayer().ID() == startPlayerID {
			msg.Wins = s.bogowin.Bogowin(int(float64(spread)+residual), unseen, 0)
		} else {
			// The table is computed from the on-turn player's
			// perspective, so flip the spread and the probability.
			msg.Wins = 1.0 - s.bogowin.Bogowin(int(-float64(spread)-residual), unseen, 0)
		}
	}

	if tb != nil {
		tb.endPlayahead()
	}
	if lp != nil {
		lp.WinRatio = msg.Wins
	}
	return msg, nil
}
