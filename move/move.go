// Package move implements the Move data structure that candidate plays
// are carried around in, along with sortable move lists.
package move

import (
	"fmt"

	"github.com/alkamid/quackle/tiles"
)

// MoveType is a type of move; a play, an exchange, pass, etc.
type MoveType uint8

const (
	MoveTypeNonmove MoveType = iota
	MoveTypePlay
	MoveTypeExchange
	MoveTypePass
)

// Move is a move. It can have a score, position, equity, etc. It doesn't
// have to be a scoring move. The score is mutable: the rollout engine
// folds end-of-game adjustments into it temporarily.
type Move struct {
	action MoveType
	score  int
	// equity is the static evaluation this move arrived with.
	equity float64
	// win is the static win estimate (a percentage, 0-100).
	win    float64
	coords string
	tiles  tiles.MachineWord
	leave  tiles.MachineWord
	bingo  bool
}

// NewScoringMove creates a tile-placement move.
func NewScoringMove(score int, coords string, word tiles.MachineWord,
	leave tiles.MachineWord, bingo bool) *Move {
	return &Move{
		action: MoveTypePlay, score: score, coords: coords,
		tiles: word.Copy(), leave: leave.Copy(), bingo: bingo,
	}
}

// NewPassMove creates a pass with the given leave.
func NewPassMove(leave tiles.MachineWord) *Move {
	return &Move{action: MoveTypePass, leave: leave.Copy()}
}

// NewExchangeMove creates an exchange of the given tiles.
func NewExchangeMove(exchanged tiles.MachineWord, leave tiles.MachineWord) *Move {
	return &Move{action: MoveTypeExchange, tiles: exchanged.Copy(), leave: leave.Copy()}
}

// NewNonmove creates the distinguished non-move.
func NewNonmove() *Move {
	return &Move{action: MoveTypeNonmove}
}

func (m *Move) Action() MoveType { return m.action }
func (m *Move) Score() int       { return m.score }
func (m *Move) SetScore(s int)   { m.score = s }
func (m *Move) AddToScore(s int) { m.score += s }

func (m *Move) IsNonmove() bool { return m.action == MoveTypeNonmove }

func (m *Move) Equity() float64     { return m.equity }
func (m *Move) SetEquity(e float64) { m.equity = e }
func (m *Move) Win() float64        { return m.win }
func (m *Move) SetWin(w float64)    { m.win = w }

func (m *Move) BingoPlayed() bool        { return m.bingo }
func (m *Move) Tiles() tiles.MachineWord { return m.tiles }
func (m *Move) Leave() tiles.MachineWord { return m.leave }
func (m *Move) BoardCoords() string      { return m.coords }

// Equals compares moves by what they do on the board: action, placement
// and tiles. Statistics attached to a move do not affect equality.
func (m *Move) Equals(o *Move) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.action != o.action || m.coords != o.coords {
		return false
	}
	if len(m.tiles) != len(o.tiles) {
		return false
	}
	for i := range m.tiles {
		if m.tiles[i] != o.tiles[i] {
			return false
		}
	}
	return true
}

// ShortDescription provides a short description, useful for logging or
// user display.
func (m *Move) ShortDescription() string {
	switch m.action {
	case MoveTypePlay:
		return fmt.Sprintf("%v %v", m.coords, m.tiles.String())
	case MoveTypePass:
		return "(Pass)"
	case MoveTypeExchange:
		return fmt.Sprintf("(exch %v)", m.tiles.String())
	}
	return "(no move)"
}

// String provides a string just for debugging purposes.
func (m *Move) String() string {
	return fmt.Sprintf("<move: %v score: %v equity: %.3f win: %.2f>",
		m.ShortDescription(), m.score, m.equity, m.win)
}

// Copy returns a copy of the move with its own tile storage.
func (m *Move) Copy() *Move {
	c := &Move{
		action: m.action, score: m.score, equity: m.equity, win: m.win,
		coords: m.coords, bingo: m.bingo,
		tiles: m.tiles.Copy(), leave: m.leave.Copy(),
	}
	return c
}
