package game

import (
	"errors"
	"fmt"

	"github.com/alkamid/quackle/move"
	"github.com/alkamid/quackle/tiles"
)

// StubPosition is a deterministic rules engine implementing Position.
// It knows just enough about crossword games to keep tile accounting
// honest: committed tiles move from rack to board, racks refill from the
// bag, and scores add up. Everything strategic is a pluggable hook so
// tests can script exact games.
type StubPosition struct {
	players        []*Player
	onTurn         int
	bag            *tiles.Bag
	board          tiles.MachineWord
	candidateMoves move.MoveList
	candidate      *move.Move
	rackSize       int
	gameOver       bool
	initialCounts  map[tiles.MachineLetter]int

	// BestMoveFn scripts StaticBestMove. The default plays the first
	// rack tile for twice its face value.
	BestMoveFn func(p *StubPosition) *move.Move
	// EndsGameFn scripts DoesMoveEndGame. The default: a play that uses
	// the whole rack with an empty bag ends the game.
	EndsGameFn func(p *StubPosition, m *move.Move) bool
	// PlayerConsiderationFn scripts rack-leave equity; default is half
	// a point per leave tile.
	PlayerConsiderationFn func(m *move.Move) float64
	// SharedConsiderationFn scripts the board-state consideration;
	// default 0.
	SharedConsiderationFn func(m *move.Move) float64
	// DeadwoodFn scripts Deadwood; the default strands every tile left
	// on the non-movers' racks at two points each.
	DeadwoodFn func(p *StubPosition) (tiles.MachineWord, int)
}

// NewStubPosition creates a stub game with the given racks (one per
// player, player 0 on turn) and bag contents.
func NewStubPosition(racks []string, bagTiles string, rackSize int) *StubPosition {
	p := &StubPosition{
		bag:           tiles.NewBag(tiles.FromString(bagTiles)),
		rackSize:      rackSize,
		initialCounts: map[tiles.MachineLetter]int{},
	}
	for i, r := range racks {
		pl := NewPlayer(i, fmt.Sprintf("player%d", i+1))
		pl.SetRack(tiles.RackFromString(r))
		p.players = append(p.players, pl)
	}
	for ml, ct := range p.allTiles().Counts() {
		p.initialCounts[ml] = ct
	}
	return p
}

func (p *StubPosition) allTiles() tiles.MachineWord {
	all := p.board.Copy()
	for _, pl := range p.players {
		all = append(all, pl.Rack().Tiles()...)
	}
	all = append(all, p.bag.Peek()...)
	return all
}

// SetMoves attaches the candidate move list returned by Moves.
func (p *StubPosition) SetMoves(ml move.MoveList) {
	p.candidateMoves = ml
}

// Board returns the tiles committed to the board so far.
func (p *StubPosition) Board() tiles.MachineWord {
	return p.board
}

func (p *StubPosition) CurrentPlayer() *Player {
	return p.players[p.onTurn]
}

func (p *StubPosition) Players() []*Player {
	return p.players
}

func (p *StubPosition) Moves() move.MoveList {
	return p.candidateMoves
}

func (p *StubPosition) Bag() *tiles.Bag {
	return p.bag
}

func (p *StubPosition) UnseenBag() *tiles.Bag {
	unseen := p.bag.Peek()
	for i, pl := range p.players {
		if i == p.onTurn {
			continue
		}
		unseen = append(unseen, pl.Rack().Tiles()...)
	}
	return tiles.NewBag(unseen)
}

func (p *StubPosition) SetPlayerRack(playerID int, rack tiles.Rack, adjustBag bool) error {
	for _, pl := range p.players {
		if pl.ID() != playerID {
			continue
		}
		if adjustBag {
			p.bag.PutBack(pl.Rack().Tiles())
			if err := p.bag.RemoveLetters(rack.Tiles()); err != nil {
				return err
			}
		}
		pl.SetRack(rack.Copy())
		return nil
	}
	return fmt.Errorf("no player with id %d", playerID)
}

func (p *StubPosition) EnsureProperBag() error {
	counts := p.allTiles().Counts()
	if len(counts) != len(p.initialCounts) {
		return errors.New("bag is improper: tile kinds changed")
	}
	for ml, ct := range p.initialCounts {
		if counts[ml] != ct {
			return fmt.Errorf("bag is improper: have %d of tile %c, want %d",
				counts[ml], ml, ct)
		}
	}
	return nil
}

func (p *StubPosition) SetDrawingOrder(order tiles.MachineWord) error {
	return p.bag.SetOrder(order)
}

func (p *StubPosition) StaticBestMove() *move.Move {
	if p.BestMoveFn != nil {
		return p.BestMoveFn(p)
	}
	rack := p.CurrentPlayer().Rack()
	if rack.Empty() {
		return move.NewPassMove(nil)
	}
	t := rack.Tiles()[0]
	word := tiles.MachineWord{t}
	leave := rack.Tiles()[1:].Copy()
	return move.NewScoringMove(2*int(t-'A'+1), "8H", word, leave, false)
}

func (p *StubPosition) DoesMoveEndGame(m *move.Move) bool {
	if p.EndsGameFn != nil {
		return p.EndsGameFn(p, m)
	}
	return m.Action() == move.MoveTypePlay &&
		len(m.Tiles()) == p.CurrentPlayer().Rack().NumTiles() &&
		p.bag.Empty()
}

func (p *StubPosition) Deadwood() (tiles.MachineWord, int) {
	if p.DeadwoodFn != nil {
		return p.DeadwoodFn(p)
	}
	var stranded tiles.MachineWord
	for i, pl := range p.players {
		if i == p.onTurn {
			continue
		}
		stranded = append(stranded, pl.Rack().Tiles()...)
	}
	return stranded, 2 * len(stranded)
}

func (p *StubPosition) CalculatePlayerConsideration(m *move.Move) float64 {
	if p.PlayerConsiderationFn != nil {
		return p.PlayerConsiderationFn(m)
	}
	return 0.5 * float64(len(m.Leave()))
}

func (p *StubPosition) CalculateSharedConsideration(m *move.Move) float64 {
	if p.SharedConsiderationFn != nil {
		return p.SharedConsiderationFn(m)
	}
	return 0
}

func (p *StubPosition) Spread(playerID int) int {
	var own, best int
	haveOther := false
	for _, pl := range p.players {
		if pl.ID() == playerID {
			own = pl.Score()
			continue
		}
		if !haveOther || pl.Score() > best {
			best = pl.Score()
			haveOther = true
		}
	}
	return own - best
}

func (p *StubPosition) GameOver() bool {
	return p.gameOver
}

func (p *StubPosition) RackSize() int {
	return p.rackSize
}

func (p *StubPosition) SetCandidate(m *move.Move) {
	p.candidate = m
}

func (p *StubPosition) CommitCandidate(maintainBoard bool) error {
	_ = maintainBoard
	if p.candidate == nil {
		return errors.New("no candidate to commit")
	}
	m := p.candidate
	p.candidate = nil
	mover := p.players[p.onTurn]

	ends := p.DoesMoveEndGame(m)
	score := m.Score()
	if ends {
		_, dw := p.Deadwood()
		score += dw
	}

	switch m.Action() {
	case move.MoveTypePlay:
		remaining, err := removeTiles(mover.Rack().Tiles(), m.Tiles())
		if err != nil {
			return err
		}
		p.board = append(p.board, m.Tiles()...)
		rack := tiles.RackFromWord(remaining)
		p.bag.Refill(&rack, p.rackSize)
		mover.SetRack(rack)
	case move.MoveTypeExchange:
		remaining, err := removeTiles(mover.Rack().Tiles(), m.Tiles())
		if err != nil {
			return err
		}
		rack := tiles.RackFromWord(remaining)
		p.bag.Refill(&rack, p.rackSize)
		p.bag.PutBack(m.Tiles())
		mover.SetRack(rack)
	}

	mover.AddScore(score)
	if ends {
		p.gameOver = true
		return nil
	}
	p.onTurn = (p.onTurn + 1) % len(p.players)
	return nil
}

func (p *StubPosition) Copy() Position {
	c := &StubPosition{
		onTurn:                p.onTurn,
		bag:                   p.bag.Copy(),
		board:                 p.board.Copy(),
		candidateMoves:        p.candidateMoves.Copy(),
		candidate:             p.candidate,
		rackSize:              p.rackSize,
		gameOver:              p.gameOver,
		initialCounts:         p.initialCounts,
		BestMoveFn:            p.BestMoveFn,
		EndsGameFn:            p.EndsGameFn,
		PlayerConsiderationFn: p.PlayerConsiderationFn,
		SharedConsiderationFn: p.SharedConsiderationFn,
		DeadwoodFn:            p.DeadwoodFn,
	}
	for _, pl := range p.players {
		c.players = append(c.players, pl.Copy())
	}
	return c
}

func removeTiles(from, remove tiles.MachineWord) (tiles.MachineWord, error) {
	remaining := from.Copy()
	for _, ml := range remove {
		found := false
		for i, t := range remaining {
			if t == ml {
				remaining = append(remaining[:i], remaining[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("tile %c is not on the rack %v", ml, from)
		}
	}
	return remaining, nil
}
