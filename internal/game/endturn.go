package game

import (
	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// kidsInPool returns every camp to the pool. Senate holders act first.
func (g *Game) kidsInPool() error {
	g.logf("Kids in the pool.")
	order := reversed(g.turnOrder(g.LeaderIndex))
	for _, seat := range order {
		if err := g.push(rules.DoKidsInPool(seat)); err != nil {
			return err
		}
	}
	for _, seat := range order {
		if g.hasActive(g.Players[seat], "Senate") {
			if err := g.push(rules.DoSenate(seat)); err != nil {
				return err
			}
		}
	}
	return nil
}

// opponentJacks lists the Jacks sitting in other players' camps.
func (g *Game) opponentJacks(seat int) int {
	n := 0
	for _, other := range g.turnOrder(seat)[1:] {
		for _, c := range g.Players[other].Camp {
			if c.IsJack() {
				n++
			}
		}
	}
	return n
}

func (g *Game) doSenate(seat int) error {
	if g.opponentJacks(seat) > 0 {
		g.await(protocol.UseSenate, seat)
	}
	return nil
}

func (g *Game) handleUseSenate(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]
	jacks := a.Cards(0)

	if !distinct(jacks) {
		return illegal("jack listed twice: %s", joinNames(jacks))
	}
	owners := make([]*Player, len(jacks))
	for i, j := range jacks {
		if !j.IsJack() {
			return illegal("%s is not a Jack", j)
		}
		for _, other := range g.turnOrder(seat)[1:] {
			if g.Players[other].Camp.Contains(j) {
				owners[i] = g.Players[other]
				break
			}
		}
		if owners[i] == nil {
			return illegal("Jack %d is not in an opponent's camp", int(j))
		}
	}

	for i, j := range jacks {
		moveCard(j, &owners[i].Camp, &p.Hand)
		g.logf("%s takes %s's Jack with Senate.", p.Name, owners[i].Name)
	}
	return nil
}

func (g *Game) doKidsInPool(seat int) error {
	p := g.Players[seat]
	if g.hasActive(p, "Sewer") {
		for _, c := range p.Camp {
			if !c.IsJack() {
				g.await(protocol.UseSewer, seat)
				return nil
			}
		}
	}
	g.flushCamp(p)
	return nil
}

func (g *Game) handleUseSewer(a protocol.Action) error {
	p := g.ActivePlayer()
	flushed := a.Cards(0)

	for _, c := range flushed {
		if c.IsJack() {
			return illegal("cannot move Jacks with Sewer")
		}
	}
	if !distinct(flushed) || !p.Camp.ContainsAll(flushed) {
		return illegal("cards not in camp for use with Sewer: %s", joinNames(flushed))
	}

	for _, c := range flushed {
		moveCard(c, &p.Camp, &p.Stockpile)
	}
	if len(flushed) > 0 {
		g.logf("%s flushes cards down the Sewer: %s", p.Name, joinNames(flushed))
	}
	g.flushCamp(p)
	return nil
}

// flushCamp sends the camp's Jacks to the jack pile and the rest to the pool.
func (g *Game) flushCamp(p *Player) {
	for _, c := range p.Camp {
		if c.IsJack() {
			g.Jacks = append(g.Jacks, c)
		} else {
			g.Pool = append(g.Pool, c)
		}
	}
	p.Camp = Zone{}
}

func (g *Game) endTurn() error {
	g.RoleLed = cards.RoleNone
	g.LegionaryCount = 0
	g.LegionaryPlayerIndex = NoIndex
	g.UsedOOT = false
	g.OOTAllowed = false

	for _, seat := range reversed(g.turnOrder(g.LeaderIndex)) {
		if err := g.push(rules.DoEndTurn(seat)); err != nil {
			return err
		}
	}
	return nil
}

// doEndTurn clears the player's turn flags and offers the Academy thinker.
func (g *Game) doEndTurn(seat int) error {
	p := g.Players[seat]
	academy := p.PerformedCraftsman && g.hasActive(p, "Academy")

	p.Revealed = Zone{}
	p.PrevRevealed = Zone{}
	p.NCampActions = 0
	p.PerformedCraftsman = false

	if academy {
		return g.push(rules.Await(protocol.SkipThinker, seat))
	}
	return nil
}
