package game

import (
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

func (g *Game) handleThinkerOrLead(a protocol.Action) error {
	leader := g.LeaderIndex
	if a.Bool(0) {
		return g.push(rules.Thinker(leader))
	}

	for _, seat := range reversed(g.turnOrder(leader)) {
		if err := g.push(rules.RoleBeingLed(seat)); err != nil {
			return err
		}
	}
	for _, seat := range reversed(g.followers()) {
		if err := g.push(rules.Await(protocol.FollowRole, seat)); err != nil {
			return err
		}
	}
	return g.push(rules.Await(protocol.LeadRole, leader))
}

// thinker starts one thinker action: the optional Vomitorium and Latrine
// discards, then the draw.
func (g *Game) thinker(seat int) error {
	if g.hasActive(g.Players[seat], "Vomitorium") {
		g.await(protocol.UseVomitorium, seat)
		return nil
	}
	g.latrineStep(seat)
	return nil
}

func (g *Game) latrineStep(seat int) {
	if g.hasActive(g.Players[seat], "Latrine") {
		g.await(protocol.UseLatrine, seat)
		return
	}
	g.await(protocol.ThinkerType, seat)
}

func (g *Game) handleUseVomitorium(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	if !a.Bool(0) {
		g.latrineStep(seat)
		return nil
	}

	g.logf("%s discards their entire hand with Vomitorium: %s.", p.Name, joinNames(p.Hand))
	for _, c := range p.Hand.clone() {
		g.discard(p, c)
	}
	g.await(protocol.ThinkerType, seat)
	return nil
}

func (g *Game) handleUseLatrine(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	if c, ok := a.Card(0); ok {
		if !p.Hand.Contains(c) {
			return illegal("%s is not in %s's hand", c, p.Name)
		}
		g.discard(p, c)
		g.logf("%s discards %s using Latrine.", p.Name, c)
	}
	g.await(protocol.ThinkerType, seat)
	return nil
}

func (g *Game) handleThinkerType(a protocol.Action) error {
	p := g.ActivePlayer()
	suffix := "."
	if g.ActivePlayerIndex != g.LeaderIndex {
		suffix = " instead of following."
	}

	if a.Bool(0) {
		if len(g.Jacks) == 0 {
			return illegal("the jack pile is empty")
		}
		jack, err := g.drawJack()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, jack)
		g.logf("%s thinks for a Jack%s", p.Name, suffix)
		return nil
	}

	n := g.maxHandSize(p) - len(p.Hand)
	if n < 1 {
		n = 1
	}
	drawn := g.drawCards(n)
	p.Hand = append(p.Hand, drawn...)
	noun := "card"
	if len(drawn) != 1 {
		noun = "cards"
	}
	g.logf("%s thinks for %d %s%s", p.Name, len(drawn), noun, suffix)
	return g.checkLibraryEmpty()
}

func (g *Game) handleSkipThinker(a protocol.Action) error {
	p := g.ActivePlayer()
	if a.Bool(0) {
		g.logf("%s skips thinker action.", p.Name)
		return nil
	}
	return g.push(rules.Thinker(g.ActivePlayerIndex))
}
