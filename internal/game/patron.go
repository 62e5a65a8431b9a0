package game

import (
	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// patronAction queues the optional Bar and Aqueduct hires and asks for the
// pool hire first.
func (g *Game) patronAction(seat int) error {
	p := g.Players[seat]
	bar := g.hasActive(p, "Bar")
	aqueduct := g.hasActive(p, "Aqueduct")

	switch {
	case bar && aqueduct:
		if err := g.push(rules.Await(protocol.BarOrAqueduct, seat)); err != nil {
			return err
		}
	case bar:
		if err := g.push(rules.Await(protocol.PatronFromDeck, seat)); err != nil {
			return err
		}
	case aqueduct:
		if err := g.push(rules.Await(protocol.PatronFromHand, seat)); err != nil {
			return err
		}
	}
	g.await(protocol.PatronFromPool, seat)
	return nil
}

func (g *Game) handleBarOrAqueduct(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	if a.Bool(0) {
		return g.push(
			rules.Await(protocol.PatronFromHand, seat),
			rules.Await(protocol.PatronFromDeck, seat),
		)
	}
	return g.push(
		rules.Await(protocol.PatronFromDeck, seat),
		rules.Await(protocol.PatronFromHand, seat),
	)
}

func (g *Game) clienteleLimit(p *Player) int {
	limit := p.InfluencePoints()
	if g.hasActive(p, "Insula") {
		limit += 2
	}
	if g.hasActive(p, "Aqueduct") {
		limit *= 2
	}
	return limit
}

func (g *Game) checkClienteleRoom(p *Player) error {
	if limit := g.clienteleLimit(p); len(p.Clientele) >= limit {
		return illegal("%s has no room in clientele (limit %d)", p.Name, limit)
	}
	return nil
}

// hire adds c to the clientele, runs Bath and checks for a Forum win.
func (g *Game) hire(seat int, c cards.Card, from string) error {
	p := g.Players[seat]
	p.Clientele = append(p.Clientele, c)

	if g.hasActive(p, "Bath") {
		g.logf("%s performs Patron, hiring %s from %s and performing %s using Bath.", p.Name, c, from, c.Role())
		if err := g.push(rules.RoleAction(seat, c.Role())); err != nil {
			return err
		}
	} else {
		g.logf("%s performs Patron, hiring %s from %s.", p.Name, c, from)
	}
	return g.checkForum()
}

func (g *Game) handlePatronFromPool(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	c, ok := a.Card(0)
	if !ok {
		g.logf("%s skips hiring from the pool.", p.Name)
		return nil
	}
	if !g.Pool.Contains(c) || c.IsJack() {
		return illegal("%s is not in the pool", c)
	}
	if err := g.checkClienteleRoom(p); err != nil {
		return err
	}
	g.Pool.remove(c)
	return g.hire(seat, c, "pool")
}

func (g *Game) handlePatronFromDeck(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	if !a.Bool(0) {
		return nil
	}
	if !g.hasActive(p, "Bar") {
		return illegal("%s has no Bar", p.Name)
	}
	if err := g.checkClienteleRoom(p); err != nil {
		return err
	}
	drawn := g.drawCards(1)
	if len(drawn) == 0 {
		return illegal("the deck is empty")
	}
	if err := g.hire(seat, drawn[0], "deck"); err != nil {
		return err
	}
	return g.checkLibraryEmpty()
}

func (g *Game) handlePatronFromHand(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	c, ok := a.Card(0)
	if !ok {
		return nil
	}
	if !g.hasActive(p, "Aqueduct") {
		return illegal("%s has no Aqueduct", p.Name)
	}
	if !p.Hand.Contains(c) || c.IsJack() {
		return illegal("%s is not an Orders card in %s's hand", c, p.Name)
	}
	if err := g.checkClienteleRoom(p); err != nil {
		return err
	}
	p.Hand.remove(c)
	return g.hire(seat, c, "hand")
}
