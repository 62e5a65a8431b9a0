package game

import (
	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

func (g *Game) handleLeadRole(a protocol.Action) error {
	p := g.Leader()
	role, err := cards.ParseRole(a.Text(0))
	if err != nil || role == cards.RoleNone {
		return illegal("cannot lead role %q", a.Text(0))
	}
	n := a.Int(1)
	played := a.Cards(2)

	if err := g.playForRole(p, role, n, played); err != nil {
		return err
	}
	g.RoleLed = role
	if n > 1 {
		g.logf("%s leads %s for %d actions using: %s", p.Name, role, n, joinNames(played))
	} else {
		g.logf("%s leads %s using: %s", p.Name, role, joinNames(played))
	}
	return nil
}

func (g *Game) handleFollowRole(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]
	n := a.Int(0)
	played := a.Cards(1)

	if n == 0 {
		if len(played) > 0 {
			return illegal("thinker requested but cards given: %s", joinNames(played))
		}
		p.NCampActions = 0
		return g.push(rules.Thinker(seat))
	}

	if err := g.playForRole(p, g.RoleLed, n, played); err != nil {
		return err
	}
	if n > 1 {
		g.logf("%s follows for %d actions using: %s", p.Name, n, joinNames(played))
	} else {
		g.logf("%s follows using: %s", p.Name, joinNames(played))
	}
	return nil
}

// playForRole checks the action units and moves the cards to camp.
func (g *Game) playForRole(p *Player, role cards.Role, n int, played []cards.Card) error {
	err := rules.CheckActionUnits(role, n, played, g.hasActive(p, "Palace"), g.hasActive(p, "Circus"))
	if err != nil {
		return err
	}
	if !distinct(played) || !p.Hand.ContainsAll(played) {
		return illegal("cards %s are not all in %s's hand", joinNames(played), p.Name)
	}
	p.NCampActions = n
	for _, c := range played {
		moveCard(c, &p.Hand, &p.Camp)
	}
	return nil
}

// clientCount counts the player's clients of a role. With a Storeroom every
// client counts as a Laborer.
func (g *Game) clientCount(p *Player, role cards.Role) int {
	if role == cards.Laborer && g.hasActive(p, "Storeroom") {
		return len(p.Clientele)
	}
	n := 0
	for _, c := range p.Clientele {
		if c.Role() == role {
			n++
		}
	}
	return n
}

func (g *Game) roleBeingLed(seat int) error {
	p := g.Players[seat]
	role := g.RoleLed
	g.logf("%s is performing %s", p.Name, role)

	// A Tower start out of town by the previous player must not leak.
	g.UsedOOT = false

	if role != cards.Merchant {
		for i := g.clientCount(p, cards.Merchant); i > 0; i-- {
			if err := g.push(rules.ClienteleAction(seat, cards.Merchant)); err != nil {
				return err
			}
		}
	}
	for i := g.clientCount(p, role); i > 0; i-- {
		if err := g.push(rules.ClienteleAction(seat, role)); err != nil {
			return err
		}
	}
	for i := p.NCampActions; i > 0; i-- {
		if err := g.push(rules.RoleAction(seat, role)); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) clienteleAction(seat int, role cards.Role) error {
	p := g.Players[seat]
	doubled := g.hasActive(p, "Circus Maximus") && p.LeadingOrFollowing()

	performed := role
	if role == cards.Merchant && g.RoleLed != cards.Merchant {
		if !g.hasActive(p, "Ludus Magna") {
			return nil
		}
		performed = g.RoleLed
	}

	if err := g.push(rules.RoleAction(seat, performed)); err != nil {
		return err
	}
	if doubled {
		return g.push(rules.RoleAction(seat, performed))
	}
	return nil
}

// ootAllowed reports whether the role action just popped may start a
// building out of town: with a Tower, or when the next frame is another
// action of the same role for the same player.
func (g *Game) ootAllowed(seat int, role cards.Role) bool {
	p := g.Players[seat]
	if g.hasActive(p, "Tower") {
		return true
	}
	next, ok := g.Stack.Peek()
	if !ok || next.Player != seat {
		return false
	}
	switch next.Kind {
	case rules.FrameRoleAction:
		return next.Role == role
	case rules.FrameClienteleAction:
		return next.Role == role || (next.Role == cards.Merchant && g.hasActive(p, "Ludus Magna"))
	}
	return false
}

func (g *Game) roleAction(seat int, role cards.Role) error {
	p := g.Players[seat]
	usedOOT := g.UsedOOT
	g.UsedOOT = false
	if usedOOT && !g.hasActive(p, "Tower") {
		// The out-of-town start consumed this action.
		return nil
	}
	g.OOTAllowed = g.ootAllowed(seat, role)

	switch role {
	case cards.Patron:
		return g.patronAction(seat)
	case cards.Laborer:
		g.await(protocol.Laborer, seat)
	case cards.Architect:
		g.await(protocol.Architect, seat)
	case cards.Craftsman:
		if g.hasActive(p, "Fountain") {
			g.await(protocol.UseFountain, seat)
		} else {
			g.await(protocol.Craftsman, seat)
		}
	case cards.Legionary:
		return g.legionaryAction(seat)
	case cards.Merchant:
		g.await(protocol.Merchant, seat)
	default:
		return fault("role action with role %q", role)
	}
	return nil
}
