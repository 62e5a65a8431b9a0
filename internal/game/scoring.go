package game

import (
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// Score returns the points of the player in seat as if the game ended now.
func (g *Game) Score(seat int) int {
	p := g.player(seat)
	if p == nil {
		return 0
	}
	return g.score(p)
}

func (g *Game) score(p *Player) int {
	pts := p.InfluencePoints()
	if g.hasActive(p, "Statue") {
		pts += 3
	}
	if g.hasActive(p, "Wall") {
		pts += len(p.Stockpile) / 2
	}
	for _, c := range p.Vault {
		pts += c.Value()
	}
	return pts + 3*len(g.merchantBonuses(p))
}

// merchantBonuses lists the materials p holds a strict vault majority of.
func (g *Game) merchantBonuses(p *Player) []cards.Material {
	var out []cards.Material
	for _, m := range cards.Materials() {
		mine := p.Vault.Materials()[m]
		if mine == 0 {
			continue
		}
		best := true
		for _, other := range g.Players {
			if other != p && other.Vault.Materials()[m] >= mine {
				best = false
				break
			}
		}
		if best {
			out = append(out, m)
		}
	}
	return out
}

// calcWinners picks the highest scores among players, breaking ties by the
// larger hand.
func (g *Game) calcWinners(players []*Player) []*Player {
	if len(players) <= 1 {
		return players
	}
	var winners []*Player
	best := -1
	for _, p := range players {
		switch s := g.score(p); {
		case s > best:
			best, winners = s, []*Player{p}
		case s == best:
			winners = append(winners, p)
		}
	}
	if len(winners) == 1 {
		return winners
	}

	var real []*Player
	hand := -1
	for _, p := range winners {
		switch n := len(p.Hand); {
		case n > hand:
			hand, real = n, []*Player{p}
		case n == hand:
			real = append(real, p)
		}
	}
	return real
}

func names(players []*Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func (g *Game) finish(winners []*Player) error {
	g.Winners = names(winners)
	g.ExpectedAction = protocol.KindNone
	g.ActivePlayerIndex = NoIndex
	// The final action consumes a number like any other.
	g.ActionNumber++
	g.waiting = true
	g.logf("Game over. Glory to Rome!")
	return errGameOver
}

// endGame scores every player and sets the winners.
func (g *Game) endGame() error {
	for _, p := range g.Players {
		g.logf("%s scores %d", p.Name, g.score(p))
	}
	winners := g.calcWinners(g.Players)
	if len(winners) == 1 {
		g.logf("%s has won the game with %d points.", winners[0].Name, g.score(winners[0]))
	} else {
		g.logf("There is a TIE between players %s with %d points.",
			strings.Join(names(winners), ", "), g.score(winners[0]))
	}
	return g.finish(winners)
}

// forumRoles counts the client roles covered for a Forum win.
func (g *Game) forumRoles(p *Player) int {
	ludus := g.hasActive(p, "Ludus Magna")
	storeroom := g.hasActive(p, "Storeroom")

	roles := make(map[cards.Role]bool)
	extraMerchants := 0
	for _, c := range p.Clientele {
		r := c.Role()
		switch {
		case !roles[r]:
			roles[r] = true
		case r == cards.Merchant:
			extraMerchants++
		case storeroom:
			roles[cards.Laborer] = true
		}
	}

	n := len(roles)
	switch {
	case ludus:
		n += extraMerchants
	case storeroom && extraMerchants > 0 && !roles[cards.Laborer]:
		n++
	}
	return n
}

// checkForum ends the game if any player has an active Forum and a client
// of every role. Several Forum winners are split by score.
func (g *Game) checkForum() error {
	var forum []*Player
	for _, p := range g.Players {
		if g.hasActive(p, "Forum") && g.forumRoles(p) >= len(cards.Roles()) {
			forum = append(forum, p)
		}
	}
	if len(forum) == 0 {
		return nil
	}

	winners := g.calcWinners(forum)
	if len(winners) == 1 {
		g.logf("%s has won the game by building a Forum (%d points).", winners[0].Name, g.score(winners[0]))
	} else {
		g.logf("There is a TIE between players %s, all of whom have built a Forum and have %d points.",
			strings.Join(names(winners), ", "), g.score(winners[0]))
	}
	return g.finish(winners)
}
