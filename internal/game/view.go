package game

import "github.com/cloaca/cloaca-server/internal/game/cards"

func hidden(z Zone) Zone {
	out := make(Zone, len(z))
	for i := range out {
		out[i] = cards.Hidden
	}
	return out
}

// Privatize returns the game as the named player may see it. The library and
// every vault are redacted, as are other players' hands (except Jacks) and
// Fountain cards. The seed is withheld since it fixes the deal. Nothing is
// hidden once the game is over.
func (g *Game) Privatize(name string) *Game {
	view := g.Clone()
	if g.Finished() {
		return view
	}

	view.Seed = 0
	view.Library = hidden(view.Library)
	for _, p := range view.Players {
		p.Vault = hidden(p.Vault)
		if p.Name == name {
			continue
		}

		hand := make(Zone, len(p.Hand))
		for i, c := range p.Hand {
			if c.IsJack() {
				hand[i] = c
			} else {
				hand[i] = cards.Hidden
			}
		}
		p.Hand = hand.sorted()
		if p.FountainCard != nil {
			h := cards.Hidden
			p.FountainCard = &h
		}
	}
	return view
}
