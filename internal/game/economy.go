package game

import (
	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

func (g *Game) handleLaborer(a protocol.Action) error {
	p := g.ActivePlayer()
	picked := a.Cards(0)

	var fromPool, fromHand []cards.Card
	for _, c := range picked {
		switch {
		case g.Pool.Contains(c):
			fromPool = append(fromPool, c)
		case p.Hand.Contains(c) && !c.IsJack():
			fromHand = append(fromHand, c)
		default:
			return illegal("%s is not in the pool or %s's hand", c, p.Name)
		}
	}
	if !distinct(picked) {
		return illegal("card listed twice: %s", joinNames(picked))
	}
	if len(fromPool) > 1 {
		return illegal("too many cards from the pool: %s", joinNames(fromPool))
	}
	if len(fromHand) > 1 {
		return illegal("too many cards from %s's hand: %s", p.Name, joinNames(fromHand))
	}
	if len(fromHand) > 0 && !g.hasActive(p, "Dock") {
		return illegal("%s cannot take from hand without a Dock", p.Name)
	}

	for _, c := range fromPool {
		moveCard(c, &g.Pool, &p.Stockpile)
	}
	for _, c := range fromHand {
		moveCard(c, &p.Hand, &p.Stockpile)
	}

	switch {
	case len(picked) == 0:
		g.logf("%s skips Laborer action.", p.Name)
	case len(fromHand) > 0:
		g.logf("%s performs Laborer from pool: %s and hand: %s.", p.Name, joinNames(fromPool), joinNames(fromHand))
	default:
		g.logf("%s performs Laborer from pool: %s.", p.Name, joinNames(fromPool))
	}
	return nil
}

func (g *Game) vaultLimit(p *Player) int {
	limit := p.InfluencePoints()
	if g.hasActive(p, "Market") {
		limit += 2
	}
	return limit
}

func (g *Game) handleMerchant(a protocol.Action) error {
	p := g.ActivePlayer()
	fromDeck := a.Bool(0)
	picked := a.Cards(1)

	var fromStockpile, fromHand []cards.Card
	for _, c := range picked {
		switch {
		case p.Stockpile.Contains(c):
			fromStockpile = append(fromStockpile, c)
		case p.Hand.Contains(c) && !c.IsJack():
			fromHand = append(fromHand, c)
		default:
			return illegal("%s is not in %s's stockpile or hand", c, p.Name)
		}
	}
	if !distinct(picked) {
		return illegal("card listed twice: %s", joinNames(picked))
	}
	if len(fromStockpile) > 1 {
		return illegal("too many cards from %s's stockpile: %s", p.Name, joinNames(fromStockpile))
	}
	if len(fromHand) > 1 {
		return illegal("too many cards from %s's hand: %s", p.Name, joinNames(fromHand))
	}
	if len(fromStockpile) > 0 && fromDeck {
		return illegal("cannot sell from the deck and the stockpile")
	}
	if fromDeck && !g.hasActive(p, "Atrium") {
		return illegal("%s cannot sell from the deck without an Atrium", p.Name)
	}
	if fromDeck && len(g.Library) == 0 {
		return illegal("the deck is empty")
	}
	if len(fromHand) > 0 && !g.hasActive(p, "Basilica") {
		return illegal("%s cannot sell from hand without a Basilica", p.Name)
	}

	n := len(fromStockpile) + len(fromHand)
	if fromDeck {
		n++
	}
	if limit := g.vaultLimit(p); len(p.Vault)+n > limit {
		return illegal("not enough room in %s's vault for %d cards (%d free)", p.Name, n, limit-len(p.Vault))
	}

	// Taking the last Orders card ends the game before the hand card moves.
	gameWillEnd := fromDeck && len(g.Library) == 1

	for _, c := range fromStockpile {
		moveCard(c, &p.Stockpile, &p.Vault)
	}
	if fromDeck {
		p.Vault = append(p.Vault, g.drawCards(1)...)
	}
	handSold := len(fromHand) > 0 && !gameWillEnd
	if handSold {
		moveCard(fromHand[0], &p.Hand, &p.Vault)
	}

	andHand := "."
	if handSold {
		andHand = " and a card from their hand."
	}
	switch {
	case len(fromStockpile) > 0:
		g.logf("%s performs Merchant, selling a %s from the stockpile%s", p.Name, fromStockpile[0], andHand)
	case fromDeck:
		g.logf("%s performs Merchant, selling a card from the deck%s", p.Name, andHand)
	case handSold:
		g.logf("%s performs Merchant, selling a card from their hand.", p.Name)
	default:
		g.logf("%s skips Merchant action.", p.Name)
	}
	return g.checkLibraryEmpty()
}
