package game

import (
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// legionaryAction folds every adjacent Legionary frame of the player into
// LegionaryCount, since all demands are revealed at once.
func (g *Game) legionaryAction(seat int) error {
	p := g.Players[seat]
	ludus := g.hasActive(p, "Ludus Magna")
	doubled := g.hasActive(p, "Circus Maximus") && g.RoleLed == cards.Legionary && p.LeadingOrFollowing()

	g.LegionaryCount = 1
	for i := g.Stack.Len() - 1; i >= 0; i-- {
		f, _ := g.Stack.At(i)
		if f.Player != seat {
			break
		}
		if f.Kind == rules.FrameRoleAction && f.Role == cards.Legionary {
			g.LegionaryCount++
			g.Stack.RemoveAt(i)
			continue
		}
		if f.Kind != rules.FrameClienteleAction {
			break
		}
		// Merchants only join through Ludus Magna when Legionary was led, so
		// a Legionary hired by Bath does not absorb them.
		if f.Role == cards.Legionary || (ludus && f.Role == cards.Merchant && g.RoleLed == cards.Legionary) {
			g.LegionaryCount++
			if doubled {
				g.LegionaryCount++
			}
			g.Stack.RemoveAt(i)
		}
	}

	g.await(protocol.Legionary, seat)
	return nil
}

func (g *Game) handleLegionary(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]
	demand := a.Cards(0)

	for _, c := range demand {
		if c.IsJack() {
			return illegal("cannot demand material with a Jack")
		}
		if p.PrevRevealed.Contains(c) {
			return illegal("cannot reveal %s twice in one turn", c)
		}
	}
	if !distinct(demand) || !p.Hand.ContainsAll(demand) {
		return illegal("demanding with cards not in hand: %s", joinNames(demand))
	}
	if len(demand) > g.LegionaryCount {
		return illegal("too many cards for Legionary demand: %s (%d allowed)", joinNames(demand), g.LegionaryCount)
	}

	p.Revealed = append(Zone{}, demand...)
	p.PrevRevealed = append(p.PrevRevealed, demand...)

	if len(demand) == 0 {
		g.logf("%s skips legionary.", p.Name)
		return nil
	}

	mats := make([]string, len(demand))
	for i, c := range demand {
		mats[i] = c.Material().String()
	}
	g.logf("Rome demands %s! (revealing %s)", strings.Join(mats, ", "), joinNames(demand))

	var responders []int
	if len(g.Players) > 3 && !g.hasActive(p, "Bridge") {
		order := g.turnOrder(seat)
		responders = []int{order[1], order[len(order)-1]}
	} else {
		responders = g.turnOrder(seat)[1:]
	}
	for _, r := range reversed(responders) {
		if err := g.push(rules.Await(protocol.GiveCards, r)); err != nil {
			return err
		}
	}
	g.LegionaryPlayerIndex = seat
	g.await(protocol.TakePoolCards, seat)
	return nil
}

// demanded counts the materials revealed by the legionary player.
func (g *Game) demanded() map[cards.Material]int {
	leg := g.player(g.LegionaryPlayerIndex)
	if leg == nil {
		return map[cards.Material]int{}
	}
	return leg.Revealed.Materials()
}

func (g *Game) handleTakePoolCards(a protocol.Action) error {
	leg := g.player(g.LegionaryPlayerIndex)
	if leg == nil {
		return fault("takepoolcards without a legionary player")
	}
	taken := a.Cards(0)
	if !distinct(taken) || !g.Pool.ContainsAll(taken) {
		return illegal("cards not in the pool: %s", joinNames(taken))
	}
	want := g.demanded()
	for m, n := range Zone(taken).Materials() {
		if n > want[m] {
			return illegal("%s was not demanded %d times", m, n)
		}
	}

	for _, c := range taken {
		moveCard(c, &g.Pool, &leg.Stockpile)
	}
	if len(taken) > 0 {
		g.logf("%s collected %s from the pool.", leg.Name, joinNames(taken))
	}
	return nil
}

// checkGiven validates the cards given from one zone: nothing beyond the
// demand, and, unless immune, every demanded material the zone holds.
func checkGiven(demand map[cards.Material]int, given []cards.Card, zone Zone, given2 map[cards.Card]bool, immune bool) error {
	gave := Zone(given).Materials()
	for m, n := range gave {
		if n > demand[m] {
			return illegal("extra %s given for Legionary", m)
		}
	}
	if immune {
		return nil
	}
	remaining := make(map[cards.Material]int)
	for _, c := range zone {
		if !given2[c] {
			remaining[c.Material()]++
		}
	}
	for m, n := range demand {
		if n > gave[m] && remaining[m] > 0 {
			return illegal("not enough %s given for Legionary", m)
		}
	}
	return nil
}

func (g *Game) handleGiveCards(a protocol.Action) error {
	p := g.ActivePlayer()
	leg := g.player(g.LegionaryPlayerIndex)
	if leg == nil {
		return fault("givecards without a legionary player")
	}
	given := a.Cards(0)
	if !distinct(given) {
		return illegal("card listed twice: %s", joinNames(given))
	}

	bridge := g.hasActive(leg, "Bridge")
	coliseum := g.hasActive(leg, "Coliseum")
	immune := g.hasActive(p, "Wall") || (g.hasActive(p, "Palisade") && !bridge)

	var fromHand, fromStockpile, fromClientele []cards.Card
	isGiven := make(map[cards.Card]bool, len(given))
	for _, c := range given {
		isGiven[c] = true
		switch {
		case p.Hand.Contains(c) && !c.IsJack():
			fromHand = append(fromHand, c)
		case p.Stockpile.Contains(c):
			if !bridge {
				return illegal("cannot give %s from stockpile: %s has no Bridge", c, leg.Name)
			}
			fromStockpile = append(fromStockpile, c)
		case p.Clientele.Contains(c):
			if !coliseum {
				return illegal("cannot give client %s: %s has no Coliseum", c, leg.Name)
			}
			fromClientele = append(fromClientele, c)
		default:
			return illegal("%s is not in %s's hand, stockpile or clientele", c, p.Name)
		}
	}

	demand := g.demanded()
	if err := checkGiven(demand, fromHand, p.Hand, isGiven, immune); err != nil {
		return err
	}
	if bridge {
		if err := checkGiven(demand, fromStockpile, p.Stockpile, isGiven, immune); err != nil {
			return err
		}
	}
	if coliseum {
		if err := checkGiven(demand, fromClientele, p.Clientele, isGiven, immune); err != nil {
			return err
		}
	}

	if len(given) == 0 {
		g.logf("%s: \"Glory to Rome!\"", p.Name)
	}
	if len(fromHand) > 0 {
		g.logf("%s gives %s from their hand.", p.Name, joinNames(fromHand))
	}
	if len(fromStockpile) > 0 {
		g.logf("%s gives %s from their stockpile.", p.Name, joinNames(fromStockpile))
	}
	if len(fromClientele) > 0 {
		g.logf("%s feeds %s to the lions.", p.Name, joinNames(fromClientele))
	}

	for _, c := range fromHand {
		moveCard(c, &p.Hand, &leg.Stockpile)
	}
	for _, c := range fromStockpile {
		moveCard(c, &p.Stockpile, &leg.Stockpile)
	}

	// Clients that would overflow the vault wait for the legionary player
	// to choose among them.
	space := g.vaultLimit(leg) - len(leg.Vault)
	switch {
	case len(fromClientele) == 0 || space <= 0:
	case space >= len(fromClientele):
		for _, c := range fromClientele {
			moveCard(c, &p.Clientele, &leg.Vault)
		}
	default:
		p.ClientsGiven = append(Zone{}, fromClientele...)
		return g.push(rules.Await(protocol.TakeClients, g.LegionaryPlayerIndex))
	}
	return nil
}

func (g *Game) handleTakeClients(a protocol.Action) error {
	p := g.ActivePlayer()
	var victim *Player
	for _, other := range g.Players {
		if len(other.ClientsGiven) > 0 {
			victim = other
			break
		}
	}
	if victim == nil {
		return fault("takeclients without given clients")
	}

	taken := a.Cards(0)
	if !distinct(taken) || !victim.ClientsGiven.ContainsAll(taken) {
		return illegal("clients picked that were not given: %s", joinNames(taken))
	}
	if space := g.vaultLimit(p) - len(p.Vault); len(taken) != space {
		return illegal("must take exactly %d clients", space)
	}

	for _, c := range taken {
		moveCard(c, &victim.Clientele, &p.Vault)
	}
	victim.ClientsGiven = Zone{}
	g.logf("%s chooses clients from %s: %s", p.Name, victim.Name, joinNames(taken))
	return nil
}
