package game

import (
	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// source is where a foundation or material card comes from.
type source int

const (
	fromHand source = iota
	fromPool
	fromStockpile
	fromFountain
)

var sourceNames = map[source]string{
	fromHand:      " from hand",
	fromPool:      " from pool",
	fromStockpile: " from stockpile",
	fromFountain:  " using Fountain card",
}

func (g *Game) zoneFor(p *Player, src source) *Zone {
	switch src {
	case fromPool:
		return &g.Pool
	case fromStockpile:
		return &p.Stockpile
	}
	return &p.Hand
}

func parseSite(text string) (cards.Material, error) {
	m, err := cards.ParseMaterial(text)
	if err != nil {
		return cards.MaterialNone, illegal("unknown site %q", text)
	}
	return m, nil
}

func takeSite(sites *[]cards.Material, m cards.Material) bool {
	for i, s := range *sites {
		if s == m {
			*sites = append((*sites)[:i], (*sites)[i+1:]...)
			return true
		}
	}
	return false
}

func hasSite(sites []cards.Material, m cards.Material) bool {
	for _, s := range sites {
		if s == m {
			return true
		}
	}
	return false
}

// construct starts foundation on site, or adds material to the building
// named by foundation when site is MaterialNone.
func (g *Game) construct(seat int, foundation, material cards.Card, site cards.Material, src source) (*Building, error) {
	p := g.Players[seat]
	if site != cards.MaterialNone {
		return g.startBuilding(p, foundation, site, src)
	}
	return g.addMaterial(p, foundation, material, src)
}

func (g *Game) startBuilding(p *Player, foundation cards.Card, site cards.Material, src source) (*Building, error) {
	if _, ok := foundation.Definition(); !ok {
		return nil, illegal("%s cannot be a foundation", foundation)
	}
	if p.OwnsBuilding(foundation) {
		return nil, illegal("%s already owns a %s", p.Name, foundation)
	}

	inTown := hasSite(g.InTownSites, site)
	if !inTown {
		if !hasSite(g.OutOfTownSites, site) {
			return nil, illegal("no %s sites left, including out of town", site)
		}
		if !g.OOTAllowed {
			return nil, illegal("starting an out of town building is not allowed")
		}
	}
	if foundation.Material() != site && foundation.Name() != "Statue" {
		return nil, illegal("%s cannot be built on a %s site", foundation, site)
	}

	if src == fromFountain {
		if p.FountainCard == nil || !p.FountainCard.SameName(foundation) {
			return nil, illegal("%s is not %s's Fountain card", foundation, p.Name)
		}
		foundation = *p.FountainCard
		p.FountainCard = nil
	} else if !p.Hand.remove(foundation) {
		return nil, illegal("%s is not in %s's hand", foundation, p.Name)
	}

	if inTown {
		takeSite(&g.InTownSites, site)
	} else {
		takeSite(&g.OutOfTownSites, site)
	}
	b := &Building{Foundation: foundation, Site: site, Materials: Zone{}, StairwayMaterials: Zone{}}
	p.Buildings = append(p.Buildings, b)
	g.UsedOOT = !inTown

	if inTown {
		g.logf("%s starts %s on a %s site.", p.Name, foundation, site)
	} else {
		g.logf("%s starts %s on a %s site, out of town.", p.Name, foundation, site)
	}

	// A Forum started on the last in-town site can still win outright.
	if err := g.checkForum(); err != nil {
		return nil, err
	}
	if len(g.InTownSites) == 0 {
		g.logf("The last in-town site has been claimed. Game Over.")
		return nil, g.endGame()
	}
	return b, nil
}

// canAdd reports whether m may be added to b by p.
func (g *Game) canAdd(p *Player, b *Building, m cards.Material) bool {
	switch {
	case m == cards.MaterialNone:
		return false
	case m == cards.Rubble && g.hasActive(p, "Tower"):
		return true
	case m == cards.Marble && g.hasActive(p, "Scriptorium"):
		return true
	case (b.Foundation.Material() == cards.Stone || b.Site == cards.Stone) && g.hasActive(p, "Road"):
		return true
	}
	return b.ComposedOf(m)
}

func (g *Game) addMaterial(p *Player, foundation, material cards.Card, src source) (*Building, error) {
	b := p.Building(foundation)
	if b == nil {
		return nil, illegal("%s does not own a %s", p.Name, foundation)
	}
	if b.Complete {
		return nil, illegal("cannot add to %s because it is already complete", b.Name())
	}
	if src == fromFountain {
		if p.FountainCard == nil || !p.FountainCard.SameName(material) {
			return nil, illegal("%s is not %s's Fountain card", material, p.Name)
		}
		material = *p.FountainCard
	}
	if material.IsJack() || !g.canAdd(p, b, material.Material()) {
		return nil, illegal("%s does not match %s (%s on %s)", material, b.Name(), b.Foundation.Material(), b.Site)
	}

	if src == fromFountain {
		p.FountainCard = nil
		b.Materials = append(b.Materials, material)
	} else if !moveCard(material, g.zoneFor(p, src), &b.Materials) {
		return nil, illegal("%s not found%s", material, sourceNames[src])
	}
	g.logf("%s adds %s as material to %s%s.", p.Name, material, b.Name(), sourceNames[src])

	switch {
	case material.Material() == cards.Marble && g.hasActive(p, "Scriptorium"):
		g.logf("%s completed building %s using Scriptorium.", p.Name, b.Name())
	case len(b.Materials) == b.Site.Value():
		g.logf("%s completed building %s.", p.Name, b.Name())
	case src == fromStockpile && b.Name() == "Villa":
		g.logf("%s completed Villa with one material using Architect.", p.Name)
	default:
		return b, nil
	}
	b.Complete = true
	p.Influence = append(p.Influence, b.Site)
	return b, nil
}

func (g *Game) handleCraftsman(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	foundation, hasFoundation := a.Card(0)
	material, hasMaterial := a.Card(1)
	site, err := parseSite(a.Text(2))
	if err != nil {
		return err
	}
	if !hasFoundation || (!hasMaterial && site == cards.MaterialNone) {
		g.logf("%s skips Craftsman action.", p.Name)
		return nil
	}

	g.logf("%s performs Craftsman.", p.Name)
	b, err := g.construct(seat, foundation, material, site, fromHand)
	if err != nil {
		return err
	}
	p.PerformedCraftsman = true
	if b.Complete {
		return g.resolveBuilding(seat, b)
	}
	return nil
}

func (g *Game) handleArchitect(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]
	stairway := g.hasActive(p, "Stairway")

	foundation, hasFoundation := a.Card(0)
	if !hasFoundation {
		g.logf("%s skips Architect action.", p.Name)
		if stairway {
			return g.push(rules.Await(protocol.Stairway, seat))
		}
		return nil
	}

	material, hasMaterial := a.Card(1)
	site, err := parseSite(a.Text(2))
	if err != nil {
		return err
	}
	if !hasMaterial && site == cards.MaterialNone {
		return illegal("architect needs a site or a material")
	}
	src := fromStockpile
	if hasMaterial && site == cards.MaterialNone {
		src, err = g.architectSource(p, material)
		if err != nil {
			return err
		}
	}

	g.logf("%s performs Architect.", p.Name)
	b, err := g.construct(seat, foundation, material, site, src)
	if err != nil {
		return err
	}
	// Checked after construct so a Stairway completed by this action counts.
	if g.hasActive(p, "Stairway") {
		if err := g.push(rules.Await(protocol.Stairway, seat)); err != nil {
			return err
		}
	}
	if b.Complete {
		return g.resolveBuilding(seat, b)
	}
	return nil
}

// architectSource finds a material in the stockpile, or in the pool with an
// Archway.
func (g *Game) architectSource(p *Player, material cards.Card) (source, error) {
	switch {
	case p.Stockpile.Contains(material):
		return fromStockpile, nil
	case g.Pool.Contains(material):
		if !g.hasActive(p, "Archway") {
			return 0, illegal("%s cannot take material from the pool without an Archway", p.Name)
		}
		return fromPool, nil
	}
	return 0, illegal("%s is not in %s's stockpile or the pool", material, p.Name)
}

func (g *Game) handleUseFountain(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	if !a.Bool(0) {
		g.await(protocol.Craftsman, seat)
		return nil
	}
	drawn := g.drawCards(1)
	if len(drawn) == 0 {
		return illegal("the deck is empty")
	}
	// The last card may still be used, so the empty-deck check waits for
	// the FOUNTAIN response.
	p.FountainCard = &drawn[0]
	g.logf("%s looks at a card with Fountain.", p.Name)
	g.await(protocol.Fountain, seat)
	return nil
}

func (g *Game) handleFountain(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]
	if p.FountainCard == nil {
		return illegal("%s has no Fountain card", p.Name)
	}

	foundation, hasFoundation := a.Card(0)
	material, _ := a.Card(1)
	site, err := parseSite(a.Text(2))
	if err != nil {
		return err
	}

	if !hasFoundation {
		g.logf("%s skips Fountain, drawing the card.", p.Name)
		p.Hand = append(p.Hand, *p.FountainCard)
		p.FountainCard = nil
		return g.checkLibraryEmpty()
	}

	g.logf("%s performs Craftsman using %s with Fountain.", p.Name, *p.FountainCard)
	b, err := g.construct(seat, foundation, material, site, fromFountain)
	if err != nil {
		return err
	}
	p.PerformedCraftsman = true
	if b.Complete {
		if err := g.resolveBuilding(seat, b); err != nil {
			return err
		}
	}
	return g.checkLibraryEmpty()
}

func (g *Game) handleStairway(a protocol.Action) error {
	p := g.ActivePlayer()

	foundation, hasFoundation := a.Card(0)
	material, hasMaterial := a.Card(1)
	if !hasFoundation || !hasMaterial {
		g.logf("%s skips Stairway.", p.Name)
		return nil
	}

	owner, b := g.findBuilding(foundation)
	if b == nil {
		return illegal("no building %s for Stairway", foundation)
	}
	if !b.Complete {
		return illegal("cannot use Stairway on incomplete %s", b.Name())
	}
	if material.IsJack() || !b.ComposedOf(material.Material()) {
		return illegal("%s does not match %s", material, b.Name())
	}
	src, err := g.architectSource(p, material)
	if err != nil {
		return err
	}

	moveCard(material, g.zoneFor(p, src), &b.StairwayMaterials)
	g.logf("%s uses Stairway to add %s%s to %s's %s.", p.Name, material, sourceNames[src], owner.Name, b.Name())
	return g.checkForum()
}

// findBuilding locates a building in play by its foundation card. An exact
// ident wins; otherwise the name must be unambiguous.
func (g *Game) findBuilding(c cards.Card) (*Player, *Building) {
	var owner *Player
	var match *Building
	matches := 0
	for _, p := range g.Players {
		for _, b := range p.Buildings {
			if b.Foundation == c {
				return p, b
			}
			if b.Foundation.SameName(c) {
				owner, match = p, b
				matches++
			}
		}
	}
	if matches == 1 {
		return owner, match
	}
	return nil, nil
}
