package game

import (
	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// activeBuildings lists the buildings whose function p may use: its own
// complete buildings, every stairwayed building in play and, with a Gate,
// its own incomplete Marble buildings.
func (g *Game) activeBuildings(p *Player) []*Building {
	var active []*Building
	for _, b := range p.Buildings {
		if b.Complete {
			active = append(active, b)
		}
	}
	for _, other := range g.Players {
		for _, b := range other.Buildings {
			if b.Stairwayed() {
				active = append(active, b)
			}
		}
	}

	gate := false
	for _, b := range active {
		if b.Name() == "Gate" {
			gate = true
			break
		}
	}
	if gate {
		for _, b := range p.Buildings {
			if !b.Complete && b.ComposedOf(cards.Marble) {
				active = append(active, b)
			}
		}
	}
	return active
}

// ActiveBuildingNames returns the distinct names of the buildings active for
// the player in seat.
func (g *Game) ActiveBuildingNames(seat int) []string {
	p := g.player(seat)
	if p == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, b := range g.activeBuildings(p) {
		if !seen[b.Name()] {
			seen[b.Name()] = true
			names = append(names, b.Name())
		}
	}
	return names
}

func (g *Game) hasActive(p *Player, name string) bool {
	for _, b := range g.activeBuildings(p) {
		if b.Name() == name {
			return true
		}
	}
	return false
}

func (g *Game) maxHandSize(p *Player) int {
	n := 5
	if g.hasActive(p, "Shrine") {
		n += 2
	}
	if g.hasActive(p, "Temple") {
		n += 4
	}
	return n
}

// resolveBuilding runs the completion effect of b for the player in seat.
func (g *Game) resolveBuilding(seat int, b *Building) error {
	p := g.Players[seat]
	n := p.InfluencePoints()

	var frames []rules.Frame
	switch b.Name() {
	case "Catacomb":
		g.logf("%s completed Catacomb, ending the game immediately.", p.Name)
		return g.endGame()
	case "Foundry":
		g.logf("%s completed Foundry, performing %d Laborer actions.", p.Name, n)
		for i := 0; i < n; i++ {
			frames = append(frames, rules.RoleAction(seat, cards.Laborer))
		}
	case "Garden":
		g.logf("%s completed Garden, performing %d Patron actions.", p.Name, n)
		for i := 0; i < n; i++ {
			frames = append(frames, rules.PatronAction(seat))
		}
	case "School":
		g.logf("%s completed School, think %d times.", p.Name, n)
		for i := 0; i < n; i++ {
			frames = append(frames, rules.Await(protocol.SkipThinker, seat))
		}
	case "Amphitheatre":
		g.logf("%s completed Amphitheatre, performing %d Craftsman actions.", p.Name, n)
		for i := 0; i < n; i++ {
			frames = append(frames, rules.RoleAction(seat, cards.Craftsman))
		}
	case "Prison":
		frames = append(frames, rules.Await(protocol.Prison, seat))
	case "Forum", "Ludus Magna", "Gate", "Storeroom":
		return g.checkForum()
	}
	return g.push(frames...)
}

func (g *Game) handlePrison(a protocol.Action) error {
	seat := g.ActivePlayerIndex
	p := g.Players[seat]

	c, ok := a.Card(0)
	if !ok {
		g.logf("%s doesn't steal anything with Prison, keeping the influence points.", p.Name)
		return nil
	}

	owner, b := g.findBuilding(c)
	switch {
	case b == nil:
		return illegal("building chosen for Prison doesn't exist: %s", c)
	case owner == p:
		return illegal("cannot use Prison on your own %s", b.Name())
	case !b.Complete:
		return illegal("cannot use Prison on incomplete %s", b.Name())
	case p.OwnsBuilding(b.Foundation):
		return illegal("%s already owns a %s", p.Name, b.Name())
	}
	stone := -1
	for i, m := range p.Influence {
		if m == cards.Stone {
			stone = i
			break
		}
	}
	if stone < 0 {
		return fault("%s completed Prison without Stone influence", p.Name)
	}

	for i, ob := range owner.Buildings {
		if ob == b {
			owner.Buildings = append(owner.Buildings[:i], owner.Buildings[i+1:]...)
			break
		}
	}
	p.Buildings = append(p.Buildings, b)
	p.Influence = append(p.Influence[:stone], p.Influence[stone+1:]...)
	owner.Influence = append(owner.Influence, cards.Stone)

	g.logf("%s steals %s's %s with Prison.", p.Name, owner.Name, b.Name())
	return g.resolveBuilding(seat, b)
}
