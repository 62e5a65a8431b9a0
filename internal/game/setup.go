package game

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

func (g *Game) checkStartable() error {
	if g.Started() {
		return protocol.Errorf(protocol.CodeIllegalTiming, "game %d has already started", g.ID)
	}
	if len(g.Players) < MinPlayers {
		return protocol.Errorf(protocol.CodeIllegalTiming, "game %d needs %d players to start, has %d", g.ID, MinPlayers, len(g.Players))
	}
	return nil
}

// Start shuffles the Orders cards, draws for first player, deals hands and
// lays out the sites. The result depends only on the seed and the seats.
func (g *Game) Start() error {
	if err := g.checkStartable(); err != nil {
		return err
	}
	g.logf("Initializing the game")
	g.initLibrary()
	g.LeaderIndex = g.drawForFirst()
	g.Jacks = append(Zone{}, cards.Jacks()...)
	g.initSites()

	for _, p := range g.Players {
		jack, err := g.drawJack()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, jack)
		p.Hand = append(p.Hand, g.drawCards(5)...)
	}
	return g.begin()
}

// ControlledStart starts with player 0 leading, no pool and empty hands. It
// exists for tests that set up hands themselves.
func (g *Game) ControlledStart() error {
	if err := g.checkStartable(); err != nil {
		return err
	}
	g.initLibrary()
	g.LeaderIndex = 0
	g.Jacks = append(Zone{}, cards.Jacks()...)
	g.initSites()
	return g.begin()
}

func (g *Game) begin() error {
	g.ActivePlayerIndex = g.LeaderIndex
	g.TurnNumber = 1
	g.logf("Starting game.")
	g.logf("Turn %d: %s", g.TurnNumber, g.Leader().Name)
	if err := g.push(rules.TakeTurn(g.LeaderIndex)); err != nil {
		return err
	}
	g.waiting = false
	if err := g.pump(); err != nil && !errors.Is(err, errGameOver) {
		return err
	}
	return nil
}

func (g *Game) initLibrary() {
	lib := Zone(cards.Orders())
	rng := rand.New(rand.NewSource(g.Seed))
	rng.Shuffle(len(lib), func(i, j int) { lib[i], lib[j] = lib[j], lib[i] })
	g.Library = lib
}

// drawForFirst deals one card per contender into the pool until a single
// player holds the alphabetically smallest name.
func (g *Game) drawForFirst() int {
	contenders := g.turnOrder(0)
	for {
		var first string
		revealed := make([]cards.Card, 0, len(contenders))
		for _, seat := range contenders {
			drawn := g.drawCards(1)
			if len(drawn) == 0 {
				return contenders[0]
			}
			c := drawn[0]
			revealed = append(revealed, c)
			g.Pool = append(g.Pool, c)
			g.logf("%s reveals %s.", g.Players[seat].Name, c)
			if first == "" || strings.ToLower(c.Name()) < first {
				first = strings.ToLower(c.Name())
			}
		}

		var tied []int
		for i, seat := range contenders {
			if strings.ToLower(revealed[i].Name()) == first {
				tied = append(tied, seat)
			}
		}
		if len(tied) == 1 {
			g.logf("%s plays first.", g.Players[tied[0]].Name)
			return tied[0]
		}
		g.logf("Deal more cards into pool to break tie.")
		contenders = tied
	}
}

func (g *Game) initSites() {
	n := len(g.Players)
	g.InTownSites = g.InTownSites[:0]
	g.OutOfTownSites = g.OutOfTownSites[:0]
	for _, m := range cards.Materials() {
		for i := 0; i < n; i++ {
			g.InTownSites = append(g.InTownSites, m)
		}
		for i := 0; i < MaxPlayers+1-n; i++ {
			g.OutOfTownSites = append(g.OutOfTownSites, m)
		}
	}
}
