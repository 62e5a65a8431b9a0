package game

import (
	"testing"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestGame(t *testing.T, names ...string) *Game {
	t.Helper()
	g := NewGame(1, names[0], 42)
	for i, name := range names {
		require.NoError(t, g.AddPlayer(i+1, name))
	}
	require.NoError(t, g.ControlledStart())
	return g
}

// take pulls a copy of name out of the library or the jack pile.
func take(t *testing.T, g *Game, name string) cards.Card {
	t.Helper()
	for _, z := range []*Zone{&g.Library, &g.Jacks} {
		for _, c := range *z {
			if c.Name() == name {
				z.remove(c)
				return c
			}
		}
	}
	t.Fatalf("no %s left to take", name)
	return cards.Hidden
}

func act(t *testing.T, g *Game, seat int, kind protocol.Kind, args ...protocol.Arg) {
	t.Helper()
	if err := g.Handle(seat, protocol.MustAction(kind, args...)); err != nil {
		t.Fatalf("%s from seat %d: %v", kind, seat, err)
	}
}

func card(c cards.Card) protocol.Arg { return protocol.CardArg(c) }

func snapshot(t *testing.T, g *Game) []byte {
	t.Helper()
	data, err := Marshal(g)
	require.NoError(t, err)
	return data
}

func expectAwait(t *testing.T, g *Game, seat int, kind protocol.Kind) {
	t.Helper()
	if g.ActivePlayerIndex != seat || g.ExpectedAction != kind {
		t.Fatalf("waiting on %s from seat %d, want %s from seat %d",
			g.ExpectedAction, g.ActivePlayerIndex, kind, seat)
	}
	require.NotNil(t, g.CurrentFrame)
	assert.Equal(t, kind, g.CurrentFrame.Expect)
}

func TestAddPlayer(t *testing.T) {
	g := NewGame(7, "alice", 1)
	require.NoError(t, g.AddPlayer(1, "alice"))

	err := g.AddPlayer(1, "alice")
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)

	for i := 2; i <= MaxPlayers; i++ {
		require.NoError(t, g.AddPlayer(i, string(rune('a'+i))))
	}
	err = g.AddPlayer(99, "late")
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	g := NewGame(1, "alice", 1)
	require.NoError(t, g.AddPlayer(1, "alice"))
	assert.ErrorIs(t, g.Start(), protocol.ErrIllegalTiming)

	require.NoError(t, g.AddPlayer(2, "bob"))
	require.NoError(t, g.Start())
	assert.ErrorIs(t, g.Start(), protocol.ErrIllegalTiming)
	assert.ErrorIs(t, g.AddPlayer(3, "carol"), protocol.ErrIllegalTiming)
}

func TestStartDeals(t *testing.T) {
	g := NewGame(1, "alice", 99)
	for i, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, g.AddPlayer(i+1, name))
	}
	require.NoError(t, g.Start())

	assert.Equal(t, 1, g.TurnNumber)
	assert.GreaterOrEqual(t, len(g.Pool), 3)
	assert.Len(t, g.Jacks, cards.JackCount-3)
	assert.Len(t, g.InTownSites, 3*len(cards.Materials()))
	assert.Len(t, g.OutOfTownSites, 3*len(cards.Materials()))
	for _, p := range g.Players {
		assert.Len(t, p.Hand, 6)
		assert.Equal(t, 1, p.Hand.Count(cards.JackName))
	}
	expectAwait(t, g, g.LeaderIndex, protocol.ThinkerOrLead)

	total := len(g.Library) + len(g.Pool) + len(g.Jacks)
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	assert.Equal(t, cards.DeckSize(), total)
}

func TestStartIsReproducible(t *testing.T) {
	start := func() *Game {
		g := NewGame(1, "alice", 1234)
		require.NoError(t, g.AddPlayer(1, "alice"))
		require.NoError(t, g.AddPlayer(2, "bob"))
		require.NoError(t, g.Start())
		return g
	}
	a, b := start(), start()
	assert.Equal(t, a.ComputeChecksum(), b.ComputeChecksum())
	assert.Equal(t, a.LeaderIndex, b.LeaderIndex)
}

func TestLeadFollowTurnCycle(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice, bob := g.Players[0], g.Players[1]

	bar := take(t, g, "Bar")
	insula := take(t, g, "Insula")
	road := take(t, g, "Road")
	alice.Hand = append(alice.Hand, bar)
	bob.Hand = append(bob.Hand, insula)
	g.Pool = append(g.Pool, road)

	expectAwait(t, g, 0, protocol.ThinkerOrLead)
	act(t, g, 0, protocol.ThinkerOrLead, protocol.Bool(false))
	expectAwait(t, g, 0, protocol.LeadRole)
	assert.Equal(t, "awaiting_thinker_or_lead", g.State().String())

	act(t, g, 0, protocol.LeadRole, protocol.Text("Laborer"), protocol.Int(1), card(bar))
	expectAwait(t, g, 1, protocol.FollowRole)
	assert.Equal(t, cards.Laborer, g.RoleLed)
	assert.True(t, alice.Camp.Contains(bar))

	act(t, g, 1, protocol.FollowRole, protocol.Int(1), card(insula))
	expectAwait(t, g, 0, protocol.Laborer)
	assert.Equal(t, "awaiting_role_response(laborer)", g.State().String())

	act(t, g, 0, protocol.Laborer, card(road))
	assert.True(t, alice.Stockpile.Contains(road))
	expectAwait(t, g, 1, protocol.Laborer)

	act(t, g, 1, protocol.Laborer)
	expectAwait(t, g, 1, protocol.ThinkerOrLead)
	assert.Equal(t, 2, g.TurnNumber)
	assert.Equal(t, 1, g.LeaderIndex)
	assert.True(t, g.Pool.Contains(bar))
	assert.True(t, g.Pool.Contains(insula))
	assert.Empty(t, alice.Camp)
	assert.Equal(t, cards.RoleNone, g.RoleLed)
	assert.Contains(t, g.GameLog, "Turn 2: bob")
}

func TestRejectedActionsLeaveGameUnchanged(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice := g.Players[0]
	alice.Hand = append(alice.Hand, take(t, g, "Bar"))
	act(t, g, 0, protocol.ThinkerOrLead, protocol.Bool(false))

	notInHand := take(t, g, "Dock")
	before := snapshot(t, g)

	tests := []struct {
		name   string
		seat   int
		action protocol.Action
		want   error
	}{
		{"card not in hand", 0, protocol.MustAction(protocol.LeadRole, protocol.Text("Craftsman"), protocol.Int(1), card(notInHand)), protocol.ErrIllegalTarget},
		{"wrong player", 1, protocol.MustAction(protocol.LeadRole, protocol.Text("Laborer"), protocol.Int(1), card(alice.Hand[0])), protocol.ErrWrongPlayer},
		{"wrong kind", 0, protocol.MustAction(protocol.Laborer), protocol.ErrWrongKind},
		{"palace needed", 0, protocol.MustAction(protocol.LeadRole, protocol.Text("Laborer"), protocol.Int(2), card(alice.Hand[0])), protocol.ErrIllegalTarget},
		{"unknown role", 0, protocol.MustAction(protocol.LeadRole, protocol.Text("Jester"), protocol.Int(1), card(alice.Hand[0])), protocol.ErrIllegalTarget},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Handle(tc.seat, tc.action)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, protocol.ClassRules, protocol.ClassOf(err))
			assert.Equal(t, string(before), string(snapshot(t, g)))
		})
	}
}

func TestActionsBeforeStart(t *testing.T) {
	g := NewGame(1, "alice", 1)
	require.NoError(t, g.AddPlayer(1, "alice"))
	err := g.Handle(0, protocol.MustAction(protocol.ThinkerOrLead, protocol.Bool(true)))
	assert.ErrorIs(t, err, protocol.ErrIllegalTiming)
}

// leadAndThink has alice lead role with c while bob thinks for a Jack.
func leadAndThink(t *testing.T, g *Game, role string, c cards.Card) {
	t.Helper()
	act(t, g, 0, protocol.ThinkerOrLead, protocol.Bool(false))
	act(t, g, 0, protocol.LeadRole, protocol.Text(role), protocol.Int(1), card(c))
	act(t, g, 1, protocol.FollowRole, protocol.Int(0))
	expectAwait(t, g, 1, protocol.ThinkerType)
	act(t, g, 1, protocol.ThinkerType, protocol.Bool(true))
}

func TestLegionaryAsksOtherPlayer(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice, bob := g.Players[0], g.Players[1]

	atrium := take(t, g, "Atrium")
	insula := take(t, g, "Insula")
	bar := take(t, g, "Bar")
	latrine := take(t, g, "Latrine")
	alice.Hand = append(alice.Hand, atrium, insula)
	bob.Hand = append(bob.Hand, bar)
	g.Pool = append(g.Pool, latrine)

	leadAndThink(t, g, "Legionary", atrium)
	expectAwait(t, g, 0, protocol.Legionary)
	assert.Equal(t, 1, g.LegionaryCount)

	act(t, g, 0, protocol.Legionary, card(insula))
	expectAwait(t, g, 0, protocol.TakePoolCards)

	act(t, g, 0, protocol.TakePoolCards, card(latrine))
	assert.True(t, alice.Stockpile.Contains(latrine))
	expectAwait(t, g, 1, protocol.GiveCards)

	before := snapshot(t, g)
	err := g.Handle(1, protocol.MustAction(protocol.GiveCards))
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
	assert.Equal(t, string(before), string(snapshot(t, g)))
	alice, bob = g.Players[0], g.Players[1]

	act(t, g, 1, protocol.GiveCards, card(bar))
	assert.True(t, alice.Stockpile.Contains(bar))
	assert.False(t, bob.Hand.Contains(bar))
	assert.Equal(t, 2, g.TurnNumber)
	assert.Equal(t, NoIndex, g.LegionaryPlayerIndex)
}

func TestLegionaryRejectsUndemandedPoolCards(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice := g.Players[0]

	atrium := take(t, g, "Atrium")
	insula := take(t, g, "Insula")
	dock := take(t, g, "Dock")
	alice.Hand = append(alice.Hand, atrium, insula)
	g.Pool = append(g.Pool, dock)

	leadAndThink(t, g, "Legionary", atrium)
	act(t, g, 0, protocol.Legionary, card(insula))

	err := g.Handle(0, protocol.MustAction(protocol.TakePoolCards, card(dock)))
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
}

func TestOutOfTownNeedsChain(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice := g.Players[0]

	market := take(t, g, "Market")
	palisade := take(t, g, "Palisade")
	alice.Hand = append(alice.Hand, market, palisade)
	g.InTownSites = []cards.Material{cards.Stone}

	leadAndThink(t, g, "Craftsman", market)
	expectAwait(t, g, 0, protocol.Craftsman)
	assert.False(t, g.OOTAllowed)

	before := snapshot(t, g)
	err := g.Handle(0, protocol.MustAction(protocol.Craftsman, card(palisade), protocol.None(), protocol.Text("Wood")))
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
	assert.Equal(t, string(before), string(snapshot(t, g)))
}

func TestOutOfTownChainConsumesNextAction(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice := g.Players[0]

	market := take(t, g, "Market")
	palisade := take(t, g, "Palisade")
	alice.Hand = append(alice.Hand, market, palisade)
	alice.Clientele = append(alice.Clientele, take(t, g, "Dock"))
	g.InTownSites = []cards.Material{cards.Stone}
	ootWood := 0
	for _, m := range g.OutOfTownSites {
		if m == cards.Wood {
			ootWood++
		}
	}

	leadAndThink(t, g, "Craftsman", market)
	expectAwait(t, g, 0, protocol.Craftsman)
	assert.True(t, g.OOTAllowed)

	act(t, g, 0, protocol.Craftsman, card(palisade), protocol.None(), protocol.Text("Wood"))

	// The client action was spent on the out of town start.
	assert.Equal(t, 2, g.TurnNumber)
	require.Len(t, alice.Buildings, 1)
	assert.Equal(t, "Palisade", alice.Buildings[0].Name())
	assert.Equal(t, cards.Wood, alice.Buildings[0].Site)
	assert.Equal(t, []cards.Material{cards.Stone}, g.InTownSites)

	left := 0
	for _, m := range g.OutOfTownSites {
		if m == cards.Wood {
			left++
		}
	}
	assert.Equal(t, ootWood-1, left)
}

func TestPrisonCompletion(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice, bob := g.Players[0], g.Players[1]

	market := take(t, g, "Market")
	villa := take(t, g, "Villa")
	alice.Hand = append(alice.Hand, market, villa)
	prison := &Building{
		Foundation:        take(t, g, "Prison"),
		Site:              cards.Stone,
		Materials:         Zone{take(t, g, "Garden"), take(t, g, "Sewer")},
		StairwayMaterials: Zone{},
	}
	alice.Buildings = append(alice.Buildings, prison)
	bar := &Building{
		Foundation:        take(t, g, "Bar"),
		Site:              cards.Rubble,
		Materials:         Zone{take(t, g, "Road")},
		StairwayMaterials: Zone{},
		Complete:          true,
	}
	bob.Buildings = append(bob.Buildings, bar)
	bob.Influence = append(bob.Influence, cards.Rubble)

	leadAndThink(t, g, "Craftsman", market)
	act(t, g, 0, protocol.Craftsman, card(prison.Foundation), card(villa), protocol.None())
	assert.True(t, prison.Complete)
	assert.Equal(t, []cards.Material{cards.Stone}, alice.Influence)
	expectAwait(t, g, 0, protocol.Prison)

	err := g.Handle(0, protocol.MustAction(protocol.Prison, card(prison.Foundation)))
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
	alice, bob = g.Players[0], g.Players[1]

	act(t, g, 0, protocol.Prison, card(bar.Foundation))
	assert.True(t, alice.OwnsBuilding(bar.Foundation))
	assert.False(t, bob.OwnsBuilding(bar.Foundation))
	assert.Empty(t, alice.Influence)
	assert.Equal(t, []cards.Material{cards.Rubble, cards.Stone}, bob.Influence)
	assert.Equal(t, 2, g.TurnNumber)
}

func TestSewerKeepsCampCards(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	alice := g.Players[0]

	bar := take(t, g, "Bar")
	alice.Hand = append(alice.Hand, bar)
	alice.Buildings = append(alice.Buildings, &Building{
		Foundation:        take(t, g, "Sewer"),
		Site:              cards.Stone,
		Materials:         Zone{take(t, g, "Villa"), take(t, g, "Garden"), take(t, g, "Prison")},
		StairwayMaterials: Zone{},
		Complete:          true,
	})

	leadAndThink(t, g, "Laborer", bar)
	act(t, g, 0, protocol.Laborer)
	expectAwait(t, g, 0, protocol.UseSewer)

	act(t, g, 0, protocol.UseSewer, card(bar))
	assert.True(t, alice.Stockpile.Contains(bar))
	assert.False(t, g.Pool.Contains(bar))
	assert.Equal(t, 2, g.TurnNumber)
}

func TestLastCardEndsGame(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	g.Library = g.Library[:1]

	act(t, g, 0, protocol.ThinkerOrLead, protocol.Bool(true))
	expectAwait(t, g, 0, protocol.ThinkerType)
	last := g.ActionNumber
	act(t, g, 0, protocol.ThinkerType, protocol.Bool(false))

	assert.True(t, g.Finished())
	assert.Equal(t, last+1, g.ActionNumber, "the final action advances the number")
	assert.Equal(t, "game_finished", g.State().String())
	assert.Equal(t, protocol.KindNone, g.ExpectedAction)
	assert.Len(t, g.Players[0].Hand, 1)
	assert.Equal(t, []string{"alice"}, g.Winners)

	err := g.Handle(0, protocol.MustAction(protocol.ThinkerOrLead, protocol.Bool(true)))
	assert.ErrorIs(t, err, protocol.ErrIllegalTiming)
}

func TestJackFromEmptyPile(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	g.Jacks = Zone{}
	act(t, g, 0, protocol.ThinkerOrLead, protocol.Bool(true))

	err := g.Handle(0, protocol.MustAction(protocol.ThinkerType, protocol.Bool(true)))
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
	expectAwait(t, g, 0, protocol.ThinkerType)
}

func TestPrivatize(t *testing.T) {
	g := NewGame(1, "alice", 5)
	require.NoError(t, g.AddPlayer(1, "alice"))
	require.NoError(t, g.AddPlayer(2, "bob"))
	require.NoError(t, g.Start())
	bob := g.Players[1]
	bob.Vault = append(bob.Vault, take(t, g, "Villa"))
	fc := take(t, g, "Temple")
	bob.FountainCard = &fc

	view := g.Privatize("alice")
	assert.Zero(t, view.Seed, "the seed would reveal the deal")
	assert.Equal(t, int64(5), g.Seed)
	assert.Equal(t, g.Players[0].Hand, view.Players[0].Hand)
	for _, c := range view.Library {
		assert.Equal(t, cards.Hidden, c)
	}
	assert.Len(t, view.Library, len(g.Library))

	vb := view.Players[1]
	assert.Len(t, vb.Hand, len(bob.Hand))
	assert.Equal(t, bob.Hand.Count(cards.JackName), vb.Hand.Count(cards.JackName))
	assert.Equal(t, cards.JackName, vb.Hand[0].Name())
	for _, c := range vb.Hand[1:] {
		assert.Equal(t, cards.Hidden, c)
	}
	assert.Equal(t, Zone{cards.Hidden}, vb.Vault)
	require.NotNil(t, vb.FountainCard)
	assert.Equal(t, cards.Hidden, *vb.FountainCard)

	// The source game is untouched.
	assert.Equal(t, fc, *bob.FountainCard)
	assert.NotEqual(t, cards.Hidden, g.Library[0])
}

func TestPrivatizeFinishedGameHidesNothing(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	g.Players[1].Hand = append(g.Players[1].Hand, take(t, g, "Villa"))
	g.Winners = []string{"bob"}

	view := g.Privatize("alice")
	assert.Equal(t, g.Players[1].Hand, view.Players[1].Hand)
	assert.Equal(t, g.Library, view.Library)
	assert.Equal(t, g.Seed, view.Seed)
}

func TestEngineFaultIsLoggedAndRolledBack(t *testing.T) {
	g := newTestGame(t, "alice", "bob")
	core, logs := observer.New(zap.InfoLevel)
	g.SetLogger(zap.New(core))
	g.Stack = nil
	before := g.ActionNumber

	err := g.Handle(g.ActivePlayerIndex, protocol.MustAction(protocol.ThinkerOrLead, protocol.Bool(true)))
	require.ErrorIs(t, err, protocol.ErrEngineFault)
	assert.Equal(t, before, g.ActionNumber)
	assert.Nil(t, g.Stack, "restored from the backup")

	entries := logs.FilterMessage("engine fault").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(before), fields["action_number"])
	assert.Equal(t, int64(g.ActivePlayerIndex), fields["seat"])
}
