package game

import (
	"errors"
	"fmt"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"go.uber.org/zap"
)

// errGameOver unwinds the engine once winners are set. It never leaves the
// package.
var errGameOver = errors.New("game over")

func illegal(format string, args ...any) error {
	return protocol.Errorf(protocol.CodeIllegalTarget, format, args...)
}

func fault(format string, args ...any) error {
	return protocol.Errorf(protocol.CodeEngineFault, format, args...)
}

// Handle applies an action from the player in seat. On any error the game is
// left exactly as it was, though pointers into it taken before the call are
// stale. Reaching the end of the game is not an error; Finished reports it.
func (g *Game) Handle(seat int, a protocol.Action) error {
	if !g.Started() {
		return protocol.Errorf(protocol.CodeIllegalTiming, "game %d has not started", g.ID)
	}
	if g.Finished() {
		return protocol.Errorf(protocol.CodeIllegalTiming, "game %d is over", g.ID)
	}
	if seat != g.ActivePlayerIndex {
		return protocol.Errorf(protocol.CodeWrongPlayer, "waiting on seat %d, got action from seat %d", g.ActivePlayerIndex, seat)
	}
	if a.Kind() != g.ExpectedAction {
		return protocol.Errorf(protocol.CodeWrongKind, "expected %s, got %s", g.ExpectedAction, a.Kind())
	}

	backup := g.Clone()
	err := g.apply(a)
	if errors.Is(err, errGameOver) {
		g.log().Info("game over", zap.Strings("winners", g.Winners))
		return nil
	}
	if err != nil {
		*g = *backup
		if errors.Is(err, protocol.ErrEngineFault) {
			g.log().Error("engine fault",
				zap.Int("seat", seat),
				zap.Int("action_number", g.ActionNumber),
				zap.Stringer("action", a),
				zap.Error(err),
			)
		}
		return err
	}
	return nil
}

func (g *Game) apply(a protocol.Action) error {
	if g.Stack == nil {
		return fault("game %d has no frame stack", g.ID)
	}
	g.waiting = false
	if err := g.dispatch(a); err != nil {
		return err
	}
	return g.pump()
}

func (g *Game) dispatch(a protocol.Action) error {
	switch a.Kind() {
	case protocol.ThinkerOrLead:
		return g.handleThinkerOrLead(a)
	case protocol.UseLatrine:
		return g.handleUseLatrine(a)
	case protocol.UseVomitorium:
		return g.handleUseVomitorium(a)
	case protocol.ThinkerType:
		return g.handleThinkerType(a)
	case protocol.SkipThinker:
		return g.handleSkipThinker(a)
	case protocol.LeadRole:
		return g.handleLeadRole(a)
	case protocol.FollowRole:
		return g.handleFollowRole(a)
	case protocol.PatronFromPool:
		return g.handlePatronFromPool(a)
	case protocol.PatronFromDeck:
		return g.handlePatronFromDeck(a)
	case protocol.PatronFromHand:
		return g.handlePatronFromHand(a)
	case protocol.BarOrAqueduct:
		return g.handleBarOrAqueduct(a)
	case protocol.Laborer:
		return g.handleLaborer(a)
	case protocol.Merchant:
		return g.handleMerchant(a)
	case protocol.Craftsman:
		return g.handleCraftsman(a)
	case protocol.Architect:
		return g.handleArchitect(a)
	case protocol.UseFountain:
		return g.handleUseFountain(a)
	case protocol.Fountain:
		return g.handleFountain(a)
	case protocol.Stairway:
		return g.handleStairway(a)
	case protocol.Legionary:
		return g.handleLegionary(a)
	case protocol.GiveCards:
		return g.handleGiveCards(a)
	case protocol.TakePoolCards:
		return g.handleTakePoolCards(a)
	case protocol.TakeClients:
		return g.handleTakeClients(a)
	case protocol.UseSenate:
		return g.handleUseSenate(a)
	case protocol.UseSewer:
		return g.handleUseSewer(a)
	case protocol.Prison:
		return g.handlePrison(a)
	}
	return protocol.Errorf(protocol.CodeWrongKind, "%s is not a game action", a.Kind())
}

// await stops the engine until seat sends an action of kind.
func (g *Game) await(kind protocol.Kind, seat int) {
	f := rules.Await(kind, seat)
	g.CurrentFrame = &f
	g.ExpectedAction = kind
	g.ActivePlayerIndex = seat
	g.ActionNumber++
	g.waiting = true
}

func (g *Game) push(frames ...rules.Frame) error {
	for _, f := range frames {
		if err := g.Stack.Push(f); err != nil {
			return fault("game %d: %v", g.ID, err)
		}
	}
	return nil
}

// pump runs frames until one waits for input.
func (g *Game) pump() error {
	for !g.waiting {
		f, err := g.Stack.Pop()
		if err != nil {
			return fault("game %d: %v", g.ID, err)
		}
		g.CurrentFrame = &f
		if err := g.run(f); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) run(f rules.Frame) error {
	if f.Player != rules.NoPlayer && g.player(f.Player) == nil {
		return fault("frame %s names missing seat", f)
	}
	switch f.Kind {
	case rules.FrameTakeTurn:
		return g.takeTurn(f.Player)
	case rules.FrameAwait:
		g.await(f.Expect, f.Player)
		return nil
	case rules.FrameThinker:
		return g.thinker(f.Player)
	case rules.FrameRoleBeingLed:
		return g.roleBeingLed(f.Player)
	case rules.FrameClienteleAction:
		return g.clienteleAction(f.Player, f.Role)
	case rules.FrameRoleAction:
		return g.roleAction(f.Player, f.Role)
	case rules.FramePatronAction:
		return g.patronAction(f.Player)
	case rules.FrameKidsInPool:
		return g.kidsInPool()
	case rules.FrameDoKidsInPool:
		return g.doKidsInPool(f.Player)
	case rules.FrameDoSenate:
		return g.doSenate(f.Player)
	case rules.FrameEndTurn:
		return g.endTurn()
	case rules.FrameDoEndTurn:
		return g.doEndTurn(f.Player)
	case rules.FrameAdvanceTurn:
		return g.advanceTurn()
	}
	return fault("unknown frame %s", f)
}

func (g *Game) takeTurn(seat int) error {
	return g.push(
		rules.AdvanceTurn(),
		rules.EndTurn(),
		rules.KidsInPool(),
		rules.Await(protocol.ThinkerOrLead, seat),
	)
}

func (g *Game) advanceTurn() error {
	g.TurnNumber++
	g.LeaderIndex = (g.LeaderIndex + 1) % len(g.Players)
	g.logf("Turn %d: %s", g.TurnNumber, g.Leader().Name)
	return g.push(rules.TakeTurn(g.LeaderIndex))
}

// turnOrder returns seats in turn order starting at start.
func (g *Game) turnOrder(start int) []int {
	n := len(g.Players)
	out := make([]int, n)
	for i := range out {
		out[i] = (start + i) % n
	}
	return out
}

// followers returns the seats after the leader in turn order.
func (g *Game) followers() []int {
	return g.turnOrder(g.LeaderIndex)[1:]
}

func reversed(seats []int) []int {
	out := make([]int, len(seats))
	for i, s := range seats {
		out[len(seats)-1-i] = s
	}
	return out
}

func (g *Game) drawCards(n int) []cards.Card {
	if n > len(g.Library) {
		n = len(g.Library)
	}
	drawn := append([]cards.Card{}, g.Library[:n]...)
	g.Library = g.Library[n:]
	return drawn
}

func (g *Game) drawJack() (cards.Card, error) {
	if len(g.Jacks) == 0 {
		return cards.Hidden, fault("game %d: jack pile is empty", g.ID)
	}
	c := g.Jacks[len(g.Jacks)-1]
	g.Jacks = g.Jacks[:len(g.Jacks)-1]
	return c, nil
}

// discard sends a card from hand to the jack pile or the pool.
func (g *Game) discard(p *Player, c cards.Card) bool {
	if c.IsJack() {
		return moveCard(c, &p.Hand, &g.Jacks)
	}
	return moveCard(c, &p.Hand, &g.Pool)
}

func (g *Game) checkLibraryEmpty() error {
	if len(g.Library) == 0 {
		g.logf("The last Orders card has been drawn from the deck. Game Over.")
		return g.endGame()
	}
	return nil
}

func (g *Game) logf(format string, args ...any) {
	g.GameLog = append(g.GameLog, fmt.Sprintf(format, args...))
}

// DrainLog returns the log lines produced since the last drain.
func (g *Game) DrainLog() []string {
	lines := g.GameLog
	g.GameLog = []string{}
	return lines
}
