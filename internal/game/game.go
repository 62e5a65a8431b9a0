package game

import (
	"time"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/game/rules"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"go.uber.org/zap"
)

const (
	// MaxPlayers is the seat limit of a game.
	MaxPlayers = 5
	// MinPlayers is the number of players needed to start.
	MinPlayers = 2
	// NoIndex marks an unset player index.
	NoIndex = -1
)

// Building is a foundation on a site plus the materials added to it.
type Building struct {
	Foundation        cards.Card     `json:"foundation"`
	Site              cards.Material `json:"site"`
	Materials         Zone           `json:"materials"`
	StairwayMaterials Zone           `json:"stairway_materials"`
	Complete          bool           `json:"complete"`
}

// Name is the name of the foundation card.
func (b *Building) Name() string { return b.Foundation.Name() }

// ComposedOf reports whether m may be added to the building, ignoring the
// bonuses granted by other buildings.
func (b *Building) ComposedOf(m cards.Material) bool {
	return m == b.Site || m == b.Foundation.Material()
}

// Stairwayed reports whether a Stairway material was added.
func (b *Building) Stairwayed() bool { return len(b.StairwayMaterials) > 0 }

func (b *Building) clone() *Building {
	cp := *b
	cp.Materials = b.Materials.clone()
	cp.StairwayMaterials = b.StairwayMaterials.clone()
	return &cp
}

// Player holds every zone a player controls.
type Player struct {
	UID          int              `json:"uid"`
	Name         string           `json:"name"`
	Hand         Zone             `json:"hand"`
	Stockpile    Zone             `json:"stockpile"`
	Clientele    Zone             `json:"clientele"`
	Vault        Zone             `json:"vault"`
	Camp         Zone             `json:"camp"`
	Buildings    []*Building      `json:"buildings"`
	Influence    []cards.Material `json:"influence"`
	Revealed     Zone             `json:"revealed"`
	PrevRevealed Zone             `json:"prev_revealed"`
	ClientsGiven Zone             `json:"clients_given"`
	FountainCard *cards.Card      `json:"fountain_card"`

	NCampActions       int  `json:"n_camp_actions"`
	PerformedCraftsman bool `json:"performed_craftsman"`
}

func newPlayer(uid int, name string) *Player {
	return &Player{
		UID:          uid,
		Name:         name,
		Hand:         Zone{},
		Stockpile:    Zone{},
		Clientele:    Zone{},
		Vault:        Zone{},
		Camp:         Zone{},
		Buildings:    []*Building{},
		Influence:    []cards.Material{},
		Revealed:     Zone{},
		PrevRevealed: Zone{},
		ClientsGiven: Zone{},
	}
}

// InfluencePoints is 2 plus the value of every site in influence.
func (p *Player) InfluencePoints() int {
	n := 2
	for _, m := range p.Influence {
		n += m.Value()
	}
	return n
}

// Building returns the player's building of the same name as c.
func (p *Player) Building(c cards.Card) *Building {
	for _, b := range p.Buildings {
		if b.Foundation == c {
			return b
		}
	}
	for _, b := range p.Buildings {
		if b.Foundation.SameName(c) {
			return b
		}
	}
	return nil
}

// OwnsBuilding reports whether the player owns a building with the name of c,
// complete or not.
func (p *Player) OwnsBuilding(c cards.Card) bool {
	for _, b := range p.Buildings {
		if b.Foundation.SameName(c) {
			return true
		}
	}
	return false
}

// LeadingOrFollowing reports whether the player put cards in camp this turn.
func (p *Player) LeadingOrFollowing() bool { return len(p.Camp) > 0 }

func (p *Player) clone() *Player {
	cp := *p
	cp.Hand = p.Hand.clone()
	cp.Stockpile = p.Stockpile.clone()
	cp.Clientele = p.Clientele.clone()
	cp.Vault = p.Vault.clone()
	cp.Camp = p.Camp.clone()
	cp.Revealed = p.Revealed.clone()
	cp.PrevRevealed = p.PrevRevealed.clone()
	cp.ClientsGiven = p.ClientsGiven.clone()
	if p.Buildings != nil {
		cp.Buildings = make([]*Building, len(p.Buildings))
		for i, b := range p.Buildings {
			cp.Buildings[i] = b.clone()
		}
	}
	if p.Influence != nil {
		cp.Influence = append([]cards.Material{}, p.Influence...)
	}
	if p.FountainCard != nil {
		c := *p.FountainCard
		cp.FountainCard = &c
	}
	return &cp
}

// Game is the authoritative state of one game. It is not safe for concurrent
// use.
type Game struct {
	ID        int64     `json:"game_id"`
	Host      string    `json:"host"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	Players   []*Player `json:"players"`

	LeaderIndex       int           `json:"leader_index"`
	TurnNumber        int           `json:"turn_number"`
	RoleLed           cards.Role    `json:"role_led"`
	ActivePlayerIndex int           `json:"active_player_index"`
	ExpectedAction    protocol.Kind `json:"expected_action"`
	ActionNumber      int           `json:"action_number"`
	CurrentFrame      *rules.Frame  `json:"current_frame"`
	Stack             *rules.Stack  `json:"stack"`

	LegionaryCount       int `json:"legionary_count"`
	LegionaryPlayerIndex int `json:"legionary_player_index"`

	Jacks          Zone             `json:"jacks"`
	Library        Zone             `json:"library"`
	Pool           Zone             `json:"pool"`
	InTownSites    []cards.Material `json:"in_town_sites"`
	OutOfTownSites []cards.Material `json:"out_of_town_sites"`

	OOTAllowed bool `json:"oot_allowed"`
	UsedOOT    bool `json:"used_oot"`

	Winners []string `json:"winners"`
	GameLog []string `json:"game_log"`

	logger *zap.Logger

	// waiting is set once the engine has stopped for player input.
	waiting bool
}

// NewGame creates an unstarted game hosted by host. seed drives every random
// choice the game makes.
func NewGame(id int64, host string, seed int64) *Game {
	return &Game{
		ID:                   id,
		Host:                 host,
		Seed:                 seed,
		CreatedAt:            time.Now().UTC().Truncate(time.Second),
		Players:              []*Player{},
		LeaderIndex:          NoIndex,
		ActivePlayerIndex:    NoIndex,
		ExpectedAction:       protocol.KindNone,
		Stack:                rules.NewStack(),
		LegionaryPlayerIndex: NoIndex,
		Jacks:                Zone{},
		Library:              Zone{},
		Pool:                 Zone{},
		InTownSites:          []cards.Material{},
		OutOfTownSites:       []cards.Material{},
		Winners:              []string{},
		GameLog:              []string{},
	}
}

// SetLogger attaches a logger for engine faults, usually one already scoped
// to the game id. Games decode without one.
func (g *Game) SetLogger(logger *zap.Logger) { g.logger = logger }

func (g *Game) log() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

// Started reports whether the first turn has begun.
func (g *Game) Started() bool { return g.TurnNumber > 0 }

// Finished reports whether winners have been decided.
func (g *Game) Finished() bool { return len(g.Winners) > 0 }

// State derives the externally visible state from the current frame.
func (g *Game) State() rules.State {
	return rules.StateFor(g.Started(), g.Finished(), g.ExpectedAction)
}

// Leader returns the player leading this turn, or nil before start.
func (g *Game) Leader() *Player { return g.player(g.LeaderIndex) }

// ActivePlayer returns the player the game is waiting on, or nil.
func (g *Game) ActivePlayer() *Player { return g.player(g.ActivePlayerIndex) }

func (g *Game) player(i int) *Player {
	if i < 0 || i >= len(g.Players) {
		return nil
	}
	return g.Players[i]
}

// PlayerIndex returns the seat of the named player, or NoIndex.
func (g *Game) PlayerIndex(name string) int {
	for i, p := range g.Players {
		if p.Name == name {
			return i
		}
	}
	return NoIndex
}

// SeatOf returns the seat of the player with the user id, or NoIndex.
func (g *Game) SeatOf(uid int) int {
	for i, p := range g.Players {
		if p.UID == uid {
			return i
		}
	}
	return NoIndex
}

// AddPlayer seats a new player.
func (g *Game) AddPlayer(uid int, name string) error {
	if g.PlayerIndex(name) != NoIndex || g.SeatOf(uid) != NoIndex {
		return protocol.Errorf(protocol.CodeIllegalTarget, "%s has already joined game %d", name, g.ID)
	}
	if g.Started() {
		return protocol.Errorf(protocol.CodeIllegalTiming, "cannot join game %d after it started", g.ID)
	}
	if len(g.Players) >= MaxPlayers {
		return protocol.Errorf(protocol.CodeIllegalTarget, "game %d is full (%d/%d)", g.ID, len(g.Players), MaxPlayers)
	}
	g.Players = append(g.Players, newPlayer(uid, name))
	g.logf("%s has joined the game.", name)
	return nil
}

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	cp := *g
	if g.Players != nil {
		cp.Players = make([]*Player, len(g.Players))
		for i, p := range g.Players {
			cp.Players[i] = p.clone()
		}
	}
	if g.CurrentFrame != nil {
		f := *g.CurrentFrame
		cp.CurrentFrame = &f
	}
	if g.Stack != nil {
		cp.Stack = g.Stack.Clone()
	}
	cp.Jacks = g.Jacks.clone()
	cp.Library = g.Library.clone()
	cp.Pool = g.Pool.clone()
	if g.InTownSites != nil {
		cp.InTownSites = append([]cards.Material{}, g.InTownSites...)
	}
	if g.OutOfTownSites != nil {
		cp.OutOfTownSites = append([]cards.Material{}, g.OutOfTownSites...)
	}
	if g.Winners != nil {
		cp.Winners = append([]string{}, g.Winners...)
	}
	if g.GameLog != nil {
		cp.GameLog = append([]string{}, g.GameLog...)
	}
	return &cp
}
