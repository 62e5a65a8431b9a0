package cards

import (
	"fmt"
	"sort"
	"strings"
)

// Material is a building material. Sites in town and out of town are tracked
// by material only.
type Material int

const (
	MaterialNone Material = iota
	Brick
	Concrete
	Marble
	Rubble
	Stone
	Wood
)

var materialNames = map[Material]string{
	MaterialNone: "",
	Brick:        "Brick",
	Concrete:     "Concrete",
	Marble:       "Marble",
	Rubble:       "Rubble",
	Stone:        "Stone",
	Wood:         "Wood",
}

func (m Material) String() string {
	if name, ok := materialNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MATERIAL_%d", int(m))
}

// Value is the number of materials needed to complete a building on a site of
// this material, and the influence gained when it completes.
func (m Material) Value() int {
	switch m {
	case Rubble, Wood:
		return 1
	case Brick, Concrete:
		return 2
	case Marble, Stone:
		return 3
	default:
		return 0
	}
}

// Role returns the role associated with cards of this material.
func (m Material) Role() Role {
	switch m {
	case Rubble:
		return Laborer
	case Wood:
		return Craftsman
	case Concrete:
		return Architect
	case Brick:
		return Legionary
	case Stone:
		return Merchant
	case Marble:
		return Patron
	default:
		return RoleNone
	}
}

func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Material) UnmarshalText(text []byte) error {
	parsed, err := ParseMaterial(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMaterial converts a material name (case-insensitive) to a Material.
// The empty string parses as MaterialNone.
func ParseMaterial(s string) (Material, error) {
	for m, name := range materialNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return MaterialNone, fmt.Errorf("unknown material %q", s)
}

// Materials lists every material in a fixed order.
func Materials() []Material {
	return []Material{Brick, Concrete, Marble, Rubble, Stone, Wood}
}

// Role is one of the six roles a card can be played for.
type Role int

const (
	RoleNone Role = iota
	Patron
	Laborer
	Architect
	Craftsman
	Legionary
	Merchant
)

var roleNames = map[Role]string{
	RoleNone:  "",
	Patron:    "Patron",
	Laborer:   "Laborer",
	Architect: "Architect",
	Craftsman: "Craftsman",
	Legionary: "Legionary",
	Merchant:  "Merchant",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROLE_%d", int(r))
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole converts a role name (case-insensitive) to a Role. The empty
// string parses as RoleNone.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// Roles lists every role in a fixed order.
func Roles() []Role {
	return []Role{Patron, Laborer, Architect, Craftsman, Legionary, Merchant}
}

// Definition describes one Orders card.
type Definition struct {
	Name     string
	Material Material
	Count    int
	Text     string
}

// Role is the role a card of this definition can be played for.
func (d Definition) Role() Role { return d.Material.Role() }

// Value is the material value of the card.
func (d Definition) Value() int { return d.Material.Value() }

const (
	// JackName is the name of the wild role cards.
	JackName = "Jack"
	// HiddenName is the name shown for redacted cards.
	HiddenName = "Card"
	// JackCount is the number of Jacks in a game.
	JackCount = 6
)

var definitions = []Definition{
	{Name: "Academy", Material: Brick, Count: 3, Text: "May perform one THINKER action after turn during which you performed CRAFTSMAN"},
	{Name: "Amphitheatre", Material: Concrete, Count: 3, Text: "May perform one CRAFTSMAN action for each INFLUENCE"},
	{Name: "Aqueduct", Material: Concrete, Count: 3, Text: "When performing PATRON action may take client from HAND. Maximum CLIENTELE x 2"},
	{Name: "Archway", Material: Brick, Count: 3, Text: "When performing ARCHITECT action may take material from POOL"},
	{Name: "Atrium", Material: Brick, Count: 3, Text: "When performing MERCHANT action may take from DECK (do not look at card)"},
	{Name: "Bar", Material: Rubble, Count: 6, Text: "When performing PATRON action may take card from DECK"},
	{Name: "Basilica", Material: Marble, Count: 3, Text: "When performing MERCHANT action may take material from HAND"},
	{Name: "Bath", Material: Brick, Count: 3, Text: "When performing PATRON action each client you hire may perform its action once as it enters CLIENTELE"},
	{Name: "Bridge", Material: Concrete, Count: 3, Text: "When performing LEGIONARY action may take material from STOCKPILE. Ignore Palisades. May take from all opponents"},
	{Name: "Catacomb", Material: Stone, Count: 3, Text: "Game ends immediately. Score as usual"},
	{Name: "Circus", Material: Wood, Count: 6, Text: "May play two cards of same role as JACK"},
	{Name: "Circus Maximus", Material: Stone, Count: 3, Text: "Each client may perform its action twice when you lead or follow its role"},
	{Name: "Coliseum", Material: Stone, Count: 3, Text: "When performing LEGIONARY action may take opponent's client and place in VAULT as material"},
	{Name: "Dock", Material: Wood, Count: 6, Text: "When performing LABORER action may take material from HAND"},
	{Name: "Forum", Material: Marble, Count: 3, Text: "One client of each role wins game"},
	{Name: "Foundry", Material: Brick, Count: 3, Text: "May perform one LABORER action for each INFLUENCE"},
	{Name: "Fountain", Material: Marble, Count: 3, Text: "When performing CRAFTSMAN action may use cards from DECK. Retain any unused cards in HAND"},
	{Name: "Garden", Material: Stone, Count: 3, Text: "May perform one PATRON action for each INFLUENCE"},
	{Name: "Gate", Material: Brick, Count: 3, Text: "Incomplete MARBLE structures provide FUNCTION"},
	{Name: "Insula", Material: Rubble, Count: 6, Text: "Maximum CLIENTELE + 2"},
	{Name: "Latrine", Material: Rubble, Count: 6, Text: "Before performing THINKER action may discard one card to POOL"},
	{Name: "Ludus Magna", Material: Marble, Count: 3, Text: "Each MERCHANT client counts as any role"},
	{Name: "Market", Material: Wood, Count: 6, Text: "Maximum VAULT + 2"},
	{Name: "Palace", Material: Marble, Count: 3, Text: "May play multiple cards of same role in order to perform additional actions"},
	{Name: "Palisade", Material: Wood, Count: 6, Text: "Immune to LEGIONARY"},
	{Name: "Prison", Material: Stone, Count: 3, Text: "May exchange INFLUENCE for opponent's completed structure"},
	{Name: "Road", Material: Rubble, Count: 6, Text: "When adding to STONE structure may use any material"},
	{Name: "School", Material: Brick, Count: 3, Text: "May perform one THINKER action for each INFLUENCE"},
	{Name: "Scriptorium", Material: Stone, Count: 3, Text: "May use one MARBLE material to complete any structure"},
	{Name: "Senate", Material: Concrete, Count: 3, Text: "May take opponent's JACK into HAND at end of turn in which it is played"},
	{Name: "Sewer", Material: Stone, Count: 3, Text: "May place Orders cards used to lead or follow into STOCKPILE at end of turn"},
	{Name: "Shrine", Material: Brick, Count: 3, Text: "Maximum HAND + 2"},
	{Name: "Stairway", Material: Marble, Count: 3, Text: "When performing ARCHITECT action may add material to opponent's completed STRUCTURE to make function available to all players"},
	{Name: "Statue", Material: Marble, Count: 3, Text: "+ 3 VP. May place Statue on any SITE"},
	{Name: "Storeroom", Material: Concrete, Count: 3, Text: "All clients count as LABORERS"},
	{Name: "Temple", Material: Marble, Count: 3, Text: "Maximum HAND + 4"},
	{Name: "Tower", Material: Concrete, Count: 3, Text: "May use RUBBLE in any STRUCTURE. May lay foundation onto any out of town SITE at no extra cost"},
	{Name: "Villa", Material: Stone, Count: 3, Text: "When performing ARCHITECT action may complete Villa with one material"},
	{Name: "Vomitorium", Material: Concrete, Count: 3, Text: "Before performing THINKER action may discard all cards to POOL"},
	{Name: "Wall", Material: Concrete, Count: 3, Text: "Immune to LEGIONARY. + 1 VP for every two materials in STOCKPILE"},
}

var (
	byName = make(map[string]Definition, len(definitions))
	deck   []string
)

func init() {
	orders := make([]string, 0, 160)
	for _, def := range definitions {
		byName[strings.ToLower(def.Name)] = def
		for i := 0; i < def.Count; i++ {
			orders = append(orders, def.Name)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return strings.ToLower(orders[i]) < strings.ToLower(orders[j])
	})

	deck = make([]string, 0, JackCount+len(orders))
	for i := 0; i < JackCount; i++ {
		deck = append(deck, JackName)
	}
	deck = append(deck, orders...)
}

// Lookup returns the definition for an Orders card name.
func Lookup(name string) (Definition, bool) {
	def, ok := byName[strings.ToLower(name)]
	return def, ok
}

// Definitions returns a copy of the rules table.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// DeckSize is the number of cards in the game, Jacks included.
func DeckSize() int { return len(deck) }
