package cards

import "strings"

// Card identifies one physical card by its index in the standard deck.
// Duplicate cards have different idents. Negative idents are anonymous cards
// used when a zone is redacted.
type Card int

// Hidden is the anonymous card placed in redacted zones.
const Hidden Card = -1

// Valid reports whether the ident refers to a card in the deck.
func (c Card) Valid() bool { return c >= 0 && int(c) < len(deck) }

// Name returns the card name, "Jack" for Jacks and "Card" for hidden cards.
func (c Card) Name() string {
	if !c.Valid() {
		return HiddenName
	}
	return deck[c]
}

func (c Card) String() string { return c.Name() }

// IsJack reports whether the card is a Jack.
func (c Card) IsJack() bool { return c.Valid() && deck[c] == JackName }

// Definition returns the Orders card definition. Jacks and hidden cards have
// none.
func (c Card) Definition() (Definition, bool) {
	if !c.Valid() || c.IsJack() {
		return Definition{}, false
	}
	return Lookup(deck[c])
}

// Material returns the card material, MaterialNone for Jacks.
func (c Card) Material() Material {
	def, _ := c.Definition()
	return def.Material
}

// Role returns the role the card is played for, RoleNone for Jacks.
func (c Card) Role() Role { return c.Material().Role() }

// Value returns the material value, 0 for Jacks.
func (c Card) Value() int { return c.Material().Value() }

// SameName reports whether both cards carry the same name.
func (c Card) SameName(other Card) bool { return c.Name() == other.Name() }

// ByName returns the first card in the deck carrying the name.
func ByName(name string) (Card, bool) {
	for i, n := range deck {
		if strings.EqualFold(n, name) {
			return Card(i), true
		}
	}
	return Hidden, false
}

// Copies returns every card carrying the name, lowest ident first.
func Copies(name string) []Card {
	var out []Card
	for i, n := range deck {
		if strings.EqualFold(n, name) {
			out = append(out, Card(i))
		}
	}
	return out
}

// Jacks returns the Jack cards.
func Jacks() []Card {
	out := make([]Card, JackCount)
	for i := range out {
		out[i] = Card(i)
	}
	return out
}

// Orders returns every Orders card in deck order.
func Orders() []Card {
	out := make([]Card, 0, len(deck)-JackCount)
	for i := JackCount; i < len(deck); i++ {
		out = append(out, Card(i))
	}
	return out
}

// Less orders cards by name with Jacks first, then by ident.
func Less(a, b Card) bool {
	an, bn := strings.ToLower(a.Name()), strings.ToLower(b.Name())
	if an == bn {
		return a < b
	}
	if a.IsJack() {
		return true
	}
	if b.IsJack() {
		return false
	}
	return an < bn
}
