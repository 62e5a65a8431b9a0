package game

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
)

// Zone is an ordered pile of cards. Cards are compared by ident.
type Zone []cards.Card

// MarshalJSON writes an empty zone as [] rather than null.
func (z Zone) MarshalJSON() ([]byte, error) {
	if z == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]cards.Card(z))
}

// Contains reports whether c is in the zone.
func (z Zone) Contains(c cards.Card) bool {
	return z.index(c) >= 0
}

// ContainsAll reports whether every card in cs is in the zone. A card listed
// twice must be present twice, which never holds for real idents.
func (z Zone) ContainsAll(cs []cards.Card) bool {
	have := make(map[cards.Card]int, len(z))
	for _, c := range z {
		have[c]++
	}
	for _, c := range cs {
		if have[c] == 0 {
			return false
		}
		have[c]--
	}
	return true
}

func (z Zone) index(c cards.Card) int {
	for i, have := range z {
		if have == c {
			return i
		}
	}
	return -1
}

// Count returns the number of cards with the given name.
func (z Zone) Count(name string) int {
	n := 0
	for _, c := range z {
		if strings.EqualFold(c.Name(), name) {
			n++
		}
	}
	return n
}

// HasJack reports whether the zone holds a Jack.
func (z Zone) HasJack() bool {
	for _, c := range z {
		if c.IsJack() {
			return true
		}
	}
	return false
}

// Materials counts the cards of each material.
func (z Zone) Materials() map[cards.Material]int {
	out := make(map[cards.Material]int)
	for _, c := range z {
		out[c.Material()]++
	}
	return out
}

func (z Zone) clone() Zone {
	if z == nil {
		return Zone{}
	}
	out := make(Zone, len(z))
	copy(out, z)
	return out
}

// sorted returns a copy ordered with Jacks first, then by name.
func (z Zone) sorted() Zone {
	out := z.clone()
	sort.SliceStable(out, func(i, j int) bool { return cards.Less(out[i], out[j]) })
	return out
}

// remove takes c out of the zone and reports whether it was there.
func (z *Zone) remove(c cards.Card) bool {
	i := z.index(c)
	if i < 0 {
		return false
	}
	*z = append((*z)[:i], (*z)[i+1:]...)
	return true
}

// moveCard moves c from one zone to another and reports whether c was found.
func moveCard(c cards.Card, from, to *Zone) bool {
	if !from.remove(c) {
		return false
	}
	*to = append(*to, c)
	return true
}

func joinNames(cs []cards.Card) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return strings.Join(names, ", ")
}

// distinct reports whether cs lists no ident twice.
func distinct(cs []cards.Card) bool {
	seen := make(map[cards.Card]bool, len(cs))
	for _, c := range cs {
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}
