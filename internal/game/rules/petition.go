package rules

import (
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// CheckPetitionCombos reports whether nActions action units can be formed
// from nOn cards of the led role and the off-role groups in nOff (one entry
// per other role). On-role cards act alone or in petitions; off-role cards
// only in petitions. twoCard and threeCard select the allowed petition sizes.
// Jacks are not counted here.
func CheckPetitionCombos(nActions, nOn int, nOff []int, twoCard, threeCard bool) bool {
	off := make([]int, 0, len(nOff))
	for _, n := range nOff {
		if n < 0 || n == 1 {
			return false
		}
		if n != 0 {
			off = append(off, n)
		}
	}
	if nOn < 0 || nActions < 0 {
		return false
	}

	switch {
	case !twoCard && !threeCard:
		return len(off) == 0 && nActions == nOn

	case twoCard && !threeCard:
		offActions := 0
		for _, n := range off {
			if n%2 != 0 {
				return false
			}
			offActions += n / 2
		}
		return (nOn+1)/2+offActions <= nActions && nActions <= nOn+offActions

	case !twoCard && threeCard:
		offActions := 0
		for _, n := range off {
			if n%3 != 0 {
				return false
			}
			offActions += n / 3
		}
		onMin := nOn/3 + nOn%3
		if nActions < offActions+onMin || nActions > nOn+offActions {
			return false
		}
		return (nActions-offActions-onMin)%2 == 0

	default:
		offMin, offMax := 0, 0
		for _, n := range off {
			offMin += (n + 2) / 3
			offMax += n / 2
		}
		return offMin+(nOn+2)/3 <= nActions && nActions <= nOn+offMax
	}
}

// CheckActionUnits validates the cards played to lead or follow led for n
// actions. Jacks stand for one action each; the rest must form singles of the
// led role or petitions. palace allows n > 1 and circus allows two-card
// petitions.
func CheckActionUnits(led cards.Role, n int, played []cards.Card, palace, circus bool) error {
	if n <= 0 {
		return protocol.Errorf(protocol.CodeIllegalTarget, "cannot play a role for %d actions", n)
	}
	if n > 1 && !palace {
		return protocol.Errorf(protocol.CodeIllegalTarget, "cannot play a role for %d actions without a Palace", n)
	}

	jacks := 0
	byRole := make(map[cards.Role]int)
	for _, c := range played {
		if c.IsJack() {
			jacks++
			continue
		}
		byRole[c.Role()]++
	}

	left := n - jacks
	off := make([]int, 0, len(cards.Roles()))
	for _, r := range cards.Roles() {
		if r != led {
			off = append(off, byRole[r])
		}
	}
	if left < 0 || !CheckPetitionCombos(left, byRole[led], off, circus, true) {
		return protocol.Errorf(protocol.CodeIllegalTarget,
			"cards %s cannot be played for %d %s actions", joinCards(played), n, led)
	}
	return nil
}

func joinCards(cs []cards.Card) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return "[" + strings.Join(names, ", ") + "]"
}
