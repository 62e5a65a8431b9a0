package rules

import (
	"testing"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPetitionCombosThreeCard(t *testing.T) {
	tests := []struct {
		n, on int
		off   []int
		want  bool
	}{
		{1, 1, nil, true},
		{1, 3, nil, true},
		{3, 3, nil, true},
		{2, 3, nil, false},
		{1, 2, nil, false},
		{2, 2, nil, true},
		{1, 0, []int{3}, true},
		{2, 1, []int{3}, true},
		{1, 0, []int{2}, false},
		{1, 0, []int{1}, false},
		{2, 0, []int{3, 3}, true},
		{2, 0, []int{6}, true},
		{0, 0, nil, true},
		{3, 5, nil, true},
	}
	for _, tc := range tests {
		got := CheckPetitionCombos(tc.n, tc.on, tc.off, false, true)
		assert.Equal(t, tc.want, got, "n=%d on=%d off=%v", tc.n, tc.on, tc.off)
	}
}

func TestCheckPetitionCombosCircus(t *testing.T) {
	assert.True(t, CheckPetitionCombos(1, 2, nil, true, true))
	assert.True(t, CheckPetitionCombos(1, 0, []int{2}, true, true))
	assert.True(t, CheckPetitionCombos(2, 0, []int{5}, true, true))
	assert.False(t, CheckPetitionCombos(3, 0, []int{5}, true, true))
	assert.False(t, CheckPetitionCombos(1, 0, []int{1}, true, true))
	assert.True(t, CheckPetitionCombos(2, 0, []int{4}, true, false))
	assert.False(t, CheckPetitionCombos(1, 0, []int{3}, true, false))
	assert.True(t, CheckPetitionCombos(2, 2, nil, false, false))
	assert.False(t, CheckPetitionCombos(1, 0, []int{3}, false, false))
}

func named(t *testing.T, names ...string) []cards.Card {
	t.Helper()
	var out []cards.Card
	used := map[cards.Card]bool{}
	for _, name := range names {
		found := false
		for _, c := range cards.Copies(name) {
			if !used[c] {
				used[c] = true
				out = append(out, c)
				found = true
				break
			}
		}
		require.True(t, found, "no copy left of %s", name)
	}
	return out
}

func TestCheckActionUnits(t *testing.T) {
	// Insula and Road are Rubble (Laborer); Dock and Circus are Wood (Craftsman).
	require.NoError(t, CheckActionUnits(cards.Laborer, 1, named(t, "Insula"), false, false))
	require.NoError(t, CheckActionUnits(cards.Laborer, 1, named(t, "Jack"), false, false))
	require.NoError(t, CheckActionUnits(cards.Laborer, 1, named(t, "Dock", "Dock", "Circus"), false, false))
	require.NoError(t, CheckActionUnits(cards.Laborer, 2, named(t, "Insula", "Jack"), true, false))
	require.NoError(t, CheckActionUnits(cards.Laborer, 1, named(t, "Dock", "Circus"), false, true))

	err := CheckActionUnits(cards.Laborer, 1, named(t, "Dock"), false, false)
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)

	err = CheckActionUnits(cards.Laborer, 2, named(t, "Insula", "Road"), false, false)
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)

	err = CheckActionUnits(cards.Laborer, 1, named(t, "Jack", "Jack"), true, false)
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)

	err = CheckActionUnits(cards.Laborer, 0, nil, true, false)
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)

	err = CheckActionUnits(cards.Laborer, 1, nil, false, false)
	assert.ErrorIs(t, err, protocol.ErrIllegalTarget)
}
