package game

import (
	"testing"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame(3, "alice", 77)
	require.NoError(t, g.AddPlayer(1, "alice"))
	require.NoError(t, g.AddPlayer(2, "bob"))
	require.NoError(t, g.Start())
	return g
}

// TestChecksumSurvivesJSON verifies that encoding and decoding a game keeps
// every field the checksum covers.
func TestChecksumSurvivesJSON(t *testing.T) {
	g := startedGame(t)
	act(t, g, g.LeaderIndex, protocol.ThinkerOrLead, protocol.Bool(false))
	g.Players[0].Buildings = append(g.Players[0].Buildings, &Building{
		Foundation:        take(t, g, "Statue"),
		Site:              cards.Brick,
		Materials:         Zone{take(t, g, "Academy")},
		StairwayMaterials: Zone{},
	})
	fc := take(t, g, "Temple")
	g.Players[1].FountainCard = &fc

	data, err := Marshal(g)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, g.ComputeChecksum(), decoded.ComputeChecksum())
	assert.True(t, decoded.VerifyChecksum(g.ComputeChecksum()))

	again, err := Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

// TestChecksumDetectsChanges verifies that play-relevant edits change the
// checksum while the log does not.
func TestChecksumDetectsChanges(t *testing.T) {
	g := startedGame(t)
	sum := g.ComputeChecksum()
	assert.Len(t, sum.Hash, 64)
	assert.Equal(t, ChecksumVersion, sum.Version)

	logged := g.Clone()
	logged.logf("something happened")
	assert.Equal(t, sum, logged.ComputeChecksum())

	moved := g.Clone()
	moved.Pool = append(moved.Pool, moved.Library[0])
	moved.Library = moved.Library[1:]
	assert.NotEqual(t, sum, moved.ComputeChecksum())

	turned := g.Clone()
	turned.TurnNumber++
	assert.False(t, turned.VerifyChecksum(sum))

	stale := sum
	stale.Version++
	assert.False(t, g.VerifyChecksum(stale))
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{"))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"players":[null]}`))
	assert.Error(t, err)

	g, err := Unmarshal([]byte(`{"game_id":4}`))
	require.NoError(t, err)
	assert.NotNil(t, g.Stack)
	assert.Equal(t, int64(4), g.ID)
}

func TestCloneIsDeep(t *testing.T) {
	g := startedGame(t)
	cp := g.Clone()

	cp.Players[0].Hand = append(cp.Players[0].Hand, cp.Library[0])
	cp.Library[0] = cards.Hidden
	require.NoError(t, cp.Stack.Push(cp.Stack.List()[0]))

	assert.NotEqual(t, len(g.Players[0].Hand), len(cp.Players[0].Hand))
	assert.NotEqual(t, cards.Hidden, g.Library[0])
	assert.NotEqual(t, g.Stack.Len(), cp.Stack.Len())
}
