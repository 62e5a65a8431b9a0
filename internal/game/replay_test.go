package game

import (
	"errors"
	"testing"

	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// recordTurns plays n thinker turns and records each action.
func recordTurns(t *testing.T, g *Game, n int) []ReplayStep {
	t.Helper()
	var steps []ReplayStep
	play := func(kind protocol.Kind, arg protocol.Arg) {
		seat, number := g.ActivePlayerIndex, g.ActionNumber
		a := protocol.MustAction(kind, arg)
		require.NoError(t, g.Handle(seat, a))
		steps = append(steps, ReplayStep{Number: number, Seat: seat, Action: a, Checksum: g.ComputeChecksum().Hash})
	}
	for i := 0; i < n; i++ {
		play(protocol.ThinkerOrLead, protocol.Bool(true))
		play(protocol.ThinkerType, protocol.Bool(false))
	}
	return steps
}

func TestReplayReproducesGame(t *testing.T) {
	g := startedGame(t)
	start := g.Clone()
	before := start.ComputeChecksum()
	steps := recordTurns(t, g, 3)

	r := NewReplay(start, steps, zaptest.NewLogger(t))
	assert.Equal(t, 6, r.Size())
	final, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, g.ComputeChecksum(), final.ComputeChecksum())
	assert.Equal(t, before, start.ComputeChecksum(), "start is untouched")
}

func TestReplayFromMidGameSnapshot(t *testing.T) {
	g := startedGame(t)
	steps := recordTurns(t, g, 1)
	mid := g.Clone()
	steps = append(steps, recordTurns(t, g, 2)...)

	r := NewReplay(mid, steps, zaptest.NewLogger(t))
	assert.Equal(t, 4, r.Size(), "steps before the snapshot are skipped")
	final, err := r.Run()
	require.NoError(t, err)
	assert.True(t, final.VerifyChecksum(g.ComputeChecksum()))
}

func TestReplayNavigation(t *testing.T) {
	g := startedGame(t)
	start := g.Clone()
	steps := recordTurns(t, g, 2)
	r := NewReplay(start, steps, zaptest.NewLogger(t))
	n, err := r.Skip(3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, r.Position())

	require.NoError(t, r.Previous())
	assert.Equal(t, 2, r.Position())
	assert.Equal(t, steps[1].Checksum, r.State().ComputeChecksum().Hash)

	r.Start()
	assert.Equal(t, 0, r.Position())
	assert.Equal(t, start.ComputeChecksum(), r.State().ComputeChecksum())

	n, err = r.Skip(100)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	ok, err := r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplayDetectsTampering(t *testing.T) {
	g := startedGame(t)
	start := g.Clone()
	steps := recordTurns(t, g, 2)
	steps[2].Checksum = "deadbeef"

	core, logs := observer.New(zap.WarnLevel)
	_, err := NewReplay(start, steps, zap.New(core)).Run()
	var mismatch *ChecksumMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, steps[2].Number, mismatch.Number)

	entries := logs.FilterMessage("checksum mismatch").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(steps[2].Number), fields["number"])
	assert.Equal(t, "deadbeef", fields["recorded"])
	assert.Equal(t, start.ID, fields["game_id"])
}

func TestReplayDetectsMissingAction(t *testing.T) {
	g := startedGame(t)
	start := g.Clone()
	steps := recordTurns(t, g, 2)
	steps = append(steps[:1], steps[2:]...)

	// A nil logger is allowed.
	_, err := NewReplay(start, steps, nil).Run()
	assert.True(t, errors.Is(err, protocol.ErrSequenceGap))
}
