package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRoundTrip(t *testing.T) {
	c := GameCommand(7, 3, MustAction(ThinkerOrLead, Bool(false)))

	data := EncodeCommand(c)
	assert.JSONEq(t, `{"game":7,"number":3,"action":{"kind":0,"args":[false]}}`, string(data))

	back, err := DecodeCommand(data)
	require.NoError(t, err)
	require.NotNil(t, back.Game)
	require.NotNil(t, back.Number)
	assert.Equal(t, int64(7), *back.Game)
	assert.Equal(t, 3, *back.Number)
	assert.True(t, c.Action.Equal(back.Action))
}

func TestCommandJSONInterfaces(t *testing.T) {
	var c Command
	require.NoError(t, json.Unmarshal([]byte(`{"game":null,"number":null,"action":{"kind":32,"args":[]}}`), &c))
	assert.Nil(t, c.Game)
	assert.Equal(t, ReqGameList, c.Action.Kind())

	err := json.Unmarshal([]byte(`{"game":1,"number":0,"action":{"kind":0,"args":[0]}}`), &c)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestDecodeBatch(t *testing.T) {
	batch, err := DecodeBatch([]byte(`[
		{"game":4,"number":10,"action":{"kind":0,"args":[false]}},
		{"game":4,"number":11,"action":{"kind":20,"args":["Laborer",1,null]}},
		{"game":4,"number":12,"action":{"kind":15,"args":[]}}
	]`))
	require.NoError(t, err)
	require.Len(t, batch, 3)

	lo, hi, ok := NumberRange(batch)
	require.True(t, ok)
	assert.Equal(t, 10, lo)
	assert.Equal(t, 12, hi)
}

func TestDecodeBatchSingleObject(t *testing.T) {
	batch, err := DecodeBatch([]byte(`{"game":null,"number":null,"action":{"kind":27,"args":[]}}`))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	_, _, ok := NumberRange(batch)
	assert.False(t, ok)
}

func TestDecodeBatchOrdering(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"different games", `[
			{"game":1,"number":1,"action":{"kind":0,"args":[true]}},
			{"game":2,"number":2,"action":{"kind":0,"args":[true]}}]`},
		{"game and lobby", `[
			{"game":1,"number":1,"action":{"kind":0,"args":[true]}},
			{"game":null,"number":2,"action":{"kind":0,"args":[true]}}]`},
		{"gap", `[
			{"game":1,"number":1,"action":{"kind":0,"args":[true]}},
			{"game":1,"number":3,"action":{"kind":0,"args":[true]}}]`},
		{"repeat", `[
			{"game":1,"number":1,"action":{"kind":0,"args":[true]}},
			{"game":1,"number":1,"action":{"kind":0,"args":[true]}}]`},
		{"mixed numbering", `[
			{"game":1,"number":1,"action":{"kind":0,"args":[true]}},
			{"game":1,"number":null,"action":{"kind":0,"args":[true]}}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tc.in))
			assert.ErrorIs(t, err, ErrBatchOrdering)
			assert.Equal(t, ClassProtocol, ClassOf(err))
		})
	}
}

func TestDecodeBatchMalformed(t *testing.T) {
	for _, in := range []string{``, `[]`, `[1,2]`, `{"game":1}`, `nope`} {
		_, err := DecodeBatch([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedMessage, "input %q", in)
	}
}

func TestErrorMatching(t *testing.T) {
	err := Errorf(CodeIllegalTarget, "card %s not in hand", "Dock")
	assert.ErrorIs(t, err, ErrIllegalTarget)
	assert.NotErrorIs(t, err, ErrWrongPlayer)
	assert.Equal(t, ClassRules, ClassOf(err))
	assert.Equal(t, CodeIllegalTarget, CodeOf(err))
	assert.Contains(t, err.Error(), "RulesError")
	assert.Equal(t, Class(""), ClassOf(assert.AnError))
}
