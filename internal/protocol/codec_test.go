package protocol

import (
	"errors"
	"strconv"
	"testing"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(t *testing.T, name string) cards.Card {
	t.Helper()
	c, ok := cards.ByName(name)
	require.True(t, ok, "card %s", name)
	return c
}

// sampleArgs builds a valid argument list for any catalog entry.
func sampleArgs(t *testing.T, sig Signature) []Arg {
	t.Helper()
	value := func(ty ArgType, i int) Arg {
		switch ty {
		case TypeBool:
			return Bool(i%2 == 0)
		case TypeInt:
			return Int(i + 1)
		case TypeText:
			return Text("Rubble")
		default:
			return CardArg(cards.Card(cards.JackCount + i))
		}
	}
	args := make([]Arg, 0, len(sig.Required)+2)
	for i, sl := range sig.Required {
		args = append(args, value(sl.Type, i))
	}
	if sig.Tail != nil {
		args = append(args, value(sig.Tail.Type, 7), None(), value(sig.Tail.Type, 9))
	}
	return args
}

func TestRoundTripEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		sig, ok := Lookup(k)
		require.True(t, ok)
		t.Run(sig.Name, func(t *testing.T) {
			a, err := NewAction(k, sampleArgs(t, sig)...)
			require.NoError(t, err)

			decoded, err := Decode(Encode(a))
			require.NoError(t, err)
			assert.True(t, a.Equal(decoded), "want %s got %s", a, decoded)
			assert.Equal(t, Encode(a), Encode(decoded))
		})
	}
}

func TestEncodeIsCanonical(t *testing.T) {
	a := MustAction(LeadRole, Text("Laborer"), Int(1), CardArg(card(t, "Insula")))
	assert.Equal(t, `{"kind":20,"args":["Laborer",1,`+strconv.Itoa(int(card(t, "Insula")))+`]}`, string(Encode(a)))
	assert.Equal(t, Hash(a), Hash(MustAction(LeadRole, Text("Laborer"), Int(1), CardArg(card(t, "Insula")))))
	assert.NotEqual(t, Hash(a), Hash(MustAction(LeadRole, Text("Laborer"), Int(1))))
}

func TestDecodeAcceptsLegacyForms(t *testing.T) {
	insula := card(t, "Insula")

	a, err := Decode([]byte(`{"action": 15, "args": ["Insula", null]}`))
	require.NoError(t, err)
	assert.Equal(t, Laborer, a.Kind())
	c, ok := a.Card(0)
	require.True(t, ok)
	assert.Equal(t, insula, c)
	assert.True(t, a.Arg(1).IsNone())

	b, err := Decode([]byte(`[0, true]`))
	require.NoError(t, err)
	assert.Equal(t, ThinkerOrLead, b.Kind())
	assert.True(t, b.Bool(0))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code Code
		slot int
	}{
		{"not json", `{"kind":`, CodeMalformedMessage, -1},
		{"scalar", `12`, CodeMalformedMessage, -1},
		{"missing kind", `{"args":[]}`, CodeMalformedMessage, -1},
		{"empty list", `[]`, CodeMalformedMessage, -1},
		{"unknown kind", `{"kind":99,"args":[]}`, CodeUnknownActionKind, -1},
		{"negative kind", `{"kind":-1,"args":[]}`, CodeUnknownActionKind, -1},
		{"too few", `{"kind":18,"args":[null,null]}`, CodeArityMismatch, -1},
		{"too many", `{"kind":0,"args":[true,false]}`, CodeArityMismatch, -1},
		{"tail missing required", `{"kind":20,"args":["Laborer"]}`, CodeArityMismatch, -1},
		{"bool as int", `{"kind":0,"args":[1]}`, CodeTypeMismatch, 0},
		{"bool as string", `{"kind":0,"args":["true"]}`, CodeTypeMismatch, 0},
		{"int as float", `{"kind":21,"args":[1.5]}`, CodeTypeMismatch, 0},
		{"int as string", `{"kind":21,"args":["1"]}`, CodeTypeMismatch, 0},
		{"text as int", `{"kind":20,"args":[3,1]}`, CodeTypeMismatch, 0},
		{"unknown card name", `{"kind":15,"args":["Quarry"]}`, CodeTypeMismatch, 0},
		{"card out of range", `{"kind":15,"args":[100000]}`, CodeTypeMismatch, 0},
		{"negative card", `{"kind":15,"args":[4, -1]}`, CodeTypeMismatch, 1},
		{"tail type", `{"kind":19,"args":[false, true]}`, CodeTypeMismatch, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.in))
			require.Error(t, err)
			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.code, perr.Code)
			assert.Equal(t, tc.slot, perr.Slot)
		})
	}
}

func TestNewActionValidates(t *testing.T) {
	_, err := NewAction(Kind(42))
	assert.ErrorIs(t, err, ErrUnknownActionKind)

	_, err = NewAction(Craftsman, None())
	assert.ErrorIs(t, err, ErrArityMismatch)

	_, err = NewAction(ThinkerOrLead, Int(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, ClassValidation, ClassOf(err))

	_, err = NewAction(Craftsman, None(), None(), None())
	assert.NoError(t, err)

	// JSON cannot carry invalid UTF-8 unchanged.
	_, err = NewAction(Login, Text("\xff\xfe"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Slot)

	a := MustAction(Login, Text("héllo"))
	back, err := Decode(Encode(a))
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestActionIsImmutable(t *testing.T) {
	args := []Arg{Text("Patron"), Int(1)}
	a, err := NewAction(LeadRole, args...)
	require.NoError(t, err)

	args[0] = Text("Merchant")
	got := a.Args()
	got[1] = Int(3)

	assert.Equal(t, "Patron", a.Text(0))
	assert.Equal(t, 1, a.Int(1))
}

func TestActionAccessors(t *testing.T) {
	dock := card(t, "Dock")
	a := MustAction(Merchant, Bool(true), None(), CardArg(dock))

	assert.True(t, a.Bool(0))
	assert.Equal(t, []cards.Card{dock}, a.Cards(1))
	_, ok := a.Card(5)
	assert.False(t, ok)
	assert.Equal(t, "merchant(true, none, Dock(", a.String()[:len("merchant(true, none, Dock(")])
}
