package protocol

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/cloaca/cloaca-server/internal/game/cards"
)

var nullLiteral = []byte("null")

// Encode returns the canonical encoding {"kind":K,"args":[...]}. The same
// action always encodes to the same bytes.
func Encode(a Action) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"kind":`)
	buf.WriteString(strconv.Itoa(int(a.kind)))
	buf.WriteString(`,"args":[`)
	for i, arg := range a.args {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Marshal of bool, int, string or nil cannot fail.
		b, _ := json.Marshal(arg.wire())
		buf.Write(b)
	}
	buf.WriteString("]}")
	return buf.Bytes()
}

// Hash returns the hex SHA-256 of the canonical encoding.
func Hash(a Action) string {
	sum := sha256.Sum256(Encode(a))
	return hex.EncodeToString(sum[:])
}

// MarshalJSON implements json.Marshaler with the canonical encoding.
func (a Action) MarshalJSON() ([]byte, error) {
	return Encode(a), nil
}

// UnmarshalJSON implements json.Unmarshaler with full validation.
func (a *Action) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

type wireAction struct {
	Kind   json.RawMessage   `json:"kind"`
	Action json.RawMessage   `json:"action"`
	Args   []json.RawMessage `json:"args"`
}

// Decode parses and validates an action. It accepts the canonical object
// form, the object form keyed by "action", and the compact list form
// [kind, arg...].
func Decode(data []byte) (Action, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Action{}, Errorf(CodeMalformedMessage, "empty action")
	}

	var rawKind json.RawMessage
	var rawArgs []json.RawMessage

	switch data[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return Action{}, Wrap(CodeMalformedMessage, err, "action list")
		}
		if len(list) == 0 {
			return Action{}, Errorf(CodeMalformedMessage, "action list has no kind")
		}
		rawKind, rawArgs = list[0], list[1:]
	case '{':
		var w wireAction
		if err := json.Unmarshal(data, &w); err != nil {
			return Action{}, Wrap(CodeMalformedMessage, err, "action object")
		}
		rawKind = w.Kind
		if rawKind == nil {
			rawKind = w.Action
		}
		rawArgs = w.Args
	default:
		return Action{}, Errorf(CodeMalformedMessage, "action must be an object or a list")
	}

	if rawKind == nil || bytes.Equal(bytes.TrimSpace(rawKind), nullLiteral) {
		return Action{}, Errorf(CodeMalformedMessage, "action kind missing")
	}
	var k int
	if err := json.Unmarshal(rawKind, &k); err != nil {
		return Action{}, Wrap(CodeMalformedMessage, err, "action kind")
	}

	sig, ok := Lookup(Kind(k))
	if !ok {
		return Action{}, Errorf(CodeUnknownActionKind, "unknown action kind %d", k)
	}
	if err := sig.checkArity(len(rawArgs)); err != nil {
		return Action{}, err
	}

	args := make([]Arg, len(rawArgs))
	for i, raw := range rawArgs {
		sl, _ := sig.slotAt(i)
		arg, err := decodeArg(raw, sl, i, sig.Name)
		if err != nil {
			return Action{}, err
		}
		args[i] = arg
	}
	return Action{kind: Kind(k), args: args}, nil
}

func decodeArg(raw json.RawMessage, sl Slot, i int, kindName string) (Arg, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullLiteral) {
		return None(), nil
	}

	mismatch := func() error {
		return slotError(i, "%s arg %d (%s) must be %s, got %s", kindName, i, sl.Name, sl.Type, string(raw))
	}

	switch sl.Type {
	case TypeBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return Arg{}, mismatch()
		}
		return Bool(v), nil

	case TypeInt:
		var v int
		if raw[0] == '"' || json.Unmarshal(raw, &v) != nil {
			return Arg{}, mismatch()
		}
		return Int(v), nil

	case TypeText:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return Arg{}, mismatch()
		}
		return Text(v), nil

	case TypeCard:
		if raw[0] == '"' {
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return Arg{}, mismatch()
			}
			c, ok := cards.ByName(name)
			if !ok {
				return Arg{}, slotError(i, "%s arg %d (%s): unknown card %q", kindName, i, sl.Name, name)
			}
			return CardArg(c), nil
		}
		var ident int
		if err := json.Unmarshal(raw, &ident); err != nil {
			return Arg{}, mismatch()
		}
		c := cards.Card(ident)
		if !c.Valid() {
			return Arg{}, slotError(i, "%s arg %d (%s): card %d out of range", kindName, i, sl.Name, ident)
		}
		return CardArg(c), nil
	}
	return Arg{}, mismatch()
}
