package protocol

import (
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
)

// Action is a validated, immutable game move.
type Action struct {
	kind Kind
	args []Arg
}

// NewAction validates args against the catalog and returns the action.
func NewAction(kind Kind, args ...Arg) (Action, error) {
	sig, ok := Lookup(kind)
	if !ok {
		return Action{}, Errorf(CodeUnknownActionKind, "unknown action kind %d", int(kind))
	}
	if err := sig.Check(args); err != nil {
		return Action{}, err
	}
	cp := make([]Arg, len(args))
	copy(cp, args)
	return Action{kind: kind, args: cp}, nil
}

// MustAction is NewAction for statically known actions. It panics on invalid
// input.
func MustAction(kind Kind, args ...Arg) Action {
	a, err := NewAction(kind, args...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Action) Kind() Kind { return a.kind }

// Len returns the number of args.
func (a Action) Len() int { return len(a.args) }

// Args returns a copy of the args.
func (a Action) Args() []Arg {
	cp := make([]Arg, len(a.args))
	copy(cp, a.args)
	return cp
}

// Arg returns arg i, or none when i is out of range.
func (a Action) Arg(i int) Arg {
	if i < 0 || i >= len(a.args) {
		return None()
	}
	return a.args[i]
}

// Bool returns arg i as a bool; none reads as false.
func (a Action) Bool(i int) bool {
	v, _ := a.Arg(i).AsBool()
	return v
}

// Int returns arg i as an int; none reads as 0.
func (a Action) Int(i int) int {
	v, _ := a.Arg(i).AsInt()
	return v
}

// Text returns arg i as text; none reads as "".
func (a Action) Text(i int) string {
	v, _ := a.Arg(i).AsText()
	return v
}

// Card returns arg i as a card and whether one was given.
func (a Action) Card(i int) (cards.Card, bool) {
	return a.Arg(i).AsCard()
}

// Cards returns the non-none card args from position start on.
func (a Action) Cards(start int) []cards.Card {
	var out []cards.Card
	for i := start; i < len(a.args); i++ {
		if c, ok := a.args[i].AsCard(); ok {
			out = append(out, c)
		}
	}
	return out
}

// Equal reports whether both actions have the same kind and args.
func (a Action) Equal(b Action) bool {
	if a.kind != b.kind || len(a.args) != len(b.args) {
		return false
	}
	for i := range a.args {
		if a.args[i] != b.args[i] {
			return false
		}
	}
	return true
}

func (a Action) String() string {
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.String()
	}
	return a.kind.String() + "(" + strings.Join(parts, ", ") + ")"
}
