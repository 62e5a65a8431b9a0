package protocol

import (
	"fmt"

	"github.com/cloaca/cloaca-server/internal/game/cards"
)

// ArgType is the declared type of a catalog slot.
type ArgType int

const (
	TypeBool ArgType = iota
	TypeInt
	TypeText
	TypeCard
)

var argTypeNames = map[ArgType]string{
	TypeBool: "bool",
	TypeInt:  "int",
	TypeText: "text",
	TypeCard: "card",
}

func (t ArgType) String() string {
	if name, ok := argTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE_%d", int(t))
}

// ArgKind is the variant held by an Arg.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgBool
	ArgInt
	ArgText
	ArgCard
)

// Arg is a single action argument: none, a bool, an int, a text or a card.
// The zero value is none. Args are comparable with ==.
type Arg struct {
	kind ArgKind
	b    bool
	i    int
	s    string
	c    cards.Card
}

func None() Arg { return Arg{} }

func Bool(v bool) Arg { return Arg{kind: ArgBool, b: v} }

func Int(v int) Arg { return Arg{kind: ArgInt, i: v} }

func Text(v string) Arg { return Arg{kind: ArgText, s: v} }

func CardArg(v cards.Card) Arg { return Arg{kind: ArgCard, c: v} }

func (a Arg) Kind() ArgKind { return a.kind }

func (a Arg) IsNone() bool { return a.kind == ArgNone }

// AsBool returns the bool value and whether the arg holds one.
func (a Arg) AsBool() (bool, bool) { return a.b, a.kind == ArgBool }

// AsInt returns the int value and whether the arg holds one.
func (a Arg) AsInt() (int, bool) { return a.i, a.kind == ArgInt }

// AsText returns the text value and whether the arg holds one.
func (a Arg) AsText() (string, bool) { return a.s, a.kind == ArgText }

// AsCard returns the card value and whether the arg holds one.
func (a Arg) AsCard() (cards.Card, bool) { return a.c, a.kind == ArgCard }

// accepts reports whether the arg may fill a slot of type t.
func (a Arg) accepts(t ArgType) bool {
	switch a.kind {
	case ArgNone:
		return true
	case ArgBool:
		return t == TypeBool
	case ArgInt:
		return t == TypeInt
	case ArgText:
		return t == TypeText
	case ArgCard:
		return t == TypeCard && a.c.Valid()
	}
	return false
}

// wire returns the JSON-ready value of the arg.
func (a Arg) wire() any {
	switch a.kind {
	case ArgBool:
		return a.b
	case ArgInt:
		return a.i
	case ArgText:
		return a.s
	case ArgCard:
		return int(a.c)
	}
	return nil
}

func (a Arg) String() string {
	switch a.kind {
	case ArgBool:
		return fmt.Sprintf("%t", a.b)
	case ArgInt:
		return fmt.Sprintf("%d", a.i)
	case ArgText:
		return fmt.Sprintf("%q", a.s)
	case ArgCard:
		return fmt.Sprintf("%s(%d)", a.c.Name(), int(a.c))
	}
	return "none"
}
