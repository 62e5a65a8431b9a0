package rules

import (
	"fmt"
	"strings"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// FrameKind names the work a frame performs when it is popped.
type FrameKind int

const (
	FrameTakeTurn FrameKind = iota
	FrameAwait
	FrameThinker
	FrameRoleBeingLed
	FrameClienteleAction
	FrameRoleAction
	FramePatronAction
	FrameKidsInPool
	FrameDoKidsInPool
	FrameDoSenate
	FrameEndTurn
	FrameDoEndTurn
	FrameAdvanceTurn
)

var frameKindNames = map[FrameKind]string{
	FrameTakeTurn:        "take_turn",
	FrameAwait:           "await",
	FrameThinker:         "thinker",
	FrameRoleBeingLed:    "role_being_led",
	FrameClienteleAction: "clientele_action",
	FrameRoleAction:      "role_action",
	FramePatronAction:    "patron_action",
	FrameKidsInPool:      "kids_in_pool",
	FrameDoKidsInPool:    "do_kids_in_pool",
	FrameDoSenate:        "do_senate",
	FrameEndTurn:         "end_turn",
	FrameDoEndTurn:       "do_end_turn",
	FrameAdvanceTurn:     "advance_turn",
}

func (k FrameKind) String() string {
	if name, ok := frameKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FRAME_%d", int(k))
}

func (k FrameKind) MarshalText() ([]byte, error) {
	if _, ok := frameKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown frame kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *FrameKind) UnmarshalText(text []byte) error {
	for kind, name := range frameKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown frame kind %q", string(text))
}

// Phase is the coarse state of a game as seen from outside the engine.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingThinkerOrLead
	PhaseAwaitingFollow
	PhaseAwaitingRoleResponse
	PhaseAwaitingSubaction
	PhaseTurnComplete
	PhaseGameFinished
)

var phaseNames = map[Phase]string{
	PhaseNotStarted:            "not_started",
	PhaseAwaitingThinkerOrLead: "awaiting_thinker_or_lead",
	PhaseAwaitingFollow:        "awaiting_follow",
	PhaseAwaitingRoleResponse:  "awaiting_role_response",
	PhaseAwaitingSubaction:     "awaiting_subaction",
	PhaseTurnComplete:          "turn_complete",
	PhaseGameFinished:          "game_finished",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// State is a Phase plus the role or action kind it is parameterized by.
type State struct {
	Phase  Phase
	Role   cards.Role
	Expect protocol.Kind
}

func (s State) String() string {
	switch s.Phase {
	case PhaseAwaitingRoleResponse:
		return fmt.Sprintf("%s(%s)", s.Phase, strings.ToLower(s.Role.String()))
	case PhaseAwaitingSubaction:
		return fmt.Sprintf("%s(%s)", s.Phase, s.Expect)
	}
	return s.Phase.String()
}

// roleResponses maps the first prompt of each role to that role.
var roleResponses = map[protocol.Kind]cards.Role{
	protocol.PatronFromPool: cards.Patron,
	protocol.Laborer:        cards.Laborer,
	protocol.Architect:      cards.Architect,
	protocol.Craftsman:      cards.Craftsman,
	protocol.UseFountain:    cards.Craftsman,
	protocol.Legionary:      cards.Legionary,
	protocol.Merchant:       cards.Merchant,
}

// StateFor derives the State from the lifecycle flags and the expected
// action.
func StateFor(started, finished bool, expect protocol.Kind) State {
	switch {
	case finished:
		return State{Phase: PhaseGameFinished, Expect: protocol.KindNone}
	case !started:
		return State{Phase: PhaseNotStarted, Expect: protocol.KindNone}
	}

	switch expect {
	case protocol.KindNone:
		return State{Phase: PhaseTurnComplete, Expect: expect}
	case protocol.ThinkerOrLead, protocol.LeadRole:
		return State{Phase: PhaseAwaitingThinkerOrLead, Expect: expect}
	case protocol.FollowRole:
		return State{Phase: PhaseAwaitingFollow, Expect: expect}
	}
	if role, ok := roleResponses[expect]; ok {
		return State{Phase: PhaseAwaitingRoleResponse, Role: role, Expect: expect}
	}
	return State{Phase: PhaseAwaitingSubaction, Expect: expect}
}
