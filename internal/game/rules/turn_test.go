package rules

import (
	"testing"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

func TestStateFor(t *testing.T) {
	tests := []struct {
		started  bool
		finished bool
		expect   protocol.Kind
		want     string
	}{
		{false, false, protocol.KindNone, "not_started"},
		{true, false, protocol.ThinkerOrLead, "awaiting_thinker_or_lead"},
		{true, false, protocol.LeadRole, "awaiting_thinker_or_lead"},
		{true, false, protocol.FollowRole, "awaiting_follow"},
		{true, false, protocol.Laborer, "awaiting_role_response(laborer)"},
		{true, false, protocol.PatronFromPool, "awaiting_role_response(patron)"},
		{true, false, protocol.UseFountain, "awaiting_role_response(craftsman)"},
		{true, false, protocol.GiveCards, "awaiting_subaction(givecards)"},
		{true, false, protocol.SkipThinker, "awaiting_subaction(skipthinker)"},
		{true, false, protocol.KindNone, "turn_complete"},
		{true, true, protocol.Merchant, "game_finished"},
	}

	for _, tc := range tests {
		got := StateFor(tc.started, tc.finished, tc.expect).String()
		if got != tc.want {
			t.Fatalf("StateFor(%t, %t, %s) = %s, want %s", tc.started, tc.finished, tc.expect, got, tc.want)
		}
	}
}

func TestStateForRoleResponse(t *testing.T) {
	st := StateFor(true, false, protocol.Legionary)
	if st.Phase != PhaseAwaitingRoleResponse || st.Role != cards.Legionary {
		t.Fatalf("expected legionary role response, got %+v", st)
	}
}

func TestFrameKindNames(t *testing.T) {
	for kind, name := range frameKindNames {
		text, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		var back FrameKind
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %s: %v", name, err)
		}
		if back != kind {
			t.Fatalf("expected %s, got %s", kind, back)
		}
	}
	if FrameKind(99).String() != "FRAME_99" {
		t.Fatalf("unexpected name for unknown kind: %s", FrameKind(99))
	}
}
