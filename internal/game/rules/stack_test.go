package rules

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack()

	if err := s.Push(TakeTurn(0)); err != nil {
		t.Fatalf("push take_turn: %v", err)
	}
	if err := s.Push(Await(protocol.ThinkerOrLead, 1)); err != nil {
		t.Fatalf("push await: %v", err)
	}

	f, err := s.Pop()
	if err != nil {
		t.Fatalf("unexpected error popping top: %v", err)
	}
	if f.Kind != FrameAwait || f.Expect != protocol.ThinkerOrLead || f.Player != 1 {
		t.Fatalf("expected LIFO order (await), got %s", f)
	}

	f, err = s.Pop()
	if err != nil {
		t.Fatalf("unexpected error popping second frame: %v", err)
	}
	if f.Kind != FrameTakeTurn {
		t.Fatalf("expected take_turn, got %s", f)
	}

	if !s.IsEmpty() {
		t.Fatalf("expected stack to be empty")
	}
	if _, err := s.Pop(); !errors.Is(err, ErrStackEmpty) {
		t.Fatalf("expected ErrStackEmpty, got %v", err)
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewStack()
	for i := 0; i < MaxDepth; i++ {
		if err := s.Push(RoleAction(0, cards.Laborer)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := s.Push(EndTurn()); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if s.Len() != MaxDepth {
		t.Fatalf("overflowing push must not grow the stack, len %d", s.Len())
	}
}

func TestStackRemoveAt(t *testing.T) {
	s := NewStack()
	_ = s.Push(EndTurn())
	_ = s.Push(RoleAction(1, cards.Legionary))
	_ = s.Push(ClienteleAction(1, cards.Merchant))

	f, ok := s.RemoveAt(1)
	if !ok {
		t.Fatalf("expected to remove existing frame")
	}
	if f.Kind != FrameRoleAction || f.Role != cards.Legionary {
		t.Fatalf("removed wrong frame %s", f)
	}

	top, _ := s.Peek()
	if top.Kind != FrameClienteleAction {
		t.Fatalf("expected clientele_action to remain on top, got %s", top)
	}
	if _, ok := s.RemoveAt(5); ok {
		t.Fatalf("expected out of range removal to fail")
	}
}

func TestStackJSON(t *testing.T) {
	s := NewStack()
	_ = s.Push(AdvanceTurn())
	_ = s.Push(ClienteleAction(2, cards.Architect))
	_ = s.Push(Await(protocol.FollowRole, 1))

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Stack
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want, got := s.List(), back.List()
	if len(want) != len(got) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("frame %d: want %s, got %s", i, want[i], got[i])
		}
	}

	var bad Stack
	if err := json.Unmarshal([]byte(`[{"kind":"teleport","player":0,"expect":-1}]`), &bad); err == nil {
		t.Fatalf("expected unknown frame kind to fail")
	}
}

func TestStackCloneIsIndependent(t *testing.T) {
	s := NewStack()
	_ = s.Push(KidsInPool())
	c := s.Clone()
	_ = c.Push(EndTurn())

	if s.Len() != 1 || c.Len() != 2 {
		t.Fatalf("clone shares storage: %d / %d", s.Len(), c.Len())
	}
}
