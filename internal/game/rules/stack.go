package rules

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloaca/cloaca-server/internal/game/cards"
	"github.com/cloaca/cloaca-server/internal/protocol"
)

// MaxDepth bounds the frame stack. Card effects never nest anywhere near this
// deep in a legal game.
const MaxDepth = 256

var (
	// ErrStackOverflow is returned when a push would exceed MaxDepth.
	ErrStackOverflow = errors.New("frame stack overflow")
	// ErrStackEmpty is returned when popping an empty stack.
	ErrStackEmpty = errors.New("frame stack empty")
)

// NoPlayer marks frames that are not bound to a player.
const NoPlayer = -1

// Frame is one pending unit of work on the stack.
type Frame struct {
	Kind   FrameKind     `json:"kind"`
	Player int           `json:"player"`
	Role   cards.Role    `json:"role,omitempty"`
	Expect protocol.Kind `json:"expect"`
}

func (f Frame) String() string {
	switch f.Kind {
	case FrameAwait:
		return fmt.Sprintf("%s(%s, p%d)", f.Kind, f.Expect, f.Player)
	case FrameClienteleAction, FrameRoleAction:
		return fmt.Sprintf("%s(p%d, %s)", f.Kind, f.Player, f.Role)
	}
	if f.Player == NoPlayer {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s(p%d)", f.Kind, f.Player)
}

// Frame constructors.

func TakeTurn(player int) Frame { return playerFrame(FrameTakeTurn, player) }

func Await(expect protocol.Kind, player int) Frame {
	return Frame{Kind: FrameAwait, Player: player, Expect: expect}
}

func Thinker(player int) Frame { return playerFrame(FrameThinker, player) }

func RoleBeingLed(player int) Frame { return playerFrame(FrameRoleBeingLed, player) }

func ClienteleAction(player int, role cards.Role) Frame {
	return Frame{Kind: FrameClienteleAction, Player: player, Role: role, Expect: protocol.KindNone}
}

func RoleAction(player int, role cards.Role) Frame {
	return Frame{Kind: FrameRoleAction, Player: player, Role: role, Expect: protocol.KindNone}
}

func PatronAction(player int) Frame { return playerFrame(FramePatronAction, player) }

func KidsInPool() Frame { return playerFrame(FrameKidsInPool, NoPlayer) }

func DoKidsInPool(player int) Frame { return playerFrame(FrameDoKidsInPool, player) }

func DoSenate(player int) Frame { return playerFrame(FrameDoSenate, player) }

func EndTurn() Frame { return playerFrame(FrameEndTurn, NoPlayer) }

func DoEndTurn(player int) Frame { return playerFrame(FrameDoEndTurn, player) }

func AdvanceTurn() Frame { return playerFrame(FrameAdvanceTurn, NoPlayer) }

func playerFrame(kind FrameKind, player int) Frame {
	return Frame{Kind: kind, Player: player, Expect: protocol.KindNone}
}

// Stack is the LIFO of pending frames. It is persisted with the game and is
// not safe for concurrent use; the owning session serializes access.
type Stack struct {
	frames []Frame
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{frames: make([]Frame, 0, 16)}
}

// Push adds a frame to the top of the stack.
func (s *Stack) Push(f Frame) error {
	if len(s.frames) >= MaxDepth {
		return fmt.Errorf("push %s: %w", f, ErrStackOverflow)
	}
	s.frames = append(s.frames, f)
	return nil
}

// Pop removes the top frame.
func (s *Stack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrStackEmpty
	}
	idx := len(s.frames) - 1
	f := s.frames[idx]
	s.frames = s.frames[:idx]
	return f, nil
}

// Peek returns the top frame without removing it.
func (s *Stack) Peek() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// At returns the frame at index i, where 0 is the bottom.
func (s *Stack) At(i int) (Frame, bool) {
	if i < 0 || i >= len(s.frames) {
		return Frame{}, false
	}
	return s.frames[i], true
}

// RemoveAt deletes the frame at index i, where 0 is the bottom.
func (s *Stack) RemoveAt(i int) (Frame, bool) {
	if i < 0 || i >= len(s.frames) {
		return Frame{}, false
	}
	f := s.frames[i]
	s.frames = append(s.frames[:i], s.frames[i+1:]...)
	return f, true
}

// List returns a copy of all frames, topmost last.
func (s *Stack) List() []Frame {
	cpy := make([]Frame, len(s.frames))
	copy(cpy, s.frames)
	return cpy
}

func (s *Stack) Len() int { return len(s.frames) }

func (s *Stack) IsEmpty() bool { return len(s.frames) == 0 }

// Clone returns an independent copy.
func (s *Stack) Clone() *Stack {
	return &Stack{frames: s.List()}
}

func (s *Stack) MarshalJSON() ([]byte, error) {
	if s.frames == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.frames)
}

func (s *Stack) UnmarshalJSON(data []byte) error {
	var frames []Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return fmt.Errorf("decode frame stack: %w", err)
	}
	if len(frames) > MaxDepth {
		return fmt.Errorf("decode frame stack: %d frames: %w", len(frames), ErrStackOverflow)
	}
	s.frames = frames
	return nil
}
