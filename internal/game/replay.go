package game

import (
	"fmt"
	"sync"

	"github.com/cloaca/cloaca-server/internal/protocol"
	"go.uber.org/zap"
)

// ReplayStep is one recorded action and the checksum the game had after it.
type ReplayStep struct {
	Number   int
	Seat     int
	Action   protocol.Action
	Checksum string
}

// ChecksumMismatchError reports the first step whose result differs from the
// recorded checksum.
type ChecksumMismatchError struct {
	Number   int
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("action %d: checksum %s, recorded %s", e.Number, e.Actual, e.Expected)
}

// Replay steps through recorded actions from a starting snapshot. The
// starting game is never mutated.
type Replay struct {
	start   *Game
	steps   []ReplayStep
	current *Game
	index   int
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewReplay prepares a replay of steps on top of start. Steps numbered below
// the start's action number are skipped, so a snapshot taken mid-game can be
// combined with the full action record.
func NewReplay(start *Game, steps []ReplayStep, logger *zap.Logger) *Replay {
	if logger == nil {
		logger = zap.NewNop()
	}
	var pending []ReplayStep
	for _, s := range steps {
		if s.Number >= start.ActionNumber {
			pending = append(pending, s)
		}
	}
	r := &Replay{start: start, steps: pending, logger: logger.With(zap.Int64("game_id", start.ID))}
	r.current = r.fresh()
	return r
}

func (r *Replay) fresh() *Game {
	g := r.start.Clone()
	g.SetLogger(r.logger)
	return g
}

// Size returns the number of steps left to replay from the start.
func (r *Replay) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Position is the number of steps applied so far.
func (r *Replay) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Start rewinds to the starting snapshot.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = r.fresh()
	r.index = 0
}

// State returns a copy of the game at the current position.
func (r *Replay) State() *Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Clone()
}

// Next applies one step. It returns false once every step has been applied.
func (r *Replay) Next() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next()
}

func (r *Replay) next() (bool, error) {
	if r.index >= len(r.steps) {
		return false, nil
	}
	s := r.steps[r.index]
	if s.Number != r.current.ActionNumber {
		r.logger.Warn("gap in recorded actions", zap.Int("recorded", s.Number), zap.Int("action_number", r.current.ActionNumber))
		return false, protocol.Errorf(protocol.CodeSequenceGap,
			"recorded action %d does not follow action number %d", s.Number, r.current.ActionNumber)
	}
	if err := r.current.Handle(s.Seat, s.Action); err != nil {
		r.logger.Warn("recorded action rejected", zap.Int("number", s.Number), zap.Int("seat", s.Seat), zap.Error(err))
		return false, fmt.Errorf("action %d (%s): %w", s.Number, s.Action.Kind(), err)
	}
	r.index++
	if s.Checksum != "" {
		if got := r.current.ComputeChecksum().Hash; got != s.Checksum {
			r.logger.Error("checksum mismatch",
				zap.Int("number", s.Number),
				zap.String("recorded", s.Checksum),
				zap.String("replayed", got),
			)
			return false, &ChecksumMismatchError{Number: s.Number, Expected: s.Checksum, Actual: got}
		}
	}
	return true, nil
}

// Skip applies up to count steps and reports how many were applied.
func (r *Replay) Skip(count int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	applied := 0
	for applied < count {
		ok, err := r.next()
		if err != nil {
			return applied, err
		}
		if !ok {
			break
		}
		applied++
	}
	return applied, nil
}

// Previous steps back one action by replaying from the start.
func (r *Replay) Previous() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == 0 {
		return nil
	}
	target := r.index - 1
	r.current = r.fresh()
	r.index = 0
	for r.index < target {
		if _, err := r.next(); err != nil {
			return err
		}
	}
	return nil
}

// Run applies every remaining step and returns the final game.
func (r *Replay) Run() (*Game, error) {
	if _, err := r.Skip(r.Size()); err != nil {
		return nil, err
	}
	return r.State(), nil
}
