// Package session serializes access to games and persists and broadcasts the
// result of every accepted action.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloaca/cloaca-server/internal/auth"
	"github.com/cloaca/cloaca-server/internal/game"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/cloaca/cloaca-server/internal/repository"
	"go.uber.org/zap"
)

// DefaultLockTimeout bounds the wait for a game's lock.
const DefaultLockTimeout = time.Second

// MaxLogMessages caps a single log request.
const MaxLogMessages = 30

// Broadcaster delivers pushes to connected users. Delivery is best effort.
type Broadcaster interface {
	Send(userID int, c protocol.Command)
}

// Outcome summarizes an Apply call.
type Outcome struct {
	// Stale is set when every command in the batch was already applied.
	Stale bool
	// Applied counts the commands executed by this call.
	Applied      int
	ActionNumber int
	Finished     bool
}

// Options configure sessions created by a Registry.
type Options struct {
	LockTimeout time.Duration
	// SnapshotEvery archives a full snapshot each time the action number
	// crosses a multiple of it. Zero disables periodic snapshots.
	SnapshotEvery int
}

// Session owns one game id. Every mutation of the game goes through it.
type Session struct {
	id      int64
	lock    chan struct{}
	opts    Options
	store   repository.Store
	archive *repository.Archive
	out     Broadcaster
	logger  *zap.Logger
}

func newSession(id int64, opts Options, store repository.Store, archive *repository.Archive, out Broadcaster, logger *zap.Logger) *Session {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	return &Session{
		id:      id,
		lock:    make(chan struct{}, 1),
		opts:    opts,
		store:   store,
		archive: archive,
		out:     out,
		logger:  logger.With(zap.Int64("game_id", id)),
	}
}

// ID returns the game id.
func (s *Session) ID() int64 { return s.id }

func (s *Session) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.opts.LockTimeout)
	defer timer.Stop()
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-timer.C:
		return protocol.Errorf(protocol.CodeSessionBusy, "timed out waiting for game %d", s.id)
	case <-ctx.Done():
		return protocol.Wrap(protocol.CodeSessionBusy, ctx.Err(), fmt.Sprintf("waiting for game %d", s.id))
	}
}

func (s *Session) release() { <-s.lock }

func (s *Session) load(ctx context.Context) (*game.Game, error) {
	data, err := s.store.Load(ctx, s.id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, protocol.Errorf(protocol.CodeUnknownGame, "invalid game id %d", s.id)
	}
	if err != nil {
		return nil, err
	}
	g, err := game.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	g.SetLogger(s.logger)
	return g, nil
}

func (s *Session) seat(g *game.Game, user auth.Identity) (int, error) {
	seat := g.SeatOf(user.UserID)
	if seat == game.NoIndex {
		return seat, protocol.Errorf(protocol.CodeNotAParticipant, "user %s is not part of game %d", user.Name, s.id)
	}
	return seat, nil
}

type executed struct {
	number   int
	action   protocol.Action
	checksum string
}

// Apply runs a batch of numbered commands from user. Commands already applied
// are skipped. Processing stops at the first failing command; the commands
// before it are kept, persisted and broadcast, and the failure is returned
// with the outcome.
func (s *Session) Apply(ctx context.Context, user auth.Identity, batch []protocol.Command) (Outcome, error) {
	if err := protocol.CheckBatch(batch); err != nil {
		return Outcome{}, err
	}
	lo, hi, ok := protocol.NumberRange(batch)
	if !ok {
		return Outcome{}, protocol.Errorf(protocol.CodeBatchOrdering, "game actions need sequence numbers")
	}

	if err := s.acquire(ctx); err != nil {
		return Outcome{}, err
	}
	defer s.release()

	g, err := s.load(ctx)
	if err != nil {
		return Outcome{}, err
	}
	seat, err := s.seat(g, user)
	if err != nil {
		return Outcome{}, err
	}

	start := g.ActionNumber
	if hi < start {
		s.logger.Debug("stale batch", zap.Int("user_id", user.UserID), zap.Int("last", hi), zap.Int("action_number", start))
		return Outcome{Stale: true, ActionNumber: start, Finished: g.Finished()}, nil
	}
	if lo > start {
		return Outcome{ActionNumber: start}, protocol.Errorf(protocol.CodeSequenceGap,
			"received action number %d, but require %d", lo, start)
	}

	var done []executed
	var stop error
	for _, c := range batch {
		n := *c.Number
		if n < g.ActionNumber {
			s.logger.Debug("skipping applied action", zap.Int("number", n), zap.String("hash", protocol.Hash(c.Action)))
			continue
		}
		if n > g.ActionNumber {
			stop = protocol.Errorf(protocol.CodeSequenceGap, "received action number %d, but require %d", n, g.ActionNumber)
			break
		}
		if g.Finished() {
			stop = protocol.Errorf(protocol.CodeIllegalTiming, "game %d has finished", s.id)
			break
		}
		if g.ActivePlayerIndex != seat {
			stop = protocol.Errorf(protocol.CodeWrongPlayer, "received action for seat %d (%s), but waiting on seat %d",
				seat, user.Name, g.ActivePlayerIndex)
			break
		}
		if err := g.Handle(seat, c.Action); err != nil {
			stop = fmt.Errorf("action %d (%s): %w", n, c.Action, err)
			break
		}
		done = append(done, executed{number: n, action: c.Action, checksum: g.ComputeChecksum().Hash})
		if g.Finished() {
			s.logger.Info("game has ended", zap.Strings("winners", g.Winners))
		}
	}
	if stop != nil {
		s.logger.Warn("action rejected", zap.Int("user_id", user.UserID), zap.Error(stop))
	}

	out := Outcome{Applied: len(done), ActionNumber: g.ActionNumber, Finished: g.Finished()}
	if len(done) == 0 {
		return out, stop
	}
	if err := s.persist(ctx, g, user, seat, done); err != nil {
		return out, err
	}
	return out, stop
}

// persist saves the game, records the executed actions and log, and pushes
// the new state to every participant.
func (s *Session) persist(ctx context.Context, g *game.Game, user auth.Identity, seat int, done []executed) error {
	lines := g.DrainLog()
	data, err := game.Marshal(g)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.id, data); err != nil {
		return err
	}

	encoded := make([][]byte, len(done))
	for i, e := range done {
		encoded[i] = protocol.Encode(e.action)
	}
	if err := s.store.AppendActions(ctx, s.id, done[0].number, encoded); err != nil {
		// The game itself is saved; a missing action record only hurts replay.
		s.logger.Warn("failed to store actions", zap.Error(err))
	}
	total, err := s.store.AppendLog(ctx, s.id, lines)
	if err != nil {
		return err
	}
	s.archiveActions(g, user, seat, done, data)

	s.broadcast(g, lines, total)
	return nil
}

func (s *Session) archiveActions(g *game.Game, user auth.Identity, seat int, done []executed, data []byte) {
	if s.archive == nil {
		return
	}
	records := make([]repository.ActionRecord, len(done))
	for i, e := range done {
		records[i] = repository.ActionRecord{
			Number:   e.number,
			Seat:     seat,
			UserID:   user.UserID,
			Action:   string(protocol.Encode(e.action)),
			Hash:     protocol.Hash(e.action),
			Checksum: e.checksum,
		}
	}
	if err := s.archive.AppendActions(s.id, records); err != nil {
		s.logger.Warn("failed to archive actions", zap.Error(err))
	}

	every := s.opts.SnapshotEvery
	first := done[0].number
	crossed := every > 0 && g.ActionNumber/every > first/every
	if crossed || g.Finished() {
		s.snapshot(g.ActionNumber, data)
	}
}

func (s *Session) snapshot(n int, data []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.WriteSnapshot(s.id, n, data); err != nil {
		s.logger.Warn("failed to archive snapshot", zap.Int("action_number", n), zap.Error(err))
	}
}

func (s *Session) broadcast(g *game.Game, lines []string, total int) {
	if s.out == nil {
		return
	}
	id := s.id
	logPush := protocol.Push(&id, protocol.MustAction(protocol.GameLog,
		protocol.Int(total), protocol.Int(total-len(lines)), protocol.Text(strings.Join(lines, "\n"))))
	for _, p := range g.Players {
		view, err := game.Marshal(g.Privatize(p.Name))
		if err != nil {
			s.logger.Error("failed to encode view", zap.Int("user_id", p.UID), zap.Error(err))
			continue
		}
		s.out.Send(p.UID, protocol.Push(&id, protocol.MustAction(protocol.GameState, protocol.Text(string(view)))))
		if len(lines) > 0 {
			s.out.Send(p.UID, logPush)
		}
	}
}

// Snapshot returns the game as user may see it, or nil if it has not
// started.
func (s *Session) Snapshot(ctx context.Context, user auth.Identity) (*game.Game, error) {
	g, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.seat(g, user); err != nil {
		return nil, err
	}
	if !g.Started() {
		return nil, nil
	}
	return g.Privatize(user.Name), nil
}

// Join seats user in the game.
func (s *Session) Join(ctx context.Context, user auth.Identity) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := g.AddPlayer(user.UserID, user.Name); err != nil {
		return err
	}
	s.logger.Info("player joined", zap.Int("user_id", user.UserID), zap.String("name", user.Name))
	return s.save(ctx, g)
}

// Start deals the game. Only the host may start it.
func (s *Session) Start(ctx context.Context, user auth.Identity) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	g, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, err := s.seat(g, user); err != nil {
		return err
	}
	if g.Started() {
		return protocol.Errorf(protocol.CodeIllegalTiming, "game %d has already started", s.id)
	}
	if user.Name != g.Host {
		return protocol.Errorf(protocol.CodeIllegalTarget, "%s cannot start game %d; the host is %s", user.Name, s.id, g.Host)
	}
	if err := g.Start(); err != nil {
		return err
	}
	s.logger.Info("game started", zap.Int("players", len(g.Players)))

	lines := g.DrainLog()
	data, err := game.Marshal(g)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.id, data); err != nil {
		return err
	}
	total, err := s.store.AppendLog(ctx, s.id, lines)
	if err != nil {
		return err
	}
	s.snapshot(g.ActionNumber, data)
	if s.out != nil {
		id := s.id
		for _, p := range g.Players {
			s.out.Send(p.UID, protocol.Push(&id, protocol.MustAction(protocol.StartGame)))
		}
	}
	s.broadcast(g, lines, total)
	return nil
}

// save writes a game whose log has not been drained yet.
func (s *Session) save(ctx context.Context, g *game.Game) error {
	lines := g.DrainLog()
	data, err := game.Marshal(g)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.id, data); err != nil {
		return err
	}
	_, err = s.store.AppendLog(ctx, s.id, lines)
	return err
}

// LogPage is a slice of a game's log.
type LogPage struct {
	Total    int
	Start    int
	Messages []string
}

// Log returns up to n log lines starting at start. n outside (0, 30) asks for
// 30. A zero n returns only the total.
func (s *Session) Log(ctx context.Context, user auth.Identity, n, start int) (LogPage, error) {
	g, err := s.load(ctx)
	if err != nil {
		return LogPage{}, err
	}
	if _, err := s.seat(g, user); err != nil {
		return LogPage{}, err
	}
	total, err := s.store.LogLength(ctx, s.id)
	if err != nil {
		return LogPage{}, err
	}
	if n == 0 {
		return LogPage{Total: total}, nil
	}
	if n < 0 || n >= MaxLogMessages {
		n = MaxLogMessages
	}
	if start < 0 {
		start = 0
	}
	lines, err := s.store.LogLines(ctx, s.id, n, start)
	if err != nil {
		return LogPage{}, err
	}
	return LogPage{Total: total, Start: start, Messages: lines}, nil
}
