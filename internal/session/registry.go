package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloaca/cloaca-server/internal/auth"
	"github.com/cloaca/cloaca-server/internal/game"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/cloaca/cloaca-server/internal/repository"
	"go.uber.org/zap"
)

// Summary describes a game in the lobby list.
type Summary struct {
	ID       int64    `json:"game_id"`
	Host     string   `json:"host"`
	Players  []string `json:"players"`
	Started  bool     `json:"started"`
	Finished bool     `json:"finished"`
}

// Registry hands out one Session per game id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	opts    Options
	store   repository.Store
	archive *repository.Archive
	out     Broadcaster
	seed    func() int64
	logger  *zap.Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithArchive records executed actions and snapshots in a.
func WithArchive(a *repository.Archive) RegistryOption {
	return func(r *Registry) { r.archive = a }
}

// WithSeed replaces the source of new game seeds.
func WithSeed(seed func() int64) RegistryOption {
	return func(r *Registry) { r.seed = seed }
}

// NewRegistry creates a registry over store. out may be nil.
func NewRegistry(store repository.Store, out Broadcaster, opts Options, logger *zap.Logger, options ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		sessions: make(map[int64]*Session),
		opts:     opts,
		store:    store,
		out:      out,
		seed:     func() int64 { return time.Now().UnixNano() },
		logger:   logger,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id int64) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = newSession(id, r.opts, r.store, r.archive, r.out, r.logger)
	r.sessions[id] = s
	return s
}

// Lookup returns the session for a game that exists in the store. Unknown
// ids fail with UnknownGame and leave no session behind, so clients cannot
// grow the registry by naming arbitrary ids.
func (r *Registry) Lookup(ctx context.Context, id int64) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	_, err := r.store.Load(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, protocol.Errorf(protocol.CodeUnknownGame, "invalid game id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", id, err)
	}
	return r.GetOrCreate(id), nil
}

// Create allocates a new game hosted by user and seats them.
func (r *Registry) Create(ctx context.Context, user auth.Identity) (int64, error) {
	id, err := r.store.NextGameID(ctx)
	if err != nil {
		return 0, err
	}
	s := r.GetOrCreate(id)
	if err := s.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.release()

	g := game.NewGame(id, user.Name, r.seed())
	if err := g.AddPlayer(user.UserID, user.Name); err != nil {
		return 0, err
	}
	if err := s.save(ctx, g); err != nil {
		return 0, err
	}
	r.logger.Info("game created", zap.Int64("game_id", id), zap.Int("user_id", user.UserID))
	return id, nil
}

// ListRecent summarizes the n most recent games. Games that cannot be loaded
// are skipped.
func (r *Registry) ListRecent(ctx context.Context, n int) ([]Summary, error) {
	ids, err := r.store.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		data, err := r.store.Load(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		g, err := game.Unmarshal(data)
		if err != nil {
			r.logger.Warn("skipping undecodable game", zap.Int64("game_id", id), zap.Error(err))
			continue
		}
		players := make([]string, len(g.Players))
		for i, p := range g.Players {
			players[i] = p.Name
		}
		out = append(out, Summary{
			ID:       id,
			Host:     g.Host,
			Players:  players,
			Started:  g.Started(),
			Finished: g.Finished(),
		})
	}
	return out, nil
}

// Route applies a batch to the game it targets.
func (r *Registry) Route(ctx context.Context, user auth.Identity, batch []protocol.Command) (Outcome, error) {
	if len(batch) == 0 {
		return Outcome{}, protocol.Errorf(protocol.CodeBatchOrdering, "empty batch")
	}
	if batch[0].Game == nil {
		return Outcome{}, protocol.Errorf(protocol.CodeMalformedMessage, "game action without a game id")
	}
	s, err := r.Lookup(ctx, *batch[0].Game)
	if err != nil {
		return Outcome{}, err
	}
	outcome, err := s.Apply(ctx, user, batch)
	if err != nil {
		return outcome, fmt.Errorf("game %d: %w", *batch[0].Game, err)
	}
	return outcome, nil
}
