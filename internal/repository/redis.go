package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const gameDataKey = "game_json"

// RedisStore keeps games in Redis:
//
//	<prefix>gameid            counter
//	<prefix>games             list of ids, newest first
//	<prefix>game:<id>         hash, game_json field
//	<prefix>game_log:<id>     list of log lines
//	<prefix>game_actions:<id> hash of action number to encoded action
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// RedisOptions selects the server and key namespace.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	logger.Info("redis store connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.String("prefix", opts.Prefix),
	)
	return &RedisStore{client: client, prefix: opts.Prefix, logger: logger}, nil
}

func (s *RedisStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += p
	}
	return k
}

func (s *RedisStore) gameKey(id int64) string {
	return s.key("game:", strconv.FormatInt(id, 10))
}

func (s *RedisStore) logKey(id int64) string {
	return s.key("game_log:", strconv.FormatInt(id, 10))
}

func (s *RedisStore) actionsKey(id int64) string {
	return s.key("game_actions:", strconv.FormatInt(id, 10))
}

func (s *RedisStore) NextGameID(ctx context.Context) (int64, error) {
	id, err := s.client.Incr(ctx, s.key("gameid")).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate game id: %w", err)
	}
	if err := s.client.LPush(ctx, s.key("games"), id).Err(); err != nil {
		return 0, fmt.Errorf("failed to record game %d: %w", id, err)
	}
	return id, nil
}

func (s *RedisStore) Save(ctx context.Context, id int64, data []byte) error {
	if err := s.client.HSet(ctx, s.gameKey(id), gameDataKey, data).Err(); err != nil {
		return fmt.Errorf("failed to save game %d: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id int64) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.gameKey(id), gameDataKey).Bytes()
	if errors.Is(err, redis.Nil) || (err == nil && len(data) == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %d: %w", id, err)
	}
	return data, nil
}

func (s *RedisStore) Recent(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key("games"), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			s.logger.Warn("skipping malformed game id", zap.String("value", r))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisStore) AppendLog(ctx context.Context, id int64, lines []string) (int, error) {
	if len(lines) == 0 {
		return s.LogLength(ctx, id)
	}
	values := make([]any, len(lines))
	for i, l := range lines {
		values[i] = l
	}
	total, err := s.client.RPush(ctx, s.logKey(id), values...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to append log for game %d: %w", id, err)
	}
	return int(total), nil
}

func (s *RedisStore) LogLines(ctx context.Context, id int64, n, start int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	if start < 0 {
		start = 0
	}
	lines, err := s.client.LRange(ctx, s.logKey(id), int64(start), int64(start+n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read log for game %d: %w", id, err)
	}
	return lines, nil
}

func (s *RedisStore) LogLength(ctx context.Context, id int64) (int, error) {
	total, err := s.client.LLen(ctx, s.logKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count log for game %d: %w", id, err)
	}
	return int(total), nil
}

func (s *RedisStore) AppendActions(ctx context.Context, id int64, first int, encoded [][]byte) error {
	if len(encoded) == 0 {
		return nil
	}
	values := make([]any, 0, 2*len(encoded))
	for i, a := range encoded {
		values = append(values, strconv.Itoa(first+i), a)
	}
	if err := s.client.HSet(ctx, s.actionsKey(id), values...).Err(); err != nil {
		return fmt.Errorf("failed to store actions for game %d: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
