package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps everything in process. It backs tests and single-node
// development servers.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	games   map[int64][]byte
	order   []int64
	logs    map[int64][]string
	actions map[int64]map[int][]byte
}

// NewMemoryStore creates an empty store. The first allocated id is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[int64][]byte),
		logs:    make(map[int64][]string),
		actions: make(map[int64]map[int][]byte),
	}
}

func (s *MemoryStore) NextGameID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.order = append(s.order, s.nextID)
	return s.nextID, nil
}

func (s *MemoryStore) Save(ctx context.Context, id int64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[id] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Recent(ctx context.Context, n int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int64
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.order[i])
	}
	return out, nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, id int64, lines []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[id] = append(s.logs[id], lines...)
	return len(s.logs[id]), nil
}

func (s *MemoryStore) LogLines(ctx context.Context, id int64, n, start int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.logs[id]
	lo, hi := window(len(lines), n, start)
	return append([]string{}, lines[lo:hi]...), nil
}

func (s *MemoryStore) LogLength(ctx context.Context, id int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[id]), nil
}

func (s *MemoryStore) AppendActions(ctx context.Context, id int64, first int, encoded [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.actions[id]
	if m == nil {
		m = make(map[int][]byte)
		s.actions[id] = m
	}
	for i, a := range encoded {
		m[first+i] = append([]byte(nil), a...)
	}
	return nil
}

// Action returns the encoded action stored under number n.
func (s *MemoryStore) Action(id int64, n int) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actions[id][n]
	return a, ok
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
