// Package repository persists games, their logs and the actions that built
// them.
package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no game is stored under the id.
var ErrNotFound = errors.New("game not found")

// Store holds encoded games. Implementations must be safe for concurrent use;
// callers serialize writes per game.
type Store interface {
	// NextGameID allocates a fresh, monotonically increasing game id and
	// records it as the most recent game.
	NextGameID(ctx context.Context) (int64, error)
	Save(ctx context.Context, id int64, data []byte) error
	Load(ctx context.Context, id int64) ([]byte, error)
	// Recent returns up to n game ids, newest first.
	Recent(ctx context.Context, n int) ([]int64, error)

	// AppendLog adds lines to the game's log and returns the new total.
	AppendLog(ctx context.Context, id int64, lines []string) (int, error)
	// LogLines returns at most n lines starting at line start.
	LogLines(ctx context.Context, id int64, n, start int) ([]string, error)
	LogLength(ctx context.Context, id int64) (int, error)

	// AppendActions records encoded actions numbered first, first+1, ...
	AppendActions(ctx context.Context, id int64, first int, encoded [][]byte) error

	Ping(ctx context.Context) error
	Close() error
}

// window clips [start, start+n) to a log of length total.
func window(total, n, start int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start >= total || n <= 0 {
		return total, total
	}
	end := start + n
	if end > total {
		end = total
	}
	return start, end
}
