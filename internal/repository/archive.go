package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const (
	archiveVersion = 1
	actionsFile    = "actions.jsonl.sz"
	snapshotsDir   = "snapshots"
	manifestFile   = "manifest.json"
	snapshotSuffix = ".json.zst"
)

// Manifest describes a game's archive directory.
type Manifest struct {
	ID           string `json:"id"`
	GameID       int64  `json:"game_id"`
	Version      int    `json:"version"`
	CreatedAt    string `json:"created_at"`
	ActionsPath  string `json:"actions_path"`
	SnapshotsDir string `json:"snapshots_dir"`
}

// ActionRecord is one executed action. Hash identifies the encoded action and
// Checksum is the game's checksum hash after the action was applied.
type ActionRecord struct {
	Number     int    `json:"number"`
	Seat       int    `json:"seat"`
	UserID     int    `json:"user_id"`
	Action     string `json:"action"`
	Hash       string `json:"hash"`
	Checksum   string `json:"checksum"`
	RecordedAt string `json:"recorded_at"`
}

// Archive writes every executed action and periodic full-state snapshots to
// disk so a game can be replayed offline:
//
//	<root>/game-<id>/manifest.json
//	<root>/game-<id>/actions.jsonl.sz     snappy framed JSON lines
//	<root>/game-<id>/snapshots/<n>.json.zst
type Archive struct {
	mu     sync.Mutex
	root   string
	now    func() time.Time
	logger *zap.Logger
}

// NewArchive creates the root directory if needed.
func NewArchive(root string, clock func() time.Time, logger *zap.Logger) (*Archive, error) {
	if root == "" {
		return nil, errors.New("archive root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}
	return &Archive{root: root, now: clock, logger: logger}, nil
}

// Dir returns the directory holding a game's archive.
func (a *Archive) Dir(gameID int64) string {
	return filepath.Join(a.root, fmt.Sprintf("game-%d", gameID))
}

// ensure creates the game directory and manifest on first use. Callers hold mu.
func (a *Archive) ensure(gameID int64) (string, error) {
	dir := a.Dir(gameID)
	if err := os.MkdirAll(filepath.Join(dir, snapshotsDir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive for game %d: %w", gameID, err)
	}
	path := filepath.Join(dir, manifestFile)
	if _, err := os.Stat(path); err == nil {
		return dir, nil
	}
	manifest := Manifest{
		ID:           uuid.NewString(),
		GameID:       gameID,
		Version:      archiveVersion,
		CreatedAt:    a.now().UTC().Format(time.RFC3339Nano),
		ActionsPath:  actionsFile,
		SnapshotsDir: snapshotsDir,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest for game %d: %w", gameID, err)
	}
	a.logger.Debug("archive created", zap.Int64("game_id", gameID), zap.String("archive_id", manifest.ID))
	return dir, nil
}

// Manifest reads a game's manifest.
func (a *Archive) Manifest(gameID int64) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(a.Dir(gameID), manifestFile))
	if err != nil {
		return m, fmt.Errorf("failed to read manifest for game %d: %w", gameID, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to decode manifest for game %d: %w", gameID, err)
	}
	return m, nil
}

// AppendActions adds records to the game's action stream. Each call appends a
// new snappy stream to the file; readers see one continuous stream.
func (a *Archive) AppendActions(gameID int64, records []ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	dir, err := a.ensure(gameID)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(filepath.Join(dir, actionsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open action stream for game %d: %w", gameID, err)
	}
	stream := snappy.NewBufferedWriter(file)

	stamp := a.now().UTC().Format(time.RFC3339Nano)
	for _, rec := range records {
		if rec.RecordedAt == "" {
			rec.RecordedAt = stamp
		}
		line, err := json.Marshal(rec)
		if err != nil {
			stream.Close()
			file.Close()
			return err
		}
		if _, err := stream.Write(append(line, '\n')); err != nil {
			stream.Close()
			file.Close()
			return fmt.Errorf("failed to write action %d for game %d: %w", rec.Number, gameID, err)
		}
	}
	if err := stream.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush action stream for game %d: %w", gameID, err)
	}
	return file.Close()
}

// ReadActions returns every archived action in the order written.
func (a *Archive) ReadActions(gameID int64) ([]ActionRecord, error) {
	file, err := os.Open(filepath.Join(a.Dir(gameID), actionsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open action stream for game %d: %w", gameID, err)
	}
	defer file.Close()

	var out []ActionRecord
	dec := json.NewDecoder(snappy.NewReader(file))
	for {
		var rec ActionRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("failed to decode action stream for game %d: %w", gameID, err)
		}
		out = append(out, rec)
	}
}

// WriteSnapshot stores an encoded game as snapshot n, replacing any earlier
// snapshot with the same number.
func (a *Archive) WriteSnapshot(gameID int64, n int, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir, err := a.ensure(gameID)
	if err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(dir, snapshotsDir, strconv.Itoa(n)+snapshotSuffix))
	if err != nil {
		return fmt.Errorf("failed to create snapshot %d for game %d: %w", n, gameID, err)
	}
	enc, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		file.Close()
		return fmt.Errorf("failed to write snapshot %d for game %d: %w", n, gameID, err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush snapshot %d for game %d: %w", n, gameID, err)
	}
	return file.Close()
}

// ReadSnapshot returns the decoded bytes of snapshot n.
func (a *Archive) ReadSnapshot(gameID int64, n int) ([]byte, error) {
	file, err := os.Open(filepath.Join(a.Dir(gameID), snapshotsDir, strconv.Itoa(n)+snapshotSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %d for game %d: %w", n, gameID, err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %d for game %d: %w", n, gameID, err)
	}
	return data, nil
}

// Snapshots lists the stored snapshot numbers in ascending order.
func (a *Archive) Snapshots(gameID int64) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(a.Dir(gameID), snapshotsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []int
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), snapshotSuffix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
