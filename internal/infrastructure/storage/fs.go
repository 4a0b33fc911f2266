package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"svw.info/numbermaster/internal/domain"
)

// FS stores one JSON document per session under dir/sessions and the high score
// in dir/highscore.json.
type FS struct{ dir string }

func NewFS(dir string) *FS { return &FS{dir: dir} }

type highScoreDoc struct {
	HighScore int `json:"highScore"`
}

func (s *FS) sessionsDir() string { return filepath.Join(s.dir, "sessions") }

func (s *FS) pathFor(id string) string {
	return filepath.Join(s.sessionsDir(), strings.TrimSpace(id)+".json")
}

func (s *FS) highScorePath() string { return filepath.Join(s.dir, "highscore.json") }

func (s *FS) SaveSession(ctx context.Context, id string, snap *domain.Snapshot) error {
	if err := checkID(id); err != nil {
		return err
	}
	if snap == nil {
		return errors.New("invalid session: nil snapshot")
	}
	return writeJSON(s.pathFor(id), snap)
}

func (s *FS) LoadSession(ctx context.Context, id string) (*domain.Snapshot, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var out domain.Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &out, nil
}

func (s *FS) ClearSession(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns saved sessions, most recently written first. Unreadable files are skipped.
func (s *FS) List(ctx context.Context) ([]domain.SessionMeta, error) {
	ents, err := os.ReadDir(s.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []domain.SessionMeta
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.sessionsDir(), name))
		if err != nil {
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, domain.SessionMeta{
			ID:        strings.TrimSuffix(name, ".json"),
			Score:     snap.Score,
			Level:     snap.Level,
			UpdatedAt: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func (s *FS) LoadHighScore(ctx context.Context) (int, error) {
	data, err := os.ReadFile(s.highScorePath())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var doc highScoreDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode high score: %w", err)
	}
	return doc.HighScore, nil
}

func (s *FS) SaveHighScore(ctx context.Context, score int) error {
	return writeJSON(s.highScorePath(), highScoreDoc{HighScore: score})
}

// writeJSON replaces target via a temp file in the same directory.
func writeJSON(target string, v any) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), target)
}
