package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/python-wizard/course-enrollment/slices"
)

const (
	filePrefix = "analytics-"
	fileExt    = ".json"
)

var _ Repository = &Store{}

// Store keeps one JSON file per saved session in a directory.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Save writes the session to a new timestamped file and returns its name.
func (s *Store) Save(ctx context.Context, session Session) (string, error) {
	if err := session.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", NewFailedToWriteError("Save cancelled", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", NewFailedToWriteError("Failed to create analytics directory", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", NewFailedToWriteError("Failed to encode analytics data", err)
	}

	filename := sessionFilename(s.now(), session.SessionID)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", NewFailedToWriteError("Failed to write analytics data to file", err)
	}

	s.logger.Info("analytics session saved", slog.String("filename", filename), slog.String("session-id", session.SessionID))

	return filename, nil
}

// List returns every parsable session file in name order. Files that fail to
// parse are skipped.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, NewFailedToFetchError("Failed to read analytics data", err)
	}

	files := slices.Filter(dirEntries, func(de fs.DirEntry) bool {
		return !de.IsDir() && strings.HasSuffix(de.Name(), fileExt)
	})

	entries := make([]Entry, 0, len(files))
	for _, de := range files {
		if err := ctx.Err(); err != nil {
			return nil, NewFailedToFetchError("Listing cancelled", err)
		}

		session, err := s.readSession(de.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable analytics file", slog.String("filename", de.Name()), slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, Entry{Filename: de.Name(), Data: session})
	}

	return entries, nil
}

func (s *Store) readSession(name string) (Session, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return session, nil
}

// sessionFilename builds analytics-<timestamp>-<id prefix>.json with the
// timestamp's ':' and '.' replaced so the name is portable.
func sessionFilename(t time.Time, sessionID string) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)

	prefix := sessionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	prefix = strings.NewReplacer("/", "_", `\`, "_").Replace(prefix)

	return filePrefix + ts + "-" + prefix + fileExt
}
