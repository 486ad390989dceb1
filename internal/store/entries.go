// Package store persists community-help entries to flat files: a JSON
// document holding every entry plus an append-only human-readable log.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/models"
)

const (
	DefaultJSONFile = "community-help-data.json"
	DefaultTextFile = "community-help-entries.txt"
)

// EntryStore owns the entry files. All writes go through Append so the
// load-mutate-save sequence never interleaves with another request.
type EntryStore struct {
	jsonPath string
	textPath string

	mu     sync.Mutex // serializes Append
	textMu sync.Mutex // serializes AppendHumanReadable
}

// NewEntryStore ensures dir exists and returns a store rooted there.
func NewEntryStore(dir, jsonName, textName string) (*EntryStore, error) {
	if jsonName == "" {
		jsonName = DefaultJSONFile
	}
	if textName == "" {
		textName = DefaultTextFile
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &EntryStore{
		jsonPath: filepath.Join(dir, jsonName),
		textPath: filepath.Join(dir, textName),
	}, nil
}

func (s *EntryStore) JSONPath() string { return s.jsonPath }
func (s *EntryStore) TextPath() string { return s.textPath }

// Load returns every stored entry in append order. A missing, unreadable or
// corrupt file yields an empty slice; it never fails.
func (s *EntryStore) Load() []models.Entry {
	raw, err := os.ReadFile(s.jsonPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.GetLogger().Warnw("Could not read entry store, treating as empty", "path", s.jsonPath, "error", err)
		}
		return []models.Entry{}
	}

	var entries []models.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.GetLogger().Warnw("Entry store is not valid JSON, treating as empty", "path", s.jsonPath, "error", err)
		return []models.Entry{}
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries
}

// Save rewrites the whole store. The data goes to a temp file first and is
// renamed over the target, so a failed write leaves the previous file intact.
func (s *EntryStore) Save(entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	tempPath := s.jsonPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.jsonPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", s.jsonPath, err)
	}
	return nil
}

// Append loads the store, asks build for the new entry (passing the highest
// id currently stored), appends it and saves, all under the store lock.
func (s *EntryStore) Append(build func(lastID int64) models.Entry) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.Load()
	var lastID int64
	for _, e := range entries {
		if e.ID > lastID {
			lastID = e.ID
		}
	}

	entry := build(lastID)
	entries = append(entries, entry)
	if err := s.Save(entries); err != nil {
		return models.Entry{}, err
	}
	return entry, nil
}

// AppendHumanReadable writes one formatted block for entry to the text log.
// The log is never read back.
func (s *EntryStore) AppendHumanReadable(entry models.Entry) error {
	s.textMu.Lock()
	defer s.textMu.Unlock()

	f, err := os.OpenFile(s.textPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.textPath, err)
	}
	if _, err := f.WriteString(FormatHumanReadable(entry)); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", s.textPath, err)
	}
	return f.Close()
}

// FormatHumanReadable renders the text-log block for entry, terminated by a
// blank line.
func FormatHumanReadable(entry models.Entry) string {
	lines := []string{
		"--- Community Help Entry ---",
		"Role: " + entry.Role,
		"Name: " + entry.Name,
		"Email: " + entry.Email,
		"City: " + entry.City,
		"Support type: " + entry.SupportType,
		"Message: " + entry.Message,
		"Submitted at: " + entry.CreatedAt,
		"",
	}
	return strings.Join(lines, "\n") + "\n"
}
