package helpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
)

// MirrorEntry is the local copy of one successful submission. SubmittedAt
// comes from the local clock, not the server.
type MirrorEntry struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	City        string `json:"city"`
	SupportType string `json:"supportType"`
	Message     string `json:"message"`
	SubmittedAt string `json:"submittedAt"`
}

func NewMirrorEntry(f Form, now time.Time) MirrorEntry {
	return MirrorEntry{
		Role:        f.Role,
		Name:        f.Name,
		Email:       f.Email,
		City:        f.City,
		SupportType: f.SupportType,
		Message:     f.Message,
		SubmittedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

type mirrorFile struct {
	CommunityEntries []MirrorEntry `json:"communityEntries"`
}

// LocalMirror is a JSON file of everything submitted from this machine. It
// is never reconciled with the server and may drift from it.
type LocalMirror struct {
	path    string
	mu      sync.Mutex
	entries []MirrorEntry
}

// LoadMirror reads path. A missing or unreadable file starts an empty mirror.
func LoadMirror(path string) *LocalMirror {
	m := &LocalMirror{path: path, entries: []MirrorEntry{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.GetLogger().Warnw("Failed to read local mirror, starting empty", "path", path, "error", err)
		}
		return m
	}

	var f mirrorFile
	if err := json.Unmarshal(data, &f); err != nil {
		logger.GetLogger().Warnw("Local mirror is not valid JSON, starting empty", "path", path, "error", err)
		return m
	}
	if f.CommunityEntries != nil {
		m.entries = f.CommunityEntries
	}
	return m
}

func (m *LocalMirror) Path() string { return m.path }

func (m *LocalMirror) Entries() []MirrorEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MirrorEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Append adds e and rewrites the file. On a write error the in-memory copy
// keeps e, matching what the next successful write will contain.
func (m *LocalMirror) Append(e MirrorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)

	data, err := json.Marshal(mirrorFile{CommunityEntries: m.entries})
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create mirror dir: %w", err)
		}
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}
