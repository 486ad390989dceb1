package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/models"
)

func init() {
	logger.IsTest = true
}

func newTestStore(t *testing.T) *EntryStore {
	t.Helper()
	s, err := NewEntryStore(t.TempDir(), "", "")
	require.NoError(t, err)
	return s
}

func sampleEntry(id int64) models.Entry {
	return models.NewEntry(id, models.CommunityHelpRequest{
		Role:  "volunteer",
		Name:  "Asha",
		Email: "a@x.com",
	}, time.Date(2026, 10, 15, 8, 30, 0, 123e6, time.UTC))
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	entries := s.Load()
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.JSONPath(), []byte("{not json"), 0644))
	assert.Empty(t, s.Load())

	require.NoError(t, os.WriteFile(s.JSONPath(), []byte(`{"id": 1}`), 0644))
	assert.Empty(t, s.Load())

	require.NoError(t, os.WriteFile(s.JSONPath(), []byte("null"), 0644))
	entries := s.Load()
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSaveThenLoad(t *testing.T) {
	s := newTestStore(t)
	want := []models.Entry{sampleEntry(1), sampleEntry(2)}
	require.NoError(t, s.Save(want))

	assert.Equal(t, want, s.Load())
	_, err := os.Stat(s.JSONPath() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestSave_EmptyWritesArray(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(nil))
	raw, err := os.ReadFile(s.JSONPath())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSave_FailureKeepsPreviousFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save([]models.Entry{sampleEntry(1)}))

	// A directory in the temp file's place makes the write fail.
	require.NoError(t, os.Mkdir(s.JSONPath()+".tmp", 0755))
	err := s.Save([]models.Entry{sampleEntry(1), sampleEntry(2)})
	require.Error(t, err)

	assert.Equal(t, []models.Entry{sampleEntry(1)}, s.Load())
}

func TestAppend_AssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.Append(func(lastID int64) models.Entry {
			// A fixed clock forces the collision path.
			return sampleEntry(max(1000, lastID+1))
		})
		require.NoError(t, err)
	}

	entries := s.Load()
	require.Len(t, entries, 3)
	assert.Equal(t, int64(1000), entries[0].ID)
	assert.Equal(t, int64(1001), entries[1].ID)
	assert.Equal(t, int64(1002), entries[2].ID)
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	s := newTestStore(t)
	const writers = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(func(lastID int64) models.Entry {
				return sampleEntry(lastID + 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries := s.Load()
	require.Len(t, entries, writers)
	seen := make(map[int64]bool)
	for _, e := range entries {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
	}
}

func TestAppendHumanReadable(t *testing.T) {
	s := newTestStore(t)
	e := sampleEntry(7)
	e.City = "Kathmandu"
	e.SupportType = "food"
	e.Message = "Can help on weekends"

	require.NoError(t, s.AppendHumanReadable(e))
	require.NoError(t, s.AppendHumanReadable(e))

	raw, err := os.ReadFile(s.TextPath())
	require.NoError(t, err)

	block := "--- Community Help Entry ---\n" +
		"Role: volunteer\n" +
		"Name: Asha\n" +
		"Email: a@x.com\n" +
		"City: Kathmandu\n" +
		"Support type: food\n" +
		"Message: Can help on weekends\n" +
		"Submitted at: 2026-10-15T08:30:00.123Z\n" +
		"\n"
	assert.Equal(t, block+block, string(raw))
}

func TestAppendHumanReadable_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewEntryStore(dir, "", "log")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "log"), 0755))

	assert.Error(t, s.AppendHumanReadable(sampleEntry(1)))
}
