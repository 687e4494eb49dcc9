package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cache := NewJobCache(dir)
	assert.False(t, cache.IsSeen("https://example.com/jobs/1"))

	cache.Add([]string{"https://example.com/jobs/1", "https://example.com/jobs/2"})
	assert.True(t, cache.IsSeen("https://example.com/jobs/1"))
	assert.True(t, cache.IsSeen("https://example.com/jobs/2"))

	//a fresh cache over the same directory sees the persisted entries
	reloaded := NewJobCache(dir)
	assert.True(t, reloaded.IsSeen("https://example.com/jobs/1"))
	assert.False(t, reloaded.IsSeen("https://example.com/jobs/3"))
}

func TestJobCacheExpiry(t *testing.T) {
	dir := t.TempDir()

	old := seenEntry{
		URL:       "https://example.com/jobs/old",
		Timestamp: time.Now().AddDate(0, 0, -45).UnixMilli(),
	}
	fresh := seenEntry{
		URL:       "https://example.com/jobs/fresh",
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal([]seenEntry{old, fresh})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen_jobs.json"), data, 0644))

	cache := NewJobCache(dir)
	assert.False(t, cache.IsSeen(old.URL), "entries older than 30 days should expire")
	assert.True(t, cache.IsSeen(fresh.URL))
}
