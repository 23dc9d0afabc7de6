package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMetrics counts cache callbacks for assertions.
type recordingMetrics struct {
	hits        int
	misses      int
	invalidates int
}

func (m *recordingMetrics) CacheHit()        { m.hits++ }
func (m *recordingMetrics) CacheMiss()       { m.misses++ }
func (m *recordingMetrics) CacheInvalidate() { m.invalidates++ }

func TestLookupCache_MissThenHit(t *testing.T) {
	cache := newLookupCache(nil)

	_, ok := cache.get("calendars/alice/default")
	assert.False(t, ok, "Fresh cache should miss")

	cache.put("calendars/alice/default", []Property{
		{Name: "{DAV:}displayname", Value: StringValue("Default")},
	})

	result, ok := cache.get("calendars/alice/default")
	require.True(t, ok)
	require.Len(t, result, 1)
	assert.Equal(t, "{DAV:}displayname", result[0].Name)

	stats := cache.stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestLookupCache_EmptyResultIsCached(t *testing.T) {
	cache := newLookupCache(nil)

	cache.put("calendars/alice/empty", nil)

	result, ok := cache.get("calendars/alice/empty")
	assert.True(t, ok, "A cached empty result should count as a hit")
	assert.Empty(t, result)
}

func TestLookupCache_Invalidate(t *testing.T) {
	cache := newLookupCache(nil)
	cache.put("calendars/alice/default", []Property{{Name: "{DAV:}displayname"}})

	cache.invalidate("calendars/alice/default")

	_, ok := cache.get("calendars/alice/default")
	assert.False(t, ok, "Invalidated entry should be gone")
	assert.Zero(t, cache.stats().Entries)
}

func TestLookupCache_InvalidateMissingIsNoOp(t *testing.T) {
	metrics := &recordingMetrics{}
	cache := newLookupCache(metrics)

	cache.invalidate("calendars/alice/never-cached")

	assert.Zero(t, metrics.invalidates, "Only actual removals should be counted")
}

func TestLookupCache_GetReturnsCopy(t *testing.T) {
	cache := newLookupCache(nil)
	cache.put("calendars/alice/default", []Property{
		{Name: "{DAV:}displayname", Value: StringValue("Original")},
	})

	result, ok := cache.get("calendars/alice/default")
	require.True(t, ok)
	result[0] = Property{Name: "{DAV:}displayname", Value: StringValue("Mutated")}

	again, ok := cache.get("calendars/alice/default")
	require.True(t, ok)
	assert.Equal(t, "Original", again[0].Value.Text(),
		"Callers mutating their result must not corrupt the cache")
}

func TestLookupCache_Clear(t *testing.T) {
	cache := newLookupCache(nil)
	cache.put("calendars/alice/work", nil)
	cache.put("calendars/alice/home", nil)

	cache.clear()

	assert.Zero(t, cache.stats().Entries)
}

func TestLookupCache_ReportsMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	cache := newLookupCache(metrics)

	cache.get("calendars/alice/default")
	cache.put("calendars/alice/default", nil)
	cache.get("calendars/alice/default")
	cache.invalidate("calendars/alice/default")

	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.invalidates)
}
