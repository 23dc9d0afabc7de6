package props_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
	"github.com/davkit/propstore/pkg/store/properties/memory"
)

const availabilityName = "{urn:ietf:params:xml:ns:caldav}calendar-availability"

// countingStore wraps a real store and counts path fetches, so tests
// can tell cache hits and policy short-circuits from storage reads.
type countingStore struct {
	properties.Store
	fetchPathCalls int
}

func (c *countingStore) FetchPath(ctx context.Context, owner, path string, names []string) ([]properties.Record, error) {
	c.fetchPathCalls++
	return c.Store.FetchPath(ctx, owner, path, names)
}

func newSession(t *testing.T, store properties.Store, owner string) *props.Session {
	t.Helper()
	session, err := props.NewSession(store, owner, nil)
	require.NoError(t, err)
	return session
}

func stringPtr(s string) *props.Value {
	v := props.StringValue(s)
	return &v
}

func xmlPtr(fragment string) *props.Value {
	v := props.XMLValue(fragment)
	return &v
}

func TestNewSession_Validation(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()

	_, err := props.NewSession(nil, "alice", nil)
	assert.True(t, props.IsCode(err, props.ErrInvalidArgument), "Nil store should be rejected")

	_, err = props.NewSession(store, "", nil)
	assert.True(t, props.IsCode(err, props.ErrInvalidArgument), "Empty owner should be rejected")

	session, err := props.NewSession(store, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Owner())
}

func TestSession_ApplyAndLookupOwner(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")

	err := session.ApplyChanges(ctx, "calendars/alice/default", map[string]*props.Value{
		"{DAV:}displayname":                        stringPtr("Default"),
		"{http://apple.com/ns/ical/}calendar-color": stringPtr("#0000FF"),
	})
	require.NoError(t, err)

	result, err := session.LookupOwner(ctx, "calendars/alice/default", nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "{DAV:}displayname", result[0].Name)
	assert.Equal(t, "Default", result[0].Value.Text())
	assert.Equal(t, "{http://apple.com/ns/ical/}calendar-color", result[1].Name)
}

func TestSession_ApplyChanges_UpdateAndDelete(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")
	path := "calendars/alice/default"

	err := session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Before"),
		"{urn:ietf:params:xml:ns:caldav}calendar-description": stringPtr("Drop me"),
	})
	require.NoError(t, err)

	// One update, one null delete, one delete of a name never written.
	err = session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("After"),
		"{urn:ietf:params:xml:ns:caldav}calendar-description": nil,
		"{DAV:}never-written":                                 nil,
	})
	require.NoError(t, err)

	result, err := session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "{DAV:}displayname", result[0].Name)
	assert.Equal(t, "After", result[0].Value.Text())
}

func TestSession_ApplyChanges_EmptyChangeSet(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	session := newSession(t, store, "alice")

	err := session.ApplyChanges(context.Background(), "calendars/alice/default", nil)
	assert.NoError(t, err, "An empty change set should commit trivially")
}

func TestSession_ApplyChanges_EmptyNameRejected(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	session := newSession(t, store, "alice")

	err := session.ApplyChanges(context.Background(), "calendars/alice/default", map[string]*props.Value{
		"": stringPtr("nameless"),
	})
	assert.True(t, props.IsCode(err, props.ErrInvalidArgument))
}

func TestSession_ApplyChanges_MalformedFragmentRejected(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")
	path := "calendars/alice/default"

	err := session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{urn:ietf:params:xml:ns:caldav}calendar-timezone": xmlPtr("<unclosed"),
	})
	assert.True(t, props.IsCode(err, props.ErrInvalidArgument))

	result, err := session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	assert.Empty(t, result, "A rejected change set should store nothing")
}

func TestSession_LookupOwner_NameFilter(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")
	path := "calendars/alice/default"

	err := session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname":                        stringPtr("Default"),
		"{http://apple.com/ns/ical/}calendar-color": stringPtr("#0000FF"),
		"{http://apple.com/ns/ical/}calendar-order": stringPtr("1"),
	})
	require.NoError(t, err)

	result, err := session.LookupOwner(ctx, path, []string{
		"{DAV:}displayname",
		"{DAV:}never-written",
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "{DAV:}displayname", result[0].Name)
}

func TestSession_LookupOwner_DoesNotSeeOthers(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	path := "calendars/shared/team"

	bob := newSession(t, store, "bob")
	require.NoError(t, bob.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Bob view"),
	}))

	alice := newSession(t, store, "alice")
	result, err := alice.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	assert.Empty(t, result, "Another owner's private records should be invisible")
}

func TestSession_LookupPublished_AllowListOnly(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	path := "calendars/alice/default"

	alice := newSession(t, store, "alice")
	require.NoError(t, alice.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Private name"),
		availabilityName:    xmlPtr("<x:available xmlns:x=\"urn:ietf:params:xml:ns:caldav\"/>"),
	}))

	carol := newSession(t, store, "carol")
	result, err := carol.LookupPublished(ctx, path, nil)
	require.NoError(t, err)
	require.Len(t, result, 1, "Only allow-listed names should be published")
	assert.Equal(t, availabilityName, result[0].Name)
}

func TestSession_LookupPublished_ShortCircuitsOffListNames(t *testing.T) {
	counting := &countingStore{Store: memory.NewMemoryPropertyStore()}
	defer counting.Close()
	session := newSession(t, counting, "carol")

	result, err := session.LookupPublished(context.Background(), "calendars/alice/default", []string{
		"{DAV:}displayname",
		"{http://apple.com/ns/ical/}calendar-color",
	})
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, counting.fetchPathCalls, "Off-list requests should not touch storage")
}

func TestSession_LookupPublished_FirstOwnerWins(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	path := "calendars/shared/team"
	fragment := func(who string) string {
		return "<x:note xmlns:x=\"urn:example\">" + who + "</x:note>"
	}

	bob := newSession(t, store, "bob")
	require.NoError(t, bob.ApplyChanges(ctx, path, map[string]*props.Value{
		availabilityName: xmlPtr(fragment("bob")),
	}))
	alice := newSession(t, store, "alice")
	require.NoError(t, alice.ApplyChanges(ctx, path, map[string]*props.Value{
		availabilityName: xmlPtr(fragment("alice")),
	}))

	carol := newSession(t, store, "carol")
	result, err := carol.LookupPublished(ctx, path, []string{availabilityName})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, fragment("alice"), result[0].Value.Text(),
		"The lexicographically first owner's record should be served")
}

func TestSession_Resolve_OwnerWinsOverPublished(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	path := "calendars/shared/team"

	alice := newSession(t, store, "alice")
	require.NoError(t, alice.ApplyChanges(ctx, path, map[string]*props.Value{
		availabilityName: xmlPtr("<x:a xmlns:x=\"urn:example\">alice says</x:a>"),
	}))
	bob := newSession(t, store, "bob")
	require.NoError(t, bob.ApplyChanges(ctx, path, map[string]*props.Value{
		availabilityName: xmlPtr("<x:a xmlns:x=\"urn:example\">bob says</x:a>"),
	}))

	// Bob sees his own value despite Alice's published one.
	resolved, err := bob.Resolve(ctx, path, []string{availabilityName})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Contains(t, resolved[0].Value.Text(), "bob says")

	// Carol holds nothing herself and gets the published winner.
	carol := newSession(t, store, "carol")
	resolved, err = carol.Resolve(ctx, path, []string{availabilityName})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Contains(t, resolved[0].Value.Text(), "alice says")
}

func TestSession_CacheServesRepeatLookups(t *testing.T) {
	counting := &countingStore{Store: memory.NewMemoryPropertyStore()}
	defer counting.Close()
	ctx := context.Background()
	session := newSession(t, counting, "alice")
	path := "calendars/alice/default"

	require.NoError(t, session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Default"),
	}))
	counting.fetchPathCalls = 0

	first, err := session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	second, err := session.LookupOwner(ctx, path, []string{"{DAV:}displayname"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.fetchPathCalls,
		"The second lookup should be served from the session cache")

	stats := session.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestSession_WriteInvalidatesCache(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")
	path := "calendars/alice/default"

	require.NoError(t, session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Before"),
	}))

	result, err := session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	require.Equal(t, "Before", result[0].Value.Text())

	require.NoError(t, session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("After"),
	}))

	result, err = session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "After", result[0].Value.Text(),
		"A write must drop the cached entry for its path")
}

func TestSession_MovePreservesProperties(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")
	source := "calendars/alice/old"
	destination := "calendars/alice/new"

	require.NoError(t, session.ApplyChanges(ctx, source, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Moved along"),
	}))

	// Prime both cache entries so the move has something to drop.
	_, err := session.LookupOwner(ctx, source, nil)
	require.NoError(t, err)
	_, err = session.LookupOwner(ctx, destination, nil)
	require.NoError(t, err)

	require.NoError(t, session.MovePath(ctx, source, destination))

	moved, err := session.LookupOwner(ctx, destination, nil)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "Moved along", moved[0].Value.Text())

	left, err := session.LookupOwner(ctx, source, nil)
	require.NoError(t, err)
	assert.Empty(t, left, "The source path should be empty after the move")
}

func TestSession_MoveConflictSurfaces(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")

	require.NoError(t, session.ApplyChanges(ctx, "calendars/alice/old", map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Source"),
	}))
	require.NoError(t, session.ApplyChanges(ctx, "calendars/alice/new", map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Destination"),
	}))

	err := session.MovePath(ctx, "calendars/alice/old", "calendars/alice/new")
	assert.True(t, props.IsCode(err, props.ErrAlreadyExists))
}

func TestSession_DeletePathCascades(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	path := "calendars/shared/team"

	alice := newSession(t, store, "alice")
	require.NoError(t, alice.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname":                        stringPtr("Alice view"),
		"{http://apple.com/ns/ical/}calendar-color": stringPtr("#FF0000"),
	}))
	bob := newSession(t, store, "bob")
	require.NoError(t, bob.ApplyChanges(ctx, path, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Bob view"),
	}))

	require.NoError(t, alice.DeletePath(ctx, path))

	gone, err := alice.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	assert.Empty(t, gone, "Every record of the deleting owner should be gone")

	kept, err := bob.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 1, "Other owners' records at the path should survive")
}

func TestSession_SkipsUndecodableRecords(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	path := "calendars/alice/default"
	broken := "{urn:example}broken"

	// Seed one good record and one whose stored bytes no longer parse
	// for their kind, as if written by an older, buggier build.
	err := store.Apply(ctx, "alice", props.PathKey(path), properties.Batch{
		Inserts: []properties.Entry{
			{Name: "{DAV:}displayname", Kind: uint32(props.KindString), Value: []byte("Default")},
			{Name: broken, Kind: uint32(props.KindXMLFragment), Value: []byte("<unclosed")},
		},
	})
	require.NoError(t, err)

	session := newSession(t, store, "alice")

	result, err := session.LookupOwner(ctx, path, nil)
	require.NoError(t, err, "An undecodable record should not fail the lookup")
	require.Len(t, result, 1)
	assert.Equal(t, "{DAV:}displayname", result[0].Name)

	// The write path still counts the record as existing, so writing a
	// valid value repairs it in place instead of colliding.
	err = session.ApplyChanges(ctx, path, map[string]*props.Value{
		broken: xmlPtr("<x:ok xmlns:x=\"urn:example\"/>"),
	})
	require.NoError(t, err)

	result, err = session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, broken, result[1].Name)
}

func TestSession_LongPathsRoundTrip(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")

	deep := "calendars/alice/" + strings.Repeat("nested/", 60) + "leaf.ics"
	require.Greater(t, len(deep), props.MaxPathKeyLen)

	require.NoError(t, session.ApplyChanges(ctx, deep, map[string]*props.Value{
		"{DAV:}displayname": stringPtr("Deeply nested"),
	}))

	result, err := session.LookupOwner(ctx, deep, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Deeply nested", result[0].Value.Text())

	// The stored key is the bounded digest, not the raw path.
	records, err := store.FetchOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Path, 40)
}

func TestSession_ObjectValuesRoundTrip(t *testing.T) {
	store := memory.NewMemoryPropertyStore()
	defer store.Close()
	ctx := context.Background()
	session := newSession(t, store, "alice")
	path := "calendars/alice/default"

	object := map[string]any{"zone": "Europe/Rome", "label": "work"}
	value := props.ObjectValue(object)
	require.NoError(t, session.ApplyChanges(ctx, path, map[string]*props.Value{
		"{urn:example}settings": &value,
	}))

	result, err := session.LookupOwner(ctx, path, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, object, result[0].Value.Object())
}
