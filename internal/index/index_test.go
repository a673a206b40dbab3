package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.clipvault.dev/clipvault/internal/record"
)

func TestRebuildRegistersThumbFingerprints(t *testing.T) {
	ix := New()
	ix.Rebuild([]record.Record{
		{ID: "a-1", Hash: "fp-a"},
		{ID: "b-2", Hash: "fp-b", ThumbHash: "fp-b-thumb"},
	})

	id, ok := ix.Lookup("fp-a")
	require.True(t, ok)
	assert.Equal(t, "a-1", id)

	// Both image fingerprints resolve to the same record.
	id, ok = ix.Lookup("fp-b")
	require.True(t, ok)
	assert.Equal(t, "b-2", id)
	id, ok = ix.Lookup("fp-b-thumb")
	require.True(t, ok)
	assert.Equal(t, "b-2", id)

	assert.Equal(t, 3, ix.Len())
}

func TestPutRemoveLookup(t *testing.T) {
	ix := New()

	_, ok := ix.Lookup("fp")
	assert.False(t, ok)

	ix.Put("fp", "id-1")
	id, ok := ix.Lookup("fp")
	require.True(t, ok)
	assert.Equal(t, "id-1", id)

	// Rebinding replaces.
	ix.Put("fp", "id-2")
	id, _ = ix.Lookup("fp")
	assert.Equal(t, "id-2", id)

	ix.Remove("fp")
	_, ok = ix.Lookup("fp")
	assert.False(t, ok)
}

func TestRebuildReplacesPriorContents(t *testing.T) {
	ix := New()
	ix.Put("stale", "gone")
	ix.Rebuild([]record.Record{{ID: "a-1", Hash: "fp-a"}})

	_, ok := ix.Lookup("stale")
	assert.False(t, ok)
	assert.Equal(t, 1, ix.Len())
}
