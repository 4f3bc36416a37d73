package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte("payload")
	require.NoError(t, s.Put(ctx, "snap/a.idx", data))
	require.NoError(t, s.Put(ctx, "snap/b.idx", []byte("b")))
	require.NoError(t, s.Put(ctx, "other/c.idx", []byte("c")))

	// callers may reuse their buffer
	data[0] = 'X'

	got, err := s.Get(ctx, "snap/a.idx")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, s.Put(ctx, "snap/a.idx", []byte("v2")))
	got, err = s.Get(ctx, "snap/a.idx")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	names, err := s.List(ctx, "snap/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snap/a.idx", "snap/b.idx"}, names)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.Delete(ctx, "snap/a.idx"))
	require.NoError(t, s.Delete(ctx, "snap/a.idx"))
	_, err = s.Get(ctx, "snap/a.idx")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "empty", nil))
	got, err = s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStoreRejectsEscapingNames(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"../x", "", "/abs"} {
		assert.Error(t, s.Put(ctx, name, []byte("x")), name)
	}
}

func TestLocalStoreListMissingRoot(t *testing.T) {
	s := NewLocalStore(t.TempDir() + "/nope")
	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStoreCanceled(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "a", nil), context.Canceled)
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
