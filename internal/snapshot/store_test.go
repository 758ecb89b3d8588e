package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const board = `{"a":{"ShapeId":"a","Type":"Line","Points":[{"X":1,"Y":2},{"X":3,"Y":4}],"Color":"#FF000000","Thickness":2,"CreatedBy":"host","LastModifiedBy":"host","IsDeleted":false}}`

func localStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	bolt, err := NewBoltStore(filepath.Join(dir, "board.db"))
	require.NoError(t, err)
	badger, err := NewBadgerStore(filepath.Join(dir, "badger"))
	require.NoError(t, err)

	stores := map[string]Store{"file": file, "bolt": bolt, "badger": badger}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "monday", board))
	require.NoError(t, s.Save(ctx, "tuesday", "{}"))
	got, err := s.Load(ctx, "monday")
	require.NoError(t, err)
	assert.Equal(t, board, got)

	require.NoError(t, s.Save(ctx, "monday", "{}"))
	got, err = s.Load(ctx, "monday")
	require.NoError(t, err)
	assert.Equal(t, "{}", got, "saving again overwrites")

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"monday", "tuesday"}, names)

	assert.ErrorIs(t, s.Save(ctx, "../escape", board), ErrInvalidName)
	_, err = s.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestStores(t *testing.T) {
	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) { exerciseStore(t, s) })
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LOCALBOARD_TEST_REDIS")
	if addr == "" {
		t.Skip("LOCALBOARD_TEST_REDIS not set")
	}
	s, err := NewRedisStore(context.Background(), addr)
	if err != nil {
		t.Skipf("Skipping Redis test: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, name := range []string{"monday", "tuesday"} {
		s.client.Del(ctx, redisPrefix+name)
	}
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), Options{Backend: "file", Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(context.Background(), Options{Backend: "floppy"})
	assert.Error(t, err)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "only", board))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "only.json", entries[0].Name())
}
