package engine_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamsxin/bplus/internal/engine"
	"github.com/dreamsxin/bplus/internal/fs"
)

func Test_Compact_Preserves_Live_Mappings_And_Shrinks_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "compact.db")
	store := openStore(t, path, 8)

	t.Cleanup(func() { _ = store.Close() })

	const n = 1000

	want := make(map[string]string)

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k-%04d", i)
		value := fmt.Sprintf("v-%04d", i)

		require.NoError(t, store.Set([]byte(key), []byte(value)))

		want[key] = value
	}

	for i := 0; i < n; i += 2 {
		key := fmt.Sprintf("k-%04d", i)

		require.NoError(t, store.Remove([]byte(key)))

		delete(want, key)
	}

	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.Compact())

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Less(t, after.Size(), before.Size())

	for key, value := range want {
		got, err := store.Get([]byte(key))
		require.NoError(t, err)
		require.Equal(t, value, string(got))
	}

	for i := 0; i < n; i += 2 {
		key := fmt.Sprintf("k-%04d", i)

		_, err := store.Get([]byte(key))
		require.ErrorIs(t, err, engine.ErrNotFound)
	}
}

func Test_Compact_Fails_When_Scratch_File_Already_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conflict.db")
	store := openStore(t, path, 8)

	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Set([]byte("k"), []byte("v")))

	require.NoError(t, os.WriteFile(path+".compact", []byte("stale"), 0o600))

	err := store.Compact()
	require.ErrorIs(t, err, engine.ErrCompactionConflict)

	got, err := store.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func Test_Compact_Then_Reopen_Still_Finds_Live_Keys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "compact-reopen.db")
	store := openStore(t, path, 8)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k-%04d", i)
		require.NoError(t, store.Set([]byte(key), []byte(key)))
	}

	require.NoError(t, store.Compact())
	require.NoError(t, store.Close())

	reopened, err := engine.Open(fs.NewReal(), path, engine.ByteCompare, engine.NopCodec{}, 8)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.Close() })

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k-%04d", i)

		got, err := reopened.Get([]byte(key))
		require.NoError(t, err)
		require.Equal(t, key, string(got))
	}
}
