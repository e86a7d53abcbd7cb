package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamsxin/bplus/internal/engine"
	"github.com/dreamsxin/bplus/internal/fs"
)

func Test_Open_On_Fresh_Path_Creates_Empty_Root_And_Commits_Head(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fresh.db")

	store, err := engine.Open(fs.NewReal(), path, engine.ByteCompare, engine.NopCodec{}, 4)
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Get([]byte("anything"))
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func Test_Open_Rejects_Fanout_Below_Two(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad-fanout.db")

	_, err := engine.Open(fs.NewReal(), path, engine.ByteCompare, engine.NopCodec{}, 1)
	require.ErrorIs(t, err, engine.ErrInvalidFanout)
}

func Test_Open_Reopen_Recovers_Fanout_From_Head_Record(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")

	store, err := engine.Open(fs.NewReal(), path, engine.ByteCompare, engine.NopCodec{}, 4)
	require.NoError(t, err)
	require.NoError(t, store.Set([]byte("k"), []byte("v")))
	require.NoError(t, store.Close())

	// Opening with a different fanout argument must not matter: the
	// stored file's own fanout wins.
	reopened, err := engine.Open(fs.NewReal(), path, engine.ByteCompare, engine.NopCodec{}, 64)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
