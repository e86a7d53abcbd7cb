package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamsxin/bplus/internal/engine"
	"github.com/dreamsxin/bplus/internal/fs"
)

func openWriter(t *testing.T, name string) *engine.Writer {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	w, err := engine.OpenWriter(fs.NewReal(), path, engine.NopCodec{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	return w
}

func Test_Writer_Write_Then_Read_Roundtrips_Payload(t *testing.T) {
	t.Parallel()

	w := openWriter(t, "writer.db")

	offset, err := w.Write([]byte("hello world"), engine.ModeUncompressed)
	require.NoError(t, err)

	got, err := w.Read(offset)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), got)
}

func Test_Writer_Write_Compressed_Roundtrips_Payload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "writer.db")

	w, err := engine.OpenWriter(fs.NewReal(), path, engine.S2Codec{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 7)
	}

	offset, err := w.Write(payload, engine.ModeCompressed)
	require.NoError(t, err)

	got, err := w.Read(offset)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func Test_Writer_Write_Empty_Payload_Roundtrips(t *testing.T) {
	t.Parallel()

	w := openWriter(t, "writer.db")

	offset, err := w.Write(nil, engine.ModeUncompressed)
	require.NoError(t, err)

	got, err := w.Read(offset)
	require.NoError(t, err)
	require.Empty(t, got)
}

func Test_Writer_Write_Pads_Each_Record_To_Alignment(t *testing.T) {
	t.Parallel()

	w := openWriter(t, "writer.db")

	_, err := w.Write([]byte("x"), engine.ModeUncompressed)
	require.NoError(t, err)

	const paddingUnit = 8
	require.Zero(t, w.Size()%paddingUnit, "writer size must stay aligned to paddingUnit")
}

func Test_Writer_Read_Past_End_Of_File_Returns_ErrOutOfBounds(t *testing.T) {
	t.Parallel()

	w := openWriter(t, "writer.db")

	_, err := w.Read(1 << 20)
	require.ErrorIs(t, err, engine.ErrOutOfBounds)
}

func Test_Writer_Find_Locates_Most_Recently_Written_Matching_Record(t *testing.T) {
	t.Parallel()

	w := openWriter(t, "writer.db")

	_, err := w.Write([]byte("nope"), engine.ModeUncompressed)
	require.NoError(t, err)

	wantOffset, err := w.Write([]byte("match"), engine.ModeUncompressed)
	require.NoError(t, err)

	offset, found, err := w.Find(func(record []byte) bool {
		return string(record) == "match"
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, wantOffset, offset)
}

func Test_Writer_Find_Reports_Not_Found_On_Fresh_File(t *testing.T) {
	t.Parallel()

	w := openWriter(t, "writer.db")

	_, found, err := w.Find(func([]byte) bool { return true })
	require.NoError(t, err)
	require.False(t, found)
}

func Test_Writer_Reopen_Recovers_Prior_Size(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "writer.db")

	w1, err := engine.OpenWriter(fs.NewReal(), path, engine.NopCodec{})
	require.NoError(t, err)

	offset, err := w1.Write([]byte("durable"), engine.ModeUncompressed)
	require.NoError(t, err)
	require.NoError(t, w1.Close())

	w2, err := engine.OpenWriter(fs.NewReal(), path, engine.NopCodec{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = w2.Close() })

	got, err := w2.Read(offset)
	require.NoError(t, err)
	require.Equal(t, []byte("durable"), got)
}
