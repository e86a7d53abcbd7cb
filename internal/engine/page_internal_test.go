package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Page_Encode_Decode_Roundtrips_Slots(t *testing.T) {
	t.Parallel()

	p := &page{
		isLeaf: true,
		slots: []slot{
			newLeafSlot([]byte("aa"), 10, 3),
			newLeafSlot([]byte("bb"), 20, 4),
			newLeafSlot([]byte("cc"), 30, 5),
		},
	}

	buf := p.encode()
	require.Len(t, buf, p.encodedLen())

	decoded, err := decodePage(buf)
	require.NoError(t, err)
	require.True(t, decoded.isLeaf)
	require.Len(t, decoded.slots, 3)

	for i, s := range decoded.slots {
		require.Equal(t, p.slots[i].key, s.key)
		require.Equal(t, p.slots[i].location, s.location)
		require.Equal(t, p.slots[i].config, s.config)
	}
}

func Test_Page_Decode_Truncated_Buffer_Returns_ErrCorrupt(t *testing.T) {
	t.Parallel()

	p := &page{isLeaf: true, slots: []slot{newLeafSlot([]byte("key"), 1, 2)}}
	buf := p.encode()

	_, err := decodePage(buf[:len(buf)-1])
	require.ErrorIs(t, err, ErrCorrupt)
}

func Test_Page_Search_Leaf_Finds_Exact_Match(t *testing.T) {
	t.Parallel()

	p := &page{
		isLeaf: true,
		slots: []slot{
			newLeafSlot([]byte("a"), 0, 0),
			newLeafSlot([]byte("c"), 0, 0),
			newLeafSlot([]byte("e"), 0, 0),
		},
	}

	idx, found := p.search([]byte("c"), ByteCompare)
	require.True(t, found)
	require.Equal(t, 1, idx)

	idx, found = p.search([]byte("b"), ByteCompare)
	require.False(t, found)
	require.Equal(t, 1, idx)

	idx, found = p.search([]byte("z"), ByteCompare)
	require.False(t, found)
	require.Equal(t, 3, idx)
}

func Test_Page_Search_Internal_Descends_To_Largest_Slot_Not_Greater_Than_Key(t *testing.T) {
	t.Parallel()

	p := &page{
		isLeaf: false,
		slots: []slot{
			newInternalSlot(nil, 0, 0, true),
			newInternalSlot([]byte("m"), 0, 0, true),
			newInternalSlot([]byte("t"), 0, 0, true),
		},
	}

	idx, found := p.search([]byte("a"), ByteCompare)
	require.True(t, found)
	require.Equal(t, 0, idx)

	idx, found = p.search([]byte("m"), ByteCompare)
	require.True(t, found)
	require.Equal(t, 1, idx)

	idx, found = p.search([]byte("zz"), ByteCompare)
	require.True(t, found)
	require.Equal(t, 2, idx)
}

func Test_Page_Split_Divides_Slots_At_Index(t *testing.T) {
	t.Parallel()

	p := &page{
		isLeaf: true,
		slots: []slot{
			newLeafSlot([]byte("a"), 0, 0),
			newLeafSlot([]byte("b"), 0, 0),
			newLeafSlot([]byte("c"), 0, 0),
			newLeafSlot([]byte("d"), 0, 0),
		},
	}

	right := p.split(2)

	require.Len(t, p.slots, 2)
	require.Len(t, right.slots, 2)
	require.Equal(t, []byte("a"), p.slots[0].key)
	require.Equal(t, []byte("c"), right.slots[0].key)
}

func Test_Slot_Internal_Config_Packs_Size_And_Leaf_Bit(t *testing.T) {
	t.Parallel()

	leafChild := newInternalSlot([]byte("k"), 42, 100, true)
	require.Equal(t, uint64(100), leafChild.childSize())
	require.True(t, leafChild.childIsLeaf())

	internalChild := newInternalSlot([]byte("k"), 42, 100, false)
	require.Equal(t, uint64(100), internalChild.childSize())
	require.False(t, internalChild.childIsLeaf())
}
