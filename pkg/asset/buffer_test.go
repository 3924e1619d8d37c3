package asset

import (
	"bytes"
	"testing"

	"github.com/DataDog/zstd"
	"github.com/stretchr/testify/require"
)

func TestBufferGrow(t *testing.T) {
	t.Run("ExtendsLength", func(t *testing.T) {
		b := &Buffer{}
		b.Grow(10)
		require.Equal(t, 10, b.Length())
		require.Len(t, b.Bytes(), 10)
	})

	t.Run("PreservesExistingData", func(t *testing.T) {
		b := &Buffer{}
		b.AppendData([]byte{1, 2, 3})
		b.Grow(100)
		require.Equal(t, 103, b.Length())
		require.Equal(t, []byte{1, 2, 3}, b.Bytes()[:3])
	})

	t.Run("IgnoresNonPositive", func(t *testing.T) {
		b := &Buffer{}
		b.Grow(0)
		b.Grow(-5)
		require.Equal(t, 0, b.Length())
	})
}

func TestBufferAppendData(t *testing.T) {
	b := &Buffer{}
	off1 := b.AppendData([]byte{1, 2, 3})
	off2 := b.AppendData([]byte{4, 5})

	require.Equal(t, 0, off1)
	require.Equal(t, 3, off2)
	require.Equal(t, 5, b.Length())
	require.Equal(t, []byte{1, 2, 3, 4, 5}, b.Bytes())
}

func TestBufferAppendDataAfterEncodedRegion(t *testing.T) {
	b := &Buffer{}
	b.AppendData(make([]byte, 20))
	decoded := make([]byte, 11)
	require.NoError(t, b.MarkEncodedRegion(0, 8, decoded, "r0"))
	require.Equal(t, 23, b.Length())

	// The returned offset addresses the appended bytes in the raw
	// arena even though the logical length has drifted past it.
	off := b.AppendData([]byte{9, 8, 7})
	require.Equal(t, 20, off)
	require.Equal(t, []byte{9, 8, 7}, b.Bytes()[off:off+3])
}

func TestBufferReplaceData(t *testing.T) {
	newBuf := func() *Buffer {
		b := &Buffer{}
		b.AppendData([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
		return b
	}

	t.Run("SplicesRange", func(t *testing.T) {
		b := newBuf()
		require.True(t, b.ReplaceData(2, 3, []byte{9, 9}))
		require.Equal(t, []byte{0, 1, 9, 9, 5, 6, 7, 8, 9}, b.Bytes())
		require.Equal(t, 9, b.Length())
	})

	t.Run("RejectsEmptyArguments", func(t *testing.T) {
		b := newBuf()
		require.False(t, b.ReplaceData(2, 0, []byte{1}))
		require.False(t, b.ReplaceData(2, 3, nil))
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		b := newBuf()
		require.False(t, b.ReplaceData(8, 3, []byte{1}))
		require.False(t, b.ReplaceData(-1, 3, []byte{1}))
	})
}

func TestBufferEncodedRegions(t *testing.T) {
	raw := make([]byte, 100)
	for i := range raw {
		raw[i] = byte(i)
	}

	t.Run("AdjustsLength", func(t *testing.T) {
		b := &Buffer{}
		b.AppendData(raw)
		decoded := []byte{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
		require.NoError(t, b.MarkEncodedRegion(10, 8, decoded, "r0"))
		require.Equal(t, 103, b.Length())
	})

	t.Run("ActiveRegionOverridesRawBytes", func(t *testing.T) {
		b := &Buffer{}
		b.AppendData(raw)
		decoded := []byte{200, 201, 202, 203}
		require.NoError(t, b.MarkEncodedRegion(10, 8, decoded, "r0"))

		// Raw bytes stay visible until the region is made current.
		require.Equal(t, byte(12), b.at(12)[0])

		require.NoError(t, b.SetCurrentRegion("r0"))
		require.Equal(t, byte(202), b.at(12)[0])
		// Offsets outside the decoded span still hit the raw arena.
		require.Equal(t, byte(50), b.at(50)[0])

		b.ClearCurrentRegion()
		require.Equal(t, byte(12), b.at(12)[0])
	})

	t.Run("RejectsNilDecodedData", func(t *testing.T) {
		b := &Buffer{}
		b.AppendData(raw)
		err := b.MarkEncodedRegion(10, 8, nil, "r0")
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("RejectsOutOfRangeRegion", func(t *testing.T) {
		b := &Buffer{}
		b.AppendData(raw)
		err := b.MarkEncodedRegion(96, 8, []byte{1}, "r0")
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("UnknownRegionID", func(t *testing.T) {
		b := &Buffer{}
		b.AppendData(raw)
		require.ErrorIs(t, b.SetCurrentRegion("nope"), ErrNotFound)
	})
}

func TestBufferDecodeRegion(t *testing.T) {
	payload := bytes.Repeat([]byte("skinned mesh data "), 32)
	compressed, err := zstd.Compress(nil, payload)
	require.NoError(t, err)

	b := &Buffer{}
	b.AppendData(make([]byte, 16)) // unrelated leading data
	off := b.AppendData(compressed)

	require.NoError(t, b.DecodeRegion(off, len(compressed), "frame0"))
	require.NoError(t, b.SetCurrentRegion("frame0"))

	got := b.at(off)[:len(payload)]
	require.Equal(t, payload, got)
	require.Equal(t, 16+len(compressed)+len(payload)-len(compressed), b.Length())
}
