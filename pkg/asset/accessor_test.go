package asset

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func floatBytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func viewOver(data []byte) *BufferView {
	b := &Buffer{}
	b.AppendData(data)
	return &BufferView{Buffer: b, ByteOffset: 0, ByteLength: len(data)}
}

func TestAccessorData(t *testing.T) {
	t.Run("TightlyPacked", func(t *testing.T) {
		data := floatBytes(1, 2, 3, 4, 5, 6)
		a := &Accessor{
			BufferView:    viewOver(data),
			ComponentType: ComponentFloat,
			Count:         2,
			Type:          TypeVec3,
		}
		got, err := a.Data()
		require.NoError(t, err)
		require.Equal(t, data, got)
	})

	t.Run("StridedSourceDensifies", func(t *testing.T) {
		// Three ushort scalars at a 4-byte stride, with padding between.
		data := []byte{1, 0, 0xff, 0xff, 2, 0, 0xff, 0xff, 3, 0, 0xff, 0xff}
		a := &Accessor{
			BufferView:    viewOver(data),
			ComponentType: ComponentUnsignedShort,
			Count:         3,
			Type:          TypeScalar,
			ByteStride:    4,
		}
		got, err := a.Data()
		require.NoError(t, err)
		require.Equal(t, []byte{1, 0, 2, 0, 3, 0}, got)

		vals, err := a.UInts()
		require.NoError(t, err)
		require.Equal(t, []uint32{1, 2, 3}, vals)
	})

	t.Run("ViewOverstatesBuffer", func(t *testing.T) {
		// The view claims 16 bytes but only 4 back it; extraction must
		// fail instead of reading past the arena.
		buf := &Buffer{}
		buf.AppendData([]byte{1, 2, 3, 4})
		a := &Accessor{
			BufferView:    &BufferView{Buffer: buf, ByteLength: 16},
			ComponentType: ComponentFloat,
			Count:         4,
			Type:          TypeScalar,
		}
		_, err := a.Data()
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("StridedViewOverstatesBuffer", func(t *testing.T) {
		buf := &Buffer{}
		buf.AppendData(make([]byte, 10))
		a := &Accessor{
			BufferView:    &BufferView{Buffer: buf, ByteLength: 32},
			ComponentType: ComponentUnsignedShort,
			Count:         4,
			Type:          TypeScalar,
			ByteStride:    8,
		}
		_, err := a.Data()
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("OverrunsView", func(t *testing.T) {
		data := floatBytes(1, 2, 3)
		a := &Accessor{
			BufferView:    viewOver(data),
			ComponentType: ComponentFloat,
			Count:         4,
			Type:          TypeScalar,
		}
		_, err := a.Data()
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("NoBackingBuffer", func(t *testing.T) {
		a := &Accessor{ComponentType: ComponentFloat, Count: 1, Type: TypeScalar}
		_, err := a.Data()
		require.ErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestAccessorWriteData(t *testing.T) {
	t.Run("EqualStrideBulkCopy", func(t *testing.T) {
		a := &Accessor{
			BufferView:    viewOver(make([]byte, 24)),
			ComponentType: ComponentFloat,
			Count:         2,
			Type:          TypeVec3,
		}
		src := floatBytes(1, 2, 3, 4, 5, 6)
		require.NoError(t, a.WriteData(2, src, 12))

		got, err := a.Float32s()
		require.NoError(t, err)
		require.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got)
	})

	t.Run("NarrowSourceZeroFillsTail", func(t *testing.T) {
		buf := &Buffer{}
		buf.AppendData([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
		a := &Accessor{
			BufferView:    &BufferView{Buffer: buf, ByteLength: 8},
			ComponentType: ComponentUnsignedByte,
			Count:         2,
			Type:          TypeVec4,
		}
		// Two-byte source elements land in the first two components;
		// the remaining components must be cleared.
		require.NoError(t, a.WriteData(2, []byte{1, 2, 3, 4}, 2))
		require.Equal(t, []byte{1, 2, 0, 0, 3, 4, 0, 0}, buf.Bytes())
	})

	t.Run("OverrunsBuffer", func(t *testing.T) {
		a := &Accessor{
			BufferView:    viewOver(make([]byte, 4)),
			ComponentType: ComponentFloat,
			Count:         2,
			Type:          TypeScalar,
		}
		err := a.WriteData(2, floatBytes(1, 2), 4)
		require.ErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestAccessorIndexer(t *testing.T) {
	t.Run("UIntZeroExtends", func(t *testing.T) {
		a := &Accessor{
			BufferView:    viewOver([]byte{7, 8, 9}),
			ComponentType: ComponentUnsignedByte,
			Count:         3,
			Type:          TypeScalar,
		}
		ix := a.Indexer()
		require.True(t, ix.Valid())
		require.Equal(t, uint32(7), ix.UInt(0))
		require.Equal(t, uint32(9), ix.UInt(2))
	})

	t.Run("AtRespectsStride", func(t *testing.T) {
		a := &Accessor{
			BufferView:    viewOver([]byte{1, 0, 2, 0, 3, 0}),
			ComponentType: ComponentUnsignedByte,
			Count:         3,
			Type:          TypeScalar,
			ByteStride:    2,
		}
		ix := a.Indexer()
		require.Equal(t, []byte{2}, ix.At(1))
		require.Equal(t, uint32(3), ix.UInt(2))
	})

	t.Run("InvalidWithoutBuffer", func(t *testing.T) {
		a := &Accessor{ComponentType: ComponentUnsignedByte, Count: 1, Type: TypeScalar}
		ix := a.Indexer()
		require.False(t, ix.Valid())
	})
}

func TestAccessorWriteTo(t *testing.T) {
	t.Run("OmitsDefaultByteStride", func(t *testing.T) {
		a := &Accessor{
			ComponentType: ComponentFloat,
			Count:         3,
			Type:          TypeVec3,
		}
		obj := make(map[string]any)
		a.writeTo(obj)
		require.NotContains(t, obj, "byteStride")
	})

	t.Run("EmitsExplicitByteStride", func(t *testing.T) {
		a := &Accessor{
			ComponentType: ComponentFloat,
			Count:         3,
			Type:          TypeVec3,
			ByteStride:    16,
		}
		obj := make(map[string]any)
		a.writeTo(obj)
		require.Equal(t, 16, obj["byteStride"])
	})
}

func TestAccessorTypedDecoding(t *testing.T) {
	t.Run("Vec4s", func(t *testing.T) {
		a := &Accessor{
			BufferView:    viewOver(floatBytes(1, 2, 3, 4, 5, 6, 7, 8)),
			ComponentType: ComponentFloat,
			Count:         2,
			Type:          TypeVec4,
		}
		got, err := a.Vec4s()
		require.NoError(t, err)
		require.Equal(t, [][4]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}, got)
	})

	t.Run("Mat4s", func(t *testing.T) {
		vals := make([]float32, 16)
		for i := range vals {
			vals[i] = float32(i)
		}
		a := &Accessor{
			BufferView:    viewOver(floatBytes(vals...)),
			ComponentType: ComponentFloat,
			Count:         1,
			Type:          TypeMat4,
		}
		got, err := a.Mat4s()
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, float32(15), got[0][15])
	})

	t.Run("Float32sRejectsNonFloat", func(t *testing.T) {
		a := &Accessor{
			BufferView:    viewOver([]byte{1, 2}),
			ComponentType: ComponentUnsignedShort,
			Count:         1,
			Type:          TypeScalar,
		}
		_, err := a.Float32s()
		require.ErrorIs(t, err, ErrInvalidDocument)
	})
}
