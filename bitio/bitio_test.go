package bitio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func newBuf() *nopCloser {
	return &nopCloser{Buffer: &bytes.Buffer{}}
}

func TestWriteBitOrderingIsMSBFirst(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	// 1,0,1,1,0,0,0,0 -> 0xB0
	bits := []int{1, 0, 1, 1, 0, 0, 0, 0}
	for _, b := range bits {
		w.WriteBit(b)
	}

	require.NoError(t, w.Close())
	require.Equal(t, []byte{0xB0}, buf.Bytes())
}

func TestWriteBitsRightAlignedValue(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	w.WriteBits(0x1A, 5) // low 5 bits: 11010
	require.NoError(t, w.Close())

	require.Equal(t, []byte{0b11010000}, buf.Bytes())
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	values := []struct {
		v uint64
		n uint
	}{
		{1, 1}, {0, 1}, {0x3, 2}, {0xFF, 8}, {0x1FFFF, 17}, {0xDEADBEEF, 32}, {1, 1},
	}

	for _, pair := range values {
		w.WriteBits(pair.v, pair.n)
	}

	require.NoError(t, w.Close())

	r, err := NewReader(newBuf2(buf.Bytes()), minBufferSize)
	require.NoError(t, err)

	for _, pair := range values {
		got := r.ReadBits(pair.n)
		mask := uint64((1 << pair.n) - 1)
		require.Equal(t, pair.v&mask, got)
	}

	require.NoError(t, r.Close())
}

func newBuf2(b []byte) *nopCloser {
	return &nopCloser{Buffer: bytes.NewBuffer(append([]byte(nil), b...))}
}

func TestFlushZeroPadsPartialByte(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	w.WriteBits(0x5, 3) // 101
	require.NoError(t, w.Flush())
	require.Equal(t, []byte{0b10100000}, buf.Bytes())

	w.WriteBits(0x1, 1)
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0b10100000, 0b10000000}, buf.Bytes())
}

func TestWrittenTracksBitCount(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	w.WriteBits(0x3, 2)
	require.EqualValues(t, 2, w.Written())

	w.WriteBits(0xFF, 8)
	require.EqualValues(t, 10, w.Written())

	require.NoError(t, w.Close())
}

func TestWriteArrayByteAligned(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	payload := []byte("hi")
	w.WriteArray(payload, uint(len(payload))*8)
	require.NoError(t, w.Close())
	require.Equal(t, payload, buf.Bytes())
}

func TestReadArrayByteAligned(t *testing.T) {
	src := []byte("archive")
	r, err := NewReader(newBuf2(src), minBufferSize)
	require.NoError(t, err)

	out := make([]byte, len(src))
	r.ReadArray(out, uint(len(src))*8)
	require.Equal(t, src, out)
	require.NoError(t, r.Close())
}

func TestReadBitsAcrossBufferRefill(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	const n = 10000
	for i := 0; i < n; i++ {
		w.WriteBit(i & 1)
	}
	require.NoError(t, w.Close())

	r, err := NewReader(newBuf2(buf.Bytes()), minBufferSize)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		require.Equal(t, i&1, r.ReadBit())
	}
	require.NoError(t, r.Close())
}

func TestWriteBitsPanicsOnInvalidLength(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)

	require.Panics(t, func() { w.WriteBits(1, 0) })
	require.Panics(t, func() { w.WriteBits(1, 65) })
}

func TestWriteBitsPanicsAfterClose(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.Panics(t, func() { w.WriteBit(1) })
}

func TestNewWriterRejectsBadBufferSize(t *testing.T) {
	buf := newBuf()
	_, err := NewWriter(buf, 10)
	require.Error(t, err)

	_, err = NewWriter(buf, 1025)
	require.Error(t, err)

	_, err = NewWriter(nil, minBufferSize)
	require.Error(t, err)
}

func TestHasMoreToRead(t *testing.T) {
	buf := newBuf()
	w, err := NewWriter(buf, minBufferSize)
	require.NoError(t, err)
	w.WriteBits(0xAB, 8)
	require.NoError(t, w.Close())

	r, err := NewReader(newBuf2(buf.Bytes()), minBufferSize)
	require.NoError(t, err)

	require.True(t, r.HasMoreToRead())
	require.EqualValues(t, 0xAB, r.ReadBits(8))
	require.False(t, r.HasMoreToRead())
	require.NoError(t, r.Close())
}
