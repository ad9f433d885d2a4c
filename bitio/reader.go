/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bitio

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader is the default implementation of huffarc.InputBitStream, the
// mirror image of Writer: an MSB-first bit reader backed by a byte buffer
// refilled from the underlying source a chunk at a time.
type Reader struct {
	closed    bool
	read      int64
	position  int // index of the next unconsumed byte in buffer
	maxPos    int // index one past the last valid byte in buffer
	availBits uint
	current   uint64
	is        io.ReadCloser
	buffer    []byte
}

// NewReader creates a bit reader over the given source. bufferSize must be
// a multiple of 8 in [1024, 1<<29].
func NewReader(stream io.ReadCloser, bufferSize uint) (*Reader, error) {
	if stream == nil {
		return nil, errors.New("bitio: nil input stream")
	}

	if bufferSize < minBufferSize || bufferSize > maxBufferSize {
		return nil, errors.Errorf("bitio: buffer size must be in [%d, %d], got %d", minBufferSize, maxBufferSize, bufferSize)
	}

	if bufferSize&7 != 0 {
		return nil, errors.Errorf("bitio: buffer size must be a multiple of 8, got %d", bufferSize)
	}

	return &Reader{
		buffer: make([]byte, bufferSize),
		is:     stream,
	}, nil
}

// ReadBit returns the next bit read from the stream, 0 or 1. Panics if
// closed or the end of the stream is reached.
func (r *Reader) ReadBit() int {
	return int(r.ReadBits(1))
}

// ReadBits reads 'length' (in [1..64]) bits from the stream, MSB-first,
// and returns them right-aligned. Panics if closed, length is out of
// range, or the end of the stream is reached before length bits are
// available.
func (r *Reader) ReadBits(length uint) uint64 {
	if length == 0 || length > 64 {
		panic(errors.Errorf("bitio: invalid bit count %d (must be in [1..64])", length))
	}

	if r.Closed() {
		panic(errors.New("bitio: stream closed"))
	}

	var res uint64

	if length <= r.availBits {
		res = r.current >> (64 - length)
		r.current <<= length
		r.availBits -= length
	} else {
		remaining := length - r.availBits
		res = 0

		if r.availBits > 0 {
			res = r.current >> (64 - r.availBits)
		}

		r.pullCurrent()

		if r.availBits < remaining {
			panic(errors.New("bitio: unexpected end of stream"))
		}

		res = (res << remaining) | (r.current >> (64 - remaining))
		r.current <<= remaining
		r.availBits -= remaining
	}

	r.read += int64(length)
	return res
}

// ReadArray reads 'count' bits into 'bits' (big-endian byte order) and
// returns count. Panics on premature end of stream.
func (r *Reader) ReadArray(bits []byte, count uint) uint {
	if r.Closed() {
		panic(errors.New("bitio: stream closed"))
	}

	if count > uint(len(bits))*8 {
		panic(errors.Errorf("bitio: invalid length %d (max %d)", count, len(bits)*8))
	}

	remaining := count
	idx := 0

	for remaining >= 8 {
		bits[idx] = byte(r.ReadBits(8))
		idx++
		remaining -= 8
	}

	if remaining > 0 {
		bits[idx] = byte(r.ReadBits(remaining)) << (8 - remaining)
	}

	return count
}

// pullCurrent refills the 64-bit accumulator from the internal buffer,
// reading more bytes from the source when the buffer is exhausted.
func (r *Reader) pullCurrent() {
	if r.position >= r.maxPos {
		r.fill()
	}

	avail := r.maxPos - r.position

	if avail >= 8 {
		r.current = binary.BigEndian.Uint64(r.buffer[r.position : r.position+8])
		r.position += 8
		r.availBits = 64
		return
	}

	if avail <= 0 {
		panic(errors.New("bitio: unexpected end of stream"))
	}

	var word uint64

	for i := 0; i < avail; i++ {
		word = (word << 8) | uint64(r.buffer[r.position+i])
	}

	word <<= uint(8 * (8 - avail))
	r.position += avail
	r.current = word
	r.availBits = uint(avail) * 8
}

// fill refills the internal byte buffer from the underlying source.
func (r *Reader) fill() {
	n, err := io.ReadFull(r.is, r.buffer)

	if n == 0 {
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			panic(errors.Wrap(err, "bitio: read failed"))
		}

		r.position = 0
		r.maxPos = 0
		return
	}

	r.position = 0
	r.maxPos = n
}

// HasMoreToRead reports whether at least one more bit can be read without
// panicking.
func (r *Reader) HasMoreToRead() bool {
	if r.closed {
		return false
	}

	if r.availBits > 0 || r.position < r.maxPos {
		return true
	}

	r.fill()
	return r.maxPos > r.position
}

// Close marks the reader closed; it does not close the underlying source.
// Safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	return nil
}

// Read returns the number of bits read so far.
func (r *Reader) Read() uint64 {
	return uint64(r.read)
}

// Closed reports whether the stream can no longer be read from.
func (r *Reader) Closed() bool {
	return r.closed
}
