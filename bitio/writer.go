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

// Package bitio implements the bit-granular I/O layer: a byte-buffered,
// MSB-first bit writer and reader over an underlying file or stream.
package bitio

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	minBufferSize = 1024
	maxBufferSize = 1 << 29
)

// Writer is the default implementation of huffarc.OutputBitStream. Bits are
// packed MSB-first: the first bit written occupies bit 7 of the first byte.
// It keeps a 64-bit accumulator ('current') so that WriteBits for spans up
// to 64 bits needs no loop, and only touches the underlying sink a buffer
// at a time.
type Writer struct {
	closed    bool
	written   int64
	position  int    // index of the next free byte in buffer
	availBits uint   // bits still free in 'current'
	current   uint64 // cached bits, left to fill
	os        io.WriteCloser
	buffer    []byte
}

// NewWriter creates a bit writer over the given sink. bufferSize must be a
// multiple of 8 in [1024, 1<<29].
func NewWriter(stream io.WriteCloser, bufferSize uint) (*Writer, error) {
	if stream == nil {
		return nil, errors.New("bitio: nil output stream")
	}

	if bufferSize < minBufferSize || bufferSize > maxBufferSize {
		return nil, errors.Errorf("bitio: buffer size must be in [%d, %d], got %d", minBufferSize, maxBufferSize, bufferSize)
	}

	if bufferSize&7 != 0 {
		return nil, errors.Errorf("bitio: buffer size must be a multiple of 8, got %d", bufferSize)
	}

	w := &Writer{
		buffer:    make([]byte, bufferSize),
		os:        stream,
		availBits: 64,
	}

	return w, nil
}

// WriteBit writes the least significant bit of b. Panics if the stream is
// closed or an I/O error occurs while flushing the internal buffer.
func (w *Writer) WriteBit(b int) {
	w.WriteBits(uint64(b&1), 1)
}

// WriteBits writes the low 'count' bits of value, MSB-first. count must be
// in [1, 64]. Returns count. Panics if the stream is closed, count is out
// of range, or an I/O error occurs while flushing.
func (w *Writer) WriteBits(value uint64, count uint) uint {
	if count == 0 || count > 64 {
		panic(errors.Errorf("bitio: invalid bit count %d (must be in [1..64])", count))
	}

	if w.Closed() {
		panic(errors.New("bitio: stream closed"))
	}

	masked := value
	if count < 64 {
		masked &= (uint64(1) << count) - 1
	}

	w.current |= (masked << (64 - count)) >> (64 - w.availBits)

	if count >= w.availBits {
		remaining := count - w.availBits
		w.push(w.current)
		if remaining == 0 {
			w.current = 0
			w.availBits = 64
		} else {
			w.current = masked << (64 - remaining)
			w.availBits = 64 - remaining
		}
	} else {
		w.availBits -= count
	}

	return count
}

// WriteArray writes the first 'count' bits of 'bits' (big-endian byte
// order, most significant bit of each byte first), returning count. Used
// for byte runs such as entry names.
func (w *Writer) WriteArray(bits []byte, count uint) uint {
	if w.Closed() {
		panic(errors.New("bitio: stream closed"))
	}

	if count > uint(len(bits))*8 {
		panic(errors.Errorf("bitio: invalid length %d (max %d)", count, len(bits)*8))
	}

	remaining := count
	idx := 0

	for remaining >= 8 {
		w.WriteBits(uint64(bits[idx]), 8)
		idx++
		remaining -= 8
	}

	if remaining > 0 {
		w.WriteBits(uint64(bits[idx])>>(8-remaining), remaining)
	}

	return count
}

// push appends a 64-bit word to the internal buffer, flushing it to the
// sink when it fills up.
func (w *Writer) push(val uint64) {
	if w.position > len(w.buffer)-8 {
		if err := w.flushBuffer(); err != nil {
			panic(err)
		}
	}

	binary.BigEndian.PutUint64(w.buffer[w.position:w.position+8], val)
	w.position += 8
}

// flushBuffer writes any buffered bytes to the underlying sink. It does
// not touch a partial byte still held in the bit accumulator.
func (w *Writer) flushBuffer() error {
	if w.position > 0 {
		if _, err := w.os.Write(w.buffer[:w.position]); err != nil {
			return errors.Wrap(err, "bitio: write failed")
		}

		w.written += int64(w.position) << 3
		w.position = 0
	}

	return nil
}

// Flush forces any partially filled byte out of the bit accumulator,
// zero-padding its low bits, so the stream sits on a byte boundary, then
// writes the buffered bytes to the underlying sink. Safe to call when
// already byte-aligned. This is the per-entry flush the archive format
// requires between entries (see archive.Encode).
func (w *Writer) Flush() error {
	if w.closed {
		return errors.New("bitio: stream closed")
	}

	for w.availBits&7 != 0 {
		// Pad out to the next byte boundary with zero bits.
		w.WriteBit(0)
	}

	if w.availBits < 64 {
		if w.position > len(w.buffer)-8 {
			if err := w.flushBuffer(); err != nil {
				return err
			}
		}

		shift := uint(56)

		for w.availBits < 64 {
			w.buffer[w.position] = byte(w.current >> shift)
			w.position++
			w.availBits += 8
			shift -= 8
		}

		w.current = 0
	}

	return w.flushBuffer()
}

// Close flushes any pending partial byte and the internal buffer, then
// marks the stream closed. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	if err := w.Flush(); err != nil {
		return err
	}

	w.closed = true
	w.buffer = nil
	return nil
}

// Written returns the number of bits written so far, including the partial
// byte currently held in the accumulator.
func (w *Writer) Written() uint64 {
	return uint64(w.written) + uint64(w.position)<<3 + uint64(64-w.availBits)
}

// Closed reports whether the stream can no longer be written to.
func (w *Writer) Closed() bool {
	return w.closed
}
