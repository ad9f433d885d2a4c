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

// Package huffman builds Huffman trees and code tables over
// 8-bit or 16-bit symbol alphabets, by full-pass frequency analysis and a
// binary min-heap.
package huffman

import "github.com/pkg/errors"

// SymbolWidth is the width, in bytes, of one alphabet symbol: 1 or 2.
type SymbolWidth uint

const (
	// Width8 treats every byte of input as its own symbol (256-entry alphabet).
	Width8 SymbolWidth = 1
	// Width16 groups input bytes two at a time, big-endian, into a
	// 65536-entry alphabet. An odd-length input is padded with a single
	// trailing 0x00 byte, which the decoder must discard based on the
	// recorded original length.
	Width16 SymbolWidth = 2
)

// ErrInvalidSymbolWidth is returned when a SymbolWidth other than 1 or 2 is
// requested.
var ErrInvalidSymbolWidth = errors.New("huffman: symbol width must be 1 or 2")

// CountFrequencies performs a full pass over data and returns the
// occurrence count of every symbol of the given width. The returned slice
// has length 256 for Width8 or 65536 for Width16, indexed by symbol value.
//
// For Width16, data is consumed two bytes at a time, most-significant byte
// first; if len(data) is odd, a trailing 0x00 byte is assumed, exactly as
// the archive format pads odd-length payloads (see archive/encoder.go).
func CountFrequencies(data []byte, width SymbolWidth) ([]uint64, error) {
	switch width {
	case Width8:
		return countFrequencies8(data), nil
	case Width16:
		return countFrequencies16(data), nil
	default:
		return nil, ErrInvalidSymbolWidth
	}
}

// countFrequencies8 counts single-byte symbols. Unrolled four ways, in the
// style of kanzi's ComputeHistogram, to cut loop overhead on large inputs.
func countFrequencies8(data []byte) []uint64 {
	freq := make([]uint64, 256)
	n := len(data)
	i := 0

	for ; i+4 <= n; i += 4 {
		freq[data[i]]++
		freq[data[i+1]]++
		freq[data[i+2]]++
		freq[data[i+3]]++
	}

	for ; i < n; i++ {
		freq[data[i]]++
	}

	return freq
}

// countFrequencies16 counts two-byte, big-endian symbols, padding a final
// odd byte with 0x00.
func countFrequencies16(data []byte) []uint64 {
	freq := make([]uint64, 65536)
	n := len(data)
	i := 0

	for ; i+1 < n; i += 2 {
		sym := uint16(data[i])<<8 | uint16(data[i+1])
		freq[sym]++
	}

	if i < n {
		sym := uint16(data[i]) << 8
		freq[sym]++
	}

	return freq
}

// DistinctSymbols returns the symbol values that occur at least once in
// freq, in ascending order.
func DistinctSymbols(freq []uint64) []uint32 {
	var symbols []uint32

	for sym, count := range freq {
		if count > 0 {
			symbols = append(symbols, uint32(sym))
		}
	}

	return symbols
}
