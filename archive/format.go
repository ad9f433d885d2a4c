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

// Package archive implements the archive container format: the fixed
// header, per-entry metadata and code table, and the bit-granular
// payload, plus the encoder and decoder that produce and consume it.
package archive

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// Magic is the four-byte archive signature.
	Magic = "HUFF"

	// Version is the only archive format version this package writes or
	// accepts.
	Version = 0x01

	// HeaderSize is the fixed size, in bytes, of the archive header:
	// 4 (magic) + 1 (version) + 1 (symbol_width) + 4 (entry_count).
	HeaderSize = 10

	// MaxNameLength bounds a stored entry name, mirroring a conservative
	// PATH_MAX.
	MaxNameLength = 4096
)

// Error kinds surfaced by the archive format, matching spec.md's error
// handling design one-for-one. Wrapped with errors.Wrap/Wrapf at the I/O
// boundary that detects them so callers can both errors.Is the sentinel
// and see the full cause chain.
var (
	ErrBadMagic            = errors.New("archive: bad magic")
	ErrUnsupportedVersion  = errors.New("archive: unsupported version")
	ErrInvalidSymbolWidth  = errors.New("archive: invalid symbol width")
	ErrInvalidNameLength   = errors.New("archive: invalid name length")
	ErrCodeTooLong         = errors.New("archive: code length exceeds 64 bits")
	ErrNonPrefixCode       = errors.New("archive: non-prefix code in table")
	ErrCodeCollision       = errors.New("archive: duplicate code in table")
	ErrInvalidCodeSequence = errors.New("archive: decode trie reached a missing child")
	ErrUnexpectedEOF       = errors.New("archive: unexpected end of bit stream")
	ErrUnsafeName          = errors.New("archive: entry name is absolute or escapes output directory")
	ErrIO                  = errors.New("archive: I/O error")
)

// Header is the fixed archive preamble.
type Header struct {
	Version     uint8
	SymbolWidth uint8
	EntryCount  uint32
}

// bitWriter is the surface format writers need; satisfied by *bitio.Writer.
type bitWriter interface {
	WriteBits(value uint64, count uint) uint
	Flush() error
}

// writeHeader emits the fixed 10-byte archive preamble: magic, version,
// symbol width, and entry count, each written MSB-first through w. Panics
// (via w) on a write failure; callers recover at the Encode boundary.
func writeHeader(w bitWriter, h Header) {
	for i := 0; i < len(Magic); i++ {
		w.WriteBits(uint64(Magic[i]), 8)
	}

	w.WriteBits(uint64(h.Version), 8)
	w.WriteBits(uint64(h.SymbolWidth), 8)
	w.WriteBits(uint64(h.EntryCount), 32)
}

// readHeader parses and validates the fixed archive preamble from r,
// returning a typed error (BadMagic, UnsupportedVersion,
// InvalidSymbolWidth) on any mismatch. Panics (via r) on a read failure;
// callers recover at the Decode boundary.
func readHeader(r bitReader64) (Header, error) {
	magic := make([]byte, len(Magic))
	for i := range magic {
		magic[i] = byte(r.ReadBits(8))
	}

	if string(magic) != Magic {
		return Header{}, errors.Wrapf(ErrBadMagic, "got %q", magic)
	}

	version := uint8(r.ReadBits(8))
	if version != Version {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}

	symbolWidth := uint8(r.ReadBits(8))
	if symbolWidth != 1 && symbolWidth != 2 {
		return Header{}, errors.Wrapf(ErrInvalidSymbolWidth, "symbol width %d", symbolWidth)
	}

	entryCount := uint32(r.ReadBits(32))

	return Header{Version: version, SymbolWidth: symbolWidth, EntryCount: entryCount}, nil
}

// bitReader64 is the surface format readers need; satisfied by
// *bitio.Reader. Named distinctly from trie.go's bitReader (ReadBit only)
// since header/metadata parsing needs multi-bit reads.
type bitReader64 interface {
	ReadBits(length uint) uint64
}

// recoverIOPanic converts a panic raised by the bitio package (which
// signals I/O and end-of-stream conditions by panicking, per
// huffarc.InputBitStream/OutputBitStream's documented contract) into a
// returned error. UnexpectedEOF is distinguished from a generic I/O
// failure by the panic message bitio.Reader uses for premature end of
// stream. Call via `defer recoverIOPanic(&err)` at the Encode/Decode
// boundary, mirroring the top-level recover in kanzi's app.compress and
// app.decompress.
func recoverIOPanic(err *error) {
	r := recover()
	if r == nil {
		return
	}

	cause, ok := r.(error)
	if !ok {
		panic(r)
	}

	if strings.Contains(cause.Error(), "unexpected end of stream") {
		*err = errors.Wrap(ErrUnexpectedEOF, cause.Error())
		return
	}

	*err = errors.Wrap(ErrIO, cause.Error())
}
