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

package archive

import (
	"os"

	"github.com/pkg/errors"

	"github.com/mpetrenko/huffarc/bitio"
	"github.com/mpetrenko/huffarc/huffman"
)

// defaultBufferSize is the bitio buffer size used when EncodeOptions and
// DecodeOptions leave BufferSize at zero.
const defaultBufferSize = 1 << 16

// SourceFile is one input to Encode: the name it will carry inside the
// archive and the absolute path to read its bytes from. Deriving these
// pairs from CLI arguments or a directory walk is the caller's job (see
// internal/files); the encoder only ever sees the resolved pairs.
type SourceFile struct {
	Name string
	Path string
}

// EncodedEntry reports the accounting for one entry just written, for
// progress listeners.
type EncodedEntry struct {
	Name            string
	OriginalLength  int64
	DistinctSymbols int
}

// EncodeOptions controls archive serialization.
type EncodeOptions struct {
	// SymbolWidth selects the Huffman alphabet: huffman.Width8 or
	// huffman.Width16.
	SymbolWidth huffman.SymbolWidth
	// BufferSize is the bitio byte-buffer size; 0 selects a sane default.
	BufferSize uint
	// OnEntryStart, if set, fires before an entry's frequency analysis
	// begins.
	OnEntryStart func(name string)
	// OnEntryDone, if set, fires once an entry's payload is fully written.
	OnEntryDone func(EncodedEntry)
}

// Encode writes one self-describing archive to outputPath, containing one
// entry per source in order. On any failure the partially written output
// file is removed and a typed error is returned; no partial archive is
// ever left on disk (spec.md §4.4's failure policy).
func Encode(sources []SourceFile, outputPath string, opts EncodeOptions) (err error) {
	if opts.SymbolWidth != huffman.Width8 && opts.SymbolWidth != huffman.Width16 {
		return errors.Wrapf(ErrInvalidSymbolWidth, "symbol width %d", opts.SymbolWidth)
	}

	bufSize := opts.BufferSize
	if bufSize == 0 {
		bufSize = defaultBufferSize
	}

	out, createErr := os.Create(outputPath)
	if createErr != nil {
		return errors.Wrapf(ErrIO, "create %q: %v", outputPath, createErr)
	}

	ok := false
	defer func() {
		if !ok {
			out.Close()
			os.Remove(outputPath)
		}
	}()

	bw, bwErr := bitio.NewWriter(out, bufSize)
	if bwErr != nil {
		return errors.Wrap(ErrIO, bwErr.Error())
	}

	if encErr := encodeArchive(bw, sources, opts); encErr != nil {
		return encErr
	}

	if closeErr := bw.Close(); closeErr != nil {
		return errors.Wrap(ErrIO, closeErr.Error())
	}

	if closeErr := out.Close(); closeErr != nil {
		return errors.Wrapf(ErrIO, "close %q: %v", outputPath, closeErr)
	}

	ok = true
	return nil
}

// encodeArchive writes the header and every entry. Bitio I/O panics on
// failure (per its documented contract); recoverIOPanic turns that into
// the named return error for Encode's caller.
func encodeArchive(bw *bitio.Writer, sources []SourceFile, opts EncodeOptions) (err error) {
	defer recoverIOPanic(&err)

	writeHeader(bw, Header{
		Version:     Version,
		SymbolWidth: uint8(opts.SymbolWidth),
		EntryCount:  uint32(len(sources)),
	})

	for _, src := range sources {
		if opts.OnEntryStart != nil {
			opts.OnEntryStart(src.Name)
		}

		written, encErr := encodeEntry(bw, src, opts.SymbolWidth)
		if encErr != nil {
			return encErr
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(written)
		}
	}

	return nil
}

// encodeEntry writes one entry: name, original length, code table, and
// payload, then flushes to a byte boundary so the next entry's header
// starts aligned (spec.md §6.1).
func encodeEntry(bw *bitio.Writer, src SourceFile, width huffman.SymbolWidth) (EncodedEntry, error) {
	if len(src.Name) == 0 || len(src.Name) > MaxNameLength {
		return EncodedEntry{}, errors.Wrapf(ErrInvalidNameLength, "name %q", src.Name)
	}

	data, readErr := os.ReadFile(src.Path)
	if readErr != nil {
		return EncodedEntry{}, errors.Wrapf(ErrIO, "read %q: %v", src.Path, readErr)
	}

	bw.WriteBits(uint64(len(src.Name)), 16)
	bw.WriteArray([]byte(src.Name), uint(len(src.Name))*8)
	bw.WriteBits(uint64(len(data)), 64)

	var codes []huffman.Code

	if len(data) > 0 {
		freq, _ := huffman.CountFrequencies(data, width)

		tree, buildErr := huffman.Build(freq)
		if buildErr != nil {
			return EncodedEntry{}, errors.Wrapf(buildErr, "entry %q", src.Name)
		}

		codes = tree.Codes
	}

	bw.WriteBits(uint64(len(codes)), 16)

	symbolBits := uint(width) * 8
	table := make(map[uint32]huffman.Code, len(codes))

	for _, c := range codes {
		bw.WriteBits(uint64(c.Symbol), symbolBits)
		bw.WriteBits(uint64(c.Len), 8)
		bw.WriteBits(c.Bits, c.Len)
		table[c.Symbol] = c
	}

	writePayload(bw, data, width, table)

	if flushErr := bw.Flush(); flushErr != nil {
		return EncodedEntry{}, errors.Wrap(ErrIO, flushErr.Error())
	}

	return EncodedEntry{Name: src.Name, OriginalLength: int64(len(data)), DistinctSymbols: len(codes)}, nil
}

// writePayload re-derives the same symbol stream the frequency pass saw
// and writes each symbol's code, MSB-first, back to back.
func writePayload(bw *bitio.Writer, data []byte, width huffman.SymbolWidth, table map[uint32]huffman.Code) {
	if width == huffman.Width8 {
		for _, b := range data {
			c := table[uint32(b)]
			bw.WriteBits(c.Bits, c.Len)
		}

		return
	}

	n := len(data)
	i := 0

	for ; i+1 < n; i += 2 {
		sym := uint32(data[i])<<8 | uint32(data[i+1])
		c := table[sym]
		bw.WriteBits(c.Bits, c.Len)
	}

	if i < n {
		sym := uint32(data[i]) << 8
		c := table[sym]
		bw.WriteBits(c.Bits, c.Len)
	}
}
