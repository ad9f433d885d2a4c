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
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mpetrenko/huffarc/bitio"
)

// DecodedEntry reports one entry's accounting after its payload has been
// fully consumed, whether or not it was written to disk.
type DecodedEntry struct {
	Name           string
	OriginalLength int64
	Extracted      bool
}

// DecodeOptions controls which entries of an archive are written to disk.
// Every entry is always parsed and its payload consumed in full, so the
// bit stream stays aligned for the entries that follow it (spec.md §4.5's
// skipping policy) — only the write-to-disk step is conditional.
type DecodeOptions struct {
	// OutputDir is the directory extracted files are written under. It is
	// created (mode 0755) if it does not already exist.
	OutputDir string
	// AllowList, if non-empty, restricts extraction to entries whose name
	// exactly matches one of these strings. Ignored when ExtractAll is
	// true.
	AllowList []string
	// ExtractAll, when true, writes every entry regardless of AllowList.
	ExtractAll bool
	// BufferSize is the bitio byte-buffer size; 0 selects a sane default.
	BufferSize uint
	// OnEntryStart, OnEntrySkipped and OnEntryDone, when set, fire once an
	// entry's name and original length are read, once its code table is
	// read and it turns out not to be selected, and once its payload is
	// fully consumed, respectively.
	OnEntryStart   func(name string)
	OnEntryDone    func(DecodedEntry)
	OnEntrySkipped func(name string)
}

// Decode parses the archive at path and extracts the selected entries
// under opts.OutputDir. Every entry is parsed and its payload consumed in
// full regardless of selection; a header validation failure aborts before
// any output is written. A per-entry failure to open its output file
// degrades that entry to parse-only (spec.md §4.5 step c) rather than
// aborting the whole decode.
func Decode(path string, opts DecodeOptions) (err error) {
	in, openErr := os.Open(path)
	if openErr != nil {
		return errors.Wrapf(ErrIO, "open %q: %v", path, openErr)
	}
	defer in.Close()

	bufSize := opts.BufferSize
	if bufSize == 0 {
		bufSize = defaultBufferSize
	}

	br, brErr := bitio.NewReader(in, bufSize)
	if brErr != nil {
		return errors.Wrap(ErrIO, brErr.Error())
	}
	defer br.Close()

	header, hdrErr := readHeaderRecovered(br)
	if hdrErr != nil {
		return hdrErr
	}

	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return errors.Wrapf(ErrIO, "mkdir %q: %v", opts.OutputDir, err)
	}

	allow := make(map[string]bool, len(opts.AllowList))
	for _, name := range opts.AllowList {
		allow[name] = true
	}

	symbolBits := uint(header.SymbolWidth) * 8

	for i := uint32(0); i < header.EntryCount; i++ {
		if err := decodeEntryRecovered(br, symbolBits, opts, allow); err != nil {
			return errors.Wrapf(err, "entry %d of %d", i+1, header.EntryCount)
		}
	}

	return nil
}

// readHeaderRecovered wraps readHeader so a premature-EOF panic while
// reading the 10-byte preamble is reported the same way as any other
// bitio I/O failure.
func readHeaderRecovered(br *bitio.Reader) (h Header, err error) {
	defer recoverIOPanic(&err)
	h, err = readHeader(br)
	return h, err
}

// decodeEntryRecovered wraps decodeEntry with the same panic-to-error
// conversion used on the encode side: bitio panics on a short read, this
// turns that into UnexpectedEOF (or a generic I/O error) for the caller.
func decodeEntryRecovered(br *bitio.Reader, symbolBits uint, opts DecodeOptions, allow map[string]bool) (err error) {
	defer recoverIOPanic(&err)
	return decodeEntry(br, symbolBits, opts, allow)
}

// decodeEntry reads one entry's metadata, code table, and payload in
// sequence, writing the recovered bytes to disk only if the entry is
// selected for extraction.
func decodeEntry(br *bitio.Reader, symbolBits uint, opts DecodeOptions, allow map[string]bool) error {
	nameLen := br.ReadBits(16)
	if nameLen == 0 || nameLen > MaxNameLength {
		return errors.Wrapf(ErrInvalidNameLength, "%d", nameLen)
	}

	nameBytes := make([]byte, nameLen)
	for i := range nameBytes {
		nameBytes[i] = byte(br.ReadBits(8))
	}
	name := string(nameBytes)

	originalLength := int64(br.ReadBits(64))

	if opts.OnEntryStart != nil {
		opts.OnEntryStart(name)
	}

	tableCount := br.ReadBits(16)
	trie := newDecodingTrie()

	for i := uint64(0); i < tableCount; i++ {
		symbol := uint32(br.ReadBits(symbolBits))
		codeLen := uint8(br.ReadBits(8))

		var bits uint64
		if codeLen > 0 {
			bits = br.ReadBits(uint(codeLen))
		}

		if insErr := trie.insert(symbol, codeLen, bits); insErr != nil {
			return errors.Wrapf(insErr, "entry %q code table", name)
		}
	}

	selected := opts.ExtractAll || allow[name]

	var (
		file *os.File
		out  io.Writer
	)

	if selected {
		dest, destErr := destinationPath(opts.OutputDir, name)
		// An unsafe name degrades this entry to parse-only, the same as a
		// mkdir/create failure below: the payload is still consumed to
		// keep the stream aligned for subsequent entries.
		if destErr == nil {
			if mkErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkErr == nil {
				f, createErr := os.Create(dest)
				if createErr == nil {
					file = f
					out = bufio.NewWriter(f)
				}
				// A create failure degrades this entry to parse-only: the
				// payload is still consumed below to keep the stream aligned.
			}
		}
	} else if opts.OnEntrySkipped != nil {
		opts.OnEntrySkipped(name)
	}

	payloadErr := streamPayload(br, trie, out, symbolBits, originalLength)

	// The encoder zero-pads each entry to a byte boundary; skip that
	// padding so the next entry's header is read from its first bit.
	if payloadErr == nil {
		if rem := br.Read() % 8; rem != 0 {
			br.ReadBits(uint(8 - rem))
		}
	}

	if bw, ok := out.(*bufio.Writer); ok {
		if flushErr := bw.Flush(); flushErr != nil && payloadErr == nil {
			payloadErr = errors.Wrap(ErrIO, flushErr.Error())
		}
	}

	if file != nil {
		file.Close()
	}

	if payloadErr != nil {
		return errors.Wrapf(payloadErr, "entry %q payload", name)
	}

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(DecodedEntry{Name: name, OriginalLength: originalLength, Extracted: file != nil})
	}

	return nil
}

// streamPayload decodes symbols from br via trie until originalLength
// bytes have been emitted, writing them to out when out is non-nil (a
// nil out still fully consumes the bit stream, for the skip-but-stay-
// aligned case).
func streamPayload(br *bitio.Reader, trie *decodingTrie, out io.Writer, symbolBits uint, originalLength int64) error {
	var emitted int64
	width := symbolBits / 8

	for emitted < originalLength {
		symbol, decErr := trie.decodeSymbol(br)
		if decErr != nil {
			return decErr
		}

		if width == 1 {
			if writeErr := writeByte(out, byte(symbol)); writeErr != nil {
				return writeErr
			}
			emitted++
			continue
		}

		if emitted < originalLength {
			if writeErr := writeByte(out, byte(symbol>>8)); writeErr != nil {
				return writeErr
			}
			emitted++
		}

		if emitted < originalLength {
			if writeErr := writeByte(out, byte(symbol)); writeErr != nil {
				return writeErr
			}
			emitted++
		}
	}

	return nil
}

// writeByte appends one byte to out; a nil out is a no-op (used when an
// entry is being parsed but not extracted).
func writeByte(out io.Writer, b byte) error {
	if out == nil {
		return nil
	}

	if _, err := out.Write([]byte{b}); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}

	return nil
}

// destinationPath validates name against path traversal and joins it
// under dir. Names are rejected, not silently stripped, per the hardening
// called for in spec.md §9 ("Path safety").
func destinationPath(dir, name string) (string, error) {
	clean := filepath.ToSlash(name)

	if name == "" {
		return "", errors.Wrap(ErrUnsafeName, "empty name")
	}

	if strings.HasPrefix(clean, "/") {
		return "", errors.Wrapf(ErrUnsafeName, "absolute path %q", name)
	}

	for _, segment := range strings.Split(clean, "/") {
		if segment == ".." {
			return "", errors.Wrapf(ErrUnsafeName, "parent-directory segment in %q", name)
		}
	}

	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}
