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

package archiver

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mpetrenko/huffarc"
	"github.com/mpetrenko/huffarc/archive"
	"github.com/mpetrenko/huffarc/huffman"
	"github.com/mpetrenko/huffarc/internal/files"
)

// CompressOptions is the programmatic surface cmd/huffarc's "-c" mode
// builds from CLI flags, mirroring kanzi's NewBlockCompressor(argsMap)
// entry point but as a typed struct rather than a map[string]any.
type CompressOptions struct {
	// Inputs is one or more file or directory paths. A directory is
	// walked recursively; every input becomes one or more archive entries.
	Inputs []string
	// Output is the archive path to create.
	Output string
	// SymbolWidth selects the Huffman alphabet (huffman.Width8 by
	// default when left at the zero value).
	SymbolWidth huffman.SymbolWidth
	// Overwrite allows replacing an existing Output path.
	Overwrite bool
	// IgnoreDotfiles and IgnoreSymlinks are forwarded to the directory
	// walk (internal/files.GatherOptions).
	IgnoreDotfiles bool
	IgnoreSymlinks bool
	// Include and Exclude are doublestar glob filters forwarded to the
	// directory walk.
	Include []string
	Exclude []string
	// SortBySize reorders gathered entries by directory then decreasing
	// size before encoding; forwarded to internal/files.GatherOptions.
	SortBySize bool
	// Listeners receive progress events as the archive is written.
	Listeners []huffarc.Listener
	// Logger receives structured progress logging; nil uses a no-op
	// logger.
	Logger *zap.SugaredLogger
}

// Compress gathers opts.Inputs into archive entries and writes a single
// archive to opts.Output. It returns a process exit code (see
// huffarc.go's Err* constants) alongside the error, for a CLI caller that
// wants os.Exit(code) without re-deriving it from the error.
func Compress(opts CompressOptions) (code int, err error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	listeners := append([]huffarc.Listener{newZapListener(log)}, opts.Listeners...)

	if len(opts.Inputs) == 0 {
		return huffarc.ErrMissingParam, errors.New("archiver: no input paths given")
	}

	if opts.Output == "" {
		return huffarc.ErrMissingParam, errors.New("archiver: no output path given")
	}

	if !opts.Overwrite {
		if _, statErr := os.Stat(opts.Output); statErr == nil {
			return huffarc.ErrOverwriteFile, errors.Errorf("archiver: %q already exists (use Overwrite)", opts.Output)
		}
	}

	width := opts.SymbolWidth
	if width == 0 {
		width = huffman.Width8
	}

	if width != huffman.Width8 && width != huffman.Width16 {
		return huffarc.ErrInvalidParam, errors.Errorf("archiver: invalid symbol width %d", width)
	}

	entries, gatherErr := files.Gather(opts.Inputs, files.GatherOptions{
		IgnoreDotfiles: opts.IgnoreDotfiles,
		IgnoreSymlinks: opts.IgnoreSymlinks,
		Include:        opts.Include,
		Exclude:        opts.Exclude,
		SortBySize:     opts.SortBySize,
	})
	if gatherErr != nil {
		return huffarc.ErrOpenFile, errors.Wrap(gatherErr, "archiver: gather inputs")
	}

	if len(entries) == 0 {
		return huffarc.ErrInvalidParam, errors.New("archiver: input paths resolved to zero files")
	}

	sources := make([]archive.SourceFile, 0, len(entries))
	for _, e := range entries {
		if _, sanErr := files.SanitizeArchiveName(e.ArchiveName); sanErr != nil {
			return huffarc.ErrInvalidParam, errors.Wrapf(sanErr, "archiver: entry %q", e.ArchiveName)
		}

		sources = append(sources, archive.SourceFile{Name: e.ArchiveName, Path: e.AbsPath})
	}

	notifyListeners(listeners, huffarc.NewEventFromString(huffarc.EvtCompressionStart, "", opts.Output, time.Time{}))

	var totalBytes int64

	encErr := archive.Encode(sources, opts.Output, archive.EncodeOptions{
		SymbolWidth: width,
		OnEntryStart: func(name string) {
			notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtEntryStart, name, 0, time.Time{}))
		},
		OnEntryDone: func(done archive.EncodedEntry) {
			totalBytes += done.OriginalLength
			notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtEntryEnd, done.Name, done.OriginalLength, time.Time{}))
		},
	})

	if encErr != nil {
		return compressErrorCode(encErr), errors.Wrap(encErr, "archiver: compress")
	}

	notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtCompressionEnd, "", totalBytes, time.Time{}))

	return 0, nil
}

// compressErrorCode maps an archive/huffman error into the closest
// huffarc.Err* exit code, the way kanzi's compress() maps kanzi.ERR_*
// constants from whatever stage failed.
func compressErrorCode(err error) int {
	switch {
	case errors.Is(err, archive.ErrIO):
		return huffarc.ErrWriteFile
	case errors.Is(err, huffman.ErrCodeTooLong), errors.Is(err, archive.ErrCodeTooLong):
		return huffarc.ErrCreateCodec
	case errors.Is(err, archive.ErrInvalidNameLength):
		return huffarc.ErrInvalidParam
	default:
		return huffarc.ErrUnknown
	}
}
