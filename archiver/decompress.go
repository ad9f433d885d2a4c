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
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mpetrenko/huffarc"
	"github.com/mpetrenko/huffarc/archive"
)

// DecompressOptions is the programmatic surface cmd/huffarc's "-d" mode
// builds from CLI flags, mirroring kanzi's NewBlockDecompressor(argsMap).
type DecompressOptions struct {
	// Archive is the path to read.
	Archive string
	// OutputDir is the directory extracted entries are written under;
	// defaults to the current directory when empty, per spec.md §6.2.
	OutputDir string
	// Names, if non-empty, restricts extraction to entries with exactly
	// these archive-relative names. Every entry is still parsed, per
	// spec.md §4.5's skipping policy.
	Names []string
	// Listeners receive progress events as the archive is read.
	Listeners []huffarc.Listener
	// Logger receives structured progress logging; nil uses a no-op
	// logger.
	Logger *zap.SugaredLogger
}

// Decompress extracts the selected entries of opts.Archive into
// opts.OutputDir, returning a process exit code alongside the error.
func Decompress(opts DecompressOptions) (code int, err error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	listeners := append([]huffarc.Listener{newZapListener(log)}, opts.Listeners...)

	if opts.Archive == "" {
		return huffarc.ErrMissingParam, errors.New("archiver: no archive path given")
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	notifyListeners(listeners, huffarc.NewEventFromString(huffarc.EvtDecompressionStart, "", opts.Archive, time.Time{}))

	var totalBytes int64

	decErr := archive.Decode(opts.Archive, archive.DecodeOptions{
		OutputDir:  outputDir,
		AllowList:  opts.Names,
		ExtractAll: len(opts.Names) == 0,
		OnEntryStart: func(name string) {
			notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtEntryStart, name, 0, time.Time{}))
		},
		OnEntryDone: func(done archive.DecodedEntry) {
			if !done.Extracted {
				return
			}
			totalBytes += done.OriginalLength
			notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtEntryEnd, done.Name, done.OriginalLength, time.Time{}))
		},
		OnEntrySkipped: func(name string) {
			notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtEntrySkipped, name, 0, time.Time{}))
		},
	})

	if decErr != nil {
		return decompressErrorCode(decErr), errors.Wrap(decErr, "archiver: decompress")
	}

	notifyListeners(listeners, huffarc.NewEvent(huffarc.EvtDecompressionEnd, "", totalBytes, time.Time{}))

	return 0, nil
}

// decompressErrorCode maps an archive error into the closest huffarc.Err*
// exit code.
func decompressErrorCode(err error) int {
	switch {
	case errors.Is(err, archive.ErrBadMagic), errors.Is(err, archive.ErrUnsupportedVersion), errors.Is(err, archive.ErrInvalidSymbolWidth):
		return huffarc.ErrInvalidFile
	case errors.Is(err, archive.ErrIO):
		return huffarc.ErrReadFile
	case errors.Is(err, archive.ErrUnsafeName):
		return huffarc.ErrInvalidParam
	case errors.Is(err, archive.ErrCodeTooLong), errors.Is(err, archive.ErrNonPrefixCode), errors.Is(err, archive.ErrCodeCollision), errors.Is(err, archive.ErrInvalidCodeSequence), errors.Is(err, archive.ErrUnexpectedEOF):
		return huffarc.ErrReadFile
	default:
		return huffarc.ErrUnknown
	}
}
