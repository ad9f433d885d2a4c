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

// Command huffarc is the CLI surface for the Huffman archiver: argument
// parsing, output-path bookkeeping and verbosity are its job (spec.md
// §6.2); the archiver package does everything else.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mpetrenko/huffarc/archiver"
	"github.com/mpetrenko/huffarc/huffman"
)

var (
	compressFlag   bool
	decompressFlag bool
	output         string
	symbolWidth    int
	overwrite      bool
	verbose        bool
	noDotFiles     bool
	noLinks        bool
	include        []string
	exclude        []string
	sortBySize     bool
)

func main() {
	root := &cobra.Command{
		Use:           "huffarc [flags] <paths...>",
		Short:         "Huffman-coding archiver",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().BoolVarP(&compressFlag, "compress", "c", false, "compress the given files/directories into an archive")
	root.Flags().BoolVarP(&decompressFlag, "decompress", "d", false, "decompress an archive")
	root.Flags().StringVarP(&output, "output", "o", "", "output archive path (-c) or output directory (-d, default: current directory)")
	root.Flags().IntVarP(&symbolWidth, "symbol-size", "s", 1, "Huffman symbol width in bytes, 1 or 2 (compression only)")
	root.Flags().BoolVar(&overwrite, "overwrite", false, "allow overwriting an existing archive")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug-level) progress logging")
	root.Flags().BoolVar(&noDotFiles, "no-dotfiles", false, "skip dotfiles when walking a directory (compression only)")
	root.Flags().BoolVar(&noLinks, "no-links", false, "skip symlinks when walking a directory (compression only)")
	root.Flags().StringSliceVar(&include, "include", nil, "only include paths matching this glob (compression only, repeatable)")
	root.Flags().StringSliceVar(&exclude, "exclude", nil, "exclude paths matching this glob (compression only, repeatable)")
	root.Flags().BoolVar(&sortBySize, "sort-by-size", false, "group gathered files by directory, largest first, before encoding (compression only)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "huffarc:", err)
		os.Exit(exitCodeFor(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	if compressFlag == decompressFlag {
		return fmt.Errorf("exactly one of -c or -d is required")
	}

	log := newLogger(verbose)
	defer log.Sync() //nolint:errcheck

	if compressFlag {
		return runCompress(args, log)
	}

	return runDecompress(args, log)
}

func runCompress(args []string, log *zap.SugaredLogger) error {
	if output == "" {
		return fmt.Errorf("-o is required with -c")
	}

	if len(args) == 0 {
		return fmt.Errorf("at least one input path is required with -c")
	}

	code, err := archiver.Compress(archiver.CompressOptions{
		Inputs:         args,
		Output:         output,
		SymbolWidth:    huffman.SymbolWidth(symbolWidth),
		Overwrite:      overwrite,
		IgnoreDotfiles: noDotFiles,
		IgnoreSymlinks: noLinks,
		Include:        include,
		Exclude:        exclude,
		SortBySize:     sortBySize,
		Logger:         log,
	})

	return wrapExit(code, err)
}

func runDecompress(args []string, log *zap.SugaredLogger) error {
	if len(args) == 0 {
		return fmt.Errorf("an archive path is required with -d")
	}

	code, err := archiver.Decompress(archiver.DecompressOptions{
		Archive:   args[0],
		OutputDir: output,
		Names:     args[1:],
		Logger:    log,
	})

	return wrapExit(code, err)
}

// exitErr carries the archiver-assigned process exit code alongside the
// human-readable error, the way kanzi's compress()/decompress() return an
// int code that main() turns into os.Exit.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func wrapExit(code int, err error) error {
	if err == nil {
		return nil
	}

	return &exitErr{code: code, err: err}
}

func exitCodeFor(err error) int {
	var e *exitErr
	if ok := asExitErr(err, &e); ok {
		return e.code
	}

	return 1
}

func asExitErr(err error, target **exitErr) bool {
	for err != nil {
		if e, ok := err.(*exitErr); ok {
			*target = e
			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}

		err = u.Unwrap()
	}

	return false
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()

	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}

	return logger.Sugar()
}
