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

// Package archiver orchestrates the archive package's encoder and decoder
// on behalf of a CLI or library caller: it gathers input files, wires
// progress events, and turns archive/huffman errors into process exit
// codes. The archive/huffman/bitio packages are the core; this package
// (like kanzi's app package) is glue.
package archiver

import (
	"go.uber.org/zap"

	"github.com/mpetrenko/huffarc"
)

// zapListener adapts huffarc.Listener to a structured zap logger, the way
// kanzi's InfoPrinter adapts the same Listener interface to a plain
// io.Writer — except progress here is leveled structured logging instead
// of hand-formatted CSV/table rows.
type zapListener struct {
	log *zap.SugaredLogger
}

// newZapListener wraps log, or a no-op logger if log is nil.
func newZapListener(log *zap.SugaredLogger) *zapListener {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &zapListener{log: log}
}

// ProcessEvent implements huffarc.Listener.
func (z *zapListener) ProcessEvent(evt *huffarc.Event) {
	fields := []any{"time", evt.Time()}

	if evt.Name() != "" {
		fields = append(fields, "entry", evt.Name())
	}

	if evt.Size() > 0 {
		fields = append(fields, "bytes", evt.Size())
	}

	switch evt.Type() {
	case huffarc.EvtCompressionStart, huffarc.EvtDecompressionStart:
		z.log.Infow(evt.String(), fields...)
	case huffarc.EvtEntryStart:
		z.log.Debugw("entry start", fields...)
	case huffarc.EvtEntryEnd:
		z.log.Debugw("entry done", fields...)
	case huffarc.EvtEntrySkipped:
		z.log.Infow("entry skipped (not selected for extraction)", fields...)
	case huffarc.EvtCompressionEnd, huffarc.EvtDecompressionEnd:
		z.log.Infow(evt.String(), fields...)
	default:
		z.log.Debugw(evt.String())
	}
}

// notifyListeners fans evt out to every listener, swallowing a panicking
// listener the same way kanzi's notifyBCListeners/notifyBDListeners do —
// one misbehaving listener must not abort the archive operation it is
// merely observing.
func notifyListeners(listeners []huffarc.Listener, evt *huffarc.Event) {
	for _, l := range listeners {
		notifyOne(l, evt)
	}
}

func notifyOne(l huffarc.Listener, evt *huffarc.Event) {
	defer func() {
		//lint:ignore SA9003 a listener panic must not abort the archive operation
		// nolint:staticcheck
		recover()
	}()

	l.ProcessEvent(evt)
}
