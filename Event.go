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

package huffarc

import (
	"fmt"
	"time"
)

// Event types emitted by the archiver package while it drives the archive
// encoder or decoder. There is no transform/entropy-stage split here (the
// core has a single entropy stage, Huffman) and no hash event (the format
// carries no checksums); the set is trimmed to what a Huffman-only,
// single-threaded archiver actually goes through.
const (
	EvtCompressionStart   = 0 // Compression starts
	EvtDecompressionStart = 1 // Decompression starts
	EvtEntryStart         = 2 // Per-entry processing starts
	EvtEntryEnd           = 3 // Per-entry processing ends
	EvtEntrySkipped       = 4 // Entry parsed but not extracted (not in allow-list)
	EvtCompressionEnd     = 5 // Compression ends
	EvtDecompressionEnd   = 6 // Decompression ends
)

// Event describes one step of a compression or decompression run: which
// entry it concerns, how many bytes it covers, and when it happened.
type Event struct {
	eventType int
	name      string
	size      int64
	eventTime time.Time
	msg       string
}

// NewEventFromString creates an Event that simply wraps a human-readable message.
func NewEventFromString(evtType int, name, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, name: name, msg: msg, eventTime: evtTime}
}

// NewEvent creates an Event carrying an entry name and a byte count.
func NewEvent(evtType int, name string, size int64, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, name: name, size: size, eventTime: evtTime}
}

// Type returns the event type.
func (e *Event) Type() int {
	return e.eventType
}

// Name returns the archive entry name this event concerns, if any.
func (e *Event) Name() string {
	return e.name
}

// Time returns when the event occurred.
func (e *Event) Time() time.Time {
	return e.eventTime
}

// Size returns the byte count carried by the event.
func (e *Event) Size() int64 {
	return e.size
}

// String returns a human-readable representation of the event.
func (e *Event) String() string {
	if len(e.msg) > 0 {
		return e.msg
	}

	t := ""

	switch e.eventType {
	case EvtCompressionStart:
		t = "COMPRESSION_START"
	case EvtDecompressionStart:
		t = "DECOMPRESSION_START"
	case EvtEntryStart:
		t = "ENTRY_START"
	case EvtEntryEnd:
		t = "ENTRY_END"
	case EvtEntrySkipped:
		t = "ENTRY_SKIPPED"
	case EvtCompressionEnd:
		t = "COMPRESSION_END"
	case EvtDecompressionEnd:
		t = "DECOMPRESSION_END"
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"name\":%q, \"size\":%d, \"time\":%d }",
		t, e.name, e.size, e.eventTime.UnixNano()/1000000)
}

// Listener is implemented by event processors passed to archiver.Compress
// or archiver.Decompress through their options' Listeners field.
type Listener interface {
	// ProcessEvent is called whenever the listener receives an event.
	ProcessEvent(evt *Event)
}
