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

package huffman

import (
	"container/heap"

	"github.com/pkg/errors"
)

// ErrCodeTooLong is returned when a symbol's code length would exceed 64
// bits (a pathological, astronomically unlikely input shape for a
// reasonably sized alphabet, but checked rather than assumed away).
var ErrCodeTooLong = errors.New("huffman: code length exceeds 64 bits")

// ErrEmptyAlphabet is returned when CountFrequencies found no symbols at
// all (an empty file): there is nothing to build a tree over.
var ErrEmptyAlphabet = errors.New("huffman: no symbols to encode")

// Code is one symbol's Huffman code: the low Len bits of Bits, MSB-first.
type Code struct {
	Symbol uint32
	Bits   uint64
	Len    uint
}

// node is one node of the Huffman tree, used only while building it; the
// finished artifact exposed to callers is the flat Code table plus the
// Decoder trie built from it (see archive/trie.go).
type node struct {
	freq   uint64
	symbol uint32 // meaningful only for leaves
	leaf   bool
	left   *node
	right  *node
}

// nodeHeap is a container/heap min-heap ordered by (freq, symbol) so that
// ties are broken deterministically by symbol value, independent of
// insertion order — this is the fix for the "tie-break determinism" open
// question: the smaller symbol value sorts first among equal frequencies.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}

	return h.tiebreakSymbol(i) < h.tiebreakSymbol(j)
}

// tiebreakSymbol returns the smallest symbol value reachable from a node,
// so that internal nodes (which have no symbol of their own) compare using
// the smallest leaf below them. This keeps tree shape fully determined by
// (frequency, symbol) alone, regardless of merge order.
func (h nodeHeap) tiebreakSymbol(i int) uint32 {
	return smallestSymbol(h[i])
}

func smallestSymbol(n *node) uint32 {
	for !n.leaf {
		n = n.left
	}

	return n.symbol
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*node))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Tree is a built Huffman tree together with its code table, in which each
// code is the leaf's root-to-leaf path (not a canonical Huffman code).
type Tree struct {
	root  *node
	Codes []Code // sorted by Symbol ascending
}

// Build constructs a Huffman tree from symbol frequencies and returns the
// per-symbol code table. Symbols with zero frequency are excluded from the
// tree. Two degenerate cases are handled explicitly, per the archiver's
// contract:
//
//   - Exactly one distinct symbol: that symbol is assigned code length 1,
//     code value 0 (there is no tree shape to traverse; a single-node
//     "tree" is not a prefix code by itself).
//   - Zero distinct symbols (empty input): ErrEmptyAlphabet.
func Build(freq []uint64) (*Tree, error) {
	symbols := DistinctSymbols(freq)

	if len(symbols) == 0 {
		return nil, ErrEmptyAlphabet
	}

	if len(symbols) == 1 {
		sym := symbols[0]
		leaf := &node{freq: freq[sym], symbol: sym, leaf: true}
		return &Tree{
			root:  leaf,
			Codes: []Code{{Symbol: sym, Bits: 0, Len: 1}},
		}, nil
	}

	h := make(nodeHeap, 0, len(symbols))

	for _, sym := range symbols {
		h = append(h, &node{freq: freq[sym], symbol: sym, leaf: true})
	}

	heap.Init(&h)

	for h.Len() > 1 {
		a := heap.Pop(&h).(*node)
		b := heap.Pop(&h).(*node)

		// Keep the smaller-symbol subtree on the left so smallestSymbol
		// and code assignment agree on which branch is "first".
		if smallestSymbol(b) < smallestSymbol(a) {
			a, b = b, a
		}

		parent := &node{freq: a.freq + b.freq, left: a, right: b}
		heap.Push(&h, parent)
	}

	root := heap.Pop(&h).(*node)
	codes := make([]Code, 0, len(symbols))

	if err := assignCodes(root, 0, 0, &codes); err != nil {
		return nil, err
	}

	sortCodesBySymbol(codes)

	return &Tree{root: root, Codes: codes}, nil
}

// assignCodes walks the tree assigning each leaf its path from the root:
// 0 for a left branch, 1 for a right branch, MSB-first.
func assignCodes(n *node, bits uint64, depth uint, out *[]Code) error {
	if n.leaf {
		if depth == 0 {
			// Unreachable: Build handles the single-symbol case separately,
			// so every leaf reached here has depth >= 1.
			depth = 1
		}

		*out = append(*out, Code{Symbol: n.symbol, Bits: bits, Len: depth})
		return nil
	}

	if depth >= 64 {
		return ErrCodeTooLong
	}

	if err := assignCodes(n.left, bits<<1, depth+1, out); err != nil {
		return err
	}

	return assignCodes(n.right, (bits<<1)|1, depth+1, out)
}

func sortCodesBySymbol(codes []Code) {
	// Small alphabets (<=65536 entries): insertion sort is plenty, and
	// keeps this package dependency-free of sort.Slice's reflection-free
	// but still indirect call overhead for the common 8-bit case.
	for i := 1; i < len(codes); i++ {
		j := i
		for j > 0 && codes[j-1].Symbol > codes[j].Symbol {
			codes[j-1], codes[j] = codes[j], codes[j-1]
			j--
		}
	}
}
