package huffman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountFrequencies8(t *testing.T) {
	freq, err := CountFrequencies([]byte("aabbbc"), Width8)
	require.NoError(t, err)
	require.EqualValues(t, 2, freq['a'])
	require.EqualValues(t, 3, freq['b'])
	require.EqualValues(t, 1, freq['c'])
	require.EqualValues(t, 0, freq['d'])
}

func TestCountFrequencies16EvenLength(t *testing.T) {
	freq, err := CountFrequencies([]byte{0x01, 0x02, 0x01, 0x02}, Width16)
	require.NoError(t, err)
	require.EqualValues(t, 2, freq[0x0102])
}

func TestCountFrequencies16OddLengthPads(t *testing.T) {
	freq, err := CountFrequencies([]byte{0x01, 0x02, 0x03}, Width16)
	require.NoError(t, err)
	require.EqualValues(t, 1, freq[0x0102])
	require.EqualValues(t, 1, freq[0x0300]) // trailing byte padded with 0x00
}

func TestCountFrequenciesInvalidWidth(t *testing.T) {
	_, err := CountFrequencies([]byte("x"), SymbolWidth(3))
	require.ErrorIs(t, err, ErrInvalidSymbolWidth)
}

func TestBuildEmptyAlphabet(t *testing.T) {
	freq := make([]uint64, 256)
	_, err := Build(freq)
	require.ErrorIs(t, err, ErrEmptyAlphabet)
}

func TestBuildSingleSymbol(t *testing.T) {
	freq := make([]uint64, 256)
	freq['x'] = 42

	tree, err := Build(freq)
	require.NoError(t, err)
	require.Len(t, tree.Codes, 1)
	assert.EqualValues(t, 'x', tree.Codes[0].Symbol)
	assert.EqualValues(t, 1, tree.Codes[0].Len)
	assert.EqualValues(t, 0, tree.Codes[0].Bits)
}

func TestBuildTwoSymbols(t *testing.T) {
	freq := make([]uint64, 256)
	freq['a'] = 5
	freq['b'] = 1

	tree, err := Build(freq)
	require.NoError(t, err)
	require.Len(t, tree.Codes, 2)

	for _, c := range tree.Codes {
		assert.EqualValues(t, 1, c.Len)
	}
}

func TestBuildIsPrefixFree(t *testing.T) {
	data := "the quick brown fox jumps over the lazy dog the fox runs"
	freq, err := CountFrequencies([]byte(data), Width8)
	require.NoError(t, err)

	tree, err := Build(freq)
	require.NoError(t, err)

	assertPrefixFree(t, tree.Codes)
}

func TestBuildDeterministicAcrossEqualFrequencies(t *testing.T) {
	freq := make([]uint64, 256)
	for _, s := range []byte("abcd") {
		freq[s] = 10
	}

	t1, err := Build(freq)
	require.NoError(t, err)

	t2, err := Build(freq)
	require.NoError(t, err)

	require.Equal(t, t1.Codes, t2.Codes)
}

func TestBuildShorterCodesForMoreFrequentSymbols(t *testing.T) {
	freq := make([]uint64, 256)
	freq['a'] = 100
	freq['b'] = 10
	freq['c'] = 1
	freq['d'] = 1

	tree, err := Build(freq)
	require.NoError(t, err)

	lenBySymbol := map[uint32]uint{}
	for _, c := range tree.Codes {
		lenBySymbol[c.Symbol] = c.Len
	}

	assert.LessOrEqual(t, lenBySymbol['a'], lenBySymbol['b'])
	assert.LessOrEqual(t, lenBySymbol['b'], lenBySymbol['c'])
}

// assertPrefixFree fails the test if any code in codes is a prefix of
// another — the defining property of a valid Huffman code table.
func assertPrefixFree(t *testing.T, codes []Code) {
	t.Helper()

	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}

			if isPrefix(codes[i], codes[j]) {
				t.Fatalf("code for symbol %d is a prefix of code for symbol %d", codes[i].Symbol, codes[j].Symbol)
			}
		}
	}
}

func isPrefix(a, b Code) bool {
	if a.Len >= b.Len {
		return false
	}

	return (b.Bits >> (b.Len - a.Len)) == a.Bits
}
