package inflate

import (
	"errors"
	"fmt"
)

const maxCodeLength = 15

var (
	errOversubscribed = errors.New("oversubscribed code lengths")
	errBadRanges      = errors.New("code length ranges out of order")
)

// CodeLengthRange states that every symbol after the previous range's End, up to and including End,
// has code length BitLength.
type CodeLengthRange struct {
	End       int
	BitLength uint8
}

// Code is the canonical code assigned to a symbol. Bits holds the code with its first bit as the
// most significant of Length bits.
type Code struct {
	Bits   uint16
	Length uint8
}

type treeNode struct {
	// Index of the child reached by a 0 or 1 bit; 0 means absent since the root is never a child.
	children [2]int32
	// Decoded symbol for leaves, -1 for internal nodes
	symbol int32
}

// Tree is a canonical Huffman decoding trie stored in a flat arena with the root at index 0.
// A Tree is immutable once built and can be shared between decoders.
type Tree struct {
	nodes []treeNode
	codes []Code
}

// NewTreeFromLengths builds a tree for an alphabet of len(lengths) symbols, where lengths[i] is the
// code length of symbol i and 0 marks an unused symbol.
func NewTreeFromLengths(lengths []uint8) (*Tree, error) {
	return NewTree(compressRanges(lengths))
}

// compressRanges turns a per-symbol length array into runs of equal length.
func compressRanges(lengths []uint8) []CodeLengthRange {
	var ranges []CodeLengthRange
	for i, length := range lengths {
		if len(ranges) > 0 && ranges[len(ranges)-1].BitLength == length {
			ranges[len(ranges)-1].End = i
			continue
		}
		ranges = append(ranges, CodeLengthRange{End: i, BitLength: length})
	}
	return ranges
}

// NewTree assigns canonical codes (RFC 1951 section 3.2.2) to the symbols described by ranges,
// which must be sorted by End, and inserts them into a trie.
func NewTree(ranges []CodeLengthRange) (*Tree, error) {
	var blCount [maxCodeLength + 1]int
	var maxLength uint8
	previousEnd := -1
	for _, r := range ranges {
		if r.End <= previousEnd {
			return nil, errBadRanges
		}
		if r.BitLength > maxCodeLength {
			return nil, fmt.Errorf("code length %d exceeds %d", r.BitLength, maxCodeLength)
		}
		blCount[r.BitLength] += r.End - previousEnd
		if r.BitLength > maxLength {
			maxLength = r.BitLength
		}
		previousEnd = r.End
	}
	blCount[0] = 0

	var nextCode [maxCodeLength + 1]int
	code := 0
	for bits := 1; bits <= int(maxLength); bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	t := &Tree{
		nodes: make([]treeNode, 1, 2*(previousEnd+1)+1),
		codes: make([]Code, previousEnd+1),
	}
	t.nodes[0].symbol = -1

	symbol := 0
	for _, r := range ranges {
		for ; symbol <= r.End; symbol++ {
			if r.BitLength == 0 {
				continue
			}
			length := r.BitLength
			if nextCode[length] >= 1<<length {
				return nil, errOversubscribed
			}
			c := Code{Bits: uint16(nextCode[length]), Length: length}
			nextCode[length]++
			if err := t.insert(c, symbol); err != nil {
				return nil, err
			}
			t.codes[symbol] = c
		}
	}
	return t, nil
}

func (t *Tree) insert(c Code, symbol int) error {
	node := int32(0)
	for i := int(c.Length) - 1; i >= 0; i-- {
		if t.nodes[node].symbol >= 0 {
			return errOversubscribed
		}
		bit := (c.Bits >> uint(i)) & 1
		next := t.nodes[node].children[bit]
		if next == 0 {
			next = int32(len(t.nodes))
			t.nodes = append(t.nodes, treeNode{symbol: -1})
			t.nodes[node].children[bit] = next
		}
		node = next
	}
	leaf := &t.nodes[node]
	if leaf.symbol >= 0 || leaf.children != [2]int32{} {
		return errOversubscribed
	}
	leaf.symbol = int32(symbol)
	return nil
}

// Decode walks the trie one bit at a time and returns the symbol at the leaf reached.
func (t *Tree) Decode(br *BitReader) (int, error) {
	node := int32(0)
	for {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		next := t.nodes[node].children[bit]
		if next == 0 {
			return 0, newError(KindCorruptHuffmanCode, br.BitOffset(), "no code for bit sequence")
		}
		if t.nodes[next].symbol >= 0 {
			return int(t.nodes[next].symbol), nil
		}
		node = next
	}
}

// Code returns the code assigned to symbol; ok is false for unused or out-of-range symbols.
func (t *Tree) Code(symbol int) (c Code, ok bool) {
	if symbol < 0 || symbol >= len(t.codes) {
		return Code{}, false
	}
	c = t.codes[symbol]
	return c, c.Length != 0
}

// AlphabetSize is the number of symbols the tree was built for, used or not.
func (t *Tree) AlphabetSize() int {
	return len(t.codes)
}
