package inflate

// bitWriter produces DEFLATE bit streams by hand for tests.
type bitWriter struct {
	buf   []byte
	nbits uint
}

// writeBits writes the count low bits of value, least significant first.
func (w *bitWriter) writeBits(value uint32, count int) {
	for i := 0; i < count; i++ {
		w.writeBit(value >> uint(i) & 1)
	}
}

// writeCode writes a Huffman code starting with its most significant bit.
func (w *bitWriter) writeCode(c Code) {
	for i := int(c.Length) - 1; i >= 0; i-- {
		w.writeBit(uint32(c.Bits>>uint(i)) & 1)
	}
}

func (w *bitWriter) writeBit(bit uint32) {
	if w.nbits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if bit != 0 {
		w.buf[len(w.buf)-1] |= 1 << (w.nbits % 8)
	}
	w.nbits++
}

func (w *bitWriter) alignToByte() {
	w.nbits = (w.nbits + 7) / 8 * 8
}

func (w *bitWriter) writeBytes(b []byte) {
	w.alignToByte()
	w.buf = append(w.buf, b...)
	w.nbits += uint(len(b)) * 8
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}

// canonicalCodes assigns canonical codes the straightforward way: all codes of one length in
// symbol order, then shift left for the next length.
func canonicalCodes(lengths []uint8) []Code {
	codes := make([]Code, len(lengths))
	code := 0
	for length := uint8(1); length <= maxCodeLength; length++ {
		for symbol, l := range lengths {
			if l == length {
				codes[symbol] = Code{Bits: uint16(code), Length: length}
				code++
			}
		}
		code <<= 1
	}
	return codes
}

func fixedLiteralLengths() []uint8 {
	lengths := make([]uint8, 288)
	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}
	return lengths
}

// Code length code lengths used by writeDynamicHeader: 13 codes of 4 bits and 6 of 5 bits form
// a complete tree over all 19 symbols.
func metaLengths() []uint8 {
	lengths := make([]uint8, numCodeLengthCodes)
	for i := range lengths {
		if i < 13 {
			lengths[i] = 4
		} else {
			lengths[i] = 5
		}
	}
	return lengths
}

// metaSymbol is one code length code with its extra bits.
type metaSymbol struct {
	symbol    int
	extra     uint32
	extraBits int
}

// runLengthEncode expresses lengths with literal lengths and the zero-run codes 17 and 18.
func runLengthEncode(lengths []uint8) []metaSymbol {
	var out []metaSymbol
	for i := 0; i < len(lengths); {
		if lengths[i] != 0 {
			out = append(out, metaSymbol{symbol: int(lengths[i])})
			i++
			continue
		}
		run := 0
		for i+run < len(lengths) && lengths[i+run] == 0 && run < 138 {
			run++
		}
		switch {
		case run >= 11:
			out = append(out, metaSymbol{symbol: 18, extra: uint32(run - 11), extraBits: 7})
		case run >= 3:
			out = append(out, metaSymbol{symbol: 17, extra: uint32(run - 3), extraBits: 3})
		default:
			run = 1
			out = append(out, metaSymbol{symbol: 0})
		}
		i += run
	}
	return out
}

// writeMetaHeader writes HLIT, HDIST, HCLEN=15 and all 19 code length code lengths, then the
// given code length codes.
func writeMetaHeader(w *bitWriter, literalCount, distanceCount int, symbols []metaSymbol) {
	w.writeBits(uint32(literalCount-257), 5)
	w.writeBits(uint32(distanceCount-1), 5)
	w.writeBits(numCodeLengthCodes-4, 4)
	meta := metaLengths()
	for _, symbol := range codeLengthOrder {
		w.writeBits(uint32(meta[symbol]), 3)
	}
	codes := canonicalCodes(meta)
	for _, s := range symbols {
		w.writeCode(codes[s.symbol])
		w.writeBits(s.extra, s.extraBits)
	}
}

// writeDynamicHeader writes a complete dynamic block header (without BFINAL/BTYPE) for the
// given literal/length and distance code lengths.
func writeDynamicHeader(w *bitWriter, literals, distances []uint8) {
	combined := append(append([]uint8{}, literals...), distances...)
	writeMetaHeader(w, len(literals), len(distances), runLengthEncode(combined))
}

// token is a literal byte, or a back-reference when length is non-zero.
type token struct {
	literal  byte
	length   int
	distance int
}

func lengthSymbol(length int) (symbol int, extra uint32, extraBits int) {
	switch {
	case length <= 10:
		return length + 254, 0, 0
	case length == 258:
		return 285, 0, 0
	}
	for i := len(lengthBase) - 1; i >= 0; i-- {
		if length >= lengthBase[i] {
			symbol = 265 + i
			return symbol, uint32(length - lengthBase[i]), (symbol - 261) / 4
		}
	}
	panic("unreachable")
}

func distanceSymbol(distance int) (symbol int, extra uint32, extraBits int) {
	if distance <= 4 {
		return distance - 1, 0, 0
	}
	for i := len(distanceBase) - 1; i >= 0; i-- {
		if distance-1 >= distanceBase[i] {
			symbol = 4 + i
			return symbol, uint32(distance - 1 - distanceBase[i]), (symbol - 2) / 2
		}
	}
	panic("unreachable")
}

// writeTokens encodes tokens followed by end-of-block.
func writeTokens(w *bitWriter, literalCodes, distanceCodes []Code, tokens []token) {
	for _, t := range tokens {
		if t.length == 0 {
			w.writeCode(literalCodes[t.literal])
			continue
		}
		symbol, extra, extraBits := lengthSymbol(t.length)
		w.writeCode(literalCodes[symbol])
		w.writeBits(extra, extraBits)
		symbol, extra, extraBits = distanceSymbol(t.distance)
		w.writeCode(distanceCodes[symbol])
		w.writeBits(extra, extraBits)
	}
	w.writeCode(literalCodes[endOfBlock])
}

// fixedBlock encodes tokens as a single fixed Huffman block.
func fixedBlock(final bool, tokens []token) []byte {
	var w bitWriter
	writeFixedBlock(&w, final, tokens)
	return w.bytes()
}

func writeFixedBlock(w *bitWriter, final bool, tokens []token) {
	if final {
		w.writeBits(1, 1)
	} else {
		w.writeBits(0, 1)
	}
	w.writeBits(uint32(BlockFixed), 2)
	distances := make([]uint8, 32)
	for i := range distances {
		distances[i] = 5
	}
	writeTokens(w, canonicalCodes(fixedLiteralLengths()), canonicalCodes(distances), tokens)
}

func literalTokens(s string) []token {
	tokens := make([]token, len(s))
	for i := range s {
		tokens[i] = token{literal: s[i]}
	}
	return tokens
}
