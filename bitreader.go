package inflate

// BitReader extracts bits from an in-memory buffer, least significant bit of each byte first.
// The cursor only moves forward.
type BitReader struct {
	data []byte

	// Index of the byte holding the next bit
	pos int
	// Index of the next bit within data[pos], 0-7
	bit uint
}

func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

func (b *BitReader) ReadBit() (uint32, error) {
	if b.pos >= len(b.data) {
		return 0, newError(KindUnexpectedEndOfStream, b.BitOffset(), "no bits left in %d-byte input", len(b.data))
	}
	bit := uint32(b.data[b.pos]>>b.bit) & 1
	b.bit++
	if b.bit == 8 {
		b.bit = 0
		b.pos++
	}
	return bit, nil
}

// ReadBits reads count bits (at most 32). The first bit read is the least significant bit of the result.
func (b *BitReader) ReadBits(count int) (uint32, error) {
	if count < 0 || count > 32 {
		return 0, newError(KindUnexpectedEndOfStream, b.BitOffset(), "invalid bit count %d", count)
	}
	var value uint32
	for i := 0; i < count; i++ {
		bit, err := b.ReadBit()
		if err != nil {
			return 0, err
		}
		value |= bit << i
	}
	return value, nil
}

// AlignToByte drops the unread bits of a partially consumed byte.
func (b *BitReader) AlignToByte() {
	if b.bit != 0 {
		b.bit = 0
		b.pos++
	}
}

// ReadAlignedBytes returns the next n bytes of input. The reader must be byte aligned.
// The returned slice aliases the input buffer.
func (b *BitReader) ReadAlignedBytes(n int) ([]byte, error) {
	if b.bit != 0 {
		return nil, newError(KindUnexpectedEndOfStream, b.BitOffset(), "byte read from unaligned position")
	}
	if n < 0 || len(b.data)-b.pos < n {
		return nil, newError(KindUnexpectedEndOfStream, b.BitOffset(), "need %d bytes, %d left", n, len(b.data)-b.pos)
	}
	out := b.data[b.pos : b.pos+n]
	b.pos += n
	return out, nil
}

// AtEnd reports whether the final bit of the final byte has been consumed.
func (b *BitReader) AtEnd() bool {
	return b.pos >= len(b.data)
}

func (b *BitReader) BitOffset() int64 {
	return int64(b.pos)*8 + int64(b.bit)
}

// ConsumedBytes counts every byte of which at least one bit was read.
func (b *BitReader) ConsumedBytes() int {
	if b.bit != 0 {
		return b.pos + 1
	}
	return b.pos
}
