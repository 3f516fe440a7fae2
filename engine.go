package inflate

const (
	endOfBlock    = 256
	maxLengthCode = 285
	maxDistCode   = 29
)

// Base lengths of symbols 265-284. Symbol s carries (s-261)/4 extra bits.
var lengthBase = [20]int{11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227}

// Base distances of symbols 4-29. Symbol s carries (s-2)/2 extra bits.
var distanceBase = [26]int{
	4, 6, 8, 12, 16, 24, 32, 48, 64, 96, 128, 192, 256, 384,
	512, 768, 1024, 1536, 2048, 3072, 4096, 6144, 8192, 12288, 16384, 24576,
}

// inflateBlock decodes symbols until end-of-block, appending literals and resolving
// back-references against out.
func inflateBlock(br *BitReader, literals, distances *Tree, out *window) error {
	for {
		symbol, err := literals.Decode(br)
		if err != nil {
			return err
		}
		switch {
		case symbol < endOfBlock:
			if !out.room(1) {
				return newError(KindOutputLimitExceeded, br.BitOffset(), "output exceeds %d bytes", out.limit)
			}
			out.Add(byte(symbol))
			continue
		case symbol == endOfBlock:
			return nil
		case symbol > maxLengthCode:
			return newError(KindCorruptHuffmanCode, br.BitOffset(), "invalid length symbol %d", symbol)
		}

		length, err := decodeLength(br, symbol)
		if err != nil {
			return err
		}
		distance, err := decodeDistance(br, distances)
		if err != nil {
			return err
		}
		if distance > out.History() {
			return newError(KindInvalidBackReference, br.BitOffset(), "distance %d exceeds %d bytes of history", distance, out.History())
		}
		if !out.room(length) {
			return newError(KindOutputLimitExceeded, br.BitOffset(), "output exceeds %d bytes", out.limit)
		}
		out.Copy(distance, length)
	}
}

func decodeLength(br *BitReader, symbol int) (int, error) {
	switch {
	case symbol < 265:
		return symbol - 254, nil
	case symbol == maxLengthCode:
		return 258, nil
	}
	extra, err := br.ReadBits((symbol - 261) / 4)
	if err != nil {
		return 0, err
	}
	return lengthBase[symbol-265] + int(extra), nil
}

func decodeDistance(br *BitReader, distances *Tree) (int, error) {
	symbol, err := distances.Decode(br)
	if err != nil {
		return 0, err
	}
	switch {
	case symbol > maxDistCode:
		return 0, newError(KindCorruptHuffmanCode, br.BitOffset(), "invalid distance symbol %d", symbol)
	case symbol < 4:
		return symbol + 1, nil
	}
	extra, err := br.ReadBits((symbol - 2) / 2)
	if err != nil {
		return 0, err
	}
	return distanceBase[symbol-4] + int(extra) + 1, nil
}
