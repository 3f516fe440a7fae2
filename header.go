package inflate

const (
	numCodeLengthCodes = 19
	maxLiteralCodes    = 288
	maxDistanceCodes   = 32
)

// Order in which the code length code lengths are transmitted.
var codeLengthOrder = [numCodeLengthCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

type dynamicHeader struct {
	literalCount    int // HLIT + 257
	distanceCount   int // HDIST + 1
	codeLengthCount int // HCLEN + 4

	literals  *Tree
	distances *Tree
}

func readDynamicHeader(br *BitReader, cache *TreeCache) (*dynamicHeader, error) {
	hlit, err := br.ReadBits(5)
	if err != nil {
		return nil, err
	}
	hdist, err := br.ReadBits(5)
	if err != nil {
		return nil, err
	}
	hclen, err := br.ReadBits(4)
	if err != nil {
		return nil, err
	}
	h := &dynamicHeader{
		literalCount:    int(hlit) + 257,
		distanceCount:   int(hdist) + 1,
		codeLengthCount: int(hclen) + 4,
	}

	var codeLengthLengths [numCodeLengthCodes]uint8
	for i := 0; i < h.codeLengthCount; i++ {
		length, err := br.ReadBits(3)
		if err != nil {
			return nil, err
		}
		codeLengthLengths[codeLengthOrder[i]] = uint8(length)
	}
	codeLengthTree, err := cache.Get(codeLengthLengths[:])
	if err != nil {
		return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "code length tree: %v", err)
	}

	lengths, err := readCodeLengths(br, codeLengthTree, h.literalCount+h.distanceCount)
	if err != nil {
		return nil, err
	}
	h.literals, err = cache.Get(lengths[:h.literalCount])
	if err != nil {
		return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "literal/length tree: %v", err)
	}
	h.distances, err = cache.Get(lengths[h.literalCount:])
	if err != nil {
		return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "distance tree: %v", err)
	}
	return h, nil
}

// readCodeLengths decodes count code lengths (literal/length followed by distance) using the
// run-length alphabet: 0-15 literal lengths, 16 repeats the previous length, 17 and 18 repeat zero.
func readCodeLengths(br *BitReader, codeLengthTree *Tree, count int) ([]uint8, error) {
	lengths := make([]uint8, count)
	for i := 0; i < count; {
		symbol, err := codeLengthTree.Decode(br)
		if err != nil {
			if KindOf(err) == KindCorruptHuffmanCode {
				return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "invalid code length code")
			}
			return nil, err
		}
		if symbol < 16 {
			lengths[i] = uint8(symbol)
			i++
			continue
		}

		var (
			repeat uint32
			value  uint8
		)
		switch symbol {
		case 16:
			if i == 0 {
				return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "repeat code with no previous length")
			}
			repeat, err = br.ReadBits(2)
			repeat += 3
			value = lengths[i-1]
		case 17:
			repeat, err = br.ReadBits(3)
			repeat += 3
		case 18:
			repeat, err = br.ReadBits(7)
			repeat += 11
		default:
			return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "code length symbol %d out of range", symbol)
		}
		if err != nil {
			return nil, err
		}
		if i+int(repeat) > count {
			return nil, newError(KindCorruptDynamicHeader, br.BitOffset(), "repeat of %d at %d overruns %d code lengths", repeat, i, count)
		}
		for ; repeat > 0; repeat-- {
			lengths[i] = value
			i++
		}
	}
	return lengths, nil
}
