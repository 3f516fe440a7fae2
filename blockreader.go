package inflate

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
)

type BlockType uint8

const (
	BlockStored   BlockType = 0
	BlockFixed    BlockType = 1
	BlockDynamic  BlockType = 2
	BlockReserved BlockType = 3
)

func (t BlockType) String() string {
	switch t {
	case BlockStored:
		return "stored"
	case BlockFixed:
		return "fixed"
	case BlockDynamic:
		return "dynamic"
	default:
		return "reserved"
	}
}

// BlockInfo describes a block after it has been decoded.
type BlockInfo struct {
	Final bool
	Type  BlockType

	// Header counts of a dynamic block (HLIT+257, HDIST+1, HCLEN+4)
	LiteralCount    int
	DistanceCount   int
	CodeLengthCount int

	// Bytes this block appended to the output
	OutputBytes int
}

type streamState int

const (
	stateReadingBlockHeader streamState = iota
	stateDecodingBlock
	stateDone
	stateFailed
)

// Stream decodes a DEFLATE stream one block at a time. A block is decoded to completion by
// Next; callers may stop between blocks.
type Stream struct {
	br     *BitReader
	out    *window
	cfg    *Config
	log    *logrus.Entry
	state  streamState
	err    error
	blocks int
}

func newStream(cfg *Config, log *logrus.Entry, data, dict []byte) *Stream {
	return &Stream{
		br:  NewBitReader(data),
		out: newWindow(dict, cfg.MaxOutputSize),
		cfg: cfg,
		log: log,
	}
}

// Next decodes the next block. It returns the block's description; after the final block
// Done reports true. Once Next fails, every further call returns the same error.
func (s *Stream) Next() (BlockInfo, error) {
	switch s.state {
	case stateDone:
		return BlockInfo{}, newError(KindUnexpectedEndOfStream, s.br.BitOffset(), "stream already complete")
	case stateFailed:
		return BlockInfo{}, s.err
	}
	s.state = stateDecodingBlock
	info, err := s.readBlock()
	if err != nil {
		s.state = stateFailed
		s.err = err
		return info, err
	}
	s.blocks++
	s.state = stateReadingBlockHeader
	if info.Final {
		s.state = stateDone
	}
	return info, nil
}

func (s *Stream) readBlock() (BlockInfo, error) {
	var info BlockInfo
	final, err := s.br.ReadBits(1)
	if err != nil {
		return info, err
	}
	blockType, err := s.br.ReadBits(2)
	if err != nil {
		return info, err
	}
	info.Final = final == 1
	info.Type = BlockType(blockType)
	start := s.out.Len()

	llog := s.log.WithFields(logrus.Fields{
		"block": s.blocks,
		"final": info.Final,
		"type":  info.Type.String(),
	})

	if s.cfg.DynamicOnly && (info.Type == BlockStored || info.Type == BlockFixed) {
		return info, newError(KindUnsupportedBlockType, s.br.BitOffset(), "%s blocks are disabled", info.Type)
	}

	switch info.Type {
	case BlockStored:
		err = s.readStored()
	case BlockFixed:
		literals, distances := fixedTrees()
		err = inflateBlock(s.br, literals, distances, s.out)
	case BlockDynamic:
		var h *dynamicHeader
		h, err = readDynamicHeader(s.br, s.cfg.TreeCache)
		if err != nil {
			return info, err
		}
		info.LiteralCount, info.DistanceCount, info.CodeLengthCount = h.literalCount, h.distanceCount, h.codeLengthCount
		llog.Debugf("HLIT %d, HDIST %d, HCLEN %d", h.literalCount-257, h.distanceCount-1, h.codeLengthCount-4)
		err = inflateBlock(s.br, h.literals, h.distances, s.out)
	default:
		return info, newError(KindReservedBlockType, s.br.BitOffset(), "block type %d", blockType)
	}
	info.OutputBytes = s.out.Len() - start
	if err != nil {
		return info, err
	}
	llog.Debugf("decoded %d bytes", info.OutputBytes)
	return info, nil
}

func (s *Stream) readStored() error {
	s.br.AlignToByte()
	header, err := s.br.ReadAlignedBytes(4)
	if err != nil {
		return err
	}
	length := binary.LittleEndian.Uint16(header[0:2])
	complement := binary.LittleEndian.Uint16(header[2:4])
	if length != ^complement {
		return newError(KindCorruptStoredBlock, s.br.BitOffset(), "LEN %#04x does not match NLEN %#04x", length, complement)
	}
	data, err := s.br.ReadAlignedBytes(int(length))
	if err != nil {
		return err
	}
	if !s.out.room(len(data)) {
		return newError(KindOutputLimitExceeded, s.br.BitOffset(), "output exceeds %d bytes", s.out.limit)
	}
	s.out.AddBytes(data)
	return nil
}

func (s *Stream) Done() bool {
	return s.state == stateDone
}

// Output returns everything decoded so far. After a failure it holds the partial output,
// which is useful for diagnostics only.
func (s *Stream) Output() []byte {
	return s.out.Output()
}

// ConsumedBytes is the number of input bytes read so far, counting a partially read byte.
func (s *Stream) ConsumedBytes() int {
	return s.br.ConsumedBytes()
}

// Blocks is the number of blocks decoded successfully.
func (s *Stream) Blocks() int {
	return s.blocks
}
