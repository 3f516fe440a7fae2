package gzip

import (
	"hash/crc32"

	"github.com/pkg/errors"
)

const footerSize = 8

// footer trails every member's compressed data.
type footer struct {
	CRC32 uint32 // CRC32 (IEEE) of the uncompressed data
	Size  uint32 // Uncompressed size modulo 2^32
}

func (f footer) verify(data []byte) error {
	if sum := crc32.ChecksumIEEE(data); sum != f.CRC32 {
		return errors.Wrapf(ErrChecksum, "computed %08x, footer has %08x", sum, f.CRC32)
	}
	if size := uint32(len(data)); size != f.Size {
		return errors.Wrapf(ErrSize, "decoded %d bytes, footer has %d", size, f.Size)
	}
	return nil
}

// verifyHeaderChecksum checks FHCRC, the low 16 bits of the CRC32 of every header byte before it.
func verifyHeaderChecksum(header []byte, expected uint16) error {
	if sum := uint16(crc32.ChecksumIEEE(header)); sum != expected {
		return errors.Wrapf(ErrChecksum, "header checksum computed %04x, header has %04x", sum, expected)
	}
	return nil
}
