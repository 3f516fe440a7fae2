// Package gzip reads the gzip file format (RFC 1952). Each member's DEFLATE payload is
// decoded by package inflate; this package owns the container header and the CRC32/size footer.
package gzip

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	inflate "github.com/secDre4mer/go-inflate"
)

var (
	ErrHeader            = errors.New("gzip: invalid header")
	ErrUnsupportedMethod = errors.New("gzip: unsupported compression method")
	ErrChecksum          = errors.New("gzip: checksum mismatch")
	ErrSize              = errors.New("gzip: size mismatch")
	ErrTrailingData      = errors.New("gzip: trailing data after last member")
)

const (
	flagText      = 0x01
	flagHeaderCRC = 0x02
	flagExtra     = 0x04
	flagName      = 0x08
	flagComment   = 0x10
	flagReserved  = 0xE0

	methodDeflate = 8
)

// Archive is a decompressed gzip file. Most files have a single member; concatenated
// gzip files have one per concatenated stream.
type Archive struct {
	Members []*Member
}

// Fixed part of a member header according to RFC 1952 section 2.3
type memberHeader struct {
	Magic      [2]byte
	Method     byte
	Flags      byte
	ModTime    uint32
	ExtraFlags byte
	OS         byte
	// Optional: XLEN and extra field, if flagExtra is set
	// Optional: zero-terminated file name, if flagName is set
	// Optional: zero-terminated comment, if flagComment is set
	// Optional: CRC16 of the header, if flagHeaderCRC is set
}

var log = logrus.WithField("pkg", "gzip")

// Open reads and decompresses every member of the gzip file in reader. Checksums and sizes
// are verified. A nil decoder uses the default inflate configuration.
func Open(reader io.ReaderAt, size int64, decoder *inflate.Decoder) (*Archive, error) {
	data, err := io.ReadAll(io.NewSectionReader(reader, 0, size))
	if err != nil {
		return nil, errors.Wrap(err, "unable to read gzip data")
	}
	return Decompress(data, decoder)
}

// Decompress decodes every member of an in-memory gzip file.
func Decompress(data []byte, decoder *inflate.Decoder) (*Archive, error) {
	return DecompressContext(context.Background(), data, decoder)
}

// DecompressContext is Decompress with cancellation. ctx is checked between DEFLATE blocks.
func DecompressContext(ctx context.Context, data []byte, decoder *inflate.Decoder) (*Archive, error) {
	if decoder == nil {
		decoder = inflate.NewDecoder(inflate.Config{})
	}
	var archive Archive
	offset := 0
	for {
		member, n, err := readMember(ctx, data[offset:], decoder)
		if err != nil {
			return nil, errors.Wrapf(err, "member %d at offset %d", len(archive.Members), offset)
		}
		log.Debugf("member %d: %d bytes in, %d bytes out", len(archive.Members), n, len(member.data))
		archive.Members = append(archive.Members, member)
		offset += n

		if offset == len(data) {
			break
		}
		if !bytes.Equal(data[offset:], make([]byte, len(data)-offset)) && !bytes.HasPrefix(data[offset:], []byte{0x1f, 0x8b}) {
			return nil, errors.Wrapf(ErrTrailingData, "%d bytes at offset %d", len(data)-offset, offset)
		}
		if data[offset] == 0 {
			// gzip(1) ignores zero padding after the last member
			log.Debugf("ignoring %d trailing zero bytes", len(data)-offset)
			break
		}
	}
	return &archive, nil
}

// readMember decodes the member at the start of data and returns it together with its
// length in bytes.
func readMember(ctx context.Context, data []byte, decoder *inflate.Decoder) (*Member, int, error) {
	reader := bytes.NewReader(data)

	var header memberHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil, 0, errors.Wrap(err, "unable to read member header")
	}
	if header.Magic != [2]byte{0x1f, 0x8b} {
		return nil, 0, ErrHeader
	}
	if header.Method != methodDeflate {
		return nil, 0, errors.Wrapf(ErrUnsupportedMethod, "method %d", header.Method)
	}
	if header.Flags&flagReserved != 0 {
		return nil, 0, errors.Wrapf(ErrHeader, "reserved flags %#02x set", header.Flags&flagReserved)
	}

	member := &Member{
		Header: Header{
			Text:       header.Flags&flagText != 0,
			ExtraFlags: header.ExtraFlags,
			OS:         header.OS,
		},
	}
	if header.ModTime != 0 {
		member.ModTime = time.Unix(int64(header.ModTime), 0)
	}

	if header.Flags&flagExtra != 0 {
		var extraLength uint16
		if err := binary.Read(reader, binary.LittleEndian, &extraLength); err != nil {
			return nil, 0, errors.Wrap(err, "unable to read extra field length")
		}
		member.Extra = make([]byte, extraLength)
		if _, err := io.ReadFull(reader, member.Extra); err != nil {
			return nil, 0, errors.Wrap(err, "unable to read extra field")
		}
	}
	if header.Flags&flagName != 0 {
		var err error
		if member.Name, err = readZeroTerminatedString(reader); err != nil {
			return nil, 0, errors.Wrap(err, "unable to read file name")
		}
	}
	if header.Flags&flagComment != 0 {
		var err error
		if member.Comment, err = readZeroTerminatedString(reader); err != nil {
			return nil, 0, errors.Wrap(err, "unable to read comment")
		}
	}
	if header.Flags&flagHeaderCRC != 0 {
		headerLength := len(data) - reader.Len()
		var headerCRC uint16
		if err := binary.Read(reader, binary.LittleEndian, &headerCRC); err != nil {
			return nil, 0, errors.Wrap(err, "unable to read header checksum")
		}
		if err := verifyHeaderChecksum(data[:headerLength], headerCRC); err != nil {
			return nil, 0, err
		}
	}

	streamStart := len(data) - reader.Len()
	result, err := decoder.DecodeContext(ctx, data[streamStart:], nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to inflate member")
	}
	member.data = result.Data

	footerStart := streamStart + result.ConsumedBytes
	var f footer
	if err := binary.Read(bytes.NewReader(data[footerStart:]), binary.LittleEndian, &f); err != nil {
		return nil, 0, errors.Wrap(err, "unable to read member footer")
	}
	if err := f.verify(member.data); err != nil {
		return nil, 0, err
	}
	return member, footerStart + footerSize, nil
}

func readZeroTerminatedString(reader *bytes.Reader) (string, error) {
	var raw []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		if b == 0 {
			break
		}
		raw = append(raw, b)
	}
	// RFC 1952 strings are ISO 8859-1
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
