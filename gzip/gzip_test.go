package gzip

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inflate "github.com/secDre4mer/go-inflate"
)

func compressMember(t *testing.T, header kgzip.Header, data []byte) []byte {
	var b bytes.Buffer
	w, err := kgzip.NewWriterLevel(&b, kgzip.BestCompression)
	require.NoError(t, err)
	w.Header = header
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return b.Bytes()
}

func deflate(t *testing.T, data []byte) []byte {
	var b bytes.Buffer
	w, err := flate.NewWriter(&b, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return b.Bytes()
}

// buildMember assembles a member by hand around an already compressed stream.
func buildMember(flags byte, optional []byte, stream []byte, content []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x1f, 0x8b, methodDeflate, flags, 0, 0, 0, 0, 0, OSUnix})
	b.Write(optional)
	if flags&flagHeaderCRC != 0 {
		binary.Write(&b, binary.LittleEndian, uint16(crc32.ChecksumIEEE(b.Bytes())))
	}
	b.Write(stream)
	binary.Write(&b, binary.LittleEndian, footer{CRC32: crc32.ChecksumIEEE(content), Size: uint32(len(content))})
	return b.Bytes()
}

func TestDecompressWithHeader(t *testing.T) {
	content := bytes.Repeat([]byte("gzip member payload\n"), 1000)
	modified := time.Date(2021, 11, 2, 14, 34, 56, 0, time.UTC)
	data := compressMember(t, kgzip.Header{
		Name:    "café.txt",
		Comment: "a comment",
		ModTime: modified,
		Extra:   []byte{'A', 'B', 2, 0, 'x', 'y'},
		OS:      OSUnix,
	}, content)

	archive, err := Open(bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)
	require.Len(t, archive.Members, 1)

	member := archive.Members[0]
	assert.Equal(t, "café.txt", member.Name)
	assert.Equal(t, "a comment", member.Comment)
	assert.True(t, member.ModTime.Equal(modified))
	assert.Equal(t, []byte{'A', 'B', 2, 0, 'x', 'y'}, member.Extra)
	assert.Equal(t, byte(OSUnix), member.OS)

	reader, err := member.Open()
	require.NoError(t, err)
	out, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, out)

	info := member.Stat()
	assert.Equal(t, "café.txt", info.Name())
	assert.Equal(t, int64(len(content)), info.Size())
	assert.False(t, info.IsDir())
}

func TestConcatenatedMembers(t *testing.T) {
	first := compressMember(t, kgzip.Header{Name: "one"}, []byte("first member, "))
	second := compressMember(t, kgzip.Header{Name: "two"}, []byte("second member"))
	data := append(append([]byte{}, first...), second...)

	archive, err := Decompress(data, nil)
	require.NoError(t, err)
	require.Len(t, archive.Members, 2)
	assert.Equal(t, "one", archive.Members[0].Name)
	assert.Equal(t, "two", archive.Members[1].Name)

	out, err := io.ReadAll(archive.Open())
	require.NoError(t, err)
	assert.Equal(t, "first member, second member", string(out))
}

func TestTrailingData(t *testing.T) {
	data := compressMember(t, kgzip.Header{}, []byte("payload"))

	padded := append(append([]byte{}, data...), 0, 0, 0, 0)
	archive, err := Decompress(padded, nil)
	require.NoError(t, err)
	assert.Len(t, archive.Members, 1)

	garbage := append(append([]byte{}, data...), 'j', 'u', 'n', 'k')
	_, err = Decompress(garbage, nil)
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestFooterMismatch(t *testing.T) {
	data := compressMember(t, kgzip.Header{}, []byte("payload"))

	badCRC := append([]byte{}, data...)
	badCRC[len(badCRC)-8] ^= 0xFF
	_, err := Decompress(badCRC, nil)
	require.ErrorIs(t, err, ErrChecksum)

	badSize := append([]byte{}, data...)
	badSize[len(badSize)-1] ^= 0xFF
	_, err = Decompress(badSize, nil)
	require.ErrorIs(t, err, ErrSize)

	_, err = Decompress(data[:len(data)-3], nil)
	require.Error(t, err)
}

func TestInvalidHeaders(t *testing.T) {
	data := compressMember(t, kgzip.Header{}, []byte("payload"))

	badMagic := append([]byte{}, data...)
	badMagic[1] = 0x8c
	_, err := Decompress(badMagic, nil)
	require.ErrorIs(t, err, ErrHeader)

	badMethod := append([]byte{}, data...)
	badMethod[2] = 7
	_, err = Decompress(badMethod, nil)
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	reserved := append([]byte{}, data...)
	reserved[3] |= 0x20
	_, err = Decompress(reserved, nil)
	require.ErrorIs(t, err, ErrHeader)

	_, err = Decompress(data[:5], nil)
	require.Error(t, err)
}

func TestHeaderChecksum(t *testing.T) {
	content := []byte("header checksum")
	data := buildMember(flagHeaderCRC|flagName, []byte("name.txt\x00"), deflate(t, content), content)

	archive, err := Decompress(data, nil)
	require.NoError(t, err)
	assert.Equal(t, "name.txt", archive.Members[0].Name)
	assert.Equal(t, content, archive.Members[0].Bytes())

	data[len("name.txt")+10+1] ^= 0xFF
	_, err = Decompress(data, nil)
	require.ErrorIs(t, err, ErrChecksum)
}

func TestUnterminatedName(t *testing.T) {
	data := []byte{0x1f, 0x8b, methodDeflate, flagName, 0, 0, 0, 0, 0, OSUnix, 'a', 'b'}
	_, err := Decompress(data, nil)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestInflateErrorsPropagate(t *testing.T) {
	data := buildMember(0, nil, []byte{0x07}, nil)
	_, err := Decompress(data, nil)
	require.ErrorIs(t, err, inflate.ErrReservedBlockType)

	limited := inflate.NewDecoder(inflate.Config{MaxOutputSize: 4})
	data = compressMember(t, kgzip.Header{}, []byte("longer than four bytes"))
	_, err = Decompress(data, limited)
	require.ErrorIs(t, err, inflate.ErrOutputLimitExceeded)
}

func TestDecompressCancelled(t *testing.T) {
	data := compressMember(t, kgzip.Header{}, []byte("payload"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DecompressContext(ctx, data, nil)
	require.ErrorIs(t, err, context.Canceled)
}
