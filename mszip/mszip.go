// Package mszip reads MS-ZIP compressed data: a sequence of blocks, each starting with the
// signature "CK" followed by a complete DEFLATE stream whose back-references may reach into
// the previous block's output.
package mszip

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	inflate "github.com/secDre4mer/go-inflate"
)

var ErrHeader = errors.New("mszip: invalid block signature")

// New returns a reader over the decompressed contents of blocks. A nil decoder uses the default
// inflate configuration.
func New(blocks []io.ReadCloser, decoder *inflate.Decoder) io.ReadCloser {
	if decoder == nil {
		decoder = inflate.NewDecoder(inflate.Config{})
	}
	return &msZipReader{
		blocks:  blocks,
		decoder: decoder,
	}
}

type msZipReader struct {
	currentBlock *bytes.Reader
	blocks       []io.ReadCloser
	decoder      *inflate.Decoder
	dict         []byte
}

func checkBlockHeader(block []byte) error {
	if len(block) < 2 || block[0] != 0x43 || block[1] != 0x4B {
		return ErrHeader
	}
	return nil
}

func (t *msZipReader) openCurrentBlock() error {
	if t.currentBlock != nil {
		return nil // Block already decoded
	}
	if len(t.blocks) == 0 {
		return io.EOF
	}
	block, err := io.ReadAll(t.blocks[0])
	if err != nil {
		return errors.Wrap(err, "unable to read block")
	}
	if err := checkBlockHeader(block); err != nil {
		return err
	}
	result, err := t.decoder.DecodeDict(block[2:], t.dict)
	if err != nil {
		return errors.Wrap(err, "unable to inflate block")
	}
	t.currentBlock = bytes.NewReader(result.Data)
	t.dict = lastWindow(t.dict, result.Data)
	return nil
}

// lastWindow keeps up to 32 KiB of history: the tail of the previous history followed by data.
func lastWindow(previous, data []byte) []byte {
	const maxWindow = 1 << 15 // Maximum size of a DEFLATE window
	if len(data) >= maxWindow {
		return append([]byte(nil), data[len(data)-maxWindow:]...)
	}
	history := append(append([]byte(nil), previous...), data...)
	if len(history) > maxWindow {
		history = history[len(history)-maxWindow:]
	}
	return history
}

func (t *msZipReader) closeCurrentBlock() error {
	finishedBlock := t.blocks[0]
	t.blocks = t.blocks[1:]
	t.currentBlock = nil
	return finishedBlock.Close()
}

func (t *msZipReader) Read(b []byte) (n int, err error) {
	for {
		if err := t.openCurrentBlock(); err != nil {
			return 0, err
		}
		n, err = t.currentBlock.Read(b)
		if err == io.EOF {
			if err := t.closeCurrentBlock(); err != nil {
				return n, err
			}
			if n == 0 { // We must not return 0 bytes with no error, try reading from next block
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (t *msZipReader) Close() (err error) {
	for _, reader := range t.blocks {
		if readerErr := reader.Close(); readerErr != nil {
			if err == nil {
				err = readerErr
			}
		}
	}
	t.blocks = nil
	t.currentBlock = nil
	return
}
