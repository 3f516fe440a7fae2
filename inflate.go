// Package inflate decodes DEFLATE compressed data as described in RFC 1951.
//
// The input is a complete in-memory DEFLATE stream with any container (gzip, zlib, MS-ZIP)
// already stripped; the output is returned in full once the final block has been decoded.
package inflate

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Config struct {
	// MaxOutputSize aborts decoding once the output would exceed this many bytes. 0 means unlimited.
	MaxOutputSize int

	// DynamicOnly rejects stored and fixed Huffman blocks with KindUnsupportedBlockType.
	DynamicOnly bool

	// TreeCache is shared between decoders if set.
	TreeCache *TreeCache

	// Log receives per-block debug output. Defaults to the standard logger.
	Log *logrus.Entry
}

// Result is a successfully decoded stream.
type Result struct {
	Data []byte

	// ConsumedBytes is the length of the DEFLATE stream within the input. Anything after it
	// belongs to the caller (e.g. a container footer).
	ConsumedBytes int

	Blocks int
}

// Decoder holds configuration only; every call decodes an independent stream, so a Decoder
// may be used from several goroutines at once.
type Decoder struct {
	cfg Config
	log *logrus.Entry
}

func NewDecoder(cfg Config) *Decoder {
	log := cfg.Log
	if log == nil {
		log = logrus.WithField("pkg", "inflate")
	}
	return &Decoder{
		cfg: cfg,
		log: log,
	}
}

// NewStream prepares block-by-block decoding of data with an optional preset dictionary.
func (d *Decoder) NewStream(data, dict []byte) *Stream {
	return newStream(&d.cfg, d.log, data, dict)
}

func (d *Decoder) Decode(data []byte) (*Result, error) {
	return d.DecodeContext(context.Background(), data, nil)
}

// DecodeDict decodes data whose back-references may reach into the last 32 KiB of dict.
func (d *Decoder) DecodeDict(data, dict []byte) (*Result, error) {
	return d.DecodeContext(context.Background(), data, dict)
}

// DecodeContext decodes every block of data. ctx is checked between blocks; a block in progress
// always runs to completion. On failure the returned Result holds the partial output.
func (d *Decoder) DecodeContext(ctx context.Context, data, dict []byte) (*Result, error) {
	s := d.NewStream(data, dict)
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return s.result(), err
		}
		if _, err := s.Next(); err != nil {
			return s.result(), err
		}
	}
	return s.result(), nil
}

func (s *Stream) result() *Result {
	return &Result{
		Data:          s.Output(),
		ConsumedBytes: s.ConsumedBytes(),
		Blocks:        s.Blocks(),
	}
}

var defaultDecoder = NewDecoder(Config{})

// Decompress decodes a raw DEFLATE stream with the default configuration.
func Decompress(data []byte) ([]byte, error) {
	result, err := defaultDecoder.Decode(data)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}
