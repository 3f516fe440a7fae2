package inflate

import (
	"errors"
	"fmt"
)

// Kind classifies why decoding a stream failed. Every kind is fatal for the stream.
type Kind int

const (
	KindUnexpectedEndOfStream Kind = iota + 1
	KindCorruptHuffmanCode
	KindCorruptDynamicHeader
	KindInvalidBackReference
	KindUnsupportedBlockType
	KindReservedBlockType
	KindCorruptStoredBlock
	KindOutputLimitExceeded
)

var kindNames = map[Kind]string{
	KindUnexpectedEndOfStream: "unexpected end of stream",
	KindCorruptHuffmanCode:    "corrupt Huffman code",
	KindCorruptDynamicHeader:  "corrupt dynamic header",
	KindInvalidBackReference:  "invalid back-reference",
	KindUnsupportedBlockType:  "unsupported block type",
	KindReservedBlockType:     "reserved block type",
	KindCorruptStoredBlock:    "corrupt stored block",
	KindOutputLimitExceeded:   "output limit exceeded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned for every decoding failure. Offset is the bit position in the
// input at which the failure was detected.
type Error struct {
	Kind   Kind
	Offset int64
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "inflate: " + e.Kind.String()
	}
	return fmt.Sprintf("inflate: %s: %s (at bit %d)", e.Kind, e.Msg, e.Offset)
}

// Is reports whether target is the sentinel for e's kind, so that
// errors.Is(err, ErrReservedBlockType) works on any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrUnexpectedEndOfStream = &Error{Kind: KindUnexpectedEndOfStream}
	ErrCorruptHuffmanCode    = &Error{Kind: KindCorruptHuffmanCode}
	ErrCorruptDynamicHeader  = &Error{Kind: KindCorruptDynamicHeader}
	ErrInvalidBackReference  = &Error{Kind: KindInvalidBackReference}
	ErrUnsupportedBlockType  = &Error{Kind: KindUnsupportedBlockType}
	ErrReservedBlockType     = &Error{Kind: KindReservedBlockType}
	ErrCorruptStoredBlock    = &Error{Kind: KindCorruptStoredBlock}
	ErrOutputLimitExceeded   = &Error{Kind: KindOutputLimitExceeded}
)

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, offset int64, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}
