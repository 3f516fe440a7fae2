package gzip

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"time"
)

// Header holds the metadata stored in front of a member's compressed data.
type Header struct {
	Name       string // Original file name, converted from ISO 8859-1
	Comment    string
	ModTime    time.Time // Zero if the header carries no timestamp
	Extra      []byte
	Text       bool // FTEXT: the data is probably text
	ExtraFlags byte // XFL: 2 for maximum compression, 4 for fastest
	OS         byte
}

const (
	OSFAT     = 0
	OSUnix    = 3
	OSNTFS    = 11
	OSUnknown = 255
)

type Member struct {
	Header

	data []byte
}

func (m *Member) Open() (io.Reader, error) {
	return bytes.NewReader(m.data), nil
}

func (m *Member) Bytes() []byte {
	return m.data
}

func (m *Member) Stat() fs.FileInfo {
	return FileInfo{m}
}

type FileInfo struct {
	Member *Member
}

func (f FileInfo) Name() string {
	if f.Member.Name == "" {
		return ""
	}
	return path.Base(f.Member.Name)
}

func (f FileInfo) Size() int64 {
	return int64(len(f.Member.data))
}

func (f FileInfo) Mode() fs.FileMode {
	return 0
}

func (f FileInfo) ModTime() time.Time {
	return f.Member.ModTime
}

func (f FileInfo) IsDir() bool {
	return false
}

func (f FileInfo) Sys() any {
	return f.Member
}

// Open returns the concatenated data of all members, which is what gunzip writes out.
func (a *Archive) Open() io.Reader {
	readers := make([]io.Reader, len(a.Members))
	for i, member := range a.Members {
		readers[i] = bytes.NewReader(member.data)
	}
	return io.MultiReader(readers...)
}
