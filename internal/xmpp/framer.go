package xmpp

import (
	"bytes"
	"fmt"
)

var (
	messageClose  = []byte("</message>")
	presenceClose = []byte("</presence>")
)

const defaultMaxBuffer = 1 << 20

// Framer accumulates stream bytes and cuts them into units at the nearest
// message or presence close tag. It does not check that the opening tag
// matches; whatever precedes the marker belongs to the unit.
type Framer struct {
	buf       []byte
	MaxBuffer int
}

func NewFramer() *Framer {
	return &Framer{MaxBuffer: defaultMaxBuffer}
}

// Push appends chunk and returns every complete unit now available, in
// stream order. Bytes are kept raw until a unit is complete, so multi-byte
// characters split across reads survive intact.
func (f *Framer) Push(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)

	var units []string
	for {
		end := nearestClose(f.buf)
		if end < 0 {
			break
		}
		units = append(units, string(f.buf[:end]))
		rest := f.buf[end:]
		f.buf = append(f.buf[:0:0], rest...)
	}

	maxBuf := f.MaxBuffer
	if maxBuf <= 0 {
		maxBuf = defaultMaxBuffer
	}
	if len(f.buf) > maxBuf {
		n := len(f.buf)
		f.buf = nil
		return units, fmt.Errorf("%w: %d bytes without a unit boundary", ErrFramerBufferExceed, n)
	}
	return units, nil
}

func (f *Framer) Buffered() int {
	return len(f.buf)
}

func (f *Framer) Reset() {
	f.buf = nil
}

// nearestClose returns the index just past the earliest close marker, or -1.
func nearestClose(buf []byte) int {
	mi := bytes.Index(buf, messageClose)
	pi := bytes.Index(buf, presenceClose)
	switch {
	case mi < 0 && pi < 0:
		return -1
	case pi < 0 || (mi >= 0 && mi < pi):
		return mi + len(messageClose)
	default:
		return pi + len(presenceClose)
	}
}
