// Package armour recognises the BEGIN and END marker lines that delimit
// armoured text blocks and splits an input stream into scanner events.
package armour

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Default limits, matching the classic armour tooling.
const (
	DefaultMaxLine  = 1024 // bytes per chunk handed to the scanner
	DefaultMaxLabel = 1000 // bytes kept from a marker label
)

var (
	beginPrefix = []byte("-----BEGIN")
	endPrefix   = []byte("-----END")
	dashes      = []byte("-----")
)

// markerSpace is the set of bytes skipped between the marker keyword and
// the label.
const markerSpace = " \t\n\v\f\r"

// MatchBegin reports whether line is a "-----BEGIN <label>-----" marker and
// returns its label, truncated to maxLabel bytes.
func MatchBegin(line []byte, maxLabel int) (string, bool) {
	return match(line, beginPrefix, maxLabel)
}

// MatchEnd reports whether line is a "-----END <label>-----" marker and
// returns its label, truncated to maxLabel bytes.
func MatchEnd(line []byte, maxLabel int) (string, bool) {
	return match(line, endPrefix, maxLabel)
}

func match(line, prefix []byte, maxLabel int) (string, bool) {
	if maxLabel <= 0 {
		maxLabel = DefaultMaxLabel
	}
	rest, ok := bytes.CutPrefix(line, prefix)
	if !ok {
		return "", false
	}
	rest = bytes.TrimLeft(rest, markerSpace)

	// The label runs up to the first dash, which must open the closing dashes.
	// A run that reaches maxLabel ends the match there: the closing dashes
	// may lie beyond the current chunk.
	n := bytes.IndexByte(rest, '-')
	run := n
	if n < 0 {
		run = len(rest)
	}
	if run >= maxLabel {
		return string(rest[:maxLabel]), true
	}
	if n <= 0 || !bytes.HasPrefix(rest[n:], dashes) {
		return "", false
	}
	return string(rest[:n]), true
}

// Reader returns input one line at a time. A line longer than the chunk
// size is returned as consecutive chunks, so every input byte is delivered
// exactly once and in order.
type Reader struct {
	br *bufio.Reader
}

// NewReader returns a Reader over r with the given chunk size. Sizes below
// the bufio minimum of 16 bytes are raised to it.
func NewReader(r io.Reader, maxLine int) *Reader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Reader{br: bufio.NewReaderSize(r, maxLine)}
}

// Next returns the next line or chunk, including its trailing newline if
// one was read. The returned slice is only valid until the next call.
// At end of input Next returns io.EOF.
func (r *Reader) Next() ([]byte, error) {
	line, err := r.br.ReadSlice('\n')
	switch {
	case err == nil, errors.Is(err, bufio.ErrBufferFull):
		return line, nil
	case errors.Is(err, io.EOF):
		if len(line) > 0 {
			return line, nil
		}
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("reading input: %w", err)
	}
}
