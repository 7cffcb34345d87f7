// Package frame turns a raw serial byte stream into newline-delimited sample
// codes. Lines that are not integers (boot banners, debug prints, frames
// truncated by a reset) are dropped here and never reach the caller.
package frame

import (
	"bytes"
	"strconv"
	"strings"
)

// Terminator separates lines on the wire.
const Terminator = '\n'

// MaxLineLength bounds a single line. A longer line (wrong baud rate, a
// device stuck printing without newlines) is discarded up to its terminator
// and counted as dropped.
const MaxLineLength = 64

// Parser is a stateful line splitter. It is not safe for concurrent use;
// each acquisition session owns its own Parser.
type Parser struct {
	carry      []byte
	dropped    uint64
	discarding bool // skipping the rest of an oversized line
}

// NewParser creates an empty parser.
func NewParser() *Parser {
	return &Parser{carry: make([]byte, 0, MaxLineLength)}
}

// Feed appends p to the pending partial line and returns every complete
// line, in order. The trailing unterminated segment is kept for the next
// call. Invalid UTF-8 is removed from each line.
func (p *Parser) Feed(data []byte) []string {
	var lines []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, Terminator)
		if i < 0 {
			p.hold(data)
			break
		}
		seg := data[:i]
		data = data[i+1:]

		if p.discarding {
			p.discarding = false
			continue
		}
		if len(p.carry)+len(seg) > MaxLineLength {
			p.carry = p.carry[:0]
			p.dropped++
			continue
		}
		line := seg
		if len(p.carry) > 0 {
			line = append(p.carry, seg...)
			p.carry = p.carry[:0]
		}
		lines = append(lines, strings.ToValidUTF8(string(line), ""))
	}
	return lines
}

// hold keeps an unterminated tail, switching to discard mode once the
// pending line exceeds MaxLineLength.
func (p *Parser) hold(tail []byte) {
	if p.discarding {
		return
	}
	if len(p.carry)+len(tail) > MaxLineLength {
		p.carry = p.carry[:0]
		p.discarding = true
		p.dropped++
		return
	}
	p.carry = append(p.carry, tail...)
}

// Codes feeds data and returns the integer codes of every complete line.
// Lines that do not parse are counted and discarded.
func (p *Parser) Codes(data []byte) []int {
	lines := p.Feed(data)
	if len(lines) == 0 {
		return nil
	}

	codes := make([]int, 0, len(lines))
	for _, line := range lines {
		code, ok := ParseCode(line)
		if !ok {
			p.dropped++
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

// Pending returns a copy of the unterminated bytes held for the next feed.
func (p *Parser) Pending() []byte {
	return append([]byte(nil), p.carry...)
}

// Dropped returns how many lines failed to parse or exceeded MaxLineLength so far.
func (p *Parser) Dropped() uint64 {
	return p.dropped
}

// Reset discards the pending partial line. Used when a port is reopened.
func (p *Parser) Reset() {
	p.carry = p.carry[:0]
	p.discarding = false
}

// ParseCode parses a single line as a base-10 integer. Surrounding
// whitespace (including the '\r' of a CRLF line ending) is ignored.
func ParseCode(line string) (int, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, false
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return code, true
}
