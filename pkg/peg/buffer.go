package peg

import (
	"regexp"
	"strings"
)

// buffer holds the source text and answers position-anchored questions
// about it. The buffer is immutable; the parser owns the position.
type buffer struct {
	data string
}

func (b *buffer) len() int {
	return len(b.data)
}

func (b *buffer) at(pos int) byte {
	return b.data[pos]
}

func (b *buffer) isEOF(pos int) bool {
	return pos >= len(b.data)
}

// isBOL reports whether pos is at the beginning of a line: position zero
// or immediately after a newline.
func (b *buffer) isBOL(pos int) bool {
	return pos == 0 || (pos <= len(b.data) && b.data[pos-1] == '\n')
}

// matchLiteral matches lit at pos and returns the end position.
func (b *buffer) matchLiteral(pos int, lit string) (int, bool) {
	if !strings.HasPrefix(b.data[pos:], lit) {
		return pos, false
	}
	return pos + len(lit), true
}

// matchRegex matches re (compiled with MustPattern, so anchored) at pos.
// Returns the end position and the submatch texts, whole match first.
func (b *buffer) matchRegex(pos int, re *regexp.Regexp) (int, []string, bool) {
	loc := re.FindStringSubmatchIndex(b.data[pos:])
	if loc == nil {
		return pos, nil, false
	}

	caps := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			caps = append(caps, "")
			continue
		}
		caps = append(caps, b.data[pos+loc[i]:pos+loc[i+1]])
	}

	return pos + loc[1], caps, true
}

// lineCol converts pos to 1-based line and column. Only used for
// diagnostics; the hot path never calls it.
func (b *buffer) lineCol(pos int) (int, int) {
	if pos > len(b.data) {
		pos = len(b.data)
	}
	line := 1 + strings.Count(b.data[:pos], "\n")
	col := pos - strings.LastIndexByte(b.data[:pos], '\n')
	return line, col
}
