package article

import (
	"bytes"
	"encoding/json"
)

type frameState int

const (
	expectKey frameState = iota
	expectColon
	expectValue
	expectNext
)

type frame struct {
	open  byte
	state frameState
}

// CompleteJSON closes an incomplete JSON object or array at the latest point
// where it can be terminated validly. An unterminated value string is closed
// in place; a pending key, a key without a value, or an unfinished number or
// literal is cut back to the previous complete value. It returns false when
// buf holds no usable prefix yet.
func CompleteJSON(buf []byte) ([]byte, bool) {
	var (
		stack     []frame
		safeEnd   = -1
		safeClose []byte

		inString   bool
		stringKey  bool
		escapeAt   = -1
		unicodeEnd = -1
	)

	closers := func() []byte {
		out := make([]byte, 0, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].open == '{' {
				out = append(out, '}')
			} else {
				out = append(out, ']')
			}
		}
		return out
	}
	markSafe := func(end int) {
		safeEnd = end
		safeClose = closers()
	}
	valueDone := func(end int) {
		if len(stack) > 0 {
			stack[len(stack)-1].state = expectNext
		}
		markSafe(end)
	}
	expectingValue := func() bool {
		if len(stack) == 0 {
			return false
		}
		return stack[len(stack)-1].state == expectValue
	}

	i := 0
scan:
	for i < len(buf) {
		c := buf[i]

		if inString {
			switch {
			case unicodeEnd >= 0:
				if i >= unicodeEnd {
					unicodeEnd = -1
					escapeAt = -1
					continue
				}
			case escapeAt >= 0:
				if c == 'u' {
					unicodeEnd = i + 5
				} else {
					escapeAt = -1
				}
			case c == '\\':
				escapeAt = i
			case c == '"':
				inString = false
				if stringKey {
					stack[len(stack)-1].state = expectColon
				} else {
					valueDone(i + 1)
				}
			}
			i++
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
		case '{', '[':
			if len(stack) > 0 && !expectingValue() {
				return nil, false
			}
			if len(stack) == 0 && safeEnd >= 0 {
				// a second top-level value; keep the first
				break scan
			}
			f := frame{open: c, state: expectValue}
			if c == '{' {
				f.state = expectKey
			}
			stack = append(stack, f)
			markSafe(i + 1)
		case '}', ']':
			if len(stack) == 0 {
				return nil, false
			}
			stack = stack[:len(stack)-1]
			valueDone(i + 1)
		case '"':
			if len(stack) == 0 {
				return nil, false
			}
			top := stack[len(stack)-1]
			switch {
			case top.open == '{' && top.state == expectKey:
				stringKey = true
			case top.state == expectValue:
				stringKey = false
			default:
				return nil, false
			}
			inString = true
		case ':':
			if len(stack) == 0 || stack[len(stack)-1].state != expectColon {
				return nil, false
			}
			stack[len(stack)-1].state = expectValue
		case ',':
			if len(stack) == 0 || stack[len(stack)-1].state != expectNext {
				return nil, false
			}
			if stack[len(stack)-1].open == '{' {
				stack[len(stack)-1].state = expectKey
			} else {
				stack[len(stack)-1].state = expectValue
			}
		default:
			if !expectingValue() {
				return nil, false
			}
			j := i
			for j < len(buf) && !isDelimiter(buf[j]) {
				j++
			}
			if j == len(buf) {
				// number or literal may still grow
				break scan
			}
			valueDone(j)
			i = j
			continue
		}
		i++
	}

	if inString && !stringKey {
		cut := len(buf)
		if escapeAt >= 0 {
			cut = escapeAt
		}
		out := make([]byte, 0, cut+1+len(stack))
		out = append(out, buf[:cut]...)
		out = append(out, '"')
		return append(out, closers()...), true
	}

	if safeEnd < 0 {
		return nil, false
	}
	out := make([]byte, 0, safeEnd+len(safeClose))
	out = append(out, buf[:safeEnd]...)
	return append(out, safeClose...), true
}

func isDelimiter(c byte) bool {
	switch c {
	case ',', '}', ']', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// partialDecoder accumulates streamed text and yields a chunk each time the
// decodable prefix changes.
type partialDecoder struct {
	buf  []byte
	last []byte
}

// Push appends delta and reports the current chunk if it differs from the
// previously reported one.
func (d *partialDecoder) Push(delta string) (Partial, bool) {
	d.buf = append(d.buf, delta...)
	completed, ok := CompleteJSON(d.buf)
	if !ok || bytes.Equal(completed, d.last) {
		return Partial{}, false
	}
	var p Partial
	if err := json.Unmarshal(completed, &p); err != nil {
		return Partial{}, false
	}
	d.last = completed
	return p, true
}

// Text returns everything pushed so far.
func (d *partialDecoder) Text() string {
	return string(d.buf)
}
