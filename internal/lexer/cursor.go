package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"lamina/internal/source"
)

// Cursor walks the bytes of one file. Reads past the end yield 0, which is
// never a valid lamina byte.
type Cursor struct {
	src  []byte
	file source.FileID
	pos  uint32
	end  uint32
}

func NewCursor(f *source.File) Cursor {
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{src: f.Content, file: f.ID, end: end}
}

// EOF проверяет, достигнут ли конец файла
func (c *Cursor) EOF() bool { return c.pos >= c.end }

// Pos is the offset of the next unread byte.
func (c *Cursor) Pos() uint32 { return c.pos }

func (c *Cursor) Peek() byte { return c.PeekAt(0) }

// PeekAt returns the byte n positions ahead.
func (c *Cursor) PeekAt(n uint32) byte {
	if n >= c.end-min(c.pos, c.end) {
		return 0
	}
	return c.src[c.pos+n]
}

// Bump съедает один байт и возвращает его.
func (c *Cursor) Bump() byte {
	b := c.Peek()
	if !c.EOF() {
		c.pos++
	}
	return b
}

// Eat consumes the next byte if it is b.
func (c *Cursor) Eat(b byte) bool {
	if c.EOF() || c.src[c.pos] != b {
		return false
	}
	c.pos++
	return true
}

// EatWhile consumes bytes while keep holds and returns how many it took.
func (c *Cursor) EatWhile(keep func(byte) bool) uint32 {
	from := c.pos
	for c.pos < c.end && keep(c.src[c.pos]) {
		c.pos++
	}
	return c.pos - from
}

// Mark запоминает позицию для SpanFrom/Reset.
type Mark uint32

func (c *Cursor) Mark() Mark { return Mark(c.pos) }

func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.file, Start: uint32(m), End: c.pos}
}

func (c *Cursor) Text(sp source.Span) []byte { return c.src[sp.Start:sp.End] }

func (c *Cursor) Reset(m Mark) { c.pos = uint32(m) }
