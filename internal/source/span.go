package source

import "fmt"

// Span is the byte range [Start, End) of one file.
type Span struct {
	File       FileID
	Start, End uint32
}

func (s Span) Empty() bool    { return s.End <= s.Start }
func (s Span) Len() uint32    { return s.End - s.Start }
func (s Span) String() string { return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End) }

// Cover widens s to include other. A span of another file leaves s as is.
func (s Span) Cover(other Span) Span {
	if s.File == other.File {
		s.Start = min(s.Start, other.Start)
		s.End = max(s.End, other.End)
	}
	return s
}

func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off < s.End
}
