package source

// FileID numbers files of one FileSet densely from zero.
type FileID uint32

// FileFlags records what loading did to a file.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory, not read from disk
	FileHadBOM                               // a UTF-8 BOM was stripped
	FileNormalizedCRLF                       // \r\n rewritten to \n
)

// File is one loaded compilation unit. Content is already normalized, so
// every Span offset refers to it and not to the bytes on disk.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the offset of every '\n' in Content.
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position for humans.
type LineCol struct {
	Line, Col uint32
}
