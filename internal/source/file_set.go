package source

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"

	"fortio.org/safecast"
)

// MaxFileSize bounds a source file so every offset fits in uint32.
const MaxFileSize int64 = math.MaxUint32 - 1

// FileSet owns the files of one compilation (or of one directory build,
// where it is filled up front and then only read). IDs are dense from 0.
type FileSet struct {
	files []File
}

func NewFileSet() *FileSet {
	return &FileSet{files: make([]File, 0, 4)}
}

// Load reads path from disk and adds it with BOM and CRLF normalized.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.Size() > MaxFileSize {
		return 0, fmt.Errorf("%s: file is too large (%d bytes)", path, info.Size())
	}
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.add(path, content, 0), nil
}

// AddVirtual adds an in-memory file (stdin, test, REPL line) with the
// FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	if int64(len(content)) > MaxFileSize {
		content = content[:MaxFileSize]
	}
	return fileSet.add(name, content, FileVirtual)
}

func (fileSet *FileSet) add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("source: too many files: %w", err))
	}
	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	id := FileID(n)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	return id
}

func (fileSet *FileSet) Get(id FileID) *File {
	if uint64(id) >= uint64(len(fileSet.files)) {
		return nil
	}
	return &fileSet.files[id]
}

// Resolve converts a span into 1-based line/column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// GetLine возвращает строку с номером lineNum (1-based) без '\n'; пустую,
// если такой строки нет.
func (f *File) GetLine(lineNum uint32) string {
	lines := uint64(len(f.LineIdx)) + 1
	if lineNum == 0 || uint64(lineNum) > lines {
		return ""
	}
	i := int(lineNum) - 1
	start := 0
	if i > 0 {
		start = int(f.LineIdx[i-1]) + 1
	}
	end := len(f.Content)
	if i < len(f.LineIdx) {
		end = int(f.LineIdx[i])
	}
	return string(f.Content[start:end])
}
