// File: internal/interfaces/file_reader.go
package interfaces

import "io"

// FileReader provides methods for reading from an opened PFF file.
// PFF files are addressed by absolute file offsets rather than by block
// numbers; index pages may start at any 64 byte aligned offset.
type FileReader interface {
	// ReadAt reads len(buf) bytes starting at the given file offset
	ReadAt(buf []byte, offset int64) (int, error)

	// ReadRange reads length bytes starting at the given file offset
	ReadRange(offset int64, length uint32) ([]byte, error)

	// Size returns the total size of the file in bytes
	Size() int64

	// IsValidOffset checks if a file offset is inside the file
	IsValidOffset(offset int64) bool

	// CanReadRange checks if a range of bytes can be read
	CanReadRange(offset int64, length uint32) bool
}

// File represents a complete read handle on a PFF file
type File interface {
	FileReader
	io.Closer

	// Path returns the system path the file was opened from
	Path() string
}

// FileCacheStats contains read cache performance counters
type FileCacheStats struct {
	// Total number of cache hits
	Hits uint64

	// Total number of cache misses
	Misses uint64

	// Current number of cached pages
	PagesInCache uint32

	// Total bytes currently cached
	BytesCached uint64
}
