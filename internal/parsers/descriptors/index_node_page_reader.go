package descriptors

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/deploymenttheory/go-pff/internal/interfaces"
	"github.com/deploymenttheory/go-pff/internal/types"
)

// indexNodePageReader implements the IndexNodePageReader interface for
// the 64-bit page format.
type indexNodePageReader struct {
	header  types.IndexNodePageHeader
	trailer types.IndexNodePageTrailer
	data    []byte
	endian  binary.ByteOrder
}

// NewIndexNodePageReader parses a 512 byte index node page.
// The page trailer is validated: the page type and its copy must agree,
// the entry layout must fit the entry area and the checksum of the entry
// area must match.
func NewIndexNodePageReader(data []byte, endian binary.ByteOrder) (interfaces.IndexNodePageReader, error) {
	if len(data) != types.IndexNodePageSize {
		return nil, fmt.Errorf("invalid index node page size: %d bytes", len(data))
	}

	reader := &indexNodePageReader{
		data:   data,
		endian: endian,
	}

	headerData := data[types.IndexNodePageHeaderOffset:types.IndexNodePageTrailerOffset]
	reader.header.NumberOfEntries = headerData[0]
	reader.header.MaximumNumberOfEntries = headerData[1]
	reader.header.EntrySize = headerData[2]
	reader.header.Level = headerData[3]

	trailerData := data[types.IndexNodePageTrailerOffset:]
	reader.trailer.PageType = trailerData[0]
	reader.trailer.PageTypeCopy = trailerData[1]
	reader.trailer.Signature = endian.Uint16(trailerData[2:4])
	reader.trailer.Checksum = endian.Uint32(trailerData[4:8])
	reader.trailer.BackPointer = endian.Uint64(trailerData[8:16])

	if reader.trailer.PageType != reader.trailer.PageTypeCopy {
		return nil, fmt.Errorf("page type mismatch: %#x and copy %#x",
			reader.trailer.PageType, reader.trailer.PageTypeCopy)
	}
	if reader.trailer.PageType != types.IndexNodePageTypeOffsets &&
		reader.trailer.PageType != types.IndexNodePageTypeDescriptors {
		return nil, fmt.Errorf("unsupported page type: %#x", reader.trailer.PageType)
	}

	expectedEntrySize := expectedEntrySize(reader.trailer.PageType, reader.header.Level)
	if int(reader.header.EntrySize) != expectedEntrySize {
		return nil, fmt.Errorf("entry size %d does not match %d for page type %#x level %d",
			reader.header.EntrySize, expectedEntrySize, reader.trailer.PageType, reader.header.Level)
	}
	if reader.header.NumberOfEntries > reader.header.MaximumNumberOfEntries {
		return nil, fmt.Errorf("number of entries %d exceeds maximum %d",
			reader.header.NumberOfEntries, reader.header.MaximumNumberOfEntries)
	}
	if int(reader.header.NumberOfEntries)*int(reader.header.EntrySize) > types.IndexNodeEntryAreaSize {
		return nil, fmt.Errorf("entries extend beyond the entry area: %d entries of %d bytes",
			reader.header.NumberOfEntries, reader.header.EntrySize)
	}

	checksum := crc32.ChecksumIEEE(data[:types.IndexNodeEntryAreaSize])
	if checksum != reader.trailer.Checksum {
		return nil, fmt.Errorf("page checksum mismatch: calculated %#x, stored %#x",
			checksum, reader.trailer.Checksum)
	}

	return reader, nil
}

// expectedEntrySize returns the entry size for a page type and level.
func expectedEntrySize(pageType uint8, level uint8) int {
	if level > 0 {
		return types.IndexNodeBranchEntrySize
	}
	if pageType == types.IndexNodePageTypeDescriptors {
		return types.IndexNodeDescriptorEntrySize
	}
	// Offsets index leaf entries carry (identifier, file offset, size,
	// reference count); same size as a branch entry.
	return types.IndexNodeBranchEntrySize
}

// NumberOfEntries returns the number of entries in the entry area.
func (pr *indexNodePageReader) NumberOfEntries() int {
	return int(pr.header.NumberOfEntries)
}

// EntrySize returns the size of a single entry in bytes.
func (pr *indexNodePageReader) EntrySize() int {
	return int(pr.header.EntrySize)
}

// Level returns the number of child levels below this page.
func (pr *indexNodePageReader) Level() uint8 {
	return pr.header.Level
}

// IsLeaf checks if the page is a leaf page.
func (pr *indexNodePageReader) IsLeaf() bool {
	return pr.header.Level == 0
}

// PageType returns the page type from the page trailer.
func (pr *indexNodePageReader) PageType() uint8 {
	return pr.trailer.PageType
}

// BackPointer returns the identifier the parent page used to reference
// this page.
func (pr *indexNodePageReader) BackPointer() uint64 {
	return pr.trailer.BackPointer
}

// entryData returns the raw bytes of the entry at the given index.
func (pr *indexNodePageReader) entryData(index int) ([]byte, error) {
	if index < 0 || index >= int(pr.header.NumberOfEntries) {
		return nil, fmt.Errorf("entry index %d out of range [0, %d)", index, pr.header.NumberOfEntries)
	}
	offset := index * int(pr.header.EntrySize)
	return pr.data[offset : offset+int(pr.header.EntrySize)], nil
}

// BranchEntry returns the branch entry at the given index.
func (pr *indexNodePageReader) BranchEntry(index int) (*types.IndexNodeBranchEntry, error) {
	if pr.IsLeaf() {
		return nil, fmt.Errorf("cannot read branch entry from leaf page")
	}
	entryData, err := pr.entryData(index)
	if err != nil {
		return nil, err
	}
	return &types.IndexNodeBranchEntry{
		Identifier:  pr.endian.Uint64(entryData[0:8]),
		BackPointer: pr.endian.Uint64(entryData[8:16]),
		FileOffset:  pr.endian.Uint64(entryData[16:24]),
	}, nil
}

// DescriptorEntry returns the descriptors index leaf entry at the given
// index.
func (pr *indexNodePageReader) DescriptorEntry(index int) (*types.IndexNodeDescriptorEntry, error) {
	if !pr.IsLeaf() {
		return nil, fmt.Errorf("cannot read descriptor entry from branch page")
	}
	if pr.trailer.PageType != types.IndexNodePageTypeDescriptors {
		return nil, fmt.Errorf("cannot read descriptor entry from page type %#x", pr.trailer.PageType)
	}
	entryData, err := pr.entryData(index)
	if err != nil {
		return nil, err
	}
	return &types.IndexNodeDescriptorEntry{
		Identifier:                 pr.endian.Uint64(entryData[0:8]),
		DataIdentifier:             pr.endian.Uint64(entryData[8:16]),
		LocalDescriptorsIdentifier: pr.endian.Uint64(entryData[16:24]),
		ParentIdentifier:           pr.endian.Uint32(entryData[24:28]),
	}, nil
}
