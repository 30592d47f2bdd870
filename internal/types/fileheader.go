// Package types implements the on-disk data structures of the Personal
// Folder File (PFF) family of containers (PST, OST and PAB files).
package types

// File header
// Every PFF file starts with a header that identifies the format variant
// and carries the root references of the two file level B-trees: the
// offsets index and the descriptors index.

// FileHeaderSignature is the 4 byte signature every PFF file starts with,
// "!BDN" in ASCII.
const FileHeaderSignature uint32 = 0x4e444221

// File content types.
const (
	// ContentTypePAB marks a personal address book file.
	ContentTypePAB = "AB"

	// ContentTypePST marks a personal storage table file.
	ContentTypePST = "SM"

	// ContentTypeOST marks an offline storage table file.
	ContentTypeOST = "SO"
)

// Format versions, stored at offset 10 of the file header.
const (
	// FormatVersion32BitANSI is the 32-bit (ANSI) format.
	FormatVersion32BitANSI uint16 = 14

	// FormatVersion32BitANSIVariant is the later 32-bit (ANSI) format.
	FormatVersion32BitANSIVariant uint16 = 15

	// FormatVersion64Bit is the 64-bit (Unicode) format.
	FormatVersion64Bit uint16 = 23
)

// File header field offsets (64-bit format).
const (
	// FileHeaderSignatureOffset is the offset of the file signature.
	FileHeaderSignatureOffset = 0

	// FileHeaderContentTypeOffset is the offset of the content type.
	FileHeaderContentTypeOffset = 8

	// FileHeaderFormatVersionOffset is the offset of the format version.
	FileHeaderFormatVersionOffset = 10

	// FileHeaderFileSizeOffset is the offset of the file size field.
	FileHeaderFileSizeOffset = 184

	// FileHeaderDescriptorsIndexBackPointerOffset is the offset of the
	// back pointer of the descriptors index root page.
	FileHeaderDescriptorsIndexBackPointerOffset = 216

	// FileHeaderDescriptorsIndexRootOffset is the offset of the file
	// offset of the descriptors index root page.
	FileHeaderDescriptorsIndexRootOffset = 224

	// FileHeaderOffsetsIndexBackPointerOffset is the offset of the back
	// pointer of the offsets index root page.
	FileHeaderOffsetsIndexBackPointerOffset = 232

	// FileHeaderOffsetsIndexRootOffset is the offset of the file offset
	// of the offsets index root page.
	FileHeaderOffsetsIndexRootOffset = 240

	// FileHeaderSize64Bit is the size of the 64-bit format file header.
	FileHeaderSize64Bit = 564
)

// FileHeader holds the fields of the file header the descriptors index
// navigation needs. Encryption and allocation map fields are not
// represented.
type FileHeader struct {
	// The content type.
	ContentType string

	// The format version.
	FormatVersion uint16

	// The file size according to the header.
	FileSize uint64

	// The file offset of the descriptors index root page.
	DescriptorsIndexRootOffset uint64

	// The back pointer of the descriptors index root page.
	DescriptorsIndexBackPointer uint64

	// The file offset of the offsets index root page.
	OffsetsIndexRootOffset uint64

	// The back pointer of the offsets index root page.
	OffsetsIndexBackPointer uint64
}

// IsUnicode reports whether the header describes a 64-bit (Unicode)
// format file.
func (h *FileHeader) IsUnicode() bool {
	return h.FormatVersion >= FormatVersion64Bit
}
