package fileheader

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-pff/internal/types"
)

// NewFileHeaderReader parses the PFF file header and returns the fields
// the descriptors index navigation needs. Only the 64-bit (Unicode)
// format is supported; 32-bit (ANSI) files are recognized and rejected.
func NewFileHeaderReader(data []byte, endian binary.ByteOrder) (*types.FileHeader, error) {
	if len(data) < types.FileHeaderSize64Bit {
		return nil, fmt.Errorf("data too small for file header: %d bytes", len(data))
	}

	signature := endian.Uint32(data[types.FileHeaderSignatureOffset:])
	if signature != types.FileHeaderSignature {
		return nil, fmt.Errorf("invalid file signature: %#x", signature)
	}

	contentType := string(data[types.FileHeaderContentTypeOffset : types.FileHeaderContentTypeOffset+2])
	switch contentType {
	case types.ContentTypePST, types.ContentTypeOST, types.ContentTypePAB:
	default:
		return nil, fmt.Errorf("unsupported content type: %q", contentType)
	}

	formatVersion := endian.Uint16(data[types.FileHeaderFormatVersionOffset:])
	if formatVersion < types.FormatVersion64Bit {
		return nil, fmt.Errorf("unsupported format version: %d (32-bit files are not supported)", formatVersion)
	}

	return &types.FileHeader{
		ContentType:                 contentType,
		FormatVersion:               formatVersion,
		FileSize:                    endian.Uint64(data[types.FileHeaderFileSizeOffset:]),
		DescriptorsIndexBackPointer: endian.Uint64(data[types.FileHeaderDescriptorsIndexBackPointerOffset:]),
		DescriptorsIndexRootOffset:  endian.Uint64(data[types.FileHeaderDescriptorsIndexRootOffset:]),
		OffsetsIndexBackPointer:     endian.Uint64(data[types.FileHeaderOffsetsIndexBackPointerOffset:]),
		OffsetsIndexRootOffset:      endian.Uint64(data[types.FileHeaderOffsetsIndexRootOffset:]),
	}, nil
}
