// File: internal/interfaces/index_pages.go
package interfaces

import (
	"github.com/deploymenttheory/go-pff/internal/types"
)

// IndexNodePageReader provides methods for reading one parsed index node
// page of a file level B-tree.
type IndexNodePageReader interface {
	// NumberOfEntries returns the number of entries in the entry area
	NumberOfEntries() int

	// EntrySize returns the size of a single entry in bytes
	EntrySize() int

	// Level returns the number of child levels below this page;
	// a leaf page has level zero
	Level() uint8

	// IsLeaf checks if the page is a leaf page
	IsLeaf() bool

	// PageType returns the page type from the page trailer
	PageType() uint8

	// BackPointer returns the identifier the parent page used to
	// reference this page
	BackPointer() uint64

	// BranchEntry returns the branch entry at the given index;
	// fails on a leaf page
	BranchEntry(index int) (*types.IndexNodeBranchEntry, error)

	// DescriptorEntry returns the descriptors index leaf entry at the
	// given index; fails on a branch page
	DescriptorEntry(index int) (*types.IndexNodeDescriptorEntry, error)
}
