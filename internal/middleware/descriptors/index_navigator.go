package descriptors

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-pff/internal/interfaces"
	"github.com/deploymenttheory/go-pff/internal/middleware/itemtree"
	pages "github.com/deploymenttheory/go-pff/internal/parsers/descriptors"
	"github.com/deploymenttheory/go-pff/internal/types"
)

// Key spaces of the shared node cache. Pages and node values live in the
// same cache, so their keys carry distinct tags.
const (
	pageKeyTag  = uint64(1) << 62
	valueKeyTag = uint64(2) << 62
)

// indexNode is the navigator's concrete DescriptorIndexNode: a reference
// to a page, or to a single leaf entry of a page.
type indexNode struct {
	fileOffset  uint64
	backPointer uint64

	// entryIndex is -1 for a page node and the entry position for a
	// leaf entry node.
	entryIndex int
}

// IndexNavigator walks the on-disk descriptors index lazily, reading and
// parsing pages on demand through the shared node cache.
//
// Deletion marking comes from recovery scans, which operate on a
// separate recovered-items index; nodes of the live index are never
// deleted, so IsDeleted is constantly false here.
type IndexNavigator struct {
	rootOffset      uint64
	rootBackPointer uint64
	endian          binary.ByteOrder
}

// NewDescriptorsIndexNavigator creates a navigator over the descriptors
// index rooted at the page the file header references.
func NewDescriptorsIndexNavigator(header *types.FileHeader) (*IndexNavigator, error) {
	if header == nil {
		return nil, fmt.Errorf("invalid file header")
	}
	if header.DescriptorsIndexRootOffset == 0 {
		return nil, fmt.Errorf("file header carries no descriptors index root")
	}
	return &IndexNavigator{
		rootOffset:      header.DescriptorsIndexRootOffset,
		rootBackPointer: header.DescriptorsIndexBackPointer,
		endian:          binary.LittleEndian,
	}, nil
}

// RootNode returns the root node of the descriptors index.
func (nav *IndexNavigator) RootNode() (interfaces.DescriptorIndexNode, error) {
	return &indexNode{
		fileOffset:  nav.rootOffset,
		backPointer: nav.rootBackPointer,
		entryIndex:  -1,
	}, nil
}

// IsDeleted checks if the node was marked deleted by a recovery scan.
func (nav *IndexNavigator) IsDeleted(node interfaces.DescriptorIndexNode) bool {
	return false
}

// IsLeaf checks if the node is a leaf node. Page nodes are interior
// nodes of the traversal; the entries of a leaf page are the leaves.
func (nav *IndexNavigator) IsLeaf(node interfaces.DescriptorIndexNode, ioHandle interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (bool, error) {
	ref, err := nav.node(node)
	if err != nil {
		return false, err
	}
	return ref.entryIndex >= 0, nil
}

// NumberOfSubNodes returns the number of sub nodes of a page node: the
// child pages of a branch page or the entries of a leaf page.
func (nav *IndexNavigator) NumberOfSubNodes(node interfaces.DescriptorIndexNode, ioHandle interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (int, error) {
	ref, err := nav.node(node)
	if err != nil {
		return 0, err
	}
	if ref.entryIndex >= 0 {
		return 0, nil
	}
	page, err := nav.page(ref, ioHandle, cache)
	if err != nil {
		return 0, fmt.Errorf("unable to read index node page at offset %#x: %w", ref.fileOffset, err)
	}
	return page.NumberOfEntries(), nil
}

// SubNode returns the sub node at the given index.
func (nav *IndexNavigator) SubNode(node interfaces.DescriptorIndexNode, ioHandle interfaces.IndexIOHandle, cache interfaces.IndexNodeCache, index int) (interfaces.DescriptorIndexNode, error) {
	pageNode, err := nav.node(node)
	if err != nil {
		return nil, err
	}
	if pageNode.entryIndex >= 0 {
		return nil, fmt.Errorf("leaf entry node has no sub nodes")
	}
	page, err := nav.page(pageNode, ioHandle, cache)
	if err != nil {
		return nil, fmt.Errorf("unable to read index node page at offset %#x: %w", pageNode.fileOffset, err)
	}
	if index < 0 || index >= page.NumberOfEntries() {
		return nil, fmt.Errorf("sub node index %d out of range [0, %d)", index, page.NumberOfEntries())
	}
	if page.IsLeaf() {
		return &indexNode{
			fileOffset:  pageNode.fileOffset,
			backPointer: pageNode.backPointer,
			entryIndex:  index,
		}, nil
	}
	entry, err := page.BranchEntry(index)
	if err != nil {
		return nil, fmt.Errorf("unable to read branch entry %d: %w", index, err)
	}
	return &indexNode{
		fileOffset:  entry.FileOffset,
		backPointer: entry.BackPointer,
		entryIndex:  -1,
	}, nil
}

// NodeValue returns the descriptor record of a leaf entry node. The
// returned pointer lives in the node cache and is only valid until the
// next call that may touch the cache.
func (nav *IndexNavigator) NodeValue(node interfaces.DescriptorIndexNode, ioHandle interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (*types.DescriptorIndexValue, error) {
	entryNode, err := nav.node(node)
	if err != nil {
		return nil, err
	}
	if entryNode.entryIndex < 0 {
		return nil, fmt.Errorf("page node carries no descriptor record")
	}
	page, err := nav.page(entryNode, ioHandle, cache)
	if err != nil {
		return nil, fmt.Errorf("unable to read index node page at offset %#x: %w", entryNode.fileOffset, err)
	}
	entry, err := page.DescriptorEntry(entryNode.entryIndex)
	if err != nil {
		return nil, fmt.Errorf("unable to read descriptor entry %d: %w", entryNode.entryIndex, err)
	}
	value := &types.DescriptorIndexValue{
		Identifier:                 entry.Identifier,
		ParentIdentifier:           entry.ParentIdentifier,
		DataIdentifier:             entry.DataIdentifier,
		LocalDescriptorsIdentifier: entry.LocalDescriptorsIdentifier,
	}
	if cache != nil {
		key := valueKeyTag | (entryNode.fileOffset + uint64(entryNode.entryIndex))
		cache.Put(key, value)
		if cached, ok := cache.Get(key); ok {
			return cached.(*types.DescriptorIndexValue), nil
		}
	}
	return value, nil
}

// LeafNodeByIdentifier descends the index from the root to the leaf
// entry holding the given identifier. Returns found=false without error
// when the identifier is not present.
func (nav *IndexNavigator) LeafNodeByIdentifier(ioHandle interfaces.IndexIOHandle, cache interfaces.IndexNodeCache, identifier uint64) (interfaces.DescriptorIndexNode, bool, error) {
	current := &indexNode{
		fileOffset:  nav.rootOffset,
		backPointer: nav.rootBackPointer,
		entryIndex:  -1,
	}
	for depth := 0; depth <= itemtree.MaximumRecursionDepth; depth++ {
		page, err := nav.page(current, ioHandle, cache)
		if err != nil {
			return nil, false, fmt.Errorf("unable to read index node page at offset %#x: %w", current.fileOffset, err)
		}
		if page.IsLeaf() {
			for index := 0; index < page.NumberOfEntries(); index++ {
				entry, err := page.DescriptorEntry(index)
				if err != nil {
					return nil, false, fmt.Errorf("unable to read descriptor entry %d: %w", index, err)
				}
				if entry.Identifier == identifier {
					return &indexNode{
						fileOffset:  current.fileOffset,
						backPointer: current.backPointer,
						entryIndex:  index,
					}, true, nil
				}
			}
			return nil, false, nil
		}
		// Branch entries are ordered ascending by the lowest
		// identifier reachable through the child page.
		next := -1
		for index := 0; index < page.NumberOfEntries(); index++ {
			entry, err := page.BranchEntry(index)
			if err != nil {
				return nil, false, fmt.Errorf("unable to read branch entry %d: %w", index, err)
			}
			if entry.Identifier > identifier {
				break
			}
			next = index
		}
		if next < 0 {
			return nil, false, nil
		}
		entry, err := page.BranchEntry(next)
		if err != nil {
			return nil, false, fmt.Errorf("unable to read branch entry %d: %w", next, err)
		}
		current = &indexNode{
			fileOffset:  entry.FileOffset,
			backPointer: entry.BackPointer,
			entryIndex:  -1,
		}
	}
	return nil, false, fmt.Errorf("descriptors index deeper than %d levels", itemtree.MaximumRecursionDepth)
}

// node asserts the navigator's concrete node type.
func (nav *IndexNavigator) node(node interfaces.DescriptorIndexNode) (*indexNode, error) {
	concrete, ok := node.(*indexNode)
	if !ok || concrete == nil {
		return nil, fmt.Errorf("invalid descriptors index node reference")
	}
	return concrete, nil
}

// page reads and parses the page a node lives on, through the cache.
func (nav *IndexNavigator) page(node *indexNode, ioHandle interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (interfaces.IndexNodePageReader, error) {
	key := pageKeyTag | node.fileOffset
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			return cached.(interfaces.IndexNodePageReader), nil
		}
	}
	reader, ok := ioHandle.(interfaces.FileReader)
	if !ok || reader == nil {
		return nil, fmt.Errorf("invalid file reader handle")
	}
	data, err := reader.ReadRange(int64(node.fileOffset), types.IndexNodePageSize)
	if err != nil {
		return nil, fmt.Errorf("unable to read %d bytes at offset %#x: %w", types.IndexNodePageSize, node.fileOffset, err)
	}
	page, err := pages.NewIndexNodePageReader(data, nav.endian)
	if err != nil {
		return nil, err
	}
	if page.PageType() != types.IndexNodePageTypeDescriptors {
		return nil, fmt.Errorf("page at offset %#x is not a descriptors index page: type %#x", node.fileOffset, page.PageType())
	}
	if page.BackPointer() != node.backPointer {
		return nil, fmt.Errorf("page back pointer mismatch at offset %#x: %#x, expected %#x",
			node.fileOffset, page.BackPointer(), node.backPointer)
	}
	if cache != nil {
		cache.Put(key, page)
	}
	return page, nil
}
