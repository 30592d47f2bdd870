// File: internal/interfaces/descriptors_index.go
package interfaces

import (
	"github.com/deploymenttheory/go-pff/internal/types"
)

// DescriptorIndexNode is an opaque reference to one node of the
// descriptors index. Implementations choose their own concrete node
// representation; callers only pass references back into the
// DescriptorsIndexReader that produced them.
type DescriptorIndexNode interface{}

// IndexIOHandle is an opaque token threaded through descriptors index
// calls. The item tree never interprets it; disk backed implementations
// type assert it to their file handle.
type IndexIOHandle interface{}

// IndexNodeCache caches descriptor index node values across traversal
// calls. A value put into the cache may be evicted by any later call that
// touches the cache, so callers must copy the scalar fields they need
// from a cached value before performing another index operation.
type IndexNodeCache interface {
	// Get retrieves a cached value by key
	Get(key uint64) (any, bool)

	// Put stores a value under the given key, possibly evicting
	// another entry
	Put(key uint64, value any)

	// Clear removes all cached entries
	Clear()
}

// DescriptorsIndexReader provides lazy traversal of the descriptors
// index B-tree. Node values may be read from disk on demand; the reader
// reports rather than hides I/O errors. How the item tree build treats a
// NumberOfSubNodes failure is noted on that method.
type DescriptorsIndexReader interface {
	// RootNode returns the root node of the descriptors index
	RootNode() (DescriptorIndexNode, error)

	// IsDeleted checks if the node was marked deleted by a recovery
	// scan; deleted nodes are skipped silently during traversal
	IsDeleted(node DescriptorIndexNode) bool

	// IsLeaf checks if the node is a leaf node; may perform I/O and
	// populate the cache
	IsLeaf(node DescriptorIndexNode, io IndexIOHandle, cache IndexNodeCache) (bool, error)

	// NumberOfSubNodes returns the number of sub nodes of a branch
	// node; may perform I/O and populate the cache. The item tree build
	// treats an error here as an unreadable node and skips its subtree
	// instead of failing
	NumberOfSubNodes(node DescriptorIndexNode, io IndexIOHandle, cache IndexNodeCache) (int, error)

	// SubNode returns the sub node at the given index; may perform
	// I/O and populate the cache
	SubNode(node DescriptorIndexNode, io IndexIOHandle, cache IndexNodeCache, index int) (DescriptorIndexNode, error)

	// NodeValue returns the descriptor record of a leaf node. The
	// returned value is only valid until the next call that may touch
	// the cache; callers must copy the scalars they need first.
	NodeValue(node DescriptorIndexNode, io IndexIOHandle, cache IndexNodeCache) (*types.DescriptorIndexValue, error)

	// LeafNodeByIdentifier performs a point lookup of the leaf node
	// holding the given identifier. Returns found=false without error
	// when the identifier is not present.
	LeafNodeByIdentifier(io IndexIOHandle, cache IndexNodeCache, identifier uint64) (DescriptorIndexNode, bool, error)
}
