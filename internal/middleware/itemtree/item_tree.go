package itemtree

import (
	"fmt"
	"math"

	"github.com/deploymenttheory/go-pff/internal/interfaces"
	"github.com/deploymenttheory/go-pff/internal/logging"
)

// MaximumRecursionDepth bounds every recursive walk of this package: the
// descriptors index traversal, the parent read-ahead and the in-memory
// tree search all share the same limit. The bound exists to keep
// adversarial files with deeply nested or cyclic parent references from
// exhausting the stack.
const MaximumRecursionDepth = 1000

// Tree is the eagerly materialized item hierarchy of a mailbox.
//
// The tree is rooted at a synthetic node carrying descriptor identifier
// zero. The root folder of the mailbox, the unique descriptor that
// references itself as its parent, becomes a sub node of the synthetic
// root during Build. A built tree is safe for concurrent readers only
// with external synchronization; it is never mutated after Build.
type Tree struct {
	rootNode *Node
}

// NewTree creates an item tree with no root node. Build materializes it.
func NewTree() *Tree {
	return &Tree{}
}

// RootNode returns the synthetic root node, or nil before a successful
// Build.
func (t *Tree) RootNode() *Node {
	if t == nil {
		return nil
	}
	return t.rootNode
}

// NodeByIdentifier searches the built tree for the item with the given
// descriptor identifier. Returns found=false without error when the
// identifier is not present.
func (t *Tree) NodeByIdentifier(identifier uint32) (*Node, bool, error) {
	if t == nil {
		return nil, false, fmt.Errorf("invalid item tree: %w", ErrInvalidArgument)
	}
	if t.rootNode == nil {
		return nil, false, fmt.Errorf("invalid item tree - missing root node: %w", ErrValueMissing)
	}
	result, found, err := NodeByIdentifier(t.rootNode, identifier, 0)
	if err != nil {
		return nil, false, fmt.Errorf("unable to retrieve item tree node %d: %w", identifier, err)
	}
	return result, found, nil
}

// Build creates the item tree from the descriptors index.
//
// The index is walked depth first; every leaf record becomes one node of
// the tree, attached under its parent. A leaf whose parent has not been
// materialized yet triggers a targeted read-ahead of the parent in the
// index; if the parent still cannot be found the leaf is appended to the
// orphan list as a detached node. Records whose identifier and parent
// identifier are equal form the root folder, of which there can be only
// one.
//
// Returns the root folder node, which is nil when the index contains no
// root folder descriptor. On error the tree is left without a root node;
// orphans appended before the failure stay on the caller's list.
func (t *Tree) Build(ioHandle interfaces.IndexIOHandle, index interfaces.DescriptorsIndexReader, cache interfaces.IndexNodeCache, orphans *OrphanList) (*Node, error) {
	if t == nil {
		return nil, fmt.Errorf("invalid item tree: %w", ErrInvalidArgument)
	}
	if t.rootNode != nil {
		return nil, fmt.Errorf("invalid item tree - root node: %w", ErrValueAlreadySet)
	}
	if index == nil {
		return nil, fmt.Errorf("invalid descriptors index: %w", ErrInvalidArgument)
	}
	if orphans == nil {
		return nil, fmt.Errorf("invalid orphan list: %w", ErrInvalidArgument)
	}
	indexRootNode, err := index.RootNode()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve descriptors index root node: %w", err)
	}
	t.rootNode = NewNode(NewItemDescriptor(0, 0, 0, false))

	var rootFolderNode *Node

	if err := t.createNode(ioHandle, index, indexRootNode, cache, orphans, &rootFolderNode, 0); err != nil {
		t.rootNode = nil
		return nil, fmt.Errorf("unable to create item tree: %w", err)
	}
	return rootFolderNode, nil
}

// createNode walks one descriptors index node, recursing into branch
// nodes and materializing leaf nodes.
func (t *Tree) createNode(ioHandle interfaces.IndexIOHandle, index interfaces.DescriptorsIndexReader, indexNode interfaces.DescriptorIndexNode, cache interfaces.IndexNodeCache, orphans *OrphanList, rootFolderNode **Node, recursionDepth int) error {
	if recursionDepth < 0 || recursionDepth > MaximumRecursionDepth {
		return fmt.Errorf("recursion depth %d: %w", recursionDepth, ErrValueOutOfBounds)
	}
	// Determining the number of sub nodes is the first read of the index
	// node. A failure here means the node itself is unreadable; the
	// subtree is skipped so that one corrupt branch does not lose the
	// rest of the mailbox. This is the only error the walk swallows.
	numberOfSubNodes, err := index.NumberOfSubNodes(indexNode, ioHandle, cache)
	if err != nil {
		logging.Debugf("itemtree: skipping unreadable descriptors index node: %v", err)
		return nil
	}
	if index.IsDeleted(indexNode) {
		return nil
	}
	isLeaf, err := index.IsLeaf(indexNode, ioHandle, cache)
	if err != nil {
		return fmt.Errorf("unable to determine if descriptors index node is a leaf node: %w", err)
	}
	if isLeaf {
		if err := t.createLeafNode(ioHandle, index, indexNode, cache, orphans, rootFolderNode, recursionDepth); err != nil {
			return fmt.Errorf("unable to create item tree node from descriptors index leaf node: %w", err)
		}
		return nil
	}
	for subNodeIndex := 0; subNodeIndex < numberOfSubNodes; subNodeIndex++ {
		indexSubNode, err := index.SubNode(indexNode, ioHandle, cache, subNodeIndex)
		if err != nil {
			return fmt.Errorf("unable to retrieve descriptors index sub node %d: %w", subNodeIndex, err)
		}
		if err := t.createNode(ioHandle, index, indexSubNode, cache, orphans, rootFolderNode, recursionDepth+1); err != nil {
			return fmt.Errorf("unable to create item tree from descriptors index sub node %d: %w", subNodeIndex, err)
		}
	}
	return nil
}

// createLeafNode materializes one descriptors index leaf record into the
// item tree, the root folder slot or the orphan list.
func (t *Tree) createLeafNode(ioHandle interfaces.IndexIOHandle, index interfaces.DescriptorsIndexReader, indexNode interfaces.DescriptorIndexNode, cache interfaces.IndexNodeCache, orphans *OrphanList, rootFolderNode **Node, recursionDepth int) error {
	if recursionDepth < 0 || recursionDepth > MaximumRecursionDepth {
		return fmt.Errorf("recursion depth %d: %w", recursionDepth, ErrValueOutOfBounds)
	}
	indexValue, err := index.NodeValue(indexNode, ioHandle, cache)
	if err != nil {
		return fmt.Errorf("unable to retrieve descriptors index node value: %w", err)
	}
	if indexValue == nil {
		return fmt.Errorf("missing descriptors index node value: %w", ErrValueMissing)
	}
	if indexValue.Identifier > math.MaxUint32 {
		return fmt.Errorf("descriptors index identifier %d exceeds maximum: %w", indexValue.Identifier, ErrValueOutOfBounds)
	}
	value := NewItemDescriptor(
		uint32(indexValue.Identifier),
		indexValue.DataIdentifier,
		indexValue.LocalDescriptorsIdentifier,
		false,
	)
	// The index value lives in the node cache and any further index call
	// may evict it, so preserve the scalars needed below before another
	// index operation runs.
	identifier := uint32(indexValue.Identifier)
	parentIdentifier := indexValue.ParentIdentifier

	// The root folder descriptor references itself as its parent.
	if identifier == parentIdentifier {
		if *rootFolderNode != nil {
			existing, err := (*rootFolderNode).Value()
			if err != nil {
				return fmt.Errorf("unable to retrieve root folder item descriptor: %w", err)
			}
			// Read-ahead can materialize the root folder before the
			// index walk reaches its leaf; seeing the same descriptor
			// again is the ordinary duplicate case. A second distinct
			// self-parented descriptor is corruption.
			if existing.DescriptorIdentifier() == identifier {
				return nil
			}
			return fmt.Errorf("root folder item tree node: %w", ErrValueAlreadySet)
		}
		node := NewNode(value)
		inserted, err := t.rootNode.InsertSubNode(node)
		if err != nil {
			return fmt.Errorf("unable to insert root folder node in item tree: %w", err)
		}
		if inserted {
			*rootFolderNode = node
		}
		return nil
	}
	parentNode, found, err := NodeByIdentifier(t.rootNode, parentIdentifier, 0)
	if err != nil {
		return fmt.Errorf("unable to find parent node %d: %w", parentIdentifier, err)
	}
	if !found {
		logging.Debugf("itemtree: reading ahead for descriptor %d parent %d", identifier, parentIdentifier)

		indexParentNode, hit, err := index.LeafNodeByIdentifier(ioHandle, cache, uint64(parentIdentifier))
		if err != nil {
			return fmt.Errorf("unable to look up parent %d in descriptors index: %w", parentIdentifier, err)
		}
		if hit {
			if indexParentNode == nil {
				return fmt.Errorf("missing descriptors index parent node: %w", ErrValueMissing)
			}
			if err := t.createNode(ioHandle, index, indexParentNode, cache, orphans, rootFolderNode, recursionDepth+1); err != nil {
				return fmt.Errorf("unable to create item tree from descriptors index parent node %d: %w", parentIdentifier, err)
			}
			parentNode, found, err = NodeByIdentifier(t.rootNode, parentIdentifier, 0)
			if err != nil {
				return fmt.Errorf("unable to find parent node %d after read-ahead: %w", parentIdentifier, err)
			}
		}
	}
	if !found {
		logging.Debugf("itemtree: parent node %d missing - found orphan node %d", parentIdentifier, identifier)

		if err := orphans.Append(NewNode(value)); err != nil {
			return fmt.Errorf("unable to append orphan node to orphan list: %w", err)
		}
		return nil
	}
	if parentNode == nil {
		return fmt.Errorf("invalid parent node: %w", ErrValueMissing)
	}
	// A duplicate identifier under the same parent drops the new
	// descriptor and keeps the existing sub node.
	if _, err := parentNode.InsertValue(value); err != nil {
		return fmt.Errorf("unable to insert item descriptor in item tree node: %w", err)
	}
	return nil
}
