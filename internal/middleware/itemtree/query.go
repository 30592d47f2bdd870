package itemtree

import "fmt"

// NodeByIdentifier searches the subtree rooted at node for the item with
// the given descriptor identifier, pre-order. The search is bounded by
// MaximumRecursionDepth; entering with a depth outside [0, maximum] is an
// error. Returns found=false without error when the identifier is not
// present in the subtree.
func NodeByIdentifier(node *Node, identifier uint32, recursionDepth int) (*Node, bool, error) {
	if node == nil {
		return nil, false, fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if recursionDepth < 0 || recursionDepth > MaximumRecursionDepth {
		return nil, false, fmt.Errorf("recursion depth %d: %w", recursionDepth, ErrValueOutOfBounds)
	}
	value, err := node.Value()
	if err != nil {
		return nil, false, fmt.Errorf("unable to retrieve item descriptor: %w", err)
	}
	if value.DescriptorIdentifier() == identifier {
		return node, true, nil
	}
	for index := 0; index < node.NumberOfSubNodes(); index++ {
		subNode, err := node.SubNode(index)
		if err != nil {
			return nil, false, fmt.Errorf("unable to retrieve sub node %d: %w", index, err)
		}
		result, found, err := NodeByIdentifier(subNode, identifier, recursionDepth+1)
		if err != nil {
			return nil, false, fmt.Errorf("unable to traverse sub node %d: %w", index, err)
		}
		if found {
			return result, true, nil
		}
	}
	return nil, false, nil
}

// SubNodeByIdentifier scans the immediate sub nodes of node for the item
// with the given descriptor identifier. Does not recurse. Returns
// found=false without error when no direct sub node matches.
func SubNodeByIdentifier(node *Node, identifier uint32) (*Node, bool, error) {
	if node == nil {
		return nil, false, fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if _, err := node.Value(); err != nil {
		return nil, false, fmt.Errorf("unable to retrieve item descriptor: %w", err)
	}
	for index := 0; index < node.NumberOfSubNodes(); index++ {
		subNode, err := node.SubNode(index)
		if err != nil {
			return nil, false, fmt.Errorf("unable to retrieve sub node %d: %w", index, err)
		}
		value, err := subNode.Value()
		if err != nil {
			return nil, false, fmt.Errorf("unable to retrieve item descriptor of sub node %d: %w", index, err)
		}
		if value.DescriptorIdentifier() == identifier {
			return subNode, true, nil
		}
	}
	return nil, false, nil
}

// AppendIdentifier creates an item descriptor from the given identifiers
// and unconditionally appends it as a sub node. Used to attach items
// found by a recovery scan, which bypass the descriptors index.
func AppendIdentifier(node *Node, descriptorIdentifier uint32, dataIdentifier uint64, localDescriptorsIdentifier uint64, recovered bool) error {
	if node == nil {
		return fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	value := NewItemDescriptor(descriptorIdentifier, dataIdentifier, localDescriptorsIdentifier, recovered)
	if err := node.AppendValue(value); err != nil {
		return fmt.Errorf("unable to append item descriptor: %w", err)
	}
	return nil
}
