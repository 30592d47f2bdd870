package itemtree

import "fmt"

// Node is one node of the materialized item tree. A node owns its item
// descriptor and an ordered list of sub nodes; destruction of a tree is
// a matter of dropping the root reference. Back pointers from a node to
// its parent are deliberately absent.
type Node struct {
	value    *ItemDescriptor
	subNodes []*Node
}

// NewNode creates a node carrying the given item descriptor.
// The descriptor may be nil for a node whose value is set later; reading
// the value of such a node fails until it is set.
func NewNode(value *ItemDescriptor) *Node {
	return &Node{
		value: value,
	}
}

// Value returns the node's item descriptor.
func (n *Node) Value() (*ItemDescriptor, error) {
	if n == nil {
		return nil, fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if n.value == nil {
		return nil, fmt.Errorf("missing item descriptor: %w", ErrValueMissing)
	}
	return n.value, nil
}

// SetValue sets the node's item descriptor.
func (n *Node) SetValue(value *ItemDescriptor) error {
	if n == nil {
		return fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if n.value != nil {
		return fmt.Errorf("item descriptor: %w", ErrValueAlreadySet)
	}
	n.value = value
	return nil
}

// NumberOfSubNodes returns the number of sub nodes.
func (n *Node) NumberOfSubNodes() int {
	if n == nil {
		return 0
	}
	return len(n.subNodes)
}

// SubNode returns the sub node at the given index.
func (n *Node) SubNode(index int) (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if index < 0 || index >= len(n.subNodes) {
		return nil, fmt.Errorf("sub node index %d: %w", index, ErrValueOutOfBounds)
	}
	return n.subNodes[index], nil
}

// AppendValue unconditionally appends a new sub node carrying the given
// item descriptor. Used when attaching recovered items, where ordering
// and uniqueness are the caller's concern.
func (n *Node) AppendValue(value *ItemDescriptor) error {
	if n == nil {
		return fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if value == nil {
		return fmt.Errorf("invalid item descriptor: %w", ErrInvalidArgument)
	}
	n.subNodes = append(n.subNodes, NewNode(value))
	return nil
}

// InsertValue inserts a new sub node carrying the given item descriptor,
// keeping the sub node list ordered by descriptor identifier. Returns
// false when a sub node with the same identifier already exists; the
// descriptor is then not inserted and the existing sub node is kept.
func (n *Node) InsertValue(value *ItemDescriptor) (bool, error) {
	if n == nil {
		return false, fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if value == nil {
		return false, fmt.Errorf("invalid item descriptor: %w", ErrInvalidArgument)
	}
	return n.insert(NewNode(value))
}

// InsertSubNode inserts an existing detached node, keeping the sub node
// list ordered by descriptor identifier. Returns false on a duplicate
// identifier; ownership of the rejected node stays with the caller.
func (n *Node) InsertSubNode(subNode *Node) (bool, error) {
	if n == nil {
		return false, fmt.Errorf("invalid item tree node: %w", ErrInvalidArgument)
	}
	if subNode == nil {
		return false, fmt.Errorf("invalid sub node: %w", ErrInvalidArgument)
	}
	if subNode.value == nil {
		return false, fmt.Errorf("missing sub node item descriptor: %w", ErrValueMissing)
	}
	return n.insert(subNode)
}

// insert places subNode at its ordered position in the sub node list.
func (n *Node) insert(subNode *Node) (bool, error) {
	index := 0
	for ; index < len(n.subNodes); index++ {
		existing := n.subNodes[index]
		if existing.value == nil {
			return false, fmt.Errorf("missing item descriptor of sub node %d: %w", index, ErrValueMissing)
		}
		comparison := subNode.value.Compare(existing.value)
		if comparison == 0 {
			return false, nil
		}
		if comparison < 0 {
			break
		}
	}
	n.subNodes = append(n.subNodes, nil)
	copy(n.subNodes[index+1:], n.subNodes[index:])
	n.subNodes[index] = subNode
	return true, nil
}

// DetachRecovered releases a detached subtree of recovered items by
// clearing its descriptors and child references. A nil node is a no-op.
func DetachRecovered(node *Node) {
	if node == nil {
		return
	}
	for _, subNode := range node.subNodes {
		DetachRecovered(subNode)
	}
	node.subNodes = nil
	node.value = nil
}
