package itemtree

import "fmt"

// OrphanList holds detached single node trees whose parent descriptor
// could not be materialized during a build. The list is append only and
// keeps discovery order; identifiers are not deduplicated. Promoting an
// orphan into the tree when its parent appears later is left to the
// consumer, the build itself never revisits the list.
type OrphanList struct {
	nodes []*Node
}

// NewOrphanList creates an empty orphan list.
func NewOrphanList() *OrphanList {
	return &OrphanList{}
}

// Append adds a detached node to the end of the list.
func (l *OrphanList) Append(node *Node) error {
	if l == nil {
		return fmt.Errorf("invalid orphan list: %w", ErrInvalidArgument)
	}
	if node == nil {
		return fmt.Errorf("invalid orphan node: %w", ErrInvalidArgument)
	}
	l.nodes = append(l.nodes, node)
	return nil
}

// NumberOfOrphans returns the number of orphan nodes.
func (l *OrphanList) NumberOfOrphans() int {
	if l == nil {
		return 0
	}
	return len(l.nodes)
}

// Orphan returns the orphan node at the given index, in discovery order.
func (l *OrphanList) Orphan(index int) (*Node, error) {
	if l == nil {
		return nil, fmt.Errorf("invalid orphan list: %w", ErrInvalidArgument)
	}
	if index < 0 || index >= len(l.nodes) {
		return nil, fmt.Errorf("orphan index %d: %w", index, ErrValueOutOfBounds)
	}
	return l.nodes[index], nil
}

// Clear removes all orphan nodes from the list. Callers that reuse a
// list across failed builds are responsible for clearing it; a failed
// build does not roll back orphans appended before the failure.
func (l *OrphanList) Clear() {
	if l == nil {
		return
	}
	l.nodes = nil
}
