// Package itemtree reconstructs the logical folder and message hierarchy
// of a mailbox from the flat descriptors index of a PFF file.
//
// The descriptors index stores one record per item carrying only the
// item's identifier and the identifier of its parent, in no particular
// order. Building the item tree therefore requires faulting in parents on
// demand and tolerating records whose parent never materializes; those
// records end up on an orphan list instead of in the tree.
package itemtree

// ItemDescriptor is the in-memory projection of one descriptors index
// record. It is immutable after creation.
type ItemDescriptor struct {
	descriptorIdentifier       uint32
	dataIdentifier             uint64
	localDescriptorsIdentifier uint64
	recovered                  bool
}

// NewItemDescriptor creates an item descriptor. The recovered flag marks
// descriptors sourced from a recovery scan rather than the live index.
func NewItemDescriptor(descriptorIdentifier uint32, dataIdentifier uint64, localDescriptorsIdentifier uint64, recovered bool) *ItemDescriptor {
	return &ItemDescriptor{
		descriptorIdentifier:       descriptorIdentifier,
		dataIdentifier:             dataIdentifier,
		localDescriptorsIdentifier: localDescriptorsIdentifier,
		recovered:                  recovered,
	}
}

// DescriptorIdentifier returns the descriptor identifier.
func (d *ItemDescriptor) DescriptorIdentifier() uint32 {
	return d.descriptorIdentifier
}

// DataIdentifier returns the identifier of the item data.
func (d *ItemDescriptor) DataIdentifier() uint64 {
	return d.dataIdentifier
}

// LocalDescriptorsIdentifier returns the identifier of the item's local
// descriptors tree.
func (d *ItemDescriptor) LocalDescriptorsIdentifier() uint64 {
	return d.localDescriptorsIdentifier
}

// IsRecovered reports whether the descriptor came from a recovery scan.
func (d *ItemDescriptor) IsRecovered() bool {
	return d.recovered
}

// Compare orders two item descriptors by descriptor identifier.
// Returns -1, 0 or 1. Child lists keep descriptors unique: a descriptor
// that compares equal to an existing sub node is rejected as a duplicate
// on insert. Entries of the orphan list may compare equal; that list is
// not ordered by this function.
func (d *ItemDescriptor) Compare(other *ItemDescriptor) int {
	switch {
	case d.descriptorIdentifier < other.descriptorIdentifier:
		return -1
	case d.descriptorIdentifier > other.descriptorIdentifier:
		return 1
	default:
		return 0
	}
}
