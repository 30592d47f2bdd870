package itemtree

import (
	"errors"
	"testing"
)

// sampleTree builds root(0) -> 1 -> {2 -> 4, 3}.
func sampleTree(t *testing.T) *Node {
	t.Helper()

	root := NewNode(NewItemDescriptor(0, 0, 0, false))
	one := NewNode(NewItemDescriptor(1, 0, 0, false))
	two := NewNode(NewItemDescriptor(2, 0, 0, false))
	three := NewNode(NewItemDescriptor(3, 0, 0, false))
	four := NewNode(NewItemDescriptor(4, 0, 0, false))

	inserts := []struct {
		parent *Node
		child  *Node
	}{
		{root, one},
		{one, two},
		{one, three},
		{two, four},
	}
	for _, insert := range inserts {
		if _, err := insert.parent.InsertSubNode(insert.child); err != nil {
			t.Fatalf("InsertSubNode failed: %v", err)
		}
	}
	return root
}

func TestNodeByIdentifierFindsNested(t *testing.T) {
	root := sampleTree(t)

	node, found, err := NodeByIdentifier(root, 4, 0)
	if err != nil {
		t.Fatalf("NodeByIdentifier failed: %v", err)
	}
	if !found {
		t.Fatal("identifier 4 not found")
	}
	value, _ := node.Value()
	if value.DescriptorIdentifier() != 4 {
		t.Errorf("found identifier = %d, want 4", value.DescriptorIdentifier())
	}
}

func TestNodeByIdentifierNotFound(t *testing.T) {
	root := sampleTree(t)

	_, found, err := NodeByIdentifier(root, 99, 0)
	if err != nil {
		t.Fatalf("NodeByIdentifier failed: %v", err)
	}
	if found {
		t.Error("identifier 99 reported found")
	}
}

func TestNodeByIdentifierDepthBounds(t *testing.T) {
	root := sampleTree(t)

	if _, _, err := NodeByIdentifier(root, 1, -1); !errors.Is(err, ErrValueOutOfBounds) {
		t.Errorf("negative depth = %v, want ErrValueOutOfBounds", err)
	}
	if _, _, err := NodeByIdentifier(root, 1, MaximumRecursionDepth+1); !errors.Is(err, ErrValueOutOfBounds) {
		t.Errorf("excessive depth = %v, want ErrValueOutOfBounds", err)
	}
}

func TestNodeByIdentifierNilNode(t *testing.T) {
	if _, _, err := NodeByIdentifier(nil, 1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil node = %v, want ErrInvalidArgument", err)
	}
}

func TestSubNodeByIdentifier(t *testing.T) {
	root := sampleTree(t)
	one, found, err := NodeByIdentifier(root, 1, 0)
	if err != nil || !found {
		t.Fatalf("NodeByIdentifier(1) = %v, %v", found, err)
	}

	subNode, found, err := SubNodeByIdentifier(one, 3)
	if err != nil {
		t.Fatalf("SubNodeByIdentifier failed: %v", err)
	}
	if !found {
		t.Fatal("direct sub node 3 not found")
	}
	value, _ := subNode.Value()
	if value.DescriptorIdentifier() != 3 {
		t.Errorf("direct sub node identifier = %d, want 3", value.DescriptorIdentifier())
	}

	// Identifier 4 is a grandchild, not a direct sub node.
	if _, found, err = SubNodeByIdentifier(one, 4); err != nil || found {
		t.Errorf("SubNodeByIdentifier(4) = %v, %v, want not found without error", found, err)
	}
}

func TestAppendIdentifier(t *testing.T) {
	node := NewNode(NewItemDescriptor(1, 0, 0, false))

	if err := AppendIdentifier(node, 7, 11, 13, true); err != nil {
		t.Fatalf("AppendIdentifier failed: %v", err)
	}
	subNode, err := node.SubNode(0)
	if err != nil {
		t.Fatalf("SubNode failed: %v", err)
	}
	value, _ := subNode.Value()
	if value.DescriptorIdentifier() != 7 || value.DataIdentifier() != 11 || value.LocalDescriptorsIdentifier() != 13 {
		t.Errorf("appended descriptor = (%d, %d, %d), want (7, 11, 13)",
			value.DescriptorIdentifier(), value.DataIdentifier(), value.LocalDescriptorsIdentifier())
	}
	if !value.IsRecovered() {
		t.Error("appended descriptor not marked recovered")
	}

	if err := AppendIdentifier(nil, 1, 0, 0, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("AppendIdentifier(nil) = %v, want ErrInvalidArgument", err)
	}
}

func TestOrphanListAppendAndAccess(t *testing.T) {
	orphans := NewOrphanList()

	if orphans.NumberOfOrphans() != 0 {
		t.Fatalf("new list orphan count = %d, want 0", orphans.NumberOfOrphans())
	}
	for _, identifier := range []uint32{4, 2, 4} {
		if err := orphans.Append(NewNode(NewItemDescriptor(identifier, 0, 0, false))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	// Discovery order and duplicates are preserved.
	want := []uint32{4, 2, 4}
	if orphans.NumberOfOrphans() != len(want) {
		t.Fatalf("orphan count = %d, want %d", orphans.NumberOfOrphans(), len(want))
	}
	for i, identifier := range want {
		orphan, err := orphans.Orphan(i)
		if err != nil {
			t.Fatalf("Orphan(%d) failed: %v", i, err)
		}
		value, _ := orphan.Value()
		if value.DescriptorIdentifier() != identifier {
			t.Errorf("orphan %d identifier = %d, want %d", i, value.DescriptorIdentifier(), identifier)
		}
	}

	if err := orphans.Append(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Append(nil) = %v, want ErrInvalidArgument", err)
	}
	if _, err := orphans.Orphan(3); !errors.Is(err, ErrValueOutOfBounds) {
		t.Errorf("Orphan(3) = %v, want ErrValueOutOfBounds", err)
	}

	orphans.Clear()
	if orphans.NumberOfOrphans() != 0 {
		t.Errorf("orphan count after Clear = %d, want 0", orphans.NumberOfOrphans())
	}
}
