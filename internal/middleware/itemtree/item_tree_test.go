package itemtree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/deploymenttheory/go-pff/internal/interfaces"
	"github.com/deploymenttheory/go-pff/internal/types"
)

// fakeIndexNode is one node of the in-memory descriptors index used by
// the build tests.
type fakeIndexNode struct {
	value    *types.DescriptorIndexValue
	deleted  bool
	subNodes []*fakeIndexNode

	// countErr is returned by NumberOfSubNodes to simulate an
	// unreadable node.
	countErr error
}

// fakeIndex is an in-memory DescriptorsIndexReader.
type fakeIndex struct {
	root *fakeIndexNode

	// pointLookups counts LeafNodeByIdentifier calls (read-aheads).
	pointLookups int
}

func (f *fakeIndex) RootNode() (interfaces.DescriptorIndexNode, error) {
	if f.root == nil {
		return nil, fmt.Errorf("fake index has no root")
	}
	return f.root, nil
}

func (f *fakeIndex) IsDeleted(node interfaces.DescriptorIndexNode) bool {
	return node.(*fakeIndexNode).deleted
}

func (f *fakeIndex) IsLeaf(node interfaces.DescriptorIndexNode, io interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (bool, error) {
	return node.(*fakeIndexNode).value != nil, nil
}

func (f *fakeIndex) NumberOfSubNodes(node interfaces.DescriptorIndexNode, io interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (int, error) {
	fakeNode := node.(*fakeIndexNode)
	if fakeNode.countErr != nil {
		return 0, fakeNode.countErr
	}
	return len(fakeNode.subNodes), nil
}

func (f *fakeIndex) SubNode(node interfaces.DescriptorIndexNode, io interfaces.IndexIOHandle, cache interfaces.IndexNodeCache, index int) (interfaces.DescriptorIndexNode, error) {
	fakeNode := node.(*fakeIndexNode)
	if index < 0 || index >= len(fakeNode.subNodes) {
		return nil, fmt.Errorf("sub node index %d out of range", index)
	}
	return fakeNode.subNodes[index], nil
}

func (f *fakeIndex) NodeValue(node interfaces.DescriptorIndexNode, io interfaces.IndexIOHandle, cache interfaces.IndexNodeCache) (*types.DescriptorIndexValue, error) {
	fakeNode := node.(*fakeIndexNode)
	if fakeNode.value == nil {
		return nil, fmt.Errorf("fake index node has no value")
	}
	// Copy through the cache so the returned pointer has the same
	// cache-scoped lifetime a disk backed index gives out.
	if cache != nil {
		value := *fakeNode.value
		cache.Put(fakeNode.value.Identifier, &value)
		cached, _ := cache.Get(fakeNode.value.Identifier)
		return cached.(*types.DescriptorIndexValue), nil
	}
	return fakeNode.value, nil
}

func (f *fakeIndex) LeafNodeByIdentifier(io interfaces.IndexIOHandle, cache interfaces.IndexNodeCache, identifier uint64) (interfaces.DescriptorIndexNode, bool, error) {
	f.pointLookups++
	return findFakeLeaf(f.root, identifier)
}

func findFakeLeaf(node *fakeIndexNode, identifier uint64) (*fakeIndexNode, bool, error) {
	if node == nil || node.deleted {
		return nil, false, nil
	}
	if node.value != nil {
		if node.value.Identifier == identifier {
			return node, true, nil
		}
		return nil, false, nil
	}
	for _, subNode := range node.subNodes {
		found, hit, err := findFakeLeaf(subNode, identifier)
		if err != nil || hit {
			return found, hit, err
		}
	}
	return nil, false, nil
}

// singleEntryCache holds one value, evicting the previous entry on every
// Put. It exercises the copy-scalars-before-the-next-call rule.
type singleEntryCache struct {
	key   uint64
	value any
	valid bool
}

func (c *singleEntryCache) Get(key uint64) (any, bool) {
	if c.valid && c.key == key {
		return c.value, true
	}
	return nil, false
}

func (c *singleEntryCache) Put(key uint64, value any) {
	if prev, ok := c.value.(*types.DescriptorIndexValue); ok && c.key != key {
		// Poison the evicted value so stale reads surface in tests.
		*prev = types.DescriptorIndexValue{}
	}
	c.key = key
	c.value = value
	c.valid = true
}

func (c *singleEntryCache) Clear() {
	c.value = nil
	c.valid = false
}

// leaf builds a fake leaf index node from an (id, parent, data, local)
// tuple.
func leaf(identifier uint64, parentIdentifier uint32, dataIdentifier uint64, localDescriptorsIdentifier uint64) *fakeIndexNode {
	return &fakeIndexNode{
		value: &types.DescriptorIndexValue{
			Identifier:                 identifier,
			ParentIdentifier:           parentIdentifier,
			DataIdentifier:             dataIdentifier,
			LocalDescriptorsIdentifier: localDescriptorsIdentifier,
		},
	}
}

// branch builds a fake branch index node over the given sub nodes.
func branch(subNodes ...*fakeIndexNode) *fakeIndexNode {
	return &fakeIndexNode{subNodes: subNodes}
}

func buildTree(t *testing.T, index *fakeIndex) (*Tree, *Node, *OrphanList) {
	t.Helper()

	tree := NewTree()
	orphans := NewOrphanList()
	rootFolder, err := tree.Build(nil, index, &singleEntryCache{}, orphans)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tree, rootFolder, orphans
}

// descriptorIdentifier unwraps the identifier of a node's value.
func descriptorIdentifier(t *testing.T, node *Node) uint32 {
	t.Helper()

	value, err := node.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	return value.DescriptorIdentifier()
}

// flatten appends (depth, identifier) pairs of the subtree pre-order.
func flatten(t *testing.T, node *Node, depth int, out *[][2]uint32) {
	t.Helper()

	*out = append(*out, [2]uint32{uint32(depth), descriptorIdentifier(t, node)})
	for i := 0; i < node.NumberOfSubNodes(); i++ {
		subNode, err := node.SubNode(i)
		if err != nil {
			t.Fatalf("SubNode failed: %v", err)
		}
		flatten(t, subNode, depth+1, out)
	}
}

func TestBuildLinearChain(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(2, 1, 0, 0),
		leaf(3, 2, 0, 0),
	)}

	tree, rootFolder, orphans := buildTree(t, index)

	if rootFolder == nil {
		t.Fatal("expected a root folder node")
	}
	if got := descriptorIdentifier(t, rootFolder); got != 1 {
		t.Errorf("root folder identifier = %d, want 1", got)
	}
	if orphans.NumberOfOrphans() != 0 {
		t.Errorf("orphan count = %d, want 0", orphans.NumberOfOrphans())
	}

	var shape [][2]uint32
	flatten(t, tree.RootNode(), 0, &shape)
	want := [][2]uint32{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	if len(shape) != len(want) {
		t.Fatalf("tree shape = %v, want %v", shape, want)
	}
	for i := range want {
		if shape[i] != want[i] {
			t.Fatalf("tree shape = %v, want %v", shape, want)
		}
	}
}

func TestBuildOutOfOrderRequiresReadAhead(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(3, 2, 0, 0),
		leaf(2, 1, 0, 0),
		leaf(1, 1, 0, 0),
	)}

	tree, rootFolder, orphans := buildTree(t, index)

	if got := descriptorIdentifier(t, rootFolder); got != 1 {
		t.Errorf("root folder identifier = %d, want 1", got)
	}
	if orphans.NumberOfOrphans() != 0 {
		t.Errorf("orphan count = %d, want 0", orphans.NumberOfOrphans())
	}
	if index.pointLookups > 2 {
		t.Errorf("read-ahead invoked %d times, want at most 2", index.pointLookups)
	}

	var shape [][2]uint32
	flatten(t, tree.RootNode(), 0, &shape)
	want := [][2]uint32{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	for i := range want {
		if i >= len(shape) || shape[i] != want[i] {
			t.Fatalf("tree shape = %v, want %v", shape, want)
		}
	}
}

func TestBuildTrueOrphan(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(4, 99, 0, 0),
	)}

	tree, rootFolder, orphans := buildTree(t, index)

	if got := descriptorIdentifier(t, rootFolder); got != 1 {
		t.Errorf("root folder identifier = %d, want 1", got)
	}
	if rootFolder.NumberOfSubNodes() != 0 {
		t.Errorf("root folder has %d sub nodes, want 0", rootFolder.NumberOfSubNodes())
	}
	if orphans.NumberOfOrphans() != 1 {
		t.Fatalf("orphan count = %d, want 1", orphans.NumberOfOrphans())
	}
	orphan, err := orphans.Orphan(0)
	if err != nil {
		t.Fatalf("Orphan failed: %v", err)
	}
	if got := descriptorIdentifier(t, orphan); got != 4 {
		t.Errorf("orphan identifier = %d, want 4", got)
	}
	// The orphan must not be reachable from the tree.
	if _, found, _ := tree.NodeByIdentifier(4); found {
		t.Error("orphan 4 reachable from the item tree")
	}
}

func TestBuildDuplicateDescriptorKeepsFirst(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(2, 1, 0, 0),
		leaf(2, 1, 7, 0),
	)}

	tree, _, orphans := buildTree(t, index)

	if orphans.NumberOfOrphans() != 0 {
		t.Errorf("orphan count = %d, want 0", orphans.NumberOfOrphans())
	}
	node, found, err := tree.NodeByIdentifier(2)
	if err != nil || !found {
		t.Fatalf("NodeByIdentifier(2) = %v, %v", found, err)
	}
	value, err := node.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if value.DataIdentifier() != 0 {
		t.Errorf("data identifier = %d, want 0 (first descriptor kept)", value.DataIdentifier())
	}
	// Exactly one node with identifier 2 under its parent.
	parent, _, err := tree.NodeByIdentifier(1)
	if err != nil {
		t.Fatalf("NodeByIdentifier(1) failed: %v", err)
	}
	matches := 0
	for i := 0; i < parent.NumberOfSubNodes(); i++ {
		subNode, _ := parent.SubNode(i)
		if descriptorIdentifier(t, subNode) == 2 {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("found %d sub nodes with identifier 2, want 1", matches)
	}
}

func TestBuildSecondRootFolderFails(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(5, 5, 0, 0),
	)}

	tree := NewTree()
	orphans := NewOrphanList()
	orphansBefore := orphans.NumberOfOrphans()

	_, err := tree.Build(nil, index, &singleEntryCache{}, orphans)
	if !errors.Is(err, ErrValueAlreadySet) {
		t.Fatalf("Build error = %v, want ErrValueAlreadySet", err)
	}
	if tree.RootNode() != nil {
		t.Error("failed build left a root node behind")
	}
	if orphans.NumberOfOrphans() != orphansBefore {
		t.Errorf("orphan count changed from %d to %d", orphansBefore, orphans.NumberOfOrphans())
	}
}

func TestBuildCorruptSubtreeTolerated(t *testing.T) {
	corrupt := branch(leaf(77, 1, 0, 0))
	corrupt.countErr = fmt.Errorf("page checksum mismatch")

	index := &fakeIndex{root: branch(
		corrupt,
		branch(
			leaf(1, 1, 0, 0),
			leaf(2, 1, 0, 0),
		),
	)}

	tree, rootFolder, orphans := buildTree(t, index)

	if got := descriptorIdentifier(t, rootFolder); got != 1 {
		t.Errorf("root folder identifier = %d, want 1", got)
	}
	if _, found, _ := tree.NodeByIdentifier(2); !found {
		t.Error("healthy sibling leaf 2 missing from the tree")
	}
	if _, found, _ := tree.NodeByIdentifier(77); found {
		t.Error("leaf of the corrupt subtree reached the tree")
	}
	if orphans.NumberOfOrphans() != 0 {
		t.Errorf("orphan count = %d, want 0", orphans.NumberOfOrphans())
	}
}

func TestBuildDeletedSubtreeMasked(t *testing.T) {
	deleted := branch(leaf(9, 1, 0, 0))
	deleted.deleted = true

	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		deleted,
		leaf(2, 1, 0, 0),
	)}

	tree, _, orphans := buildTree(t, index)

	if _, found, _ := tree.NodeByIdentifier(9); found {
		t.Error("leaf of the deleted subtree reached the tree")
	}
	if _, found, _ := tree.NodeByIdentifier(2); !found {
		t.Error("sibling leaf 2 missing from the tree")
	}
	if orphans.NumberOfOrphans() != 0 {
		t.Errorf("orphan count = %d, want 0", orphans.NumberOfOrphans())
	}
}

func TestBuildIdentifierExceedsMaximum(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(1<<32, 1, 0, 0),
	)}

	tree := NewTree()
	_, err := tree.Build(nil, index, &singleEntryCache{}, NewOrphanList())
	if !errors.Is(err, ErrValueOutOfBounds) {
		t.Fatalf("Build error = %v, want ErrValueOutOfBounds", err)
	}
	if tree.RootNode() != nil {
		t.Error("failed build left a root node behind")
	}
}

func TestBuildDepthGuard(t *testing.T) {
	// A chain of branch nodes one level deeper than the recursion
	// bound allows.
	node := branch(leaf(1, 1, 0, 0))
	for i := 0; i < MaximumRecursionDepth+1; i++ {
		node = branch(node)
	}
	index := &fakeIndex{root: node}

	tree := NewTree()
	_, err := tree.Build(nil, index, &singleEntryCache{}, NewOrphanList())
	if !errors.Is(err, ErrValueOutOfBounds) {
		t.Fatalf("Build error = %v, want ErrValueOutOfBounds", err)
	}
	if tree.RootNode() != nil {
		t.Error("failed build left a root node behind")
	}
}

func TestBuildTwiceFails(t *testing.T) {
	index := &fakeIndex{root: branch(leaf(1, 1, 0, 0))}

	tree, _, _ := buildTree(t, index)
	_, err := tree.Build(nil, index, &singleEntryCache{}, NewOrphanList())
	if !errors.Is(err, ErrValueAlreadySet) {
		t.Fatalf("second Build error = %v, want ErrValueAlreadySet", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	makeIndex := func() *fakeIndex {
		return &fakeIndex{root: branch(
			branch(
				leaf(3, 2, 0, 0),
				leaf(6, 99, 0, 0),
			),
			branch(
				leaf(2, 1, 0, 0),
				leaf(1, 1, 0, 0),
				leaf(4, 1, 0, 0),
			),
		)}
	}

	treeA, _, orphansA := buildTree(t, makeIndex())
	treeB, _, orphansB := buildTree(t, makeIndex())

	var shapeA, shapeB [][2]uint32
	flatten(t, treeA.RootNode(), 0, &shapeA)
	flatten(t, treeB.RootNode(), 0, &shapeB)

	if len(shapeA) != len(shapeB) {
		t.Fatalf("tree shapes differ: %v vs %v", shapeA, shapeB)
	}
	for i := range shapeA {
		if shapeA[i] != shapeB[i] {
			t.Fatalf("tree shapes differ: %v vs %v", shapeA, shapeB)
		}
	}
	if orphansA.NumberOfOrphans() != orphansB.NumberOfOrphans() {
		t.Fatalf("orphan counts differ: %d vs %d", orphansA.NumberOfOrphans(), orphansB.NumberOfOrphans())
	}
	for i := 0; i < orphansA.NumberOfOrphans(); i++ {
		a, _ := orphansA.Orphan(i)
		b, _ := orphansB.Orphan(i)
		if descriptorIdentifier(t, a) != descriptorIdentifier(t, b) {
			t.Fatalf("orphan order differs at index %d", i)
		}
	}
}

func TestBuildChildListsStrictlyIncreasing(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(9, 1, 0, 0),
		leaf(3, 1, 0, 0),
		leaf(7, 1, 0, 0),
		leaf(5, 1, 0, 0),
	)}

	tree, _, _ := buildTree(t, index)

	parent, _, err := tree.NodeByIdentifier(1)
	if err != nil {
		t.Fatalf("NodeByIdentifier(1) failed: %v", err)
	}
	var previous uint32
	for i := 0; i < parent.NumberOfSubNodes(); i++ {
		subNode, _ := parent.SubNode(i)
		identifier := descriptorIdentifier(t, subNode)
		if i > 0 && identifier <= previous {
			t.Fatalf("child list not strictly increasing at index %d: %d after %d", i, identifier, previous)
		}
		previous = identifier
	}
	if parent.NumberOfSubNodes() != 4 {
		t.Errorf("root folder has %d sub nodes, want 4", parent.NumberOfSubNodes())
	}
}

func TestBuildParentLinkInvariant(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(2, 1, 0, 0),
		leaf(3, 2, 0, 0),
		leaf(4, 2, 0, 0),
	)}
	parents := map[uint32]uint32{2: 1, 3: 2, 4: 2}

	tree, _, _ := buildTree(t, index)

	var verify func(node *Node)
	verify = func(node *Node) {
		nodeIdentifier := descriptorIdentifier(t, node)
		for i := 0; i < node.NumberOfSubNodes(); i++ {
			subNode, _ := node.SubNode(i)
			subIdentifier := descriptorIdentifier(t, subNode)
			if want, ok := parents[subIdentifier]; ok && want != nodeIdentifier {
				t.Errorf("node %d attached under %d, want parent %d", subIdentifier, nodeIdentifier, want)
			}
			verify(subNode)
		}
	}
	verify(tree.RootNode())
}

func TestBuildNilArguments(t *testing.T) {
	tree := NewTree()
	if _, err := tree.Build(nil, nil, &singleEntryCache{}, NewOrphanList()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Build with nil index = %v, want ErrInvalidArgument", err)
	}
	index := &fakeIndex{root: branch(leaf(1, 1, 0, 0))}
	if _, err := tree.Build(nil, index, &singleEntryCache{}, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Build with nil orphan list = %v, want ErrInvalidArgument", err)
	}
}

func TestNodeByIdentifierIdempotent(t *testing.T) {
	index := &fakeIndex{root: branch(
		leaf(1, 1, 0, 0),
		leaf(2, 1, 0, 0),
	)}

	tree, _, _ := buildTree(t, index)

	first, found, err := tree.NodeByIdentifier(2)
	if err != nil || !found {
		t.Fatalf("NodeByIdentifier(2) = %v, %v", found, err)
	}
	second, found, err := tree.NodeByIdentifier(2)
	if err != nil || !found {
		t.Fatalf("repeated NodeByIdentifier(2) = %v, %v", found, err)
	}
	if first != second {
		t.Error("repeated lookups returned different nodes")
	}
	if _, found, err := tree.NodeByIdentifier(42); err != nil || found {
		t.Errorf("NodeByIdentifier(42) = %v, %v, want not found without error", found, err)
	}
}
