// Package services wires the device, parser and item tree layers into
// mailbox level operations.
package services

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-pff/internal/device"
	"github.com/deploymenttheory/go-pff/internal/interfaces"
	"github.com/deploymenttheory/go-pff/internal/middleware/descriptors"
	"github.com/deploymenttheory/go-pff/internal/middleware/itemtree"
	"github.com/deploymenttheory/go-pff/internal/parsers/fileheader"
	"github.com/deploymenttheory/go-pff/internal/types"
)

// indexNodeCacheSize bounds the shared descriptors index node cache of
// one reader.
const indexNodeCacheSize = 64

// ItemInfo describes one item of the mailbox hierarchy.
type ItemInfo struct {
	// The descriptor identifier of the item.
	DescriptorIdentifier uint32

	// The identifier of the item data.
	DataIdentifier uint64

	// The identifier of the item's local descriptors tree.
	LocalDescriptorsIdentifier uint64

	// The depth of the item below the root folder as set by Hierarchy;
	// the root folder itself has depth zero. ItemByIdentifier and
	// Orphans do not compute a depth and always report zero.
	Depth int

	// Whether the item came from a recovery scan.
	Recovered bool
}

// MailboxReader exposes the reconstructed item hierarchy of one PFF
// file. It is not safe for concurrent use.
type MailboxReader struct {
	file       interfaces.File
	header     *types.FileHeader
	tree       *itemtree.Tree
	orphans    *itemtree.OrphanList
	rootFolder *itemtree.Node
	cache      interfaces.IndexNodeCache
}

// OpenMailbox opens a PFF file and materializes its item tree.
func OpenMailbox(path string, config *device.FileConfig) (*MailboxReader, error) {
	pffFile, err := device.OpenPFFFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox file: %w", err)
	}
	reader, err := NewMailboxReader(pffFile)
	if err != nil {
		pffFile.Close()
		return nil, err
	}
	return reader, nil
}

// NewMailboxReader materializes the item tree of an opened PFF file.
// The reader takes ownership of the file handle.
func NewMailboxReader(file interfaces.File) (*MailboxReader, error) {
	headerData, err := file.ReadRange(0, types.FileHeaderSize64Bit)
	if err != nil {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	header, err := fileheader.NewFileHeaderReader(headerData, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file header: %w", err)
	}

	navigator, err := descriptors.NewDescriptorsIndexNavigator(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create descriptors index navigator: %w", err)
	}

	reader := &MailboxReader{
		file:    file,
		header:  header,
		tree:    itemtree.NewTree(),
		orphans: itemtree.NewOrphanList(),
		cache:   descriptors.NewIndexNodeCache(indexNodeCacheSize),
	}
	rootFolder, err := reader.tree.Build(file, navigator, reader.cache, reader.orphans)
	if err != nil {
		return nil, fmt.Errorf("failed to build item tree: %w", err)
	}
	reader.rootFolder = rootFolder

	return reader, nil
}

// Header returns the parsed file header.
func (r *MailboxReader) Header() *types.FileHeader {
	return r.header
}

// RootFolder returns the root folder item, or found=false for a mailbox
// whose index contains no root folder descriptor.
func (r *MailboxReader) RootFolder() (*ItemInfo, bool, error) {
	if r.rootFolder == nil {
		return nil, false, nil
	}
	info, err := itemInfo(r.rootFolder, 0)
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

// ItemByIdentifier looks an item up by its descriptor identifier.
func (r *MailboxReader) ItemByIdentifier(identifier uint32) (*ItemInfo, bool, error) {
	node, found, err := r.tree.NodeByIdentifier(identifier)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up item %d: %w", identifier, err)
	}
	if !found {
		return nil, false, nil
	}
	info, err := itemInfo(node, 0)
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

// Hierarchy returns the items of the mailbox pre-order, each annotated
// with its depth below the root folder. A mailbox without a root folder
// yields an empty hierarchy.
func (r *MailboxReader) Hierarchy() ([]ItemInfo, error) {
	if r.rootFolder == nil {
		return nil, nil
	}
	var items []ItemInfo
	if err := collectItems(r.rootFolder, 0, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Orphans returns the items whose parent could not be materialized, in
// discovery order.
func (r *MailboxReader) Orphans() ([]ItemInfo, error) {
	var items []ItemInfo
	for index := 0; index < r.orphans.NumberOfOrphans(); index++ {
		node, err := r.orphans.Orphan(index)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve orphan %d: %w", index, err)
		}
		info, err := itemInfo(node, 0)
		if err != nil {
			return nil, err
		}
		items = append(items, *info)
	}
	return items, nil
}

// Close releases the underlying file handle.
func (r *MailboxReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// itemInfo projects a tree node into an ItemInfo.
func itemInfo(node *itemtree.Node, depth int) (*ItemInfo, error) {
	value, err := node.Value()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve item descriptor: %w", err)
	}
	return &ItemInfo{
		DescriptorIdentifier:       value.DescriptorIdentifier(),
		DataIdentifier:             value.DataIdentifier(),
		LocalDescriptorsIdentifier: value.LocalDescriptorsIdentifier(),
		Depth:                      depth,
		Recovered:                  value.IsRecovered(),
	}, nil
}

// collectItems appends the subtree of node pre-order.
func collectItems(node *itemtree.Node, depth int, items *[]ItemInfo) error {
	info, err := itemInfo(node, depth)
	if err != nil {
		return err
	}
	*items = append(*items, *info)
	for index := 0; index < node.NumberOfSubNodes(); index++ {
		subNode, err := node.SubNode(index)
		if err != nil {
			return fmt.Errorf("failed to retrieve sub node %d: %w", index, err)
		}
		if err := collectItems(subNode, depth+1, items); err != nil {
			return err
		}
	}
	return nil
}
