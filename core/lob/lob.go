// Package lob reassembles large-object column data (text, ntext, image,
// varchar(max)-class values) from the dedicated LOB page tree a row's
// in-row pointer references.
//
// Reassembly is a pull-based chunk stream with at most one page of
// lookahead, so values of hundreds of megabytes never have to be resident in
// memory. A stream is single-pass; re-invoking Open on the same pointer
// starts a fresh pass.
package lob

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
)

// ErrBrokenLobChain reports a LOB tree traversal failure: a child page that
// cannot be retrieved, a page of the wrong type, or a node that does not
// decode.
var ErrBrokenLobChain = errors.New("broken LOB chain")

// Pointer is the 16-byte in-row LOB pointer: a timestamp and the record
// pointer of the tree's root node.
type Pointer struct {
	Timestamp uint32
	Root      page.RecordPointer
}

// ParsePointer decodes a 16-byte in-row LOB pointer.
func ParsePointer(data []byte) (Pointer, error) {
	if len(data) != 16 {
		return Pointer{}, fmt.Errorf("%w: pointer of %d bytes, want 16", ErrBrokenLobChain, len(data))
	}
	return Pointer{
		Timestamp: binary.LittleEndian.Uint32(data[0:4]),
		Root:      page.ParseRecordPointer(data[8:16]),
	}, nil
}

// String formats the pointer for diagnostics.
func (p Pointer) String() string {
	return fmt.Sprintf("lob@%v ts=%d", p.Root, p.Timestamp)
}

// NodeKind is the LOB node type tag.
type NodeKind uint16

const (
	NodeSmallRoot NodeKind = 0 // root with inline data
	NodeInternal  NodeKind = 2 // internal tree node
	NodeData      NodeKind = 3 // leaf fragment
	NodeLargeRoot NodeKind = 5 // root listing child references
	NodeNull      NodeKind = 8 // explicit null value
)

// String returns the node kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeSmallRoot:
		return "small root"
	case NodeInternal:
		return "internal"
	case NodeData:
		return "data"
	case NodeLargeRoot:
		return "large root"
	case NodeNull:
		return "null"
	}
	return fmt.Sprintf("node(%d)", uint16(k))
}

// Link is one child reference of an internal or large-root node. Offset is
// the cumulative byte offset recorded for the child (large roots record the
// child's size instead, surfaced here the same way).
type Link struct {
	Offset uint64
	Ptr    page.RecordPointer
}

// Node is one decoded LOB tree node.
type Node struct {
	Kind     NodeKind
	BlobID   uint64
	MaxLinks uint16
	CurLinks uint16
	Level    uint16

	// Data is the payload of small-root and leaf nodes.
	Data []byte

	links []Link
}

// Links returns the child references of internal and large-root nodes.
func (n *Node) Links() []Link {
	return n.links
}

// Node layout offsets within a blob record's fixed data.
const (
	offBlobID   = 0  // u64 blob id
	offNodeKind = 8  // u16 node type
	offSmallLen = 10 // u16 inline length (small root)
	offMaxLinks = 10 // u16 (internal, large root)
	offCurLinks = 12 // u16
	offLevel    = 14 // u16
	offRootLink = 20 // first 12-byte (u32 size, record pointer) entry
	offIntLink  = 16 // first 16-byte (u64 offset, record pointer) entry
)

// ParseNode decodes a LOB tree node from a blob-fragment record.
func ParseNode(rec *record.Record) (*Node, error) {
	fd := rec.FixedData
	if len(fd) < offNodeKind+2 {
		return nil, fmt.Errorf("%w: node fixed data of %d bytes", ErrBrokenLobChain, len(fd))
	}

	n := &Node{
		Kind:   NodeKind(binary.LittleEndian.Uint16(fd[offNodeKind:])),
		BlobID: binary.LittleEndian.Uint64(fd[offBlobID:]),
	}

	switch n.Kind {
	case NodeNull:
		return n, nil

	case NodeSmallRoot:
		if len(fd) < offSmallLen+2 {
			return nil, fmt.Errorf("%w: small root of %d bytes", ErrBrokenLobChain, len(fd))
		}
		length := int(binary.LittleEndian.Uint16(fd[offSmallLen:]))
		if 16+length > len(fd) {
			return nil, fmt.Errorf("%w: small root claims %d bytes of %d", ErrBrokenLobChain, length, len(fd)-16)
		}
		n.Data = fd[16 : 16+length]
		return n, nil

	case NodeData:
		if len(fd) < 10 {
			return nil, fmt.Errorf("%w: data node of %d bytes", ErrBrokenLobChain, len(fd))
		}
		n.Data = fd[10:]
		return n, nil

	case NodeLargeRoot, NodeInternal:
		if len(fd) < offLevel+2 {
			return nil, fmt.Errorf("%w: %v node of %d bytes", ErrBrokenLobChain, n.Kind, len(fd))
		}
		n.MaxLinks = binary.LittleEndian.Uint16(fd[offMaxLinks:])
		n.CurLinks = binary.LittleEndian.Uint16(fd[offCurLinks:])
		n.Level = binary.LittleEndian.Uint16(fd[offLevel:])

		count := int(n.CurLinks)
		n.links = make([]Link, 0, count)
		for i := 0; i < count; i++ {
			var l Link
			if n.Kind == NodeLargeRoot {
				start := offRootLink + 12*i
				if start+12 > len(fd) {
					return nil, fmt.Errorf("%w: large root link %d of %d out of bounds", ErrBrokenLobChain, i, count)
				}
				l.Offset = uint64(binary.LittleEndian.Uint32(fd[start:]))
				l.Ptr = page.ParseRecordPointer(fd[start+4 : start+12])
			} else {
				start := offIntLink + 16*i
				if start+16 > len(fd) {
					return nil, fmt.Errorf("%w: internal link %d of %d out of bounds", ErrBrokenLobChain, i, count)
				}
				l.Offset = binary.LittleEndian.Uint64(fd[start:])
				l.Ptr = page.ParseRecordPointer(fd[start+8 : start+16])
			}
			n.links = append(n.links, l)
		}
		return n, nil
	}

	return nil, fmt.Errorf("%w: unknown node kind %d", ErrBrokenLobChain, uint16(n.Kind))
}

// getNode fetches the record a link references, checking that it lives on a
// LOB page, and decodes it.
func getNode(pr page.Provider, ptr page.RecordPointer) (*Node, error) {
	pg, err := page.Get(pr, ptr.Page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokenLobChain, err)
	}
	if !pg.Header.Type.IsText() {
		return nil, fmt.Errorf("%w: page %v is a %v page, not a text page", ErrBrokenLobChain, ptr.Page, pg.Header.Type)
	}
	data, err := pg.RecordData(int(ptr.Slot))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokenLobChain, err)
	}
	rec, err := record.Parse(data, false, pg.Header.MinLen)
	if err != nil {
		return nil, fmt.Errorf("%w: record %v: %v", ErrBrokenLobChain, ptr, err)
	}
	return ParseNode(rec)
}
