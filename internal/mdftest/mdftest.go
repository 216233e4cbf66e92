// Package mdftest builds synthetic database pages for tests: an in-memory
// page provider, a page builder, and record encoders that mirror the on-disk
// layouts the parsers expect.
package mdftest

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
)

// Provider is an in-memory page.Provider. Pages inside a file's declared
// size that were never stored read as all-zero pages, which parse as
// unknown-type pages with no slots.
type Provider struct {
	pages map[page.Pointer][]byte
	sizes map[uint16]uint32
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{
		pages: make(map[page.Pointer][]byte),
		sizes: make(map[uint16]uint32),
	}
}

// Put stores a page, growing the owning file as needed.
func (p *Provider) Put(ptr page.Pointer, data []byte) {
	p.pages[ptr] = data
	if ptr.PageID >= p.sizes[ptr.FileID] {
		p.sizes[ptr.FileID] = ptr.PageID + 1
	}
}

// Delete removes a page so reads of it fail, simulating a torn file.
func (p *Provider) Delete(ptr page.Pointer) {
	delete(p.pages, ptr)
	if ptr.PageID >= p.sizes[ptr.FileID] {
		return
	}
}

// Raw returns the stored bytes of a page for in-place corruption.
func (p *Provider) Raw(ptr page.Pointer) []byte {
	return p.pages[ptr]
}

// SetNumPages declares a file's size without storing pages.
func (p *Provider) SetNumPages(fileID uint16, n uint32) {
	if n > p.sizes[fileID] {
		p.sizes[fileID] = n
	}
}

// ReadPage implements page.Provider.
func (p *Provider) ReadPage(ptr page.Pointer) ([]byte, error) {
	if data, ok := p.pages[ptr]; ok {
		return data, nil
	}
	if ptr.PageID < p.sizes[ptr.FileID] {
		return make([]byte, page.Size), nil
	}
	return nil, fmt.Errorf("no page %v", ptr)
}

// FileIDs implements page.Provider.
func (p *Provider) FileIDs() []uint16 {
	var ids []uint16
	for id := range p.sizes {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	return ids
}

// NumPages implements page.Provider.
func (p *Provider) NumPages(fileID uint16) uint32 {
	return p.sizes[fileID]
}

// PageBuilder assembles one raw page: records packed after the header, slot
// array filled in from the tail.
type PageBuilder struct {
	typ      page.Type
	self     page.Pointer
	prev     page.Pointer
	next     page.Pointer
	minLen   uint16
	objectID uint32
	records  [][]byte
}

// NewPage starts a page of the given type at the given location.
func NewPage(typ page.Type, self page.Pointer) *PageBuilder {
	return &PageBuilder{typ: typ, self: self}
}

// WithNext links the page to its chain successor.
func (b *PageBuilder) WithNext(ptr page.Pointer) *PageBuilder {
	b.next = ptr
	return b
}

// WithPrev links the page to its chain predecessor.
func (b *PageBuilder) WithPrev(ptr page.Pointer) *PageBuilder {
	b.prev = ptr
	return b
}

// WithMinLen sets the page's fixed-row width hint.
func (b *PageBuilder) WithMinLen(n uint16) *PageBuilder {
	b.minLen = n
	return b
}

// WithObjectID sets the owning object id.
func (b *PageBuilder) WithObjectID(id uint32) *PageBuilder {
	b.objectID = id
	return b
}

// Add appends a record and returns its slot number.
func (b *PageBuilder) Add(rec []byte) uint16 {
	b.records = append(b.records, rec)
	return uint16(len(b.records) - 1)
}

// Build assembles the raw page bytes.
func (b *PageBuilder) Build() []byte {
	buf := make([]byte, page.Size)
	buf[1] = byte(b.typ)
	copy(buf[8:14], ptrBytes(b.prev))
	binary.LittleEndian.PutUint16(buf[14:], b.minLen)
	copy(buf[16:22], ptrBytes(b.next))
	binary.LittleEndian.PutUint16(buf[22:], uint16(len(b.records)))
	binary.LittleEndian.PutUint32(buf[24:], b.objectID)
	copy(buf[32:38], ptrBytes(b.self))

	off := page.HeaderSize
	for i, rec := range b.records {
		copy(buf[off:], rec)
		binary.LittleEndian.PutUint16(buf[page.Size-2*(i+1):], uint16(off))
		off += len(rec)
	}
	binary.LittleEndian.PutUint16(buf[30:], uint16(off))
	binary.LittleEndian.PutUint16(buf[28:], uint16(page.Size-off-2*len(b.records)))
	return buf
}

// Into builds the page and stores it in the provider at its own location.
func (b *PageBuilder) Into(p *Provider) {
	p.Put(b.self, b.Build())
}

// VarCol is one variable-length column of a record under construction.
type VarCol struct {
	Data    []byte
	Complex bool
}

// Rec describes a record to encode. Cols is the stored column count; Nulls
// lists the zero-based column indexes whose null bit is set.
type Rec struct {
	Kind  record.Kind
	Fixed []byte
	Cols  int
	Nulls []int
	Vars  []VarCol
}

// Build encodes the record.
func (r Rec) Build() []byte {
	status := byte(r.Kind) << 1
	if r.Kind == record.KindForwarding {
		panic("use ForwardingStub for forwarding records")
	}
	if r.Cols > 0 {
		status |= 0x10
	}
	if len(r.Vars) > 0 {
		status |= 0x20
	}

	out := []byte{status, 0}
	out = appendU16(out, uint16(4+len(r.Fixed)))
	out = append(out, r.Fixed...)
	out = appendU16(out, uint16(r.Cols))

	if r.Cols > 0 {
		bitmap := make([]byte, (r.Cols+7)/8)
		for _, col := range r.Nulls {
			bitmap[col/8] |= 1 << (col % 8)
		}
		out = append(out, bitmap...)
	}

	if len(r.Vars) > 0 {
		out = appendU16(out, uint16(len(r.Vars)))
		// Stored var offsets are ends, absolute within the record.
		end := len(out) + 2*len(r.Vars)
		for _, v := range r.Vars {
			end += len(v.Data)
			entry := uint16(end)
			if v.Complex {
				entry |= 0x8000
			}
			out = appendU16(out, entry)
		}
		for _, v := range r.Vars {
			out = append(out, v.Data...)
		}
	}
	return out
}

// ForwardingStub encodes a forwarding stub redirecting to target.
func ForwardingStub(target page.RecordPointer) []byte {
	out := []byte{byte(record.KindForwarding) << 1}
	return append(out, recordPtrBytes(target)...)
}

// LobPointer encodes the 16-byte in-row pointer to a LOB tree root.
func LobPointer(timestamp uint32, root page.RecordPointer) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint32(out, timestamp)
	return append(out, recordPtrBytes(root)...)
}

// LobSmallRoot encodes a small-root node holding the whole value inline.
func LobSmallRoot(blobID uint64, payload []byte) Rec {
	fixed := appendU64(nil, blobID)
	fixed = appendU16(fixed, 0) // small root
	fixed = appendU16(fixed, uint16(len(payload)))
	fixed = append(fixed, 0, 0, 0, 0)
	fixed = append(fixed, payload...)
	return Rec{Kind: record.KindBlob, Fixed: fixed}
}

// LobDataNode encodes a leaf fragment node.
func LobDataNode(blobID uint64, payload []byte) Rec {
	fixed := appendU64(nil, blobID)
	fixed = appendU16(fixed, 3) // data
	fixed = append(fixed, payload...)
	return Rec{Kind: record.KindBlob, Fixed: fixed}
}

// LobLink is one child reference for LobLargeRoot and LobInternal.
type LobLink struct {
	Offset uint64
	Ptr    page.RecordPointer
}

// LobLargeRoot encodes a root node listing child references.
func LobLargeRoot(blobID uint64, level uint16, links []LobLink) Rec {
	fixed := appendU64(nil, blobID)
	fixed = appendU16(fixed, 5) // large root
	fixed = appendU16(fixed, uint16(len(links)))
	fixed = appendU16(fixed, uint16(len(links)))
	fixed = appendU16(fixed, level)
	fixed = append(fixed, 0, 0, 0, 0)
	for _, l := range links {
		fixed = appendU32(fixed, uint32(l.Offset))
		fixed = append(fixed, recordPtrBytes(l.Ptr)...)
	}
	return Rec{Kind: record.KindBlob, Fixed: fixed}
}

// LobInternal encodes an internal tree node.
func LobInternal(blobID uint64, level uint16, links []LobLink) Rec {
	fixed := appendU64(nil, blobID)
	fixed = appendU16(fixed, 2) // internal
	fixed = appendU16(fixed, uint16(len(links)))
	fixed = appendU16(fixed, uint16(len(links)))
	fixed = appendU16(fixed, level)
	for _, l := range links {
		fixed = appendU64(fixed, l.Offset)
		fixed = append(fixed, recordPtrBytes(l.Ptr)...)
	}
	return Rec{Kind: record.KindBlob, Fixed: fixed}
}

// UTF16Bytes encodes a string as little-endian UTF-16.
func UTF16Bytes(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = appendU16(out, u)
	}
	return out
}

func ptrBytes(p page.Pointer) []byte {
	out := make([]byte, 6)
	binary.LittleEndian.PutUint32(out, p.PageID)
	binary.LittleEndian.PutUint16(out[4:], p.FileID)
	return out
}

func recordPtrBytes(p page.RecordPointer) []byte {
	out := ptrBytes(p.Page)
	return appendU16(out, p.Slot)
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64(b []byte, v uint64) []byte {
	b = appendU32(b, uint32(v))
	return appendU32(b, uint32(v>>32))
}
