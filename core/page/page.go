package page

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Size is the fixed size of every MDF page (8 KiB).
	Size = 8192

	// HeaderSize is the size of the page header at the start of each page.
	// Record offsets in the slot array are absolute within the page, so the
	// header is never stripped from the page buffer.
	HeaderSize = 96

	// SlotEntrySize is the size of one slot array entry (a little-endian
	// uint16 record offset).
	SlotEntrySize = 2
)

// ErrMalformedPage reports a page whose header or slot array is internally
// inconsistent: a short buffer, a slot array overlapping the header, or a slot
// offset pointing outside the record data region.
var ErrMalformedPage = errors.New("malformed page")

// Type classifies a page by the type byte in its header.
type Type byte

// Page types observed in MDF files. Values are the raw on-disk type byte.
const (
	TypeData           Type = 1
	TypeIndex          Type = 2
	TypeTextMix        Type = 3
	TypeTextTree       Type = 4
	TypeSort           Type = 7
	TypeGAM            Type = 8
	TypeSGAM           Type = 9
	TypeIAM            Type = 10
	TypePFS            Type = 11
	TypeBoot           Type = 13
	TypeFileHeader     Type = 15
	TypeDiffMap        Type = 16
	TypeMLMap          Type = 17
	TypeCheckDBTemp    Type = 18
	TypeAlterIndexTemp Type = 19
	TypePreAlloc       Type = 20

	// TypeUnknown stands in for any type byte outside the known set. Such
	// pages are still surfaced (with their raw type byte preserved in the
	// header) so that full-file scans can skip them individually instead of
	// failing.
	TypeUnknown Type = 0
)

var typeNames = map[Type]string{
	TypeData:           "data",
	TypeIndex:          "index",
	TypeTextMix:        "text mix",
	TypeTextTree:       "text tree",
	TypeSort:           "sort",
	TypeGAM:            "GAM",
	TypeSGAM:           "SGAM",
	TypeIAM:            "IAM",
	TypePFS:            "PFS",
	TypeBoot:           "boot",
	TypeFileHeader:     "file header",
	TypeDiffMap:        "diff map",
	TypeMLMap:          "ML map",
	TypeCheckDBTemp:    "checkdb temp",
	TypeAlterIndexTemp: "alter index temp",
	TypePreAlloc:       "prealloc",
}

func typeFromByte(b byte) Type {
	t := Type(b)
	if _, ok := typeNames[t]; ok {
		return t
	}
	return TypeUnknown
}

// String returns a human-readable page type name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsText reports whether the page holds LOB fragments.
func (t Type) IsText() bool {
	return t == TypeTextMix || t == TypeTextTree
}

// Pointer identifies a page by page id and data file id. On disk it is six
// bytes: a little-endian uint32 page id followed by a little-endian uint16
// file id.
type Pointer struct {
	PageID uint32
	FileID uint16
}

// ParsePointer decodes a 6-byte page pointer.
func ParsePointer(data []byte) Pointer {
	return Pointer{
		PageID: binary.LittleEndian.Uint32(data[0:4]),
		FileID: binary.LittleEndian.Uint16(data[4:6]),
	}
}

// IsZero reports whether the pointer is the null pointer (page id 0), which
// marks the end of a page chain.
func (p Pointer) IsZero() bool {
	return p.PageID == 0
}

// String formats the pointer in the conventional (file:page) notation.
func (p Pointer) String() string {
	return fmt.Sprintf("(%d:%d)", p.FileID, p.PageID)
}

// RecordPointer identifies a single record: a page plus a slot index. On disk
// it is eight bytes: the 6-byte page pointer followed by a little-endian
// uint16 slot number.
type RecordPointer struct {
	Page Pointer
	Slot uint16
}

// ParseRecordPointer decodes an 8-byte record pointer.
func ParseRecordPointer(data []byte) RecordPointer {
	return RecordPointer{
		Page: ParsePointer(data[0:6]),
		Slot: binary.LittleEndian.Uint16(data[6:8]),
	}
}

// IsZero reports whether the record pointer references no record.
func (r RecordPointer) IsZero() bool {
	return r.Page.IsZero()
}

// String formats the pointer in (file:page:slot) notation.
func (r RecordPointer) String() string {
	return fmt.Sprintf("(%d:%d:%d)", r.Page.FileID, r.Page.PageID, r.Slot)
}

// Page header field offsets within the 96-byte header.
const (
	offType          = 1  // page type (1 byte)
	offLevel         = 3  // b-tree level, 0 for leaf and non-index pages (1 byte)
	offIndexID       = 6  // index id (2 bytes)
	offPrevPage      = 8  // previous page in chain (6 bytes)
	offMinLen        = 14 // minimum record length, p_min_len (2 bytes)
	offNextPage      = 16 // next page in chain (6 bytes)
	offSlotCount     = 22 // number of slot array entries (2 bytes)
	offObjectID      = 24 // owning object id (4 bytes)
	offFreeCount     = 28 // free byte count (2 bytes)
	offFreeData      = 30 // offset of free space start (2 bytes)
	offSelfPointer   = 32 // this page's own pointer (6 bytes)
	offGhostRecCount = 58 // ghost record count (2 bytes)
)

// Header is the decoded page header.
type Header struct {
	// Ptr is the page's own pointer as recorded in the header.
	Ptr Pointer

	// Type is the classified page type; RawType preserves the on-disk byte
	// for pages classified as TypeUnknown.
	Type    Type
	RawType byte

	// Level is the b-tree level, counted up from 0 at the leaves. Zero for
	// non-index pages.
	Level uint8

	// IndexID is the owning index id (0 = heap, 1 = clustered index).
	IndexID uint16

	// PrevPage and NextPage link pages belonging to the same allocation into
	// a doubly linked chain. A zero pointer means no neighbor.
	PrevPage Pointer
	NextPage Pointer

	// MinLen is the minimum record length expected on this page (p_min_len):
	// the fixed-row width of the owning schema plus record overhead. It is
	// the signal the recovery scanner keys on.
	MinLen uint16

	// SlotCount is the number of entries in the slot array.
	SlotCount uint16

	// ObjectID is the owning object's id as recorded on the page.
	ObjectID uint32

	// FreeCount and FreeData describe the free space bookkeeping.
	FreeCount uint16
	FreeData  uint16

	// GhostRecordCount is the number of logically deleted records still
	// physically present on the page.
	GhostRecordCount uint16
}

// Page is one decoded page: the parsed header plus the full raw page buffer.
// Pages are immutable once parsed; all record offsets index into Data.
type Page struct {
	Header Header
	Data   []byte
}

// Parse decodes a page header and validates the slot array bounds. It fails
// with ErrMalformedPage only when the header itself is inconsistent;
// individual bad slots are reported by RecordData, not here.
func Parse(data []byte) (*Page, error) {
	if len(data) < Size {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedPage, len(data), Size)
	}
	data = data[:Size]

	h := Header{
		Ptr:              ParsePointer(data[offSelfPointer:]),
		Type:             typeFromByte(data[offType]),
		RawType:          data[offType],
		Level:            data[offLevel],
		IndexID:          binary.LittleEndian.Uint16(data[offIndexID:]),
		PrevPage:         ParsePointer(data[offPrevPage:]),
		MinLen:           binary.LittleEndian.Uint16(data[offMinLen:]),
		NextPage:         ParsePointer(data[offNextPage:]),
		SlotCount:        binary.LittleEndian.Uint16(data[offSlotCount:]),
		ObjectID:         binary.LittleEndian.Uint32(data[offObjectID:]),
		FreeCount:        binary.LittleEndian.Uint16(data[offFreeCount:]),
		FreeData:         binary.LittleEndian.Uint16(data[offFreeData:]),
		GhostRecordCount: binary.LittleEndian.Uint16(data[offGhostRecCount:]),
	}

	if int(h.SlotCount)*SlotEntrySize > Size-HeaderSize {
		return nil, fmt.Errorf("%w: slot count %d exceeds page capacity", ErrMalformedPage, h.SlotCount)
	}

	return &Page{Header: h, Data: data}, nil
}

// slotArrayStart returns the offset of the first (highest-addressed) slot
// entry's region start, i.e. the end of the record data region.
func (p *Page) slotArrayStart() int {
	return Size - int(p.Header.SlotCount)*SlotEntrySize
}

// RecordData returns the raw byte range of the record in the given slot. The
// range extends from the record's offset to the start of the slot array;
// record decoding determines the actual record length. A slot whose offset
// falls outside the record data region yields an error wrapping
// ErrMalformedPage without affecting other slots.
func (p *Page) RecordData(slot int) ([]byte, error) {
	if slot < 0 || slot >= int(p.Header.SlotCount) {
		return nil, fmt.Errorf("%w: slot %d out of range (0..%d)", ErrMalformedPage, slot, int(p.Header.SlotCount)-1)
	}

	entry := Size - SlotEntrySize*(slot+1)
	off := int(binary.LittleEndian.Uint16(p.Data[entry:]))
	end := p.slotArrayStart()
	if off < HeaderSize || off >= end {
		return nil, fmt.Errorf("%w: slot %d offset %d outside record region [%d,%d)", ErrMalformedPage, slot, off, HeaderSize, end)
	}

	return p.Data[off:end], nil
}
