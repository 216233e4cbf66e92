// Package record decodes individual row records out of a page's record data
// region: the status bits, the fixed-length column region, the null bitmap
// and the variable-length column offset array. It knows nothing about column
// types; it hands out raw byte slices plus nullability.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/FocuswithJustin/mdf/core/page"
)

// ErrRecordTooShort reports record-internal offset arithmetic running past
// the record's byte range. It is scoped to the record it occurred in.
var ErrRecordTooShort = errors.New("record too short")

// Kind is the record type from bits 1..3 of the first status byte.
type Kind uint8

const (
	KindPrimary      Kind = 0 // regular data record
	KindForwarded    Kind = 1 // data record relocated here from another page
	KindForwarding   Kind = 2 // stub left behind at the original location
	KindIndex        Kind = 3 // index record
	KindBlob         Kind = 4 // LOB fragment record
	KindGhostIndex   Kind = 5 // logically deleted index record
	KindGhostData    Kind = 6 // logically deleted data record
	KindGhostVersion Kind = 7 // ghost created by versioning
)

var kindNames = [...]string{
	"primary", "forwarded", "forwarding stub", "index",
	"blob fragment", "ghost index", "ghost data", "ghost version",
}

// String returns the record kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsGhost reports whether the record is logically deleted.
func (k Kind) IsGhost() bool {
	return k == KindGhostIndex || k == KindGhostData || k == KindGhostVersion
}

// HasColumns reports whether the record kind carries column data. Forwarding
// stubs and ghosts carry only a redirect or a deletion marker.
func (k Kind) HasColumns() bool {
	switch k {
	case KindPrimary, KindForwarded, KindIndex, KindBlob:
		return true
	}
	return false
}

// Status bit flags in the high nibble of the first record byte.
const (
	flagNullBitmap   = 0x10 // record has a null bitmap
	flagVarColumns   = 0x20 // record has variable-length columns
	flagVersioning   = 0x40 // record carries a versioning tag
	flagValidStatusB = 0x80 // second status byte is meaningful
)

// Record is one decoded record. It borrows from the page buffer it was parsed
// out of and is immutable after Parse.
type Record struct {
	// Kind dictates the layout; callers must check it before asking for
	// column data.
	Kind Kind

	// FixedData is the fixed-length column region (record header excluded).
	FixedData []byte

	// ColumnCount is the column count stored in the record. It can be
	// smaller than the schema's column count when columns were added to the
	// table after the row was written.
	ColumnCount uint16

	// Forward is the redirect target, valid only for forwarding stubs.
	Forward page.RecordPointer

	hasNullBitmap bool
	nullBitmap    []byte

	hasVar   bool
	varCount uint16
	// varData starts at the variable-length offset array; stored end offsets
	// are relative to the start of the record, varBase converts them.
	varData []byte
	varBase int
}

// Parse decodes one record from its raw byte range. Index records store no
// fixed-data length of their own; their fixed region width comes from the
// page's MinLen header field, which isIndex/minLen carry in.
func Parse(data []byte, isIndex bool, minLen uint16) (*Record, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty record", ErrRecordTooShort)
	}

	r := &Record{
		Kind:          Kind((data[0] & 0x0f) >> 1),
		hasNullBitmap: data[0]&flagNullBitmap != 0,
		hasVar:        data[0]&flagVarColumns != 0,
	}

	if r.Kind == KindForwarding {
		// A stub is just the status byte plus the 8-byte redirect.
		if len(data) < 9 {
			return nil, fmt.Errorf("%w: forwarding stub of %d bytes", ErrRecordTooShort, len(data))
		}
		r.Forward = page.ParseRecordPointer(data[1:9])
		return r, nil
	}
	if r.Kind.IsGhost() {
		return r, nil
	}

	var fixedLen, offset int
	if isIndex {
		if minLen < 1 {
			return nil, fmt.Errorf("%w: index record with zero min length", ErrRecordTooShort)
		}
		fixedLen = int(minLen) - 1
		offset = int(minLen)
		if len(data) < 1+fixedLen {
			return nil, fmt.Errorf("%w: %d bytes, fixed region needs %d", ErrRecordTooShort, len(data), 1+fixedLen)
		}
		r.FixedData = data[1 : 1+fixedLen]
	} else {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: %d bytes, record header needs 4", ErrRecordTooShort, len(data))
		}
		end := int(binary.LittleEndian.Uint16(data[2:4]))
		if end < 4 {
			return nil, fmt.Errorf("%w: fixed data ends at %d, before the record header", ErrRecordTooShort, end)
		}
		if end > len(data) {
			return nil, fmt.Errorf("%w: fixed data ends at %d of %d", ErrRecordTooShort, end, len(data))
		}
		fixedLen = end - 4
		offset = end
		r.FixedData = data[4:end]
	}

	if offset+2 > len(data) {
		return nil, fmt.Errorf("%w: no room for column count at %d", ErrRecordTooShort, offset)
	}
	r.ColumnCount = binary.LittleEndian.Uint16(data[offset:])
	offset += 2

	if r.hasNullBitmap {
		n := (int(r.ColumnCount) + 7) / 8
		if offset+n > len(data) {
			return nil, fmt.Errorf("%w: null bitmap of %d bytes at %d of %d", ErrRecordTooShort, n, offset, len(data))
		}
		r.nullBitmap = data[offset : offset+n]
		offset += n
	}

	if r.hasVar {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: no room for var column count at %d", ErrRecordTooShort, offset)
		}
		r.varCount = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
		if offset+2*int(r.varCount) > len(data) {
			return nil, fmt.Errorf("%w: var offset array of %d entries at %d of %d", ErrRecordTooShort, r.varCount, offset, len(data))
		}
		r.varData = data[offset:]
		r.varBase = offset
	}

	return r, nil
}

// IsNull reports whether the column's null bit is set. Columns past the end
// of the bitmap (or records without one) read as not null; columns past the
// record's stored ColumnCount are the schema layer's concern.
func (r *Record) IsNull(col int) bool {
	if !r.hasNullBitmap || col < 0 || col >= 8*len(r.nullBitmap) {
		return false
	}
	return r.nullBitmap[col/8]&(1<<(col%8)) != 0
}

// HasVarColumns reports whether the record stores a variable-length column
// region at all.
func (r *Record) HasVarColumns() bool {
	return r.hasVar
}

// VarColumnCount returns the number of variable-length columns stored.
func (r *Record) VarColumnCount() uint16 {
	return r.varCount
}

// VarColumn returns the raw bytes of the idx-th variable-length column and
// whether the column is complex (an off-row pointer rather than inline
// bytes). An index beyond the stored count yields an empty, non-complex
// value: variable columns appended to the schema after the row was written
// simply have no bytes.
func (r *Record) VarColumn(idx int) (complex bool, data []byte, err error) {
	if !r.hasVar || idx < 0 || idx >= int(r.varCount) {
		return false, nil, nil
	}

	start := 2 * int(r.varCount)
	if idx > 0 {
		prev := int(binary.LittleEndian.Uint16(r.varData[2*(idx-1):])) & 0x7fff
		start = prev - r.varBase
	}
	raw := binary.LittleEndian.Uint16(r.varData[2*idx:])
	complex = raw&0x8000 != 0
	end := int(raw&0x7fff) - r.varBase

	if start < 0 || end < start || end > len(r.varData) {
		return false, nil, fmt.Errorf("%w: var column %d spans [%d,%d) of %d", ErrRecordTooShort, idx, start, end, len(r.varData))
	}
	return complex, r.varData[start:end], nil
}
