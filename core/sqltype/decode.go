package sqltype

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/mdf/core/lob"
	"github.com/FocuswithJustin/mdf/core/record"
)

// fixedCursor steps through a record's fixed data region.
type fixedCursor struct {
	data []byte
	off  int
}

func (c *fixedCursor) take(n int) ([]byte, error) {
	if c.off+n > len(c.data) {
		return nil, fmt.Errorf("%w: fixed data needs %d bytes at %d of %d", record.ErrRecordTooShort, n, c.off, len(c.data))
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// bitCursor unpacks bit columns. Eight logical bit columns share one byte of
// the fixed region; the byte is pulled from the cursor when the first of
// them is decoded.
type bitCursor struct {
	cur  byte
	left int
}

func (b *bitCursor) read(c *fixedCursor) (bool, error) {
	if b.left == 0 {
		by, err := c.take(1)
		if err != nil {
			return false, err
		}
		b.cur = by[0]
		b.left = 8
	}
	v := b.cur&1 == 1
	b.cur >>= 1
	b.left--
	return v, nil
}

// datetimeBase is the epoch both datetime variants count from.
var datetimeBase = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// decodeFixed decodes one fixed-width value from the cursor.
func (t Type) decodeFixed(c *fixedCursor, bits *bitCursor) (Value, error) {
	v := Value{Type: t}
	switch t.Kind {
	case KindTinyInt:
		b, err := c.take(1)
		if err != nil {
			return v, err
		}
		v.Int = int64(int8(b[0]))
	case KindSmallInt:
		b, err := c.take(2)
		if err != nil {
			return v, err
		}
		v.Int = int64(int16(binary.LittleEndian.Uint16(b)))
	case KindInt:
		b, err := c.take(4)
		if err != nil {
			return v, err
		}
		v.Int = int64(int32(binary.LittleEndian.Uint32(b)))
	case KindBigInt:
		b, err := c.take(8)
		if err != nil {
			return v, err
		}
		v.Int = int64(binary.LittleEndian.Uint64(b))
	case KindBit:
		set, err := bits.read(c)
		if err != nil {
			return v, err
		}
		v.Bool = set
	case KindFloat:
		b, err := c.take(8)
		if err != nil {
			return v, err
		}
		v.Float = math.Float64frombits(binary.LittleEndian.Uint64(b))
	case KindReal:
		b, err := c.take(4)
		if err != nil {
			return v, err
		}
		v.Float = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case KindDateTime:
		b, err := c.take(8)
		if err != nil {
			return v, err
		}
		ticks := int32(binary.LittleEndian.Uint32(b[0:4]))
		days := int32(binary.LittleEndian.Uint32(b[4:8]))
		dt := datetimeBase
		// Corrupt rows show absurd day counts; keep the time-of-day part
		// rather than overflowing.
		if days > 0 && days < 1_000_000 {
			dt = dt.AddDate(0, 0, int(days))
		}
		v.Time = dt.Add(time.Duration(int64(ticks)*1000/300) * time.Millisecond)
	case KindSmallDateTime:
		b, err := c.take(4)
		if err != nil {
			return v, err
		}
		minutes := binary.LittleEndian.Uint16(b[0:2])
		days := binary.LittleEndian.Uint16(b[2:4])
		v.Time = datetimeBase.AddDate(0, 0, int(days)).Add(time.Duration(minutes) * time.Minute)
	case KindUniqueIdentifier:
		b, err := c.take(16)
		if err != nil {
			return v, err
		}
		v.UUID = uuidFromGUID(b)
	case KindBinary:
		b, err := c.take(t.Length)
		if err != nil {
			return v, err
		}
		v.Bytes = b
	case KindChar:
		b, err := c.take(t.Length)
		if err != nil {
			return v, err
		}
		v.Str = string(b)
	case KindNChar:
		b, err := c.take(t.Length)
		if err != nil {
			return v, err
		}
		v.Str = UTF16String(b)
	default:
		return v, fmt.Errorf("cannot decode %v from the fixed data region", t)
	}
	return v, nil
}

// decodeVariable decodes one value from its variable-length column slice.
// complex marks an off-row pointer instead of inline bytes.
func (t Type) decodeVariable(complexCol bool, data []byte) (Value, error) {
	v := Value{Type: t}
	switch t.Kind {
	case KindVarBinary:
		if complexCol {
			return lobValue(t, data)
		}
		v.Bytes = data
	case KindVarChar:
		v.Str = string(data)
	case KindNVarChar:
		if complexCol {
			return lobValue(t, data)
		}
		v.Str = UTF16String(data)
	case KindSysName:
		v.Str = UTF16String(data)
	case KindVariant:
		return decodeVariant(data)
	case KindText, KindNText, KindImage:
		if len(data) == 0 {
			v.Null = true
			return v, nil
		}
		if len(data) == 16 {
			return lobValue(t, data)
		}
		// Values below the off-row threshold show up inline.
		v.Bytes = data
	case KindUnknown:
		v.Bytes = data
	default:
		return v, fmt.Errorf("cannot decode %v from the variable-length region", t)
	}
	return v, nil
}

func lobValue(t Type, data []byte) (Value, error) {
	ptr, err := lob.ParsePointer(data)
	if err != nil {
		return Value{Type: t}, err
	}
	return Value{Type: t, Lob: &ptr}, nil
}

// decodeVariant decodes a self-describing sql_variant value: a base type tag
// byte, a property-count byte, the type-specific property bytes (collation,
// declared length, precision/scale), then the value itself, decoded by
// recursing with the embedded tag. Unknown embedded tags fall back to an
// opaque bytes value.
func decodeVariant(data []byte) (Value, error) {
	v := Value{Type: Type{Kind: KindVariant}}
	if len(data) == 0 {
		v.Null = true
		return v, nil
	}
	if len(data) < 2 {
		return v, fmt.Errorf("%w: sql_variant header of %d bytes", record.ErrRecordTooShort, len(data))
	}
	props := int(data[1])
	if 2+props > len(data) {
		return v, fmt.Errorf("%w: sql_variant claims %d property bytes of %d", record.ErrRecordTooShort, props, len(data)-2)
	}
	val := data[2+props:]

	var inner Value
	var err error
	switch data[0] {
	case xtypeTinyInt, xtypeSmallInt, xtypeInt, xtypeBigInt, xtypeFloat, xtypeReal,
		xtypeDateTime, xtypeSmallDateTime, xtypeUniqueIdentifier:
		t := typeForXtype(data[0], len(val))
		cur := fixedCursor{data: val}
		inner, err = t.decodeFixed(&cur, &bitCursor{})
	case xtypeBit:
		// Inside a variant the bit is not packed; it occupies its own byte.
		if len(val) < 1 {
			err = fmt.Errorf("%w: sql_variant bit with no value byte", record.ErrRecordTooShort)
		} else {
			inner = Value{Type: Type{Kind: KindBit}, Bool: val[0]&1 == 1}
		}
	case xtypeChar, xtypeVarChar:
		inner = Value{Type: typeForXtype(data[0], len(val)), Str: string(val)}
	case xtypeNChar, xtypeNVarChar:
		inner = Value{Type: typeForXtype(data[0], len(val)), Str: UTF16String(val)}
	case xtypeBinary, xtypeVarBinary:
		inner = Value{Type: typeForXtype(data[0], len(val)), Bytes: val}
	default:
		inner = Value{Type: Type{Kind: KindUnknown}, Bytes: data}
	}
	if err != nil {
		return v, err
	}
	v.Variant = &inner
	return v, nil
}

func typeForXtype(x byte, length int) Type {
	switch x {
	case xtypeTinyInt:
		return Type{Kind: KindTinyInt}
	case xtypeSmallInt:
		return Type{Kind: KindSmallInt}
	case xtypeInt:
		return Type{Kind: KindInt}
	case xtypeBigInt:
		return Type{Kind: KindBigInt}
	case xtypeFloat:
		return Type{Kind: KindFloat}
	case xtypeReal:
		return Type{Kind: KindReal}
	case xtypeDateTime:
		return Type{Kind: KindDateTime}
	case xtypeSmallDateTime:
		return Type{Kind: KindSmallDateTime}
	case xtypeUniqueIdentifier:
		return Type{Kind: KindUniqueIdentifier}
	case xtypeChar:
		return Type{Kind: KindChar, Length: length}
	case xtypeVarChar:
		return Type{Kind: KindVarChar, Length: length}
	case xtypeNChar:
		return Type{Kind: KindNChar, Length: length}
	case xtypeNVarChar:
		return Type{Kind: KindNVarChar, Length: length}
	case xtypeBinary:
		return Type{Kind: KindBinary, Length: length}
	case xtypeVarBinary:
		return Type{Kind: KindVarBinary, Length: length}
	}
	return Type{Kind: KindUnknown}
}

// uuidFromGUID converts the on-disk GUID byte order (first three fields
// little-endian) to RFC 4122 order.
func uuidFromGUID(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}

// UTF16String decodes little-endian UTF-16 (the catalog's UCS-2) into a Go
// string.
func UTF16String(data []byte) string {
	u := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		u = append(u, binary.LittleEndian.Uint16(data[i:]))
	}
	return string(utf16.Decode(u))
}
