package sqltype

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/mdf/core/lob"
)

// Value is one decoded column value: the declared type tag plus exactly one
// meaningful payload field selected by Type.Kind, or the null marker. Values
// are immutable; byte payloads borrow from the record they were decoded from.
type Value struct {
	Type Type
	Null bool

	Int     int64       // tinyint, smallint, int, bigint
	Float   float64     // float, real
	Bool    bool        // bit
	Bytes   []byte      // binary, varbinary, unknown/opaque
	Str     string      // char, nchar, varchar, nvarchar, sysname
	Time    time.Time   // datetime, smalldatetime
	UUID    uuid.UUID   // uniqueidentifier
	Lob     *lob.Pointer // text, ntext, image and off-row varbinary/nvarchar
	Variant *Value      // sql_variant: the embedded, recursively decoded value
}

// IsLob reports whether the value holds an out-of-row pointer that must be
// resolved through the LOB reassembler.
func (v Value) IsLob() bool {
	return !v.Null && v.Lob != nil
}

// String renders the value for display. NULL renders as "NULL"; LOB-valued
// columns render their pointer, never their content.
func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	if v.Lob != nil {
		return v.Lob.String()
	}
	switch v.Type.Kind {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat, KindReal:
		return fmt.Sprintf("%g", v.Float)
	case KindBit:
		return fmt.Sprintf("%t", v.Bool)
	case KindBinary, KindVarBinary, KindUnknown:
		return fmt.Sprintf("0x%x", v.Bytes)
	case KindChar, KindNChar, KindVarChar, KindNVarChar, KindSysName:
		return v.Str
	case KindDateTime, KindSmallDateTime:
		return v.Time.Format("2006-01-02 15:04:05.000")
	case KindUniqueIdentifier:
		return v.UUID.String()
	case KindVariant:
		if v.Variant == nil {
			return "NULL"
		}
		return v.Variant.String()
	}
	return fmt.Sprintf("0x%x", v.Bytes)
}
