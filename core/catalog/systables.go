package catalog

import (
	"time"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/sqltype"
)

// Well-known anchors of the catalog bootstrap. The sysrowsets base table has
// a fixed allocation unit id; the other base tables are found through their
// fixed object ids in sysrowsets.
const (
	SysRowSetsAUID = 327680

	SysSchObjsID        = 34
	SysColParsID        = 41
	SysScalarTypesID    = 50
	SysSingleObjRefsID  = 74
)

// AllocUnitType classifies what an allocation unit stores.
type AllocUnitType int8

const (
	AllocDropped     AllocUnitType = 0
	AllocInRowData   AllocUnitType = 1
	AllocLobData     AllocUnitType = 2
	AllocRowOverflow AllocUnitType = 3
)

// String returns the allocation unit type name.
func (t AllocUnitType) String() string {
	switch t {
	case AllocDropped:
		return "dropped"
	case AllocInRowData:
		return "in-row data"
	case AllocLobData:
		return "LOB data"
	case AllocRowOverflow:
		return "row-overflow data"
	}
	return "unknown"
}

// AllocUnit is one sysallocunits row: which pages back which rowset.
type AllocUnit struct {
	AuID       int64
	Type       AllocUnitType
	OwnerID    int64
	Status     int32
	FGID       int16
	PgFirst    page.Pointer
	PgRoot     page.Pointer
	PgFirstIAM page.Pointer
	PcUsed     int64
	PcData     int64
	PcReserved int64
}

// RowSet is one sysrowsets row: the hobt/partition joining objects to
// allocation units.
type RowSet struct {
	RowSetID  int64
	OwnerType int8
	IDMajor   int32
	IDMinor   int32
	NumPart   int32
	Status    int32
	FGIDFS    int16
	RcRows    int64
}

// ObjectType classifies a sysschobjs row.
type ObjectType int

const (
	ObjectUnknown ObjectType = iota
	ObjectSystemTable
	ObjectUserTable
	ObjectInternalTable
	ObjectView
	ObjectStoredProcedure
	ObjectScalarFunction
	ObjectTableFunction
	ObjectPrimaryKey
	ObjectUniqueConstraint
	ObjectDefaultConstraint
	ObjectServiceQueue
	ObjectTrigger
)

var objectTypeCodes = map[string]ObjectType{
	"S ": ObjectSystemTable,
	"U ": ObjectUserTable,
	"IT": ObjectInternalTable,
	"V ": ObjectView,
	"P ": ObjectStoredProcedure,
	"FN": ObjectScalarFunction,
	"IF": ObjectTableFunction,
	"PK": ObjectPrimaryKey,
	"UQ": ObjectUniqueConstraint,
	"D ": ObjectDefaultConstraint,
	"SQ": ObjectServiceQueue,
	"TR": ObjectTrigger,
}

// objectTypeFromCode maps the two-character sysschobjs type code. Unknown
// codes classify as ObjectUnknown rather than failing the catalog.
func objectTypeFromCode(code string) ObjectType {
	return objectTypeCodes[code]
}

// IsTable reports whether the object owns row data.
func (t ObjectType) IsTable() bool {
	return t == ObjectSystemTable || t == ObjectUserTable
}

// Object is one sysschobjs row.
type Object struct {
	ID       int32
	Name     string
	NSID     int32
	Status   int32
	Type     ObjectType
	TypeCode string
	Created  time.Time
	Modified time.Time
}

// syscolpars status bits.
const (
	colStatusNullable   = 1 << 0
	colStatusComputed   = 1 << 4
	colStatusFilestream = 1 << 5
	colStatusSparse     = 1 << 24
	colStatusColumnSet  = 1 << 25
)

// ColPar is one syscolpars row: a column definition before type resolution.
type ColPar struct {
	ObjectID    int32
	Number      int16
	ColID       int32
	Name        string
	XType       int8
	UType       int32
	Length      int16
	Prec        int8
	Scale       int8
	CollationID int32
	Status      int32
	MaxInRow    int16
}

// Nullable reports column nullability. In the files this reader was built
// against the status bit reads inverted relative to its documented meaning;
// see DESIGN.md.
func (c ColPar) Nullable() bool {
	return c.Status&colStatusNullable == 0
}

// Computed reports whether the column is computed (not stored in the row).
func (c ColPar) Computed() bool {
	return c.Status&colStatusComputed != 0
}

// UnsupportedStorage reports storage forms (sparse, filestream, column set)
// that the record decoder cannot lay out.
func (c ColPar) UnsupportedStorage() bool {
	return c.Status&(colStatusFilestream|colStatusSparse|colStatusColumnSet) != 0
}

// ScalarType is one sysscalartypes row.
type ScalarType struct {
	ID          int32
	SchID       int32
	Name        string
	XType       int8
	Length      int16
	Prec        int8
	Scale       int8
	CollationID int32
	Status      int32
}

// SingleObjRef is one syssingleobjrefs row: a dependency edge between
// catalog objects.
type SingleObjRef struct {
	Class      int8
	DepID      int32
	DepSubID   int32
	InDepID    int32
	InDepSubID int32
	Status     int32
}

// rowReader extracts plain Go values from a decoded system table row,
// treating nulls as zero values (system base tables only use null for
// genuinely optional trailing fields).
type rowReader struct {
	vals []sqltype.Value
}

func (r rowReader) val(i int) sqltype.Value {
	if i < 0 || i >= len(r.vals) {
		return sqltype.Value{Null: true}
	}
	return r.vals[i]
}

func (r rowReader) i64(i int) int64      { return r.val(i).Int }
func (r rowReader) i32(i int) int32      { return int32(r.val(i).Int) }
func (r rowReader) i16(i int) int16      { return int16(r.val(i).Int) }
func (r rowReader) i8(i int) int8        { return int8(r.val(i).Int) }
func (r rowReader) str(i int) string     { return r.val(i).Str }
func (r rowReader) t(i int) time.Time    { return r.val(i).Time }

func (r rowReader) ptr(i int) page.Pointer {
	v := r.val(i)
	if v.Null || len(v.Bytes) < 6 {
		return page.Pointer{}
	}
	return page.ParsePointer(v.Bytes)
}

func allocUnitFromRow(row sqltype.Row) AllocUnit {
	r := rowReader{vals: row.Values}
	return AllocUnit{
		AuID:       r.i64(0),
		Type:       AllocUnitType(r.i8(1)),
		OwnerID:    r.i64(2),
		Status:     r.i32(3),
		FGID:       r.i16(4),
		PgFirst:    r.ptr(5),
		PgRoot:     r.ptr(6),
		PgFirstIAM: r.ptr(7),
		PcUsed:     r.i64(8),
		PcData:     r.i64(9),
		PcReserved: r.i64(10),
	}
}

func rowSetFromRow(row sqltype.Row) RowSet {
	r := rowReader{vals: row.Values}
	return RowSet{
		RowSetID:  r.i64(0),
		OwnerType: r.i8(1),
		IDMajor:   r.i32(2),
		IDMinor:   r.i32(3),
		NumPart:   r.i32(4),
		Status:    r.i32(5),
		FGIDFS:    r.i16(6),
		RcRows:    r.i64(7),
	}
}

func objectFromRow(row sqltype.Row) Object {
	r := rowReader{vals: row.Values}
	code := r.str(5)
	return Object{
		ID:       r.i32(0),
		Name:     r.str(1),
		NSID:     r.i32(2),
		Status:   r.i32(4),
		TypeCode: code,
		Type:     objectTypeFromCode(code),
		Created:  r.t(9),
		Modified: r.t(10),
	}
}

func colParFromRow(row sqltype.Row) ColPar {
	r := rowReader{vals: row.Values}
	return ColPar{
		ObjectID:    r.i32(0),
		Number:      r.i16(1),
		ColID:       r.i32(2),
		Name:        r.str(3),
		XType:       r.i8(4),
		UType:       r.i32(5),
		Length:      r.i16(6),
		Prec:        r.i8(7),
		Scale:       r.i8(8),
		CollationID: r.i32(9),
		Status:      r.i32(10),
		MaxInRow:    r.i16(11),
	}
}

func scalarTypeFromRow(row sqltype.Row) ScalarType {
	r := rowReader{vals: row.Values}
	return ScalarType{
		ID:          r.i32(0),
		SchID:       r.i32(1),
		Name:        r.str(2),
		XType:       r.i8(3),
		Length:      r.i16(4),
		Prec:        r.i8(5),
		Scale:       r.i8(6),
		CollationID: r.i32(7),
		Status:      r.i32(8),
	}
}

func singleObjRefFromRow(row sqltype.Row) SingleObjRef {
	r := rowReader{vals: row.Values}
	return SingleObjRef{
		Class:      r.i8(0),
		DepID:      r.i32(1),
		DepSubID:   r.i32(2),
		InDepID:    r.i32(3),
		InDepSubID: r.i32(4),
		Status:     r.i32(5),
	}
}
