// Package sqltype maps raw column byte slices to typed values for the SQL
// data types that occur in MDF files, and decodes whole records against an
// ordered column schema. Large-object class types are never materialized
// here; they decode to a lob.Pointer resolved on demand.
package sqltype

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType reports a declared data type outside the supported set.
// It is non-fatal: such columns decode to an opaque bytes value.
var ErrUnsupportedType = errors.New("unsupported data type")

// Kind enumerates the supported logical data types.
type Kind int

const (
	KindUnknown Kind = iota
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindBit
	KindFloat
	KindReal
	KindDateTime
	KindSmallDateTime
	KindUniqueIdentifier
	KindBinary
	KindChar
	KindNChar
	KindVarBinary
	KindVarChar
	KindNVarChar
	KindSysName
	KindVariant
	KindText
	KindNText
	KindImage
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindTinyInt:          "tinyint",
	KindSmallInt:         "smallint",
	KindInt:              "int",
	KindBigInt:           "bigint",
	KindBit:              "bit",
	KindFloat:            "float",
	KindReal:             "real",
	KindDateTime:         "datetime",
	KindSmallDateTime:    "smalldatetime",
	KindUniqueIdentifier: "uniqueidentifier",
	KindBinary:           "binary",
	KindChar:             "char",
	KindNChar:            "nchar",
	KindVarBinary:        "varbinary",
	KindVarChar:          "varchar",
	KindNVarChar:         "nvarchar",
	KindSysName:          "sysname",
	KindVariant:          "sql_variant",
	KindText:             "text",
	KindNText:            "ntext",
	KindImage:            "image",
}

// Type is a declared column data type: a kind plus the declared byte length
// where the kind needs one (fixed width for binary/char/nchar, declared max
// for variable types, 0 meaning unbounded).
type Type struct {
	Kind   Kind
	Length int
}

// String returns the SQL spelling of the type.
func (t Type) String() string {
	name := kindNames[t.Kind]
	switch t.Kind {
	case KindBinary, KindChar, KindNChar:
		return fmt.Sprintf("%s(%d)", name, t.Length)
	case KindVarBinary, KindVarChar:
		if t.Length > 0 {
			return fmt.Sprintf("%s(%d)", name, t.Length)
		}
		return name + "(max)"
	}
	return name
}

// IsVariable reports whether values of this type live in the record's
// variable-length column region.
func (t Type) IsVariable() bool {
	switch t.Kind {
	case KindVarBinary, KindVarChar, KindNVarChar, KindSysName, KindVariant,
		KindText, KindNText, KindImage, KindUnknown:
		return true
	}
	return false
}

// IsLob reports whether the type belongs to the large-object class.
func (t Type) IsLob() bool {
	switch t.Kind {
	case KindText, KindNText, KindImage:
		return true
	}
	return false
}

// FixedWidth returns the number of bytes the type consumes from the fixed
// data region. Bit columns consume from a shared packed byte and report 0.
func (t Type) FixedWidth() int {
	switch t.Kind {
	case KindTinyInt:
		return 1
	case KindSmallInt:
		return 2
	case KindInt:
		return 4
	case KindBigInt, KindFloat, KindDateTime:
		return 8
	case KindReal, KindSmallDateTime:
		return 4
	case KindUniqueIdentifier:
		return 16
	case KindBinary, KindChar, KindNChar:
		return t.Length
	}
	return 0
}

// FromName maps a catalog type name plus declared length to a Type. Names
// outside the supported set yield an opaque unknown type and a non-fatal
// error wrapping ErrUnsupportedType.
func FromName(name string, length int) (Type, error) {
	switch name {
	case "tinyint":
		return Type{Kind: KindTinyInt}, nil
	case "smallint":
		return Type{Kind: KindSmallInt}, nil
	case "int":
		return Type{Kind: KindInt}, nil
	case "bigint":
		return Type{Kind: KindBigInt}, nil
	case "bit":
		return Type{Kind: KindBit}, nil
	case "float":
		return Type{Kind: KindFloat}, nil
	case "real":
		return Type{Kind: KindReal}, nil
	case "datetime":
		return Type{Kind: KindDateTime}, nil
	case "smalldatetime":
		return Type{Kind: KindSmallDateTime}, nil
	case "uniqueidentifier":
		return Type{Kind: KindUniqueIdentifier}, nil
	case "binary":
		return Type{Kind: KindBinary, Length: length}, nil
	case "char":
		return Type{Kind: KindChar, Length: length}, nil
	case "nchar":
		return Type{Kind: KindNChar, Length: length}, nil
	case "varbinary":
		return Type{Kind: KindVarBinary, Length: length}, nil
	case "varchar":
		return Type{Kind: KindVarChar, Length: length}, nil
	case "nvarchar":
		return Type{Kind: KindNVarChar, Length: length}, nil
	case "sysname":
		return Type{Kind: KindSysName}, nil
	case "sql_variant":
		return Type{Kind: KindVariant}, nil
	case "text":
		return Type{Kind: KindText}, nil
	case "ntext":
		return Type{Kind: KindNText}, nil
	case "image":
		return Type{Kind: KindImage}, nil
	}
	return Type{Kind: KindUnknown, Length: length}, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Raw on-disk type codes (syscolpars.xtype), used by the self-describing
// sql_variant header.
const (
	xtypeImage            = 34
	xtypeText             = 35
	xtypeUniqueIdentifier = 36
	xtypeTinyInt          = 48
	xtypeSmallInt         = 52
	xtypeInt              = 56
	xtypeSmallDateTime    = 58
	xtypeReal             = 59
	xtypeDateTime         = 61
	xtypeFloat            = 62
	xtypeNText            = 99
	xtypeBit              = 104
	xtypeVariant          = 98
	xtypeBigInt           = 127
	xtypeVarBinary        = 165
	xtypeVarChar          = 167
	xtypeBinary           = 173
	xtypeChar             = 175
	xtypeNVarChar         = 231
	xtypeNChar            = 239
)
