package sqltype_test

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/core/sqltype"
	"github.com/FocuswithJustin/mdf/internal/mdftest"
)

func mustParse(t *testing.T, rec mdftest.Rec) *record.Record {
	t.Helper()
	r, err := record.Parse(rec.Build(), false, 0)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func col(name string, ordinal int, kind sqltype.Kind, length int) sqltype.Column {
	return sqltype.Column{Name: name, Ordinal: ordinal, Type: sqltype.Type{Kind: kind, Length: length}, Nullable: true}
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func le32(v uint32) []byte { return append(le16(uint16(v)), le16(uint16(v>>16))...) }
func le64(v uint64) []byte { return append(le32(uint32(v)), le32(uint32(v>>32))...) }

func TestDecodeFixedKinds(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("t", 1, sqltype.KindTinyInt, 0),
		col("s", 2, sqltype.KindSmallInt, 0),
		col("i", 3, sqltype.KindInt, 0),
		col("b", 4, sqltype.KindBigInt, 0),
		col("f", 5, sqltype.KindFloat, 0),
		col("r", 6, sqltype.KindReal, 0),
		col("c", 7, sqltype.KindChar, 3),
		col("bin", 8, sqltype.KindBinary, 2),
	})

	var fixed []byte
	fixed = append(fixed, 0xFF)                                          // tinyint -1
	fixed = append(fixed, le16(0x8000)...)                               // smallint min
	fixed = append(fixed, le32(0xFFFFFFFE)...)                           // int -2
	fixed = append(fixed, le64(123456789012)...)                         // bigint
	fixed = append(fixed, le64(math.Float64bits(3.5))...)                // float
	fixed = append(fixed, le32(math.Float32bits(1.25))...)               // real
	fixed = append(fixed, []byte("abc")...)                              // char(3)
	fixed = append(fixed, 0xDE, 0xAD)                                    // binary(2)

	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 8})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	v := row.Values
	if v[0].Int != -1 {
		t.Errorf("tinyint = %d", v[0].Int)
	}
	if v[1].Int != -32768 {
		t.Errorf("smallint = %d", v[1].Int)
	}
	if v[2].Int != -2 {
		t.Errorf("int = %d", v[2].Int)
	}
	if v[3].Int != 123456789012 {
		t.Errorf("bigint = %d", v[3].Int)
	}
	if v[4].Float != 3.5 {
		t.Errorf("float = %v", v[4].Float)
	}
	if v[5].Float != 1.25 {
		t.Errorf("real = %v", v[5].Float)
	}
	if v[6].Str != "abc" {
		t.Errorf("char = %q", v[6].Str)
	}
	if !bytes.Equal(v[7].Bytes, []byte{0xDE, 0xAD}) {
		t.Errorf("binary = %v", v[7].Bytes)
	}
}

func TestDecodeBitPacking(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("b1", 1, sqltype.KindBit, 0),
		col("b2", 2, sqltype.KindBit, 0),
		col("b3", 3, sqltype.KindBit, 0),
		col("n", 4, sqltype.KindTinyInt, 0),
	})

	// Three bits share one byte (101), then the tinyint's own byte.
	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{0b101, 9}, Cols: 4})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !row.Values[0].Bool || row.Values[1].Bool || !row.Values[2].Bool {
		t.Errorf("bits = %v %v %v, want true false true",
			row.Values[0].Bool, row.Values[1].Bool, row.Values[2].Bool)
	}
	if row.Values[3].Int != 9 {
		t.Errorf("tinyint after bits = %d", row.Values[3].Int)
	}
}

func TestDecodeDateTime(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("dt", 1, sqltype.KindDateTime, 0),
		col("sdt", 2, sqltype.KindSmallDateTime, 0),
	})

	var fixed []byte
	fixed = append(fixed, le32(300)...) // one second of 1/300s ticks
	fixed = append(fixed, le32(1)...)   // one day
	fixed = append(fixed, le16(90)...)  // 01:30
	fixed = append(fixed, le16(2)...)   // two days

	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 2})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	wantDT := time.Date(1900, time.January, 2, 0, 0, 1, 0, time.UTC)
	if !row.Values[0].Time.Equal(wantDT) {
		t.Errorf("datetime = %v, want %v", row.Values[0].Time, wantDT)
	}
	wantSDT := time.Date(1900, time.January, 3, 1, 30, 0, 0, time.UTC)
	if !row.Values[1].Time.Equal(wantSDT) {
		t.Errorf("smalldatetime = %v, want %v", row.Values[1].Time, wantSDT)
	}
}

func TestDecodeDateTimeAbsurdDays(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{col("dt", 1, sqltype.KindDateTime, 0)})

	var fixed []byte
	fixed = append(fixed, le32(300)...)
	fixed = append(fixed, le32(2_000_000)...) // past year 7000; corrupt

	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 1})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(1900, time.January, 1, 0, 0, 1, 0, time.UTC)
	if !row.Values[0].Time.Equal(want) {
		t.Errorf("datetime = %v, want day part dropped (%v)", row.Values[0].Time, want)
	}
}

func TestDecodeUniqueIdentifier(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{col("g", 1, sqltype.KindUniqueIdentifier, 0)})

	// On-disk GUID order: first three fields little-endian.
	fixed := []byte{
		0x33, 0x22, 0x11, 0x00,
		0x55, 0x44,
		0x77, 0x66,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}
	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 1})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := "00112233-4455-6677-8899-aabbccddeeff"
	if got := row.Values[0].UUID.String(); got != want {
		t.Errorf("uuid = %s, want %s", got, want)
	}
}

func TestDecodeVarColumns(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("id", 1, sqltype.KindInt, 0),
		col("vc", 2, sqltype.KindVarChar, 50),
		col("nvc", 3, sqltype.KindNVarChar, 50),
		col("vb", 4, sqltype.KindVarBinary, 50),
	})

	rec := mustParse(t, mdftest.Rec{
		Kind: record.KindPrimary, Fixed: le32(7), Cols: 4,
		Vars: []mdftest.VarCol{
			{Data: []byte("plain")},
			{Data: mdftest.UTF16Bytes("wide")},
			{Data: []byte{1, 2, 3}},
		},
	})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	if row.Values[1].Str != "plain" {
		t.Errorf("varchar = %q", row.Values[1].Str)
	}
	if row.Values[2].Str != "wide" {
		t.Errorf("nvarchar = %q", row.Values[2].Str)
	}
	if !bytes.Equal(row.Values[3].Bytes, []byte{1, 2, 3}) {
		t.Errorf("varbinary = %v", row.Values[3].Bytes)
	}
}

func TestDecodeTextColumn(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("id", 1, sqltype.KindInt, 0),
		col("body", 2, sqltype.KindText, 16),
	})

	t.Run("off-row pointer", func(t *testing.T) {
		ptr := make([]byte, 16)
		ptr[0] = 9 // timestamp
		ptr[8] = 40
		ptr[12] = 1
		rec := mustParse(t, mdftest.Rec{
			Kind: record.KindPrimary, Fixed: le32(1), Cols: 2,
			Vars: []mdftest.VarCol{{Data: ptr, Complex: true}},
		})
		row, err := schema.DecodeRow(rec)
		if err != nil {
			t.Fatal(err)
		}
		v := row.Values[1]
		if v.Lob == nil {
			t.Fatal("expected a LOB pointer")
		}
		if v.Lob.Timestamp != 9 || v.Lob.Root.Page.PageID != 40 {
			t.Errorf("lob pointer = %+v", v.Lob)
		}
	})

	t.Run("empty is null", func(t *testing.T) {
		rec := mustParse(t, mdftest.Rec{
			Kind: record.KindPrimary, Fixed: le32(1), Cols: 2,
			Vars: []mdftest.VarCol{{}},
		})
		row, err := schema.DecodeRow(rec)
		if err != nil {
			t.Fatal(err)
		}
		if !row.Values[1].Null {
			t.Error("empty text column should decode as null")
		}
	})
}

func TestDecodeVariant(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{col("v", 1, sqltype.KindVariant, 0)})

	t.Run("embedded int", func(t *testing.T) {
		data := append([]byte{56, 0}, le32(0xFFFFFFFF)...) // int tag, no props, -1
		rec := mustParse(t, mdftest.Rec{
			Kind: record.KindPrimary, Fixed: nil, Cols: 1,
			Vars: []mdftest.VarCol{{Data: data}},
		})
		row, err := schema.DecodeRow(rec)
		if err != nil {
			t.Fatal(err)
		}
		inner := row.Values[0].Variant
		if inner == nil {
			t.Fatal("expected an embedded value")
		}
		if inner.Type.Kind != sqltype.KindInt || inner.Int != -1 {
			t.Errorf("inner = %+v", inner)
		}
	})

	t.Run("embedded nvarchar with props", func(t *testing.T) {
		data := []byte{231, 2, 0, 0} // nvarchar tag, two property bytes
		data = append(data, mdftest.UTF16Bytes("hi")...)
		rec := mustParse(t, mdftest.Rec{
			Kind: record.KindPrimary, Fixed: nil, Cols: 1,
			Vars: []mdftest.VarCol{{Data: data}},
		})
		row, err := schema.DecodeRow(rec)
		if err != nil {
			t.Fatal(err)
		}
		inner := row.Values[0].Variant
		if inner == nil || inner.Str != "hi" {
			t.Errorf("inner = %+v", inner)
		}
	})

	t.Run("unknown tag is opaque", func(t *testing.T) {
		data := []byte{240, 0, 1, 2, 3}
		rec := mustParse(t, mdftest.Rec{
			Kind: record.KindPrimary, Fixed: nil, Cols: 1,
			Vars: []mdftest.VarCol{{Data: data}},
		})
		row, err := schema.DecodeRow(rec)
		if err != nil {
			t.Fatal(err)
		}
		inner := row.Values[0].Variant
		if inner == nil || inner.Type.Kind != sqltype.KindUnknown {
			t.Fatalf("inner = %+v", inner)
		}
		if !bytes.Equal(inner.Bytes, data) {
			t.Errorf("opaque bytes = %v", inner.Bytes)
		}
	})
}

func TestDecodeNullFixedKeepsAlignment(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("a", 1, sqltype.KindInt, 0),
		col("b", 2, sqltype.KindInt, 0),
	})

	// Column a is null but its four bytes are still present.
	fixed := append(le32(0), le32(42)...)
	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 2, Nulls: []int{0}})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !row.Values[0].Null {
		t.Error("column a should be null")
	}
	if row.Values[1].Null || row.Values[1].Int != 42 {
		t.Errorf("column b = %+v, want 42", row.Values[1])
	}
}

func TestDecodeTrailingColumns(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("a", 1, sqltype.KindInt, 0),
		col("b", 2, sqltype.KindInt, 0),
		col("c", 3, sqltype.KindVarChar, 10),
	})

	// The row was written before columns b and c existed.
	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: le32(5), Cols: 1})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	if row.Values[0].Int != 5 {
		t.Errorf("a = %d", row.Values[0].Int)
	}
	if !row.Values[1].Null || !row.Values[2].Null {
		t.Error("columns beyond the stored count should be null")
	}
}

func TestDecodeComputedColumn(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("a", 1, sqltype.KindInt, 0),
		{Name: "calc", Ordinal: 2, Type: sqltype.Type{Kind: sqltype.KindInt}, Computed: true},
		col("b", 3, sqltype.KindInt, 0),
	})

	fixed := append(le32(1), le32(2)...)
	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 2})
	row, err := schema.DecodeRow(rec)
	if err != nil {
		t.Fatal(err)
	}
	if row.Values[0].Int != 1 || row.Values[2].Int != 2 {
		t.Errorf("a=%d b=%d, want 1 2", row.Values[0].Int, row.Values[2].Int)
	}
	if !row.Values[1].Null {
		t.Error("computed column should decode as null")
	}
}

func TestDecodeRowTooShort(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{
		col("a", 1, sqltype.KindInt, 0),
		col("b", 2, sqltype.KindBigInt, 0),
	})

	// Only four bytes of fixed data for twelve bytes of columns.
	rec := mustParse(t, mdftest.Rec{Kind: record.KindPrimary, Fixed: le32(1), Cols: 2})
	_, err := schema.DecodeRow(rec)
	if !errors.Is(err, record.ErrRecordTooShort) {
		t.Errorf("got %v, want ErrRecordTooShort", err)
	}
}

func TestDecodeRowWrongKind(t *testing.T) {
	schema := sqltype.NewSchema([]sqltype.Column{col("a", 1, sqltype.KindInt, 0)})
	target := page.RecordPointer{Page: page.Pointer{FileID: 1, PageID: 42}, Slot: 0}
	rec, err := record.Parse(mdftest.ForwardingStub(target), false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := schema.DecodeRow(rec); err == nil {
		t.Error("expected error decoding a forwarding stub")
	}
}
