package record_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/internal/mdftest"
)

func TestKindClassification(t *testing.T) {
	tests := []struct {
		status byte
		want   record.Kind
	}{
		{0x00, record.KindPrimary},
		{0x02, record.KindForwarded},
		{0x04, record.KindForwarding},
		{0x06, record.KindIndex},
		{0x08, record.KindBlob},
		{0x0A, record.KindGhostIndex},
		{0x0C, record.KindGhostData},
		{0x0E, record.KindGhostVersion},
		// High-nibble flags must not disturb the kind.
		{0x30, record.KindPrimary},
		{0xF0, record.KindPrimary},
	}
	for _, tt := range tests {
		data := append([]byte{tt.status, 0, 9, 0}, make([]byte, 16)...)
		rec, err := record.Parse(data, false, 0)
		if err != nil {
			t.Fatalf("status %#x: %v", tt.status, err)
		}
		if rec.Kind != tt.want {
			t.Errorf("status %#x: kind = %v, want %v", tt.status, rec.Kind, tt.want)
		}
	}
}

func TestParsePrimary(t *testing.T) {
	raw := mdftest.Rec{
		Kind:  record.KindPrimary,
		Fixed: []byte{1, 2, 3, 4, 5},
		Cols:  3,
		Nulls: []int{1},
		Vars: []mdftest.VarCol{
			{Data: []byte("abc")},
			{Data: []byte{0xFF}, Complex: true},
		},
	}.Build()

	rec, err := record.Parse(raw, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != record.KindPrimary {
		t.Errorf("kind = %v", rec.Kind)
	}
	if !bytes.Equal(rec.FixedData, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("fixed data = %v", rec.FixedData)
	}
	if rec.ColumnCount != 3 {
		t.Errorf("column count = %d", rec.ColumnCount)
	}
	if rec.IsNull(0) || !rec.IsNull(1) || rec.IsNull(2) {
		t.Errorf("null bits wrong: %v %v %v", rec.IsNull(0), rec.IsNull(1), rec.IsNull(2))
	}
	if !rec.HasVarColumns() || rec.VarColumnCount() != 2 {
		t.Fatalf("var columns = %d", rec.VarColumnCount())
	}

	complexCol, data, err := rec.VarColumn(0)
	if err != nil || complexCol || !bytes.Equal(data, []byte("abc")) {
		t.Errorf("var 0 = (%v, %v, %v)", complexCol, data, err)
	}
	complexCol, data, err = rec.VarColumn(1)
	if err != nil || !complexCol || !bytes.Equal(data, []byte{0xFF}) {
		t.Errorf("var 1 = (%v, %v, %v)", complexCol, data, err)
	}
	// Beyond the stored count: empty, not an error.
	complexCol, data, err = rec.VarColumn(2)
	if err != nil || complexCol || data != nil {
		t.Errorf("var 2 = (%v, %v, %v)", complexCol, data, err)
	}
}

func TestParseForwardingStub(t *testing.T) {
	target := page.RecordPointer{Page: page.Pointer{FileID: 1, PageID: 42}, Slot: 3}
	rec, err := record.Parse(mdftest.ForwardingStub(target), false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != record.KindForwarding {
		t.Fatalf("kind = %v", rec.Kind)
	}
	if rec.Forward != target {
		t.Errorf("forward = %v, want %v", rec.Forward, target)
	}

	if _, err := record.Parse([]byte{0x04, 0, 0}, false, 0); !errors.Is(err, record.ErrRecordTooShort) {
		t.Errorf("short stub: got %v, want ErrRecordTooShort", err)
	}
}

func TestParseIndexRecord(t *testing.T) {
	// Index records take their fixed width from the page's min length.
	raw := append([]byte{0x06}, []byte{1, 2, 3, 4, 5, 6, 7}...)
	raw = append(raw, 0, 0) // column count

	rec, err := record.Parse(raw, true, 8)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != record.KindIndex {
		t.Errorf("kind = %v", rec.Kind)
	}
	if !bytes.Equal(rec.FixedData, []byte{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("fixed data = %v", rec.FixedData)
	}

	if _, err := record.Parse(raw, true, 0); !errors.Is(err, record.ErrRecordTooShort) {
		t.Errorf("zero min length: got %v", err)
	}
}

func TestParseGhost(t *testing.T) {
	rec, err := record.Parse([]byte{0x0C}, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != record.KindGhostData || !rec.Kind.IsGhost() {
		t.Errorf("kind = %v", rec.Kind)
	}
}

// Truncating a valid record at every possible length must produce either a
// clean parse or ErrRecordTooShort, never a panic or an out-of-bounds read.
func TestParseTruncation(t *testing.T) {
	full := mdftest.Rec{
		Kind:  record.KindPrimary,
		Fixed: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		Cols:  4,
		Nulls: []int{2},
		Vars: []mdftest.VarCol{
			{Data: []byte("hello")},
			{Data: []byte("world")},
		},
	}.Build()

	for n := 0; n <= len(full); n++ {
		rec, err := record.Parse(full[:n], false, 0)
		if err != nil {
			if !errors.Is(err, record.ErrRecordTooShort) {
				t.Fatalf("length %d: got %v, want ErrRecordTooShort", n, err)
			}
			continue
		}
		// A successful parse must keep later reads in bounds too.
		for i := 0; i < int(rec.VarColumnCount()); i++ {
			_, _, _ = rec.VarColumn(i)
		}
	}
}

func TestIterateSkipsBadSlot(t *testing.T) {
	self := page.Pointer{FileID: 1, PageID: 10}
	b := mdftest.NewPage(page.TypeData, self)
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{1}}.Build())
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{2}}.Build())
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{3}}.Build())
	raw := b.Build()

	// Break the middle slot's offset.
	raw[page.Size-4] = 0x00
	raw[page.Size-3] = 0x00

	pg, err := page.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}

	var good, bad int
	it := record.Iterate(pg)
	for it.Next() {
		if it.SlotErr() != nil {
			bad++
			continue
		}
		good++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("terminal error: %v", err)
	}
	if good != 2 || bad != 1 {
		t.Errorf("good=%d bad=%d, want 2/1", good, bad)
	}
}

func TestIterateChain(t *testing.T) {
	p := mdftest.NewProvider()
	first := page.Pointer{FileID: 1, PageID: 10}
	second := page.Pointer{FileID: 1, PageID: 11}

	b1 := mdftest.NewPage(page.TypeData, first).WithNext(second)
	b1.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{1}}.Build())
	b1.Into(p)

	b2 := mdftest.NewPage(page.TypeData, second)
	b2.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{2}}.Build())
	b2.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{3}}.Build())
	b2.Into(p)

	pg, err := page.Get(p, first)
	if err != nil {
		t.Fatal(err)
	}

	var seen []byte
	var ptrs []page.RecordPointer
	it := record.IterateChain(p, pg)
	for it.Next() {
		if it.SlotErr() != nil {
			t.Fatalf("slot error: %v", it.SlotErr())
		}
		seen = append(seen, it.Rec().FixedData[0])
		ptrs = append(ptrs, it.Ptr())
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(seen, []byte{1, 2, 3}) {
		t.Errorf("records = %v, want [1 2 3]", seen)
	}
	want := []page.RecordPointer{
		{Page: first, Slot: 0},
		{Page: second, Slot: 0},
		{Page: second, Slot: 1},
	}
	for i, ptr := range ptrs {
		if ptr != want[i] {
			t.Errorf("ptr[%d] = %v, want %v", i, ptr, want[i])
		}
	}
}

func TestIterateChainBrokenLink(t *testing.T) {
	p := mdftest.NewProvider()
	first := page.Pointer{FileID: 1, PageID: 10}
	missing := page.Pointer{FileID: 2, PageID: 99}

	b := mdftest.NewPage(page.TypeData, first).WithNext(missing)
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{1}}.Build())
	b.Into(p)

	pg, err := page.Get(p, first)
	if err != nil {
		t.Fatal(err)
	}

	var n int
	it := record.IterateChain(p, pg)
	for it.Next() {
		n++
	}
	if n != 1 {
		t.Errorf("records before break = %d, want 1", n)
	}
	if it.Err() == nil {
		t.Error("expected terminal error for unreachable chain page")
	}
}

func TestGet(t *testing.T) {
	p := mdftest.NewProvider()
	self := page.Pointer{FileID: 1, PageID: 10}
	b := mdftest.NewPage(page.TypeData, self)
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{0x42}}.Build())
	b.Into(p)

	rec, err := record.Get(p, page.RecordPointer{Page: self, Slot: 0})
	if err != nil {
		t.Fatal(err)
	}
	if rec.FixedData[0] != 0x42 {
		t.Errorf("fixed data = %v", rec.FixedData)
	}

	if _, err := record.Get(p, page.RecordPointer{Page: self, Slot: 5}); err == nil {
		t.Error("expected error for slot out of range")
	}
}
