package page_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/internal/mdftest"
)

func TestTypeClassification(t *testing.T) {
	tests := []struct {
		raw  byte
		want page.Type
	}{
		{1, page.TypeData},
		{2, page.TypeIndex},
		{3, page.TypeTextMix},
		{4, page.TypeTextTree},
		{8, page.TypeGAM},
		{9, page.TypeSGAM},
		{10, page.TypeIAM},
		{11, page.TypePFS},
		{13, page.TypeBoot},
		{15, page.TypeFileHeader},
		{20, page.TypePreAlloc},
		{0, page.TypeUnknown},
		{5, page.TypeUnknown},
		{99, page.TypeUnknown},
		{255, page.TypeUnknown},
	}
	for _, tt := range tests {
		buf := make([]byte, page.Size)
		buf[1] = tt.raw
		pg, err := page.Parse(buf)
		if err != nil {
			t.Fatalf("Parse with type byte %d: %v", tt.raw, err)
		}
		if pg.Header.Type != tt.want {
			t.Errorf("type byte %d: got %v, want %v", tt.raw, pg.Header.Type, tt.want)
		}
		if tt.want == page.TypeUnknown && pg.Header.RawType != tt.raw {
			t.Errorf("type byte %d: raw type not preserved, got %d", tt.raw, pg.Header.RawType)
		}
	}
}

func TestParseHeader(t *testing.T) {
	self := page.Pointer{FileID: 1, PageID: 30}
	next := page.Pointer{FileID: 1, PageID: 31}
	b := mdftest.NewPage(page.TypeData, self).
		WithNext(next).
		WithMinLen(17).
		WithObjectID(100)
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{1, 2, 3}}.Build())
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{4}}.Build())

	pg, err := page.Parse(b.Build())
	if err != nil {
		t.Fatal(err)
	}
	h := pg.Header
	if h.Ptr != self {
		t.Errorf("self pointer = %v, want %v", h.Ptr, self)
	}
	if h.NextPage != next {
		t.Errorf("next = %v, want %v", h.NextPage, next)
	}
	if !h.PrevPage.IsZero() {
		t.Errorf("prev = %v, want zero", h.PrevPage)
	}
	if h.MinLen != 17 {
		t.Errorf("min len = %d, want 17", h.MinLen)
	}
	if h.SlotCount != 2 {
		t.Errorf("slot count = %d, want 2", h.SlotCount)
	}
	if h.ObjectID != 100 {
		t.Errorf("object id = %d, want 100", h.ObjectID)
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("short buffer", func(t *testing.T) {
		_, err := page.Parse(make([]byte, 100))
		if !errors.Is(err, page.ErrMalformedPage) {
			t.Errorf("got %v, want ErrMalformedPage", err)
		}
	})

	t.Run("slot array overlaps header", func(t *testing.T) {
		buf := make([]byte, page.Size)
		buf[1] = 1
		// More slots than the space between header and page end allows.
		binary.LittleEndian.PutUint16(buf[22:], 5000)
		_, err := page.Parse(buf)
		if !errors.Is(err, page.ErrMalformedPage) {
			t.Errorf("got %v, want ErrMalformedPage", err)
		}
	})
}

func TestRecordData(t *testing.T) {
	self := page.Pointer{FileID: 1, PageID: 5}
	b := mdftest.NewPage(page.TypeData, self)
	rec := mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{0xAA, 0xBB}}.Build()
	b.Add(rec)
	raw := b.Build()

	pg, err := page.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}

	data, err := pg.RecordData(0)
	if err != nil {
		t.Fatal(err)
	}
	// The slice runs from the record start to the slot array.
	if len(data) < len(rec) {
		t.Fatalf("record data of %d bytes, want at least %d", len(data), len(rec))
	}
	for i := range rec {
		if data[i] != rec[i] {
			t.Fatalf("record byte %d = %#x, want %#x", i, data[i], rec[i])
		}
	}

	if _, err := pg.RecordData(1); err == nil {
		t.Error("expected error for slot beyond slot count")
	}
	if _, err := pg.RecordData(-1); err == nil {
		t.Error("expected error for negative slot")
	}
}

func TestRecordDataBadOffset(t *testing.T) {
	self := page.Pointer{FileID: 1, PageID: 5}
	b := mdftest.NewPage(page.TypeData, self)
	b.Add(mdftest.Rec{Kind: record.KindPrimary, Fixed: []byte{1}}.Build())
	raw := b.Build()

	// Point the slot outside the record data region.
	binary.LittleEndian.PutUint16(raw[page.Size-2:], page.Size-1)
	pg, err := page.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pg.RecordData(0); !errors.Is(err, page.ErrMalformedPage) {
		t.Errorf("got %v, want ErrMalformedPage", err)
	}
}

func TestPointerRoundTrip(t *testing.T) {
	raw := []byte{0x39, 0x05, 0x00, 0x00, 0x03, 0x00}
	p := page.ParsePointer(raw)
	if p.PageID != 1337 || p.FileID != 3 {
		t.Fatalf("got %+v", p)
	}
	if p.String() != "(3:1337)" {
		t.Errorf("String() = %q", p.String())
	}
	if p.IsZero() {
		t.Error("non-zero pointer reported zero")
	}
	if !(page.Pointer{FileID: 1}).IsZero() {
		t.Error("page id 0 should read as zero pointer")
	}
}

func TestRecordPointerRoundTrip(t *testing.T) {
	raw := []byte{0x0A, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0x00}
	rp := page.ParseRecordPointer(raw)
	if rp.Page.PageID != 10 || rp.Page.FileID != 1 || rp.Slot != 2 {
		t.Fatalf("got %+v", rp)
	}
	if rp.String() != "(1:10:2)" {
		t.Errorf("String() = %q", rp.String())
	}
}

func TestGet(t *testing.T) {
	p := mdftest.NewProvider()
	self := page.Pointer{FileID: 1, PageID: 7}
	mdftest.NewPage(page.TypeData, self).Into(p)

	pg, err := page.Get(p, self)
	if err != nil {
		t.Fatal(err)
	}
	if pg.Header.Type != page.TypeData {
		t.Errorf("type = %v", pg.Header.Type)
	}

	if _, err := page.Get(p, page.Pointer{FileID: 9, PageID: 1}); err == nil {
		t.Error("expected error for unknown file")
	}
}
