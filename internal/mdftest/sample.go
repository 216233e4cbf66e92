package mdftest

import (
	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
)

// Sample database layout. One data file with the boot page at its canonical
// slot, the system base tables on one page each, and three small user
// tables, one of which carries an off-row text value spread over a
// three-level LOB tree.
const (
	SampleName = "testdb"

	CustomersID int32 = 100
	OrdersID    int32 = 101
	ArchiveID   int32 = 102

	// CustomersMinLen is the fixed-row width the customers and archive
	// schemas imply; orders implies OrdersMinLen.
	CustomersMinLen uint16 = 17
	OrdersMinLen    uint16 = 12

	// SampleNotes is the reassembled off-row value of the first customers
	// row's notes column.
	SampleNotes = "hello world"
)

// Page locations within the sample file.
var (
	SampleSysAllocUnits = page.Pointer{FileID: 1, PageID: 20}
	SampleSysRowSets    = page.Pointer{FileID: 1, PageID: 21}
	SampleCustomersPage = page.Pointer{FileID: 1, PageID: 30}
	SampleLobRootPage   = page.Pointer{FileID: 1, PageID: 40}
	SampleLobDataPage   = page.Pointer{FileID: 1, PageID: 41}
)

func rowsetID(objID int32) int64 { return int64(objID) * 100 }

// SampleDB builds the sample database. Tests mutate the returned provider
// freely; every call builds a fresh copy.
func SampleDB() *Provider {
	p := NewProvider()
	p.SetNumPages(1, 48)

	bootPage(p)
	allocUnitsPage(p)
	rowSetsPage(p)
	schObjsPage(p)
	colParsPage(p)
	scalarTypesPage(p)
	singleObjRefsPage(p)
	customersPages(p)
	ordersPage(p)
	archivePage(p)
	lobPages(p)
	return p
}

func bootPage(p *Provider) {
	fixed := make([]byte, 518)
	copy(fixed[48:], UTF16Bytes(SampleName))
	copy(fixed[512:], ptrBytes(SampleSysAllocUnits))
	b := NewPage(page.TypeBoot, page.Pointer{FileID: 1, PageID: 9})
	b.Add(Rec{Kind: record.KindPrimary, Fixed: fixed}.Build())
	b.Into(p)
}

func allocUnitRow(auid int64, ownerID int64, first page.Pointer) []byte {
	fixed := appendU64(nil, uint64(auid))
	fixed = append(fixed, 1) // in-row data
	fixed = appendU64(fixed, uint64(ownerID))
	fixed = appendU32(fixed, 0)
	fixed = appendU16(fixed, 1)
	fixed = append(fixed, ptrBytes(first)...)
	fixed = append(fixed, ptrBytes(page.Pointer{})...)
	fixed = append(fixed, ptrBytes(page.Pointer{})...)
	fixed = appendU64(fixed, 1)
	fixed = appendU64(fixed, 1)
	fixed = appendU64(fixed, 1)
	fixed = appendU32(fixed, 0)
	return Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 12}.Build()
}

func allocUnitsPage(p *Provider) {
	b := NewPage(page.TypeData, SampleSysAllocUnits)
	b.Add(allocUnitRow(327680, 5, SampleSysRowSets))
	b.Add(allocUnitRow(434, rowsetID(34), page.Pointer{FileID: 1, PageID: 22}))
	b.Add(allocUnitRow(441, rowsetID(41), page.Pointer{FileID: 1, PageID: 23}))
	b.Add(allocUnitRow(450, rowsetID(50), page.Pointer{FileID: 1, PageID: 24}))
	b.Add(allocUnitRow(474, rowsetID(74), page.Pointer{FileID: 1, PageID: 25}))
	b.Add(allocUnitRow(500, rowsetID(CustomersID), SampleCustomersPage))
	b.Add(allocUnitRow(501, rowsetID(OrdersID), page.Pointer{FileID: 1, PageID: 34}))
	b.Add(allocUnitRow(502, rowsetID(ArchiveID), page.Pointer{FileID: 1, PageID: 33}))
	b.Into(p)
}

func rowSetRow(objID int32) []byte {
	fixed := appendU64(nil, uint64(rowsetID(objID)))
	fixed = append(fixed, 1)
	fixed = appendU32(fixed, uint32(objID))
	fixed = appendU32(fixed, 1) // idminor
	fixed = appendU32(fixed, 1)
	fixed = appendU32(fixed, 0)
	fixed = appendU16(fixed, 0)
	fixed = appendU64(fixed, 0)
	fixed = append(fixed, 0, 0)
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0)
	fixed = appendU16(fixed, 0)
	fixed = appendU16(fixed, 0)
	fixed = appendU16(fixed, 0)
	fixed = appendU32(fixed, 0)
	return Rec{
		Kind: record.KindPrimary, Fixed: fixed, Cols: 18,
		Nulls: []int{15, 16},
		Vars:  []VarCol{{}, {}},
	}.Build()
}

func rowSetsPage(p *Provider) {
	b := NewPage(page.TypeData, SampleSysRowSets)
	for _, id := range []int32{34, 41, 50, 74, CustomersID, OrdersID, ArchiveID} {
		b.Add(rowSetRow(id))
	}
	b.Into(p)
}

func schObjRow(id int32, name, code string) []byte {
	fixed := appendU32(nil, uint32(id))
	fixed = appendU32(fixed, 0)
	fixed = append(fixed, 0)
	fixed = appendU32(fixed, 0)
	fixed = append(fixed, []byte(code)...)
	fixed = appendU32(fixed, 0)
	fixed = append(fixed, 0)
	fixed = appendU32(fixed, 0)
	fixed = append(fixed, make([]byte, 16)...) // created, modified
	return Rec{
		Kind: record.KindPrimary, Fixed: fixed, Cols: 11,
		Vars: []VarCol{{Data: UTF16Bytes(name)}},
	}.Build()
}

func schObjsPage(p *Provider) {
	b := NewPage(page.TypeData, page.Pointer{FileID: 1, PageID: 22})
	b.Add(schObjRow(34, "sysschobjs", "S "))
	b.Add(schObjRow(41, "syscolpars", "S "))
	b.Add(schObjRow(50, "sysscalartypes", "S "))
	b.Add(schObjRow(74, "syssingleobjrefs", "S "))
	b.Add(schObjRow(CustomersID, "customers", "U "))
	b.Add(schObjRow(OrdersID, "orders", "U "))
	b.Add(schObjRow(ArchiveID, "archive", "U "))
	b.Add(schObjRow(200, "vw_customers", "V "))
	b.Into(p)
}

func colParRow(objID, colid int32, name string, xtype byte, length int16) []byte {
	fixed := appendU32(nil, uint32(objID))
	fixed = appendU16(fixed, 0)
	fixed = appendU32(fixed, uint32(colid))
	fixed = append(fixed, xtype)
	fixed = appendU32(fixed, uint32(xtype))
	fixed = appendU16(fixed, uint16(length))
	fixed = append(fixed, 0, 0)
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0) // status
	fixed = appendU16(fixed, 0)
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0)
	return Rec{
		Kind: record.KindPrimary, Fixed: fixed, Cols: 16,
		Nulls: []int{15},
		Vars:  []VarCol{{Data: UTF16Bytes(name)}, {}},
	}.Build()
}

func colParsPage(p *Provider) {
	b := NewPage(page.TypeData, page.Pointer{FileID: 1, PageID: 23})
	for _, objID := range []int32{CustomersID, ArchiveID} {
		b.Add(colParRow(objID, 1, "id", 56, 4))
		b.Add(colParRow(objID, 2, "name", 167, 50))
		b.Add(colParRow(objID, 3, "active", 104, 1))
		b.Add(colParRow(objID, 4, "joined", 61, 8))
		b.Add(colParRow(objID, 5, "notes", 35, 16))
	}
	b.Add(colParRow(OrdersID, 1, "id", 56, 4))
	b.Add(colParRow(OrdersID, 2, "qty", 56, 4))
	b.Add(colParRow(OrdersID, 3, "ref", 167, 20))
	b.Into(p)
}

func scalarTypeRow(id int32, name string, xtype byte, length int16) []byte {
	fixed := appendU32(nil, uint32(id))
	fixed = appendU32(fixed, 4)
	fixed = append(fixed, xtype)
	fixed = appendU16(fixed, uint16(length))
	fixed = append(fixed, 0, 0)
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0)
	fixed = append(fixed, make([]byte, 16)...) // created, modified
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0)
	return Rec{
		Kind: record.KindPrimary, Fixed: fixed, Cols: 13,
		Vars: []VarCol{{Data: UTF16Bytes(name)}},
	}.Build()
}

func scalarTypesPage(p *Provider) {
	b := NewPage(page.TypeData, page.Pointer{FileID: 1, PageID: 24})
	b.Add(scalarTypeRow(56, "int", 56, 4))
	b.Add(scalarTypeRow(167, "varchar", 167, 8000))
	b.Add(scalarTypeRow(104, "bit", 104, 1))
	b.Add(scalarTypeRow(61, "datetime", 61, 8))
	b.Add(scalarTypeRow(35, "text", 35, 16))
	// A user-defined alias of int; type resolution must skip it.
	b.Add(scalarTypeRow(300, "custid", 56, 4))
	b.Into(p)
}

func singleObjRefsPage(p *Provider) {
	fixed := []byte{1}
	fixed = appendU32(fixed, uint32(200))
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, uint32(CustomersID))
	fixed = appendU32(fixed, 0)
	fixed = appendU32(fixed, 0)
	b := NewPage(page.TypeData, page.Pointer{FileID: 1, PageID: 25})
	b.Add(Rec{Kind: record.KindPrimary, Fixed: fixed, Cols: 6}.Build())
	b.Into(p)
}

// customerRow encodes a customers row. The fixed region is the id, the
// packed bit byte for active, and the datetime.
func customerRow(kind record.Kind, id uint32, active bool, name []byte, notes VarCol, nulls []int) []byte {
	fixed := appendU32(nil, id)
	if active {
		fixed = append(fixed, 1)
	} else {
		fixed = append(fixed, 0)
	}
	fixed = append(fixed, make([]byte, 8)...) // joined
	return Rec{
		Kind: kind, Fixed: fixed, Cols: 5,
		Nulls: nulls,
		Vars:  []VarCol{{Data: name}, notes},
	}.Build()
}

func customersPages(p *Provider) {
	second := page.Pointer{FileID: 1, PageID: 31}

	b := NewPage(page.TypeData, SampleCustomersPage).
		WithNext(second).
		WithMinLen(CustomersMinLen).
		WithObjectID(uint32(CustomersID))
	lobPtr := VarCol{
		Data:    LobPointer(99, page.RecordPointer{Page: SampleLobRootPage, Slot: 0}),
		Complex: true,
	}
	b.Add(customerRow(record.KindPrimary, 1, true, []byte("alice"), lobPtr, nil))
	b.Add(customerRow(record.KindPrimary, 2, false, nil, VarCol{}, []int{1, 2, 4}))
	b.Add(Rec{Kind: record.KindGhostData}.Build())
	b.Add(ForwardingStub(page.RecordPointer{Page: second, Slot: 1}))
	b.Into(p)

	b2 := NewPage(page.TypeData, second).
		WithPrev(SampleCustomersPage).
		WithMinLen(CustomersMinLen).
		WithObjectID(uint32(CustomersID))
	b2.Add(customerRow(record.KindPrimary, 3, false, []byte("carol"), VarCol{}, []int{4}))
	b2.Add(customerRow(record.KindForwarded, 4, true, []byte("dave"), VarCol{}, []int{4}))
	b2.Into(p)
}

func ordersPage(p *Provider) {
	fixed := appendU32(nil, 10)
	fixed = appendU32(fixed, 2)
	b := NewPage(page.TypeData, page.Pointer{FileID: 1, PageID: 34}).
		WithMinLen(OrdersMinLen).
		WithObjectID(uint32(OrdersID))
	b.Add(Rec{
		Kind: record.KindPrimary, Fixed: fixed, Cols: 3,
		Vars: []VarCol{{Data: []byte("x")}},
	}.Build())
	b.Into(p)
}

func archivePage(p *Provider) {
	NewPage(page.TypeData, page.Pointer{FileID: 1, PageID: 33}).
		WithMinLen(CustomersMinLen).
		WithObjectID(uint32(ArchiveID)).
		Into(p)
}

// lobPages builds the three-level tree behind the first customers row:
// a large root referencing an internal node, which references two leaves.
func lobPages(p *Provider) {
	root := NewPage(page.TypeTextTree, SampleLobRootPage)
	root.Add(LobLargeRoot(7, 2, []LobLink{
		{Offset: uint64(len(SampleNotes)), Ptr: page.RecordPointer{Page: SampleLobRootPage, Slot: 1}},
	}).Build())
	root.Add(LobInternal(7, 1, []LobLink{
		{Offset: 6, Ptr: page.RecordPointer{Page: SampleLobDataPage, Slot: 0}},
		{Offset: uint64(len(SampleNotes)), Ptr: page.RecordPointer{Page: SampleLobDataPage, Slot: 1}},
	}).Build())
	root.Into(p)

	leaves := NewPage(page.TypeTextMix, SampleLobDataPage)
	leaves.Add(LobDataNode(7, []byte("hello ")).Build())
	leaves.Add(LobDataNode(7, []byte("world")).Build())
	leaves.Into(p)
}
