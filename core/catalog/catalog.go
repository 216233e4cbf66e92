package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/core/sqltype"
)

// ErrCatalogCorrupt reports that a system base table could not be read. The
// catalog builder keeps going past a broken table, so a returned error may
// accompany a partially usable catalog.
var ErrCatalogCorrupt = errors.New("system catalog corrupt")

// Catalog holds the decoded system base tables of one database.
type Catalog struct {
	Boot       Boot
	AllocUnits []AllocUnit
	RowSets    []RowSet
	Objects    []Object
	Columns    []ColPar
	Types      []ScalarType
	Refs       []SingleObjRef
}

// Build reconstructs the catalog from the boot page down. The boot page,
// sysallocunits and sysrowsets must decode, since every other table is
// located through them; past that point each base table loads independently
// and failures are joined into the returned error while the rest of the
// catalog stays usable.
func Build(pr page.Provider) (*Catalog, error) {
	boot, err := ReadBoot(pr)
	if err != nil {
		return nil, err
	}
	c := &Catalog{Boot: boot}

	auRows, err := decodeChain(pr, boot.FirstSysIndices, sysAllocUnitsSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: sysallocunits: %v", ErrCatalogCorrupt, err)
	}
	for _, row := range auRows {
		c.AllocUnits = append(c.AllocUnits, allocUnitFromRow(row))
	}

	rsFirst := page.Pointer{}
	for _, au := range c.AllocUnits {
		if au.AuID == SysRowSetsAUID {
			rsFirst = au.PgFirst
			break
		}
	}
	if rsFirst.IsZero() {
		return nil, fmt.Errorf("%w: sysrowsets allocation unit %d not found", ErrCatalogCorrupt, int64(SysRowSetsAUID))
	}
	rsRows, err := decodeChain(pr, rsFirst, sysRowSetsSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: sysrowsets: %v", ErrCatalogCorrupt, err)
	}
	for _, row := range rsRows {
		c.RowSets = append(c.RowSets, rowSetFromRow(row))
	}

	var errs []error
	load := func(name string, id int32, schema *sqltype.Schema, add func(sqltype.Row)) {
		first, err := c.FirstPage(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		rows, err := decodeChain(pr, first, schema)
		for _, row := range rows {
			add(row)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrCatalogCorrupt, name, err))
		}
	}

	load("sysschobjs", SysSchObjsID, sysSchObjsSchema, func(r sqltype.Row) {
		c.Objects = append(c.Objects, objectFromRow(r))
	})
	load("syscolpars", SysColParsID, sysColParsSchema, func(r sqltype.Row) {
		c.Columns = append(c.Columns, colParFromRow(r))
	})
	load("sysscalartypes", SysScalarTypesID, sysScalarTypesSchema, func(r sqltype.Row) {
		c.Types = append(c.Types, scalarTypeFromRow(r))
	})
	load("syssingleobjrefs", SysSingleObjRefsID, sysSingleObjRefsSchema, func(r sqltype.Row) {
		c.Refs = append(c.Refs, singleObjRefFromRow(r))
	})

	return c, errors.Join(errs...)
}

// decodeChain decodes every readable data row on the page chain starting at
// first. Slots that fail to parse or decode are skipped; only a page that
// cannot be fetched at all ends the walk, and the rows already decoded are
// returned alongside the error.
func decodeChain(pr page.Provider, first page.Pointer, schema *sqltype.Schema) ([]sqltype.Row, error) {
	pg, err := page.Get(pr, first)
	if err != nil {
		return nil, err
	}
	var rows []sqltype.Row
	it := record.IterateChain(pr, pg)
	for it.Next() {
		rec := it.Rec()
		if rec == nil || rec.Kind != record.KindPrimary {
			continue
		}
		row, err := schema.DecodeRow(rec)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, it.Err()
}

// TableObjects returns the system and user table objects, sorted by name.
func (c *Catalog) TableObjects() []Object {
	var tables []Object
	for _, obj := range c.Objects {
		if obj.Type.IsTable() {
			tables = append(tables, obj)
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables
}

// ObjectByName finds an object by name, case-insensitively.
func (c *Catalog) ObjectByName(name string) (Object, bool) {
	for _, obj := range c.Objects {
		if strings.EqualFold(obj.Name, name) {
			return obj, true
		}
	}
	return Object{}, false
}

// ObjectByID finds an object by id.
func (c *Catalog) ObjectByID(id int32) (Object, bool) {
	for _, obj := range c.Objects {
		if obj.ID == id {
			return obj, true
		}
	}
	return Object{}, false
}

// RowSetFor returns the base rowset of an object: the one holding its row
// data rather than a secondary index (idminor 0 or 1).
func (c *Catalog) RowSetFor(objID int32) (RowSet, bool) {
	for _, rs := range c.RowSets {
		if rs.IDMajor == objID && rs.IDMinor <= 1 {
			return rs, true
		}
	}
	return RowSet{}, false
}

// AllocUnitFor returns the in-row data allocation unit owned by a rowset.
func (c *Catalog) AllocUnitFor(rowsetID int64) (AllocUnit, bool) {
	for _, au := range c.AllocUnits {
		if au.OwnerID == rowsetID && au.Type == AllocInRowData {
			return au, true
		}
	}
	return AllocUnit{}, false
}

// FirstPage resolves an object id to the first page of its in-row data.
func (c *Catalog) FirstPage(objID int32) (page.Pointer, error) {
	rs, ok := c.RowSetFor(objID)
	if !ok {
		return page.Pointer{}, fmt.Errorf("%w: object %d has no base rowset", ErrCatalogCorrupt, objID)
	}
	au, ok := c.AllocUnitFor(rs.RowSetID)
	if !ok {
		return page.Pointer{}, fmt.Errorf("%w: rowset %d has no in-row allocation unit", ErrCatalogCorrupt, rs.RowSetID)
	}
	return au.PgFirst, nil
}

// ColumnsFor returns the column definitions of an object, sorted by column
// id. Rows with a nonzero number belong to procedure signatures and are
// excluded.
func (c *Catalog) ColumnsFor(objID int32) []ColPar {
	var cols []ColPar
	for _, col := range c.Columns {
		if col.ObjectID == objID && col.Number == 0 {
			cols = append(cols, col)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].ColID < cols[j].ColID })
	return cols
}

// TypeFor resolves a raw column type code to its system scalar type. User
// defined types alias a system type under the same code with an id above
// 255; only the system entry names the physical layout.
func (c *Catalog) TypeFor(xtype int8) (ScalarType, bool) {
	for _, st := range c.Types {
		if st.XType == xtype && st.ID <= 255 {
			return st, true
		}
	}
	return ScalarType{}, false
}

// Schema builds the decode schema of an object from its catalog columns.
// Columns with storage forms the record decoder cannot lay out (sparse,
// filestream, column sets) fail the whole schema, since their presence
// shifts every later column. A merely unknown scalar type does not: it
// decodes as opaque bytes.
func (c *Catalog) Schema(objID int32) (*sqltype.Schema, error) {
	colPars := c.ColumnsFor(objID)
	if len(colPars) == 0 {
		return nil, fmt.Errorf("%w: object %d has no columns", ErrCatalogCorrupt, objID)
	}
	cols := make([]sqltype.Column, 0, len(colPars))
	for _, cp := range colPars {
		if cp.UnsupportedStorage() {
			return nil, fmt.Errorf("%w: column %q uses sparse, filestream or column set storage", sqltype.ErrUnsupportedType, cp.Name)
		}
		var t sqltype.Type
		if st, ok := c.TypeFor(cp.XType); ok {
			t, _ = sqltype.FromName(st.Name, int(cp.Length))
		} else {
			t = sqltype.Type{Kind: sqltype.KindUnknown, Length: int(cp.Length)}
		}
		cols = append(cols, sqltype.Column{
			Name:     cp.Name,
			Ordinal:  int(cp.ColID),
			Type:     t,
			Nullable: cp.Nullable(),
			Computed: cp.Computed(),
		})
	}
	return sqltype.NewSchema(cols), nil
}
