package mdf

import (
	"fmt"

	"github.com/FocuswithJustin/mdf/core/catalog"
	"github.com/FocuswithJustin/mdf/core/lob"
	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/sqltype"
)

// Table is one table of an opened database. Its schema is built from the
// catalog on first use and cached.
type Table struct {
	db  *DB
	obj catalog.Object

	schema    *sqltype.Schema
	schemaErr error
	schemaSet bool
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.obj.Name
}

// Object returns the table's catalog object.
func (t *Table) Object() catalog.Object {
	return t.obj
}

// Schema returns the table's decode schema.
func (t *Table) Schema() (*sqltype.Schema, error) {
	if !t.schemaSet {
		t.schema, t.schemaErr = t.db.cat.Schema(t.obj.ID)
		t.schemaSet = true
	}
	return t.schema, t.schemaErr
}

// FirstPage resolves the first page of the table's in-row data.
func (t *Table) FirstPage() (page.Pointer, error) {
	return t.db.cat.FirstPage(t.obj.ID)
}

// Rows iterates the table's rows along its page chain.
func (t *Table) Rows() (*Rows, error) {
	schema, err := t.Schema()
	if err != nil {
		return nil, err
	}
	first, err := t.FirstPage()
	if err != nil {
		return nil, err
	}
	if first.IsZero() {
		return nil, fmt.Errorf("table %q has no data pages", t.obj.Name)
	}
	return &Rows{
		t:      t,
		schema: schema,
		src:    &chainSource{db: t.db, nextPtr: first},
	}, nil
}

// ScanRows iterates rows found by scanning every page of every data file for
// data pages whose fixed-row width matches this table's schema. It finds
// rows the page chain no longer reaches, at the price of false positives
// when another table shares the same width; CandidateTables reports that
// ambiguity.
func (t *Table) ScanRows() (*Rows, error) {
	return t.scanRows(t.db.pr.FileIDs())
}

// ScanRowsFrom is ScanRows restricted to a single data file.
func (t *Table) ScanRowsFrom(fileID uint16) (*Rows, error) {
	return t.scanRows([]uint16{fileID})
}

func (t *Table) scanRows(fileIDs []uint16) (*Rows, error) {
	schema, err := t.Schema()
	if err != nil {
		return nil, err
	}
	return &Rows{
		t:      t,
		schema: schema,
		src: &scanSource{
			pr:      t.db.pr,
			minLen:  uint16(schema.MinRecordLength()),
			fileIDs: fileIDs,
		},
	}, nil
}

// ReadLob reassembles an off-row value a row decode returned a pointer for.
func (t *Table) ReadLob(ptr *lob.Pointer, opts lob.Options) ([]byte, error) {
	return lob.ReadAll(t.db.pr, *ptr, opts)
}

// OpenLob returns a lazy chunk stream over an off-row value.
func (t *Table) OpenLob(ptr *lob.Pointer, opts lob.Options) *lob.Stream {
	return lob.Open(t.db.pr, *ptr, opts)
}
