package mdf

import (
	"errors"
	"fmt"

	"github.com/FocuswithJustin/mdf/core/cache"
	"github.com/FocuswithJustin/mdf/core/catalog"
	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/internal/logging"
)

// ErrForwardLoopDetected reports a forwarding stub chain that never reached a
// real record within the hop bound. A cyclic chain in a damaged file would
// otherwise spin forever.
var ErrForwardLoopDetected = errors.New("forwarding pointer loop detected")

// ErrNoSuchTable reports a table name the catalog does not know.
var ErrNoSuchTable = errors.New("no such table")

// DB is an opened database.
type DB struct {
	pr     page.Provider
	cat    *catalog.Catalog
	catErr error
	tables []*Table
	pages  *cache.PageCache
}

// Open reads the system catalog through the provider and returns the
// database. A damaged catalog does not fail the open as long as its core
// tables decoded; CatalogErr reports what was lost.
func Open(pr page.Provider) (*DB, error) {
	cat, err := catalog.Build(pr)
	if cat == nil {
		return nil, err
	}
	db := &DB{pr: pr, cat: cat, catErr: err, pages: cache.NewDefaultPageCache()}
	for _, obj := range cat.TableObjects() {
		db.tables = append(db.tables, &Table{db: db, obj: obj})
	}
	logging.CatalogLoaded(cat.Boot.Name, len(db.tables), err)
	return db, nil
}

// Name returns the database name from the boot page.
func (db *DB) Name() string {
	return db.cat.Boot.Name
}

// Catalog returns the decoded system catalog.
func (db *DB) Catalog() *catalog.Catalog {
	return db.cat
}

// CatalogErr returns the joined per-table failures of the catalog bootstrap,
// or nil if everything decoded.
func (db *DB) CatalogErr() error {
	return db.catErr
}

// Provider returns the page provider the database reads from.
func (db *DB) Provider() page.Provider {
	return db.pr
}

// Tables returns every system and user table, sorted by name.
func (db *DB) Tables() []*Table {
	return db.tables
}

// Table finds a table by name, case-insensitively.
func (db *DB) Table(name string) (*Table, error) {
	obj, ok := db.cat.ObjectByName(name)
	if !ok || !obj.Type.IsTable() {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchTable, name)
	}
	for _, t := range db.tables {
		if t.obj.ID == obj.ID {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchTable, name)
}
