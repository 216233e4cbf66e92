package mdf

import (
	"fmt"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/core/sqltype"
	"github.com/FocuswithJustin/mdf/internal/logging"
)

// maxForwardHops bounds how many forwarding stubs a single row lookup will
// chase before declaring a loop.
const maxForwardHops = 16

// pageSource yields the pages a row iteration draws from. It returns
// (nil, nil) when exhausted.
type pageSource interface {
	next() (*page.Page, error)
}

// getPage fetches and parses a page, serving repeats from the cache.
func (db *DB) getPage(ptr page.Pointer) (*page.Page, error) {
	return db.pages.Get(db.pr, ptr)
}

// getRecord fetches one record through the page cache.
func (db *DB) getRecord(ptr page.RecordPointer) (*record.Record, error) {
	pg, err := db.getPage(ptr.Page)
	if err != nil {
		return nil, err
	}
	data, err := pg.RecordData(int(ptr.Slot))
	if err != nil {
		return nil, err
	}
	rec, err := record.Parse(data, pg.Header.Type == page.TypeIndex, pg.Header.MinLen)
	if err != nil {
		return nil, fmt.Errorf("record %v: %w", ptr, err)
	}
	return rec, nil
}

// chainSource follows NextPage links from a starting page.
type chainSource struct {
	db      *DB
	nextPtr page.Pointer
}

func (s *chainSource) next() (*page.Page, error) {
	if s.nextPtr.IsZero() {
		return nil, nil
	}
	pg, err := s.db.getPage(s.nextPtr)
	if err != nil {
		return nil, fmt.Errorf("following page chain: %w", err)
	}
	s.nextPtr = pg.Header.NextPage
	return pg, nil
}

// scanSource walks every page of the given files and yields the data pages
// whose fixed-row width hint matches. Pages that fail to parse are skipped;
// a heuristic scan has nothing better to do with them.
type scanSource struct {
	pr      page.Provider
	minLen  uint16
	fileIDs []uint16

	fi     int
	pageID uint32
}

func (s *scanSource) next() (*page.Page, error) {
	for s.fi < len(s.fileIDs) {
		fileID := s.fileIDs[s.fi]
		if s.pageID >= s.pr.NumPages(fileID) {
			s.fi++
			s.pageID = 0
			continue
		}
		ptr := page.Pointer{FileID: fileID, PageID: s.pageID}
		s.pageID++
		pg, err := page.Get(s.pr, ptr)
		if err != nil {
			logging.Debug("scan skipping unparseable page", "page", ptr.String(), "error", err.Error())
			continue
		}
		if pg.Header.Type != page.TypeData || pg.Header.MinLen != s.minLen {
			continue
		}
		return pg, nil
	}
	return nil, nil
}

// Rows iterates decoded rows. Like the record iterator underneath it, a row
// that fails to decode does not end the iteration: Next returns true with
// the failure in RowErr and a zero Row. Err reports the terminal error that
// stopped the iteration early, if any.
type Rows struct {
	t      *Table
	schema *sqltype.Schema
	src    pageSource

	it     *record.Iterator
	row    sqltype.Row
	rowErr error
	err    error
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	r.row, r.rowErr = sqltype.Row{}, nil
	for {
		if r.err != nil {
			return false
		}
		if r.it == nil {
			pg, err := r.src.next()
			if err != nil {
				r.err = err
				return false
			}
			if pg == nil {
				return false
			}
			r.it = record.Iterate(pg)
		}
		if !r.it.Next() {
			if err := r.it.Err(); err != nil {
				r.err = err
				return false
			}
			r.it = nil
			continue
		}
		if serr := r.it.SlotErr(); serr != nil {
			r.rowErr = serr
			return true
		}

		rec := r.it.Rec()
		switch {
		case rec.Kind.IsGhost():
			continue
		case rec.Kind == record.KindForwarded:
			// Reached again through its forwarding stub; counting it here
			// would duplicate the row.
			continue
		case rec.Kind == record.KindForwarding:
			fwd, err := resolveForward(r.t.db, rec)
			if err != nil {
				r.rowErr = err
				return true
			}
			rec = fwd
		}
		if !rec.Kind.HasColumns() {
			continue
		}

		row, err := r.schema.DecodeRow(rec)
		if err != nil {
			r.rowErr = err
			return true
		}
		r.row = row
		return true
	}
}

// Row returns the current row. It is the zero Row when RowErr is set.
func (r *Rows) Row() sqltype.Row {
	return r.row
}

// RowErr returns the decode failure of the current row, if any.
func (r *Rows) RowErr() error {
	return r.rowErr
}

// Err returns the terminal error that stopped the iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// resolveForward chases a forwarding stub to the record it redirects to.
func resolveForward(db *DB, rec *record.Record) (*record.Record, error) {
	hops := 0
	for rec.Kind == record.KindForwarding {
		if hops >= maxForwardHops {
			return nil, fmt.Errorf("%w: gave up after %d hops", ErrForwardLoopDetected, maxForwardHops)
		}
		hops++
		next, err := db.getRecord(rec.Forward)
		if err != nil {
			return nil, fmt.Errorf("following forwarding stub: %w", err)
		}
		rec = next
	}
	return rec, nil
}
