package mdf

import (
	"github.com/FocuswithJustin/mdf/core/page"
)

// PageScanner walks every page of every data file in order, parsing each
// header. A page that fails to parse is still yielded, with the failure in
// PageErr, so callers can map damage as well as content.
type PageScanner struct {
	pr      page.Provider
	fileIDs []uint16

	fi     int
	pageID uint32

	ptr     page.Pointer
	pg      *page.Page
	pageErr error
}

// ScanPages returns a scanner over all pages of all data files.
func (db *DB) ScanPages() *PageScanner {
	return &PageScanner{pr: db.pr, fileIDs: db.pr.FileIDs()}
}

// Next advances to the next page. It returns false when every file is
// exhausted.
func (s *PageScanner) Next() bool {
	s.pg, s.pageErr = nil, nil
	for s.fi < len(s.fileIDs) {
		fileID := s.fileIDs[s.fi]
		if s.pageID >= s.pr.NumPages(fileID) {
			s.fi++
			s.pageID = 0
			continue
		}
		s.ptr = page.Pointer{FileID: fileID, PageID: s.pageID}
		s.pageID++
		s.pg, s.pageErr = page.Get(s.pr, s.ptr)
		return true
	}
	return false
}

// Ptr returns the location of the current page.
func (s *PageScanner) Ptr() page.Pointer {
	return s.ptr
}

// Page returns the current page, or nil if it failed to parse.
func (s *PageScanner) Page() *page.Page {
	return s.pg
}

// PageErr returns the parse failure of the current page, if any.
func (s *PageScanner) PageErr() error {
	return s.pageErr
}

// CandidateTables returns every table whose schema implies the given
// fixed-row width. A heuristic scan keyed on that width cannot tell such
// tables apart, so the full set is the honest answer.
func (db *DB) CandidateTables(minLen uint16) []*Table {
	var out []*Table
	for _, t := range db.tables {
		schema, err := t.Schema()
		if err != nil {
			continue
		}
		if schema.MinRecordLength() == int(minLen) {
			out = append(out, t)
		}
	}
	return out
}
