package record

import (
	"fmt"

	"github.com/FocuswithJustin/mdf/core/page"
)

// Iterator walks the records of a page, and optionally onward along the
// page's NextPage chain. It is lazy: pages are fetched one at a time, only
// when the previous page's slots are exhausted.
//
// A bad slot does not end the iteration: Next still returns true and the
// per-slot failure is available from SlotErr while Rec returns nil. Err
// reports a terminal failure (a chain page that could not be fetched).
type Iterator struct {
	provider page.Provider // nil disables chain following
	pg       *page.Page
	slot     int

	rec     *Record
	ptr     page.RecordPointer
	slotErr error
	err     error
}

// Iterate returns an iterator over the records of a single page.
func Iterate(pg *page.Page) *Iterator {
	return &Iterator{pg: pg}
}

// IterateChain returns an iterator that follows NextPage links through the
// given provider once the current page is exhausted.
func IterateChain(pr page.Provider, pg *page.Page) *Iterator {
	return &Iterator{provider: pr, pg: pg}
}

// Next advances to the next record. It returns false when the iteration is
// finished or a chain page could not be fetched (see Err).
func (it *Iterator) Next() bool {
	it.rec, it.slotErr = nil, nil
	for {
		if it.pg == nil || it.err != nil {
			return false
		}
		if it.slot >= int(it.pg.Header.SlotCount) {
			next := it.pg.Header.NextPage
			if it.provider == nil || next.IsZero() {
				it.pg = nil
				return false
			}
			pg, err := page.Get(it.provider, next)
			if err != nil {
				it.err = fmt.Errorf("following page chain: %w", err)
				it.pg = nil
				return false
			}
			it.pg = pg
			it.slot = 0
			continue
		}

		slot := it.slot
		it.slot++
		it.ptr = page.RecordPointer{Page: it.pg.Header.Ptr, Slot: uint16(slot)}
		data, err := it.pg.RecordData(slot)
		if err != nil {
			it.slotErr = err
			return true
		}
		rec, err := Parse(data, it.pg.Header.Type == page.TypeIndex, it.pg.Header.MinLen)
		if err != nil {
			it.slotErr = fmt.Errorf("slot %d: %w", slot, err)
			return true
		}
		it.rec = rec
		return true
	}
}

// Rec returns the current record, or nil if the current slot failed to
// decode (see SlotErr).
func (it *Iterator) Rec() *Record {
	return it.rec
}

// Ptr returns the location of the current record.
func (it *Iterator) Ptr() page.RecordPointer {
	return it.ptr
}

// SlotErr returns the decode failure of the current slot, if any.
func (it *Iterator) SlotErr() error {
	return it.slotErr
}

// Err returns the terminal error that stopped the iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Get fetches the page a record pointer references and decodes that single
// record.
func Get(pr page.Provider, ptr page.RecordPointer) (*Record, error) {
	pg, err := page.Get(pr, ptr.Page)
	if err != nil {
		return nil, err
	}
	data, err := pg.RecordData(int(ptr.Slot))
	if err != nil {
		return nil, err
	}
	rec, err := Parse(data, pg.Header.Type == page.TypeIndex, pg.Header.MinLen)
	if err != nil {
		return nil, fmt.Errorf("record %v: %w", ptr, err)
	}
	return rec, nil
}
