package page

import "fmt"

// Provider is the page-supplying capability the decoding stack is built on: a
// way to get the raw bytes of any page, in arbitrary order, repeatedly. The
// file enumeration hooks exist for full-file scans (recovery, LOB sweeps).
//
// Implementations own whatever caching or windowing they do; the decoding
// core performs no read-ahead beyond the page it is asked about, so callers
// keep precise control over memory bounds. Thread safety of the returned
// buffers is the implementation's concern; the core never mutates them.
type Provider interface {
	// ReadPage returns the raw Size-byte block for the given page, or an
	// error if the page is unavailable or unreadable.
	ReadPage(ptr Pointer) ([]byte, error)

	// FileIDs lists the data file ids backing this database.
	FileIDs() []uint16

	// NumPages returns the page count of the given data file.
	NumPages(fileID uint16) uint32
}

// Get reads and parses one page.
func Get(pr Provider, ptr Pointer) (*Page, error) {
	data, err := pr.ReadPage(ptr)
	if err != nil {
		return nil, fmt.Errorf("page %v: %w", ptr, err)
	}
	pg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("page %v: %w", ptr, err)
	}
	return pg, nil
}
