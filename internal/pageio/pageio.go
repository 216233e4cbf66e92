// Package pageio maps database files into page providers. A database is one
// or more data files; the file named first is file 1, which holds the boot
// page, and secondary files take the following ids in order.
//
// Plain files are memory-mapped. Files ending in .xz are decompressed into
// memory on open, which keeps compressed fixture databases directly usable.
package pageio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/internal/logging"
)

// backend is one opened data file.
type backend struct {
	path  string
	data  []byte
	m     mmap.MMap // nil when data is heap-backed
	pages uint32
}

// Set is a page provider over one or more opened data files.
type Set struct {
	files map[uint16]*backend
	order []uint16
}

var _ page.Provider = (*Set)(nil)

// Open opens the given data files and assigns file ids 1..n in argument
// order. On any failure the files already opened are closed again.
func Open(paths ...string) (*Set, error) {
	if len(paths) == 0 {
		return nil, errors.New("no data files given")
	}
	s := &Set{files: make(map[uint16]*backend)}
	for i, path := range paths {
		fileID := uint16(i + 1)
		b, err := openFile(path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		s.files[fileID] = b
		s.order = append(s.order, fileID)
		logging.FileOpened(path, fileID, b.pages)
	}
	return s, nil
}

func openFile(path string) (*backend, error) {
	if strings.HasSuffix(path, ".xz") {
		return openCompressed(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// Some filesystems refuse mappings; fall back to reading the file in.
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("mmap failed (%v) and read failed: %w", err, rerr)
		}
		return newBackend(path, data, nil)
	}
	return newBackend(path, m, m)
}

func openCompressed(path string) (*backend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	return newBackend(path, data, nil)
}

func newBackend(path string, data []byte, m mmap.MMap) (*backend, error) {
	if len(data) == 0 || len(data)%page.Size != 0 {
		if m != nil {
			m.Unmap()
		}
		return nil, fmt.Errorf("size %d is not a multiple of the %d byte page size", len(data), page.Size)
	}
	return &backend{path: path, data: data, m: m, pages: uint32(len(data) / page.Size)}, nil
}

// ReadPage returns the raw bytes of one page. The slice aliases the mapped
// file and must not be modified.
func (s *Set) ReadPage(ptr page.Pointer) ([]byte, error) {
	b, ok := s.files[ptr.FileID]
	if !ok {
		return nil, fmt.Errorf("no data file with id %d", ptr.FileID)
	}
	if ptr.PageID >= b.pages {
		return nil, fmt.Errorf("page %v beyond end of %s (%d pages)", ptr, b.path, b.pages)
	}
	off := int(ptr.PageID) * page.Size
	return b.data[off : off+page.Size], nil
}

// FileIDs returns the ids of the opened data files, in open order.
func (s *Set) FileIDs() []uint16 {
	ids := make([]uint16, len(s.order))
	copy(ids, s.order)
	return ids
}

// NumPages returns the page count of one data file, or 0 for an unknown id.
func (s *Set) NumPages(fileID uint16) uint32 {
	b, ok := s.files[fileID]
	if !ok {
		return 0
	}
	return b.pages
}

// Close unmaps every mapped file. The Set must not be used afterwards.
func (s *Set) Close() error {
	var errs []error
	for _, id := range s.order {
		b := s.files[id]
		if b.m != nil {
			if err := b.m.Unmap(); err != nil {
				errs = append(errs, fmt.Errorf("unmapping %s: %w", b.path, err))
			}
			b.m = nil
		}
		b.data = nil
	}
	return errors.Join(errs...)
}
