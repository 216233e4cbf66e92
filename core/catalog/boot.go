package catalog

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/core/sqltype"
)

// BootPointer is the fixed location of the boot page in every MDF database.
var BootPointer = page.Pointer{FileID: 1, PageID: 9}

// Boot holds the decoded boot page: database identity plus the pointer that
// roots the system catalog.
type Boot struct {
	Version         uint16
	CreateVersion   uint16
	Status          uint32
	NextID          uint32
	Name            string
	DBID            uint16
	MaxTimestamp    uint64
	FirstSysIndices page.Pointer
}

// Boot record field offsets within the boot record's fixed data.
const (
	bootOffVersion         = 0
	bootOffCreateVersion   = 2
	bootOffStatus          = 32
	bootOffNextID          = 36
	bootOffName            = 48 // UTF-16, 256 bytes
	bootOffDBID            = 308
	bootOffMaxTimestamp    = 312
	bootOffFirstSysIndices = 512
	bootMinLen             = 518
)

// ReadBoot fetches and decodes the boot page.
func ReadBoot(pr page.Provider) (Boot, error) {
	pg, err := page.Get(pr, BootPointer)
	if err != nil {
		return Boot{}, fmt.Errorf("%w: boot page: %v", ErrCatalogCorrupt, err)
	}
	if pg.Header.Type != page.TypeBoot {
		return Boot{}, fmt.Errorf("%w: page %v is a %v page, not the boot page", ErrCatalogCorrupt, BootPointer, pg.Header.Type)
	}
	data, err := pg.RecordData(0)
	if err != nil {
		return Boot{}, fmt.Errorf("%w: boot record: %v", ErrCatalogCorrupt, err)
	}
	rec, err := record.Parse(data, false, pg.Header.MinLen)
	if err != nil {
		return Boot{}, fmt.Errorf("%w: boot record: %v", ErrCatalogCorrupt, err)
	}
	fd := rec.FixedData
	if len(fd) < bootMinLen {
		return Boot{}, fmt.Errorf("%w: boot record fixed data of %d bytes, want %d", ErrCatalogCorrupt, len(fd), bootMinLen)
	}

	name := sqltype.UTF16String(fd[bootOffName : bootOffName+256])
	name = strings.TrimRight(name, "\x00 ")

	return Boot{
		Version:         binary.LittleEndian.Uint16(fd[bootOffVersion:]),
		CreateVersion:   binary.LittleEndian.Uint16(fd[bootOffCreateVersion:]),
		Status:          binary.LittleEndian.Uint32(fd[bootOffStatus:]),
		NextID:          binary.LittleEndian.Uint32(fd[bootOffNextID:]),
		Name:            name,
		DBID:            binary.LittleEndian.Uint16(fd[bootOffDBID:]),
		MaxTimestamp:    binary.LittleEndian.Uint64(fd[bootOffMaxTimestamp:]),
		FirstSysIndices: page.ParsePointer(fd[bootOffFirstSysIndices:]),
	}, nil
}
