// Command mdf-pagemap maps the pages of a database file: what type each
// page is, which object claims it, and where row data with a given fixed
// width hides. It is the first tool to reach for when a file will not open.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/mdf/core/mdf"
	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/internal/logging"
	"github.com/FocuswithJustin/mdf/internal/pageio"
)

// CLI defines the command-line interface for mdf-pagemap.
var CLI struct {
	Verbose bool `name:"verbose" short:"v" help:"Print every page instead of the summary"`
	MinLen  int  `name:"min-len" help:"Only show data pages with this fixed-row width, and name the tables it could belong to" default:"-1"`

	Files []string `arg:"" name:"files" help:"Database files, primary file first (.xz accepted)" type:"existingfile"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mdf-pagemap"),
		kong.Description("Map the pages of an MDF database"),
		kong.UsageOnError(),
	)
	if CLI.Verbose {
		logging.InitLogger(logging.LevelInfo, logging.FormatText)
	}
	ctx.FatalIfErrorf(run())
}

func run() error {
	set, err := pageio.Open(CLI.Files...)
	if err != nil {
		return err
	}
	defer set.Close()

	db, err := mdf.Open(set)
	if err != nil {
		return err
	}
	if cerr := db.CatalogErr(); cerr != nil {
		fmt.Fprintf(os.Stderr, "warning: catalog partially unreadable: %v\n", cerr)
	}
	fmt.Printf("database %q\n", db.Name())

	objNames := make(map[int32]string)
	for _, t := range db.Tables() {
		objNames[t.Object().ID] = t.Name()
	}

	byType := make(map[page.Type]int)
	var matched, broken int
	var freeTotal uint64

	scan := db.ScanPages()
	for scan.Next() {
		if err := scan.PageErr(); err != nil {
			broken++
			if CLI.Verbose {
				fmt.Printf("%-12v  unreadable: %v\n", scan.Ptr(), err)
			}
			continue
		}
		pg := scan.Page()
		byType[pg.Header.Type]++
		freeTotal += uint64(pg.Header.FreeCount)

		if CLI.MinLen >= 0 {
			if pg.Header.Type != page.TypeData || int(pg.Header.MinLen) != CLI.MinLen {
				continue
			}
			matched++
		}
		if CLI.Verbose || CLI.MinLen >= 0 {
			name := objNames[int32(pg.Header.ObjectID)]
			if name == "" {
				name = fmt.Sprintf("object %d", pg.Header.ObjectID)
			}
			fmt.Printf("%-12v  %-16v  %-24s  slots=%-4d min_len=%-4d free=%d\n",
				scan.Ptr(), pg.Header.Type, name, pg.Header.SlotCount, pg.Header.MinLen, pg.Header.FreeCount)
		}
	}

	if CLI.MinLen >= 0 {
		cands := db.CandidateTables(uint16(CLI.MinLen))
		fmt.Printf("\n%d data pages with fixed-row width %d\n", matched, CLI.MinLen)
		if len(cands) == 0 {
			fmt.Println("no table in the catalog implies that width")
		} else {
			fmt.Println("candidate tables:")
			for _, t := range cands {
				fmt.Printf("  %s\n", t.Name())
			}
		}
		logging.RecoveryScan(totalPages(set), matched, len(cands))
		return nil
	}

	types := make([]page.Type, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	fmt.Println()
	for _, t := range types {
		fmt.Printf("%-16v %6d\n", t, byType[t])
	}
	if broken > 0 {
		fmt.Printf("%-16s %6d\n", "unreadable", broken)
	}
	fmt.Printf("\n%s free across all pages\n", humanize.IBytes(freeTotal))
	return nil
}

func totalPages(set *pageio.Set) uint32 {
	var n uint32
	for _, id := range set.FileIDs() {
		n += set.NumPages(id)
	}
	return n
}
