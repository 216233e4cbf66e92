// Command mdf-lobdump extracts off-row large values: either the text, ntext
// or image column of one table, or — when no table is named — every LOB root
// found by sweeping the text pages directly. The second mode needs no
// catalog, so it works on files too damaged to open normally.
// Each value is reassembled from its page tree and either hashed for
// inventory or written out to files named by content hash.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/mdf/core/lob"
	"github.com/FocuswithJustin/mdf/core/mdf"
	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/core/record"
	"github.com/FocuswithJustin/mdf/core/sqltype"
	"github.com/FocuswithJustin/mdf/internal/logging"
	"github.com/FocuswithJustin/mdf/internal/pageio"
)

// CLI defines the command-line interface for mdf-lobdump.
var CLI struct {
	Table    string `name:"table" short:"t" help:"Extract one table's large-object column (default: sweep text pages for every root)"`
	Column   string `name:"column" short:"c" help:"Column to extract, required with --table"`
	Out      string `name:"out" short:"o" help:"Write each value to a file in this directory instead of only hashing" type:"path"`
	Truncate bool   `name:"truncate" help:"Keep the readable prefix of values with broken page chains instead of skipping them"`
	Verbose  bool   `name:"verbose" short:"v" help:"Verbose logging"`

	Files []string `arg:"" name:"files" help:"Database files, primary file first (.xz accepted)" type:"existingfile"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mdf-lobdump"),
		kong.Description("Extract off-row large values from an MDF database"),
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

	opts := lob.Options{}
	if CLI.Truncate {
		opts.OnError = lob.Truncate
	}
	if CLI.Out != "" {
		if err := os.MkdirAll(CLI.Out, 0o755); err != nil {
			return err
		}
	}

	if CLI.Table == "" {
		return sweepRoots(set, opts)
	}
	if CLI.Column == "" {
		return errors.New("--table needs --column")
	}
	return dumpColumn(set, opts)
}

// dumpColumn extracts one LOB column through the catalog.
func dumpColumn(set *pageio.Set, opts lob.Options) error {
	db, err := mdf.Open(set)
	if err != nil {
		return err
	}
	table, err := db.Table(CLI.Table)
	if err != nil {
		return err
	}
	schema, err := table.Schema()
	if err != nil {
		return err
	}
	colIdx := -1
	for i, col := range schema.Columns {
		if col.Name == CLI.Column {
			if !col.Type.IsLob() {
				return fmt.Errorf("column %q is %v, not a large-object type", col.Name, col.Type)
			}
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return fmt.Errorf("table %q has no column %q", CLI.Table, CLI.Column)
	}

	rows, err := table.Rows()
	if err != nil {
		return err
	}
	var n, failed int
	var total uint64
	for rows.Next() {
		if rerr := rows.RowErr(); rerr != nil {
			logging.TableError(CLI.Table, "row", rerr)
			failed++
			continue
		}
		val := rows.Row().Values[colIdx]
		data, ok, err := materialize(table, val, opts)
		if err != nil {
			logging.TableError(CLI.Table, "lob", err)
			failed++
			continue
		}
		if !ok {
			continue
		}
		if err := emit(data, fmt.Sprintf("row %d", n)); err != nil {
			return err
		}
		n++
		total += uint64(len(data))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d values, %s total, %d unreadable\n", n, humanize.IBytes(total), failed)
	return nil
}

// sweepRoots reassembles every LOB root found on the text pages. No catalog
// needed: roots announce themselves by node kind.
func sweepRoots(set *pageio.Set, opts lob.Options) error {
	var n, failed int
	var total uint64
	for _, fileID := range set.FileIDs() {
		for pageID := uint32(0); pageID < set.NumPages(fileID); pageID++ {
			ptr := page.Pointer{FileID: fileID, PageID: pageID}
			pg, err := page.Get(set, ptr)
			if err != nil || !pg.Header.Type.IsText() {
				continue
			}
			it := record.Iterate(pg)
			for it.Next() {
				if it.SlotErr() != nil {
					continue
				}
				rec := it.Rec()
				if rec.Kind != record.KindBlob {
					continue
				}
				node, err := lob.ParseNode(rec)
				if err != nil {
					continue
				}
				if node.Kind != lob.NodeSmallRoot && node.Kind != lob.NodeLargeRoot {
					continue
				}
				root := it.Ptr()
				data, err := lob.ReadAll(set, lob.Pointer{Root: root}, opts)
				if err != nil && data == nil {
					logging.Warn("unreadable lob root", "root", root.String(), "error", err.Error())
					failed++
					continue
				}
				if err := emit(data, fmt.Sprintf("blob %d root %v", node.BlobID, root)); err != nil {
					return err
				}
				n++
				total += uint64(len(data))
			}
		}
	}

	fmt.Fprintf(os.Stderr, "%d values, %s total, %d unreadable\n", n, humanize.IBytes(total), failed)
	return nil
}

// emit prints one reassembled value's hash and size, and writes it out when
// an output directory was given.
func emit(data []byte, label string) error {
	sum := blake3.Sum256(data)
	name := hex.EncodeToString(sum[:])
	fmt.Printf("%s  %10s  %s\n", name, humanize.IBytes(uint64(len(data))), label)
	if CLI.Out != "" {
		return os.WriteFile(filepath.Join(CLI.Out, name), data, 0o644)
	}
	return nil
}

// materialize turns a column value into its full bytes. Inline values pass
// through; pointer values are reassembled from their page tree.
func materialize(t *mdf.Table, val sqltype.Value, opts lob.Options) ([]byte, bool, error) {
	switch {
	case val.Null:
		return nil, false, nil
	case val.Lob != nil:
		data, err := t.ReadLob(val.Lob, opts)
		if err != nil {
			// Under the truncate policy a prefix comes back with a warning.
			if data == nil {
				return nil, false, err
			}
			logging.Warn("lob truncated", "error", err.Error())
		}
		return data, true, nil
	case len(val.Bytes) > 0:
		return val.Bytes, true, nil
	case val.Str != "":
		return []byte(val.Str), true, nil
	}
	return nil, false, nil
}
