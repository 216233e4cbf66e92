// Command mdf-export copies the tables of an MDF database into a SQLite
// database, the simplest widely readable container for salvaged data.
// Rows that fail to decode are counted and skipped, so a damaged source
// still yields everything that was readable.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/mdf/core/lob"
	"github.com/FocuswithJustin/mdf/core/mdf"
	"github.com/FocuswithJustin/mdf/core/sqlite"
	"github.com/FocuswithJustin/mdf/core/sqltype"
	"github.com/FocuswithJustin/mdf/internal/logging"
	"github.com/FocuswithJustin/mdf/internal/pageio"
)

// CLI defines the command-line interface for mdf-export.
var CLI struct {
	Tables   []string `name:"tables" short:"t" help:"Only export these tables (default: all user tables)"`
	System   bool     `name:"system" help:"Include system tables"`
	Scan     bool     `name:"scan" help:"Recover rows by scanning all pages instead of following page chains"`
	Truncate bool     `name:"truncate" help:"Keep readable prefixes of large values with broken page chains"`
	Verbose  bool     `name:"verbose" short:"v" help:"Verbose logging"`

	Output string   `arg:"" help:"SQLite database to create"`
	Files  []string `arg:"" name:"files" help:"Database files, primary file first (.xz accepted)" type:"existingfile"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mdf-export"),
		kong.Description("Export MDF tables to a SQLite database"),
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

	tables, err := selectTables(db)
	if err != nil {
		return err
	}

	out, err := sqlite.Open(CLI.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	lobOpts := lob.Options{}
	if CLI.Truncate {
		lobOpts.OnError = lob.Truncate
	}

	for _, t := range tables {
		if err := exportTable(out, t, lobOpts); err != nil {
			fmt.Fprintf(os.Stderr, "warning: table %q: %v\n", t.Name(), err)
		}
	}
	return nil
}

func selectTables(db *mdf.DB) ([]*mdf.Table, error) {
	if len(CLI.Tables) > 0 {
		var out []*mdf.Table
		for _, name := range CLI.Tables {
			t, err := db.Table(name)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	}
	var out []*mdf.Table
	for _, t := range db.Tables() {
		if !CLI.System && strings.HasPrefix(t.Name(), "sys") {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func exportTable(out *sql.DB, t *mdf.Table, lobOpts lob.Options) error {
	schema, err := t.Schema()
	if err != nil {
		return err
	}

	var defs, marks []string
	for _, col := range schema.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quote(col.Name), sqliteType(col.Type)))
		marks = append(marks, "?")
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quote(t.Name()), strings.Join(defs, ", "))
	if _, err := out.Exec(ddl); err != nil {
		return err
	}

	tx, err := out.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	ins, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(t.Name()), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer ins.Close()

	var rows *mdf.Rows
	if CLI.Scan {
		rows, err = t.ScanRows()
	} else {
		rows, err = t.Rows()
	}
	if err != nil {
		return err
	}

	var exported, failed int
	for rows.Next() {
		if rerr := rows.RowErr(); rerr != nil {
			logging.TableError(t.Name(), "row", rerr)
			failed++
			continue
		}
		args := make([]any, len(rows.Row().Values))
		for i, val := range rows.Row().Values {
			v, err := sqliteValue(t, val, lobOpts)
			if err != nil {
				logging.TableError(t.Name(), "lob", err)
				v = nil
			}
			args[i] = v
		}
		if _, err := ins.Exec(args...); err != nil {
			return err
		}
		exported++
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: table %q ended early: %v\n", t.Name(), err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	fmt.Printf("%-32s %8d rows", t.Name(), exported)
	if failed > 0 {
		fmt.Printf("  (%d unreadable)", failed)
	}
	fmt.Println()
	return nil
}

// sqliteValue maps a decoded value onto SQLite's storage classes. Off-row
// values are materialized in full.
func sqliteValue(t *mdf.Table, val sqltype.Value, lobOpts lob.Options) (any, error) {
	if val.Null {
		return nil, nil
	}
	if val.Lob != nil {
		data, err := t.ReadLob(val.Lob, lobOpts)
		if err != nil && data == nil {
			return nil, err
		}
		if val.Type.Kind == sqltype.KindText || val.Type.Kind == sqltype.KindNText {
			return lobText(val.Type.Kind, data), nil
		}
		return data, nil
	}
	if val.Variant != nil {
		return sqliteValue(t, *val.Variant, lobOpts)
	}
	switch val.Type.Kind {
	case sqltype.KindTinyInt, sqltype.KindSmallInt, sqltype.KindInt, sqltype.KindBigInt:
		return val.Int, nil
	case sqltype.KindBit:
		if val.Bool {
			return int64(1), nil
		}
		return int64(0), nil
	case sqltype.KindFloat, sqltype.KindReal:
		return val.Float, nil
	case sqltype.KindDateTime, sqltype.KindSmallDateTime:
		return val.Time.Format(time.RFC3339Nano), nil
	case sqltype.KindUniqueIdentifier:
		return val.UUID.String(), nil
	case sqltype.KindChar, sqltype.KindNChar, sqltype.KindVarChar, sqltype.KindNVarChar,
		sqltype.KindSysName, sqltype.KindText, sqltype.KindNText:
		if val.Str != "" || val.Bytes == nil {
			return val.Str, nil
		}
		return lobText(val.Type.Kind, val.Bytes), nil
	}
	return val.Bytes, nil
}

// lobText decodes reassembled text bytes per the column's character width.
func lobText(kind sqltype.Kind, data []byte) string {
	if kind == sqltype.KindNText {
		return sqltype.UTF16String(data)
	}
	return string(data)
}

func sqliteType(t sqltype.Type) string {
	switch t.Kind {
	case sqltype.KindTinyInt, sqltype.KindSmallInt, sqltype.KindInt, sqltype.KindBigInt, sqltype.KindBit:
		return "INTEGER"
	case sqltype.KindFloat, sqltype.KindReal:
		return "REAL"
	case sqltype.KindBinary, sqltype.KindVarBinary, sqltype.KindImage, sqltype.KindUnknown, sqltype.KindVariant:
		return "BLOB"
	}
	return "TEXT"
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
