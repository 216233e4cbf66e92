package sqltype

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/mdf/core/record"
)

// Column is one column definition: produced once per table by the catalog
// builder and shared read-only by every row decode afterwards.
type Column struct {
	Name     string
	Ordinal  int // column id from the catalog; defines decode order
	Type     Type
	Nullable bool
	Computed bool
}

// Schema is an ordered column definition list. Order is significant: it is
// the physical decode order of the record.
type Schema struct {
	Columns []Column
}

// NewSchema sorts the columns by ordinal and returns the schema.
func NewSchema(cols []Column) *Schema {
	sorted := make([]Column, len(cols))
	copy(sorted, cols)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ordinal < sorted[j].Ordinal
	})
	return &Schema{Columns: sorted}
}

// MinRecordLength returns the fixed-row width this schema implies: the
// record header, all fixed column widths (bit columns packed 8 to a byte)
// and the column count field. It matches the p_min_len page header hint the
// recovery scanner keys on.
func (s *Schema) MinRecordLength() int {
	width, bits := 0, 0
	for _, col := range s.Columns {
		if col.Type.Kind == KindBit {
			bits++
			continue
		}
		width += col.Type.FixedWidth()
	}
	return 4 + width + (bits+7)/8
}

// Row is one decoded row: exactly one Value per schema column.
type Row struct {
	Values []Value
}

// DecodeRow decodes a record against the schema. The record kind must carry
// column data (callers check Kind first); a column whose null bit is set
// yields a null value without its byte region ever being read, and columns
// beyond the record's stored column count (added to the table after the row
// was written) decode as null.
func (s *Schema) DecodeRow(rec *record.Record) (Row, error) {
	if !rec.Kind.HasColumns() {
		return Row{}, fmt.Errorf("%v record carries no column data", rec.Kind)
	}

	values := make([]Value, len(s.Columns))
	cur := fixedCursor{data: rec.FixedData}
	var bits bitCursor
	varIdx := 0
	nullIdx := 0

	for i, col := range s.Columns {
		values[i] = Value{Type: col.Type, Null: true}
		if col.Computed {
			// Computed columns are not stored; they consume neither a null
			// bit nor any bytes.
			continue
		}
		if nullIdx >= int(rec.ColumnCount) {
			// Added to the table after this row was written; not stored.
			nullIdx++
			continue
		}
		if rec.IsNull(nullIdx) {
			// Null fixed-width columns still occupy their bytes; skip them
			// without decoding so later columns stay aligned.
			if !col.Type.IsVariable() {
				if col.Type.Kind == KindBit {
					_, _ = bits.read(&cur)
				} else {
					_, _ = cur.take(col.Type.FixedWidth())
				}
			} else if rec.HasVarColumns() {
				varIdx++
			}
			nullIdx++
			continue
		}
		nullIdx++

		var v Value
		var err error
		if col.Type.IsVariable() {
			complexCol, data, verr := rec.VarColumn(varIdx)
			if verr != nil {
				return Row{}, fmt.Errorf("column %q: %w", col.Name, verr)
			}
			varIdx++
			v, err = col.Type.decodeVariable(complexCol, data)
		} else {
			v, err = col.Type.decodeFixed(&cur, &bits)
		}
		if err != nil {
			return Row{}, fmt.Errorf("column %q: %w", col.Name, err)
		}
		values[i] = v
	}

	return Row{Values: values}, nil
}
