package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Table is the canonical tabular form of one normalized source file. It is
// the Single Source of Truth handed from the loader to every consumer:
// columnar storage, a fixed set of canonical fields, and rows in source-file
// order. A Table is immutable once built: accessors return copies or plain
// values, so consumers can never mutate a cached table out from under each
// other.
type Table struct {
	category Category
	fields   []string
	numbers  map[string][]float64
	text     map[string][]string
	rows     int
	diag     Diagnostics
}

// Diagnostics records what normalization tolerated rather than failed on.
// Per-cell problems never abort a load; they are counted here per canonical
// field so callers can report data quality alongside the data.
type Diagnostics struct {
	// SourceRows is the number of data rows read from the file, before any
	// row was dropped as blank.
	SourceRows int `json:"source_rows"`

	// ParseFailures counts cells per field that were present but could not
	// be coerced to the field's type and were replaced by the sentinel.
	ParseFailures map[string]int `json:"parse_failures,omitempty"`

	// Suppressed counts cells per field carrying a CMS suppression marker
	// ("NR", "*", "+", or empty), replaced by the sentinel. Suppression is
	// expected in published files and tracked separately from malformed data.
	Suppressed map[string]int `json:"suppressed,omitempty"`

	// MissingOptional lists optional canonical fields that had no matching
	// column in this vintage; their columns are sentinel-filled.
	MissingOptional []string `json:"missing_optional,omitempty"`
}

// TotalParseFailures sums parse failures across all fields.
func (d Diagnostics) TotalParseFailures() int {
	total := 0
	for _, n := range d.ParseFailures {
		total += n
	}
	return total
}

// TotalSuppressed sums suppressed cells across all fields.
func (d Diagnostics) TotalSuppressed() int {
	total := 0
	for _, n := range d.Suppressed {
		total += n
	}
	return total
}

func (d Diagnostics) clone() Diagnostics {
	out := Diagnostics{SourceRows: d.SourceRows}
	if len(d.ParseFailures) > 0 {
		out.ParseFailures = make(map[string]int, len(d.ParseFailures))
		for k, v := range d.ParseFailures {
			out.ParseFailures[k] = v
		}
	}
	if len(d.Suppressed) > 0 {
		out.Suppressed = make(map[string]int, len(d.Suppressed))
		for k, v := range d.Suppressed {
			out.Suppressed[k] = v
		}
	}
	if len(d.MissingOptional) > 0 {
		out.MissingOptional = append([]string(nil), d.MissingOptional...)
	}
	return out
}

// Category returns the file layout this table was normalized from.
func (t *Table) Category() Category {
	return t.category
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Fields returns the canonical field names in declaration order.
func (t *Table) Fields() []string {
	return append([]string(nil), t.fields...)
}

// HasField reports whether the table carries the canonical field.
func (t *Table) HasField(field string) bool {
	_, num := t.numbers[field]
	_, txt := t.text[field]
	return num || txt
}

// IsNumeric reports whether the field holds numbers rather than text.
func (t *Table) IsNumeric(field string) bool {
	_, ok := t.numbers[field]
	return ok
}

// Numbers returns a copy of a numeric column. The result is nil if the
// field is absent or textual.
func (t *Table) Numbers(field string) []float64 {
	col, ok := t.numbers[field]
	if !ok {
		return nil
	}
	return append([]float64(nil), col...)
}

// Strings returns a copy of a text column. The result is nil if the field
// is absent or numeric.
func (t *Table) Strings(field string) []string {
	col, ok := t.text[field]
	if !ok {
		return nil
	}
	return append([]string(nil), col...)
}

// NumberAt returns one numeric cell. Out-of-range rows and unknown fields
// return the numeric sentinel 0.
func (t *Table) NumberAt(field string, row int) float64 {
	col, ok := t.numbers[field]
	if !ok || row < 0 || row >= len(col) {
		return 0
	}
	return col[row]
}

// StringAt returns one text cell. Out-of-range rows and unknown fields
// return the empty string.
func (t *Table) StringAt(field string, row int) string {
	col, ok := t.text[field]
	if !ok || row < 0 || row >= len(col) {
		return ""
	}
	return col[row]
}

// Diagnostics returns a copy of the normalization diagnostics.
func (t *Table) Diagnostics() Diagnostics {
	return t.diag.clone()
}

// Equal reports structural equality: same category, same fields in the same
// order, same row count, and identical cell values. Diagnostics are not part
// of structural equality, so two loads of the same file are Equal even if only
// one recorded timing context.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.category != other.category || t.rows != other.rows || len(t.fields) != len(other.fields) {
		return false
	}
	for i, f := range t.fields {
		if other.fields[i] != f {
			return false
		}
	}
	for field, col := range t.numbers {
		oc, ok := other.numbers[field]
		if !ok || len(oc) != len(col) {
			return false
		}
		for i := range col {
			if col[i] != oc[i] {
				return false
			}
		}
	}
	for field, col := range t.text {
		oc, ok := other.text[field]
		if !ok || len(oc) != len(col) {
			return false
		}
		for i := range col {
			if col[i] != oc[i] {
				return false
			}
		}
	}
	return true
}

// tableJSON is the column-oriented wire form. Field order is carried by the
// fields list; the columns map is keyed so its own order is irrelevant.
type tableJSON struct {
	Category    Category                 `json:"category"`
	Fields      []string                 `json:"fields"`
	Rows        int                      `json:"rows"`
	Numbers     map[string][]float64     `json:"numbers,omitempty"`
	Text        map[string][]string      `json:"text,omitempty"`
	Diagnostics Diagnostics              `json:"diagnostics"`
}

// MarshalJSON serializes the table column-oriented for report export.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{
		Category:    t.category,
		Fields:      t.Fields(),
		Rows:        t.rows,
		Numbers:     t.numbers,
		Text:        t.text,
		Diagnostics: t.diag,
	})
}

// TableBuilder assembles a Table column by column. The normalizer declares
// the canonical schema up front, appends one value per declared column for
// each source row, and calls Build, which seals the table. Builders are not
// safe for concurrent use.
type TableBuilder struct {
	category Category
	fields   []string
	numbers  map[string][]float64
	text     map[string][]string
	diag     Diagnostics
}

// NewTableBuilder starts a builder for one file category.
func NewTableBuilder(category Category) *TableBuilder {
	return &TableBuilder{
		category: category,
		numbers:  make(map[string][]float64),
		text:     make(map[string][]string),
		diag: Diagnostics{
			ParseFailures: make(map[string]int),
			Suppressed:    make(map[string]int),
		},
	}
}

// AddNumberColumn declares a numeric canonical field. Declaration order is
// the table's field order.
func (b *TableBuilder) AddNumberColumn(field string) *TableBuilder {
	if !b.declared(field) {
		b.fields = append(b.fields, field)
		b.numbers[field] = []float64{}
	}
	return b
}

// AddTextColumn declares a textual canonical field.
func (b *TableBuilder) AddTextColumn(field string) *TableBuilder {
	if !b.declared(field) {
		b.fields = append(b.fields, field)
		b.text[field] = []string{}
	}
	return b
}

func (b *TableBuilder) declared(field string) bool {
	_, num := b.numbers[field]
	_, txt := b.text[field]
	return num || txt
}

// AppendNumber appends one cell to a declared numeric column.
func (b *TableBuilder) AppendNumber(field string, v float64) {
	if col, ok := b.numbers[field]; ok {
		b.numbers[field] = append(col, v)
	}
}

// AppendText appends one cell to a declared text column.
func (b *TableBuilder) AppendText(field, v string) {
	if col, ok := b.text[field]; ok {
		b.text[field] = append(col, v)
	}
}

// CountParseFailure records a cell that could not be coerced.
func (b *TableBuilder) CountParseFailure(field string) {
	b.diag.ParseFailures[field]++
}

// CountSuppressed records a cell carrying a suppression marker.
func (b *TableBuilder) CountSuppressed(field string) {
	b.diag.Suppressed[field]++
}

// MarkMissingOptional records an optional field with no source column.
func (b *TableBuilder) MarkMissingOptional(field string) {
	b.diag.MissingOptional = append(b.diag.MissingOptional, field)
}

// SetSourceRows records how many data rows the source file contained.
func (b *TableBuilder) SetSourceRows(n int) {
	b.diag.SourceRows = n
}

// Build seals the table. It fails if no columns were declared or any column
// length diverges from the others; every row must carry every field.
func (b *TableBuilder) Build() (*Table, error) {
	if len(b.fields) == 0 {
		return nil, fmt.Errorf("table build: no columns declared for category %s", b.category)
	}
	rows := -1
	check := func(field string, n int) error {
		if rows == -1 {
			rows = n
			return nil
		}
		if n != rows {
			return fmt.Errorf("table build: column %s has %d cells, want %d", field, n, rows)
		}
		return nil
	}
	for field, col := range b.numbers {
		if err := check(field, len(col)); err != nil {
			return nil, err
		}
	}
	for field, col := range b.text {
		if err := check(field, len(col)); err != nil {
			return nil, err
		}
	}
	if rows < 0 {
		rows = 0
	}
	sort.Strings(b.diag.MissingOptional)
	t := &Table{
		category: b.category,
		fields:   b.fields,
		numbers:  b.numbers,
		text:     b.text,
		rows:     rows,
		diag:     b.diag,
	}
	// Detach the builder so later appends cannot reach the sealed table.
	b.fields = nil
	b.numbers = make(map[string][]float64)
	b.text = make(map[string][]string)
	return t, nil
}
