// Package dataset defines the in-memory tabular dataset model that rule
// evaluation operates on, together with value-kind inference and the
// summary statistics used by discovery-mode heuristics.
package dataset

// Column describes one column of a tabular dataset.
type Column struct {
	// Name is the column name as reported by the source.
	Name string

	// DeclaredType is the source's type name, if any (e.g. "VARCHAR").
	DeclaredType string

	// Nullable indicates whether the source allows NULL values.
	Nullable bool

	// Position is the ordinal position of the column, starting at 0.
	Position int
}

// Dataset is a fully materialized tabular dataset.
// Values are held as the driver-native Go types produced by database/sql
// scanning: nil, bool, int64, float64, string, time.Time, or []byte.
type Dataset struct {
	// Name identifies the data source (file path, table name, ...).
	Name string

	// SourceType records the provider kind ("file", "postgres", ...).
	SourceType string

	// Columns holds the column metadata in positional order.
	Columns []Column

	// Rows holds the data, one slice per record, aligned with Columns.
	Rows [][]any

	// Sampled reports whether Rows is a sample of a larger source.
	Sampled bool

	// TotalRows is the row count of the underlying source. Equal to
	// len(Rows) unless the dataset was sampled.
	TotalRows int64
}

// RowCount returns the number of materialized rows.
func (d *Dataset) RowCount() int { return len(d.Rows) }

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool { return len(d.Rows) == 0 }

// ColumnIndex returns the positional index of a named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for i, c := range d.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether a named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.ColumnIndex(name)
	return ok
}

// ColumnNames returns the column names in positional order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnValues returns all values of a named column in row order.
// The second return is false when the column does not exist.
func (d *Dataset) ColumnValues(name string) ([]any, bool) {
	idx, ok := d.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	values := make([]any, len(d.Rows))
	for i, row := range d.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}

// Prefix returns a dataset containing at most n leading rows.
// When the dataset already fits, it is returned unchanged. The sample is
// deterministic so repeated assessments of an unchanged source agree.
func (d *Dataset) Prefix(n int) *Dataset {
	if n <= 0 || len(d.Rows) <= n {
		return d
	}
	out := *d
	out.Rows = d.Rows[:n]
	out.Sampled = true
	return &out
}
