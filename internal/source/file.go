package source

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	"github.com/leapstack-labs/leapguard/internal/dataset"
)

// FileProvider loads CSV, Parquet, and JSON files through an in-memory
// DuckDB instance. DuckDB's readers handle type inference, headers,
// and compression, so the dataset arrives with typed values.
type FileProvider struct{}

// NewFileProvider creates a file provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// Type returns the provider kind.
func (p *FileProvider) Type() string { return "file" }

// readerFor returns the DuckDB table function for a file extension.
func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return "read_csv_auto", nil
	case ".parquet":
		return "read_parquet", nil
	case ".json", ".jsonl", ".ndjson":
		return "read_json_auto", nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// Load materializes a dataset from a file path.
func (p *FileProvider) Load(ctx context.Context, ref string, limit int) (*dataset.Dataset, error) {
	reader, err := readerFor(ref)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Paths are interpolated because table functions do not accept
	// bind parameters; single quotes are doubled.
	escaped := strings.ReplaceAll(ref, "'", "''")
	from := fmt.Sprintf("%s('%s')", reader, escaped)

	var total int64
	countQuery := fmt.Sprintf("SELECT count(*) FROM %s", from)
	if err := db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", ref, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s", from)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	defer func() { _ = rows.Close() }()

	ds, err := scanDataset(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", ref, err)
	}
	ds.Name = ref
	ds.SourceType = p.Type()
	ds.TotalRows = total
	ds.Sampled = limit > 0 && total > int64(limit)
	return ds, nil
}

// scanDataset materializes sql.Rows into a Dataset.
func scanDataset(rows *sql.Rows) (*dataset.Dataset, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	columns := make([]dataset.Column, len(types))
	for i, ct := range types {
		nullable, _ := ct.Nullable()
		columns[i] = dataset.Column{
			Name:         ct.Name(),
			DeclaredType: ct.DatabaseTypeName(),
			Nullable:     nullable,
			Position:     i,
		}
	}

	ds := &dataset.Dataset{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ds.Rows = append(ds.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return ds, nil
}
