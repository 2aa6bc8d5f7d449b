package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite history store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database and runs pending
// migrations. Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	if err := MigrateWithDB(db); err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record persists one assessment report.
func (s *SQLiteStore) Record(ctx context.Context, report *quality.AssessmentReport) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if report == nil {
		return fmt.Errorf("no report to record")
	}

	scores := make(map[quality.Dimension]*float64, len(report.Dimensions))
	for _, d := range quality.Dimensions() {
		if res, ok := report.Dimensions[d]; ok {
			v := res.Score
			scores[d] = &v
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments
		 (id, source_name, source_type, mode, overall_score, readiness,
		  validity, completeness, freshness, consistency, plausibility,
		  sampled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.SourceName, report.SourceType, string(report.Mode),
		report.OverallScore, string(report.Readiness),
		scores[quality.DimensionValidity], scores[quality.DimensionCompleteness],
		scores[quality.DimensionFreshness], scores[quality.DimensionConsistency],
		scores[quality.DimensionPlausibility],
		report.Sampled, report.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

const entryColumns = `id, source_name, source_type, mode, overall_score, readiness,
	validity, completeness, freshness, consistency, plausibility, sampled, created_at`

// Get retrieves one entry by report ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM assessments WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assessment not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return entry, nil
}

// List retrieves the most recent entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	return s.list(ctx,
		`SELECT `+entryColumns+` FROM assessments ORDER BY created_at DESC LIMIT ?`,
		limit)
}

// ListSource retrieves the most recent entries for one source, newest first.
func (s *SQLiteStore) ListSource(ctx context.Context, sourceName string, limit int) ([]*Entry, error) {
	return s.list(ctx,
		`SELECT `+entryColumns+` FROM assessments WHERE source_name = ? ORDER BY created_at DESC LIMIT ?`,
		sourceName, limit)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM assessments WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune assessments: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	entry := &Entry{}
	dims := make([]sql.NullFloat64, 5)

	err := row.Scan(
		&entry.ID, &entry.SourceName, &entry.SourceType, &entry.Mode,
		&entry.OverallScore, &entry.Readiness,
		&dims[0], &dims[1], &dims[2], &dims[3], &dims[4],
		&entry.Sampled, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Scores = make(map[quality.Dimension]float64, 5)
	for i, d := range quality.Dimensions() {
		if dims[i].Valid {
			entry.Scores[d] = dims[i].Float64
		}
	}
	return entry, nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
