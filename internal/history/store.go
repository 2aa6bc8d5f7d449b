// Package history provides the assessment audit trail: every completed
// assessment is recorded to a local SQLite database with schema
// migrations, so score trends per source survive process restarts.
package history

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// Entry is one recorded assessment.
type Entry struct {
	ID           string
	SourceName   string
	SourceType   string
	Mode         string
	OverallScore float64
	Readiness    string
	Scores       map[quality.Dimension]float64
	Sampled      bool
	CreatedAt    time.Time
}

// Store is the persistence interface for the assessment audit trail.
type Store interface {
	// Record persists one assessment report.
	Record(ctx context.Context, report *quality.AssessmentReport) error

	// Get retrieves one entry by report ID.
	Get(ctx context.Context, id string) (*Entry, error)

	// List retrieves the most recent entries, newest first.
	List(ctx context.Context, limit int) ([]*Entry, error)

	// ListSource retrieves the most recent entries for one source,
	// newest first.
	ListSource(ctx context.Context, sourceName string, limit int) ([]*Entry, error)

	// Prune deletes entries older than the cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases the underlying database.
	Close() error
}
