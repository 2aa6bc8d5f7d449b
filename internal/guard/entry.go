package guard

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// readEntry decodes a cache entry and checks report version
// compatibility.
func readEntry(r io.Reader) (Entry, error) {
	var entry Entry
	if err := json.NewDecoder(r).Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if entry.Report != nil && !quality.CompatibleReportVersion(entry.Report.Version) {
		return Entry{}, fmt.Errorf("incompatible cached report version %q", entry.Report.Version)
	}
	return entry, nil
}

// writeEntry encodes a cache entry as indented JSON so cached reports
// stay readable when inspected by hand.
func writeEntry(w io.Writer, entry Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entry)
}
