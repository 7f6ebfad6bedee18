// Package archive keeps a durable copy of every pass summary, either in an
// S3-compatible bucket or in a local spool directory.
package archive

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/fincoval/creditsync/internal/reconcile"
)

// Key returns the object key for s: prefix/pass/YYYY/MM/DD/runID.json,
// dated by the pass start in UTC.
func Key(prefix string, s *reconcile.Summary) string {
	day := s.StartedAt.UTC()
	return path.Join(
		prefix,
		string(s.Pass),
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", int(day.Month())),
		fmt.Sprintf("%02d", day.Day()),
		s.RunID+".json",
	)
}

func encode(s *reconcile.Summary) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary %s: %w", s.RunID, err)
	}
	return b, nil
}
