package reconcile

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fincoval/creditsync/internal/common"
)

// Skip reasons.
const (
	SkipDependency = "dependency"
	SkipValidation = "validation"
	SkipUnchanged  = "unchanged"
	SkipCutoff     = "cutoff"
)

type SkipCounts struct {
	Dependency int `json:"dependency"`
	Validation int `json:"validation"`
	Unchanged  int `json:"unchanged"`
	Cutoff     int `json:"cutoff"`
}

type RecordError struct {
	RecordID string `json:"record_id"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// Summary is the outcome of one pass. Every record processed lands in
// exactly one of Inserted, Updated, Exported, Skipped or Errored. Counters
// are safe for concurrent use while the pass runs.
type Summary struct {
	mu sync.Mutex

	Pass         Pass          `json:"pass"`
	RunID        string        `json:"run_id"`
	Direction    Direction     `json:"direction"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Inserted     int           `json:"inserted"`
	Updated      int           `json:"updated"`
	Exported     int           `json:"exported"`
	Skipped      int           `json:"skipped"`
	SkippedBy    SkipCounts    `json:"skipped_by"`
	Errored      int           `json:"errored"`
	Errors       []RecordError `json:"errors"`
	Failure      string        `json:"failure,omitempty"`
	PeakInFlight int           `json:"peak_in_flight"`
}

func newSummary(pass Pass, runID string, now time.Time) *Summary {
	return &Summary{
		Pass:      pass,
		RunID:     runID,
		Direction: pass.Direction(),
		StartedAt: now,
		Errors:    []RecordError{},
	}
}

type outcome int

const (
	// settled means the handler already recorded its records.
	settled outcome = iota
	inserted
	updated
	exported
	unchanged
)

// settle records one record result and returns the skip reason or "errored"
// for failures, "" otherwise.
func (s *Summary) settle(recordID string, out outcome, err error) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		reason := s.classify(err)
		switch reason {
		case SkipDependency:
			s.SkippedBy.Dependency++
		case SkipValidation:
			s.SkippedBy.Validation++
		case SkipCutoff:
			s.SkippedBy.Cutoff++
			s.Skipped++
			return reason
		default:
			s.Errored++
			s.addError(recordID, err)
			return "errored"
		}
		s.Skipped++
		s.addError(recordID, err)
		return reason
	}

	switch out {
	case inserted:
		s.Inserted++
	case updated:
		s.Updated++
	case exported:
		s.Exported++
	case unchanged:
		s.Skipped++
		s.SkippedBy.Unchanged++
	}
	return ""
}

func (s *Summary) classify(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingDependency):
		return SkipDependency
	case errors.Is(err, common.ErrBeforeCutoff):
		return SkipCutoff
	case errors.Is(err, common.ErrTransformValidation) && s.Pass.Inbound():
		return SkipValidation
	default:
		return ""
	}
}

func (s *Summary) addError(recordID string, err error) {
	s.Errors = append(s.Errors, RecordError{
		RecordID: recordID,
		Kind:     common.Kind(err),
		Message:  err.Error(),
	})
}

func (s *Summary) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failure == "" {
		s.Failure = err.Error()
	}
}

// Failed reports a pass-level failure.
func (s *Summary) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Failure != ""
}

// Processed is the number of records that reached a class.
func (s *Summary) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Inserted + s.Updated + s.Exported + s.Skipped + s.Errored
}

func (s *Summary) LogValue() slog.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := []slog.Attr{
		slog.String("pass", string(s.Pass)),
		slog.String("run_id", s.RunID),
		slog.String("direction", string(s.Direction)),
		slog.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
		slog.Int("inserted", s.Inserted),
		slog.Int("updated", s.Updated),
		slog.Int("exported", s.Exported),
		slog.Int("skipped", s.Skipped),
		slog.Int("skipped_dependency", s.SkippedBy.Dependency),
		slog.Int("skipped_validation", s.SkippedBy.Validation),
		slog.Int("skipped_unchanged", s.SkippedBy.Unchanged),
		slog.Int("skipped_cutoff", s.SkippedBy.Cutoff),
		slog.Int("errored", s.Errored),
		slog.Int("peak_in_flight", s.PeakInFlight),
	}
	if s.Failure != "" {
		attrs = append(attrs, slog.String("failure", s.Failure))
	}
	return slog.GroupValue(attrs...)
}
