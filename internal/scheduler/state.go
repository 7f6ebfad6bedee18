package scheduler

import (
	"sync"
	"time"

	"github.com/fincoval/creditsync/internal/reconcile"
)

// JobState is the bookkeeping of one job class.
type JobState struct {
	Running        bool                 `json:"running"`
	StartedAt      time.Time            `json:"started_at,omitzero"`
	LastFinishedAt time.Time            `json:"last_finished_at,omitzero"`
	LastSummaries  []*reconcile.Summary `json:"last_summaries"`
	LastError      string               `json:"last_error,omitempty"`
	Runs           int                  `json:"runs"`
	Dropped        int                  `json:"dropped"`
}

// StateStore guards the running flag of every job class. TryStart checks
// and sets it atomically so that a class never runs twice at once.
type StateStore struct {
	mu     sync.Mutex
	states map[JobClass]*JobState
}

func NewStateStore(classes ...JobClass) *StateStore {
	s := &StateStore{states: make(map[JobClass]*JobState, len(classes))}
	for _, c := range classes {
		s.states[c] = &JobState{}
	}
	return s
}

func (s *StateStore) state(c JobClass) *JobState {
	st, ok := s.states[c]
	if !ok {
		st = &JobState{}
		s.states[c] = st
	}
	return st
}

// TryStart marks c running and reports true, or reports false when it
// already is.
func (s *StateStore) TryStart(c JobClass, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(c)
	if st.Running {
		return false
	}
	st.Running = true
	st.StartedAt = now
	return true
}

func (s *StateStore) Finish(c JobClass, now time.Time, summaries []*reconcile.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(c)
	st.Running = false
	st.LastFinishedAt = now
	st.LastSummaries = summaries
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	st.Runs++
}

// Drop counts a trigger that found c running and returns the new total.
func (s *StateStore) Drop(c JobClass) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(c)
	st.Dropped++
	return st.Dropped
}

func (s *StateStore) Get(c JobClass) (JobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[c]
	if !ok {
		return JobState{}, false
	}
	return *st, true
}

// Snapshot copies every state.
func (s *StateStore) Snapshot() map[JobClass]JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[JobClass]JobState, len(s.states))
	for c, st := range s.states {
		out[c] = *st
	}
	return out
}
