package session

import (
	"sync"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// Session is the ordered, append-only list of records collected during a run.
// It is safe for one writer and any number of readers.
type Session struct {
	mu      sync.RWMutex
	records []types.AttributeRecord
}

// New creates an empty session
func New() *Session {
	return &Session{}
}

// Append adds records to the end of the session
func (s *Session) Append(records ...types.AttributeRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	s.records = append(s.records, records...)
	s.mu.Unlock()
}

// Records returns a copy of the collected records
func (s *Session) Records() []types.AttributeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AttributeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of collected records
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset clears the session
func (s *Session) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}
