// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/matri/internal/triage"
)

// Store holds triage records and consent flags in memory. Suitable for
// dev/testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]*triage.Record // record ID -> record
	byCall  map[string]string         // call ID -> most recent record ID
	consent map[string]bool           // caller phone -> consent_given
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*triage.Record),
		byCall:  make(map[string]string),
		consent: make(map[string]bool),
	}
}

// PutRecord stores a copy of the triage record.
func (s *Store) PutRecord(_ context.Context, r *triage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.records[r.ID] = &cp
	if r.CallID != "" {
		s.byCall[r.CallID] = r.ID
	}
	return nil
}

// GetRecord retrieves a triage record by its ID. Returns a copy.
func (s *Store) GetRecord(_ context.Context, id string) (*triage.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// GetRecordByCallID retrieves the most recent triage record for a call. Returns a copy.
func (s *Store) GetRecordByCallID(_ context.Context, callID string) (*triage.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCall[callID]
	if !ok {
		return nil, false, nil
	}
	r := s.records[id]
	cp := *r
	return &cp, true, nil
}

// UpsertConsent stores the caller's recording-consent flag keyed by phone.
func (s *Store) UpsertConsent(_ context.Context, phone string, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consent[phone] = granted
	return nil
}

// Consent reports the stored consent flag for a phone number.
func (s *Store) Consent(phone string) (granted, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	granted, ok = s.consent[phone]
	return granted, ok
}
