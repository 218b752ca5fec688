package triage

import "context"

// Store is the persistence interface for triage records and caller consent.
// Implementations must be safe for concurrent use.
type Store interface {
	PutRecord(ctx context.Context, r *Record) error
	GetRecord(ctx context.Context, id string) (*Record, bool, error)
	GetRecordByCallID(ctx context.Context, callID string) (*Record, bool, error)
	UpsertConsent(ctx context.Context, phone string, granted bool) error
}
