// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/matri/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/matri/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, call_id, caller_phone, weeks_pregnant, risk_tier,
	mandatory_action, clinical_reason, symptoms, fallback, created_at`

// GetRecord retrieves a triage record by ID.
//
//nolint:dupl // similar structure to GetRecordByCallID is intentional
func (s *Store) GetRecord(ctx context.Context, id string) (*triage.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetRecord", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM triage_records WHERE id = $1`
	r, err := s.scanRecordRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// GetRecordByCallID retrieves the most recent triage record for a call.
//
//nolint:dupl // similar structure to GetRecord is intentional
func (s *Store) GetRecordByCallID(ctx context.Context, callID string) (*triage.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetRecordByCallID", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM triage_records WHERE call_id = $1 ORDER BY created_at DESC LIMIT 1`
	r, err := s.scanRecordRow(s.pool.QueryRow(ctx, query, callID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// PutRecord inserts or updates a triage record (upsert on ID).
func (s *Store) PutRecord(ctx context.Context, r *triage.Record) error {
	ctx, span := tracer.Start(ctx, "pgstore.PutRecord", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	symptomsJSON, err := json.Marshal(r.Symptoms)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("marshal symptoms: %w", err)
	}

	query := `INSERT INTO triage_records (
		id, call_id, caller_phone, weeks_pregnant, risk_tier,
		mandatory_action, clinical_reason, symptoms, fallback, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (id) DO UPDATE SET
		call_id          = EXCLUDED.call_id,
		caller_phone     = EXCLUDED.caller_phone,
		weeks_pregnant   = EXCLUDED.weeks_pregnant,
		risk_tier        = EXCLUDED.risk_tier,
		mandatory_action = EXCLUDED.mandatory_action,
		clinical_reason  = EXCLUDED.clinical_reason,
		symptoms         = EXCLUDED.symptoms,
		fallback         = EXCLUDED.fallback`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.CallID, r.CallerPhone, r.WeeksPregnant, string(r.Verdict.Tier),
		r.Verdict.Action, r.Verdict.Reason, symptomsJSON, r.Fallback, r.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert triage record: %w", err)
	}
	return nil
}

// UpsertConsent inserts or updates the caller's consent flag keyed by phone.
func (s *Store) UpsertConsent(ctx context.Context, phone string, granted bool) error {
	ctx, span := tracer.Start(ctx, "pgstore.UpsertConsent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	query := `INSERT INTO callers (phone, consent_given, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (phone) DO UPDATE SET
			consent_given = EXCLUDED.consent_given,
			updated_at    = now()`

	if _, err := s.pool.Exec(ctx, query, phone, granted); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert consent: %w", err)
	}
	return nil
}

func (s *Store) scanRecordRow(row pgx.Row) (*triage.Record, error) {
	var r triage.Record
	var tier string
	var symptomsJSON []byte

	err := row.Scan(
		&r.ID, &r.CallID, &r.CallerPhone, &r.WeeksPregnant, &tier,
		&r.Verdict.Action, &r.Verdict.Reason, &symptomsJSON, &r.Fallback, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan triage record: %w", err)
	}

	r.Verdict.Tier = triage.Tier(tier)
	if len(symptomsJSON) > 0 {
		if err := json.Unmarshal(symptomsJSON, &r.Symptoms); err != nil {
			return nil, fmt.Errorf("unmarshal symptoms: %w", err)
		}
	}
	return &r, nil
}
