package triage

import (
	"context"
	"errors"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// Notifier delivers a completed triage record to the care team out-of-band.
// Delivery failure must never affect the classification itself.
type Notifier interface {
	Send(ctx context.Context, r *Record) error
}

// Request carries one call's symptom report into the service.
type Request struct {
	CallID        string
	CallerPhone   string
	WeeksPregnant int
	Symptoms      any // symptom mapping; anything else triggers the fallback
}

// Service owns everything around the pure engine: record lifecycle,
// persistence, the engine-failure fallback policy, and RED notification
// dispatch.
type Service struct {
	engine   *Engine
	store    Store
	notifier Notifier
	logger   log.Logger
	metrics  *Metrics
}

// NewService creates a new triage service. notifier and metrics may be nil.
func NewService(store Store, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		engine:   engine,
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Triage classifies a symptom report and persists the outcome.
//
// It always produces a complete record. If the engine rejects the input the
// service substitutes the fixed YELLOW-equivalent fallback verdict rather
// than surfacing the failure to an in-progress call. Persistence errors are
// logged and counted but never propagate: a store outage must not block the
// classification the caller is waiting on.
func (s *Service) Triage(ctx context.Context, req *Request) *Record {
	start := time.Now()

	verdict, err := s.engine.Evaluate(req.Symptoms)
	fallback := false
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			s.logger.Error(ctx, err, "unexpected engine error", "call_id", req.CallID)
		}
		verdict = FallbackVerdict
		fallback = true
	}

	record := &Record{
		ID:            ulid.Make().String(),
		CallID:        req.CallID,
		CallerPhone:   req.CallerPhone,
		WeeksPregnant: req.WeeksPregnant,
		Verdict:       verdict,
		Fallback:      fallback,
		CreatedAt:     time.Now().UTC(),
	}
	if symptoms, ok := asRecord(req.Symptoms); ok {
		record.Symptoms = symptoms
	}

	if s.metrics != nil {
		s.metrics.ObserveVerdict(verdict.Tier, fallback, time.Since(start).Seconds())
	}

	s.logger.Info(ctx, "triage verdict",
		"triage_id", record.ID,
		"call_id", record.CallID,
		"risk_tier", verdict.Tier,
		"fallback", fallback,
		"weeks_pregnant", record.WeeksPregnant,
		"clinical_reason", verdict.Reason,
	)

	if err := s.store.PutRecord(ctx, record); err != nil {
		s.logger.Error(ctx, err, "failed to persist triage record",
			"triage_id", record.ID, "call_id", record.CallID)
		if s.metrics != nil {
			s.metrics.StoreFailures.Inc()
		}
	}

	if s.notifier != nil && (verdict.Tier == TierRed || fallback) {
		go s.notify(context.WithoutCancel(ctx), record)
	}

	return record
}

// Get retrieves a triage record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.GetRecord(ctx, id)
}

// GetByCallID retrieves the most recent triage record for a call.
func (s *Service) GetByCallID(ctx context.Context, callID string) (*Record, bool, error) {
	return s.store.GetRecordByCallID(ctx, callID)
}

// RecordConsent upserts the caller's recording-consent flag, keyed by phone
// number. Phone-first registration: a caller row is created if none exists.
func (s *Service) RecordConsent(ctx context.Context, phone string, granted bool) error {
	err := s.store.UpsertConsent(ctx, phone, granted)
	if s.metrics != nil {
		outcome := "granted"
		if !granted {
			outcome = "declined"
		}
		if err != nil {
			outcome = "error"
		}
		s.metrics.ConsentTotal.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "consent recorded", "granted", granted)
	return nil
}

func (s *Service) notify(ctx context.Context, record *Record) {
	err := s.notifier.Send(ctx, record)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.NotifyTotal.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		s.logger.Error(ctx, err, "care-team notification failed",
			"triage_id", record.ID, "risk_tier", record.Verdict.Tier)
	}
}
