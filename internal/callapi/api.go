// Package callapi exposes the voice-platform webhook surface: transient
// assistant requests, in-call tool dispatch, speech synthesis, and triage
// record retrieval.
package callapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/matri/internal/tools"
	"github.com/linnemanlabs/matri/internal/triage"
)

// Synthesizer converts text to spoken audio for the custom-voice endpoint.
type Synthesizer interface {
	Configured() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	svc      *triage.Service
	registry *tools.Registry
	tts      Synthesizer
	baseURL  string
	metrics  *triage.Metrics
}

// New creates a new API handler. tts and metrics may be nil; baseURL is the
// externally reachable URL the voice platform calls back on.
func New(logger log.Logger, svc *triage.Service, registry *tools.Registry, tts Synthesizer, baseURL string, metrics *triage.Metrics) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	if registry == nil {
		panic(xerrors.New("tool registry is required"))
	}
	return &API{
		logger:   logger,
		svc:      svc,
		registry: registry,
		tts:      tts,
		baseURL:  baseURL,
		metrics:  metrics,
	}
}

// RegisterRoutes attaches all API endpoints to the router. main registers
// the two groups separately so each can carry its own auth middleware.
func (a *API) RegisterRoutes(r chi.Router) {
	a.RegisterVapiRoutes(r)
	a.RegisterAPIRoutes(r)
}

// RegisterVapiRoutes attaches the voice-platform callback endpoints.
func (a *API) RegisterVapiRoutes(r chi.Router) {
	r.Route("/vapi", func(r chi.Router) {
		r.Post("/webhook", a.handleWebhook)
		r.Post("/tool", a.handleWebhook)
		r.Post("/voice", a.handleVoice)
	})
}

// RegisterAPIRoutes attaches the triage retrieval endpoints.
func (a *API) RegisterAPIRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/triage/{id}", a.handleGetTriage)
	})
}

func (a *API) handleGetTriage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("matri.triage.id", id))

	record, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage record", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("matri.triage.risk_tier", string(record.Verdict.Tier)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(record)
}
