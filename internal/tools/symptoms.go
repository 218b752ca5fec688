package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/matri/internal/transfer"
	"github.com/linnemanlabs/matri/internal/triage"
)

// bridgeSpoken is said before a RED call is bridged to the doctor, verbatim
// from the deployed Hindi call flow.
const bridgeSpoken = "Behen, aapki sthiti gambhir lag rahi hai. " +
	"Main aapko doctor se connect kar rahi hoon."

const redClosingSpoken = "Behen, ABHI 108 par call karein. Yeh bahut zaroori hai."

// CollectSymptoms runs the triage engine over the symptoms the assistant
// collected, and on a RED verdict bridges the live call to the doctor.
type CollectSymptoms struct {
	svc          *triage.Service
	transfers    *transfer.Client
	doctorNumber string
	metrics      *triage.Metrics
	logger       log.Logger
}

// NewCollectSymptoms creates the collect_symptoms tool. transfers and
// metrics may be nil; with a nil transfers client RED calls are not bridged.
func NewCollectSymptoms(svc *triage.Service, transfers *transfer.Client, doctorNumber string, metrics *triage.Metrics, logger log.Logger) *CollectSymptoms {
	if logger == nil {
		logger = log.Nop()
	}
	return &CollectSymptoms{
		svc:          svc,
		transfers:    transfers,
		doctorNumber: doctorNumber,
		metrics:      metrics,
		logger:       logger,
	}
}

func (t *CollectSymptoms) Name() string { return "collect_symptoms" }

func (t *CollectSymptoms) Description() string {
	return "Collect the pregnant caller's symptoms and run an obstetric risk " +
		"assessment using PMSMA (Government of India) guidelines. " +
		"Call this AFTER the caller has answered all symptom questions. " +
		"Pass every symptom the user described, using defaults for anything " +
		"not mentioned."
}

func (t *CollectSymptoms) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"bleeding": map[string]any{
				"type": "string",
				"enum": []string{"none", "light", "heavy"},
				"description": "Vaginal bleeding status. 'heavy' = soaking a pad in under an hour " +
					"or blood clots; 'light' = spotting; 'none' = no bleeding.",
			},
			"headache": map[string]any{
				"type": "boolean",
				"description": "True if the caller reports a severe, persistent headache " +
					"(sar mein bahut tej dard) especially with visual disturbances.",
			},
			"fetal_movement": map[string]any{
				"type": "string",
				"enum": []string{"normal", "decreased", "absent"},
				"description": "Baby's movement in the last 12 hours. " +
					"'decreased' = noticeably less than usual; " +
					"'absent' = no movement felt at all.",
			},
			"weeks_pregnant": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 45,
				"description": "Gestational age in weeks. Convert from months if needed: " +
					"1 month is about 4 weeks. If unknown, use 0.",
			},
			"fever": map[string]any{
				"type":        "boolean",
				"description": "True if the caller has bukhar (fever / body feels hot).",
			},
			"swelling_feet": map[string]any{
				"type": "boolean",
				"description": "True if the caller has sudden or severe swelling of the feet " +
					"or face (pair ya chehra phool gaya).",
			},
			"abdominal_pain": map[string]any{
				"type": "string",
				"enum": []string{"none", "mild", "severe"},
				"description": "Abdominal/pelvic pain level. " +
					"'mild' = tolerable discomfort; 'severe' = intense, possibly rhythmic.",
			},
			"convulsions": map[string]any{
				"type": "boolean",
				"description": "True if the caller had or is currently having fits / " +
					"dore (haath-pair kaanpna, ankhen palat jaana).",
			},
		},
		"required": []string{"bleeding", "headache", "fetal_movement", "weeks_pregnant"},
	}
}

// Execute maps the assistant's parameters to a symptom record, runs triage,
// and returns a JSON result instructing the assistant what to say verbatim.
// On RED the live call is bridged to the doctor in the background so the
// spoken response is never delayed by the control API.
func (t *CollectSymptoms) Execute(ctx context.Context, call Call, params map[string]any) (string, error) {
	weeks := asInt(params["weeks_pregnant"])
	symptoms := MapSymptoms(params)

	record := t.svc.Triage(ctx, &triage.Request{
		CallID:        call.ID,
		CallerPhone:   call.CallerPhone,
		WeeksPregnant: weeks,
		Symptoms:      symptoms,
	})
	verdict := record.Verdict

	var instructions string
	if verdict.Tier == triage.TierRed {
		// Bridge message first, then the mandatory action word-for-word.
		instructions = fmt.Sprintf(
			"%s TRIAGE COMPLETE. Risk level is RED. You MUST say EXACTLY: %q Then say: %q",
			bridgeSpoken, verdict.Action, redClosingSpoken,
		)
		t.bridge(ctx, call)
	} else {
		instructions = fmt.Sprintf(
			"TRIAGE COMPLETE. Risk level is %s. You MUST now say the following EXACTLY word-for-word: %q",
			verdict.Tier, verdict.Action,
		)
	}

	payload, err := json.Marshal(map[string]any{
		"risk_level":       verdict.Tier,
		"mandatory_action": verdict.Action,
		"clinical_reason":  verdict.Reason,
		"weeks_pregnant":   weeks,
		"instructions":     instructions,
	})
	if err != nil {
		return "", fmt.Errorf("marshal triage result: %w", err)
	}
	return string(payload), nil
}

func (t *CollectSymptoms) bridge(ctx context.Context, call Call) {
	if t.transfers == nil || t.doctorNumber == "" {
		t.logger.Warn(ctx, "RED verdict but doctor transfer not configured", "call_id", call.ID)
		return
	}
	if call.ControlURL == "" {
		t.logger.Warn(ctx, "RED verdict but no control url on call, transfer skipped", "call_id", call.ID)
		return
	}

	go func(ctx context.Context) {
		err := t.transfers.Transfer(ctx, call.ControlURL, t.doctorNumber, bridgeSpoken)
		if t.metrics != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			t.metrics.TransfersTotal.WithLabelValues(outcome).Inc()
		}
		if err != nil {
			t.logger.Error(ctx, err, "doctor transfer failed", "call_id", call.ID)
			return
		}
		t.logger.Info(ctx, "call transferred to doctor", "call_id", call.ID)
	}(context.WithoutCancel(ctx))
}

// MapSymptoms translates the assistant's tool parameters into the engine's
// symptom record: the external "headache" key maps to severe_headache, all
// other recognised keys map by identity, unknown keys are dropped, and
// values are normalized to the strict bool/string forms the engine matches
// on (the engine itself never coerces).
func MapSymptoms(params map[string]any) triage.SymptomRecord {
	return triage.SymptomRecord{
		triage.SymptomBleeding:       asEnum(params["bleeding"], "none"),
		triage.SymptomSevereHeadache: asBool(params["headache"]),
		triage.SymptomFetalMovement:  asEnum(params["fetal_movement"], "normal"),
		triage.SymptomFever:          asBool(params["fever"]),
		triage.SymptomSwellingFeet:   asBool(params["swelling_feet"]),
		triage.SymptomAbdominalPain:  asEnum(params["abdominal_pain"], "none"),
		triage.SymptomConvulsions:    asBool(params["convulsions"]),
	}
}

// asBool normalizes the truthy representations seen from the assistant
// (bool, "true"/"yes", nonzero number) to a strict bool.
func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "true" || s == "yes"
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}

// asEnum normalizes enum-valued parameters to lowercase trimmed strings,
// substituting the "not present" default when the parameter is missing.
func asEnum(v any, def string) string {
	s, _ := v.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}

// asInt reads an integer parameter that JSON decoding delivers as float64.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		var i int
		_, _ = fmt.Sscanf(strings.TrimSpace(n), "%d", &i)
		return i
	default:
		return 0
	}
}
