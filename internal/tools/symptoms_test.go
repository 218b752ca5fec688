package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/matri/internal/triage"
	"github.com/linnemanlabs/matri/internal/triage/memstore"
)

func newSymptomsTool(t *testing.T) *CollectSymptoms {
	t.Helper()
	svc := triage.NewService(memstore.New(), triage.NewEngine(), log.Nop(), nil, nil)
	return NewCollectSymptoms(svc, nil, "", nil, log.Nop())
}

func TestMapSymptoms_HeadacheKeyMapping(t *testing.T) {
	t.Parallel()

	rec := MapSymptoms(map[string]any{"headache": true})
	if rec[triage.SymptomSevereHeadache] != true {
		t.Errorf("severe_headache = %v, want true", rec[triage.SymptomSevereHeadache])
	}
	if _, ok := rec["headache"]; ok {
		t.Error("external headache key must not pass through")
	}
}

func TestMapSymptoms_Normalization(t *testing.T) {
	t.Parallel()

	rec := MapSymptoms(map[string]any{
		"bleeding":       " Heavy ",
		"fever":          "true",
		"swelling_feet":  float64(1),
		"convulsions":    "no",
		"fetal_movement": nil,
		"platform_junk":  "dropped",
	})

	if rec[triage.SymptomBleeding] != "heavy" {
		t.Errorf("bleeding = %v, want heavy", rec[triage.SymptomBleeding])
	}
	if rec[triage.SymptomFever] != true {
		t.Errorf("fever = %v, want true", rec[triage.SymptomFever])
	}
	if rec[triage.SymptomSwellingFeet] != true {
		t.Errorf("swelling_feet = %v, want true", rec[triage.SymptomSwellingFeet])
	}
	if rec[triage.SymptomConvulsions] != false {
		t.Errorf("convulsions = %v, want false", rec[triage.SymptomConvulsions])
	}
	if rec[triage.SymptomFetalMovement] != "normal" {
		t.Errorf("fetal_movement = %v, want normal default", rec[triage.SymptomFetalMovement])
	}
	if _, ok := rec["platform_junk"]; ok {
		t.Error("unknown keys must be dropped by the mapper")
	}
}

func TestCollectSymptoms_RedResult(t *testing.T) {
	t.Parallel()

	tool := newSymptomsTool(t)
	out, err := tool.Execute(context.Background(), Call{ID: "call-red"}, map[string]any{
		"bleeding":       "heavy",
		"headache":       false,
		"fetal_movement": "normal",
		"weeks_pregnant": float64(28),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["risk_level"] != "RED" {
		t.Errorf("risk_level = %v, want RED", payload["risk_level"])
	}
	instructions, _ := payload["instructions"].(string)
	action, _ := payload["mandatory_action"].(string)
	if !strings.Contains(instructions, action) {
		t.Error("instructions must quote the mandatory action verbatim")
	}
	reason, _ := payload["clinical_reason"].(string)
	if reason == "" {
		t.Error("expected clinical_reason in the payload for audit")
	}
	if strings.Contains(instructions, reason) {
		t.Error("clinical reason must never be part of the spoken instructions")
	}
	if payload["weeks_pregnant"] != float64(28) {
		t.Errorf("weeks_pregnant = %v, want 28", payload["weeks_pregnant"])
	}
}

func TestCollectSymptoms_YellowResult(t *testing.T) {
	t.Parallel()

	tool := newSymptomsTool(t)
	out, err := tool.Execute(context.Background(), Call{ID: "call-yellow"}, map[string]any{
		"bleeding":       "none",
		"headache":       false,
		"fetal_movement": "normal",
		"weeks_pregnant": float64(20),
		"fever":          true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["risk_level"] != "YELLOW" {
		t.Errorf("risk_level = %v, want YELLOW", payload["risk_level"])
	}
	instructions, _ := payload["instructions"].(string)
	if !strings.Contains(instructions, "EXACTLY") {
		t.Errorf("instructions must demand verbatim delivery: %q", instructions)
	}
}

func TestCollectSymptoms_PersistsRecord(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	svc := triage.NewService(store, triage.NewEngine(), log.Nop(), nil, nil)
	tool := NewCollectSymptoms(svc, nil, "", nil, log.Nop())

	_, err := tool.Execute(context.Background(), Call{ID: "call-persist", CallerPhone: "+919999999999"}, map[string]any{
		"bleeding":       "none",
		"headache":       false,
		"fetal_movement": "normal",
		"weeks_pregnant": float64(12),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rec, ok, err := store.GetRecordByCallID(context.Background(), "call-persist")
	if err != nil || !ok {
		t.Fatalf("GetRecordByCallID: ok=%v err=%v", ok, err)
	}
	if rec.Verdict.Tier != triage.TierGreen {
		t.Errorf("tier = %q, want GREEN", rec.Verdict.Tier)
	}
	if rec.CallerPhone != "+919999999999" {
		t.Errorf("CallerPhone = %q", rec.CallerPhone)
	}
}
