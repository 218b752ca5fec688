package callapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func postWebhook(t *testing.T, r chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/vapi/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResults(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	return out.Results
}

func TestWebhook_InvalidPayload(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	rec := postWebhook(t, r, "not json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestWebhook_AssistantRequest(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	rec := postWebhook(t, r, `{"message":{"type":"assistant-request","call":{"id":"call-1"}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var out struct {
		Assistant map[string]any `json:"assistant"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if out.Assistant == nil {
		t.Fatal("expected a transient assistant in the response")
	}

	first, _ := out.Assistant["firstMessage"].(string)
	if !strings.Contains(first, "1 dabayein") {
		t.Errorf("firstMessage = %q, want the consent prompt", first)
	}

	model, ok := out.Assistant["model"].(map[string]any)
	if !ok {
		t.Fatal("expected a model section")
	}
	toolDefs, ok := model["tools"].([]any)
	if !ok || len(toolDefs) != 2 {
		t.Fatalf("tools = %v, want record_consent and collect_symptoms", model["tools"])
	}

	first0 := toolDefs[0].(map[string]any)
	srv := first0["server"].(map[string]any)["url"].(string)
	if srv != "https://matri.example.com/vapi/tool" {
		t.Errorf("tool server url = %q, want base URL + /vapi/tool", srv)
	}
}

func TestWebhook_AssistantRequest_VoiceFallsBackWithoutTTS(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	rec := postWebhook(t, r, `{"message":{"type":"assistant-request"}}`)

	var out struct {
		Assistant map[string]any `json:"assistant"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	voice := out.Assistant["voice"].(map[string]any)
	if voice["provider"] != "sarvam" {
		t.Errorf("voice provider = %v, want sarvam fallback", voice["provider"])
	}
}

func TestWebhook_AssistantRequest_CustomVoiceWhenConfigured(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, &stubTTS{configured: true})
	rec := postWebhook(t, r, `{"message":{"type":"assistant-request"}}`)

	var out struct {
		Assistant map[string]any `json:"assistant"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	voice := out.Assistant["voice"].(map[string]any)
	if voice["provider"] != "custom-voice" {
		t.Errorf("voice provider = %v, want custom-voice", voice["provider"])
	}
	url := voice["server"].(map[string]any)["url"].(string)
	if url != "https://matri.example.com/vapi/voice" {
		t.Errorf("voice server url = %q, want base URL + /vapi/voice", url)
	}
}

func TestWebhook_ToolCalls_CollectSymptoms(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, nil)

	body := `{
		"message": {
			"type": "tool-calls",
			"call": {"id": "call-7", "customer": {"number": "+919876543210"}},
			"toolCallList": [{
				"id": "tc-1",
				"name": "collect_symptoms",
				"arguments": {
					"bleeding": "heavy",
					"headache": false,
					"fetal_movement": "normal",
					"weeks_pregnant": 30
				}
			}]
		}
	}`
	rec := postWebhook(t, r, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	results := decodeResults(t, rec)
	if len(results) != 1 {
		t.Fatalf("results count = %d, want 1", len(results))
	}
	if results[0]["toolCallId"] != "tc-1" {
		t.Errorf("toolCallId = %v, want tc-1", results[0]["toolCallId"])
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(results[0]["result"].(string)), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["risk_level"] != "RED" {
		t.Errorf("risk_level = %v, want RED for heavy bleeding", payload["risk_level"])
	}

	record, ok, err := store.GetRecordByCallID(context.Background(), "call-7")
	if err != nil || !ok {
		t.Fatalf("GetRecordByCallID: ok=%v err=%v", ok, err)
	}
	if record.CallerPhone != "+919876543210" {
		t.Errorf("caller phone = %q, want the customer number", record.CallerPhone)
	}
}

func TestWebhook_ToolCalls_NestedFunctionLayout(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, nil)

	body := `{
		"message": {
			"type": "tool-calls",
			"call": {"id": "call-8", "customer": {"number": "+911234567890"}},
			"toolCallList": [{
				"id": "tc-2",
				"function": {
					"name": "record_consent",
					"arguments": "{\"digit\": \"1\"}"
				}
			}]
		}
	}`
	rec := postWebhook(t, r, body)

	results := decodeResults(t, rec)
	if len(results) != 1 {
		t.Fatalf("results count = %d, want 1", len(results))
	}
	spoken, _ := results[0]["result"].(string)
	if !strings.Contains(spoken, "sehmati") {
		t.Errorf("result = %q, want consent acknowledgement", spoken)
	}

	if granted, ok := store.Consent("+911234567890"); !ok || !granted {
		t.Errorf("consent = %v ok=%v, want granted via the nested layout", granted, ok)
	}
}

func TestWebhook_ToolCalls_ToolWithToolCallListLayout(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, nil)

	body := `{
		"message": {
			"type": "tool-calls",
			"call": {"id": "call-12", "customer": {"number": "+918888888888"}},
			"toolWithToolCallList": [{
				"name": "collect_symptoms",
				"toolCall": {
					"id": "tc-5",
					"parameters": {
						"bleeding": "heavy",
						"headache": false,
						"fetal_movement": "normal",
						"weeks_pregnant": 28
					}
				}
			}]
		}
	}`
	rec := postWebhook(t, r, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	results := decodeResults(t, rec)
	if len(results) != 1 {
		t.Fatalf("results count = %d, want 1 (tool never dispatched)", len(results))
	}
	if results[0]["toolCallId"] != "tc-5" {
		t.Errorf("toolCallId = %v, want tc-5", results[0]["toolCallId"])
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(results[0]["result"].(string)), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["risk_level"] != "RED" {
		t.Errorf("risk_level = %v, want RED for heavy bleeding", payload["risk_level"])
	}

	if _, ok, err := store.GetRecordByCallID(context.Background(), "call-12"); err != nil || !ok {
		t.Errorf("record for call-12: ok=%v err=%v, want persisted", ok, err)
	}
}

func TestWebhook_ToolCalls_ConsentViaToolWithToolCallList(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, nil)

	body := `{
		"message": {
			"type": "tool-calls",
			"call": {"id": "call-13", "customer": {"number": "+916000000000"}},
			"toolWithToolCallList": [{
				"name": "record_consent",
				"toolCall": {"id": "tc-6", "parameters": {"digit": "2"}}
			}]
		}
	}`
	rec := postWebhook(t, r, body)

	results := decodeResults(t, rec)
	if len(results) != 1 {
		t.Fatalf("results count = %d, want 1", len(results))
	}
	spoken, _ := results[0]["result"].(string)
	if !strings.Contains(spoken, "record nahi") {
		t.Errorf("result = %q, want decline acknowledgement", spoken)
	}
	if granted, ok := store.Consent("+916000000000"); !ok || granted {
		t.Errorf("consent = %v ok=%v, want declined", granted, ok)
	}
}

func TestCallInfo_ControlURLLocations(t *testing.T) {
	t.Parallel()

	var top callInfo
	if err := json.Unmarshal([]byte(`{"id":"c","controlUrl":"https://ctrl.example.com/top"}`), &top); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := top.controlURL(); got != "https://ctrl.example.com/top" {
		t.Errorf("controlURL = %q, want the call-level field", got)
	}

	var nested callInfo
	if err := json.Unmarshal([]byte(`{"id":"c","monitor":{"controlUrl":"https://ctrl.example.com/monitor"}}`), &nested); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := nested.controlURL(); got != "https://ctrl.example.com/monitor" {
		t.Errorf("controlURL = %q, want the monitor field", got)
	}
}

func TestWebhook_ToolCalls_UnknownTool(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)

	body := `{
		"message": {
			"type": "tool-calls",
			"call": {"id": "call-9"},
			"toolCallList": [{"id": "tc-3", "name": "launch_rocket", "arguments": {}}]
		}
	}`
	rec := postWebhook(t, r, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	results := decodeResults(t, rec)
	if len(results) != 1 {
		t.Fatalf("results count = %d, want 1", len(results))
	}
	if results[0]["error"] != "unknown tool" {
		t.Errorf("error = %v, want unknown tool", results[0]["error"])
	}
}

func TestWebhook_StatusUpdateAcked(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)

	for _, typ := range []string{"status-update", "end-of-call-report", "some-future-event"} {
		rec := postWebhook(t, r, `{"message":{"type":"`+typ+`","call":{"id":"call-10"}}}`)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", typ, rec.Code, http.StatusOK)
		}
		if strings.TrimSpace(rec.Body.String()) != "{}" {
			t.Errorf("%s: body = %q, want empty ack", typ, rec.Body.String())
		}
	}
}

func TestWebhook_ToolEndpointDispatchesToo(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)

	body := `{
		"message": {
			"type": "tool-calls",
			"call": {"id": "call-11", "customer": {"number": "+917777777777"}},
			"toolCallList": [{
				"id": "tc-4",
				"name": "collect_symptoms",
				"arguments": {"bleeding": "none", "headache": false, "fetal_movement": "normal", "weeks_pregnant": 12}
			}]
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/vapi/tool", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	results := decodeResults(t, rec)
	var payload map[string]any
	if err := json.Unmarshal([]byte(results[0]["result"].(string)), &payload); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if payload["risk_level"] != "GREEN" {
		t.Errorf("risk_level = %v, want GREEN with no symptoms", payload["risk_level"])
	}
}
