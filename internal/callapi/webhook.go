package callapi

import (
	"encoding/json"
	"net/http"

	"github.com/linnemanlabs/matri/internal/tools"
)

// envelope is the outer shape of every voice-platform server message.
type envelope struct {
	Message message `json:"message"`
}

type message struct {
	Type                string             `json:"type"`
	Call                callInfo           `json:"call"`
	ToolCallList        []toolCall         `json:"toolCallList"`
	ToolWithToolCallLst []toolWithToolCall `json:"toolWithToolCallList"`
}

type callInfo struct {
	ID         string `json:"id"`
	ControlURL string `json:"controlUrl"`
	Customer   struct {
		Number string `json:"number"`
	} `json:"customer"`
	Monitor struct {
		ControlURL string `json:"controlUrl"`
	} `json:"monitor"`
}

// controlURL prefers the call-level field, where older platform payloads
// carry it, over the monitor object.
func (c *callInfo) controlURL() string {
	if c.ControlURL != "" {
		return c.ControlURL
	}
	return c.Monitor.ControlURL
}

// toolCall accepts both the flat and the OpenAI-style nested function
// layout the platform has emitted across versions. Arguments arrive as
// either a JSON object or a JSON-encoded string.
type toolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Function  *struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

func (tc *toolCall) name() string {
	if tc.Name != "" {
		return tc.Name
	}
	if tc.Function != nil {
		return tc.Function.Name
	}
	return ""
}

// toolWithToolCall is the other list layout the platform has emitted: the
// function name sits beside a toolCall object that carries parameters.
type toolWithToolCall struct {
	Name     string `json:"name"`
	ToolCall struct {
		ID         string          `json:"id"`
		Parameters json.RawMessage `json:"parameters"`
	} `json:"toolCall"`
}

// invocation is one tool call normalized out of whichever list layout the
// payload used.
type invocation struct {
	id     string
	name   string
	params map[string]any
}

func (m *message) invocations() []invocation {
	out := make([]invocation, 0, len(m.ToolCallList)+len(m.ToolWithToolCallLst))
	for i := range m.ToolCallList {
		tc := &m.ToolCallList[i]
		out = append(out, invocation{id: tc.ID, name: tc.name(), params: tc.params()})
	}
	for i := range m.ToolWithToolCallLst {
		t := &m.ToolWithToolCallLst[i]
		out = append(out, invocation{
			id:     t.ToolCall.ID,
			name:   t.Name,
			params: decodeParams(t.ToolCall.Parameters),
		})
	}
	return out
}

func (tc *toolCall) params() map[string]any {
	raw := tc.Arguments
	if len(raw) == 0 && tc.Function != nil {
		raw = tc.Function.Arguments
	}
	return decodeParams(raw)
}

func decodeParams(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err == nil {
		return params
	}

	// Arguments double-encoded as a string
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &params); err == nil {
			return params
		}
	}
	return map[string]any{}
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	msg := &env.Message
	if a.metrics != nil {
		a.metrics.WebhookEvents.WithLabelValues(msg.Type).Inc()
	}

	switch msg.Type {
	case "assistant-request":
		a.handleAssistantRequest(w, r, msg)
	case "tool-calls":
		a.handleToolCalls(w, r, msg)
	case "status-update", "end-of-call-report", "hang", "speech-update":
		a.ack(w, r, msg)
	default:
		a.logger.Warn(r.Context(), "unhandled webhook event", "type", msg.Type, "call_id", msg.Call.ID)
		a.ack(w, r, msg)
	}
}

func (a *API) handleToolCalls(w http.ResponseWriter, r *http.Request, msg *message) {
	call := tools.Call{
		ID:          msg.Call.ID,
		CallerPhone: msg.Call.Customer.Number,
		ControlURL:  msg.Call.controlURL(),
	}

	invocations := msg.invocations()
	results := make([]toolResult, 0, len(invocations))
	for _, inv := range invocations {
		tool, ok := a.registry.Get(inv.name)
		if !ok {
			a.logger.Warn(r.Context(), "unknown tool requested", "tool", inv.name, "call_id", call.ID)
			results = append(results, toolResult{ToolCallID: inv.id, Error: "unknown tool"})
			continue
		}

		out, err := tool.Execute(r.Context(), call, inv.params)
		if err != nil {
			a.logger.Error(r.Context(), err, "tool execution failed", "tool", inv.name, "call_id", call.ID)
			results = append(results, toolResult{ToolCallID: inv.id, Error: err.Error()})
			continue
		}
		results = append(results, toolResult{ToolCallID: inv.id, Result: out})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func (a *API) ack(w http.ResponseWriter, r *http.Request, msg *message) {
	a.logger.Info(r.Context(), "webhook event", "type", msg.Type, "call_id", msg.Call.ID)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}
