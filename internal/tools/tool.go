// Package tools defines the function tools the in-call assistant can invoke
// against this server, and the registry that dispatches tool-call events.
package tools

import "context"

// Call carries per-call context a tool may need beyond its own parameters.
type Call struct {
	ID          string
	CallerPhone string
	ControlURL  string
}

// Tool is a capability exposed to the in-call assistant. Execute returns the
// result string relayed back to the voice platform; for spoken tools this is
// the text the assistant reads aloud.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the function parameters
	Execute(ctx context.Context, call Call, params map[string]any) (string, error)
}

// Registry holds available tools and converts them to the voice platform's
// function-tool definition format.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, keyed by its Name. Registration
// order is preserved in Defs.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name, returns the tool and whether it was found.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Defs returns the function-tool definitions in the shape the voice platform
// embeds in a transient assistant. Every tool posts to toolServerURL.
func (r *Registry) Defs(toolServerURL string) []map[string]any {
	out := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  t.Parameters(),
			},
			"server": map[string]any{
				"url": toolServerURL,
			},
		})
	}
	return out
}
