package engine

import (
	"github.com/JackkySpice/surf.new/internal/params"
)

// Resolved is the configuration actually in force: the agent/provider/model
// triple, the two parameter value mappings, and per-provider credentials.
// It is owned exclusively by the Engine; everything else reads copies or
// requests mutations through the Engine's entry points.
type Resolved struct {
	Agent       string            `json:"agent"`
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	ModelValues params.Values     `json:"model_settings"`
	AgentValues params.Values     `json:"agent_settings"`
	Credentials map[string]string `json:"credentials"`
}

// Clone returns an independent deep copy.
func (r Resolved) Clone() Resolved {
	out := r
	out.ModelValues = r.ModelValues.Clone()
	out.AgentValues = r.AgentValues.Clone()
	out.Credentials = make(map[string]string, len(r.Credentials))
	for k, v := range r.Credentials {
		out.Credentials[k] = v
	}
	return out
}

// missing returns the names of required fields that are absent. A complete
// configuration has all five: agent, provider, model, and both derived
// value mappings (an empty schema still counts as derived).
func (r Resolved) missing() []string {
	var fields []string
	if r.Agent == "" {
		fields = append(fields, "agent")
	}
	if r.Provider == "" {
		fields = append(fields, "provider")
	}
	if r.Model == "" {
		fields = append(fields, "model")
	}
	if !r.ModelValues.Initialized() {
		fields = append(fields, "model settings")
	}
	if !r.AgentValues.Initialized() {
		fields = append(fields, "agent settings")
	}
	return fields
}
