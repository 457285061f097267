package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JackkySpice/surf.new/internal/params"
)

// The catalog wire format is a JSON object mapping agent key to descriptor:
//
//	{
//	  "browser_use": {
//	    "name": "Browser Agent",
//	    "description": "...",
//	    "supported_models": [
//	      {"provider": "anthropic", "models": ["claude-3-7-sonnet-latest"]},
//	      {"provider": "ollama", "models": ["llama3.1"]}
//	    ],
//	    "model_settings": {
//	      "temperature": {"type": "float", "default": 0.7, "min": 0, "max": 1, "step": 0.05}
//	    },
//	    "agent_settings": { ... }
//	  },
//	  ...
//	}
//
// Object key order carries meaning (first agent is the seed default, schema
// order drives form layout), and encoding/json maps would destroy it, so
// parsing walks decoder tokens for every object whose order matters.

// wireDescriptor covers the fixed fields of an agent descriptor; the two
// settings objects stay raw so their key order can be recovered.
type wireDescriptor struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SupportedModels []wireSupport   `json:"supported_models"`
	ModelSettings   json.RawMessage `json:"model_settings"`
	AgentSettings   json.RawMessage `json:"agent_settings"`
}

type wireSupport struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

// wireSpec is one parameter spec as served by the catalog endpoint.
type wireSpec struct {
	Type        string          `json:"type"`
	Default     json.RawMessage `json:"default"`
	Min         *float64        `json:"min,omitempty"`
	Max         *float64        `json:"max,omitempty"`
	Step        *float64        `json:"step,omitempty"`
	MaxLength   int             `json:"maxLength,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Parse decodes a catalog payload, preserving agent and schema key order.
func Parse(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var agents []Agent
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		key := keyTok.(string)

		var wd wireDescriptor
		if err := dec.Decode(&wd); err != nil {
			return nil, fmt.Errorf("catalog: agent %q: %w", key, err)
		}

		agent, err := buildAgent(key, wd)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, fmt.Errorf("catalog: %w", err)
	}

	return New(agents)
}

func buildAgent(key string, wd wireDescriptor) (Agent, error) {
	agent := Agent{
		Key:         key,
		Name:        wd.Name,
		Description: wd.Description,
	}
	if agent.Name == "" {
		agent.Name = key
	}
	for _, s := range wd.SupportedModels {
		agent.Supported = append(agent.Supported, ModelSupport{
			Provider: s.Provider,
			Models:   s.Models,
		})
	}

	var err error
	if agent.ModelSchema, err = parseSchema(wd.ModelSettings); err != nil {
		return Agent{}, fmt.Errorf("catalog: agent %q model settings: %w", key, err)
	}
	if agent.AgentSchema, err = parseSchema(wd.AgentSettings); err != nil {
		return Agent{}, fmt.Errorf("catalog: agent %q agent settings: %w", key, err)
	}
	return agent, nil
}

// parseSchema walks a settings object token by token so that parameter
// order survives decoding. A nil/absent object yields an empty schema.
func parseSchema(raw json.RawMessage) (params.Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return params.NewSchema(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return params.Schema{}, err
	}

	var specs []params.Spec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return params.Schema{}, err
		}
		key := keyTok.(string)

		var ws wireSpec
		if err := dec.Decode(&ws); err != nil {
			return params.Schema{}, fmt.Errorf("parameter %q: %w", key, err)
		}

		spec, err := buildSpec(key, ws)
		if err != nil {
			return params.Schema{}, err
		}
		specs = append(specs, spec)
	}
	if _, err := dec.Token(); err != nil {
		return params.Schema{}, err
	}

	return params.NewSchema(specs...), nil
}

func buildSpec(key string, ws wireSpec) (params.Spec, error) {
	kind, err := params.ParseKind(ws.Type)
	if err != nil {
		return params.Spec{}, fmt.Errorf("parameter %q: %w", key, err)
	}

	spec := params.Spec{
		Key:         key,
		Kind:        kind,
		Min:         ws.Min,
		Max:         ws.Max,
		Step:        ws.Step,
		MaxLength:   ws.MaxLength,
		Description: ws.Description,
	}

	def, err := parseDefault(kind, ws.Default)
	if err != nil {
		return params.Spec{}, fmt.Errorf("parameter %q default: %w", key, err)
	}
	// The catalog is trusted for shape only; an out-of-bounds default is
	// saturated rather than rejected.
	spec.Default = params.Clamp(spec, def)
	return spec, nil
}

func parseDefault(kind params.Kind, raw json.RawMessage) (params.Value, error) {
	switch kind {
	case params.KindInteger:
		var i int64
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &i); err != nil {
				return params.Value{}, err
			}
		}
		return params.IntValue(i), nil
	case params.KindFloat:
		var f float64
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &f); err != nil {
				return params.Value{}, err
			}
		}
		return params.FloatValue(f), nil
	default:
		var s string
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &s); err != nil {
				return params.Value{}, err
			}
		}
		if kind == params.KindLongText {
			return params.LongTextValue(s), nil
		}
		return params.TextValue(s), nil
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
