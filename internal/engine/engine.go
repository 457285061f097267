package engine

import (
	"fmt"
	"time"

	"github.com/JackkySpice/surf.new/internal/catalog"
	"github.com/JackkySpice/surf.new/internal/events"
	"github.com/JackkySpice/surf.new/internal/logging"
	"github.com/JackkySpice/surf.new/internal/ollama"
	"github.com/JackkySpice/surf.new/internal/params"
)

// DefaultLocalProvider is the provider whose model list is discovered from
// the local runtime instead of static catalog data.
const DefaultLocalProvider = "ollama"

// Engine is the selection cascade: it keeps the agent/provider/model triple
// consistent with the catalog, regenerates parameter mappings on agent
// switches, and reconciles the dynamic model source for the local-runtime
// provider. All mutation happens through its methods, one event at a time;
// it is not safe for concurrent use and does not need to be (the TUI event
// loop serializes calls).
type Engine struct {
	catalog       *catalog.Catalog
	bus           *events.Bus
	log           *logging.Logger
	localProvider string

	resolved Resolved

	// Dynamic model source reconciliation state.
	srcState   SourceState
	liveModels []ollama.Model
	fallback   []ollama.Model
	srcErr     string
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocalProvider overrides the provider identifier treated as the local
// runtime.
func WithLocalProvider(id string) Option {
	return func(e *Engine) { e.localProvider = id }
}

// New creates an engine over an immutable catalog. The bus may be nil when
// no observers are interested.
func New(cat *catalog.Catalog, bus *events.Bus, log *logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	e := &Engine{
		catalog:       cat,
		bus:           bus,
		log:           log.Component("engine"),
		localProvider: DefaultLocalProvider,
		srcState:      SourceIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Seed initializes the resolved configuration. A persisted configuration is
// used when it is still coherent with the catalog (its agent exists and its
// provider is among that agent's entries); otherwise seeding falls back to
// the first agent, its first provider, and that entry's first model, with
// schema defaults for both parameter sets. Stored credentials are inherited
// either way.
func (e *Engine) Seed(persisted *Resolved) {
	if persisted != nil {
		if agent, ok := e.catalog.Get(persisted.Agent); ok {
			if _, ok := agent.SupportFor(persisted.Provider); ok {
				e.seedFrom(agent, *persisted)
				return
			}
		}
		e.log.Warn().
			Str("agent", persisted.Agent).
			Str("provider", persisted.Provider).
			Msg("persisted configuration no longer matches catalog, reseeding from defaults")
	}

	agent := e.catalog.First()
	seed := Resolved{}
	if persisted != nil {
		seed.Credentials = persisted.Credentials
	}
	e.seedFrom(agent, seedDefaults(agent, seed.Credentials))
}

// seedDefaults builds a default Resolved for an agent, carrying creds over.
func seedDefaults(agent catalog.Agent, creds map[string]string) Resolved {
	entry := agent.Supported[0]
	return Resolved{
		Agent:       agent.Key,
		Provider:    entry.Provider,
		Model:       entry.Models[0],
		ModelValues: params.Defaults(agent.ModelSchema),
		AgentValues: params.Defaults(agent.AgentSchema),
		Credentials: creds,
	}
}

func (e *Engine) seedFrom(agent catalog.Agent, seed Resolved) {
	e.resolved = seed
	if e.resolved.Credentials == nil {
		e.resolved.Credentials = make(map[string]string)
	}

	// Persisted values may predate a schema change: regenerate defaults and
	// overlay only the keys the current schemas still know, clamped.
	e.resolved.ModelValues = overlay(agent.ModelSchema, seed.ModelValues)
	e.resolved.AgentValues = overlay(agent.AgentSchema, seed.AgentValues)

	if e.resolved.Model == "" {
		if entry, ok := agent.SupportFor(e.resolved.Provider); ok {
			e.resolved.Model = entry.Models[0]
		}
	}

	e.reconcileSource(true)
}

// overlay regenerates defaults for schema and applies the known subset of
// prior values on top.
func overlay(schema params.Schema, prior params.Values) params.Values {
	vals := params.Defaults(schema)
	for _, key := range prior.Keys() {
		if spec, ok := schema.Get(key); ok {
			if v, found := prior.Get(key); found && v.Kind == spec.Kind {
				vals.Set(schema, key, params.Clamp(spec, v))
			}
		}
	}
	return vals
}

// Resolved returns a copy of the configuration currently in force.
func (e *Engine) Resolved() Resolved {
	return e.resolved.Clone()
}

// Catalog returns the immutable agent catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// LocalProvider returns the local-runtime provider identifier.
func (e *Engine) LocalProvider() string {
	return e.localProvider
}

// CurrentAgent returns the descriptor for the selected agent.
func (e *Engine) CurrentAgent() catalog.Agent {
	agent, _ := e.catalog.Get(e.resolved.Agent)
	return agent
}

// SetAgent switches the active agent. The provider resets to the agent's
// first supported entry, the model to that entry's first model, and both
// parameter mappings are regenerated from the new agent's schema defaults.
// Prior values are not preserved, even for same-named keys.
func (e *Engine) SetAgent(key string) error {
	agent, ok := e.catalog.Get(key)
	if !ok {
		return fmt.Errorf("unknown agent %q", key)
	}

	entry := agent.Supported[0]
	e.resolved.Agent = key
	e.resolved.Provider = entry.Provider
	e.resolved.Model = entry.Models[0]
	e.resolved.ModelValues = params.Defaults(agent.ModelSchema)
	e.resolved.AgentValues = params.Defaults(agent.AgentSchema)

	e.publish(events.AgentChangedEvent{
		Agent:     key,
		Provider:  entry.Provider,
		Model:     entry.Models[0],
		Timestamp: time.Now(),
	})

	// An agent switch restarts the dynamic fetch when the new default
	// provider is again the local runtime; any in-flight fetch for the old
	// selection is invalidated either way.
	e.reconcileSource(true)
	return nil
}

// SetProvider switches the active provider within the current agent. The
// model resets to the entry's first model; parameter mappings are left
// untouched.
func (e *Engine) SetProvider(id string) error {
	agent := e.CurrentAgent()
	entry, ok := agent.SupportFor(id)
	if !ok {
		return fmt.Errorf("agent %q does not support provider %q", agent.Key, id)
	}

	restart := id != e.resolved.Provider
	e.resolved.Provider = id
	e.resolved.Model = entry.Models[0]

	e.publish(events.ProviderChangedEvent{
		Provider:  id,
		Model:     entry.Models[0],
		Timestamp: time.Now(),
	})

	e.reconcileSource(restart)
	return nil
}

// SetModel records the selected model. Any value is accepted at this layer:
// while a dynamic list is loading the valid set is unknown, so validation
// happens at render and commit time instead.
func (e *Engine) SetModel(id string) {
	if id == e.resolved.Model {
		return
	}
	e.resolved.Model = id
	e.publish(events.ModelChangedEvent{Model: id, Timestamp: time.Now()})
}

// SetModelParam updates one model-level parameter, clamped to its spec.
// Unknown keys are silently dropped (the agent-switch race).
func (e *Engine) SetModelParam(key string, v params.Value) {
	schema := e.CurrentAgent().ModelSchema
	if spec, ok := schema.Get(key); ok {
		v = params.Clamp(spec, v)
	}
	e.resolved.ModelValues.Set(schema, key, v)
}

// SetAgentParam updates one agent-level parameter, clamped to its spec.
func (e *Engine) SetAgentParam(key string, v params.Value) {
	schema := e.CurrentAgent().AgentSchema
	if spec, ok := schema.Get(key); ok {
		v = params.Clamp(spec, v)
	}
	e.resolved.AgentValues.Set(schema, key, v)
}

// SetCredential stores a credential for one provider, overwriting only that
// provider's entry. Credentials never leave the engine except inside the
// committed configuration.
func (e *Engine) SetCredential(provider, credential string) {
	if provider == "" {
		return
	}
	if e.resolved.Credentials == nil {
		e.resolved.Credentials = make(map[string]string)
	}
	e.resolved.Credentials[provider] = credential
}

// ClearCredential removes one provider's credential.
func (e *Engine) ClearCredential(provider string) {
	delete(e.resolved.Credentials, provider)
}

// Credential returns the stored credential for a provider.
func (e *Engine) Credential(provider string) (string, bool) {
	c, ok := e.resolved.Credentials[provider]
	return c, ok
}

func (e *Engine) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}
