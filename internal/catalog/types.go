package catalog

import (
	"errors"
	"fmt"

	"github.com/JackkySpice/surf.new/internal/params"
)

// ErrEmptyCatalog is returned when the catalog source yields no agents.
// Without at least one agent no configuration can be resolved.
var ErrEmptyCatalog = errors.New("catalog contains no agents")

// ModelSupport pairs a provider with the models an agent supports on it.
// Order of entries and of models within an entry is significant: the first
// entry is the agent's default provider, the first model its default model.
type ModelSupport struct {
	Provider string
	Models   []string
}

// Agent describes one selectable behavior profile: identity, supported
// provider/model combinations, and the two tunable-parameter schemas.
// Immutable once loaded.
type Agent struct {
	Key         string
	Name        string
	Description string
	Supported   []ModelSupport
	ModelSchema params.Schema
	AgentSchema params.Schema
}

// SupportFor returns the ModelSupport entry for a provider.
func (a Agent) SupportFor(provider string) (ModelSupport, bool) {
	for _, s := range a.Supported {
		if s.Provider == provider {
			return s, true
		}
	}
	return ModelSupport{}, false
}

// Catalog is the immutable set of available agents, in source order.
type Catalog struct {
	agents []Agent
	index  map[string]int
}

// New builds a catalog from agents in the given order. Every agent must
// have at least one supported provider with at least one model.
func New(agents []Agent) (*Catalog, error) {
	if len(agents) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{index: make(map[string]int, len(agents))}
	for _, a := range agents {
		if len(a.Supported) == 0 {
			return nil, fmt.Errorf("agent %q has no supported models", a.Key)
		}
		for _, s := range a.Supported {
			if len(s.Models) == 0 {
				return nil, fmt.Errorf("agent %q provider %q has no models", a.Key, s.Provider)
			}
		}
		if _, dup := c.index[a.Key]; dup {
			return nil, fmt.Errorf("duplicate agent key %q", a.Key)
		}
		c.index[a.Key] = len(c.agents)
		c.agents = append(c.agents, a)
	}
	return c, nil
}

// Agents returns all agents in catalog order.
func (c *Catalog) Agents() []Agent {
	return c.agents
}

// Get returns the agent for key.
func (c *Catalog) Get(key string) (Agent, bool) {
	i, ok := c.index[key]
	if !ok {
		return Agent{}, false
	}
	return c.agents[i], true
}

// First returns the first agent in catalog order, used for default seeding.
func (c *Catalog) First() Agent {
	return c.agents[0]
}

// Len returns the number of agents.
func (c *Catalog) Len() int {
	return len(c.agents)
}
