package events

import (
	"time"
)

// Event is the base interface for all engine events. Events carry their own
// topic so publishers cannot misfile them.
type Event interface {
	Topic() string
	EventType() string
}

// Topic constants
const (
	TopicSelection = "selection"
	TopicModels    = "models"
	TopicCommit    = "commit"
)

// Event type constants
const (
	EventTypeAgentChanged    = "selection.agent"
	EventTypeProviderChanged = "selection.provider"
	EventTypeModelChanged    = "selection.model"
	EventTypeModelsLoading   = "models.loading"
	EventTypeModelsResolved  = "models.resolved"
	EventTypeModelsFailed    = "models.failed"
	EventTypeCommitted       = "commit.done"
	EventTypeCommitRejected  = "commit.rejected"
)

// AgentChangedEvent is published after the cascade switches agents, with
// the re-derived provider and model.
type AgentChangedEvent struct {
	Agent     string
	Provider  string
	Model     string
	Timestamp time.Time
}

func (e AgentChangedEvent) Topic() string     { return TopicSelection }
func (e AgentChangedEvent) EventType() string { return EventTypeAgentChanged }

// ProviderChangedEvent is published after the cascade switches providers.
type ProviderChangedEvent struct {
	Provider  string
	Model     string
	Timestamp time.Time
}

func (e ProviderChangedEvent) Topic() string     { return TopicSelection }
func (e ProviderChangedEvent) EventType() string { return EventTypeProviderChanged }

// ModelChangedEvent is published when the selected model changes, whether
// by user choice or by an auto-select after a dynamic fetch.
type ModelChangedEvent struct {
	Model      string
	AutoPicked bool
	Timestamp  time.Time
}

func (e ModelChangedEvent) Topic() string     { return TopicSelection }
func (e ModelChangedEvent) EventType() string { return EventTypeModelChanged }

// ModelsLoadingEvent is published when a dynamic model fetch starts.
type ModelsLoadingEvent struct {
	Provider   string
	Generation uint64
	Timestamp  time.Time
}

func (e ModelsLoadingEvent) Topic() string     { return TopicModels }
func (e ModelsLoadingEvent) EventType() string { return EventTypeModelsLoading }

// ModelsResolvedEvent is published when a dynamic model fetch succeeds and
// its result is applied (stale responses never produce this event).
type ModelsResolvedEvent struct {
	Provider  string
	Count     int
	Timestamp time.Time
}

func (e ModelsResolvedEvent) Topic() string     { return TopicModels }
func (e ModelsResolvedEvent) EventType() string { return EventTypeModelsResolved }

// ModelsFailedEvent is published when a dynamic model fetch fails and the
// static fallback list is substituted.
type ModelsFailedEvent struct {
	Provider  string
	Message   string
	Fallback  int
	Timestamp time.Time
}

func (e ModelsFailedEvent) Topic() string     { return TopicModels }
func (e ModelsFailedEvent) EventType() string { return EventTypeModelsFailed }

// CommittedEvent is published after a successful commit.
type CommittedEvent struct {
	Revision  string
	Agent     string
	Provider  string
	Model     string
	Timestamp time.Time
}

func (e CommittedEvent) Topic() string     { return TopicCommit }
func (e CommittedEvent) EventType() string { return EventTypeCommitted }

// CommitRejectedEvent is published when the commit gate rejects an
// incomplete configuration.
type CommitRejectedEvent struct {
	Reason    string
	Timestamp time.Time
}

func (e CommitRejectedEvent) Topic() string     { return TopicCommit }
func (e CommitRejectedEvent) EventType() string { return EventTypeCommitRejected }
