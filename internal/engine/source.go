package engine

import (
	"time"

	"github.com/JackkySpice/surf.new/internal/events"
	"github.com/JackkySpice/surf.new/internal/ollama"
)

// SourceState is the dynamic model source's reconciliation state.
type SourceState int

const (
	// SourceIdle: the active provider is not the local runtime.
	SourceIdle SourceState = iota
	// SourceLoading: a fetch is outstanding; the selected model is left
	// unchanged even though it is not yet known to be valid.
	SourceLoading
	// SourceReady: the live list arrived and is in force.
	SourceReady
	// SourceError: the fetch failed; the static fallback list is in force
	// and the error message is exposed for display.
	SourceError
)

// String returns a display name for the state.
func (s SourceState) String() string {
	switch s {
	case SourceIdle:
		return "idle"
	case SourceLoading:
		return "loading"
	case SourceReady:
		return "ready"
	case SourceError:
		return "error"
	default:
		return "unknown"
	}
}

// SourceState returns the current reconciliation state.
func (e *Engine) SourceState() SourceState {
	return e.srcState
}

// SourceError returns the human-readable fetch failure message, if the
// source is in the error state.
func (e *Engine) SourceError() string {
	return e.srcErr
}

// Generation returns the current fetch generation. A fetch result is only
// applied when it carries the generation that armed it.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// reconcileSource aligns the dynamic-source state with the active provider.
// Entering the local-runtime provider (or re-entering it, or restarting on
// demand) arms a new fetch generation; leaving it invalidates any in-flight
// fetch so a stale response arriving later is discarded, not applied.
func (e *Engine) reconcileSource(restart bool) {
	if e.resolved.Provider != e.localProvider {
		if e.srcState != SourceIdle {
			e.generation++
			e.srcState = SourceIdle
			e.liveModels = nil
			e.fallback = nil
			e.srcErr = ""
		}
		return
	}

	if !restart && e.srcState != SourceIdle {
		return
	}

	// No caching across provider or agent switches: every entry re-fetches.
	e.generation++
	e.srcState = SourceLoading
	e.liveModels = nil
	e.fallback = e.staticFallback()
	e.srcErr = ""

	e.publish(events.ModelsLoadingEvent{
		Provider:   e.localProvider,
		Generation: e.generation,
		Timestamp:  time.Now(),
	})
}

// RefreshModels restarts the dynamic fetch for the active provider,
// superseding any fetch already in flight. It is a no-op when the active
// provider serves a static list.
func (e *Engine) RefreshModels() {
	e.reconcileSource(true)
}

// FetchPending reports whether a dynamic fetch should be issued, and for
// which generation. The caller runs the fetch (asynchronously, off the
// event loop) and feeds the outcome back through ResolveModelFetch with the
// same generation.
func (e *Engine) FetchPending() (uint64, bool) {
	if e.srcState == SourceLoading {
		return e.generation, true
	}
	return 0, false
}

// ResolveModelFetch applies a completed dynamic-model fetch. Results from a
// superseded generation are discarded: the provider (or agent) changed
// while the fetch was in flight, so the response no longer describes the
// active selection. On success, a selected model missing from the live list
// is replaced by the first fetched tag rather than left silently invalid.
// On failure the static fallback list is substituted and the selected model
// is not touched.
func (e *Engine) ResolveModelFetch(generation uint64, models []ollama.Model, fetchErr error) {
	if generation != e.generation || e.srcState != SourceLoading {
		e.log.Debug().
			Uint64("generation", generation).
			Uint64("current", e.generation).
			Msg("discarding stale model fetch result")
		return
	}

	if fetchErr != nil {
		e.srcState = SourceError
		e.srcErr = fetchErr.Error()
		e.fallback = e.staticFallback()
		e.log.Warn().Err(fetchErr).Msg("dynamic model fetch failed, using static fallback")
		e.publish(events.ModelsFailedEvent{
			Provider:  e.localProvider,
			Message:   e.srcErr,
			Fallback:  len(e.fallback),
			Timestamp: time.Now(),
		})
		return
	}

	e.srcState = SourceReady
	e.liveModels = models
	e.srcErr = ""

	if len(models) > 0 && !containsTag(models, e.resolved.Model) {
		e.resolved.Model = models[0].Tag
		e.publish(events.ModelChangedEvent{
			Model:      models[0].Tag,
			AutoPicked: true,
			Timestamp:  time.Now(),
		})
	}

	e.publish(events.ModelsResolvedEvent{
		Provider:  e.localProvider,
		Count:     len(models),
		Timestamp: time.Now(),
	})
}

// ModelOptions returns the model list to offer for the active provider.
// For static providers this is the catalog entry's list; for the local
// runtime it is the live list when ready, and the synthesized fallback
// while loading or after a failure.
func (e *Engine) ModelOptions() []ollama.Model {
	if e.resolved.Provider != e.localProvider {
		entry, ok := e.CurrentAgent().SupportFor(e.resolved.Provider)
		if !ok {
			return nil
		}
		models := make([]ollama.Model, len(entry.Models))
		for i, id := range entry.Models {
			models[i] = ollama.Model{Tag: id, Name: id}
		}
		return models
	}

	if e.srcState == SourceReady {
		return e.liveModels
	}
	return e.fallback
}

// staticFallback synthesizes a model list from the current agent's static
// entry for the local-runtime provider: tag and base name are both the
// catalog model identifier.
func (e *Engine) staticFallback() []ollama.Model {
	entry, ok := e.CurrentAgent().SupportFor(e.localProvider)
	if !ok {
		return nil
	}
	models := make([]ollama.Model, len(entry.Models))
	for i, id := range entry.Models {
		models[i] = ollama.Model{Tag: id, Name: id}
	}
	return models
}

func containsTag(models []ollama.Model, tag string) bool {
	for _, m := range models {
		if m.Tag == tag {
			return true
		}
	}
	return false
}
