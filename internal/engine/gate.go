package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JackkySpice/surf.new/internal/events"
	"github.com/JackkySpice/surf.new/internal/logging"
)

// ErrIncomplete is returned when the commit gate rejects a configuration
// with a required field absent. The store is left untouched.
var ErrIncomplete = errors.New("configuration incomplete")

// SettingsStore is the external settings service: one full Resolved
// configuration read and written as an opaque unit.
type SettingsStore interface {
	// Load returns the stored configuration, or ok=false when none exists.
	Load(ctx context.Context) (cfg *Resolved, ok bool, err error)
	// Save writes the configuration atomically and returns its revision id.
	Save(ctx context.Context, cfg Resolved) (revision string, err error)
}

// SessionResetter issues the two zero-argument resets after a successful
// commit: clear conversational state, then clear remote session state.
type SessionResetter interface {
	ClearConversation(ctx context.Context) error
	ReleaseRemote(ctx context.Context) error
}

// Gate validates and publishes a configuration. Either all required fields
// are present and the write proceeds, or nothing is written.
type Gate struct {
	store SettingsStore
	reset SessionResetter
	bus   *events.Bus
	log   *logging.Logger
}

// NewGate creates a commit gate. The resetter and bus may be nil.
func NewGate(store SettingsStore, reset SessionResetter, bus *events.Bus, log *logging.Logger) *Gate {
	if log == nil {
		log = logging.Nop()
	}
	return &Gate{store: store, reset: reset, bus: bus, log: log.Component("commit")}
}

// Commit validates cfg, merges previously stored credentials under the
// in-memory set, writes the whole configuration as one unit, and then
// unconditionally issues both session resets in order. Reset failures are
// logged, never reported to the caller: the commit already succeeded.
func (g *Gate) Commit(ctx context.Context, cfg Resolved) (string, error) {
	if fields := cfg.missing(); len(fields) > 0 {
		reason := strings.Join(fields, ", ")
		g.publish(events.CommitRejectedEvent{Reason: reason, Timestamp: time.Now()})
		return "", fmt.Errorf("%w: missing %s", ErrIncomplete, reason)
	}

	merged := cfg.Clone()
	stored, ok, err := g.store.Load(ctx)
	if err != nil {
		// Proceeding blind could wholesale-replace credentials the merge
		// contract promises to keep, so the commit fails with no effects.
		return "", fmt.Errorf("reading stored configuration: %w", err)
	}
	if ok {
		for provider, cred := range stored.Credentials {
			if _, have := merged.Credentials[provider]; !have {
				merged.Credentials[provider] = cred
			}
		}
	}

	revision, err := g.store.Save(ctx, merged)
	if err != nil {
		return "", fmt.Errorf("writing configuration: %w", err)
	}

	// Both resets fire unconditionally after a successful write, in order,
	// with no rollback if either fails.
	if g.reset != nil {
		if err := g.reset.ClearConversation(ctx); err != nil {
			g.log.Warn().Err(err).Msg("clearing conversation failed")
		}
		if err := g.reset.ReleaseRemote(ctx); err != nil {
			g.log.Warn().Err(err).Msg("releasing remote session failed")
		}
	}

	g.log.Info().
		Str("revision", revision).
		Str("agent", merged.Agent).
		Str("provider", merged.Provider).
		Str("model", merged.Model).
		Msg("configuration committed")

	g.publish(events.CommittedEvent{
		Revision:  revision,
		Agent:     merged.Agent,
		Provider:  merged.Provider,
		Model:     merged.Model,
		Timestamp: time.Now(),
	})
	return revision, nil
}

func (g *Gate) publish(event events.Event) {
	if g.bus != nil {
		g.bus.Publish(event)
	}
}
