package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/JackkySpice/surf.new/internal/params"
)

// spyStore records writes so tests can assert on zero-write rejection.
type spyStore struct {
	stored  *Resolved
	loadErr error
	saveErr error
	saves   int
	saved   Resolved
}

func (s *spyStore) Load(ctx context.Context) (*Resolved, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	if s.stored == nil {
		return nil, false, nil
	}
	cfg := s.stored.Clone()
	return &cfg, true, nil
}

func (s *spyStore) Save(ctx context.Context, cfg Resolved) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saves++
	s.saved = cfg
	return "rev-1", nil
}

// spyResetter records the order of the two reset calls.
type spyResetter struct {
	calls    []string
	convoErr error
}

func (s *spyResetter) ClearConversation(ctx context.Context) error {
	s.calls = append(s.calls, "conversation")
	return s.convoErr
}

func (s *spyResetter) ReleaseRemote(ctx context.Context) error {
	s.calls = append(s.calls, "remote")
	return nil
}

func completeConfig() Resolved {
	return Resolved{
		Agent:       "writer",
		Provider:    "openai",
		Model:       "gpt-4",
		ModelValues: params.Defaults(params.NewSchema()),
		AgentValues: params.Defaults(params.NewSchema()),
		Credentials: map[string]string{"openai": "sk-new"},
	}
}

func TestCommitWritesAndResetsInOrder(t *testing.T) {
	store := &spyStore{}
	reset := &spyResetter{}
	gate := NewGate(store, reset, nil, nil)

	rev, err := gate.Commit(context.Background(), completeConfig())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rev != "rev-1" {
		t.Errorf("revision = %q", rev)
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
	if len(reset.calls) != 2 || reset.calls[0] != "conversation" || reset.calls[1] != "remote" {
		t.Errorf("reset calls = %v, want [conversation remote]", reset.calls)
	}
}

func TestCommitRejectsIncomplete(t *testing.T) {
	base := completeConfig()

	tests := []struct {
		name   string
		mutate func(*Resolved)
	}{
		{"missing agent", func(r *Resolved) { r.Agent = "" }},
		{"missing provider", func(r *Resolved) { r.Provider = "" }},
		{"missing model", func(r *Resolved) { r.Model = "" }},
		{"missing model values", func(r *Resolved) { r.ModelValues = params.Values{} }},
		{"missing agent values", func(r *Resolved) { r.AgentValues = params.Values{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &spyStore{}
			reset := &spyResetter{}
			gate := NewGate(store, reset, nil, nil)

			cfg := base.Clone()
			tt.mutate(&cfg)

			_, err := gate.Commit(context.Background(), cfg)
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("err = %v, want ErrIncomplete", err)
			}
			if store.saves != 0 {
				t.Errorf("rejected commit wrote %d times", store.saves)
			}
			if len(reset.calls) != 0 {
				t.Errorf("rejected commit issued resets: %v", reset.calls)
			}
		})
	}
}

func TestCommitMergesStoredCredentials(t *testing.T) {
	prior := completeConfig()
	prior.Credentials = map[string]string{
		"openai":    "sk-old",
		"anthropic": "sk-kept",
	}
	store := &spyStore{stored: &prior}
	gate := NewGate(store, &spyResetter{}, nil, nil)

	if _, err := gate.Commit(context.Background(), completeConfig()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// In-memory wins per key; stored-only keys survive the write.
	if store.saved.Credentials["openai"] != "sk-new" {
		t.Errorf("openai = %q, want in-memory value", store.saved.Credentials["openai"])
	}
	if store.saved.Credentials["anthropic"] != "sk-kept" {
		t.Errorf("anthropic = %q, want stored value preserved", store.saved.Credentials["anthropic"])
	}
}

func TestCommitResetFailureNotSurfaced(t *testing.T) {
	store := &spyStore{}
	reset := &spyResetter{convoErr: errors.New("boom")}
	gate := NewGate(store, reset, nil, nil)

	if _, err := gate.Commit(context.Background(), completeConfig()); err != nil {
		t.Fatalf("reset failure leaked: %v", err)
	}
	// The second reset still fired.
	if len(reset.calls) != 2 {
		t.Errorf("reset calls = %v, want both despite first failing", reset.calls)
	}
}

func TestCommitStoreErrorsAbort(t *testing.T) {
	t.Run("load error", func(t *testing.T) {
		store := &spyStore{loadErr: errors.New("db locked")}
		reset := &spyResetter{}
		gate := NewGate(store, reset, nil, nil)
		if _, err := gate.Commit(context.Background(), completeConfig()); err == nil {
			t.Fatal("expected error")
		}
		if store.saves != 0 || len(reset.calls) != 0 {
			t.Error("failed load still produced external effects")
		}
	})
	t.Run("save error", func(t *testing.T) {
		store := &spyStore{saveErr: errors.New("disk full")}
		reset := &spyResetter{}
		gate := NewGate(store, reset, nil, nil)
		if _, err := gate.Commit(context.Background(), completeConfig()); err == nil {
			t.Fatal("expected error")
		}
		if len(reset.calls) != 0 {
			t.Error("failed write still issued resets")
		}
	})
}
