package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JackkySpice/surf.new/internal/engine"
	"github.com/JackkySpice/surf.new/internal/params"
)

func testConfig() engine.Resolved {
	schema := params.NewSchema(
		params.Spec{Key: "temperature", Kind: params.KindFloat, Default: params.FloatValue(0.7)},
	)
	return engine.Resolved{
		Agent:       "browser_use",
		Provider:    "anthropic",
		Model:       "claude-3-7-sonnet-latest",
		ModelValues: params.Defaults(schema),
		AgentValues: params.Defaults(params.NewSchema()),
		Credentials: map[string]string{"anthropic": "sk-ant-test"},
	}
}

func TestLoadEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	cfg, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok || cfg != nil {
		t.Errorf("expected no stored configuration, got %#v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	want := testConfig()
	rev, err := store.Save(ctx, want)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rev == "" {
		t.Fatal("empty revision")
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Agent != want.Agent || got.Provider != want.Provider || got.Model != want.Model {
		t.Errorf("triple = %s/%s/%s", got.Agent, got.Provider, got.Model)
	}
	if v, found := got.ModelValues.Get("temperature"); !found || v.Float != 0.7 {
		t.Errorf("temperature = %#v, found=%v", v, found)
	}
	if got.Credentials["anthropic"] != "sk-ant-test" {
		t.Errorf("credential = %q", got.Credentials["anthropic"])
	}

	storedRev, err := store.Revision(ctx)
	if err != nil || storedRev != rev {
		t.Errorf("revision = %q (err %v), want %q", storedRev, err, rev)
	}
}

func TestSaveReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	first := testConfig()
	rev1, err := store.Save(ctx, first)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	second := testConfig()
	second.Provider = "openai"
	second.Model = "gpt-4o"
	rev2, err := store.Save(ctx, second)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rev1 == rev2 {
		t.Error("revision not refreshed on overwrite")
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Provider != "openai" || got.Model != "gpt-4o" {
		t.Errorf("stored config not replaced: %s/%s", got.Provider, got.Model)
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "settings.db")

	store, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.Save(ctx, testConfig()); err != nil {
		t.Fatalf("save on fresh file store: %v", err)
	}
}
