package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/JackkySpice/surf.new/internal/engine"
	"github.com/JackkySpice/surf.new/internal/params"
)

// Stage identifies one step of the configuration wizard.
type Stage int

const (
	StageAgent Stage = iota
	StageProvider
	StageModel
	StageModelParams
	StageAgentParams
	StageCredentials
	StageReview
)

// Title returns the heading for a stage.
func (s Stage) Title() string {
	switch s {
	case StageAgent:
		return "Agent"
	case StageProvider:
		return "Provider"
	case StageModel:
		return "Model"
	case StageModelParams:
		return "Model Settings"
	case StageAgentParams:
		return "Agent Settings"
	case StageCredentials:
		return "API Key"
	case StageReview:
		return "Review & Commit"
	default:
		return ""
	}
}

// paramField binds one parameter's form input to its spec.
type paramField struct {
	spec params.Spec
	text string
}

// WizardModel walks the user through the selection cascade one stage at a
// time. Every edit goes through the engine's entry points; the wizard never
// touches the resolved configuration directly.
type WizardModel struct {
	engine *engine.Engine

	stage Stage
	form  *huh.Form

	// Form field bindings
	agentKey    string
	providerID  string
	modelID     string
	modelParams []*paramField
	agentParams []*paramField
	credential  string
	confirmed   bool

	// commitRequested is set when the review stage completes; the root
	// model picks it up and runs the commit as a command.
	commitRequested bool

	width  int
	height int
}

// NewWizard creates a wizard over the engine, starting at agent selection.
func NewWizard(eng *engine.Engine) WizardModel {
	w := WizardModel{engine: eng}
	w.syncFromEngine()
	w.buildForm()
	return w
}

// syncFromEngine refreshes the form bindings from the resolved config.
func (w *WizardModel) syncFromEngine() {
	r := w.engine.Resolved()
	w.agentKey = r.Agent
	w.providerID = r.Provider
	w.modelID = r.Model

	agent := w.engine.CurrentAgent()
	w.modelParams = bindParams(agent.ModelSchema, r.ModelValues)
	w.agentParams = bindParams(agent.AgentSchema, r.AgentValues)

	if cred, ok := w.engine.Credential(r.Provider); ok {
		w.credential = cred
	} else {
		w.credential = ""
	}
	w.confirmed = false
}

func bindParams(schema params.Schema, values params.Values) []*paramField {
	fields := make([]*paramField, 0, schema.Len())
	for _, spec := range schema.Specs() {
		v, _ := values.Get(spec.Key)
		fields = append(fields, &paramField{spec: spec, text: v.Display()})
	}
	return fields
}

// buildForm constructs the huh form for the current stage. Forms are
// rebuilt whenever the stage or the option sets change; huh forms are
// otherwise static.
func (w *WizardModel) buildForm() {
	var group *huh.Group

	switch w.stage {
	case StageAgent:
		opts := make([]huh.Option[string], 0, w.engine.Catalog().Len())
		for _, agent := range w.engine.Catalog().Agents() {
			label := agent.Name
			if agent.Description != "" {
				label = fmt.Sprintf("%s: %s", agent.Name, agent.Description)
			}
			opts = append(opts, huh.NewOption(label, agent.Key))
		}
		group = huh.NewGroup(
			huh.NewSelect[string]().
				Key("agent").
				Title("Agent").
				Options(opts...).
				Value(&w.agentKey),
		)

	case StageProvider:
		agent := w.engine.CurrentAgent()
		opts := make([]huh.Option[string], 0, len(agent.Supported))
		for _, entry := range agent.Supported {
			opts = append(opts, huh.NewOption(entry.Provider, entry.Provider))
		}
		group = huh.NewGroup(
			huh.NewSelect[string]().
				Key("provider").
				Title("Provider").
				Options(opts...).
				Value(&w.providerID),
		)

	case StageModel:
		models := w.engine.ModelOptions()
		opts := make([]huh.Option[string], 0, len(models))
		for _, m := range models {
			label := m.Name
			if m.Tag != m.Name {
				label = fmt.Sprintf("%s (%s)", m.Name, m.Tag)
			}
			opts = append(opts, huh.NewOption(label, m.Tag))
		}
		// The selected model may not be in the list yet (dynamic source
		// still loading or failed); offer it so the selection is visible.
		if w.modelID != "" && !hasOption(opts, w.modelID) {
			opts = append(opts, huh.NewOption(w.modelID, w.modelID))
		}
		group = huh.NewGroup(
			huh.NewSelect[string]().
				Key("model").
				Title("Model").
				Options(opts...).
				Value(&w.modelID),
		)

	case StageModelParams:
		group = paramGroup(w.modelParams)

	case StageAgentParams:
		group = paramGroup(w.agentParams)

	case StageCredentials:
		group = huh.NewGroup(
			huh.NewInput().
				Key("credential").
				Title(fmt.Sprintf("API key for %s", w.providerID)).
				EchoMode(huh.EchoModePassword).
				Placeholder("leave empty to keep / skip").
				Value(&w.credential),
		)

	case StageReview:
		group = huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title("Commit this configuration?").
				Description("Committing saves the configuration and resets the current session.").
				Affirmative("Commit").
				Negative("Back").
				Value(&w.confirmed),
		)
	}

	w.form = huh.NewForm(group).
		WithWidth(w.width).
		WithShowHelp(false)
}

// paramGroup builds one input per parameter spec. Numeric fields validate
// parseability only: out-of-range input is saturated by the engine's clamp,
// not rejected here.
func paramGroup(fields []*paramField) *huh.Group {
	if len(fields) == 0 {
		return huh.NewGroup(
			huh.NewConfirm().
				Title("No tunables for this selection").
				Affirmative("Continue").
				Negative("Continue"),
		)
	}

	inputs := make([]huh.Field, 0, len(fields))
	for _, f := range fields {
		field := f
		input := huh.NewInput().
			Key(field.spec.Key).
			Title(paramTitle(field.spec)).
			Description(field.spec.Description).
			Value(&field.text)
		if field.spec.Kind.IsNumeric() {
			input = input.Validate(func(s string) error {
				return validateNumeric(field.spec.Kind, s)
			})
		} else if field.spec.MaxLength > 0 {
			input = input.CharLimit(field.spec.MaxLength)
		}
		inputs = append(inputs, input)
	}
	return huh.NewGroup(inputs...)
}

func paramTitle(spec params.Spec) string {
	title := spec.Key
	if spec.Bounded() {
		title = fmt.Sprintf("%s (%s to %s)", spec.Key,
			strconv.FormatFloat(*spec.Min, 'g', -1, 64),
			strconv.FormatFloat(*spec.Max, 'g', -1, 64))
	}
	return title
}

func validateNumeric(kind params.Kind, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("a value is required")
	}
	if kind == params.KindInteger {
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return fmt.Errorf("not a whole number")
		}
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("not a number")
	}
	return nil
}

func hasOption(opts []huh.Option[string], value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Init initializes the wizard's current form.
func (w WizardModel) Init() tea.Cmd {
	return w.form.Init()
}

// Update handles messages for the wizard. Completing a stage applies its
// edits through the engine and advances; esc steps back.
func (w WizardModel) Update(msg tea.Msg) (WizardModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == KeyEsc {
		if w.stage > StageAgent {
			w.stage--
			w.syncFromEngine()
			w.buildForm()
			return w, w.form.Init()
		}
		return w, nil
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		w = w.applyStage()
		return w, tea.Batch(cmd, w.form.Init())
	}

	return w, cmd
}

// applyStage pushes the completed stage's values into the engine and moves
// to the next stage.
func (w WizardModel) applyStage() WizardModel {
	switch w.stage {
	case StageAgent:
		// A failed SetAgent leaves the prior selection in force; the form
		// only offers catalog keys so this does not happen in practice.
		_ = w.engine.SetAgent(w.agentKey)

	case StageProvider:
		_ = w.engine.SetProvider(w.providerID)

	case StageModel:
		w.engine.SetModel(w.modelID)

	case StageModelParams:
		for _, f := range w.modelParams {
			if v, err := parseParam(f.spec, f.text); err == nil {
				w.engine.SetModelParam(f.spec.Key, v)
			}
		}

	case StageAgentParams:
		for _, f := range w.agentParams {
			if v, err := parseParam(f.spec, f.text); err == nil {
				w.engine.SetAgentParam(f.spec.Key, v)
			}
		}

	case StageCredentials:
		if cred := strings.TrimSpace(w.credential); cred != "" {
			w.engine.SetCredential(w.providerID, cred)
		}

	case StageReview:
		if w.confirmed {
			w.commitRequested = true
		} else {
			w.stage = StageAgent
		}
		w.syncFromEngine()
		w.buildForm()
		return w
	}

	w.stage++
	w.syncFromEngine()
	w.buildForm()
	return w
}

// parseParam converts form text back into a typed value.
func parseParam(spec params.Spec, text string) (params.Value, error) {
	text = strings.TrimSpace(text)
	switch spec.Kind {
	case params.KindInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return params.Value{}, err
		}
		return params.IntValue(i), nil
	case params.KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return params.Value{}, err
		}
		return params.FloatValue(f), nil
	case params.KindLongText:
		return params.LongTextValue(text), nil
	default:
		return params.TextValue(text), nil
	}
}

// TakeCommitRequest reports and clears the pending commit flag.
func (w *WizardModel) TakeCommitRequest() bool {
	requested := w.commitRequested
	w.commitRequested = false
	return requested
}

// RefreshModels rebuilds the model stage after a dynamic fetch resolves, so
// the option list reflects the live (or fallback) models.
func (w *WizardModel) RefreshModels() tea.Cmd {
	if w.stage != StageModel {
		return nil
	}
	w.syncFromEngine()
	w.buildForm()
	return w.form.Init()
}

// Restart sends the wizard back to the first stage, re-reading the engine.
func (w *WizardModel) Restart() tea.Cmd {
	w.stage = StageAgent
	w.syncFromEngine()
	w.buildForm()
	return w.form.Init()
}

// Stage returns the current stage.
func (w WizardModel) Stage() Stage {
	return w.stage
}

// SetSize updates the wizard dimensions.
func (w *WizardModel) SetSize(width, height int) {
	w.width = width
	w.height = height
	if w.form != nil {
		w.form = w.form.WithWidth(width)
	}
}

// View renders the current stage.
func (w WizardModel) View() string {
	title := StyleTitle.Render(fmt.Sprintf("Step %d/7: %s", int(w.stage)+1, w.stage.Title()))
	return title + "\n" + w.form.View()
}
