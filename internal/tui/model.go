package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JackkySpice/surf.new/internal/engine"
	"github.com/JackkySpice/surf.new/internal/events"
	"github.com/JackkySpice/surf.new/internal/logging"
	"github.com/JackkySpice/surf.new/internal/ollama"
)

const fetchTimeout = 30 * time.Second

// busEventMsg carries one event from the bus into the update loop.
type busEventMsg struct {
	event events.Event
}

// modelsFetchedMsg is the result of a dynamic model fetch. The generation
// ties the result to the fetch that produced it; the engine discards stale
// ones.
type modelsFetchedMsg struct {
	generation uint64
	models     []ollama.Model
	err        error
}

// commitDoneMsg is the result of a commit attempt.
type commitDoneMsg struct {
	revision string
	err      error
}

// Model is the root bubbletea model: the wizard on the left, a live summary
// of the resolved configuration on the right, and a status bar.
type Model struct {
	engine *engine.Engine
	gate   *engine.Gate
	bus    *events.Bus
	ollama *ollama.Client
	log    *logging.Logger

	wizard  WizardModel
	summary viewport.Model
	spin    spinner.Model

	eventCh <-chan events.Event

	// dispatchedGen is the last fetch generation handed to a command,
	// so a pending fetch is not issued twice.
	dispatchedGen uint64
	fetchInFlight bool

	lastCommit   string
	lastCommitAt time.Time
	commitErr    error

	width  int
	height int
	ready  bool
}

// NewModel wires the root TUI model.
func NewModel(eng *engine.Engine, gate *engine.Gate, bus *events.Bus, oc *ollama.Client, log *logging.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleSourceLoading

	return Model{
		engine:  eng,
		gate:    gate,
		bus:     bus,
		ollama:  oc,
		log:     log.Component("tui"),
		wizard:  NewWizard(eng),
		spin:    sp,
		eventCh: bus.SubscribeAll(64),
	}
}

// Init starts the wizard, the spinner, the bus pump, and any fetch the
// initial seeding armed.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.wizard.Init(), m.spin.Tick, m.waitForEvent()}
	if cmd, ok := m.dispatchFetch(); ok {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// waitForEvent blocks on the bus subscription and feeds the next event into
// the update loop.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eventCh
		if !ok {
			return nil
		}
		return busEventMsg{event: event}
	}
}

// dispatchFetch issues a model fetch for the pending generation, if one is
// armed and not already in flight.
func (m *Model) dispatchFetch() (tea.Cmd, bool) {
	gen, pending := m.engine.FetchPending()
	if !pending || (m.fetchInFlight && gen == m.dispatchedGen) {
		return nil, false
	}
	m.dispatchedGen = gen
	m.fetchInFlight = true

	client := m.ollama
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		models, err := client.ListModels(ctx)
		return modelsFetchedMsg{generation: gen, models: models, err: err}
	}, true
}

// commitCmd runs the commit gate off the update loop.
func (m Model) commitCmd() tea.Cmd {
	gate := m.gate
	cfg := m.engine.Resolved()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		revision, err := gate.Commit(ctx, cfg)
		return commitDoneMsg{revision: revision, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			return m, tea.Quit
		case KeyRefresh:
			m.engine.RefreshModels()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case busEventMsg:
		if msg.event != nil {
			m.log.Debug().
				Str("topic", msg.event.Topic()).
				Str("type", msg.event.EventType()).
				Msg("event")
		}
		m.refreshSummary()
		return m, m.waitForEvent()

	case modelsFetchedMsg:
		if msg.generation == m.dispatchedGen {
			m.fetchInFlight = false
		}
		m.engine.ResolveModelFetch(msg.generation, msg.models, msg.err)
		if cmd := m.wizard.RefreshModels(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.refreshSummary()
		return m, tea.Batch(cmds...)

	case commitDoneMsg:
		m.commitErr = msg.err
		if msg.err == nil {
			m.lastCommit = msg.revision
			m.lastCommitAt = time.Now()
			// Back to the first step for the next round of edits.
			cmds = append(cmds, m.wizard.Restart())
		}
		m.refreshSummary()
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.wizard, cmd = m.wizard.Update(msg)
	cmds = append(cmds, cmd)

	if m.wizard.TakeCommitRequest() {
		cmds = append(cmds, m.commitCmd())
	}

	// Stage changes can arm a fetch (agent or provider switched onto the
	// dynamic source).
	if fetchCmd, ok := m.dispatchFetch(); ok {
		cmds = append(cmds, fetchCmd)
	}

	m.refreshSummary()
	return m, tea.Batch(cmds...)
}

// layout splits the window between the wizard and the summary pane.
func (m *Model) layout() {
	if m.width <= 0 {
		return
	}
	paneHeight := m.height - 4
	if paneHeight < 3 {
		paneHeight = 3
	}
	wizardWidth := m.width * 3 / 5
	summaryWidth := m.width - wizardWidth - 4

	m.wizard.SetSize(wizardWidth, paneHeight)
	m.summary = viewport.New(summaryWidth, paneHeight)
	m.refreshSummary()
}

// refreshSummary re-renders the resolved configuration into the summary
// viewport.
func (m *Model) refreshSummary() {
	if m.summary.Width == 0 {
		return
	}
	m.summary.SetContent(m.summaryContent())
}

func (m *Model) summaryContent() string {
	r := m.engine.Resolved()

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Current configuration"))
	b.WriteString("\n\n")

	writeField := func(label, value string) {
		if value == "" {
			value = "(unset)"
		}
		b.WriteString(StyleLabel.Render(label+": ") + StyleValue.Render(value) + "\n")
	}

	agent := m.engine.CurrentAgent()
	writeField("Agent", agent.Name)
	writeField("Provider", r.Provider)
	writeField("Model", r.Model)

	if r.ModelValues.Len() > 0 {
		b.WriteString("\n" + StyleLabel.Render("Model settings") + "\n")
		for _, key := range r.ModelValues.Keys() {
			v, _ := r.ModelValues.Get(key)
			b.WriteString(fmt.Sprintf("  %s = %s\n", key, v.Display()))
		}
	}
	if r.AgentValues.Len() > 0 {
		b.WriteString("\n" + StyleLabel.Render("Agent settings") + "\n")
		for _, key := range r.AgentValues.Keys() {
			v, _ := r.AgentValues.Get(key)
			b.WriteString(fmt.Sprintf("  %s = %s\n", key, v.Display()))
		}
	}

	if _, ok := m.engine.Credential(r.Provider); ok {
		b.WriteString("\n" + StyleLabel.Render("API key: ") + StyleValue.Render("set") + "\n")
	}

	return b.String()
}

// sourceStatus renders the dynamic model source state for the status bar.
func (m Model) sourceStatus() string {
	switch m.engine.SourceState() {
	case engine.SourceLoading:
		return StyleSourceLoading.Render(m.spin.View() + "fetching local models")
	case engine.SourceReady:
		return StyleSourceReady.Render("local models: live")
	case engine.SourceError:
		return StyleSourceError.Render("local models unavailable (ctrl+r to retry)")
	default:
		return ""
	}
}

func (m Model) commitStatus() string {
	if m.commitErr != nil {
		return StyleCommitErr.Render("commit failed: " + m.commitErr.Error())
	}
	if m.lastCommit != "" {
		return StyleCommitOK.Render(fmt.Sprintf("committed %s at %s",
			shortRevision(m.lastCommit), m.lastCommitAt.Format("15:04:05")))
	}
	return ""
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	left := StyleFocusedBorder.Width(m.wizard.width).Render(m.wizard.View())
	right := StyleUnfocusedBorder.Width(m.summary.Width).Render(m.summary.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	status := make([]string, 0, 2)
	if s := m.sourceStatus(); s != "" {
		status = append(status, s)
	}
	if s := m.commitStatus(); s != "" {
		status = append(status, s)
	}
	bar := strings.Join(status, "  ")

	return panes + "\n" + bar + "\n" + StyleHelp.Render(HelpView())
}
