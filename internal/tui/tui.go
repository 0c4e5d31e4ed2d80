package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/chaotic-adventures/internal/engine"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/prompts"
	"github.com/tatianab/chaotic-adventures/internal/provider"
	"github.com/tatianab/chaotic-adventures/internal/tier"
)

type sessionState int

const (
	stateInputName sessionState = iota
	stateInputChaos
	stateLoading
	statePlaying
	stateFinished
	stateError
)

const defaultChaos = 5

// Options configure the terminal front end.
type Options struct {
	// Provider describes the generation chain for the side panel.
	Provider provider.Info
	// SaveDir receives the session document after every turn. Empty
	// disables saving.
	SaveDir string
	// Resume continues a saved session instead of starting a new one.
	Resume *models.Session
	Logger *slog.Logger
}

type model struct {
	state      sessionState
	engine     *engine.Engine
	opts       Options
	playerName string
	textInput  textinput.Model
	viewport   viewport.Model
	err        error
	gameLog    string
	notice     string
	width      int
	height     int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87D7AF"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(eng *engine.Engine, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Your name, adventurer..."
	ti.Focus()
	ti.CharLimit = 50
	ti.Width = 40

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := model{
		state:     stateInputName,
		engine:    eng,
		opts:      opts,
		textInput: ti,
	}
	if opts.Resume != nil {
		m.state = stateLoading
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.opts.Resume != nil {
		return tea.Batch(textinput.Blink, m.resume(m.opts.Resume))
	}
	return textinput.Blink
}

type turnMsg struct {
	result engine.TurnResult
	err    error
}

type resumedMsg struct {
	err error
}

type summaryMsg struct {
	summary engine.Summary
	err     error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.submit(strings.TrimSpace(m.textInput.Value()))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 8
		m.viewport.SetContent(m.renderLog())

	case turnMsg:
		if errors.Is(msg.err, prompts.ErrInvalidPlayerName) || errors.Is(msg.err, engine.ErrInvalidChaosLevel) {
			m.notice = msg.err.Error()
			m.state = stateInputName
			m.textInput.Placeholder = "Your name, adventurer..."
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.showTurn(msg.result)
		m.save()
		return m, nil

	case resumedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.ensureViewport()
		m.appendLog(gameStyle.Bold(true).Render("Welcome back, " + m.engine.Session().PlayerName + "."))
		m.showChoices(m.engine.Choices())
		m.state = statePlaying
		if m.engine.State() == engine.StateGameOver {
			m.state = stateFinished
		}
		m.textInput.Placeholder = "Pick a choice number or a command"
		return m, nil

	case summaryMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.appendLog(titleStyle.Render("THE TALE SO FAR") + "\n\n" + gameStyle.Width(m.logWidth()).Render(msg.summary.Text))
		m.notice = fmt.Sprintf("%d memories of this adventure will echo in future ones.", len(msg.summary.Memories))
		m.state = stateFinished
		m.textInput.Placeholder = "/restart or /quit"
		return m, nil
	}

	if m.state == stateInputName || m.state == stateInputChaos || m.state == statePlaying || m.state == stateFinished {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) submit(input string) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateInputName:
		if input == "" {
			return m, nil
		}
		m.playerName = input
		m.state = stateInputChaos
		m.textInput.Reset()
		m.textInput.Placeholder = fmt.Sprintf("Chaos level 1-10 (default %d)", defaultChaos)
		return m, nil

	case stateInputChaos:
		chaos := defaultChaos
		if input != "" {
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > 10 {
				m.notice = "Chaos level must be a number from 1 to 10."
				m.textInput.Reset()
				return m, nil
			}
			chaos = n
		}
		m.textInput.Reset()
		m.notice = ""
		m.state = stateLoading
		return m, m.start(m.playerName, chaos)

	case statePlaying, stateFinished:
		m.textInput.Reset()
		m.notice = ""
		return m.command(input)
	}
	return m, nil
}

func (m model) command(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "":
		return m, nil
	case "/quit":
		return m, tea.Quit
	case "/restart":
		m.state = stateInputName
		m.gameLog = ""
		m.playerName = ""
		m.textInput.Placeholder = "Your name, adventurer..."
		return m, nil
	case "/summary":
		m.state = stateLoading
		over := m.engine.State() == engine.StateGameOver
		return m, m.summarize(over)
	case "/upgrade":
		up, err := m.engine.RedeemUpgrade()
		switch {
		case errors.Is(err, tier.ErrNoUpgradeCredit):
			m.notice = "No upgrades available yet. Keep playing to earn points."
		case errors.Is(err, tier.ErrMaxTier):
			m.notice = "Your narrator is already at the highest tier."
		case err != nil:
			m.notice = err.Error()
		default:
			m.notice = fmt.Sprintf("Narrator upgraded from %s to %s!", up.OldTier, up.NewTier)
			m.save()
		}
		return m, nil
	}

	if m.state == stateFinished {
		m.notice = "The adventure is over. Try /summary, /restart or /quit."
		return m, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		m.notice = "Type the number of a choice, or a command."
		return m, nil
	}
	m.state = stateLoading
	return m, m.resolve(n - 1)
}

func (m *model) showTurn(res engine.TurnResult) {
	m.ensureViewport()
	switch res.Outcome {
	case engine.OutcomeInvalidChoice, engine.OutcomeClosed:
		m.notice = res.Text
		m.state = statePlaying
		if res.Outcome == engine.OutcomeClosed {
			m.state = stateFinished
		}
		return
	}
	if res.Choice != "" {
		m.appendLog(userStyle.Width(m.logWidth()).Render("> " + res.Choice))
	}
	m.appendLog(gameStyle.Width(m.logWidth()).Render(res.Text))
	if res.Outcome == engine.OutcomeGameOver {
		m.state = stateFinished
		m.textInput.Placeholder = "/summary, /restart or /quit"
		return
	}
	m.showChoices(res.Choices)
	m.state = statePlaying
	m.textInput.Placeholder = "Pick a choice number or a command"
}

func (m *model) showChoices(choices []string) {
	var b strings.Builder
	for i, c := range choices {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	m.appendLog(choiceStyle.Width(m.logWidth()).Render(strings.TrimRight(b.String(), "\n")))
}

func (m *model) appendLog(s string) {
	m.gameLog += s + "\n\n"
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

func (m *model) ensureViewport() {
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(m.logWidth(), max(m.height-8, 10))
	}
}

func (m *model) save() {
	s := m.engine.Session()
	if m.opts.SaveDir == "" || s == nil {
		return
	}
	if _, err := models.SaveSession(m.opts.SaveDir, s); err != nil {
		m.opts.Logger.Warn("failed to save session", "session", s.ID, "error", err)
	}
}

func (m model) logWidth() int {
	if m.width == 0 {
		return 80
	}
	return int(float64(m.width) * 0.72)
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateInputName:
		s = fmt.Sprintf(
			"Welcome to Chaotic Adventures!\n\n%s\n\n%s",
			"What should the narrator call you?",
			m.textInput.View(),
		)

	case stateInputChaos:
		s = fmt.Sprintf(
			"How much chaos can you handle, %s?\n\n%s",
			m.playerName,
			m.textInput.View(),
		)

	case stateLoading:
		if m.gameLog == "" {
			s = "\n  The narrator is gathering their thoughts... please wait.\n"
		} else {
			s = lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderState()) +
				"\n\n" + helpStyle.Render("The narrator is thinking...")
		}

	case statePlaying, stateFinished:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		help := helpStyle.Render("Commands: 1-4 to choose, /upgrade, /summary, /restart, /quit")
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.textInput.View(),
			"\n"+help,
		)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	if m.notice != "" && m.state != stateError {
		s += "\n" + noticeStyle.Render(m.notice)
	}
	return "\n" + s + "\n"
}

func (m model) renderState() string {
	s := m.engine.Session()
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ADVENTURER") + "\n")
	fmt.Fprintf(&b, "%s\nChaos: %d/10\n\n", s.PlayerName, s.ChaosLevel)

	b.WriteString(titleStyle.Render("NARRATOR") + "\n")
	if info, err := m.engine.TierInfo(); err == nil {
		fmt.Fprintf(&b, "Tier: %s\n", info.Tier)
		if info.Threshold > 0 {
			fmt.Fprintf(&b, "Points: %d/%d\n", info.Points, info.Threshold)
		} else {
			fmt.Fprintf(&b, "Points: %d (max tier)\n", info.Points)
		}
		if info.UpgradesAvailable > 0 {
			fmt.Fprintf(&b, "Upgrades ready: %d (/upgrade)\n", info.UpgradesAvailable)
		}
	}
	if m.opts.Provider.Provider != "" {
		fmt.Fprintf(&b, "Voice: %s (%s)\n", m.opts.Provider.Provider, m.opts.Provider.Kind)
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("EFFECTS") + "\n")
	if len(s.ActiveModifiers) == 0 {
		b.WriteString("(none)\n")
	}
	for _, mod := range s.ActiveModifiers {
		fmt.Fprintf(&b, "- %s (%d)\n", mod.Name, mod.Remaining)
	}

	if len(s.PastMemories) > 0 {
		b.WriteString("\n" + titleStyle.Render("ECHOES") + "\n")
		fmt.Fprintf(&b, "%d memories from past adventures\n", len(s.PastMemories))
	}

	width := int(float64(m.width) * 0.25)
	return stateStyle.Width(width).Height(m.viewport.Height).Render(b.String())
}

func (m model) renderLog() string {
	return m.gameLog
}

func (m model) start(name string, chaos int) tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.Start(context.Background(), name, chaos)
		return turnMsg{res, err}
	}
}

func (m model) resume(s *models.Session) tea.Cmd {
	return func() tea.Msg {
		return resumedMsg{m.engine.Resume(context.Background(), s)}
	}
}

func (m model) resolve(index int) tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.Resolve(context.Background(), index)
		return turnMsg{res, err}
	}
}

func (m model) summarize(gameOver bool) tea.Cmd {
	return func() tea.Msg {
		sum, err := m.engine.Summarize(context.Background(), gameOver, "")
		return summaryMsg{sum, err}
	}
}

func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(NewModel(eng, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
