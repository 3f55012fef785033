package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/walkpoints/walkpoints/internal/config"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/navvis"
	"github.com/walkpoints/walkpoints/internal/routing"
)

// headerHeight is the number of rows above the stack body.
const headerHeight = 1

// ────────────────────────────────────────────────────────────
// Phases
// ────────────────────────────────────────────────────────────

type phase int

const (
	phaseLoading phase = iota
	phaseOnboarding
	phaseRole
	phaseTabs
)

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Options configures NewModel.
type Options struct {
	Store  database.Store
	Loop   *navvis.Loop
	Config *config.Config
	Logger *zap.Logger

	// Context is the parent of every stack context. Defaults to
	// context.Background.
	Context context.Context
	// Now defaults to time.Now.
	Now func() time.Time
	// Scheduler arms inactivity countdowns. Defaults to a LoopScheduler
	// on Loop, so timeouts run inside Update.
	Scheduler navvis.Scheduler
}

// ConfigChangedMsg delivers a reloaded configuration. The mounted stack
// is rebuilt on the same tab only when the nav settings changed.
type ConfigChangedMsg struct{ Config *config.Config }

// Model is the root BubbleTea model for the WalkPoints TUI. It walks the
// first-run phases and then hosts the mounted tab stack.
type Model struct {
	ctx   context.Context
	loop  *navvis.Loop
	sched navvis.Scheduler
	acts  actions
	cfg   *config.Config
	log   *zap.Logger

	phase      phase
	onboarding *onboarding
	picker     *rolePicker
	stack      *Stack
	snap       *Snapshot
	help       help.Model

	width  int
	height int

	statusMsg  string
	refreshing bool
	err        error
}

// NewModel creates the root model.
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = navvis.NewLoopScheduler(opts.Loop)
	}
	return Model{
		ctx:        opts.Context,
		loop:       opts.Loop,
		sched:      opts.Scheduler,
		acts:       actions{store: opts.Store, now: opts.Now, log: opts.Logger},
		cfg:        opts.Config,
		log:        opts.Logger,
		onboarding: &onboarding{},
		picker:     &rolePicker{},
		help:       newHelp(),
		statusMsg:  "Loading...",
		refreshing: true,
	}
}

// Stack returns the mounted tab stack, or nil before a role is chosen.
func (m Model) Stack() *Stack { return m.stack }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForLoop(m.loop),
		m.acts.loadSettings(),
		m.acts.loadSnapshot(),
	)
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.stack != nil {
			m.stack.SetSize(m.width, m.bodyHeight())
		}
		return m, nil

	case loopMsg:
		// Inactivity timeouts land here, in order with user input.
		msg()
		cmds := []tea.Cmd{waitForLoop(m.loop)}
		if m.stack != nil {
			cmds = append(cmds, m.stack.bar.Kick())
		}
		return m, tea.Batch(cmds...)

	case settingsMsg:
		return m.afterSettings(msg)

	case snapshotMsg:
		m.snap = msg.snap
		if m.stack != nil {
			m.stack.SetData(m.snap)
		}
		if m.refreshing {
			m.refreshing = false
			m.statusMsg = ""
		}
		return m, nil

	case mutationMsg:
		m.err = nil
		m.statusMsg = msg.status
		return m, m.acts.loadSnapshot()

	case redeemedMsg:
		m.err = nil
		m.statusMsg = fmt.Sprintf("Redeemed %s · code %s", msg.red.RewardTitle, msg.red.Code)
		return m, tea.Batch(m.forward(msg), m.acts.loadSnapshot())

	case errMsg:
		m.refreshing = false
		m.err = msg.err
		m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		m.log.Warn("tui action failed", zap.Error(msg.err))
		return m, m.forward(msg)

	case onboardingDoneMsg:
		cmds := []tea.Cmd{m.acts.saveSetting(settingOnboarded, "true")}
		if msg.motion != "" {
			cmds = append(cmds, m.acts.saveSetting(settingMotion, msg.motion))
		}
		var cmd tea.Cmd
		m, cmd = m.chooseRole()
		return m, tea.Batch(append(cmds, cmd)...)

	case roleChosenMsg:
		var cmd tea.Cmd
		m, cmd = m.mountStack(msg.role)
		if msg.role == routing.RoleBusiness {
			m.stack.Restore(routing.TabProfile)
		}
		return m, tea.Batch(m.acts.saveSetting(settingRole, string(msg.role)), cmd)

	case switchRoleMsg:
		m.unmountStack()
		m.phase = phaseRole
		return m, nil

	case ConfigChangedMsg:
		prev := m.cfg.Nav
		m.cfg = msg.Config
		m.err = nil
		m.statusMsg = "Configuration reloaded"
		if m.stack == nil || prev == m.cfg.Nav {
			return m, nil
		}
		role, active := m.stack.Role(), m.stack.Active()
		var cmd tea.Cmd
		m, cmd = m.mountStack(role)
		m.stack.Restore(active)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.phase != phaseTabs {
			return m, nil
		}
		msg.Y -= headerHeight
		return m, m.stack.Update(msg)
	}

	return m, m.forward(msg)
}

// forward hands msg to the mounted stack, if any.
func (m Model) forward(msg tea.Msg) tea.Cmd {
	if m.stack == nil {
		return nil
	}
	return m.stack.Update(msg)
}

func (m Model) afterSettings(s settingsMsg) (Model, tea.Cmd) {
	if !s.onboarded && !m.cfg.UI.SkipOnboarding {
		m.phase = phaseOnboarding
		return m, nil
	}
	if role, ok := routing.ParseRole(m.cfg.UI.Role); ok {
		return m.mountStack(role)
	}
	if s.hasRole {
		return m.mountStack(s.role)
	}
	return m.chooseRole()
}

func (m Model) chooseRole() (Model, tea.Cmd) {
	if role, ok := routing.ParseRole(m.cfg.UI.Role); ok {
		return m.mountStack(role)
	}
	m.phase = phaseRole
	return m, nil
}

// mountStack builds the stack for role and mounts its provider.
func (m Model) mountStack(role routing.Role) (Model, tea.Cmd) {
	m.unmountStack()
	nav := m.cfg.Nav
	m.stack = NewStack(m.ctx, role, stackOptions{
		nav:   nav,
		sched: m.sched,
		deps: screenDeps{
			acts:              m.acts,
			now:               m.acts.now,
			inactivityTimeout: nav.ProviderConfig().InactivityTimeout,
		},
		log: m.log,
	})
	m.stack.SetSize(m.width, m.bodyHeight())
	if m.snap != nil {
		m.stack.SetData(m.snap)
	}
	m.phase = phaseTabs
	m.log.Info("tab stack mounted", zap.String("role", string(role)))
	return m, m.stack.bar.Kick()
}

func (m *Model) unmountStack() {
	if m.stack == nil {
		return
	}
	m.stack.Unmount()
	m.log.Info("tab stack unmounted", zap.String("role", string(m.stack.Role())))
	m.stack = nil
}

// handleKey routes keyboard input based on the current phase.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	capturing := m.stack != nil && m.stack.Capturing()

	// ── Global ──

	if msg.Type == tea.KeyCtrlC || (!capturing && key.Matches(msg, keys.Quit)) {
		m.unmountStack()
		if m.loop != nil {
			m.loop.Close()
		}
		return m, tea.Quit
	}
	if key.Matches(msg, keys.Refresh) {
		m.statusMsg = "Refreshing..."
		m.refreshing = true
		m.err = nil
		return m, tea.Batch(m.acts.loadSnapshot(), m.forward(msg))
	}

	// ── Phase-specific ──

	switch m.phase {
	case phaseOnboarding:
		return m, m.onboarding.Update(msg)
	case phaseRole:
		return m, m.picker.Update(msg)
	case phaseTabs:
		return m, m.stack.Update(msg)
	}
	return m, nil
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) bodyHeight() int {
	return maxInt(0, m.height-2) // header + footer
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)
	height := m.bodyHeight()

	var body string
	switch m.phase {
	case phaseOnboarding:
		body = m.onboarding.View(m.width, height)
	case phaseRole:
		body = m.picker.View(m.width, height)
	case phaseTabs:
		body = m.stack.View()
	default:
		body = lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			emptyStateStyle.Render("Loading..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, fitHeight(body, height), footer)
}
