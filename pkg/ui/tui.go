package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/counter-dapp/business/counter/app"
	"github.com/fd1az/counter-dapp/business/counter/domain"
	"github.com/fd1az/counter-dapp/pkg/ui/components"
)

// Actions are the panel operations the TUI triggers. They are only ever
// invoked from tea.Cmds, never from Update.
type Actions interface {
	Increment(ctx context.Context) domain.Outcome
	ToggleWallet(ctx context.Context) error
	ToggleConnectionInfo()
	DismissAlert()
}

// Links re-exports the links block configuration.
type Links = components.Links

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx     context.Context
	actions Actions

	// Components
	connection *components.ConnectionComponent
	links      *components.LinksComponent
	keys       KeyMap
	help       help.Model
	spinner    spinner.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	state      app.State
	quitting   bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []ErrorEntry // Persistent error panel (last 3)
	activity   []string     // Recent activity messages
}

// New creates a new TUI model. ctx bounds every action the model triggers.
func New(ctx context.Context, actions Actions, links Links) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorWarning)

	return Model{
		ctx:          ctx,
		actions:      actions,
		connection:   components.NewConnectionComponent(),
		links:        components.NewLinksComponent(links),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      s,
		phase:        PhaseWelcome,
		welcomeStart: time.Now(),
		errors:       make([]ErrorEntry, 0, 3),
		activity:     make([]string, 0, 6),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) incrementCmd() tea.Cmd {
	return func() tea.Msg {
		return OutcomeMsg{Outcome: m.actions.Increment(m.ctx)}
	}
}

func (m Model) walletCmd() tea.Cmd {
	return func() tea.Msg {
		return WalletToggledMsg{Err: m.actions.ToggleWallet(m.ctx)}
	}
}

func (m Model) infoCmd() tea.Cmd {
	return func() tea.Msg {
		m.actions.ToggleConnectionInfo()
		return nil
	}
}

func (m Model) dismissCmd() tea.Cmd {
	return func() tea.Msg {
		m.actions.DismissAlert()
		return nil
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to the dashboard
		if m.phase == PhaseWelcome {
			m.phase = PhaseDashboard
			return m, nil
		}
		// An open alert swallows everything but its dismiss keys
		if m.state.Alert != "" {
			if key.Matches(msg, m.keys.Dismiss) {
				return m, m.dismissCmd()
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Increment):
			m.activity = addActivity(m.activity, "Increment requested")
			return m, m.incrementCmd()
		case key.Matches(msg, m.keys.Wallet):
			return m, m.walletCmd()
		case key.Matches(msg, m.keys.Info):
			return m, m.infoCmd()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseDashboard
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StateMsg:
		// Snapshots from concurrent flows may arrive out of order
		if msg.State.Version <= m.state.Version {
			return m, nil
		}
		m.applyState(msg.State)

	case OutcomeMsg:
		m.recordOutcome(msg.Outcome)

	case WalletToggledMsg:
		// Failures surface through the alert modal
		if msg.Err == nil {
			m.activity = addActivity(m.activity, "Wallet request sent")
		}
	}

	return m, nil
}

func (m *Model) applyState(s app.State) {
	prev := m.state
	m.state = s
	m.lastUpdate = time.Now()

	m.connection.Update(components.ConnectionInfo{
		AccountText:     s.AccountText(),
		Connected:       s.Account.IsConnected,
		ProviderPresent: s.ProviderPresent,
		ChainName:       s.Chain.Chain.Name,
		ChainID:         s.Chain.Chain.ID,
		BlockNumber:     s.Chain.BlockNumber,
	})

	if prev.Account.IsConnected != s.Account.IsConnected {
		if s.Account.IsConnected {
			m.activity = addActivity(m.activity, "Wallet connected: "+s.Account.Short())
		} else if prev.Version > 0 {
			m.activity = addActivity(m.activity, "Wallet disconnected")
		}
	}
	if prev.ProviderPresent != s.ProviderPresent {
		if s.ProviderPresent {
			m.activity = addActivity(m.activity, "Provider available: "+s.Chain.Chain.Name)
		} else if prev.Version > 0 {
			m.activity = addActivity(m.activity, "Provider lost")
		}
	}
	if s.IsLoading && !prev.IsLoading {
		m.activity = addActivity(m.activity, "Transaction submitted, waiting for confirmation")
	}
}

func (m *Model) recordOutcome(out domain.Outcome) {
	switch {
	case out.Ok():
		m.activity = addActivity(m.activity, out.Summary())
	case errors.Is(out.Err, domain.ErrNotConnected):
		// The alert modal already says it
	case errors.Is(out.Err, domain.ErrBusy):
		m.activity = addActivity(m.activity, "Increment already in flight")
	default:
		m.errors = append(m.errors, ErrorEntry{
			Message:   out.Summary(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}
	}
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", timestamp, message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	if m.phase == PhaseWelcome {
		return m.renderWelcomeScreen()
	}

	if m.state.Alert != "" {
		return m.renderAlert()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Counter dapp "))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.renderCounter() + "\n\n" + m.links.View()

	var rightCol string
	if m.state.ShowConnectionInfo {
		rightCol = m.connection.View()
	} else {
		rightCol = m.renderActivityFeed()
	}

	// Side by side if enough width
	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	// Persistent error panel (show last 3 errors)
	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderCounter renders the count, or a spinner while a transaction is
// being confirmed.
func (m Model) renderCounter() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("COUNTER"))
	sb.WriteString("\n\n")

	switch {
	case m.state.IsLoading:
		sb.WriteString(m.spinner.View())
		sb.WriteString(MutedValue.Render(" waiting for confirmation"))
	case m.state.Count != nil:
		sb.WriteString("Count: ")
		sb.WriteString(CountStyle.Render(m.state.Count.String()))
	default:
		sb.WriteString(MutedValue.Render("Count: unknown"))
	}
	sb.WriteString("\n\n")

	if out := m.state.LastOutcome; out != nil {
		if out.Ok() {
			sb.WriteString(PositiveValue.Render(out.Summary()))
		} else {
			sb.WriteString(NegativeValue.Render(out.Summary()))
		}
		sb.WriteString("\n")
		if q := out.Quote; q != nil {
			sb.WriteString(MutedValue.Render(fmt.Sprintf("Gas limit %d • max cost %s ETH",
				q.GasLimit, q.MaxCostEther().StringFixed(6))))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(MutedValue.Render("Press enter to increment"))
	return sb.String()
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activity) == 0 {
		sb.WriteString(mutedStyle.Render("  Nothing yet. Press i for connection info."))
		return sb.String()
	}
	for _, line := range m.activity {
		sb.WriteString(mutedStyle.Render("  " + line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderAlert() string {
	body := lipgloss.NewStyle().Bold(true).Render(m.state.Alert) +
		"\n\n" + MutedValue.Render("Press enter to dismiss")
	modal := ModalStyle.Render(body)

	if m.width == 0 || m.height == 0 {
		return "\n" + modal + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	greenStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary)

	// Animated dots based on time
	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder

	sb.WriteString("\n\n\n\n")

	logo := `
    ██████╗ ██████╗ ██╗   ██╗███╗   ██╗████████╗███████╗██████╗
   ██╔════╝██╔═══██╗██║   ██║████╗  ██║╚══██╔══╝██╔════╝██╔══██╗
   ██║     ██║   ██║██║   ██║██╔██╗ ██║   ██║   █████╗  ██████╔╝
   ██║     ██║   ██║██║   ██║██║╚██╗██║   ██║   ██╔══╝  ██╔══██╗
   ╚██████╗╚██████╔╝╚██████╔╝██║ ╚████║   ██║   ███████╗██║  ██║
    ╚═════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═══╝   ╚═╝   ╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("                       D A P P"))
	sb.WriteString("\n\n\n")

	sb.WriteString(greenStyle.Render(fmt.Sprintf("                  Connecting%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.state.Account.IsConnected {
		parts = append(parts, StatusConnected.Render("● "+m.state.Account.Short()))
	} else {
		parts = append(parts, StatusDisconnected.Render("○ wallet disconnected"))
	}

	if m.state.ProviderPresent {
		parts = append(parts, StatusConnected.Render("● "+m.state.Chain.Chain.Name))
		if n := m.state.Chain.BlockNumber; n != nil {
			parts = append(parts, fmt.Sprintf("Block: #%d", *n))
		}
	} else {
		parts = append(parts, StatusDisconnected.Render("○ no provider"))
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Run starts a Bubble Tea program for the model and blocks until it exits.
// started receives the program once it exists so callers can send to it.
func Run(model Model, started func(*tea.Program)) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	if started != nil {
		started(p)
	}
	_, err := p.Run()
	return err
}
