package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scrutin-io/scrutin/aggregate"
	"github.com/scrutin-io/scrutin/session"
	"github.com/scrutin-io/scrutin/types"
)

// Messages pushed into the program from the session callbacks.
type (
	storeChangedMsg struct{}
	loggedOutMsg    struct{}
)

// keyMap defines key bindings.
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}

// visibleTargets are the slices whose loading and error state the
// dashboard surfaces. Silent refreshes never touch these.
var visibleTargets = []types.RefreshTarget{
	types.TargetElections,
	types.TargetRegions,
}

// WatchModel is the Bubble Tea model for the live dashboard.
type WatchModel struct {
	sess *session.Session
	ctx  context.Context

	spin      spinner.Model
	width     int
	height    int
	quitting  bool
	loggedOut bool
}

// NewWatchModel creates the dashboard model.
func NewWatchModel(ctx context.Context, sess *session.Session) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return WatchModel{sess: sess, ctx: ctx, spin: sp}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case storeChangedMsg:
		return m, nil

	case loggedOutMsg:
		m.loggedOut = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.sess.Refresh(m.ctx)
			return m, nil
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderResults())
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m WatchModel) renderHeader() string {
	v := m.sess.Store().Snapshot()

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Scrutin live results"))
	b.WriteString("\n")

	state := m.sess.ConnectionState().String()
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Connection:"),
		StateStyle(state).Render(state)))

	if m.loggedOut {
		b.WriteString(ErrorStyle.Render("Session expired, authenticate again with `scrutin login`"))
		b.WriteString("\n")
	}

	if v.ActiveElection != nil {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Election:"),
			ValueStyle.Render(fmt.Sprintf("%s (round %d, %d)",
				v.ActiveElection.Name, v.ActiveElection.Round, v.ActiveElection.Year))))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Election:"),
			ValueStyle.Render("none active")))
	}

	if !v.Scope.IsZero() {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Scope:"),
			ValueStyle.Render(fmt.Sprintf("%s / %s / cir %d",
				v.Scope.Region, v.Scope.Department, v.Scope.ConstituencyID))))
	}

	for _, target := range visibleTargets {
		if m.sess.Store().Loading(target) {
			b.WriteString(fmt.Sprintf("%s loading %s\n", m.spin.View(), target))
		}
		if errMsg := m.sess.Store().Err(target); errMsg != "" {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s: %s", target, errMsg)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m WatchModel) renderResults() string {
	v := m.sess.Store().Snapshot()

	var partyTotals []types.PartyTotal
	var totals types.GlobalTotals
	switch {
	case v.ConstituencyTotals != nil:
		partyTotals = v.ConstituencyTotals.Parties
		totals = v.ConstituencyTotals.Totals
	case v.DepartmentResults != nil:
		partyTotals = v.DepartmentResults.Parties
		totals = v.DepartmentResults.Totals
	case len(v.Localities) > 0:
		partyTotals, totals = aggregate.FlattenLocalities(v.Localities)
	}

	rows := aggregate.Rows(partyTotals, totals, v.Roster)
	if len(rows) == 0 {
		return BoxStyle.Render("No results yet") + "\n"
	}

	var b strings.Builder
	b.WriteString(HeaderRowStyle.Render(fmt.Sprintf("%-28s %-8s %10s %8s", "Party", "Label", "Votes", "%")))
	b.WriteString("\n")
	for _, row := range rows {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(row.Color)).Render("■")
		b.WriteString(fmt.Sprintf("%s %-26s %-8s %10d %7s%%\n",
			swatch, truncate(row.DisplayName, 26), row.PartyLabel, row.Votes, row.Percentage))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s registered %d, voters %d, valid %d\n",
		LabelStyle.Render("Turnout:"),
		totals.Registered, totals.Voters, totals.ValidBallots))

	return BoxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m WatchModel) renderFooter() string {
	snap := m.sess.Metrics().Snapshot()
	counters := fmt.Sprintf("events %d · reconnects %d · refreshes %d · poll ticks %d",
		snap.EventsDispatched, snap.Reconnects, snap.RefreshesStarted, snap.PollTicks)
	help := "r refresh · q quit"
	return FooterStyle.Render(counters + "\n" + help)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

// RunWatch runs the dashboard until the user quits. Store changes and
// forced logouts arrive through the session callbacks as program messages.
func RunWatch(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(NewWatchModel(ctx, sess), tea.WithAltScreen())

	sess.OnUpdate(func() { p.Send(storeChangedMsg{}) })
	sess.OnLogout(func() { p.Send(loggedOutMsg{}) })

	_, err := p.Run()
	return err
}
