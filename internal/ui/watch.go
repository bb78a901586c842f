package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/netmgr/internal/status"
	"github.com/muurk/netmgr/internal/statusfeed"
)

// Feed is the control API surface the watch screen uses
type Feed interface {
	Stream(ctx context.Context, fn func(status.Status)) error
	RequestProvisioning(ctx context.Context) (statusfeed.ProvisionReply, error)
	CancelProvisioning(ctx context.Context) (statusfeed.ProvisionReply, error)
}

// Message types for async operations
type (
	statusMsg    status.Status
	streamEndMsg struct{ err error }
	noticeMsg    string
)

type watchKeyMap struct {
	Provision key.Binding
	Cancel    key.Binding
	Quit      key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Provision, k.Cancel, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Provision: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "request provisioning")),
		Cancel:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel provisioning")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// WatchModel is a live status screen fed by the control API stream
type WatchModel struct {
	ctx     context.Context
	feed    Feed
	updates <-chan status.Status
	ended   <-chan error

	Status   status.Status
	Received bool
	Err      error
	Notice   string
	Width    int

	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap
}

// NewWatchModel creates a model reading snapshots from updates. ended
// delivers the stream's terminal error, if any.
func NewWatchModel(ctx context.Context, feed Feed, updates <-chan status.Status, ended <-chan error) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		ctx:     ctx,
		feed:    feed,
		updates: updates,
		ended:   ended,
		Width:   GetTerminalWidth(),
		Spinner: s,
		Help:    help.New(),
		Keys:    newWatchKeyMap(),
	}
}

// Init starts the spinner and the stream listener
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.listen())
}

func (m WatchModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case s, ok := <-m.updates:
			if !ok {
				return streamEndMsg{}
			}
			return statusMsg(s)
		case err := <-m.ended:
			return streamEndMsg{err: err}
		}
	}
}

func (m WatchModel) submit(cancel bool) tea.Cmd {
	return func() tea.Msg {
		var (
			reply statusfeed.ProvisionReply
			err   error
		)
		if cancel {
			reply, err = m.feed.CancelProvisioning(m.ctx)
		} else {
			reply, err = m.feed.RequestProvisioning(m.ctx)
		}
		switch {
		case errors.Is(err, statusfeed.ErrQueueFull) || (err == nil && !reply.Accepted):
			return noticeMsg(WarningMarker + " request queue full, try again")
		case err != nil:
			return noticeMsg(FailureMarker + " " + err.Error())
		case cancel:
			return noticeMsg(SuccessMarker + " cancellation submitted")
		default:
			return noticeMsg(SuccessMarker + " provisioning request submitted")
		}
	}
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Provision):
			return m, m.submit(false)
		case key.Matches(msg, m.Keys.Cancel):
			return m, m.submit(true)
		}

	case tea.WindowSizeMsg:
		m.Width = clampWidth(msg.Width)

	case statusMsg:
		m.Status = status.Status(msg)
		m.Received = true
		return m, m.listen()

	case streamEndMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.Err = msg.err
		}
		return m, tea.Quit

	case noticeMsg:
		m.Notice = string(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the screen
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(NewHeader("Network Status", "netmgr watch").SetWidth(m.Width).Render())
	b.WriteString("\n")

	if !m.Received {
		fmt.Fprintf(&b, "  %s Waiting for status...\n", m.Spinner.View())
	} else {
		b.WriteString(RenderStatus(m.Status, m.Width))
		b.WriteString("\n")
		if m.Status.Connecting || m.Status.State == status.StateEnteringAccessPoint || m.Status.State == status.StateLeavingAccessPoint {
			fmt.Fprintf(&b, "  %s %s\n", m.Spinner.View(), m.Status.State)
		}
	}

	if m.Notice != "" {
		b.WriteString(HelpStyle.Render(m.Notice))
		b.WriteString("\n")
	}
	if m.Err != nil {
		b.WriteString(ErrorMessageStyle.Render("  Stream ended: " + m.Err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.Help.View(m.Keys)))
	b.WriteString("\n")
	return b.String()
}

// RunWatch runs the live status screen until the user quits, ctx is
// cancelled or the stream ends.
func RunWatch(ctx context.Context, feed Feed) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan status.Status)
	ended := make(chan error, 1)
	go func() {
		ended <- feed.Stream(ctx, func(s status.Status) {
			select {
			case updates <- s:
			case <-ctx.Done():
			}
		})
	}()

	final, err := tea.NewProgram(NewWatchModel(ctx, feed, updates, ended), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	if m, ok := final.(WatchModel); ok && m.Err != nil {
		return m.Err
	}
	return nil
}
