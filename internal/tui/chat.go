package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/orvn/orvi/backend/internal/client"
	"github.com/orvn/orvi/backend/internal/model/persona"
)

type msgKind int

const (
	kindUser msgKind = iota
	kindAssistant
	// kindSystem marks locally-rendered notices that never reach the server
	// and must not look like genuine assistant replies.
	kindSystem
)

type chatMsg struct {
	kind msgKind
	text string
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	typingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// exchangeDoneMsg fires once a submitted request reaches its terminal state.
type exchangeDoneMsg struct {
	req *client.Request
}

// Model is the terminal chat widget: one input line, a scrollback viewport,
// and at most one exchange in flight at a time.
type Model struct {
	client    *client.Client
	sessionID string

	messages []chatMsg
	inflight *client.Request
	notice   string

	input    textinput.Model
	spin     spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
}

// New seeds the widget with the assistant greeting.
func New(c *client.Client) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask ORVI about ORVN..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	p := persona.Default()
	return Model{
		client: c,
		input:  ti,
		spin:   sp,
		messages: []chatMsg{
			{kind: kindAssistant, text: p.OpeningLine},
			{kind: kindAssistant, text: "Ask me about ORVN, our mission, services, campuses, or how to join."},
		},
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update drives the request lifecycle: submit renders the user text
// immediately and moves to the thinking state; exactly one terminal message
// per submission lands back here.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.inflight != nil {
				m.inflight.Cancel()
			}
			return m, tea.Quit
		case tea.KeyEsc:
			if m.inflight != nil {
				m.inflight.Cancel()
				return m, nil
			}
		case tea.KeyEnter:
			return m.submit()
		}

	case spinner.TickMsg:
		if m.inflight == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case exchangeDoneMsg:
		return m.settle(msg.req)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.inflight != nil {
		// One exchange at a time; the server would accept a double-submit,
		// but the widget does not offer one.
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	req, err := m.client.Submit(context.Background(), m.sessionID, text)
	if err != nil {
		// Blank input: reject locally, no network call, no bubble.
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.inflight = req
	m.messages = append(m.messages, chatMsg{kind: kindUser, text: text})
	m.refreshViewport()

	return m, tea.Batch(m.spin.Tick, waitForDone(req))
}

func (m Model) settle(req *client.Request) (tea.Model, tea.Cmd) {
	if req != m.inflight {
		// A terminal message from an older, already-settled submission.
		return m, nil
	}
	m.inflight = nil

	sessionID, reply, err := req.Result()
	switch {
	case err == nil:
		m.sessionID = sessionID
		m.messages = append(m.messages, chatMsg{kind: kindAssistant, text: reply})
	case errors.Is(err, context.Canceled):
		m.notice = "Request cancelled."
		m.messages = append(m.messages, chatMsg{kind: kindSystem, text: "Cancelled — ask me again whenever you're ready."})
	case errors.Is(err, client.ErrTimeout), errors.Is(err, client.ErrUnavailable):
		m.notice = "⚠ Chatbot is currently unavailable."
		m.messages = append(m.messages, chatMsg{kind: kindSystem, text: "Hmm… I couldn't reach my brain right now. Please try again later."})
	default:
		m.notice = "⚠ Something went wrong."
		m.messages = append(m.messages, chatMsg{kind: kindSystem, text: "That didn't go through. Please try again."})
	}

	m.refreshViewport()
	return m, nil
}

// View renders header, scrollback, typing indicator, notice, and input.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("ORVI — ORVN AI Assistant"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.inflight != nil {
		b.WriteString(typingStyle.Render(fmt.Sprintf("%s ORVI is typing…", m.spin.View())))
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for _, msg := range m.messages {
		switch msg.kind {
		case kindUser:
			b.WriteString(userStyle.Render("You: "))
		case kindAssistant:
			b.WriteString(assistantStyle.Render("ORVI: "))
		case kindSystem:
			b.WriteString(systemStyle.Render("note: "))
		}
		if msg.kind == kindSystem {
			b.WriteString(systemStyle.Render(msg.text))
		} else {
			b.WriteString(msg.text)
		}
		b.WriteString("\n\n")
	}

	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(b.String()))
	m.viewport.GotoBottom()
}

func waitForDone(req *client.Request) tea.Cmd {
	return func() tea.Msg {
		<-req.Done()
		return exchangeDoneMsg{req: req}
	}
}
