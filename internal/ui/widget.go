// Package ui implements the terminal chat widget. It owns the session
// store, escalation controller, send pipeline, and voice adapter, and
// renders sessions, messages, feedback state, and the human-handoff banner.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/answer24/supportchat/internal/api"
	chat "github.com/answer24/supportchat/internal/model/chat"
	"github.com/answer24/supportchat/internal/service/escalation"
	"github.com/answer24/supportchat/internal/service/send"
	"github.com/answer24/supportchat/internal/service/session"
	"github.com/answer24/supportchat/internal/service/voice"
)

// Deps bundles everything the widget model needs.
type Deps struct {
	Client       *api.Client
	Store        *session.Store
	Controller   *escalation.Controller
	Pipeline     *send.Pipeline
	Adapter      *voice.Adapter
	Recognizer   voice.Recognizer
	VoiceIdle    time.Duration
	PollInterval time.Duration
}

// Messages for tea updates.
type (
	hydratedMsg struct{}
	sendDoneMsg struct{ queued bool }
	pollTickMsg struct{}
	profileMsg  api.Profile
	errMsg      error

	voiceMsg struct {
		text string
		send bool
	}
)

// Model is the bubbletea model for the chat widget.
type Model struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    Styles

	deps     Deps
	listener *voice.Listener

	// pollCancel is non-nil while the human-mode poller runs.
	pollCancel context.CancelFunc
	pollCh     chan struct{}
	voiceCh    chan voiceMsg

	attachment *send.Attachment
	profile    api.Profile
	width      int
	height     int
	ready      bool
	err        error
}

// NewModel builds the widget model.
func NewModel(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message... (Enter to send, Ctrl+C to quit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.SetContent("")

	styles := DefaultStyles()
	ti.PromptStyle = styles.Prompt
	sp.Style = styles.Spinner

	m := Model{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		deps:      deps,
		pollCh:    make(chan struct{}, 1),
		voiceCh:   make(chan voiceMsg, 4),
	}
	// Listener callbacks go through the voice channel, which survives the
	// value copies bubbletea makes of the model.
	m.listener = voice.NewListener(deps.Recognizer, deps.VoiceIdle, m.PushAutoSend, m.PushTranscript)
	return m
}

// PushTranscript feeds a live transcript update into the UI.
func (m Model) PushTranscript(text string) {
	select {
	case m.voiceCh <- voiceMsg{text: text}:
	default:
	}
}

// PushAutoSend feeds the debounced final transcript into the UI.
func (m Model) PushAutoSend(text string) {
	select {
	case m.voiceCh <- voiceMsg{text: text, send: true}:
	default:
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.hydrateCmd(),
		m.fetchProfileCmd(),
		m.waitForVoice(),
	)
}

func (m Model) hydrateCmd() tea.Cmd {
	return func() tea.Msg {
		m.deps.Store.Hydrate(context.Background())
		return hydratedMsg{}
	}
}

func (m Model) fetchProfileCmd() tea.Cmd {
	return func() tea.Msg {
		profile, err := m.deps.Client.FetchProfile(context.Background())
		if err != nil {
			// The widget works fine anonymously; profile is cosmetic.
			return profileMsg(api.Profile{})
		}
		return profileMsg(profile)
	}
}

func (m Model) sendCmd(text string, att *send.Attachment) tea.Cmd {
	return func() tea.Msg {
		queued := m.deps.Pipeline.Send(context.Background(), text, att)
		return sendDoneMsg{queued: queued}
	}
}

// waitForVoice blocks until the listener pushes a transcript event.
func (m Model) waitForVoice() tea.Cmd {
	return func() tea.Msg {
		return <-m.voiceCh
	}
}

// waitForPoll blocks until the poller applied a snapshot.
func (m Model) waitForPoll() tea.Cmd {
	ch := m.pollCh
	return func() tea.Msg {
		<-ch
		return pollTickMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.stopPolling()
			return m, tea.Quit

		case "enter":
			if !m.deps.Pipeline.Loading() {
				return m.handleSubmit()
			}

		case "ctrl+n":
			m.deps.Store.CreateNewChat(context.Background())
			m = m.syncPolling()
			m.refreshViewport()
			return m, m.pollCmdIfRunning()

		case "ctrl+d":
			if current, ok := m.deps.Store.Current(); ok {
				m.deps.Store.Delete(context.Background(), current.ID)
				m = m.syncPolling()
				m.refreshViewport()
				return m, m.pollCmdIfRunning()
			}

		case "tab", "shift+tab":
			m.cycleSession(msg.String() == "tab")
			m = m.syncPolling()
			m.refreshViewport()
			return m, m.pollCmdIfRunning()

		case "ctrl+l", "ctrl+x":
			m.recordFeedback(msg.String() == "ctrl+l")
			m.refreshViewport()
			return m, nil

		case "ctrl+h":
			return m.toggleHumanMode()

		case "ctrl+u":
			m.deps.Adapter.SetMuted(!m.deps.Adapter.Muted())
			return m, nil

		case "ctrl+v":
			if m.listener.Listening() {
				_ = m.listener.Stop()
			} else if err := m.listener.Start(); err != nil {
				m.err = err
			}
			return m, nil
		}

		if !m.deps.Pipeline.Loading() {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}
		m.textinput.Width = msg.Width - 4
		m.refreshViewport()

	case spinner.TickMsg:
		if m.deps.Pipeline.Loading() {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case hydratedMsg:
		m = m.syncPolling()
		m.refreshViewport()
		return m, m.pollCmdIfRunning()

	case profileMsg:
		m.profile = api.Profile(msg)

	case sendDoneMsg:
		if msg.queued {
			m.attachment = nil
		}
		m = m.syncPolling()
		m.refreshViewport()
		return m, tea.Batch(m.spinner.Tick, m.pollCmdIfRunning())

	case pollTickMsg:
		m.refreshViewport()
		return m, m.waitForPoll()

	case voiceMsg:
		if msg.send {
			m.textinput.SetValue("")
			return m, tea.Batch(m.sendCmd(msg.text, nil), m.spinner.Tick, m.waitForVoice())
		}
		m.textinput.SetValue(msg.text)
		return m, m.waitForVoice()

	case errMsg:
		m.err = msg
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// handleSubmit reads the input and routes it: "/attach <path>" stages an
// image, everything else goes through the send pipeline.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" && m.attachment == nil {
		return m, nil
	}

	if path, ok := strings.CutPrefix(input, "/attach "); ok {
		path = strings.TrimSpace(path)
		data, err := os.ReadFile(path)
		if err != nil {
			m.err = fmt.Errorf("attach %s: %w", path, err)
			return m, nil
		}
		m.attachment = &send.Attachment{Path: path, Data: data}
		m.textinput.SetValue("")
		m.err = nil
		return m, nil
	}

	att := m.attachment
	m.textinput.SetValue("")
	m.err = nil
	m.refreshViewport()
	return m, tea.Batch(m.sendCmd(input, att), m.spinner.Tick)
}

func (m *Model) cycleSession(forward bool) {
	sessions := m.deps.Store.Sessions()
	if len(sessions) < 2 {
		return
	}
	current, ok := m.deps.Store.Current()
	if !ok {
		return
	}
	idx := 0
	for i := range sessions {
		if sessions[i].ID == current.ID {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(sessions)
	} else {
		idx = (idx - 1 + len(sessions)) % len(sessions)
	}
	_ = m.deps.Store.Select(sessions[idx].ID)
}

// recordFeedback applies like/dislike to the last assistant message of the
// current session.
func (m *Model) recordFeedback(like bool) {
	current, ok := m.deps.Store.Current()
	if !ok {
		return
	}
	var target chat.Message
	for i := len(current.Messages) - 1; i >= 0; i-- {
		if current.Messages[i].Role == chat.RoleAssistant {
			target = current.Messages[i]
			break
		}
	}
	if target.ID == "" {
		return
	}

	fb := chat.FeedbackLike
	if !like {
		fb = chat.FeedbackDislike
		m.deps.Controller.RecordDislike(current.ID)
	}
	if err := m.deps.Store.SetFeedback(context.Background(), current.ID, target.ID, fb); err != nil {
		m.err = err
	}
}

func (m Model) toggleHumanMode() (tea.Model, tea.Cmd) {
	current, ok := m.deps.Store.Current()
	if !ok {
		return m, nil
	}

	var err error
	if current.IsHumanMode {
		_, err = m.deps.Controller.ResumeAI(context.Background(), current.ID)
	} else {
		_, err = m.deps.Controller.RequestHumanHelp(context.Background(), current.ID)
	}
	if err != nil {
		m.err = err
		return m, nil
	}

	m = m.syncPolling()
	m.refreshViewport()
	return m, m.pollCmdIfRunning()
}

// syncPolling starts or stops the human-mode poller so that it runs exactly
// while the selected session is human-mode.
func (m Model) syncPolling() Model {
	current, ok := m.deps.Store.Current()
	shouldPoll := ok && current.IsHumanMode

	switch {
	case shouldPoll && m.pollCancel == nil:
		ctx, cancel := context.WithCancel(context.Background())
		m.pollCancel = cancel
		poller := escalation.NewPoller(m.deps.Client, m.deps.Store, m.deps.PollInterval, func() {
			select {
			case m.pollCh <- struct{}{}:
			default:
			}
		})
		go poller.Run(ctx)
	case !shouldPoll && m.pollCancel != nil:
		m.stopPolling()
	}
	return m
}

func (m *Model) stopPolling() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

// pollCmdIfRunning arms the poll listener command only while polling.
func (m Model) pollCmdIfRunning() tea.Cmd {
	if m.pollCancel == nil {
		return nil
	}
	return m.waitForPoll()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	current, ok := m.deps.Store.Current()
	if !ok {
		return m.styles.Muted.Render("No conversation. Press Ctrl+N to start one.")
	}

	var b strings.Builder
	for _, msg := range current.Messages {
		label := m.styles.AssistantLabel.Render("answer24")
		switch msg.Role {
		case chat.RoleUser:
			label = m.styles.UserLabel.Render("You")
		case chat.RoleAgent:
			label = m.styles.AgentLabel.Render("Agent")
		}

		b.WriteString(label)
		switch msg.Feedback {
		case chat.FeedbackLike:
			b.WriteString(m.styles.Muted.Render(" [liked]"))
		case chat.FeedbackDislike:
			b.WriteString(m.styles.Muted.Render(" [disliked]"))
		}
		b.WriteString("\n")
		b.WriteString(m.styles.Body.Render(msg.Content))
		if msg.ImageURL != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render("[image: " + msg.ImageURL + "]"))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := "answer24 Support"
	if m.profile.Name != "" {
		title += " / " + m.profile.Name
	}
	header := m.styles.Header.Render(title)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.renderSessionBar())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.textinput.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(
		"enter send · ctrl+n new · ctrl+d delete · tab switch · ctrl+l like · ctrl+x dislike · ctrl+h human · ctrl+v voice · ctrl+u mute"))
	return b.String()
}

func (m Model) renderSessionBar() string {
	sessions := m.deps.Store.Sessions()
	if len(sessions) == 0 {
		return m.styles.SessionBar.Render("no conversations")
	}
	current, _ := m.deps.Store.Current()

	parts := make([]string, 0, len(sessions))
	for _, s := range sessions {
		title := s.Title
		if s.ID == current.ID {
			parts = append(parts, m.styles.Selected.Render("["+title+"]"))
			continue
		}
		parts = append(parts, m.styles.SessionBar.Render(title))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderStatus() string {
	var parts []string

	current, ok := m.deps.Store.Current()
	if ok && current.IsHumanMode {
		parts = append(parts, m.styles.HumanBanner.Render(send.AgentTyping))
		parts = append(parts, m.styles.Escalate.Render("ctrl+h resume AI"))
	} else if ok {
		label := "ctrl+h talk to a human"
		if m.deps.Controller.Suggested(current.ID) {
			// Threshold reached: recolor the affordance, never auto-escalate.
			parts = append(parts, m.styles.EscalateHot.Render(label+" (recommended)"))
		} else {
			parts = append(parts, m.styles.Escalate.Render(label))
		}
	}

	if m.deps.Pipeline.Loading() {
		parts = append(parts, m.spinner.View()+m.styles.Muted.Render(" thinking..."))
	}
	if m.listener.Listening() {
		parts = append(parts, m.styles.Muted.Render("listening: "+m.listener.Transcript()))
	}
	if m.deps.Adapter.Muted() {
		parts = append(parts, m.styles.Muted.Render("muted"))
	}
	if m.attachment != nil {
		parts = append(parts, m.styles.Muted.Render("attachment: "+m.attachment.Path))
	}
	if m.err != nil {
		parts = append(parts, m.styles.Error.Render(m.err.Error()))
	}

	return strings.Join(parts, "   ")
}
