package tui

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/domain"
	"ragchat/internal/i18n"
	"ragchat/internal/service"
)

// ChatPort is the TUI-facing subset of the conversation controller.
type ChatPort interface {
	UpdateDraft(text string)
	Begin() (*service.Exchange, bool)
	Messages() []domain.Message
	AwaitingReply() bool
}

// UploadPort is the TUI-facing subset of the upload controller.
type UploadPort interface {
	SelectFile(f domain.File) bool
	Begin() (*service.Transfer, bool)
	State() service.UploadState
}

// HealthChecker reports whether the backend is reachable. Optional.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type (
	replyMsg      struct{}
	uploadDoneMsg struct{}
	healthMsg     struct{ err error }
)

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx    context.Context
	chat   ChatPort
	upload UploadPort
	health HealthChecker
	texts  i18n.Texts

	input    textinput.Model
	viewport viewport.Model
	picker   filepicker.Model
	spinner  spinner.Model

	picking      bool
	backendState string
	backendDown  bool
	ready        bool
}

// New creates a new TUI model instance. health may be nil.
func New(ctx context.Context, chat ChatPort, upload UploadPort, health HealthChecker, texts i18n.Texts) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = texts.Placeholder
	ti.Focus()
	ti.CharLimit = 0

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf"}
	if wd, err := filepath.Abs("."); err == nil {
		fp.CurrentDirectory = wd
	}
	fp.Height = 10

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		chat:     chat,
		upload:   upload,
		health:   health,
		texts:    texts,
		input:    ti,
		viewport: vp,
		picker:   fp,
		spinner:  sp,
	}
}

// Init starts the cursor blink and the backend health check.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.health != nil {
		cmds = append(cmds, m.checkHealth())
	}
	return tea.Batch(cmds...)
}

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// header, upload panel, status, help, spacer
		reserved := 6
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th-ih-1)
		m.picker.Height = max(3, m.viewport.Height-2)
		m.refreshTranscript()
		return m, nil
	case replyMsg:
		m.refreshTranscript()
		return m, nil
	case uploadDoneMsg:
		return m, nil
	case healthMsg:
		m.backendDown = msg.err != nil
		if m.backendDown {
			m.backendState = m.texts.BackendDown + ": " + msg.err.Error()
		} else {
			m.backendState = m.texts.BackendUp
		}
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTranscript()
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "ctrl+o":
			m.picking = true
			return m, m.picker.Init()
		case "ctrl+u":
			return m.startUpload()
		case "enter":
			return m.submit()
		}
	default:
		// filepicker directory reads and cursor blinks arrive as private messages
		var pcmd, icmd tea.Cmd
		m.picker, pcmd = m.picker.Update(msg)
		m.input, icmd = m.input.Update(msg)
		return m, tea.Batch(pcmd, icmd)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.chat.UpdateDraft(m.input.Value())
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.picking = false
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.upload.SelectFile(domain.File{Name: filepath.Base(path), Path: path})
		m.picking = false
	}
	return m, cmd
}

func (m Model) startUpload() (tea.Model, tea.Cmd) {
	transfer, ok := m.upload.Begin()
	if !ok {
		return m, nil
	}
	ctx := m.ctx
	return m, tea.Batch(func() tea.Msg {
		transfer.Complete(ctx)
		return uploadDoneMsg{}
	}, m.spinner.Tick)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.chat.UpdateDraft(m.input.Value())
	exchange, ok := m.chat.Begin()
	if !ok {
		return m, nil
	}
	m.input.SetValue("")
	m.refreshTranscript()
	ctx := m.ctx
	return m, tea.Batch(func() tea.Msg {
		exchange.Complete(ctx)
		return replyMsg{}
	}, m.spinner.Tick)
}

func (m Model) checkHealth() tea.Cmd {
	ctx, health := m.ctx, m.health
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return healthMsg{err: health.Health(ctx)}
	}
}

func (m Model) busy() bool {
	return m.chat.AwaitingReply() || m.upload.State().Status == domain.UploadUploading
}

func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.texts.Title))
	if m.backendState != "" {
		style := okStyle
		if m.backendDown {
			style = errorStyle
		}
		b.WriteString("  " + style.Render(m.backendState))
	}
	b.WriteString("\n")
	b.WriteString(m.renderUploadPanel())
	b.WriteString("\n")
	if m.picking {
		b.WriteString(pickerBoxStyle.Render(m.picker.View()))
	} else {
		b.WriteString(transcriptBoxStyle.Render(m.viewport.View()))
	}
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.texts.Help))
	return b.String()
}

func (m Model) renderUploadPanel() string {
	st := m.upload.State()
	buttons := buttonStyle.Render("[ctrl+o] " + m.texts.SelectButton)
	if st.SelectedFile != nil {
		label := m.texts.UploadButton
		if st.Status == domain.UploadUploading {
			label = m.spinner.View() + m.texts.UploadingButton
			buttons += " " + disabledButtonStyle.Render(label)
		} else {
			buttons += " " + buttonStyle.Render("[ctrl+u] "+label)
		}
	}
	if st.StatusMessage == "" {
		return buttons
	}
	style := statusStyle
	if st.Status == domain.UploadError {
		style = errorStyle
	}
	return buttons + "\n" + style.Render(st.StatusMessage)
}

func (m Model) renderTranscript() string {
	msgs := m.chat.Messages()
	width := max(20, m.viewport.Width)
	bubbleWidth := max(10, width*3/4)
	if len(msgs) == 0 && !m.chat.AwaitingReply() {
		return hintStyle.Render(m.texts.EmptyTranscript)
	}
	var rows []string
	var question string
	for _, msg := range msgs {
		switch msg.Sender {
		case domain.SenderUser:
			question = msg.Text
			rows = append(rows, lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble(userBubbleStyle, msg.Text, bubbleWidth)))
		default:
			text := highlightBestSentence(msg.Text, question)
			if msg.SourceFound != nil && !*msg.SourceFound {
				text += "\n" + hintStyle.Render("("+m.texts.NoSource+")")
			}
			rows = append(rows, bubble(aiBubbleStyle, text, bubbleWidth))
		}
	}
	if m.chat.AwaitingReply() {
		rows = append(rows, aiBubbleStyle.Render(m.spinner.View()+m.texts.Typing))
	}
	return strings.Join(rows, "\n")
}
