package tui

import (
	"log/slog"
	"strings"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/session"
	"github.com/Veraticus/mathq/internal/tui/themes"
	"github.com/Veraticus/mathq/internal/view"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Mode is what the main area is showing when no modal is open.
type Mode int

const (
	ModeEdit Mode = iota
	ModeOpenFile
	ModeHistory
)

// Feedback form fields.
const (
	fieldComment = iota
	fieldCorrection
)

// Report form fields.
const (
	fieldType = iota
	fieldDescription
	fieldEmail
	reportFieldCount
)

// Model holds the main TUI state. Question state lives in the session;
// the model only owns widgets and layout.
type Model struct {
	theme    themes.Theme
	config   Config
	keymap   KeyMap
	session  *session.Session
	rendered *model.AnswerPayload

	editor     textarea.Model
	pathInput  textinput.Model
	comment    textinput.Model
	correction textinput.Model
	reportDesc textinput.Model
	email      textinput.Model
	progress   progress.Model
	answerView viewport.Model
	help       help.Model

	historyErr    error
	reportErr     error
	history       []model.HistoryEntry
	textRev       uint64
	historyCursor int
	feedbackField int
	reportField   int
	reportType    int
	width         int
	height        int
	mode          Mode
	quitting      bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	editor := textarea.New()
	editor.Placeholder = "Type a math question, paste a screenshot (Ctrl+V) or open an image (Ctrl+O)..."
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.Focus()

	pathInput := textinput.New()
	pathInput.Prompt = "Image path: "
	pathInput.Placeholder = "~/Pictures/question.png"

	comment := textinput.New()
	comment.Prompt = "Comment: "
	comment.Placeholder = "What was wrong?"

	correction := textinput.New()
	correction.Prompt = "Correction: "
	correction.Placeholder = "The correct answer (optional)"

	reportDesc := textinput.New()
	reportDesc.Prompt = "Description: "
	reportDesc.Placeholder = "Describe the problem"

	email := textinput.New()
	email.Prompt = "Email: "
	email.Placeholder = "optional"

	m := Model{
		theme:      cfg.Theme,
		config:     cfg,
		keymap:     DefaultKeyMap(),
		session:    cfg.Session,
		editor:     editor,
		pathInput:  pathInput,
		comment:    comment,
		correction: correction,
		reportDesc: reportDesc,
		email:      email,
		progress:   progress.New(progress.WithDefaultGradient()),
		answerView: viewport.New(cfg.Width, 10),
		help:       help.New(),
		mode:       ModeEdit,
	}
	m.resize(cfg.Width, cfg.Height)
	m.syncEditor()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		textarea.Blink,
	}
	if m.config.Watch != nil {
		cmds = append(cmds, waitWatch(m.config.Watch))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if r := next.config.Recorder; r != nil {
		r.RecordState(next, msg)
	}
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshAnswer(true)
		return m, nil

	case tea.KeyMsg:
		next, cmd := m.handleKey(msg)
		next.syncEditor()
		next.refreshAnswer(false)
		return next, cmd

	case clipboardMsg:
		return m.handleClipboard(msg)

	case historyLoadedMsg:
		m.history = msg.entries
		m.historyErr = msg.err
		m.historyCursor = 0
		return m, nil

	case watchedFileMsg:
		slog.Info("screenshot detected", "path", msg.path)
		return m, tea.Batch(m.session.AcceptFile(msg.path), waitWatch(m.config.Watch))

	case watchClosedMsg:
		slog.Debug("screenshot watcher closed")
		return m, nil
	}

	// Session results first, then whatever widget owns focus (cursor
	// blink, editor paste).
	cmds := []tea.Cmd{m.session.Update(msg)}
	m.syncEditor()
	cmds = append(cmds, m.updateFocused(msg))
	m.refreshAnswer(false)
	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.Quit) {
		m.quitting = true
		m.session.Close()
		return m, tea.Quit
	}

	switch {
	case m.session.Auth().Open:
		return m.handleAuthKey(msg)
	case m.session.Report().Open:
		return m.handleReportKey(msg)
	case m.session.Feedback().FormOpen:
		return m.handleFeedbackKey(msg)
	}

	switch m.mode {
	case ModeOpenFile:
		return m.handleOpenFileKey(msg)
	case ModeHistory:
		return m.handleHistoryKey(msg)
	}
	return m.handleEditKey(msg)
}

func (m Model) handleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Submit):
		if m.submitDisabled() {
			return m, nil
		}
		cmd, err := m.session.Submit()
		if err != nil {
			slog.Debug("submit rejected", "error", err)
		}
		return m, cmd

	case key.Matches(msg, m.keymap.OpenImage):
		m.mode = ModeOpenFile
		m.editor.Blur()
		m.pathInput.Reset()
		focus := m.pathInput.Focus()
		return m, focus

	case key.Matches(msg, m.keymap.Paste):
		return m, readClipboard(m.config.Clipboard)

	case key.Matches(msg, m.keymap.RemoveImage):
		m.session.RemoveImage()
		return m, nil

	case key.Matches(msg, m.keymap.Difficulty):
		m.session.ToggleDifficulty()
		return m, nil

	case key.Matches(msg, m.keymap.Sample):
		s := msg.String()
		m.session.UseSample(int(s[len(s)-1] - '1'))
		return m, nil

	case key.Matches(msg, m.keymap.ThumbsUp):
		cmd, err := m.session.Rate(model.RatingThumbsUp)
		if err != nil {
			return m, nil
		}
		return m, cmd

	case key.Matches(msg, m.keymap.ThumbsDown):
		cmd, err := m.session.Rate(model.RatingThumbsDown)
		if err != nil {
			return m, nil
		}
		focus := m.openFeedbackForm()
		return m, tea.Batch(cmd, focus)

	case key.Matches(msg, m.keymap.Report):
		focus := m.openReport()
		return m, focus

	case key.Matches(msg, m.keymap.History):
		m.mode = ModeHistory
		m.editor.Blur()
		return m, loadHistory(m.config.History, m.config.HistoryLimit)

	case key.Matches(msg, m.keymap.Login):
		if m.session.QueryState() == session.QueryAuthChallenge {
			return m, m.session.Login()
		}
		return m, nil

	case key.Matches(msg, m.keymap.Dismiss):
		if m.session.QueryState() == session.QuerySubmitting {
			m.session.Cancel()
		} else if m.session.Banner() != nil {
			m.session.DismissBanner()
		}
		return m, nil

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case msg.String() == "pgup" || msg.String() == "pgdown":
		var cmd tea.Cmd
		m.answerView, cmd = m.answerView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.session.SetText(m.editor.Value())
	return m, cmd
}

func (m Model) handleOpenFileKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Select):
		path := strings.TrimSpace(m.pathInput.Value())
		focus := m.backToEditor()
		if path == "" {
			return m, focus
		}
		return m, tea.Batch(m.session.AcceptFile(path), focus)

	case key.Matches(msg, m.keymap.Dismiss):
		focus := m.backToEditor()
		return m, focus
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.historyCursor < len(m.history)-1 {
			m.historyCursor++
		}
	case key.Matches(msg, m.keymap.Select):
		if m.historyCursor < len(m.history) {
			entry := m.history[m.historyCursor]
			m.editor.SetValue(entry.Question)
			m.session.SetText(entry.Question)
			if entry.Difficulty != "" {
				m.session.SetDifficulty(entry.Difficulty)
			}
		}
		focus := m.backToEditor()
		return m, focus
	case key.Matches(msg, m.keymap.Dismiss), key.Matches(msg, m.keymap.History):
		focus := m.backToEditor()
		return m, focus
	}
	return m, nil
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Login), key.Matches(msg, m.keymap.Select):
		return m, m.session.Login()
	case key.Matches(msg, m.keymap.Dismiss):
		m.session.CloseAuthGate()
	}
	return m, nil
}

func (m Model) handleFeedbackKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Next):
		m.feedbackField = (m.feedbackField + 1) % 2
		focus := m.focusFeedbackField()
		return m, focus

	case key.Matches(msg, m.keymap.Select):
		cmd, err := m.session.SubmitDetails()
		if err != nil {
			return m, nil
		}
		focus := m.backToEditor()
		return m, tea.Batch(cmd, focus)

	case key.Matches(msg, m.keymap.Dismiss):
		m.session.CloseFeedbackForm()
		focus := m.backToEditor()
		return m, focus
	}

	var cmd tea.Cmd
	if m.feedbackField == fieldComment {
		m.comment, cmd = m.comment.Update(msg)
		m.session.SetFeedbackComment(m.comment.Value())
	} else {
		m.correction, cmd = m.correction.Update(msg)
		m.session.SetFeedbackCorrection(m.correction.Value())
	}
	return m, cmd
}

func (m Model) handleReportKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	report := m.session.Report()
	if report.Sending || report.Submitted {
		if key.Matches(msg, m.keymap.Dismiss) {
			m.session.CloseReport()
			focus := m.backToEditor()
			return m, focus
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Next):
		m.reportField = (m.reportField + 1) % reportFieldCount
		focus := m.focusReportField()
		return m, focus

	case m.reportField == fieldType && key.Matches(msg, m.keymap.Left):
		m.reportType = (m.reportType + len(model.ProblemTypes) - 1) % len(model.ProblemTypes)
		m.session.SetReportDraft(m.reportDraft())
		return m, nil

	case m.reportField == fieldType && key.Matches(msg, m.keymap.Right):
		m.reportType = (m.reportType + 1) % len(model.ProblemTypes)
		m.session.SetReportDraft(m.reportDraft())
		return m, nil

	case key.Matches(msg, m.keymap.Select):
		cmd, err := m.session.SubmitProblemReport(m.reportDraft())
		m.reportErr = err
		return m, cmd

	case key.Matches(msg, m.keymap.Dismiss):
		m.session.CloseReport()
		focus := m.backToEditor()
		return m, focus
	}

	var cmd tea.Cmd
	switch m.reportField {
	case fieldDescription:
		m.reportDesc, cmd = m.reportDesc.Update(msg)
	case fieldEmail:
		m.email, cmd = m.email.Update(msg)
	}
	m.session.SetReportDraft(m.reportDraft())
	return m, cmd
}

// handleClipboard hands image items to the session, otherwise falls back
// to a plain text paste into the editor.
func (m Model) handleClipboard(msg clipboardMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		slog.Debug("clipboard read failed", "error", msg.err)
	}
	if cmd, ok := m.session.Paste(msg.items); ok {
		return m, cmd
	}
	if m.mode == ModeEdit {
		return m, textarea.Paste
	}
	return m, nil
}

// updateFocused forwards non-key messages to the focused widget.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.session.Auth().Open:
	case m.session.Report().Open:
		if m.reportField == fieldDescription {
			m.reportDesc, cmd = m.reportDesc.Update(msg)
		} else if m.reportField == fieldEmail {
			m.email, cmd = m.email.Update(msg)
		}
	case m.session.Feedback().FormOpen:
		if m.feedbackField == fieldComment {
			m.comment, cmd = m.comment.Update(msg)
		} else {
			m.correction, cmd = m.correction.Update(msg)
		}
	case m.mode == ModeOpenFile:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.mode == ModeEdit:
		m.editor, cmd = m.editor.Update(msg)
		m.session.SetText(m.editor.Value())
	}
	return cmd
}

func (m *Model) openFeedbackForm() tea.Cmd {
	fb := m.session.Feedback()
	m.comment.SetValue(fb.Comment)
	m.correction.SetValue(fb.Correction)
	m.feedbackField = fieldComment
	m.editor.Blur()
	return m.focusFeedbackField()
}

func (m *Model) focusFeedbackField() tea.Cmd {
	if m.feedbackField == fieldComment {
		m.correction.Blur()
		return m.comment.Focus()
	}
	m.comment.Blur()
	return m.correction.Focus()
}

func (m *Model) openReport() tea.Cmd {
	draft := m.session.Report().Draft
	m.reportType = 0
	for i, t := range model.ProblemTypes {
		if t == draft.Type {
			m.reportType = i
		}
	}
	m.reportDesc.SetValue(draft.Description)
	m.email.SetValue(draft.Email)
	m.reportField = fieldDescription
	m.reportErr = nil
	m.editor.Blur()
	m.session.OpenReport()
	return m.focusReportField()
}

func (m *Model) focusReportField() tea.Cmd {
	m.reportDesc.Blur()
	m.email.Blur()
	switch m.reportField {
	case fieldDescription:
		return m.reportDesc.Focus()
	case fieldEmail:
		return m.email.Focus()
	}
	return nil
}

func (m Model) reportDraft() model.ProblemReport {
	return model.ProblemReport{
		Type:        model.ProblemTypes[m.reportType],
		Description: m.reportDesc.Value(),
		Email:       strings.TrimSpace(m.email.Value()),
	}
}

func (m *Model) backToEditor() tea.Cmd {
	m.mode = ModeEdit
	m.pathInput.Blur()
	m.comment.Blur()
	m.correction.Blur()
	m.reportDesc.Blur()
	m.email.Blur()
	return m.editor.Focus()
}

// submitDisabled mirrors the disabled state of the solve button.
func (m Model) submitDisabled() bool {
	return m.session.QueryState() == session.QuerySubmitting || m.session.Recognition().Active()
}

// syncEditor reloads the editor when the session rewrote the draft text.
func (m *Model) syncEditor() {
	if rev := m.session.TextRevision(); rev != m.textRev {
		m.textRev = rev
		m.editor.SetValue(m.session.Draft().Text)
	}
}

// refreshAnswer re-renders the answer viewport when the answer changed.
func (m *Model) refreshAnswer(force bool) {
	answer := m.session.Answer()
	if answer == m.rendered && !force {
		return
	}
	m.rendered = answer
	if answer == nil {
		m.answerView.SetContent("")
		return
	}
	m.answerView.SetContent(view.Render(view.Project(*answer), m.theme, m.answerView.Width))
	if !force {
		m.answerView.GotoTop()
	}
}

// resize adjusts component sizes when terminal resizes.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	m.editor.SetWidth(inner)
	m.editor.SetHeight(4)
	m.pathInput.Width = inner - len(m.pathInput.Prompt)
	m.comment.Width = inner - len(m.comment.Prompt)
	m.correction.Width = inner - len(m.correction.Prompt)
	m.reportDesc.Width = inner - len(m.reportDesc.Prompt)
	m.email.Width = inner - len(m.email.Prompt)
	m.progress.Width = inner
	m.help.Width = width

	m.answerView.Width = width
	answerHeight := height - 14
	if answerHeight < 5 {
		answerHeight = 5
	}
	m.answerView.Height = answerHeight
}
