package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/session"
	"github.com/charmbracelet/lipgloss"
)

const historyPreviewLen = 60

func (m Model) render() string {
	sections := []string{m.renderHeader()}

	if banner := m.session.BannerText(); m.session.Banner() != nil {
		sections = append(sections, m.theme.Banner.Width(m.innerWidth()).Render("⚠️  "+banner+"  (Esc to dismiss)"))
	}

	switch {
	case m.session.Auth().Open:
		sections = append(sections, m.renderAuth())
	case m.session.Report().Open:
		sections = append(sections, m.renderReport())
	case m.mode == ModeHistory:
		sections = append(sections, m.renderHistory())
	default:
		sections = append(sections, m.renderDraft()...)
		if m.session.Feedback().FormOpen {
			sections = append(sections, m.renderFeedbackForm())
		} else if m.session.Answer() != nil {
			sections = append(sections, m.answerView.View())
		}
	}

	sections = append(sections, m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	draft := m.session.Draft()
	difficulty := m.theme.Badge.Background(m.theme.Primary).Render(draft.Difficulty.Label())
	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.theme.Title.MarginBottom(0).Render("🧮 mathq"),
		"  ",
		difficulty,
		"  ",
		m.theme.Subtitle.Render("JEE math assistant"),
	)
}

// renderDraft renders the editor, image and status lines.
func (m Model) renderDraft() []string {
	var out []string

	if m.mode == ModeOpenFile {
		out = append(out, m.theme.RoundedBox.Render(m.pathInput.View()))
	}
	out = append(out, m.theme.RoundedBox.Render(m.editor.View()))

	if line := m.renderImage(); line != "" {
		out = append(out, line)
	}
	if job := m.session.Recognition(); job.Active() {
		out = append(out,
			m.theme.StatusPending.Render(fmt.Sprintf("🔍 Reading image... %d%%", job.ProgressPercent)),
			m.progress.ViewAs(float64(job.ProgressPercent)/100),
		)
	}

	draft := m.session.Draft()
	if !draft.HasText() && draft.SourceImage == nil && m.session.Answer() == nil {
		out = append(out, m.renderSamples())
	}

	if status := m.renderStatus(); status != "" {
		out = append(out, status)
	}
	return out
}

func (m Model) renderImage() string {
	img := m.session.Draft().SourceImage
	if img == nil {
		return ""
	}
	preview := m.session.Preview()
	if preview == nil {
		return m.theme.Normal.Render(fmt.Sprintf("🖼  %s (%s)", img.Name, formatBytes(img.Size())))
	}
	dims := ""
	if preview.Width > 0 {
		dims = fmt.Sprintf(" %dx%d", preview.Width, preview.Height)
	}
	return m.theme.Normal.Render(fmt.Sprintf("🖼  %s (%s%s, %s)  %s",
		preview.Name, preview.Format, dims, formatBytes(preview.Bytes),
		m.theme.Key.Render("Ctrl+X")+" remove"))
}

func (m Model) renderSamples() string {
	lines := []string{m.theme.Italic.Render("Try a sample question:")}
	for i, q := range session.SampleQuestions {
		lines = append(lines, fmt.Sprintf("  %s %s", m.theme.Key.Render(fmt.Sprintf("Alt+%d", i+1)), q))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	switch m.session.QueryState() {
	case session.QuerySubmitting:
		return m.theme.StatusPending.Render("⏳ Solving... (Esc to cancel)")
	case session.QueryAuthChallenge:
		return m.theme.StatusWarning.Render("🔒 Login required. Press Ctrl+L to log in.")
	case session.QueryAnswered:
		if m.session.Feedback().Submitted {
			return m.theme.StatusSuccess.Render("✓ Thanks for your feedback!")
		}
		return m.theme.Subtitle.Render(fmt.Sprintf("Was this helpful?  %s 👍  %s 👎  %s report",
			m.theme.Key.Render("Ctrl+U"), m.theme.Key.Render("Ctrl+N"), m.theme.Key.Render("Ctrl+R")))
	}
	if m.session.Recognition().Active() {
		return ""
	}
	if m.session.CanSubmit() {
		return m.theme.Subtitle.Render(m.theme.Key.Render("Ctrl+S") + " to solve")
	}
	return ""
}

func (m Model) renderFeedbackForm() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Bold.Render("👎 Tell us what went wrong"),
		m.comment.View(),
		m.correction.View(),
		m.theme.StatusPending.Render("Tab next field · Enter send · Esc close"),
	)
	return m.theme.RoundedBox.Width(m.innerWidth()).Render(content)
}

func (m Model) renderReport() string {
	report := m.session.Report()

	var body string
	switch {
	case report.Submitted:
		body = m.theme.StatusSuccess.Render("✓ Report sent. Thank you!")
	case report.Sending:
		body = m.theme.StatusPending.Render("Sending report...")
	default:
		var types []string
		for i, t := range model.ProblemTypes {
			label := string(t)
			if i == m.reportType {
				label = m.theme.Selected.Render(label)
			}
			types = append(types, label)
		}
		typeLine := "Type: " + strings.Join(types, " ")
		if m.reportField == fieldType {
			typeLine = m.theme.Key.Render("> ") + typeLine
		}
		lines := []string{typeLine, m.reportDesc.View(), m.email.View()}
		if m.reportErr != nil {
			lines = append(lines, m.theme.StatusError.Render(m.reportErr.Error()))
		}
		lines = append(lines, m.theme.StatusPending.Render("Tab next field · ←/→ type · Enter send · Esc close"))
		body = strings.Join(lines, "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Bold.Render("🐞 Report a problem"),
		body,
	)
	return m.theme.RoundedBox.Width(m.innerWidth()).Render(content)
}

func (m Model) renderAuth() string {
	auth := m.session.Auth()
	lines := []string{
		m.theme.Bold.Render("🔒 Login required"),
		"The service needs you to log in before answering.",
	}
	switch {
	case auth.LoggingIn:
		lines = append(lines, m.theme.StatusPending.Render("Logging in..."))
	case auth.Error != "":
		lines = append(lines, m.theme.StatusError.Render(auth.Error))
	}
	lines = append(lines, m.theme.StatusPending.Render("Enter/Ctrl+L log in · Esc close"))
	return m.theme.RoundedBox.Width(m.innerWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHistory() string {
	lines := []string{m.theme.Bold.Render("🕘 This session")}

	switch {
	case m.historyErr != nil:
		lines = append(lines, m.theme.StatusError.Render(m.historyErr.Error()))
	case len(m.history) == 0:
		lines = append(lines, m.theme.StatusPending.Render("No questions asked yet."))
	}

	for i, entry := range m.history {
		line := fmt.Sprintf("%s  %-12s %s  %s",
			entry.CreatedAt.Local().Format("15:04:05"),
			entry.Difficulty.Label(),
			outcomeIcon(entry.Kind),
			truncate(entry.Question, historyPreviewLen),
		)
		if i == m.historyCursor {
			line = m.theme.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, m.theme.StatusPending.Render("↑/↓ move · Enter reuse question · Esc back"))
	return m.theme.RoundedBox.Width(m.innerWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) innerWidth() int {
	if m.width < 24 {
		return 20
	}
	return m.width - 4
}

func outcomeIcon(kind model.OutcomeKind) string {
	switch kind {
	case model.OutcomeAnswer:
		return "✓"
	case model.OutcomeAuthRequired:
		return "🔒"
	case model.OutcomeTimeout:
		return "⏱"
	default:
		return "✗"
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
