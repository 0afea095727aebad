package view

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mathq/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

const minWidth = 30

// Render draws a Display at the given width.
func Render(d Display, theme themes.Theme, width int) string {
	if width < minWidth {
		width = minWidth
	}
	inner := width - 4

	var sections []string

	badge := theme.Badge.Background(lipgloss.Color(d.Badge.Color)).Render(d.Badge.Icon + " " + d.Badge.Label)
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		theme.Title.MarginBottom(0).Render("Response"),
		"  ",
		badge,
		"  ",
		theme.Subtitle.Render("Source: "+d.SourceLabel),
	)
	sections = append(sections, header)

	if d.ScoreLine != "" {
		sections = append(sections, theme.Italic.Render(d.ScoreLine))
	}

	answer := theme.Bold.Render("Answer:") + "\n" + theme.Normal.Width(inner).Render(d.Answer)
	sections = append(sections, theme.RoundedBox.Width(width-2).Render(answer))

	if len(d.Steps) > 0 {
		lines := []string{theme.Bold.Render("Step-by-Step Solution:")}
		for i, step := range d.Steps {
			lines = append(lines, theme.Normal.Width(inner).Render(fmt.Sprintf("%d. %s", i+1, step)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if d.Panel != nil {
		sections = append(sections, renderPanel(*d.Panel, theme, width))
	}

	if len(d.Matches) > 0 {
		lines := []string{theme.Bold.Render("Knowledge Base Matches:")}
		for _, m := range d.Matches {
			lines = append(lines,
				theme.Code.Render(m.ProblemID)+" "+theme.StatusInfo.Render(m.Score),
				"  "+theme.Normal.Width(inner-2).Render(m.Question),
			)
			if meta := joinNonEmpty(" · ", m.Topic, m.Difficulty); meta != "" {
				lines = append(lines, "  "+theme.Italic.Render(meta))
			}
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if d.MatchedProblem != "" {
		sections = append(sections, theme.Subtitle.Render(d.MatchedProblem))
	}

	if len(d.ExternalSources) > 0 {
		lines := []string{theme.Bold.Render("External API Responses:")}
		for _, src := range d.ExternalSources {
			lines = append(lines, theme.Key.Render(src.Name+":")+" "+theme.Normal.Width(inner).Render(src.Response))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

func renderPanel(p Panel, theme themes.Theme, width int) string {
	color := toneColor(p.Tone, theme)
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(p.Title)

	lines := []string{title}
	if p.Body != "" {
		lines = append(lines, theme.Normal.Width(width-6).Render(p.Body))
	}
	if p.Context != "" {
		lines = append(lines, theme.Italic.Render(p.Context))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}

func toneColor(t Tone, theme themes.Theme) lipgloss.Color {
	switch t {
	case ToneSuccess:
		return theme.Success
	case ToneWarning:
		return theme.Warning
	case ToneError:
		return theme.Error
	default:
		return theme.Info
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
