// Package view projects backend answers into a display model and renders
// it for the terminal.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/mathq/internal/model"
)

// Badge is the confidence indicator.
type Badge struct {
	Color string
	Label string
	Icon  string
}

var badges = map[model.Confidence]Badge{
	model.ConfidenceHigh:   {Color: "#10b981", Label: "HIGH CONFIDENCE", Icon: "✓"},
	model.ConfidenceMedium: {Color: "#f59e0b", Label: "MEDIUM CONFIDENCE", Icon: "~"},
	model.ConfidenceLow:    {Color: "#ef4444", Label: "LOW CONFIDENCE", Icon: "!"},
	model.ConfidenceNone:   {Color: "#6b7280", Label: "NO MATCH", Icon: "×"},
}

// BadgeFor maps a confidence level to its badge. Unknown and empty levels
// get the no-match badge.
func BadgeFor(c model.Confidence) Badge {
	if b, ok := badges[c]; ok {
		return b
	}
	return badges[model.ConfidenceNone]
}

var sourceLabels = map[model.Source]string{
	model.SourceKnowledgeBase: "📚 KB",
	model.SourceGeminiWithDB:  "🤖 Gemini + DB",
	model.SourceGeminiRAG:     "🤖 Gemini RAG",
	model.SourcePerplexityWeb: "🌐 Web Search",
	model.SourceNotFound:      "❌ Not Found",
}

// SourceLabel is the short label of an answer source.
func SourceLabel(s model.Source) string {
	if label, ok := sourceLabels[s]; ok {
		return label
	}
	return "🌐 External"
}

// PanelKind identifies the contextual panel shown for a source.
type PanelKind string

// Panel kinds, one per known source.
const (
	PanelKnowledgeBase PanelKind = "knowledge_base_match"
	PanelAIWithDB      PanelKind = "ai_with_db_context"
	PanelAIGenerated   PanelKind = "ai_generated"
	PanelWebSearch     PanelKind = "web_search_fallback"
	PanelNotFound      PanelKind = "not_found"
)

// Tone colors a panel.
type Tone string

// Panel tones.
const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Panel explains where an answer came from.
type Panel struct {
	Kind    PanelKind
	Title   string
	Body    string
	Context string
	Tone    Tone
}

// MatchLine is one knowledge-base match prepared for display.
type MatchLine struct {
	ProblemID  string
	Score      string
	Question   string
	Topic      string
	Difficulty string
}

// ExternalSource is one named external API response.
type ExternalSource struct {
	Name     string
	Response string
}

// Display is everything needed to show an answer.
type Display struct {
	Panel           *Panel
	Badge           Badge
	SourceLabel     string
	ScoreLine       string
	Answer          string
	MatchedProblem  string
	Steps           []string
	Matches         []MatchLine
	ExternalSources []ExternalSource
}

// Project maps an answer to its display model. It is a pure function of
// the payload.
func Project(p model.AnswerPayload) Display {
	d := Display{
		Badge:       BadgeFor(p.Confidence),
		SourceLabel: SourceLabel(p.Source),
		Answer:      p.Answer,
		Panel:       panelFor(p),
	}

	if p.ConfidenceScore > 0 {
		d.ScoreLine = "Similarity Score: " + percent(p.ConfidenceScore)
	}

	if len(p.ReasoningSteps) > 0 {
		d.Steps = append([]string(nil), p.ReasoningSteps...)
	}

	for _, m := range p.KBMatches {
		d.Matches = append(d.Matches, MatchLine{
			ProblemID:  m.ProblemID,
			Score:      percent(m.Score),
			Question:   m.Question,
			Topic:      m.Topic,
			Difficulty: m.Difficulty,
		})
	}

	if p.MatchedProblemID != "" {
		parts := []string{"Matched Problem: " + p.MatchedProblemID}
		if p.Topic != "" {
			parts = append(parts, "Topic: "+p.Topic)
		}
		if p.Difficulty != "" {
			parts = append(parts, "Level: "+p.Difficulty)
		}
		d.MatchedProblem = strings.Join(parts, " | ")
	}

	names := make([]string, 0, len(p.ExternalSources))
	for name := range p.ExternalSources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.ExternalSources = append(d.ExternalSources, ExternalSource{Name: name, Response: p.ExternalSources[name]})
	}

	return d
}

func panelFor(p model.AnswerPayload) *Panel {
	switch p.Source {
	case model.SourceKnowledgeBase:
		panel := &Panel{
			Kind:  PanelKnowledgeBase,
			Title: "📚 Knowledge Base Match",
			Body:  orDefault(p.Note, "Answer retrieved from the curated problem database."),
			Tone:  ToneSuccess,
		}
		if p.MatchedProblemID != "" {
			panel.Context = fmt.Sprintf("📊 Matched Problem: %s | Similarity: %s", p.MatchedProblemID, percent(p.ConfidenceScore))
		}
		return panel

	case model.SourceGeminiWithDB:
		panel := &Panel{
			Kind:  PanelAIWithDB,
			Title: "✅ Database Match Found - Gemini Analysis",
			Body:  p.Note,
			Tone:  ToneSuccess,
		}
		if p.MatchedProblemID != "" {
			panel.Context = fmt.Sprintf("📊 Matched Problem: %s | Similarity: %s", p.MatchedProblemID, percent(p.ConfidenceScore))
		}
		return panel

	case model.SourceGeminiRAG:
		panel := &Panel{
			Kind:  PanelAIGenerated,
			Title: "🤖 AI-Generated Solution",
			Body:  p.Note,
			Tone:  ToneInfo,
		}
		if n := len(p.KBMatches); n > 0 {
			panel.Context = fmt.Sprintf("ℹ️ Context provided from %d similar problem(s) in knowledge base", n)
		}
		return panel

	case model.SourcePerplexityWeb:
		return &Panel{
			Kind:    PanelWebSearch,
			Title:   "🌐 Web Search Result",
			Body:    p.Note,
			Context: "⚠️ This problem was not found in our database - answer from web search",
			Tone:    ToneWarning,
		}

	case model.SourceNotFound:
		panel := &Panel{
			Kind:  PanelNotFound,
			Title: "❌ Problem Not Found",
			Body:  p.Note,
			Tone:  ToneError,
		}
		if p.Suggestion != "" {
			panel.Context = "💡 " + p.Suggestion
		}
		return panel
	}

	return nil
}

func percent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
