package ocr

import (
	"regexp"
	"strings"
)

// Squared-term markers that OCR commonly misreads.
var glyphReplacer = strings.NewReplacer(
	"®", "x²",
	"@", "x²",
)

type rewrite struct {
	pattern *regexp.Regexp
	repl    string
}

// The variable x is frequently recognized as z in these contexts.
var tokenRewrites = []rewrite{
	{regexp.MustCompile(`(?i)\bsin\s+z\b`), "sin x"},
	{regexp.MustCompile(`(?i)\bcos\s+z\b`), "cos x"},
	{regexp.MustCompile(`(?i)\bf\s*\(\s*z\s*\)`), "f(x)"},
	{regexp.MustCompile(`(?i)\(\s*z\s*\)`), "(x)"},
}

var (
	spacedExponent = regexp.MustCompile(`(?i)\be\s*\^\s*x`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Normalize cleans raw recognized text into a math question.
// An empty result means no usable text was found.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = glyphReplacer.Replace(text)

	for _, rw := range tokenRewrites {
		text = rw.pattern.ReplaceAllLiteralString(text, rw.repl)
	}

	text = spacedExponent.ReplaceAllLiteralString(text, "e^x")

	// \s here must match the class used by the rules above, otherwise
	// collapsing could expose new matches and break idempotence.
	text = whitespaceRun.ReplaceAllLiteralString(text, " ")

	return strings.TrimSpace(text)
}
