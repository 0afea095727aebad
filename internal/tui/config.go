package tui

import (
	"context"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/session"
	"github.com/Veraticus/mathq/internal/tui/themes"
)

// HistoryLister reads back the outcomes recorded during this session.
type HistoryLister interface {
	RecentQuestions(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Session   *session.Session
	History   HistoryLister
	Clipboard ClipboardReader
	Recorder  *Recorder
	// Watch delivers paths of new screenshots.
	Watch        <-chan string
	HistoryLimit int
	Width        int
	Height       int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Clipboard:    SystemClipboard{},
		HistoryLimit: 50,
		Width:        80,
		Height:       24,
	}
}

// WithSession sets the session the TUI drives.
func WithSession(s *session.Session) Option {
	return func(c *Config) {
		c.Session = s
	}
}

// WithHistory sets where the history view reads from.
func WithHistory(h HistoryLister) Option {
	return func(c *Config) {
		c.History = h
	}
}

// WithClipboard replaces the system clipboard reader.
func WithClipboard(cb ClipboardReader) Option {
	return func(c *Config) {
		c.Clipboard = cb
	}
}

// WithWatch routes screenshot paths into the session.
func WithWatch(paths <-chan string) Option {
	return func(c *Config) {
		c.Watch = paths
	}
}

// WithRecorder records every frame for debugging.
func WithRecorder(r *Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
