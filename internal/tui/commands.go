package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	clipboardTimeout = 3 * time.Second
	historyTimeout   = 5 * time.Second
)

var errNoHistory = errors.New("history is not available")

// readClipboard reads the clipboard off the UI loop.
func readClipboard(cb ClipboardReader) tea.Cmd {
	return func() tea.Msg {
		if cb == nil {
			return clipboardMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
		defer cancel()

		items, err := cb.ReadItems(ctx)
		return clipboardMsg{items: items, err: err}
	}
}

// loadHistory loads recent questions from storage.
func loadHistory(h HistoryLister, limit int) tea.Cmd {
	return func() tea.Msg {
		if h == nil {
			return historyLoadedMsg{err: errNoHistory}
		}

		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()

		entries, err := h.RecentQuestions(ctx, limit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

// waitWatch blocks for the next watched path.
func waitWatch(paths <-chan string) tea.Cmd {
	if paths == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-paths
		if !ok {
			return watchClosedMsg{}
		}
		return watchedFileMsg{path: path}
	}
}
