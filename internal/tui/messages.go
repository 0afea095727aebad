package tui

import (
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/session"
)

// Clipboard read finished.
type clipboardMsg struct {
	err   error
	items []session.ClipboardItem
}

type historyLoadedMsg struct {
	err     error
	entries []model.HistoryEntry
}

// A screenshot appeared in the watched directory.
type watchedFileMsg struct {
	path string
}

type watchClosedMsg struct{}
