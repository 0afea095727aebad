package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Recorder captures TUI state changes and rendered frames for debugging.
type Recorder struct {
	logFile  *os.File
	frameDir string
	frameNum int
	enabled  bool
}

// NewRecorder creates a recorder writing into dir. An empty dir picks a
// fresh directory under the system temp dir.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("mathq-record-%d", time.Now().Unix()))
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	logPath := filepath.Join(dir, "tui.log")
	logFile, err := os.Create(filepath.Clean(logPath)) // #nosec G304 -- safe constructed path
	if err != nil {
		return nil, fmt.Errorf("failed to create recording log: %w", err)
	}

	r := &Recorder{
		enabled:  true,
		logFile:  logFile,
		frameDir: dir,
	}
	r.Log("TUI Recorder started at %s", dir)
	return r, nil
}

// Dir is where frames are written.
func (r *Recorder) Dir() string {
	return r.frameDir
}

// Frames is the number of frames recorded so far.
func (r *Recorder) Frames() int {
	return r.frameNum
}

// RecordState captures the state after msg was applied.
func (r *Recorder) RecordState(m Model, msg tea.Msg) {
	if r == nil || !r.enabled {
		return
	}

	r.frameNum++

	r.Log("\n=== Frame %d ===", r.frameNum)
	r.Log("Time: %s", time.Now().Format("15:04:05.000"))
	r.Log("Message Type: %T", msg)
	r.Log("Mode: %d", m.mode)
	r.Log("Query: %s", m.session.QueryState())
	r.Log("Recognition: %s %d%%", m.session.Recognition().Status, m.session.Recognition().ProgressPercent)

	frame := m.View()
	framePath := filepath.Join(r.frameDir, fmt.Sprintf("frame-%04d.txt", r.frameNum))
	if err := os.WriteFile(framePath, []byte(frame), 0600); err != nil {
		r.Log("Error saving frame: %v", err)
	}
}

// Log writes to the log file.
func (r *Recorder) Log(format string, args ...any) {
	if r == nil || !r.enabled || r.logFile == nil {
		return
	}

	if _, err := fmt.Fprintf(r.logFile, format+"\n", args...); err != nil {
		return
	}
	_ = r.logFile.Sync()
}

// Close closes the recorder.
func (r *Recorder) Close() {
	if r == nil || r.logFile == nil {
		return
	}
	r.Log("Recording complete. %d frames captured.", r.frameNum)
	_ = r.logFile.Close() // Best effort close
	r.enabled = false
}
