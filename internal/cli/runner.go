package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/session"
	"github.com/Veraticus/mathq/internal/tui/themes"
	"github.com/Veraticus/mathq/internal/view"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
)

// DefaultWidth is the render width when the terminal size is unknown.
const DefaultWidth = 100

// Question is one non-interactive question. Text, when set, is sent
// instead of whatever was recognized from ImagePath.
type Question struct {
	Text       string
	ImagePath  string
	Difficulty model.Difficulty
}

// Runner drives a session outside the terminal UI, running every command
// to completion on the calling goroutine.
type Runner struct {
	writer      io.Writer
	progressW   io.Writer
	session     *session.Session
	progressBar *progressbar.ProgressBar
	theme       themes.Theme
	width       int
}

// NewRunner creates a runner printing answers to writer and recognition
// progress to progressW.
func NewRunner(s *session.Session, writer, progressW io.Writer) *Runner {
	if writer == nil {
		writer = os.Stdout
	}
	if progressW == nil {
		progressW = os.Stderr
	}
	return &Runner{
		writer:    writer,
		progressW: progressW,
		session:   s,
		theme:     themes.Default,
		width:     DefaultWidth,
	}
}

// SetTheme changes the theme used to render answers.
func (r *Runner) SetTheme(theme themes.Theme) {
	r.theme = theme
}

// SetWidth changes the render width.
func (r *Runner) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// Ask recognizes the image (if any), submits the question and returns its
// outcome. A 401 triggers one login and one resubmission of the same text.
func (r *Runner) Ask(ctx context.Context, q Question) (model.QueryOutcome, error) {
	if q.Difficulty != "" {
		r.session.SetDifficulty(q.Difficulty)
	}

	if q.ImagePath != "" {
		if err := r.recognize(ctx, q.ImagePath); err != nil {
			return model.QueryOutcome{}, err
		}
		if q.Text == "" {
			slog.Info("recognized question", "text", r.session.Draft().Text)
			if _, err := fmt.Fprintln(r.writer, FormatInfo("Question: "+r.session.Draft().Text)); err != nil {
				return model.QueryOutcome{}, fmt.Errorf("failed to write question: %w", err)
			}
		}
	}
	if q.Text != "" {
		r.session.SetText(q.Text)
	}

	outcome, err := r.submit(ctx)
	if err != nil {
		return model.QueryOutcome{}, err
	}
	if outcome.Kind != model.OutcomeAuthRequired {
		return outcome, nil
	}

	if _, err := fmt.Fprintln(r.writer, FormatWarning("Login required, logging in...")); err != nil {
		return model.QueryOutcome{}, fmt.Errorf("failed to write status: %w", err)
	}
	if err := r.pump(ctx, r.session.Login()); err != nil {
		return model.QueryOutcome{}, err
	}
	if msg := r.session.Auth().Error; msg != "" {
		return outcome, common.NewUserError(msg, common.ErrAuthRequired)
	}
	return r.submit(ctx)
}

// Print renders an outcome. Failures are printed and returned.
func (r *Runner) Print(outcome model.QueryOutcome) error {
	if outcome.Kind == model.OutcomeAnswer && outcome.Answer != nil {
		rendered := view.Render(view.Project(*outcome.Answer), r.theme, r.width)
		if _, err := fmt.Fprintln(r.writer, rendered); err != nil {
			return fmt.Errorf("failed to write answer: %w", err)
		}
		return nil
	}

	err := outcome.Err
	if err == nil {
		err = errors.New(string(outcome.Kind))
	}
	if _, werr := fmt.Fprintln(r.writer, FormatError(common.UserMessage(err))); werr != nil {
		return fmt.Errorf("failed to write error: %w", werr)
	}
	return err
}

func (r *Runner) submit(ctx context.Context) (model.QueryOutcome, error) {
	cmd, err := r.session.Submit()
	if err != nil {
		return model.QueryOutcome{}, err
	}
	if err := r.pump(ctx, cmd); err != nil {
		return model.QueryOutcome{}, err
	}
	out := r.session.LastOutcome()
	if out == nil {
		return model.QueryOutcome{}, errors.New("query produced no outcome")
	}
	return *out, nil
}

func (r *Runner) recognize(ctx context.Context, path string) error {
	r.initProgressBar()
	defer r.finishProgress()

	if err := r.pump(ctx, r.session.AcceptFile(path)); err != nil {
		return err
	}

	job := r.session.Recognition()
	switch {
	case job.Status == model.JobFailed:
		return job.Err
	case r.session.Draft().SourceImage == nil:
		// The file was rejected before recognition started.
		if err := r.session.Banner(); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", common.ErrNotAnImage, path)
	case strings.TrimSpace(r.session.Draft().Text) == "":
		return common.ErrNoTextDetected
	}
	return nil
}

// pump runs cmd and every command its messages lead to.
func (r *Runner) pump(ctx context.Context, cmd tea.Cmd) error {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		queue = append(queue, r.session.Update(msg))
		r.updateProgress()
	}
	return nil
}

func (r *Runner) initProgressBar() {
	r.progressBar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(r.progressW),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetDescription("[cyan][bold]Reading image...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(r.progressW); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func (r *Runner) updateProgress() {
	if r.progressBar == nil {
		return
	}
	job := r.session.Recognition()
	if !job.Active() {
		return
	}
	if err := r.progressBar.Set(job.ProgressPercent); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

func (r *Runner) finishProgress() {
	if r.progressBar == nil {
		return
	}
	if r.session.Recognition().Status == model.JobDone {
		if err := r.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	} else if err := r.progressBar.Clear(); err != nil {
		slog.Warn("Failed to clear progress bar", "error", err)
	}
	r.progressBar = nil
}
