package ocr

import (
	"context"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Event is one message from a running Task: either a progress report or,
// exactly once and last, the final result.
type Event struct {
	Err      error
	Text     string
	Progress Progress
	Final    bool
}

// Task is a single asynchronous recognition run. Events delivers progress
// and then the final result; the channel is closed once the run ends.
// After Cancel the final event is dropped and only the close is observed.
type Task struct {
	events chan Event
	cancel context.CancelFunc
}

// Start launches rec on img in its own goroutine.
func Start(ctx context.Context, rec Recognizer, img model.Image, opts Options) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		events: make(chan Event, 8),
		cancel: cancel,
	}
	go t.run(ctx, rec, img, opts)
	return t
}

func (t *Task) run(ctx context.Context, rec Recognizer, img model.Image, opts Options) {
	defer close(t.events)
	defer t.cancel()

	ctx, span := telemetry.Tracer("github.com/Veraticus/mathq/internal/ocr").Start(ctx, "ocr.Recognize",
		trace.WithAttributes(
			attribute.String("ocr.engine", rec.Name()),
			attribute.String("ocr.mime_type", img.MIMEType),
			attribute.Int64("ocr.image_bytes", img.Size()),
		))

	text, err := rec.Recognize(ctx, img, opts, func(p Progress) {
		select {
		case t.events <- Event{Progress: p}:
		case <-ctx.Done():
		}
	})

	telemetry.End(span, err)
	if ctx.Err() != nil {
		return
	}

	select {
	case t.events <- Event{Final: true, Text: text, Err: err}:
	case <-ctx.Done():
	}
}

// Events returns the task's event stream.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Cancel stops the run. Safe to call more than once.
func (t *Task) Cancel() {
	t.cancel()
}
