package tui

import (
	"context"
	"os/exec"

	"github.com/Veraticus/mathq/internal/session"
)

// ClipboardReader returns what is on the clipboard as session paste items.
type ClipboardReader interface {
	ReadItems(ctx context.Context) ([]session.ClipboardItem, error)
}

type clipboardTool struct {
	name string
	args []string
}

// Tried in order; the first one installed that produces output wins.
var clipboardTools = []clipboardTool{
	{name: "wl-paste", args: []string{"--no-newline", "--type", "image/png"}},
	{name: "xclip", args: []string{"-selection", "clipboard", "-target", "image/png", "-out"}},
	{name: "pngpaste", args: []string{"-"}},
}

// SystemClipboard reads image data through the platform clipboard tools.
// Text is left to the editor's own paste.
type SystemClipboard struct{}

// ReadItems returns at most one item. No tool or no image is not an error.
func (SystemClipboard) ReadItems(ctx context.Context) ([]session.ClipboardItem, error) {
	for _, tool := range clipboardTools {
		path, err := exec.LookPath(tool.name)
		if err != nil {
			continue
		}
		out, err := exec.CommandContext(ctx, path, tool.args...).Output() // #nosec G204 -- fixed tool table
		if err != nil || len(out) == 0 {
			continue
		}
		return []session.ClipboardItem{{
			Name:     "pasted-image",
			MIMEType: session.DetectMIMEType("", out),
			Data:     out,
		}}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}
