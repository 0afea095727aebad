package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/mathq/internal/cli"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/tui/themes"
	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [QUESTION]",
		Short: "Ask one question and print the answer",
		Long: `Ask one question and print the answer.

The question comes from the argument, from the text recognized in --image, or
from a prompt when neither is given. When both are given the argument is sent
and the image is only read.

Examples:
  mathq ask "Find the derivative of x^2 sin x"
  mathq ask --image ~/Pictures/question.png --difficulty advanced`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringP("image", "i", "", "screenshot or photo of the question")
	cmd.Flags().StringP("difficulty", "d", "", "JEE_Main or JEE_Advanced (default from query.difficulty)")
	cmd.Flags().Int("width", cli.DefaultWidth, "width of the rendered answer")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := startTelemetry(cmd.Context(), cfg, cmd.ErrOrStderr()); err != nil {
		return err
	}

	q := cli.Question{}
	if len(args) == 1 {
		q.Text = args[0]
	}
	q.ImagePath, _ = cmd.Flags().GetString("image")
	if d, _ := cmd.Flags().GetString("difficulty"); d != "" {
		if q.Difficulty, err = model.ParseDifficulty(d); err != nil {
			return err
		}
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Question cancelled")
	ctx := handler.HandleInterrupts(cmd.Context())

	if q.Text == "" && q.ImagePath == "" {
		reader := cli.NewNonBlockingReader(cmd.InOrStdin())
		text, err := reader.Prompt(ctx, cmd.OutOrStdout(), cli.MathIcon+" Question")
		if err != nil {
			if errors.Is(err, cli.ErrInputCancelled) {
				return nil
			}
			return fmt.Errorf("failed to read question: %w", err)
		}
		q.Text = text
	}

	s, err := newSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	runner := cli.NewRunner(s, cmd.OutOrStdout(), cmd.ErrOrStderr())
	runner.SetTheme(themes.GetTheme(cfg.TUI.Theme))
	if width, _ := cmd.Flags().GetInt("width"); width > 0 {
		runner.SetWidth(width)
	}

	outcome, err := runner.Ask(ctx, q)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}
	return runner.Print(outcome)
}
