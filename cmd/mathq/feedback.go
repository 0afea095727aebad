package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/mathq/internal/cli"
	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	types := make([]string, 0, len(model.ProblemTypes))
	for _, t := range model.ProblemTypes {
		types = append(types, string(t))
	}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a problem with mathq or an answer",
		Long: fmt.Sprintf(`Report a problem with mathq or an answer.

Problem types: %s.
The description is prompted for when --description is not given.`, strings.Join(types, ", ")),
		Args: cobra.NoArgs,
		RunE: runReport,
	}

	cmd.Flags().StringP("type", "t", string(model.ProblemBug), "problem type")
	cmd.Flags().StringP("description", "m", "", "what went wrong")
	cmd.Flags().String("email", "", "contact email (optional)")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	typeName, _ := cmd.Flags().GetString("type")
	problemType, err := model.ParseProblemType(typeName)
	if err != nil {
		return err
	}
	report := model.ProblemReport{Type: problemType}
	report.Description, _ = cmd.Flags().GetString("description")
	report.Email, _ = cmd.Flags().GetString("email")

	if strings.TrimSpace(report.Description) == "" {
		reader := cli.NewNonBlockingReader(cmd.InOrStdin())
		report.Description, err = reader.Prompt(ctx, cmd.OutOrStdout(), "Describe the problem")
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read description: %w", err)
		}
	}
	if strings.TrimSpace(report.Description) == "" {
		return common.ErrEmptyDescription
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := client.SubmitFeedback(ctx, report.Submission(time.Now())); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Report sent. Thank you!"))
	return err
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show feedback statistics from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			stats, err := client.FeedbackStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get feedback stats: %w", err)
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, cli.FormatTitle("Feedback statistics")); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" "+client.BaseURL(), formatStats(stats)))
			return err
		},
	}
}

func formatStats(stats model.FeedbackStats) string {
	return cli.RenderTable([][]string{
		{"Total feedback", strconv.Itoa(stats.TotalFeedback)},
		{"👍 Positive", fmt.Sprintf("%d (%s)", stats.Positive, percent(stats.PositiveRate))},
		{"👎 Negative", fmt.Sprintf("%d (%s)", stats.Negative, percent(stats.NegativeRate))},
		{"✏️  With corrections", fmt.Sprintf("%d (%s)", stats.WithCorrections, percent(stats.CorrectionRate))},
	})
}

// percent formats a rate in [0,1].
func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
