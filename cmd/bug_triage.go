package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/bugfix/internal/output"
)

var (
	triageDesc string
	triageLLM  bool
)

var bugTriageCmd = &cobra.Command{
	Use:   "triage <title...>",
	Short: "Suggest a category and urgency for a bug title",
	Long: `Suggest a category, priority, and importance for a bug report.

By default uses keyword heuristics. With --llm, asks the configured
Anthropic model for a suggestion instead (requires an API key).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugTriageRun(strings.Join(args, " "))
	},
}

func init() {
	bugTriageCmd.Flags().StringVar(&triageDesc, "desc", "", "Bug description for extra context (LLM only)")
	bugTriageCmd.Flags().BoolVar(&triageLLM, "llm", false, "Use the Anthropic API instead of keyword heuristics")
}

func bugTriageRun(title string) error {
	if triageLLM {
		return bugTriageLLMRun(title)
	}

	category := classifyCategory(title)
	urgency := classifyUrgency(title)

	fmt.Fprintf(ui.Out, "  Category:    %s\n", category)
	fmt.Fprintf(ui.Out, "  Priority:    %s\n", output.ScaleColor(urgency))
	fmt.Fprintf(ui.Out, "  Importance:  %s\n", output.ScaleColor(urgency))
	return nil
}

func bugTriageLLMRun(title string) error {
	client := newLLMClient()
	if client == nil {
		return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}

	ui.VerboseLog("Asking model for triage suggestion")
	triage, err := client.SuggestTriage(context.Background(), title, triageDesc)
	if err != nil {
		return fmt.Errorf("triage suggestion: %w", err)
	}

	fmt.Fprintf(ui.Out, "  Category:    %s\n", triage.Category)
	fmt.Fprintf(ui.Out, "  Priority:    %s\n", output.ScaleColor(triage.Priority))
	fmt.Fprintf(ui.Out, "  Importance:  %s\n", output.ScaleColor(triage.Importance))
	if triage.Rationale != "" {
		fmt.Fprintf(ui.Out, "  Rationale:   %s\n", triage.Rationale)
	}
	return nil
}
