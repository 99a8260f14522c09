package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/studio"

	"github.com/spf13/cobra"
)

var (
	planFile      string
	planCount     int
	planTemplates []string
	planVibe      string
	planJSON      bool
)

var planCmd = &cobra.Command{
	Use:   "plan <kind> [brief]",
	Short: "Build a plan from a brief without rendering",
	Long: `Build a structured plan for one of the domains (thumbnail, lp, slides, manga, digest).

Without an API key the plan is derived from the brief outline and reported as
fallback:no_credential.`,
	Example: `  # Three thumbnail variations
  studio plan thumbnail "Go 入門講座" --count 3

  # Slides from an outline file, printed as JSON
  studio plan slides -f outline.md --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addBriefFlags(planCmd, &planFile, &planCount, &planTemplates, &planVibe)
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
}

func addBriefFlags(cmd *cobra.Command, file *string, count *int, templates *[]string, vibe *string) {
	cmd.Flags().StringVarP(file, "file", "f", "", "Read the brief from a file (- for stdin)")
	cmd.Flags().IntVar(count, "count", 0, "Number of items (thumbnail variations, slides, panels)")
	cmd.Flags().StringSliceVar(templates, "template", nil, "Template ids to use (repeatable)")
	cmd.Flags().StringVar(vibe, "vibe", "", "Extra style direction")
}

func runPlan(cmd *cobra.Command, args []string) error {
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	text, err := readBrief(args[1:], planFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	svc, closeFn, err := newService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	outcome, err := svc.Plan(cmd.Context(), studio.RunConfig{
		Domain:  kind,
		Options: studio.RunOptions{Count: planCount, TemplateIDs: planTemplates, Vibe: planVibe},
	}, text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if planJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Value)
	}
	printPlan(out, outcome.Value, outcome.Status(), outcome.Detail)
	return nil
}

func printPlan(w io.Writer, plan domain.Plan, status, detail string) {
	title := plan.Title
	if title == "" {
		title = string(plan.Kind)
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(title), statusLine(status))
	if detail != "" {
		fmt.Fprintln(w, labelStyle.Render(detail))
	}
	for i, item := range plan.Items {
		name := item.Title
		if name == "" {
			name = item.ID
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%2d.", i+1)), name)
		if prompt := strings.TrimSpace(item.Prompt); prompt != "" {
			fmt.Fprintf(w, "    %s\n", labelStyle.Render(prompt))
		}
	}
}
