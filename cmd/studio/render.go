package main

import (
	"fmt"

	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/studio"

	"github.com/spf13/cobra"
)

var (
	renderFile      string
	renderCount     int
	renderTemplates []string
	renderVibe      string
	renderPatterns  int
	renderOut       string
	renderWidth     int
	renderNegative  string
)

var renderCmd = &cobra.Command{
	Use:   "render <kind> [brief]",
	Short: "Plan, render and combine the adopted images into one PNG",
	Example: `  # Render an LP in two patterns and write the combined image
  studio render lp "新しい家計簿アプリ" --patterns 2 --out lp.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addBriefFlags(renderCmd, &renderFile, &renderCount, &renderTemplates, &renderVibe)
	renderCmd.Flags().IntVar(&renderPatterns, "patterns", 0, fmt.Sprintf("Number of patterns to render (max %d)", studio.MaxPatterns))
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "combined.png", "Output PNG path (gs:// and s3:// URIs are uploaded)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Minimum width of the combined image")
	renderCmd.Flags().StringVar(&renderNegative, "negative", "", "Elements to keep out of the images")
}

func runRender(cmd *cobra.Command, args []string) error {
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	text, err := readBrief(args[1:], renderFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	svc, closeFn, err := newService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	session, err := svc.Generate(cmd.Context(), studio.RunConfig{
		Domain: kind,
		Options: studio.RunOptions{
			Count:          renderCount,
			Patterns:       renderPatterns,
			TemplateIDs:    renderTemplates,
			Vibe:           renderVibe,
			NegativePrompt: renderNegative,
		},
	}, text, progressPrinter(out))
	if err != nil {
		return err
	}

	view := session.View()
	printPlan(out, view.Plan, view.PlanStatus, "")
	if view.Demo {
		fmt.Fprintln(out, warnStyle.Render("demo mode: API キーが無いためプレースホルダー画像です"))
	}

	composite, err := session.Compose(cmd.Context(), renderWidth)
	if err != nil {
		return fmt.Errorf("failed to compose images: %w", err)
	}
	if err := writeOutput(cmd.Context(), renderOut, composite.PNG, "image/png"); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOut, err)
	}
	fmt.Fprintf(out, "%s %s (%dx%d)\n", successStyle.Render("saved"), renderOut, composite.Width, composite.Height)
	return nil
}
