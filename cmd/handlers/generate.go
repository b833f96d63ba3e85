package handlers

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"brandforge/internal/core"
	"brandforge/internal/graph"
	"brandforge/internal/llm"
	"brandforge/internal/logger"
)

// NewGenerateCmd creates the generate command: brand foundation plus an
// initial media plan from a brief.
func NewGenerateCmd() *cobra.Command {
	var weeks, postsPerWeek int
	var startOver bool

	cmd := &cobra.Command{
		Use:   "generate [brief-file]",
		Short: "Generate a brand foundation and an initial media plan from a brief",
		Long: `Reads a brand brief (from a file or stdin), generates a brand foundation
and a first media plan, and saves them as the project. Re-running on an
initialized project adds another plan unless --start-over is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			brief, err := readBrief(args)
			if err != nil {
				return err
			}
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := ws.ensureProviders(ctx); err != nil {
				return err
			}

			g := ws.store.Graph()
			if g.BrandFoundation == nil || startOver {
				return generateProject(cmd, ws, brief, weeks, postsPerWeek)
			}
			return generatePlan(cmd, ws, weeks, postsPerWeek)
		},
	}

	cmd.Flags().IntVar(&weeks, "weeks", 4, "number of weeks to plan")
	cmd.Flags().IntVar(&postsPerWeek, "posts", 3, "posts per week")
	cmd.Flags().BoolVar(&startOver, "start-over", false, "discard the current foundation and plans")

	cmd.AddCommand(newGenerateImagesCmd())
	cmd.AddCommand(newGenerateIdeasCmd())
	return cmd
}

func generateProject(cmd *cobra.Command, ws *workspace, brief string, weeks, postsPerWeek int) error {
	ctx := cmd.Context()
	logger.Info("generating brand foundation")
	raw, err := ws.generateText(ctx, fmt.Sprintf(llm.BrandFoundationPromptTemplate, brief))
	if err != nil {
		return fmt.Errorf("brand foundation generation failed: %w", err)
	}
	foundation, err := llm.ParseBrandFoundation(raw)
	if err != nil {
		return fmt.Errorf("brand foundation generation failed: %w", err)
	}

	plan, err := generateMediaPlan(cmd, ws, foundation, weeks, postsPerWeek)
	if err != nil {
		return err
	}

	ws.store.Dispatch(graph.Initialize{
		Foundation: *foundation,
		Plans:      []core.MediaPlanGroup{*plan},
	})
	if err := ws.save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Brand: %s\nMission: %s\n", foundation.Name, foundation.Mission)
	printPlan(cmd.OutOrStdout(), plan)
	return nil
}

func generatePlan(cmd *cobra.Command, ws *workspace, weeks, postsPerWeek int) error {
	foundation := ws.store.Graph().BrandFoundation
	plan, err := generateMediaPlan(cmd, ws, foundation, weeks, postsPerWeek)
	if err != nil {
		return err
	}
	ws.store.Dispatch(graph.AddPlan{Plan: *plan})
	if err := ws.save(); err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), plan)
	return nil
}

func generateMediaPlan(cmd *cobra.Command, ws *workspace, foundation *core.BrandFoundation, weeks, postsPerWeek int) (*core.MediaPlanGroup, error) {
	logger.Info("generating media plan", "weeks", weeks, "posts_per_week", postsPerWeek)
	prompt := fmt.Sprintf(llm.MediaPlanPromptTemplate,
		foundation.Name, foundation.Mission, foundation.Audience, foundation.Personality,
		weeks, postsPerWeek)
	raw, err := ws.generateText(cmd.Context(), prompt)
	if err != nil {
		return nil, fmt.Errorf("media plan generation failed: %w", err)
	}
	plan, err := llm.ParseMediaPlan(raw)
	if err != nil {
		return nil, fmt.Errorf("media plan generation failed: %w", err)
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = time.Now().UTC()
	return plan, nil
}

func readBrief(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read brief: %w", err)
		}
		return string(data), nil
	}
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read brief from stdin: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("a brand brief is required: pass a file or pipe one on stdin")
}

func printPlan(out io.Writer, plan *core.MediaPlanGroup) {
	fmt.Fprintf(out, "Plan %s (%s)\n", plan.Name, plan.ID)
	for wi, week := range plan.Weeks {
		fmt.Fprintf(out, "  Week %d: %s\n", wi+1, week.Theme)
		for _, post := range week.Posts {
			fmt.Fprintf(out, "    [%s] %s (%s)\n", post.Platform, post.Title, post.ID)
		}
	}
}
