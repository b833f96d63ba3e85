package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/core"
	"brandforge/internal/graph"
	"brandforge/internal/llm"
)

// newGenerateIdeasCmd creates the generate ideas subcommand: post ideas
// derived from one of the project's tracked trends.
func newGenerateIdeasCmd() *cobra.Command {
	var count int
	var appendIdeas bool

	cmd := &cobra.Command{
		Use:   "ideas <trend-id>",
		Short: "Generate post ideas from a tracked trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			g := ws.store.Graph()
			if g.BrandFoundation == nil {
				return fmt.Errorf("generate a brand foundation first")
			}
			var trend *core.Trend
			for i := range g.Trends {
				if g.Trends[i].ID == args[0] {
					trend = &g.Trends[i]
					break
				}
			}
			if trend == nil {
				return fmt.Errorf("no trend with id %s in the project", args[0])
			}

			ctx := cmd.Context()
			if err := ws.ensureProviders(ctx); err != nil {
				return err
			}
			prompt := fmt.Sprintf(llm.PostIdeasPromptTemplate,
				g.BrandFoundation.Name, g.BrandFoundation.Personality,
				trend.Name, trend.Description, count)
			raw, err := ws.generateText(ctx, prompt)
			if err != nil {
				return fmt.Errorf("idea generation failed: %w", err)
			}
			ideas, err := llm.ParsePostIdeas(raw, args[0])
			if err != nil {
				return fmt.Errorf("idea generation failed: %w", err)
			}

			// Regenerating replaces the trend's previous batch unless the
			// user asked to append.
			if appendIdeas {
				ws.store.Dispatch(graph.AppendPostIdeas{TrendID: args[0], Ideas: ideas})
			} else {
				ws.store.Dispatch(graph.AddIdeas{TrendID: args[0], Ideas: ideas})
			}
			if err := ws.save(); err != nil {
				return err
			}
			for i, idea := range ideas {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s: %s\n", i+1, idea.Title, idea.Angle)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "number of ideas to generate")
	cmd.Flags().BoolVar(&appendIdeas, "append", false, "append to existing ideas instead of replacing them")
	return cmd
}
