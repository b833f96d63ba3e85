package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/matcher"
)

// NewSuggestCmd creates the suggest command: rank the project's affiliate
// products against one post's content.
func NewSuggestCmd() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "suggest <post-id>",
		Short: "Suggest affiliate products to promote in a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			post, ok := ws.findPost(args[0])
			if !ok {
				return fmt.Errorf("no post with id %s in the project", args[0])
			}
			candidates := ws.store.Graph().AffiliateLinks
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No affiliate products imported yet.")
				return nil
			}

			if !cmd.Flags().Changed("top") && ws.doc.Settings != nil && ws.doc.Settings.TopSuggestions > 0 {
				topN = ws.doc.Settings.TopSuggestions
			}

			ctx := cmd.Context()
			if err := ws.ensureProviders(ctx); err != nil {
				return err
			}
			m := matcher.New(ws.gemini)
			query := matcher.Query{Title: post.Title, Content: post.Content, Tags: post.Hashtags}
			suggestions := m.Suggest(ctx, query, candidates, topN)
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sufficiently similar products found.")
				return nil
			}
			for i, link := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s (%s) %s\n", i+1, link.Name, link.Provider, link.URL)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topN, "top", 3, "maximum number of suggestions")
	return cmd
}
