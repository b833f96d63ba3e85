package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/core"
	"brandforge/internal/graph"
	"brandforge/internal/links"
	"brandforge/internal/logger"
)

// NewImportCmd creates the import command: scrape product pages into the
// project's affiliate links.
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>...",
		Short: "Import affiliate products from product page URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			importer := links.NewImporter()

			var imported []core.AffiliateLink
			for _, pageURL := range args {
				link, err := importer.FromURL(cmd.Context(), pageURL)
				if err != nil {
					logger.Error("failed to import product page", err, "url", pageURL)
					continue
				}
				// Re-importing a page updates the existing product in place.
				if existing := findLinkByURL(ws.store.Graph(), pageURL); existing != nil {
					link.ID = existing.ID
					link.Clicks = existing.Clicks
				}
				imported = append(imported, *link)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", link.Name, link.Provider)
			}
			if len(imported) == 0 {
				return fmt.Errorf("no products could be imported")
			}

			ws.store.Dispatch(graph.ImportLinks{Links: imported})
			return ws.save()
		},
	}
}

func findLinkByURL(g *core.ContentGraph, pageURL string) *core.AffiliateLink {
	for i := range g.AffiliateLinks {
		if g.AffiliateLinks[i].URL == pageURL {
			return &g.AffiliateLinks[i]
		}
	}
	return nil
}
