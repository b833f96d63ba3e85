package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/snapshot"
)

// NewProjectCmd creates the project command group: snapshot management.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage project snapshots",
	}
	cmd.AddCommand(newProjectSaveCmd())
	cmd.AddCommand(newProjectLoadCmd())
	cmd.AddCommand(newProjectInfoCmd())
	return cmd
}

func newProjectSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file>",
		Short: "Save a copy of the project to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			ws.doc.ContentGraph = ws.store.Graph()
			if err := snapshot.Save(args[0], ws.doc); err != nil {
				return fmt.Errorf("failed to save project copy: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved project to %s\n", args[0])
			return nil
		},
	}
}

func newProjectLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a project file, replacing the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := snapshot.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load project: %w", err)
			}
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			ws.doc = doc
			ws.store.Load(doc.ContentGraph)
			if err := ws.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded project from %s\n", args[0])
			return nil
		},
	}
}

func newProjectInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show a summary of the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			g := ws.store.Graph()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project file: %s (version %d)\n", ws.path, ws.doc.Version)
			if g.BrandFoundation != nil {
				fmt.Fprintf(out, "Brand: %s\n", g.BrandFoundation.Name)
			} else {
				fmt.Fprintln(out, "Brand: not generated yet")
			}
			posts := 0
			for _, plan := range g.MediaPlanGroups {
				for _, week := range plan.Weeks {
					posts += len(week.Posts)
				}
			}
			fmt.Fprintf(out, "Plans: %d (%d posts)\n", len(g.MediaPlanGroups), posts)
			fmt.Fprintf(out, "Products: %d  Personas: %d  Trends: %d\n",
				len(g.AffiliateLinks), len(g.Personas), len(g.Trends))
			fmt.Fprintf(out, "Media: %d images, %d videos\n", len(ws.doc.ImageBlobMap), len(ws.doc.VideoBlobMap))
			if ws.doc.RemoteProjectID != "" {
				fmt.Fprintf(out, "Remote project: %s\n", ws.doc.RemoteProjectID)
			}
			return nil
		},
	}
}
