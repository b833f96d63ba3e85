package handlers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"brandforge/internal/airtable"
	"brandforge/internal/identity"
	"brandforge/internal/media"
	"brandforge/internal/syncer"
)

// NewSyncCmd creates the sync command: push the whole project to the
// remote store, uploading pending media blobs first.
func NewSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the project to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			client := airtable.NewClient(ws.cfg.Airtable)
			s := syncer.New(
				client,
				identity.NewResolver(client),
				media.NewUploader(ws.cfg.Media),
				ws.gate,
				time.Duration(ws.cfg.Sync.IdleDelaySeconds)*time.Second,
			)
			s.Status().OnChange(func(status syncer.Status) {
				fmt.Fprintf(cmd.ErrOrStderr(), "sync: %s\n", status)
			})

			ws.doc.ContentGraph = ws.store.Graph()
			if err := s.SyncProject(cmd.Context(), ws.doc); err != nil {
				return err
			}
			// The sync rewrites blob maps to URLs and records the remote
			// project id; persist both.
			return ws.save()
		},
	}
}
