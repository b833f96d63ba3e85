package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/core"
	"brandforge/internal/credentials"
	"brandforge/internal/generation"
	"brandforge/internal/graph"
	"brandforge/internal/llm"
	"brandforge/internal/logger"
	"brandforge/internal/media"
)

// newGenerateImagesCmd creates the generate images subcommand: render post
// images from their media prompts into the project's blob map.
func newGenerateImagesCmd() *cobra.Command {
	var aspectRatio string

	cmd := &cobra.Command{
		Use:   "images [post-id...]",
		Short: "Generate images for posts from their media prompts",
		Long: `Generates an image for each named post, or for every post that has a
media prompt but no image yet when no ids are given. Generated images are
stored in the project and attached to their posts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if !ws.gate.Ensure(ctx, core.CapabilityImageGen) {
				return fmt.Errorf("%w: image generation", credentials.ErrCredentialMissing)
			}
			if err := ws.ensureProviders(ctx); err != nil {
				return err
			}
			if aspectRatio == "" {
				aspectRatio = "1:1"
				if ws.doc.Settings != nil && ws.doc.Settings.AspectRatio != "" {
					aspectRatio = ws.doc.Settings.AspectRatio
				}
			}

			targets := imageTargets(ws.store.Graph(), args)
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No posts need an image.")
				return nil
			}

			producer := media.NewProducer(ws.imageGenerator())
			var assignments []graph.MediaKeyAssignment
			for _, target := range targets {
				persona := ws.store.Graph().FindPersona(target.personaID)
				key, err := producer.ProduceImage(ctx, ws.doc, target.post, persona, aspectRatio)
				if err != nil {
					logger.Error("image generation failed", err, "post", target.post.ID)
					continue
				}
				if key != target.post.ImageKey {
					assignments = append(assignments, graph.MediaKeyAssignment{
						Ref:  target.ref,
						Slot: graph.MediaSlotImage,
						Key:  key,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Generated image for %s\n", target.post.ID)
			}

			if len(assignments) > 0 {
				ws.store.Dispatch(graph.BulkUpdateMediaKeys{Assignments: assignments})
			}
			return ws.save()
		},
	}

	cmd.Flags().StringVar(&aspectRatio, "aspect", "", "image aspect ratio (default from project settings)")
	return cmd
}

// imageGenerator adapts the orchestrated fallback chain to the producer.
// The model part of each candidate ref is replaced with the provider's
// configured image model, since text and image models differ.
func (ws *workspace) imageGenerator() media.ImageGenerator {
	imageModels := map[string]string{
		"gemini": ws.cfg.AI.Gemini.ImageModel,
		"openai": ws.cfg.AI.OpenAI.ImageModel,
	}
	preferred, fallbacks := ws.modelChain()
	preferred.Model = imageModels[preferred.Provider]
	for i := range fallbacks {
		fallbacks[i].Model = imageModels[fallbacks[i].Provider]
	}

	return func(ctx context.Context, prompt, aspectRatio string, referenceImages []string) (string, error) {
		result, err := generation.ExecuteWithFallback(ctx, preferred, fallbacks,
			func(ctx context.Context, ref generation.ModelRef) (string, error) {
				provider, err := ws.registry.Provider(ref.Provider)
				if err != nil {
					return "", err
				}
				return provider.GenerateImage(ctx, llm.ImageRequest{
					Model:           ref.Model,
					Prompt:          prompt,
					AspectRatio:     aspectRatio,
					ReferenceImages: referenceImages,
				})
			})
		if err != nil {
			return "", err
		}
		return result.Value, nil
	}
}

type imageTarget struct {
	post      core.Post
	ref       graph.PostRef
	personaID string
}

// imageTargets selects the posts to render: the named ones, or every post
// with a prompt and no image when no ids are given.
func imageTargets(g *core.ContentGraph, postIDs []string) []imageTarget {
	wanted := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	var targets []imageTarget
	for _, plan := range g.MediaPlanGroups {
		for wi, week := range plan.Weeks {
			for pi, post := range week.Posts {
				if len(postIDs) > 0 && !wanted[post.ID] {
					continue
				}
				if post.MediaPrompt == "" {
					continue
				}
				if len(postIDs) == 0 && post.ImageKey != "" {
					continue
				}
				targets = append(targets, imageTarget{
					post:      post,
					ref:       graph.PostRef{PlanID: plan.ID, WeekIndex: wi, PostIndex: pi},
					personaID: plan.PersonaID,
				})
			}
		}
	}
	return targets
}
