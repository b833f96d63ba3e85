package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"brandforge/internal/config"
	"brandforge/internal/core"
	"brandforge/internal/credentials"
	"brandforge/internal/generation"
	"brandforge/internal/graph"
	"brandforge/internal/llm"
	"brandforge/internal/snapshot"
)

// workspace bundles the open project with the collaborators every command
// needs: the edit store over the content graph, the credential gate and
// the provider registry.
type workspace struct {
	cfg      *config.Config
	path     string
	doc      *snapshot.Document
	store    *graph.Store
	gate     *credentials.Gate
	registry *llm.Registry
	gemini   *llm.GeminiClient
}

// openWorkspace loads the project snapshot (creating a fresh one when the
// file does not exist yet) and wires the credential gate. Generation
// providers are registered lazily by ensureProviders because their
// construction needs credentials the gate may still have to collect.
func openWorkspace() (*workspace, error) {
	cfg := config.Get()
	path := resolveProjectPath(cfg)

	ws := &workspace{cfg: cfg, path: path, store: graph.NewStore()}

	provider := credentials.NewTerminalProvider(cfg)
	ws.gate = credentials.NewGate(provider)
	provider.Notify = ws.gate.Signal

	doc, err := snapshot.Load(path)
	switch {
	case err == nil:
		ws.doc = doc
		ws.store.Load(doc.ContentGraph)
	case errors.Is(err, os.ErrNotExist):
		ws.doc = snapshot.New(ws.store.Graph())
	default:
		return nil, fmt.Errorf("failed to open project %s: %w", path, err)
	}
	return ws, nil
}

// save writes the current graph back into the snapshot on disk.
func (ws *workspace) save() error {
	ws.doc.ContentGraph = ws.store.Graph()
	if err := snapshot.Save(ws.path, ws.doc); err != nil {
		return fmt.Errorf("failed to save project %s: %w", ws.path, err)
	}
	return nil
}

// ensureProviders gates on the text generation credential, then registers
// every provider whose key is configured. Gemini is required; OpenAI joins
// the registry only when its key is present.
func (ws *workspace) ensureProviders(ctx context.Context) error {
	if !ws.gate.Ensure(ctx, core.CapabilityTextGen) {
		return fmt.Errorf("%w: text generation", credentials.ErrCredentialMissing)
	}
	if ws.registry != nil {
		return nil
	}
	registry := llm.NewRegistry()

	gemini, err := llm.NewGeminiClient(ctx, ws.cfg.AI.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	registry.Register("gemini", gemini)
	ws.gemini = gemini

	if ws.cfg.AI.OpenAI.APIKey != "" {
		openaiClient, err := llm.NewOpenAIClient(ws.cfg.AI.OpenAI)
		if err != nil {
			return fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		registry.Register("openai", openaiClient)
	}
	ws.registry = registry
	return nil
}

// generateText runs one text generation through the ranked fallback chain.
func (ws *workspace) generateText(ctx context.Context, prompt string) (string, error) {
	preferred, fallbacks := ws.modelChain()
	result, err := generation.ExecuteWithFallback(ctx, preferred, fallbacks,
		func(ctx context.Context, ref generation.ModelRef) (string, error) {
			provider, err := ws.registry.Provider(ref.Provider)
			if err != nil {
				return "", err
			}
			return provider.GenerateText(ctx, ref.Model, prompt)
		})
	if err != nil {
		return "", err
	}
	if result.Substituted {
		fmt.Fprintf(os.Stderr, "Note: generated with fallback model %s\n", result.Winner)
		// The winner becomes the preferred candidate for the rest of this
		// project, so later generations do not retry a failing provider
		// first. Persisted with the next snapshot save.
		if ws.doc.Settings != nil {
			ws.doc.Settings.PreferredModel = result.Winner.String()
		}
	}
	return result.Value, nil
}

func (ws *workspace) modelChain() (generation.ModelRef, []generation.ModelRef) {
	preferredRef := ws.cfg.AI.Preferred
	if ws.doc.Settings != nil && ws.doc.Settings.PreferredModel != "" {
		preferredRef = ws.doc.Settings.PreferredModel
	}
	fallbackRefs := ws.cfg.AI.FallbackOrder
	if ws.doc.Settings != nil && len(ws.doc.Settings.FallbackOrder) > 0 {
		fallbackRefs = ws.doc.Settings.FallbackOrder
	}
	fallbacks := make([]generation.ModelRef, 0, len(fallbackRefs))
	for _, ref := range fallbackRefs {
		fallbacks = append(fallbacks, generation.ParseModelRef(ref))
	}
	return generation.ParseModelRef(preferredRef), fallbacks
}

// findPost locates a post by its id anywhere in the graph.
func (ws *workspace) findPost(postID string) (*core.Post, bool) {
	g := ws.store.Graph()
	for pi := range g.MediaPlanGroups {
		for wi := range g.MediaPlanGroups[pi].Weeks {
			for i := range g.MediaPlanGroups[pi].Weeks[wi].Posts {
				post := &g.MediaPlanGroups[pi].Weeks[wi].Posts[i]
				if post.ID == postID {
					return post, true
				}
			}
		}
	}
	return nil, false
}

func resolveProjectPath(cfg *config.Config) string {
	if projectFile != "" {
		return projectFile
	}
	return filepath.Join(cfg.App.DataDir, cfg.App.Project)
}
