package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"brandforge/internal/core"
	"brandforge/internal/snapshot"
)

// ErrMediaBusy is returned when generation is already running for the same
// media key.
var ErrMediaBusy = errors.New("media generation already in flight for this key")

// ImageGenerator turns a prompt into an image data URI. The producer does
// not care which provider or fallback chain sits behind it.
type ImageGenerator func(ctx context.Context, prompt, aspectRatio string, referenceImages []string) (string, error)

// Producer generates post images into a document's image blob map. At most
// one generation runs per media key: regenerating a post's image while a
// previous run for the same key is still in flight is rejected, not queued.
type Producer struct {
	generate ImageGenerator
	inflight *Inflight
}

func NewProducer(generate ImageGenerator) *Producer {
	return &Producer{generate: generate, inflight: NewInflight()}
}

// ProduceImage generates an image for the post and stores the resulting
// data URI in doc.ImageBlobMap. The post's existing key is reused when it
// has one, so regeneration replaces the old blob; otherwise a fresh key is
// allocated and returned for the caller to assign to the post.
//
// When persona is non-nil its reference photo, if present as a data URI in
// the blob map, is passed along as a reference image.
func (p *Producer) ProduceImage(ctx context.Context, doc *snapshot.Document, post core.Post, persona *core.Persona, aspectRatio string) (core.MediaKey, error) {
	if post.MediaPrompt == "" {
		return "", fmt.Errorf("post %s has no media prompt", post.ID)
	}
	key := post.ImageKey
	if key == "" {
		key = core.MediaKey(uuid.NewString())
	}
	if !p.inflight.TryAcquire(key) {
		return "", fmt.Errorf("%w: %s", ErrMediaBusy, key)
	}
	defer p.inflight.Release(key)

	var references []string
	if persona != nil && persona.PhotoKey != "" {
		if photo := doc.ImageBlobMap[persona.PhotoKey]; IsDataURI(photo) {
			references = append(references, photo)
		}
	}

	dataURI, err := p.generate(ctx, post.MediaPrompt, aspectRatio, references)
	if err != nil {
		return "", fmt.Errorf("image generation failed for post %s: %w", post.ID, err)
	}
	doc.ImageBlobMap[key] = dataURI
	return key, nil
}
