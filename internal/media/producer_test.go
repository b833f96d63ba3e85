package media

import (
	"context"
	"errors"
	"sync"
	"testing"

	"brandforge/internal/core"
	"brandforge/internal/snapshot"
)

func TestProduceImageStoresBlobUnderFreshKey(t *testing.T) {
	doc := snapshot.New(&core.ContentGraph{})
	p := NewProducer(func(ctx context.Context, prompt, aspectRatio string, refs []string) (string, error) {
		if prompt != "a sunny park scene" {
			t.Errorf("prompt = %q", prompt)
		}
		if aspectRatio != "1:1" {
			t.Errorf("aspectRatio = %q", aspectRatio)
		}
		return "data:image/png;base64,aW1n", nil
	})

	key, err := p.ProduceImage(context.Background(), doc, core.Post{ID: "post-1", MediaPrompt: "a sunny park scene"}, nil, "1:1")
	if err != nil {
		t.Fatalf("ProduceImage failed: %v", err)
	}
	if key == "" {
		t.Fatal("expected a fresh media key")
	}
	if doc.ImageBlobMap[key] != "data:image/png;base64,aW1n" {
		t.Errorf("blob map entry = %q", doc.ImageBlobMap[key])
	}
}

func TestProduceImageReusesExistingKey(t *testing.T) {
	doc := snapshot.New(&core.ContentGraph{})
	doc.ImageBlobMap["img-1"] = "data:image/png;base64,b2xk"
	p := NewProducer(func(ctx context.Context, prompt, aspectRatio string, refs []string) (string, error) {
		return "data:image/png;base64,bmV3", nil
	})

	key, err := p.ProduceImage(context.Background(), doc, core.Post{ID: "post-1", MediaPrompt: "scene", ImageKey: "img-1"}, nil, "1:1")
	if err != nil {
		t.Fatalf("ProduceImage failed: %v", err)
	}
	if key != "img-1" {
		t.Errorf("key = %q, want the post's existing key", key)
	}
	if doc.ImageBlobMap["img-1"] != "data:image/png;base64,bmV3" {
		t.Error("regeneration did not replace the old blob")
	}
}

func TestProduceImagePassesPersonaReferencePhoto(t *testing.T) {
	doc := snapshot.New(&core.ContentGraph{})
	doc.ImageBlobMap["photo-1"] = "data:image/png;base64,cGhvdG8="
	var gotRefs []string
	p := NewProducer(func(ctx context.Context, prompt, aspectRatio string, refs []string) (string, error) {
		gotRefs = refs
		return "data:image/png;base64,aW1n", nil
	})

	persona := &core.Persona{ID: "persona-1", PhotoKey: "photo-1"}
	if _, err := p.ProduceImage(context.Background(), doc, core.Post{ID: "post-1", MediaPrompt: "scene"}, persona, "1:1"); err != nil {
		t.Fatalf("ProduceImage failed: %v", err)
	}
	if len(gotRefs) != 1 || gotRefs[0] != "data:image/png;base64,cGhvdG8=" {
		t.Errorf("reference images = %v, want the persona photo", gotRefs)
	}
}

func TestProduceImageSkipsUploadedPersonaPhoto(t *testing.T) {
	doc := snapshot.New(&core.ContentGraph{})
	doc.ImageBlobMap["photo-1"] = "https://cdn.test/photo-1"
	var gotRefs []string
	p := NewProducer(func(ctx context.Context, prompt, aspectRatio string, refs []string) (string, error) {
		gotRefs = refs
		return "data:image/png;base64,aW1n", nil
	})

	persona := &core.Persona{ID: "persona-1", PhotoKey: "photo-1"}
	if _, err := p.ProduceImage(context.Background(), doc, core.Post{ID: "post-1", MediaPrompt: "scene"}, persona, "1:1"); err != nil {
		t.Fatalf("ProduceImage failed: %v", err)
	}
	if len(gotRefs) != 0 {
		t.Errorf("reference images = %v, want none for an already-uploaded photo", gotRefs)
	}
}

func TestProduceImageRejectsPostWithoutPrompt(t *testing.T) {
	p := NewProducer(func(ctx context.Context, prompt, aspectRatio string, refs []string) (string, error) {
		t.Fatal("generator must not run for a post without a prompt")
		return "", nil
	})
	if _, err := p.ProduceImage(context.Background(), snapshot.New(&core.ContentGraph{}), core.Post{ID: "post-1"}, nil, "1:1"); err == nil {
		t.Fatal("expected an error for a post without a media prompt")
	}
}

func TestProduceImageRejectsConcurrentRunForSameKey(t *testing.T) {
	doc := snapshot.New(&core.ContentGraph{})
	started := make(chan struct{})
	release := make(chan struct{})
	p := NewProducer(func(ctx context.Context, prompt, aspectRatio string, refs []string) (string, error) {
		close(started)
		<-release
		return "data:image/png;base64,aW1n", nil
	})

	post := core.Post{ID: "post-1", MediaPrompt: "scene", ImageKey: "img-1"}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := p.ProduceImage(context.Background(), doc, post, nil, "1:1"); err != nil {
			t.Errorf("first run failed: %v", err)
		}
	}()
	<-started

	_, err := p.ProduceImage(context.Background(), doc, post, nil, "1:1")
	if !errors.Is(err, ErrMediaBusy) {
		t.Fatalf("err = %v, want ErrMediaBusy", err)
	}
	close(release)
	wg.Wait()
}

func TestInflightAcquireRelease(t *testing.T) {
	f := NewInflight()
	if !f.TryAcquire("img-1") {
		t.Fatal("first acquire should succeed")
	}
	if f.TryAcquire("img-1") {
		t.Fatal("second acquire of a held key should fail")
	}
	if !f.TryAcquire("img-2") {
		t.Fatal("a different key should be acquirable")
	}
	f.Release("img-1")
	if !f.TryAcquire("img-1") {
		t.Fatal("acquire after release should succeed")
	}
}
