package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandforge/internal/airtable"
	"brandforge/internal/core"
	"brandforge/internal/credentials"
	"brandforge/internal/identity"
	"brandforge/internal/logger"
	"brandforge/internal/media"
	"brandforge/internal/snapshot"
)

// Remote table names.
const (
	TableProjects = "projects"
	TableProducts = "products"
	TablePersonas = "personas"
	TableTrends   = "trends"
	TablePlans    = "plans"
	TablePosts    = "posts"
)

// ErrSyncMismatch is returned when fewer foreign references resolved than
// were requested and the caller chose to fail rather than skip.
var ErrSyncMismatch = errors.New("resolved id count differs from requested count")

// RemoteStore is the slice of the remote store client the syncer needs.
type RemoteStore interface {
	ListRecords(ctx context.Context, table, filterFormula string, fields []string) ([]airtable.Record, error)
	CreateRecords(ctx context.Context, table string, records []airtable.Record) ([]airtable.Record, error)
	UpdateRecords(ctx context.Context, table string, records []airtable.Record) ([]airtable.Record, error)
}

// Uploader pushes media blobs and returns their public URLs.
type Uploader interface {
	Upload(ctx context.Context, blobs map[core.MediaKey]string) (map[core.MediaKey]string, error)
}

// Syncer pushes a project to the remote relational store: media blobs
// first, then entities in dependency order (products, personas, trends,
// plans, posts) so that every relational link can be resolved before the
// payload referencing it is built.
type Syncer struct {
	store    RemoteStore
	resolver *identity.Resolver
	uploader Uploader
	gate     *credentials.Gate
	status   *StatusTracker
}

// New creates a syncer. idleDelay is how long an error status is shown
// before the indicator returns to idle.
func New(store RemoteStore, resolver *identity.Resolver, uploader Uploader, gate *credentials.Gate, idleDelay time.Duration) *Syncer {
	return &Syncer{
		store:    store,
		resolver: resolver,
		uploader: uploader,
		gate:     gate,
		status:   NewStatusTracker(idleDelay),
	}
}

// Status exposes the auto-save status tracker.
func (s *Syncer) Status() *StatusTracker {
	return s.status
}

// SyncProject pushes the whole project. The status indicator transitions
// saving -> saved on success and saving -> error -> idle on failure, no
// matter which component failed.
func (s *Syncer) SyncProject(ctx context.Context, doc *snapshot.Document) error {
	s.status.Set(StatusSaving)
	err := s.syncProject(ctx, doc)
	if err != nil {
		s.status.Fail()
		return err
	}
	s.status.Set(StatusSaved)
	return nil
}

func (s *Syncer) syncProject(ctx context.Context, doc *snapshot.Document) error {
	graph := doc.ContentGraph
	if graph == nil || graph.BrandFoundation == nil {
		return fmt.Errorf("%w: project has no brand foundation yet", ErrNoBrandFoundation)
	}

	if !s.gate.Ensure(ctx, core.CapabilityRemoteStore) {
		return fmt.Errorf("%w: remote store", credentials.ErrCredentialMissing)
	}

	if hasPendingBlobs(doc.ImageBlobMap) || hasPendingBlobs(doc.VideoBlobMap) {
		if !s.gate.Ensure(ctx, core.CapabilityStorage) {
			return fmt.Errorf("%w: media storage", credentials.ErrCredentialMissing)
		}
		images, err := s.uploader.Upload(ctx, doc.ImageBlobMap)
		if err != nil {
			return fmt.Errorf("media upload failed: %w", err)
		}
		videos, err := s.uploader.Upload(ctx, doc.VideoBlobMap)
		if err != nil {
			return fmt.Errorf("media upload failed: %w", err)
		}
		doc.ImageBlobMap = images
		doc.VideoBlobMap = videos
	}

	if err := s.syncProjectRecord(ctx, doc); err != nil {
		return err
	}

	// Flat collections first; posts reference products and plans, so those
	// tables must exist remotely before any post payload is built.
	if err := s.pushEntities(ctx, TableProducts, linkEntities(graph.AffiliateLinks)); err != nil {
		return err
	}
	if err := s.pushEntities(ctx, TablePersonas, personaEntities(graph.Personas, doc.ImageBlobMap)); err != nil {
		return err
	}
	if err := s.pushEntities(ctx, TableTrends, trendEntities(graph.Trends)); err != nil {
		return err
	}
	if err := s.pushEntities(ctx, TablePlans, planEntities(graph.MediaPlanGroups)); err != nil {
		return err
	}
	return s.pushPosts(ctx, doc)
}

func (s *Syncer) syncProjectRecord(ctx context.Context, doc *snapshot.Document) error {
	fields := map[string]any{
		"name":      doc.ContentGraph.BrandFoundation.Name,
		"createdAt": doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.RemoteProjectID != "" {
		_, err := s.store.UpdateRecords(ctx, TableProjects, []airtable.Record{
			{ID: doc.RemoteProjectID, Fields: fields},
		})
		return err
	}
	created, err := s.store.CreateRecords(ctx, TableProjects, []airtable.Record{{Fields: fields}})
	if err != nil {
		return err
	}
	if len(created) == 1 {
		doc.RemoteProjectID = created[0].ID
	}
	return nil
}

// entity is one row to push: its stable local id plus its remote fields.
type entity struct {
	localID string
	fields  map[string]any
}

// pushEntities upserts a table's rows. All local ids are resolved in one
// batched query first; known rows become updates and unknown rows become
// creates, chunked at the store's batch cap.
func (s *Syncer) pushEntities(ctx context.Context, table string, entities []entity) error {
	if len(entities) == 0 {
		return nil
	}
	localIDs := make([]string, len(entities))
	for i, e := range entities {
		localIDs[i] = e.localID
	}
	resolved, err := s.resolver.ResolveMany(ctx, table, localIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve %s ids: %w", table, err)
	}

	var creates, updates []airtable.Record
	var createLocalIDs []string
	for _, e := range entities {
		e.fields[identity.DefaultIDField] = e.localID
		if recordID, ok := resolved[e.localID]; ok {
			updates = append(updates, airtable.Record{ID: recordID, Fields: e.fields})
		} else {
			creates = append(creates, airtable.Record{Fields: e.fields})
			createLocalIDs = append(createLocalIDs, e.localID)
		}
	}

	for _, chunk := range airtable.Chunk(updates) {
		if _, err := s.store.UpdateRecords(ctx, table, chunk); err != nil {
			return fmt.Errorf("failed to update %s records: %w", table, err)
		}
	}
	createdSoFar := 0
	for _, chunk := range airtable.Chunk(creates) {
		created, err := s.store.CreateRecords(ctx, table, chunk)
		if err != nil {
			return fmt.Errorf("failed to create %s records: %w", table, err)
		}
		// The create response preserves request order; seed the resolver so
		// follow-up references to these rows cost no lookups.
		for i, record := range created {
			s.resolver.Put(table, createLocalIDs[createdSoFar+i], record.ID)
		}
		createdSoFar += len(chunk)
	}
	return nil
}

func (s *Syncer) pushPosts(ctx context.Context, doc *snapshot.Document) error {
	graph := doc.ContentGraph
	var posts []entity
	for _, plan := range graph.MediaPlanGroups {
		planRecordID, found, err := s.resolver.Resolve(ctx, TablePlans, plan.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve plan id: %w", err)
		}
		// Plans are pushed before their posts, so a missing parent row means
		// the plan write was lost. Unlike a stale product reference this is
		// not skippable.
		if !found {
			return fmt.Errorf("%w: plan %s", identity.ErrNotFound, plan.ID)
		}
		for wi, week := range plan.Weeks {
			for _, post := range week.Posts {
				fields, err := s.postFields(ctx, doc, post, planRecordID, wi)
				if err != nil {
					return err
				}
				posts = append(posts, entity{localID: post.ID, fields: fields})
			}
		}
	}
	return s.pushEntities(ctx, TablePosts, posts)
}

// postFields builds one post row. Every foreign reference is resolved
// before the payload is assembled; promoted products that do not resolve
// are logged and skipped rather than crashing the sync, but the count
// mismatch is surfaced in the log for the user to act on.
func (s *Syncer) postFields(ctx context.Context, doc *snapshot.Document, post core.Post, planRecordID string, weekIndex int) (map[string]any, error) {
	fields := map[string]any{
		"platform":   post.Platform,
		"title":      post.Title,
		"content":    post.Content,
		"status":     string(post.Status),
		"weekIndex":  weekIndex,
		"plan":       []string{planRecordID},
		"mediaOrder": post.MediaOrder,
	}
	if post.MediaPrompt != "" {
		fields["mediaPrompt"] = post.MediaPrompt
	}
	if post.ScheduledAt != nil {
		fields["scheduledAt"] = post.ScheduledAt.Format(time.RFC3339)
	}
	if post.PublishedAt != nil {
		fields["publishedAt"] = post.PublishedAt.Format(time.RFC3339)
	}
	if post.PublishedURL != "" {
		fields["publishedUrl"] = post.PublishedURL
	}
	if url := doc.ImageBlobMap[post.ImageKey]; url != "" {
		fields["imageUrl"] = url
	}
	if url := doc.VideoBlobMap[post.VideoKey]; url != "" {
		fields["videoUrl"] = url
	}

	if len(post.PromotedProductIDs) > 0 {
		resolved, err := s.resolver.ResolveMany(ctx, TableProducts, post.PromotedProductIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve promoted products: %w", err)
		}
		if len(resolved) != len(post.PromotedProductIDs) {
			logger.Warn("some promoted products are not in the remote store, skipping them",
				"post", post.ID, "requested", len(post.PromotedProductIDs), "resolved", len(resolved))
		}
		var productRecordIDs []string
		for _, localID := range post.PromotedProductIDs {
			if recordID, ok := resolved[localID]; ok {
				productRecordIDs = append(productRecordIDs, recordID)
			}
		}
		fields["promotedProducts"] = productRecordIDs
	}
	return fields, nil
}

// PromotedProductIDs reads a post row's relational product links back as
// local ids, translating the store's record ids in one batched query.
func (s *Syncer) PromotedProductIDs(ctx context.Context, record airtable.Record) ([]string, error) {
	raw, ok := record.Fields["promotedProducts"].([]any)
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	recordIDs := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			recordIDs = append(recordIDs, id)
		}
	}
	resolved, err := s.resolver.ReverseResolveMany(ctx, TableProducts, recordIDs)
	if err != nil {
		return nil, err
	}
	if len(resolved) != len(recordIDs) {
		return nil, fmt.Errorf("%w: requested %d, resolved %d", ErrSyncMismatch, len(recordIDs), len(resolved))
	}
	localIDs := make([]string, 0, len(recordIDs))
	for _, recordID := range recordIDs {
		localIDs = append(localIDs, resolved[recordID])
	}
	return localIDs, nil
}

func linkEntities(links []core.AffiliateLink) []entity {
	out := make([]entity, 0, len(links))
	for _, link := range links {
		fields := map[string]any{
			"name":        link.Name,
			"provider":    link.Provider,
			"url":         link.URL,
			"description": link.Description,
			"clicks":      link.Clicks,
		}
		if link.Rating != nil {
			fields["rating"] = *link.Rating
		}
		out = append(out, entity{localID: link.ID, fields: fields})
	}
	return out
}

func personaEntities(personas []core.Persona, imageBlobMap map[core.MediaKey]string) []entity {
	out := make([]entity, 0, len(personas))
	for _, persona := range personas {
		fields := map[string]any{
			"name":   persona.Name,
			"outfit": persona.Outfit,
			"style":  persona.Style,
		}
		if url := imageBlobMap[persona.PhotoKey]; url != "" {
			fields["photoUrl"] = url
		}
		out = append(out, entity{localID: persona.ID, fields: fields})
	}
	return out
}

func trendEntities(trends []core.Trend) []entity {
	out := make([]entity, 0, len(trends))
	for _, trend := range trends {
		out = append(out, entity{localID: trend.ID, fields: map[string]any{
			"name":        trend.Name,
			"description": trend.Description,
			"source":      trend.Source,
		}})
	}
	return out
}

func planEntities(plans []core.MediaPlanGroup) []entity {
	out := make([]entity, 0, len(plans))
	for _, plan := range plans {
		out = append(out, entity{localID: plan.ID, fields: map[string]any{
			"name":      plan.Name,
			"personaId": plan.PersonaID,
			"createdAt": plan.CreatedAt.Format(time.RFC3339),
		}})
	}
	return out
}

func hasPendingBlobs(blobs map[core.MediaKey]string) bool {
	for _, value := range blobs {
		if media.IsDataURI(value) {
			return true
		}
	}
	return false
}
