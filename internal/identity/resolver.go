package identity

import (
	"context"
	"errors"
	"sync"

	"brandforge/internal/airtable"
	"brandforge/internal/logger"
)

// DefaultIDField is the remote column holding the locally generated id.
const DefaultIDField = "uuid"

// ErrNotFound is for callers that need to convert an unresolved id into a
// failure. The resolver itself reports misses as values, never as errors.
var ErrNotFound = errors.New("local id not found in remote store")

// RecordLister is the slice of the remote store client the resolver needs.
type RecordLister interface {
	ListRecords(ctx context.Context, table, filterFormula string, fields []string) ([]airtable.Record, error)
}

type cacheKey struct {
	table   string
	field   string
	localID string
}

// Resolver translates between locally generated entity ids and the remote
// store's own record ids. Resolutions are cached for the life of the
// process, so repeated syncs of the same entities cost no extra lookups.
//
// The resolver never retries and never converts a miss into an error: a
// local id the store does not know yields ("", false), and the caller
// decides whether to skip the link, warn, or fail its own operation.
type Resolver struct {
	store   RecordLister
	idField string

	mu    sync.Mutex
	cache map[cacheKey]string
}

// NewResolver creates a resolver matching records on DefaultIDField.
func NewResolver(store RecordLister) *Resolver {
	return &Resolver{store: store, idField: DefaultIDField, cache: make(map[cacheKey]string)}
}

// Resolve translates one local id to the remote record id. The returned
// error reports transport failure only; an id the store does not know is
// ("", false, nil).
func (r *Resolver) Resolve(ctx context.Context, table, localID string) (string, bool, error) {
	if recordID, ok := r.cached(table, localID); ok {
		return recordID, true, nil
	}

	records, err := r.store.ListRecords(ctx, table, airtable.EqualsFormula(r.idField, localID), []string{r.idField})
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 {
		return "", false, nil
	}
	r.Put(table, localID, records[0].ID)
	return records[0].ID, true, nil
}

// ResolveMany translates a batch of local ids in one filtered query. The
// returned map omits ids the store does not know; callers comparing its
// size against the requested count detect partial resolution.
func (r *Resolver) ResolveMany(ctx context.Context, table string, localIDs []string) (map[string]string, error) {
	resolved := make(map[string]string, len(localIDs))
	var uncached []string
	for _, id := range localIDs {
		if recordID, ok := r.cached(table, id); ok {
			resolved[id] = recordID
		} else {
			uncached = append(uncached, id)
		}
	}
	if len(uncached) == 0 {
		return resolved, nil
	}

	records, err := r.store.ListRecords(ctx, table, airtable.OrEqualsFormula(r.idField, uncached), []string{r.idField})
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		localID, ok := record.Fields[r.idField].(string)
		if !ok || localID == "" {
			continue
		}
		resolved[localID] = record.ID
		r.Put(table, localID, record.ID)
	}
	if len(resolved) < len(localIDs) {
		logger.Debug("partial id resolution", "table", table, "requested", len(localIDs), "resolved", len(resolved))
	}
	return resolved, nil
}

// ReverseResolveMany translates remote record ids back to local ids, for
// reading relational links the store represents as lists of its own record
// ids. The lookup is one batched OR query, not one query per id.
func (r *Resolver) ReverseResolveMany(ctx context.Context, table string, recordIDs []string) (map[string]string, error) {
	if len(recordIDs) == 0 {
		return map[string]string{}, nil
	}
	records, err := r.store.ListRecords(ctx, table, airtable.RecordIDFormula(recordIDs), []string{r.idField})
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]string, len(records))
	for _, record := range records {
		localID, ok := record.Fields[r.idField].(string)
		if !ok || localID == "" {
			continue
		}
		resolved[record.ID] = localID
		r.Put(table, localID, record.ID)
	}
	return resolved, nil
}

// Put seeds the cache, e.g. right after creating a record whose store id is
// already known from the create response.
func (r *Resolver) Put(table, localID, recordID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[cacheKey{table: table, field: r.idField, localID: localID}] = recordID
}

func (r *Resolver) cached(table, localID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recordID, ok := r.cache[cacheKey{table: table, field: r.idField, localID: localID}]
	return recordID, ok
}
