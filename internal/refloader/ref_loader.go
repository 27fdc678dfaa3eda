// Package refloader coalesces per-request foreign reference lookups into
// batched ResolveMany calls.
package refloader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/repository"
)

type ctxKey string

const loaderKey ctxKey = "refLoader"

// Key encodes a typed reference as a dataloader key.
func Key(objectType string, id int64) dataloader.Key {
	return dataloader.StringKey(objectType + ":" + strconv.FormatInt(id, 10))
}

func parseKey(key string) (string, int64, error) {
	sep := strings.LastIndex(key, ":")
	if sep <= 0 {
		return "", 0, fmt.Errorf("invalid reference key %q", key)
	}
	id, err := strconv.ParseInt(key[sep+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid reference key %q: %w", key, err)
	}
	return key[:sep], id, nil
}

// NewLoader builds a batched loader over the direct resolver. Loaders cache
// results, so one is created per request and never shared across requests;
// otherwise stale display names and existence flags would leak between
// callers.
func NewLoader(direct repository.ReferenceResolver) *dataloader.Loader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))

		idsByType := map[string][]int64{}
		positions := map[string][]int{}
		for i, key := range keys {
			objectType, id, err := parseKey(key.String())
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			idsByType[objectType] = append(idsByType[objectType], id)
			positions[objectType] = append(positions[objectType], i)
		}

		for objectType, ids := range idsByType {
			refs, err := direct.ResolveMany(ctx, objectType, ids)
			if err != nil {
				for _, pos := range positions[objectType] {
					results[pos] = &dataloader.Result{Error: err}
				}
				continue
			}
			byID := make(map[int64]domain.ResolvedRef, len(refs))
			for _, ref := range refs {
				byID[ref.ID] = ref
			}
			for n, pos := range positions[objectType] {
				ref, ok := byID[ids[n]]
				if !ok {
					ref = domain.ResolvedRef{ID: ids[n]}
				}
				results[pos] = &dataloader.Result{Data: ref}
			}
		}

		return results
	}

	return dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))
}

// ContextWithLoader attaches a request-scoped loader to the context.
func ContextWithLoader(ctx context.Context, loader *dataloader.Loader) context.Context {
	return context.WithValue(ctx, loaderKey, loader)
}

// LoaderFromContext retrieves the request-scoped loader, if any.
func LoaderFromContext(ctx context.Context) *dataloader.Loader {
	if l, ok := ctx.Value(loaderKey).(*dataloader.Loader); ok {
		return l
	}
	return nil
}

// Resolver implements repository.ReferenceResolver through the
// request-scoped loader when one is attached, falling back to the direct
// resolver otherwise.
type Resolver struct {
	direct repository.ReferenceResolver
}

// NewResolver wraps a direct resolver.
func NewResolver(direct repository.ReferenceResolver) *Resolver {
	return &Resolver{direct: direct}
}

func (r *Resolver) ResolveMany(ctx context.Context, objectType string, ids []int64) ([]domain.ResolvedRef, error) {
	loader := LoaderFromContext(ctx)
	if loader == nil {
		return r.direct.ResolveMany(ctx, objectType, ids)
	}

	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = Key(objectType, id)
	}

	thunk := loader.LoadMany(ctx, keys)
	data, errs := thunk()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to batch-resolve %s references: %w", objectType, err)
		}
	}

	refs := make([]domain.ResolvedRef, len(data))
	for i, item := range data {
		ref, ok := item.(domain.ResolvedRef)
		if !ok {
			return nil, fmt.Errorf("unexpected loader result %T for %s reference", item, objectType)
		}
		refs[i] = ref
	}
	return refs, nil
}
