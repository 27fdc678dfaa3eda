package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/typeregistry"
)

// HostObjectSource reads monitored instances straight from the host tables
// described by the type registry. It implements both ObjectSource (backfill
// candidates) and ReferenceResolver (batched display lookups).
type HostObjectSource struct {
	pool     *pgxpool.Pool
	registry *typeregistry.Registry
}

// NewHostObjectSource creates a host-table reader for the given registry.
func NewHostObjectSource(pool *pgxpool.Pool, registry *typeregistry.Registry) *HostObjectSource {
	return &HostObjectSource{pool: pool, registry: registry}
}

// ListAssigned returns every live, non-soft-deleted instance of the type
// whose assignee column is set.
func (s *HostObjectSource) ListAssigned(ctx context.Context, objectType string) ([]AssignedObject, error) {
	def, ok := s.registry.Get(objectType)
	if !ok {
		return nil, fmt.Errorf("unknown object type %q", objectType)
	}

	// Table and column names come from configuration-time definitions, never
	// from request input; sanitize anyway.
	sql := fmt.Sprintf(
		`SELECT %s, %s FROM %s WHERE %s IS NOT NULL AND %s <> 0 AND COALESCE(%s, false) = false`,
		pgx.Identifier{def.IDColumn}.Sanitize(),
		pgx.Identifier{def.AssigneeColumn}.Sanitize(),
		pgx.Identifier{def.Table}.Sanitize(),
		pgx.Identifier{def.AssigneeColumn}.Sanitize(),
		pgx.Identifier{def.AssigneeColumn}.Sanitize(),
		pgx.Identifier{def.SoftDeleteColumn}.Sanitize(),
	)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned objects of %s: %w", objectType, err)
	}
	defer rows.Close()

	objects := []AssignedObject{}
	for rows.Next() {
		var obj AssignedObject
		if err := rows.Scan(&obj.ID, &obj.SubjectID); err != nil {
			return nil, fmt.Errorf("failed to scan assigned object: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assigned objects: %w", err)
	}
	return objects, nil
}

// ResolveMany resolves instances of one type by ID, preserving input order.
// Instances that no longer exist come back with Exists set to false.
func (s *HostObjectSource) ResolveMany(ctx context.Context, objectType string, ids []int64) ([]domain.ResolvedRef, error) {
	if len(ids) == 0 {
		return []domain.ResolvedRef{}, nil
	}

	def, ok := s.registry.Get(objectType)
	if !ok {
		// Unknown type: every reference is unresolvable, not an error.
		refs := make([]domain.ResolvedRef, len(ids))
		for i, id := range ids {
			refs[i] = domain.ResolvedRef{ID: id}
		}
		return refs, nil
	}

	sql := fmt.Sprintf(
		`SELECT %s, %s FROM %s WHERE %s = ANY($1)`,
		pgx.Identifier{def.IDColumn}.Sanitize(),
		pgx.Identifier{def.NameColumn}.Sanitize(),
		pgx.Identifier{def.Table}.Sanitize(),
		pgx.Identifier{def.IDColumn}.Sanitize(),
	)

	rows, err := s.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s references: %w", objectType, err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan resolved reference: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolved references: %w", err)
	}

	refs := make([]domain.ResolvedRef, len(ids))
	for i, id := range ids {
		name, found := names[id]
		refs[i] = domain.ResolvedRef{ID: id, DisplayName: name, Exists: found}
	}
	return refs, nil
}
