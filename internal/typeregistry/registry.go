package typeregistry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Definition describes where instances of a monitored type live in the host
// schema. Definitions are populated at configuration time; nothing here is
// hard-coded per type.
type Definition struct {
	// Name is the object type discriminator stored on intervals.
	Name string
	// Table is the host table holding instances of the type.
	Table string
	// IDColumn, NameColumn, AssigneeColumn locate the instance identity, its
	// display name and its current assignee. SoftDeleteColumn marks trashed
	// instances that backfill must skip.
	IDColumn         string
	NameColumn       string
	AssigneeColumn   string
	SoftDeleteColumn string
	// Dynamic marks definable types whose instances carry their concrete
	// type; those are resolved per instance through the InstanceResolver.
	Dynamic bool
}

// InstanceResolver resolves the concrete type name for an instance of a
// dynamically-defined type. The second return is false when resolution fails,
// in which case no interval is written for the instance.
type InstanceResolver func(ctx context.Context, objectType string, objectID int64) (string, bool)

// Registry maps monitored type names to their definitions and tracks which
// types are currently enabled for change capture.
type Registry struct {
	mu        sync.RWMutex
	defs      map[string]Definition
	monitored map[string]bool
	resolver  InstanceResolver
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		defs:      make(map[string]Definition),
		monitored: make(map[string]bool),
	}
}

// Register adds or replaces a type definition. Registering does not enable
// monitoring; that is a separate administrative step.
func (r *Registry) Register(def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("type definition requires a name")
	}
	if strings.TrimSpace(def.Table) == "" {
		return fmt.Errorf("type definition %q requires a table", def.Name)
	}
	if def.IDColumn == "" {
		def.IDColumn = "id"
	}
	if def.NameColumn == "" {
		def.NameColumn = "name"
	}
	if def.AssigneeColumn == "" {
		def.AssigneeColumn = "users_id"
	}
	if def.SoftDeleteColumn == "" {
		def.SoftDeleteColumn = "is_deleted"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	return nil
}

// SetInstanceResolver installs the resolver used for dynamic types.
func (r *Registry) SetInstanceResolver(fn InstanceResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolver = fn
}

// Enable turns on monitoring for a registered type.
func (r *Registry) Enable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[name]; !ok {
		return fmt.Errorf("unknown object type %q", name)
	}
	r.monitored[name] = true
	return nil
}

// Disable turns off monitoring for a type. Existing intervals are untouched.
func (r *Registry) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.monitored, name)
}

// IsMonitored reports whether capture is enabled for the type.
func (r *Registry) IsMonitored(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.monitored[name]
}

// Get returns the definition for a type name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// MonitoredNames returns the enabled type names, sorted.
func (r *Registry) MonitoredNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.monitored))
	for name := range r.monitored {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveInstanceType resolves the concrete type an instance belongs to at
// event time. For static types this is the registered name itself; dynamic
// types delegate to the instance resolver. The second return is false when
// the type is unknown or resolution fails.
func (r *Registry) ResolveInstanceType(ctx context.Context, objectType string, objectID int64) (string, bool) {
	r.mu.RLock()
	def, ok := r.defs[objectType]
	resolver := r.resolver
	r.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !def.Dynamic {
		return def.Name, true
	}
	if resolver == nil {
		return "", false
	}
	resolved, ok := resolver(ctx, objectType, objectID)
	if !ok || strings.TrimSpace(resolved) == "" {
		return "", false
	}
	return resolved, true
}
