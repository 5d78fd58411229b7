// Package registry implements the process-wide store type registry
// (spec §4.3): a mapping from type tag to store constructor capability.
// The pattern mirrors the teacher's cluster.ClusterController handler
// table (RegisterHandler/GetHandler), generalized from MessageType keys
// to store type tags.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Registry is a mapping of type tag to store constructor. Zero value is
// ready to use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]interfaces.Constructor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{ctors: make(map[string]interfaces.Constructor)}
}

// InvalidType is returned by Resolve when tag is not registered.
type InvalidType struct {
	Tag string
}

func (e *InvalidType) Error() string {
	return fmt.Sprintf("Invalid database type '%s'", e.Tag)
}

// Register associates tag with ctor. It fails if tag is already
// present.
func (r *Registry) Register(tag string, ctor interfaces.Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[tag]; exists {
		return fmt.Errorf("registry: type %q already registered", tag)
	}
	if r.ctors == nil {
		r.ctors = make(map[string]interfaces.Constructor)
	}
	r.ctors[tag] = ctor
	return nil
}

// Resolve looks up the constructor for tag.
func (r *Registry) Resolve(tag string) (interfaces.Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[tag]
	if !ok {
		return nil, &InvalidType{Tag: tag}
	}
	return ctor, nil
}

// Tags returns every registered tag in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.ctors))
	for tag := range r.ctors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// process-wide default registry (spec §9 "Global type table"): legacy
// plugin model, kept for compatibility. New code should prefer a
// Registry held on Config and fall back to this one only when absent.
var (
	defaultMu       sync.Mutex
	defaultRegistry = New()
)

// Default returns the process-wide registry, used when a Controller's
// Config does not supply its own.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRegistry
}

// AddDatabaseType registers tag on the process-wide default registry.
// Safe to call before any controller is instantiated; must not be
// called concurrently with controller construction.
func AddDatabaseType(tag string, ctor interfaces.Constructor) error {
	return Default().Register(tag, ctor)
}
