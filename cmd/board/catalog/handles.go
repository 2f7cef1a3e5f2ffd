package catalog

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is a session-scoped playable reference, the equivalent of an
// object URL. The zero value means "no handle".
type Handle string

// Registry allocates handles and resolves them back to file paths.
type Registry struct {
	mu      sync.Mutex
	entries map[Handle]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Handle]string)}
}

// Allocate registers path and returns a fresh handle for it.
func (r *Registry) Allocate(path string) Handle {
	h := Handle("blob:" + uuid.NewString())
	r.mu.Lock()
	r.entries[h] = path
	r.mu.Unlock()
	return h
}

// Resolve returns the path behind h. Released handles do not resolve.
func (r *Registry) Resolve(h Handle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.entries[h]
	return path, ok
}

// Release drops the given handles.
func (r *Registry) Release(handles []Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range handles {
		delete(r.entries, h)
	}
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
