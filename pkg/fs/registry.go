package fs

import (
	"sort"
	"sync"

	"github.com/segmentio/ksuid"
)

// Registry keeps track of the file systems loaded by a process
type Registry struct {
	mx      sync.RWMutex
	handles map[string]*FileSystem
}

// NewRegistry builds an empty registry
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*FileSystem)}
}

// Register a file system, returning its handle
func (r *Registry) Register(f *FileSystem) string {
	id := ksuid.New().String()

	r.mx.Lock()
	defer r.mx.Unlock()
	r.handles[id] = f
	return id
}

// Get a file system by handle
func (r *Registry) Get(id string) (*FileSystem, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	f, ok := r.handles[id]
	return f, ok
}

// Deregister a file system, deactivating it. It returns false when the handle is unknown.
func (r *Registry) Deregister(id string) bool {
	r.mx.Lock()
	f, ok := r.handles[id]
	delete(r.handles, id)
	r.mx.Unlock()

	if ok {
		f.Deactivate()
	}
	return ok
}

// Len is the number of registered file systems
func (r *Registry) Len() int {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return len(r.handles)
}

// Each iterates over registered file systems, sorted by handle, until fn returns false
func (r *Registry) Each(fn func(string, *FileSystem) bool) {
	r.mx.RLock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	handles := make(map[string]*FileSystem, len(r.handles))
	for id, f := range r.handles {
		handles[id] = f
	}
	r.mx.RUnlock()

	// ksuids sort by creation time, to the second
	sort.Strings(ids)
	for _, id := range ids {
		if !fn(id, handles[id]) {
			return
		}
	}
}

// Close deactivates and deregisters all file systems
func (r *Registry) Close() {
	r.mx.Lock()
	handles := r.handles
	r.handles = make(map[string]*FileSystem)
	r.mx.Unlock()

	for _, f := range handles {
		f.Deactivate()
	}
}
