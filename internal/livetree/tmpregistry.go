package livetree

import (
	"os"
	"sync"
)

// tmpRegistry tracks temporary files a Writer has created but not yet
// renamed into place, so they can be removed if the restore is abandoned.
// Abort may be called from a signal handler while a copy is running.
type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (r *tmpRegistry) register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *tmpRegistry) deregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *tmpRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// cleanup removes all registered temporary files.
func (r *tmpRegistry) cleanup() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = nil
	r.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}
