// Package prompt holds the instruction templates for the two-stage
// analysis calls and assembles the bounded user content that accompanies
// them. Templates can be overridden from a resources directory without
// code changes; the built-in versions are always available as fallback.
package prompt

import (
	"fmt"
	"sync"
)

// Registry holds loaded prompt overrides keyed by id.
type Registry struct {
	prompts map[string]string
	mu      sync.RWMutex
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry singleton.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = &Registry{prompts: make(map[string]string)}
	})
	return globalRegistry
}

// Register adds or replaces a prompt template.
func (r *Registry) Register(id, text string) error {
	if id == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[id] = text
	return nil
}

// Count returns the number of loaded overrides.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}

// SystemPrompt returns the template for an id, preferring a loaded
// override over the built-in text.
func (r *Registry) SystemPrompt(id string) string {
	r.mu.RLock()
	if p, ok := r.prompts[id]; ok {
		r.mu.RUnlock()
		return p
	}
	r.mu.RUnlock()
	return builtinPrompts[id]
}
