package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates a Tool
type Factory func() Tool

// Registry manages available tool implementations
type Registry struct {
	tools map[string]Factory
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry with the built-in tools
func NewRegistry() *Registry {
	r := &Registry{
		tools: make(map[string]Factory),
	}

	r.Register("claude", func() Tool { return NewClaude() })
	r.Register("codex", func() Tool { return NewCodex() })
	r.Register("opencode", func() Tool { return NewOpenCode() })
	r.Register("agent", func() Tool { return NewAgent() })
	r.Register("gemini", func() Tool { return NewGemini() })
	r.Register("qwen", func() Tool { return NewQwen() })

	return r
}

// Register adds a tool factory to the registry
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = factory
}

// Unregister removes a tool factory from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get instantiates a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s. Available tools: %s", ErrToolNotFound, name, strings.Join(r.namesLocked(), ", "))
	}
	return factory(), nil
}

// Available returns the names of all registered tools, sorted
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Has returns true if a tool with the given name is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global tool registry
var DefaultRegistry = NewRegistry()

// Register registers a tool factory in the default registry
func Register(name string, factory Factory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a tool from the default registry
func Get(name string) (Tool, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the tools in the default registry
func Available() []string {
	return DefaultRegistry.Available()
}

// IsSupported reports whether the default registry knows name
func IsSupported(name string) bool {
	return DefaultRegistry.Has(name)
}
