// Package tools provides the tool registry steps execute against.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ExecuteFunc runs a tool with the step's inputs and returns its output.
type ExecuteFunc func(ctx context.Context, inputs map[string]any) (any, error)

// Definition describes a registered tool.
type Definition struct {
	// Name is the unique tool name steps reference.
	Name string
	// Description is a short human-readable summary.
	Description string
	// Execute runs the tool.
	Execute ExecuteFunc
	// Timeout, when set, overrides the step timeout for this tool.
	Timeout time.Duration
	// Retryable indicates failures of this tool are generally safe to retry.
	Retryable bool
}

// Registry holds tool definitions by name. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Definition)}
}

// Register adds a tool definition. Registering a name twice or a
// definition without an Execute func is an error.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if def.Execute == nil {
		return fmt.Errorf("tool %s has no execute function", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// Get returns the definition for a tool name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
