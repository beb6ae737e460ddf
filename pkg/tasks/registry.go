// Package tasks maintains the named task registry. A task is a label plus a
// bag of default generation parameters; instances declare which tasks they
// serve and requests reference tasks by name.
package tasks

import (
	"fmt"
	"sort"
	"sync"
)

// Definition is a registered task: a unique name and the default generation
// parameters applied to requests that reference it. Request-level parameters
// override these defaults key by key.
type Definition struct {
	// Name uniquely identifies the task within a registry.
	Name string

	// Params holds default generation parameters such as max_tokens,
	// temperature and top_p.
	Params map[string]any
}

// DuplicateTaskError is returned when defining a task whose name is taken.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already defined", e.Name)
}

// UnknownTaskError is returned when resolving a task that was never defined.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("task %q is not defined", e.Name)
}

// Registry holds task definitions. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Definition
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Definition),
	}
}

// Define registers a task. Defining the same name twice fails with
// DuplicateTaskError; redefinition is intentionally not supported so that
// instance associations cannot silently change meaning.
func (r *Registry) Define(name string, params map[string]any) error {
	if name == "" {
		return fmt.Errorf("task name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[name]; exists {
		return &DuplicateTaskError{Name: name}
	}

	def := &Definition{
		Name:   name,
		Params: make(map[string]any, len(params)),
	}
	for k, v := range params {
		def.Params[k] = v
	}
	r.tasks[name] = def

	return nil
}

// Resolve returns the definition for name, or UnknownTaskError.
func (r *Registry) Resolve(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tasks[name]
	if !ok {
		return nil, &UnknownTaskError{Name: name}
	}
	return def, nil
}

// Exists reports whether name is defined.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[name]
	return ok
}

// Names returns all defined task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// MergeParams layers request-level overrides on top of the task defaults.
// Neither input map is modified.
func (d *Definition) MergeParams(overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(d.Params)+len(overrides))
	for k, v := range d.Params {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
