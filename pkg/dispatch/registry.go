package dispatch

import (
	"sync"

	"helmsman-ai/helmsman/pkg/providers"
)

// Registry holds the instance pool. Instances get sequential ids in
// registration order, starting at zero; ids are stable for the life of the
// registry and double as positions in the instances slice.
type Registry struct {
	mu        sync.RWMutex
	instances []*Instance
}

// NewInstanceRegistry creates an empty instance registry.
func NewInstanceRegistry() *Registry {
	return &Registry{}
}

// Add registers an enabled provider with the tasks it serves and returns the
// new instance. Duplicate providers are allowed; each registration is its own
// instance with its own id and counters.
func (r *Registry) Add(provider providers.Provider, taskNames []string) *Instance {
	return r.add(provider, taskNames, true)
}

// AddDisabled registers a provider that never serves requests. The instance
// still consumes an id, so positions stay stable when a config toggles
// instances off.
func (r *Registry) AddDisabled(provider providers.Provider, taskNames []string) *Instance {
	return r.add(provider, taskNames, false)
}

func (r *Registry) add(provider providers.Provider, taskNames []string, enabled bool) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make(map[string]struct{}, len(taskNames))
	for _, t := range taskNames {
		tasks[t] = struct{}{}
	}

	inst := &Instance{
		id:       len(r.instances),
		name:     provider.GetName(),
		provider: provider,
		tasks:    tasks,
		enabled:  enabled,
	}
	r.instances = append(r.instances, inst)
	return inst
}

// Get returns the instance with the given id.
func (r *Registry) Get(id int) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 0 || id >= len(r.instances) {
		return nil, false
	}
	return r.instances[id], true
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// All returns every registered instance in id order.
func (r *Registry) All() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Instance, len(r.instances))
	copy(out, r.instances)
	return out
}

// EligibleFor returns the instances that serve the named task, in id order.
// The empty task matches the whole pool.
func (r *Registry) EligibleFor(task string) []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Instance
	for _, inst := range r.instances {
		if inst.Enabled() && inst.Supports(task) {
			out = append(out, inst)
		}
	}
	return out
}

// Snapshots copies the usage state of the given instances.
func Snapshots(instances []*Instance) []Snapshot {
	out := make([]Snapshot, len(instances))
	for i, inst := range instances {
		out[i] = inst.Snapshot()
	}
	return out
}
