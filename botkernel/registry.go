package botkernel

import (
	"sync"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// Registry holds every BotType known to the process, keyed by type_key.
// Bot authors add new types by calling Register at process startup,
// once, before the Processor starts polling.
type Registry struct {
	mu    sync.RWMutex
	types map[string]BotType
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]BotType)}
}

// Register adds a BotType, overwriting any existing registration under
// the same type_key.
func (r *Registry) Register(bt BotType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[bt.Info().TypeKey] = bt
}

// Get looks up a BotType by type_key.
func (r *Registry) Get(typeKey string) (BotType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bt, ok := r.types[typeKey]
	if !ok {
		return nil, apierr.New(apierr.UnknownType, "bot type %q not registered", typeKey)
	}
	return bt, nil
}

// List returns Info for every registered BotType, for the REST /bot-types
// listing.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.types))
	for _, bt := range r.types {
		out = append(out, bt.Info())
	}
	return out
}
