// Package builder turns declarative architecture maps into engine networks.
// The builder set is fixed at compile time; there is no dynamic loading.
package builder

import (
	"strings"

	"traind/internal/engine"
	"traind/pkg/types"
)

// Builder constructs one family of trainable units.
type Builder interface {
	// Info describes the builder for the plugins listing.
	Info() types.BuilderInfo
	// DefaultArchitecture returns a fresh copy of the builder's defaults.
	DefaultArchitecture() map[string]any
	// Build validates arch against the defaults and assembles a network
	// bound to deviceID. It returns the normalized architecture actually
	// used, so callers can persist the merged view.
	Build(deviceID string, arch map[string]any, seed int64) (*engine.Network, map[string]any, error)
}

// Registry is the closed set of compiled-in builders.
type Registry struct {
	order    []string
	builders map[string]Builder
}

// NewRegistry registers the built-in mlp, rnn and cnn builders.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.register(&mlpBuilder{})
	r.register(&rnnBuilder{})
	r.register(&cnnBuilder{})
	return r
}

func (r *Registry) register(b Builder) {
	id := b.Info().ID
	r.order = append(r.order, id)
	r.builders[id] = b
}

// Get resolves a builder by unit type.
func (r *Registry) Get(t types.UnitType) (Builder, error) {
	b, ok := r.builders[strings.ToLower(string(t))]
	if !ok {
		return nil, ErrUnsupportedType(string(t))
	}
	return b, nil
}

// List returns builder descriptors in registration order.
func (r *Registry) List() []types.BuilderInfo {
	out := make([]types.BuilderInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.builders[id].Info())
	}
	return out
}

const (
	builderVersion = "1.0.0"
	builderAuthor  = "traind core"
	builderType    = "model_builder"
)
