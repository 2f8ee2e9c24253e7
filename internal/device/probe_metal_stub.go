//go:build !darwin
// +build !darwin

package device

import (
	"context"
	"fmt"

	"traind/pkg/types"
)

// metalProbe stub - unified memory is a darwin-only backend.
type metalProbe struct{}

// NewMetalProbe returns the stub metal probe.
func NewMetalProbe() Probe { return &metalProbe{} }

func (p *metalProbe) Kind() types.BackendKind { return types.BackendMetal }

func (p *metalProbe) Discover(ctx context.Context) ([]types.Device, error) {
	return nil, fmt.Errorf("%w: metal requires darwin", ErrUnavailable)
}

func (p *metalProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	return Utilization{}, fmt.Errorf("%w: metal requires darwin", ErrUnavailable)
}

// Compile-time interface check
var _ Probe = (*metalProbe)(nil)
