//go:build !windows
// +build !windows

package device

import (
	"context"
	"fmt"

	"traind/pkg/types"
)

// directmlProbe stub - the vendor bridge only exists on Windows.
type directmlProbe struct{}

// NewDirectMLProbe returns the stub directml probe.
func NewDirectMLProbe() Probe { return &directmlProbe{} }

func (p *directmlProbe) Kind() types.BackendKind { return types.BackendDirectML }

func (p *directmlProbe) Discover(ctx context.Context) ([]types.Device, error) {
	return nil, fmt.Errorf("%w: directml requires Windows", ErrUnavailable)
}

func (p *directmlProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	return Utilization{}, fmt.Errorf("%w: directml requires Windows", ErrUnavailable)
}

// Compile-time interface check
var _ Probe = (*directmlProbe)(nil)
