//go:build nonvml
// +build nonvml

package device

import (
	"context"
	"fmt"

	"traind/pkg/types"
)

// cudaProbe stub - used when building without NVIDIA libraries
type cudaProbe struct{}

// NewCUDAProbe returns the stub cuda probe.
func NewCUDAProbe() Probe { return &cudaProbe{} }

func (p *cudaProbe) Kind() types.BackendKind { return types.BackendCUDA }

func (p *cudaProbe) Discover(ctx context.Context) ([]types.Device, error) {
	return nil, fmt.Errorf("%w: built with nonvml tag", ErrUnavailable)
}

func (p *cudaProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	return Utilization{}, fmt.Errorf("%w: built with nonvml tag", ErrUnavailable)
}

// Compile-time interface check
var _ Probe = (*cudaProbe)(nil)
