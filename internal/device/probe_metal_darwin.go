//go:build darwin
// +build darwin

package device

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"traind/pkg/types"
)

// metalProbe reports the Apple Silicon unified-memory device. The GPU
// shares system RAM, so memory figures come from the host.
type metalProbe struct{}

// NewMetalProbe returns the darwin metal probe.
func NewMetalProbe() Probe { return &metalProbe{} }

func (p *metalProbe) Kind() types.BackendKind { return types.BackendMetal }

func (p *metalProbe) Discover(ctx context.Context) ([]types.Device, error) {
	if runtime.GOARCH != "arm64" {
		return nil, fmt.Errorf("%w: metal backend targets Apple Silicon", ErrUnavailable)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}

	name := "Apple GPU"
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		if model := strings.TrimSpace(infos[0].ModelName); model != "" {
			name = model + " GPU"
		}
	}
	cores := runtime.NumCPU()

	d := types.Device{
		ID:                 deviceID(types.BackendMetal, 0),
		Name:               name,
		Vendor:             types.VendorApple,
		Type:               types.BackendMetal,
		MemoryMB:           vm.Total / (1024 * 1024),
		AvailableMemoryMB:  vm.Available / (1024 * 1024),
		MemoryUsagePercent: vm.UsedPercent,
		IsDiscrete:         false,
		SupportsFP16:       true,
		PerformanceScore:   scoreMetal(vm.Total/(1024*1024), cores),
	}
	return []types.Device{d}, nil
}

func (p *metalProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Utilization{}, fmt.Errorf("virtual memory: %w", err)
	}
	return Utilization{
		AvailableMemoryMB:  vm.Available / (1024 * 1024),
		MemoryUsagePercent: vm.UsedPercent,
	}, nil
}

// Compile-time interface check
var _ Probe = (*metalProbe)(nil)
