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

// cpuProbe reports the host CPU. It is the fallback backend: the catalog
// guarantees exactly one CPU entry even when this probe fails.
type cpuProbe struct{}

// NewCPUProbe returns the host CPU probe.
func NewCPUProbe() Probe { return &cpuProbe{} }

func (p *cpuProbe) Kind() types.BackendKind { return types.BackendCPU }

func (p *cpuProbe) Discover(ctx context.Context) ([]types.Device, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("cpu info: empty result")
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		cores = runtime.NumCPU()
	}
	name := strings.TrimSpace(infos[0].ModelName)
	if name == "" {
		name = fmt.Sprintf("CPU (%d cores)", cores)
	}

	d := types.Device{
		ID:                 deviceID(types.BackendCPU, 0),
		Name:               name,
		Vendor:             cpuVendor(infos[0].VendorID),
		Type:               types.BackendCPU,
		MemoryMB:           vm.Total / (1024 * 1024),
		AvailableMemoryMB:  vm.Available / (1024 * 1024),
		MemoryUsagePercent: vm.UsedPercent,
		PerformanceScore:   scoreCPU(cores, vm.Total/(1024*1024)),
	}
	return []types.Device{d}, nil
}

func (p *cpuProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Utilization{}, fmt.Errorf("virtual memory: %w", err)
	}
	return Utilization{
		AvailableMemoryMB:  vm.Available / (1024 * 1024),
		MemoryUsagePercent: vm.UsedPercent,
	}, nil
}

func cpuVendor(vendorID string) types.Vendor {
	switch {
	case strings.Contains(vendorID, "GenuineIntel"):
		return types.VendorIntel
	case strings.Contains(vendorID, "AuthenticAMD"):
		return types.VendorAMD
	case strings.Contains(strings.ToLower(vendorID), "apple"):
		return types.VendorApple
	default:
		return types.VendorUnknown
	}
}

// StaticCPUDevice synthesizes a minimal CPU entry from runtime facts.
// The catalog appends it when the cpu probe itself fails, so the device
// list is never empty.
func StaticCPUDevice() types.Device {
	cores := runtime.NumCPU()
	return types.Device{
		ID:               deviceID(types.BackendCPU, 0),
		Name:             fmt.Sprintf("CPU (%d cores)", cores),
		Vendor:           types.VendorUnknown,
		Type:             types.BackendCPU,
		PerformanceScore: clampScore(cores * 10),
	}
}

// Compile-time interface check
var _ Probe = (*cpuProbe)(nil)
