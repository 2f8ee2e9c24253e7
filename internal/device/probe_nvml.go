//go:build !nonvml
// +build !nonvml

package device

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"traind/pkg/types"
)

// fp32 cores per multiprocessor on current architectures; used to
// estimate the SM count from the total core count NVML reports.
const coresPerSM = 128

// cudaProbe enumerates NVIDIA devices through NVML.
type cudaProbe struct{}

// NewCUDAProbe returns the NVML-backed cuda probe.
func NewCUDAProbe() Probe { return &cudaProbe{} }

func (p *cudaProbe) Kind() types.BackendKind { return types.BackendCUDA }

func (p *cudaProbe) Discover(ctx context.Context) ([]types.Device, error) {
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("%w: NVML init failed: %v", ErrUnavailable, nvml.ErrorString(ret))
	}
	defer nvml.Shutdown()

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get device count: %v", nvml.ErrorString(ret))
	}

	devices := make([]types.Device, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		handle, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue // Skip failed device
		}

		name, _ := handle.GetName()
		memInfo, _ := handle.GetMemoryInfo()

		d := types.Device{
			ID:                deviceID(types.BackendCUDA, i),
			Name:              name,
			Vendor:            types.VendorNVIDIA,
			Type:              types.BackendCUDA,
			MemoryMB:          memInfo.Total / (1024 * 1024),
			AvailableMemoryMB: memInfo.Free / (1024 * 1024),
			IsDiscrete:        true,
		}
		if memInfo.Total > 0 {
			d.MemoryUsagePercent = float64(memInfo.Used) / float64(memInfo.Total) * 100
		}

		ccMajor := 0
		if major, minor, ret := handle.GetCudaComputeCapability(); ret == nvml.SUCCESS {
			ccMajor = major
			d.ComputeCapability = fmt.Sprintf("%d.%d", major, minor)
			// Tensor-core fp16 arrived with compute capability 7.x.
			d.SupportsFP16 = major >= 7
		}
		sm := 0
		if cores, ret := handle.GetNumGpuCores(); ret == nvml.SUCCESS {
			sm = cores / coresPerSM
		}
		if temp, ret := handle.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
			t := float64(temp)
			d.TemperatureC = &t
		}
		if power, ret := handle.GetPowerUsage(); ret == nvml.SUCCESS {
			w := float64(power) / 1000 // milliwatts
			d.PowerUsageW = &w
		}
		d.PerformanceScore = scoreCUDA(d.MemoryMB, sm, ccMajor)

		devices = append(devices, d)
	}
	return devices, nil
}

func (p *cudaProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	if err := ctx.Err(); err != nil {
		return Utilization{}, err
	}
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return Utilization{}, fmt.Errorf("%w: NVML init failed: %v", ErrUnavailable, nvml.ErrorString(ret))
	}
	defer nvml.Shutdown()

	handle, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return Utilization{}, fmt.Errorf("device %d: %v", index, nvml.ErrorString(ret))
	}
	memInfo, ret := handle.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return Utilization{}, fmt.Errorf("memory info: %v", nvml.ErrorString(ret))
	}

	u := Utilization{AvailableMemoryMB: memInfo.Free / (1024 * 1024)}
	if memInfo.Total > 0 {
		u.MemoryUsagePercent = float64(memInfo.Used) / float64(memInfo.Total) * 100
	}
	if temp, ret := handle.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		t := float64(temp)
		u.TemperatureC = &t
	}
	if power, ret := handle.GetPowerUsage(); ret == nvml.SUCCESS {
		w := float64(power) / 1000
		u.PowerUsageW = &w
	}
	return u, nil
}

// Compile-time interface check
var _ Probe = (*cudaProbe)(nil)
