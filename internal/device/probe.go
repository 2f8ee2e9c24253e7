package device

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"traind/pkg/types"
)

// Probe discovers the devices one backend can see.
type Probe interface {
	// Kind identifies the backend this probe speaks for.
	Kind() types.BackendKind
	// Discover enumerates the backend's devices with scores already
	// computed. Backends absent on this host return ErrUnavailable.
	Discover(ctx context.Context) ([]types.Device, error)
	// Utilization reads the volatile fields of the device at index
	// within this backend. Probes without live readings return
	// ErrNotSupported.
	Utilization(ctx context.Context, index int) (Utilization, error)
}

// Utilization is a point-in-time reading of a device's volatile fields.
type Utilization struct {
	AvailableMemoryMB  uint64
	MemoryUsagePercent float64
	TemperatureC       *float64
	PowerUsageW        *float64
}

// deviceID composes the canonical "<backend>:<index>" identifier.
func deviceID(kind types.BackendKind, index int) string {
	return string(kind) + ":" + strconv.Itoa(index)
}

// deviceIndex extracts the numeric index from a composite id.
func deviceIndex(id string) (int, error) {
	_, idx, ok := strings.Cut(id, ":")
	if !ok {
		return 0, fmt.Errorf("malformed device id: %s", id)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return 0, fmt.Errorf("malformed device id: %s", id)
	}
	return n, nil
}

// DefaultProbes returns the production probe set in catalog order.
func DefaultProbes() []Probe {
	return []Probe{
		NewCUDAProbe(),
		NewDirectMLProbe(),
		NewOpenCLProbe(),
		NewMetalProbe(),
		NewCPUProbe(),
	}
}
