//go:build windows
// +build windows

package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"

	"traind/pkg/types"
)

// Win32_VideoController mirrors the WMI class fields we query.
// Nullable WMI properties map to pointers.
type Win32_VideoController struct {
	Name                 string
	AdapterRAM           *uint32
	AdapterCompatibility *string
}

// directmlProbe enumerates display adapters through WMI, the view the
// vendor-bridge backend trains against on Windows.
type directmlProbe struct{}

// NewDirectMLProbe returns the WMI-backed directml probe.
func NewDirectMLProbe() Probe { return &directmlProbe{} }

func (p *directmlProbe) Kind() types.BackendKind { return types.BackendDirectML }

func (p *directmlProbe) Discover(ctx context.Context) ([]types.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var controllers []Win32_VideoController
	q := wmi.CreateQuery(&controllers, "")
	if err := wmi.Query(q, &controllers); err != nil {
		return nil, fmt.Errorf("wmi query: %w", err)
	}

	var devices []types.Device
	for _, c := range controllers {
		// Software adapters (Basic Display, Remote Display) are not
		// compute devices.
		if strings.Contains(c.Name, "Microsoft") {
			continue
		}
		vendor := adapterVendor(c)
		memMB := uint64(0)
		if c.AdapterRAM != nil {
			memMB = uint64(*c.AdapterRAM) / (1024 * 1024)
		}
		discrete := vendor == types.VendorNVIDIA || vendor == types.VendorAMD

		devices = append(devices, types.Device{
			ID:                deviceID(types.BackendDirectML, len(devices)),
			Name:              c.Name,
			Vendor:            vendor,
			Type:              types.BackendDirectML,
			MemoryMB:          memMB,
			AvailableMemoryMB: memMB,
			IsDiscrete:        discrete,
			SupportsFP16:      discrete,
			PerformanceScore:  scoreDirectML(memMB, 0),
		})
	}
	return devices, nil
}

// Utilization is not available through WMI snapshots.
func (p *directmlProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	return Utilization{}, ErrNotSupported
}

func adapterVendor(c Win32_VideoController) types.Vendor {
	compat := ""
	if c.AdapterCompatibility != nil {
		compat = *c.AdapterCompatibility
	}
	probe := strings.ToLower(compat + " " + c.Name)
	switch {
	case strings.Contains(probe, "nvidia"):
		return types.VendorNVIDIA
	case strings.Contains(probe, "amd"), strings.Contains(probe, "advanced micro"):
		return types.VendorAMD
	case strings.Contains(probe, "intel"):
		return types.VendorIntel
	default:
		return types.VendorUnknown
	}
}

// Compile-time interface check
var _ Probe = (*directmlProbe)(nil)
