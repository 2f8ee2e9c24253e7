package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"traind/pkg/types"
)

// PCI vendor ids of the GPU vendors we recognize.
const (
	pciVendorNVIDIA = "0x10de"
	pciVendorAMD    = "0x1002"
	pciVendorIntel  = "0x8086"
)

// cardDirRe matches render nodes like card0 but not connector entries
// like card0-DP-1.
var cardDirRe = regexp.MustCompile(`^card[0-9]+$`)

// openclProbe surfaces display controllers from the Linux sysfs PCI tree,
// the open-compute view of hardware other backends may also report. An
// NVIDIA card discovered here deliberately duplicates its cuda entry.
type openclProbe struct {
	root string // /sys/class/drm, overridden in tests
}

// NewOpenCLProbe returns the sysfs-backed opencl probe.
func NewOpenCLProbe() Probe { return &openclProbe{root: "/sys/class/drm"} }

func (p *openclProbe) Kind() types.BackendKind { return types.BackendOpenCL }

func (p *openclProbe) Discover(ctx context.Context) ([]types.Device, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var devices []types.Device
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cardDirRe.MatchString(e.Name()) {
			continue
		}
		dev := filepath.Join(p.root, e.Name(), "device")

		// Only display controllers (PCI class 0x03xxxx).
		if class := readSysfs(dev, "class"); !strings.HasPrefix(class, "0x03") {
			continue
		}
		vendorID := readSysfs(dev, "vendor")
		vendor := pciVendor(vendorID)

		vramMB := uint64(0)
		if raw := readSysfs(dev, "mem_info_vram_total"); raw != "" {
			if bytes, err := strconv.ParseUint(raw, 10, 64); err == nil {
				vramMB = bytes / (1024 * 1024)
			}
		}

		d := types.Device{
			ID:                deviceID(types.BackendOpenCL, len(devices)),
			Name:              pciDeviceName(vendor, readSysfs(dev, "device")),
			Vendor:            vendor,
			Type:              types.BackendOpenCL,
			MemoryMB:          vramMB,
			AvailableMemoryMB: vramMB,
			IsDiscrete:        vendor == types.VendorNVIDIA || vendor == types.VendorAMD,
			PerformanceScore:  scoreOpenCL(vramMB, 0),
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Utilization is not available through the sysfs view.
func (p *openclProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	return Utilization{}, ErrNotSupported
}

// readSysfs returns the trimmed contents of a sysfs attribute, or ""
// when the attribute does not exist.
func readSysfs(dir, attr string) string {
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func pciVendor(id string) types.Vendor {
	switch strings.ToLower(id) {
	case pciVendorNVIDIA:
		return types.VendorNVIDIA
	case pciVendorAMD:
		return types.VendorAMD
	case pciVendorIntel:
		return types.VendorIntel
	default:
		return types.VendorUnknown
	}
}

func pciDeviceName(vendor types.Vendor, pciID string) string {
	label := "GPU"
	switch vendor {
	case types.VendorNVIDIA:
		label = "NVIDIA GPU"
	case types.VendorAMD:
		label = "AMD GPU"
	case types.VendorIntel:
		label = "Intel GPU"
	}
	if pciID == "" {
		return label
	}
	return label + " [" + pciID + "]"
}

// Compile-time interface check
var _ Probe = (*openclProbe)(nil)
