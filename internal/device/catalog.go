package device

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"traind/pkg/types"
)

// Catalog aggregates the devices visible through the registered probes.
// Discovery order is probe registration order then device index; that
// order is stable and doubles as the selection tie-break.
type Catalog struct {
	log    zerolog.Logger
	probes []Probe

	mu       sync.RWMutex
	devices  []types.Device
	selected string
}

// NewCatalog builds a catalog over probes. Nothing is discovered until
// Discover runs.
func NewCatalog(log zerolog.Logger, probes ...Probe) *Catalog {
	return &Catalog{log: log, probes: probes}
}

// Discover runs every probe and replaces the catalog contents. Probe
// failures are absorbed: they log, count and contribute zero devices.
// The result always contains exactly one CPU entry.
func (c *Catalog) Discover(ctx context.Context) error {
	devices, err := c.discover(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.devices = devices
	c.selected = ""
	c.mu.Unlock()
	c.log.Info().Int("devices", len(devices)).Msg("device discovery complete")
	return nil
}

// Refresh re-runs discovery and swaps the snapshot in. The selected
// flag survives when the previously selected id is still present; the
// return value reports whether it did.
func (c *Catalog) Refresh(ctx context.Context) (bool, error) {
	devices, err := c.discover(ctx)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := false
	if c.selected != "" {
		for i := range devices {
			if devices[i].ID == c.selected {
				devices[i].IsSelected = true
				kept = true
				break
			}
		}
	}
	if !kept {
		c.selected = ""
	}
	c.devices = devices
	return kept, nil
}

func (c *Catalog) discover(ctx context.Context) ([]types.Device, error) {
	var devices []types.Device
	for _, p := range c.probes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind := string(p.Kind())
		found, err := p.Discover(ctx)
		if err != nil {
			probeFailuresTotal.WithLabelValues(kind).Inc()
			devicesDiscovered.WithLabelValues(kind).Set(0)
			if errors.Is(err, ErrUnavailable) {
				c.log.Debug().Str("backend", kind).Err(err).Msg("backend unavailable")
			} else {
				c.log.Warn().Str("backend", kind).Err(err).Msg("probe failed")
			}
			continue
		}
		devicesDiscovered.WithLabelValues(kind).Set(float64(len(found)))
		devices = append(devices, found...)
	}
	if !hasCPU(devices) {
		c.log.Warn().Msg("cpu probe returned nothing; synthesizing static entry")
		devices = append(devices, StaticCPUDevice())
	}
	return devices, nil
}

func hasCPU(devices []types.Device) bool {
	for _, d := range devices {
		if d.Type == types.BackendCPU {
			return true
		}
	}
	return false
}

// Devices returns a snapshot copy of the catalog in discovery order.
func (c *Catalog) Devices() []types.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// Get returns the device with id.
func (c *Catalog) Get(id string) (types.Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos := c.indexLocked(id)
	if pos < 0 {
		return types.Device{}, ErrDeviceNotFound(id)
	}
	return c.devices[pos], nil
}

// Count returns the number of catalog entries.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.devices)
}

// ByBackend returns the entries discovered through kind, in order.
func (c *Catalog) ByBackend(kind types.BackendKind) []types.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []types.Device
	for _, d := range c.devices {
		if d.Type == kind {
			out = append(out, d)
		}
	}
	return out
}

// MarkSelected flags id as the selected device and clears the flag on
// every other entry.
func (c *Catalog) MarkSelected(id string) (types.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.indexLocked(id)
	if pos < 0 {
		return types.Device{}, ErrDeviceNotFound(id)
	}
	for i := range c.devices {
		c.devices[i].IsSelected = i == pos
	}
	c.selected = id
	return c.devices[pos], nil
}

// SelectedID returns the id of the selected device, or "".
func (c *Catalog) SelectedID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Selected returns the selected device, if any.
func (c *Catalog) Selected() (types.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos := c.indexLocked(c.selected)
	if pos < 0 {
		return types.Device{}, false
	}
	return c.devices[pos], true
}

// RefreshUtilization re-reads the volatile fields of the device with id
// from its probe and returns the updated record. Probes without live
// readings surface ErrNotSupported.
func (c *Catalog) RefreshUtilization(ctx context.Context, id string) (types.Device, error) {
	c.mu.RLock()
	pos := c.indexLocked(id)
	if pos < 0 {
		c.mu.RUnlock()
		return types.Device{}, ErrDeviceNotFound(id)
	}
	kind := c.devices[pos].Type
	c.mu.RUnlock()

	idx, err := deviceIndex(id)
	if err != nil {
		return types.Device{}, err
	}
	p := c.probeByKind(kind)
	if p == nil {
		return types.Device{}, ErrNotSupported
	}
	u, err := p.Utilization(ctx, idx)
	if err != nil {
		return types.Device{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-resolve: a concurrent refresh may have replaced the slice.
	pos = c.indexLocked(id)
	if pos < 0 {
		return types.Device{}, ErrDeviceNotFound(id)
	}
	d := &c.devices[pos]
	d.AvailableMemoryMB = u.AvailableMemoryMB
	d.MemoryUsagePercent = u.MemoryUsagePercent
	d.TemperatureC = u.TemperatureC
	d.PowerUsageW = u.PowerUsageW
	return *d, nil
}

func (c *Catalog) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.devices {
		if c.devices[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) probeByKind(kind types.BackendKind) Probe {
	for _, p := range c.probes {
		if p.Kind() == kind {
			return p
		}
	}
	return nil
}
