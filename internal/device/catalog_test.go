package device

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traind/pkg/types"
)

type fakeProbe struct {
	kind    types.BackendKind
	devices []types.Device
	err     error
	util    Utilization
	utilErr error
}

func (f *fakeProbe) Kind() types.BackendKind { return f.kind }

func (f *fakeProbe) Discover(ctx context.Context) ([]types.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Device, len(f.devices))
	copy(out, f.devices)
	return out, nil
}

func (f *fakeProbe) Utilization(ctx context.Context, index int) (Utilization, error) {
	if f.utilErr != nil {
		return Utilization{}, f.utilErr
	}
	return f.util, nil
}

func dev(kind types.BackendKind, idx int, vendor types.Vendor, score int, discrete bool) types.Device {
	return types.Device{
		ID:               string(kind) + ":" + strconv.Itoa(idx),
		Name:             string(vendor) + " device",
		Vendor:           vendor,
		Type:             kind,
		PerformanceScore: score,
		IsDiscrete:       discrete,
	}
}

func cpuDev(score int) types.Device {
	return dev(types.BackendCPU, 0, types.VendorIntel, score, false)
}

func newTestCatalog(t *testing.T, probes ...Probe) *Catalog {
	t.Helper()
	c := NewCatalog(zerolog.Nop(), probes...)
	require.NoError(t, c.Discover(context.Background()))
	return c
}

func TestDiscoverAbsorbsProbeFailures(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCUDA, err: errors.New("driver exploded")},
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	assert.Equal(t, 1, c.Count())
	devices := c.Devices()
	assert.Equal(t, types.BackendCPU, devices[0].Type)
}

func TestDiscoverSynthesizesCPUFallback(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCUDA, err: ErrUnavailable},
		&fakeProbe{kind: types.BackendCPU, err: errors.New("gopsutil broke")},
	)
	require.Equal(t, 1, c.Count())
	d := c.Devices()[0]
	assert.Equal(t, "cpu:0", d.ID)
	assert.Equal(t, types.BackendCPU, d.Type)
	assert.Greater(t, d.PerformanceScore, 0)
}

func TestDiscoverKeepsDuplicateHardware(t *testing.T) {
	// The same card seen through two backends stays listed twice.
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCUDA, devices: []types.Device{
			dev(types.BackendCUDA, 0, types.VendorNVIDIA, 800, true),
		}},
		&fakeProbe{kind: types.BackendOpenCL, devices: []types.Device{
			dev(types.BackendOpenCL, 0, types.VendorNVIDIA, 300, true),
		}},
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	assert.Equal(t, 3, c.Count())
	assert.Len(t, c.ByBackend(types.BackendCUDA), 1)
	assert.Len(t, c.ByBackend(types.BackendOpenCL), 1)
}

func TestCatalogOrderFollowsProbeOrder(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCUDA, devices: []types.Device{
			dev(types.BackendCUDA, 0, types.VendorNVIDIA, 500, true),
			dev(types.BackendCUDA, 1, types.VendorNVIDIA, 900, true),
		}},
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	ids := []string{}
	for _, d := range c.Devices() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"cuda:0", "cuda:1", "cpu:0"}, ids)
}

func TestGet(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	d, err := c.Get("cpu:0")
	require.NoError(t, err)
	assert.Equal(t, "cpu:0", d.ID)

	_, err = c.Get("cuda:7")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMarkSelectedIsExclusive(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCUDA, devices: []types.Device{
			dev(types.BackendCUDA, 0, types.VendorNVIDIA, 800, true),
		}},
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	_, err := c.MarkSelected("cuda:0")
	require.NoError(t, err)
	_, err = c.MarkSelected("cpu:0")
	require.NoError(t, err)

	selectedCount := 0
	for _, d := range c.Devices() {
		if d.IsSelected {
			selectedCount++
			assert.Equal(t, "cpu:0", d.ID)
		}
	}
	assert.Equal(t, 1, selectedCount)
	assert.Equal(t, "cpu:0", c.SelectedID())
}

func TestRefreshPreservesSelection(t *testing.T) {
	cuda := &fakeProbe{kind: types.BackendCUDA, devices: []types.Device{
		dev(types.BackendCUDA, 0, types.VendorNVIDIA, 800, true),
	}}
	c := newTestCatalog(t, cuda,
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	_, err := c.MarkSelected("cuda:0")
	require.NoError(t, err)

	kept, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, kept)
	d, err := c.Get("cuda:0")
	require.NoError(t, err)
	assert.True(t, d.IsSelected)

	// Unplug the card: selection is dropped, not remapped.
	cuda.devices = nil
	cuda.err = ErrUnavailable
	kept, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, kept)
	assert.Equal(t, "", c.SelectedID())
}

func TestRefreshUtilization(t *testing.T) {
	temp := 61.0
	cpu := &fakeProbe{
		kind:    types.BackendCPU,
		devices: []types.Device{cpuDev(100)},
		util: Utilization{
			AvailableMemoryMB:  2048,
			MemoryUsagePercent: 75,
			TemperatureC:       &temp,
		},
	}
	c := newTestCatalog(t, cpu)

	d, err := c.RefreshUtilization(context.Background(), "cpu:0")
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), d.AvailableMemoryMB)
	assert.Equal(t, 75.0, d.MemoryUsagePercent)
	require.NotNil(t, d.TemperatureC)
	assert.Equal(t, 61.0, *d.TemperatureC)

	// The catalog record was updated, not just the returned copy.
	got, err := c.Get("cpu:0")
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), got.AvailableMemoryMB)

	_, err = c.RefreshUtilization(context.Background(), "cuda:0")
	assert.True(t, IsNotFound(err))

	cpu.utilErr = ErrNotSupported
	_, err = c.RefreshUtilization(context.Background(), "cpu:0")
	assert.True(t, errors.Is(err, ErrNotSupported))
}

func TestBenchmark(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	res, err := c.Benchmark(context.Background(), "cpu:0", []int{8, 16}, 1)
	require.NoError(t, err)
	assert.Equal(t, "cpu:0", res.DeviceID)
	assert.Len(t, res.Sizes, 2)
	assert.Greater(t, res.BestGFLOPS, 0.0)

	_, err = c.Benchmark(context.Background(), "cuda:9", nil, 0)
	assert.True(t, IsNotFound(err))
}

func TestClearMemory(t *testing.T) {
	c := newTestCatalog(t,
		&fakeProbe{kind: types.BackendCPU, devices: []types.Device{cpuDev(100)}},
	)
	res, err := c.ClearMemory("cpu:0")
	require.NoError(t, err)
	assert.Equal(t, "cleared", res.Status)
	assert.Equal(t, "cpu:0", res.DeviceID)

	_, err = c.ClearMemory("metal:0")
	assert.True(t, IsNotFound(err))
}

func TestDeviceIDHelpers(t *testing.T) {
	assert.Equal(t, "cuda:2", deviceID(types.BackendCUDA, 2))

	idx, err := deviceIndex("cuda:2")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = deviceIndex("nonsense")
	assert.Error(t, err)
	_, err = deviceIndex("cuda:x")
	assert.Error(t, err)
}
