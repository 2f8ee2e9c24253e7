package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traind/pkg/types"
)

func writeCard(t *testing.T, root, card string, attrs map[string]string) {
	t.Helper()
	dir := filepath.Join(root, card, "device")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, val := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(val+"\n"), 0o644))
	}
}

func TestOpenCLProbeScansSysfs(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", map[string]string{
		"class":  "0x030000",
		"vendor": "0x10de",
		"device": "0x2206",
	})
	writeCard(t, root, "card1", map[string]string{
		"class":               "0x030000",
		"vendor":              "0x1002",
		"device":              "0x73bf",
		"mem_info_vram_total": "17163091968",
	})
	// Connector entries and non-display functions are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "card0-DP-1"), 0o755))
	writeCard(t, root, "card2", map[string]string{
		"class":  "0x0c0330",
		"vendor": "0x8086",
	})

	p := &openclProbe{root: root}
	devices, err := p.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	nv := devices[0]
	assert.Equal(t, "opencl:0", nv.ID)
	assert.Equal(t, types.VendorNVIDIA, nv.Vendor)
	assert.Equal(t, types.BackendOpenCL, nv.Type)
	assert.True(t, nv.IsDiscrete)
	assert.Contains(t, nv.Name, "NVIDIA")

	amd := devices[1]
	assert.Equal(t, "opencl:1", amd.ID)
	assert.Equal(t, types.VendorAMD, amd.Vendor)
	assert.Equal(t, uint64(16368), amd.MemoryMB)
	assert.Greater(t, amd.PerformanceScore, 0)
}

func TestOpenCLProbeMissingRoot(t *testing.T) {
	p := &openclProbe{root: filepath.Join(t.TempDir(), "nope")}
	_, err := p.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpenCLProbeUtilizationNotSupported(t *testing.T) {
	p := &openclProbe{root: t.TempDir()}
	_, err := p.Utilization(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrNotSupported))
}
