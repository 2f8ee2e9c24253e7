package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traind/internal/config"
	"traind/internal/registry"
	"traind/pkg/types"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func newStartedApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() {
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		a.Shutdown(sctx)
	})
	return a
}

// smallMLP keeps create and training cheap in tests.
func smallMLP(name string) types.CreateUnitRequest {
	return types.CreateUnitRequest{
		Name: name,
		Type: types.UnitMLP,
		Architecture: map[string]any{
			"layers": []any{8, 4, 2},
		},
	}
}

func waitTerminal(t *testing.T, a *App, id string) types.Job {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		job, err := a.TrainingJob(id)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("training did not reach a terminal state in time")
	return types.Job{}
}

func TestStartMakesAppReady(t *testing.T) {
	a := newStartedApp(t, testConfig(t))

	assert.True(t, a.Ready())

	resp := a.Devices()
	require.NotEmpty(t, resp.Devices, "at least the CPU must be in the catalog")
	assert.NotEmpty(t, resp.CurrentDeviceID)

	dev, err := a.Device(resp.CurrentDeviceID)
	require.NoError(t, err)
	assert.Equal(t, resp.CurrentDeviceID, dev.ID)
}

func TestStartFallsBackWhenPreferenceUnsatisfiable(t *testing.T) {
	cfg := testConfig(t)
	// No NVIDIA hardware in CI, so this preference cannot hold.
	cfg.DefaultPreference = string(types.PreferenceNVIDIAOnly)
	a := newStartedApp(t, cfg)

	assert.True(t, a.Ready())
	settings := a.DeviceSettings()
	assert.Equal(t, types.PreferenceAuto, settings.CurrentPreference)
	assert.NotEmpty(t, a.Devices().CurrentDeviceID)
}

func TestModelLifecycle(t *testing.T) {
	a := newStartedApp(t, testConfig(t))

	unit, err := a.CreateModel(smallMLP("tiny"))
	require.NoError(t, err)
	assert.NotEmpty(t, unit.ID)
	assert.Equal(t, types.UnitStatusCreated, unit.Status)
	assert.Greater(t, unit.ParameterCount, 0)

	got, err := a.Model(unit.ID)
	require.NoError(t, err)
	assert.Equal(t, unit.ID, got.ID)

	list := a.Models(0, 10, "")
	assert.Equal(t, 1, list.Total)

	name := "renamed"
	updated, err := a.UpdateModel(unit.ID, types.UpdateUnitRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	res, err := a.ExportModel(unit.ID, types.ExportJSON)
	require.NoError(t, err)
	assert.Equal(t, unit.ID, res.UnitID)
	assert.Greater(t, res.SizeBytes, int64(0))

	require.NoError(t, a.DeleteModel(unit.ID))
	_, err = a.Model(unit.ID)
	assert.True(t, registry.IsNotFound(err))
}

func TestModelsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)

	a := newStartedApp(t, cfg)
	unit, err := a.CreateModel(smallMLP("persisted"))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))

	b := newStartedApp(t, cfg)
	got, err := b.Model(unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Name)
	assert.Equal(t, unit.ParameterCount, got.ParameterCount)
}

func TestTrainingEndToEnd(t *testing.T) {
	a := newStartedApp(t, testConfig(t))

	unit, err := a.CreateModel(smallMLP("trainee"))
	require.NoError(t, err)

	resp, err := a.StartTraining(types.StartTrainingRequest{
		ModelID:       unit.ID,
		Config:        &types.TrainingConfig{Epochs: 3, BatchSize: 16, Optimizer: "sgd", LearningRate: 0.01},
		DatasetConfig: &types.DatasetConfig{NumSamples: 64, InputSize: 8, NumClasses: 2, Seed: 42},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.TrainingID)

	job := waitTerminal(t, a, resp.TrainingID)
	assert.Equal(t, types.JobCompleted, job.Status)
	assert.Equal(t, 3, job.CurrentEpoch)

	snap, err := a.TrainingMetrics(resp.TrainingID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, snap.Progress, 0.001)

	jobs := a.TrainingJobs("")
	assert.Equal(t, 1, jobs.Total)

	got, err := a.Model(unit.ID)
	require.NoError(t, err)
	assert.Equal(t, types.UnitStatusTrained, got.Status)
}

func TestBenchmarkAndClearDefaultToSelected(t *testing.T) {
	a := newStartedApp(t, testConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := a.BenchmarkDevice(ctx, "", []int{16}, 2)
	require.NoError(t, err)
	assert.Equal(t, a.Devices().CurrentDeviceID, res.DeviceID)
	assert.Greater(t, res.BestGFLOPS, 0.0)

	cleared, err := a.ClearDeviceMemory("")
	require.NoError(t, err)
	assert.Equal(t, a.Devices().CurrentDeviceID, cleared.DeviceID)
}

func TestInfoAndHealth(t *testing.T) {
	a := newStartedApp(t, testConfig(t))

	info := a.Info()
	assert.Equal(t, "traind", info.Name)
	assert.Equal(t, Version, info.Version)

	h := a.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, Version, h.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dh, err := a.DetailedHealth(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, dh.DeviceCount, 1)
	assert.Equal(t, 0, dh.ActiveJobs)
}
