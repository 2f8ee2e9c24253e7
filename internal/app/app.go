// Package app wires the daemon's components together and implements the
// Service interface the HTTP layer consumes. Every dependency is
// constructed here and passed down explicitly; there are no package-level
// singletons.
package app

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/atomic"

	"traind/internal/builder"
	"traind/internal/config"
	"traind/internal/device"
	"traind/internal/registry"
	"traind/internal/store"
	"traind/internal/training"
	"traind/pkg/types"
)

// Version is the daemon version reported by the info and health endpoints.
const Version = "1.0.0"

// App owns all components of the daemon.
type App struct {
	log zerolog.Logger
	cfg config.Config

	catalog     *device.Catalog
	selector    *device.Selector
	builders    *builder.Registry
	store       *store.Store
	units       *registry.Registry
	broadcaster *training.Broadcaster
	coordinator *training.Coordinator

	startedAt time.Time
	ready     *atomic.Bool
}

// New constructs the component graph in dependency order. Nothing is
// discovered or restored yet; Start does that.
func New(cfg config.Config, log zerolog.Logger) (*App, error) {
	catalog := device.NewCatalog(log, device.DefaultProbes()...)
	selector := device.NewSelector(log, catalog, types.DevicePreference(cfg.DefaultPreference))

	st, err := store.New(filepath.Join(cfg.DataDir, "models"))
	if err != nil {
		return nil, err
	}
	builders := builder.NewRegistry()
	exportDir := filepath.Join(filepath.Dir(st.Dir()), "exports")
	units := registry.New(log, builders, st, selector, exportDir)

	broadcaster := training.NewBroadcaster(log)
	coordinator := training.NewCoordinator(log, units, broadcaster)

	return &App{
		log:         log,
		cfg:         cfg,
		catalog:     catalog,
		selector:    selector,
		builders:    builders,
		store:       st,
		units:       units,
		broadcaster: broadcaster,
		coordinator: coordinator,
		startedAt:   time.Now(),
		ready:       atomic.NewBool(false),
	}, nil
}

// Start runs initial discovery, applies the configured device preference
// and restores persisted units. The configured preference falling flat on
// this host's hardware is a warning, not a startup failure; selection
// falls back to auto.
func (a *App) Start(ctx context.Context) error {
	if err := a.catalog.Discover(ctx); err != nil {
		return err
	}
	if _, err := a.selector.AutoSelect(); err != nil {
		a.log.Warn().
			Str("preference", string(a.selector.Preference())).
			Msg("configured preference unsatisfiable on this host, falling back to auto")
		if _, err := a.selector.SetPreference(types.PreferenceAuto); err != nil {
			return err
		}
	}
	if err := a.units.Restore(); err != nil {
		return err
	}
	a.ready.Store(true)
	a.log.Info().
		Int("devices", a.catalog.Count()).
		Int("models", a.units.Count()).
		Msg("daemon ready")
	return nil
}

// Shutdown drains training jobs, bounded by ctx.
func (a *App) Shutdown(ctx context.Context) error {
	a.ready.Store(false)
	return a.coordinator.Shutdown(ctx)
}

// RunUtilizationRefresher periodically re-reads the volatile fields of
// the selected device until ctx ends. Probes without live readings are
// skipped quietly.
func (a *App) RunUtilizationRefresher(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			id := a.catalog.SelectedID()
			if id == "" {
				continue
			}
			if _, err := a.catalog.RefreshUtilization(ctx, id); err != nil && !errors.Is(err, device.ErrNotSupported) {
				a.log.Debug().Str("device", id).Err(err).Msg("utilization refresh failed")
			}
		}
	}
}

// Ready reports whether startup has completed.
func (a *App) Ready() bool { return a.ready.Load() }

// Info describes the daemon for GET /.
func (a *App) Info() types.ServerInfo {
	return types.ServerInfo{
		Name:      "traind",
		Version:   Version,
		Status:    "running",
		Docs:      "/swagger/index.html",
		Health:    "/api/v1/health",
		WebSocket: "/ws",
	}
}

// Health is the basic liveness view.
func (a *App) Health() types.HealthResponse {
	return types.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       Version,
		UptimeSeconds: time.Since(a.startedAt).Seconds(),
	}
}

// DetailedHealth adds host gauges and subsystem counts.
func (a *App) DetailedHealth(ctx context.Context) (types.DetailedHealthResponse, error) {
	resp := types.DetailedHealthResponse{
		HealthResponse: a.Health(),
		ActiveJobs:     a.coordinator.ActiveCount(),
		DeviceCount:    a.catalog.Count(),
		UnitCount:      a.units.Count(),
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		resp.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.MemoryPercent = vm.UsedPercent
	}
	return resp, nil
}

// Devices returns the current catalog snapshot.
func (a *App) Devices() types.DeviceListResponse {
	devices := a.catalog.Devices()
	return types.DeviceListResponse{
		Devices:         devices,
		CurrentDeviceID: a.catalog.SelectedID(),
		Total:           len(devices),
	}
}

// Device returns one catalog entry by id.
func (a *App) Device(id string) (types.Device, error) {
	return a.catalog.Get(id)
}

// DeviceSettings returns the combined selection view.
func (a *App) DeviceSettings() types.DeviceSettings {
	return a.selector.Settings()
}

// DevicePreferences lists every preference with its availability.
func (a *App) DevicePreferences() []types.PreferenceInfo {
	return a.selector.Preferences()
}

// SetDevicePreference applies a preference and re-selects.
func (a *App) SetDevicePreference(pref types.DevicePreference) (types.Device, error) {
	return a.selector.SetPreference(pref)
}

// SelectDevice selects a specific device by id.
func (a *App) SelectDevice(id string) (types.Device, error) {
	return a.selector.Select(id)
}

// RefreshDevices re-runs discovery. When the previously selected device
// did not survive the refresh, the active preference re-selects; a
// preference the new catalog cannot satisfy degrades to auto.
func (a *App) RefreshDevices(ctx context.Context) (types.DeviceListResponse, error) {
	kept, err := a.catalog.Refresh(ctx)
	if err != nil {
		return types.DeviceListResponse{}, err
	}
	if !kept {
		if _, err := a.selector.Reselect(); err != nil {
			a.log.Warn().
				Str("preference", string(a.selector.Preference())).
				Msg("preference unsatisfiable after refresh, falling back to auto")
			if _, err := a.selector.SetPreference(types.PreferenceAuto); err != nil {
				return types.DeviceListResponse{}, err
			}
		}
	}
	return a.Devices(), nil
}

// BenchmarkDevice measures matmul throughput. An empty id targets the
// selected device.
func (a *App) BenchmarkDevice(ctx context.Context, id string, sizes []int, iters int) (types.BenchmarkResult, error) {
	if id == "" {
		id = a.selectedOrCPU()
	}
	return a.catalog.Benchmark(ctx, id, sizes, iters)
}

// ClearDeviceMemory releases engine scratch memory. An empty id targets
// the selected device.
func (a *App) ClearDeviceMemory(id string) (types.MemoryClearResult, error) {
	if id == "" {
		id = a.selectedOrCPU()
	}
	return a.catalog.ClearMemory(id)
}

// CreateModel builds and registers a trainable unit.
func (a *App) CreateModel(req types.CreateUnitRequest) (types.TrainableUnit, error) {
	return a.units.Create(req)
}

// Model returns a unit's metadata.
func (a *App) Model(id string) (types.TrainableUnit, error) {
	return a.units.Get(id)
}

// Models pages through units.
func (a *App) Models(skip, limit int, unitType types.UnitType) types.UnitListResponse {
	return a.units.List(skip, limit, unitType)
}

// UpdateModel applies a partial update.
func (a *App) UpdateModel(id string, req types.UpdateUnitRequest) (types.TrainableUnit, error) {
	return a.units.Update(id, req)
}

// DeleteModel removes a unit and its artifacts.
func (a *App) DeleteModel(id string) error {
	return a.units.Delete(id)
}

// ExportModel writes an export artifact.
func (a *App) ExportModel(id string, format types.ExportFormat) (types.ExportResult, error) {
	return a.units.Export(id, format)
}

// Builders lists the compiled-in builder set.
func (a *App) Builders() []types.BuilderInfo {
	return a.builders.List()
}

// Builder returns one builder descriptor by id.
func (a *App) Builder(id string) (types.BuilderInfo, error) {
	b, err := a.builders.Get(types.UnitType(id))
	if err != nil {
		return types.BuilderInfo{}, err
	}
	return b.Info(), nil
}

// StartTraining accepts a training job.
func (a *App) StartTraining(req types.StartTrainingRequest) (types.StartTrainingResponse, error) {
	return a.coordinator.Start(req)
}

// TrainingJob returns a job's full status view.
func (a *App) TrainingJob(id string) (types.Job, error) {
	return a.coordinator.Get(id)
}

// TrainingJobs lists jobs, optionally filtered by state.
func (a *App) TrainingJobs(status types.JobState) types.JobListResponse {
	return a.coordinator.List(status)
}

// StopTraining requests a lenient stop.
func (a *App) StopTraining(id string) (types.Job, error) {
	return a.coordinator.Stop(id)
}

// PauseTraining requests a lenient epoch-boundary pause.
func (a *App) PauseTraining(id string) (types.Job, error) {
	return a.coordinator.Pause(id)
}

// ResumeTraining releases a paused job.
func (a *App) ResumeTraining(id string) (types.Job, error) {
	return a.coordinator.Resume(id)
}

// TrainingMetrics returns the compact polling view.
func (a *App) TrainingMetrics(id string) (types.MetricsSnapshot, error) {
	return a.coordinator.Metrics(id)
}

// Subscribe attaches a sink to a job's progress stream.
func (a *App) Subscribe(trainingID string, sink training.Sink) {
	a.broadcaster.Subscribe(trainingID, sink)
}

// Unsubscribe detaches a sink.
func (a *App) Unsubscribe(trainingID string, sink training.Sink) {
	a.broadcaster.Unsubscribe(trainingID, sink)
}

func (a *App) selectedOrCPU() string {
	if id := a.catalog.SelectedID(); id != "" {
		return id
	}
	return "cpu:0"
}
