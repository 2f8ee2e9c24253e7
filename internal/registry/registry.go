// Package registry owns trainable units: building them through the
// builder set, serving CRUD over them, persisting their metadata and
// writing export artifacts.
package registry

import (
	"errors"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"traind/internal/builder"
	"traind/internal/engine"
	"traind/internal/store"
	"traind/pkg/types"
)

// DeviceBinder names the device new units are built against.
type DeviceBinder interface {
	Selected() (types.Device, bool)
}

// DefaultListLimit caps list pages when the caller does not set one.
const DefaultListLimit = 100

// unit pairs persisted metadata with the live in-memory network.
type unit struct {
	meta types.TrainableUnit
	net  *engine.Network
}

// Registry is the owner of all trainable units. Networks live only in
// memory; metadata survives restarts through the store.
type Registry struct {
	log       zerolog.Logger
	builders  *builder.Registry
	store     *store.Store
	binder    DeviceBinder
	exportDir string

	mu    sync.RWMutex
	units map[string]*unit
	order []string // creation order, the stable listing order
}

// New wires a registry. binder may be nil; units then bind to cpu:0.
func New(log zerolog.Logger, builders *builder.Registry, st *store.Store, binder DeviceBinder, exportDir string) *Registry {
	return &Registry{
		log:       log,
		builders:  builders,
		store:     st,
		binder:    binder,
		exportDir: exportDir,
		units:     make(map[string]*unit),
	}
}

// Create builds a network for the request and registers the unit under
// a fresh id, bound to the currently selected device.
func (r *Registry) Create(req types.CreateUnitRequest) (types.TrainableUnit, error) {
	if req.Name == "" {
		return types.TrainableUnit{}, ErrInvalidRequest("name must not be empty")
	}
	b, err := r.builders.Get(req.Type)
	if err != nil {
		return types.TrainableUnit{}, err
	}
	deviceID := r.currentDeviceID()
	net, norm, err := b.Build(deviceID, req.Architecture, time.Now().UnixNano())
	if err != nil {
		return types.TrainableUnit{}, err
	}

	hp := req.Hyperparameters
	if hp == nil {
		hp = map[string]any{}
	}
	now := time.Now().UTC()
	meta := types.TrainableUnit{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Type:            req.Type,
		Architecture:    norm,
		Hyperparameters: hp,
		ParameterCount:  net.ParameterCount(),
		DeviceID:        deviceID,
		Status:          types.UnitStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Save(meta.ID, meta); err != nil {
		return types.TrainableUnit{}, err
	}
	r.units[meta.ID] = &unit{meta: meta, net: net}
	r.order = append(r.order, meta.ID)
	r.log.Info().
		Str("model", meta.ID).
		Str("type", string(meta.Type)).
		Int("parameters", meta.ParameterCount).
		Str("device", deviceID).
		Msg("model created")
	return meta, nil
}

// Get returns the metadata of the unit with id.
func (r *Registry) Get(id string) (types.TrainableUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[id]
	if !ok {
		return types.TrainableUnit{}, ErrUnitNotFound(id)
	}
	return u.meta, nil
}

// Acquire returns the metadata and the live network of the unit with
// id, for the trainer.
func (r *Registry) Acquire(id string) (types.TrainableUnit, *engine.Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[id]
	if !ok {
		return types.TrainableUnit{}, nil, ErrUnitNotFound(id)
	}
	return u.meta, u.net, nil
}

// List pages through units in creation order, optionally filtered by
// type. Total counts the filtered set, not the page.
func (r *Registry) List(skip, limit int, typeFilter types.UnitType) types.UnitListResponse {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := make([]types.TrainableUnit, 0, len(r.order))
	for _, id := range r.order {
		u := r.units[id]
		if typeFilter != "" && u.meta.Type != typeFilter {
			continue
		}
		filtered = append(filtered, u.meta)
	}
	total := len(filtered)
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return types.UnitListResponse{
		Models: filtered[skip:end],
		Total:  total,
		Skip:   skip,
		Limit:  limit,
	}
}

// Count returns the number of registered units.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// Update applies the non-nil request fields. A new architecture
// rebuilds the network, resets status to created and invalidates the
// previous weights. Units currently training cannot be updated.
func (r *Registry) Update(id string, req types.UpdateUnitRequest) (types.TrainableUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return types.TrainableUnit{}, ErrUnitNotFound(id)
	}
	if u.meta.Status == types.UnitStatusTraining {
		return types.TrainableUnit{}, ErrConflict("model is training: " + id)
	}
	if req.Name != nil && *req.Name == "" {
		return types.TrainableUnit{}, ErrInvalidRequest("name must not be empty")
	}

	meta := u.meta
	net := u.net
	if req.Architecture != nil {
		b, err := r.builders.Get(meta.Type)
		if err != nil {
			return types.TrainableUnit{}, err
		}
		rebuilt, norm, err := b.Build(meta.DeviceID, req.Architecture, time.Now().UnixNano())
		if err != nil {
			return types.TrainableUnit{}, err
		}
		net = rebuilt
		meta.Architecture = norm
		meta.ParameterCount = rebuilt.ParameterCount()
		meta.Status = types.UnitStatusCreated
	}
	if req.Name != nil {
		meta.Name = *req.Name
	}
	if req.Hyperparameters != nil {
		meta.Hyperparameters = req.Hyperparameters
	}
	meta.UpdatedAt = time.Now().UTC()

	if err := r.store.Save(meta.ID, meta); err != nil {
		return types.TrainableUnit{}, err
	}
	u.meta = meta
	u.net = net
	r.log.Info().Str("model", id).Msg("model updated")
	return meta, nil
}

// Delete removes the unit, its stored metadata and any export
// artifacts. Absent files are not errors; a unit currently training
// cannot be deleted out from under its job.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return ErrUnitNotFound(id)
	}
	if u.meta.Status == types.UnitStatusTraining {
		return ErrConflict("model is training: " + id)
	}
	if err := r.store.Delete(id); err != nil {
		return err
	}
	r.removeArtifacts(id)
	delete(r.units, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Info().Str("model", id).Msg("model deleted")
	return nil
}

// SetStatus transitions the unit's lifecycle tag and persists it.
func (r *Registry) SetStatus(id string, status types.UnitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return ErrUnitNotFound(id)
	}
	u.meta.Status = status
	u.meta.UpdatedAt = time.Now().UTC()
	return r.store.Save(id, u.meta)
}

// Restore rebuilds units from stored metadata at startup. Weights are
// not persisted, so restored units come back freshly initialized with
// status created.
func (r *Registry) Restore() error {
	ids, err := r.store.IDs()
	if err != nil {
		return err
	}
	var restored []*unit
	for _, id := range ids {
		var meta types.TrainableUnit
		if err := r.store.Load(id, &meta); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			r.log.Warn().Str("model", id).Err(err).Msg("skipping undecodable model document")
			continue
		}
		b, err := r.builders.Get(meta.Type)
		if err != nil {
			r.log.Warn().Str("model", id).Str("type", string(meta.Type)).Msg("skipping model with unknown type")
			continue
		}
		net, norm, err := b.Build(meta.DeviceID, meta.Architecture, time.Now().UnixNano())
		if err != nil {
			r.log.Warn().Str("model", id).Err(err).Msg("skipping model with unbuildable architecture")
			continue
		}
		meta.Architecture = norm
		meta.Status = types.UnitStatusCreated
		meta.ParameterCount = net.ParameterCount()
		restored = append(restored, &unit{meta: meta, net: net})
	}
	// Directory order is lexical; listing order should follow creation.
	sort.Slice(restored, func(i, j int) bool {
		return restored[i].meta.CreatedAt.Before(restored[j].meta.CreatedAt)
	})

	r.mu.Lock()
	for _, u := range restored {
		r.units[u.meta.ID] = u
		r.order = append(r.order, u.meta.ID)
	}
	r.mu.Unlock()
	if len(restored) > 0 {
		r.log.Info().Int("models", len(restored)).Msg("models restored from disk")
	}
	return nil
}

func (r *Registry) currentDeviceID() string {
	if r.binder != nil {
		if d, ok := r.binder.Selected(); ok {
			return d.ID
		}
	}
	return "cpu:0"
}
