package registry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traind/internal/builder"
	"traind/internal/store"
	"traind/pkg/types"
)

type fakeBinder struct {
	d  types.Device
	ok bool
}

func (f fakeBinder) Selected() (types.Device, bool) { return f.d, f.ok }

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "units"))
	require.NoError(t, err)
	binder := fakeBinder{d: types.Device{ID: "cuda:0"}, ok: true}
	r := New(zerolog.Nop(), builder.NewRegistry(), st, binder, filepath.Join(dir, "exports"))
	return r, st
}

func smallMLP(name string) types.CreateUnitRequest {
	return types.CreateUnitRequest{
		Name: name,
		Type: types.UnitMLP,
		Architecture: map[string]any{
			"layers":  []any{8, 4, 2},
			"dropout": 0.0,
		},
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	r, st := newTestRegistry(t)

	created, err := r.Create(smallMLP("tiny"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "tiny", created.Name)
	assert.Equal(t, types.UnitMLP, created.Type)
	// 8*4+4 + 4*2+2 = 46
	assert.Equal(t, 46, created.ParameterCount)
	assert.Equal(t, "cuda:0", created.DeviceID)
	assert.Equal(t, types.UnitStatusCreated, created.Status)
	assert.Equal(t, []any{8, 4, 2}, created.Architecture["layers"])

	got, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.ParameterCount, got.ParameterCount)

	// Metadata was persisted.
	var stored types.TrainableUnit
	require.NoError(t, st.Load(created.ID, &stored))
	assert.Equal(t, created.Name, stored.Name)
}

func TestCreateValidation(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Create(types.CreateUnitRequest{Type: types.UnitMLP})
	assert.True(t, IsInvalidRequest(err))

	_, err = r.Create(types.CreateUnitRequest{Name: "x", Type: "transformer"})
	assert.True(t, builder.IsUnsupportedType(err))

	req := smallMLP("bad")
	req.Architecture = map[string]any{"layers": []any{8}}
	_, err = r.Create(req)
	assert.True(t, builder.IsInvalidArchitecture(err))
}

func TestCreateWithoutSelectionBindsCPU(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "units"))
	require.NoError(t, err)
	r := New(zerolog.Nop(), builder.NewRegistry(), st, fakeBinder{}, filepath.Join(dir, "exports"))

	created, err := r.Create(smallMLP("floating"))
	require.NoError(t, err)
	assert.Equal(t, "cpu:0", created.DeviceID)
}

func TestListPagination(t *testing.T) {
	r, _ := newTestRegistry(t)
	a, err := r.Create(smallMLP("a"))
	require.NoError(t, err)
	b, err := r.Create(smallMLP("b"))
	require.NoError(t, err)
	c, err := r.Create(types.CreateUnitRequest{
		Name: "c",
		Type: types.UnitRNN,
		Architecture: map[string]any{
			"input_size": 4, "hidden_size": 6, "num_layers": 1,
			"output_size": 2, "seq_len": 3,
		},
	})
	require.NoError(t, err)

	all := r.List(0, 0, "")
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, DefaultListLimit, all.Limit)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, idsOf(all.Models))

	page := r.List(1, 1, "")
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{b.ID}, idsOf(page.Models))

	mlps := r.List(0, 10, types.UnitMLP)
	assert.Equal(t, 2, mlps.Total)
	assert.Equal(t, []string{a.ID, b.ID}, idsOf(mlps.Models))

	past := r.List(10, 5, "")
	assert.Empty(t, past.Models)
	assert.Equal(t, 3, past.Total)
}

func idsOf(units []types.TrainableUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}

func TestUpdate(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create(smallMLP("before"))
	require.NoError(t, err)
	require.NoError(t, r.SetStatus(created.ID, types.UnitStatusTrained))

	name := "after"
	updated, err := r.Update(created.ID, types.UpdateUnitRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	// A rename alone does not reset training state.
	assert.Equal(t, types.UnitStatusTrained, updated.Status)

	updated, err = r.Update(created.ID, types.UpdateUnitRequest{
		Architecture: map[string]any{"layers": []any{8, 6, 2}, "dropout": 0.0},
	})
	require.NoError(t, err)
	// 8*6+6 + 6*2+2 = 68
	assert.Equal(t, 68, updated.ParameterCount)
	assert.Equal(t, types.UnitStatusCreated, updated.Status)

	_, err = r.Update("missing", types.UpdateUnitRequest{Name: &name})
	assert.True(t, IsNotFound(err))

	empty := ""
	_, err = r.Update(created.ID, types.UpdateUnitRequest{Name: &empty})
	assert.True(t, IsInvalidRequest(err))
}

func TestUpdateWhileTrainingConflicts(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create(smallMLP("busy"))
	require.NoError(t, err)
	require.NoError(t, r.SetStatus(created.ID, types.UnitStatusTraining))

	name := "nope"
	_, err = r.Update(created.ID, types.UpdateUnitRequest{Name: &name})
	assert.True(t, IsConflict(err))
	assert.True(t, IsConflict(r.Delete(created.ID)))
}

func TestDeleteRemovesEverything(t *testing.T) {
	r, st := newTestRegistry(t)
	created, err := r.Create(smallMLP("doomed"))
	require.NoError(t, err)
	res, err := r.Export(created.ID, types.ExportJSON)
	require.NoError(t, err)

	require.NoError(t, r.Delete(created.ID))

	_, err = r.Get(created.ID)
	assert.True(t, IsNotFound(err))

	var stored types.TrainableUnit
	err = st.Load(created.ID, &stored)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = os.Stat(res.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	assert.True(t, IsNotFound(r.Delete(created.ID)))
}

func TestAcquire(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create(smallMLP("live"))
	require.NoError(t, err)

	meta, net, err := r.Acquire(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, meta.ID)
	require.NotNil(t, net)
	assert.Equal(t, created.ParameterCount, net.ParameterCount())

	_, _, err = r.Acquire("missing")
	assert.True(t, IsNotFound(err))
}

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "units"))
	require.NoError(t, err)
	binder := fakeBinder{d: types.Device{ID: "cuda:0"}, ok: true}
	exportDir := filepath.Join(dir, "exports")

	r := New(zerolog.Nop(), builder.NewRegistry(), st, binder, exportDir)
	first, err := r.Create(smallMLP("first"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := r.Create(smallMLP("second"))
	require.NoError(t, err)
	require.NoError(t, r.SetStatus(first.ID, types.UnitStatusTrained))

	// A fresh registry over the same store comes back populated.
	r2 := New(zerolog.Nop(), builder.NewRegistry(), st, binder, exportDir)
	require.NoError(t, r2.Restore())
	assert.Equal(t, 2, r2.Count())

	all := r2.List(0, 10, "")
	assert.Equal(t, []string{first.ID, second.ID}, idsOf(all.Models))

	// Weights are not persisted, so restore resets status.
	got, err := r2.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, types.UnitStatusCreated, got.Status)
	assert.Equal(t, first.ParameterCount, got.ParameterCount)

	_, _, err = r2.Acquire(second.ID)
	require.NoError(t, err)
}
