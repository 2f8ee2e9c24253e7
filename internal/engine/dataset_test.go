package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traind/pkg/types"
)

func TestSyntheticDeterministic(t *testing.T) {
	cfg := types.DatasetConfig{NumSamples: 50, NumClasses: 4, Seed: 42}
	a := NewSynthetic(cfg, []int{8})
	b := NewSynthetic(cfg, []int{8})
	ax, al := a.Batch(0, 10)
	bx, bl := b.Batch(0, 10)
	assert.Equal(t, al, bl)
	assert.Equal(t, ax.RawRowView(0), bx.RawRowView(0))
}

func TestSyntheticShapes(t *testing.T) {
	ds := NewSynthetic(types.DatasetConfig{NumSamples: 33, NumClasses: 5, Seed: 1}, []int{2, 3})
	assert.Equal(t, 33, ds.Len())
	assert.Equal(t, 5, ds.Classes())
	assert.Equal(t, 2, ds.NumBatches(32))
	x, labels := ds.Batch(1, 32)
	r, c := x.Dims()
	assert.Equal(t, 1, r, "final short batch")
	assert.Equal(t, 6, c)
	assert.Len(t, labels, 1)
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 5)
	}
}

func TestSyntheticSplit(t *testing.T) {
	ds := NewSynthetic(types.DatasetConfig{NumSamples: 100, NumClasses: 3, Seed: 2}, []int{4})
	train, val := ds.Split(0.2)
	require.NotNil(t, val)
	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, val.Len())

	whole, none := ds.Split(0)
	assert.Nil(t, none)
	assert.Equal(t, 100, whole.Len())
}

func TestSyntheticShuffleKeepsPairs(t *testing.T) {
	ds := NewSynthetic(types.DatasetConfig{NumSamples: 40, NumClasses: 2, Seed: 3}, []int{4})
	x0, l0 := ds.All()
	// map first-feature -> label before shuffling
	byKey := map[float64]int{}
	for i := 0; i < ds.Len(); i++ {
		byKey[x0.At(i, 0)] = l0[i]
	}
	ds.Shuffle()
	for b := 0; b < ds.NumBatches(7); b++ {
		bx, bl := ds.Batch(b, 7)
		rows, _ := bx.Dims()
		for i := 0; i < rows; i++ {
			assert.Equal(t, byKey[bx.At(i, 0)], bl[i], "shuffle must keep samples aligned with labels")
		}
	}
}

func TestMatMulGFLOPS(t *testing.T) {
	g, err := MatMulGFLOPS(context.Background(), 64, 2)
	require.NoError(t, err)
	assert.Greater(t, g, 0.0)
}

func TestMatMulGFLOPSCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MatMulGFLOPS(ctx, 64, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
