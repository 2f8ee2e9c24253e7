package engine

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"traind/pkg/types"
)

// SyntheticDataset is a seeded classification dataset. Features are gaussian;
// labels come from a fixed random linear teacher so that training has signal,
// with a configurable fraction flipped to random classes as noise.
type SyntheticDataset struct {
	x       *mat.Dense
	labels  []int
	classes int
	perm    []int
	rng     *rand.Rand
}

// NewSynthetic generates a dataset shaped for the given per-sample input
// shape. cfg is expected to be normalized by the caller; hard minimums are
// still enforced here.
func NewSynthetic(cfg types.DatasetConfig, inputShape []int) *SyntheticDataset {
	features := 1
	for _, d := range inputShape {
		features *= d
	}
	n := cfg.NumSamples
	if n < 2 {
		n = 2
	}
	classes := cfg.NumClasses
	if classes < 2 {
		classes = 2
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	proj := mat.NewDense(features, classes, nil)
	initNormal(proj, 1, rng)

	x := mat.NewDense(n, features, nil)
	initNormal(x, 1, rng)

	var scores mat.Dense
	scores.Mul(x, proj)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		row := scores.RawRowView(i)
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		labels[i] = best
		if cfg.Noise > 0 && rng.Float64() < cfg.Noise {
			labels[i] = rng.Intn(classes)
		}
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return &SyntheticDataset{x: x, labels: labels, classes: classes, perm: perm, rng: rng}
}

// Len returns the number of samples.
func (d *SyntheticDataset) Len() int { return len(d.labels) }

// Classes returns the number of label classes.
func (d *SyntheticDataset) Classes() int { return d.classes }

// Shuffle permutes the visiting order for the next epoch.
func (d *SyntheticDataset) Shuffle() {
	d.rng.Shuffle(len(d.perm), func(i, j int) {
		d.perm[i], d.perm[j] = d.perm[j], d.perm[i]
	})
}

// NumBatches reports how many batches one epoch visits; a short final batch
// counts.
func (d *SyntheticDataset) NumBatches(batchSize int) int {
	if batchSize <= 0 {
		batchSize = 1
	}
	return (d.Len() + batchSize - 1) / batchSize
}

// Batch materializes batch idx under the current permutation.
func (d *SyntheticDataset) Batch(idx, batchSize int) (*mat.Dense, []int) {
	if batchSize <= 0 {
		batchSize = 1
	}
	from := idx * batchSize
	to := from + batchSize
	if to > d.Len() {
		to = d.Len()
	}
	_, features := d.x.Dims()
	x := mat.NewDense(to-from, features, nil)
	labels := make([]int, to-from)
	for i := from; i < to; i++ {
		src := d.perm[i]
		copy(x.RawRowView(i-from), d.x.RawRowView(src))
		labels[i-from] = d.labels[src]
	}
	return x, labels
}

// Split carves the last fraction of samples into a held-out set. The split
// is taken before any shuffling so it is stable across epochs.
func (d *SyntheticDataset) Split(frac float64) (*SyntheticDataset, *SyntheticDataset) {
	if frac <= 0 || frac >= 1 {
		return d, nil
	}
	hold := int(float64(d.Len()) * frac)
	if hold < 1 {
		hold = 1
	}
	cut := d.Len() - hold
	if cut < 1 {
		cut = 1
		hold = d.Len() - 1
	}
	return d.subset(0, cut), d.subset(cut, d.Len())
}

func (d *SyntheticDataset) subset(from, to int) *SyntheticDataset {
	_, features := d.x.Dims()
	x := mat.NewDense(to-from, features, nil)
	labels := make([]int, to-from)
	for i := from; i < to; i++ {
		copy(x.RawRowView(i-from), d.x.RawRowView(i))
		labels[i-from] = d.labels[i]
	}
	perm := make([]int, to-from)
	for i := range perm {
		perm[i] = i
	}
	return &SyntheticDataset{x: x, labels: labels, classes: d.classes, perm: perm, rng: d.rng}
}

// All returns the full dataset as one batch, in stored order.
func (d *SyntheticDataset) All() (*mat.Dense, []int) {
	_, features := d.x.Dims()
	x := mat.NewDense(d.Len(), features, nil)
	x.Copy(d.x)
	labels := append([]int(nil), d.labels...)
	return x, labels
}
