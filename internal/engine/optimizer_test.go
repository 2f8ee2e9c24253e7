package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// minimizeQuadratic runs steps of dL/dw = 2w and returns the final |w|.
func minimizeQuadratic(opt Optimizer, start float64, steps int) float64 {
	p := &Param{Name: "w", W: mat.NewDense(1, 1, []float64{start}), Grad: mat.NewDense(1, 1, nil)}
	for i := 0; i < steps; i++ {
		p.Grad.Set(0, 0, 2*p.W.At(0, 0))
		opt.Step([]*Param{p})
	}
	return math.Abs(p.W.At(0, 0))
}

func TestOptimizersConverge(t *testing.T) {
	cases := []struct {
		name string
		opt  Optimizer
	}{
		{"sgd", NewOptimizer(OptSGD, OptimizerConfig{LearningRate: 0.05})},
		{"adam", NewOptimizer(OptAdam, OptimizerConfig{LearningRate: 0.05})},
		{"rmsprop", NewOptimizer(OptRMSProp, OptimizerConfig{LearningRate: 0.05})},
		{"adamw", NewOptimizer(OptAdamW, OptimizerConfig{LearningRate: 0.05, WeightDecay: 0.01})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			final := minimizeQuadratic(tc.opt, 3.0, 200)
			assert.Less(t, final, 0.5, "%s should shrink |w| on a quadratic", tc.name)
		})
	}
}

func TestUnknownOptimizerFallsBackToAdam(t *testing.T) {
	opt := NewOptimizer("genetic", OptimizerConfig{LearningRate: 0.05})
	_, isAdam := opt.(*adam)
	assert.True(t, isAdam)
}

func TestSGDDefaultMomentum(t *testing.T) {
	opt := NewOptimizer(OptSGD, OptimizerConfig{LearningRate: 0.1})
	s, ok := opt.(*sgd)
	if assert.True(t, ok) {
		assert.Equal(t, 0.9, s.cfg.Momentum)
	}
}

func TestClipGradients(t *testing.T) {
	p := &Param{Name: "w", W: mat.NewDense(1, 2, nil), Grad: mat.NewDense(1, 2, []float64{3, 4})}
	norm := ClipGradients([]*Param{p}, 1)
	assert.InDelta(t, 5.0, norm, 1e-12)
	assert.InDelta(t, 0.6, p.Grad.At(0, 0), 1e-12)
	assert.InDelta(t, 0.8, p.Grad.At(0, 1), 1e-12)

	// under the limit: untouched
	p2 := &Param{Name: "w", W: mat.NewDense(1, 2, nil), Grad: mat.NewDense(1, 2, []float64{0.3, 0.4})}
	ClipGradients([]*Param{p2}, 1)
	assert.InDelta(t, 0.3, p2.Grad.At(0, 0), 1e-12)
}

func TestCrossEntropyUniformLogits(t *testing.T) {
	logits := mat.NewDense(2, 4, nil)
	loss, grad := NewLoss(LossCrossEntropy).Compute(logits, []int{1, 3})
	assert.InDelta(t, math.Log(4), loss, 1e-12)
	// each row's gradient sums to zero
	for i := 0; i < 2; i++ {
		sum := 0.0
		for _, v := range grad.RawRowView(i) {
			sum += v
		}
		assert.InDelta(t, 0.0, sum, 1e-12)
	}
}

func TestMSELoss(t *testing.T) {
	logits := mat.NewDense(1, 2, []float64{1, 0})
	loss, grad := NewLoss(LossMSE).Compute(logits, []int{0})
	assert.InDelta(t, 0.0, loss, 1e-12)
	assert.InDelta(t, 0.0, grad.At(0, 0), 1e-12)

	logits2 := mat.NewDense(1, 2, []float64{0, 1})
	loss2, _ := NewLoss(LossMSE).Compute(logits2, []int{0})
	assert.InDelta(t, 1.0, loss2, 1e-12)
}

func TestUnknownLossFallsBackToCrossEntropy(t *testing.T) {
	_, isCE := NewLoss("hinge").(crossEntropyLoss)
	assert.True(t, isCE)
}

func TestAccuracy(t *testing.T) {
	logits := mat.NewDense(3, 2, []float64{
		2, 1,
		0, 3,
		1, 0,
	})
	assert.InDelta(t, 1.0, Accuracy(logits, []int{0, 1, 0}), 1e-12)
	assert.InDelta(t, 1.0/3.0, Accuracy(logits, []int{1, 0, 0}), 1e-12)
}
