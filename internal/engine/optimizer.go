package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Optimizer names accepted by NewOptimizer.
const (
	OptSGD     = "sgd"
	OptAdam    = "adam"
	OptRMSProp = "rmsprop"
	OptAdamW   = "adamw"
)

// Optimizer applies one update step from accumulated gradients.
type Optimizer interface {
	Step(params []*Param)
}

// OptimizerConfig carries the tunables shared by all optimizers.
type OptimizerConfig struct {
	LearningRate float64
	Momentum     float64
	WeightDecay  float64
}

// NewOptimizer resolves an optimizer by name; unknown names fall back to adam.
func NewOptimizer(name string, cfg OptimizerConfig) Optimizer {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.001
	}
	switch name {
	case OptSGD:
		if cfg.Momentum == 0 {
			cfg.Momentum = 0.9
		}
		return &sgd{cfg: cfg}
	case OptRMSProp:
		return &rmsprop{cfg: cfg}
	case OptAdamW:
		return &adam{cfg: cfg, decoupledDecay: true}
	default:
		return &adam{cfg: cfg}
	}
}

type sgd struct {
	cfg OptimizerConfig
	vel []*mat.Dense
}

func (o *sgd) Step(params []*Param) {
	if o.vel == nil {
		o.vel = zerosLike(params)
	}
	for i, p := range params {
		v := o.vel[i].RawMatrix().Data
		w := p.W.RawMatrix().Data
		g := p.Grad.RawMatrix().Data
		for j := range w {
			v[j] = o.cfg.Momentum*v[j] - o.cfg.LearningRate*g[j]
			w[j] += v[j]
		}
	}
}

type adam struct {
	cfg            OptimizerConfig
	decoupledDecay bool
	m, v           []*mat.Dense
	t              int
}

func (o *adam) Step(params []*Param) {
	const (
		beta1 = 0.9
		beta2 = 0.999
		eps   = 1e-8
	)
	if o.m == nil {
		o.m = zerosLike(params)
		o.v = zerosLike(params)
	}
	o.t++
	c1 := 1 - math.Pow(beta1, float64(o.t))
	c2 := 1 - math.Pow(beta2, float64(o.t))
	for i, p := range params {
		m := o.m[i].RawMatrix().Data
		v := o.v[i].RawMatrix().Data
		w := p.W.RawMatrix().Data
		g := p.Grad.RawMatrix().Data
		for j := range w {
			m[j] = beta1*m[j] + (1-beta1)*g[j]
			v[j] = beta2*v[j] + (1-beta2)*g[j]*g[j]
			mh := m[j] / c1
			vh := v[j] / c2
			w[j] -= o.cfg.LearningRate * mh / (math.Sqrt(vh) + eps)
			if o.decoupledDecay && o.cfg.WeightDecay > 0 {
				w[j] -= o.cfg.LearningRate * o.cfg.WeightDecay * w[j]
			}
		}
	}
}

type rmsprop struct {
	cfg OptimizerConfig
	sq  []*mat.Dense
}

func (o *rmsprop) Step(params []*Param) {
	const (
		rho = 0.99
		eps = 1e-8
	)
	if o.sq == nil {
		o.sq = zerosLike(params)
	}
	for i, p := range params {
		s := o.sq[i].RawMatrix().Data
		w := p.W.RawMatrix().Data
		g := p.Grad.RawMatrix().Data
		for j := range w {
			s[j] = rho*s[j] + (1-rho)*g[j]*g[j]
			w[j] -= o.cfg.LearningRate * g[j] / (math.Sqrt(s[j]) + eps)
		}
	}
}

func zerosLike(params []*Param) []*mat.Dense {
	out := make([]*mat.Dense, len(params))
	for i, p := range params {
		r, c := p.W.Dims()
		out[i] = mat.NewDense(r, c, nil)
	}
	return out
}

// ClipGradients scales all gradients down so their global L2 norm does not
// exceed maxNorm. Returns the pre-clip norm.
func ClipGradients(params []*Param, maxNorm float64) float64 {
	total := 0.0
	for _, p := range params {
		for _, v := range p.Grad.RawMatrix().Data {
			total += v * v
		}
	}
	norm := math.Sqrt(total)
	if maxNorm > 0 && norm > maxNorm {
		scale := maxNorm / norm
		for _, p := range params {
			g := p.Grad.RawMatrix().Data
			for j := range g {
				g[j] *= scale
			}
		}
	}
	return norm
}
