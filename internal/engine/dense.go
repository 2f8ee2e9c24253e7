package engine

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Activation names accepted by dense layers.
const (
	ActReLU    = "relu"
	ActTanh    = "tanh"
	ActSigmoid = "sigmoid"
	ActNone    = "none"
)

// Dense is a fully connected layer: y = act(x*W + b), with optional
// inverted dropout after the activation.
type Dense struct {
	in, out int
	act     string
	dropout float64
	w, b    *Param
	rng     *rand.Rand

	// forward caches
	x, z, y *mat.Dense
	mask    *mat.Dense
}

// NewDense builds a dense layer with He-style initialization.
func NewDense(in, out int, act string, dropout float64, rng *rand.Rand) *Dense {
	d := &Dense{
		in:      in,
		out:     out,
		act:     act,
		dropout: dropout,
		w:       newParam("w", in, out),
		b:       newParam("b", 1, out),
		rng:     rng,
	}
	scale := math.Sqrt(2.0 / float64(in))
	raw := d.w.W.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64() * scale
	}
	return d
}

func (d *Dense) Params() []*Param { return []*Param{d.w, d.b} }

// OutSize reports the layer's output width.
func (d *Dense) OutSize() int { return d.out }

func (d *Dense) Forward(x *mat.Dense, train bool) *mat.Dense {
	checkCols("dense", x, d.in)
	rows, _ := x.Dims()
	d.x = x

	z := mat.NewDense(rows, d.out, nil)
	z.Mul(x, d.w.W)
	brow := d.b.W.RawRowView(0)
	z.Apply(func(_, j int, v float64) float64 { return v + brow[j] }, z)
	d.z = z

	y := mat.NewDense(rows, d.out, nil)
	y.Apply(func(_, _ int, v float64) float64 { return activate(d.act, v) }, z)

	d.mask = nil
	if train && d.dropout > 0 {
		keep := 1 - d.dropout
		mask := mat.NewDense(rows, d.out, nil)
		mraw := mask.RawMatrix().Data
		for i := range mraw {
			if d.rng.Float64() < keep {
				mraw[i] = 1 / keep
			}
		}
		y.MulElem(y, mask)
		d.mask = mask
	}
	d.y = y
	return y
}

func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	dy := grad
	if d.mask != nil {
		scaled := mat.NewDense(rows, d.out, nil)
		scaled.MulElem(grad, d.mask)
		dy = scaled
	}

	// dz = dy * act'(z)
	dz := mat.NewDense(rows, d.out, nil)
	switch d.act {
	case ActReLU:
		dz.Apply(func(i, j int, v float64) float64 {
			if d.z.At(i, j) > 0 {
				return v
			}
			return 0
		}, dy)
	case ActTanh:
		dz.Apply(func(i, j int, v float64) float64 {
			t := math.Tanh(d.z.At(i, j))
			return v * (1 - t*t)
		}, dy)
	case ActSigmoid:
		dz.Apply(func(i, j int, v float64) float64 {
			s := sigmoid(d.z.At(i, j))
			return v * s * (1 - s)
		}, dy)
	default:
		dz.Copy(dy)
	}

	var dw mat.Dense
	dw.Mul(d.x.T(), dz)
	d.w.Grad.Add(d.w.Grad, &dw)

	db := d.b.Grad.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := dz.RawRowView(i)
		for j, v := range row {
			db[j] += v
		}
	}

	dx := mat.NewDense(rows, d.in, nil)
	dx.Mul(dz, d.w.W.T())
	return dx
}

func activate(act string, v float64) float64 {
	switch act {
	case ActReLU:
		return math.Max(0, v)
	case ActTanh:
		return math.Tanh(v)
	case ActSigmoid:
		return sigmoid(v)
	default:
		return v
	}
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
