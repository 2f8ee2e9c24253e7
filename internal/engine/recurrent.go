package engine

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Recurrent is a tanh recurrence over a fixed-length sequence. Inputs arrive
// flattened as (batch, seqLen*inSize); the layer emits either the full hidden
// sequence (for stacking) or only the final hidden state (for a dense head).
type Recurrent struct {
	inSize, hidden, seqLen int
	returnSeq              bool
	wxh, whh, bh           *Param

	// forward caches, one entry per step
	xs []*mat.Dense
	hs []*mat.Dense // hs[0] is the zero initial state, hs[t] is after step t
}

// NewRecurrent builds one recurrence level.
func NewRecurrent(inSize, hidden, seqLen int, returnSeq bool, rng *rand.Rand) *Recurrent {
	r := &Recurrent{
		inSize:    inSize,
		hidden:    hidden,
		seqLen:    seqLen,
		returnSeq: returnSeq,
		wxh:       newParam("w_xh", inSize, hidden),
		whh:       newParam("w_hh", hidden, hidden),
		bh:        newParam("b_h", 1, hidden),
	}
	initNormal(r.wxh.W, math.Sqrt(1.0/float64(inSize)), rng)
	initNormal(r.whh.W, math.Sqrt(1.0/float64(hidden)), rng)
	return r
}

func (r *Recurrent) Params() []*Param { return []*Param{r.wxh, r.whh, r.bh} }

func (r *Recurrent) Forward(x *mat.Dense, train bool) *mat.Dense {
	checkCols("recurrent", x, r.seqLen*r.inSize)
	rows, _ := x.Dims()

	r.xs = make([]*mat.Dense, r.seqLen)
	r.hs = make([]*mat.Dense, r.seqLen+1)
	r.hs[0] = mat.NewDense(rows, r.hidden, nil)

	brow := r.bh.W.RawRowView(0)
	for t := 0; t < r.seqLen; t++ {
		xt := sliceCols(x, t*r.inSize, (t+1)*r.inSize)
		r.xs[t] = xt

		z := mat.NewDense(rows, r.hidden, nil)
		z.Mul(xt, r.wxh.W)
		var rec mat.Dense
		rec.Mul(r.hs[t], r.whh.W)
		z.Add(z, &rec)
		z.Apply(func(_, j int, v float64) float64 { return math.Tanh(v + brow[j]) }, z)
		r.hs[t+1] = z
	}

	if !r.returnSeq {
		out := mat.NewDense(rows, r.hidden, nil)
		out.Copy(r.hs[r.seqLen])
		return out
	}
	out := mat.NewDense(rows, r.seqLen*r.hidden, nil)
	for t := 0; t < r.seqLen; t++ {
		setCols(out, t*r.hidden, r.hs[t+1])
	}
	return out
}

func (r *Recurrent) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	dx := mat.NewDense(rows, r.seqLen*r.inSize, nil)
	dhNext := mat.NewDense(rows, r.hidden, nil)
	dbh := r.bh.Grad.RawRowView(0)

	for t := r.seqLen - 1; t >= 0; t-- {
		dtotal := mat.NewDense(rows, r.hidden, nil)
		if r.returnSeq {
			dtotal.Copy(sliceCols(grad, t*r.hidden, (t+1)*r.hidden))
		} else if t == r.seqLen-1 {
			dtotal.Copy(grad)
		}
		dtotal.Add(dtotal, dhNext)

		// through tanh: dz = dtotal * (1 - h^2)
		h := r.hs[t+1]
		dz := mat.NewDense(rows, r.hidden, nil)
		dz.Apply(func(i, j int, v float64) float64 {
			hv := h.At(i, j)
			return v * (1 - hv*hv)
		}, dtotal)

		var dwxh, dwhh mat.Dense
		dwxh.Mul(r.xs[t].T(), dz)
		r.wxh.Grad.Add(r.wxh.Grad, &dwxh)
		dwhh.Mul(r.hs[t].T(), dz)
		r.whh.Grad.Add(r.whh.Grad, &dwhh)
		for i := 0; i < rows; i++ {
			row := dz.RawRowView(i)
			for j, v := range row {
				dbh[j] += v
			}
		}

		var dxt mat.Dense
		dxt.Mul(dz, r.wxh.W.T())
		setCols(dx, t*r.inSize, &dxt)

		dhNext.Mul(dz, r.whh.W.T())
	}
	return dx
}

func initNormal(m *mat.Dense, scale float64, rng *rand.Rand) {
	raw := m.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64() * scale
	}
}

// sliceCols copies columns [from, to) into a fresh matrix.
func sliceCols(x *mat.Dense, from, to int) *mat.Dense {
	rows, _ := x.Dims()
	out := mat.NewDense(rows, to-from, nil)
	for i := 0; i < rows; i++ {
		copy(out.RawRowView(i), x.RawRowView(i)[from:to])
	}
	return out
}

// setCols writes src into dst starting at column offset.
func setCols(dst *mat.Dense, offset int, src *mat.Dense) {
	rows, cols := src.Dims()
	for i := 0; i < rows; i++ {
		copy(dst.RawRowView(i)[offset:offset+cols], src.RawRowView(i))
	}
}

