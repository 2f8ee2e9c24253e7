package engine

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Conv2D is a same-padded, stride-1 convolution with a fused ReLU, computed
// per sample via im2col. Rows are flattened (channels, height, width) volumes.
type Conv2D struct {
	inC, outC, k, h, w int
	wp, bp             *Param

	// forward caches
	cols []*mat.Dense // per-sample im2col matrices
	pre  *mat.Dense   // pre-activation output, batch x outC*h*w
}

// NewConv2D builds a conv layer for inC x h x w inputs with outC filters of
// size k x k.
func NewConv2D(inC, outC, k, h, w int, rng *rand.Rand) *Conv2D {
	c := &Conv2D{
		inC:  inC,
		outC: outC,
		k:    k,
		h:    h,
		w:    w,
		wp:   newParam("w", outC, inC*k*k),
		bp:   newParam("b", 1, outC),
	}
	initNormal(c.wp.W, math.Sqrt(2.0/float64(inC*k*k)), rng)
	return c
}

func (c *Conv2D) Params() []*Param { return []*Param{c.wp, c.bp} }

// OutSize reports the flattened output width (outC * h * w).
func (c *Conv2D) OutSize() int { return c.outC * c.h * c.w }

func (c *Conv2D) Forward(x *mat.Dense, train bool) *mat.Dense {
	checkCols("conv2d", x, c.inC*c.h*c.w)
	rows, _ := x.Dims()
	area := c.h * c.w

	c.cols = make([]*mat.Dense, rows)
	c.pre = mat.NewDense(rows, c.outC*area, nil)
	out := mat.NewDense(rows, c.outC*area, nil)
	bias := c.bp.W.RawRowView(0)

	for s := 0; s < rows; s++ {
		col := c.im2col(x.RawRowView(s))
		c.cols[s] = col

		var y mat.Dense // outC x area
		y.Mul(c.wp.W, col)

		preRow := c.pre.RawRowView(s)
		outRow := out.RawRowView(s)
		for oc := 0; oc < c.outC; oc++ {
			yr := y.RawRowView(oc)
			base := oc * area
			for i, v := range yr {
				v += bias[oc]
				preRow[base+i] = v
				outRow[base+i] = math.Max(0, v)
			}
		}
	}
	return out
}

func (c *Conv2D) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	area := c.h * c.w
	dx := mat.NewDense(rows, c.inC*c.h*c.w, nil)
	dbias := c.bp.Grad.RawRowView(0)

	for s := 0; s < rows; s++ {
		// ReLU gate, reshaped to outC x area
		gradRow := grad.RawRowView(s)
		preRow := c.pre.RawRowView(s)
		dy := mat.NewDense(c.outC, area, nil)
		for oc := 0; oc < c.outC; oc++ {
			dr := dy.RawRowView(oc)
			base := oc * area
			for i := range dr {
				if preRow[base+i] > 0 {
					dr[i] = gradRow[base+i]
					dbias[oc] += dr[i]
				}
			}
		}

		var dw mat.Dense
		dw.Mul(dy, c.cols[s].T())
		c.wp.Grad.Add(c.wp.Grad, &dw)

		var dcol mat.Dense
		dcol.Mul(c.wp.W.T(), dy)
		c.col2im(&dcol, dx.RawRowView(s))
	}
	return dx
}

// im2col unrolls one flattened sample into an (inC*k*k) x (h*w) patch matrix
// with zero padding of k/2 on each side.
func (c *Conv2D) im2col(sample []float64) *mat.Dense {
	pad := c.k / 2
	col := mat.NewDense(c.inC*c.k*c.k, c.h*c.w, nil)
	for ch := 0; ch < c.inC; ch++ {
		chBase := ch * c.h * c.w
		for ky := 0; ky < c.k; ky++ {
			for kx := 0; kx < c.k; kx++ {
				row := col.RawRowView((ch*c.k+ky)*c.k + kx)
				for y := 0; y < c.h; y++ {
					sy := y + ky - pad
					if sy < 0 || sy >= c.h {
						continue
					}
					for x := 0; x < c.w; x++ {
						sx := x + kx - pad
						if sx < 0 || sx >= c.w {
							continue
						}
						row[y*c.w+x] = sample[chBase+sy*c.w+sx]
					}
				}
			}
		}
	}
	return col
}

// col2im scatters patch gradients back onto the (already zeroed) input row.
func (c *Conv2D) col2im(dcol *mat.Dense, dst []float64) {
	pad := c.k / 2
	for ch := 0; ch < c.inC; ch++ {
		chBase := ch * c.h * c.w
		for ky := 0; ky < c.k; ky++ {
			for kx := 0; kx < c.k; kx++ {
				row := dcol.RawRowView((ch*c.k+ky)*c.k + kx)
				for y := 0; y < c.h; y++ {
					sy := y + ky - pad
					if sy < 0 || sy >= c.h {
						continue
					}
					for x := 0; x < c.w; x++ {
						sx := x + kx - pad
						if sx < 0 || sx >= c.w {
							continue
						}
						dst[chBase+sy*c.w+sx] += row[y*c.w+x]
					}
				}
			}
		}
	}
}

// MaxPool2D is a 2x2, stride-2 max pool over flattened (c, h, w) rows.
// h and w must be even.
type MaxPool2D struct {
	c, h, w int
	argmax  [][]int // per sample: output position -> winning input index
}

func NewMaxPool2D(c, h, w int) *MaxPool2D {
	return &MaxPool2D{c: c, h: h, w: w}
}

func (p *MaxPool2D) Params() []*Param { return nil }

// OutSize reports the flattened output width (c * h/2 * w/2).
func (p *MaxPool2D) OutSize() int { return p.c * (p.h / 2) * (p.w / 2) }

func (p *MaxPool2D) Forward(x *mat.Dense, train bool) *mat.Dense {
	checkCols("maxpool2d", x, p.c*p.h*p.w)
	rows, _ := x.Dims()
	oh, ow := p.h/2, p.w/2
	out := mat.NewDense(rows, p.c*oh*ow, nil)
	p.argmax = make([][]int, rows)

	for s := 0; s < rows; s++ {
		in := x.RawRowView(s)
		o := out.RawRowView(s)
		arg := make([]int, p.c*oh*ow)
		for ch := 0; ch < p.c; ch++ {
			chBase := ch * p.h * p.w
			outBase := ch * oh * ow
			for y := 0; y < oh; y++ {
				for xcol := 0; xcol < ow; xcol++ {
					best := math.Inf(-1)
					bestIdx := 0
					for dy := 0; dy < 2; dy++ {
						for dxp := 0; dxp < 2; dxp++ {
							idx := chBase + (2*y+dy)*p.w + 2*xcol + dxp
							if in[idx] > best {
								best = in[idx]
								bestIdx = idx
							}
						}
					}
					o[outBase+y*ow+xcol] = best
					arg[outBase+y*ow+xcol] = bestIdx
				}
			}
		}
		p.argmax[s] = arg
	}
	return out
}

func (p *MaxPool2D) Backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	dx := mat.NewDense(rows, p.c*p.h*p.w, nil)
	for s := 0; s < rows; s++ {
		g := grad.RawRowView(s)
		d := dx.RawRowView(s)
		for outIdx, inIdx := range p.argmax[s] {
			d[inIdx] += g[outIdx]
		}
	}
	return dx
}
