package engine

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is one learnable tensor with its gradient accumulator.
type Param struct {
	Name string
	W    *mat.Dense
	Grad *mat.Dense
}

func newParam(name string, rows, cols int) *Param {
	return &Param{
		Name: name,
		W:    mat.NewDense(rows, cols, nil),
		Grad: mat.NewDense(rows, cols, nil),
	}
}

// Size returns the number of scalar values in the parameter.
func (p *Param) Size() int {
	r, c := p.W.Dims()
	return r * c
}

// Layer is one differentiable stage of a network. Backward must be called
// after Forward on the same input and accumulates into Params' gradients.
type Layer interface {
	Forward(x *mat.Dense, train bool) *mat.Dense
	Backward(grad *mat.Dense) *mat.Dense
	Params() []*Param
}

// Network is an ordered stack of layers bound to a device.
type Network struct {
	layers     []Layer
	inputShape []int
	deviceID   string
	rng        *rand.Rand
}

// NewNetwork assembles a network. inputShape is the per-sample shape
// ([features], [seqLen, stepSize] or [channels, height, width]); rows stay
// flattened to its product.
func NewNetwork(deviceID string, inputShape []int, seed int64, layers ...Layer) *Network {
	return &Network{
		layers:     layers,
		inputShape: append([]int(nil), inputShape...),
		deviceID:   deviceID,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// DeviceID reports the device the network was bound to at build time.
func (n *Network) DeviceID() string { return n.deviceID }

// SetDeviceID rebinds the network. Advisory only for the reference engine.
func (n *Network) SetDeviceID(id string) { n.deviceID = id }

// InputShape returns the per-sample input shape.
func (n *Network) InputShape() []int { return append([]int(nil), n.inputShape...) }

// InputSize returns the flattened per-sample feature count.
func (n *Network) InputSize() int {
	size := 1
	for _, d := range n.inputShape {
		size *= d
	}
	return size
}

// Forward runs all layers. train enables dropout.
func (n *Network) Forward(x *mat.Dense, train bool) *mat.Dense {
	out := x
	for _, l := range n.layers {
		out = l.Forward(out, train)
	}
	return out
}

// Backward zeroes all gradients, then propagates grad through the stack in
// reverse. Forward must have been called first.
func (n *Network) Backward(grad *mat.Dense) {
	for _, p := range n.Params() {
		p.Grad.Zero()
	}
	g := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		g = n.layers[i].Backward(g)
	}
}

// Params returns all learnable parameters in layer order.
func (n *Network) Params() []*Param {
	var out []*Param
	for _, l := range n.layers {
		out = append(out, l.Params()...)
	}
	return out
}

// ParameterCount is the total number of learnable scalars.
func (n *Network) ParameterCount() int {
	total := 0
	for _, p := range n.Params() {
		total += p.Size()
	}
	return total
}

// DummyInput returns a single random sample matching the input shape, used
// to trace the network for export.
func (n *Network) DummyInput() *mat.Dense {
	size := n.InputSize()
	data := make([]float64, size)
	for i := range data {
		data[i] = n.rng.NormFloat64()
	}
	return mat.NewDense(1, size, data)
}

// WeightSnapshot is the serializable view of one parameter.
type WeightSnapshot struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Snapshot copies every parameter into an export-friendly form.
func (n *Network) Snapshot() []WeightSnapshot {
	params := n.Params()
	out := make([]WeightSnapshot, 0, len(params))
	for _, p := range params {
		r, c := p.W.Dims()
		data := make([]float64, r*c)
		copy(data, p.W.RawMatrix().Data)
		out = append(out, WeightSnapshot{Name: p.Name, Rows: r, Cols: c, Data: data})
	}
	return out
}

// checkCols panics with a descriptive message on a shape mismatch. Layer
// wiring bugs are programmer errors, not runtime conditions.
func checkCols(where string, x *mat.Dense, want int) {
	if _, c := x.Dims(); c != want {
		panic(fmt.Sprintf("%s: got %d input columns, want %d", where, c, want))
	}
}
