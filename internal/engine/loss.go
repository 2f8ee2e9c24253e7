package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss names accepted by NewLoss.
const (
	LossCrossEntropy = "cross_entropy"
	LossMSE          = "mse"
)

// Loss computes a scalar loss and the gradient with respect to the logits.
type Loss interface {
	Compute(logits *mat.Dense, labels []int) (float64, *mat.Dense)
}

// NewLoss resolves a loss by name; unknown names fall back to cross-entropy.
func NewLoss(name string) Loss {
	switch name {
	case LossMSE:
		return mseLoss{}
	default:
		return crossEntropyLoss{}
	}
}

// crossEntropyLoss is softmax cross-entropy over class logits.
type crossEntropyLoss struct{}

func (crossEntropyLoss) Compute(logits *mat.Dense, labels []int) (float64, *mat.Dense) {
	rows, cols := logits.Dims()
	grad := mat.NewDense(rows, cols, nil)
	total := 0.0
	for i := 0; i < rows; i++ {
		row := logits.RawRowView(i)
		g := grad.RawRowView(i)

		// stable softmax
		maxv := row[0]
		for _, v := range row[1:] {
			if v > maxv {
				maxv = v
			}
		}
		sum := 0.0
		for j, v := range row {
			e := math.Exp(v - maxv)
			g[j] = e
			sum += e
		}
		label := labels[i]
		p := g[label] / sum
		total += -math.Log(math.Max(p, 1e-12))
		for j := range g {
			g[j] /= sum
		}
		g[label] -= 1
		for j := range g {
			g[j] /= float64(rows)
		}
	}
	return total / float64(rows), grad
}

// mseLoss treats labels as one-hot targets.
type mseLoss struct{}

func (mseLoss) Compute(logits *mat.Dense, labels []int) (float64, *mat.Dense) {
	rows, cols := logits.Dims()
	grad := mat.NewDense(rows, cols, nil)
	total := 0.0
	n := float64(rows * cols)
	for i := 0; i < rows; i++ {
		row := logits.RawRowView(i)
		g := grad.RawRowView(i)
		for j, v := range row {
			target := 0.0
			if j == labels[i] {
				target = 1.0
			}
			diff := v - target
			total += diff * diff
			g[j] = 2 * diff / n
		}
	}
	return total / n, grad
}

// Accuracy is the fraction of rows whose argmax matches the label.
func Accuracy(logits *mat.Dense, labels []int) float64 {
	rows, _ := logits.Dims()
	if rows == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < rows; i++ {
		row := logits.RawRowView(i)
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		if best == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}
