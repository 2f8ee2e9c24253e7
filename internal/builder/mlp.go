package builder

import (
	"fmt"
	"math/rand"

	"traind/internal/engine"
	"traind/pkg/types"
)

type mlpBuilder struct{}

func (b *mlpBuilder) Info() types.BuilderInfo {
	return types.BuilderInfo{
		ID:          "mlp",
		Name:        "Multi-Layer Perceptron",
		Version:     builderVersion,
		Description: "Fully connected feed-forward network for flat feature vectors",
		Author:      builderAuthor,
		Type:        builderType,
		Builtin:     true,
	}
}

func (b *mlpBuilder) DefaultArchitecture() map[string]any {
	return map[string]any{
		"layers":     []any{784, 128, 64, 10},
		"activation": engine.ActReLU,
		"dropout":    0.2,
	}
}

func (b *mlpBuilder) Build(deviceID string, arch map[string]any, seed int64) (*engine.Network, map[string]any, error) {
	layers := intSlice(arch, "layers", []int{784, 128, 64, 10})
	if len(layers) < 2 {
		return nil, nil, ErrInvalidArchitecture("layers needs at least input and output sizes")
	}
	for i, l := range layers {
		if l <= 0 {
			return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("layers[%d] must be positive, got %d", i, l))
		}
	}
	act := stringValue(arch, "activation", engine.ActReLU)
	switch act {
	case engine.ActReLU, engine.ActTanh, engine.ActSigmoid:
	default:
		return nil, nil, ErrInvalidArchitecture("unknown activation: " + act)
	}
	dropout := floatValue(arch, "dropout", 0.2)
	if dropout < 0 || dropout >= 0.9 {
		return nil, nil, ErrInvalidArchitecture("dropout must be in [0, 0.9)")
	}

	rng := rand.New(rand.NewSource(seed))
	els := make([]engine.Layer, 0, len(layers)-1)
	for i := 0; i < len(layers)-1; i++ {
		a, dp := act, dropout
		if i == len(layers)-2 { // logits head
			a, dp = engine.ActNone, 0
		}
		els = append(els, engine.NewDense(layers[i], layers[i+1], a, dp, rng))
	}
	net := engine.NewNetwork(deviceID, []int{layers[0]}, seed, els...)
	norm := map[string]any{
		"layers":     toAnySlice(layers),
		"activation": act,
		"dropout":    dropout,
	}
	return net, norm, nil
}
