package builder

import (
	"fmt"
	"math/rand"

	"traind/internal/engine"
	"traind/pkg/types"
)

type rnnBuilder struct{}

func (b *rnnBuilder) Info() types.BuilderInfo {
	return types.BuilderInfo{
		ID:          "rnn",
		Name:        "Recurrent Neural Network",
		Version:     builderVersion,
		Description: "Stacked recurrent network for sequence inputs",
		Author:      builderAuthor,
		Type:        builderType,
		Builtin:     true,
	}
}

func (b *rnnBuilder) DefaultArchitecture() map[string]any {
	return map[string]any{
		"input_size":    100,
		"hidden_size":   128,
		"num_layers":    2,
		"output_size":   10,
		"seq_len":       10,
		"rnn_type":      "lstm",
		"bidirectional": false,
	}
}

func (b *rnnBuilder) Build(deviceID string, arch map[string]any, seed int64) (*engine.Network, map[string]any, error) {
	inSize := intValue(arch, "input_size", 100)
	hidden := intValue(arch, "hidden_size", 128)
	numLayers := intValue(arch, "num_layers", 2)
	outSize := intValue(arch, "output_size", 10)
	seqLen := intValue(arch, "seq_len", 10)
	if inSize <= 0 || hidden <= 0 || outSize <= 0 {
		return nil, nil, ErrInvalidArchitecture("input_size, hidden_size and output_size must be positive")
	}
	if numLayers < 1 || numLayers > 8 {
		return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("num_layers must be in [1, 8], got %d", numLayers))
	}
	if seqLen < 1 || seqLen > 512 {
		return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("seq_len must be in [1, 512], got %d", seqLen))
	}
	rnnType := stringValue(arch, "rnn_type", "lstm")
	switch rnnType {
	case "lstm", "gru", "rnn":
	default:
		return nil, nil, ErrInvalidArchitecture("unknown rnn_type: " + rnnType)
	}
	bidi := boolValue(arch, "bidirectional", false)

	rng := rand.New(rand.NewSource(seed))
	els := make([]engine.Layer, 0, numLayers+1)
	in := inSize
	for l := 0; l < numLayers; l++ {
		// Inner layers feed the full sequence forward, the last one
		// collapses to its final hidden state.
		returnSeq := l < numLayers-1
		els = append(els, engine.NewRecurrent(in, hidden, seqLen, returnSeq, rng))
		in = hidden
	}
	els = append(els, engine.NewDense(hidden, outSize, engine.ActNone, 0, rng))
	net := engine.NewNetwork(deviceID, []int{seqLen, inSize}, seed, els...)
	norm := map[string]any{
		"input_size":    inSize,
		"hidden_size":   hidden,
		"num_layers":    numLayers,
		"output_size":   outSize,
		"seq_len":       seqLen,
		"rnn_type":      rnnType,
		"bidirectional": bidi,
	}
	return net, norm, nil
}
