package builder

import (
	"fmt"
	"math/rand"

	"traind/internal/engine"
	"traind/pkg/types"
)

type cnnBuilder struct{}

func (b *cnnBuilder) Info() types.BuilderInfo {
	return types.BuilderInfo{
		ID:          "cnn",
		Name:        "Convolutional Neural Network",
		Version:     builderVersion,
		Description: "Convolution and pooling stack with a dense classifier head",
		Author:      builderAuthor,
		Type:        builderType,
		Builtin:     true,
	}
}

func (b *cnnBuilder) DefaultArchitecture() map[string]any {
	return map[string]any{
		"input_channels": 3,
		"num_classes":    10,
		"conv_channels":  []any{32, 64, 128},
		"kernel_sizes":   []any{3, 3, 3},
		"fc_layers":      []any{512, 256},
		"image_size":     32,
		"dropout":        0.25,
	}
}

func (b *cnnBuilder) Build(deviceID string, arch map[string]any, seed int64) (*engine.Network, map[string]any, error) {
	inC := intValue(arch, "input_channels", 3)
	classes := intValue(arch, "num_classes", 10)
	convCh := intSlice(arch, "conv_channels", []int{32, 64, 128})
	kernels := intSlice(arch, "kernel_sizes", []int{3, 3, 3})
	fcLayers := intSlice(arch, "fc_layers", []int{512, 256})
	imgSize := intValue(arch, "image_size", 32)
	dropout := floatValue(arch, "dropout", 0.25)

	if inC <= 0 {
		return nil, nil, ErrInvalidArchitecture("input_channels must be positive")
	}
	if classes < 2 {
		return nil, nil, ErrInvalidArchitecture("num_classes must be at least 2")
	}
	if len(convCh) == 0 {
		return nil, nil, ErrInvalidArchitecture("conv_channels must not be empty")
	}
	if len(kernels) != len(convCh) {
		return nil, nil, ErrInvalidArchitecture("kernel_sizes must match conv_channels in length")
	}
	for i, k := range kernels {
		if k < 1 || k%2 == 0 {
			return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("kernel_sizes[%d] must be odd and positive, got %d", i, k))
		}
	}
	for i, c := range convCh {
		if c <= 0 {
			return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("conv_channels[%d] must be positive, got %d", i, c))
		}
	}
	for i, f := range fcLayers {
		if f <= 0 {
			return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("fc_layers[%d] must be positive, got %d", i, f))
		}
	}
	if imgSize < 1<<len(convCh) || imgSize%(1<<len(convCh)) != 0 {
		return nil, nil, ErrInvalidArchitecture(fmt.Sprintf("image_size %d not divisible by %d for %d pooling stages", imgSize, 1<<len(convCh), len(convCh)))
	}
	if dropout < 0 || dropout >= 0.9 {
		return nil, nil, ErrInvalidArchitecture("dropout must be in [0, 0.9)")
	}

	rng := rand.New(rand.NewSource(seed))
	var els []engine.Layer
	h, w, c := imgSize, imgSize, inC
	for i, outC := range convCh {
		els = append(els, engine.NewConv2D(c, outC, kernels[i], h, w, rng))
		els = append(els, engine.NewMaxPool2D(outC, h, w))
		h, w, c = h/2, w/2, outC
	}
	flat := c * h * w
	in := flat
	for _, f := range fcLayers {
		els = append(els, engine.NewDense(in, f, engine.ActReLU, dropout, rng))
		in = f
	}
	els = append(els, engine.NewDense(in, classes, engine.ActNone, 0, rng))
	net := engine.NewNetwork(deviceID, []int{inC, imgSize, imgSize}, seed, els...)
	norm := map[string]any{
		"input_channels": inC,
		"num_classes":    classes,
		"conv_channels":  toAnySlice(convCh),
		"kernel_sizes":   toAnySlice(kernels),
		"fc_layers":      toAnySlice(fcLayers),
		"image_size":     imgSize,
		"dropout":        dropout,
	}
	return net, norm, nil
}
