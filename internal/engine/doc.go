// Package engine is the reference numeric backend used to build and train
// networks on the CPU. It is deliberately small and is consumed only through
// Network, Loss and Optimizer; callers never touch gonum types directly
// outside this package. It is structured into small files by concern:
//
//   - engine.go: Param, Layer, Network and the forward/backward drivers.
//   - dense.go: fully connected layer with activation and inverted dropout.
//   - recurrent.go: tanh recurrence with truncated-free BPTT over the batch.
//   - conv.go: same-padded im2col convolution and 2x2 max pooling.
//   - loss.go: softmax cross-entropy and mean squared error, plus accuracy.
//   - optimizer.go: sgd, adam, rmsprop, adamw and gradient clipping.
//   - dataset.go: seeded synthetic classification dataset.
//   - benchmark.go: square-matmul throughput probe and memory release.
//
// All matrices are batch-major (rows are samples, columns are features).
// Device placement is advisory: networks record the device they were bound
// to, while execution happens on the CPU.
package engine
