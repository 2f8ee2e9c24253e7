package engine

import (
	"context"
	"math/rand"
	"runtime/debug"
	"time"

	"gonum.org/v1/gonum/mat"
)

// MatMulGFLOPS multiplies two size x size matrices iters times and returns
// the measured throughput in GFLOPS. The context is checked between
// iterations so benchmarks cancel promptly.
func MatMulGFLOPS(ctx context.Context, size, iters int) (float64, error) {
	if size < 16 {
		size = 16
	}
	if iters < 1 {
		iters = 1
	}
	rng := rand.New(rand.NewSource(int64(size)))
	a := mat.NewDense(size, size, nil)
	b := mat.NewDense(size, size, nil)
	initNormal(a, 1, rng)
	initNormal(b, 1, rng)
	c := mat.NewDense(size, size, nil)

	start := time.Now()
	for i := 0; i < iters; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c.Mul(a, b)
	}
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-9
	}
	n := float64(size)
	flops := 2 * n * n * n * float64(iters)
	return flops / elapsed / 1e9, nil
}

// ReleaseMemory returns freed heap pages to the OS. It is the CPU engine's
// equivalent of a device cache flush.
func ReleaseMemory() {
	debug.FreeOSMemory()
}
