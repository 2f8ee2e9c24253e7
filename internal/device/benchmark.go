package device

import (
	"context"
	"strconv"
	"time"

	"traind/internal/engine"
	"traind/pkg/types"
)

// DefaultBenchmarkSizes are the square matrix sizes measured when a
// request does not name its own.
var DefaultBenchmarkSizes = []int{256, 512, 1024}

// DefaultBenchmarkIters is the per-size iteration count.
const DefaultBenchmarkIters = 3

// Benchmark measures square matmul throughput and reports it under the
// named device's entry.
func (c *Catalog) Benchmark(ctx context.Context, id string, sizes []int, iters int) (types.BenchmarkResult, error) {
	d, err := c.Get(id)
	if err != nil {
		return types.BenchmarkResult{}, err
	}
	if len(sizes) == 0 {
		sizes = DefaultBenchmarkSizes
	}
	if iters <= 0 {
		iters = DefaultBenchmarkIters
	}

	start := time.Now()
	res := types.BenchmarkResult{
		DeviceID:   d.ID,
		DeviceName: d.Name,
		Sizes:      make(map[string]float64, len(sizes)),
	}
	for _, n := range sizes {
		gflops, err := engine.MatMulGFLOPS(ctx, n, iters)
		if err != nil {
			return types.BenchmarkResult{}, err
		}
		res.Sizes[strconv.Itoa(n)] = gflops
		if gflops > res.BestGFLOPS {
			res.BestGFLOPS = gflops
		}
	}
	res.ElapsedMS = time.Since(start).Milliseconds()
	return res, nil
}

// ClearMemory releases freed allocator memory back to the OS and
// reports the outcome for the device with id.
func (c *Catalog) ClearMemory(id string) (types.MemoryClearResult, error) {
	d, err := c.Get(id)
	if err != nil {
		return types.MemoryClearResult{}, err
	}
	engine.ReleaseMemory()
	return types.MemoryClearResult{Status: "cleared", DeviceID: d.ID}, nil
}
