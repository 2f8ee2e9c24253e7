// Package device discovers compute devices and manages the selected-device
// slot. It is structured into small files by concern:
//
//   - probe.go: the Probe interface and the Utilization reading.
//   - probe_nvml.go: NVML-backed cuda probe (stub under `-tags=nonvml`).
//   - probe_pci.go: Linux sysfs scan surfacing the opencl view of GPUs.
//   - probe_directml.go: WMI display-adapter probe (Windows only).
//   - probe_metal.go: Apple unified-memory probe (darwin only).
//   - probe_cpu.go: always-available host CPU probe.
//   - score.go: per-backend performance score heuristics.
//   - catalog.go: Catalog aggregation, refresh, utilization updates.
//   - selector.go: preference handling and the single selection slot.
//   - benchmark.go: matmul throughput measurement for a device.
//   - errors.go: error types and helpers (IsNotFound, ...).
//   - metrics.go: Prometheus collectors for discovery.
//
// The same physical hardware may be reported by more than one probe (an
// NVIDIA card shows up through both the cuda and opencl views). The catalog
// keeps every entry; callers that want one entry per card filter by backend.
package device
