package types

// BackendKind identifies the compute backend a device was discovered through.
type BackendKind string

const (
	// BackendCUDA is the native accelerator backend (NVML-enumerated).
	BackendCUDA BackendKind = "cuda"
	// BackendDirectML is the Windows vendor-bridge backend.
	BackendDirectML BackendKind = "directml"
	// BackendOpenCL is the open-compute view of display controllers.
	BackendOpenCL BackendKind = "opencl"
	// BackendMetal is the Apple unified-memory backend.
	BackendMetal BackendKind = "metal"
	// BackendCPU is the always-present fallback backend.
	BackendCPU BackendKind = "cpu"
)

// Vendor identifies the hardware vendor of a device.
type Vendor string

const (
	VendorNVIDIA  Vendor = "nvidia"
	VendorAMD     Vendor = "amd"
	VendorIntel   Vendor = "intel"
	VendorApple   Vendor = "apple"
	VendorUnknown Vendor = "unknown"
)

// Device describes one compute device surfaced by a backend probe. The same
// physical hardware may appear once per backend that can see it; entries are
// intentionally not deduplicated.
type Device struct {
	// Composite identifier: "<backend>:<index>".
	// example: cuda:0
	ID string `json:"id" example:"cuda:0"`
	// Human-readable device name.
	// example: NVIDIA GeForce RTX 3080
	Name string `json:"name" example:"NVIDIA GeForce RTX 3080"`
	// Hardware vendor.
	// example: nvidia
	Vendor Vendor `json:"vendor" example:"nvidia"`
	// Backend the device was discovered through.
	// example: cuda
	Type BackendKind `json:"type" example:"cuda"`
	// Total device memory in MB.
	// example: 10240
	MemoryMB uint64 `json:"memory_mb" example:"10240"`
	// Free device memory in MB at last refresh.
	// example: 8192
	AvailableMemoryMB uint64 `json:"available_memory_mb" example:"8192"`
	// Used memory as a percentage of total.
	// example: 20.0
	MemoryUsagePercent float64 `json:"memory_usage_percent" example:"20.0"`
	// Heuristic performance score in [0, 1000].
	// example: 860
	PerformanceScore int `json:"performance_score" example:"860"`
	// True for discrete GPUs, false for integrated/CPU devices.
	// example: true
	IsDiscrete bool `json:"is_discrete" example:"true"`
	// True when the device advertises usable half-precision compute.
	// example: true
	SupportsFP16 bool `json:"supports_fp16" example:"true"`
	// CUDA compute capability, when known.
	// example: 8.6
	ComputeCapability string `json:"compute_capability,omitempty" example:"8.6"`
	// True when this is the currently selected device.
	// example: false
	IsSelected bool `json:"is_selected" example:"false"`
	// Core temperature in Celsius, when the backend reports it.
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	// Power draw in watts, when the backend reports it.
	PowerUsageW *float64 `json:"power_usage_w,omitempty"`
}

// DevicePreference constrains automatic device selection.
type DevicePreference string

const (
	PreferenceAuto       DevicePreference = "auto"
	PreferenceGPUOnly    DevicePreference = "gpu_only"
	PreferenceCPUOnly    DevicePreference = "cpu_only"
	PreferenceNVIDIAOnly DevicePreference = "nvidia_only"
	PreferenceAMDOnly    DevicePreference = "amd_only"
	PreferenceIntelOnly  DevicePreference = "intel_only"
)

// PreferenceInfo describes one selectable device preference.
type PreferenceInfo struct {
	// Preference identifier.
	// example: nvidia_only
	ID DevicePreference `json:"id" example:"nvidia_only"`
	// Display name.
	// example: NVIDIA Only
	Name string `json:"name" example:"NVIDIA Only"`
	// Short description of the selection policy.
	Description string `json:"description"`
	// Whether the current catalog can satisfy this preference.
	// example: true
	Available bool `json:"available" example:"true"`
}

// DeviceSettings is the combined device-selection view returned by
// GET /api/v1/gpu/settings.
type DeviceSettings struct {
	CurrentDevice        *Device          `json:"current_device"`
	AvailableDevices     []Device         `json:"available_devices"`
	AvailablePreferences []PreferenceInfo `json:"available_preferences"`
	CurrentPreference    DevicePreference `json:"current_preference"`
}

// DeviceListResponse wraps the device list returned by GET /api/v1/gpu.
type DeviceListResponse struct {
	Devices []Device `json:"devices"`
	// ID of the currently selected device.
	// example: cuda:0
	CurrentDeviceID string `json:"current_device_id" example:"cuda:0"`
	// Total number of catalog entries.
	// example: 3
	Total int `json:"total" example:"3"`
}

// SelectDeviceRequest is the payload for POST /api/v1/gpu/{device_id}/select.
type SelectDeviceRequest struct{}

// SetPreferenceRequest is the payload for POST /api/v1/gpu/preference.
type SetPreferenceRequest struct {
	// Preference identifier to apply.
	// example: gpu_only
	Preference DevicePreference `json:"preference" example:"gpu_only"`
}

// BenchmarkResult reports matrix-multiply throughput for one device.
type BenchmarkResult struct {
	// example: cuda:0
	DeviceID   string `json:"device_id" example:"cuda:0"`
	DeviceName string `json:"device_name"`
	// GFLOPS keyed by square matrix size.
	Sizes map[string]float64 `json:"sizes"`
	// Best observed throughput across sizes.
	// example: 145.2
	BestGFLOPS float64 `json:"best_gflops" example:"145.2"`
	// Total wall-clock time for the benchmark run in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// MemoryClearResult reports the outcome of POST /api/v1/gpu/memory/clear.
type MemoryClearResult struct {
	// example: cleared
	Status string `json:"status" example:"cleared"`
	// example: cuda:0
	DeviceID string `json:"device_id" example:"cuda:0"`
}
