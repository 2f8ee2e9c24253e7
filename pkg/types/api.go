package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found: 42
	Error string `json:"error" example:"model not found: 42"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// ServerInfo is returned by GET /.
type ServerInfo struct {
	// example: traind
	Name string `json:"name" example:"traind"`
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// example: running
	Status    string `json:"status" example:"running"`
	Docs      string `json:"docs"`
	Health    string `json:"health"`
	WebSocket string `json:"websocket"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// RFC3339 server time.
	Timestamp string `json:"timestamp"`
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// example: 3600.0
	UptimeSeconds float64 `json:"uptime_seconds" example:"3600.0"`
}

// DetailedHealthResponse adds host and subsystem gauges to HealthResponse.
type DetailedHealthResponse struct {
	HealthResponse
	// Host CPU utilization percent.
	// example: 12.5
	CPUPercent float64 `json:"cpu_percent" example:"12.5"`
	// Host memory utilization percent.
	// example: 48.1
	MemoryPercent float64 `json:"memory_percent" example:"48.1"`
	// Number of non-terminal training jobs.
	// example: 1
	ActiveJobs int `json:"active_jobs" example:"1"`
	// Catalog entry count.
	// example: 3
	DeviceCount int `json:"device_count" example:"3"`
	// Registered trainable units.
	// example: 12
	UnitCount int `json:"unit_count" example:"12"`
}
