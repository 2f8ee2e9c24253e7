// Package training runs model training jobs and streams their progress.
// It is structured into small files by concern:
//
//   - coordinator.go: Coordinator, job admission, lifecycle commands, listing.
//   - job.go: Job state machine, config defaults, status snapshots.
//   - loop.go: the per-job goroutine driving epochs, pausing and draining.
//   - broadcaster.go: fan-out of progress frames to WebSocket sinks.
//   - errors.go: error types and helpers (IsNotFound, IsAlreadyTraining).
//   - metrics.go: Prometheus collectors for jobs and frames.
//
// Lifecycle commands are lenient. Pause, resume and stop requests that do
// not apply in the current state log a warning and return the unchanged
// status instead of failing; only unknown job ids are errors. Training
// errors move the job to the failed state and never reach the caller that
// started it.
package training
