package types

// JobState is the lifecycle state of a training job.
type JobState string

const (
	JobInitializing JobState = "initializing"
	JobRunning      JobState = "running"
	JobPaused       JobState = "paused"
	JobStopping     JobState = "stopping"
	JobCompleted    JobState = "completed"
	JobCancelled    JobState = "cancelled"
	JobFailed       JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobCancelled || s == JobFailed
}

// TrainingConfig tunes one training run. Zero values take package defaults.
type TrainingConfig struct {
	// example: 100
	Epochs int `json:"epochs,omitempty" example:"100"`
	// example: 32
	BatchSize int `json:"batch_size,omitempty" example:"32"`
	// sgd, adam, rmsprop or adamw.
	// example: adam
	Optimizer string `json:"optimizer,omitempty" example:"adam"`
	// example: 0.001
	LearningRate float64 `json:"learning_rate,omitempty" example:"0.001"`
	// Momentum for sgd.
	// example: 0.9
	Momentum float64 `json:"momentum,omitempty" example:"0.9"`
	// Decoupled weight decay for adamw.
	WeightDecay float64 `json:"weight_decay,omitempty"`
	// cross_entropy or mse.
	// example: cross_entropy
	Loss string `json:"loss,omitempty" example:"cross_entropy"`
}

// DatasetConfig describes the synthetic dataset a job trains on.
type DatasetConfig struct {
	// example: synthetic
	Type string `json:"type,omitempty" example:"synthetic"`
	// example: 1000
	NumSamples int `json:"num_samples,omitempty" example:"1000"`
	// Flat feature width for mlp units, per-step width for rnn units.
	// example: 784
	InputSize int `json:"input_size,omitempty" example:"784"`
	// example: 10
	NumClasses int `json:"num_classes,omitempty" example:"10"`
	// Sequence length for rnn units.
	// example: 10
	SeqLen int `json:"seq_len,omitempty" example:"10"`
	// Square image edge for cnn units.
	// example: 32
	ImageSize int `json:"image_size,omitempty" example:"32"`
	// Label noise fraction in [0, 1).
	// example: 0.1
	Noise float64 `json:"noise,omitempty" example:"0.1"`
	// Generator seed; 0 derives one from the job.
	Seed int64 `json:"seed,omitempty"`
}

// ValidationConfig enables a held-out evaluation pass after each epoch.
type ValidationConfig struct {
	// Fraction of the dataset held out, in (0, 0.9].
	// example: 0.2
	Split float64 `json:"split,omitempty" example:"0.2"`
	// Explicit held-out sample count; overrides Split when set.
	NumSamples int `json:"num_samples,omitempty"`
}

// TrainingMetrics are the per-epoch aggregates of a job.
type TrainingMetrics struct {
	// example: 0.42
	Loss float64 `json:"loss" example:"0.42"`
	// example: 0.86
	Accuracy    float64 `json:"accuracy" example:"0.86"`
	ValLoss     float64 `json:"val_loss"`
	ValAccuracy float64 `json:"val_accuracy"`
}

// Job is the full status view of one training job.
type Job struct {
	// example: 3f9c3d47-8a2e-4a87-b5a4-6f2a6f6de0cd
	TrainingID string `json:"training_id" example:"3f9c3d47-8a2e-4a87-b5a4-6f2a6f6de0cd"`
	// Unit being trained.
	ModelID string   `json:"model_id"`
	Status  JobState `json:"status"`
	// example: 17
	CurrentEpoch int `json:"current_epoch" example:"17"`
	// example: 100
	TotalEpochs int             `json:"total_epochs" example:"100"`
	Metrics     TrainingMetrics `json:"metrics"`
	// RFC3339 job start time.
	StartTime string `json:"start_time"`
	// Seconds; zero until the first epoch completes.
	// example: 41.5
	EstimatedTimeRemaining float64 `json:"estimated_time_remaining" example:"41.5"`
	// Failure message, set only for failed jobs.
	Error string `json:"error,omitempty"`
	// Bulk request fields, echoed in REST status but stripped from
	// progress frames.
	Config           *TrainingConfig   `json:"config,omitempty"`
	DatasetConfig    *DatasetConfig    `json:"dataset_config,omitempty"`
	ValidationConfig *ValidationConfig `json:"validation_config,omitempty"`
}

// StartTrainingRequest is the payload for POST /api/v1/training/start.
type StartTrainingRequest struct {
	// Unit to train.
	ModelID          string            `json:"model_id"`
	Config           *TrainingConfig   `json:"config,omitempty"`
	DatasetConfig    *DatasetConfig    `json:"dataset_config,omitempty"`
	ValidationConfig *ValidationConfig `json:"validation_config,omitempty"`
}

// StartTrainingResponse acknowledges an accepted training job.
type StartTrainingResponse struct {
	TrainingID string   `json:"training_id"`
	Status     JobState `json:"status"`
}

// JobListResponse wraps GET /api/v1/training.
type JobListResponse struct {
	Jobs  []Job `json:"jobs"`
	Total int   `json:"total"`
}

// MetricsSnapshot is the compact polling view of GET /api/v1/training/{id}/metrics.
type MetricsSnapshot struct {
	TrainingID     string          `json:"training_id"`
	CurrentMetrics TrainingMetrics `json:"current_metrics"`
	// Percent of epochs completed, 0-100.
	// example: 17.0
	Progress float64 `json:"progress" example:"17.0"`
	// Seconds since the job started.
	ElapsedTime float64 `json:"elapsed_time"`
	// Seconds; zero until the first epoch completes.
	EstimatedRemaining float64  `json:"estimated_remaining"`
	Status             JobState `json:"status"`
}

// Progress frame types published on the training WebSocket.
const (
	FrameProgress  = "training_progress"
	FrameComplete  = "training_complete"
	FrameFailed    = "training_failed"
	FrameCancelled = "training_cancelled"
)

// ProgressFrame is one WebSocket update. Data carries the job view with the
// bulk config fields removed.
type ProgressFrame struct {
	// example: training_progress
	Type       string `json:"type" example:"training_progress"`
	TrainingID string `json:"training_id"`
	Data       Job    `json:"data"`
}
