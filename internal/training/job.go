package training

import (
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"traind/pkg/types"
)

// Job FSM event names.
const (
	// Initialization finished; the epoch loop is running.
	JobEventRun = "run"

	// Loop parked at an epoch boundary.
	JobEventPause = "pause"

	// Parked loop released.
	JobEventResume = "resume"

	// Stop requested; the loop drains the current batch.
	JobEventStop = "stop"

	// Every epoch finished.
	JobEventComplete = "complete"

	// Drain finished, or the daemon context ended mid-run.
	JobEventCancel = "cancel"

	// A training error surfaced.
	JobEventFail = "fail"
)

// Defaults applied to an omitted or partial training config.
const (
	DefaultEpochs       = 100
	DefaultBatchSize    = 32
	DefaultOptimizer    = "adam"
	DefaultLearningRate = 0.001
	DefaultMomentum     = 0.9
	DefaultLoss         = "cross_entropy"

	DefaultNumSamples = 1000
	DefaultNoise      = 0.1

	DefaultValidationSplit = 0.2
)

// Job is one training run. The FSM guards lifecycle transitions; hot
// progress fields are atomics so HTTP snapshots never block the loop.
type Job struct {
	ID         string
	UnitID     string
	CreatedAt  time.Time
	Config     types.TrainingConfig
	Dataset    types.DatasetConfig
	Validation *types.ValidationConfig

	FSM *fsm.FSM
	Log zerolog.Logger

	StartedAt *atomic.Time

	epoch       *atomic.Int64
	totalEpochs int
	loss        *atomic.Float64
	accuracy    *atomic.Float64
	valLoss     *atomic.Float64
	valAccuracy *atomic.Float64
	eta         *atomic.Float64
	errMsg      *atomic.String

	stop *atomic.Bool
	done chan struct{} // closed when the runner goroutine exits
}

func newJob(log zerolog.Logger, unitID string, req types.StartTrainingRequest, inputShape []int) *Job {
	id := uuid.NewString()

	cfg := types.TrainingConfig{}
	if req.Config != nil {
		cfg = *req.Config
	}
	normalizeConfig(&cfg)

	// Dataset defaults apply in full when the section is omitted; a
	// provided section keeps its explicit zeros (noise: 0 is honored).
	ds := types.DatasetConfig{Type: "synthetic", NumSamples: DefaultNumSamples, Noise: DefaultNoise}
	if req.DatasetConfig != nil {
		ds = *req.DatasetConfig
		normalizeDataset(&ds)
	}
	// Shape echo fields follow the model's real input shape, not the
	// request, so status always describes the data actually generated.
	switch len(inputShape) {
	case 1:
		ds.InputSize = inputShape[0]
	case 2:
		ds.SeqLen, ds.InputSize = inputShape[0], inputShape[1]
	case 3:
		ds.ImageSize = inputShape[1]
	}
	if ds.Seed == 0 {
		ds.Seed = seedFromID(id)
	}

	// Providing the validation section at all opts into validation; an
	// empty section means "validate with defaults", same rule as the
	// dataset section.
	var val *types.ValidationConfig
	if req.ValidationConfig != nil {
		v := *req.ValidationConfig
		if v.Split <= 0 && v.NumSamples <= 0 {
			v.Split = DefaultValidationSplit
		}
		val = &v
	}

	j := &Job{
		ID:         id,
		UnitID:     unitID,
		CreatedAt:  time.Now(),
		Config:     cfg,
		Dataset:    ds,
		Validation: val,

		Log: log.With().Str("training", id).Str("model", unitID).Logger(),

		StartedAt: atomic.NewTime(time.Time{}),

		epoch:       atomic.NewInt64(0),
		totalEpochs: cfg.Epochs,
		loss:        atomic.NewFloat64(0),
		accuracy:    atomic.NewFloat64(0),
		valLoss:     atomic.NewFloat64(0),
		valAccuracy: atomic.NewFloat64(0),
		eta:         atomic.NewFloat64(0),
		errMsg:      atomic.NewString(""),

		stop: atomic.NewBool(false),
		done: make(chan struct{}),
	}

	j.FSM = fsm.NewFSM(
		string(types.JobInitializing),
		fsm.Events{
			{Name: JobEventRun, Src: []string{string(types.JobInitializing)}, Dst: string(types.JobRunning)},
			{Name: JobEventPause, Src: []string{string(types.JobRunning)}, Dst: string(types.JobPaused)},
			{Name: JobEventResume, Src: []string{string(types.JobPaused)}, Dst: string(types.JobRunning)},
			{Name: JobEventStop, Src: []string{
				string(types.JobInitializing), string(types.JobRunning), string(types.JobPaused),
			}, Dst: string(types.JobStopping)},
			{Name: JobEventComplete, Src: []string{string(types.JobRunning)}, Dst: string(types.JobCompleted)},
			{Name: JobEventCancel, Src: []string{
				string(types.JobInitializing), string(types.JobRunning), string(types.JobPaused), string(types.JobStopping),
			}, Dst: string(types.JobCancelled)},
			{Name: JobEventFail, Src: []string{
				string(types.JobInitializing), string(types.JobRunning), string(types.JobPaused), string(types.JobStopping),
			}, Dst: string(types.JobFailed)},
		},
		fsm.Callbacks{
			JobEventRun: func(e *fsm.Event) {
				j.StartedAt.Store(time.Now())
				j.Log.Info().Str("state", e.FSM.Current()).Msg("training state changed")
			},
			JobEventPause: func(e *fsm.Event) {
				j.Log.Info().Str("state", e.FSM.Current()).Msg("training state changed")
			},
			JobEventResume: func(e *fsm.Event) {
				j.Log.Info().Str("state", e.FSM.Current()).Msg("training state changed")
			},
			JobEventStop: func(e *fsm.Event) {
				j.Log.Info().Str("state", e.FSM.Current()).Msg("training state changed")
			},
			JobEventComplete: func(e *fsm.Event) {
				j.Log.Info().Str("state", e.FSM.Current()).Msg("training state changed")
			},
			JobEventCancel: func(e *fsm.Event) {
				j.Log.Info().Str("state", e.FSM.Current()).Msg("training state changed")
			},
			JobEventFail: func(e *fsm.Event) {
				j.Log.Warn().Str("state", e.FSM.Current()).Str("error", j.errMsg.Load()).Msg("training state changed")
			},
		},
	)
	return j
}

// State returns the wire-level view of the FSM state.
func (j *Job) State() types.JobState { return types.JobState(j.FSM.Current()) }

// RequestStop flags the loop to drain. The flag is set before the
// transition so a draining loop never misses it; in states without a
// stop edge the request is ignored with a warning.
func (j *Job) RequestStop() bool {
	j.stop.Store(true)
	if err := j.FSM.Event(JobEventStop); err != nil {
		j.Log.Warn().Str("state", j.FSM.Current()).Msg("stop ignored in current state")
		return false
	}
	return true
}

func (j *Job) stopRequested() bool { return j.stop.Load() }

// Snapshot renders the wire view. includeConfig controls the bulk
// request sections, which REST status echoes and progress frames drop.
func (j *Job) Snapshot(includeConfig bool) types.Job {
	job := types.Job{
		TrainingID:   j.ID,
		ModelID:      j.UnitID,
		Status:       j.State(),
		CurrentEpoch: int(j.epoch.Load()),
		TotalEpochs:  j.totalEpochs,
		Metrics: types.TrainingMetrics{
			Loss:        j.loss.Load(),
			Accuracy:    j.accuracy.Load(),
			ValLoss:     j.valLoss.Load(),
			ValAccuracy: j.valAccuracy.Load(),
		},
		EstimatedTimeRemaining: j.eta.Load(),
		Error:                  j.errMsg.Load(),
	}
	if t := j.StartedAt.Load(); !t.IsZero() {
		job.StartTime = t.UTC().Format(time.RFC3339)
	}
	if includeConfig {
		cfg := j.Config
		job.Config = &cfg
		ds := j.Dataset
		job.DatasetConfig = &ds
		if j.Validation != nil {
			v := *j.Validation
			job.ValidationConfig = &v
		}
	}
	return job
}

// MetricsSnapshot renders the compact polling view.
func (j *Job) MetricsSnapshot() types.MetricsSnapshot {
	snap := types.MetricsSnapshot{
		TrainingID: j.ID,
		CurrentMetrics: types.TrainingMetrics{
			Loss:        j.loss.Load(),
			Accuracy:    j.accuracy.Load(),
			ValLoss:     j.valLoss.Load(),
			ValAccuracy: j.valAccuracy.Load(),
		},
		EstimatedRemaining: j.eta.Load(),
		Status:             j.State(),
	}
	if j.totalEpochs > 0 {
		snap.Progress = float64(j.epoch.Load()) / float64(j.totalEpochs) * 100
	}
	if t := j.StartedAt.Load(); !t.IsZero() {
		snap.ElapsedTime = time.Since(t).Seconds()
	}
	return snap
}

func normalizeConfig(cfg *types.TrainingConfig) {
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultEpochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = DefaultOptimizer
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if cfg.Momentum == 0 {
		cfg.Momentum = DefaultMomentum
	}
	if cfg.Loss == "" {
		cfg.Loss = DefaultLoss
	}
}

func normalizeDataset(ds *types.DatasetConfig) {
	if ds.Type == "" {
		ds.Type = "synthetic"
	}
	if ds.NumSamples <= 0 {
		ds.NumSamples = DefaultNumSamples
	}
	if ds.Noise < 0 {
		ds.Noise = 0
	}
	if ds.Noise >= 1 {
		ds.Noise = 0.99
	}
}

func seedFromID(id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}
