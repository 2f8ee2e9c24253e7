package training

import (
	"context"
	"sort"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"traind/internal/engine"
	"traind/pkg/types"
)

// UnitSource provides the trainable units the coordinator runs jobs
// against. The model registry implements it.
type UnitSource interface {
	Acquire(id string) (types.TrainableUnit, *engine.Network, error)
	SetStatus(id string, status types.UnitStatus) error
}

// Coordinator owns the set of training jobs. Each accepted job gets a
// goroutine that drives the epoch loop; lifecycle commands from HTTP
// land on the job FSM and the loop observes them at its checkpoints.
type Coordinator struct {
	log       zerolog.Logger
	units     UnitSource
	broadcast *Broadcaster

	ctx    context.Context
	cancel context.CancelFunc

	jobs    cmap.ConcurrentMap[string, *Job]
	startMu sync.Mutex
	wg      sync.WaitGroup
}

func NewCoordinator(log zerolog.Logger, units UnitSource, broadcast *Broadcaster) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		log:       log.With().Str("component", "coordinator").Logger(),
		units:     units,
		broadcast: broadcast,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      cmap.New[*Job](),
	}
}

// Start validates the request, spawns the training goroutine and
// returns while the job is still initializing. Errors after this point
// surface through job status, never through the Start caller.
func (c *Coordinator) Start(req types.StartTrainingRequest) (types.StartTrainingResponse, error) {
	meta, net, err := c.units.Acquire(req.ModelID)
	if err != nil {
		return types.StartTrainingResponse{}, err
	}

	c.startMu.Lock()
	if active, ok := c.activeJobFor(meta.ID); ok {
		c.startMu.Unlock()
		return types.StartTrainingResponse{}, ErrAlreadyTraining(meta.ID + " (training " + active.ID + ")")
	}
	j := newJob(c.log, meta.ID, req, net.InputShape())
	c.jobs.Set(j.ID, j)
	c.startMu.Unlock()

	if err := c.units.SetStatus(meta.ID, types.UnitStatusTraining); err != nil {
		c.log.Warn().Err(err).Str("model", meta.ID).Msg("could not mark model as training")
	}
	j.Log.Info().
		Int("epochs", j.totalEpochs).
		Int("batch_size", j.Config.BatchSize).
		Str("optimizer", j.Config.Optimizer).
		Msg("training accepted")

	// Snapshot the state before the runner can advance it.
	resp := types.StartTrainingResponse{TrainingID: j.ID, Status: j.State()}
	jobsStartedTotal.Inc()
	jobsActive.Inc()
	c.wg.Add(1)
	go c.run(j, net)

	return resp, nil
}

// Pause parks a running job at its next epoch boundary. Requests in
// other states are ignored and the current status is returned.
func (c *Coordinator) Pause(id string) (types.Job, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return types.Job{}, ErrJobNotFound(id)
	}
	if err := j.FSM.Event(JobEventPause); err != nil {
		j.Log.Warn().Str("state", j.FSM.Current()).Msg("pause ignored in current state")
	}
	return j.Snapshot(true), nil
}

// Resume releases a paused job. Requests in other states are ignored.
func (c *Coordinator) Resume(id string) (types.Job, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return types.Job{}, ErrJobNotFound(id)
	}
	if err := j.FSM.Event(JobEventResume); err != nil {
		j.Log.Warn().Str("state", j.FSM.Current()).Msg("resume ignored in current state")
	}
	return j.Snapshot(true), nil
}

// Stop asks a job to drain. The job reports stopping until the loop
// confirms the cancellation; stops on finished jobs are ignored.
func (c *Coordinator) Stop(id string) (types.Job, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return types.Job{}, ErrJobNotFound(id)
	}
	j.RequestStop()
	return j.Snapshot(true), nil
}

// Get returns the full status view of one job.
func (c *Coordinator) Get(id string) (types.Job, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return types.Job{}, ErrJobNotFound(id)
	}
	return j.Snapshot(true), nil
}

// Metrics returns the compact polling view of one job.
func (c *Coordinator) Metrics(id string) (types.MetricsSnapshot, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return types.MetricsSnapshot{}, ErrJobNotFound(id)
	}
	return j.MetricsSnapshot(), nil
}

// List returns jobs oldest first, optionally filtered by state.
func (c *Coordinator) List(status types.JobState) types.JobListResponse {
	all := make([]*Job, 0, c.jobs.Count())
	for item := range c.jobs.IterBuffered() {
		all = append(all, item.Val)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.Before(all[k].CreatedAt) })

	resp := types.JobListResponse{Jobs: make([]types.Job, 0, len(all))}
	for _, j := range all {
		if status != "" && j.State() != status {
			continue
		}
		resp.Jobs = append(resp.Jobs, j.Snapshot(true))
	}
	resp.Total = len(resp.Jobs)
	return resp
}

// ActiveCount reports jobs that have not reached a terminal state.
func (c *Coordinator) ActiveCount() int {
	n := 0
	for item := range c.jobs.IterBuffered() {
		if !item.Val.State().Terminal() {
			n++
		}
	}
	return n
}

// Shutdown stops every live job and waits for the runners to drain.
// When the context expires first the runners are cancelled hard.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	for item := range c.jobs.IterBuffered() {
		if !item.Val.State().Terminal() {
			item.Val.RequestStop()
		}
	}
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}

// activeJobFor finds the live job training a unit. Callers hold startMu
// when the answer gates a new job.
func (c *Coordinator) activeJobFor(unitID string) (*Job, bool) {
	for item := range c.jobs.IterBuffered() {
		if item.Val.UnitID == unitID && !item.Val.State().Terminal() {
			return item.Val, true
		}
	}
	return nil, false
}

func (c *Coordinator) setUnitStatus(unitID string, status types.UnitStatus) {
	if err := c.units.SetStatus(unitID, status); err != nil {
		c.log.Warn().Err(err).Str("model", unitID).Msg("could not update model status")
	}
}
