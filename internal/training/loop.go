package training

import (
	"fmt"
	"math"
	"time"

	"traind/internal/engine"
	"traind/pkg/types"
)

// Interval at which a parked loop rechecks the FSM for resume or stop.
const pausePollInterval = 50 * time.Millisecond

// Global L2 norm cap applied to gradients before every optimizer step.
const gradClipNorm = 5.0

// run drives one job from initialization to a terminal state. It owns
// every FSM transition after acceptance; training errors land in the
// failed state and are never returned to the Start caller.
func (c *Coordinator) run(j *Job, net *engine.Network) {
	defer c.wg.Done()
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			c.finishFailed(j, fmt.Errorf("panic: %v", r))
		}
	}()

	train, holdout, opt, lossFn, err := c.prepare(j, net)
	if err != nil {
		c.finishFailed(j, err)
		return
	}
	if j.stopRequested() || c.ctx.Err() != nil {
		c.finishCancelled(j)
		return
	}
	if err := j.FSM.Event(JobEventRun); err != nil {
		// A stop raced initialization; the FSM already sits in stopping.
		c.finishCancelled(j)
		return
	}

	for epoch := 1; epoch <= j.totalEpochs; epoch++ {
		if !c.waitWhilePaused(j) {
			c.finishCancelled(j)
			return
		}
		loss, acc, ok := c.runEpoch(j, net, train, opt, lossFn)
		if !ok {
			c.finishCancelled(j)
			return
		}
		// A diverged run must fail, not complete: NaN would also poison
		// every JSON snapshot of the job.
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			c.finishFailed(j, fmt.Errorf("loss diverged at epoch %d", epoch))
			return
		}
		j.epoch.Store(int64(epoch))
		j.loss.Store(loss)
		j.accuracy.Store(acc)
		if holdout != nil {
			x, labels := holdout.All()
			logits := net.Forward(x, false)
			vl, _ := lossFn.Compute(logits, labels)
			j.valLoss.Store(vl)
			j.valAccuracy.Store(engine.Accuracy(logits, labels))
		}
		j.eta.Store(etaSeconds(j.StartedAt.Load(), epoch, j.totalEpochs))
		epochsTotal.Inc()
		c.broadcast.Publish(types.FrameProgress, j)
	}
	c.finishCompleted(j)
}

// prepare builds the dataset, optimizer and loss for a job. The label
// space follows the network head so generated labels always index
// within the logits.
func (c *Coordinator) prepare(j *Job, net *engine.Network) (train, holdout *engine.SyntheticDataset, opt engine.Optimizer, lossFn engine.Loss, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("initialization: %v", r)
		}
	}()

	logits := net.Forward(net.DummyInput(), false)
	_, classes := logits.Dims()

	cfg := j.Dataset
	cfg.NumClasses = classes
	data := engine.NewSynthetic(cfg, net.InputShape())

	train = data
	if v := j.Validation; v != nil {
		frac := v.Split
		if v.NumSamples > 0 {
			frac = float64(v.NumSamples) / float64(data.Len())
		}
		if frac > 0.9 {
			frac = 0.9
		}
		train, holdout = data.Split(frac)
	}

	opt = engine.NewOptimizer(j.Config.Optimizer, engine.OptimizerConfig{
		LearningRate: j.Config.LearningRate,
		Momentum:     j.Config.Momentum,
		WeightDecay:  j.Config.WeightDecay,
	})
	lossFn = engine.NewLoss(j.Config.Loss)
	return train, holdout, opt, lossFn, nil
}

// runEpoch visits every batch once. ok is false when a stop request or
// daemon shutdown interrupted the epoch.
func (c *Coordinator) runEpoch(j *Job, net *engine.Network, data *engine.SyntheticDataset, opt engine.Optimizer, lossFn engine.Loss) (loss, acc float64, ok bool) {
	data.Shuffle()
	batches := data.NumBatches(j.Config.BatchSize)
	var lossSum, accSum float64
	var seen int
	for b := 0; b < batches; b++ {
		if j.stopRequested() || c.ctx.Err() != nil {
			return 0, 0, false
		}
		x, labels := data.Batch(b, j.Config.BatchSize)
		logits := net.Forward(x, true)
		l, grad := lossFn.Compute(logits, labels)
		net.Backward(grad)
		engine.ClipGradients(net.Params(), gradClipNorm)
		opt.Step(net.Params())

		n := len(labels)
		lossSum += l * float64(n)
		accSum += engine.Accuracy(logits, labels) * float64(n)
		seen += n
	}
	if seen == 0 {
		return 0, 0, true
	}
	return lossSum / float64(seen), accSum / float64(seen), true
}

// waitWhilePaused parks until the FSM leaves paused. It returns false
// when the wait ended because of a stop or daemon shutdown.
func (c *Coordinator) waitWhilePaused(j *Job) bool {
	for j.FSM.Is(string(types.JobPaused)) {
		if j.stopRequested() || c.ctx.Err() != nil {
			return false
		}
		select {
		case <-c.ctx.Done():
			return false
		case <-time.After(pausePollInterval):
		}
	}
	return !j.stopRequested() && c.ctx.Err() == nil
}

func (c *Coordinator) finishCompleted(j *Job) {
	if err := j.FSM.Event(JobEventComplete); err != nil {
		// A stop landed after the final epoch; drain as cancelled.
		c.finishCancelled(j)
		return
	}
	c.setUnitStatus(j.UnitID, types.UnitStatusTrained)
	c.broadcast.Publish(types.FrameComplete, j)
	c.finishAccounting(j)
	j.Log.Info().Int("epochs", j.totalEpochs).Float64("loss", j.loss.Load()).Float64("accuracy", j.accuracy.Load()).Msg("training completed")
}

func (c *Coordinator) finishCancelled(j *Job) {
	if err := j.FSM.Event(JobEventCancel); err != nil {
		j.Log.Warn().Str("state", j.FSM.Current()).Msg("cancel ignored in current state")
	}
	c.setUnitStatus(j.UnitID, types.UnitStatusCreated)
	c.broadcast.Publish(types.FrameCancelled, j)
	c.finishAccounting(j)
}

func (c *Coordinator) finishFailed(j *Job, err error) {
	j.errMsg.Store(err.Error())
	if ferr := j.FSM.Event(JobEventFail); ferr != nil {
		j.Log.Warn().Str("state", j.FSM.Current()).Msg("fail ignored in current state")
	}
	c.setUnitStatus(j.UnitID, types.UnitStatusCreated)
	c.broadcast.Publish(types.FrameFailed, j)
	c.finishAccounting(j)
}

func (c *Coordinator) finishAccounting(j *Job) {
	jobsFinishedTotal.WithLabelValues(string(j.State())).Inc()
	jobsActive.Dec()
}

// etaSeconds projects remaining wall time from the per-epoch pace so
// far. Zero until at least one epoch has finished.
func etaSeconds(start time.Time, done, total int) float64 {
	if done <= 0 || start.IsZero() {
		return 0
	}
	elapsed := time.Since(start).Seconds()
	return elapsed / float64(done) * float64(total-done)
}
