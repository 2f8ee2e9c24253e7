package training

import (
	"fmt"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"traind/pkg/types"
)

// Sink receives progress frames for one job. The WebSocket layer and
// tests provide implementations.
type Sink interface {
	Send(v any) error
}

// subscriberSet is the set of live sinks for one job.
type subscriberSet struct {
	mu    sync.Mutex
	sinks map[Sink]struct{}
}

// Broadcaster fans job progress out to subscribed sinks. Delivery is
// best effort: a sink that errors or panics is dropped and publishing
// never blocks or fails the training loop.
type Broadcaster struct {
	log  zerolog.Logger
	subs cmap.ConcurrentMap[string, *subscriberSet]
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		log:  log.With().Str("component", "broadcaster").Logger(),
		subs: cmap.New[*subscriberSet](),
	}
}

// Subscribe registers a sink for a job's frames. Unknown job ids are
// accepted; frames simply never arrive if the job does not exist.
func (b *Broadcaster) Subscribe(jobID string, s Sink) {
	set := b.subs.Upsert(jobID, nil, func(exist bool, cur, _ *subscriberSet) *subscriberSet {
		if !exist {
			cur = &subscriberSet{sinks: make(map[Sink]struct{})}
		}
		return cur
	})
	set.mu.Lock()
	set.sinks[s] = struct{}{}
	n := len(set.sinks)
	set.mu.Unlock()
	b.log.Debug().Str("training", jobID).Int("subscribers", n).Msg("sink subscribed")
}

// Unsubscribe removes a sink. Missing jobs and sinks are no-ops.
func (b *Broadcaster) Unsubscribe(jobID string, s Sink) {
	set, ok := b.subs.Get(jobID)
	if !ok {
		return
	}
	set.mu.Lock()
	delete(set.sinks, s)
	set.mu.Unlock()
}

// SubscriberCount reports the live sinks for a job.
func (b *Broadcaster) SubscriberCount(jobID string) int {
	set, ok := b.subs.Get(jobID)
	if !ok {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.sinks)
}

// Publish renders a frame from the job and delivers it to every
// subscribed sink. Failed sinks are dropped before the next frame.
func (b *Broadcaster) Publish(frameType string, j *Job) {
	defer framesPublishedTotal.Inc()

	set, ok := b.subs.Get(j.ID)
	if !ok {
		return
	}
	set.mu.Lock()
	sinks := make([]Sink, 0, len(set.sinks))
	for s := range set.sinks {
		sinks = append(sinks, s)
	}
	set.mu.Unlock()
	if len(sinks) == 0 {
		return
	}

	frame := types.ProgressFrame{
		Type:       frameType,
		TrainingID: j.ID,
		Data:       j.Snapshot(false),
	}
	var dead []Sink
	for _, s := range sinks {
		if err := b.send(s, frame); err != nil {
			b.log.Debug().Str("training", j.ID).Err(err).Msg("dropping dead sink")
			dead = append(dead, s)
		}
	}
	if len(dead) > 0 {
		set.mu.Lock()
		for _, s := range dead {
			delete(set.sinks, s)
		}
		set.mu.Unlock()
		subscribersDroppedTotal.Add(float64(len(dead)))
	}
}

// send delivers one frame, converting a sink panic into an error so a
// broken subscriber cannot take down the loop.
func (b *Broadcaster) send(s Sink, frame types.ProgressFrame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return s.Send(frame)
}
