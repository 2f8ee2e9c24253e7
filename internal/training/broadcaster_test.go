package training

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traind/pkg/types"
)

// flakySink accepts the first send and fails every one after.
type flakySink struct {
	sent int
}

func (s *flakySink) Send(v any) error {
	s.sent++
	if s.sent > 1 {
		return errors.New("socket closed")
	}
	return nil
}

// panicSink blows up on every send.
type panicSink struct{}

func (panicSink) Send(v any) error { panic("broken pipe") }

func testJob(t *testing.T) *Job {
	t.Helper()
	return newJob(zerolog.Nop(), "m1", types.StartTrainingRequest{}, []int{8})
}

func TestPublishFanout(t *testing.T) {
	bc := NewBroadcaster(zerolog.Nop())
	j := testJob(t)

	a, b := &recordingSink{}, &recordingSink{}
	bc.Subscribe(j.ID, a)
	bc.Subscribe(j.ID, b)
	require.Equal(t, 2, bc.SubscriberCount(j.ID))

	bc.Publish(types.FrameProgress, j)

	for _, s := range []*recordingSink{a, b} {
		frames := s.all()
		require.Len(t, frames, 1)
		assert.Equal(t, types.FrameProgress, frames[0].Type)
		assert.Equal(t, j.ID, frames[0].TrainingID)
		assert.Equal(t, j.ID, frames[0].Data.TrainingID)
		assert.Nil(t, frames[0].Data.Config)
	}
}

func TestPublishDropsFailingSink(t *testing.T) {
	bc := NewBroadcaster(zerolog.Nop())
	j := testJob(t)

	healthy := &recordingSink{}
	flaky := &flakySink{}
	bc.Subscribe(j.ID, healthy)
	bc.Subscribe(j.ID, flaky)

	bc.Publish(types.FrameProgress, j)
	assert.Equal(t, 2, bc.SubscriberCount(j.ID))

	bc.Publish(types.FrameProgress, j)
	assert.Equal(t, 1, bc.SubscriberCount(j.ID), "failing sink is dropped")

	bc.Publish(types.FrameProgress, j)
	assert.Len(t, healthy.all(), 3)
	assert.Equal(t, 2, flaky.sent)
}

func TestPublishSurvivesPanickingSink(t *testing.T) {
	bc := NewBroadcaster(zerolog.Nop())
	j := testJob(t)

	bc.Subscribe(j.ID, panicSink{})
	assert.NotPanics(t, func() { bc.Publish(types.FrameProgress, j) })
	assert.Zero(t, bc.SubscriberCount(j.ID))
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bc := NewBroadcaster(zerolog.Nop())
	assert.NotPanics(t, func() { bc.Publish(types.FrameProgress, testJob(t)) })
}

func TestUnsubscribe(t *testing.T) {
	bc := NewBroadcaster(zerolog.Nop())
	j := testJob(t)
	s := &recordingSink{}

	bc.Subscribe(j.ID, s)
	bc.Unsubscribe(j.ID, s)
	assert.Zero(t, bc.SubscriberCount(j.ID))
	bc.Publish(types.FrameProgress, j)
	assert.Empty(t, s.all())

	// Unknown ids and sinks are accepted quietly.
	bc.Unsubscribe("ghost", s)
	bc.Subscribe("ghost", s)
	bc.Unsubscribe("ghost", &recordingSink{})
}
