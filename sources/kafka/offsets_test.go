package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestOffsetTracker(t *testing.T) {
	msg := func(partition int, offset int64) kafkago.Message {
		return kafkago.Message{Topic: "t", Partition: partition, Offset: offset}
	}

	tracker := newOffsetTracker()
	tracker.track(msg(0, 10), msg(0, 11), msg(0, 12), msg(1, 3))
	assert.Empty(t, tracker.commitable())

	tracker.done(msg(0, 11), msg(0, 12))
	assert.Empty(t, tracker.commitable(), "10 is still in flight")

	tracker.done(msg(0, 10))
	assert.Equal(t, []kafkago.Message{msg(0, 12)}, tracker.commitable())
	assert.Empty(t, tracker.commitable(), "nothing moved")

	tracker.track(msg(1, 4))
	tracker.done(msg(1, 4))
	assert.Equal(t, []kafkago.Message{msg(1, 2)}, tracker.commitable())

	tracker.done(msg(1, 3))
	assert.Equal(t, []kafkago.Message{msg(1, 4)}, tracker.commitable())
}
