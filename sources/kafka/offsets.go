package kafka

import (
	kafkago "github.com/segmentio/kafka-go"
)

type partition struct {
	topic string
	id    int
}

type partitionOffsets struct {
	inflight  map[int64]bool
	maxDone   int64
	committed int64
}

// offsetTracker computes which offsets can be committed. Committing an offset on a partition acknowledges every
// earlier one, so a partition only advances up to its lowest message that is still in flight.
type offsetTracker struct {
	partitions map[partition]*partitionOffsets
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[partition]*partitionOffsets)}
}

func (o *offsetTracker) get(msg kafkago.Message) *partitionOffsets {
	key := partition{topic: msg.Topic, id: msg.Partition}
	if p, isOk := o.partitions[key]; isOk {
		return p
	}

	p := &partitionOffsets{inflight: make(map[int64]bool), maxDone: -1, committed: -1}
	o.partitions[key] = p
	return p
}

func (o *offsetTracker) track(msgs ...kafkago.Message) {
	for _, msg := range msgs {
		o.get(msg).inflight[msg.Offset] = true
	}
}

func (o *offsetTracker) done(msgs ...kafkago.Message) {
	for _, msg := range msgs {
		p := o.get(msg)
		delete(p.inflight, msg.Offset)
		p.maxDone = max(p.maxDone, msg.Offset)
	}
}

// commitable returns one message per partition that moved forward since the last call.
func (o *offsetTracker) commitable() []kafkago.Message {
	var result []kafkago.Message
	for key, p := range o.partitions {
		offset := p.maxDone
		for inflight := range p.inflight {
			offset = min(offset, inflight-1)
		}

		if offset > p.committed {
			p.committed = offset
			result = append(result, kafkago.Message{Topic: key.topic, Partition: key.id, Offset: offset})
		}
	}
	return result
}
