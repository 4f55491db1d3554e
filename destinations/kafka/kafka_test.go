package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/config"
)

type fakePublisher struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakePublisher) Write(_ context.Context, msgs []kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestDestination_Write(t *testing.T) {
	publisher := &fakePublisher{}
	destination := &Destination{writer: publisher, topic: Topic(config.Kafka{TopicPrefix: "rdm"})}

	bundle := entities.NewBundle(42, "user-register")
	bundle.Insert(entities.KindUser, map[string]any{"id": 1})

	assert.NoError(t, destination.Write(context.Background(), []*entities.Bundle{bundle, entities.NewBundle(43, "empty")}))
	assert.Len(t, publisher.msgs, 1)
	assert.Equal(t, "rdm.bundles", publisher.msgs[0].Topic)
	assert.JSONEq(t, `{"tx_id":42}`, string(publisher.msgs[0].Key))

	var decoded entities.Bundle
	assert.NoError(t, json.Unmarshal(publisher.msgs[0].Value, &decoded))
	assert.Equal(t, int64(42), decoded.TransactionID)
	assert.Equal(t, "user-register", decoded.Action)
	assert.Len(t, decoded.Entities, 1)
	assert.Equal(t, entities.KindUser, decoded.Entities[0].Kind)

	// Nothing to publish
	assert.NoError(t, destination.Write(context.Background(), nil))
	assert.Len(t, publisher.msgs, 1)

	assert.NoError(t, destination.Close())
	assert.True(t, publisher.closed)
}
