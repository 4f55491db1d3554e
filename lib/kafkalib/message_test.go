package kafkalib

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zenodo/rdm-migrator/config"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("zenodo.bundles", 42, map[string]any{"action": "draft-create"})
	assert.NoError(t, err)
	assert.Equal(t, "zenodo.bundles", msg.Topic)
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, `{"action":"draft-create"}`, string(msg.Value))

	_, err = NewMessage("zenodo.bundles", 42, map[string]any{"ch": make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal value")
}

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{"tx", "a", "b"}, Topics(config.Kafka{TransactionTopic: "tx", DataTopics: []string{"a", "b"}}))
}
