package kafkalib

import (
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// NewMessage builds a message with a JSON encoded key and value.
func NewMessage(topic string, key any, value any) (kafka.Message, error) {
	keyBytes, err := json.Marshal(key)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal key: %w", err)
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal value: %w", err)
	}

	return kafka.Message{
		Topic: topic,
		Key:   keyBytes,
		Value: valueBytes,
	}, nil
}
