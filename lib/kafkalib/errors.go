package kafkalib

import (
	"errors"

	"github.com/segmentio/kafka-go"
)

func IsExceedMaxMessageBytesErr(err error) bool {
	var tooLarge kafka.MessageTooLargeError
	return err != nil && (errors.As(err, &tooLarge) || errors.Is(err, kafka.MessageSizeTooLarge))
}

// IsRetryableError returns true if the writer needs to be reloaded before retrying.
func IsRetryableError(err error) bool {
	return err != nil && errors.Is(err, kafka.TopicAuthorizationFailed)
}
