package config

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/zenodo/rdm-migrator/constants"
)

type Kafka struct {
	BootstrapServers string `yaml:"bootstrapServers"`
	GroupID          string `yaml:"groupID"`
	// TransactionTopic carries the Debezium transaction BEGIN/END markers.
	TransactionTopic string `yaml:"transactionTopic"`
	// DataTopics carry the row-level change events, usually one topic per captured table.
	DataTopics []string `yaml:"dataTopics"`
	AwsEnabled bool     `yaml:"awsEnabled"`

	PollTimeoutMs  int `yaml:"pollTimeoutMs,omitempty"`
	MaxPollRecords int `yaml:"maxPollRecords,omitempty"`

	// Producer side, only used by the kafka destination.
	TopicPrefix    string `yaml:"topicPrefix,omitempty"`
	PublishSize    uint   `yaml:"publishSize,omitempty"`
	MaxRequestSize uint64 `yaml:"maxRequestSize,omitempty"`
}

func (k *Kafka) BootstrapAddresses() []string {
	var addresses []string
	for _, address := range strings.Split(k.BootstrapServers, ",") {
		if address = strings.TrimSpace(address); address != "" {
			addresses = append(addresses, address)
		}
	}
	return addresses
}

func (k *Kafka) GetPollTimeout() time.Duration {
	if k.PollTimeoutMs > 0 {
		return time.Duration(k.PollTimeoutMs) * time.Millisecond
	}
	return constants.DefaultPollTimeout
}

func (k *Kafka) GetMaxPollRecords() int {
	return cmp.Or(k.MaxPollRecords, constants.DefaultMaxPollRecords)
}

func (k *Kafka) GetPublishSize() uint {
	return cmp.Or(k.PublishSize, constants.DefaultPublishSize)
}

func (k *Kafka) Validate() error {
	if k == nil {
		return fmt.Errorf("kafka config is nil")
	}

	if stringutil.Empty(k.BootstrapServers, k.GroupID, k.TransactionTopic) {
		return fmt.Errorf("one of the kafka settings is empty: bootstrapServers, groupID, transactionTopic")
	}

	if len(k.DataTopics) == 0 {
		return fmt.Errorf("no data topics passed in")
	}

	for _, topic := range k.DataTopics {
		if topic == "" {
			return fmt.Errorf("data topic name must be passed in")
		}
		if topic == k.TransactionTopic {
			return fmt.Errorf("data topic %q is also the transaction topic", topic)
		}
	}

	if k.PollTimeoutMs < 0 || k.MaxPollRecords < 0 {
		return fmt.Errorf("pollTimeoutMs and maxPollRecords must not be negative")
	}

	return nil
}
