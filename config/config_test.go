package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenodo/rdm-migrator/constants"
)

func TestSettings_Validate(t *testing.T) {
	kafkaCfg := &Kafka{
		BootstrapServers: "localhost:9092",
		GroupID:          "rdm-migrator",
		TransactionTopic: "zenodo-migration.transaction",
		DataTopics:       []string{"zenodo-migration.public.records_metadata"},
	}
	postgresCfg := &Postgres{Host: "host", Port: 5432, Username: "username", Password: "password", Database: "database"}

	type _tc struct {
		name        string
		settings    *Settings
		expectedErr string
	}

	tcs := []_tc{
		{
			name:        "nil",
			expectedErr: "config is nil",
		},
		{
			name:        "nil kafka",
			settings:    &Settings{},
			expectedErr: "kafka config is nil",
		},
		{
			name:        "nil migration",
			settings:    &Settings{Kafka: kafkaCfg},
			expectedErr: "migration config is nil",
		},
		{
			name:        "invalid destination",
			settings:    &Settings{Kafka: kafkaCfg, Migration: &Migration{}, Destination: "foo"},
			expectedErr: `invalid destination: "foo"`,
		},
		{
			name:        "postgres destination without postgres config",
			settings:    &Settings{Kafka: kafkaCfg, Migration: &Migration{}, Destination: DestinationPostgres},
			expectedErr: "the PostgreSQL config is nil",
		},
		{
			name:        "kafka destination without topic prefix",
			settings:    &Settings{Kafka: kafkaCfg, Migration: &Migration{}, Destination: DestinationKafka},
			expectedErr: "kafka topic prefix must be set",
		},
		{
			name: "invalid metrics provider",
			settings: &Settings{
				Kafka:       kafkaCfg,
				Migration:   &Migration{},
				Destination: DestinationPostgres,
				Postgres:    postgresCfg,
				Metrics:     &Metrics{Provider: "graphite"},
			},
			expectedErr: `invalid metrics provider: "graphite"`,
		},
		{
			name: "valid",
			settings: &Settings{
				Kafka:       kafkaCfg,
				Migration:   &Migration{},
				Destination: DestinationPostgres,
				Postgres:    postgresCfg,
			},
		},
	}

	for _, tc := range tcs {
		err := tc.settings.Validate()
		if tc.expectedErr != "" {
			assert.ErrorContains(t, err, tc.expectedErr, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
	}
}

func TestKafka_Validate(t *testing.T) {
	{
		// Missing group id
		k := &Kafka{BootstrapServers: "localhost:9092", TransactionTopic: "tx", DataTopics: []string{"ops"}}
		assert.ErrorContains(t, k.Validate(), "one of the kafka settings is empty")
	}
	{
		// No data topics
		k := &Kafka{BootstrapServers: "localhost:9092", GroupID: "group", TransactionTopic: "tx"}
		assert.ErrorContains(t, k.Validate(), "no data topics passed in")
	}
	{
		// Data topic is the transaction topic
		k := &Kafka{BootstrapServers: "localhost:9092", GroupID: "group", TransactionTopic: "tx", DataTopics: []string{"tx"}}
		assert.ErrorContains(t, k.Validate(), `data topic "tx" is also the transaction topic`)
	}
	{
		// Defaults
		k := &Kafka{BootstrapServers: "a:9092, b:9092,", GroupID: "group", TransactionTopic: "tx", DataTopics: []string{"ops"}}
		assert.NoError(t, k.Validate())
		assert.Equal(t, []string{"a:9092", "b:9092"}, k.BootstrapAddresses())
		assert.Equal(t, constants.DefaultPollTimeout, k.GetPollTimeout())
		assert.Equal(t, constants.DefaultMaxPollRecords, k.GetMaxPollRecords())
		assert.Equal(t, uint(constants.DefaultPublishSize), k.GetPublishSize())

		k.PollTimeoutMs = 250
		assert.Equal(t, 250*time.Millisecond, k.GetPollTimeout())
	}
}

func TestMigration(t *testing.T) {
	{
		// Defaults
		m := &Migration{}
		assert.NoError(t, m.Validate())
		assert.Equal(t, constants.DefaultTxBuffer, m.GetTxBuffer())
		assert.Equal(t, "10.5281/zenodo", m.GetDOIPrefix())
	}
	{
		// Explicit zero buffer is honored
		zero := 0
		m := &Migration{TxBuffer: &zero, DOIPrefix: "10.1234/sandbox."}
		assert.NoError(t, m.Validate())
		assert.Equal(t, 0, m.GetTxBuffer())
		assert.Equal(t, "10.1234/sandbox", m.GetDOIPrefix())
	}
	{
		// Negative buffer
		negative := -1
		m := &Migration{TxBuffer: &negative}
		assert.ErrorContains(t, m.Validate(), "txBuffer must not be negative")
	}
	{
		// Same file for both
		m := &Migration{StateFile: "state.db", CheckpointFile: "state.db"}
		assert.ErrorContains(t, m.Validate(), "must be different files")
	}
}

func TestReadConfig(t *testing.T) {
	fp := fmt.Sprintf("%s/config.yaml", t.TempDir())
	contents := `
destination: postgres
kafka:
  bootstrapServers: localhost:9092
  groupID: rdm-migrator
  transactionTopic: zenodo-migration.transaction
  dataTopics:
    - zenodo-migration.public.records_metadata
    - zenodo-migration.public.pidstore_pid
migration:
  lastCommittedTransactionID: 1234
  txBuffer: 0
  removeUnchangedFields: true
postgres:
  host: localhost
  port: 5432
  username: zenodo
  password: zenodo
  database: zenodo
`
	require.NoError(t, os.WriteFile(fp, []byte(contents), 0o644))

	settings, err := ReadConfig(fp)
	assert.NoError(t, err)
	assert.Equal(t, DestinationPostgres, settings.Destination)
	assert.Len(t, settings.Kafka.DataTopics, 2)
	assert.Equal(t, int64(1234), settings.Migration.LastCommittedTransactionID)
	assert.Equal(t, 0, settings.Migration.GetTxBuffer())
	assert.True(t, settings.Migration.RemoveUnchangedFields)

	_, err = ReadConfig(fmt.Sprintf("%s/missing.yaml", t.TempDir()))
	assert.ErrorContains(t, err, "failed to read config file")
}
