package config

import (
	"fmt"
	"strings"

	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/zenodo/rdm-migrator/constants"
)

type Migration struct {
	// LastCommittedTransactionID - messages belonging to this transaction id or lower are acknowledged and dropped.
	LastCommittedTransactionID int64 `yaml:"lastCommittedTransactionID"`
	// TxBuffer - nil means [constants.DefaultTxBuffer], zero disables the reordering cushion.
	TxBuffer              *int `yaml:"txBuffer,omitempty"`
	RemoveUnchangedFields bool `yaml:"removeUnchangedFields"`

	// StateFile is where the cross-transaction caches are persisted, they are kept in memory if it is empty.
	StateFile      string `yaml:"stateFile,omitempty"`
	CheckpointFile string `yaml:"checkpointFile,omitempty"`
	DOIPrefix      string `yaml:"doiPrefix,omitempty"`
}

func (m *Migration) GetTxBuffer() int {
	if m.TxBuffer == nil {
		return constants.DefaultTxBuffer
	}
	return *m.TxBuffer
}

func (m *Migration) GetDOIPrefix() string {
	return strings.TrimSuffix(stringutil.Override(constants.DefaultDOIPrefix, m.DOIPrefix), ".")
}

func (m *Migration) Validate() error {
	if m == nil {
		return fmt.Errorf("migration config is nil")
	}

	if m.TxBuffer != nil && *m.TxBuffer < 0 {
		return fmt.Errorf("txBuffer must not be negative")
	}

	if m.LastCommittedTransactionID < 0 {
		return fmt.Errorf("lastCommittedTransactionID must not be negative")
	}

	if m.StateFile != "" && m.StateFile == m.CheckpointFile {
		return fmt.Errorf("stateFile and checkpointFile must be different files")
	}

	return nil
}
