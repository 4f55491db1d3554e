package constants

import "time"

const (
	DefaultPollTimeout    = 2 * time.Second
	DefaultMaxPollRecords = 5_000
	DefaultPublishSize    = 2_500
	// DefaultTxBuffer is the number of contiguous complete transactions the assembler waits for before emitting.
	DefaultTxBuffer = 2

	DefaultDOIPrefix = "10.5281/zenodo"
	DefaultOAIPrefix = "oai:zenodo.org:"
)
