package cdc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Source struct {
	Connector string `json:"connector"`
	DB        string `json:"db"`
	Schema    string `json:"schema"`
	Table     string `json:"table"`
	TxID      int64  `json:"txId"`
	LSN       int64  `json:"lsn"`
	TsMs      int64  `json:"ts_ms"`
}

type Payload struct {
	Before    map[string]any `json:"before"`
	After     map[string]any `json:"after"`
	Source    Source         `json:"source"`
	Operation string         `json:"op"`
	TsMs      int64          `json:"ts_ms"`
}

type DataCollection struct {
	DataCollection string `json:"data_collection"`
	EventCount     int    `json:"event_count"`
}

type TransactionPayload struct {
	Status          string           `json:"status"`
	ID              string           `json:"id"`
	EventCount      int              `json:"event_count"`
	DataCollections []DataCollection `json:"data_collections"`
}

const (
	StatusBegin = "BEGIN"
	StatusEnd   = "END"
)

// decode unmarshals a message body, unwrapping the `{"schema": ..., "payload": ...}` envelope when schemas are
// enabled on the connector. Numbers are kept as [json.Number].
func decode(data []byte, out any) error {
	var envelope struct {
		Payload json.RawMessage `json:"payload"`
	}

	body := data
	if err := newDecoder(data).Decode(&envelope); err == nil && len(envelope.Payload) > 0 && !bytes.Equal(envelope.Payload, []byte("null")) {
		body = envelope.Payload
	}

	return newDecoder(body).Decode(out)
}

func newDecoder(data []byte) *json.Decoder {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder
}

func isEmpty(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}

// ParseChangeEvent builds a [ChangeEvent] out of a Debezium row change message.
// It returns nil without an error for tombstones and heartbeats, which carry no body.
func ParseChangeEvent(key, value []byte) (*ChangeEvent, error) {
	if isEmpty(value) {
		return nil, nil
	}

	var payload Payload
	if err := decode(value, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode change event: %w", err)
	}

	if payload.Operation == "" {
		return nil, nil
	}

	op, err := NormalizeOperation(payload.Operation)
	if err != nil {
		return nil, err
	}

	var pk map[string]any
	if !isEmpty(key) {
		if err = decode(key, &pk); err != nil {
			return nil, fmt.Errorf("failed to decode change event key: %w", err)
		}
	}

	evt := &ChangeEvent{
		Operation:     op,
		Schema:        payload.Source.Schema,
		Table:         payload.Source.Table,
		Key:           pk,
		Before:        payload.Before,
		After:         payload.After,
		TransactionID: payload.Source.TxID,
		LSN:           payload.Source.LSN,
		TsMs:          payload.Source.TsMs,
	}

	if err = evt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid change event: %w", err)
	}

	return evt, nil
}

// ParseTransactionID parses Debezium transaction ids, formatted as `<txId>:<lsn>` for Postgres.
func ParseTransactionID(id string) (int64, error) {
	txID, _, _ := strings.Cut(id, ":")
	parsed, err := strconv.ParseInt(strings.TrimSpace(txID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse transaction id %q: %w", id, err)
	}
	return parsed, nil
}

// ParseTransactionInfo builds a [TransactionInfo] out of a Debezium transaction boundary message.
// It returns nil without an error for BEGIN markers and empty messages.
func ParseTransactionInfo(value []byte) (*TransactionInfo, error) {
	if isEmpty(value) {
		return nil, nil
	}

	var payload TransactionPayload
	if err := decode(value, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode transaction message: %w", err)
	}

	switch payload.Status {
	case StatusBegin, "":
		return nil, nil
	case StatusEnd:
	default:
		return nil, fmt.Errorf("unexpected transaction status: %q", payload.Status)
	}

	txID, err := ParseTransactionID(payload.ID)
	if err != nil {
		return nil, err
	}

	expected := make(map[string]int)
	for _, collection := range payload.DataCollections {
		if collection.EventCount > 0 {
			expected[collection.DataCollection] += collection.EventCount
		}
	}

	return &TransactionInfo{
		ID:                txID,
		ExpectedRowCounts: expected,
		EventCount:        payload.EventCount,
	}, nil
}
