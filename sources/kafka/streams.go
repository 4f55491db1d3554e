package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/zenodo/rdm-migrator/config"
	"github.com/zenodo/rdm-migrator/lib/kafkalib"
)

// ErrStreamsExhausted is returned by [Streams.Poll] once no more messages will ever arrive.
var ErrStreamsExhausted = errors.New("streams exhausted")

// Streams are the two inputs of the assembler: transaction boundaries and row changes.
type Streams interface {
	// Poll drains what is currently available. A poll that times out without messages is not an error.
	Poll(ctx context.Context) (txInfo []kafkago.Message, ops []kafkago.Message, err error)
	Commit(ctx context.Context, msgs []kafkago.Message) error
	Close() error
}

type fetcher interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type kafkaStreams struct {
	reader           fetcher
	transactionTopic string
	pollTimeout      time.Duration
	maxPollRecords   int
}

func NewKafkaStreams(ctx context.Context, cfg config.Kafka) (Streams, error) {
	reader, err := kafkalib.NewReader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka reader: %w", err)
	}

	return newKafkaStreams(reader, cfg), nil
}

func newKafkaStreams(reader fetcher, cfg config.Kafka) *kafkaStreams {
	return &kafkaStreams{
		reader:           reader,
		transactionTopic: cfg.TransactionTopic,
		pollTimeout:      cfg.GetPollTimeout(),
		maxPollRecords:   cfg.GetMaxPollRecords(),
	}
}

func (k *kafkaStreams) Poll(ctx context.Context) ([]kafkago.Message, []kafkago.Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, k.pollTimeout)
	defer cancel()

	var txInfo, ops []kafkago.Message
	for len(txInfo)+len(ops) < k.maxPollRecords {
		msg, err := k.reader.FetchMessage(pollCtx)
		if err != nil {
			if ctx.Err() != nil {
				return txInfo, ops, ctx.Err()
			}

			if errors.Is(err, context.DeadlineExceeded) {
				break
			}

			if errors.Is(err, io.EOF) {
				return txInfo, ops, ErrStreamsExhausted
			}

			return txInfo, ops, fmt.Errorf("failed to fetch message: %w", err)
		}

		if msg.Topic == k.transactionTopic {
			txInfo = append(txInfo, msg)
		} else {
			ops = append(ops, msg)
		}
	}

	slog.Debug("Polled kafka", slog.Int("txInfo", len(txInfo)), slog.Int("ops", len(ops)))
	return txInfo, ops, nil
}

func (k *kafkaStreams) Commit(ctx context.Context, msgs []kafkago.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if err := k.reader.CommitMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to commit %d messages: %w", len(msgs), err)
	}
	return nil
}

func (k *kafkaStreams) Close() error {
	return k.reader.Close()
}

// StaticPoll is one result of [StaticStreams.Poll].
type StaticPoll struct {
	TxInfo []kafkago.Message
	Ops    []kafkago.Message
}

// StaticStreams replays a fixed list of polls, then reports [ErrStreamsExhausted].
type StaticStreams struct {
	polls     []StaticPoll
	Committed []kafkago.Message
	Closed    bool
}

func NewStaticStreams(polls ...StaticPoll) *StaticStreams {
	return &StaticStreams{polls: polls}
}

func (s *StaticStreams) Poll(ctx context.Context) ([]kafkago.Message, []kafkago.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if len(s.polls) == 0 {
		return nil, nil, ErrStreamsExhausted
	}

	poll := s.polls[0]
	s.polls = s.polls[1:]
	return poll.TxInfo, poll.Ops, nil
}

func (s *StaticStreams) Commit(_ context.Context, msgs []kafkago.Message) error {
	s.Committed = append(s.Committed, msgs...)
	return nil
}

func (s *StaticStreams) Close() error {
	s.Closed = true
	return nil
}
