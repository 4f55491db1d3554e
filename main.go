package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zenodo/rdm-migrator/actions"
	"github.com/zenodo/rdm-migrator/config"
	"github.com/zenodo/rdm-migrator/destinations"
	kafkadestination "github.com/zenodo/rdm-migrator/destinations/kafka"
	"github.com/zenodo/rdm-migrator/destinations/postgres"
	"github.com/zenodo/rdm-migrator/lib/logger"
	"github.com/zenodo/rdm-migrator/lib/mtr"
	"github.com/zenodo/rdm-migrator/lib/storage/persistedmap"
	"github.com/zenodo/rdm-migrator/sources/kafka"
	"github.com/zenodo/rdm-migrator/state"
	"github.com/zenodo/rdm-migrator/writers"
)

func setUpDestination(ctx context.Context, cfg *config.Settings, metrics mtr.Client) (destinations.Destination, error) {
	switch cfg.Destination {
	case config.DestinationPostgres:
		return postgres.New(ctx, *cfg.Postgres, metrics)
	case config.DestinationKafka:
		slog.Info("Kafka destination",
			slog.String("topic", kafkadestination.Topic(*cfg.Kafka)),
			slog.Any("publishSize", cfg.Kafka.GetPublishSize()),
		)
		return kafkadestination.New(ctx, *cfg.Kafka, metrics)
	default:
		return nil, fmt.Errorf("invalid destination: %q", cfg.Destination)
	}
}

// setUpState loads the caches from the state file, they only live in memory when none is configured.
func setUpState(cfg *config.Migration) (*state.MigrationContext, *state.Store, error) {
	mc := state.NewMigrationContext(state.UUIDGenerator{})
	if cfg.StateFile == "" {
		slog.Warn("No state file configured, caches will not survive a restart")
		return mc, nil, nil
	}

	store, err := state.Open(cfg.StateFile)
	if err != nil {
		return nil, nil, err
	}

	if err = store.Load(mc); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}

	slog.Info("Loaded state", slog.String("file", cfg.StateFile), slog.Int("parents", mc.Parents.Len()), slog.Int("records", mc.Records.Len()))
	return mc, store, nil
}

// lastCommitted returns the highest of the configured and the checkpointed transaction ids.
func lastCommitted(cfg *config.Migration, checkpoint *persistedmap.PersistedMap[int64]) int64 {
	if checkpoint == nil {
		return cfg.LastCommittedTransactionID
	}

	txID, isOk := checkpoint.Get(writers.CheckpointKey)
	if !isOk {
		return cfg.LastCommittedTransactionID
	}

	slog.Info("Found checkpoint", slog.Int64("txID", txID))
	return max(txID, cfg.LastCommittedTransactionID)
}

func serveMetrics(ctx context.Context, address string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down metrics server", slog.Any("err", err))
		}
	}()

	slog.Info("Serving metrics", slog.String("address", address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

func main() {
	var configFilePath string
	flag.StringVar(&configFilePath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.ReadConfig(configFilePath)
	if err != nil {
		logger.Fatal("Failed to read config file", slog.Any("err", err))
	}

	_logger, cleanUp := logger.NewLogger(cfg)
	defer cleanUp()
	slog.SetDefault(_logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := mtr.New(cfg.Metrics)
	if err != nil {
		logger.Fatal("Failed to set up metrics", slog.Any("err", err))
	}
	defer metrics.Flush()

	mc, store, err := setUpState(cfg.Migration)
	if err != nil {
		logger.Fatal("Failed to set up state", slog.Any("err", err))
	}
	if store != nil {
		defer store.Close()
	}

	writerOpts := []writers.Option{writers.WithLogProgress()}
	if store != nil {
		writerOpts = append(writerOpts, writers.WithStateStore(store))
	}

	var checkpoint *persistedmap.PersistedMap[int64]
	if cfg.Migration.CheckpointFile != "" {
		if checkpoint, err = persistedmap.NewPersistedMap[int64](cfg.Migration.CheckpointFile); err != nil {
			logger.Fatal("Failed to load checkpoint", slog.Any("err", err))
		}
		writerOpts = append(writerOpts, writers.WithCheckpoint(checkpoint))
	}

	destination, err := setUpDestination(ctx, cfg, metrics)
	if err != nil {
		logger.Fatal("Failed to set up destination", slog.Any("err", err))
	}
	defer destination.Close()

	streams, err := kafka.NewKafkaStreams(ctx, *cfg.Kafka)
	if err != nil {
		logger.Fatal("Failed to set up kafka streams", slog.Any("err", err))
	}

	opts := kafka.Options{
		LastCommittedTransactionID: lastCommitted(cfg.Migration, checkpoint),
		TxBuffer:                   cfg.Migration.GetTxBuffer(),
		RemoveUnchangedFields:      cfg.Migration.RemoveUnchangedFields,
	}
	slog.Info("Starting migration",
		slog.Int64("lastCommittedTransactionID", opts.LastCommittedTransactionID),
		slog.Int("txBuffer", opts.TxBuffer),
		slog.Bool("removeUnchangedFields", opts.RemoveUnchangedFields),
		slog.String("destination", string(cfg.Destination)),
	)

	iter := kafka.NewTransactionIterator(ctx, streams, opts, metrics)
	defer iter.Close()

	registry := actions.DefaultRegistry(actions.Settings{DOIPrefix: cfg.Migration.GetDOIPrefix()})
	writer := writers.New(destination, registry, mc, metrics, writerOpts...)

	pipelineCtx, pipelineDone := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(pipelineCtx)
	group.Go(func() error {
		defer pipelineDone()
		// Cancellation only stops the polling, what was already assembled is still written and committed.
		count, err := writer.Write(context.WithoutCancel(ctx), iter)
		if err != nil {
			return err
		}
		slog.Info("Migration stopped", slog.Int("transactions", count), slog.Int("backlog", iter.Backlog()))
		return nil
	})

	if prometheusClient, isOk := metrics.(*mtr.PrometheusClient); isOk {
		group.Go(func() error {
			return serveMetrics(groupCtx, cfg.Metrics.PrometheusAddress, prometheusClient.Handler())
		})
	}

	if err = group.Wait(); err != nil {
		logger.Fatal("Migration failed", slog.Any("err", err))
	}
}
