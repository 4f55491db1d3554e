package mtr

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/zenodo/rdm-migrator/config"
)

const (
	DefaultNamespace = "migrator."
	// DefaultAddr is the default address for where the DD agent would be running on a single host machine
	DefaultAddr = "127.0.0.1:8125"
)

type Client interface {
	Timing(name string, value time.Duration, tags map[string]string)
	Incr(name string, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Count(name string, value int64, tags map[string]string)
	Flush()
}

// New returns the client of the configured provider, metrics are dropped when none is configured.
func New(cfg *config.Metrics) (Client, error) {
	if cfg == nil {
		return NullClient{}, nil
	}

	switch cfg.Provider {
	case config.MetricsDatadog:
		return newDatadogClient(cfg.Namespace, cfg.Tags)
	case config.MetricsPrometheus:
		return NewPrometheusClient(cfg.Namespace), nil
	case "":
		return NullClient{}, nil
	default:
		return nil, fmt.Errorf("unsupported metrics provider: %q", cfg.Provider)
	}
}

func datadogAddress() string {
	host := os.Getenv("TELEMETRY_HOST")
	port := os.Getenv("TELEMETRY_PORT")
	if stringutil.Empty(host, port) {
		return DefaultAddr
	}

	address := fmt.Sprintf("%s:%s", host, port)
	slog.Info("Overriding telemetry address with env vars", slog.String("address", address))
	return address
}
