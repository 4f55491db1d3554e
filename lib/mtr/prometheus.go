package mtr

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusClient registers collectors lazily, the first use of a metric name fixes its label names.
type PrometheusClient struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusClient(namespace string) *PrometheusClient {
	namespace = strings.Trim(sanitize(namespace), "_")
	if namespace == "" {
		namespace = strings.Trim(DefaultNamespace, ".")
	}

	return &PrometheusClient{
		namespace:  namespace,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Handler serves the registered metrics in the exposition format.
func (p *PrometheusClient) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func sanitize(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p *PrometheusClient) counter(name string, tags map[string]string) prometheus.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, isOk := p.counters[name]
	if !isOk {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: p.namespace, Name: sanitize(name) + "_total"}, labelNames(tags))
		p.registry.MustRegister(vec)
		p.counters[name] = vec
	}
	return vec.With(tags)
}

func (p *PrometheusClient) gauge(name string, tags map[string]string) prometheus.Gauge {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, isOk := p.gauges[name]
	if !isOk {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: p.namespace, Name: sanitize(name)}, labelNames(tags))
		p.registry.MustRegister(vec)
		p.gauges[name] = vec
	}
	return vec.With(tags)
}

func (p *PrometheusClient) histogram(name string, tags map[string]string) prometheus.Observer {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, isOk := p.histograms[name]
	if !isOk {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_seconds",
			Buckets:   prometheus.DefBuckets,
		}, labelNames(tags))
		p.registry.MustRegister(vec)
		p.histograms[name] = vec
	}
	return vec.With(tags)
}

func (p *PrometheusClient) Timing(name string, value time.Duration, tags map[string]string) {
	p.histogram(name, tags).Observe(value.Seconds())
}

func (p *PrometheusClient) Incr(name string, tags map[string]string) {
	p.counter(name, tags).Inc()
}

func (p *PrometheusClient) Gauge(name string, value float64, tags map[string]string) {
	p.gauge(name, tags).Set(value)
}

func (p *PrometheusClient) Count(name string, value int64, tags map[string]string) {
	p.counter(name, tags).Add(float64(value))
}

// Flush is a no-op, metrics are pulled.
func (p *PrometheusClient) Flush() {}
