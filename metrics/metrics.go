package metrics

import (
	"fmt"
	"strings"
	"time"
)

const (
	KeyCollectionLookup = "collection.lookup"
	KeyCollectionHit    = "collection.lookup.hit"
	KeyCollectionMiss   = "collection.lookup.miss"
	KeyCollectionAdd    = "collection.add"
	KeyCollectionReject = "collection.add.rejected"
)

// Kind selects the metrics backend.
type Kind int

const (
	UnknownKind Kind = iota
	CodaHaleKind
	PrometheusKind
	AllKind
)

func (k Kind) String() string {
	switch k {
	case CodaHaleKind:
		return "codahale"
	case PrometheusKind:
		return "prometheus"
	case AllKind:
		return "all"
	default:
		return "unknown"
	}
}

// ParseMetricsKind parses the name of a metrics flavour. The empty string
// selects no backend.
func ParseMetricsKind(t string) (Kind, error) {
	switch strings.ToLower(t) {
	case "":
		return UnknownKind, nil
	case "codahale":
		return CodaHaleKind, nil
	case "prometheus":
		return PrometheusKind, nil
	case "all":
		return AllKind, nil
	default:
		return UnknownKind, fmt.Errorf("invalid metrics flavour: %s", t)
	}
}

// Metrics is the interface implemented by the backends.
type Metrics interface {
	MeasureSince(key string, start time.Time)
	IncCounter(key string)
	IncCounterBy(key string, value int64)
	UpdateGauge(key string, value float64)
}

// Options for initializing metrics collection.
type Options struct {

	// Format selects the backend.
	Format Kind

	// Common prefix for the keys of the different
	// collected metrics.
	Prefix string

	// If set, Go runtime metrics are collected in
	// addition to the collection metrics.
	EnableRuntimeMetrics bool

	// The CodaHale timers use a uniform sample by default. With this
	// option, an exponentially decaying sample is used.
	UseExpDecaySample bool

	// Buckets of the Prometheus histograms. When not set, the Prometheus
	// defaults are used.
	HistogramBuckets []float64
}

var (
	Void    = NewVoid()
	Default Metrics = Void
)

// New creates the backend selected by the options. With an unknown kind,
// measurements are discarded.
func New(o Options) Metrics {
	switch o.Format {
	case CodaHaleKind:
		return NewCodaHale(o)
	case PrometheusKind:
		return NewPrometheus(o)
	case AllKind:
		return NewAll(o)
	default:
		return Void
	}
}
