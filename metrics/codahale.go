package metrics

import (
	"net/http"
	"time"

	"github.com/rcrowley/go-metrics"
)

const (
	statsRefreshDuration = 5 * time.Second

	defaultUniformReservoirSize  = 1024
	defaultExpDecayReservoirSize = 1028
	defaultExpDecayAlpha         = 0.015
)

// CodaHale is the CodaHale format backend, implements Metrics interface in DropWizard's CodaHale metrics format.
type CodaHale struct {
	reg           metrics.Registry
	createTimer   func() metrics.Timer
	createCounter func() metrics.Counter
	createGauge   func() metrics.GaugeFloat64
	options       Options
}

// NewCodaHale returns a new CodaHale backend of metrics.
func NewCodaHale(o Options) *CodaHale {
	c := &CodaHale{}
	c.reg = metrics.NewRegistry()

	c.createTimer = func() metrics.Timer {
		var sample metrics.Sample
		if o.UseExpDecaySample {
			sample = metrics.NewExpDecaySample(defaultExpDecayReservoirSize, defaultExpDecayAlpha)
		} else {
			sample = metrics.NewUniformSample(defaultUniformReservoirSize)
		}

		return metrics.NewCustomTimer(metrics.NewHistogram(sample), metrics.NewMeter())
	}

	c.createCounter = metrics.NewCounter
	c.createGauge = metrics.NewGaugeFloat64
	c.options = o

	if o.EnableRuntimeMetrics {
		metrics.RegisterRuntimeMemStats(c.reg)
		go metrics.CaptureRuntimeMemStats(c.reg, statsRefreshDuration)
	}

	return c
}

// NewVoid returns a backend that discards every measurement.
func NewVoid() *CodaHale {
	c := &CodaHale{}
	c.reg = metrics.NewRegistry()
	c.createTimer = func() metrics.Timer { return metrics.NilTimer{} }
	c.createCounter = func() metrics.Counter { return metrics.NilCounter{} }
	c.createGauge = func() metrics.GaugeFloat64 { return metrics.NilGaugeFloat64{} }
	return c
}

func (c *CodaHale) getTimer(key string) metrics.Timer {
	return c.reg.GetOrRegister(key, c.createTimer).(metrics.Timer)
}

func (c *CodaHale) getCounter(key string) metrics.Counter {
	return c.reg.GetOrRegister(key, c.createCounter).(metrics.Counter)
}

func (c *CodaHale) getGauge(key string) metrics.GaugeFloat64 {
	return c.reg.GetOrRegister(key, c.createGauge).(metrics.GaugeFloat64)
}

func (c *CodaHale) MeasureSince(key string, start time.Time) {
	if t := c.getTimer(key); t != nil {
		t.UpdateSince(start)
	}
}

func (c *CodaHale) IncCounter(key string) {
	c.IncCounterBy(key, 1)
}

func (c *CodaHale) IncCounterBy(key string, value int64) {
	if counter := c.getCounter(key); counter != nil {
		counter.Inc(value)
	}
}

func (c *CodaHale) UpdateGauge(key string, v float64) {
	if g := c.getGauge(key); g != nil {
		g.Update(v)
	}
}

// CreateHandler returns a handler serving the registry as JSON. The last
// segment of the request path after path selects the metrics by key
// prefix.
func (c *CodaHale) CreateHandler(path string) http.Handler {
	return &codaHaleMetricsHandler{path: path, registry: c.reg, options: c.options}
}
