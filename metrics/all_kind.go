package metrics

import (
	"net/http"
	"strings"
	"time"
)

// All sends every measurement to both a Prometheus and a CodaHale
// backend.
type All struct {
	prometheus *Prometheus
	codaHale   *CodaHale
}

func NewAll(o Options) *All {
	return &All{
		prometheus: NewPrometheus(o),
		codaHale:   NewCodaHale(o),
	}
}

func (a *All) MeasureSince(key string, start time.Time) {
	a.prometheus.MeasureSince(key, start)
	a.codaHale.MeasureSince(key, start)
}

func (a *All) IncCounter(key string) {
	a.prometheus.IncCounter(key)
	a.codaHale.IncCounter(key)
}

func (a *All) IncCounterBy(key string, value int64) {
	a.prometheus.IncCounterBy(key, value)
	a.codaHale.IncCounterBy(key, value)
}

func (a *All) UpdateGauge(key string, v float64) {
	a.prometheus.UpdateGauge(key, v)
	a.codaHale.UpdateGauge(key, v)
}

// CreateHandler serves the Prometheus format under path, and the CodaHale
// JSON format under path/codahale/.
func (a *All) CreateHandler(path string) http.Handler {
	codaHalePath := strings.TrimSuffix(path, "/") + "/codahale/"
	mux := http.NewServeMux()
	mux.Handle(codaHalePath, a.codaHale.CreateHandler(codaHalePath))
	mux.Handle(path, a.prometheus.CreateHandler())
	return mux
}
