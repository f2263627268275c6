package metrics

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/rcrowley/go-metrics"
)

var percentiles = []float64{0.5, 0.95, 0.99}

type codaHaleMetricsHandler struct {
	path     string
	registry metrics.Registry
	options  Options
}

// ServeHTTP writes the metrics whose key starts with the last segment of
// the request path, grouped by family. All metrics are written when the
// segment is empty.
func (c *codaHaleMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	_, key := path.Split(strings.TrimPrefix(r.URL.Path, c.path))
	families := c.collect(strings.TrimPrefix(key, c.options.Prefix))
	if len(families) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(families)
}

func (c *codaHaleMetricsHandler) collect(key string) map[string]map[string]any {
	families := make(map[string]map[string]any)
	c.registry.Each(func(name string, metric any) {
		if !strings.HasPrefix(name, key) {
			return
		}

		family, values := snapshot(metric)
		if family == "" {
			return
		}

		if families[family] == nil {
			families[family] = make(map[string]any)
		}

		families[family][c.options.Prefix+name] = values
	})

	return families
}

// snapshot returns the family and the current values of a metric. Metric
// types that are not reported return an empty family.
func snapshot(metric any) (string, map[string]any) {
	switch m := metric.(type) {
	case metrics.Counter:
		return "counters", map[string]any{"count": m.Snapshot().Count()}
	case metrics.Gauge:
		return "gauges", map[string]any{"value": m.Value()}
	case metrics.GaugeFloat64:
		return "gauges", map[string]any{"value": m.Snapshot().Value()}
	case metrics.Timer:
		t := m.Snapshot()
		ps := t.Percentiles(percentiles)
		return "timers", map[string]any{
			"count":     t.Count(),
			"min":       t.Min(),
			"max":       t.Max(),
			"mean":      t.Mean(),
			"median":    ps[0],
			"95%":       ps[1],
			"99%":       ps[2],
			"1m.rate":   t.Rate1(),
			"mean.rate": t.RateMean(),
		}
	default:
		return "", nil
	}
}
