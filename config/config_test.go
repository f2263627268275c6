package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoizzle/poly/metrics"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ParseArgs("polymatch", nil))

	assert.Equal(t, byte('/'), cfg.Separator)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.False(t, cfg.Single)
	assert.Equal(t, metrics.CodaHaleKind, cfg.MetricsKind)
	assert.Equal(t, log.WarnLevel, cfg.ApplicationLogLevel)
	assert.Nil(t, cfg.HistogramMetricBuckets)
	assert.Empty(t, cfg.Args)

	rt, err := cfg.Routes()
	require.NoError(t, err)
	assert.Empty(t, rt)
}

func TestArgs(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ParseArgs("polymatch", []string{"-output", "yaml", "-single", "{a}.{b}", "x.y"}))

	assert.Equal(t, OutputYAML, cfg.Output)
	assert.True(t, cfg.Single)
	assert.Equal(t, []string{"{a}.{b}", "x.y"}, cfg.Args)
}

func TestConfigFile(t *testing.T) {
	cfg := NewConfig()
	err := cfg.ParseArgs("polymatch", []string{
		"-config-file=testdata/test.yaml",
		"-output", "json",
		"-routes", "{key: extra, value: 1}",
		"extra.key",
	})
	require.NoError(t, err)

	assert.Equal(t, byte('.'), cfg.Separator)
	assert.Equal(t, OutputJSON, cfg.Output, "flags take precedence")
	assert.True(t, cfg.Single)
	assert.Equal(t, metrics.AllKind, cfg.MetricsKind)
	assert.Equal(t, []float64{0.1, 0.5}, cfg.HistogramMetricBuckets)
	assert.Equal(t, log.DebugLevel, cfg.ApplicationLogLevel)
	assert.Equal(t, []string{"extra.key"}, cfg.Args)

	rt, err := cfg.Routes()
	require.NoError(t, err)

	want := RouteTable{
		{Key: "{host}.example.org", Value: "host"},
		{Key: "*.example.org", Value: map[string]any{"backend": "wildcard", "ports": []any{80, 443}}},
		{Key: "localhost", Value: "local"},
		{Key: "extra", Value: 1},
	}

	if d := cmp.Diff(want, rt); d != "" {
		t.Errorf("wrong routes (-want +got):\n%s", d)
	}

	lo := cfg.LoggingOptions()
	assert.Equal(t, "[poly]", lo.ApplicationLogPrefix)
	assert.Equal(t, log.DebugLevel, lo.ApplicationLogLevel)
	assert.True(t, lo.ApplicationLogLevelSet)

	mo := cfg.MetricsOptions()
	assert.Equal(t, metrics.AllKind, mo.Format)
	assert.Equal(t, "poly.", mo.Prefix)
	assert.True(t, mo.EnableRuntimeMetrics)
}

func TestInvalidConfig(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
	}{
		{"separator", []string{"-separator", "::"}},
		{"empty separator", []string{"-separator", ""}},
		{"output", []string{"-output", "xml"}},
		{"log level", []string{"-application-log-level", "LOUD"}},
		{"buckets", []string{"-histogram-metric-buckets", "1,x"}},
		{"metrics flavour", []string{"-metrics-flavour", "statsd"}},
		{"inline routes", []string{"-routes", "[{value: 1}]"}},
		{"unknown flag", []string{"-no-such-flag"}},
		{"missing config file", []string{"-config-file", "testdata/missing.yaml"}},
		{"invalid config file", []string{"-config-file", "testdata/invalid.yaml"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Flags.SetOutput(nowrite{})
			assert.Error(t, cfg.ParseArgs("polymatch", tt.args))
		})
	}
}

func TestMissingRoutesFile(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ParseArgs("polymatch", []string{"-routes-file", "testdata/missing.yaml"}))

	_, err := cfg.Routes()
	assert.Error(t, err)
}

type nowrite struct{}

func (nowrite) Write(b []byte) (int, error) { return len(b), nil }
