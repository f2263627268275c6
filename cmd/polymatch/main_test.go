package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoizzle/poly/matcher"
	"github.com/scoizzle/poly/metrics"
	"github.com/scoizzle/poly/pathmux"
)

const testRoutes = `[{key: "{host}.example.org", value: host}, {key: "*.example.com", value: {backend: b}}]`

func TestRun(t *testing.T) {
	for _, tt := range []struct {
		name   string
		args   []string
		output string
		err    error
	}{{
		name: "match",
		args: []string{"match", "{Host}:{Port:*:int}", "example.org:8080"},
		output: `{
  "Host": "example.org",
  "Port": 8080
}
`,
	}, {
		name:   "match yaml",
		args:   []string{"match", "-output", "yaml", "{Host}:{Port:*:int}", "example.org:8080"},
		output: "Host: example.org\nPort: 8080\n",
	}, {
		name: "match miss",
		args: []string{"match", "{Host}:{Port:*:int}", "example.org"},
		err:  errNoMatch,
	}, {
		name: "match invalid pattern",
		args: []string{"match", "{Host", "example.org"},
		err:  matcher.ErrUnbalanced,
	}, {
		name: "all",
		args: []string{"all", "-single", "{Key}={Value};", "a=1;b=2;"},
		output: `{
  "a": "1",
  "b": "2"
}
`,
	}, {
		name: "all miss",
		args: []string{"all", "{Key}={Value};", "nothing"},
		err:  errNoMatch,
	}, {
		name:   "template",
		args:   []string{"template", "{Host}:{Port}", "Host=example.org", "Port=80"},
		output: "example.org:80\n",
	}, {
		name:   "template paired",
		args:   []string{"template", "/x&{Param:{Key}={Value}}", "Param.Key=a", "Param.Value=b"},
		output: "/x&a=b\n",
	}, {
		name: "template wildcard",
		args: []string{"template", "{Host}*", "Host=a"},
		err:  matcher.ErrNotTemplatable,
	}, {
		name:   "template pair from single value",
		args:   []string{"template", "/x&{Param:{Key}={Value}}", "Param.a=b"},
		output: "/x&a=b\n",
	}, {
		name: "template missing value",
		args: []string{"template", "{Host}:{Port}", "Host=example.org"},
		err:  matcher.ErrMissingValue,
	}, {
		name: "template invalid value",
		args: []string{"template", "{Host}", "Host"},
		err:  &usageError{},
	}, {
		name: "route",
		args: []string{"route", "-separator", ".", "-routes", testRoutes, "www.example.org"},
		output: `[
  {
    "key": "www.example.org",
    "value": "host",
    "params": {
      "host": "www"
    }
  }
]
`,
	}, {
		name: "route without params",
		args: []string{"route", "-separator", ".", "-output", "yaml", "-routes", testRoutes, "api.example.com"},
		output: `- key: api.example.com
  value:
    backend: b
`,
	}, {
		name: "route miss",
		args: []string{"route", "-separator", ".", "-routes", testRoutes, "example.net"},
		err:  errNoMatch,
	}, {
		name: "route without key",
		args: []string{"route"},
		err:  errInvalidNumberOfArgs,
	}, {
		name:   "tree",
		args:   []string{"tree", "-separator", ".", "-routes", testRoutes},
		output: "{host}\n  example\n    org (match)\n*\n  example\n    com (match)\n",
	}, {
		name: "invalid number of args",
		args: []string{"match", "{Host}"},
		err:  errInvalidNumberOfArgs,
	}, {
		name: "invalid flag",
		args: []string{"match", "-no-such-flag", "{Host}", "x"},
		err:  &usageError{},
	}, {
		name: "missing command",
		err:  errMissingCommand,
	}, {
		name: "invalid command",
		args: []string{"check"},
		err:  errInvalidCommand,
	}} {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(append([]string{"polymatch"}, tt.args...), &out)

			switch {
			case tt.err == nil:
				require.NoError(t, err)
				assert.Equal(t, tt.output, out.String())
			case errors.As(tt.err, new(*usageError)) && tt.err.(*usageError).err == nil:
				var uerr *usageError
				assert.ErrorAs(t, err, &uerr)
			default:
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestParseValues(t *testing.T) {
	v, err := parseValues([]string{"a=1", "b.c=2", "b.d=x=y", "e="})
	require.NoError(t, err)
	assert.Equal(t, matcher.Values{
		"a": "1",
		"b": matcher.Values{"c": "2", "d": "x=y"},
		"e": "",
	}, v)

	_, err = parseValues([]string{"=1"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errNoMatch))
	assert.Equal(t, -1, exitCode(errInvalidCommand))
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	usage(&buf)
	assert.Contains(t, buf.String(), "-routes-file")
	assert.Contains(t, buf.String(), "Commands: match, all, template, route, tree, serve, help")
}

func testCollection(t *testing.T, m metrics.Metrics) *pathmux.Collection[any] {
	c := pathmux.New[any]('.', pathmux.WithMetrics(m))
	require.True(t, c.Add("{host}.example.org", "host"))
	require.True(t, c.Add("*.example.com", map[string]any{"backend": "b"}))
	return c
}

func get(t *testing.T, url string) (int, string) {
	rsp, err := http.Get(url)
	require.NoError(t, err)
	defer rsp.Body.Close()

	b, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	return rsp.StatusCode, string(b)
}

func TestServeLookup(t *testing.T) {
	m := metrics.NewPrometheus(metrics.Options{})
	s := httptest.NewServer(newServeMux(testCollection(t, m), m))
	defer s.Close()

	code, body := get(t, s.URL+"/lookup/www.example.org")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"key": "www.example.org", "value": "host", "params": {"host": "www"}}`, body)

	code, body = get(t, s.URL+"/lookup/api.example.com")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"key": "api.example.com", "value": {"backend": "b"}}`, body)

	code, _ = get(t, s.URL+"/lookup/example.net")
	assert.Equal(t, http.StatusNotFound, code)

	rsp, err := http.Post(s.URL+"/lookup/www.example.org", "text/plain", nil)
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, rsp.StatusCode)

	code, body = get(t, s.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `poly_custom_total{key="collection.lookup.hit"} 2`)
	assert.Contains(t, body, `poly_custom_total{key="collection.lookup.miss"} 1`)
}

func TestServeWithoutMetrics(t *testing.T) {
	s := httptest.NewServer(newServeMux(testCollection(t, metrics.Void), metrics.Void))
	defer s.Close()

	code, _ := get(t, s.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsHandler(t *testing.T) {
	assert.NotNil(t, metricsHandler(metrics.NewCodaHale(metrics.Options{})))
	assert.NotNil(t, metricsHandler(metrics.NewAll(metrics.Options{})))
	assert.Nil(t, metricsHandler(nil))
}
