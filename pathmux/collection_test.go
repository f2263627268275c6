package pathmux

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/scoizzle/poly/logging"
	"github.com/scoizzle/poly/matcher"
	"github.com/scoizzle/poly/metrics"
)

func TestFirstMatchWins(t *testing.T) {
	for _, tt := range []struct {
		name  string
		order []string
		want  string
	}{{
		name:  "wildcard first",
		order: []string{"*.example.com", "www.example.com"},
		want:  "*.example.com",
	}, {
		name:  "literal first",
		order: []string{"www.example.com", "*.example.com"},
		want:  "www.example.com",
	}} {
		t.Run(tt.name, func(t *testing.T) {
			c := New[string]('.')
			for _, k := range tt.order {
				require.True(t, c.Add(k, k))
			}

			assert.Equal(t, tt.want, c.Get("www.example.com"))
			assert.Equal(t, "*.example.com", c.Get("api.example.com"))
		})
	}
}

func TestNoSiblingBacktracking(t *testing.T) {
	c := New[string]('/')
	require.True(t, c.Add("{section}/index", "index"))
	require.True(t, c.Add("docs/readme", "readme"))

	// the first group matches "docs", and it has no item for "readme"
	_, ok := c.TryGet("docs/readme")
	assert.False(t, ok)

	v, ok := c.TryGet("blog/index")
	assert.True(t, ok)
	assert.Equal(t, "index", v)
}

func TestAdd(t *testing.T) {
	c := New[int]('.')
	assert.True(t, c.Add("a.b", 1))
	assert.True(t, c.Add("a.c", 2))
	assert.True(t, c.Add("a", 3))
	assert.False(t, c.Add("a.b", 4), "duplicate")
	assert.False(t, c.Add("a.{b", 5), "invalid section")
	assert.False(t, c.Add("x.b]", 6), "invalid section")
	assert.Equal(t, 3, c.Len())

	assert.Equal(t, 1, c.Get("a.b"))
	assert.Equal(t, 2, c.Get("a.c"))
	assert.Equal(t, 3, c.Get("a"))

	// invalid keys do not leave groups behind
	assert.Equal(t, "a (match)\n  b (match)\n  c (match)\n", c.String())
}

func TestGetMiss(t *testing.T) {
	c := New[string]('.')
	require.True(t, c.Add("{host}.example.org", "host"))

	for _, key := range []string{
		"",
		"example.org",
		"www.example.com",
		"a.b.example.org",
	} {
		t.Run(key, func(t *testing.T) {
			v, ok := c.TryGet(key)
			assert.False(t, ok)
			assert.Empty(t, v)
			assert.Empty(t, c.Get(key))
		})
	}
}

func TestLookup(t *testing.T) {
	c := New[string]('/')
	require.True(t, c.Add("users/{id:*:int}/{action}", "user"))
	require.True(t, c.Add("files/*", "files"))

	params := matcher.Values{}
	v, ok := c.Lookup("users/42/edit", params)
	require.True(t, ok)
	assert.Equal(t, "user", v)
	if d := cmp.Diff(matcher.Values{"id": 42, "action": "edit"}, params); d != "" {
		t.Errorf("wrong captures (-want +got):\n%s", d)
	}

	params = matcher.Values{"kept": true}
	_, ok = c.Lookup("users/x/edit", params)
	assert.False(t, ok, "modifier rejects the section")
	assert.Equal(t, matcher.Values{"kept": true}, params)

	v, ok = c.Lookup("files/a.txt", nil)
	assert.True(t, ok)
	assert.Equal(t, "files", v)
}

func TestLookupLaterSectionsOverwrite(t *testing.T) {
	c := New[bool]('.')
	require.True(t, c.Add("{name}.{name}", true))

	s := matcher.NewStore()
	_, ok := c.Lookup("first.second", s)
	require.True(t, ok)

	v, _ := s.Get("name")
	assert.Equal(t, "second", v)
}

func TestSet(t *testing.T) {
	c := New[string]('.')
	require.True(t, c.Add("*.example.org", "wildcard"))

	assert.True(t, c.Set("www.example.org", "replaced"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "replaced", c.Get("other.example.org"))

	assert.True(t, c.Set("localhost", "added"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "added", c.Get("localhost"))
}

func TestRemove(t *testing.T) {
	c := New[int]('/')
	require.True(t, c.Add("api/v1/{resource}", 1))
	require.True(t, c.Add("api/v2/{resource}", 2))

	assert.False(t, c.Remove("api/v1/users"), "not an equivalent key")
	assert.False(t, c.Remove("api/v3/{resource}"))
	assert.True(t, c.Remove("api/v1/{resource}"))
	assert.False(t, c.Remove("api/v1/{resource}"))
	assert.Equal(t, 1, c.Len())

	_, ok := c.TryGet("api/v1/users")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Get("api/v2/users"))
	assert.Equal(t, "api\n  v2\n    {resource} (match)\n", c.String())

	assert.True(t, c.Remove("api/v2/{resource}"))
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.String())
}

func TestClear(t *testing.T) {
	c := New[int]('.')
	require.True(t, c.Add("a.b", 1))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.TryGet("a.b")
	assert.False(t, ok)
	assert.True(t, c.Add("a.b", 2))
}

func TestSplitPattern(t *testing.T) {
	for _, tt := range []struct {
		key  string
		want []string
	}{
		{"", []string{""}},
		{"a.b.c", []string{"a", "b", "c"}},
		{"{a:x.y}.b", []string{"{a:x.y}", "b"}},
		{"[www.]example", []string{"[www.]example"}},
		{`a\.b.c`, []string{`a\.b`, "c"}},
		{"a..b", []string{"a", "", "b"}},
	} {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, splitPattern(tt.key, '.'))
		})
	}
}

func TestMatcherOptions(t *testing.T) {
	even := &matcher.Modifier{
		Name: "even",
		Apply: func(s string) (any, error) {
			n, err := strconv.Atoi(s)
			if err != nil || n%2 != 0 {
				return nil, errors.New("not even")
			}

			return n, nil
		},
	}

	c := New[string]('/', WithMatcherOptions(matcher.WithModifiers(even)))
	require.True(t, c.Add("page/{n:*:even}", "even"))
	require.True(t, c.Add("page/{n}", "other"))

	s := matcher.NewStore()
	v, ok := c.Lookup("page/4", s)
	require.True(t, ok)
	assert.Equal(t, "even", v)
	n, _ := s.Get("n")
	assert.Equal(t, 4, n)

	// a failing modifier falls through to the next item for both Get and
	// Lookup
	assert.Equal(t, "other", c.Get("page/3"))
	v, ok = c.Lookup("page/3", nil)
	require.True(t, ok)
	assert.Equal(t, "other", v)

	assert.False(t, New[string]('/').Add("page/{n:*:even}", ""), "unknown modifier")
}

func TestGetAgreesWithLookup(t *testing.T) {
	c := New[string]('/')
	require.True(t, c.Add("users/{id:*:int}", "by id"))
	require.True(t, c.Add("users/{name}", "by name"))

	for key, want := range map[string]string{
		"users/42":  "by id",
		"users/abc": "by name",
	} {
		assert.Equal(t, want, c.Get(key), key)

		v, ok := c.Lookup(key, matcher.NewStore())
		require.True(t, ok, key)
		assert.Equal(t, want, v, key)
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timers   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: make(map[string]int64), timers: make(map[string]int)}
}

func (m *recordingMetrics) MeasureSince(key string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers[key]++
}

func (m *recordingMetrics) IncCounter(key string) { m.IncCounterBy(key, 1) }

func (m *recordingMetrics) IncCounterBy(key string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += value
}

func (m *recordingMetrics) UpdateGauge(string, float64) {}

func TestMetrics(t *testing.T) {
	m := newRecordingMetrics()
	c := New[int]('.', WithMetrics(m))

	c.Add("a.b", 1)
	c.Add("a.b", 2)
	c.Add("a.{", 3)
	c.Get("a.b")
	c.Get("a.c")
	c.Lookup("a.b", nil)

	assert.Equal(t, map[string]int64{
		metrics.KeyCollectionAdd:    1,
		metrics.KeyCollectionReject: 2,
		metrics.KeyCollectionHit:    2,
		metrics.KeyCollectionMiss:   1,
	}, m.counters)
	assert.Equal(t, map[string]int{metrics.KeyCollectionLookup: 3}, m.timers)
}

func TestLogger(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)

	c := New[int]('.', WithLogger(logging.Wrap(l)))
	c.Add("a", 1)
	c.Add("a", 1)

	assert.Contains(t, buf.String(), "rejected duplicate key")
	assert.Contains(t, buf.String(), "key=a")
}

func TestVizTree(t *testing.T) {
	c := New[bool]('.')
	for _, k := range []string{
		"*.example.com",
		"www.example.com",
		"example.com",
		"example",
		"{host}.example.net",
	} {
		require.True(t, c.Add(k, true))
	}

	v := NewVizTree(c)
	assert.False(t, v.CanMatch)

	var paths []string
	for _, ch := range v.Children {
		paths = append(paths, ch.Path)
	}

	assert.Equal(t, []string{"example", "*", "www", "{host}"}, paths)
	assert.True(t, v.child("example").CanMatch, "item merged with group")
	assert.Equal(t, "com", v.child("example").Children[0].Path)

	assert.Equal(t, `example (match)
  com (match)
*
  example
    com (match)
www
  example
    com (match)
{host}
  example
    net (match)
`, c.String())
}

func TestConcurrentLookup(t *testing.T) {
	c := New[int]('/')
	for i := 0; i < 16; i++ {
		require.True(t, c.Add(fmt.Sprintf("svc%d/{id}", i), i))
	}

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				s := matcher.NewStore()
				v, ok := c.Lookup(fmt.Sprintf("svc%d/%d", i, j), s)
				if !ok || v != i {
					return fmt.Errorf("lookup failed for %d/%d: %v", i, j, v)
				}

				if id, _ := s.Get("id"); id != strconv.Itoa(j) {
					return fmt.Errorf("wrong capture: %v", id)
				}
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
}
