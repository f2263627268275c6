/*
Package pathmux implements a lookup table for values associated to
hierarchical keys, where every section of a key is a matcher pattern.

Keys are split into sections on a separator character, e.g. '.' for host
names or '/' for paths. Every section but the last one selects a group,
and the last one selects an item in that group. Sections are compared in
insertion order, and the first sibling that matches a section is taken.
There is no backtracking to later siblings, so when patterns overlap, the
one added first wins:

	c := pathmux.New[string]('.')
	c.Add("*.example.org", "any")
	c.Add("www.example.org", "www")
	c.Get("www.example.org") // "any"
*/
package pathmux

import (
	"time"

	"github.com/scoizzle/poly/logging"
	"github.com/scoizzle/poly/matcher"
	"github.com/scoizzle/poly/metrics"
)

type item[V any] struct {
	key   *matcher.Matcher
	value V
}

type group[V any] struct {
	key    *matcher.Matcher
	groups []*group[V]
	items  []*item[V]
}

type options struct {
	metrics        metrics.Metrics
	log            logging.Logger
	matcherOptions []matcher.Option
}

// Option customizes a collection.
type Option func(*options)

// WithMetrics sets the backend receiving lookup and insert measurements.
func WithMetrics(m metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMatcherOptions sets the options used to compile the key sections.
func WithMatcherOptions(mo ...matcher.Option) Option {
	return func(o *options) { o.matcherOptions = append(o.matcherOptions, mo...) }
}

// WithLogger sets the logger used for diagnostics. Defaults to the
// standard application log.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// Collection stores values by keys consisting of matcher patterns. It is
// not synchronized: reads can run concurrently, but writes need to be
// serialized with every other operation by the caller.
type Collection[V any] struct {
	separator byte
	root      *group[V]
	count     int
	options   options
}

// New creates an empty collection splitting the keys on separator.
func New[V any](separator byte, o ...Option) *Collection[V] {
	opts := options{metrics: metrics.Void}
	for _, oi := range o {
		oi(&opts)
	}

	if opts.log == nil {
		opts.log = logging.Standard()
	}

	return &Collection[V]{
		separator: separator,
		root:      &group[V]{},
		options:   opts,
	}
}

// Separator returns the character splitting the keys into sections.
func (c *Collection[V]) Separator() byte { return c.separator }

// Len returns the number of stored values.
func (c *Collection[V]) Len() int { return c.count }

// Clear removes all values.
func (c *Collection[V]) Clear() {
	c.root = &group[V]{}
	c.count = 0
}

func (c *Collection[V]) compileSections(key string) ([]*matcher.Matcher, bool) {
	sections := splitPattern(key, c.separator)
	ms := make([]*matcher.Matcher, len(sections))
	for i, s := range sections {
		m := matcher.Compile(s, c.options.matcherOptions...)
		if err := m.Err(); err != nil {
			c.options.log.WithFields(map[string]any{"key": key}).Debugf("pathmux: invalid section: %v", err)
			return nil, false
		}

		ms[i] = m
	}

	return ms, true
}

func (g *group[V]) child(format string) *group[V] {
	for _, gi := range g.groups {
		if gi.key.Format == format {
			return gi
		}
	}

	return nil
}

func (g *group[V]) item(format string) (int, *item[V]) {
	for i, ii := range g.items {
		if ii.key.Format == format {
			return i, ii
		}
	}

	return -1, nil
}

func (c *Collection[V]) reject(key string, reason string) bool {
	c.options.metrics.IncCounter(metrics.KeyCollectionReject)
	c.options.log.WithFields(map[string]any{"key": key}).Debug(reason)
	return false
}

// Add stores value under key. It returns false, without changing the
// collection, when a section of the key is not a valid pattern, or when
// an equivalent key is already stored.
func (c *Collection[V]) Add(key string, value V) bool {
	sections, ok := c.compileSections(key)
	if !ok {
		return c.reject(key, "pathmux: rejected invalid key")
	}

	last := len(sections) - 1
	g := c.root
	for _, s := range sections[:last] {
		next := g.child(s.Format)
		if next == nil {
			next = &group[V]{key: s}
			g.groups = append(g.groups, next)
		}

		g = next
	}

	if _, existing := g.item(sections[last].Format); existing != nil {
		return c.reject(key, "pathmux: rejected duplicate key")
	}

	g.items = append(g.items, &item[V]{key: sections[last], value: value})
	c.count++
	c.options.metrics.IncCounter(metrics.KeyCollectionAdd)
	return true
}

func (c *Collection[V]) find(key string, dst *matcher.Store) *item[V] {
	sections := splitKey(key, c.separator)
	last := len(sections) - 1
	g := c.root

next:
	for _, s := range sections[:last] {
		for _, gi := range g.groups {
			if compare(gi.key, s, dst) {
				g = gi
				continue next
			}
		}

		return nil
	}

	for _, ii := range g.items {
		if compare(ii.key, sections[last], dst) {
			return ii
		}
	}

	return nil
}

// compare checks a section against a key pattern. A section whose
// captures are rejected by their modifiers does not match, so Get and
// Lookup resolve the same item. When dst is not nil, the captures are
// stored in it.
func compare(m *matcher.Matcher, section string, dst *matcher.Store) bool {
	if len(section) < m.MinimumLength {
		return false
	}

	if dst != nil {
		return m.Match(section, dst)
	}

	return m.Compare(section)
}

func (c *Collection[V]) lookup(key string, dst *matcher.Store) (*item[V], bool) {
	start := time.Now()
	it := c.find(key, dst)
	c.options.metrics.MeasureSince(metrics.KeyCollectionLookup, start)
	if it == nil {
		c.options.metrics.IncCounter(metrics.KeyCollectionMiss)
		return nil, false
	}

	c.options.metrics.IncCounter(metrics.KeyCollectionHit)
	return it, true
}

// TryGet returns the value of the first stored key matching key.
func (c *Collection[V]) TryGet(key string) (V, bool) {
	it, ok := c.lookup(key, nil)
	if !ok {
		var zero V
		return zero, false
	}

	return it.value, true
}

// Get is like TryGet, but returns the zero value when no key matches.
func (c *Collection[V]) Get(key string) V {
	v, _ := c.TryGet(key)
	return v
}

// Lookup is like TryGet, and it also stores the captures of every section
// in dst. Captures of later sections overwrite the ones with the same name
// from earlier sections. dst is not touched when the lookup fails.
func (c *Collection[V]) Lookup(key string, dst matcher.Destination) (V, bool) {
	staged := matcher.NewStore()
	it, ok := c.lookup(key, staged)
	if !ok {
		var zero V
		return zero, false
	}

	if dst != nil {
		staged.Range(func(k string, v any) bool {
			dst.Set(k, v)
			return true
		})
	}

	return it.value, true
}

// Set replaces the value of the stored key matching key. When no stored
// key matches, it adds the value as Add does.
func (c *Collection[V]) Set(key string, value V) bool {
	if it := c.find(key, nil); it != nil {
		it.value = value
		return true
	}

	return c.Add(key, value)
}

// Remove deletes the value stored under an equivalent key. Groups left
// empty are removed, too.
func (c *Collection[V]) Remove(key string) bool {
	sections := splitPattern(key, c.separator)
	last := len(sections) - 1
	path := []*group[V]{c.root}
	g := c.root
	for _, s := range sections[:last] {
		if g = g.child(s); g == nil {
			return false
		}

		path = append(path, g)
	}

	i, it := g.item(sections[last])
	if it == nil {
		return false
	}

	g.items = append(g.items[:i], g.items[i+1:]...)
	c.count--

	for j := len(path) - 1; j > 0; j-- {
		child, parent := path[j], path[j-1]
		if len(child.items) > 0 || len(child.groups) > 0 {
			break
		}

		for k, gi := range parent.groups {
			if gi == child {
				parent.groups = append(parent.groups[:k], parent.groups[k+1:]...)
				break
			}
		}
	}

	return true
}
