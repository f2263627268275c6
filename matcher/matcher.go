package matcher

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Matcher is a compiled pattern. It is immutable and safe for concurrent
// use.
//
// A Matcher created from an invalid format string is inert: every
// operation reports failure, and Err returns the reason.
type Matcher struct {

	// Format is the source of the pattern.
	Format string

	// MinimumLength is a lower bound of the length of any matching
	// subject.
	MinimumLength int

	// IsTemplatable is false when the pattern contains wildcards that
	// cannot be rendered from values.
	IsTemplatable bool

	blocks []*block
	err    error
}

type options struct {
	modifiers Modifiers
}

// Option customizes compilation.
type Option func(*options)

// WithModifiers makes additional modifiers available to the pattern. They
// override built-in modifiers of the same name.
func WithModifiers(mods ...*Modifier) Option {
	return func(o *options) {
		o.modifiers = o.modifiers.clone()
		for _, m := range mods {
			o.modifiers[m.Name] = m
		}
	}
}

func newOptions(opts []Option) options {
	o := options{modifiers: defaultModifiers}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Compile compiles a format string. It never fails: when the format is
// invalid, the returned Matcher is inert and Err reports the problem.
func Compile(format string, opts ...Option) *Matcher {
	m, err := compile(format, newOptions(opts))
	if err != nil {
		log.Debugf("matcher: invalid pattern: %v", err)
		return &Matcher{Format: format, err: err}
	}

	return m
}

// MustCompile is like Compile but panics when the format is invalid. It
// is meant for initializing package level patterns.
func MustCompile(format string, opts ...Option) *Matcher {
	m := Compile(format, opts...)
	if m.err != nil {
		panic(fmt.Sprintf("matcher: %v", m.err))
	}

	return m
}

// Err returns the compilation error of an inert matcher.
func (m *Matcher) Err() error { return m.err }

// Valid tells whether the matcher compiled successfully.
func (m *Matcher) Valid() bool { return m != nil && m.err == nil }

func (m *Matcher) String() string { return m.Format }

// Equivalent tells whether two matchers were compiled from the same
// format.
func (m *Matcher) Equivalent(o *Matcher) bool {
	return m != nil && o != nil && m.Format == o.Format
}

// Names returns the capture keys of the pattern in pattern order.
// Positional captures are reported by their position key.
func (m *Matcher) Names() []string { return names(m.blocks) }

func (m *Matcher) reject(subject string, index int) bool {
	return !m.Valid() || index < 0 || index > len(subject) || len(subject)-index < m.MinimumLength
}

// Compare reports whether subject matches the pattern as a whole. It does
// not record captures.
func (m *Matcher) Compare(subject string) bool {
	if m.reject(subject, 0) {
		return false
	}

	return newContext(subject, 0, false, false).run(m.blocks)
}

// Match matches subject as a whole and stores the captures in dst. dst is
// not touched when the match fails. A nil dst only validates the captures.
func (m *Matcher) Match(subject string, dst Destination) bool {
	index := 0
	return m.MatchAt(subject, &index, dst)
}

// MatchStore matches subject and returns the captures in a new Store.
func (m *Matcher) MatchStore(subject string) (*Store, bool) {
	s := NewStore()
	if !m.Match(subject, s) {
		return nil, false
	}

	return s, true
}

// MatchAt matches subject from *index to its end. On success, the captures
// are stored in dst and *index is advanced to the end of the consumed text.
// On failure *index is left unchanged.
func (m *Matcher) MatchAt(subject string, index *int, dst Destination) bool {
	return m.matchFrom(subject, index, dst, false)
}

// MatchPrefix is like MatchAt, but the match does not need to extend to the
// end of subject. It allows scanning a subject match by match.
func (m *Matcher) MatchPrefix(subject string, index *int, dst Destination) bool {
	return m.matchFrom(subject, index, dst, true)
}

func (m *Matcher) matchFrom(subject string, index *int, dst Destination, partial bool) bool {
	if m.reject(subject, *index) {
		return false
	}

	ctx := newContext(subject, *index, partial, true)
	if !ctx.run(m.blocks) {
		return false
	}

	// materialized first, so that a failing modifier leaves dst untouched
	staged := NewStore()
	if err := ctx.extractInto(staged); err != nil {
		return false
	}

	if dst == nil {
		dst = discard{}
	}

	staged.copyTo(dst)
	*index = ctx.index
	return true
}

// MatchAll scans subject with consecutive prefix matches, each starting
// where the previous one ended, and collects one entry per match into dst.
// When dst is nil, a new Store is created.
//
// By default every match is appended as a Store of its captures. With
// singleObjectMode, a match with exactly one capture appends only the
// captured value, and a match capturing exactly Key and Value sets the
// entry Key=Value.
//
// Scanning stops at the end of subject, at the first failing match, or at
// a match that does not consume input. MatchAll returns nil when the
// matcher is inert.
func (m *Matcher) MatchAll(subject string, dst *Store, singleObjectMode bool) *Store {
	if !m.Valid() {
		return nil
	}

	if dst == nil {
		dst = NewStore()
	}

	index := 0
	for index < len(subject) {
		item := NewStore()
		start := index
		if !m.MatchPrefix(subject, &index, item) || index == start {
			break
		}

		switch {
		case singleObjectMode && item.Len() == 1:
			dst.Append(item.Values()[0])
		case singleObjectMode && item.Len() == 2 && item.Has(keyName) && item.Has(valueName):
			k, _ := item.Get(keyName)
			v, _ := item.Get(valueName)
			key, ok := stringify(k)
			if !ok {
				key = fmt.Sprint(k)
			}

			dst.Set(key, v)
		default:
			dst.Append(item)
		}
	}

	return dst
}

// Template renders the pattern with the values provided by src. It fails
// when the pattern contains wildcards, or when a capture outside of an
// optional section cannot be resolved. Optional sections with unresolved
// captures are omitted.
func (m *Matcher) Template(src Source) (string, bool) {
	if !m.Valid() || !m.IsTemplatable || src == nil {
		return "", false
	}

	var out strings.Builder
	if !templateBlocks(&out, m.blocks, src) {
		return "", false
	}

	return out.String(), true
}
