package matcher

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Member gives access to one named value of a T.
type Member[T any] struct {
	Get func(*T) (any, bool)
	Set func(*T, any) error
}

// Members maps capture names to members of T.
type Members[T any] map[string]Member[T]

// GetFunc resolves values of a destination without a fixed type.
type GetFunc func(key string) (any, bool)

// SetFunc stores values in a destination without a fixed type.
type SetFunc func(key string, value any) error

type typedCapture struct {
	sink       int
	start, end int
}

// typedState is the per call state of a typed match. It is pooled and
// never shared between calls.
type typedState struct {
	subject  string
	captures []typedCapture
	mark     int
}

type step func(st *typedState, i int) bool

type render[S any] func(out *strings.Builder, src S) bool

// Typed is a pattern compiled into composed closures for a destination
// type T. Each block is compiled with the already composed continuation
// for everything after it, so matching does not walk the blocks again.
//
// Like Matcher, Typed is immutable and safe for concurrent use.
type Typed[T any] struct {
	Format        string
	MinimumLength int
	IsTemplatable bool

	members     Members[T]
	sinks       []*block
	compare     step
	extract     step
	template    render[*T]
	rawTemplate render[GetFunc]
	states      sync.Pool
	err         error
}

// CompileTyped compiles format for destinations of type T. Captures
// without a member are matched but not stored.
func CompileTyped[T any](format string, members Members[T], opts ...Option) *Typed[T] {
	m := Compile(format, opts...)
	t := &Typed[T]{
		Format:        format,
		MinimumLength: m.MinimumLength,
		IsTemplatable: m.IsTemplatable,
		members:       members,
		err:           m.err,
	}

	if m.err != nil {
		return t
	}

	accept := func(st *typedState, i int) bool { return i == len(st.subject) }
	t.compare = t.composeMatch(m.blocks, accept, false)
	t.extract = t.composeMatch(m.blocks, accept, true)
	t.template = composeTemplate(m.blocks, done[*T], t.memberValue)
	t.rawTemplate = composeTemplate(m.blocks, done[GetFunc], rawValue)
	t.states.New = func() any { return &typedState{} }
	return t
}

// Err returns the compilation error of an inert pattern.
func (t *Typed[T]) Err() error { return t.err }

func (t *Typed[T]) composeMatch(blocks []*block, next step, record bool) step {
	for i := len(blocks) - 1; i >= 0; i-- {
		next = t.matchStep(blocks[i], next, record)
	}

	return next
}

func (t *Typed[T]) matchStep(b *block, next step, record bool) step {
	switch b.kind {
	case staticBlock:
		literal := b.literal
		return func(st *typedState, i int) bool {
			if !strings.HasPrefix(st.subject[i:], literal) {
				return false
			}

			return next(st, i+len(literal))
		}
	case whitespaceBlock:
		return func(st *typedState, i int) bool {
			for i < len(st.subject) && isWhitespace(st.subject[i]) {
				i++
			}

			return next(st, i)
		}
	case wildcharBlock:
		return func(st *typedState, i int) bool {
			return i < len(st.subject) && next(st, i+1)
		}
	case wildcardBlock:
		return func(st *typedState, i int) bool {
			end, ok := b.extent(st.subject, i, false)
			return ok && next(st, end)
		}
	case extractBlock:
		if !record {
			return func(st *typedState, i int) bool {
				end, ok := b.extent(st.subject, i, false)
				return ok && next(st, end)
			}
		}

		index := len(t.sinks)
		t.sinks = append(t.sinks, b)
		return func(st *typedState, i int) bool {
			end, ok := b.extent(st.subject, i, false)
			if !ok {
				return false
			}

			st.captures = append(st.captures, typedCapture{sink: index, start: i, end: end})
			return next(st, end)
		}
	case optionalBlock:
		inner := t.composeMatch(b.blocks, func(st *typedState, i int) bool {
			st.mark = i
			return true
		}, record)

		return func(st *typedState, i int) bool {
			n := len(st.captures)
			if inner(st, i) {
				return next(st, st.mark)
			}

			st.captures = st.captures[:n]
			return next(st, i)
		}
	default:
		return func(*typedState, int) bool { return false }
	}
}

func done[S any](*strings.Builder, S) bool { return true }

func composeTemplate[S any](blocks []*block, next render[S], value func(*block) func(S) (any, bool)) render[S] {
	for i := len(blocks) - 1; i >= 0; i-- {
		next = templateStep(blocks[i], next, value)
	}

	return next
}

func templateStep[S any](b *block, next render[S], value func(*block) func(S) (any, bool)) render[S] {
	switch b.kind {
	case staticBlock:
		literal := b.literal
		return func(out *strings.Builder, src S) bool {
			out.WriteString(literal)
			return next(out, src)
		}
	case whitespaceBlock:
		return func(out *strings.Builder, src S) bool {
			out.WriteByte(' ')
			return next(out, src)
		}
	case extractBlock:
		get := value(b)
		return func(out *strings.Builder, src S) bool {
			v, ok := get(src)
			if !ok {
				return false
			}

			s, ok := b.render(v)
			if !ok {
				return false
			}

			out.WriteString(s)
			return next(out, src)
		}
	case optionalBlock:
		inner := composeTemplate(b.blocks, done[S], value)
		return func(out *strings.Builder, src S) bool {
			var scratch strings.Builder
			if inner(&scratch, src) {
				out.WriteString(scratch.String())
			}

			return next(out, src)
		}
	default:
		return func(*strings.Builder, S) bool { return false }
	}
}

func (t *Typed[T]) memberValue(b *block) func(*T) (any, bool) {
	m, ok := t.members[b.key()]
	if !ok || m.Get == nil {
		return func(*T) (any, bool) { return nil, false }
	}

	return func(dst *T) (any, bool) {
		if dst == nil {
			return nil, false
		}

		return m.Get(dst)
	}
}

func rawValue(b *block) func(GetFunc) (any, bool) {
	key := b.key()
	return func(get GetFunc) (any, bool) {
		if get == nil {
			return nil, false
		}

		return get(key)
	}
}

func (t *Typed[T]) reject(subject string) bool {
	return t.err != nil || len(subject) < t.MinimumLength
}

func (t *Typed[T]) acquire(subject string) *typedState {
	st := t.states.Get().(*typedState)
	st.subject = subject
	return st
}

func (t *Typed[T]) release(st *typedState) {
	st.subject = ""
	st.captures = st.captures[:0]
	t.states.Put(st)
}

// Compare reports whether subject matches the pattern.
func (t *Typed[T]) Compare(subject string) bool {
	if t.reject(subject) {
		return false
	}

	st := t.acquire(subject)
	defer t.release(st)
	return t.compare(st, 0)
}

// collect materializes the recorded captures in capture order, the same
// way Matcher.Match does.
func (t *Typed[T]) collect(st *typedState) (*Store, bool) {
	staged := NewStore()
	for _, c := range st.captures {
		b := t.sinks[c.sink]
		e := extraction{kind: b.capture, start: c.start, end: c.end, block: b}
		if err := e.extractInto(st.subject, staged); err != nil {
			return nil, false
		}
	}

	return staged, true
}

func (t *Typed[T]) run(subject string) (*Store, bool) {
	if t.reject(subject) {
		return nil, false
	}

	st := t.acquire(subject)
	defer t.release(st)
	if !t.extract(st, 0) {
		return nil, false
	}

	return t.collect(st)
}

// Extract matches subject and stores the captures in dst through the
// members. Values are computed before the first member is set.
func (t *Typed[T]) Extract(subject string, dst *T) bool {
	if dst == nil {
		return false
	}

	values, ok := t.run(subject)
	if !ok {
		return false
	}

	set := true
	values.Range(func(key string, v any) bool {
		m, ok := t.members[key]
		if !ok || m.Set == nil {
			return true
		}

		if err := m.Set(dst, v); err != nil {
			log.Debugf("matcher: failed to set %s: %v", key, err)
			set = false
		}

		return set
	})

	return set
}

// RawExtract matches subject and passes the captures to set.
func (t *Typed[T]) RawExtract(subject string, set SetFunc) bool {
	if set == nil {
		return false
	}

	values, ok := t.run(subject)
	if !ok {
		return false
	}

	ok = true
	values.Range(func(key string, v any) bool {
		if err := set(key, v); err != nil {
			log.Debugf("matcher: failed to set %s: %v", key, err)
			ok = false
		}

		return ok
	})

	return ok
}

// Template renders the pattern from the members of src.
func (t *Typed[T]) Template(src *T) (string, bool) {
	if t.err != nil || !t.IsTemplatable {
		return "", false
	}

	var out strings.Builder
	if !t.template(&out, src) {
		return "", false
	}

	return out.String(), true
}

// RawTemplate renders the pattern from the values returned by get.
func (t *Typed[T]) RawTemplate(get GetFunc) (string, bool) {
	if t.err != nil || !t.IsTemplatable {
		return "", false
	}

	var out strings.Builder
	if !t.rawTemplate(&out, get) {
		return "", false
	}

	return out.String(), true
}
