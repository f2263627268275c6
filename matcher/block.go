package matcher

import (
	"strconv"
	"strings"
)

type blockKind int

const (
	staticBlock blockKind = iota
	extractBlock
	optionalBlock
	whitespaceBlock
	wildcardBlock
	wildcharBlock
)

var blockNames = map[blockKind]string{
	staticBlock:     "static",
	extractBlock:    "extract",
	optionalBlock:   "optional",
	whitespaceBlock: "whitespace",
	wildcardBlock:   "wildcard",
	wildcharBlock:   "wildchar",
}

func (k blockKind) String() string { return blockNames[k] }

// block is one compiled instruction. Which fields are used depends on
// kind. Blocks are never modified after compilation.
type block struct {
	kind blockKind

	// static
	literal string

	// extract
	name      string
	position  int
	tests     []*Matcher
	modifiers []*Modifier
	width     int
	capture   extractionKind

	// optional
	blocks []*block

	// extract and wildcard
	stop follow
}

// follow describes what may come after a block. It is used to find the
// end of greedy runs without backtracking.
type follow struct {

	// literals that the remainder may start with
	anchors []string

	// the remainder always starts with anchors[0]
	literal bool

	// the remainder may start with whitespace
	space bool

	// fixed width of the whole remainder, -1 when it varies
	width int

	// the blocks of the remainder
	rest *tail
}

// tail is the remainder of a sequence, continued by the remainder of the
// enclosing sequence.
type tail struct {
	blocks []*block
	next   *tail
}

var endOfPattern = follow{width: 0}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// matches reports whether the remainder matches from index to the end of
// subject.
func (t *tail) matches(subject string, index int) bool {
	ctx := newContext(subject, index, false, false)
	for ; t != nil; t = t.next {
		if !matchBlocks(ctx, t.blocks) {
			return false
		}
	}

	return ctx.index == ctx.length
}

// span returns the end of a greedy run starting at index, stopping at the
// first place where the remainder may start.
func (f *follow) span(subject string, index int, partial bool) (int, bool) {
	if !partial && f.width >= 0 {
		end := len(subject) - f.width
		return end, end >= index
	}

	end := len(subject)
	for _, a := range f.anchors {
		if p := strings.Index(subject[index:end], a); p >= 0 {
			end = index + p
		}
	}

	if f.space {
		for i := index; i < end; i++ {
			if isWhitespace(subject[i]) {
				end = i
				break
			}
		}
	}

	return end, true
}

// lead returns the follow information seen by the block preceding b.
func (b *block) lead(next follow) follow {
	switch b.kind {
	case staticBlock:
		return follow{
			anchors: []string{b.literal},
			literal: b.literal != "",
			width:   addWidth(len(b.literal), next.width),
		}
	case wildcharBlock:
		return follow{width: addWidth(1, next.width)}
	case extractBlock:
		return follow{width: addWidth(b.width, next.width)}
	case whitespaceBlock:
		return follow{anchors: next.anchors, space: true, width: -1}
	case optionalBlock:
		inner := link(b.blocks, next)
		anchors := append(append([]string(nil), inner.anchors...), next.anchors...)
		return follow{anchors: anchors, space: inner.space || next.space, width: -1}
	default:
		return follow{width: -1}
	}
}

func addWidth(w, next int) int {
	if w < 0 || next < 0 {
		return -1
	}

	return w + next
}

// link sets the stop rules of the greedy blocks in a sequence and returns
// the follow information for the start of the sequence.
func link(blocks []*block, after follow) follow {
	next := after
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		next.rest = &tail{blocks: blocks[i+1:], next: after.rest}
		if b.kind == extractBlock || b.kind == wildcardBlock {
			b.stop = next
		}

		next = b.lead(next)
	}

	return next
}

// key returns the name under which an extract block stores its value.
func (b *block) key() string {
	if b.name == "" {
		return strconv.Itoa(b.position)
	}

	return b.name
}

// extent returns where the run of a greedy block starting at index ends.
// When the remainder starts with a literal, the run is the longest one
// after which the remainder still matches to the end of the subject.
// Otherwise it stops where the remainder may start first.
func (b *block) extent(subject string, index int, partial bool) (int, bool) {
	if b.kind == extractBlock && b.width >= 0 {
		end := index + b.width
		return end, end <= len(subject) && b.accepts(subject[index:end])
	}

	f := &b.stop
	if partial || f.width >= 0 || !f.literal {
		end, ok := f.span(subject, index, partial)
		return end, ok && b.accepts(subject[index:end])
	}

	literal := f.anchors[0]
	for hi := len(subject); ; {
		p := strings.LastIndex(subject[index:hi], literal)
		if p < 0 {
			return index, false
		}

		end := index + p
		if b.accepts(subject[index:end]) && f.rest.matches(subject, end) {
			return end, true
		}

		hi = end + len(literal) - 1
	}
}

// accepts reports whether text can be captured by the block: the tests
// match and the modifiers apply.
func (b *block) accepts(text string) bool {
	if b.kind != extractBlock {
		return true
	}

	if !b.test(text) {
		return false
	}

	switch b.capture {
	case modifiedExtraction, singleExtraction:
		_, err := applyModifiers(b.modifiers, text)
		return err == nil
	default:
		return true
	}
}

// test reports whether a captured text satisfies the capture tests.
func (b *block) test(text string) bool {
	if len(b.tests) == 0 {
		return true
	}

	for _, t := range b.tests {
		if t.Compare(text) {
			return true
		}
	}

	return false
}

func (b *block) match(ctx *context) bool {
	subject := ctx.subject
	switch b.kind {
	case staticBlock:
		if !strings.HasPrefix(subject[ctx.index:], b.literal) {
			return false
		}

		ctx.index += len(b.literal)
		return true
	case whitespaceBlock:
		for ctx.index < ctx.length && isWhitespace(subject[ctx.index]) {
			ctx.index++
		}

		return true
	case wildcharBlock:
		if ctx.index >= ctx.length {
			return false
		}

		ctx.index++
		return true
	case wildcardBlock:
		end, ok := b.extent(subject, ctx.index, ctx.partial)
		if !ok {
			return false
		}

		ctx.index = end
		return true
	case extractBlock:
		end, ok := b.extent(subject, ctx.index, ctx.partial)
		if !ok {
			return false
		}

		if ctx.record {
			ctx.extractions = append(ctx.extractions, extraction{
				kind:  b.capture,
				start: ctx.index,
				end:   end,
				block: b,
			})
		}

		ctx.index = end
		return true
	case optionalBlock:
		index, n := ctx.index, len(ctx.extractions)
		if matchBlocks(ctx, b.blocks) {
			return true
		}

		ctx.index = index
		ctx.extractions = ctx.extractions[:n]
		return false
	default:
		return false
	}
}

func (b *block) template(out *strings.Builder, src Source) bool {
	switch b.kind {
	case staticBlock:
		out.WriteString(b.literal)
		return true
	case whitespaceBlock:
		out.WriteByte(' ')
		return true
	case extractBlock:
		v, ok := src.Get(b.key())
		if !ok {
			return false
		}

		s, ok := b.render(v)
		if !ok {
			return false
		}

		out.WriteString(s)
		return true
	case optionalBlock:
		var inner strings.Builder
		if templateBlocks(&inner, b.blocks, src) {
			out.WriteString(inner.String())
		}

		return true
	default:
		return false
	}
}

// render turns a stored value back into the text of an extract block.
func (b *block) render(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	if b.capture == groupedExtraction || b.capture == pairedExtraction {
		sub, ok := v.(Source)
		if !ok {
			return "", false
		}

		if b.capture == pairedExtraction {
			sub = pairSource(sub)
		}

		for _, t := range b.tests {
			if s, ok := t.Template(sub); ok {
				return s, true
			}
		}

		return "", false
	}

	s, ok := reverseModifiers(b.modifiers, v)
	if !ok || !b.test(s) {
		return "", false
	}

	if b.width >= 0 && len(s) != b.width {
		return "", false
	}

	return s, true
}

// pairSource turns a single entry source into the Key and Value pair
// rendered by a paired capture.
func pairSource(src Source) Source {
	if _, ok := src.Get(keyName); ok {
		return src
	}

	switch s := src.(type) {
	case *Store:
		if s.Len() == 1 {
			k := s.keys[0]
			return Values{keyName: k, valueName: s.values[k]}
		}
	case Values:
		if len(s) == 1 {
			for k, v := range s {
				return Values{keyName: k, valueName: v}
			}
		}
	}

	return src
}

func templateBlocks(out *strings.Builder, blocks []*block, src Source) bool {
	for _, b := range blocks {
		if !b.template(out, src) {
			return false
		}
	}

	return true
}

// minLength is the lower bound of the text consumed by a sequence.
func minLength(blocks []*block) int {
	n := 0
	for _, b := range blocks {
		if b.kind == staticBlock {
			n += len(b.literal)
		}
	}

	return n
}

// fixedWidth returns the exact width of the text matched by a sequence,
// or -1 when it varies.
func fixedWidth(blocks []*block) int {
	w := 0
	for _, b := range blocks {
		switch b.kind {
		case staticBlock:
			w += len(b.literal)
		case wildcharBlock:
			w++
		case extractBlock:
			if b.width < 0 {
				return -1
			}

			w += b.width
		default:
			return -1
		}
	}

	return w
}

func templatable(blocks []*block) bool {
	for _, b := range blocks {
		if b.kind == wildcardBlock || b.kind == wildcharBlock {
			return false
		}
	}

	return true
}

// names collects the capture keys of a sequence in pattern order.
func names(blocks []*block) []string {
	var n []string
	for _, b := range blocks {
		switch b.kind {
		case extractBlock:
			n = append(n, b.key())
		case optionalBlock:
			n = append(n, names(b.blocks)...)
		}
	}

	return n
}
