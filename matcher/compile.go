package matcher

import (
	"errors"
	"strings"
)

const (
	escapeChar     = '\\'
	openExtract    = '{'
	closeExtract   = '}'
	openOptional   = '['
	closeOptional  = ']'
	wildcardChar   = '*'
	wildcharChar   = '?'
	whitespaceChar = '^'
	partSeparator  = ':'
	testSeparator  = '|'
	modSeparator   = ','
)

type compiler struct {
	modifiers Modifiers
	positions int
}

// parse compiles a format string into a block sequence. Offsets in the
// returned errors are relative to base.
func (c *compiler) parse(format string, base int) ([]*block, error) {
	var (
		blocks  []*block
		literal []byte
	)

	flush := func() {
		if len(literal) > 0 {
			blocks = append(blocks, &block{kind: staticBlock, literal: string(literal)})
			literal = nil
		}
	}

	for i := 0; i < len(format); i++ {
		switch ch := format[i]; ch {
		case escapeChar:
			if i+1 >= len(format) {
				return nil, errorAt(base+i, ErrTrailingEscape)
			}

			i++
			literal = append(literal, format[i])
		case openExtract:
			end, err := scanGroup(format, i)
			if err != nil {
				return nil, errorAt(base+i, err)
			}

			flush()
			b, err := c.parseExtract(format[i+1:end], base+i+1)
			if err != nil {
				return nil, err
			}

			blocks = append(blocks, b)
			i = end
		case openOptional:
			end, err := scanGroup(format, i)
			if err != nil {
				return nil, errorAt(base+i, err)
			}

			flush()
			inner, err := c.parse(format[i+1:end], base+i+1)
			if err != nil {
				return nil, err
			}

			blocks = append(blocks, &block{kind: optionalBlock, blocks: inner})
			i = end
		case closeExtract, closeOptional:
			return nil, errorAt(base+i, ErrUnexpectedClose)
		case wildcardChar:
			flush()
			blocks = append(blocks, &block{kind: wildcardBlock})
		case wildcharChar:
			flush()
			blocks = append(blocks, &block{kind: wildcharBlock})
		case whitespaceChar:
			flush()
			blocks = append(blocks, &block{kind: whitespaceBlock})
		default:
			literal = append(literal, ch)
		}
	}

	flush()
	return blocks, nil
}

func closer(open byte) byte {
	if open == openExtract {
		return closeExtract
	}

	return closeOptional
}

// scanGroup returns the position of the bracket closing the one at start.
// Nested brackets of both kinds need to be balanced.
func scanGroup(format string, start int) (int, error) {
	stack := []byte{closer(format[start])}
	for i := start + 1; i < len(format); i++ {
		switch ch := format[i]; ch {
		case escapeChar:
			i++
		case openExtract, openOptional:
			stack = append(stack, closer(ch))
		case closeExtract, closeOptional:
			if stack[len(stack)-1] != ch {
				return 0, ErrUnbalanced
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, nil
			}
		}
	}

	return 0, ErrUnbalanced
}

type part struct {
	text   string
	offset int
}

// split cuts s at the top level, unescaped occurrences of sep.
func split(s string, base int, sep byte) []part {
	var (
		parts []part
		depth int
		start int
	)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escapeChar:
			i++
		case openExtract, openOptional:
			depth++
		case closeExtract, closeOptional:
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, part{s[start:i], base + start})
				start = i + 1
			}
		}
	}

	return append(parts, part{s[start:], base + start})
}

func unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == escapeChar && i+1 < len(s) {
			i++
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

func (c *compiler) parseExtract(content string, base int) (*block, error) {
	parts := split(content, base, partSeparator)
	if len(parts) > 3 {
		return nil, errorAt(parts[3].offset-1, ErrTooManyParts)
	}

	b := &block{kind: extractBlock, name: unescape(strings.TrimSpace(parts[0].text)), width: -1}
	if b.name == "" {
		b.position = c.positions
		c.positions++
	}

	if len(parts) > 1 && parts[1].text != "" {
		for _, alt := range split(parts[1].text, parts[1].offset, testSeparator) {
			t, err := c.compileTest(alt)
			if err != nil {
				return nil, err
			}

			b.tests = append(b.tests, t)
		}

		b.width = testWidth(b.tests)
	}

	if len(parts) > 2 {
		for _, name := range strings.Split(parts[2].text, string(modSeparator)) {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			m, ok := c.modifiers[name]
			if !ok {
				return nil, errorAt(parts[2].offset, ErrUnknownModifier)
			}

			b.modifiers = append(b.modifiers, m)
		}
	}

	b.capture = captureKind(b)
	return b, nil
}

// compileTest compiles one alternative of a capture test as a pattern of
// its own, sharing the modifier registry.
func (c *compiler) compileTest(p part) (*Matcher, error) {
	tc := &compiler{modifiers: c.modifiers}
	blocks, err := tc.parse(p.text, p.offset)
	if err != nil {
		return nil, err
	}

	return newMatcher(p.text, blocks), nil
}

// testWidth returns the common fixed width of all the test alternatives,
// or -1.
func testWidth(tests []*Matcher) int {
	w := -1
	for i, t := range tests {
		tw := fixedWidth(t.blocks)
		if tw < 0 || i > 0 && tw != w {
			return -1
		}

		w = tw
	}

	return w
}

func captureKind(b *block) extractionKind {
	var capturing, paired bool
	for _, t := range b.tests {
		n := names(t.blocks)
		if len(n) == 0 {
			continue
		}

		isPair := len(n) == 2 && (n[0] == keyName && n[1] == valueName || n[0] == valueName && n[1] == keyName)
		paired = isPair && (paired || !capturing)
		capturing = true
	}

	switch {
	case capturing && paired:
		return pairedExtraction
	case capturing:
		return groupedExtraction
	case b.name == "":
		return singleExtraction
	case len(b.modifiers) > 0:
		return modifiedExtraction
	default:
		return plainExtraction
	}
}

func newMatcher(format string, blocks []*block) *Matcher {
	link(blocks, endOfPattern)
	return &Matcher{
		Format:        format,
		MinimumLength: minLength(blocks),
		IsTemplatable: templatable(blocks),
		blocks:        blocks,
	}
}

func compile(format string, o options) (*Matcher, error) {
	c := &compiler{modifiers: o.modifiers}
	blocks, err := c.parse(format, 0)
	if err != nil {
		var cerr *CompileError
		if errors.As(err, &cerr) {
			cerr.Format = format
		}

		return nil, err
	}

	return newMatcher(format, blocks), nil
}
