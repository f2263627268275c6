package matcher

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	keyName   = "Key"
	valueName = "Value"
)

type extractionKind int

const (
	plainExtraction extractionKind = iota
	modifiedExtraction
	pairedExtraction
	groupedExtraction
	singleExtraction
)

// extraction is a deferred capture. Only the position and the producing
// block are recorded while matching; the value is materialized after the
// whole pattern matched.
type extraction struct {
	kind       extractionKind
	start, end int
	block      *block
}

// context holds the state of a single match call. It is never shared.
type context struct {
	subject     string
	index       int
	length      int
	blockIndex  int
	partial     bool
	record      bool
	extractions []extraction
}

func newContext(subject string, index int, partial, record bool) *context {
	return &context{
		subject: subject,
		index:   index,
		length:  len(subject),
		partial: partial,
		record:  record,
	}
}

// matchBlocks runs a sequence. A failing optional block is skipped, any
// other failure fails the sequence.
func matchBlocks(ctx *context, blocks []*block) bool {
	for _, b := range blocks {
		if !b.match(ctx) && b.kind != optionalBlock {
			return false
		}
	}

	return true
}

func (ctx *context) run(blocks []*block) bool {
	for ctx.blockIndex = 0; ctx.blockIndex < len(blocks); ctx.blockIndex++ {
		b := blocks[ctx.blockIndex]
		if !b.match(ctx) && b.kind != optionalBlock {
			return false
		}
	}

	return ctx.partial || ctx.index == ctx.length
}

// extractInto materializes the recorded extractions in capture order.
func (ctx *context) extractInto(dst Destination) error {
	for _, e := range ctx.extractions {
		if err := e.extractInto(ctx.subject, dst); err != nil {
			return err
		}
	}

	return nil
}

func (e extraction) text(subject string) string {
	return subject[e.start:e.end]
}

func (e extraction) extractInto(subject string, dst Destination) error {
	b := e.block
	switch e.kind {
	case plainExtraction:
		dst.Set(b.name, e.text(subject))
		return nil
	case modifiedExtraction, singleExtraction:
		v, err := applyModifiers(b.modifiers, e.text(subject))
		if err != nil {
			log.Debugf("matcher: failed to extract %s: %v", b.key(), err)
			return err
		}

		dst.Set(b.key(), v)
		return nil
	case groupedExtraction:
		sub, err := b.group(e.text(subject))
		if err != nil {
			return err
		}

		if b.name == "" {
			sub.copyTo(dst)
		} else {
			dst.Set(b.name, sub)
		}

		return nil
	case pairedExtraction:
		sub, err := b.group(e.text(subject))
		if err != nil {
			return err
		}

		k, _ := sub.Get(keyName)
		v, _ := sub.Get(valueName)
		key, ok := stringify(k)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingValue, keyName)
		}

		if b.name == "" {
			dst.Set(key, v)
			return nil
		}

		pairs := subStore(dst, b.name)
		pairs.Set(key, v)
		return nil
	default:
		return fmt.Errorf("unknown extraction kind: %d", e.kind)
	}
}

// group runs the capturing tests of a block over its captured text.
func (b *block) group(text string) (*Store, error) {
	for _, t := range b.tests {
		sub := NewStore()
		if t.Match(text, sub) {
			return sub, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrMissingValue, b.key())
}

// subStore returns the store kept under name in dst, creating it when
// missing.
func subStore(dst Destination, name string) *Store {
	if src, ok := dst.(Source); ok {
		if v, ok := src.Get(name); ok {
			if s, ok := v.(*Store); ok {
				return s
			}
		}
	}

	s := NewStore()
	dst.Set(name, s)
	return s
}
