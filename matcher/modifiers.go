package matcher

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dimfeld/httppath"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Modifier is a named transformation applied to a captured substring
// before it is stored. Apply must be pure. Reverse, when set, turns a
// stored value back into the text Apply accepts; it is used when
// rendering templates. Modifiers without Reverse are skipped during
// rendering.
type Modifier struct {
	Name    string
	Apply   func(string) (any, error)
	Reverse func(any) (string, bool)
}

// Modifiers is a registry of modifiers by name.
type Modifiers map[string]*Modifier

var defaultModifiers = DefaultModifiers()

// DefaultModifiers returns a new registry containing the built-in
// modifiers.
func DefaultModifiers() Modifiers {
	reg := make(Modifiers)
	RegisterNumericModifiers(reg)
	RegisterStringModifiers(reg)
	RegisterEncodingModifiers(reg)
	RegisterFormatModifiers(reg)
	return reg
}

func (reg Modifiers) register(name string, apply func(string) (any, error), reverse func(any) (string, bool)) {
	reg[name] = &Modifier{Name: name, Apply: apply, Reverse: reverse}
}

func (reg Modifiers) clone() Modifiers {
	c := make(Modifiers, len(reg))
	for k, v := range reg {
		c[k] = v
	}

	return c
}

// RegisterNumericModifiers adds int, uint, float, bool and duration to reg.
func RegisterNumericModifiers(reg Modifiers) {
	reg.register("int", func(s string) (any, error) {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("integer conversion failed: %w", err)
		}

		return i, nil
	}, reverseNumber)

	reg.register("uint", func(s string) (any, error) {
		u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unsigned integer conversion failed: %w", err)
		}

		return uint(u), nil
	}, reverseNumber)

	reg.register("float", func(s string) (any, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("float conversion failed: %w", err)
		}

		return f, nil
	}, reverseNumber)

	reg.register("bool", func(s string) (any, error) {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("bool conversion failed: %w", err)
		}

		return b, nil
	}, func(v any) (string, bool) {
		switch b := v.(type) {
		case bool:
			return strconv.FormatBool(b), true
		case string:
			_, err := strconv.ParseBool(b)
			return b, err == nil
		default:
			return "", false
		}
	})

	reg.register("duration", func(s string) (any, error) {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("duration conversion failed: %w", err)
		}

		return d, nil
	}, func(v any) (string, bool) {
		switch d := v.(type) {
		case time.Duration:
			return d.String(), true
		case string:
			_, err := time.ParseDuration(d)
			return d, err == nil
		default:
			return "", false
		}
	})
}

func reverseNumber(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(n), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case string:
		_, err := strconv.ParseFloat(n, 64)
		return n, err == nil
	default:
		return "", false
	}
}

// RegisterStringModifiers adds the one way text transforms to reg.
func RegisterStringModifiers(reg Modifiers) {
	reg.register("lower", func(s string) (any, error) { return strings.ToLower(s), nil }, nil)
	reg.register("upper", func(s string) (any, error) { return strings.ToUpper(s), nil }, nil)
	reg.register("trim", func(s string) (any, error) { return strings.TrimSpace(s), nil }, nil)

	// casers are stateful, a new one is needed for every call
	reg.register("title", func(s string) (any, error) {
		return cases.Title(language.Und).String(s), nil
	}, nil)
	reg.register("fold", func(s string) (any, error) {
		return cases.Fold().String(s), nil
	}, nil)

	reg.register("cleanpath", func(s string) (any, error) { return httppath.Clean(s), nil }, nil)
}

// RegisterEncodingModifiers adds urldecode, base64 and hex to reg.
func RegisterEncodingModifiers(reg Modifiers) {
	reg.register("urldecode", func(s string) (any, error) {
		u, err := url.QueryUnescape(s)
		if err != nil {
			return nil, fmt.Errorf("url decode failed: %w", err)
		}

		return u, nil
	}, reverseString(url.QueryEscape))

	reg.register("base64", func(s string) (any, error) {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("base64 decode failed: %w", err)
		}

		return string(b), nil
	}, reverseString(func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}))

	reg.register("hex", func(s string) (any, error) {
		if len(s)%2 != 0 {
			return nil, errors.New("invalid hex string length")
		}

		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("hex decode failed: %w", err)
		}

		return string(b), nil
	}, reverseString(func(s string) string {
		return hex.EncodeToString([]byte(s))
	}))
}

func reverseString(f func(string) string) func(any) (string, bool) {
	return func(v any) (string, bool) {
		s, ok := v.(string)
		if !ok {
			return "", false
		}

		return f(s), true
	}
}

// RegisterFormatModifiers adds json and uuid to reg.
func RegisterFormatModifiers(reg Modifiers) {
	reg.register("json", func(s string) (any, error) {
		if !gjson.Valid(s) {
			return nil, errors.New("invalid json")
		}

		return gjson.Parse(s).Value(), nil
	}, func(v any) (string, bool) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}

		return string(b), true
	})

	reg.register("uuid", func(s string) (any, error) {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("uuid conversion failed: %w", err)
		}

		return id, nil
	}, func(v any) (string, bool) {
		switch id := v.(type) {
		case uuid.UUID:
			return id.String(), true
		case string:
			_, err := uuid.Parse(id)
			return id, err == nil
		default:
			return "", false
		}
	})
}

// applyModifiers runs the chain on a raw capture. The chain stops at the
// first modifier returning something other than a string.
func applyModifiers(mods []*Modifier, raw string) (any, error) {
	var v any = raw
	for _, m := range mods {
		s, ok := v.(string)
		if !ok {
			break
		}

		r, err := m.Apply(s)
		if err != nil {
			return nil, fmt.Errorf("modifier %s: %w", m.Name, err)
		}

		v = r
	}

	return v, nil
}

// reverseModifiers renders a stored value back to text, running the
// reversible modifiers of the chain from last to first.
func reverseModifiers(mods []*Modifier, v any) (string, bool) {
	for i := len(mods) - 1; i >= 0; i-- {
		if mods[i].Reverse == nil {
			continue
		}

		s, ok := mods[i].Reverse(v)
		if !ok {
			// a modifier following a non-string result never ran
			if _, isString := v.(string); !isString {
				continue
			}

			return "", false
		}

		v = s
	}

	return stringify(v)
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *Store, Values, map[string]any, []any:
		return "", false
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
