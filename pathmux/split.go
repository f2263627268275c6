package pathmux

import "strings"

// splitPattern splits a key pattern into sections. The separator does not
// split inside captures and optional sections, nor when it is escaped.
func splitPattern(key string, sep byte) []string {
	var (
		sections []string
		depth    int
		start    int
	)

	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '\\':
			i++
		case '{', '[':
			depth++
		case '}', ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				sections = append(sections, key[start:i])
				start = i + 1
			}
		}
	}

	return append(sections, key[start:])
}

// splitKey splits a lookup key into sections.
func splitKey(key string, sep byte) []string {
	return strings.Split(key, string(sep))
}
