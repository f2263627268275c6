/*
Package matcher implements a small pattern language used to test,
extract from and render strings.

A format string is compiled once into a Matcher, which can then be used
concurrently by any number of callers. The same pattern serves three
purposes: Compare tells whether a subject matches, Match stores the
captured values in a destination, and Template renders a subject from a
set of values.

# Grammar

	text          literal text, matched exactly
	{Name}        captures text under Name
	{Name:Tests}  captures text matching one of the |-separated tests
	{Name:Tests:Modifiers}
	              like above, converting the capture with the ,-separated
	              modifiers, e.g. {Port:*:int}
	{}            a positional capture, stored as "0", "1", ...
	[...]         optional section, skipped when it does not match
	^             zero or more whitespace characters
	*             any text
	?             exactly one character
	\X            the literal character X

Captures and wildcards are greedy, and the end of a run is decided by
what follows it in the pattern. When everything after the run has a fixed
width, the run ends that far before the end of the subject. When literal
text follows, the run ends at the last occurrence of that text after which
the rest of the pattern still matches, and the captured text passes its
tests and modifiers:

	{dir}/{file}     "a/b/c.txt"  dir=a/b file=c.txt
	{Port::int}/{P}  "80/x/y"     Port=80 P=x/y

When an optional group or ^ follows, the run ends where the group or the
whitespace may start first. Prefix matches always stop at the first
occurrence.
Without such an anchor it extends to the end of the subject.

Tests are patterns themselves. When the tests of a capture contain
captures, the captured text is matched against them and stored as a
nested Store. When the nested captures are exactly Key and Value, they
form a single entry instead:

	m := matcher.MustCompile("&{Param:{Key}={Value}}")

# Example

	m := matcher.MustCompile("{Host}:{Port:*:int}")

	s, ok := m.MatchStore("example.org:8080")
	// s: Host=example.org Port=8080 (int)

	out, ok := m.Template(matcher.Values{"Host": "localhost", "Port": 80})
	// out: localhost:80

An invalid format does not make Compile fail. The returned Matcher is
inert, every operation on it reports failure, and Err tells the reason.

# Typed destinations

CompileTyped compiles a pattern for a destination type. Capture names are
resolved to members once, and the pattern is composed into closures, so
extracting into a struct does not go through a Store:

	type endpoint struct {
		Host string
		Port int
	}

	t := matcher.CompileTyped("{Host}:{Port}", matcher.FieldMembers[endpoint]())

	var e endpoint
	ok := t.Extract("example.org:8080", &e)
*/
package matcher
