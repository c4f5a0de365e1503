// Package lines contains the text splitting helpers shared by every source
// kind. All offsets are byte offsets.
package lines

import "strings"

// Split splits s after every '\n'. Every element except possibly the last one
// ends with a newline. An empty string yields no lines.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	result := make([]string, 0, strings.Count(s, "\n")+1)
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			result = append(result, s)
			break
		}
		result = append(result, s[:i+1])
		s = s[i+1:]
	}
	return result
}

// End returns the generated position right after the last character of s:
// a 1-based line and a 0-based column.
func End(s string) (line, column int) {
	if s == "" {
		return 1, 0
	}
	last := strings.LastIndexByte(s, '\n')
	if last < 0 {
		return 1, len(s)
	}
	return strings.Count(s, "\n") + 1, len(s) - last - 1
}

func isStatementBreak(c byte) bool {
	switch c {
	case '\n', ';', '{', '}':
		return true
	}
	return false
}

func isTokenTail(c byte) bool {
	switch c {
	case ';', ' ', '{', '}', '\r', '\t':
		return true
	}
	return false
}

// Tokens splits s into statement-sized pieces: a run of ordinary characters,
// followed by a run of separators (';', '{', '}' and blanks) and an optional
// newline. Concatenating the result yields s again.
func Tokens(s string) []string {
	var result []string
	for i := 0; i < len(s); {
		start := i
		for i < len(s) && !isStatementBreak(s[i]) {
			i++
		}
		for i < len(s) && isTokenTail(s[i]) {
			i++
		}
		if i < len(s) && s[i] == '\n' {
			i++
		}
		result = append(result, s[start:i])
	}
	return result
}

// Slice returns s[from:to] with both bounds clamped to the string, so that
// positions taken from foreign source maps can never panic.
func Slice(s string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return ""
	}
	return s[from:to]
}
