package normalize

import "strings"

// splitQuoted splits text on whitespace while keeping single- or
// double-quoted runs together, shell style. A dangling quote makes the
// whole input fall back to plain whitespace splitting, mirroring how the
// upstream pipeline degrades on malformed quoting.
func splitQuoted(text string) []string {
	var parts []string
	var cur strings.Builder
	var quote rune
	inToken := false

	flush := func() {
		if inToken {
			parts = append(parts, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for _, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return strings.Fields(text)
	}
	flush()
	return parts
}
