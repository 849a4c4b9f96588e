package corpus

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// CleanText flattens a submission body to a single line: HTML markup is
// stripped, CR/LF become spaces and runs of whitespace collapse to one.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		s = stripHTML(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// stripHTML extracts the text content of embedded markup. Self-posts come
// back from the API with escaped HTML often enough that we always fold it
// away before storing.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to the raw string if parsing fails
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}

// HeuristicEnglish reports whether text looks English: more than 70% of its
// letters fall in the ASCII alphabet. Empty or letterless text passes.
func HeuristicEnglish(text string) bool {
	var ascii, total int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		lower := unicode.ToLower(r)
		if lower >= 'a' && lower <= 'z' {
			ascii++
		}
	}
	if total == 0 {
		return true
	}
	return float64(ascii)/float64(total) > 0.7
}
