// Package normalize turns free-text prompts and keyword lists into clean,
// expanded search tokens. It handles two languages: Turkish input is
// casefolded, ASCII-folded, suffix-stripped and looked up in a synonym
// table; English input passes through stopword and length filters.
package normalize

import (
	"regexp"
	"strings"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
)

// tokenClean matches every rune outside the token allow-list. Matches are
// replaced with spaces before splitting.
var tokenClean = regexp.MustCompile(`[^0-9A-Za-zçğıöşüÇĞİÖŞÜ+#\-/_.]`)

// minTokenLen is the shortest token kept after cleaning.
const minTokenLen = 3

// Normalizer applies the full keyword pipeline. Construct once per table
// set; safe for concurrent use after construction.
type Normalizer struct {
	stopwords    map[string]struct{}
	synonyms     map[string][]string
	synonymOrder []string
	maxPhraseLen int
	suffixes     []string
}

// New builds a Normalizer from the given tables.
func New(tables *config.Tables) *Normalizer {
	n := &Normalizer{
		stopwords: make(map[string]struct{}),
		synonyms:  make(map[string][]string),
		suffixes:  tables.Suffixes,
	}
	for _, w := range tables.StopwordsTR {
		n.stopwords[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range tables.StopwordsEN {
		n.stopwords[strings.ToLower(w)] = struct{}{}
	}
	n.maxPhraseLen = 1
	for _, entry := range tables.Synonyms {
		key := n.lookupKey(entry.Phrase)
		if key == "" {
			continue
		}
		if _, exists := n.synonyms[key]; !exists {
			n.synonymOrder = append(n.synonymOrder, key)
		}
		n.synonyms[key] = entry.Terms
		if l := len(strings.Fields(key)); l > n.maxPhraseLen {
			n.maxPhraseLen = l
		}
	}
	return n
}

// Fold maps the Turkish alphabet onto ASCII.
func Fold(s string) string {
	return foldReplacer.Replace(s)
}

var foldReplacer = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ş", "s", "ö", "o", "ü", "u",
	"Ç", "C", "Ğ", "G", "İ", "I", "Ö", "O", "Ş", "S", "Ü", "U",
)

// IsStopword reports whether the casefolded token is in the combined
// stopword set.
func (n *Normalizer) IsStopword(tok string) bool {
	_, ok := n.stopwords[strings.ToLower(tok)]
	return ok
}

// Tokens splits text into casefolded tokens. Quoted phrases survive as
// single multi-word tokens; unquoted text splits on whitespace after the
// allow-list cleanup.
func (n *Normalizer) Tokens(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range splitQuoted(text) {
		if part == "" {
			continue
		}
		cleaned := tokenClean.ReplaceAllString(part, " ")
		if strings.ContainsAny(part, " \t") {
			// Quoted phrase: keep as one token, inner whitespace collapsed.
			fields := strings.Fields(cleaned)
			for i, f := range fields {
				fields[i] = strings.ToLower(f)
			}
			if phrase := strings.Join(fields, " "); phrase != "" {
				out = append(out, phrase)
			}
			continue
		}
		for _, chunk := range strings.Fields(cleaned) {
			out = append(out, strings.ToLower(chunk))
		}
	}
	return out
}

// BaseTokens tokenizes prompt and keywords together and applies the
// stopword, minimum-length and first-seen dedup rules. This is the
// pre-synonym token set.
func (n *Normalizer) BaseTokens(prompt, keywords string) []string {
	toks := append(n.Tokens(prompt), n.Tokens(keywords)...)
	var out []string
	seen := make(map[string]struct{}, len(toks))
	for _, tok := range toks {
		if n.IsStopword(tok) || runeLen(tok) < minTokenLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// FoldedBase returns the ASCII projection of BaseTokens, with hardened
// stems of inflected tokens appended. This feeds the "basic" query
// strategy, which bypasses the synonym table entirely.
func (n *Normalizer) FoldedBase(prompt, keywords string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(tok string) {
		if tok == "" || n.IsStopword(tok) || runeLen(tok) < minTokenLen {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, tok := range n.BaseTokens(prompt, keywords) {
		folded := Fold(tok)
		add(folded)
		if stem, ok := n.stripSuffix(folded); ok {
			add(Fold(hardenFinal(stem)))
		}
	}
	return out
}

// Expand runs the full normalization contract: tokenize, filter, recognize
// multi-word synonym phrases, expand single tokens through the synonym
// table (via direct, folded and stemmed lookup keys), and keep literal
// candidates for tokens the table does not cover. Synonym expansions come
// first in input order, literals after; the whole result is deduplicated
// case-insensitively.
//
// An empty result is legitimate; callers fall back per the strategy
// builder's rules.
func (n *Normalizer) Expand(prompt, keywords string) []string {
	base := n.BaseTokens(prompt, keywords)

	var expanded, literals []string
	i := 0
	for i < len(base) {
		if terms, width := n.matchPhrase(base, i); width > 0 {
			expanded = append(expanded, terms...)
			i += width
			continue
		}
		tok := base[i]
		i++

		hit := false
		for _, key := range n.LookupKeys(tok) {
			if terms, ok := n.synonyms[key]; ok {
				expanded = append(expanded, terms...)
				hit = true
			}
		}
		if !hit {
			literals = append(literals, tok, Fold(tok))
		}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, cand := range append(expanded, literals...) {
		cand = strings.TrimSpace(cand)
		if runeLen(cand) < minTokenLen || n.IsStopword(cand) {
			continue
		}
		key := strings.ToLower(cand)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cand)
	}
	return out
}

// matchPhrase tries a greedy longest-first match of multi-word synonym
// keys starting at base[i]. Returns the expansions and the number of
// tokens consumed, or width 0 when nothing matches.
func (n *Normalizer) matchPhrase(base []string, i int) ([]string, int) {
	max := n.maxPhraseLen
	if remaining := len(base) - i; max > remaining {
		max = remaining
	}
	for l := max; l >= 2; l-- {
		key := n.lookupKey(strings.Join(base[i:i+l], " "))
		if terms, ok := n.synonyms[key]; ok {
			return terms, l
		}
	}
	return nil, 0
}

// LookupKeys returns the synonym-table lookup keys derived from one token:
// the normalized token itself plus any suffix-stripped stems (and their
// final-consonant-hardened variants), all ASCII-folded.
func (n *Normalizer) LookupKeys(tok string) []string {
	var keys []string
	seen := make(map[string]struct{})
	add := func(k string) {
		if k == "" {
			return
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	lower := strings.ToLower(tok)
	add(n.lookupKey(lower))
	for _, form := range []string{lower, Fold(lower)} {
		if stem, ok := n.stripSuffix(form); ok {
			add(n.lookupKey(stem))
			add(n.lookupKey(hardenFinal(stem)))
		}
	}
	return keys
}

// lookupKey produces the canonical synonym-table key: cleaned, casefolded,
// ASCII-folded, single-spaced.
func (n *Normalizer) lookupKey(term string) string {
	cleaned := tokenClean.ReplaceAllString(term, " ")
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return Fold(cleaned)
}

// stripSuffix removes the first (longest, by table order) matching
// agglutinative suffix. Applied at most once per token: the stem is never
// re-stripped, which keeps stemming idempotent and prevents cascading
// over-stripping.
func (n *Normalizer) stripSuffix(tok string) (string, bool) {
	runes := []rune(tok)
	for _, suf := range n.suffixes {
		if !strings.HasSuffix(tok, suf) {
			continue
		}
		stemLen := len(runes) - len([]rune(suf))
		if stemLen < minTokenLen {
			continue
		}
		return string(runes[:stemLen]), true
	}
	return "", false
}

// hardenFinal reverses Turkish final-consonant softening so that a stripped
// stem like "güvenliğ" (from "güvenliği") reaches the dictionary form
// "güvenlik". Tokens ending in other runes pass through unchanged.
func hardenFinal(stem string) string {
	runes := []rune(stem)
	if len(runes) == 0 {
		return stem
	}
	switch runes[len(runes)-1] {
	case 'ğ', 'g':
		runes[len(runes)-1] = 'k'
	case 'b':
		runes[len(runes)-1] = 'p'
	case 'c':
		runes[len(runes)-1] = 'ç'
	case 'd':
		runes[len(runes)-1] = 't'
	default:
		return stem
	}
	return string(runes)
}

func runeLen(s string) int {
	return len([]rune(s))
}
