package normalize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
)

func newTestNormalizer() *Normalizer {
	return New(config.DefaultTables())
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"güvenlik":  "guvenlik",
		"çğışöü":    "cgisou",
		"ÇĞİŞÖÜ":    "CGISOU",
		"plain":     "plain",
		"yapay şey": "yapay sey",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokensQuotedPhrase(t *testing.T) {
	n := newTestNormalizer()

	tokens := n.Tokens(`mobil "yapay zeka" deneyim`)
	want := []string{"mobil", "yapay zeka", "deneyim"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokens = %v, want %v", tokens, want)
	}
}

func TestTokensDanglingQuote(t *testing.T) {
	n := newTestNormalizer()

	// A malformed quote degrades to whitespace splitting.
	tokens := n.Tokens(`mobil "yapay zeka`)
	want := []string{"mobil", "yapay", "zeka"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokens = %v, want %v", tokens, want)
	}
}

func TestTokensCleansPunctuation(t *testing.T) {
	n := newTestNormalizer()

	tokens := n.Tokens("uygulama, (performans)! c++ c#")
	want := []string{"uygulama", "performans", "c++", "c#"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokens = %v, want %v", tokens, want)
	}
}

func TestBaseTokensFiltering(t *testing.T) {
	n := newTestNormalizer()

	// "ve" is a stopword, "az" is below the length floor, "mobil" repeats.
	got := n.BaseTokens("mobil ve az mobil uygulama", "")
	want := []string{"mobil", "uygulama"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BaseTokens = %v, want %v", got, want)
	}
}

func TestExpandSynonymsFirstLiteralsAfter(t *testing.T) {
	n := newTestNormalizer()

	got := n.Expand("tasarım kartopu", "")
	// "tasarım" expands through the table; "kartopu" is unknown and stays
	// as a literal (original plus folded form, identical here).
	want := []string{"design", "app design", "ui design", "ux design", "kartopu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}

func TestExpandLiteralKeepsFoldedVariant(t *testing.T) {
	n := newTestNormalizer()

	got := n.Expand("dağcılık", "")
	want := []string{"dağcılık", "dagcilik"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}

func TestExpandUnquotedPhraseAndInflection(t *testing.T) {
	n := newTestNormalizer()

	got := n.Expand("yapay zeka uygulama güvenliği", "")

	// The adjacent tokens "yapay zeka" must hit the two-word synonym key
	// without quoting.
	if len(got) == 0 || got[0] != "artificial intelligence" {
		t.Fatalf("Expand = %v, want artificial intelligence first", got)
	}
	// "güvenliği" must reach the "güvenlik" entry via suffix stripping and
	// final-consonant hardening.
	if !contains(got, "app security") || !contains(got, "data privacy") {
		t.Errorf("Expand = %v, want security expansions present", got)
	}
	// No literal leakage for tokens the table covered.
	if contains(got, "yapay") || contains(got, "zeka") || contains(got, "güvenliği") {
		t.Errorf("Expand = %v, covered tokens must not appear literally", got)
	}
}

func TestExpandDropsShortCandidates(t *testing.T) {
	n := newTestNormalizer()

	// "yapay zeka" expands to {"artificial intelligence", "ai"}; "ai" is
	// below the length floor and must be filtered from the result.
	got := n.Expand(`"yapay zeka"`, "")
	want := []string{"artificial intelligence"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}

func TestExpandDeduplicatesCaseInsensitively(t *testing.T) {
	n := newTestNormalizer()

	// "mobil" and "uygulama" both expand to "mobile app"; it must appear
	// once, at its first position.
	got := n.Expand("mobil uygulama", "")
	count := 0
	for _, term := range got {
		if strings.EqualFold(term, "mobile app") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expand = %v, want exactly one mobile app", got)
	}
}

func TestExpandEmptyInput(t *testing.T) {
	n := newTestNormalizer()
	if got := n.Expand("", ""); got != nil {
		t.Errorf("Expand on empty input = %v, want nil", got)
	}
	// All stopwords is as good as empty.
	if got := n.Expand("ve ile bir", ""); got != nil {
		t.Errorf("Expand on stopwords = %v, want nil", got)
	}
}

func TestFoldedBase(t *testing.T) {
	n := newTestNormalizer()

	got := n.FoldedBase("güvenliği kartopu", "")
	// Each folded token is followed by its hardened folded stem.
	want := []string{"guvenligi", "guvenlik", "kartopu", "kartop"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FoldedBase = %v, want %v", got, want)
	}
}

func TestLookupKeysInflected(t *testing.T) {
	n := newTestNormalizer()

	keys := n.LookupKeys("güvenliği")
	if !contains(keys, "guvenlik") {
		t.Errorf("LookupKeys = %v, want guvenlik present", keys)
	}
}

func TestStripSuffixIdempotent(t *testing.T) {
	n := newTestNormalizer()

	stem, ok := n.stripSuffix("uygulamalar")
	if !ok || stem != "uygulama" {
		t.Fatalf("stripSuffix = %q, %v", stem, ok)
	}
	// The stem itself still ends in a vowel suffix; a second application
	// must be the caller's choice, never implicit.
	stem2, ok2 := n.stripSuffix(stem)
	if !ok2 || stem2 != "uygulam" {
		t.Fatalf("second stripSuffix = %q, %v", stem2, ok2)
	}
}

func TestStripSuffixRespectsMinStem(t *testing.T) {
	n := newTestNormalizer()

	// Stripping "lar" would leave a 2-rune stem.
	if stem, ok := n.stripSuffix("onlar"); ok && len([]rune(stem)) < 3 {
		t.Errorf("stripSuffix produced short stem %q", stem)
	}
}

func TestHardenFinal(t *testing.T) {
	cases := map[string]string{
		"güvenliğ": "güvenlik",
		"kitab":    "kitap",
		"ağac":     "ağaç",
		"kanad":    "kanat",
		"deniz":    "deniz",
		"":         "",
	}
	for in, want := range cases {
		if got := hardenFinal(in); got != want {
			t.Errorf("hardenFinal(%q) = %q, want %q", in, got, want)
		}
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
