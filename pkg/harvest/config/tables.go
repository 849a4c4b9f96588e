// Package config holds the fixed lookup tables and tunables the acquisition
// engine consumes. All tables ship with compiled-in defaults and can be
// replaced wholesale from a YAML file, so tests and deployments can swap
// them without code changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SynonymEntry maps a source-language phrase to its canonical English
// expansions. Entry order is meaningful: expansions surface in table order.
type SynonymEntry struct {
	Phrase string   `yaml:"phrase"`
	Terms  []string `yaml:"terms"`
}

// CuratedEntry maps a topic substring to a hand-picked community list used
// when live discovery comes back empty.
type CuratedEntry struct {
	Topic       string   `yaml:"topic"`
	Communities []string `yaml:"communities"`
}

// Tables bundles every fixed table the engine needs. Pass by reference into
// the components; never mutated after load.
type Tables struct {
	StopwordsTR     []string       `yaml:"stopwords_tr"`
	StopwordsEN     []string       `yaml:"stopwords_en"`
	Synonyms        []SynonymEntry `yaml:"synonyms"`
	Suffixes        []string       `yaml:"suffixes"`
	Curated         []CuratedEntry `yaml:"curated"`
	DenyCommunities []string       `yaml:"deny_communities"`
	FallbackTerms   []string       `yaml:"fallback_terms"`
}

// DefaultTables returns the built-in tables. The stopword sets, the synonym
// map and the curated community lists target Turkish-language prompts about
// consumer software research; deployments for other domains load their own.
func DefaultTables() *Tables {
	return &Tables{
		StopwordsTR: []string{
			"ve", "ile", "de", "da", "mi", "mı", "mu", "mü", "bir", "bu", "şu", "o",
			"çok", "cok", "gibi", "icin", "için", "ya", "ama", "fakat", "ancak", "ki",
			"ise", "neden", "niye", "nasıl", "nasil", "ne", "var", "yok", "olan",
			"olmak", "olması", "olmasi", "kadar", "hakkında", "hakkinda", "üzerine",
			"uzerine", "üzerinde", "uzerinde",
		},
		StopwordsEN: []string{
			"the", "a", "an", "and", "or", "of", "in", "on", "to", "for", "by", "is",
			"are", "with", "from", "about", "how", "what", "why", "when", "where",
			"who", "does", "should", "could",
		},
		Synonyms: []SynonymEntry{
			{Phrase: "ilmi", Terms: []string{"physiognomy", "face reading", "face analysis"}},
			{Phrase: "sima", Terms: []string{"physiognomy", "face reading"}},
			{Phrase: "ilmi sima", Terms: []string{"physiognomy", "face reading", "face mapping"}},
			{Phrase: "yüz okuma", Terms: []string{"face reading", "physiognomy"}},
			{Phrase: "mobil", Terms: []string{"mobile", "mobile app", "mobile application"}},
			{Phrase: "uygulama", Terms: []string{"app", "application", "mobile app"}},
			{Phrase: "uygulama özellikler", Terms: []string{"app features", "feature set", "product requirements"}},
			{Phrase: "özellikler", Terms: []string{"features", "feature set"}},
			{Phrase: "kullanıcı deneyimi", Terms: []string{"user experience", "ux", "ux research", "ux design"}},
			{Phrase: "tasarım", Terms: []string{"design", "app design", "ui design", "ux design"}},
			{Phrase: "performans", Terms: []string{"performance", "app performance", "performance optimization"}},
			{Phrase: "güvenlik", Terms: []string{"security", "app security", "mobile security", "data privacy"}},
			{Phrase: "yenilikçilik", Terms: []string{"innovation", "innovative features", "innovation strategy"}},
			{Phrase: "yapay zeka", Terms: []string{"artificial intelligence", "ai"}},
			{Phrase: "sesli komut", Terms: []string{"voice control", "voice commands", "speech recognition"}},
		},
		// Longest-first so a single pass strips the longest matching
		// case/possessive/plural marker. Both accented and folded forms
		// appear because lookups run on folded tokens too.
		Suffixes: []string{
			"larından", "lerinden", "larında", "lerinde",
			"lardan", "lerden", "larda", "lerde", "ların", "lerin",
			"lara", "lere", "ları", "leri", "lar", "ler",
			"ından", "inden", "undan", "ünden", "indan", "unden",
			"ında", "inde", "unda", "ünde", "inda", "unde",
			"ının", "inin", "unun", "ünün", "inin", "unun",
			"dan", "den", "tan", "ten",
			"nın", "nin", "nun", "nün", "nin", "nun",
			"ına", "ine", "una", "üne", "ina", "une",
			"da", "de", "ta", "te",
			"ım", "im", "um", "üm", "im", "um",
			"sı", "si", "su", "sü",
			"ı", "i", "u", "ü", "a", "e",
		},
		Curated: []CuratedEntry{
			{Topic: "ai", Communities: []string{"r/MachineLearning", "r/artificial", "r/LocalLLaMA", "r/datascience"}},
			{Topic: "wellness", Communities: []string{"r/wellness", "r/selfimprovement", "r/productivity", "r/Meditation", "r/Anxiety"}},
			{Topic: "meditation", Communities: []string{"r/Meditation", "r/mindfulness", "r/selfimprovement"}},
			{Topic: "anxiety", Communities: []string{"r/Anxiety", "r/mentalhealth", "r/DecidingToBeBetter"}},
			{Topic: "productivity", Communities: []string{"r/productivity", "r/selfimprovement", "r/GetDisciplined", "r/lifehacks"}},
			{Topic: "security", Communities: []string{"r/netsec", "r/privacy", "r/cybersecurity"}},
			{Topic: "mobile", Communities: []string{"r/androidapps", "r/iosapps", "r/androiddev", "r/iOSProgramming"}},
		},
		DenyCommunities: []string{"r/all", "r/popular", "r/AskReddit"},
		FallbackTerms:   []string{"mobile app", "app features", "user experience", "product feedback"},
	}
}

// LoadTables reads a YAML tables file. Fields present in the file replace
// the corresponding default table; absent fields keep the defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var loaded Tables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse tables %s: %w", path, err)
	}

	t := DefaultTables()
	if len(loaded.StopwordsTR) > 0 {
		t.StopwordsTR = loaded.StopwordsTR
	}
	if len(loaded.StopwordsEN) > 0 {
		t.StopwordsEN = loaded.StopwordsEN
	}
	if len(loaded.Synonyms) > 0 {
		t.Synonyms = loaded.Synonyms
	}
	if len(loaded.Suffixes) > 0 {
		t.Suffixes = loaded.Suffixes
	}
	if len(loaded.Curated) > 0 {
		t.Curated = loaded.Curated
	}
	if len(loaded.DenyCommunities) > 0 {
		t.DenyCommunities = loaded.DenyCommunities
	}
	if len(loaded.FallbackTerms) > 0 {
		t.FallbackTerms = loaded.FallbackTerms
	}
	return t, nil
}
