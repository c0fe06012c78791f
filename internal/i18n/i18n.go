package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Telugu  Language = "te"
)

// Default is used when a key is missing in the requested language.
const Default = English

var languages = map[Language]struct {
	name   string
	speech string
}{
	English: {"English", "en-US"},
	Hindi:   {"हिंदी", "hi-IN"},
	Telugu:  {"తెలుగు", "te-IN"},
}

//go:embed locales/*.yaml
var localeFS embed.FS

var tables map[Language]map[string]string

func init() {
	t, err := loadTables()
	if err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	tables = t
}

func loadTables() (map[Language]map[string]string, error) {
	out := make(map[Language]map[string]string, len(languages))
	for lang := range languages {
		raw, err := localeFS.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			return nil, err
		}
		m := map[string]string{}
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", lang, err)
		}
		out[lang] = m
	}
	return out, nil
}

// Parse validates a language code.
func Parse(code string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := languages[l]; !ok {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return l, nil
}

func Supported(code string) bool {
	_, err := Parse(code)
	return err == nil
}

func Languages() []Language {
	out := make([]Language, 0, len(languages))
	for l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name is the language's own name for itself.
func (l Language) Name() string {
	return languages[l].name
}

// SpeechCode is the BCP-47 tag used by speech services.
func (l Language) SpeechCode() string {
	if s, ok := languages[l]; ok {
		return s.speech
	}
	return languages[Default].speech
}

// Lookup falls back to English and then to the key itself.
func Lookup(lang Language, key string) string {
	if s, ok := tables[lang][key]; ok && s != "" {
		return s
	}
	if s, ok := tables[Default][key]; ok {
		return s
	}
	return key
}

// Format looks up key and substitutes {name} placeholders.
func Format(lang Language, key string, args map[string]string) string {
	s := Lookup(lang, key)
	if len(args) == 0 {
		return s
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Table returns the full resolved table for lang, English filling gaps.
func Table(lang Language) map[string]string {
	out := make(map[string]string, len(tables[Default]))
	for k, v := range tables[Default] {
		out[k] = v
	}
	for k, v := range tables[lang] {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
