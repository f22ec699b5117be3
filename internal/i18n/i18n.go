// Package i18n renders user-facing text from per-locale JSON dictionaries.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

const DefaultLanguage = "zh_CN"

var SupportedLanguages = []string{"zh_CN", "en_US", "ja_JP"}

// Translator looks up dotted keys such as "order.shipped_notice".
type Translator struct {
	dict     map[string]map[string]string
	fallback string
	langs    []string
	matcher  language.Matcher
}

// New loads the dictionaries compiled into the binary.
func New(fallback string) (*Translator, error) {
	return Load(embedded, "locales", fallback, SupportedLanguages)
}

// Load reads <dir>/<lang>.json for every supported language. Each file holds
// {"category": {"key": "text"}}. Only the fallback language is mandatory.
func Load(fsys fs.FS, dir, fallback string, supported []string) (*Translator, error) {
	if fallback == "" {
		fallback = DefaultLanguage
	}
	t := &Translator{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}

	// the fallback goes first so the matcher returns it on no match
	langs := []string{fallback}
	for _, l := range supported {
		if l != fallback {
			langs = append(langs, l)
		}
	}

	tags := make([]language.Tag, 0, len(langs))
	for _, l := range langs {
		raw, err := fs.ReadFile(fsys, path.Join(dir, l+".json"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var nested map[string]map[string]string
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		flat := map[string]string{}
		for category, entries := range nested {
			for k, v := range entries {
				flat[category+"."+k] = v
			}
		}
		tag, err := language.Parse(toBCP47(l))
		if err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", l, err)
		}
		t.dict[l] = flat
		t.langs = append(t.langs, l)
		tags = append(tags, tag)
	}

	t.matcher = language.NewMatcher(tags)
	return t, nil
}

// Fallback returns the configured fallback language.
func (t *Translator) Fallback() string { return t.fallback }

// Supported returns the loaded languages, sorted.
func (t *Translator) Supported() []string {
	out := append([]string(nil), t.langs...)
	sort.Strings(out)
	return out
}

// T translates key into lang, trying the fallback language and finally
// returning the key itself. {name} placeholders are filled from args.
func (t *Translator) T(lang, key string, args map[string]interface{}) string {
	text, ok := t.lookup(lang, key)
	if !ok {
		text, ok = t.lookup(t.fallback, key)
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, len(args)*2)
	for name, v := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (t *Translator) lookup(lang, key string) (string, bool) {
	m, ok := t.dict[lang]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

// Resolve picks the best loaded language for an Accept-Language header or a
// bare locale such as "ja_JP".
func (t *Translator) Resolve(acceptLang string) string {
	acceptLang = strings.TrimSpace(acceptLang)
	if acceptLang == "" {
		return t.fallback
	}
	if _, ok := t.dict[acceptLang]; ok {
		return acceptLang
	}
	prefs, _, err := language.ParseAcceptLanguage(toBCP47(acceptLang))
	if err != nil || len(prefs) == 0 {
		return t.fallback
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(t.langs) {
		return t.fallback
	}
	return t.langs[idx]
}

func toBCP47(locale string) string {
	return strings.ReplaceAll(locale, "_", "-")
}
