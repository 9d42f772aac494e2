// Package i18n resolves display texts for the lead-capture conversation.
//
// The table is static and immutable at runtime. Resolution never fails: an
// unknown language falls back to the configured default, and a key missing
// even there resolves to the key name itself so the conversation cannot
// stall on a translation gap.
package i18n

import "strings"

// FallbackLanguage is used when the configured default is itself unknown.
const FallbackLanguage = "ru"

// Table maps language code -> text key -> display string.
type Table struct {
	def   string
	texts map[string]map[string]string
}

// NewTable builds a resolver over the built-in texts with the given default
// language. An unknown default falls back to FallbackLanguage.
func NewTable(defaultLang string) *Table {
	def := strings.ToLower(strings.TrimSpace(defaultLang))
	if _, ok := texts[def]; !ok {
		def = FallbackLanguage
	}
	return &Table{def: def, texts: texts}
}

// Default returns the default language code.
func (t *Table) Default() string {
	return t.def
}

// Known reports whether lang is a recognized language code.
func (t *Table) Known(lang string) bool {
	_, ok := t.texts[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// Languages lists recognized language codes with the default first.
func (t *Table) Languages() []string {
	out := []string{t.def}
	for _, lang := range languageOrder {
		if lang != t.def {
			out = append(out, lang)
		}
	}
	return out
}

// Resolve returns the display string for (lang, key).
func (t *Table) Resolve(lang, key string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if m, ok := t.texts[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := t.texts[t.def][key]; ok {
		return s
	}
	return key
}
