package i18n

import "testing"

func TestResolveFallbacks(t *testing.T) {
	tbl := NewTable("ru")

	if got := tbl.Resolve("en", KeyDone); got != texts["en"][KeyDone] {
		t.Errorf("Resolve(en, done) = %q", got)
	}
	// Unknown language falls back to the default, never empty.
	if got := tbl.Resolve("xx", KeyDone); got != texts["ru"][KeyDone] {
		t.Errorf("Resolve(xx, done) = %q, want default-language text", got)
	}
	if got := tbl.Resolve("", KeyAskName); got != texts["ru"][KeyAskName] {
		t.Errorf("Resolve(\"\", ask.name) = %q, want default-language text", got)
	}
	// Missing key resolves to the key itself.
	if got := tbl.Resolve("ru", "no.such.key"); got != "no.such.key" {
		t.Errorf("Resolve(ru, no.such.key) = %q, want key name", got)
	}
}

func TestNewTableUnknownDefault(t *testing.T) {
	tbl := NewTable("de")
	if tbl.Default() != FallbackLanguage {
		t.Fatalf("Default() = %q, want %q", tbl.Default(), FallbackLanguage)
	}
}

func TestLanguagesDefaultFirst(t *testing.T) {
	tbl := NewTable("en")
	langs := tbl.Languages()
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "ru" {
		t.Fatalf("Languages() = %v", langs)
	}
	for _, lang := range langs {
		if !tbl.Known(lang) {
			t.Errorf("Known(%q) = false", lang)
		}
	}
}

func TestEveryKeyResolvesNonEmpty(t *testing.T) {
	tbl := NewTable("ru")
	for lang := range texts {
		for key := range texts[FallbackLanguage] {
			if got := tbl.Resolve(lang, key); got == "" {
				t.Errorf("Resolve(%q, %q) returned empty string", lang, key)
			}
		}
	}
}
