package flow

import "strings"

// Canonical contact method codes.
const (
	MethodCall     = "call"
	MethodTelegram = "telegram"
	MethodWhatsApp = "whatsapp"

	// DefaultMethod is applied when input matches no rule.
	DefaultMethod = MethodCall
)

// methodRule maps input keywords to a canonical method code. Rules are
// evaluated in order, first match wins; an empty lang applies to any
// language. New locales extend the table, not the control flow.
type methodRule struct {
	lang     string
	keywords []string
	result   string
}

var methodRules = []methodRule{
	{keywords: []string{"whatsapp", "whats app", "ватсап", "вотсап", "вацап"}, result: MethodWhatsApp},
	{keywords: []string{"telegram", "телеграм", "tg", "тг"}, result: MethodTelegram},
	{lang: "ru", keywords: []string{"звон", "позвон", "телефон"}, result: MethodCall},
	{lang: "en", keywords: []string{"call", "phone"}, result: MethodCall},
}

// knownMethods guards button payloads against stale or foreign tokens.
var knownMethods = map[string]struct{}{
	MethodCall:     {},
	MethodTelegram: {},
	MethodWhatsApp: {},
}

// MatchMethod maps free text to a contact method using case-insensitive
// substring matching, falling back to DefaultMethod.
func MatchMethod(lang, input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return DefaultMethod
	}
	for _, rule := range methodRules {
		if rule.lang != "" && rule.lang != lang {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(in, kw) {
				return rule.result
			}
		}
	}
	return DefaultMethod
}

// skipTokens normalize to the canonical empty-note marker. An empty lang
// applies to any language.
var skipTokens = map[string][]string{
	"":   {"-", "—"},
	"ru": {"нет", "не нужно"},
	"en": {"no", "none", "skip"},
}

// EmptyNote is the canonical marker stored when the user skips the note.
const EmptyNote = "-"

// IsSkipToken reports whether input means "no note".
func IsSkipToken(lang, input string) bool {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return true
	}
	for _, tok := range skipTokens[""] {
		if in == tok {
			return true
		}
	}
	for _, tok := range skipTokens[lang] {
		if in == tok {
			return true
		}
	}
	return false
}
