package flow

import "testing"

func TestMatchMethod(t *testing.T) {
	cases := []struct {
		lang, in, want string
	}{
		{"ru", "напишите в вотсап", MethodWhatsApp},
		{"en", "WhatsApp please", MethodWhatsApp},
		{"ru", "лучше телеграм", MethodTelegram},
		{"en", "Telegram", MethodTelegram},
		{"ru", "позвоните мне", MethodCall},
		{"ru", "Звонок", MethodCall},
		{"en", "just call me", MethodCall},
		{"en", "by phone", MethodCall},
		// Language-scoped rules do not leak across locales.
		{"en", "звонок", DefaultMethod},
		// Unmatched input falls back instead of reprompting.
		{"ru", "голубиной почтой", DefaultMethod},
		{"en", "", DefaultMethod},
	}
	for _, tc := range cases {
		if got := MatchMethod(tc.lang, tc.in); got != tc.want {
			t.Errorf("MatchMethod(%q, %q) = %q, want %q", tc.lang, tc.in, got, tc.want)
		}
	}
}

func TestIsSkipToken(t *testing.T) {
	skip := []struct{ lang, in string }{
		{"ru", "-"}, {"en", "-"}, {"ru", "—"},
		{"ru", "нет"}, {"ru", "Не нужно"}, {"en", "no"}, {"en", "Skip"},
		{"ru", ""},
	}
	for _, tc := range skip {
		if !IsSkipToken(tc.lang, tc.in) {
			t.Errorf("IsSkipToken(%q, %q) = false, want true", tc.lang, tc.in)
		}
	}

	keep := []struct{ lang, in string }{
		{"ru", "перезвоните завтра"}, {"en", "note for the manager"},
		// Locale-specific tokens do not leak.
		{"en", "нет"}, {"ru", "skip"},
	}
	for _, tc := range keep {
		if IsSkipToken(tc.lang, tc.in) {
			t.Errorf("IsSkipToken(%q, %q) = true, want false", tc.lang, tc.in)
		}
	}
}
