package notify

import (
	"fmt"
	"strings"

	"github.com/m3rciful/leadbot/core/telegram/format"
	"github.com/m3rciful/leadbot/internal/flow"
	"github.com/m3rciful/leadbot/internal/i18n"
)

// RenderCard renders the lead card sent to recipients. Labels use the
// table's default language; user-supplied values are escaped for Markdown.
func RenderCard(texts *i18n.Table, lead flow.Lead) string {
	lang := texts.Default()

	from := lead.Username
	if from != "" {
		from = "@" + from
	} else {
		from = fmt.Sprintf("%d", lead.SessionID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", texts.Resolve(lang, i18n.KeyLeadTitle))
	fmt.Fprintf(&b, "%s: %s\n", texts.Resolve(lang, i18n.KeyLeadName), escape(lead.Name))
	fmt.Fprintf(&b, "%s: %s\n", texts.Resolve(lang, i18n.KeyLeadPhone), escape(lead.Phone))
	fmt.Fprintf(&b, "%s: %s\n", texts.Resolve(lang, i18n.KeyLeadMethod), methodLabel(texts, lang, lead.Method))
	fmt.Fprintf(&b, "%s: %s\n\n", texts.Resolve(lang, i18n.KeyLeadNote), escape(lead.Note))
	fmt.Fprintf(&b, "%s: %s", texts.Resolve(lang, i18n.KeyLeadFrom), escape(from))
	return b.String()
}

func methodLabel(texts *i18n.Table, lang, method string) string {
	switch method {
	case flow.MethodTelegram:
		return texts.Resolve(lang, i18n.KeyMethodTG)
	case flow.MethodWhatsApp:
		return texts.Resolve(lang, i18n.KeyMethodWA)
	default:
		return texts.Resolve(lang, i18n.KeyMethodCall)
	}
}

func escape(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}
