package i18n

// Text keys used by the conversation flow and lead rendering.
const (
	KeyLanguageName  = "language.name"
	KeyAskLanguage   = "ask.language"
	KeyAskName       = "ask.name"
	KeyAskMethod     = "ask.method"
	KeyAskPhone      = "ask.phone"
	KeyPhoneInvalid  = "phone.invalid"
	KeyAskNote       = "ask.note"
	KeyDone          = "done"
	KeyBtnShare      = "btn.share_contact"
	KeyBtnManual     = "btn.enter_manual"
	KeyMethodCall    = "method.call"
	KeyMethodTG      = "method.telegram"
	KeyMethodWA      = "method.whatsapp"
	KeyLeadTitle     = "lead.title"
	KeyLeadName      = "lead.name"
	KeyLeadPhone     = "lead.phone"
	KeyLeadMethod    = "lead.method"
	KeyLeadNote      = "lead.note"
	KeyLeadFrom      = "lead.from"
)

var languageOrder = []string{"ru", "en"}

var texts = map[string]map[string]string{
	"ru": {
		KeyLanguageName: "Русский",
		KeyAskLanguage:  "Здравствуйте! Выберите язык.\n\nHello! Choose a language.",
		KeyAskName:      "Давайте оставим заявку.\n\n1) Напишите ваше *имя*.",
		KeyAskMethod:    "Как с вами удобнее связаться? Напишите или выберите: звонок, Telegram, WhatsApp.",
		KeyAskPhone:     "2) Оставьте *телефон*.\n\nМожно поделиться контактом кнопкой ниже или ввести вручную.",
		KeyPhoneInvalid: "Не похоже на номер. Введите в международном формате, например +79991234567.",
		KeyAskNote:      "3) Добавьте сообщение (по желанию). Если не нужно — отправьте «-».",
		KeyDone:         "Спасибо! Ваша заявка отправлена. Мы свяжемся с вами в ближайшее время.",
		KeyBtnShare:     "Поделиться контактом",
		KeyBtnManual:    "Ввести номер вручную",
		KeyMethodCall:   "Звонок",
		KeyMethodTG:     "Telegram",
		KeyMethodWA:     "WhatsApp",
		KeyLeadTitle:    "Новая заявка 📝",
		KeyLeadName:     "Имя",
		KeyLeadPhone:    "Телефон",
		KeyLeadMethod:   "Связь",
		KeyLeadNote:     "Сообщение",
		KeyLeadFrom:     "От",
	},
	"en": {
		KeyLanguageName: "English",
		KeyAskLanguage:  "Здравствуйте! Выберите язык.\n\nHello! Choose a language.",
		KeyAskName:      "Let's leave a request.\n\n1) What is your *name*?",
		KeyAskMethod:    "How should we reach you? Type or pick: call, Telegram, WhatsApp.",
		KeyAskPhone:     "2) Leave your *phone number*.\n\nShare your contact with the button below or type it in.",
		KeyPhoneInvalid: "That does not look like a number. Use the international format, e.g. +14155550132.",
		KeyAskNote:      "3) Add a message (optional). Send \"-\" to skip.",
		KeyDone:         "Thank you! Your request has been sent. We will get back to you shortly.",
		KeyBtnShare:     "Share contact",
		KeyBtnManual:    "Type the number",
		KeyMethodCall:   "Phone call",
		KeyMethodTG:     "Telegram",
		KeyMethodWA:     "WhatsApp",
		KeyLeadTitle:    "New lead 📝",
		KeyLeadName:     "Name",
		KeyLeadPhone:    "Phone",
		KeyLeadMethod:   "Contact via",
		KeyLeadNote:     "Message",
		KeyLeadFrom:     "From",
	},
}
