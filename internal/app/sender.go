package app

import (
	"context"
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadbot/core/logger"
	"github.com/m3rciful/leadbot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/leadbot/core/telegram/sender"
	"github.com/m3rciful/leadbot/internal/flow"
	"log/slog"
)

// ErrBotNotStarted is returned for sends attempted before the bot is up.
var ErrBotNotStarted = errors.New("app: bot not started")

// telegramSender is the single outbound surface: conversation prompts go
// through the async dispatcher, fan-out deliveries are synchronous so the
// caller can observe per-recipient outcomes.
type telegramSender struct {
	bot  atomic.Pointer[tele.Bot]
	disp *tgsender.Dispatcher
}

func newTelegramSender(disp *tgsender.Dispatcher) *telegramSender {
	return &telegramSender{disp: disp}
}

// SetBot wires the live bot once the runtime has started.
func (s *telegramSender) SetBot(b *tele.Bot) {
	s.bot.Store(b)
}

// Prompt sends a conversation prompt, translating the flow keyboard into
// Telegram reply markup.
func (s *telegramSender) Prompt(ctx context.Context, sessionID int64, text string, kb *flow.Keyboard) error {
	bot := s.bot.Load()
	if bot == nil {
		return ErrBotNotStarted
	}

	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markupFor(kb)}
	to := &tele.User{ID: sessionID}
	run := func() error {
		_, err := bot.Send(to, text, opts)
		return err
	}

	if s.disp == nil {
		return run()
	}
	if err := s.disp.Enqueue(ctx, "send.prompt", "sendMessage", run); err != nil {
		if errors.Is(err, tgsender.ErrQueueFull) || errors.Is(err, tgsender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", "send.prompt"),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendTo delivers one fan-out message to a recipient chat.
func (s *telegramSender) SendTo(ctx context.Context, chatID int64, text string) error {
	bot := s.bot.Load()
	if bot == nil {
		return ErrBotNotStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}

func markupFor(kb *flow.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	switch {
	case len(kb.Inline) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			btns := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				btns = append(btns, keyboard.InlineBtn{
					Text:   b.Text,
					Unique: flowCallbackKey,
					Data:   b.Payload,
				})
			}
			rows = append(rows, btns)
		}
		return keyboard.InlineButtonsRows(rows...)
	case kb.RequestContact:
		return keyboard.ContactRequestKeyboard(kb.ShareLabel, kb.ManualLabel)
	case kb.Remove:
		return keyboard.RemoveKeyboard()
	default:
		return nil
	}
}
