// Package app wires the lead-capture conversation flow to the Telegram
// runtime: configuration, logging, optional lead archive, fan-out, and the
// update-to-event adaptation.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/leadbot/core/cmd"
	coreconfig "github.com/m3rciful/leadbot/core/config"
	"github.com/m3rciful/leadbot/core/database"
	"github.com/m3rciful/leadbot/core/logger"
	tg "github.com/m3rciful/leadbot/core/telegram"
	"github.com/m3rciful/leadbot/core/telegram/commands"
	"github.com/m3rciful/leadbot/core/telegram/router"
	tgsender "github.com/m3rciful/leadbot/core/telegram/sender"
	"github.com/m3rciful/leadbot/internal/flow"
	"github.com/m3rciful/leadbot/internal/i18n"
	"github.com/m3rciful/leadbot/internal/leads"
	"github.com/m3rciful/leadbot/internal/notify"
)

type carrier struct {
	cfg *coreconfig.Config
}

// CoreConfig exposes the loaded configuration to the runner.
func (c *carrier) CoreConfig() *coreconfig.Config { return c.cfg }

// LoadConfig reads and validates the YAML + env configuration.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &carrier{cfg: cfg}, nil
}

// App is the assembled bot.
type App struct {
	cfg        *coreconfig.Config
	texts      *i18n.Table
	machine    *flow.Machine
	sender     *telegramSender
	dispatcher *tgsender.Dispatcher
	notifier   *notify.Notifier
	repo       leads.Repository
	db         *sqlx.DB
	registry   *tg.Registry
}

// Bootstrap builds all services from configuration.
func Bootstrap(c cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg := c.CoreConfig()
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init: %w", err)
	}

	a := &App{cfg: cfg}
	a.texts = i18n.NewTable(cfg.Leads.DefaultLanguage)
	a.dispatcher = tgsender.NewDispatcher(tgsender.Options{})
	a.sender = newTelegramSender(a.dispatcher)
	a.notifier = notify.New(a.sender, cfg.Leads.Recipients)

	if cfg.Database.Enabled {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, err
		}
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.repo = leads.NewPostgresRepository(db)
	} else {
		a.repo = leads.NewInMemoryRepository()
	}

	ttl := time.Duration(cfg.Leads.SessionTTLMinutes) * time.Minute
	store := flow.NewMemoryStore(ttl)
	a.machine = flow.NewMachine(store, a.texts, a.sender, flow.SinkFunc(a.leadCompleted))

	a.registry = tg.NewRegistry()
	a.registerHandlers()
	return a, nil
}

// leadCompleted archives the lead and fans the rendered card out. Both are
// best-effort; failures are logged and never reach the end user.
func (a *App) leadCompleted(ctx context.Context, lead flow.Lead) error {
	if a.repo != nil {
		record := &leads.Lead{
			ChatID:    lead.SessionID,
			Username:  lead.Username,
			Language:  lead.Language,
			Name:      lead.Name,
			Method:    lead.Method,
			Phone:     lead.Phone,
			Note:      lead.Note,
			CreatedAt: lead.CreatedAt,
		}
		// Save logs its own failure; archiving never blocks delivery.
		_ = a.repo.Save(ctx, record)
	}

	a.notifier.Deliver(ctx, notify.RenderCard(a.texts, lead))
	return nil
}

func (a *App) registerHandlers() {
	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Leave a new request",
	})
	a.registry.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Show runtime counters",
		AdminOnly:   true,
		Hidden:      true,
	})
	if err := a.registry.RegisterCallback(flowCallbackKey, a.handleFlowButton); err != nil {
		logger.TWire.Warn("callback registration failed",
			slog.String("event", "register.callback"),
			slog.String("key", flowCallbackKey),
			slog.String("err", err.Error()),
		)
	}
	// Free text with no active session starts a fresh conversation.
	a.registry.SetTextFallback(a.handleStart)
}

// TelegramRunOptions assembles routes, middleware, and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	fsm := &fsmAdapter{machine: a.machine}

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(fsm, a.registry, router.TextOptions{
		UnknownContact: a.handleStart,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.sender.SetBot(rt.Bot)
			logger.L.With("component", "app").Info("lead flow ready",
				slog.String("event", "ready"),
				slog.Int("recipients", a.notifier.Recipients()),
				slog.String("default_lang", a.texts.Default()),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
