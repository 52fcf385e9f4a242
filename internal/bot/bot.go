// Package bot принимает апдейты Telegram и раздаёт их обработчикам.
package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/filters"
	"serotonyl.ru/invest-bot/internal/bot/middleware"
	"serotonyl.ru/invest-bot/internal/config"
	"serotonyl.ru/invest-bot/internal/features/admin"
	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/receipts"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/features/withdrawals"
	"serotonyl.ru/invest-bot/internal/metrics"
	"serotonyl.ru/invest-bot/internal/notify"
)

// Handlers: обработчики фич, между которыми роутер раздаёт апдейты.
type Handlers struct {
	Users       *users.Handler
	Investments *investments.Handler
	Withdrawals *withdrawals.Handler
	Receipts    *receipts.Handler
	Ledger      *ledger.Handler
	Admin       *admin.Handler
}

// Bot: цикл получения апдейтов и роутер.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	h        Handlers
	users    *users.Service
	sessions *sessions.Store
	notify   *notify.Notifier

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New собирает бота. botUsername нужен парсеру для команд вида /start@bot.
func New(
	api *telego.Bot,
	cfg *config.Config,
	h Handlers,
	userService *users.Service,
	st *sessions.Store,
	n *notify.Notifier,
	botUsername string,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		chatFilter:  filters.NewChatFilter(),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		h:           h,
		users:       userService,
		sessions:    st,
		notify:      n,
		parser:      NewCommandParser(botUsername),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start получает апдейты long polling'ом до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.rateLimiter.Close()
	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	switch {
	case update.Message != nil:
		metrics.Updates.WithLabelValues("message").Inc()
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		metrics.Updates.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// SendToUser: отправка вне диалога (уведомления о начислениях).
func (b *Bot) SendToUser(telegramID int64, text string) {
	b.notify.Send(context.Background(), telegramID, text, nil)
}
