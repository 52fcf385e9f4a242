// Package app инициализирует все компоненты приложения.
// app.go является точкой сборки: создаёт пул БД, Redis, репозитории, сервисы,
// обработчики и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/config"
	"serotonyl.ru/invest-bot/internal/db/postgres"
	"serotonyl.ru/invest-bot/internal/features/accrual"
	"serotonyl.ru/invest-bot/internal/features/admin"
	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/receipts"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/features/withdrawals"
	"serotonyl.ru/invest-bot/internal/jobs"
	"serotonyl.ru/invest-bot/internal/notify"
	"serotonyl.ru/invest-bot/internal/server"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Server    *server.Server
	DB        *pgxpool.Pool
	Redis     *redis.Client
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis (сессии диалогов, блокировка начисления) ===
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}
	log.Info("Подключение к Redis установлено")

	// === 3. Telegram Bot API ===
	opts := []telego.BotOption{telego.WithLogger(botLogger{})}
	api, err := telego.NewBot(cfg.TelegramBotToken, opts...)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := api.GetMe(ctx)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ошибка авторизации бота: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	loc := common.LoadLocation(cfg.AppTimezone)
	rules := ledger.Rules{
		DailyProfitRate:    cfg.DailyProfitRate,
		ReferralRate:       cfg.ReferralRate,
		ReferralFixedBonus: cfg.ReferralFixedBonus,
		WithdrawalHoldDays: cfg.WithdrawalHoldDays,
	}

	// === 4. Общая инфраструктура ===
	notifier := notify.New(api, cfg.AdminIDs, cfg.AdditionalRecipients)
	store := sessions.New(rdb, "invest_bot")

	// === 5. Репозитории ===
	userRepo := users.NewRepository(pool)
	investmentRepo := investments.NewRepository(pool)
	withdrawalRepo := withdrawals.NewRepository(pool)
	receiptRepo := receipts.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	accrualRepo := accrual.NewRepository(pool, investmentRepo, userRepo)
	adminRepo := admin.NewRepository(store)

	// === 6. Сервисы ===
	userService := users.NewService(userRepo)
	investmentService := investments.NewService(investmentRepo, userService, rules)
	withdrawalService := withdrawals.NewService(withdrawalRepo, userRepo, rules)
	receiptService := receipts.NewService(receiptRepo, investmentService)
	ledgerService := ledger.NewService(ledgerRepo, cfg.Currency, loc)
	adminService := admin.NewService(adminRepo, cfg)
	engine := accrual.NewEngine(
		accrualRepo,
		accrual.NewRedisLocker(rdb, "invest_bot"),
		rules,
		cfg.AccrualInterval,
		cfg.Currency,
	)

	// === 7. Обработчики ===
	handlers := bot.Handlers{
		Users: users.NewHandler(userService, notifier, cfg.Currency, me.Username),
		Investments: investments.NewHandler(investmentService, store, notifier, cfg.InvestAmounts,
			investments.PaymentDetails{Account: cfg.PaymentAccount, Name: cfg.PaymentName}, cfg.Currency),
		Withdrawals: withdrawals.NewHandler(withdrawalService, store, notifier, cfg.WithdrawAmounts,
			cfg.Currency, cfg.WithdrawalHoldDays),
		Receipts: receipts.NewHandler(receiptService, store, notifier, cfg.Currency),
		Ledger:   ledger.NewHandler(ledgerService, notifier),
		Admin: admin.NewHandler(admin.Deps{
			Service:     adminService,
			Users:       userService,
			Investments: investmentService,
			Receipts:    receiptService,
			Accrual:     engine,
			Sessions:    store,
			Notify:      notifier,
			Grants:      cfg.InvestAmounts,
			Currency:    cfg.Currency,
			Location:    loc,
		}),
	}

	// === 8. Собираем бота ===
	b := bot.New(api, cfg, handlers, userService, store, notifier, me.Username)
	engine.OnCredited(b.SendToUser)

	// === 9. Планировщик и служебный HTTP ===
	scheduler := jobs.NewScheduler(engine, cfg.AccrualSchedule, loc)
	srv := server.New(cfg.HTTPAddr,
		server.Check{Name: "postgres", Ping: pool.Ping},
		server.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Server:    srv,
		DB:        pool,
		Redis:     rdb,
	}, nil
}

// Close освобождает соединения с хранилищами.
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия Redis")
	}
	a.DB.Close()
}

// botLogger направляет внутренние сообщения telego в logrus.
type botLogger struct{}

func (botLogger) Debugf(format string, args ...any) { log.Debugf("[telego] "+format, args...) }
func (botLogger) Errorf(format string, args ...any) { log.Errorf("[telego] "+format, args...) }
