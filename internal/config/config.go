// Package config загружает конфигурацию бота из переменных окружения.
// Сначала подхватывается .env (если есть), затем envconfig маппит переменные на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Список привилегированных Telegram ID (операторы), через запятую.
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs    []int64 `envconfig:"-"` // заполним вручную
	// Дополнительные получатели квитанций: числовые ID или @username.
	AdditionalRecipients []string `envconfig:"ADDITIONAL_RECIPIENTS"`

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"invest_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis ---
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	// Argon2id-хеш пароля для /login. Пустой: вход по паролю отключён, работают только ADMIN_IDS.
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	// --- Ledger ---
	DailyProfitRate    decimal.Decimal `envconfig:"LEDGER_DAILY_PROFIT_RATE" default:"0.10"`
	ReferralRate       decimal.Decimal `envconfig:"LEDGER_REFERRAL_RATE" default:"0.10"`
	ReferralFixedBonus decimal.Decimal `envconfig:"LEDGER_REFERRAL_FIXED_BONUS" default:"1.0"`
	WithdrawalHoldDays int             `envconfig:"LEDGER_WITHDRAWAL_HOLD_DAYS" default:"10"`
	Currency           string          `envconfig:"LEDGER_CURRENCY" default:"AZN"`

	// Суммы на кнопках
	InvestAmounts   []int64 `envconfig:"INVEST_AMOUNTS" default:"50,100,150"`
	WithdrawAmounts []int64 `envconfig:"WITHDRAW_AMOUNTS" default:"50,100,150"`

	// Реквизиты для оплаты инвестиций
	PaymentAccount string `envconfig:"PAYMENT_ACCOUNT" default:""`
	PaymentName    string `envconfig:"PAYMENT_NAME" default:""`

	// --- Accrual ---
	AccrualSchedule string        `envconfig:"ACCRUAL_SCHEDULE" default:"@every 24h"`
	AccrualInterval time.Duration `envconfig:"ACCRUAL_INTERVAL" default:"24h"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, входит ли Telegram ID в список операторов из ADMIN_IDS.
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS пуст: нужен хотя бы один оператор")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DailyProfitRate.IsNegative() || c.ReferralRate.IsNegative() || c.ReferralFixedBonus.IsNegative() {
		return fmt.Errorf("ставки LEDGER_* не могут быть отрицательными")
	}
	if c.WithdrawalHoldDays < 0 {
		return fmt.Errorf("LEDGER_WITHDRAWAL_HOLD_DAYS не может быть отрицательным")
	}
	if c.AccrualInterval <= 0 {
		return fmt.Errorf("ACCRUAL_INTERVAL должен быть > 0")
	}
	for _, a := range append(append([]int64{}, c.InvestAmounts...), c.WithdrawAmounts...) {
		if a <= 0 {
			return fmt.Errorf("суммы INVEST_AMOUNTS/WITHDRAW_AMOUNTS должны быть > 0, получено %d", a)
		}
	}
	return nil
}

// Load читает .env и переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env не найден, используем переменные окружения")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
