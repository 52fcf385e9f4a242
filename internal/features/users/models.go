// Package users управляет пользователями бота: регистрацией, реферальными кодами
// и поиском по Telegram ID.
package users

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// User: запись таблицы users.
type User struct {
	ID           int64           `db:"id"`            // Внутренний id
	TelegramID   int64           `db:"telegram_id"`   // Telegram user ID (уникальный)
	Username     string          `db:"username"`      // @username без @, может быть пустым
	FirstName    string          `db:"first_name"`    // Имя из профиля Telegram
	Balance      decimal.Decimal `db:"balance"`       // Доступный баланс
	ReferrerID   *int64          `db:"referrer_id"`   // Кто пригласил (nil, если никто). Не меняется после создания
	ReferralCode string          `db:"referral_code"` // Уникальный код для ссылки /start <code>
	CreatedAt    time.Time       `db:"created_at"`    // От этой даты считается период удержания вывода
}

// DisplayName возвращает @username, имя или числовой id, если ничего нет.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return strconv.FormatInt(u.TelegramID, 10)
}

// ReferralLink собирает ссылку-приглашение вида https://t.me/<bot>?start=<code>.
func (u *User) ReferralLink(botUsername string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, u.ReferralCode)
}

// Profile: данные Telegram-профиля, с которыми пользователь пришёл в /start.
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
}
