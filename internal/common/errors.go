// Package common определяет ошибки, общие для всех модулей бота.
// Обработчики различают их через errors.Is / errors.As и показывают
// пользователю понятное сообщение.
package common

import (
	"errors"
	"fmt"
)

// ErrNotFound: базовая ошибка «запись не найдена».
// Все конкретные ошибки поиска проходят errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("запись не найдена")

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// Ошибки поиска
var (
	// ErrUserNotFound: пользователь не найден в базе
	ErrUserNotFound error = &notFoundError{msg: "пользователь не найден"}
	// ErrInvestmentNotFound: инвестиция с таким id не существует
	ErrInvestmentNotFound error = &notFoundError{msg: "инвестиция не найдена"}
)

// Ошибки баланса и инвестиций
var (
	// ErrInsufficientBalance: на балансе меньше запрошенной суммы
	ErrInsufficientBalance = errors.New("недостаточно средств на балансе")
	// ErrInvalidAmount: некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrAlreadyActive: инвестиция уже активирована
	ErrAlreadyActive = errors.New("инвестиция уже активирована")
	// ErrInvalidCard: номер карты не из 16 цифр
	ErrInvalidCard = errors.New("номер карты должен состоять из 16 цифр")
)

// Ошибки начислений
var (
	// ErrAccrualAlreadyDone: за этот период начисление уже проводилось
	ErrAccrualAlreadyDone = errors.New("начисление за этот период уже выполнено")
	// ErrAccrualLocked: начисление прямо сейчас выполняет другой процесс
	ErrAccrualLocked = errors.New("начисление уже выполняется")
)

// Ошибки админки
var (
	// ErrNotAdmin: пользователь не является оператором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword: неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts: слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrPasswordLoginDisabled: ADMIN_PASSWORD_HASH не задан
	ErrPasswordLoginDisabled = errors.New("вход по паролю отключён")
)

// MaturityHoldError: вывод запрошен раньше окончания периода удержания.
type MaturityHoldError struct {
	DaysPassed    int // Сколько полных суток прошло с регистрации
	RemainingDays int // Сколько суток осталось до разрешения вывода
}

func (e *MaturityHoldError) Error() string {
	return fmt.Sprintf("вывод будет доступен через %d %s", e.RemainingDays, PluralizeDays(e.RemainingDays))
}

// StorageError: сбой хранилища. Op описывает операцию, Err хранит исходную ошибку драйвера.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage оборачивает ошибку драйвера в *StorageError.
// Ошибки из этого пакета (ErrNotFound и т.п.) возвращаются как есть.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// domainErrors: ошибки бизнес-правил, которые нельзя выдавать за сбой хранилища.
var domainErrors = []error{
	ErrNotFound,
	ErrInsufficientBalance,
	ErrInvalidAmount,
	ErrAlreadyActive,
	ErrInvalidCard,
	ErrAccrualAlreadyDone,
	ErrAccrualLocked,
	ErrNotAdmin,
	ErrWrongPassword,
	ErrTooManyAttempts,
	ErrPasswordLoginDisabled,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	var hold *MaturityHoldError
	var storage *StorageError
	return errors.As(err, &hold) || errors.As(err, &storage)
}
