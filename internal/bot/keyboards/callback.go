package keyboards

import (
	"fmt"
	"strconv"
	"strings"
)

// Data склеивает префикс и аргументы в callback-данные: "admin_grant:12:100".
// Telegram ограничивает callback_data 64 байтами.
func Data(prefix string, args ...string) string {
	if len(args) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(args, ":")
}

// Callback: разобранные callback-данные.
type Callback struct {
	Action string
	Args   []string
}

// ParseCallback разбирает "prefix:arg1:arg2".
func ParseCallback(data string) Callback {
	parts := strings.Split(strings.TrimSpace(data), ":")
	return Callback{Action: parts[0], Args: parts[1:]}
}

// Int64 возвращает i-й аргумент как int64.
func (c Callback) Int64(i int) (int64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("callback %q: нет аргумента %d", c.Action, i)
	}
	v, err := strconv.ParseInt(c.Args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callback %q: аргумент %d не число: %w", c.Action, i, err)
	}
	return v, nil
}
