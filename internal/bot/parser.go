package bot

import "strings"

// CommandParser разбирает команды вида /verify 12 и /start@invest_bot CODE.
type CommandParser struct {
	botUsername string
}

// NewCommandParser создаёт парсер. botUsername: без @, для отсечения /cmd@bot.
func NewCommandParser(botUsername string) *CommandParser {
	return &CommandParser{botUsername: strings.ToLower(strings.TrimPrefix(botUsername, "@"))}
}

// ParseCommand возвращает команду в нижнем регистре и аргументы.
// Текст без ведущего "/" командой не считается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.IndexByte(command, '@'); at >= 0 {
		// команда адресована другому боту в группе
		if p.botUsername != "" && command[at+1:] != p.botUsername {
			return "", nil, false
		}
		command = command[:at]
	}
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
