// Package filters решает, какие апдейты бот вообще обрабатывает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только личные сообщения от живых пользователей.
// Группы, каналы и сообщения ботов игнорируются.
type ChatFilter struct{}

func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

// CheckAccess проверяет входящее сообщение.
func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})

	if message.From == nil {
		logger.Debug("deny: нет отправителя (сообщение канала?)")
		return false
	}
	if message.From.IsBot {
		logger.WithField("user_id", message.From.ID).Debug("deny: сообщение бота")
		return false
	}
	if message.Chat.Type != telego.ChatTypePrivate {
		logger.WithField("user_id", message.From.ID).Debug("deny: не личный чат")
		return false
	}
	return true
}

// CheckCallback: то же для нажатий inline-кнопок.
func (f *ChatFilter) CheckCallback(query *telego.CallbackQuery) bool {
	return query != nil && !query.From.IsBot && query.Data != ""
}
