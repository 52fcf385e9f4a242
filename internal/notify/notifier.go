// Package notify отправляет сообщения пользователям и операторам через Telegram.
package notify

import (
	"context"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Тип вложения для пересылки операторам
const (
	FilePhoto    = "photo"
	FileDocument = "document"
)

// Notifier хранит бота, список операторов и дополнительных получателей квитанций.
type Notifier struct {
	bot    *telego.Bot
	admins []int64
	extra  []telego.ChatID
}

// New создаёт Notifier. extra принимает числовые id и @username вперемешку.
func New(bot *telego.Bot, admins []int64, extra []string) *Notifier {
	return &Notifier{bot: bot, admins: admins, extra: ParseRecipients(extra)}
}

// ParseRecipients превращает строки из ADDITIONAL_RECIPIENTS в ChatID.
// Пустые строки пропускаются, всё нечисловое считается username.
func ParseRecipients(raw []string) []telego.ChatID {
	out := make([]telego.ChatID, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if id, err := strconv.ParseInt(r, 10, 64); err == nil {
			out = append(out, tu.ID(id))
			continue
		}
		if !strings.HasPrefix(r, "@") {
			r = "@" + r
		}
		out = append(out, tu.Username(r))
	}
	return out
}

// Send отправляет текст в чат. markup может быть nil.
func (n *Notifier) Send(ctx context.Context, chatID int64, text string, markup telego.ReplyMarkup) {
	n.send(ctx, tu.ID(chatID), text, markup)
}

func (n *Notifier) send(ctx context.Context, chat telego.ChatID, text string, markup telego.ReplyMarkup) {
	msg := tu.Message(chat, text)
	if markup != nil {
		msg = msg.WithReplyMarkup(markup)
	}
	if _, err := n.bot.SendMessage(ctx, msg); err != nil {
		log.WithError(err).WithField("chat", chat.String()).Error("Ошибка отправки сообщения")
	}
}

// Admins рассылает текст всем операторам из ADMIN_IDS.
func (n *Notifier) Admins(ctx context.Context, text string, markup telego.ReplyMarkup) {
	for _, id := range n.admins {
		n.send(ctx, tu.ID(id), text, markup)
	}
}

// ForwardFile пересылает фото или документ операторам и дополнительным получателям.
// Сбой доставки одному получателю не мешает остальным.
func (n *Notifier) ForwardFile(ctx context.Context, kind, fileID, caption string, markup telego.ReplyMarkup) {
	recipients := make([]telego.ChatID, 0, len(n.admins)+len(n.extra))
	for _, id := range n.admins {
		recipients = append(recipients, tu.ID(id))
	}
	recipients = append(recipients, n.extra...)

	for _, chat := range recipients {
		if err := n.sendFile(ctx, chat, kind, fileID, caption, markup); err != nil {
			log.WithError(err).WithField("chat", chat.String()).Warn("Не удалось переслать квитанцию")
		}
	}
}

// SendFile отправляет фото или документ по file_id в один чат.
func (n *Notifier) SendFile(ctx context.Context, chatID int64, kind, fileID, caption string, markup telego.ReplyMarkup) {
	if err := n.sendFile(ctx, tu.ID(chatID), kind, fileID, caption, markup); err != nil {
		log.WithError(err).WithField("chat", chatID).Warn("Ошибка отправки файла")
	}
}

func (n *Notifier) sendFile(ctx context.Context, chat telego.ChatID, kind, fileID, caption string, markup telego.ReplyMarkup) error {
	var err error
	switch kind {
	case FileDocument:
		params := tu.Document(chat, tu.FileFromID(fileID)).WithCaption(caption)
		if markup != nil {
			params = params.WithReplyMarkup(markup)
		}
		_, err = n.bot.SendDocument(ctx, params)
	default:
		params := tu.Photo(chat, tu.FileFromID(fileID)).WithCaption(caption)
		if markup != nil {
			params = params.WithReplyMarkup(markup)
		}
		_, err = n.bot.SendPhoto(ctx, params)
	}
	return err
}

// Answer закрывает «часики» на inline-кнопке.
func (n *Notifier) Answer(ctx context.Context, callbackID, text string) {
	params := tu.CallbackQuery(callbackID)
	if text != "" {
		params = params.WithText(text)
	}
	if err := n.bot.AnswerCallbackQuery(ctx, params); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}
