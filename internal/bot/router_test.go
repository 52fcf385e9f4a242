package bot

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/notify"
)

func TestAttachment(t *testing.T) {
	id, kind := attachment(&telego.Message{Photo: []telego.PhotoSize{{FileID: "small"}, {FileID: "large"}}})
	assert.Equal(t, "large", id)
	assert.Equal(t, notify.FilePhoto, kind)

	id, kind = attachment(&telego.Message{Document: &telego.Document{FileID: "pdf"}})
	assert.Equal(t, "pdf", id)
	assert.Equal(t, notify.FileDocument, kind)

	id, _ = attachment(&telego.Message{Text: "hello"})
	assert.Empty(t, id)
}

func TestIsAdminAction(t *testing.T) {
	assert.True(t, isAdminAction(keyboards.CbAdminVerify))
	assert.True(t, isAdminAction(keyboards.CbSupportReply))
	assert.False(t, isAdminAction(keyboards.CbInvest))
	assert.False(t, isAdminAction(keyboards.CbWithdraw))
}
