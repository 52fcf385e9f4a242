package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser("@Invest_Bot")

	tests := []struct {
		name  string
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"start with payload", "/start AB12CD", "start", []string{"AB12CD"}, true},
		{"upper case", "/VERIFY 15", "verify", []string{"15"}, true},
		{"addressed to us", "/start@invest_bot XYZ", "start", []string{"XYZ"}, true},
		{"addressed to other bot", "/start@other_bot", "", nil, false},
		{"spaces", "   /accrue   ", "accrue", nil, true},
		{"menu button", "💰 Баланс", "", nil, false},
		{"bare slash", "/", "", nil, false},
		{"empty", "", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isCmd, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}
