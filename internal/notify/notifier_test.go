package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	got := ParseRecipients([]string{"12345", " @support ", "", "ops_team"})
	require.Len(t, got, 3)

	assert.Equal(t, int64(12345), got[0].ID)
	assert.Equal(t, "@support", got[1].Username)
	assert.Equal(t, "@ops_team", got[2].Username)
}
