package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationSettings_WantsCommitmentHorizon(t *testing.T) {
	s := NotificationSettings{Commitments15Days: true, CommitmentsDueToday: true}
	assert.True(t, s.WantsCommitmentHorizon(15))
	assert.False(t, s.WantsCommitmentHorizon(7))
	assert.False(t, s.WantsCommitmentHorizon(2))
	assert.True(t, s.WantsCommitmentHorizon(0))
	assert.False(t, s.WantsCommitmentHorizon(3))
}

func TestNotificationSettings_ScanValue(t *testing.T) {
	in := NotificationSettings{PhoneNumber: "+573001234567", TelegramChatID: 42, Commitments7Days: true}
	raw, err := in.Value()
	require.NoError(t, err)

	var out NotificationSettings
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Equal(t, NotificationSettings{}, out)

	assert.Error(t, out.Scan(12))
}
