package service

import (
	"testing"

	"engagebot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferService_Transfer_Success(t *testing.T) {
	l, _ := newTestLedger()
	l.SetScore("1", 100, "alice")
	l.SetScore("2", 5, "bob")
	s := NewTransferService(l, "points")

	msg, err := s.Transfer(models.PlatformUser{ID: "1", Tag: "alice"}, Recipient{ID: "2", Mention: "<@2>"}, 40)

	require.NoError(t, err)
	assert.Equal(t, "Gave 40 points to <@2>", msg)
	assert.Equal(t, int64(60), l.Score("1"))
	assert.Equal(t, int64(45), l.Score("2"))
}

func TestTransferService_Transfer_NewGuildMember(t *testing.T) {
	l, _ := newTestLedger()
	l.SetScore("1", 100, "alice")
	s := NewTransferService(l, "points")

	_, err := s.Transfer(models.PlatformUser{ID: "1", Tag: "alice"}, Recipient{ID: "3", Mention: "<@3>", Tag: "carol"}, 10)

	require.NoError(t, err)
	entry, ok := l.Get("3")
	require.True(t, ok)
	assert.Equal(t, "carol", entry.Tag)
	assert.Equal(t, int64(10), entry.Score)
}

func TestTransferService_Transfer_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		to     Recipient
		amount int64
		want   string
	}{
		{"zero amount", Recipient{ID: "2"}, 0, "You can't give fewer than 1 points!"},
		{"too much", Recipient{ID: "2"}, 101, "You don't have enough points to give that many!"},
		{"unknown recipient", Recipient{ID: "9"}, 1, "That user doesn't have a score yet!"},
		{"self", Recipient{ID: "1"}, 1, "You can't give points to yourself!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLedger()
			l.SetScore("1", 100, "alice")
			l.SetScore("2", 5, "bob")
			s := NewTransferService(l, "points")

			_, err := s.Transfer(models.PlatformUser{ID: "1", Tag: "alice"}, tt.to, tt.amount)

			requireUserError(t, err, tt.want)
			assert.Equal(t, int64(100), l.Score("1"))
			assert.Equal(t, int64(5), l.Score("2"))
		})
	}
}
