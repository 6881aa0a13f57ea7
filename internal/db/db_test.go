package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Portfolio/internal/constants"
	"Portfolio/internal/logger"
	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

func TestNullIfEmpty(t *testing.T) {
	assert.False(t, nullIfEmpty("").Valid)
	v := nullIfEmpty("x")
	assert.True(t, v.Valid)
	assert.Equal(t, "x", v.String)
}

// openTestStore подключается к TEST_DATABASE_URL; без него интеграционные тесты пропускаются.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	s, err := InitDB(context.Background(), dsn, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresConversationAndDealFlow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sessionID := "it-" + uuid.NewString()

	_, err := s.GetConversation(ctx, sessionID)
	require.ErrorIs(t, err, store.ErrNotFound)

	for _, c := range []string{"hi", "hello", "I want to hire you", "great"} {
		_, err := s.AppendMessage(ctx, sessionID, models.ChatMessage{Role: constants.ROLE_USER, Content: c})
		require.NoError(t, err)
	}
	conv, err := s.GetConversation(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, "I want to hire you", conv.Messages[2].Content)

	deal := &models.Deal{
		SessionID:      sessionID,
		UserInfo:       models.UserInfo{Name: "Sam", Email: "sam@x.com"},
		ProjectDetails: constants.DefaultProjectDetails,
		Status:         constants.DEAL_STATUS_OPEN,
	}
	require.NoError(t, s.CreateDeal(ctx, deal))
	assert.ErrorIs(t, s.CreateDeal(ctx, &models.Deal{SessionID: sessionID, Status: constants.DEAL_STATUS_OPEN}), store.ErrDealExists)

	updated, err := s.UpdateDeal(ctx, deal.ID, func(d *models.Deal) error {
		d.Status = constants.DEAL_STATUS_IN_PROGRESS
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, constants.DEAL_STATUS_IN_PROGRESS, updated.Status)

	conv, err = s.GetConversation(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, conv.HasDeal)
	assert.Equal(t, constants.DEAL_STATUS_IN_PROGRESS, conv.DealStatus.String)
	assert.ErrorIs(t, s.DeleteConversation(ctx, sessionID), store.ErrHasDeal)
}
