package deals

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Portfolio/internal/apierr"
	"Portfolio/internal/boltstore"
	"Portfolio/internal/constants"
	"Portfolio/internal/conversation"
	"Portfolio/internal/logger"
	"Portfolio/internal/models"
	"Portfolio/internal/notify"
)

type captured struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (c *captured) Send(_ context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

func (c *captured) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, n := range c.sent {
		out[i] = n.Kind
	}
	return out
}

type fixture struct {
	mgr   *Manager
	convs *conversation.Service
	st    *boltstore.Store
	sink  *captured
	disp  *notify.Dispatcher
}

func newFixture(t *testing.T, sendErr error) *fixture {
	t.Helper()
	st, err := boltstore.Open(filepath.Join(t.TempDir(), "deals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	var mu sync.Mutex
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	})

	sink := &captured{err: sendErr}
	disp := notify.NewDispatcher(sink, logger.Nop(), nil)
	return &fixture{
		mgr:   NewManager(st, st, disp, logger.Nop(), nil),
		convs: conversation.NewService(st, logger.Nop(), nil),
		st:    st,
		sink:  sink,
		disp:  disp,
	}
}

func validInput(session string) CreateInput {
	return CreateInput{SessionID: session, UserInfo: models.UserInfo{Name: "Jane", Email: "jane@x.com"}}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{constants.DEAL_STATUS_OPEN, constants.DEAL_STATUS_IN_PROGRESS, true},
		{constants.DEAL_STATUS_OPEN, constants.DEAL_STATUS_CLOSED, true},
		{constants.DEAL_STATUS_OPEN, constants.DEAL_STATUS_CANCELLED, true},
		{constants.DEAL_STATUS_IN_PROGRESS, constants.DEAL_STATUS_CLOSED, true},
		{constants.DEAL_STATUS_IN_PROGRESS, constants.DEAL_STATUS_OPEN, false},
		{constants.DEAL_STATUS_CLOSED, constants.DEAL_STATUS_OPEN, false},
		{constants.DEAL_STATUS_CLOSED, constants.DEAL_STATUS_IN_PROGRESS, false},
		{constants.DEAL_STATUS_CANCELLED, constants.DEAL_STATUS_CLOSED, false},
		{constants.DEAL_STATUS_CLOSED, constants.DEAL_STATUS_CLOSED, true},
		{"bogus", "bogus", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, IsTerminal(constants.DEAL_STATUS_CLOSED))
	assert.True(t, IsTerminal(constants.DEAL_STATUS_CANCELLED))
	assert.False(t, IsTerminal(constants.DEAL_STATUS_OPEN))
}

func TestCreateDealValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.mgr.CreateDeal(ctx, CreateInput{SessionID: "s1", UserInfo: models.UserInfo{Name: "", Email: "x@y.com"}})
	assert.ErrorIs(t, err, apierr.ErrValidation)

	_, err = f.mgr.CreateDeal(ctx, CreateInput{SessionID: "s1", UserInfo: models.UserInfo{Name: "Jane"}})
	assert.ErrorIs(t, err, apierr.ErrValidation)

	_, err = f.mgr.CreateDeal(ctx, CreateInput{SessionID: "s1", UserInfo: models.UserInfo{Name: "Jane", Email: "nope"}})
	assert.ErrorIs(t, err, apierr.ErrValidation)

	_, err = f.mgr.CreateDeal(ctx, CreateInput{SessionID: "", UserInfo: models.UserInfo{Name: "Jane", Email: "jane@x.com"}})
	assert.ErrorIs(t, err, apierr.ErrValidation)

	// ничего не сохранено
	deals, err := f.mgr.ListDeals(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, deals)
	_, err = f.st.GetConversation(ctx, "s1")
	assert.Error(t, err)
}

func TestCreateDealLinksConversationAndNotifies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	deal, err := f.mgr.CreateDeal(ctx, validInput("s1"))
	require.NoError(t, err)
	assert.NotEmpty(t, deal.ID)
	assert.Equal(t, constants.DEAL_STATUS_OPEN, deal.Status)
	assert.Equal(t, constants.DefaultProjectDetails, deal.ProjectDetails)
	assert.False(t, deal.ClosedAt.Valid)

	got, err := f.mgr.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, got.ID)

	conv, err := f.convs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, conv.HasDeal)
	assert.Equal(t, deal.ID, conv.DealID.String)
	assert.Equal(t, constants.DEAL_STATUS_OPEN, conv.DealStatus.String)
	require.NotNil(t, conv.UserInfo)
	assert.Equal(t, "Jane", conv.UserInfo.Name)

	f.disp.Wait()
	assert.Equal(t, []string{constants.NOTIFY_KIND_NEW_LEAD}, f.sink.kinds())
}

func TestCreateDealOncePerSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.mgr.CreateDeal(ctx, validInput("s1"))
	require.NoError(t, err)
	_, err = f.mgr.UpdateStatus(ctx, first.ID, constants.DEAL_STATUS_IN_PROGRESS, "")
	require.NoError(t, err)

	again := validInput("s1")
	again.UserInfo.Name = "John"
	again.Budget = "$10k"
	deal, err := f.mgr.CreateDeal(ctx, again)
	assert.Nil(t, deal)
	assert.ErrorIs(t, err, apierr.ErrConflict)

	// первая сделка и зеркало в беседе не тронуты
	deals, err := f.mgr.ListDeals(ctx, "")
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, first.ID, deals[0].ID)
	assert.Equal(t, "Jane", deals[0].UserInfo.Name)
	assert.Empty(t, deals[0].Budget)
	assert.Equal(t, constants.DEAL_STATUS_IN_PROGRESS, deals[0].Status)

	conv, err := f.convs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, conv.DealID.String)
	assert.Equal(t, constants.DEAL_STATUS_IN_PROGRESS, conv.DealStatus.String)
	require.NotNil(t, conv.UserInfo)
	assert.Equal(t, "Jane", conv.UserInfo.Name)

	f.disp.Wait()
	assert.Equal(t, []string{constants.NOTIFY_KIND_NEW_LEAD}, f.sink.kinds())

	// другая сессия не затронута правилом
	_, err = f.mgr.CreateDeal(ctx, validInput("s2"))
	assert.NoError(t, err)
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	deal, err := f.mgr.CreateDeal(ctx, validInput("s1"))
	require.NoError(t, err)

	d, err := f.mgr.UpdateStatus(ctx, deal.ID, constants.DEAL_STATUS_IN_PROGRESS, "call booked")
	require.NoError(t, err)
	assert.Equal(t, constants.DEAL_STATUS_IN_PROGRESS, d.Status)
	assert.Equal(t, "call booked", d.Notes.String)
	assert.False(t, d.ClosedAt.Valid)

	_, err = f.mgr.UpdateStatus(ctx, deal.ID, constants.DEAL_STATUS_OPEN, "")
	assert.ErrorIs(t, err, apierr.ErrConflict)

	d, err = f.mgr.UpdateStatus(ctx, deal.ID, constants.DEAL_STATUS_CLOSED, "")
	require.NoError(t, err)
	require.True(t, d.ClosedAt.Valid)
	closedAt := d.ClosedAt.Time
	assert.Equal(t, "call booked", d.Notes.String, "пустые заметки не затирают прежние")

	// терминальный статус: откат запрещен, повтор только обновляет заметки
	_, err = f.mgr.UpdateStatus(ctx, deal.ID, constants.DEAL_STATUS_OPEN, "")
	assert.ErrorIs(t, err, apierr.ErrConflict)
	d, err = f.mgr.UpdateStatus(ctx, deal.ID, constants.DEAL_STATUS_CLOSED, "paid")
	require.NoError(t, err)
	assert.True(t, closedAt.Equal(d.ClosedAt.Time))
	assert.Equal(t, "paid", d.Notes.String)

	conv, err := f.convs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, constants.DEAL_STATUS_CLOSED, conv.DealStatus.String)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.mgr.UpdateStatus(ctx, "missing", constants.DEAL_STATUS_CLOSED, "")
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = f.mgr.UpdateStatus(ctx, "any", "won", "")
	assert.ErrorIs(t, err, apierr.ErrValidation)

	_, err = f.mgr.GetDeal(ctx, "missing")
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = f.mgr.ListDeals(ctx, "won")
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestCloseDealSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t, errors.New("mail relay down"))
	ctx := context.Background()

	_, err := f.convs.AppendMessage(ctx, "s1", constants.ROLE_USER, "I want to hire you")
	require.NoError(t, err)
	deal, err := f.mgr.CreateDeal(ctx, validInput("s1"))
	require.NoError(t, err)
	f.disp.Wait()

	closed, err := f.mgr.CloseDeal(ctx, deal.ID, "signed")
	require.NoError(t, err)
	f.disp.Wait()

	assert.Equal(t, constants.DEAL_STATUS_CLOSED, closed.Status)
	stored, err := f.mgr.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DEAL_STATUS_CLOSED, stored.Status)
	assert.True(t, stored.ClosedAt.Valid)

	assert.Equal(t, []string{constants.NOTIFY_KIND_NEW_LEAD, constants.NOTIFY_KIND_DEAL_CLOSED}, f.sink.kinds())
	f.sink.mu.Lock()
	last := f.sink.sent[1]
	f.sink.mu.Unlock()
	assert.Contains(t, last.Text, "Client: I want to hire you")
	assert.Contains(t, last.Subject, "Jane")

	// повторное закрытие письмо не шлет
	_, err = f.mgr.CloseDeal(ctx, deal.ID, "")
	require.NoError(t, err)
	f.disp.Wait()
	assert.Len(t, f.sink.kinds(), 2)
}

func TestListDealsNewestFirstAndFiltered(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var ids []string
	for _, s := range []string{"a", "b", "c"} {
		d, err := f.mgr.CreateDeal(ctx, validInput(s))
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}
	_, err := f.mgr.CloseDeal(ctx, ids[1], "")
	require.NoError(t, err)
	f.disp.Wait()

	all, err := f.mgr.ListDeals(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	closed, err := f.mgr.ListDeals(ctx, constants.DEAL_STATUS_CLOSED)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, ids[1], closed[0].ID)
}

func TestGetDealWithTranscript(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.convs.AppendMessage(ctx, "s1", constants.ROLE_USER, "hi")
	require.NoError(t, err)
	deal, err := f.mgr.CreateDeal(ctx, validInput("s1"))
	require.NoError(t, err)

	full, err := f.mgr.GetDealWithTranscript(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, full.Deal.ID)
	require.Len(t, full.Conversation.Messages, 1)
	assert.Equal(t, "hi", full.Conversation.Messages[0].Content)
}
