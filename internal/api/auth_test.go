package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenIssuer(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tokens := newTokenIssuer("secret", time.Hour, clock.now)

	raw, expiresAt, err := tokens.Issue(constants.AdminSubject)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), expiresAt)

	subject, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, constants.AdminSubject, subject)

	other := newTokenIssuer("another", time.Hour, clock.now)
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)

	foreign, _, err := tokens.Issue("visitor")
	require.NoError(t, err)
	_, err = tokens.Verify(foreign)
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)

	clock.advance(2 * time.Hour)
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)
}

func TestPasswordMatches(t *testing.T) {
	assert.True(t, passwordMatches("pw", "pw"))
	assert.False(t, passwordMatches("pw", "pw2"))
	assert.False(t, passwordMatches("", ""), "пустой пароль отключает вход")
}

func TestLimiterPool(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := newLimiterPool(1, 2, clock.now)

	assert.True(t, p.Allow("a"))
	assert.True(t, p.Allow("a"))
	assert.False(t, p.Allow("a"))
	assert.True(t, p.Allow("b"), "у каждой сессии свой лимит")

	clock.advance(time.Second)
	assert.True(t, p.Allow("a"))

	// простаивающие сессии забываются
	clock.advance(limiterIdleTTL + time.Minute)
	assert.True(t, p.Allow("c"))
	assert.Equal(t, 1, p.size())
}
