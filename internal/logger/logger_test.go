package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("deal created",
		"deal_id", "d-1",
		"email", "jane@x.com",
		"admin_password", "hunter2",
		"session_id", "abc",
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "d-1", fields["deal_id"])
	assert.Equal(t, "[REDACTED]", fields["email"])
	assert.Equal(t, "[REDACTED]", fields["admin_password"])
	assert.Contains(t, fields["session_id"], "hash:")
	assert.NotEqual(t, "abc", fields["session_id"])
}

func TestSanitizeHidesJWTValues(t *testing.T) {
	jwtLike := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhZG1pbiJ9.signature"
	assert.Equal(t, "[REDACTED]", sanitizeValue("header", jwtLike))
	assert.Equal(t, "plain", sanitizeValue("header", "plain"))
}

func TestHashValueIsStable(t *testing.T) {
	a := hashValue("session-1")
	assert.Equal(t, a, hashValue("session-1"))
	assert.NotEqual(t, a, hashValue("session-2"))
	assert.Empty(t, hashValue(""))
}

func TestWithKeepsRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("token", "secret-value")
	log.Debug("x")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[REDACTED]", logs.All()[0].ContextMap()["token"])
}
