package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextAddsTraceAndUser(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", "debug", "json")
	log.SetOutput(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "user-1")
	log.WithContext(ctx).Info("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "test", line["service"])
	assert.Equal(t, "trace-1", line["trace_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "hello", line["msg"])
}

func TestLogRequestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", "info", "json")
	log.SetOutput(&buf)

	log.LogRequest(context.Background(), http.MethodGet, "/dogs", 503, 12*time.Millisecond)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.EqualValues(t, 503, line["status"])
	assert.EqualValues(t, 12, line["duration_ms"])
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	log := New("test", "loud", "text")
	assert.Equal(t, "info", log.Logger.GetLevel().String())
}

func TestContextHelpersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetAccessToken(WithAccessToken(ctx, "")))
	assert.Equal(t, "tok", GetAccessToken(WithAccessToken(ctx, "tok")))
	assert.NotEmpty(t, NewTraceID())
}
