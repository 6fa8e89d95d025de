package migrations

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r io.ReadCloser) string {
	t.Helper()
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)

	var versions []uint
	for {
		versions = append(versions, version)

		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "up migration for %d", version)
		assert.NotEmpty(t, strings.TrimSpace(readAll(t, up)))

		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "down migration for %d", version)
		assert.NotEmpty(t, strings.TrimSpace(readAll(t, down)))

		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
	assert.Equal(t, []uint{1, 2}, versions)
}

func TestSchemaDefinesCounterFunction(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	up, _, err := src.ReadUp(2)
	require.NoError(t, err)
	body := readAll(t, up)
	for _, counter := range []string{"topic_likes", "topic_comments", "topic_views", "comment_likes", "comment_replies", "reply_likes"} {
		assert.Contains(t, body, "'"+counter+"'")
	}
	assert.Contains(t, body, "GREATEST(0,")
}

func TestApplyIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	require.NoError(t, Apply(context.Background(), dsn))
	require.NoError(t, Apply(context.Background(), dsn), "second apply is a no-op")

	v, dirty, err := Version(dsn)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)
}
