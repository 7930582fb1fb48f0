package notify_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/profiles/internal/profiles/notify"
	"github.com/stretchr/testify/require"
)

func TestLogPublisherHidesData(t *testing.T) {
	var buf bytes.Buffer
	pub := notify.LogPublisher{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := pub.Publish(context.Background(), notify.EmailJob{
		ID:       "forgot_password:tok",
		To:       "alice@example.com",
		Template: notify.TemplateForgotPassword,
		Data:     map[string]any{"reset_link": "https://example.com/reset?token=secret-token"},
	})
	require.NoError(t, err)

	require.Contains(t, buf.String(), "forgot_password")
	require.NotContains(t, buf.String(), "secret-token")
}
