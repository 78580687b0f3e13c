package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// capturedSend records what the notifier hands to its transport.
type capturedSend struct {
	from string
	to   []string
	msg  []byte
}

func newCapturingEmail(t *testing.T, from, to string) (*Email, *capturedSend) {
	t.Helper()
	captured := &capturedSend{}
	send := func(_ context.Context, envFrom string, envTo []string, msg []byte) error {
		captured.from = envFrom
		captured.to = envTo
		captured.msg = msg
		return nil
	}
	n, err := newEmail(emailSMTPName, from, to, send)
	require.NoError(t, err)
	return n, captured
}

func TestEmailConstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    string
		to      string
		wantEnv string
	}{
		{name: "bad from address", from: "not an address", to: "ops@example.com", wantEnv: EnvEmailFrom},
		{name: "bad to address", from: "watch@example.com", to: "also not", wantEnv: EnvEmailTo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newEmail(emailSMTPName, tt.from, tt.to, nil)
			var cfgErr *types.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantEnv, cfgErr.Name)
		})
	}
}

func TestEmailNotifyEnvelope(t *testing.T) {
	t.Parallel()

	n, captured := newCapturingEmail(t,
		"Watcher <watch@example.com>",
		"ops@example.com",
	)

	require.NoError(t, n.Notify(context.Background(), availableResult()))

	assert.Equal(t, "watch@example.com", captured.from)
	assert.Equal(t, []string{"ops@example.com"}, captured.to)
}

func TestEmailComposeMessage(t *testing.T) {
	t.Parallel()

	n, captured := newCapturingEmail(t,
		"Watcher <watch@example.com>",
		"Ops <ops@example.com>",
	)

	require.NoError(t, n.Notify(context.Background(), availableResult()))

	msg := string(captured.msg)
	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found, "message must separate headers from body")

	assert.Contains(t, headers, "From: \"Watcher\" <watch@example.com>")
	assert.Contains(t, headers, "To: \"Ops\" <ops@example.com>")
	assert.Contains(t, headers, "Subject: Server availability notification for scaleway")
	assert.Contains(t, headers, "Content-Type: text/plain")

	assert.Contains(t, body, "Report of available server types for scaleway:")
	assert.Contains(t, body, "- offer-x\r\n")
	assert.Contains(t, body, "- offer-y\r\n")
	assert.Equal(t, strings.Count(msg, "\n"), strings.Count(msg, "\r\n"),
		"every newline must be CRLF")
}

func TestEmailTestUsesDummyResult(t *testing.T) {
	t.Parallel()

	n, captured := newCapturingEmail(t, "watch@example.com", "ops@example.com")

	require.NoError(t, n.Test(context.Background()))
	assert.Contains(t, string(captured.msg), "dummy_provider")
	assert.Contains(t, string(captured.msg), "- foo_server")
}
