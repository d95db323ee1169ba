package email

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestSMTPSender_Unconfigured(t *testing.T) {
	s := NewSMTPSender(config.NotificationConfig{EmailFrom: "noreply@example.com"}, zap.NewNop())
	assert.False(t, s.Configured())
	assert.NoError(t, s.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "hi"}))
	assert.ErrorIs(t, s.Ping(context.Background()), ErrNotConfigured)
}

func TestRunWithContext_StopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := runWithContext(ctx, func() error {
		time.Sleep(time.Second)
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTemplates_EscapeHTML(t *testing.T) {
	subject, plain, html := CommentAdded("TK-2024-08-001", "Login", "Eve", "<script>x</script>", true)
	assert.Equal(t, "[TK-2024-08-001] New internal note", subject)
	assert.Contains(t, plain, "<script>x</script>")
	assert.NotContains(t, html, "<script>")
}
