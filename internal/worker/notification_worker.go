package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

// Drainer waits for in-flight event deliveries.
type Drainer interface {
	Wait(ctx context.Context) error
}

// NotificationWorker owns the notification subscriptions for the process.
type NotificationWorker struct {
	drainer Drainer
	logger  *zap.Logger
}

// StartNotificationWorker registers notification handlers. drainer may be nil
// when delivery is synchronous.
func StartNotificationWorker(notificationService *service.NotificationService, drainer Drainer, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	return &NotificationWorker{drainer: drainer, logger: logger}
}

// Stop waits for queued notifications until ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w == nil || w.drainer == nil {
		return nil
	}
	if err := w.drainer.Wait(ctx); err != nil {
		w.logger.Warn("notifications still in flight at shutdown", zap.Error(err))
		return err
	}
	return nil
}
