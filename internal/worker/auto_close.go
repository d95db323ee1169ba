package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

// TicketCloser closes tickets resolved longer than olderThan ago.
type TicketCloser interface {
	AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error)
}

// AutoCloseWorker periodically closes stale resolved tickets.
type AutoCloseWorker struct {
	cron      *cron.Cron
	closer    TicketCloser
	olderThan time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAutoCloseWorker schedules the job. It returns nil when AutoCloseDays is
// not positive.
func NewAutoCloseWorker(cfg config.TicketingConfig, closer TicketCloser, logger *zap.Logger) (*AutoCloseWorker, error) {
	if cfg.AutoCloseDays <= 0 || closer == nil {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &AutoCloseWorker{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		closer:    closer,
		olderThan: time.Duration(cfg.AutoCloseDays) * 24 * time.Hour,
		timeout:   time.Minute,
		logger:    logger,
	}
	if _, err := w.cron.AddFunc(cfg.AutoCloseCron, w.run); err != nil {
		return nil, fmt.Errorf("invalid TICKET_AUTO_CLOSE_CRON %q: %w", cfg.AutoCloseCron, err)
	}
	return w, nil
}

// Start begins the schedule in the background.
func (w *AutoCloseWorker) Start() {
	if w == nil {
		return
	}
	w.cron.Start()
	w.logger.Info("auto-close worker started", zap.Duration("older_than", w.olderThan))
}

// Stop halts the schedule and waits for a running job until ctx ends.
func (w *AutoCloseWorker) Stop(ctx context.Context) error {
	if w == nil {
		return nil
	}
	select {
	case <-w.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		w.logger.Warn("auto-close job still running at shutdown")
		return ctx.Err()
	}
}

func (w *AutoCloseWorker) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	closed, err := w.closer.AutoCloseResolved(ctx, w.olderThan)
	if err != nil {
		w.logger.Error("auto-close failed", zap.Error(err))
		return
	}
	if closed > 0 {
		w.logger.Info("resolved tickets closed", zap.Int("count", closed))
	}
}
