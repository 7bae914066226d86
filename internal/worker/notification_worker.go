package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/service"
)

// StartNotificationWorker registers email delivery handlers and starts the
// periodic overdue sweep. The sweep goroutine stops when ctx is canceled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, dispatcher events.Dispatcher, sweepInterval time.Duration, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers(dispatcher)

	if sweepInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := notificationService.DispatchOverdueSweep(ctx)
				if err != nil {
					logger.Error("overdue sweep failed", zap.Error(err))
					continue
				}
				if count > 0 {
					logger.Info("overdue sweep completed", zap.Int("amendments", count))
				}
			}
		}
	}()
}
