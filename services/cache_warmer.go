package services

import (
	"context"
	"fmt"
	"time"

	"wccleanup/logger"

	"github.com/robfig/cron/v3"
)

const warmTimeout = 2 * time.Minute

// CacheWarmer refreshes order status counts on a cron schedule so the status dropdown answers from cache.
type CacheWarmer struct {
	orders OrderService
	cron   *cron.Cron
}

func NewCacheWarmer(orders OrderService) *CacheWarmer {
	return &CacheWarmer{orders: orders}
}

// Start schedules warm-ups. An empty schedule leaves the warmer idle.
func (w *CacheWarmer) Start(schedule string) error {
	if w == nil || w.orders == nil || schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { w.Warm(context.Background()) }); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", schedule, err)
	}
	w.cron = c
	c.Start()
	logger.Infof("order count warm-up scheduled: %s", schedule)
	return nil
}

func (w *CacheWarmer) Warm(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()

	statuses, err := w.orders.ListOrderStatuses(ctx, true)
	if err != nil {
		logger.Warnf("order count warm-up failed: %v", err)
		return
	}
	logger.Debugf("order count warm-up refreshed %d statuses", len(statuses))
}

func (w *CacheWarmer) Stop() {
	if w == nil || w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
