package appointments

import (
	"context"
	"time"

	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Completer periodically sweeps confirmed appointments whose windows have
// finished and moves them to completed.
type Completer struct {
	service  *Service
	logger   *logging.Logger
	interval time.Duration
}

// NewCompleter builds a sweep worker over the appointment service.
func NewCompleter(service *Service, logger *logging.Logger) *Completer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Completer{
		service:  service,
		logger:   logger,
		interval: 5 * time.Minute,
	}
}

func (c *Completer) WithInterval(d time.Duration) *Completer {
	if d > 0 {
		c.interval = d
	}
	return c
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (c *Completer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Completer) sweep(ctx context.Context) {
	n, err := c.service.CompleteElapsed(ctx)
	if err != nil {
		c.logger.Error("completion sweep failed", "error", err)
		return
	}
	if n > 0 {
		c.logger.Info("completion sweep advanced appointments", "count", n)
	}
}
