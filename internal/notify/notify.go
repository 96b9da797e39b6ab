// Package notify delivers rendered follower reports to configured channels.
package notify

import (
	"context"
	"fmt"

	"github.com/Sorosliu1029/follower-change/internal/adapter"
	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Notifier delivers one message over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg *adapter.Message) error
}

// Dispatcher fans a message out to every notifier concurrently.
type Dispatcher struct {
	notifiers   []Notifier
	concurrency int
	logger      *zap.Logger
}

func NewDispatcher(logger *zap.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifiers:   notifiers,
		concurrency: constants.NotificationConfig.MaxConcurrency,
		logger:      logger,
	}
}

func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Dispatch waits for every delivery and joins their failures. One failing
// channel does not cancel the others.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *adapter.Message) error {
	if len(d.notifiers) == 0 {
		d.logger.Debug("No notifiers configured")
		return nil
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(d.concurrency)
	for _, n := range d.notifiers {
		p.Go(func(ctx context.Context) error {
			sendCtx, cancel := context.WithTimeout(ctx, constants.NotificationConfig.SendTimeout)
			defer cancel()

			if err := n.Notify(sendCtx, msg); err != nil {
				d.logger.Error("Notification failed", zap.String("notifier", n.Name()), zap.Error(err))
				return fmt.Errorf("%s: %w", n.Name(), err)
			}
			d.logger.Info("Notification sent", zap.String("notifier", n.Name()), zap.String("subject", msg.Subject))
			return nil
		})
	}
	return p.Wait()
}
