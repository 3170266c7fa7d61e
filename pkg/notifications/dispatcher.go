package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/dpbiotech/configurator/pkg/async"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/logger"
)

// Dispatcher fans activations out to every deliverer in the background.
// Delivery failures are logged and never reach the caller.
type Dispatcher struct {
	deliverers []Deliverer
	group      *async.Group
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTimeout bounds each delivery. Default 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.group = async.NewGroup(timeout) }
}

// NewDispatcher returns a dispatcher for the given channels.
func NewDispatcher(deliverers []Deliverer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		deliverers: deliverers,
		group:      async.NewGroup(30 * time.Second),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify starts one delivery per channel and returns immediately with a
// future per channel. The deliveries outlive ctx's cancellation.
func (d *Dispatcher) Notify(ctx context.Context, a Activation) []*async.Future[struct{}] {
	futures := make([]*async.Future[struct{}], 0, len(d.deliverers))
	for i, deliverer := range d.deliverers {
		f := d.group.Go(ctx, func(ctx context.Context) error {
			err := deliverer.Deliver(ctx, a)
			if err != nil {
				d.logger.LogAttrs(ctx, slog.LevelError, "activation notification failed",
					logger.Serial(a.Record.Serial),
					slog.Int("deliverer_index", i),
					logger.Error(err),
				)
			}
			return err
		})
		futures = append(futures, f)
	}
	return futures
}

// Hook adapts the dispatcher to the checkout activation hook.
func (d *Dispatcher) Hook() checkout.ActivationHook {
	return func(ctx context.Context, rec license.Record, event *checkout.Event) {
		a := Activation{Record: rec}
		if event != nil {
			a.Email = event.Metadata[checkout.MetaCustomerEmail]
			a.TransactionID = event.TransactionID
			a.EventID = event.ID
		}
		d.Notify(ctx, a)
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.group.Wait(ctx)
}
