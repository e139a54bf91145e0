package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/metrics"
)

const (
	defaultSendTimeout = 5 * time.Minute

	deliveryStatusSent        = "sent"
	deliveryStatusFailed      = "failed"
	deliveryStatusFetchFailed = "fetch_failed"
	deliveryStatusArchived    = "archived"
)

// Coordinator owns the obligation store and the background dispatch of
// finished reports.
type Coordinator struct {
	store       Store
	mailer      Mailer
	archiver    Archiver
	sendTimeout time.Duration
	logger      *logging.Logger
	metrics     metrics.Recorder

	wg sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithArchiver also uploads every dispatched report.
func WithArchiver(a Archiver) Option {
	return func(c *Coordinator) { c.archiver = a }
}

// WithSendTimeout bounds each background dispatch, report fetch included.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithMetrics reports deliveries and pending obligations to r.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Coordinator) { c.metrics = metrics.OrNop(r) }
}

// NewCoordinator creates a coordinator over store and mailer.
func NewCoordinator(store Store, mailer Mailer, logger *logging.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Coordinator{
		store:       store,
		mailer:      mailer,
		sendTimeout: defaultSendTimeout,
		logger:      logger.WithComponent("delivery"),
		metrics:     metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register records that the report of taskID must be mailed to recipient.
func (c *Coordinator) Register(ctx context.Context, taskID, recipient string) error {
	if err := c.store.Put(ctx, Obligation{TaskID: taskID, Recipient: recipient}); err != nil {
		return errors.WrapDeliveryError(errors.CodeStore, taskID, "failed to record delivery obligation", err)
	}
	c.logger.InfoDelivery("Delivery obligation recorded", taskID, "recipient", recipient)
	c.updatePending(ctx)
	return nil
}

// Claim consumes the obligation for taskID. Only the first caller after the
// task finishes gets ok == true; the obligation is gone whether or not the
// report can be sent afterwards.
func (c *Coordinator) Claim(ctx context.Context, taskID string) (recipient string, ok bool, err error) {
	o, ok, err := c.store.Take(ctx, taskID)
	if err != nil {
		return "", false, errors.WrapDeliveryError(errors.CodeStore, taskID, "failed to consume delivery obligation", err)
	}
	if ok {
		c.updatePending(ctx)
	}
	return o.Recipient, ok, nil
}

// FetchFunc produces the report bytes to deliver.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Dispatch fetches the report and mails it to recipient in the background.
// Failures are logged and counted; they never reach the caller.
func (c *Coordinator) Dispatch(taskID, recipient string, fetch FetchFunc) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.sendTimeout)
		defer cancel()

		pdf, err := fetch(ctx)
		if err != nil {
			c.metrics.IncrementDeliveries(deliveryStatusFetchFailed)
			c.logger.ErrorDelivery("Report fetch for delivery failed", taskID, err, "recipient", recipient)
			return
		}
		_ = c.Deliver(ctx, taskID, recipient, pdf)
	}()
}

// Deliver mails pdf to recipient and archives it when an archiver is set.
// An archive failure is logged but does not fail the delivery.
func (c *Coordinator) Deliver(ctx context.Context, taskID, recipient string, pdf []byte) error {
	if err := c.mailer.Send(ctx, ReportMessage(taskID, recipient, pdf)); err != nil {
		c.metrics.IncrementDeliveries(deliveryStatusFailed)
		deliveryErr := &errors.DeliveryError{
			Code:      errors.CodeDeliveryFailed,
			Message:   "failed to send report",
			TaskID:    taskID,
			Recipient: recipient,
			Cause:     err,
		}
		c.logger.ErrorDelivery("Report delivery failed", taskID, deliveryErr, "recipient", recipient)
		return deliveryErr
	}
	c.metrics.IncrementDeliveries(deliveryStatusSent)
	c.logger.InfoDelivery("Report delivered", taskID, "recipient", recipient, "bytes", len(pdf))

	if c.archiver != nil {
		key, err := c.archiver.Archive(ctx, taskID, pdf)
		if err != nil {
			c.logger.ErrorDelivery("Report archive failed", taskID, err)
		} else {
			c.metrics.IncrementDeliveries(deliveryStatusArchived)
			c.logger.InfoDelivery("Report archived", taskID, "object", key)
		}
	}
	return nil
}

// Sweep removes expired obligations.
func (c *Coordinator) Sweep(ctx context.Context) (int, error) {
	n, err := c.store.Sweep(ctx)
	if err != nil {
		return 0, errors.WrapDeliveryError(errors.CodeStore, "", "failed to sweep delivery obligations", err)
	}
	if n > 0 {
		c.logger.Info("Expired delivery obligations removed", "count", n)
	}
	c.updatePending(ctx)
	return n, nil
}

// Pending returns the number of stored obligations.
func (c *Coordinator) Pending(ctx context.Context) (int, error) {
	return c.store.Len(ctx)
}

// Shutdown waits for in-flight dispatches until ctx is done.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) updatePending(ctx context.Context) {
	if n, err := c.store.Len(ctx); err == nil {
		c.metrics.SetPendingObligations(n)
	}
}
