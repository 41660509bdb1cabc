package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/metai/internal/models"
)

// Controller retries a full send with a fixed delay in between attempts.
type Controller struct {
	// MaxRetries is the amount of attempts made after the first one.
	MaxRetries int
	Delay      time.Duration
	// Sleep defaults to a context aware time.Sleep.
	Sleep func(context.Context, time.Duration) error

	warn func(string)
}

func New(maxRetries int, delay time.Duration) Controller {
	return Controller{
		MaxRetries: maxRetries,
		Delay:      delay,
	}
}

// Permanent errors are returned as-is, without further attempts.
func Permanent(err error) bool {
	return errors.Is(err, models.ErrRegionBlocked) ||
		errors.Is(err, models.ErrAuthentication) ||
		errors.Is(err, models.ErrEmptyMessage) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Do runs attempt until it succeeds, at most 1+MaxRetries times. attempt
// receives its zero-indexed attempt number.
func (c Controller) Do(ctx context.Context, attempt func(ctx context.Context, n int) error) error {
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	warn := c.warn
	if warn == nil {
		warn = ancli.PrintWarn
	}
	total := max(c.MaxRetries, 0) + 1
	var last error
	for n := range total {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = attempt(ctx, n)
		if last == nil {
			return nil
		}
		if Permanent(last) {
			return last
		}
		if n == total-1 {
			break
		}
		warn(retryWarning(last, n+1, total))
		if err := sleep(ctx, c.Delay); err != nil {
			return err
		}
	}
	return models.NewRetryExhaustedError(total, last)
}

// retryWarning announces retry number n, counted from 1, of total attempts.
func retryWarning(err error, n, total int) string {
	return fmt.Sprintf("unable to obtain valid response from Meta AI: %v. Retrying... Attempt %v/%v.\n", err, n, total)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
