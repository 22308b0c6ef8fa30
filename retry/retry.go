// Package retry drives a Client's Upload to completion across transient
// connection failures, exponentially backing off between attempts. The
// backoff construction and Retry call mirror cs3org/reva's stream package
// (pkg/events/stream/stream.go), the only place in this dependency pool that
// reaches for github.com/cenkalti/backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/binarycraft/tuscore"
)

// Upload drives c.Upload to completion, retrying only on ErrConnectionError.
// Any other error -- configuration, protocol, corruption, not-found -- is
// permanent and returned immediately, since retrying cannot fix it. maxElapsed
// bounds the total time spent retrying; zero means no bound.
func Upload(ctx context.Context, c *tuscore.Client, maxElapsed time.Duration) (int64, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed

	var offset int64
	operation := func() error {
		o, err := c.Upload(ctx, -1)
		offset = o
		if err == nil {
			return nil
		}
		if errors.Is(err, tuscore.ErrConnectionError) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, b); err != nil {
		return offset, err
	}
	return offset, nil
}
