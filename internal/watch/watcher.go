// Package watch provides poll-based change subscriptions over external
// collections. The shared document store offers no change streams to this
// service, so feeds are snapshots compared by fingerprint.
package watch

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"time"

	"github.com/careloop/medreminder/pkg/logging"
)

// Subscription is an active change feed. Cancel stops the feed and waits
// for the poll loop to exit; it is safe to call more than once.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the subscription.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the poll loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Changes polls fetch every interval and invokes onChange whenever the
// snapshot differs from the previous one, including the first successful
// fetch. Fetch errors are logged and the feed keeps polling; snapshots may
// be stale or torn relative to other collections, callers must tolerate
// eventual consistency.
func Changes[T any](ctx context.Context, interval time.Duration, fetch func(context.Context) ([]T, error), onChange func([]T), logger *logging.Logger) *Subscription {
	if logger == nil {
		logger = logging.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)

		var last uint64
		var seen bool

		poll := func() {
			snapshot, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("watch: fetch failed", "error", err)
				}
				return
			}
			fp, err := fingerprint(snapshot)
			if err != nil {
				logger.Warn("watch: fingerprint failed", "error", err)
				return
			}
			if seen && fp == last {
				return
			}
			last, seen = fp, true
			onChange(snapshot)
		}

		poll()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	return sub
}

func fingerprint[T any](snapshot []T) (uint64, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64(), nil
}
