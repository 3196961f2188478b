package rates

import (
	"context"
	"time"

	"github.com/go-kit/log"
)

// loggingProvider decorates a Provider with logging
type loggingProvider struct {
	next   Provider
	logger log.Logger
}

// NewLoggingProvider returns a new logging Provider
func NewLoggingProvider(logger log.Logger, next Provider) Provider {
	return &loggingProvider{
		next:   next,
		logger: logger,
	}
}

func (p *loggingProvider) Rates(ctx context.Context) (snapshot Snapshot, err error) {
	defer func(begin time.Time) {
		p.logger.Log(
			"method", "rates",
			"fetched_at", snapshot.FetchedAt,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Rates(ctx)
}
