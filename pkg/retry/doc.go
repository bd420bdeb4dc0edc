// Package retry provides backoff and retry logic for transient failures
// while fetching comment pages.
//
// Errors classified by pkg/errors drive the decision: network, rate limit
// and server errors are retried, everything else returns immediately. A
// rate limit error carrying RetryAfter delays the next attempt at least that
// long. Waiting always honors context cancellation.
//
//	cfg := retry.FromSettings(appCfg.Retry, log)
//	batch, err := retry.DoWithResult(ctx, func(ctx context.Context) (scraper.Batch, error) {
//		return source.NextBatch(ctx)
//	}, cfg)
package retry
