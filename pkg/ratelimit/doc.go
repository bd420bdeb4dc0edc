// Package ratelimit keeps collection traffic slow enough to avoid getting
// blocked.
//
// TokenBucket wraps golang.org/x/time/rate with a requests-per-minute
// configuration. Pacer combines a Limiter with a random pause between passes,
// so repeated passes over the same post do not arrive on a fixed rhythm:
//
//	pacer := ratelimit.NewPacer(cfg.RateLimit, cfg.Collect.PassDelayMin, cfg.Collect.PassDelayMax)
//	for pass := 1; pass <= maxPasses; pass++ {
//	    if _, err := pacer.Wait(ctx, pass); err != nil {
//	        return err
//	    }
//	    // fetch a batch
//	}
package ratelimit
