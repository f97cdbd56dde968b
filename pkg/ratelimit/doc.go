// Package ratelimit throttles outbound requests.
//
// SlidingWindow bounds the number of requests in any window of time and is
// what PerMinute returns for a positive requests-per-minute setting.
// TokenBucket refills to capacity once per period and is what Burst returns;
// it suits result-page loads that come in short runs. Unlimited is used when
// no limit is configured.
//
//	limiter := ratelimit.PerMinute(cfg.Download.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
