// Package ratelimit throttles callers with one token bucket per key.
//
// The server keys buckets by client address and guards the Instagram
// endpoints with them:
//
//	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 30, Burst: 5})
//	defer limiter.Stop()
//
//	if !limiter.Allow(clientIP) {
//	    // answer 429
//	}
package ratelimit
