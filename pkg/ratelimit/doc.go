// Package ratelimit throttles requests to the catalog site.
//
// A letter-by-letter search issues 26 page fetches back to back; the
// limiters here spread those out without ever retrying a request.
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Default strategy
//
// Sliding Window:
//   - Tracks requests within a moving time window
//
// Both implement Limiter; Wait blocks until a request may proceed or the
// context is done.
//
//	limiter := ratelimit.New("token_bucket", 60, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
