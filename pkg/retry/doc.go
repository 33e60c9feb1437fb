// Package retry runs an operation again with backoff until it succeeds.
//
// The service uses it only at startup, to wait for the database to accept
// connections:
//
//	err := retry.Do(ctx, &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		Logger:      log,
//	}, db.PingContext)
//
// Context errors are never retried.
package retry
