// Package retry runs operations with bounded attempts and exponential backoff.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return transport.Fetch(ctx, url, w)
//	}, &retry.Config{
//	    MaxAttempts: 3,
//	    Backoff:     retry.DefaultExponentialBackoff(),
//	})
//
// DefaultRetryIf retries network errors and retryable HTTP statuses from
// linkharvest/pkg/errors and never retries context cancellation. Wait is also
// used on its own as a cancellable sleep.
package retry
