// Package httputil provides HTTP utilities shared by the API client.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap such errors with [RetryableError] so Retry knows to try again; any
// other error aborts immediately. The delay doubles after each failed
// attempt:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    ...
//	})
//
// Response caching lives in the cache package; this package only carries
// the transport-level helpers.
package httputil
