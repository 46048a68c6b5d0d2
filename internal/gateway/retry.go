package gateway

import (
	"context"
	"net/http"
	"time"
)

const maxRequestRetries = 3

// doWithRetry executes an HTTP request, retrying transport-level failures
// with exponential backoff. Non-2xx responses are returned to the caller
// untouched; only connection errors are retried.
func doWithRetry(client *http.Client, req *http.Request, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxRequestRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
			// Request bodies are consumed on send, so rebuild before a retry.
			var err error
			req, err = build()
			if err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctxErr := req.Context().Err(); ctxErr != nil && ctxErr == context.Canceled {
			return nil, ctxErr
		}
	}
	return nil, lastErr
}
