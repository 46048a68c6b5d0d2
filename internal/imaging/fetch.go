package imaging

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

func base64Decode(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(data)
}

const fetchRetries = 3

// Fetch downloads an image from a URL, retrying transient failures with
// exponential backoff.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < fetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building image request: %w", err)
		}
		req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("image fetch returned status %d", resp.StatusCode)
			// Retry only server-side and rate-limit statuses.
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}
	return nil, fmt.Errorf("image fetch failed after %d attempts: %w", fetchRetries, lastErr)
}
