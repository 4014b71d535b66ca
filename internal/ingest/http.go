package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/utils"
)

var fetchBackoff = utils.NewBackoff(100*time.Millisecond, 2)

// GetWithRetry fetches url, retrying transport errors and 5xx/429 with
// exponential backoff + jitter. Other 4xx fail immediately.
func GetWithRetry(ctx context.Context, c HTTPClient, url string) ([]byte, error) {
	var body []byte
	err := fetchBackoff.Do(ctx, func(int) error {
		b, err := getBody(ctx, c, url)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && !se.retryable() {
				return utils.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	})
	return body, err
}
