package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gsconf-net/gsconf/pkg/util"
)

// maxAttempts bounds every request: one try plus two retries. The
// device web servers drop connections under load, so a couple of
// retries recovers most transient failures without hiding a dead box.
const maxAttempts = 3

// httpStatusError marks a non-2xx response. 5xx is retryable, the
// device recovers; 4xx is not.
type httpStatusError struct {
	code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := &httpStatusError{code: resp.StatusCode}
	if resp.StatusCode >= 500 {
		return err
	}
	return permanent(err)
}

func permanent(err error) error {
	return backoff.Permanent(err)
}

// retryable reports whether err is worth another attempt: timeouts,
// connection resets and refused connections all are.
func retryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// withRetry runs op with exponential backoff and wraps the terminal
// failure in a TransportError carrying the attempt count.
func withRetry(ctx context.Context, target, page string, op func() error) error {
	attempts := 0
	wrapped := func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return err
		}
		var statusErr *httpStatusError
		if !retryable(err) && !errors.As(err, &statusErr) {
			return permanent(err)
		}
		util.WithDevice(target).WithField("page", page).
			Debugf("attempt %d failed: %v", attempts, err)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second

	err := backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(policy, maxAttempts-1), ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &util.TransportError{Page: page, Attempts: attempts, Err: err}
}
