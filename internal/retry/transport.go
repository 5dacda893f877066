package retry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Transport retries idempotent requests (GET, HEAD) according to RetryOn,
// waiting between attempts as RetryStrategy says.
type Transport struct {
	Base          http.RoundTripper
	RetryStrategy Strategy
	RetryOn       *On
	Sleeper       Sleeper
	Logger        *slog.Logger
}

type contextKey string

const retryCountContextKey contextKey = "retryCountKey"

func getRetryCount(ctx context.Context) uint {
	v := ctx.Value(retryCountContextKey)

	i, ok := v.(uint)
	if !ok {
		return 0
	}

	return i
}

func setRetryCount(ctx context.Context, retryCount uint) context.Context {
	return context.WithValue(ctx, retryCountContextKey, retryCount)
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	retryCount := getRetryCount(request.Context())
	sleep, exceeded := t.retryStrategy().Sleep(retryCount)
	if !isIdempotent(request) {
		exceeded = true
	}

	response, err := t.base().RoundTrip(request)
	if err != nil {
		if !exceeded && t.RetryOn != nil && t.RetryOn.CheckError(err) {
			return t.retry(request, retryCount, sleep, "error", err.Error())
		}
		return nil, err
	}
	if !exceeded && t.RetryOn != nil && t.RetryOn.CheckResponse(response) {
		// The connection can only be reused when the discarded body is drained.
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
		return t.retry(request, retryCount, sleep, "status", response.StatusCode)
	}
	return response, nil
}

func (t *Transport) retry(request *http.Request, retryCount uint, sleep time.Duration, reasonKey string, reason any) (*http.Response, error) {
	ctx := request.Context()
	t.logger().Debug("retrying request", "url", request.URL.String(), "retry", retryCount+1, reasonKey, reason)

	if err := t.sleeper().Sleep(ctx, sleep); err != nil {
		return nil, err
	}
	return t.RoundTrip(request.WithContext(setRetryCount(ctx, retryCount+1)))
}

func isIdempotent(request *http.Request) bool {
	switch request.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) retryStrategy() Strategy {
	if t.RetryStrategy != nil {
		return t.RetryStrategy
	}
	return NewNever()
}

func (t *Transport) sleeper() Sleeper {
	if t.Sleeper != nil {
		return t.Sleeper
	}
	return timerSleeper{}
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *Transport) CancelRequest(request *http.Request) {
	type canceler interface {
		CancelRequest(*http.Request)
	}
	if cr, ok := t.base().(canceler); ok {
		cr.CancelRequest(request)
	}
}
