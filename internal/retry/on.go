package retry

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// On classifies HTTP outcomes as retryable, following envoy's retry_on
// vocabulary plus "rate-limited" for 429 responses.
type On struct {
	_5xx           bool
	gatewayError   bool
	connectFailure bool
	retriable4xx   bool
	rateLimited    bool
	statusCodes    []int
}

// NewDefaultRetryOn is tuned for fetching baseline images from a static file
// host or CDN.
func NewDefaultRetryOn() *On {
	return &On{
		_5xx:           false,
		gatewayError:   true,
		connectFailure: true,
		retriable4xx:   false,
		rateLimited:    true,
		statusCodes:    []int{},
	}
}

func NewRetryOnFromString(s string) (*On, error) {
	o := &On{}
	for _, s := range strings.Split(s, ",") {
		s = strings.TrimSpace(s)
		switch s {
		case "":
			continue
		case "5xx":
			o._5xx = true
		case "gateway-error":
			o.gatewayError = true
		case "connect-failure":
			o.connectFailure = true
		case "retriable-4xx":
			o.retriable4xx = true
		case "rate-limited":
			o.rateLimited = true
		default:
			statusCode, err := strconv.Atoi(s)
			if err != nil || statusCode < 100 || statusCode > 599 {
				return nil, xerrors.Errorf("invalid retryOn: %s", s)
			}
			o.statusCodes = append(o.statusCodes, statusCode)
		}
	}
	return o, nil
}

// copy from https://github.com/envoyproxy/envoy/blob/70d6ec1df6384118cf2fa2f02c0041edb76b2377/source/common/router/retry_state_impl.cc#L387
func (o *On) CheckResponse(response *http.Response) bool {
	if (o._5xx && response.StatusCode >= 500 && response.StatusCode < 600) ||
		(o.gatewayError && response.StatusCode >= 502 && response.StatusCode < 505) ||
		(o.retriable4xx && response.StatusCode == http.StatusConflict) ||
		(o.rateLimited && response.StatusCode == http.StatusTooManyRequests) {
		return true
	}

	for _, i := range o.statusCodes {
		if i == response.StatusCode {
			return true
		}
	}

	return false
}

func (o *On) CheckError(err error) bool {
	if !o.connectFailure && !o._5xx {
		return false
	}

	type temporary interface{ Temporary() bool }
	var terr temporary
	if errors.As(err, &terr) && terr.Temporary() {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}

	var operr *net.OpError
	if errors.As(err, &operr) && operr.Op == "dial" {
		return true
	}

	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
