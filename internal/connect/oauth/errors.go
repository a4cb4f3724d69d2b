package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

var (
	ErrUnknownProvider      = errors.New("oauth: unknown provider")
	ErrUnsupportedOperation = errors.New("oauth: unsupported operation")
	ErrProviderTimeout      = errors.New("oauth: provider timeout")
	ErrProviderExchange     = errors.New("oauth: provider exchange failed")
)

// maxPayload caps how much of a provider error body is kept.
const maxPayload = 4 << 10

// ExchangeError is a failed call to a provider endpoint. StatusCode and
// Payload hold the provider's verdict when one was received. Transient is set
// when the request never got a response or the provider reported an outage
// rather than a verdict on the grant.
type ExchangeError struct {
	Provider   string
	Op         string
	StatusCode int
	Code       string
	Payload    string
	Transient  bool
	Err        error
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("oauth: %s %s failed", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExchangeError) Unwrap() error { return e.Err }

func (e *ExchangeError) Is(target error) bool { return target == ErrProviderExchange }

// transient reports whether a provider response describes a temporary
// failure on its side (RFC 6749 section 4.1.2.1) rather than a rejected grant.
func transient(status int, code string) bool {
	switch code {
	case "temporarily_unavailable", "server_error":
		return true
	}
	return status >= 500
}

func truncate(b []byte) string {
	if len(b) > maxPayload {
		b = b[:maxPayload]
	}
	return string(b)
}

// classify turns a transport or token endpoint error into the package's
// error vocabulary.
func classify(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s: %w", ErrProviderTimeout, provider, op, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", provider, op, err)
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		e := &ExchangeError{Provider: provider, Op: op, Code: re.ErrorCode, Payload: truncate(re.Body), Err: err}
		if re.Response != nil {
			e.StatusCode = re.Response.StatusCode
		}
		e.Transient = transient(e.StatusCode, e.Code)
		return e
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return fmt.Errorf("%w: %s %s: %w", ErrProviderTimeout, provider, op, err)
		}
		return &ExchangeError{Provider: provider, Op: op, Transient: true, Err: err}
	}

	return &ExchangeError{Provider: provider, Op: op, Err: err}
}
