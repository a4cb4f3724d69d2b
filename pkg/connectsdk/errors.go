package connectsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidToken            = "invalid_token"
	ErrorCodeInsufficientScope       = "insufficient_scope"
	ErrorCodeServerError             = "server_error"
	ErrorCodeAccessDenied            = "access_denied"
	ErrorCodeInvalidState            = "invalid_state"
	ErrorCodeExpiredState            = "expired_state"
	ErrorCodeStateCollision          = "state_collision"
	ErrorCodeProviderError           = "provider_error"
	ErrorCodeProviderTimeout         = "provider_timeout"
	ErrorCodeNoAccessibleResource    = "no_accessible_resource"
	ErrorCodeUnsupportedOperation    = "unsupported_operation"
	ErrorCodeUnknownProvider         = "unknown_provider"
	ErrorCodeNotConnected            = "not_connected"
	ErrorCodeReauthorizationRequired = "reauthorization_required"
	ErrorCodeNoRefreshToken          = "no_refresh_token"
)

// APIError is the error envelope returned by the connect service. The server
// writes it; the client parses it back.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches any *APIError with the same code, so the predefined values below
// work with errors.Is regardless of description.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as the response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// WithDescription returns a copy of e carrying desc.
func (e *APIError) WithDescription(desc string) *APIError {
	c := *e
	c.Description = desc
	return &c
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrAccessDenied is returned when the user declined consent at the provider.
	ErrAccessDenied = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "authorization was denied at the provider",
	}

	ErrInvalidState = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidState,
		Description: "unknown or already used state",
	}

	ErrExpiredState = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeExpiredState,
		Description: "the authorization request has expired, start again",
	}

	ErrStateCollision = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeStateCollision,
		Description: "could not issue a unique state",
	}

	ErrProviderError = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeProviderError,
		Description: "the provider rejected the request",
	}

	ErrProviderTimeout = &APIError{
		StatusCode:  http.StatusGatewayTimeout,
		Code:        ErrorCodeProviderTimeout,
		Description: "the provider did not respond in time",
	}

	ErrNoAccessibleResource = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeNoAccessibleResource,
		Description: "the grant does not give access to any site",
	}

	ErrUnsupportedOperation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedOperation,
		Description: "the provider does not support this operation",
	}

	ErrUnknownProvider = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUnknownProvider,
		Description: "provider is not configured",
	}

	ErrNotConnected = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotConnected,
		Description: "the user has not connected this provider",
	}

	// ErrReauthorizationRequired means the stored grant can no longer produce
	// a valid token and the user has to go through authorize again.
	ErrReauthorizationRequired = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeReauthorizationRequired,
		Description: "the connection must be authorized again",
	}

	ErrNoRefreshToken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeNoRefreshToken,
		Description: "the provider did not issue a refresh token",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
