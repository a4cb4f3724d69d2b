package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/service"
	"github.com/aussiebroadwan/bartab-connect/pkg/connectsdk"
	"github.com/aussiebroadwan/bartab-connect/pkg/cryptox"
	"github.com/aussiebroadwan/bartab-connect/pkg/slogx"
)

// apiError maps a service error onto the wire error. Order matters:
// ErrReauthorizationRequired wraps the provider or refresh-token error that
// caused it.
func apiError(err error) *connectsdk.APIError {
	switch {
	case errors.Is(err, service.ErrInvalidState):
		return connectsdk.ErrInvalidState
	case errors.Is(err, service.ErrExpiredState):
		return connectsdk.ErrExpiredState
	case errors.Is(err, service.ErrStateCollision):
		return connectsdk.ErrStateCollision
	case errors.Is(err, service.ErrAuthorizationDenied):
		return connectsdk.ErrAccessDenied
	case errors.Is(err, service.ErrReauthorizationRequired):
		return connectsdk.ErrReauthorizationRequired
	case errors.Is(err, service.ErrNoRefreshToken):
		return connectsdk.ErrNoRefreshToken
	case errors.Is(err, service.ErrNotConnected):
		return connectsdk.ErrNotConnected
	case errors.Is(err, service.ErrNoAccessibleResource):
		return connectsdk.ErrNoAccessibleResource
	case errors.Is(err, oauth.ErrUnknownProvider):
		return connectsdk.ErrUnknownProvider
	case errors.Is(err, oauth.ErrUnsupportedOperation):
		return connectsdk.ErrUnsupportedOperation
	case errors.Is(err, oauth.ErrProviderTimeout):
		return connectsdk.ErrProviderTimeout
	case errors.Is(err, oauth.ErrProviderExchange):
		return connectsdk.ErrProviderError
	default:
		return connectsdk.ErrServerError
	}
}

// describe returns the wire error for err. Internal failures keep the
// generic description.
func describe(err error) *connectsdk.APIError {
	e := apiError(err)
	if e.StatusCode == http.StatusInternalServerError {
		return e
	}
	return e.WithDescription(err.Error())
}

// writeServiceError logs err at a level matching its status and writes it.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	e := describe(err)
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, cryptox.ErrDecryption):
		log.Error("stored token could not be decrypted", "err", err)
	case e.StatusCode >= http.StatusInternalServerError:
		log.Error("request failed", "err", err, "code", e.Code)
	default:
		log.Info("request rejected", "err", err, "code", e.Code)
	}

	e.WriteError(w)
}
