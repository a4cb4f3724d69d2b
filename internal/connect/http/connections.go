package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/service"
	"github.com/aussiebroadwan/bartab-connect/pkg/connectsdk"
	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
)

// ConnectionsHandler serves the caller's stored connections.
type ConnectionsHandler struct {
	Manager *service.Manager
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		connectsdk.ErrInvalidRequest.WithDescription("missing subject").WriteError(w)
	}
	return userID, ok
}

// HandleStatus lists the caller's connections.
//
//	@Summary		Connection status
//	@Description	Reports every provider the caller has connected. Expired connections are listed as such and never refreshed here.
//	@Tags			Connections
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	connectsdk.StatusResponse
//	@Failure		401	{object}	connectsdk.ErrorResponse
//	@Router			/v1/connections [get]
func (h *ConnectionsHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	status, err := h.Manager.Status(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := connectsdk.StatusResponse{
		UserID:    userID,
		Providers: make(map[string]connectsdk.ConnectionStatus, len(status)),
		Timestamp: time.Now().UTC(),
	}
	for provider, s := range status {
		resp.Providers[provider] = connectsdk.ConnectionStatus{
			Connected:   s.Connected,
			Expired:     s.Expired,
			ExpiresAt:   s.ExpiresAt,
			Scopes:      s.Scopes,
			Refreshable: s.Refreshable,
			UpdatedAt:   s.UpdatedAt,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh forces a refresh grant for one connection.
//
//	@Summary		Refresh a connection
//	@Description	Runs the provider's refresh grant now, whether or not the access token has expired.
//	@Tags			Connections
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	path		string	true	"Provider name"
//	@Success		200			{object}	connectsdk.RefreshResponse
//	@Failure		400			{object}	connectsdk.ErrorResponse	"unsupported_operation"
//	@Failure		404			{object}	connectsdk.ErrorResponse	"not_connected, unknown_provider"
//	@Failure		409			{object}	connectsdk.ErrorResponse	"no_refresh_token"
//	@Failure		502			{object}	connectsdk.ErrorResponse	"provider_error"
//	@Failure		504			{object}	connectsdk.ErrorResponse	"provider_timeout"
//	@Router			/v1/connections/{provider}/refresh [post]
func (h *ConnectionsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	provider := r.PathValue("provider")

	conn, err := h.Manager.RefreshToken(r.Context(), userID, provider)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.RefreshResponse{
		Status:    "refreshed",
		Provider:  conn.Provider,
		ExpiresAt: conn.ExpiresAt,
	})
}

// HandleDisconnect deletes one connection. Nothing is revoked at the provider.
//
//	@Summary		Disconnect a provider
//	@Tags			Connections
//	@Security		BearerAuth
//	@Param			provider	path	string	true	"Provider name"
//	@Success		204			"Connection removed"
//	@Failure		404			{object}	connectsdk.ErrorResponse	"not_connected, unknown_provider"
//	@Router			/v1/connections/{provider} [delete]
func (h *ConnectionsHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	provider := r.PathValue("provider")

	existed, err := h.Manager.Disconnect(r.Context(), userID, provider)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !existed {
		connectsdk.ErrNotConnected.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToken returns a valid provider access token, refreshing it first if
// needed.
//
//	@Summary		Get a provider access token
//	@Description	Returns a currently valid access token for the caller's connection, plus non-secret metadata such as the Jira cloud id.
//	@Description	Requires the connections:token scope.
//	@Tags			Connections
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	path		string	true	"Provider name"
//	@Success		200			{object}	connectsdk.TokenResponse
//	@Failure		403			{object}	connectsdk.ErrorResponse	"insufficient_scope"
//	@Failure		404			{object}	connectsdk.ErrorResponse	"not_connected, unknown_provider"
//	@Failure		409			{object}	connectsdk.ErrorResponse	"reauthorization_required"
//	@Failure		504			{object}	connectsdk.ErrorResponse	"provider_timeout"
//	@Header			200			{string}	Cache-Control	"no-store"
//	@Router			/v1/connections/{provider}/token [get]
func (h *ConnectionsHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	provider := r.PathValue("provider")

	creds, err := h.Manager.GetCredentials(r.Context(), userID, provider)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.TokenResponse{
		Provider:    creds.Provider,
		AccessToken: creds.AccessToken,
		ExpiresAt:   creds.ExpiresAt,
		Metadata:    creds.Metadata,
	})
}
