package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/service"
	"github.com/aussiebroadwan/bartab-connect/pkg/connectsdk"
	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
	"github.com/aussiebroadwan/bartab-connect/pkg/slogx"
)

// AuthorizeHandler drives the browser side of a connection: sending the user
// to the provider and receiving them back.
type AuthorizeHandler struct {
	Manager            *service.Manager
	SuccessRedirectURL string
}

// HandleAuthorize starts an authorization for the caller.
//
//	@Summary		Start connecting a provider
//	@Description	Issues a single-use state bound to the caller and redirects to the provider's consent page.
//	@Description	Clients that cannot follow the redirect (e.g. to open it in a popup) send Accept: application/json
//	@Description	and receive the URL instead.
//	@Tags			Connections
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	path		string	true	"Provider name"	Enums(microsoft, slack, jira, asana, google, github)
//	@Success		200			{object}	connectsdk.AuthorizeResponse
//	@Success		302			{string}	string					"Redirect to the provider"
//	@Failure		401			{object}	connectsdk.ErrorResponse
//	@Failure		404			{object}	connectsdk.ErrorResponse	"unknown_provider"
//	@Failure		409			{object}	connectsdk.ErrorResponse	"state_collision"
//	@Router			/v1/connections/{provider}/authorize [get]
func (h *AuthorizeHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		connectsdk.ErrInvalidRequest.WithDescription("missing subject").WriteError(w)
		return
	}
	provider := r.PathValue("provider")

	authURL, err := h.Manager.BeginAuthorization(r.Context(), userID, provider)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if wantsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, connectsdk.AuthorizeResponse{
			Provider:         provider,
			AuthorizationURL: authURL,
		})
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback completes an authorization. It is reached by the user's
// browser, so outcomes are rendered as pages rather than JSON.
//
//	@Summary		Provider callback
//	@Description	Consumes the state, exchanges the code and stores the connection.
//	@Description	On success the browser is redirected to the configured success URL, or shown a page that notifies window.opener.
//	@Description	Failures render an error page with the matching status.
//	@Tags			Connections
//	@Produce		html
//	@Param			provider			path		string	true	"Provider name"
//	@Param			code				query		string	false	"Authorization code"
//	@Param			state				query		string	true	"State issued by the authorize endpoint"
//	@Param			error				query		string	false	"Provider error, e.g. access_denied"
//	@Param			error_description	query		string	false	"Provider error description"
//	@Success		200					{string}	string	"Success page"
//	@Success		302					{string}	string	"Redirect to the success URL"
//	@Failure		400					{string}	string	"Error page (invalid_state, expired_state, invalid_request)"
//	@Failure		403					{string}	string	"Error page (access_denied)"
//	@Failure		502					{string}	string	"Error page (provider_error, no_accessible_resource)"
//	@Failure		504					{string}	string	"Error page (provider_timeout)"
//	@Router			/v1/connections/{provider}/callback [get]
func (h *AuthorizeHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	provider := r.PathValue("provider")

	query := r.URL.Query()
	state := query.Get("state")
	if state == "" {
		renderCallbackError(w, provider, connectsdk.ErrInvalidRequest.WithDescription("missing state"))
		return
	}

	if reason := query.Get("error"); reason != "" {
		if desc := query.Get("error_description"); desc != "" {
			reason += ": " + desc
		}
		err := h.Manager.FailAuthorization(ctx, state, reason)
		log.Info("callback carried provider error", "code", query.Get("error"))
		renderCallbackError(w, provider, describe(err))
		return
	}

	code := query.Get("code")
	if code == "" {
		renderCallbackError(w, provider, connectsdk.ErrInvalidRequest.WithDescription("missing code"))
		return
	}

	conn, err := h.Manager.CompleteAuthorization(ctx, code, state)
	if err != nil {
		e := describe(err)
		if e.StatusCode >= http.StatusInternalServerError {
			log.Error("callback failed", "err", err, "code", e.Code)
		}
		renderCallbackError(w, provider, e)
		return
	}

	if h.SuccessRedirectURL != "" {
		httpx.NoCache(w)
		http.Redirect(w, r, successRedirect(h.SuccessRedirectURL, conn.Provider), http.StatusFound)
		return
	}
	renderCallbackSuccess(w, conn.Provider)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// successRedirect appends provider=<name> to base, keeping any existing query.
func successRedirect(base, provider string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("provider", provider)
	u.RawQuery = q.Encode()
	return u.String()
}
