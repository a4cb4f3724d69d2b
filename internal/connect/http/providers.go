package http

import (
	"net/http"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/service"
	"github.com/aussiebroadwan/bartab-connect/pkg/connectsdk"
	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
)

// ProvidersHandler godoc
//
//	@Summary		List providers
//	@Description	Lists the providers this deployment has credentials for, with their capabilities
//	@Tags			Providers
//	@Produce		json
//	@Success		200	{object}	connectsdk.ProvidersResponse
//	@Router			/v1/providers [get].
func ProvidersHandler(m *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := m.ProviderInfos()

		resp := connectsdk.ProvidersResponse{Providers: make([]connectsdk.ProviderInfo, 0, len(infos))}
		for _, info := range infos {
			resp.Providers = append(resp.Providers, connectsdk.ProviderInfo{
				Name: info.Name,
				Capabilities: connectsdk.Capabilities{
					SupportsRefresh:           info.Capabilities.SupportsRefresh,
					TokensExpire:              info.Capabilities.TokensExpire,
					RequiresResourceDiscovery: info.Capabilities.RequiresResourceDiscovery,
				},
			})
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
