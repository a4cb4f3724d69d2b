package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
)

const accessibleResourcesURL = "https://api.atlassian.com/oauth/token/accessible-resources"

// JiraProvider is the Atlassian 3LO strategy. Its tokens are bound to a site
// (cloud id) chosen from the accessible resources after the exchange.
type JiraProvider struct {
	*strategy
	resourcesURL string
}

var (
	_ Provider   = (*JiraProvider)(nil)
	_ Discoverer = (*JiraProvider)(nil)
)

func NewJira(cfg Config) *JiraProvider {
	s := newStrategy(Jira,
		domain.Capabilities{SupportsRefresh: true, TokensExpire: true, RequiresResourceDiscovery: true},
		cfg,
		endpoints{auth: "https://auth.atlassian.com/authorize", token: "https://auth.atlassian.com/oauth/token"},
		[]string{"read:jira-work", "read:jira-user", "offline_access"},
	)
	s.authParams = []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("audience", "api.atlassian.com"),
		oauth2.ApprovalForce,
	}

	resources := cfg.ResourcesURL
	if resources == "" {
		resources = accessibleResourcesURL
	}
	return &JiraProvider{strategy: s, resourcesURL: resources}
}

// DiscoverResources lists the sites the token can reach, in the order
// Atlassian returns them.
func (j *JiraProvider) DiscoverResources(ctx context.Context, accessToken string) ([]domain.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.resourcesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build discovery request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, classify(j.name, "discover", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, classify(j.name, "discover", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{
			Provider:   j.name,
			Op:         "discover",
			StatusCode: resp.StatusCode,
			Payload:    truncate(body),
			Transient:  transient(resp.StatusCode, ""),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var resources []domain.Resource
	if err := json.Unmarshal(body, &resources); err != nil {
		return nil, &ExchangeError{
			Provider:   j.name,
			Op:         "discover",
			StatusCode: resp.StatusCode,
			Payload:    truncate(body),
			Err:        fmt.Errorf("decode accessible resources: %w", err),
		}
	}
	return resources, nil
}
