/*
Package connectsdk is a client for the BarTab connect service, which holds
users' OAuth2 connections to external providers (Microsoft, Slack, Jira,
Asana, Google, GitHub).

# Client

A Client talks to one connect deployment. Public endpoints need no
credentials; everything under /v1/connections needs a bearer token for the
user being acted on, supplied through an oauth2.TokenSource:

	client := connectsdk.NewClient("https://connect.example.com",
		connectsdk.StaticToken(userAccessToken))

	status, err := client.Status(ctx)
	for provider, s := range status.Providers {
		fmt.Println(provider, s.Connected, s.Expired)
	}

# Provider tokens

Services that call a provider API on a user's behalf never store provider
tokens themselves. They ask connect for a currently valid one, which requires
the connections:token scope:

	tok, err := client.Token(ctx, "jira")
	cloudID := tok.Metadata["cloud_id"]

ProviderTokenSource wraps the same call as an oauth2.TokenSource, so it can be
handed to anything that builds an authenticated *http.Client:

	httpClient := oauth2.NewClient(ctx, client.ProviderTokenSource(ctx, "google"))

# Errors

Failed calls return *APIError. The predefined values can be matched with
errors.Is:

	if errors.Is(err, connectsdk.ErrReauthorizationRequired) {
		// send the user through the authorize flow again
	}
*/
package connectsdk
