package oauth

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
)

const (
	Microsoft = "microsoft"
	Slack     = "slack"
	Jira      = "jira"
	Asana     = "asana"
	Google    = "google"
	GitHub    = "github"
)

var (
	expiringWithRefresh = domain.Capabilities{SupportsRefresh: true, TokensExpire: true}
	longLived           = domain.Capabilities{}
)

// NewMicrosoft builds the Microsoft identity platform (v2.0) strategy.
func NewMicrosoft(cfg Config) Provider {
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}
	base := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0", tenant)

	return newStrategy(Microsoft, expiringWithRefresh, cfg,
		endpoints{auth: base + "/authorize", token: base + "/token"},
		[]string{"offline_access", "User.Read", "Calendars.Read"},
	)
}

// NewSlack builds the Slack v2 strategy. Slack bot tokens do not expire and
// scopes travel comma separated in both directions.
func NewSlack(cfg Config) Provider {
	s := newStrategy(Slack, longLived, cfg,
		endpoints{auth: "https://slack.com/oauth/v2/authorize", token: "https://slack.com/api/oauth.v2.access"},
		[]string{"users:read", "channels:read"},
	)
	s.scopeSep = ","
	s.authParams = []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("scope", strings.Join(s.oauth.Scopes, ",")),
	}
	s.extras = func(tok *oauth2.Token, md map[string]string) {
		if team := extraObject(tok, "team"); team != nil {
			setString(md, "team_id", team["id"])
			setString(md, "team_name", team["name"])
		}
		if user := extraObject(tok, "authed_user"); user != nil {
			setString(md, "authed_user_id", user["id"])
		}
		setString(md, "bot_user_id", tok.Extra("bot_user_id"))
	}
	return s
}

// NewAsana builds the Asana strategy.
func NewAsana(cfg Config) Provider {
	s := newStrategy(Asana, expiringWithRefresh, cfg,
		endpoints{auth: "https://app.asana.com/-/oauth_authorize", token: "https://app.asana.com/-/oauth_token"},
		[]string{"default"},
	)
	s.extras = func(tok *oauth2.Token, md map[string]string) {
		if data := extraObject(tok, "data"); data != nil {
			setString(md, "user_gid", data["gid"])
			setString(md, "user_name", data["name"])
		}
	}
	return s
}

// NewGoogle builds the Google strategy. Offline access with forced consent
// is requested so a refresh token is issued on every grant.
func NewGoogle(cfg Config) Provider {
	s := newStrategy(Google, expiringWithRefresh, cfg,
		endpoints{auth: "https://accounts.google.com/o/oauth2/v2/auth", token: "https://oauth2.googleapis.com/token"},
		[]string{"openid", "email", "https://www.googleapis.com/auth/calendar.readonly"},
	)
	s.authParams = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}
	return s
}

// NewGitHub builds the GitHub OAuth app strategy. GitHub tokens do not
// expire; when the response carries no scope the requested ones are kept.
func NewGitHub(cfg Config) Provider {
	s := newStrategy(GitHub, longLived, cfg,
		endpoints{auth: "https://github.com/login/oauth/authorize", token: "https://github.com/login/oauth/access_token"},
		[]string{"read:user", "read:org"},
	)
	s.scopeSep = ","
	s.fallbackScopes = true
	return s
}

func setString(md map[string]string, key string, v any) {
	if s, ok := v.(string); ok && s != "" {
		md[key] = s
	}
}
