package oauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg, err := oauth.NewRegistry(
		oauth.NewSlack(oauth.Config{}),
		oauth.NewJira(oauth.Config{}),
		oauth.NewAsana(oauth.Config{}),
	)
	require.NoError(t, err)

	require.Equal(t, []string{"asana", "jira", "slack"}, reg.Names())

	p, err := reg.Lookup("jira")
	require.NoError(t, err)
	_, ok := p.(oauth.Discoverer)
	require.True(t, ok)

	_, err = reg.Lookup("dropbox")
	require.ErrorIs(t, err, oauth.ErrUnknownProvider)

	require.Error(t, reg.Register(oauth.NewSlack(oauth.Config{})), "duplicate name")

	infos := reg.Infos()
	require.Len(t, infos, 3)
	require.Equal(t, "jira", infos[1].Name)
	require.True(t, infos[1].Capabilities.RequiresResourceDiscovery)
}
