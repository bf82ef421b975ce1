package provider

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"portfolio/internal/config"
)

// refreshingClient returns an HTTP client that trades the stored refresh
// token for access tokens and renews them when they expire.
func refreshingClient(cfg config.OAuthConfig, tokenURL string, style oauth2.AuthStyle, base *http.Client) *http.Client {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: style,
		},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	client.Timeout = base.Timeout
	return client
}
