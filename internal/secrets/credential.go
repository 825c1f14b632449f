package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credential authorizes a single mailbox session. It is never persisted.
type Credential struct {
	Config *oauth2.Config
	Token  *oauth2.Token
}

// TokenSource refreshes the access token from the refresh token as needed.
func (c *Credential) TokenSource(ctx context.Context) oauth2.TokenSource {
	return c.Config.TokenSource(ctx, c.Token)
}

// authorizedUser is the "authorized user info" layout stored in the secret.
type authorizedUser struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	ClientID     string          `json:"client_id"`
	ClientSecret string          `json:"client_secret"`
	TokenURI     string          `json:"token_uri"`
	Scopes       json.RawMessage `json:"scopes"`
	Expiry       string          `json:"expiry"`
}

// ParseCredential decodes a JSON secret payload into a Credential.
// refresh_token, client_id and client_secret are required.
func ParseCredential(payload []byte) (*Credential, error) {
	var info authorizedUser
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("decode secret payload: %w", err)
	}

	var missing []string
	if info.RefreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if info.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if info.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("secret payload missing %s", strings.Join(missing, ", "))
	}

	scopes, err := parseScopes(info.Scopes)
	if err != nil {
		return nil, err
	}

	endpoint := google.Endpoint
	if info.TokenURI != "" {
		endpoint.TokenURL = info.TokenURI
	}

	token := &oauth2.Token{
		AccessToken:  info.Token,
		RefreshToken: info.RefreshToken,
		TokenType:    "Bearer",
	}
	if info.Expiry != "" {
		expiry, err := parseExpiry(info.Expiry)
		if err != nil {
			return nil, err
		}
		token.Expiry = expiry
	}

	return &Credential{
		Config: &oauth2.Config{
			ClientID:     info.ClientID,
			ClientSecret: info.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		Token: token,
	}, nil
}

// parseScopes accepts a JSON list or a space separated string.
func parseScopes(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return nil, errors.New("secret payload scopes must be a list or a string")
	}
	return strings.Fields(joined), nil
}

// parseExpiry accepts RFC 3339 and the zone-less form some token writers emit.
func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token expiry %q: %w", s, err)
	}
	return t.UTC(), nil
}
