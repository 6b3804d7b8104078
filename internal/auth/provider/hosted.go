package provider

import (
	"errors"

	"golang.org/x/oauth2"
)

// Hosted is a login page reached by a plain authorization code redirect.
type Hosted struct {
	name        string
	oauthConfig oauth2.Config
}

// Compile-time interface compliance check.
var _ LoginProvider = (*Hosted)(nil)

func NewHosted(name, authURL, clientID string, scopes []string) (*Hosted, error) {
	if name == "" || authURL == "" || clientID == "" {
		return nil, errors.New("login provider config missing required fields")
	}

	return &Hosted{
		name: name,
		oauthConfig: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{AuthURL: authURL},
			Scopes:   scopes,
		},
	}, nil
}

// Name returns the provider label used by the registry.
func (p *Hosted) Name() string {
	return p.name
}

// AuthCodeURL builds the consent URL. The redirect URI depends on the
// request host, so it is applied per call.
func (p *Hosted) AuthCodeURL(redirectURI string, state string) string {
	cfg := p.oauthConfig
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state)
}
