package provider

// LoginProvider is a hosted login page of the identity provider. Login
// providers only build the consent redirect; the code they hand back is
// exchanged by auth.Manager against the shared token endpoint.
type LoginProvider interface {
	// Name returns the label shown on the login page (e.g. "Zinc").
	Name() string

	// AuthCodeURL returns the consent URL for redirectURI. An empty state
	// is left out of the URL.
	AuthCodeURL(redirectURI string, state string) string
}
