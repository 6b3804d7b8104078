package auth

// Identity represents the claims the identity provider returned for the
// bearer token. It contains facts only, no decisions.
type Identity struct {
	Subject string         // provider-scoped stable user identifier (sub)
	Email   string         // may be empty, Zinc does not always return it
	Claims  map[string]any // raw userinfo claims
}
