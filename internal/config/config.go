package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort       string `envconfig:"APP_PORT" default:"3000"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	SessionSecret string        `envconfig:"SESSION_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"1h"`

	// StateCheck adds an OAuth state parameter bound to a short-lived cookie.
	StateCheck bool `envconfig:"OAUTH_STATE_CHECK" default:"false"`

	OAuth OAuthConfig `envconfig:"ZINC"`

	PartnerAPIURL   string        `envconfig:"PARTNER_API_URL" default:"https://api.zinc.io/v1"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s"`
	SyncConcurrency int           `envconfig:"SYNC_CONCURRENCY" default:"8"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	ReportTTL     time.Duration `envconfig:"REPORT_TTL" default:"5m"`
}

type OAuthConfig struct {
	ClientID     string     `envconfig:"CLIENT_ID"`
	ClientSecret string     `envconfig:"CLIENT_SECRET"`
	IssuerURL    string     `envconfig:"ISSUER_URL" default:"https://login.zinc.io/oidc"`
	TokenURL     string     `envconfig:"TOKEN_URL" default:"https://login.zinc.io/oidc/token"`
	UserInfoURL  string     `envconfig:"USERINFO_URL" default:"https://login.zinc.io/oidc/userinfo"`
	LoginHosts   LoginHosts `envconfig:"LOGIN_HOSTS" default:"Zinc=https://login.zinc.io/oidc/auth,PriceYak=https://login.priceyak.com/oidc/auth"`
	Scopes       []string   `envconfig:"SCOPES" default:"openid"`
}

// LoginHost is one hosted login page sharing the client credentials.
type LoginHost struct {
	Name    string
	AuthURL string
}

// LoginHosts decodes "Name=URL,Name=URL" keeping the configured order.
type LoginHosts []LoginHost

func (h *LoginHosts) Decode(value string) error {
	var out LoginHosts
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, authURL, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		authURL = strings.TrimSpace(authURL)
		if !ok || name == "" || authURL == "" {
			return fmt.Errorf("invalid login host %q, want Name=URL", item)
		}
		out = append(out, LoginHost{Name: name, AuthURL: authURL})
	}
	*h = out
	return nil
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		errs = append(errs, errors.New("ZINC_CLIENT_ID and ZINC_CLIENT_SECRET are required"))
	}

	// No fallback to the client secret: the two secrets serve different purposes.
	switch {
	case c.SessionSecret == "":
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	case c.SessionSecret == c.OAuth.ClientSecret:
		errs = append(errs, errors.New("SESSION_SECRET must differ from ZINC_CLIENT_SECRET"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if len(c.OAuth.LoginHosts) == 0 {
		errs = append(errs, errors.New("ZINC_LOGIN_HOSTS must name at least one login page"))
	}
	for _, h := range c.OAuth.LoginHosts {
		if err := absoluteURL(h.AuthURL); err != nil {
			errs = append(errs, fmt.Errorf("login host %s: %w", h.Name, err))
		}
	}
	for name, raw := range map[string]string{
		"ZINC_TOKEN_URL":    c.OAuth.TokenURL,
		"ZINC_USERINFO_URL": c.OAuth.UserInfoURL,
		"PARTNER_API_URL":   c.PartnerAPIURL,
	} {
		if err := absoluteURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.PublicBaseURL != "" {
		if err := absoluteURL(c.PublicBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL: %w", err))
		}
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.SyncConcurrency < 1 {
		errs = append(errs, errors.New("SYNC_CONCURRENCY must be at least 1"))
	}

	return errors.Join(errs...)
}

func absoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return nil
}
