package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/richardklafter/PriceYakalytics/internal/logger"
	"github.com/richardklafter/PriceYakalytics/internal/session"
)

const maxTokenResponseBytes = 1 << 20

// ClientConfig is everything the manager needs to talk to the identity
// provider. It is passed in explicitly; nothing is read from the environment.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	IssuerURL    string
	TokenURL     string
	UserInfoURL  string
	SessionTTL   time.Duration
	HTTPClient   *http.Client
}

// Manager performs the authorization code exchange and derives sessions.
type Manager struct {
	cfg        ClientConfig
	httpClient *http.Client
	provider   *oidc.Provider
	now        func() time.Time
}

func NewManager(ctx context.Context, cfg ClientConfig) (*Manager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("auth: client id and secret are required")
	}
	if cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, errors.New("auth: token and userinfo urls are required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	// Endpoints are configured, not discovered: the provider only serves
	// the userinfo call here.
	pc := &oidc.ProviderConfig{
		IssuerURL:   cfg.IssuerURL,
		TokenURL:    cfg.TokenURL,
		UserInfoURL: cfg.UserInfoURL,
	}

	return &Manager{
		cfg:        cfg,
		httpClient: httpClient,
		provider:   pc.NewProvider(oidc.ClientContext(ctx, httpClient)),
		now:        time.Now,
	}, nil
}

type tokenRequest struct {
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	RedirectURI  string `json:"redirect_uri"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
}

// Authorize exchanges code for a bearer token, reads the user's identity
// with it and returns the resulting session.
func (m *Manager) Authorize(ctx context.Context, code, redirectURI string) (*session.Session, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := m.exchange(ctx, code, redirectURI)
	if err != nil {
		logger.Error("token exchange failed", map[string]any{
			"error": err,
		})
		return nil, err
	}

	identity, err := m.userInfo(ctx, token)
	if err != nil {
		logger.Error("userinfo fetch failed", map[string]any{
			"error": err,
		})
		return nil, err
	}

	now := m.now()
	s := &session.Session{
		Subject:     identity.Subject,
		Email:       identity.Email,
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		IssuedAt:    now,
		Expiry:      now.Add(m.cfg.SessionTTL),
		Claims:      identity.Claims,
	}

	logger.Info("login succeeded", map[string]any{
		"subject":         s.Subject,
		"email_present":   s.Email != "",
		"token_expiry":    token.Expiry,
		"session_expires": s.Expiry,
	})

	return s, nil
}

func (m *Manager) exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	body, err := json.Marshal(tokenRequest{
		Code:         code,
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		GrantType:    "authorization_code",
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return nil, &ExchangeError{Stage: "token", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, &ExchangeError{Stage: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Stage: "token", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ExchangeError{
			Stage:      "token",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("token endpoint said %q", bytes.TrimSpace(snippet)),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&tr); err != nil {
		return nil, &ExchangeError{Stage: "token", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &ExchangeError{Stage: "token", StatusCode: resp.StatusCode, Err: errors.New("token response missing access_token")}
	}

	token := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		token.Expiry = m.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return token, nil
}

func (m *Manager) userInfo(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	ctx = oidc.ClientContext(ctx, m.httpClient)

	info, err := m.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, &ExchangeError{Stage: "userinfo", Err: err}
	}
	if info.Subject == "" {
		return nil, &ExchangeError{Stage: "userinfo", Err: errors.New("userinfo missing subject")}
	}

	var claims map[string]any
	if err := info.Claims(&claims); err != nil {
		return nil, &ExchangeError{Stage: "userinfo", Err: fmt.Errorf("decode userinfo claims: %w", err)}
	}

	return &Identity{
		Subject: info.Subject,
		Email:   info.Email,
		Claims:  claims,
	}, nil
}
