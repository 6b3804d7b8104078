package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const maxResponseBytes = 4 << 20

// Store is an account as the partner API lists it.
type Store struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`
	SellerName  string `json:"seller_name"`
}

type storesResponse struct {
	Stores []Store `json:"stores"`
}

type templateBody struct {
	ListingTemplate string `json:"listing_template"`
}

// StatusError is a non-2xx answer from the partner API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("partner: %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the partner REST API on behalf of a logged in user.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("partner: base url is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ListStores returns the stores owned by subject.
func (c *Client) ListStores(ctx context.Context, token *oauth2.Token, subject string) ([]Store, error) {
	var out storesResponse
	path := "/user/" + url.PathEscape(subject) + "/stores"
	if err := c.do(ctx, token, "list stores", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Stores, nil
}

// GetTemplate returns the listing template of one account.
func (c *Client) GetTemplate(ctx context.Context, token *oauth2.Token, accountID string) (string, error) {
	var out templateBody
	if err := c.do(ctx, token, "get template", http.MethodGet, templatePath(accountID), nil, &out); err != nil {
		return "", err
	}
	return out.ListingTemplate, nil
}

// PutTemplate replaces the listing template of one account in a single call.
func (c *Client) PutTemplate(ctx context.Context, token *oauth2.Token, accountID, template string) error {
	return c.do(ctx, token, "put template", http.MethodPost, templatePath(accountID), templateBody{ListingTemplate: template}, nil)
}

func templatePath(accountID string) string {
	return "/account/" + url.PathEscape(accountID) + "/requests/template"
}

func (c *Client) do(
	ctx context.Context,
	token *oauth2.Token,
	op string,
	method string,
	path string,
	in any,
	out any,
) error {

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("partner: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("partner: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("partner: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("partner: %s: decode response: %w", op, err)
	}
	return nil
}
