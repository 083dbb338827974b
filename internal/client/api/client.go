// Package api is the desk client's HTTP wrapper around the BoardPack REST
// surface. It keeps the rotating token pair and transparently retries a
// request once after refreshing an expired access token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mpodriezov/boardpack/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
}

func (c *Client) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// IsLoggedIn reports whether the client holds an access token.
func (c *Client) IsLoggedIn() bool {
	access, _ := c.tokens()
	return access != ""
}

// Login authenticates and stores the token pair for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp tokenPair
	err := c.doJSON(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp.User, nil
}

// Register creates an applicant or broker account.
func (c *Client) Register(ctx context.Context, email, fullName, role, password string) (*User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPost, "/auth/register",
		map[string]string{"email": email, "full_name": fullName, "role": role, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh rotates the token pair using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return common.ErrorUnauthorized
	}

	var resp tokenPair
	err := c.doJSON(ctx, http.MethodPost, "/auth/refresh",
		map[string]string{"refresh_token": refresh}, &resp)
	if err != nil {
		return err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// Logout revokes the refresh token and drops the stored pair.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return nil
	}
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout",
		map[string]string{"refresh_token": refresh}, nil)
	c.setTokens("", "")
	return err
}

// Ping probes server reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.doJSON(ctx, http.MethodGet, "/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) GetApplication(ctx context.Context, applicationID string) (*Application, error) {
	var app Application
	if err := c.doJSON(ctx, http.MethodGet, "/applications/"+applicationID, nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateDocumentIntent registers an upload and returns the presigned PUT URL.
func (c *Client) CreateDocumentIntent(ctx context.Context, applicationID string, in IntentRequest) (*DocumentIntent, error) {
	var intent DocumentIntent
	err := c.doJSON(ctx, http.MethodPost, "/applications/"+applicationID+"/documents", in, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// CompleteDocument confirms that the presigned PUT finished.
func (c *Client) CompleteDocument(ctx context.Context, documentID string) (*Document, error) {
	var doc Document
	err := c.doJSON(ctx, http.MethodPost, "/documents/"+documentID+"/complete", nil, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) ListDocuments(ctx context.Context, applicationID string) ([]Document, error) {
	var docs []Document
	if err := c.doJSON(ctx, http.MethodGet, "/applications/"+applicationID+"/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// DocumentURL fetches a presigned GET URL with its expiry. Satisfies the
// urlcache.Fetcher interface.
func (c *Client) DocumentURL(ctx context.Context, documentID string) (string, time.Time, error) {
	var resp struct {
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/documents/"+documentID+"/url", nil, &resp); err != nil {
		return "", time.Time{}, err
	}
	return resp.URL, resp.ExpiresAt, nil
}

// doJSON performs one API call: marshals body, attaches the bearer token, and
// decodes the answer into out (unless nil). A 401 carrying the server's
// "token expired" marker triggers one refresh followed by one retry.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	status, data, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && isTokenExpired(data) {
		if err := c.Refresh(ctx); err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		return mapStatus(status, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.tokens(); access != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func isTokenExpired(body []byte) bool {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	return e.Error == common.ErrTokenExpired.Error()
}

// mapStatus converts HTTP statuses back into the shared sentinels so callers
// can use errors.Is on both sides of the wire.
func mapStatus(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &e)

	switch status {
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusConflict:
		return common.ErrorConflict
	case http.StatusRequestEntityTooLarge:
		return common.ErrUploadTooLarge
	default:
		if e.Error != "" {
			return fmt.Errorf("server error (%d): %s", status, e.Error)
		}
		return fmt.Errorf("server error (%d)", status)
	}
}
