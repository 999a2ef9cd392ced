// Package apiclient is the HTTP client the back-office console uses to talk
// to the portal API and the privileged delete function.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/console"
	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

const (
	defaultAPIPrefix    = "/api/v1"
	deleteUserFunction  = "/functions/v1/delete-user"
	requestIDHeader     = "X-Request-ID"
	errCodeTransport    = "TRANSPORT_ERROR"
	errCodeUnexpected   = "UNEXPECTED_RESPONSE"
	errCodeFunctionFail = "FUNCTION_ERROR"
)

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

// Client calls the portal API with a bearer token.
type Client struct {
	baseURL    *url.URL
	apiPrefix  string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithAPIPrefix overrides the "/api/v1" route prefix.
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) { c.apiPrefix = "/" + strings.Trim(prefix, "/") }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a client for baseURL.
func New(baseURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    u,
		apiPrefix:  defaultAPIPrefix,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
		token:      strings.TrimSpace(token),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken swaps the bearer token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and returns the raw status and body. Transport
// failures become TRANSPORT_ERROR.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, errCodeTransport, http.StatusBadGateway, "gagal menghubungi server")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, appErrors.Wrap(err, errCodeTransport, http.StatusBadGateway, "gagal membaca respons server")
	}
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("latency", time.Since(start)),
	)
	return resp.StatusCode, respBody, nil
}

// call performs an API request and decodes the envelope data into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload, out any) (*models.Pagination, error) {
	status, body, err := c.do(ctx, method, c.apiPrefix+path, query, payload)
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if status >= 200 && status < 300 {
				return nil, appErrors.Wrap(err, errCodeUnexpected, http.StatusBadGateway, "respons server tidak valid")
			}
			env = envelope{}
		}
	}

	if status < 200 || status >= 300 {
		if env.Error != nil {
			if env.Error.Status == 0 {
				env.Error.Status = status
			}
			return nil, env.Error
		}
		return nil, appErrors.New(errCodeUnexpected, status, http.StatusText(status))
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, appErrors.Wrap(err, errCodeUnexpected, http.StatusBadGateway, "respons server tidak valid")
		}
	}
	return env.Pagination, nil
}

func totalOf(p *models.Pagination, fallback int) int {
	if p == nil {
		return fallback
	}
	return p.TotalCount
}

// ListAccounts fetches one page of profiles.
func (c *Client) ListAccounts(ctx context.Context, query url.Values) ([]models.Profile, int, error) {
	var items []models.Profile
	pagination, err := c.call(ctx, http.MethodGet, "/accounts", query, nil, &items)
	if err != nil {
		return nil, 0, err
	}
	return items, totalOf(pagination, len(items)), nil
}

// GetAccount fetches one profile by id.
func (c *Client) GetAccount(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if _, err := c.call(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateRole changes one account's role.
func (c *Client) UpdateRole(ctx context.Context, id string, role models.UserRole) (*models.Profile, error) {
	var profile models.Profile
	payload := dto.UpdateRoleRequest{Role: role}
	if _, err := c.call(ctx, http.MethodPatch, "/accounts/"+url.PathEscape(id)+"/role", nil, payload, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateMyProfile saves the caller's own profile fields.
func (c *Client) UpdateMyProfile(ctx context.Context, req dto.UpdateProfileRequest) (*models.Profile, error) {
	var profile models.Profile
	if _, err := c.call(ctx, http.MethodPut, "/me/profile", nil, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CountAccounts returns one KPI counter. role "all" counts every account.
func (c *Client) CountAccounts(ctx context.Context, role string) (int, error) {
	var res dto.AccountCountResponse
	query := url.Values{}
	if role != "" && role != models.RoleFilterAll {
		query.Set("role", role)
	}
	if _, err := c.call(ctx, http.MethodGet, "/accounts/count", query, nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

// DeleteUser invokes the privileged delete function. A response with ok=false
// is returned as an error carrying the function's message.
func (c *Client) DeleteUser(ctx context.Context, id string) (*models.DeleteUserResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, deleteUserFunction, nil, map[string]string{"userId": id})
	if err != nil {
		return nil, err
	}

	var res dto.DeleteUserResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, appErrors.Wrap(err, errCodeFunctionFail, status, strings.TrimSpace(string(body)))
	}
	if !res.OK || status < 200 || status >= 300 {
		return nil, appErrors.New(errCodeFunctionFail, status, res.Error)
	}
	outcome := res.Outcome
	if outcome == "" {
		outcome = models.DeleteOutcomeDeleted
	}
	return &models.DeleteUserResult{UserID: id, Outcome: outcome, Warning: res.Warning}, nil
}

// ListArticles fetches one page of the staff article list.
func (c *Client) ListArticles(ctx context.Context, query url.Values) ([]models.Article, int, error) {
	var items []models.Article
	pagination, err := c.call(ctx, http.MethodGet, "/admin/articles", query, nil, &items)
	if err != nil {
		return nil, 0, err
	}
	return items, totalOf(pagination, len(items)), nil
}

// ListInfo fetches one page of the staff info list.
func (c *Client) ListInfo(ctx context.Context, query url.Values) ([]models.InfoItem, int, error) {
	var items []models.InfoItem
	pagination, err := c.call(ctx, http.MethodGet, "/admin/info", query, nil, &items)
	if err != nil {
		return nil, 0, err
	}
	return items, totalOf(pagination, len(items)), nil
}

// ListMaterials fetches one page of the staff material list.
func (c *Client) ListMaterials(ctx context.Context, query url.Values) ([]models.Material, bool, error) {
	var page dto.MaterialPage
	if _, err := c.call(ctx, http.MethodGet, "/admin/materials", query, nil, &page); err != nil {
		return nil, false, err
	}
	return page.Items, page.HasMore, nil
}

// DeleteContent removes an article, info item or material.
func (c *Client) DeleteContent(ctx context.Context, kind console.ViewKind, id string) (*dto.DeleteContentResponse, error) {
	spec, ok := console.Spec(kind)
	if !ok || kind == console.ViewAccounts {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported content kind")
	}
	var res dto.DeleteContentResponse
	if _, err := c.call(ctx, http.MethodDelete, "/admin/"+spec.Name+"/"+url.PathEscape(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

var (
	_ console.AccountBackend = (*Client)(nil)
	_ console.ContentBackend = (*Client)(nil)
)
