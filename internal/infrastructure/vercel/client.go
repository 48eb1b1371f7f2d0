package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"envsync/internal/domain/envvar"
)

// DefaultBaseURL is the public Vercel REST endpoint
const DefaultBaseURL = "https://api.vercel.com"

// Client handles Vercel API interactions
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	teamID     string
}

// Option customises client instantiation
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithBaseURL points the client at another API host
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTeamID scopes every request to a team
func WithTeamID(teamID string) Option {
	return func(c *Client) {
		c.teamID = strings.TrimSpace(teamID)
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a new Vercel API client authenticated with token
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: DefaultBaseURL,
		token:   strings.TrimSpace(token),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnvVar represents a project environment variable from the API
type EnvVar struct {
	ID                   string   `json:"id"`
	Key                  string   `json:"key"`
	Value                string   `json:"value,omitempty"`
	Type                 string   `json:"type"`
	Target               Targets  `json:"target,omitempty"`
	CustomEnvironmentIDs []string `json:"customEnvironmentIds,omitempty"`
}

// Targets is the target list of a variable. The API sends either a single
// string or an array.
type Targets []string

func (t *Targets) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*t = nil
		} else {
			*t = Targets{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("decode target: %w", err)
	}
	*t = many
	return nil
}

// CustomEnvironment is a user-defined environment on a project
type CustomEnvironment struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// UpsertEnvRequest is the body of a create-or-update call
type UpsertEnvRequest struct {
	Key                  string   `json:"key"`
	Value                string   `json:"value"`
	Type                 string   `json:"type"`
	Target               []string `json:"target,omitempty"`
	CustomEnvironmentIDs []string `json:"customEnvironmentIds,omitempty"`
}

// EditEnvRequest replaces the targets of an existing variable. Both lists
// are always sent so an emptied one is cleared.
type EditEnvRequest struct {
	Target               []string `json:"target"`
	CustomEnvironmentIDs []string `json:"customEnvironmentIds"`
}

// Variable storage types
const (
	TypeEncrypted = "encrypted"
	TypePlain     = "plain"
)

// APIError represents an error response from the API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vercel API returned status %d", e.Status)
	}
	return fmt.Sprintf("vercel API returned status %d: %s", e.Status, e.Message)
}

// Unwrap maps the response onto the domain classification sentinels so
// callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return envvar.ErrNotAuthenticated
	case e.Status == http.StatusNotFound:
		return envvar.ErrScopeNotFound
	case mentionsInUse(e.Message) || mentionsInUse(e.Code):
		return envvar.ErrInUse
	}
	return nil
}

func mentionsInUse(s string) bool {
	s = strings.ToLower(s)
	for _, marker := range []string{"in use", "in_use", "referenced", "is used by"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// ListEnv fetches every environment variable of a project
func (c *Client) ListEnv(ctx context.Context, project string) ([]EnvVar, error) {
	var payload struct {
		Envs []EnvVar `json:"envs"`
	}
	if err := c.do(ctx, http.MethodGet, projectPath("v9", project, "env"), nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Envs, nil
}

// UpsertEnv creates a variable or overwrites the existing one with the same key and targets
func (c *Client) UpsertEnv(ctx context.Context, project string, req UpsertEnvRequest) error {
	return c.do(ctx, http.MethodPost, projectPath("v10", project, "env"), url.Values{"upsert": {"true"}}, req, nil)
}

// EditEnv replaces the targets of a variable
func (c *Client) EditEnv(ctx context.Context, project, id string, req EditEnvRequest) error {
	if req.Target == nil {
		req.Target = []string{}
	}
	if req.CustomEnvironmentIDs == nil {
		req.CustomEnvironmentIDs = []string{}
	}
	return c.do(ctx, http.MethodPatch, projectPath("v9", project, "env", id), nil, req, nil)
}

// DeleteEnv removes a variable by id
func (c *Client) DeleteEnv(ctx context.Context, project, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath("v9", project, "env", id), nil, nil, nil)
}

// ListCustomEnvironments fetches the custom environments of a project
func (c *Client) ListCustomEnvironments(ctx context.Context, project string) ([]CustomEnvironment, error) {
	var payload struct {
		Environments []CustomEnvironment `json:"environments"`
	}
	if err := c.do(ctx, http.MethodGet, projectPath("v9", project, "custom-environments"), nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Environments, nil
}

func projectPath(version, project string, parts ...string) string {
	segments := []string{"", version, "projects", url.PathEscape(project)}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, v any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.teamID != "" {
		query.Set("teamId", c.teamID)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vercel request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
