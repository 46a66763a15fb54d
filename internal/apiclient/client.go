// Package apiclient talks to the missing-persons platform REST API. All
// business data lives there; every call returns validated model types.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/afalagi/internal/model"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client is a platform API client. The zero value is not usable; create one with New.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTransport sets the round tripper, e.g. one instrumented with metrics.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// New returns a client for the API rooted at baseURL, e.g. "http://localhost:5000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that authenticates as the holder of token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type requestIDKey struct{}

// ContextWithRequestID attaches the id sent as X-Request-ID on outgoing calls.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// envelope is the API's response wrapper.
type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Sightings json.RawMessage `json:"sightings"`
	Total     int             `json:"total"`
	Token     string          `json:"token"`
	User      json.RawMessage `json:"user"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", id)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

func decodeCase(data json.RawMessage) (*model.Case, error) {
	var c model.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding case: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}
	return &c, nil
}

// Login exchanges credentials for an API token and the account it belongs to.
func (c *Client) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", nil, err
	}
	if env.Token == "" {
		return "", nil, fmt.Errorf("login response carried no token")
	}

	var u model.User
	if err := json.Unmarshal(env.User, &u); err != nil {
		return "", nil, fmt.Errorf("decoding user: %w", err)
	}
	if err := u.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid user: %w", err)
	}
	return env.Token, &u, nil
}

// CaseList is one page of cases plus the total count reported by the API.
type CaseList struct {
	Cases []model.Case
	Total int
}

// ListCases returns cases matching f, newest first as ordered by the API.
func (c *Client) ListCases(ctx context.Context, f model.CaseFilter) (*CaseList, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/missing-persons"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return nil, fmt.Errorf("decoding cases: %w", err)
		}
	}
	list := &CaseList{Cases: make([]model.Case, 0, len(raw)), Total: env.Total}
	for _, r := range raw {
		cs, err := decodeCase(r)
		if err != nil {
			return nil, err
		}
		list.Cases = append(list.Cases, *cs)
	}
	if list.Total < len(list.Cases) {
		list.Total = len(list.Cases)
	}
	return list, nil
}

// GetCase loads a case and its sightings. A missing case yields an error
// matching model.ErrNotFound.
func (c *Client) GetCase(ctx context.Context, id string) (*model.CaseDetail, error) {
	env, err := c.do(ctx, http.MethodGet, "/missing-persons/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("case %s: %w", id, model.ErrNotFound)
	}

	cs, err := decodeCase(env.Data)
	if err != nil {
		return nil, err
	}
	detail := &model.CaseDetail{Case: *cs}
	if len(env.Sightings) > 0 && string(env.Sightings) != "null" {
		if err := json.Unmarshal(env.Sightings, &detail.Sightings); err != nil {
			return nil, fmt.Errorf("decoding sightings: %w", err)
		}
	}
	if err := detail.Validate(); err != nil {
		return nil, fmt.Errorf("invalid case detail: %w", err)
	}
	return detail, nil
}

// CreateCase files a new missing-person report.
func (c *Client) CreateCase(ctx context.Context, in model.CaseInput) (*model.Case, error) {
	env, err := c.do(ctx, http.MethodPost, "/missing-persons", in)
	if err != nil {
		return nil, err
	}
	return decodeCase(env.Data)
}

// UpdateCase replaces the descriptive blocks of a case.
func (c *Client) UpdateCase(ctx context.Context, id string, in model.CaseInput) (*model.Case, error) {
	env, err := c.do(ctx, http.MethodPut, "/missing-persons/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeCase(env.Data)
}

// VerifyCase sets isVerified on a case.
func (c *Client) VerifyCase(ctx context.Context, id string) (*model.Case, error) {
	env, err := c.do(ctx, http.MethodPut, "/missing-persons/"+url.PathEscape(id), map[string]bool{"isVerified": true})
	if err != nil {
		return nil, err
	}
	return decodeCase(env.Data)
}

// MarkFound closes a case as found.
func (c *Client) MarkFound(ctx context.Context, id string, report model.FoundReport) (*model.Case, error) {
	env, err := c.do(ctx, http.MethodPut, "/missing-persons/"+url.PathEscape(id)+"/found", report)
	if err != nil {
		return nil, err
	}
	return decodeCase(env.Data)
}

// DeleteCase removes a case.
func (c *Client) DeleteCase(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/missing-persons/"+url.PathEscape(id), nil)
	return err
}

// CreateSighting files a sighting. The API assigns its id and initial status.
// Once the API has accepted the sighting the call succeeds, even when the
// echoed record is incomplete; the returned sighting then holds whatever
// could be decoded.
func (c *Client) CreateSighting(ctx context.Context, s model.NewSighting) (*model.Sighting, error) {
	env, err := c.do(ctx, http.MethodPost, "/sightings", s)
	if err != nil {
		return nil, err
	}
	var created model.Sighting
	if err := json.Unmarshal(env.Data, &created); err != nil {
		slog.Warn("sighting accepted with an unreadable reply", "case", s.MissingPerson, "error", err)
		return &created, nil
	}
	if err := created.Validate(); err != nil {
		slog.Warn("sighting accepted with an incomplete reply", "case", s.MissingPerson, "sighting", created.ID, "error", err)
	}
	return &created, nil
}
