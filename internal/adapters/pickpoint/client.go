// Package pickpoint is the HTTP client for the remote PickPoint API. Every
// call except login carries the caller's bearer credential; non-2xx answers
// are returned as *domain.APIError.
package pickpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

var _ ports.PickPointAPI = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, cb *gobreaker.CircuitBreaker) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}

// request describes one API call. endpoint is the metrics label.
type request struct {
	endpoint    string
	method      string
	path        string
	token       string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) jsonRequest(endpoint, method, path, token string, payload any) (request, error) {
	req := request{endpoint: endpoint, method: method, path: path, token: token}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("encode %s body: %w", endpoint, err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// do sends r and decodes a successful JSON body into out (which may be
// nil). Only transport failures and 5xx answers count against the breaker;
// 4xx answers are the caller's problem, not the API's.
func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.endpoint, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	status := 0
	defer func() {
		upstreamDuration.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
		upstreamRequests.WithLabelValues(r.endpoint, outcomeOf(status, err)).Inc()
	}()

	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			return nil, errorFromResponse(resp)
		}
		return resp, nil
	})
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.Status
			return err
		}
		log.Printf("pickpoint %s %s: %v", r.method, r.path, err)
		err = &domain.APIError{Status: http.StatusBadGateway, Kind: domain.ErrUnavailable}
		return err
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode >= http.StatusBadRequest {
		err = errorFromResponse(resp)
		return err
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("decode %s response: %w", r.endpoint, err)
		return err
	}
	err = nil
	return nil
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &domain.APIError{Status: resp.StatusCode, Kind: kindOf(resp.StatusCode)}
	var payload struct {
		Message string `json:"message"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}

func kindOf(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case status == http.StatusForbidden:
		return domain.ErrForbidden
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return domain.ErrConflict
	case status >= http.StatusInternalServerError:
		return domain.ErrUnavailable
	}
	return domain.ErrValidation
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

// Auth

type loginResponse struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

func (c *Client) Login(ctx context.Context, username, password string) (string, domain.Identity, error) {
	req, err := c.jsonRequest("auth_login", http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", domain.Identity{}, err
	}
	var resp loginResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return "", domain.Identity{}, err
	}
	if resp.Token == "" {
		return "", domain.Identity{}, errors.New("login response carried no token")
	}
	return resp.Token, resp.User, nil
}

func (c *Client) Me(ctx context.Context, token string) (domain.Identity, error) {
	var resp struct {
		User domain.Identity `json:"user"`
	}
	req, _ := c.jsonRequest("auth_me", http.MethodGet, "/auth/me", token, nil)
	if err := c.do(ctx, req, &resp); err != nil {
		return domain.Identity{}, err
	}
	return resp.User, nil
}

// Locations

func (c *Client) ListLocations(ctx context.Context, token, search string) ([]domain.Location, error) {
	req, _ := c.jsonRequest("locations_list", http.MethodGet, "/locations", token, nil)
	if search = strings.TrimSpace(search); search != "" {
		req.query = url.Values{"search": {search}}
	}
	var locations []domain.Location
	if err := c.do(ctx, req, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (c *Client) CreateLocation(ctx context.Context, token string, in domain.LocationInput) error {
	req, err := c.jsonRequest("locations_create", http.MethodPost, "/locations", token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) UpdateLocation(ctx context.Context, token string, id int64, in domain.LocationInput) error {
	req, err := c.jsonRequest("locations_update", http.MethodPut, idPath("/locations/%d", id), token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) DeleteLocation(ctx context.Context, token string, id int64) error {
	req, _ := c.jsonRequest("locations_delete", http.MethodDelete, idPath("/locations/%d", id), token, nil)
	return c.do(ctx, req, nil)
}

func (c *Client) ListLocationPrices(ctx context.Context, token string) ([]domain.Location, error) {
	req, _ := c.jsonRequest("locations_prices", http.MethodGet, "/locations/prices", token, nil)
	var locations []domain.Location
	if err := c.do(ctx, req, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (c *Client) UpdateLocationPrices(ctx context.Context, token string, id int64, update domain.PricingUpdate) error {
	req, err := c.jsonRequest("locations_prices_update", http.MethodPut, idPath("/locations/%d/prices", id), token, update)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
