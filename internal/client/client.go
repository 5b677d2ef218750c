// Package client is a Go client for the Triple API that keeps the caller
// signed in across restarts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/domain/user"
)

var ErrNotAuthenticated = errors.New("not signed in")

// FieldError is one entry of a 400 {"errors": [...]} body.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// APIError is any non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("triple api: %d %s", e.Status, e.Message)
	}

	if len(e.Fields) > 0 {
		msgs := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			msgs = append(msgs, f.Message)
		}
		return fmt.Sprintf("triple api: %d %s", e.Status, strings.Join(msgs, "; "))
	}

	return fmt.Sprintf("triple api: %d", e.Status)
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func IsNotFound(err error) bool     { return IsStatus(err, http.StatusNotFound) }
func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client attaches the current session's bearer token to every request.
// It is safe for concurrent use.
type Client struct {
	base  string
	http  *http.Client
	store SessionStore

	mu      sync.RWMutex
	session *Session
}

func New(baseURL string, store SessionStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryStore()
	}

	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  newHTTPClient(),
		store: store,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Session returns the active session, if any.
func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Client) Authenticated() bool {
	_, ok := c.Session()
	return ok
}

type authResponse struct {
	Token string      `json:"token"`
	User  user.Public `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password, name string) (user.Public, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &resp)
	if err != nil {
		return user.Public{}, err
	}

	return resp.User, c.setSession(Session{Token: resp.Token, User: resp.User})
}

func (c *Client) Login(ctx context.Context, email, password string) (user.Public, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return user.Public{}, err
	}

	return resp.User, c.setSession(Session{Token: resp.Token, User: resp.User})
}

// Logout forgets the session locally. Tokens are stateless, so there is
// nothing to tell the server.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	return c.store.Clear()
}

// Restore loads a stored session and checks it against /api/auth/me. A token
// the server rejects, or whose user is gone, is cleared and reported as
// ok=false without an error. Transport failures keep the stored token.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	s, ok, err := c.store.Load()
	if err != nil || !ok {
		return false, err
	}

	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()

	u, err := c.Me(ctx)
	if err != nil {
		if IsUnauthorized(err) || IsNotFound(err) {
			return false, c.Logout()
		}

		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
		return false, err
	}

	s.User = user.Public{ID: u.ID, Email: u.Email, Name: u.Name}
	return true, c.setSession(s)
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	if !c.Authenticated() {
		return user.User{}, ErrNotAuthenticated
	}

	var resp struct {
		User user.User `json:"user"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return user.User{}, err
	}

	return resp.User, nil
}

// ListOptions zero values mean "server default".
type ListOptions struct {
	Limit    int
	Offset   int
	Category string
}

func (o ListOptions) query() string {
	v := url.Values{}

	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Category != "" {
		v.Set("category", o.Category)
	}

	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) Destinations(ctx context.Context, opts ListOptions) ([]destination.Destination, error) {
	var resp struct {
		Destinations []destination.Destination `json:"destinations"`
	}

	err := c.do(ctx, http.MethodGet, "/api/destinations"+opts.query(), nil, &resp)
	return resp.Destinations, err
}

func (c *Client) SearchDestinations(ctx context.Context, q string) ([]destination.Destination, error) {
	var resp struct {
		Destinations []destination.Destination `json:"destinations"`
	}

	err := c.do(ctx, http.MethodGet, "/api/destinations/search?q="+url.QueryEscape(q), nil, &resp)
	return resp.Destinations, err
}

func (c *Client) Destination(ctx context.Context, id string) (destination.Destination, error) {
	var resp struct {
		Destination destination.Destination `json:"destination"`
	}

	err := c.do(ctx, http.MethodGet, "/api/destinations/"+url.PathEscape(id), nil, &resp)
	return resp.Destination, err
}

func (c *Client) Trips(ctx context.Context) ([]trip.Trip, error) {
	var resp struct {
		Trips []trip.Trip `json:"trips"`
	}

	err := c.do(ctx, http.MethodGet, "/api/trips", nil, &resp)
	return resp.Trips, err
}

func (c *Client) Trip(ctx context.Context, id string) (trip.Trip, error) {
	var resp struct {
		Trip trip.Trip `json:"trip"`
	}

	err := c.do(ctx, http.MethodGet, "/api/trips/"+url.PathEscape(id), nil, &resp)
	return resp.Trip, err
}

func (c *Client) CreateTrip(ctx context.Context, req trip.CreateTripRequest) (trip.Trip, error) {
	var resp struct {
		Trip trip.Trip `json:"trip"`
	}

	err := c.do(ctx, http.MethodPost, "/api/trips", req, &resp)
	return resp.Trip, err
}

// TripUpdate names the fields to change. Nil pointers are left out of the
// request; ClearDescription sends an explicit null.
type TripUpdate struct {
	Title            *string
	Description      *string
	ClearDescription bool
	StartDate        *string
	EndDate          *string
	Destinations     *[]string
}

func (u TripUpdate) body() map[string]any {
	b := map[string]any{}

	if u.Title != nil {
		b["title"] = *u.Title
	}
	if u.ClearDescription {
		b["description"] = nil
	} else if u.Description != nil {
		b["description"] = *u.Description
	}
	if u.StartDate != nil {
		b["start_date"] = *u.StartDate
	}
	if u.EndDate != nil {
		b["end_date"] = *u.EndDate
	}
	if u.Destinations != nil {
		b["destinations"] = *u.Destinations
	}

	return b
}

func (c *Client) UpdateTrip(ctx context.Context, id string, u TripUpdate) (trip.Trip, error) {
	var resp struct {
		Trip trip.Trip `json:"trip"`
	}

	err := c.do(ctx, http.MethodPut, "/api/trips/"+url.PathEscape(id), u.body(), &resp)
	return resp.Trip, err
}

func (c *Client) DeleteTrip(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/trips/"+url.PathEscape(id), nil, nil)
}

// TripDestinations fetches the trip and then each of its destinations in
// order. Ids that no longer resolve are skipped; trips do not pin the
// catalog.
func (c *Client) TripDestinations(ctx context.Context, tripID string) ([]destination.Destination, error) {
	t, err := c.Trip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	out := make([]destination.Destination, 0, len(t.Destinations))

	for _, id := range t.Destinations {
		d, err := c.Destination(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("destination %s: %w", id, err)
		}
		out = append(out, d)
	}

	return out, nil
}

func (c *Client) setSession(s Session) error {
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()

	return c.store.Save(s)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if s, ok := c.Session(); ok {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}

		var eb struct {
			Error  string       `json:"error"`
			Errors []FieldError `json:"errors"`
		}
		if json.Unmarshal(payload, &eb) == nil {
			apiErr.Message = eb.Error
			apiErr.Fields = eb.Errors
		}

		return apiErr
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
