// Package backend implements the REST client for the salon backend
// service: service catalog, technicians, batched availability checks,
// customers, and booking creation. It is the production implementation
// of booking.Gateway.
package backend

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

	"github.com/dangtuan21/hana-salon/internal/booking"
	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// Client talks to the backend API. All responses arrive in a
// {success, data} envelope; lookups that miss return nil rather than an
// error, and network failures or 5xx responses come back as
// booking.ErrBackendUnavailable so the executor can map them to a
// retryable result.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a backend client for the given base URL
// (e.g. "http://localhost:3060").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Services fetches the full catalog.
func (c *Client) Services(ctx context.Context) ([]booking.Service, error) {
	var data struct {
		Services []booking.Service `json:"services"`
	}
	if err := c.get(ctx, "/api/services", &data); err != nil {
		return nil, err
	}
	return data.Services, nil
}

// ServiceByName looks up one service; nil when the backend has no match.
func (c *Client) ServiceByName(ctx context.Context, name string) (*booking.Service, error) {
	var svc booking.Service
	found, err := c.getOptional(ctx, "/api/services/name/"+url.PathEscape(name), &svc)
	if err != nil || !found {
		return nil, err
	}
	return &svc, nil
}

// AvailableTechnicians lists all active technicians.
func (c *Client) AvailableTechnicians(ctx context.Context) ([]booking.Technician, error) {
	var data struct {
		Technicians []booking.Technician `json:"technicians"`
	}
	if err := c.get(ctx, "/api/technicians/available", &data); err != nil {
		return nil, err
	}
	return data.Technicians, nil
}

// TechniciansForService lists the technicians qualified for a service.
func (c *Client) TechniciansForService(ctx context.Context, serviceID string) ([]booking.Technician, error) {
	var data struct {
		Technicians []booking.Technician `json:"technicians"`
	}
	if err := c.get(ctx, "/api/technicians/service/"+url.PathEscape(serviceID), &data); err != nil {
		return nil, err
	}
	return data.Technicians, nil
}

// BatchCheckAvailability asks about every candidate in one round trip.
func (c *Client) BatchCheckAvailability(ctx context.Context, technicianIDs []string, date, startTime string, duration int) (map[string]bool, error) {
	payload := struct {
		TechnicianIDs []string `json:"technicianIds"`
		Date          string   `json:"date"`
		StartTime     string   `json:"startTime"`
		Duration      int      `json:"duration"`
	}{technicianIDs, date, startTime, duration}

	var data struct {
		Results []struct {
			TechnicianID string `json:"technicianId"`
			Available    bool   `json:"available"`
		} `json:"results"`
	}
	if err := c.post(ctx, "/api/technicians/batch-check-availability", payload, &data); err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(data.Results))
	for _, r := range data.Results {
		out[r.TechnicianID] = r.Available
	}
	c.logger.Debug("batch availability checked",
		"candidates", len(technicianIDs), "date", date, "start", startTime)
	return out, nil
}

// CustomerByPhone looks up a customer; nil when unknown.
func (c *Client) CustomerByPhone(ctx context.Context, phone string) (*booking.Customer, error) {
	var cust booking.Customer
	found, err := c.getOptional(ctx, "/api/customers/phone/"+url.PathEscape(phone), &cust)
	if err != nil || !found {
		return nil, err
	}
	return &cust, nil
}

// CreateCustomer registers a new customer.
func (c *Client) CreateCustomer(ctx context.Context, nc booking.NewCustomer) (*booking.Customer, error) {
	var cust booking.Customer
	if err := c.post(ctx, "/api/customers", nc, &cust); err != nil {
		return nil, err
	}
	c.logger.Info("customer created", "customer_id", cust.ID)
	return &cust, nil
}

// CreateBooking persists a completed booking.
func (c *Client) CreateBooking(ctx context.Context, b booking.BackendBooking) (*booking.CreatedBooking, error) {
	var created booking.CreatedBooking
	if err := c.post(ctx, "/api/bookings", b, &created); err != nil {
		return nil, err
	}
	c.logger.Info("booking created", "booking_id", created.ID)
	return &created, nil
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var data struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/api/health", &data)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, out, false)
	return err
}

// getOptional is get for lookups where a 404 means "not found" rather
// than failure. Returns false when the resource is absent.
func (c *Client) getOptional(ctx context.Context, path string, out any) (bool, error) {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("backend: marshal request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, path, body, out, false)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any, optional bool) (bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s %s: %v", booking.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && optional:
		return false, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("backend request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return false, fmt.Errorf("%w: %s %s returned %d: %s",
			booking.ErrBackendUnavailable, method, path, resp.StatusCode, string(raw))
	case resp.StatusCode >= http.StatusBadRequest:
		raw, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("backend: %s %s returned %d: %s",
			method, path, resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return false, fmt.Errorf("backend: decode response for %s: %w", path, err)
	}
	if !env.Success {
		return false, fmt.Errorf("backend: %s %s failed: %s", method, path, env.Error)
	}
	// A successful lookup may still carry a null data payload for "not
	// found"; treat it the same as a 404 on optional requests.
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return !optional, nil
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return false, fmt.Errorf("backend: decode data for %s: %w", path, err)
		}
	}
	return true, nil
}
