// Package meraki provides a client for the Cisco Meraki Dashboard API v1,
// covering the organization directory, per-network client details, and
// per-client application usage counters, with automatic pagination and
// rate-limit retry logic.
package meraki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Organization represents a Meraki organization.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Network represents a Meraki network.
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NetworkClient is a client record as reported by a network's clients
// endpoint. ConnectionType-specific data lives in SSID (wireless) and
// Switchport (wired).
type NetworkClient struct {
	Description            string      `json:"description"`
	IP                     string      `json:"ip"`
	MAC                    string      `json:"mac"`
	User                   string      `json:"user"`
	VLAN                   interface{} `json:"vlan"` // int or string depending on platform
	Manufacturer           string      `json:"manufacturer"`
	OS                     string      `json:"os"`
	Status                 string      `json:"status"`
	SSID                   string      `json:"ssid"`
	Switchport             string      `json:"switchport"`
	RecentDeviceSerial     string      `json:"recentDeviceSerial"`
	RecentDeviceName       string      `json:"recentDeviceName"`
	RecentDeviceConnection string      `json:"recentDeviceConnection"`
}

// Wireless reports whether the client's most recent connection was wireless.
func (c NetworkClient) Wireless() bool {
	return c.RecentDeviceConnection == "Wireless"
}

// VLANString renders the VLAN field, which the API returns as a number,
// string, or null.
func (c NetworkClient) VLANString() string {
	switch v := c.VLAN.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ApplicationUsage is one application's byte counters for a client within a
// network. Received and Sent are kilobytes, as delivered by the API.
type ApplicationUsage struct {
	Application string  `json:"application"`
	Received    float64 `json:"received"`
	Sent        float64 `json:"sent"`
}

// APIError is a non-2xx Dashboard API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meraki API error %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the error means "no such client/resource for this
// filter" rather than a real failure. The API signals this either with a 404
// or with a not-found message in the error body.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound ||
		strings.Contains(strings.ToLower(e.Message), "not found")
}

// IsNotFound reports whether err is an APIError of the not-found class.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.NotFound()
}

// Client is an HTTP client wrapper for the Meraki Dashboard API.
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	client     *http.Client
}

// NewClient creates a new Meraki API client.
// maxRetries controls how many times a 429 response is retried; 0 uses the default of 6.
func NewClient(apiKey, baseURL string, maxRetries int) *Client {
	if baseURL == "" {
		baseURL = "https://api.meraki.com/api/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if maxRetries <= 0 {
		maxRetries = 6
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GetOrganizations retrieves all organizations accessible by the API key.
func (m *Client) GetOrganizations(ctx context.Context) ([]Organization, error) {
	raws, err := m.getAllPages(ctx, "/organizations", url.Values{"perPage": []string{"1000"}})
	if err != nil {
		return nil, err
	}
	orgs := make([]Organization, 0, len(raws))
	for _, r := range raws {
		var o Organization
		if err := json.Unmarshal(r, &o); err == nil {
			orgs = append(orgs, o)
		}
	}
	return orgs, nil
}

// GetNetworks retrieves all networks for a given organization.
func (m *Client) GetNetworks(ctx context.Context, orgID string) ([]Network, error) {
	path := fmt.Sprintf("/organizations/%s/networks", orgID)
	raws, err := m.getAllPages(ctx, path, url.Values{"perPage": []string{"1000"}})
	if err != nil {
		return nil, err
	}
	nets := make([]Network, 0, len(raws))
	for _, r := range raws {
		var n Network
		if err := json.Unmarshal(r, &n); err == nil {
			nets = append(nets, n)
		}
	}
	return nets, nil
}

// GetNetworkClients retrieves the clients seen in a network within the time
// window, filtered to a single MAC (colon form).
func (m *Client) GetNetworkClients(ctx context.Context, networkID, mac string, timespanSeconds int) ([]NetworkClient, error) {
	path := fmt.Sprintf("/networks/%s/clients", networkID)
	params := url.Values{
		"perPage":  []string{"1000"},
		"mac":      []string{mac},
		"timespan": []string{strconv.Itoa(timespanSeconds)},
	}
	raws, err := m.getAllPages(ctx, path, params)
	if err != nil {
		return nil, err
	}
	clients := make([]NetworkClient, 0, len(raws))
	for _, r := range raws {
		var c NetworkClient
		if err := json.Unmarshal(r, &c); err == nil {
			clients = append(clients, c)
		}
	}
	return clients, nil
}

// GetClientApplicationUsage retrieves per-application usage counters for one
// client MAC in a network over the time window.
func (m *Client) GetClientApplicationUsage(ctx context.Context, networkID, mac string, timespanSeconds int) ([]ApplicationUsage, error) {
	path := fmt.Sprintf("/networks/%s/clients/applicationUsage", networkID)
	params := url.Values{
		"perPage":  []string{"1000"},
		"clients":  []string{mac},
		"timespan": []string{strconv.Itoa(timespanSeconds)},
	}
	raws, err := m.getAllPages(ctx, path, params)
	if err != nil {
		return nil, err
	}
	// Each element wraps one client's usage list; the MAC filter means at
	// most one element matters.
	var usage []ApplicationUsage
	for _, r := range raws {
		var entry struct {
			ApplicationUsage []ApplicationUsage `json:"applicationUsage"`
		}
		if err := json.Unmarshal(r, &entry); err == nil {
			usage = append(usage, entry.ApplicationUsage...)
		}
	}
	return usage, nil
}

// getAllPages handles pagination for API endpoints that return arrays.
// It follows the Link header with rel="next" until all pages are retrieved.
func (m *Client) getAllPages(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	fullURL := m.buildURL(path, params)
	var all []json.RawMessage
	for {
		body, next, err := m.doRequest(ctx, "GET", fullURL)
		if err != nil {
			return nil, err
		}
		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		fullURL = next
	}
	return all, nil
}

// buildURL constructs a full API URL from a path and query parameters.
func (m *Client) buildURL(path string, params url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base := m.baseURL + path
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

// doRequest executes an HTTP request with retry logic and rate limit handling.
// It automatically retries on 429 (Too Many Requests) with exponential backoff.
// Returns the response body, next page URL (from Link header), and any error.
func (m *Client) doRequest(ctx context.Context, method, fullURL string) ([]byte, string, error) {
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("X-Cisco-Meraki-API-Key", m.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := m.client.Do(req)
		if err != nil {
			return nil, "", err
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			if retryAfter != "" {
				if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
					time.Sleep(seconds)
					continue
				}
			}
			time.Sleep(time.Second * time.Duration(1+attempt))
			continue
		}

		if resp.StatusCode >= 300 {
			return nil, "", &APIError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
			}
		}

		next := parseLinkNext(resp.Header.Get("Link"))
		return body, next, nil
	}
	return nil, "", errors.New("meraki API request failed after retries")
}

// parseLinkNext extracts the next page URL from a Link header.
// Example Link header: <https://api.meraki.com/api/v1/...?page=2>; rel="next"
func parseLinkNext(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	parts := strings.Split(linkHeader, ",")
	for _, part := range parts {
		section := strings.TrimSpace(part)
		if !strings.Contains(section, "rel=\"next\"") {
			continue
		}
		start := strings.Index(section, "<")
		end := strings.Index(section, ">")
		if start == -1 || end == -1 || end <= start+1 {
			continue
		}
		return section[start+1 : end]
	}
	return ""
}
