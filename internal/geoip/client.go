package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// Location holds structured data from an IP geolocation lookup.
type Location struct {
	Country  string  `json:"country"`
	Region   string  `json:"region"`
	City     string  `json:"city"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	ISP      string  `json:"isp,omitempty"`
	Timezone string  `json:"timezone,omitempty"`
}

// Client wraps the ip-api.com geolocation API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geolocation client. Returns nil if GEOIP_ENABLED is
// set to "false" (graceful degradation: lookups are skipped and audit
// records get an empty location).
func NewClient() *Client {
	if os.Getenv("GEOIP_ENABLED") == "false" {
		return nil
	}
	return &Client{
		baseURL: "http://ip-api.com",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type lookupResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ISP        string  `json:"isp"`
	Timezone   string  `json:"timezone"`
}

// Lookup resolves a client IP to a location. Loopback and private
// addresses have no public location and resolve to nil without an error.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if parsed := net.ParseIP(ip); parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return nil, nil
	}

	u := fmt.Sprintf("%s/json/%s?fields=status,message,country,regionName,city,lat,lon,isp,timezone", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned HTTP %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("geolocation failed for %s: %s", ip, body.Message)
	}

	return &Location{
		Country:  body.Country,
		Region:   body.RegionName,
		City:     body.City,
		Lat:      body.Lat,
		Lon:      body.Lon,
		ISP:      body.ISP,
		Timezone: body.Timezone,
	}, nil
}
