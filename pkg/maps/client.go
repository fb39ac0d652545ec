package maps

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

	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://maps.googleapis.com"
	distanceMatrixPath          = "maps/api/distancematrix/json"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client calls the Google Distance Matrix API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

func (l LatLng) String() string {
	return strconv.FormatFloat(l.Latitude, 'f', 6, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', 6, 64)
}

// Distance is the driving distance between two points.
type Distance struct {
	Kilometers   float64
	Text         string
	Duration     time.Duration
	DurationText string
}

// Distance looks up the driving distance from origin to destination.
func (c *Client) Distance(ctx context.Context, origin, destination LatLng) (*Distance, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}

	query := url.Values{}
	query.Set("origins", origin.String())
	query.Set("destinations", destination.String())
	query.Set("units", "metric")
	query.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.baseURL, "/"), distanceMatrixPath, query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build distance request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute distance request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "distance request failed")
	}

	var apiResp struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Rows         []struct {
			Elements []struct {
				Status   string `json:"status"`
				Distance struct {
					Text  string `json:"text"`
					Value int64  `json:"value"`
				} `json:"distance"`
				Duration struct {
					Text  string `json:"text"`
					Value int64  `json:"value"`
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode distance response")
	}
	if apiResp.Status != "OK" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("distance matrix status %s %s", apiResp.Status, apiResp.ErrorMessage))
	}
	if len(apiResp.Rows) == 0 || len(apiResp.Rows[0].Elements) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "distance matrix returned no elements")
	}
	element := apiResp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("distance element status %s", element.Status))
	}

	return &Distance{
		Kilometers:   float64(element.Distance.Value) / 1000,
		Text:         element.Distance.Text,
		Duration:     time.Duration(element.Duration.Value) * time.Second,
		DurationText: element.Duration.Text,
	}, nil
}
