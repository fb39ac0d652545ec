package maps

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestClientDistance(t *testing.T) {
	var captured *http.Request
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"text":"5.2 km","value":5200},"duration":{"text":"14 mins","value":840}}]}]}`), nil
	})
	client, err := NewClient("test-key", WithBaseURL("http://maps.test/"), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	dist, err := client.Distance(context.Background(), LatLng{Latitude: 12.9716, Longitude: 77.5946}, LatLng{Latitude: 12.9352, Longitude: 77.6245})
	require.NoError(t, err)
	require.InDelta(t, 5.2, dist.Kilometers, 0.0001)
	require.Equal(t, "5.2 km", dist.Text)
	require.Equal(t, 14*time.Minute, dist.Duration)

	require.Equal(t, "/maps/api/distancematrix/json", captured.URL.Path)
	q := captured.URL.Query()
	require.Equal(t, "12.971600,77.594600", q.Get("origins"))
	require.Equal(t, "12.935200,77.624500", q.Get("destinations"))
	require.Equal(t, "test-key", q.Get("key"))
	require.Equal(t, "metric", q.Get("units"))
}

func TestClientDistanceFailures(t *testing.T) {
	cases := map[string]*http.Response{
		"http status":    jsonResponse(http.StatusInternalServerError, "boom"),
		"api status":     jsonResponse(http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`),
		"no elements":    jsonResponse(http.StatusOK, `{"status":"OK","rows":[]}`),
		"element status": jsonResponse(http.StatusOK, `{"status":"OK","rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`),
		"bad json":       jsonResponse(http.StatusOK, `{`),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			rt := roundTripFunc(func(*http.Request) (*http.Response, error) { return resp, nil })
			client, err := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))
			require.NoError(t, err)
			_, err = client.Distance(context.Background(), LatLng{}, LatLng{})
			require.Error(t, err)
			require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
		})
	}
}

func TestNilClientDistance(t *testing.T) {
	var client *Client
	_, err := client.Distance(context.Background(), LatLng{}, LatLng{})
	require.Error(t, err)
}
