package ssoprovider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/makkotwal/venus-auth/ssoprovider"
	"github.com/stretchr/testify/require"
)

func TestResolveSendsSessionIDHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/v1/env/oauth/session-data", r.URL.Path)
		require.Equal(t, "sess-123", r.Header.Get("X-Session-ID"))
		require.Empty(t, r.URL.RawQuery)
		json.NewEncoder(w).Encode(map[string]string{
			"session_token": "tok-1",
			"email":         "a@x.com",
			"name":          "Alice",
			"picture":       "https://cdn.example.com/a.png",
		})
	}))
	defer srv.Close()

	client := ssoprovider.New(srv.URL)
	data, err := client.Resolve(context.Background(), "sess-123")

	require.NoError(t, err)
	require.Equal(t, "tok-1", data.SessionToken)
	require.Equal(t, "a@x.com", data.Contact)
	require.Equal(t, "Alice", data.Name)
}

func TestResolveNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := ssoprovider.New(srv.URL)
	_, err := client.Resolve(context.Background(), "sess-123")
	require.Error(t, err)
}

func TestLoginURLContract(t *testing.T) {
	got := ssoprovider.LoginURL("https://venus.example.com", "/dashboard")

	require.Equal(t, "https://auth.emergentagent.com/?redirect=https%3A%2F%2Fvenus.example.com%2Fdashboard", got)

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	query := parsed.Query()
	// Exactly one parameter, nothing else; extra parameters break the
	// provider contract.
	require.Len(t, query, 1)
	require.Equal(t, "https://venus.example.com/dashboard", query.Get("redirect"))
}
