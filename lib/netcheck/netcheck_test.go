package netcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"ip": "203.0.113.7", "country": "FR"}`))
	}))
	defer server.Close()

	checker := NewChecker(Options{IPInfoURL: server.URL})
	info, err := checker.IPInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "203.0.113.7", info["ip"])
	require.Equal(t, "FR", info["country"])
}

func TestIPInfoFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	checker := NewChecker(Options{IPInfoURL: server.URL})
	info, err := checker.IPInfo(context.Background())
	require.Error(t, err)
	require.Empty(t, info)
}

func TestCheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewChecker(Options{})
	require.True(t, checker.CheckConnection(context.Background(), server.URL+"/"))
	require.False(t, checker.CheckConnection(context.Background(), server.URL+"/down"))

	server.Close()
	require.False(t, checker.CheckConnection(context.Background(), server.URL+"/"))
}
