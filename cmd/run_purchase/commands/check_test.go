package commands

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"purchase-automation/lib/netcheck"
	libtelemetry "purchase-automation/lib/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestDumpsTurnOnDebug(t *testing.T) {
	libtelemetry.InitSlog(false)
	defer libtelemetry.InitSlog(true)
	require.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	dir := filepath.Join(t.TempDir(), "netcheck")
	output := requestDumps(dir)
	require.NotNil(t, output)
	require.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := netcheck.NewChecker(netcheck.Options{InstrumentOutput: output})
	require.True(t, checker.CheckConnection(context.Background(), server.URL))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}
