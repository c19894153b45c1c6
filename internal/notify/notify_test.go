package notify

import (
	"context"
	"io"
	"log"
	"purchase-automation/internal/telemetry/telemetrytest"
	"strconv"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	tel := &telemetrytest.Recorder{}
	n := NewNotifier(Options{Email: "ops@example.com", SMS: "+33612345678"}, tel)

	sent, err := n.SendEmail(ctx, "subject", "message")
	require.NoError(t, err)
	require.False(t, sent)

	sent, err = n.SendSMS(ctx, "message")
	require.NoError(t, err)
	require.False(t, sent)

	require.NoError(t, n.Notify(ctx, "subject", "message"))
	require.Empty(t, tel.Reports(telemetrytest.Broken))
}

func TestRecipients(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		opts    Options
		sent    bool
		invalid bool
	}{
		{name: "no recipient", opts: Options{Enabled: true}},
		{name: "invalid email", opts: Options{Enabled: true, Email: "not-an-email"}, invalid: true},
		{name: "invalid phone", opts: Options{Enabled: true, SMS: "0612"}, invalid: true},
		{name: "sms", opts: Options{Enabled: true, SMS: "+33 6 12 34 56 78"}, sent: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tel := &telemetrytest.Recorder{}
			n := NewNotifier(tc.opts, tel)

			var sent bool
			var err error
			if tc.opts.SMS != "" {
				sent, err = n.SendSMS(ctx, "hello")
			} else {
				sent, err = n.SendEmail(ctx, "hello", "world")
			}
			require.Equal(t, tc.sent, sent)
			require.Equal(t, tc.invalid, err != nil, err)
		})
	}
}

func TestSendEmail(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "haravich/fake-smtp-server",
			ExposedPorts: []string{"1025/tcp", "1080/tcp"},
			WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, server.Terminate(context.Background()))
	})

	host, err := server.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := server.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	webPort, err := server.MappedPort(ctx, "1080/tcp")
	require.NoError(t, err)
	port, err := strconv.Atoi(smtpPort.Port())
	require.NoError(t, err)

	n := NewNotifier(Options{
		Enabled: true,
		Email:   "ops@example.com",
		Smtp: SmtpConfig{
			Server:       host,
			Port:         port,
			EmailAddress: "robot@example.com",
			Password:     "default",
		},
	}, &telemetrytest.Recorder{})

	sent, err := n.SendEmail(ctx, "Purchase succeeded", "order 004512789 placed on kingjouet")
	require.NoError(t, err)
	require.True(t, sent)

	res, err := resty.New().R().
		SetContext(ctx).
		Get("http://" + host + ":" + webPort.Port() + "/messages/1.plain")
	require.NoError(t, err)
	require.Contains(t, res.String(), "order 004512789 placed on kingjouet")
}
