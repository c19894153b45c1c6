package netcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"purchase-automation/lib/restyutil"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("purchase_automation.lib.netcheck")

const DefaultIPInfoURL = "https://ipinfo.io/json"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	IPInfoURL string
	Timeout   time.Duration
	// InstrumentOutput receives request dumps when debug logging is on.
	InstrumentOutput restyutil.InstrumentOutput
}

// Checker verifies that the machine running purchases can reach the
// shops it targets.
type Checker struct {
	http      *resty.Client
	ipInfoUrl string
}

func NewChecker(opts Options) Checker {
	if opts.IPInfoURL == "" {
		opts.IPInfoURL = DefaultIPInfoURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", userAgent)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	// checks are few, this only keeps a misconfigured loop from hammering a shop
	limiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})
	restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)

	return Checker{http: client, ipInfoUrl: opts.IPInfoURL}
}

// IPInfo returns the public ip information of this machine, an empty map
// is returned alongside the error when the service cannot be reached.
func (c Checker) IPInfo(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "IPInfo")
	defer span.End()

	res, err := c.http.R().SetContext(ctx).Get(c.ipInfoUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch ip info")
		return map[string]any{}, fmt.Errorf("fetch ip info: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("fetch ip info: unexpected status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return map[string]any{}, err
	}

	out := map[string]any{}
	err = json.Unmarshal(res.Body(), &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode ip info")
		return map[string]any{}, fmt.Errorf("decode ip info: %w", err)
	}
	return out, nil
}

// CheckConnection sends a HEAD request to the url, a status below 400
// counts as reachable.
func (c Checker) CheckConnection(ctx context.Context, url string) bool {
	ctx, span := tracer.Start(ctx, "CheckConnection")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := c.http.R().SetContext(ctx).Head(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connection failed")
		return false
	}
	return res.StatusCode() < 400
}
