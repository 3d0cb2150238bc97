package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/geoip")

const (
	DefaultURL     = "http://ip-api.com/json"
	DefaultTimeout = 5 * time.Second
	// ip-api's free tier allows 45 requests per minute.
	DefaultRequestsPerMinute = 45
)

type ClientOptions struct {
	URL               string
	Language          string
	Timeout           time.Duration
	RequestsPerMinute int
	Cache             Cache
	HTTPClient        *http.Client
}

// Client is a Provider backed by the ip-api.com JSON endpoint.
type Client struct {
	logger   *zap.SugaredLogger
	baseURL  string
	language string
	http     *http.Client
	limiter  *rate.Limiter
	cache    Cache
}

var _ Provider = &Client{}

func NewClient(logger *zap.SugaredLogger, opts ClientOptions) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Language == "" {
		opts.Language = "ja"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		logger:   logger,
		baseURL:  opts.URL,
		language: opts.Language,
		http:     opts.HTTPClient,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		cache:    opts.Cache,
	}
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	RegionName string  `json:"regionName"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Lookup resolves ip. Non public addresses, provider failures and context
// expiry all surface as ErrUnavailable.
func (c *Client) Lookup(ctx context.Context, ip string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Lookup",
		trace.WithAttributes(
			attribute.String("ip", ip),
		))
	defer span.End()
	logger := util.WithTrace(ctx, c.logger)

	if !util.IsPublicIP(ip) {
		return Result{}, ErrUnavailable
	}
	if c.cache != nil {
		if r, ok := c.cache.Get(ctx, ip); ok {
			span.SetAttributes(attribute.Bool("cached", true))
			return r, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		logger.Debugw("geolocation rate limited", "ip", ip, "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ip), url.Values{
		"fields": []string{"status,message,regionName,lat,lon"},
		"lang":   []string{c.language},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		logger.Infow("geolocation request failed", "ip", ip, "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer util.IgnoreError(res.Body.Close)

	if res.StatusCode != http.StatusOK {
		logger.Infow("geolocation request failed", "ip", ip, "status", res.StatusCode)
		return Result{}, fmt.Errorf("%w: http status %d", ErrUnavailable, res.StatusCode)
	}
	var body ipAPIResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body.Status != "success" {
		logger.Debugw("geolocation lookup failed", "ip", ip, "message", body.Message)
		return Result{}, fmt.Errorf("%w: %s", ErrUnavailable, body.Message)
	}

	result := Result{
		Latitude:  body.Lat,
		Longitude: body.Lon,
		Region:    body.RegionName,
	}
	if c.cache != nil {
		c.cache.Put(ctx, ip, result)
	}
	return result, nil
}
