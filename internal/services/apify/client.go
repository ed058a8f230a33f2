package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
	"github.com/killallgit/waskita-api/pkg/retry"
	"golang.org/x/time/rate"
)

// maxResponseBytes guards against unbounded dataset downloads
const maxResponseBytes = 64 << 20

// Client talks to the scraping service REST API. It holds no per-run state.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      Config
	log         logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a new scraping service client
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Wait.MaxWait <= 0 {
		cfg.Wait.MaxWait = DefaultMaxWait
	}
	if cfg.Wait.CheckInterval <= 0 {
		cfg.Wait.CheckInterval = DefaultCheckInterval
	}
	actors := make(map[string]string, len(DefaultActors))
	for p, a := range DefaultActors {
		actors[p] = a
	}
	for p, a := range cfg.Actors {
		if a = strings.TrimSpace(a); a != "" {
			actors[strings.ToLower(p)] = a
		}
	}
	cfg.Actors = actors

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
		config:      cfg,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartJob validates req, builds the platform payload and starts an actor run
func (c *Client) StartJob(ctx context.Context, req StartRequest) (*RunInfo, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if err := c.checkToken(); err != nil {
		return nil, err
	}
	actor, ok := c.config.Actors[req.Platform]
	if !ok || actor == "" {
		return nil, apperrors.ConfigurationError("apify.actors."+req.Platform, "no actor configured for platform")
	}

	body, err := json.Marshal(BuildActorInput(req))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encoding actor input")
	}

	endpoint := fmt.Sprintf("%s/acts/%s/runs", c.config.BaseURL, strings.ReplaceAll(actor, "/", "~"))
	var env envelope
	if err := c.do(ctx, "start", http.MethodPost, endpoint, body, &env); err != nil {
		return nil, err
	}
	if env.Data.ID == "" {
		return nil, apperrors.ExternalServiceError(ServiceName, errors.New("start response is missing the run id"))
	}

	c.log.Info("Started scrape run",
		logger.String("platform", req.Platform),
		logger.String("keyword", req.Keyword),
		logger.String("run_id", env.Data.ID),
		logger.Int("max_results", req.MaxResults))

	return &RunInfo{ID: env.Data.ID, Status: env.Data.Status}, nil
}

// PollStatus fetches the current state of a run
func (c *Client) PollStatus(ctx context.Context, runID string) (*RunStatus, error) {
	if err := c.checkRunID(runID); err != nil {
		return nil, err
	}
	var env envelope
	if err := c.do(ctx, "status", http.MethodGet, c.runURL(runID), nil, &env); err != nil {
		return nil, err
	}
	if env.Data.ID == "" {
		env.Data.ID = runID
	}
	return &env.Data, nil
}

// CountResults reads the item count from the run's dataset metadata without
// downloading the items
func (c *Client) CountResults(ctx context.Context, runID string) (int, error) {
	if err := c.checkRunID(runID); err != nil {
		return 0, err
	}
	var env datasetEnvelope
	if err := c.do(ctx, "dataset", http.MethodGet, c.runURL(runID)+"/dataset", nil, &env); err != nil {
		return 0, err
	}
	return env.Data.ItemCount, nil
}

// FetchResults downloads every dataset item the run produced
func (c *Client) FetchResults(ctx context.Context, runID string) ([]map[string]any, error) {
	if err := c.checkRunID(runID); err != nil {
		return nil, err
	}
	var items []map[string]any
	if err := c.do(ctx, "results", http.MethodGet, c.runURL(runID)+"/dataset/items?format=json&clean=true", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []map[string]any{}
	}
	return items, nil
}

// AbortRun asks the service to stop a run. The call survives cancellation of ctx
// so a cancelled caller can still release the remote run.
func (c *Client) AbortRun(ctx context.Context, runID string) error {
	if err := c.checkRunID(runID); err != nil {
		return err
	}
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.Timeout)
	defer cancel()

	if err := c.do(abortCtx, "abort", http.MethodPost, c.runURL(runID)+"/abort", nil, nil); err != nil {
		return err
	}
	c.log.Info("Aborted scrape run", logger.String("run_id", runID))
	return nil
}

// WaitForCompletion polls until the run is terminal, MaxWait elapses, or the job is cancelled.
// A SUCCEEDED run returns a nil error; any other terminal status is an external service error.
func (c *Client) WaitForCompletion(ctx context.Context, runID string, opts WaitOptions) (*RunStatus, error) {
	if opts.MaxWait <= 0 {
		opts.MaxWait = c.config.Wait.MaxWait
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = c.config.Wait.CheckInterval
	}

	deadline := time.Now().Add(opts.MaxWait)
	var last *RunStatus
	for {
		if opts.Cancelled != nil && opts.Cancelled() {
			return last, ErrRunCancelled
		}

		status, err := c.PollStatus(ctx, runID)
		if err != nil {
			return last, err
		}
		last = status
		if opts.OnStatus != nil {
			opts.OnStatus(status)
		}

		switch status.Status {
		case models.RunStatusSucceeded:
			return status, nil
		case models.RunStatusFailed, models.RunStatusAborted, models.RunStatusTimedOut:
			return status, apperrors.ExternalServiceError(ServiceName,
				fmt.Errorf("run %s finished with status %s", runID, status.Status)).
				WithDetail("run_status", status.Status)
		}

		if !time.Now().Add(opts.CheckInterval).Before(deadline) {
			return last, apperrors.Wrapf(ErrWaitTimeout, apperrors.ErrCodeExternalService,
				"scrape run %s did not finish within %s", runID, opts.MaxWait).
				WithDetail("run_status", status.Status)
		}

		timer := time.NewTimer(opts.CheckInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, ctx.Err()
		case <-timer.C:
		}
	}
}

// Scrape runs the blocking start, wait and fetch cycle used by the CLI.
// A run that times out or is cancelled is aborted remotely.
func (c *Client) Scrape(ctx context.Context, req StartRequest, opts WaitOptions) (*ScrapeResult, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	run, err := c.StartJob(ctx, req)
	if err != nil {
		return nil, err
	}

	status, err := c.WaitForCompletion(ctx, run.ID, opts)
	if err != nil {
		if status == nil || !models.IsTerminalRunStatus(status.Status) {
			if abortErr := c.AbortRun(ctx, run.ID); abortErr != nil {
				c.log.Warn("Failed to abort scrape run", logger.String("run_id", run.ID), logger.Error(abortErr))
			}
		}
		return &ScrapeResult{Run: status}, err
	}

	items, err := c.FetchResults(ctx, run.ID)
	if err != nil {
		return &ScrapeResult{Run: status}, err
	}
	if len(items) == 0 {
		return &ScrapeResult{Run: status, Items: items}, apperrors.NoDataError(req.Platform, req.Keyword)
	}
	return &ScrapeResult{Run: status, Items: items}, nil
}

func (c *Client) checkToken() error {
	if strings.TrimSpace(c.config.APIToken) == "" {
		return apperrors.ConfigurationError("apify.api_token", "the scraping service API token is not configured")
	}
	return nil
}

func (c *Client) checkRunID(runID string) error {
	if err := c.checkToken(); err != nil {
		return err
	}
	if strings.TrimSpace(runID) == "" {
		return apperrors.ValidationError("run_id", "run id is required")
	}
	return nil
}

func (c *Client) runURL(runID string) string {
	return fmt.Sprintf("%s/actor-runs/%s", c.config.BaseURL, runID)
}

// do performs a rate-limited request with retries on retryable failures and decodes
// a 2xx JSON body into out when out is non-nil
func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out any) error {
	cfg := retry.Config{
		MaxAttempts:  c.config.MaxRetries + 1,
		InitialDelay: c.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		IsRetryable:  apperrors.IsRetryable,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.log.Warn("Retrying scraping service request",
				logger.String("operation", op),
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Error(err))
		},
	}

	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		return c.doOnce(ctx, op, method, endpoint, body, out)
	})
	if err != nil {
		// keep the taxonomy error on top once retries ran out
		if appErr, ok := apperrors.As(err); ok && errors.Is(err, retry.ErrMaxAttemptsExceeded) {
			return appErr
		}
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, op, method, endpoint string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperrors.GetCode(err))
		}
		metrics.ApifyRequests.WithLabelValues(op, outcome).Inc()
		metrics.ApifyRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return classifyTransportError(err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(op, resp.StatusCode, data)
		classified := classifyAPIError(apiErr)
		c.log.Debug("Scraping service returned an error",
			logger.String("operation", op),
			logger.Int("status", resp.StatusCode),
			logger.String("code", string(apperrors.GetCode(classified))))
		return classified
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeJSON(data, out); err != nil {
		return apperrors.ExternalServiceError(ServiceName, fmt.Errorf("decoding %s response: %w", op, err))
	}
	return nil
}

// decodeJSON keeps numbers as json.Number so large item ids survive untouched
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
