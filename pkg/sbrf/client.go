// Package sbrf is a client for the Sberbank acquiring REST gateway.
package sbrf

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"sbrf-gateway/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Call outcomes reported to a Recorder.
const (
	OutcomeSuccess        = "success"
	OutcomeDeclined       = "declined"
	OutcomeInvalid        = "invalid"
	OutcomeTransportError = "transport_error"
)

// Recorder observes every finished gateway call.
type Recorder interface {
	ObserveCall(operation, outcome string, elapsed time.Duration)
}

type operation struct {
	name     string
	endpoint string
}

var (
	opRegister               = operation{"register", "register.do"}
	opReverse                = operation{"reverse", "reverse.do"}
	opRefund                 = operation{"refund", "refund.do"}
	opGetOrderStatus         = operation{"getOrderStatus", "getOrderStatus.do"}
	opGetOrderStatusExtended = operation{"getOrderStatusExtended", "getOrderStatusExtended.do"}
	opVerifyEnrollment       = operation{"verifyEnrollment", "verifyEnrollment.do"}
)

// Client issues gateway calls with a shared configuration.
// It is safe for concurrent use; each call works on a snapshot of the
// configuration taken when it starts.
type Client struct {
	mu  sync.RWMutex
	cfg Config

	httpClient *http.Client
	log        *zap.Logger
	recorder   Recorder
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient. Timeouts, TLS and proxies are configured there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithRateLimiter makes every call wait for a token before it is sent.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.L()
	}
	return c
}

func (c *Client) SetCredentials(userName, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.UserName = userName
	c.cfg.Password = password
}

func (c *Client) SetTestMode(testMode bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.TestMode = testMode
}

func (c *Client) SetDefaultReturnURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ReturnURL = u
}

func (c *Client) SetDefaultFailURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.FailURL = u
}

func (c *Client) BaseURL() string {
	return c.config().BaseURL()
}

func (c *Client) config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Register creates an order and returns the payment page URL.
// Empty ReturnURL and FailURL are filled from the configured defaults.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	cfg, err := c.preflight(opRegister)
	if err != nil {
		return RegisterResponse{}, err
	}
	if req.ReturnURL == "" {
		req.ReturnURL = cfg.ReturnURL
	}
	if req.FailURL == "" {
		req.FailURL = cfg.FailURL
	}

	p, err := c.do(ctx, cfg, opRegister, &req, req.Params,
		zap.String("order_number", req.OrderNumber),
		zap.Int64p("amount", req.Amount),
	)
	if err != nil {
		return RegisterResponse{}, err
	}
	return newRegisterResponse(p), nil
}

func (c *Client) Reverse(ctx context.Context, req ReverseRequest) (Response, error) {
	cfg, err := c.preflight(opReverse)
	if err != nil {
		return Response{}, err
	}
	p, err := c.do(ctx, cfg, opReverse, &req, req.Params, zap.String("order_id", req.OrderID))
	if err != nil {
		return Response{}, err
	}
	return newResponse(p), nil
}

func (c *Client) Refund(ctx context.Context, req RefundRequest) (Response, error) {
	cfg, err := c.preflight(opRefund)
	if err != nil {
		return Response{}, err
	}
	p, err := c.do(ctx, cfg, opRefund, &req, req.Params,
		zap.String("order_id", req.OrderID),
		zap.Int64p("amount", req.Amount),
	)
	if err != nil {
		return Response{}, err
	}
	return newResponse(p), nil
}

func (c *Client) GetOrderStatus(ctx context.Context, req OrderStatusRequest) (OrderStatusResponse, error) {
	cfg, err := c.preflight(opGetOrderStatus)
	if err != nil {
		return OrderStatusResponse{}, err
	}
	p, err := c.do(ctx, cfg, opGetOrderStatus, &req, req.Params, zap.String("order_id", req.OrderID))
	if err != nil {
		return OrderStatusResponse{}, err
	}
	return newOrderStatusResponse(p), nil
}

func (c *Client) GetOrderStatusExtended(ctx context.Context, req OrderStatusExtendedRequest) (OrderStatusResponse, error) {
	cfg, err := c.preflight(opGetOrderStatusExtended)
	if err != nil {
		return OrderStatusResponse{}, err
	}
	p, err := c.do(ctx, cfg, opGetOrderStatusExtended, &req, req.Params,
		zap.String("order_id", req.OrderID),
		zap.String("order_number", req.OrderNumber),
	)
	if err != nil {
		return OrderStatusResponse{}, err
	}
	return newOrderStatusResponse(p), nil
}

// VerifyEnrollment checks whether a card is enrolled in 3-D Secure.
func (c *Client) VerifyEnrollment(ctx context.Context, req VerifyEnrollmentRequest) (EnrollmentResponse, error) {
	cfg, err := c.preflight(opVerifyEnrollment)
	if err != nil {
		return EnrollmentResponse{}, err
	}
	p, err := c.do(ctx, cfg, opVerifyEnrollment, &req, req.Params, zap.String("pan", maskPan(req.Pan)))
	if err != nil {
		return EnrollmentResponse{}, err
	}
	return newEnrollmentResponse(p), nil
}

// preflight snapshots the configuration and rejects the call when credentials are unset.
// It runs before request validation.
func (c *Client) preflight(op operation) (Config, error) {
	cfg := c.config()
	if err := cfg.check(); err != nil {
		c.log.Warn("gateway call rejected", zap.String("operation", op.name), zap.Error(err))
		c.observe(op, OutcomeInvalid, 0)
		return Config{}, err
	}
	return cfg, nil
}

func (c *Client) do(ctx context.Context, cfg Config, op operation, req any, extra map[string]string, fields ...zap.Field) (payload, error) {
	start := time.Now()
	ctx, requestID := logger.EnsureRequestID(ctx)
	endpoint := cfg.BaseURL() + op.endpoint

	log := c.log.With(
		zap.String("request_id", requestID),
		zap.String("operation", op.name),
		zap.String("endpoint", endpoint),
	).With(fields...)

	if err := validateRequest(op.name, req); err != nil {
		log.Warn("gateway call rejected", zap.Error(err))
		c.observe(op, OutcomeInvalid, time.Since(start))
		return nil, err
	}

	form, err := encodeForm(req, extra, cfg)
	if err != nil {
		log.Error("Failed encoding form", zap.Error(err))
		c.observe(op, OutcomeInvalid, time.Since(start))
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			log.Warn("Rate limiter wait aborted", zap.Error(err))
			c.observe(op, OutcomeTransportError, time.Since(start))
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		c.observe(op, OutcomeTransportError, time.Since(start))
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	log.Debug("Sending request to gateway")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error("Gateway request failed", zap.Error(err))
		c.observe(op, OutcomeTransportError, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		c.observe(op, OutcomeTransportError, time.Since(start))
		return nil, err
	}

	if resp.StatusCode/100 != 2 {
		log.Error("Gateway returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		c.observe(op, OutcomeTransportError, time.Since(start))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: body}
	}

	p, err := decodePayload(body)
	if err != nil {
		log.Error("Failed decoding gateway response", zap.Error(err))
		c.observe(op, OutcomeTransportError, time.Since(start))
		return nil, err
	}

	base := newResponse(p)
	outcome := OutcomeSuccess
	if !base.Success() {
		outcome = OutcomeDeclined
	}
	c.observe(op, outcome, time.Since(start))

	log.Info("Gateway call finished",
		zap.Int("status", resp.StatusCode),
		zap.Int("error_code", base.ErrorCode),
		zap.String("error_message", base.ErrorMessage),
		zap.Duration("elapsed", time.Since(start)),
	)
	return p, nil
}

func (c *Client) observe(op operation, outcome string, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveCall(op.name, outcome, elapsed)
	}
}

// maskPan keeps the last four digits of a card number for logging.
func maskPan(pan string) string {
	if len(pan) <= 4 {
		return strings.Repeat("*", len(pan))
	}
	return strings.Repeat("*", len(pan)-4) + pan[len(pan)-4:]
}
