package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"sbrf-gateway/internal/config"
	"sbrf-gateway/internal/logger"
	"sbrf-gateway/internal/metrics"
	"sbrf-gateway/pkg/sbrf"

	"go.uber.org/zap"
)

const (
	exitOK       = 0
	exitError    = 1
	exitDeclined = 2
)

// Gateway is the subset of *sbrf.Client the command drives.
type Gateway interface {
	Register(ctx context.Context, req sbrf.RegisterRequest) (sbrf.RegisterResponse, error)
	Reverse(ctx context.Context, req sbrf.ReverseRequest) (sbrf.Response, error)
	Refund(ctx context.Context, req sbrf.RefundRequest) (sbrf.Response, error)
	GetOrderStatus(ctx context.Context, req sbrf.OrderStatusRequest) (sbrf.OrderStatusResponse, error)
	GetOrderStatusExtended(ctx context.Context, req sbrf.OrderStatusExtendedRequest) (sbrf.OrderStatusResponse, error)
	VerifyEnrollment(ctx context.Context, req sbrf.VerifyEnrollmentRequest) (sbrf.EnrollmentResponse, error)
}

var newGatewayFunc = func(cfg *config.Config) Gateway {
	return sbrf.New(cfg.Gateway(),
		sbrf.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		sbrf.WithLogger(logger.L()),
		sbrf.WithRecorder(metrics.NewGatewayMetrics(nil)),
		sbrf.WithRateLimiter(cfg.Limiter()),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sbrf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	testMode := fs.Bool("test", false, "use the sandbox gateway regardless of SBRF_TEST_MODE")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sbrf [-test] <operation> [key=value ...]")
		fmt.Fprintln(stderr, "register accepts orderNumber=auto to generate a fresh order number")
		fmt.Fprintln(stderr, "operations:", strings.Join(operationNames(), ", "))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitError
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return exitError
	}
	if *testMode {
		cfg.TestMode = true
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	opName := fs.Arg(0)
	op, ok := operations[opName]
	if !ok {
		fmt.Fprintf(stderr, "unknown operation %q\n", opName)
		fs.Usage()
		return exitError
	}

	params, err := parseParams(fs.Args()[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	ctx, requestID := logger.EnsureRequestID(ctx)
	log := logger.FromCtx(ctx).With(zap.String("operation", opName))

	result, success, err := op(ctx, newGatewayFunc(cfg), params)
	if err != nil {
		log.Error("operation failed", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return exitError
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if !success {
		log.Warn("gateway declined the request", zap.String("request_id", requestID))
		return exitDeclined
	}
	return exitOK
}

type operationFunc func(ctx context.Context, gw Gateway, p params) (result any, success bool, err error)

var operations = map[string]operationFunc{
	"register": func(ctx context.Context, gw Gateway, p params) (any, bool, error) {
		amount, err := p.integer("amount")
		if err != nil {
			return nil, false, err
		}
		timeout, err := p.integer("sessionTimeoutSecs")
		if err != nil {
			return nil, false, err
		}
		var timeoutSecs int
		if timeout != nil {
			timeoutSecs = int(*timeout)
		}
		orderNumber := p.take("orderNumber")
		if orderNumber == "auto" {
			orderNumber = sbrf.NewOrderNumber("ORD")
		}
		res, err := gw.Register(ctx, sbrf.RegisterRequest{
			OrderNumber:        orderNumber,
			Amount:             amount,
			ReturnURL:          p.take("returnUrl"),
			FailURL:            p.take("failUrl"),
			Currency:           p.take("currency"),
			Description:        p.take("description"),
			Language:           p.take("language"),
			PageView:           p.take("pageView"),
			ClientID:           p.take("clientId"),
			MerchantLogin:      p.take("merchantLogin"),
			JSONParams:         p.take("jsonParams"),
			SessionTimeoutSecs: timeoutSecs,
			ExpirationDate:     p.take("expirationDate"),
			BindingID:          p.take("bindingId"),
			Params:             p.rest(),
		})
		return res, res.Success(), err
	},
	"reverse": func(ctx context.Context, gw Gateway, p params) (any, bool, error) {
		res, err := gw.Reverse(ctx, sbrf.ReverseRequest{
			OrderID:  p.take("orderId"),
			Language: p.take("language"),
			Params:   p.rest(),
		})
		return res, res.Success(), err
	},
	"refund": func(ctx context.Context, gw Gateway, p params) (any, bool, error) {
		amount, err := p.integer("amount")
		if err != nil {
			return nil, false, err
		}
		res, err := gw.Refund(ctx, sbrf.RefundRequest{
			OrderID:  p.take("orderId"),
			Amount:   amount,
			Language: p.take("language"),
			Params:   p.rest(),
		})
		return res, res.Success(), err
	},
	"getOrderStatus": func(ctx context.Context, gw Gateway, p params) (any, bool, error) {
		res, err := gw.GetOrderStatus(ctx, sbrf.OrderStatusRequest{
			OrderID:  p.take("orderId"),
			Language: p.take("language"),
			Params:   p.rest(),
		})
		return res, res.Success(), err
	},
	"getOrderStatusExtended": func(ctx context.Context, gw Gateway, p params) (any, bool, error) {
		res, err := gw.GetOrderStatusExtended(ctx, sbrf.OrderStatusExtendedRequest{
			OrderID:     p.take("orderId"),
			OrderNumber: p.take("orderNumber"),
			Language:    p.take("language"),
			Params:      p.rest(),
		})
		return res, res.Success(), err
	},
	"verifyEnrollment": func(ctx context.Context, gw Gateway, p params) (any, bool, error) {
		res, err := gw.VerifyEnrollment(ctx, sbrf.VerifyEnrollmentRequest{
			Pan:    p.take("pan"),
			Params: p.rest(),
		})
		return struct {
			sbrf.EnrollmentResponse
			Enrolled bool `json:"enrolledFlag"`
		}{res, res.Enrolled()}, res.Success(), err
	},
}

func operationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// params holds key=value arguments; take removes a key so rest sees only unmodeled ones.
type params map[string]string

func parseParams(args []string) (params, error) {
	p := make(params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", arg)
		}
		p[key] = value
	}
	return p, nil
}

func (p params) take(key string) string {
	v := p[key]
	delete(p, key)
	return v
}

// integer returns nil when key is absent or empty.
func (p params) integer(key string) (*int64, error) {
	v := p.take(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, errors.Unwrap(err))
	}
	return &n, nil
}

func (p params) rest() map[string]string {
	if len(p) == 0 {
		return nil
	}
	return p
}
