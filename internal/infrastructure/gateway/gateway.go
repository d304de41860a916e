package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/pkg/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "resolveit-session-client"
	maxBodyBytes     = 1 << 20

	opLogin       = "login"
	opRegister    = "register"
	opCurrentUser = "current_user"
)

// Config locates the upstream authentication endpoints.
type Config struct {
	BaseURL         string
	LoginPath       string
	RegisterPath    string
	CurrentUserPath string
	Timeout         time.Duration
	UserAgent       string
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.LoginPath == "" {
		c.LoginPath = "/auth/login"
	}
	if c.RegisterPath == "" {
		c.RegisterPath = "/auth/register"
	}
	if c.CurrentUserPath == "" {
		c.CurrentUserPath = "/auth/me"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

// HTTPGateway implements ports.AuthGateway against the complaint service's
// bearer-token REST API. It holds no session state.
type HTTPGateway struct {
	cfg    Config
	client *http.Client
	tracer trace.Tracer
	log    zerolog.Logger
}

// New returns a gateway with its own http.Client bounded by cfg.Timeout.
func New(cfg Config, log zerolog.Logger) *HTTPGateway {
	cfg = cfg.withDefaults()
	return NewWithClient(cfg, &http.Client{Timeout: cfg.Timeout}, log)
}

// NewWithClient lets callers supply the transport (tests, custom TLS).
func NewWithClient(cfg Config, client *http.Client, log zerolog.Logger) *HTTPGateway {
	return &HTTPGateway{
		cfg:    cfg.withDefaults(),
		client: client,
		tracer: otel.Tracer("resolveit/gateway"),
		log:    log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *HTTPGateway) Login(ctx context.Context, email, password string) domain.AuthOutcome {
	payload := loginRequest{Email: email, Password: password}
	return g.call(ctx, opLogin, http.MethodPost, g.cfg.LoginPath, "", payload, normalizeLogin)
}

func (g *HTTPGateway) Register(ctx context.Context, name, email, password string) domain.AuthOutcome {
	payload := registerRequest{Name: name, Email: email, Password: password}
	return g.call(ctx, opRegister, http.MethodPost, g.cfg.RegisterPath, "", payload, normalizeRegister)
}

func (g *HTTPGateway) FetchCurrentUser(ctx context.Context, token string) domain.AuthOutcome {
	return g.call(ctx, opCurrentUser, http.MethodGet, g.cfg.CurrentUserPath, token, nil, normalizeCurrentUser)
}

// Ping reports whether the upstream answers HTTP at all; any status counts.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+g.cfg.CurrentUserPath, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream ping: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

type normalizer func(status int, body []byte) (domain.AuthOutcome, error)

func (g *HTTPGateway) call(ctx context.Context, op, method, path, token string, payload any, normalize normalizer) domain.AuthOutcome {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	status, out, detail := g.roundTrip(ctx, method, path, token, payload, normalize)

	span.SetAttributes(
		attribute.Int("http.response.status_code", status),
		attribute.String("auth.outcome", string(out.Kind)),
	)
	if out.Kind == domain.OutcomeNetworkFailure {
		span.SetStatus(codes.Error, out.Message)
		if detail != nil {
			span.RecordError(detail)
		}
	}

	elapsed := time.Since(start)
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	metrics.GatewayRequestsTotal.WithLabelValues(op, string(out.Kind)).Inc()

	evt := g.log.Debug()
	if isMalformed(detail) {
		evt = g.log.Warn()
	}
	evt.Err(detail).
		Str("op", op).
		Int("status", status).
		Str("outcome", string(out.Kind)).
		Dur("elapsed", elapsed).
		Msg("upstream auth call")

	return out
}

// roundTrip returns the HTTP status (0 when none was received), the
// normalised outcome and, for failures, the underlying cause.
func (g *HTTPGateway) roundTrip(ctx context.Context, method, path, token string, payload any, normalize normalizer) (int, domain.AuthOutcome, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, domain.NetworkFailure("could not encode request"), fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, body)
	if err != nil {
		return 0, domain.NetworkFailure("could not build request"), fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, domain.NetworkFailure(transportMessage(err)), err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, domain.NetworkFailure(transportMessage(err)), err
	}

	out, detail := normalize(resp.StatusCode, raw)
	return resp.StatusCode, out, detail
}

func transportMessage(err error) string {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return "Request timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "Network error. Please check your connection."
	}
}
