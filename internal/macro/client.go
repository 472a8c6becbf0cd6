package macro

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/metrics"
	"irrigation_panel/internal/tracing"
)

const (
	defaultTimeout = 5 * time.Second
	maxReplySize   = 64 << 10
)

// Options configure an HTTP Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Metrics  *metrics.Collector
	Logger   *logger.Logger
}

// Client posts macro calls to a WebIOPi server:
// POST <base>/macros/<name>/<arg1>,<arg2>,...
type Client struct {
	base     *url.URL
	http     *http.Client
	username string
	password string
	metrics  *metrics.Collector
	log      *logger.Logger
}

// NewClient validates the base URL and builds a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse device url")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported device url scheme %q", base.Scheme)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:     base,
		http:     &http.Client{Timeout: timeout},
		username: opts.Username,
		password: opts.Password,
		metrics:  opts.Metrics,
		log:      opts.Logger.Named("macro"),
	}, nil
}

// URL returns the endpoint used for a call.
func (c *Client) URL(name string, args ...any) string {
	path := strings.TrimRight(c.base.Path, "/") + "/macros/" + name
	if len(args) > 0 {
		path += "/" + JoinArgs(args)
	}
	u := *c.base
	u.Path = path
	u.RawPath = ""
	return u.String()
}

func (c *Client) Call(ctx context.Context, name string, args ...any) (reply string, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "macro "+name,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("macro.name", name),
			attribute.String("macro.args", JoinArgs(args)),
		))
	start := time.Now()
	defer func() {
		c.metrics.ObserveCall(name, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(name, args...), nil)
	if err != nil {
		return "", &TransportError{Macro: name, Err: errors.Wrap(err, "failed to prepare request")}
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Macro: name, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplySize))
		return "", &TransportError{Macro: name, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return "", &TransportError{Macro: name, Err: errors.Wrap(err, "failed to read reply")}
	}
	reply = strings.TrimSpace(string(body))
	c.log.Debugw("macro_call", "macro", name, "args", JoinArgs(args), "reply", reply, "elapsed", time.Since(start))
	return reply, nil
}
