package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "irrigation"

// Poll outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeParseError     = "parse_error"
)

// Collector groups the metrics of both the panel and the simulator.
// All methods are nil-safe so components can be built without metrics.
type Collector struct {
	registry *prometheus.Registry

	macroCalls     *prometheus.CounterVec
	macroDuration  *prometheus.HistogramVec
	polls          *prometheus.CounterVec
	staleResponses *prometheus.CounterVec
	relaySwitches  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New builds a Collector registered on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		macroCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "macro_calls_total",
			Help:      "Macro calls issued to the controller, labeled by macro and outcome",
		}, []string{"macro", "outcome"}),
		macroDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "macro_call_duration_seconds",
			Help:      "Round trip time of macro calls",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"macro"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panel_polls_total",
			Help:      "getAll poll cycles labeled by outcome",
		}, []string{"outcome"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panel_stale_responses_total",
			Help:      "Responses discarded because a newer request for the same widget was issued",
		}, []string{"widget"}),
		relaySwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_switches_total",
			Help:      "Relay state changes performed by the simulator",
		}, []string{"channel", "state"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of requests labeled by response code and route",
		}, []string{"code", "route"}),
	}
	c.registry.MustRegister(
		c.macroCalls,
		c.macroDuration,
		c.polls,
		c.staleResponses,
		c.relaySwitches,
		c.httpRequests,
		prometheus.NewGoCollector(),
	)
	return c
}

// ObserveCall records one macro round trip.
func (c *Collector) ObserveCall(macro string, err error, d time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = "error"
	}
	c.macroCalls.WithLabelValues(macro, outcome).Inc()
	c.macroDuration.WithLabelValues(macro).Observe(d.Seconds())
}

func (c *Collector) ObservePoll(outcome string) {
	if c == nil {
		return
	}
	c.polls.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveStale(widget string) {
	if c == nil {
		return
	}
	c.staleResponses.WithLabelValues(widget).Inc()
}

func (c *Collector) ObserveRelay(channel int, on bool) {
	if c == nil {
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	c.relaySwitches.WithLabelValues(strconv.Itoa(channel), state).Inc()
}

// Handler exposes the registry in the Prometheus text format.
// A nil Collector serves 404.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinMiddleware counts requests by status code and matched route.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		if c == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpRequests.WithLabelValues(strconv.Itoa(ctx.Writer.Status()), route).Inc()
	}
}
