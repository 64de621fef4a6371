package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the resolver, client factory and error responder report to
type Recorder interface {
	RecordResolution(source string, valid bool)
	RecordMultiResolution(source string, resolved, dropped int)
	RecordTokenMint(success bool)
	RecordErrorResponse(code string, status int)
}

type Collector struct {
	resolutions      *prometheus.CounterVec
	multiResolutions *prometheus.CounterVec
	droppedIDs       prometheus.Counter
	tokenMints       *prometheus.CounterVec
	errorResponses   *prometheus.CounterVec
}

// NewCollector creates the collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghdash_installation_resolutions_total",
			Help: "Single installation ID resolutions by source and validity",
		}, []string{"source", "valid"}),
		multiResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghdash_multi_installation_resolutions_total",
			Help: "Multi installation ID resolutions by source",
		}, []string{"source"}),
		droppedIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghdash_multi_installation_dropped_ids_total",
			Help: "Installation IDs dropped because they were not in the available installations",
		}),
		tokenMints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghdash_installation_token_mints_total",
			Help: "Installation access token exchanges by result",
		}, []string{"result"}),
		errorResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghdash_api_error_responses_total",
			Help: "API error responses by error code and HTTP status",
		}, []string{"code", "status"}),
	}

	reg.MustRegister(
		c.resolutions,
		c.multiResolutions,
		c.droppedIDs,
		c.tokenMints,
		c.errorResponses,
	)

	return c
}

func (c *Collector) RecordResolution(source string, valid bool) {
	c.resolutions.WithLabelValues(source, strconv.FormatBool(valid)).Inc()
}

func (c *Collector) RecordMultiResolution(source string, resolved, dropped int) {
	c.multiResolutions.WithLabelValues(source).Inc()
	c.droppedIDs.Add(float64(dropped))
}

func (c *Collector) RecordTokenMint(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.tokenMints.WithLabelValues(result).Inc()
}

func (c *Collector) RecordErrorResponse(code string, status int) {
	c.errorResponses.WithLabelValues(code, strconv.Itoa(status)).Inc()
}

// Handler returns the Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything
type Noop struct{}

func (Noop) RecordResolution(string, bool) {}
func (Noop) RecordMultiResolution(string, int, int) {}
func (Noop) RecordTokenMint(bool) {}
func (Noop) RecordErrorResponse(string, int) {}
