package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tecnochamados"

// Metrics holds the process collectors.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	Invitations *prometheus.CounterVec
	Activations *prometheus.CounterVec
	MailsSent   *prometheus.CounterVec
	Events      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method"},
		),
		Invitations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invitations",
				Name:      "total",
				Help:      "Invitations by delivery mode and result.",
			},
			[]string{"mode", "result"},
		),
		Activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "activations",
				Name:      "total",
				Help:      "Activation attempts by result.",
			},
			[]string{"result"}, // result=success|rejected|failed|incomplete
		),
		MailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mailer",
				Name:      "sent_total",
				Help:      "Invitation e-mails handed to SMTP by result.",
			},
			[]string{"result"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Domain events delivered to subscribers.",
			},
			[]string{"type"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestsDuration, m.InFlight, m.Invitations, m.Activations, m.MailsSent, m.Events)
	return m
}

// Middleware records request counters and latency per route template.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		method := c.Method()

		m.InFlight.WithLabelValues(method).Inc()
		defer m.InFlight.WithLabelValues(method).Dec()

		err := c.Next()

		// route template is only known after routing
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		code := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		}
		status := strconv.Itoa(code)

		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		m.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveInvitation counts an invitation outcome.
func (m *Metrics) ObserveInvitation(mode, result string) {
	if m == nil {
		return
	}
	m.Invitations.WithLabelValues(mode, result).Inc()
}

// ObserveActivation counts an activation outcome.
func (m *Metrics) ObserveActivation(result string) {
	if m == nil {
		return
	}
	m.Activations.WithLabelValues(result).Inc()
}

// ObserveMail counts a relay delivery outcome.
func (m *Metrics) ObserveMail(result string) {
	if m == nil {
		return
	}
	m.MailsSent.WithLabelValues(result).Inc()
}

// ObserveEvent counts a delivered domain event.
func (m *Metrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(eventType).Inc()
}
