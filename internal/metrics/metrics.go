// Package metrics collects and exposes Prometheus counters for auth events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcome labels.
const (
	LoginSuccess     = "success"
	LoginNotFound    = "not_found"
	LoginBadPassword = "bad_password"
	LoginError       = "error"
)

// Collector counts authentication events. A nil *Collector is valid and
// records nothing, so handlers need no guards in tests.
type Collector struct {
	signups     prometheus.Counter
	logins      *prometheus.CounterVec
	otpIssued   prometheus.Counter
	otpVerified *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finverify_signups_total",
			Help: "Total accounts created through signup.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finverify_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		otpIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finverify_otp_issued_total",
			Help: "One-time passcodes issued and delivered.",
		}),
		otpVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finverify_otp_verified_total",
			Help: "One-time passcode verification attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.otpIssued,
		c.otpVerified,
	)

	return c
}

func (c *Collector) RecordSignup() {
	if c == nil {
		return
	}
	c.signups.Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordOTPIssued() {
	if c == nil {
		return
	}
	c.otpIssued.Inc()
}

func (c *Collector) RecordOTPVerified(ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "invalid"
	}
	c.otpVerified.WithLabelValues(result).Inc()
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
