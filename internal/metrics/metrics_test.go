package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCollectorCounts verifies each record method increments its counter.
func TestCollectorCounts(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordSignup()
	c.RecordLogin(LoginSuccess)
	c.RecordLogin(LoginBadPassword)
	c.RecordOTPIssued()
	c.RecordOTPVerified(true)
	c.RecordOTPVerified(false)

	if got := testutil.ToFloat64(c.signups); got != 1 {
		t.Errorf("signups: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(c.logins.WithLabelValues(LoginSuccess)); got != 1 {
		t.Errorf("logins{success}: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(c.logins.WithLabelValues(LoginBadPassword)); got != 1 {
		t.Errorf("logins{bad_password}: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(c.otpIssued); got != 1 {
		t.Errorf("otp issued: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(c.otpVerified.WithLabelValues("ok")); got != 1 {
		t.Errorf("otp verified{ok}: expected 1, got %v", got)
	}
}

// TestNilCollector verifies a nil collector records nothing and does not
// panic, since handlers in tests run without metrics.
func TestNilCollector(t *testing.T) {
	var c *Collector
	c.RecordSignup()
	c.RecordLogin(LoginSuccess)
	c.RecordOTPIssued()
	c.RecordOTPVerified(false)
}

// TestHandlerServesRegistry verifies the exposition endpoint renders the
// registered counters.
func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignup()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "finverify_signups_total 1") {
		t.Errorf("exposition missing signups counter:\n%s", rec.Body.String())
	}
}
