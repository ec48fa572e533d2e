package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DriverCreated()
	m.DriverCreated()
	m.DriverUpdated()
	m.DriverDeleted()
	m.DuplicateRejected(domain.FieldEmail)
	m.DuplicateRejected(domain.FieldTaxID)
	m.DuplicateRejected(domain.FieldEmail)
	m.LoginAttempt(true)
	m.LoginAttempt(false)
	m.LoginAttempt(false)
	m.TokenRejected(ReasonMissing)
	m.ListServed(20 * time.Millisecond)

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"created", m.driversCreated, 2},
		{"updated", m.driversUpdated, 1},
		{"deleted", m.driversDeleted, 1},
		{"duplicate email", m.duplicateRejections.WithLabelValues("email"), 2},
		{"duplicate taxId", m.duplicateRejections.WithLabelValues("taxId"), 1},
		{"login success", m.loginAttempts.WithLabelValues("success"), 1},
		{"login failure", m.loginAttempts.WithLabelValues("failure"), 2},
		{"token missing", m.tokenRejections.WithLabelValues(ReasonMissing), 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, got)
		}
	}

	if n := testutil.CollectAndCount(m.listDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestNew_RegistersNamespacedNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DriverCreated()
	m.DuplicateRejected(domain.FieldLicenseNumber)
	m.LoginAttempt(true)
	m.TokenRejected(ReasonInvalid)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"directory_drivers_created_total",
		"directory_duplicate_rejections_total",
		"directory_login_attempts_total",
		"directory_token_rejections_total",
		"directory_driver_list_duration_seconds",
	} {
		if !names[want] {
			t.Fatalf("metric %s not registered (have %v)", want, names)
		}
	}
}
