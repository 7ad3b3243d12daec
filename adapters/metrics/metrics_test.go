package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/unitwizard/adapters/backend"
	"github.com/artpar/unitwizard/adapters/metrics"
	"github.com/artpar/unitwizard/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var _ app.Recorder = (*metrics.Collector)(nil)

// gather returns the sample values of every series, keyed by family name.
func gather(t *testing.T, reg *prometheus.Registry) map[string][]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	out := map[string][]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			}
			out[f.GetName()] = append(out[f.GetName()], v)
		}
	}
	return out
}

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.Conversions == nil {
		t.Error("Conversions is nil")
	}
	if m.IdentifyCache == nil {
		t.Error("IdentifyCache is nil")
	}
	if m.Standardizations == nil {
		t.Error("Standardizations is nil")
	}
	if m.ScopeDepth == nil {
		t.Error("ScopeDepth is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
}

func TestRecorderMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Conversion("measure", "gonum", "bridge")
	m.Conversion("measure", "gonum", "bridge")
	m.Conversion("string", "measure", "parse")
	m.Standardization("fundamental")
	m.Error("no_standards")
	m.Identify(true)
	m.Identify(false)
	m.Identify(true)
	m.Depth(3)

	got := gather(t, reg)
	if n := len(got["unitwizard_conversions_total"]); n != 2 {
		t.Errorf("conversions series = %d, want 2", n)
	}
	if n := len(got["unitwizard_identify_cache_total"]); n != 2 {
		t.Errorf("identify cache series = %d, want 2 (hit, miss)", n)
	}
	if v := got["unitwizard_scope_depth"]; len(v) != 1 || v[0] != 3 {
		t.Errorf("scope depth = %v, want [3]", v)
	}
	if v := got["unitwizard_errors_total"]; len(v) != 1 || v[0] != 1 {
		t.Errorf("errors = %v, want [1]", v)
	}
}

func TestReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Reload(nil)
	m.Reload(errors.New("bad yaml"))
	m.Reload(nil)

	got := gather(t, reg)
	if v := got["unitwizard_config_reloads_total"]; len(v) != 1 || v[0] != 2 {
		t.Errorf("reloads = %v, want [2]", v)
	}
	if v := got["unitwizard_config_reload_errors_total"]; len(v) != 1 || v[0] != 1 {
		t.Errorf("reload errors = %v, want [1]", v)
	}
	if v := got["unitwizard_config_last_reload_timestamp"]; len(v) != 1 || v[0] == 0 {
		t.Errorf("last reload = %v, want a timestamp", v)
	}
}

func TestRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Request("POST", "/v1/convert", 200, 5*time.Millisecond)
	m.Request("POST", "/v1/convert", 201, time.Millisecond)
	m.Request("POST", "/v1/convert", 422, time.Millisecond)

	got := gather(t, reg)
	if n := len(got["unitwizard_requests_total"]); n != 2 {
		t.Errorf("requests series = %d, want 2 (2xx, 4xx)", n)
	}
	if n := len(got["unitwizard_request_duration_seconds"]); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{404, "4xx"},
		{500, "5xx"},
		{42, "unknown"},
		{600, "unknown"},
	}
	for _, tt := range tests {
		if got := metrics.StatusClass(tt.status); got != tt.want {
			t.Errorf("StatusClass(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := metrics.NormalizePath("/v1/convert"); got != "/v1/convert" {
		t.Errorf("NormalizePath(/v1/convert) = %s", got)
	}

	longPath := "/very/long/path/that/exceeds/fifty/characters/in/total/length"
	result := metrics.NormalizePath(longPath)
	if len(result) > 53 {
		t.Errorf("NormalizePath should truncate long paths, got len=%d", len(result))
	}
	if result[len(result)-3:] != "..." {
		t.Errorf("truncated path should end with '...', got %s", result)
	}
}

func TestCollectorAsWizardRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	w, err := app.New(app.Options{Catalog: backend.Catalog(), Logger: zerolog.Nop(), Recorder: m})
	if err != nil {
		t.Fatalf("app.New error: %v", err)
	}
	w.Forms().SetObserver(m.Identify)
	w.Kernel().SetDepthObserver(m.Depth)

	if _, err := w.Convert("5 nm", app.ConvertOpts{ToForm: "gonum"}); err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if _, err := w.StandardUnits(app.StandardOpts{X: "5 nm"}); err == nil {
		t.Fatal("StandardUnits without standards should fail")
	}

	got := gather(t, reg)
	if len(got["unitwizard_conversions_total"]) == 0 {
		t.Error("no conversions recorded")
	}
	if len(got["unitwizard_identify_cache_total"]) == 0 {
		t.Error("no identify lookups recorded")
	}
	if v := got["unitwizard_errors_total"]; len(v) != 1 || v[0] != 1 {
		t.Errorf("errors = %v, want one no_standards", v)
	}
}
