package bootstrap_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artpar/unitwizard/adapters/backend"
	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/bootstrap"
	"github.com/artpar/unitwizard/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const fileConfig = `
forms: [measure, gonum, string]
default_form: measure
default_parser: measure
standards:
  units: [nm, ps, kJ/mol]
  decimals: 3
server:
  host: 127.0.0.1
  port: 9191
logging:
  level: warn
metrics:
  enabled: true
`

// clearEnv keeps UNITWIZARD_* variables of the host out of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "UNITWIZARD_") {
			t.Setenv(name, "")
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unitwizard.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestBootstrap_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("UNITWIZARD_STANDARDS", "nm, ps")
	t.Setenv(bootstrap.EnvLogLevel, "debug")
	t.Setenv(bootstrap.EnvLogFormat, "console")

	a, err := bootstrap.New("")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if a.Wizard == nil {
		t.Fatal("Wizard should not be nil")
	}
	if a.HTTPServer == nil {
		t.Fatal("HTTPServer should not be nil")
	}
	if a.Metrics != nil {
		t.Error("Metrics should be nil when disabled")
	}
	if a.HTTPServer.Addr != "0.0.0.0:8089" {
		t.Errorf("Addr = %q, want 0.0.0.0:8089", a.HTTPServer.Addr)
	}

	st := a.Wizard.State()
	if len(st.Standards) != 2 {
		t.Errorf("standards = %v, want nm and ps", st.Standards)
	}
	if st.DefaultForm != "measure" {
		t.Errorf("DefaultForm = %q, want measure", st.DefaultForm)
	}
}

func TestBootstrap_FromFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, fileConfig)
	reg := prometheus.NewRegistry()

	a, err := bootstrap.NewWithOptions(bootstrap.Options{
		ConfigPath: path,
		Registerer: reg,
		Gatherer:   reg,
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if a.Metrics == nil {
		t.Fatal("Metrics should be enabled")
	}
	if a.HTTPServer.Addr != "127.0.0.1:9191" {
		t.Errorf("Addr = %q, want 127.0.0.1:9191", a.HTTPServer.Addr)
	}
	if st := a.Wizard.State(); st.Decimals != 3 || len(st.Combinations) != 1 {
		t.Errorf("state = %+v, want decimals 3 and one combination", st)
	}

	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/standardize", strings.NewReader(`{"input": "2 angstrom"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/standardize status = %d, body: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unitwizard_standardizations_total") {
		t.Error("standardization counter missing from /metrics")
	}
}

func TestBootstrap_FormsWithoutText(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
forms: [measure, gonum]
default_form: measure
default_parser: measure
standards:
  units: [nm, ps, kJ/mol, radian]
  order: ["[L]","[M]","[T]","[K]","[mol]","[A]","[Cd]"]
  decimals: 4
logging: {level: info, format: json}
metrics: {enabled: true, path: /metrics}
server: {host: 0.0.0.0, port: 8089}
`)

	a, err := bootstrap.NewWithOptions(bootstrap.Options{ConfigPath: path, Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if st := a.Wizard.State(); len(st.Standards) != 4 {
		t.Errorf("standards = %v, want 4", st.Standards)
	}

	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/convert", strings.NewReader(`{"input": "5 nm", "to_unit": "angstrom"}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("POST /v1/convert status = %d, body: %s", rec.Code, rec.Body)
	}
}

func TestBootstrap_ConfigFromEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv(bootstrap.EnvConfigPath, writeFile(t, fileConfig))

	a, err := bootstrap.NewWithOptions(bootstrap.Options{Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	if a.Config.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191", a.Config.Server.Port)
	}
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "forms: [gonum]\ndefault_form: measure\n")

	if _, err := bootstrap.New(path); err == nil {
		t.Error("expected error for default_form outside forms")
	}
}

func TestBootstrap_UnknownStandard(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "standards:\n  units: [furlong]\n")

	if _, err := bootstrap.New(path); err == nil {
		t.Error("expected error for an unparseable standard unit")
	}
}

func TestBootstrap_HotReloadNeedsFile(t *testing.T) {
	clearEnv(t)

	if _, err := bootstrap.NewWithHotReload(""); err == nil {
		t.Error("expected error without a config file")
	}
}

func TestBootstrap_Reload(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, fileConfig)

	a, err := bootstrap.NewWithOptions(bootstrap.Options{
		ConfigPath: path,
		HotReload:  true,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Shutdown()

	updated := strings.Replace(fileConfig, "units: [nm, ps, kJ/mol]", "units: [angstrom, fs]", 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := a.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	got, err := a.Wizard.StandardUnits(app.StandardOpts{X: "3 m/s", Form: "string"})
	if err != nil {
		t.Fatalf("StandardUnits() error = %v", err)
	}
	if got != "angstrom / femtosecond" {
		t.Errorf("StandardUnits() = %v, want angstrom / femtosecond", got)
	}
	if v := a.Metrics.ConfigReloads; v == nil {
		t.Error("reload counter should exist")
	}
}

func TestBootstrap_ReloadWithoutHolder(t *testing.T) {
	clearEnv(t)

	a, err := bootstrap.New("")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	if err := a.Reload(); err != nil {
		t.Errorf("Reload() error = %v, want nil", err)
	}
	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestApply(t *testing.T) {
	w, err := app.New(app.Options{Catalog: backend.Catalog(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	decimals := 2
	cfg := &config.Config{
		DefaultForm: "gonum",
		Standards: config.StandardsConfig{
			Units:    []string{"m", "s"},
			Order:    []string{"[T]", "[L]", "[M]", "[K]", "[mol]", "[A]", "[Cd]"},
			Decimals: &decimals,
		},
	}

	if err := bootstrap.Apply(w, cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	st := w.State()
	if st.DefaultForm != "gonum" || st.DefaultParser != "measure" {
		t.Errorf("defaults = %q/%q, want gonum/measure", st.DefaultForm, st.DefaultParser)
	}
	if st.Decimals != 2 {
		t.Errorf("Decimals = %d, want 2", st.Decimals)
	}
	if len(st.Order) != 7 || st.Order[0] != "[T]" {
		t.Errorf("Order = %v, want [T] first", st.Order)
	}
	if len(st.Fundamental) != 2 {
		t.Errorf("Fundamental = %v, want m and s", st.Fundamental)
	}

	cfg.DefaultParser = "gonum"
	if err := bootstrap.Apply(w, cfg); err == nil {
		t.Error("Apply() should reject a parser-less default parser")
	}
}

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	bootstrap.SetupLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("global level = %v, want warn", zerolog.GlobalLevel())
	}
	bootstrap.SetupLogger(config.LoggingConfig{Level: "bogus"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("global level = %v, want info", zerolog.GlobalLevel())
	}
}
