package instrumentation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Environment variables read by LoadConfig
const (
	EnvServiceName       = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID = "OTEL_SERVICE_INSTANCE_ID"
	EnvOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSamplingRate      = "OTEL_TRACES_SAMPLER_ARG"
	EnvEnabled           = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter   = "METRICS_EXPORTER"
	EnvTracingExporter   = "TRACING_EXPORTER"
	EnvDetailedLabels    = "METRICS_DETAILED_LABELS"
	EnvAuditEnabled      = "AUDIT_LOGGING_ENABLED"
	EnvAuditIncludePII   = "AUDIT_LOGGING_INCLUDE_PII"
)

// DefaultSamplingRate is the trace ratio used when OTEL_TRACES_SAMPLER_ARG is unset
const DefaultSamplingRate = 0.1

// Config selects the exporters and resource attributes for metrics,
// tracing and the audit log.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID falls back to K8sPodName, then the hostname
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled switches metrics and tracing on. A disabled provider hands
	// out a no-op recorder.
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout
	MetricsExporter string

	// TracingExporter is otlp, stdout or none
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme. OTLPInsecure turns off
	// TLS and is meant for local collectors only.
	OTLPEndpoint string
	OTLPInsecure bool

	// TraceSamplingRate is a ratio in [0, 1]
	TraceSamplingRate float64

	// DetailedLabels adds the account reference to tool metrics. Leave it
	// off unless references are few.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the tool audit log.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full phone numbers instead of their hash
	IncludePII bool
}

// LoadConfig builds a Config from lookup (usually os.Getenv) and validates
// it. Malformed booleans and ratios are reported, not ignored.
func LoadConfig(lookup func(string) string) (Config, error) {
	r := envReader{lookup: lookup}

	cfg := Config{
		ServiceName:       r.str(EnvServiceName, "daraja-mcp"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: r.str(EnvServiceInstanceID, ""),
		K8sNamespace:      r.str("K8S_NAMESPACE", r.str("POD_NAMESPACE", "")),
		K8sPodName:        r.str("K8S_POD_NAME", r.str("HOSTNAME", "")),
		Enabled:           r.boolean(EnvEnabled, true),
		MetricsExporter:   strings.ToLower(r.str(EnvMetricsExporter, ExporterPrometheus)),
		TracingExporter:   strings.ToLower(r.str(EnvTracingExporter, ExporterNone)),
		OTLPEndpoint:      r.str(EnvOTLPEndpoint, ""),
		OTLPInsecure:      r.boolean(EnvOTLPInsecure, false),
		TraceSamplingRate: r.ratio(EnvSamplingRate, DefaultSamplingRate),
		DetailedLabels:    r.boolean(EnvDetailedLabels, false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    r.boolean(EnvAuditEnabled, true),
			IncludePII: r.boolean(EnvAuditIncludePII, false),
		},
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown exporters, an out-of-range sampling ratio and
// OTLP exporters without an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %s", c.MetricsExporter, strings.Join(metricsExporters, ", "))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %s", c.TracingExporter, strings.Join(tracingExporters, ", "))
	}
	if c.OTLPEndpoint == "" {
		switch {
		case c.MetricsExporter == ExporterOTLP:
			return errors.New("OTLP endpoint is required when using OTLP metrics exporter")
		case c.TracingExporter == ExporterOTLP:
			return errors.New("OTLP endpoint is required when using OTLP tracing exporter")
		}
	}
	return nil
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// envReader collects parse errors so LoadConfig can report all of them
type envReader struct {
	lookup func(string) string
	errs   []error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.lookup(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) boolean(key string, def bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return def
	}
	return v
}

func (r *envReader) ratio(key string, def float64) float64 {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a number", key, raw))
		return def
	}
	return v
}

// Metric label values
const (
	StatusSuccess = "success"
	StatusError   = "error"

	CredentialResultSuccess   = "success"
	CredentialResultFailure   = "failure"
	CredentialResultDiscarded = "discarded"

	ServiceDaraja       = "daraja"
	ServiceUnstructured = "unstructured"
	ServiceMongoDB      = "mongodb"
	ServiceS3           = "s3"
)

// Exporter names accepted by Config
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
