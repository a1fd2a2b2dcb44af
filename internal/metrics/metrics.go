package metrics

import (
	"sync"

	"github.com/go-authlink/authlink/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements core.Recorder at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Authentication Metrics
	AuthLoginTotal         *prometheus.CounterVec
	AuthRegistrationTotal  *prometheus.CounterVec
	AuthLogoutTotal        prometheus.Counter
	AuthOAuthCallbackTotal *prometheus.CounterVec

	// Login-Method Linking Metrics
	LinkDecisionsTotal   *prometheus.CounterVec
	MethodMutationsTotal *prometheus.CounterVec

	// Token Metrics
	TokensIssuedTotal       *prometheus.CounterVec
	TokensRevokedTotal      *prometheus.CounterVec
	TokensRefreshedTotal    *prometheus.CounterVec
	TokenValidationTotal    *prometheus.CounterVec
	TokenGenerationDuration *prometheus.HistogramVec
	TokenValidationDuration prometheus.Histogram

	// Revocation Blacklist Metrics
	RevocationsPrunedTotal prometheus.Counter
	RevokedTokensLive      *prometheus.GaugeVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		// Authentication Metrics
		AuthLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{
				"method",
				"result",
			}, // method: local, google, github, twitter; result: success, failure
		),
		AuthRegistrationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registration_total",
				Help: "Total number of local account registrations",
			},
			[]string{"result"}, // success, error
		),
		AuthLogoutTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_logout_total",
				Help: "Total number of logouts",
			},
		),
		AuthOAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_callback_total",
				Help: "Total number of OAuth2 callback attempts",
			},
			[]string{
				"provider",
				"result",
			}, // provider: google, github, twitter; result: success, error
		),

		// Login-Method Linking Metrics
		LinkDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "link_decisions_total",
				Help: "Total number of login-method linking decisions",
			},
			[]string{
				"provider",
				"decision",
			}, // decision: login, bind, create, rejected_identity_bound, rejected_email_collision
		),
		MethodMutationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_method_mutations_total",
				Help: "Total number of login-method add/remove/set-primary operations",
			},
			[]string{
				"operation",
				"result",
			}, // operation: add_local, remove, set_primary; result: success, error
		),

		// Token Metrics
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"token_type"}, // access, refresh
		),
		TokensRevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_tokens_revoked_total",
				Help: "Total number of tokens revoked",
			},
			[]string{"token_type", "reason"}, // reason: logout, rotation, admin
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_tokens_refreshed_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"}, // success, error
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_token_validation_total",
				Help: "Total number of token validations",
			},
			[]string{
				"result",
			}, // valid, expired, revoked, bad_signature, wrong_type, malformed
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_token_generation_duration_seconds",
				Help:    "Time taken to sign tokens",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"token_type"},
		),
		TokenValidationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "auth_token_validation_duration_seconds",
				Help:    "Time taken to validate tokens",
				Buckets: prometheus.DefBuckets,
			},
		),

		// Revocation Blacklist Metrics
		RevocationsPrunedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_revocations_pruned_total",
				Help: "Total number of expired blacklist entries removed",
			},
		),
		RevokedTokensLive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "auth_revoked_tokens_live",
				Help: "Current number of live blacklist entries",
			},
			[]string{"token_type"},
		),

		// HTTP Request Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}
