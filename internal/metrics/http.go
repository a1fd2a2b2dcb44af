package metrics

import (
	"strconv"
	"time"

	"github.com/go-authlink/authlink/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	// Type assert to concrete Metrics for Prometheus access; NoopMetrics and
	// anything else get a passthrough middleware.
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/users/:id") or "unknown" if no match
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordLogin records a login attempt by method (local or provider slug)
func (m *Metrics) RecordLogin(method string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.AuthLoginTotal.WithLabelValues(method, result).Inc()
}

// RecordRegistration records a local account registration
func (m *Metrics) RecordRegistration(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.AuthRegistrationTotal.WithLabelValues(result).Inc()
}

// RecordLogout records a logout
func (m *Metrics) RecordLogout() {
	m.AuthLogoutTotal.Inc()
}

// RecordOAuthCallback records an OAuth2 callback attempt
func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.AuthOAuthCallbackTotal.WithLabelValues(provider, result).Inc()
}

// RecordLinkDecision records the outcome of a login-method linking decision
func (m *Metrics) RecordLinkDecision(provider, decision string) {
	m.LinkDecisionsTotal.WithLabelValues(provider, decision).Inc()
}

// RecordMethodMutation records an add/remove/set-primary operation
func (m *Metrics) RecordMethodMutation(operation string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.MethodMutationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordTokenIssued records token issuance
func (m *Metrics) RecordTokenIssued(tokenType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
	m.TokenGenerationDuration.WithLabelValues(tokenType).Observe(generationTime.Seconds())
}

// RecordTokenValidation records a token validation and its outcome
func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

// RecordTokenRefresh records a token refresh attempt
func (m *Metrics) RecordTokenRefresh(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.TokensRefreshedTotal.WithLabelValues(result).Inc()
}

// RecordTokenRevoked records a token revocation
func (m *Metrics) RecordTokenRevoked(tokenType, reason string) {
	m.TokensRevokedTotal.WithLabelValues(tokenType, reason).Inc()
}

// RecordRevocationPrune records a blacklist maintenance sweep
func (m *Metrics) RecordRevocationPrune(deleted int64) {
	m.RevocationsPrunedTotal.Add(float64(deleted))
}

// SetRevokedTokensLive sets the current blacklist gauge (for periodic updates)
func (m *Metrics) SetRevokedTokensLive(tokenType string, count int64) {
	m.RevokedTokensLive.WithLabelValues(tokenType).Set(float64(count))
}
