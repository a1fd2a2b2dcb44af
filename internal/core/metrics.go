package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Authentication
	RecordLogin(method string, success bool)
	RecordRegistration(success bool)
	RecordLogout()
	RecordOAuthCallback(provider string, success bool)

	// Login-method linking
	RecordLinkDecision(provider, decision string)
	RecordMethodMutation(operation string, success bool)

	// Token operations
	RecordTokenIssued(tokenType string, generationTime time.Duration)
	RecordTokenValidation(result string, duration time.Duration)
	RecordTokenRefresh(success bool)
	RecordTokenRevoked(tokenType, reason string)

	// Revocation blacklist maintenance
	RecordRevocationPrune(deleted int64)
}
