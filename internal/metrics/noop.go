package metrics

import (
	"time"

	"github.com/go-authlink/authlink/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements core.Recorder at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

// Authentication - noop implementations
func (n *NoopMetrics) RecordLogin(method string, success bool)           {}
func (n *NoopMetrics) RecordRegistration(success bool)                   {}
func (n *NoopMetrics) RecordLogout()                                     {}
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool) {}

// Login-method linking - noop implementations
func (n *NoopMetrics) RecordLinkDecision(provider, decision string)        {}
func (n *NoopMetrics) RecordMethodMutation(operation string, success bool) {}

// Token operations - noop implementations
func (n *NoopMetrics) RecordTokenIssued(tokenType string, generationTime time.Duration) {}
func (n *NoopMetrics) RecordTokenValidation(result string, duration time.Duration)      {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)                                  {}
func (n *NoopMetrics) RecordTokenRevoked(tokenType, reason string)                      {}

// Revocation blacklist maintenance - noop implementations
func (n *NoopMetrics) RecordRevocationPrune(deleted int64) {}
