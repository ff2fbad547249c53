package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oakmund/admin-iam/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	loginAttempts *prometheus.CounterVec
	tokenRefresh  prometheus.Counter
	purgedEntries prometheus.Counter
}

// Attach configures telemetry collectors and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	loginAttempts := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admin_iam",
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by outcome",
	}, []string{"outcome"})

	tokenRefresh := promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "admin_iam",
		Name:      "token_refresh_total",
		Help:      "Total number of refresh token exchanges",
	})

	purgedEntries := promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "admin_iam",
		Name:      "blacklist_purged_total",
		Help:      "Total number of expired blacklist entries removed",
	})

	return &Provider{
		loginAttempts: loginAttempts,
		tokenRefresh:  tokenRefresh,
		purgedEntries: purgedEntries,
	}, nil
}

// ObserveLogin counts one login attempt with the given outcome label.
func (p *Provider) ObserveLogin(outcome string) {
	if p == nil {
		return
	}
	p.loginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveRefresh counts one refresh token exchange.
func (p *Provider) ObserveRefresh() {
	if p == nil {
		return
	}
	p.tokenRefresh.Inc()
}

// ObservePurged counts removed blacklist entries.
func (p *Provider) ObservePurged(count int) {
	if p == nil || count <= 0 {
		return
	}
	p.purgedEntries.Add(float64(count))
}
