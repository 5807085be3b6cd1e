package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the service level counters exported on /metrics.
type Metrics struct {
	signups          metric.Int64Counter
	logins           metric.Int64Counter
	emailsSent       metric.Int64Counter
	onboardingWrites metric.Int64Counter
}

// NewMetrics registers the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.signups, err = meter.Int64Counter("kanah_signups_total",
		metric.WithDescription("Accounts created, by method")); err != nil {
		return nil, fmt.Errorf("failed to create signups counter: %w", err)
	}
	if m.logins, err = meter.Int64Counter("kanah_logins_total",
		metric.WithDescription("Login attempts, by method and result")); err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}
	if m.emailsSent, err = meter.Int64Counter("kanah_emails_sent_total",
		metric.WithDescription("Account emails handed to the mailer, by kind")); err != nil {
		return nil, fmt.Errorf("failed to create emails counter: %w", err)
	}
	if m.onboardingWrites, err = meter.Int64Counter("kanah_onboarding_writes_total",
		metric.WithDescription("Onboarding record writes, by table")); err != nil {
		return nil, fmt.Errorf("failed to create onboarding counter: %w", err)
	}

	return m, nil
}

// NoopMetrics returns counters that record nothing.
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *Metrics) Signup(ctx context.Context, method string) {
	m.signups.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func (m *Metrics) Login(ctx context.Context, method string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("result", result),
	))
}

func (m *Metrics) EmailSent(ctx context.Context, kind string) {
	m.emailsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) OnboardingWrite(ctx context.Context, table string, rows int) {
	m.onboardingWrites.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("table", table)))
}
