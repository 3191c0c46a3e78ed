package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SignInMetrics 签到相关指标
type SignInMetrics struct {
	ForumsTotal     metric.Int64Counter
	ExpGainedTotal  metric.Int64Counter
	AccountsTotal   metric.Int64Counter
	AccountDuration metric.Float64Histogram

	FloorRequestsTotal   metric.Int64Counter
	FloorRequestDuration metric.Float64Histogram

	NotifyTotal metric.Int64Counter
}

var metrics *SignInMetrics

// Init 基于当前全局 MeterProvider 创建指标，需在 otel 初始化之后调用
func Init() error {
	return InitWithMeter(otel.Meter("floor-signin"))
}

func InitWithMeter(meter metric.Meter) error {
	m := &SignInMetrics{}
	var err error

	m.ForumsTotal, err = meter.Int64Counter(
		"signin_forums_total",
		metric.WithDescription("Total number of forum sign-in attempts by outcome"),
		metric.WithUnit("{forum}"),
	)
	if err != nil {
		return err
	}

	m.ExpGainedTotal, err = meter.Int64Counter(
		"signin_exp_gained_total",
		metric.WithDescription("Total experience gained from sign-in"),
		metric.WithUnit("{exp}"),
	)
	if err != nil {
		return err
	}

	m.AccountsTotal, err = meter.Int64Counter(
		"signin_accounts_total",
		metric.WithDescription("Total number of processed accounts by final state"),
		metric.WithUnit("{account}"),
	)
	if err != nil {
		return err
	}

	m.AccountDuration, err = meter.Float64Histogram(
		"signin_account_duration_seconds",
		metric.WithDescription("Time spent signing in one account"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(10, 30, 60, 90, 120, 180, 300),
	)
	if err != nil {
		return err
	}

	m.FloorRequestsTotal, err = meter.Int64Counter(
		"floor_requests_total",
		metric.WithDescription("Total number of remote API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.FloorRequestDuration, err = meter.Float64Histogram(
		"floor_request_duration_seconds",
		metric.WithDescription("Remote API request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return err
	}

	m.NotifyTotal, err = meter.Int64Counter(
		"signin_notify_total",
		metric.WithDescription("Total number of report notifications"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	metrics = m
	return nil
}

// Get 未初始化时返回 nil
func Get() *SignInMetrics {
	return metrics
}

// RecordForum 记录单个版块结果，outcome 取 OutcomeKind.String()
func RecordForum(ctx context.Context, outcome string, exp int) {
	m := Get()
	if m == nil {
		return
	}
	m.ForumsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if exp > 0 {
		m.ExpGainedTotal.Add(ctx, int64(exp))
	}
}

// RecordAccount 记录单个账号的最终状态和耗时
func RecordAccount(ctx context.Context, state string, duration time.Duration) {
	m := Get()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("state", state))
	m.AccountsTotal.Add(ctx, 1, attrs)
	m.AccountDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRequest 记录一次远端请求，status 为 ok / rejected / malformed / transport
func RecordRequest(ctx context.Context, endpoint, status string, duration time.Duration) {
	m := Get()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	)
	m.FloorRequestsTotal.Add(ctx, 1, attrs)
	m.FloorRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordNotify 记录一次报告推送
func RecordNotify(ctx context.Context, notifier string, err error) {
	m := Get()
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.NotifyTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("notifier", notifier),
		attribute.String("status", status),
	))
}
